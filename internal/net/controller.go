package net

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/peterkuimelis/monbattle/internal/battle"
	"github.com/peterkuimelis/monbattle/internal/log"
)

// NetworkController implements battle.Controller over a TCP connection.
type NetworkController struct {
	conn   net.Conn
	enc    *json.Encoder
	dec    *json.Decoder
	player int // which side this controller plays (0 or 1)
	mu     sync.Mutex
}

// NewNetworkController creates a new controller for the given connection.
func NewNetworkController(conn net.Conn, player int) *NetworkController {
	return &NetworkController{
		conn:   conn,
		enc:    json.NewEncoder(conn),
		dec:    json.NewDecoder(conn),
		player: player,
	}
}

// BuildStateView creates a StateView from the perspective of the given side.
func BuildStateView(f *battle.Field, player int) *StateView {
	sv := &StateView{
		Turn:     f.Turn,
		You:      buildSideView(f.Sides[player], true),
		Opponent: buildSideView(f.Sides[1-player], false),
	}
	if f.Weather != battle.WeatherNone {
		sv.Weather = fmt.Sprintf("%s (%d)", f.Weather, f.WeatherTurns)
	}
	if f.Terrain != battle.TerrainNone {
		sv.Terrain = fmt.Sprintf("%s (%d)", f.Terrain, f.TerrainTurns)
	}
	return sv
}

func buildSideView(sd *battle.Side, isOwner bool) SideView {
	v := SideView{Name: sd.Name}
	for _, s := range sd.Slots {
		v.Slots = append(v.Slots, SlotStateView(s, isOwner))
	}
	for i, c := range sd.Party {
		v.Party = append(v.Party, CombatantStateView(i, c, isOwner))
	}
	return v
}

// SlotStateView creates a SlotView for an active slot.
func SlotStateView(s *battle.Slot, isOwner bool) SlotView {
	v := SlotView{Slot: s.Ref.String()}
	if s.Empty() {
		v.Empty = true
		return v
	}
	cv := CombatantStateView(-1, s.Combatant, isOwner)
	v.Combatant = &cv
	for st := battle.StatAttack; st <= battle.StatEvasion; st++ {
		if n := s.Combatant.Stages[st]; n != 0 {
			if v.Stages == nil {
				v.Stages = make(map[string]int)
			}
			v.Stages[st.String()] = n
		}
	}
	for vol := range s.Volatiles {
		v.Volatiles = append(v.Volatiles, vol.String())
	}
	sort.Strings(v.Volatiles)
	if s.Charging != nil {
		v.Charging = s.Charging.Name
	}
	return v
}

// CombatantStateView creates a CombatantView. Moves are hidden from opponents.
func CombatantStateView(index int, c *battle.Combatant, isOwner bool) CombatantView {
	cv := CombatantView{
		Index:   index,
		Name:    c.Name,
		Level:   c.Level,
		HP:      c.HP,
		MaxHP:   c.MaxHP,
		Fainted: c.Fainted(),
	}
	if c.Status != battle.StatusNone {
		cv.Status = c.Status.String()
	}
	if isOwner {
		for _, m := range c.Moves {
			cv.Moves = append(cv.Moves, MoveView{Name: m.Def.Name, Type: m.Def.Type, PP: m.PP, MaxPP: m.Def.PP})
		}
	}
	return cv
}

// NewEventView converts a battle event for the wire.
func NewEventView(event log.GameEvent) EventView {
	return EventView{
		Turn:    event.Turn,
		Phase:   event.Phase,
		Player:  event.Player,
		Type:    event.Type.String(),
		Subject: event.Subject,
		Key:     event.Key,
		Details: event.Details,
	}
}

// ActionViews numbers the choices for display.
func ActionViews(choices []battle.Choice) []ActionView {
	views := make([]ActionView, 0, len(choices))
	for i, c := range choices {
		views = append(views, ActionView{Index: i, Desc: c.Label})
	}
	return views
}

// CandidateViews describes the party members offered as replacements.
func CandidateViews(f *battle.Field, side int, candidates []int) []CombatantView {
	views := make([]CombatantView, 0, len(candidates))
	for i, idx := range candidates {
		cv := CombatantStateView(i, f.Sides[side].Party[idx], true)
		views = append(views, cv)
	}
	return views
}

// buildStateView creates a StateView from the perspective of this controller's side.
func (nc *NetworkController) buildStateView(f *battle.Field) *StateView {
	return BuildStateView(f, nc.player)
}

// send sends a server message to the client. Must be called with mu held.
func (nc *NetworkController) send(msg ServerMessage) error {
	return nc.enc.Encode(msg)
}

// recv reads a client message. Must be called with mu held.
func (nc *NetworkController) recv() (ClientMessage, error) {
	var msg ClientMessage
	err := nc.dec.Decode(&msg)
	return msg, err
}

// ChooseAction implements battle.Controller.
func (nc *NetworkController) ChooseAction(ctx context.Context, f *battle.Field, slot battle.SlotRef, choices []battle.Choice) (battle.Choice, error) {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	msg := ServerMessage{
		Type:    "choose_action",
		Slot:    fmt.Sprintf("%s %s", slot, f.Combatant(slot).Name),
		Actions: ActionViews(choices),
		State:   nc.buildStateView(f),
	}
	if err := nc.send(msg); err != nil {
		return battle.Choice{}, fmt.Errorf("send choose_action: %w", err)
	}

	resp, err := nc.recv()
	if err != nil {
		return battle.Choice{}, fmt.Errorf("recv action: %w", err)
	}

	if resp.Index < 0 || resp.Index >= len(choices) {
		return choices[0], nil // fallback to first choice
	}
	return choices[resp.Index], nil
}

// ChooseReplacement implements battle.Controller.
func (nc *NetworkController) ChooseReplacement(ctx context.Context, f *battle.Field, side int, candidates []int) (int, error) {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	msg := ServerMessage{
		Type:       "choose_replacement",
		Prompt:     "Choose a combatant to send out",
		Candidates: CandidateViews(f, side, candidates),
		State:      nc.buildStateView(f),
	}
	if err := nc.send(msg); err != nil {
		return 0, fmt.Errorf("send choose_replacement: %w", err)
	}

	resp, err := nc.recv()
	if err != nil {
		return 0, fmt.Errorf("recv replacement: %w", err)
	}

	if resp.Index < 0 || resp.Index >= len(candidates) {
		return candidates[0], nil
	}
	return candidates[resp.Index], nil
}

// SendGameOver sends a game_over message to the client.
func (nc *NetworkController) SendGameOver(winner int, result string) error {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.send(ServerMessage{Type: "game_over", Winner: winner, Result: result})
}

// Notify implements battle.Controller.
func (nc *NetworkController) Notify(ctx context.Context, event log.GameEvent) error {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	ev := NewEventView(event)
	return nc.send(ServerMessage{Type: "notify", Event: &ev})
}
