package log

import (
	"fmt"
	"io"
	"strings"
)

// EventLogger is the interface for logging battle events.
type EventLogger interface {
	Log(event GameEvent)
	Events() []GameEvent
}

// --- MemoryLogger: stores events in memory for test assertions ---

type MemoryLogger struct {
	events []GameEvent
	seq    int
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(event GameEvent) {
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
}

func (l *MemoryLogger) Events() []GameEvent {
	return l.events
}

// EventsOfType returns all events matching the given type.
func (l *MemoryLogger) EventsOfType(t EventType) []GameEvent {
	var result []GameEvent
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// MessagesWithKey returns all message events carrying the given template key.
func (l *MemoryLogger) MessagesWithKey(key string) []GameEvent {
	var result []GameEvent
	for _, e := range l.events {
		if e.Type == EventMessage && e.Key == key {
			result = append(result, e)
		}
	}
	return result
}

// LastEvent returns the most recent event, or a zero event if none.
func (l *MemoryLogger) LastEvent() GameEvent {
	if len(l.events) == 0 {
		return GameEvent{}
	}
	return l.events[len(l.events)-1]
}

// --- TextLogger: writes human-readable lines to an io.Writer ---

// TextLogger records every event but only prints narration and lifecycle
// events; trace events stay in memory.
type TextLogger struct {
	MemoryLogger
	w io.Writer
}

func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w}
}

func (l *TextLogger) Log(event GameEvent) {
	l.MemoryLogger.Log(event)
	if event.Type.IsTrace() {
		return
	}
	fmt.Fprintln(l.w, FormatEvent(event))
}

// --- Formatting ---

// sideName returns "P1" or "P2" for display.
func sideName(p int) string {
	return fmt.Sprintf("P%d", p+1)
}

// FormatEvent formats a single event as a human-readable line.
func FormatEvent(e GameEvent) string {
	phase := e.Phase
	// Pad phase to 12 chars for alignment
	for len(phase) < 12 {
		phase += " "
	}
	return fmt.Sprintf("T%-2d %s| %s", e.Turn, phase, e.Details)
}

// FormatAll formats all events as a multi-line string.
func FormatAll(events []GameEvent) string {
	var sb strings.Builder
	for _, e := range events {
		sb.WriteString(FormatEvent(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// --- Message templates ---

// Message template keys. The engine only emits keys and arguments; the
// default English rendering lives in messageTemplates.
const (
	MsgMoveUsed         = "move.used"
	MsgNoPP             = "move.no_pp"
	MsgProtected        = "move.protected"
	MsgProtectUp        = "move.protect_up"
	MsgMoveFailed       = "move.failed"
	MsgMissed           = "move.missed"
	MsgEvaded           = "move.evaded"
	MsgCharging         = "move.charging"
	MsgFocusing         = "move.focusing"
	MsgLostFocus        = "move.lost_focus"
	MsgCountered        = "move.countered"
	MsgFlinched         = "status.flinched"
	MsgFastAsleep       = "status.asleep"
	MsgWokeUp           = "status.woke"
	MsgFrozen           = "status.frozen"
	MsgThawed           = "status.thawed"
	MsgFullyParalyzed   = "status.paralyzed"
	MsgAlreadyHasStatus = "status.already"
	MsgMustRecharge     = "status.recharge"
	MsgLoafing          = "ability.loafing"
	MsgHurtByItem       = "item.hurt"
	MsgRestoredByItem   = "item.restored"
	MsgHurtByAbility    = "ability.hurt"
	MsgStatWontGo       = "stat.limit"
	MsgWeatherEnded     = "weather.ended"
	MsgTerrainEnded     = "terrain.ended"
	MsgDamageByWeather  = "weather.damage"
	MsgWeatherContinues = "weather.continues"
	MsgRecharging       = "move.recharging"
)

var messageTemplates = map[string]string{
	MsgMoveUsed:         "%s used %s!",
	MsgNoPP:             "%s has no PP left for %s!",
	MsgProtected:        "%s protected itself!",
	MsgProtectUp:        "%s is protecting itself!",
	MsgMoveFailed:       "But it failed!",
	MsgMissed:           "%s's attack missed!",
	MsgEvaded:           "%s avoided the attack!",
	MsgCharging:         "%s is charging %s!",
	MsgFocusing:         "%s is tightening its focus!",
	MsgLostFocus:        "%s lost its focus and couldn't move!",
	MsgCountered:        "%s countered the attack!",
	MsgFlinched:         "%s flinched and couldn't move!",
	MsgFastAsleep:       "%s is fast asleep.",
	MsgWokeUp:           "%s woke up!",
	MsgFrozen:           "%s is frozen solid!",
	MsgThawed:           "%s thawed out!",
	MsgFullyParalyzed:   "%s is paralyzed! It can't move!",
	MsgAlreadyHasStatus: "%s is already %s!",
	MsgMustRecharge:     "%s must recharge!",
	MsgLoafing:          "%s is loafing around!",
	MsgHurtByItem:       "%s was hurt by its %s!",
	MsgRestoredByItem:   "%s restored a little HP using its %s!",
	MsgHurtByAbility:    "%s was hurt by %s's %s!",
	MsgStatWontGo:       "%s's %s won't go any further!",
	MsgWeatherEnded:     "The %s subsided.",
	MsgTerrainEnded:     "The %s disappeared.",
	MsgDamageByWeather:  "%s is buffeted by the %s!",
	MsgWeatherContinues: "The %s continues.",
	MsgRecharging:       "%s will need to recharge!",
}

// FormatMessage renders a message key with its arguments. Unknown keys render
// as the key followed by the arguments so nothing is silently dropped.
func FormatMessage(key string, args ...string) string {
	tmpl, ok := messageTemplates[key]
	if !ok {
		if len(args) == 0 {
			return key
		}
		return key + " " + strings.Join(args, " ")
	}
	vals := make([]any, len(args))
	for i, a := range args {
		vals[i] = a
	}
	return fmt.Sprintf(tmpl, vals...)
}

// --- Helper constructors for common events ---
// Turn, Phase and Seq are stamped by the battle when the event is logged.

func NewBattleStartEvent(battleID string, p1, p2 string) GameEvent {
	return GameEvent{
		Phase:   "Start",
		Player:  -1,
		Type:    EventBattleStart,
		Subject: battleID,
		Details: fmt.Sprintf("=== Battle %s: %s vs %s ===", battleID, p1, p2),
	}
}

func NewBattleEndEvent(winner int, reason string) GameEvent {
	details := fmt.Sprintf("Battle over: %s", reason)
	if winner >= 0 {
		details = fmt.Sprintf("%s wins! (%s)", sideName(winner), reason)
	}
	return GameEvent{
		Phase:   "End",
		Player:  winner,
		Type:    EventBattleEnd,
		Details: details,
	}
}

func NewTurnStartEvent(turn int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   "Start",
		Player:  -1,
		Type:    EventTurnStart,
		Details: fmt.Sprintf("=== Turn %d ===", turn),
	}
}

func NewTurnEndEvent(turn int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   "End of Turn",
		Player:  -1,
		Type:    EventTurnEnd,
		Details: fmt.Sprintf("--- End of turn %d ---", turn),
	}
}

func NewActionExecutedEvent(player int, action string, count int) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventActionExecuted,
		Subject: action,
		Details: fmt.Sprintf("action #%d: %s", count, action),
	}
}

func NewStepExecutedEvent(player int, move, stage string, stopped bool) GameEvent {
	outcome := "continue"
	if stopped {
		outcome = "stop"
	}
	return GameEvent{
		Player:  player,
		Type:    EventStepExecuted,
		Subject: move,
		Details: fmt.Sprintf("%s: %s -> %s", move, stage, outcome),
	}
}

func NewMessageEvent(player int, key string, args ...string) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventMessage,
		Key:     key,
		Args:    args,
		Details: FormatMessage(key, args...),
	}
}

// NewTextEvent wraps a pre-formatted message that has no template key.
func NewTextEvent(player int, text string) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventMessage,
		Details: text,
	}
}

func NewDamageEvent(player int, name string, amount int) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventDamage,
		Subject: name,
		Details: fmt.Sprintf("%s took %d damage", name, amount),
	}
}

func NewHealEvent(player int, name string, amount int) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventHeal,
		Subject: name,
		Details: fmt.Sprintf("%s regained %d HP", name, amount),
	}
}

func NewStatusEvent(player int, name, status string) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventStatus,
		Subject: name,
		Details: fmt.Sprintf("%s is now %s", name, status),
	}
}

func NewVolatileEvent(player int, name, volatile string) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventVolatile,
		Subject: name,
		Details: fmt.Sprintf("%s gained %s", name, volatile),
	}
}

func NewStatChangeEvent(player int, name, stat string, stages int) GameEvent {
	var verb string
	switch {
	case stages >= 2:
		verb = "rose sharply"
	case stages == 1:
		verb = "rose"
	case stages == -1:
		verb = "fell"
	default:
		verb = "harshly fell"
	}
	return GameEvent{
		Player:  player,
		Type:    EventStatChange,
		Subject: name,
		Details: fmt.Sprintf("%s's %s %s!", name, stat, verb),
	}
}

func NewFaintEvent(player int, name string) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventFaint,
		Subject: name,
		Details: fmt.Sprintf("%s fainted!", name),
	}
}

func NewSwitchEvent(player int, out, in string) GameEvent {
	details := fmt.Sprintf("%s sent out %s", sideName(player), in)
	if out != "" {
		details = fmt.Sprintf("%s withdrew %s and sent out %s", sideName(player), out, in)
	}
	return GameEvent{
		Player:  player,
		Type:    EventSwitch,
		Subject: in,
		Details: details,
	}
}

func NewWeatherEvent(weather string, turns int) GameEvent {
	return GameEvent{
		Player:  -1,
		Type:    EventWeather,
		Subject: weather,
		Details: fmt.Sprintf("The weather became %s (%d turns)", weather, turns),
	}
}

func NewTerrainEvent(terrain string, turns int) GameEvent {
	return GameEvent{
		Player:  -1,
		Type:    EventTerrain,
		Subject: terrain,
		Details: fmt.Sprintf("The battlefield became %s (%d turns)", terrain, turns),
	}
}
