package battle

import (
	"context"
	"fmt"
	"strings"

	"github.com/peterkuimelis/monbattle/internal/log"
)

// Presenter receives narration produced by the presentation phase of actions.
// It must not feed back into simulation state.
type Presenter interface {
	Present(ctx context.Context, event log.GameEvent) error
}

// PresenterFunc adapts a function to the Presenter interface.
type PresenterFunc func(ctx context.Context, event log.GameEvent) error

func (f PresenterFunc) Present(ctx context.Context, event log.GameEvent) error {
	return f(ctx, event)
}

// Action is a discrete combat event.
//
// Logic mutates the field and returns reactions, which the queue runs before
// anything queued earlier. Present narrates the action and never touches the
// field. Actions are not modified after creation.
type Action interface {
	// Source is the acting slot, or nil for system-originated actions.
	Source() *SlotRef
	Logic(f *Field) []Action
	Present(ctx context.Context, p Presenter) error
}

// MoveExecutor runs a move attempt and returns the resulting actions.
type MoveExecutor interface {
	Execute(f *Field, user, target SlotRef, move *MoveInstance) []Action
}

// actionName is used for trace events and debug logs.
func actionName(a Action) string {
	name := fmt.Sprintf("%T", a)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "Action")
}

// --- UseMove ---

type UseMoveAction struct {
	User   SlotRef
	Target SlotRef
	Move   *MoveInstance
	Exec   MoveExecutor
}

func NewUseMoveAction(exec MoveExecutor, user, target SlotRef, move *MoveInstance) *UseMoveAction {
	return &UseMoveAction{User: user, Target: target, Move: move, Exec: exec}
}

func (a *UseMoveAction) Source() *SlotRef { return a.User.Ref() }

func (a *UseMoveAction) Logic(f *Field) []Action {
	return a.Exec.Execute(f, a.User, a.Target, a.Move)
}

// Present is empty: the pipeline emits its own message actions.
func (a *UseMoveAction) Present(ctx context.Context, p Presenter) error { return nil }

// --- Damage ---

type DamageAction struct {
	From     *SlotRef
	Target   SlotRef
	Amount   int
	Category Category // CategoryStatus for indirect damage (recoil, items)
	Name     string
}

func NewDamageAction(from *SlotRef, target SlotRef, amount int, cat Category, name string) *DamageAction {
	return &DamageAction{From: from, Target: target, Amount: amount, Category: cat, Name: name}
}

func (a *DamageAction) Source() *SlotRef { return a.From }

func (a *DamageAction) Logic(f *Field) []Action {
	slot := f.Slot(a.Target)
	if slot == nil || !slot.Active() || a.Amount <= 0 {
		return nil
	}
	c := slot.Combatant
	dealt := a.Amount
	if dealt > c.HP {
		dealt = c.HP
	}
	c.HP -= dealt
	if a.From != nil && *a.From != a.Target {
		slot.recordHit(a.Category, dealt, a.From)
	}
	if slot.Focusing {
		slot.FocusBroken = true
	}
	if c.Fainted() {
		return []Action{NewFaintAction(a.Target, c.Name)}
	}
	return nil
}

func (a *DamageAction) Present(ctx context.Context, p Presenter) error {
	return p.Present(ctx, log.NewDamageEvent(a.Target.Side, a.Name, a.Amount))
}

// --- Heal ---

type HealAction struct {
	From   *SlotRef
	Target SlotRef
	Amount int
	Name   string
}

func NewHealAction(from *SlotRef, target SlotRef, amount int, name string) *HealAction {
	return &HealAction{From: from, Target: target, Amount: amount, Name: name}
}

func (a *HealAction) Source() *SlotRef { return a.From }

func (a *HealAction) Logic(f *Field) []Action {
	slot := f.Slot(a.Target)
	if slot == nil || !slot.Active() {
		return nil
	}
	c := slot.Combatant
	c.HP += a.Amount
	if c.HP > c.MaxHP {
		c.HP = c.MaxHP
	}
	return nil
}

func (a *HealAction) Present(ctx context.Context, p Presenter) error {
	return p.Present(ctx, log.NewHealEvent(a.Target.Side, a.Name, a.Amount))
}

// --- Status ---

type StatusAction struct {
	From       *SlotRef
	Target     SlotRef
	Status     Status
	SleepTurns int
	Name       string
}

func NewStatusAction(from *SlotRef, target SlotRef, status Status, sleepTurns int, name string) *StatusAction {
	return &StatusAction{From: from, Target: target, Status: status, SleepTurns: sleepTurns, Name: name}
}

func (a *StatusAction) Source() *SlotRef { return a.From }

func (a *StatusAction) Logic(f *Field) []Action {
	slot := f.Slot(a.Target)
	if slot == nil || !slot.Active() || slot.Combatant.Status != StatusNone {
		return nil
	}
	slot.Combatant.Status = a.Status
	if a.Status == StatusSleep {
		slot.Combatant.SleepTurns = a.SleepTurns
	}
	return nil
}

func (a *StatusAction) Present(ctx context.Context, p Presenter) error {
	return p.Present(ctx, log.NewStatusEvent(a.Target.Side, a.Name, a.Status.String()))
}

// --- Volatile ---

type VolatileAction struct {
	From     *SlotRef
	Target   SlotRef
	Volatile Volatile
	Name     string
}

func NewVolatileAction(from *SlotRef, target SlotRef, v Volatile, name string) *VolatileAction {
	return &VolatileAction{From: from, Target: target, Volatile: v, Name: name}
}

func (a *VolatileAction) Source() *SlotRef { return a.From }

func (a *VolatileAction) Logic(f *Field) []Action {
	slot := f.Slot(a.Target)
	if slot == nil || !slot.Active() {
		return nil
	}
	slot.Add(a.Volatile)
	return nil
}

func (a *VolatileAction) Present(ctx context.Context, p Presenter) error {
	return p.Present(ctx, log.NewVolatileEvent(a.Target.Side, a.Name, a.Volatile.String()))
}

// --- Stat change ---

type StatChangeAction struct {
	From   *SlotRef
	Target SlotRef
	Stat   Stat
	Stages int
	Name   string
}

func NewStatChangeAction(from *SlotRef, target SlotRef, stat Stat, stages int, name string) *StatChangeAction {
	return &StatChangeAction{From: from, Target: target, Stat: stat, Stages: stages, Name: name}
}

func (a *StatChangeAction) Source() *SlotRef { return a.From }

func (a *StatChangeAction) Logic(f *Field) []Action {
	slot := f.Slot(a.Target)
	if slot == nil || !slot.Active() {
		return nil
	}
	c := slot.Combatant
	c.Stages[a.Stat] = clampStage(c.Stages[a.Stat] + a.Stages)
	return nil
}

func (a *StatChangeAction) Present(ctx context.Context, p Presenter) error {
	return p.Present(ctx, log.NewStatChangeEvent(a.Target.Side, a.Name, a.Stat.String(), a.Stages))
}

// --- Faint ---

type FaintAction struct {
	Target SlotRef
	Name   string
}

func NewFaintAction(target SlotRef, name string) *FaintAction {
	return &FaintAction{Target: target, Name: name}
}

func (a *FaintAction) Source() *SlotRef { return nil }

func (a *FaintAction) Logic(f *Field) []Action {
	if slot := f.Slot(a.Target); slot != nil {
		slot.clearMoveState()
		slot.Volatiles = make(map[Volatile]bool)
	}
	return nil
}

func (a *FaintAction) Present(ctx context.Context, p Presenter) error {
	return p.Present(ctx, log.NewFaintEvent(a.Target.Side, a.Name))
}

// --- Switch ---

type SwitchAction struct {
	Slot       SlotRef
	PartyIndex int
	OutName    string
	InName     string
}

// NewSwitchAction captures the outgoing and incoming names from the field.
func NewSwitchAction(f *Field, slot SlotRef, partyIndex int) *SwitchAction {
	a := &SwitchAction{Slot: slot, PartyIndex: partyIndex}
	if c := f.Combatant(slot); c != nil && !c.Fainted() {
		a.OutName = c.Name
	}
	if party := f.Sides[slot.Side].Party; partyIndex >= 0 && partyIndex < len(party) {
		a.InName = party[partyIndex].Name
	}
	return a
}

func (a *SwitchAction) Source() *SlotRef { return a.Slot.Ref() }

func (a *SwitchAction) Logic(f *Field) []Action {
	slot := f.Slot(a.Slot)
	if slot == nil {
		return nil
	}
	side := f.Sides[a.Slot.Side]
	if a.PartyIndex < 0 || a.PartyIndex >= len(side.Party) || side.Party[a.PartyIndex].Fainted() {
		return nil
	}
	in := side.Party[a.PartyIndex]
	// A combatant occupies at most one slot.
	if side.isActive(in) {
		return []Action{NewMessage(a.Slot.Ref(), log.MsgMoveFailed)}
	}
	slot.switchOut()
	slot.Combatant = in
	return []Action{&SwitchedInAction{Side: a.Slot.Side, OutName: a.OutName, InName: a.InName}}
}

// Present is empty; the switch is narrated by the SwitchedInAction reaction
// so a rejected switch produces no switch event.
func (a *SwitchAction) Present(ctx context.Context, p Presenter) error { return nil }

// SwitchedInAction narrates a completed switch.
type SwitchedInAction struct {
	Side    int
	OutName string
	InName  string
}

func (a *SwitchedInAction) Source() *SlotRef        { return nil }
func (a *SwitchedInAction) Logic(f *Field) []Action { return nil }

func (a *SwitchedInAction) Present(ctx context.Context, p Presenter) error {
	return p.Present(ctx, log.NewSwitchEvent(a.Side, a.OutName, a.InName))
}

// --- Weather / terrain ---

type WeatherAction struct {
	From    *SlotRef
	Weather Weather
	Turns   int
}

func (a *WeatherAction) Source() *SlotRef { return a.From }

func (a *WeatherAction) Logic(f *Field) []Action {
	f.Weather = a.Weather
	f.WeatherTurns = a.Turns
	return nil
}

func (a *WeatherAction) Present(ctx context.Context, p Presenter) error {
	return p.Present(ctx, log.NewWeatherEvent(a.Weather.String(), a.Turns))
}

type TerrainAction struct {
	From    *SlotRef
	Terrain Terrain
	Turns   int
}

func (a *TerrainAction) Source() *SlotRef { return a.From }

func (a *TerrainAction) Logic(f *Field) []Action {
	f.Terrain = a.Terrain
	f.TerrainTurns = a.Turns
	return nil
}

func (a *TerrainAction) Present(ctx context.Context, p Presenter) error {
	return p.Present(ctx, log.NewTerrainEvent(a.Terrain.String(), a.Turns))
}

// --- Message ---

// MessageAction carries either a template key with arguments or a
// pre-formatted Text. Side is -1 for system messages.
type MessageAction struct {
	From *SlotRef
	Side int
	Key  string
	Args []string
	Text string
}

func NewMessage(from *SlotRef, key string, args ...string) *MessageAction {
	side := -1
	if from != nil {
		side = from.Side
	}
	return &MessageAction{From: from, Side: side, Key: key, Args: args}
}

func (a *MessageAction) Source() *SlotRef { return a.From }

func (a *MessageAction) Logic(f *Field) []Action { return nil }

func (a *MessageAction) Present(ctx context.Context, p Presenter) error {
	if a.Key == "" {
		return p.Present(ctx, log.NewTextEvent(a.Side, a.Text))
	}
	return p.Present(ctx, log.NewMessageEvent(a.Side, a.Key, a.Args...))
}

// --- NoOp ---

type NoOpAction struct{}

func (NoOpAction) Source() *SlotRef                               { return nil }
func (NoOpAction) Logic(f *Field) []Action                        { return nil }
func (NoOpAction) Present(ctx context.Context, p Presenter) error { return nil }
