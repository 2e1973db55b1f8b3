package battle

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peterkuimelis/monbattle/internal/log"
	"github.com/peterkuimelis/monbattle/internal/rng"
)

// Controller is the interface that human (TCP/WebSocket) and agent (MCP)
// players implement.
type Controller interface {
	// ChooseAction presents the legal choices for one active slot and waits
	// for the player to pick one.
	ChooseAction(ctx context.Context, f *Field, slot SlotRef, choices []Choice) (Choice, error)

	// ChooseReplacement asks which party member to send into an emptied slot.
	// candidates are party indices.
	ChooseReplacement(ctx context.Context, f *Field, side int, candidates []int) (int, error)

	// Notify sends a battle event notification (no response needed).
	Notify(ctx context.Context, event log.GameEvent) error
}

type ChoiceKind int

const (
	ChoiceMove ChoiceKind = iota
	ChoiceSwitch
)

// Choice is one legal decision for a slot.
type Choice struct {
	Kind       ChoiceKind
	Move       int // index into the combatant's moves, -1 for Struggle
	Target     SlotRef
	PartyIndex int
	Label      string
}

func (c Choice) String() string {
	return c.Label
}

// Struggle is used when a combatant has no PP left in any move.
var Struggle = &MoveDef{
	Name:      "Struggle",
	Type:      "Normal",
	Category:  CategoryPhysical,
	Power:     50,
	NeverMiss: true,
	PP:        1,
	Contact:   true,
	Effects:   []Effect{DamageEffect{}, RecoilEffect{Percent: 25}},
}

// BattleConfig holds configuration for creating a new battle.
type BattleConfig struct {
	Team0        []*Combatant
	Team1        []*Combatant
	SlotsPerSide int // active slots per side (default 1)
	Seed         int64
	Rand         rng.Source // overrides Seed when set (tests)
	Damage       DamageCalculator
	Logger       log.EventLogger
	Zap          *zap.Logger
	MaxTurns     int // stop after this many turns (0 = 200)
}

// Battle orchestrates a battle between two controllers.
type Battle struct {
	ID          string
	Field       *Field
	Controllers [2]Controller
	Logger      log.EventLogger
	Queue       *Queue
	Pipeline    *Pipeline
	Dispatcher  *Dispatcher
	Rand        rng.Source
	Seed        int64

	Over   bool
	Winner int
	Result string

	zap      *zap.Logger
	ctx      context.Context
	maxTurns int
	phase    string

	// reserved holds party indices already picked as switch-ins this turn.
	reserved [2]map[int]bool
}

// NewBattle creates a battle from the given config and controllers. A zero
// Seed draws a random one, recorded in Battle.Seed.
func NewBattle(cfg BattleConfig, c0, c1 Controller) (*Battle, error) {
	if c0 == nil || c1 == nil {
		return nil, fmt.Errorf("new battle: %w", ErrNilArgument)
	}
	if len(cfg.Team0) == 0 || len(cfg.Team1) == 0 {
		return nil, errors.New("new battle: both teams need at least one combatant")
	}

	src := cfg.Rand
	seed := cfg.Seed
	if src == nil {
		var r *rng.Rand
		if seed == 0 {
			var err error
			if r, _, err = rng.NewRandom(); err != nil {
				return nil, fmt.Errorf("new battle: %w", err)
			}
		} else {
			r = rng.New(seed)
		}
		src, seed = r, r.Seed()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewMemoryLogger()
	}
	zl := cfg.Zap
	if zl == nil {
		zl = zap.NewNop()
	}
	maxTurns := cfg.MaxTurns
	if maxTurns == 0 {
		maxTurns = 200 // safety limit
	}

	id := uuid.NewString()
	zl = zl.With(zap.String("battle", id))
	dispatcher := NewDispatcher(src, cfg.Damage)
	b := &Battle{
		ID:          id,
		Field:       NewField(cfg.Team0, cfg.Team1, cfg.SlotsPerSide),
		Controllers: [2]Controller{c0, c1},
		Logger:      logger,
		Queue:       NewQueue(zl),
		Dispatcher:  dispatcher,
		Pipeline: NewPipeline(PipelineDeps{
			Rand:       src,
			Accuracy:   NewAccuracyEvaluator(src),
			Dispatcher: dispatcher,
			Logger:     zl,
		}),
		Rand:     src,
		Seed:     seed,
		Winner:   -1,
		zap:      zl,
		ctx:      context.Background(),
		maxTurns: maxTurns,
	}
	b.Queue.Observer = b.log
	b.Pipeline.Observer = b.log
	return b, nil
}

// Run executes the battle loop. Returns the winner (0, 1, or -1 for a draw).
func (b *Battle) Run(ctx context.Context) (int, error) {
	b.ctx = ctx
	f := b.Field

	b.phase = "Start"
	b.log(log.NewBattleStartEvent(b.ID, f.Sides[0].Name, f.Sides[1].Name))
	for _, s := range f.AllSlots() {
		if s.Active() {
			b.log(log.NewSwitchEvent(s.Ref.Side, "", s.Combatant.Name))
		}
	}
	b.zap.Info("battle started", zap.Int64("seed", b.Seed), zap.Int("slots", len(f.Sides[0].Slots)))

	for !b.Over {
		if f.Turn >= b.maxTurns {
			b.finish(-1, fmt.Sprintf("Turn limit reached (%d turns)", b.maxTurns))
			break
		}
		if err := b.runTurn(); err != nil {
			b.zap.Error("turn failed", zap.Int("turn", f.Turn), zap.Error(err))
			return -1, err
		}
		if err := b.ctx.Err(); err != nil {
			return -1, err
		}
	}

	b.phase = "End"
	b.log(log.NewBattleEndEvent(b.Winner, b.Result))
	b.zap.Info("battle finished", zap.Int("winner", b.Winner), zap.Int("turns", f.Turn))
	return b.Winner, nil
}

// Present implements Presenter by logging the event and notifying controllers.
func (b *Battle) Present(ctx context.Context, event log.GameEvent) error {
	b.log(event)
	return nil
}

// decision is one slot's choice for the turn, with its ordering keys.
type decision struct {
	ref      SlotRef
	choice   Choice
	move     *MoveInstance
	priority int
	speed    int
	tie      int
}

func (b *Battle) runTurn() error {
	f := b.Field
	f.Turn++
	b.phase = "Start"
	b.log(log.NewTurnStartEvent(f.Turn))

	var decisions []decision
	b.reserved = [2]map[int]bool{{}, {}}
	for side := 0; side < 2; side++ {
		for _, s := range f.Sides[side].Slots {
			if !s.Active() {
				continue
			}
			d, err := b.decide(s)
			if err != nil {
				return err
			}
			if d.choice.Kind == ChoiceSwitch {
				b.reserved[side][d.choice.PartyIndex] = true
			}
			decisions = append(decisions, d)
		}
	}
	b.reserved = [2]map[int]bool{}
	sort.SliceStable(decisions, func(i, j int) bool {
		a, c := decisions[i], decisions[j]
		if (a.choice.Kind == ChoiceSwitch) != (c.choice.Kind == ChoiceSwitch) {
			return a.choice.Kind == ChoiceSwitch
		}
		if a.priority != c.priority {
			return a.priority > c.priority
		}
		if a.speed != c.speed {
			return a.speed > c.speed
		}
		return a.tie < c.tie
	})

	b.phase = "Action"
	for _, d := range decisions {
		if d.move != nil && d.move.Def.Focus {
			slot := f.Slot(d.ref)
			slot.Focusing = true
			b.log(log.NewMessageEvent(d.ref.Side, log.MsgFocusing, slot.Combatant.Name))
		}
	}
	for _, d := range decisions {
		var a Action
		if d.choice.Kind == ChoiceSwitch {
			a = NewSwitchAction(f, d.ref, d.choice.PartyIndex)
		} else {
			a = NewUseMoveAction(b.Pipeline, d.ref, d.choice.Target, d.move)
		}
		if err := b.Queue.Enqueue(a); err != nil {
			return err
		}
	}
	if err := b.Queue.Process(b.ctx, f, b); err != nil {
		return fmt.Errorf("turn %d: %w", f.Turn, err)
	}

	b.phase = "End of Turn"
	if err := b.endOfTurn(); err != nil {
		return err
	}
	if !b.checkVictory() {
		if err := b.replaceFainted(); err != nil {
			return err
		}
	}
	b.log(log.NewTurnEndEvent(f.Turn))
	return nil
}

// decide asks the slot's controller for a choice and validates it.
func (b *Battle) decide(s *Slot) (decision, error) {
	choices := b.Choices(s.Ref)
	ctrl := b.Controllers[s.Ref.Side]
	ch, err := ctrl.ChooseAction(b.ctx, b.Field, s.Ref, choices)
	if err != nil {
		return decision{}, fmt.Errorf("%s choose action: %w", s.Ref, err)
	}
	if !containsChoice(choices, ch) {
		return decision{}, fmt.Errorf("%s chose an illegal action %q", s.Ref, ch.Label)
	}
	d := decision{
		ref:    s.Ref,
		choice: ch,
		speed:  s.Combatant.Stat(StatSpeed),
		tie:    b.Rand.Intn(1 << 16),
	}
	if ch.Kind == ChoiceMove {
		if ch.Move < 0 {
			d.move = NewMoveInstance(Struggle)
		} else {
			d.move = s.Combatant.Moves[ch.Move]
		}
		d.priority = d.move.Def.Priority
	}
	return d, nil
}

func containsChoice(choices []Choice, ch Choice) bool {
	for _, c := range choices {
		if c.Kind == ch.Kind && c.Move == ch.Move && c.Target == ch.Target && c.PartyIndex == ch.PartyIndex {
			return true
		}
	}
	return false
}

// Choices returns the legal choices for an active slot.
func (b *Battle) Choices(ref SlotRef) []Choice {
	f := b.Field
	slot := f.Slot(ref)
	if slot == nil || !slot.Active() {
		return nil
	}
	c := slot.Combatant

	// A charging combatant is locked into its move.
	if slot.Charging != nil {
		for i, m := range c.Moves {
			if m.Def == slot.Charging {
				target := b.defaultTarget(ref)
				return []Choice{{Kind: ChoiceMove, Move: i, Target: target, Label: m.Def.Name}}
			}
		}
	}

	var choices []Choice
	opponents := b.liveOpponents(ref.Side)
	for i, m := range c.Moves {
		if m.PP <= 0 {
			continue
		}
		if m.Def.SelfTarget {
			choices = append(choices, Choice{Kind: ChoiceMove, Move: i, Target: ref, Label: m.Def.Name})
			continue
		}
		for _, t := range opponents {
			label := m.Def.Name
			if len(opponents) > 1 {
				label = fmt.Sprintf("%s -> %s", m.Def.Name, f.nameAt(t))
			}
			choices = append(choices, Choice{Kind: ChoiceMove, Move: i, Target: t, Label: label})
		}
	}
	if !c.HasUsableMove() {
		choices = append(choices, Choice{Kind: ChoiceMove, Move: -1, Target: b.defaultTarget(ref), Label: Struggle.Name})
	}
	for _, idx := range f.Sides[ref.Side].Usable() {
		// Another slot on this side already claimed this switch-in.
		if b.reserved[ref.Side][idx] {
			continue
		}
		choices = append(choices, Choice{
			Kind:       ChoiceSwitch,
			PartyIndex: idx,
			Target:     ref,
			Label:      "Switch to " + f.Sides[ref.Side].Party[idx].Name,
		})
	}
	return choices
}

// liveOpponents returns opposing slots with an active combatant, or every
// opposing slot when none is active.
func (b *Battle) liveOpponents(side int) []SlotRef {
	all := b.Field.Opponents(side)
	var live []SlotRef
	for _, r := range all {
		if b.Field.Slot(r).Active() {
			live = append(live, r)
		}
	}
	if len(live) == 0 {
		return all
	}
	return live
}

func (b *Battle) defaultTarget(ref SlotRef) SlotRef {
	return b.liveOpponents(ref.Side)[0]
}

// endOfTurn applies weather damage, counts down field effects and clears
// per-turn slot state.
func (b *Battle) endOfTurn() error {
	f := b.Field
	if f.Weather == WeatherSandstorm || f.Weather == WeatherHail {
		for _, s := range f.AllSlots() {
			if !s.Active() {
				continue
			}
			c := s.Combatant
			b.Queue.EnqueueRange([]Action{
				NewMessage(s.Ref.Ref(), log.MsgDamageByWeather, c.Name, f.Weather.String()),
				NewDamageAction(nil, s.Ref, fractionOf(c.MaxHP, 16), CategoryStatus, c.Name),
			})
		}
		if err := b.Queue.Process(b.ctx, f, b); err != nil {
			return fmt.Errorf("turn %d end: %w", f.Turn, err)
		}
	}

	if f.Weather != WeatherNone {
		f.WeatherTurns--
		if f.WeatherTurns <= 0 {
			b.log(log.NewMessageEvent(-1, log.MsgWeatherEnded, f.Weather.String()))
			f.Weather = WeatherNone
			f.WeatherTurns = 0
		} else {
			b.log(log.NewMessageEvent(-1, log.MsgWeatherContinues, f.Weather.String()))
		}
	}
	if f.Terrain != TerrainNone {
		f.TerrainTurns--
		if f.TerrainTurns <= 0 {
			b.log(log.NewMessageEvent(-1, log.MsgTerrainEnded, f.Terrain.String()))
			f.Terrain = TerrainNone
			f.TerrainTurns = 0
		}
	}

	for _, s := range f.AllSlots() {
		s.endTurn()
	}
	return nil
}

// checkVictory ends the battle when a side has nothing left. Returns true if over.
func (b *Battle) checkVictory() bool {
	d0 := b.Field.Sides[0].Defeated()
	d1 := b.Field.Sides[1].Defeated()
	switch {
	case d0 && d1:
		b.finish(-1, "Both sides were defeated")
	case d0:
		b.finish(1, fmt.Sprintf("%s has no combatants left", b.Field.Sides[0].Name))
	case d1:
		b.finish(0, fmt.Sprintf("%s has no combatants left", b.Field.Sides[1].Name))
	}
	return b.Over
}

func (b *Battle) finish(winner int, reason string) {
	b.Over = true
	b.Winner = winner
	b.Result = reason
}

// replaceFainted asks controllers to fill slots whose occupant fainted.
func (b *Battle) replaceFainted() error {
	f := b.Field
	for side := 0; side < 2; side++ {
		sd := f.Sides[side]
		for _, s := range sd.Slots {
			if s.Active() {
				continue
			}
			candidates := sd.Usable()
			if len(candidates) == 0 {
				break
			}
			idx := candidates[0]
			if len(candidates) > 1 {
				chosen, err := b.Controllers[side].ChooseReplacement(b.ctx, f, side, candidates)
				if err != nil {
					return fmt.Errorf("%s choose replacement: %w", sd.Name, err)
				}
				if !containsInt(candidates, chosen) {
					return fmt.Errorf("%s chose an illegal replacement %d", sd.Name, chosen)
				}
				idx = chosen
			}
			// Process one switch at a time so Usable reflects the new occupant.
			if err := b.Queue.Enqueue(NewSwitchAction(f, s.Ref, idx)); err != nil {
				return err
			}
			if err := b.Queue.Process(b.ctx, f, b); err != nil {
				return fmt.Errorf("replacement: %w", err)
			}
		}
	}
	return nil
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// log records an event and notifies controllers. Trace events are recorded
// but not sent to players.
func (b *Battle) log(event log.GameEvent) {
	if event.Turn == 0 {
		event.Turn = b.Field.Turn
	}
	if event.Phase == "" {
		event.Phase = b.phase
	}
	b.Logger.Log(event)
	if event.Type.IsTrace() {
		return
	}
	// Notify controllers (ignore errors for notifications)
	for i := 0; i < 2; i++ {
		_ = b.Controllers[i].Notify(b.ctx, event)
	}
}
