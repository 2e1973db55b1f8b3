package battle

import (
	"context"
	"strings"
	"testing"

	"github.com/peterkuimelis/monbattle/internal/log"
)

// fixedSource is an rng.Source that replays scripted draws. When a script runs
// out, Intn and IntRange return their largest value (so percentage chances
// fail) and Float64 returns 0 (so accuracy and protection succeed).
type fixedSource struct {
	ints   []int
	floats []float64
	calls  int
}

func (s *fixedSource) Intn(n int) int {
	s.calls++
	if n <= 0 {
		panic("fixedSource: Intn with non-positive bound")
	}
	if len(s.ints) > 0 {
		v := s.ints[0]
		s.ints = s.ints[1:]
		return v % n
	}
	return n - 1
}

func (s *fixedSource) IntRange(min, max int) int {
	s.calls++
	if max <= min {
		panic("fixedSource: IntRange with empty range")
	}
	if len(s.ints) > 0 {
		v := s.ints[0]
		s.ints = s.ints[1:]
		return min + v%(max-min)
	}
	return max - 1
}

func (s *fixedSource) Float32() float32 {
	return float32(s.Float64())
}

func (s *fixedSource) Float64() float64 {
	s.calls++
	if len(s.floats) > 0 {
		v := s.floats[0]
		s.floats = s.floats[1:]
		return v
	}
	return 0
}

// ScriptedController is a Controller that follows a predefined script of
// choices. Used in tests to deterministically drive a battle.
type ScriptedController struct {
	t            *testing.T
	name         string
	actions      []string // move names, or "switch:<name>"
	pos          int
	replacements []string
	replPos      int
	events       []log.GameEvent
}

func NewScriptedController(t *testing.T, name string) *ScriptedController {
	return &ScriptedController{t: t, name: name}
}

func (sc *ScriptedController) AddMove(names ...string) *ScriptedController {
	sc.actions = append(sc.actions, names...)
	return sc
}

func (sc *ScriptedController) AddSwitch(name string) *ScriptedController {
	sc.actions = append(sc.actions, "switch:"+name)
	return sc
}

func (sc *ScriptedController) AddReplacement(name string) *ScriptedController {
	sc.replacements = append(sc.replacements, name)
	return sc
}

func (sc *ScriptedController) ChooseAction(ctx context.Context, f *Field, slot SlotRef, choices []Choice) (Choice, error) {
	if sc.pos >= len(sc.actions) {
		// Default: first choice
		return choices[0], nil
	}
	scripted := sc.actions[sc.pos]
	c := f.Combatant(slot)
	for _, ch := range choices {
		switch ch.Kind {
		case ChoiceSwitch:
			if strings.HasPrefix(scripted, "switch:") && f.Sides[slot.Side].Party[ch.PartyIndex].Name == strings.TrimPrefix(scripted, "switch:") {
				sc.pos++
				return ch, nil
			}
		case ChoiceMove:
			if ch.Move < 0 {
				if scripted == Struggle.Name {
					sc.pos++
					return ch, nil
				}
				continue
			}
			if m := c.MoveByName(scripted); m != nil && m == c.Moves[ch.Move] {
				sc.pos++
				return ch, nil
			}
		}
	}
	// Scripted move not available (e.g. locked into a charge); take the first choice.
	sc.t.Logf("[%s] scripted %q not available, using %q", sc.name, scripted, choices[0].Label)
	sc.pos++
	return choices[0], nil
}

func (sc *ScriptedController) ChooseReplacement(ctx context.Context, f *Field, side int, candidates []int) (int, error) {
	if sc.replPos < len(sc.replacements) {
		want := sc.replacements[sc.replPos]
		sc.replPos++
		for _, idx := range candidates {
			if f.Sides[side].Party[idx].Name == want {
				return idx, nil
			}
		}
	}
	return candidates[0], nil
}

func (sc *ScriptedController) Notify(ctx context.Context, event log.GameEvent) error {
	sc.events = append(sc.events, event)
	return nil
}

// --- Test content helpers ---

// testSpecies has 100 in every base stat: 160 HP and 105 in each stat at level 50.
func testSpecies(name string, speed int) *Species {
	return &Species{Name: name, Types: []string{"Normal"}, HP: 100, Attack: 100, Defense: 100, SpAttack: 100, SpDefense: 100, Speed: speed}
}

func mon(name string, speed int, moves ...*MoveDef) *Combatant {
	return NewCombatant(testSpecies(name, speed), 50, moves...)
}

func tackle() *MoveDef {
	return &MoveDef{Name: "Tackle", Type: "Normal", Category: CategoryPhysical, Power: 40, Accuracy: 100, PP: 35, Contact: true}
}

func swift() *MoveDef {
	return &MoveDef{Name: "Swift", Type: "Normal", Category: CategorySpecial, Power: 60, Accuracy: 100, NeverMiss: true, PP: 20}
}

func protectMove() *MoveDef {
	return &MoveDef{Name: "Protect", Category: CategoryStatus, PP: 10, Priority: 4, SelfTarget: true, Effects: []Effect{ProtectEffect{}}}
}

func counterMove() *MoveDef {
	return &MoveDef{Name: "Counter", Category: CategoryPhysical, Accuracy: 100, PP: 20, Priority: -5, Effects: []Effect{CounterEffect{Category: CategoryPhysical}}}
}

func solarBeam() *MoveDef {
	return &MoveDef{Name: "Solar Beam", Type: "Grass", Category: CategorySpecial, Power: 120, Accuracy: 100, PP: 10,
		Charge: &ChargeSpec{Message: "sunlight", SkipIn: WeatherSun}}
}

func fly() *MoveDef {
	return &MoveDef{Name: "Fly", Type: "Flying", Category: CategoryPhysical, Power: 90, Accuracy: 95, PP: 15, Contact: true,
		Charge: &ChargeSpec{Message: "a flight", Dodge: DodgeAirborne}}
}

func gust() *MoveDef {
	return &MoveDef{Name: "Gust", Type: "Flying", Category: CategorySpecial, Power: 40, Accuracy: 100, PP: 35, HitsDodge: []DodgeState{DodgeAirborne}}
}

func focusPunch() *MoveDef {
	return &MoveDef{Name: "Focus Punch", Type: "Fighting", Category: CategoryPhysical, Power: 150, Accuracy: 100, PP: 20, Priority: -3, Contact: true, Focus: true}
}

var (
	p1Slot = SlotRef{Side: 0, Index: 0}
	p2Slot = SlotRef{Side: 1, Index: 0}
)

func singlesField(a, b *Combatant) *Field {
	return NewField([]*Combatant{a}, []*Combatant{b}, 1)
}

// fixedDamage always deals n damage.
func fixedDamage(n int) DamageCalculator {
	return DamageFunc(func(DamageContext) int { return n })
}

func newTestPipeline(src *fixedSource, calc DamageCalculator) *Pipeline {
	return NewPipeline(PipelineDeps{Rand: src, Dispatcher: NewDispatcher(src, calc)})
}

// actionsOf returns the actions of type T, in order.
func actionsOf[T Action](actions []Action) []T {
	var out []T
	for _, a := range actions {
		if v, ok := a.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// messageKeys returns the template keys of every MessageAction, in order.
func messageKeys(actions []Action) []string {
	var keys []string
	for _, m := range actionsOf[*MessageAction](actions) {
		keys = append(keys, m.Key)
	}
	return keys
}

func hasKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// runBattleToCompletion runs a battle and returns the logger for inspection.
func runBattleToCompletion(t *testing.T, cfg BattleConfig, p0, p1 Controller) (*Battle, *log.MemoryLogger, int) {
	t.Helper()
	logger := log.NewMemoryLogger()
	cfg.Logger = logger
	if cfg.Rand == nil && cfg.Seed == 0 {
		cfg.Rand = &fixedSource{}
	}
	if cfg.MaxTurns == 0 {
		cfg.MaxTurns = 50 // reasonable default for tests
	}

	b, err := NewBattle(cfg, p0, p1)
	if err != nil {
		t.Fatalf("NewBattle: %v", err)
	}
	winner, err := b.Run(context.Background())
	if err != nil {
		t.Logf("Event log:\n%s", log.FormatAll(logger.Events()))
		t.Fatalf("Battle error: %v", err)
	}

	// Always print event log for visibility (tests are run with -v)
	t.Logf("Battle result: winner=%d (%s)", winner, b.Result)
	t.Logf("Event log:\n%s", log.FormatAll(narration(logger.Events())))
	return b, logger, winner
}

// narration drops trace events.
func narration(events []log.GameEvent) []log.GameEvent {
	var out []log.GameEvent
	for _, e := range events {
		if !e.Type.IsTrace() {
			out = append(out, e)
		}
	}
	return out
}
