package battle

import (
	"math"

	"github.com/peterkuimelis/monbattle/internal/log"
	"github.com/peterkuimelis/monbattle/internal/rng"
)

// EffectKind discriminates effect variants for dispatch.
type EffectKind int

const (
	EffectDamage EffectKind = iota
	EffectStatus
	EffectStatChange
	EffectRecoil
	EffectDrain
	EffectProtect
	EffectCounter
	EffectHeal
	EffectVolatile
	EffectWeather
	EffectTerrain
)

func (k EffectKind) String() string {
	switch k {
	case EffectDamage:
		return "damage"
	case EffectStatus:
		return "status"
	case EffectStatChange:
		return "stat_change"
	case EffectRecoil:
		return "recoil"
	case EffectDrain:
		return "drain"
	case EffectProtect:
		return "protect"
	case EffectCounter:
		return "counter"
	case EffectHeal:
		return "heal"
	case EffectVolatile:
		return "volatile"
	case EffectWeather:
		return "weather"
	case EffectTerrain:
		return "terrain"
	default:
		return "unknown"
	}
}

// Effect is declarative move behavior resolved by a registered Processor.
type Effect interface {
	Kind() EffectKind
}

// Chance fields are percentages; 0 means the effect always applies.

type DamageEffect struct{}

type StatusEffect struct {
	Status Status
	Chance int
}

type StatChangeEffect struct {
	Stat   Stat
	Stages int
	Chance int
	Self   bool
}

type RecoilEffect struct {
	Percent int
}

type DrainEffect struct {
	Percent int
}

type ProtectEffect struct{}

// CounterEffect returns double the damage of Category taken this turn.
type CounterEffect struct {
	Category Category
}

// HealEffect restores Amount HP to the user, or Percent of its max HP when
// Amount is zero.
type HealEffect struct {
	Amount  int
	Percent int
}

type VolatileEffect struct {
	Volatile Volatile
	Chance   int
	Self     bool
}

type WeatherEffect struct {
	Weather Weather
	Turns   int
}

type TerrainEffect struct {
	Terrain Terrain
	Turns   int
}

func (DamageEffect) Kind() EffectKind     { return EffectDamage }
func (StatusEffect) Kind() EffectKind     { return EffectStatus }
func (StatChangeEffect) Kind() EffectKind { return EffectStatChange }
func (RecoilEffect) Kind() EffectKind     { return EffectRecoil }
func (DrainEffect) Kind() EffectKind      { return EffectDrain }
func (ProtectEffect) Kind() EffectKind    { return EffectProtect }
func (CounterEffect) Kind() EffectKind    { return EffectCounter }
func (HealEffect) Kind() EffectKind       { return EffectHeal }
func (VolatileEffect) Kind() EffectKind   { return EffectVolatile }
func (WeatherEffect) Kind() EffectKind    { return EffectWeather }
func (TerrainEffect) Kind() EffectKind    { return EffectTerrain }

// DefaultFieldTurns is the duration of weather and terrain set without an
// explicit turn count.
const DefaultFieldTurns = 5

// EffectRequest is the input to a processor.
type EffectRequest struct {
	Effect      Effect
	User        SlotRef
	Target      SlotRef
	Move        *MoveDef
	Field       *Field
	DamageDealt int // damage dealt by earlier effects of the same move
}

// Outcome is what a processor produced: follow-up actions, damage it dealt,
// and whether the remaining pipeline stages should be skipped.
type Outcome struct {
	Actions []Action
	Damage  int
	Stop    bool
}

// Processor resolves one effect kind.
type Processor interface {
	Process(req EffectRequest) Outcome
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(req EffectRequest) Outcome

func (f ProcessorFunc) Process(req EffectRequest) Outcome {
	return f(req)
}

// Dispatcher maps effect kinds to processors. It is built once per battle and
// shares the battle's randomness source.
type Dispatcher struct {
	processors map[EffectKind]Processor
}

// NewDispatcher builds a dispatcher with every built-in processor registered.
// A nil calc uses StandardDamage.
func NewDispatcher(src rng.Source, calc DamageCalculator) *Dispatcher {
	if src == nil {
		panic("battle: NewDispatcher requires a randomness source")
	}
	if calc == nil {
		calc = StandardDamage{}
	}
	d := &Dispatcher{processors: make(map[EffectKind]Processor)}
	d.Register(EffectDamage, &damageProcessor{src: src, calc: calc})
	d.Register(EffectStatus, &statusProcessor{src: src})
	d.Register(EffectStatChange, &statChangeProcessor{src: src})
	d.Register(EffectRecoil, ProcessorFunc(processRecoil))
	d.Register(EffectDrain, ProcessorFunc(processDrain))
	d.Register(EffectProtect, &protectProcessor{src: src})
	d.Register(EffectCounter, ProcessorFunc(processCounter))
	d.Register(EffectHeal, ProcessorFunc(processHeal))
	d.Register(EffectVolatile, &volatileProcessor{src: src})
	d.Register(EffectWeather, ProcessorFunc(processWeather))
	d.Register(EffectTerrain, ProcessorFunc(processTerrain))
	return d
}

// Register installs or replaces the processor for a kind. A nil processor
// unregisters the kind.
func (d *Dispatcher) Register(kind EffectKind, p Processor) {
	if p == nil {
		delete(d.processors, kind)
		return
	}
	d.processors[kind] = p
}

// Dispatch runs the processor registered for the effect's kind. The boolean is
// false when no processor is registered; callers ignore such effects.
func (d *Dispatcher) Dispatch(req EffectRequest) (Outcome, bool) {
	if req.Effect == nil {
		return Outcome{}, false
	}
	p, ok := d.processors[req.Effect.Kind()]
	if !ok {
		return Outcome{}, false
	}
	return p.Process(req), true
}

// rollChance reports whether a percentage chance succeeds. Chance <= 0 or
// >= 100 always succeeds without drawing.
func rollChance(src rng.Source, chance int) bool {
	if chance <= 0 || chance >= 100 {
		return true
	}
	return src.Intn(100) < chance
}

// aboutToFaint reports whether damage already dealt by this move will knock
// the combatant out once the queued damage resolves.
func aboutToFaint(c *Combatant, req EffectRequest, self bool) bool {
	return !self && req.DamageDealt >= c.HP
}

// --- Damage ---

type damageProcessor struct {
	src  rng.Source
	calc DamageCalculator
}

func (p *damageProcessor) Process(req EffectRequest) Outcome {
	user := req.Field.Slot(req.User)
	target := req.Field.Slot(req.Target)
	if user == nil || target == nil || !user.Active() || !target.Active() {
		return Outcome{Stop: true}
	}
	amount := p.calc.Damage(DamageContext{
		Attacker: user.Combatant,
		Defender: target.Combatant,
		Move:     req.Move,
		Field:    req.Field,
		Rand:     p.src,
	})
	if amount <= 0 {
		return Outcome{}
	}
	if amount > target.Combatant.HP {
		amount = target.Combatant.HP
	}
	return Outcome{
		Actions: []Action{NewDamageAction(req.User.Ref(), req.Target, amount, req.Move.Category, target.Combatant.Name)},
		Damage:  amount,
	}
}

// --- Status ---

type statusProcessor struct {
	src rng.Source
}

func (p *statusProcessor) Process(req EffectRequest) Outcome {
	e := req.Effect.(StatusEffect)
	slot := req.Field.Slot(req.Target)
	if slot == nil || !slot.Active() || aboutToFaint(slot.Combatant, req, false) {
		return Outcome{}
	}
	c := slot.Combatant
	if c.Status != StatusNone {
		if e.Chance <= 0 {
			return Outcome{Actions: []Action{NewMessage(req.Target.Ref(), log.MsgAlreadyHasStatus, c.Name, c.Status.String())}}
		}
		return Outcome{}
	}
	if !rollChance(p.src, e.Chance) {
		return Outcome{}
	}
	sleep := 0
	if e.Status == StatusSleep {
		sleep = p.src.IntRange(1, 4)
	}
	return Outcome{Actions: []Action{NewStatusAction(req.User.Ref(), req.Target, e.Status, sleep, c.Name)}}
}

// --- Stat change ---

type statChangeProcessor struct {
	src rng.Source
}

func (p *statChangeProcessor) Process(req EffectRequest) Outcome {
	e := req.Effect.(StatChangeEffect)
	ref := req.Target
	if e.Self {
		ref = req.User
	}
	slot := req.Field.Slot(ref)
	if slot == nil || !slot.Active() || aboutToFaint(slot.Combatant, req, e.Self) {
		return Outcome{}
	}
	if !rollChance(p.src, e.Chance) {
		return Outcome{}
	}
	c := slot.Combatant
	cur := c.Stages[e.Stat]
	if (e.Stages > 0 && cur >= MaxStage) || (e.Stages < 0 && cur <= MinStage) {
		return Outcome{Actions: []Action{NewMessage(ref.Ref(), log.MsgStatWontGo, c.Name, e.Stat.String())}}
	}
	return Outcome{Actions: []Action{NewStatChangeAction(req.User.Ref(), ref, e.Stat, e.Stages, c.Name)}}
}

// --- Recoil / drain ---

func processRecoil(req EffectRequest) Outcome {
	e := req.Effect.(RecoilEffect)
	if req.DamageDealt <= 0 {
		return Outcome{}
	}
	amount := percentOf(req.DamageDealt, e.Percent)
	name := req.Field.nameAt(req.User)
	return Outcome{Actions: []Action{NewDamageAction(req.User.Ref(), req.User, amount, CategoryStatus, name)}}
}

func processDrain(req EffectRequest) Outcome {
	e := req.Effect.(DrainEffect)
	if req.DamageDealt <= 0 {
		return Outcome{}
	}
	amount := percentOf(req.DamageDealt, e.Percent)
	name := req.Field.nameAt(req.User)
	return Outcome{Actions: []Action{NewHealAction(req.User.Ref(), req.User, amount, name)}}
}

// --- Protect ---

// ProtectChance is the success probability of the count-th consecutive use:
// 1, 1/2, 1/4, ...
func ProtectChance(count int) float64 {
	if count <= 1 {
		return 1
	}
	return 1 / math.Pow(2, float64(count-1))
}

type protectProcessor struct {
	src rng.Source
}

func (p *protectProcessor) Process(req EffectRequest) Outcome {
	slot := req.Field.Slot(req.User)
	if slot == nil || !slot.Active() {
		return Outcome{}
	}
	// The counter grows whether or not this attempt succeeds.
	slot.ProtectCount++
	slot.ProtectedThisTurn = true
	if p.src.Float64() >= ProtectChance(slot.ProtectCount) {
		return Outcome{Actions: []Action{NewMessage(req.User.Ref(), log.MsgMoveFailed)}, Stop: true}
	}
	name := slot.Combatant.Name
	return Outcome{Actions: []Action{
		NewVolatileAction(req.User.Ref(), req.User, VolatileProtected, name),
		NewMessage(req.User.Ref(), log.MsgProtectUp, name),
	}}
}

// --- Counter ---

// retargetCounter points a counter move at whoever last hit the user with the
// countered category, so protection and accuracy apply to that slot.
func retargetCounter(ec *ExecutionContext) {
	for _, e := range ec.MoveDef().AllEffects() {
		ce, ok := e.(CounterEffect)
		if !ok {
			continue
		}
		from := ec.UserSlot().LastAttacker(ce.Category)
		if from == nil {
			return
		}
		if s := ec.Field.Slot(*from); s != nil && s.Active() {
			ec.Target = *from
		}
		return
	}
}

func processCounter(req EffectRequest) Outcome {
	e := req.Effect.(CounterEffect)
	slot := req.Field.Slot(req.User)
	if slot == nil || !slot.Active() {
		return Outcome{}
	}
	taken := slot.DamageTaken(e.Category)
	from := slot.LastAttacker(e.Category)
	if taken == 0 || from == nil {
		return Outcome{}
	}
	attacker := req.Field.Slot(*from)
	if attacker == nil || !attacker.Active() {
		return Outcome{Actions: []Action{NewMessage(req.User.Ref(), log.MsgMoveFailed)}}
	}
	amount := 2 * taken
	if amount > attacker.Combatant.HP {
		amount = attacker.Combatant.HP
	}
	return Outcome{
		Actions: []Action{
			NewDamageAction(req.User.Ref(), *from, amount, e.Category, attacker.Combatant.Name),
			NewMessage(req.User.Ref(), log.MsgCountered, slot.Combatant.Name),
		},
		Damage: amount,
	}
}

// --- Heal ---

func processHeal(req EffectRequest) Outcome {
	e := req.Effect.(HealEffect)
	slot := req.Field.Slot(req.User)
	if slot == nil || !slot.Active() {
		return Outcome{}
	}
	amount := e.Amount
	if amount == 0 {
		amount = percentOf(slot.Combatant.MaxHP, e.Percent)
	}
	if amount <= 0 {
		return Outcome{}
	}
	return Outcome{Actions: []Action{NewHealAction(req.User.Ref(), req.User, amount, slot.Combatant.Name)}}
}

// --- Volatile ---

type volatileProcessor struct {
	src rng.Source
}

func (p *volatileProcessor) Process(req EffectRequest) Outcome {
	e := req.Effect.(VolatileEffect)
	ref := req.Target
	if e.Self {
		ref = req.User
	}
	slot := req.Field.Slot(ref)
	if slot == nil || !slot.Active() || aboutToFaint(slot.Combatant, req, e.Self) || slot.Has(e.Volatile) {
		return Outcome{}
	}
	if !rollChance(p.src, e.Chance) {
		return Outcome{}
	}
	return Outcome{Actions: []Action{NewVolatileAction(req.User.Ref(), ref, e.Volatile, slot.Combatant.Name)}}
}

// --- Weather / terrain ---

func processWeather(req EffectRequest) Outcome {
	e := req.Effect.(WeatherEffect)
	if req.Field.Weather == e.Weather {
		return Outcome{Actions: []Action{NewMessage(req.User.Ref(), log.MsgMoveFailed)}}
	}
	turns := e.Turns
	if turns <= 0 {
		turns = DefaultFieldTurns
	}
	return Outcome{Actions: []Action{&WeatherAction{From: req.User.Ref(), Weather: e.Weather, Turns: turns}}}
}

func processTerrain(req EffectRequest) Outcome {
	e := req.Effect.(TerrainEffect)
	if req.Field.Terrain == e.Terrain {
		return Outcome{Actions: []Action{NewMessage(req.User.Ref(), log.MsgMoveFailed)}}
	}
	turns := e.Turns
	if turns <= 0 {
		turns = DefaultFieldTurns
	}
	return Outcome{Actions: []Action{&TerrainAction{From: req.User.Ref(), Terrain: e.Terrain, Turns: turns}}}
}
