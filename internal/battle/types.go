package battle

import (
	"fmt"
	"strings"
)

// --- Enums ---

type Category int

const (
	CategoryStatus Category = iota
	CategoryPhysical
	CategorySpecial
)

func (c Category) String() string {
	switch c {
	case CategoryPhysical:
		return "physical"
	case CategorySpecial:
		return "special"
	default:
		return "status"
	}
}

// Status is a major, persistent status condition. A combatant has at most one.
type Status int

const (
	StatusNone Status = iota
	StatusBurn
	StatusPoison
	StatusParalysis
	StatusSleep
	StatusFreeze
)

func (s Status) String() string {
	switch s {
	case StatusBurn:
		return "burned"
	case StatusPoison:
		return "poisoned"
	case StatusParalysis:
		return "paralyzed"
	case StatusSleep:
		return "asleep"
	case StatusFreeze:
		return "frozen"
	default:
		return "healthy"
	}
}

// Volatile is a condition attached to a battle slot that is cleared on switch-out.
type Volatile int

const (
	VolatileProtected Volatile = iota // one turn
	VolatileFlinch                    // one turn
	VolatileRecharge                  // skip the next move attempt
	VolatileConfused
)

func (v Volatile) String() string {
	switch v {
	case VolatileProtected:
		return "protection"
	case VolatileFlinch:
		return "flinch"
	case VolatileRecharge:
		return "recharge"
	case VolatileConfused:
		return "confusion"
	default:
		return "unknown"
	}
}

// oneTurn reports whether the volatile expires at the end of the turn.
func (v Volatile) oneTurn() bool {
	return v == VolatileProtected || v == VolatileFlinch
}

type Stat int

const (
	StatAttack Stat = iota
	StatDefense
	StatSpAttack
	StatSpDefense
	StatSpeed
	StatAccuracy
	StatEvasion
	statCount
)

func (s Stat) String() string {
	switch s {
	case StatAttack:
		return "Attack"
	case StatDefense:
		return "Defense"
	case StatSpAttack:
		return "Sp. Atk"
	case StatSpDefense:
		return "Sp. Def"
	case StatSpeed:
		return "Speed"
	case StatAccuracy:
		return "accuracy"
	case StatEvasion:
		return "evasiveness"
	default:
		return "unknown"
	}
}

type Weather int

const (
	WeatherNone Weather = iota
	WeatherRain
	WeatherSun
	WeatherSandstorm
	WeatherHail
)

func (w Weather) String() string {
	switch w {
	case WeatherRain:
		return "rain"
	case WeatherSun:
		return "harsh sunlight"
	case WeatherSandstorm:
		return "sandstorm"
	case WeatherHail:
		return "hail"
	default:
		return "clear"
	}
}

type Terrain int

const (
	TerrainNone Terrain = iota
	TerrainElectric
	TerrainGrassy
	TerrainMisty
	TerrainPsychic
)

func (t Terrain) String() string {
	switch t {
	case TerrainElectric:
		return "electric terrain"
	case TerrainGrassy:
		return "grassy terrain"
	case TerrainMisty:
		return "misty terrain"
	case TerrainPsychic:
		return "psychic terrain"
	default:
		return "normal terrain"
	}
}

// DodgeState is a semi-invulnerable position taken during a charge turn.
type DodgeState int

const (
	DodgeNone DodgeState = iota
	DodgeAirborne
	DodgeUnderground
	DodgeUnderwater
	DodgeVanished
)

func (d DodgeState) String() string {
	switch d {
	case DodgeAirborne:
		return "airborne"
	case DodgeUnderground:
		return "underground"
	case DodgeUnderwater:
		return "underwater"
	case DodgeVanished:
		return "vanished"
	default:
		return "none"
	}
}

// --- Static content (immutable once loaded) ---

type Species struct {
	Name      string
	Types     []string
	HP        int
	Attack    int
	Defense   int
	SpAttack  int
	SpDefense int
	Speed     int
}

// ChargeSpec describes a two-turn move: the first attempt only charges.
type ChargeSpec struct {
	Message string     // template argument, e.g. "absorbing light"
	Dodge   DodgeState // semi-invulnerable state held while charging
	SkipIn  Weather    // weather in which the charge turn is skipped
}

type MoveDef struct {
	Name          string
	Type          string
	Category      Category
	Power         int
	Accuracy      int // 0 means the move never checks accuracy
	NeverMiss     bool
	PP            int
	Priority      int
	Contact       bool
	BypassProtect bool
	SelfTarget    bool         // targets the user's own slot
	Focus         bool         // commits at the start of the turn, broken by damage
	Recharge      bool         // user must recharge after the move lands
	Charge        *ChargeSpec  // nil for single-turn moves
	HitsDodge     []DodgeState // semi-invulnerable states this move can reach
	Effects       []Effect
}

func (m *MoveDef) String() string {
	return m.Name
}

// AllEffects returns the move's effects with an implicit damage effect first
// for damaging moves that do not list one.
func (m *MoveDef) AllEffects() []Effect {
	if m.Power <= 0 || m.Category == CategoryStatus {
		return m.Effects
	}
	for _, e := range m.Effects {
		if e.Kind() == EffectDamage {
			return m.Effects
		}
	}
	out := make([]Effect, 0, len(m.Effects)+1)
	out = append(out, DamageEffect{})
	return append(out, m.Effects...)
}

// HasEffect reports whether the move carries an effect of the given kind.
func (m *MoveDef) HasEffect(kind EffectKind) bool {
	for _, e := range m.Effects {
		if e.Kind() == kind {
			return true
		}
	}
	return false
}

// Reaches reports whether the move can hit a target in the given dodge state.
func (m *MoveDef) Reaches(d DodgeState) bool {
	if d == DodgeNone {
		return true
	}
	for _, h := range m.HitsDodge {
		if h == d {
			return true
		}
	}
	return false
}

// --- Runtime state ---

// MoveInstance is a move known by a combatant together with its remaining uses.
type MoveInstance struct {
	Def *MoveDef
	PP  int
}

func NewMoveInstance(def *MoveDef) *MoveInstance {
	return &MoveInstance{Def: def, PP: def.PP}
}

// Combatant is one creature on a team.
type Combatant struct {
	Name    string
	Species *Species
	Level   int
	Ability string
	Item    string

	HP    int
	MaxHP int
	Stats [statCount]int // Accuracy and Evasion entries are unused

	Status     Status
	SleepTurns int
	Stages     [statCount]int
	Moves      []*MoveInstance
}

func (c *Combatant) String() string {
	if c == nil {
		return "(empty)"
	}
	return fmt.Sprintf("%s (HP %d/%d)", c.Name, c.HP, c.MaxHP)
}

// Fainted reports whether the combatant has no HP left.
func (c *Combatant) Fainted() bool {
	return c.HP <= 0
}

// Stat returns the stage-adjusted value of a battle stat.
func (c *Combatant) Stat(s Stat) int {
	v := StageMultiplier(c.Stages[s]) * float64(c.Stats[s])
	if s == StatSpeed && c.Status == StatusParalysis {
		v /= 2
	}
	if v < 1 {
		return 1
	}
	return int(v)
}

// MoveByName returns the combatant's move instance with the given name.
func (c *Combatant) MoveByName(name string) *MoveInstance {
	for _, m := range c.Moves {
		if strings.EqualFold(m.Def.Name, name) {
			return m
		}
	}
	return nil
}

// HasUsableMove reports whether any move still has PP.
func (c *Combatant) HasUsableMove() bool {
	for _, m := range c.Moves {
		if m.PP > 0 {
			return true
		}
	}
	return false
}

// ResetStages clears all stat stages.
func (c *Combatant) ResetStages() {
	c.Stages = [statCount]int{}
}

// NewCombatant builds a combatant at the given level from a species and moves.
func NewCombatant(species *Species, level int, moves ...*MoveDef) *Combatant {
	c := &Combatant{
		Name:    species.Name,
		Species: species,
		Level:   level,
	}
	c.MaxHP = (2*species.HP*level)/100 + level + 10
	c.HP = c.MaxHP
	c.Stats[StatAttack] = statAtLevel(species.Attack, level)
	c.Stats[StatDefense] = statAtLevel(species.Defense, level)
	c.Stats[StatSpAttack] = statAtLevel(species.SpAttack, level)
	c.Stats[StatSpDefense] = statAtLevel(species.SpDefense, level)
	c.Stats[StatSpeed] = statAtLevel(species.Speed, level)
	for _, m := range moves {
		c.Moves = append(c.Moves, NewMoveInstance(m))
	}
	return c
}

func statAtLevel(base, level int) int {
	return (2*base*level)/100 + 5
}
