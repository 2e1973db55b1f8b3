package battle

import "github.com/peterkuimelis/monbattle/internal/rng"

// DamageContext carries everything a damage calculation may read.
type DamageContext struct {
	Attacker *Combatant
	Defender *Combatant
	Move     *MoveDef
	Field    *Field
	Rand     rng.Source
}

// DamageCalculator computes the damage a move deals before it is clamped to
// the defender's remaining HP.
type DamageCalculator interface {
	Damage(dc DamageContext) int
}

// DamageFunc adapts a function to the DamageCalculator interface.
type DamageFunc func(dc DamageContext) int

func (f DamageFunc) Damage(dc DamageContext) int {
	return f(dc)
}

// StandardDamage is the default level/power/attack/defense formula with a
// seeded 85-100% spread. Type effectiveness is not modelled.
type StandardDamage struct{}

func (StandardDamage) Damage(dc DamageContext) int {
	m := dc.Move
	if m.Power <= 0 || m.Category == CategoryStatus {
		return 0
	}
	atkStat, defStat := StatAttack, StatDefense
	if m.Category == CategorySpecial {
		atkStat, defStat = StatSpAttack, StatSpDefense
	}
	atk := dc.Attacker.Stat(atkStat)
	def := dc.Defender.Stat(defStat)

	base := float64((2*dc.Attacker.Level/5+2)*m.Power*atk/def)/50 + 2

	if m.Category == CategoryPhysical && dc.Attacker.Status == StatusBurn {
		base *= 0.5
	}
	if dc.Field != nil {
		base *= weatherModifier(dc.Field.Weather, m.Type)
	}
	if dc.Attacker.Item == "Life Orb" {
		base *= 1.3
	}

	dmg := int(base * float64(dc.Rand.IntRange(85, 101)) / 100)
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

func weatherModifier(w Weather, moveType string) float64 {
	switch {
	case w == WeatherRain && moveType == "Water", w == WeatherSun && moveType == "Fire":
		return 1.5
	case w == WeatherRain && moveType == "Fire", w == WeatherSun && moveType == "Water":
		return 0.5
	default:
		return 1
	}
}
