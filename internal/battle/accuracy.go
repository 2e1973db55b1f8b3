package battle

import (
	"errors"
	"strings"

	"github.com/peterkuimelis/monbattle/internal/rng"
)

// ErrNilArgument is returned when a required argument is nil.
var ErrNilArgument = errors.New("battle: nil argument")

// perfectAccuracy lists moves that cannot miss while a weather is active.
var perfectAccuracy = map[Weather][]string{
	WeatherRain: {"Thunder", "Hurricane"},
	WeatherHail: {"Blizzard"},
}

// AccuracyEvaluator decides whether a move hits.
type AccuracyEvaluator struct {
	src rng.Source
}

func NewAccuracyEvaluator(src rng.Source) *AccuracyEvaluator {
	if src == nil {
		panic("battle: NewAccuracyEvaluator requires a randomness source")
	}
	return &AccuracyEvaluator{src: src}
}

// CheckHit resolves hit or miss. field may be nil. fixedRoll, when non-nil,
// replaces the random draw (a value in [0, 100)).
func (a *AccuracyEvaluator) CheckHit(user, target *Combatant, move *MoveDef, field *Field, fixedRoll *float64) (bool, error) {
	if user == nil || target == nil || move == nil {
		return false, ErrNilArgument
	}
	if move.NeverMiss || move.Accuracy == 0 {
		return true, nil
	}
	if field != nil && weatherGuaranteesHit(field.Weather, move.Name) {
		return true, nil
	}

	effective := EffectiveAccuracy(user, target, move)
	var roll float64
	if fixedRoll != nil {
		roll = *fixedRoll
	} else {
		roll = a.src.Float64() * 100
	}
	return roll < effective, nil
}

// EffectiveAccuracy applies the user's accuracy stage and the target's evasion
// stage to the move's accuracy, clamped to [1, 100].
func EffectiveAccuracy(user, target *Combatant, move *MoveDef) float64 {
	eff := float64(move.Accuracy) *
		AccuracyStageMultiplier(user.Stages[StatAccuracy]) /
		AccuracyStageMultiplier(target.Stages[StatEvasion])
	if eff < 1 {
		return 1
	}
	if eff > 100 {
		return 100
	}
	return eff
}

func weatherGuaranteesHit(w Weather, move string) bool {
	for _, name := range perfectAccuracy[w] {
		if strings.EqualFold(name, move) {
			return true
		}
	}
	return false
}
