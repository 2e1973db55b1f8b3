package sim

import (
	"context"

	"github.com/peterkuimelis/monbattle/internal/battle"
	"github.com/peterkuimelis/monbattle/internal/log"
	"github.com/peterkuimelis/monbattle/internal/rng"
)

// RandomController picks uniformly among moves, switching only when no move
// is offered.
type RandomController struct {
	rand rng.Source
}

// NewRandomController creates a controller drawing from src.
func NewRandomController(src rng.Source) *RandomController {
	return &RandomController{rand: src}
}

// ChooseAction implements battle.Controller.
func (c *RandomController) ChooseAction(ctx context.Context, f *battle.Field, slot battle.SlotRef, choices []battle.Choice) (battle.Choice, error) {
	var moves []battle.Choice
	for _, ch := range choices {
		if ch.Kind == battle.ChoiceMove {
			moves = append(moves, ch)
		}
	}
	if len(moves) == 0 {
		moves = choices
	}
	return moves[c.rand.Intn(len(moves))], nil
}

// ChooseReplacement implements battle.Controller.
func (c *RandomController) ChooseReplacement(ctx context.Context, f *battle.Field, side int, candidates []int) (int, error) {
	return candidates[c.rand.Intn(len(candidates))], nil
}

// Notify implements battle.Controller.
func (c *RandomController) Notify(ctx context.Context, event log.GameEvent) error {
	return nil
}
