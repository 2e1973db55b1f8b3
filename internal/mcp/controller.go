package mcp

import (
	"context"
	"fmt"

	"github.com/peterkuimelis/monbattle/internal/battle"
	"github.com/peterkuimelis/monbattle/internal/log"
	"github.com/peterkuimelis/monbattle/internal/net"
)

// MCPController implements battle.Controller by sending decisions
// to the MCP session's pending channel and blocking on a response channel.
type MCPController struct {
	player     int
	session    *BattleSession
	responseCh chan any
}

// NewMCPController creates a controller for the given side.
func NewMCPController(player int, session *BattleSession) *MCPController {
	return &MCPController{
		player:     player,
		session:    session,
		responseCh: make(chan any),
	}
}

func (c *MCPController) await(ctx context.Context, p *PendingDecision) (any, error) {
	select {
	case c.session.pendingCh <- p:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case resp := <-c.responseCh:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ChooseAction implements battle.Controller.
func (c *MCPController) ChooseAction(ctx context.Context, f *battle.Field, slot battle.SlotRef, choices []battle.Choice) (battle.Choice, error) {
	resp, err := c.await(ctx, &PendingDecision{
		Type:    DecisionChooseAction,
		Player:  c.player,
		State:   net.BuildStateView(f, c.player),
		Slot:    fmt.Sprintf("%s %s", slot, f.Combatant(slot).Name),
		Actions: net.ActionViews(choices),
	})
	if err != nil {
		return battle.Choice{}, err
	}

	ar, ok := resp.(ActionResponse)
	if !ok || ar.Index < 0 || ar.Index >= len(choices) {
		return choices[0], nil
	}
	return choices[ar.Index], nil
}

// ChooseReplacement implements battle.Controller.
func (c *MCPController) ChooseReplacement(ctx context.Context, f *battle.Field, side int, candidates []int) (int, error) {
	resp, err := c.await(ctx, &PendingDecision{
		Type:       DecisionChooseReplacement,
		Player:     c.player,
		State:      net.BuildStateView(f, c.player),
		Prompt:     "Choose a combatant to send out",
		Candidates: net.CandidateViews(f, side, candidates),
	})
	if err != nil {
		return 0, err
	}

	rr, ok := resp.(ReplacementResponse)
	if !ok || rr.Index < 0 || rr.Index >= len(candidates) {
		return candidates[0], nil
	}
	return candidates[rr.Index], nil
}

// Notify implements battle.Controller.
// Only the agent's controller runs in this process, so every event it sees is
// buffered for the next tool response.
func (c *MCPController) Notify(ctx context.Context, event log.GameEvent) error {
	c.session.appendEvent(net.NewEventView(event))
	return nil
}
