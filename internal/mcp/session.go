package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	stdnet "net"
	"sync"

	"go.uber.org/zap"

	"github.com/peterkuimelis/monbattle/internal/battle"
	"github.com/peterkuimelis/monbattle/internal/log"
	battlenet "github.com/peterkuimelis/monbattle/internal/net"
)

// DecisionType identifies what kind of decision the battle is waiting for.
type DecisionType string

const (
	DecisionChooseAction      DecisionType = "choose_action"
	DecisionChooseReplacement DecisionType = "choose_replacement"
	DecisionGameOver          DecisionType = "game_over"
)

// PendingDecision represents a decision the battle is waiting for.
type PendingDecision struct {
	Type       DecisionType              `json:"type"`
	Player     int                       `json:"player"`
	State      *battlenet.StateView      `json:"state"`
	Slot       string                    `json:"slot,omitempty"`
	Actions    []battlenet.ActionView    `json:"actions,omitempty"`
	Prompt     string                    `json:"prompt,omitempty"`
	Candidates []battlenet.CombatantView `json:"candidates,omitempty"`
}

// Response types sent back from MCP tools to controllers.

type ActionResponse struct {
	Index int
}

type ReplacementResponse struct {
	Index int
}

// ToolResponse is the JSON envelope returned by all MCP tools.
type ToolResponse struct {
	BattleID string                `json:"battle_id,omitempty"`
	Seed     int64                 `json:"seed,omitempty"`
	Events   []battlenet.EventView `json:"events"`
	State    *battlenet.StateView  `json:"state,omitempty"`
	Pending  *PendingView          `json:"pending,omitempty"`
	GameOver bool                  `json:"game_over"`
	Winner   int                   `json:"winner"`
	Result   string                `json:"result,omitempty"`
	Port     string                `json:"port,omitempty"`
}

// PendingView is the pending decision as presented in the tool response JSON.
type PendingView struct {
	Type       DecisionType              `json:"type"`
	ForPlayer  string                    `json:"for_player"`
	Slot       string                    `json:"slot,omitempty"`
	Actions    []battlenet.ActionView    `json:"actions,omitempty"`
	Prompt     string                    `json:"prompt,omitempty"`
	Candidates []battlenet.CombatantView `json:"candidates,omitempty"`
}

// BattleSession holds the state of a single MCP battle session.
type BattleSession struct {
	battle    *battle.Battle
	agentCtrl *MCPController
	agentSide int

	pendingCh      chan *PendingDecision
	currentPending *PendingDecision

	mu       sync.Mutex
	events   []battlenet.EventView
	gameOver bool
	winner   int
	result   string
}

// SessionConfig describes the teams and options of a session.
type SessionConfig struct {
	AgentTeam    []*battle.Combatant
	OpponentTeam []*battle.Combatant
	AgentSide    int
	SlotsPerSide int
	Seed         int64
	MaxTurns     int
	Logger       *zap.Logger

	// OnFinish runs on the battle goroutine after the battle ends and before
	// the final decision is published.
	OnFinish func(winner int, result string)
}

// NewBattleSession starts a TCP listener, waits for the human player to
// connect via `battle-cli join`, then starts the battle.
func NewBattleSession(teamFile string, agentTeam, agentSide int, port string, seed int64, zl *zap.Logger) (*BattleSession, error) {
	cat := battle.DefaultCatalog()
	_, agentMembers, err := battle.TeamByNumber(teamFile, agentTeam, cat)
	if err != nil {
		return nil, fmt.Errorf("load agent team: %w", err)
	}

	// Start TCP listener for human player
	ln, err := stdnet.Listen("tcp", ":"+port)
	if err != nil {
		return nil, fmt.Errorf("listen on port %s: %w", port, err)
	}

	// Accept one connection (blocks until the human joins)
	conn, err := ln.Accept()
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("accept: %w", err)
	}

	// Read join message to get the human's team choice
	dec := json.NewDecoder(conn)
	var joinMsg battlenet.ClientMessage
	if err := dec.Decode(&joinMsg); err != nil {
		conn.Close()
		ln.Close()
		return nil, fmt.Errorf("read join message: %w", err)
	}
	humanTeam := joinMsg.TeamNumber
	if humanTeam == 0 {
		humanTeam = 2
	}

	_, humanMembers, err := battle.TeamByNumber(teamFile, humanTeam, cat)
	if err != nil {
		conn.Close()
		ln.Close()
		return nil, fmt.Errorf("load human team: %w", err)
	}

	humanCtrl := battlenet.NewNetworkController(conn, 1-agentSide)
	return StartSession(SessionConfig{
		AgentTeam:    agentMembers,
		OpponentTeam: humanMembers,
		AgentSide:    agentSide,
		Seed:         seed,
		Logger:       zl,
		OnFinish: func(winner int, result string) {
			_ = humanCtrl.SendGameOver(winner, result)
			conn.Close()
			ln.Close()
		},
	}, humanCtrl)
}

// StartSession creates the battle against the given opponent controller and
// runs it in a goroutine.
func StartSession(cfg SessionConfig, opponent battle.Controller) (*BattleSession, error) {
	if cfg.AgentSide != 0 && cfg.AgentSide != 1 {
		return nil, fmt.Errorf("agent side must be 0 or 1, got %d", cfg.AgentSide)
	}
	zl := cfg.Logger
	if zl == nil {
		zl = zap.NewNop()
	}

	sess := &BattleSession{
		agentSide: cfg.AgentSide,
		pendingCh: make(chan *PendingDecision, 1),
		winner:    -1,
	}
	sess.agentCtrl = NewMCPController(cfg.AgentSide, sess)

	team0, team1 := cfg.AgentTeam, cfg.OpponentTeam
	var ctrl0, ctrl1 battle.Controller = sess.agentCtrl, opponent
	if cfg.AgentSide == 1 {
		team0, team1 = team1, team0
		ctrl0, ctrl1 = ctrl1, ctrl0
	}

	b, err := battle.NewBattle(battle.BattleConfig{
		Team0:        team0,
		Team1:        team1,
		SlotsPerSide: cfg.SlotsPerSide,
		Seed:         cfg.Seed,
		MaxTurns:     cfg.MaxTurns,
		Logger:       log.NewMemoryLogger(),
		Zap:          zl,
	}, ctrl0, ctrl1)
	if err != nil {
		return nil, err
	}
	sess.battle = b

	go func() {
		winner, err := b.Run(context.Background())
		result := b.Result
		if err != nil {
			zl.Error("battle aborted", zap.String("battle", b.ID), zap.Error(err))
			result = fmt.Sprintf("error: %v", err)
		}
		if result == "" {
			result = fmt.Sprintf("Battle over. Winner: side %d", winner)
		}

		if cfg.OnFinish != nil {
			cfg.OnFinish(winner, result)
		}

		sess.mu.Lock()
		sess.gameOver = true
		sess.winner = winner
		sess.result = result
		sess.mu.Unlock()

		sess.pendingCh <- &PendingDecision{
			Type:   DecisionGameOver,
			Player: winner,
			State:  battlenet.BuildStateView(b.Field, sess.agentSide),
		}
	}()

	return sess, nil
}

// appendEvent adds an event to the session's event log. Thread-safe.
func (s *BattleSession) appendEvent(ev battlenet.EventView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// drainEvents returns all accumulated events and clears the buffer.
func (s *BattleSession) drainEvents() []battlenet.EventView {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events
	s.events = nil
	return events
}

// waitForPending blocks until the next decision arrives from the battle,
// then builds a ToolResponse with accumulated events + the pending decision.
func (s *BattleSession) waitForPending(ctx context.Context) (*ToolResponse, error) {
	var pending *PendingDecision
	select {
	case pending = <-s.pendingCh:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.currentPending = pending

	resp := &ToolResponse{
		BattleID: s.battle.ID,
		Seed:     s.battle.Seed,
		Events:   s.drainEvents(),
		State:    pending.State,
	}
	if resp.Events == nil {
		resp.Events = []battlenet.EventView{}
	}

	if pending.Type == DecisionGameOver {
		s.mu.Lock()
		resp.GameOver = true
		resp.Winner = s.winner
		resp.Result = s.result
		s.mu.Unlock()
		return resp, nil
	}

	resp.Pending = s.pendingView(pending)
	return resp, nil
}

func (s *BattleSession) pendingView(p *PendingDecision) *PendingView {
	return &PendingView{
		Type:       p.Type,
		ForPlayer:  s.playerLabel(p.Player),
		Slot:       p.Slot,
		Actions:    p.Actions,
		Prompt:     p.Prompt,
		Candidates: p.Candidates,
	}
}

// respond hands the agent's answer to the waiting controller and waits for
// the next decision.
func (s *BattleSession) respond(ctx context.Context, answer any) (*ToolResponse, error) {
	select {
	case s.agentCtrl.responseCh <- answer:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.waitForPending(ctx)
}

// playerLabel returns "agent" or "human" for the given side.
func (s *BattleSession) playerLabel(player int) string {
	if player == s.agentSide {
		return "agent"
	}
	return "human"
}

// respondJSON marshals a ToolResponse to a JSON string.
func respondJSON(resp *ToolResponse) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}
