package mcp

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/peterkuimelis/monbattle/internal/battle"
	battlenet "github.com/peterkuimelis/monbattle/internal/net"
)

var (
	sessionMu sync.Mutex
	// activeSession is the singleton battle session (one per stdio process).
	activeSession *BattleSession
)

// teamFile is the path to the teams YAML file, set by main. Empty selects the
// built-in teams.
var teamFile string

// port is the TCP port for the human player connection, set by main.
var port string

var logger = zap.NewNop()

// SetTeamFile sets the path to the teams YAML file.
func SetTeamFile(path string) {
	teamFile = path
}

// SetPort sets the TCP port for the human player connection.
func SetPort(p string) {
	port = p
}

// SetLogger sets the diagnostics logger. It must not write to stdout.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

// RegisterTools adds all battle tools to the MCP server.
func RegisterTools(s *server.MCPServer) {
	s.AddTool(listTeamsTool(), handleListTeams)
	s.AddTool(startBattleTool(), handleStartBattle)
	s.AddTool(chooseActionTool(), handleChooseAction)
	s.AddTool(chooseReplacementTool(), handleChooseReplacement)
	s.AddTool(getBattleStateTool(), handleGetBattleState)
}

func currentSession() *BattleSession {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	return activeSession
}

func setSession(s *BattleSession) {
	sessionMu.Lock()
	activeSession = s
	sessionMu.Unlock()
}

// --- Tool definitions ---

func listTeamsTool() mcp.Tool {
	return mcp.NewTool("list_teams",
		mcp.WithDescription("List the available teams with their 1-indexed numbers and members."),
	)
}

func startBattleTool() mcp.Tool {
	return mcp.NewTool("start_battle",
		mcp.WithDescription("Start a new battle. Returns the initial state and first pending decision. "+
			"The human player connects via `battle-cli join --addr localhost:<port> --team N` in a separate terminal. "+
			"This call blocks until the human connects."),
		mcp.WithNumber("agent_team", mcp.Required(), mcp.Description("Team number for the agent (1-indexed, see list_teams)")),
		mcp.WithNumber("agent_side", mcp.Required(), mcp.Description("Which side the agent plays: 0 or 1")),
		mcp.WithNumber("seed", mcp.Description("Random seed for a reproducible battle; 0 picks one")),
	)
}

func chooseActionTool() mcp.Tool {
	return mcp.NewTool("choose_action",
		mcp.WithDescription("Choose an action from the pending action list. Use this when the pending decision type is 'choose_action'."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("0-based index of the action from the actions list")),
	)
}

func chooseReplacementTool() mcp.Tool {
	return mcp.NewTool("choose_replacement",
		mcp.WithDescription("Send out a replacement after a faint. Use this when the pending decision type is 'choose_replacement'."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("0-based index into the candidates list")),
	)
}

func getBattleStateTool() mcp.Tool {
	return mcp.NewTool("get_battle_state",
		mcp.WithDescription("Get the current battle state, accumulated events, and pending decision without submitting a response. Read-only."),
	)
}

// --- Tool handlers ---

func handleListTeams(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	teams, err := battle.LoadTeams(teamFile, battle.DefaultCatalog())
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to load teams: %v", err), nil
	}
	return mcp.NewToolResultText(battlenet.FormatTeamList(teams)), nil
}

func handleStartBattle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if currentSession() != nil {
		return mcp.NewToolResultError("A battle is already running. Only one battle at a time is supported."), nil
	}

	agentTeam := request.GetInt("agent_team", 0)
	agentSide := request.GetInt("agent_side", 0)
	seed := int64(request.GetInt("seed", 0))

	if agentTeam < 1 {
		return mcp.NewToolResultError("agent_team must be >= 1"), nil
	}
	if agentSide != 0 && agentSide != 1 {
		return mcp.NewToolResultError("agent_side must be 0 or 1"), nil
	}

	sess, err := NewBattleSession(teamFile, agentTeam, agentSide, port, seed, logger)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to start battle: %v", err), nil
	}
	setSession(sess)
	logger.Info("battle started", zap.String("battle", sess.battle.ID), zap.Int64("seed", sess.battle.Seed))

	resp, err := sess.waitForPending(ctx)
	if err != nil {
		return mcp.NewToolResultErrorf("Error waiting for first decision: %v", err), nil
	}
	if resp.GameOver {
		setSession(nil)
	}
	resp.Port = port

	return mcp.NewToolResultText(respondJSON(resp)), nil
}

// pendingFor validates that the active session waits for the given decision.
func pendingFor(want DecisionType) (*BattleSession, *PendingDecision, *mcp.CallToolResult) {
	sess := currentSession()
	if sess == nil {
		return nil, nil, mcp.NewToolResultError("No battle is running. Use start_battle first.")
	}
	pending := sess.currentPending
	if pending == nil {
		return nil, nil, mcp.NewToolResultError("No pending decision.")
	}
	if pending.Type != want {
		return nil, nil, mcp.NewToolResultErrorf("Wrong tool: pending decision is '%s', not '%s'. Use the correct tool.", pending.Type, want)
	}
	return sess, pending, nil
}

func finish(resp *ToolResponse, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultErrorf("Error waiting for next decision: %v", err), nil
	}
	if resp.GameOver {
		logger.Info("battle finished", zap.String("battle", resp.BattleID), zap.String("result", resp.Result))
		setSession(nil)
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func handleChooseAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, pending, errResult := pendingFor(DecisionChooseAction)
	if errResult != nil {
		return errResult, nil
	}

	index := request.GetInt("index", -1)
	if index < 0 || index >= len(pending.Actions) {
		return mcp.NewToolResultErrorf("Invalid index %d. Must be 0-%d.", index, len(pending.Actions)-1), nil
	}

	resp, err := sess.respond(ctx, ActionResponse{Index: index})
	return finish(resp, err)
}

func handleChooseReplacement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, pending, errResult := pendingFor(DecisionChooseReplacement)
	if errResult != nil {
		return errResult, nil
	}

	index := request.GetInt("index", -1)
	if index < 0 || index >= len(pending.Candidates) {
		return mcp.NewToolResultErrorf("Invalid index %d. Must be 0-%d.", index, len(pending.Candidates)-1), nil
	}

	resp, err := sess.respond(ctx, ReplacementResponse{Index: index})
	return finish(resp, err)
}

func handleGetBattleState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := currentSession()
	if sess == nil {
		return mcp.NewToolResultError("No battle is running. Use start_battle first."), nil
	}

	sess.mu.Lock()
	gameOver := sess.gameOver
	winner := sess.winner
	result := sess.result
	sess.mu.Unlock()

	resp := &ToolResponse{
		BattleID: sess.battle.ID,
		Seed:     sess.battle.Seed,
		Events:   sess.drainEvents(),
		GameOver: gameOver,
		Winner:   winner,
		Result:   result,
	}

	if pending := sess.currentPending; pending != nil {
		resp.State = pending.State
		if !gameOver && pending.Type != DecisionGameOver {
			resp.Pending = sess.pendingView(pending)
		}
	}

	// Ensure events is never null in JSON
	if resp.Events == nil {
		resp.Events = []battlenet.EventView{}
	}

	return mcp.NewToolResultText(respondJSON(resp)), nil
}
