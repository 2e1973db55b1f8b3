package net

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"

	"go.uber.org/zap"

	"github.com/peterkuimelis/monbattle/internal/battle"
	"github.com/peterkuimelis/monbattle/internal/log"
)

// Server hosts a battle between two TCP clients.
type Server struct {
	TeamFile     string // empty for the built-in teams
	Port         string
	HostTeam     int // host's team number (1-indexed)
	SlotsPerSide int
	Seed         int64
	Logger       *zap.Logger
}

// Run starts the server, waits for a client to join, then runs the battle.
func (s *Server) Run(ctx context.Context) error {
	zl := s.Logger
	if zl == nil {
		zl = zap.NewNop()
	}

	ln, err := net.Listen("tcp", ":"+s.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer ln.Close()

	fmt.Printf("Waiting for opponent on port %s...\n", s.Port)

	// Accept exactly one connection (the joiner)
	conn, err := ln.Accept()
	if err != nil {
		return fmt.Errorf("accept: %w", err)
	}
	defer conn.Close()

	fmt.Printf("Opponent connected from %s\n", conn.RemoteAddr())

	// Read the joiner's team choice
	dec := json.NewDecoder(conn)
	var joinMsg ClientMessage
	if err := dec.Decode(&joinMsg); err != nil {
		return fmt.Errorf("read join message: %w", err)
	}
	joinerTeam := joinMsg.TeamNumber
	if joinerTeam == 0 {
		joinerTeam = 2
	}

	fmt.Printf("Opponent chose team %d\n", joinerTeam)

	cat := battle.DefaultCatalog()
	hostTeamName, hostMembers, err := battle.TeamByNumber(s.TeamFile, s.HostTeam, cat)
	if err != nil {
		return fmt.Errorf("load host team: %w", err)
	}
	joinerTeamName, joinerMembers, err := battle.TeamByNumber(s.TeamFile, joinerTeam, cat)
	if err != nil {
		return fmt.Errorf("load joiner team: %w", err)
	}

	fmt.Printf("Host: %s (%d combatants)\n", hostTeamName, len(hostMembers))
	fmt.Printf("Joiner: %s (%d combatants)\n", joinerTeamName, len(joinerMembers))

	// Create a pipe for the host's local connection
	hostConn, hostServerConn := net.Pipe()

	// Side 0 = host, side 1 = joiner
	hostCtrl := NewNetworkController(hostServerConn, 0)
	joinerCtrl := NewNetworkController(conn, 1)

	b, err := battle.NewBattle(battle.BattleConfig{
		Team0:        hostMembers,
		Team1:        joinerMembers,
		SlotsPerSide: s.SlotsPerSide,
		Seed:         s.Seed,
		Logger:       log.NewTextLogger(os.Stdout),
		Zap:          zl,
	}, hostCtrl, joinerCtrl)
	if err != nil {
		return err
	}
	zl.Info("hosting battle", zap.String("battle", b.ID), zap.Int64("seed", b.Seed),
		zap.String("host_team", hostTeamName), zap.String("joiner_team", joinerTeamName))

	// Run the host's local REPL in a goroutine
	errCh := make(chan error, 2)
	go func() {
		client := &Client{conn: hostConn, playerName: "P1"}
		errCh <- client.RunREPL(ctx)
	}()

	go func() {
		winner, err := b.Run(ctx)
		if err != nil {
			errCh <- fmt.Errorf("battle error: %w", err)
			return
		}

		_ = joinerCtrl.SendGameOver(winner, b.Result)
		_ = hostCtrl.SendGameOver(winner, b.Result)

		errCh <- nil
	}()

	// Wait for either the battle or the REPL to finish
	return <-errCh
}
