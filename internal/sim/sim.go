// Package sim runs batches of seeded bot-vs-bot battles.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/peterkuimelis/monbattle/internal/battle"
	"github.com/peterkuimelis/monbattle/internal/log"
	"github.com/peterkuimelis/monbattle/internal/rng"
)

// ErrNoBattles is returned when a runner is asked to run nothing.
var ErrNoBattles = errors.New("sim: battle count must be positive")

// Runner plays Battles battles between two teams, Concurrency at a time.
// Battle i uses rng.Derive(Seed, i), so a batch is reproducible from Seed.
type Runner struct {
	TeamFile     string // empty for the built-in teams
	TeamA        int    // 1-indexed
	TeamB        int
	Battles      int
	Concurrency  int
	Seed         int64 // 0 draws one
	MaxTurns     int
	SlotsPerSide int
	Logger       *zap.Logger
}

// Outcome is the result of one battle in a batch.
type Outcome struct {
	Index  int
	ID     string
	Seed   int64
	Winner int // 0 = TeamA, 1 = TeamB, -1 = draw
	Turns  int
	Result string
}

// Report tallies a batch.
type Report struct {
	Seed     int64
	TeamA    string
	TeamB    string
	Wins     [2]int
	Draws    int
	Outcomes []Outcome
}

// Run plays the batch. It stops at the first battle error.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if r.Battles < 1 {
		return nil, ErrNoBattles
	}
	zl := r.Logger
	if zl == nil {
		zl = zap.NewNop()
	}
	seed := r.Seed
	if seed == 0 {
		s, err := rng.NewSeed()
		if err != nil {
			return nil, err
		}
		seed = s
	}

	cat := battle.DefaultCatalog()
	nameA, _, err := battle.TeamByNumber(r.TeamFile, r.TeamA, cat)
	if err != nil {
		return nil, fmt.Errorf("team A: %w", err)
	}
	nameB, _, err := battle.TeamByNumber(r.TeamFile, r.TeamB, cat)
	if err != nil {
		return nil, fmt.Errorf("team B: %w", err)
	}

	report := &Report{Seed: seed, TeamA: nameA, TeamB: nameB, Outcomes: make([]Outcome, r.Battles)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	limit := r.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i := 0; i < r.Battles; i++ {
		g.Go(func() error {
			out, err := r.play(gctx, cat, i, rng.Derive(seed, i), zl)
			if err != nil {
				return fmt.Errorf("battle %d: %w", i, err)
			}
			mu.Lock()
			report.Outcomes[i] = out
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, out := range report.Outcomes {
		if out.Winner < 0 {
			report.Draws++
		} else {
			report.Wins[out.Winner]++
		}
	}
	zl.Info("batch finished", zap.Int64("seed", seed), zap.Int("battles", r.Battles),
		zap.Int("wins_a", report.Wins[0]), zap.Int("wins_b", report.Wins[1]), zap.Int("draws", report.Draws))
	return report, nil
}

func (r *Runner) play(ctx context.Context, cat *battle.Catalog, i int, seed int64, zl *zap.Logger) (Outcome, error) {
	// Teams are rebuilt per battle; combatants carry mutable state.
	_, teamA, err := battle.TeamByNumber(r.TeamFile, r.TeamA, cat)
	if err != nil {
		return Outcome{}, err
	}
	_, teamB, err := battle.TeamByNumber(r.TeamFile, r.TeamB, cat)
	if err != nil {
		return Outcome{}, err
	}

	b, err := battle.NewBattle(battle.BattleConfig{
		Team0:        teamA,
		Team1:        teamB,
		SlotsPerSide: r.SlotsPerSide,
		Seed:         seed,
		MaxTurns:     r.MaxTurns,
		Logger:       log.NewMemoryLogger(),
		Zap:          zl.With(zap.Int("battle_index", i)),
	},
		NewRandomController(rng.New(rng.Derive(seed, 0))),
		NewRandomController(rng.New(rng.Derive(seed, 1))),
	)
	if err != nil {
		return Outcome{}, err
	}
	winner, err := b.Run(ctx)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Index:  i,
		ID:     b.ID,
		Seed:   seed,
		Winner: winner,
		Turns:  b.Field.Turn,
		Result: b.Result,
	}, nil
}

// WinRate returns TeamA's share of decided battles.
func (rep *Report) WinRate() float64 {
	decided := rep.Wins[0] + rep.Wins[1]
	if decided == 0 {
		return 0
	}
	return float64(rep.Wins[0]) / float64(decided)
}
