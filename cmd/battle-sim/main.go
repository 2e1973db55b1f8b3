package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/peterkuimelis/monbattle/internal/config"
	"github.com/peterkuimelis/monbattle/internal/sim"
)

func main() {
	cfg, err := config.LoadSim()
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	teamA := flag.Int("a", 1, "first team number")
	teamB := flag.Int("b", 2, "second team number")
	battles := flag.Int("n", cfg.Battles, "number of battles")
	workers := flag.Int("j", cfg.Concurrency, "battles to run concurrently")
	seed := flag.Int64("seed", cfg.Seed, "base seed (0 picks one)")
	slots := flag.Int("slots", 1, "active slots per side")
	verbose := flag.Bool("v", false, "print every battle")
	flag.Parse()

	zl, err := cfg.Logger()
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := &sim.Runner{
		TeamFile:     cfg.TeamFile,
		TeamA:        *teamA,
		TeamB:        *teamB,
		Battles:      *battles,
		Concurrency:  *workers,
		Seed:         *seed,
		MaxTurns:     cfg.MaxTurns,
		SlotsPerSide: *slots,
		Logger:       zl,
	}
	rep, err := r.Run(ctx)
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	if *verbose {
		for _, out := range rep.Outcomes {
			fmt.Printf("%4d  seed=%-20d turns=%-3d winner=%2d  %s  %s\n", out.Index, out.Seed, out.Turns, out.Winner, out.ID, out.Result)
		}
	}
	fmt.Printf("seed %d: %s %d, %s %d, draws %d (%.1f%%)\n",
		rep.Seed, rep.TeamA, rep.Wins[0], rep.TeamB, rep.Wins[1], rep.Draws, 100*rep.WinRate())
}
