package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/peterkuimelis/monbattle/internal/battle"
	battlenet "github.com/peterkuimelis/monbattle/internal/net"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "host":
		runHost(os.Args[2:])
	case "join":
		runJoin(os.Args[2:])
	case "teams":
		runTeams(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  battle-cli host [--team N] [--port P] [--teams FILE] [--slots 1|2] [--seed S]")
	fmt.Println("  battle-cli join [--team N] [--addr ADDR]")
	fmt.Println("  battle-cli teams [--teams FILE]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  host    Start a battle server and play side P1")
	fmt.Println("  join    Connect to a battle server and play side P2")
	fmt.Println("  teams   List the available teams")
}

func runHost(args []string) {
	fs := flag.NewFlagSet("host", flag.ExitOnError)
	team := fs.Int("team", 1, "team number to use")
	port := fs.String("port", "9000", "TCP port to listen on")
	teamFile := fs.String("teams", "", "path to teams file (default: built-in teams)")
	slots := fs.Int("slots", 1, "active slots per side")
	seed := fs.Int64("seed", 0, "battle seed (0 picks one)")
	debug := fs.Bool("debug", false, "write engine debug logs to stderr")
	fs.Parse(args)

	zl := zap.NewNop()
	if *debug {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer l.Sync()
		zl = l
	}

	srv := &battlenet.Server{
		TeamFile:     *teamFile,
		Port:         *port,
		HostTeam:     *team,
		SlotsPerSide: *slots,
		Seed:         *seed,
		Logger:       zl,
	}

	if err := srv.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runJoin(args []string) {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	team := fs.Int("team", 2, "team number to use (from the host's team list)")
	addr := fs.String("addr", "localhost:9000", "server address to connect to")
	fs.Parse(args)

	if err := battlenet.Connect(context.Background(), *addr, *team); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTeams(args []string) {
	fs := flag.NewFlagSet("teams", flag.ExitOnError)
	teamFile := fs.String("teams", "", "path to teams file (default: built-in teams)")
	fs.Parse(args)

	teams, err := battle.LoadTeams(*teamFile, battle.DefaultCatalog())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(battlenet.FormatTeamList(teams))
}
