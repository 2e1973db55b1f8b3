package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	battlemcp "github.com/peterkuimelis/monbattle/internal/mcp"
)

func main() {
	teams := flag.String("teams", "", "path to teams YAML file (default: built-in teams)")
	port := flag.String("port", "9999", "TCP port for human player connection")
	flag.Parse()

	// stdout carries the MCP protocol; zap's production logger writes to stderr.
	zl, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer zl.Sync()

	battlemcp.SetTeamFile(*teams)
	battlemcp.SetPort(*port)
	battlemcp.SetLogger(zl)

	s := server.NewMCPServer("monbattle", "1.0.0")
	battlemcp.RegisterTools(s)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
