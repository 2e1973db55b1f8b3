package main

import (
	"flag"
	"fmt"

	"go.uber.org/zap"

	"github.com/peterkuimelis/monbattle/internal/config"
	"github.com/peterkuimelis/monbattle/internal/web"
)

func main() {
	cfg, err := config.LoadWeb()
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	port := flag.Int("port", cfg.Port, "HTTP port to listen on")
	teamFile := flag.String("teams", cfg.TeamFile, "path to teams YAML file (default: built-in teams)")
	flag.Parse()

	zl, err := cfg.Logger()
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	defer zl.Sync()

	srv, err := web.NewServer(*teamFile, cfg.AllowedOrigins, zl)
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	addr := fmt.Sprintf(":%d", *port)
	zl.Info("web UI listening", zap.String("url", fmt.Sprintf("http://localhost:%d", *port)))
	if err := srv.ListenAndServe(addr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
