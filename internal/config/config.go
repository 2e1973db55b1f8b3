// Package config reads environment configuration for the long-running
// commands.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// Log selects the operational logger.
type Log struct {
	Level string `env:"MONBATTLE_LOG_LEVEL" envDefault:"info"`
	Dev   bool   `env:"MONBATTLE_LOG_DEV" envDefault:"false"`
}

// Logger builds a zap logger. Both presets write to stderr.
func (l Log) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", l.Level, err)
	}
	cfg := zap.NewProductionConfig()
	if l.Dev {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = level
	return cfg.Build()
}

// Web configures the browser UI server.
type Web struct {
	Log
	Port     int    `env:"MONBATTLE_WEB_PORT" envDefault:"8080"`
	TeamFile string `env:"MONBATTLE_TEAMS"`
	// AllowedOrigins are host patterns accepted by the WebSocket handshake.
	// Empty accepts any origin.
	AllowedOrigins []string `env:"MONBATTLE_WEB_ORIGINS" envSeparator:","`
}

// Sim configures batch simulation runs.
type Sim struct {
	Log
	Battles     int    `env:"MONBATTLE_SIM_BATTLES" envDefault:"100"`
	Concurrency int    `env:"MONBATTLE_SIM_CONCURRENCY" envDefault:"4"`
	Seed        int64  `env:"MONBATTLE_SIM_SEED"`
	MaxTurns    int    `env:"MONBATTLE_SIM_MAX_TURNS" envDefault:"200"`
	TeamFile    string `env:"MONBATTLE_TEAMS"`
}

// LoadWeb parses the web server configuration.
func LoadWeb() (Web, error) {
	var cfg Web
	err := ParseEnv(&cfg)
	return cfg, err
}

// LoadSim parses the simulator configuration.
func LoadSim() (Sim, error) {
	var cfg Sim
	if err := ParseEnv(&cfg); err != nil {
		return Sim{}, err
	}
	if cfg.Battles < 1 {
		return Sim{}, fmt.Errorf("MONBATTLE_SIM_BATTLES must be positive, got %d", cfg.Battles)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return cfg, nil
}
