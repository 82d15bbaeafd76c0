// Package progression parses progression service flags and launches the
// MCP server.
package progression

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/storyquest/internal/platform/cmd"
	"github.com/louisbranch/storyquest/internal/services/progression/api/mcptools"
	server "github.com/louisbranch/storyquest/internal/services/progression/app"
)

// Config holds progression command configuration.
type Config struct {
	DBPath         string `env:"PROGRESSION_DB_PATH"         envDefault:"data/progression.db"`
	CharactersPath string `env:"PROGRESSION_CHARACTERS_PATH"`
	Transport      string `env:"PROGRESSION_TRANSPORT"       envDefault:"stdio"`
	HTTPAddr       string `env:"PROGRESSION_HTTP_ADDR"       envDefault:"localhost:8090"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.CharactersPath, "characters", cfg.CharactersPath, "YAML character seed loaded at startup")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if _, err := mcptools.ParseTransport(cfg.Transport); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Options converts the command configuration into server options.
func (c Config) Options() (server.Options, error) {
	transport, err := mcptools.ParseTransport(c.Transport)
	if err != nil {
		return server.Options{}, err
	}
	return server.Options{
		DBPath:         c.DBPath,
		CharactersPath: c.CharactersPath,
		MCP:            mcptools.Config{Transport: transport, HTTPAddr: c.HTTPAddr},
	}, nil
}

// Run starts the progression MCP service.
func Run(ctx context.Context, cfg Config) error {
	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceProgression, func(ctx context.Context) error {
		return server.Run(ctx, opts)
	})
}
