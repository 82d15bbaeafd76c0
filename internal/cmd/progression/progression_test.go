package progression

import (
	"flag"
	"testing"

	"github.com/louisbranch/storyquest/internal/services/progression/api/mcptools"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("progression", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "data/progression.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.Transport != "stdio" {
		t.Fatalf("expected default transport stdio, got %q", cfg.Transport)
	}
	if cfg.HTTPAddr != "localhost:8090" {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.CharactersPath != "" {
		t.Fatalf("expected no character seed, got %q", cfg.CharactersPath)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("STORYQUEST_PROGRESSION_DB_PATH", "env.db")
	t.Setenv("STORYQUEST_PROGRESSION_CHARACTERS_PATH", "env-characters.yaml")

	fs := flag.NewFlagSet("progression", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-db", "flag.db", "-transport", "http", "-http-addr", "127.0.0.1:9999"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "flag.db" {
		t.Fatalf("expected flag db path, got %q", cfg.DBPath)
	}
	if cfg.CharactersPath != "env-characters.yaml" {
		t.Fatalf("expected env characters path, got %q", cfg.CharactersPath)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.MCP.Transport != mcptools.TransportHTTP || opts.MCP.HTTPAddr != "127.0.0.1:9999" {
		t.Fatalf("mcp options = %+v", opts.MCP)
	}
}

func TestParseConfigRejectsUnknownTransport(t *testing.T) {
	fs := flag.NewFlagSet("progression", flag.ContinueOnError)
	if _, err := ParseConfig(fs, []string{"-transport", "grpc"}); err == nil {
		t.Fatal("expected transport error")
	}
}
