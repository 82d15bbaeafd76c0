package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Port   int    `env:"TEST_PORT" envDefault:"123"`
	DBPath string `env:"TEST_DB_PATH"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
}

func TestParseEnvReadsPrefixedVariables(t *testing.T) {
	t.Setenv("STORYQUEST_TEST_DB_PATH", "/tmp/progression.db")
	t.Setenv("TEST_DB_PATH", "/tmp/unprefixed.db")

	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.DBPath != "/tmp/progression.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "/tmp/progression.db")
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("STORYQUEST_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
