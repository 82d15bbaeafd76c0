package otel_test

import (
	"context"
	"testing"

	"github.com/louisbranch/storyquest/internal/platform/otel"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORYQUEST_OTEL_ENDPOINT", "")

	cfg, err := otel.LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.Enabled || cfg.SampleRatio != 1 || cfg.Endpoint != "" {
		t.Fatalf("config = %+v, want enabled with ratio 1 and no endpoint", cfg)
	}
}

func TestLoadConfigRejectsRatioOutOfRange(t *testing.T) {
	t.Setenv("STORYQUEST_OTEL_SAMPLE_RATIO", "1.5")
	if _, err := otel.LoadConfig(); err == nil {
		t.Fatal("expected ratio error")
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		enabled  string
	}{
		{name: "no endpoint", endpoint: "", enabled: "true"},
		{name: "disabled", endpoint: "http://localhost:4318", enabled: "false"},
		// Non-routable address so nothing is exported.
		{name: "exporting", endpoint: "http://192.0.2.1:4318", enabled: "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STORYQUEST_OTEL_ENDPOINT", tt.endpoint)
			t.Setenv("STORYQUEST_OTEL_ENABLED", tt.enabled)

			shutdown, err := otel.Setup(context.Background(), "test-service")
			if err != nil {
				t.Fatalf("setup: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown: %v", err)
			}
		})
	}
}
