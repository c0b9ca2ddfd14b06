package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("unexpected default port: %s", cfg.Port)
	}
	if cfg.DefaultHorizon != 365*24*time.Hour {
		t.Fatalf("unexpected default horizon: %s", cfg.DefaultHorizon)
	}
	if cfg.DefaultSlotStepMinutes != 30 {
		t.Fatalf("unexpected default slot step: %d", cfg.DefaultSlotStepMinutes)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SLOT_CACHE_TTL", "45s")
	t.Setenv("DEFAULT_SLOT_STEP_MINUTES", "15")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("PORT override not applied: %s", cfg.Port)
	}
	if cfg.SlotCacheTTL != 45*time.Second {
		t.Fatalf("SLOT_CACHE_TTL override not applied: %s", cfg.SlotCacheTTL)
	}
	if cfg.DefaultSlotStepMinutes != 15 {
		t.Fatalf("DEFAULT_SLOT_STEP_MINUTES override not applied: %d", cfg.DefaultSlotStepMinutes)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("SLOT_CACHE_TTL", "not-a-duration")
	cfg := Load()
	if cfg.SlotCacheTTL != 2*time.Minute {
		t.Fatalf("expected fallback TTL, got %s", cfg.SlotCacheTTL)
	}
}
