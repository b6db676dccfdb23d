package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GrpcPort != 50051 {
		t.Fatalf("got grpc port %d, want 50051", cfg.GrpcPort)
	}
	if cfg.MoleIdleMin != 2*time.Second || cfg.MoleIdleMax != 10*time.Second {
		t.Fatalf("got idle [%s, %s), want [2s, 10s)", cfg.MoleIdleMin, cfg.MoleIdleMax)
	}
	if cfg.MoleUpMin != 3*time.Second || cfg.MoleUpMax != 5*time.Second {
		t.Fatalf("got up [%s, %s), want [3s, 5s)", cfg.MoleUpMin, cfg.MoleUpMax)
	}
	if cfg.RepeatSessions {
		t.Fatal("expected REPEAT_SESSIONS to default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MOLE_IDLE_MIN", "10ms")
	t.Setenv("MOLE_IDLE_MAX", "20ms")
	t.Setenv("REPEAT_SESSIONS", "true")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MoleIdleMin != 10*time.Millisecond || cfg.MoleIdleMax != 20*time.Millisecond {
		t.Fatalf("got idle [%s, %s), want [10ms, 20ms)", cfg.MoleIdleMin, cfg.MoleIdleMax)
	}
	if !cfg.RepeatSessions {
		t.Fatal("expected REPEAT_SESSIONS=true")
	}
	if cfg.HTTPPort != 9090 {
		t.Fatalf("got http port %d, want 9090", cfg.HTTPPort)
	}
}

func TestLoadRejectsInvertedBounds(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MOLE_UP_MIN", "5s")
	t.Setenv("MOLE_UP_MAX", "3s")

	_, err := Load()
	if !errors.Is(err, ErrInvalidMoleBounds) {
		t.Fatalf("got %v, want %v", err, ErrInvalidMoleBounds)
	}
}
