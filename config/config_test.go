package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsAreValid(t *testing.T) {
	c := Default()
	before := c
	c.Validate()
	if c.Port != before.Port || c.TickHz != before.TickHz || c.MaxRooms != before.MaxRooms {
		t.Fatalf("validate changed defaults: %+v", c)
	}
}

func TestValidateClamps(t *testing.T) {
	c := Default()
	c.TickHz = 120
	c.Port = -1
	c.SendBuffer = 0
	c.Validate()
	if c.TickHz != 30 {
		t.Fatalf("tick rate = %d, want 30", c.TickHz)
	}
	if c.Port != 8080 || c.SendBuffer != 32 {
		t.Fatalf("bad values not reset: %+v", c)
	}
	c.TickHz = 1
	c.Validate()
	if c.TickHz != 10 {
		t.Fatalf("tick rate = %d, want 10", c.TickHz)
	}
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "arena.json")
	os.WriteFile(jsonPath, []byte(`{"port":9000,"tickHz":15,"game":{"baseMoveInterval":0.12,"maxSpeed":2}}`), 0o644)
	envPath := filepath.Join(dir, ".env")
	os.WriteFile(envPath, []byte("SNAKE_TICK_HZ=25\nSNAKE_ALLOWED_ORIGINS=https://a.example, https://b.example\n"), 0o644)
	t.Setenv("SNAKE_LOG_LEVEL", "debug")

	c, err := Load(jsonPath, envPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Port != 9000 {
		t.Fatalf("port = %d, want 9000 from json", c.Port)
	}
	if c.TickHz != 25 {
		t.Fatalf("tick = %d, want 25 from .env", c.TickHz)
	}
	if c.Game.BaseMoveInterval != 0.12 {
		t.Fatalf("tuning overlay lost: %v", c.Game.BaseMoveInterval)
	}
	if len(c.AllowedOrigins) != 2 || c.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins = %v", c.AllowedOrigins)
	}
	if c.Level() != slog.LevelDebug {
		t.Fatalf("level = %v", c.Level())
	}
}

func TestProcessEnvBeatsDotenv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	os.WriteFile(envPath, []byte("SNAKE_PORT=7000\n"), 0o644)
	t.Setenv("SNAKE_PORT", "7100")
	c, err := Load("", envPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Port != 7100 {
		t.Fatalf("port = %d, want 7100", c.Port)
	}
}

func TestMissingDotenvIsFine(t *testing.T) {
	if _, err := Load("", filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("missing .env: %v", err)
	}
}

func TestBadEnvNumber(t *testing.T) {
	c := Default()
	err := c.ApplyEnv(func(k string) (string, bool) {
		if k == "SNAKE_MAX_ROOMS" {
			return "lots", true
		}
		return "", false
	})
	if err == nil {
		t.Fatalf("non-numeric SNAKE_MAX_ROOMS accepted")
	}
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	c := Default()
	c.LogLevel = "chatty"
	if c.Level() != slog.LevelInfo {
		t.Fatalf("level = %v", c.Level())
	}
}
