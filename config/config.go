// Package config assembles the server configuration from defaults, an
// optional JSON file, a .env file and SNAKE_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"schlangen.tv/arena/ai"
	"schlangen.tv/arena/game"
)

type Config struct {
	Port           int      `json:"port"`
	TickHz         int      `json:"tickHz"`
	DataDir        string   `json:"dataDir"`
	LogLevel       string   `json:"logLevel"`
	AllowedOrigins []string `json:"allowedOrigins"`
	MaxRooms       int      `json:"maxRooms"`
	SendBuffer     int      `json:"sendBuffer"`
	ReadLimit      int64    `json:"readLimit"`
	Countdown      float64  `json:"countdown"`
	Intermission   float64  `json:"intermission"`

	Game game.Tuning `json:"game"`
	AI   ai.Profiles `json:"ai"`
}

func Default() Config {
	return Config{
		Port:         8080,
		TickHz:       20,
		DataDir:      "data",
		LogLevel:     "info",
		MaxRooms:     200,
		SendBuffer:   32,
		ReadLimit:    4096,
		Countdown:    3,
		Intermission: 5,
		Game:         game.DefaultTuning(),
		AI:           ai.DefaultProfiles(),
	}
}

// Load builds the configuration. jsonPath and envPath may be empty; a missing
// .env file is not an error. Variables already in the process environment
// win over the .env file.
func Load(jsonPath, envPath string) (Config, error) {
	cfg := Default()
	if jsonPath != "" {
		data, err := os.ReadFile(jsonPath)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", jsonPath, err)
		}
	}

	dotenv := map[string]string{}
	if envPath != "" {
		m, err := godotenv.Read(envPath)
		switch {
		case err == nil:
			dotenv = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			return cfg, fmt.Errorf("read %s: %w", envPath, err)
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return cfg, err
	}
	cfg.Validate()
	return cfg, nil
}

// ApplyEnv overrides fields from SNAKE_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"SNAKE_PORT", &c.Port},
		{"SNAKE_TICK_HZ", &c.TickHz},
		{"SNAKE_MAX_ROOMS", &c.MaxRooms},
		{"SNAKE_SEND_BUFFER", &c.SendBuffer},
	}
	for _, e := range ints {
		v, ok := lookup(e.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = n
	}
	if v, ok := lookup("SNAKE_DATA_DIR"); ok {
		c.DataDir = v
	}
	if v, ok := lookup("SNAKE_LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup("SNAKE_ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}
	return nil
}

// Validate clamps out-of-range values to the nearest legal ones.
func (c *Config) Validate() {
	def := Default()
	if c.Port <= 0 || c.Port > 65535 {
		c.Port = def.Port
	}
	c.TickHz = min(max(c.TickHz, 10), 30)
	if c.MaxRooms <= 0 {
		c.MaxRooms = def.MaxRooms
	}
	if c.SendBuffer < 4 {
		c.SendBuffer = def.SendBuffer
	}
	if c.ReadLimit < 512 {
		c.ReadLimit = def.ReadLimit
	}
	if c.Countdown < 0 {
		c.Countdown = 0
	}
	if c.Intermission < 0 {
		c.Intermission = 0
	}
	if c.Game.BaseMoveInterval <= 0 || c.Game.MaxSpeed < 1 {
		c.Game = def.Game
	}
	if c.AI == nil {
		c.AI = def.AI
	}
}

// Level maps LogLevel onto slog, defaulting to Info.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
