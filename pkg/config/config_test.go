package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Tests that the defaults are valid.
func TestDefaultValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
}

// Tests that a file overrides only the fields it names.
func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wizardry.json")
	data := `{"listen_addr": ":9000", "tick_rate": 30, "seed_lobbies": [{"name": "Solo", "capacity": 1}]}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != ":9000" || cfg.TickRate != 30 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.MaxLobbies != 10 || cfg.AppName != "wizardry" {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if len(cfg.SeedLobbies) != 1 || cfg.SeedLobbies[0].Name != "Solo" {
		t.Errorf("unexpected seed lobbies %+v", cfg.SeedLobbies)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
}

// Tests that a malformed file is reported.
func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

// Tests the validation rules.
func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"capacity":   func(c *Config) { c.MaxLobbyCapacity = 9 },
		"tick rate":  func(c *Config) { c.TickRate = 0 },
		"log level":  func(c *Config) { c.LogLevel = "loud" },
		"seed name":  func(c *Config) { c.SeedLobbies = []SeedLobby{{Capacity: 2}} },
		"seed count": func(c *Config) { c.MaxLobbies = 2 },
		"cert only":  func(c *Config) { c.CertFile = "cert.pem" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected %v, got %v", name, ErrInvalidConfig, err)
		}
	}
}

// Tests the conversion into lobby settings.
func TestLobbyConfig(t *testing.T) {
	cfg := Default()
	cfg.DefaultMatchMinutes = 0.5
	cfg.RespawnSeconds = 2

	lc := cfg.Lobby()
	if lc.DefaultDuration != 30*time.Second || lc.RespawnDelay != 2*time.Second {
		t.Errorf("unexpected durations %v %v", lc.DefaultDuration, lc.RespawnDelay)
	}
	if lc.TickRate != 60 || lc.MaxCapacity != 8 {
		t.Errorf("unexpected lobby config %+v", lc)
	}
}
