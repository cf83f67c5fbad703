// Package config loads the server settings. Values come from the defaults,
// then an optional JSON file, then command line flags, and are validated
// once at the end.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/nezek6/Wizardry/pkg/game"
	"github.com/nezek6/Wizardry/pkg/lobby"
)

var ErrInvalidConfig = errors.New("invalid config")

type SeedLobby struct {
	Name     string `json:"name" validate:"required,max=30"`
	Capacity int    `json:"capacity" validate:"min=1,max=8"`
}

type Config struct {
	ListenAddr string `json:"listen_addr" validate:"required"`
	WSAddr     string `json:"ws_addr"`
	WTAddr     string `json:"wt_addr"`
	AppName    string `json:"app_name" validate:"required"`

	MaxLobbyCapacity    int     `json:"max_lobby_capacity" validate:"min=1,max=8"`
	MaxLobbies          int     `json:"max_lobbies" validate:"min=1,max=256"`
	MaxSpells           int     `json:"max_spells" validate:"min=1,max=2147483647"`
	MaxPickups          int     `json:"max_pickups" validate:"min=1,max=2147483647"`
	DefaultMatchMinutes float64 `json:"default_match_minutes" validate:"gt=0"`
	RespawnSeconds      float64 `json:"respawn_seconds" validate:"gt=0"`
	TickRate            int     `json:"tick_rate" validate:"min=1,max=1000"`

	MapFile     string      `json:"map_file"`
	SeedLobbies []SeedLobby `json:"seed_lobbies" validate:"max=256,dive"`

	LogLevel string `json:"log_level" validate:"oneof=debug info warn error"`
	CertFile string `json:"cert_file" validate:"required_with=KeyFile"`
	KeyFile  string `json:"key_file" validate:"required_with=CertFile"`
}

func Default() Config {
	return Config{
		ListenAddr:          ":13370",
		AppName:             "wizardry",
		MaxLobbyCapacity:    game.MaxLobbyCapacity,
		MaxLobbies:          lobby.DefaultMaxLobbies,
		MaxSpells:           game.DefaultMaxSpells,
		MaxPickups:          game.DefaultMaxPickups,
		DefaultMatchMinutes: lobby.DefaultDuration.Minutes(),
		RespawnSeconds:      lobby.DefaultRespawnDelay.Seconds(),
		TickRate:            lobby.DefaultTickRate,
		SeedLobbies: []SeedLobby{
			{Name: "Mini", Capacity: 2},
			{Name: "Lobby1", Capacity: 8},
			{Name: "AWsum LobBy", Capacity: 6},
			{Name: "Tiny", Capacity: 1},
		},
		LogLevel: "info",
	}
}

// Load reads path over the defaults. Fields missing from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if len(c.SeedLobbies) > c.MaxLobbies {
		return fmt.Errorf("%w: %d seed lobbies exceed max_lobbies %d", ErrInvalidConfig, len(c.SeedLobbies), c.MaxLobbies)
	}
	return nil
}

// Lobby converts the settings into a lobby manager config. Terrain and
// clock are left for the caller.
func (c Config) Lobby() lobby.Config {
	return lobby.Config{
		MaxLobbies:      c.MaxLobbies,
		MaxCapacity:     c.MaxLobbyCapacity,
		DefaultDuration: time.Duration(c.DefaultMatchMinutes * float64(time.Minute)),
		RespawnDelay:    time.Duration(c.RespawnSeconds * float64(time.Second)),
		TickRate:        c.TickRate,
		MaxSpells:       c.MaxSpells,
		MaxPickups:      c.MaxPickups,
	}
}
