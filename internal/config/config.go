package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/lox/weatherwidget/internal/assets"
	"github.com/lox/weatherwidget/internal/units"
)

// Config holds the widget settings shared by every command. Fields carry kong tags so
// the CLI can embed the struct directly; every flag can also be set from the
// environment or a .env file.
type Config struct {
	APIKey       string        `name:"api-key" env:"OWM_API_KEY" help:"OpenWeatherMap API key."`
	BaseURL      string        `name:"base-url" env:"OWM_BASE_URL" default:"https://api.openweathermap.org" help:"Weather service base URL."`
	Units        string        `name:"units" env:"OWM_UNITS" default:"metric" enum:"metric,imperial" help:"Unit system requested from the service (metric or imperial)."`
	FetchTimeout time.Duration `name:"fetch-timeout" env:"FETCH_TIMEOUT" default:"10s" help:"Upper bound on a single lookup."`

	AssetDir    string `name:"asset-dir" env:"ASSET_DIR" default:"./static" help:"Directory holding the images/ tree."`
	AssetOrigin string `name:"asset-origin" env:"ASSET_ORIGIN" help:"Where to preload assets from: a directory, http(s) URL or ftp URL. Defaults to --asset-dir."`
}

// Validate rejects settings the widget cannot run with.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("OWM_API_KEY is required")
	}
	if _, err := units.FromUnitSystem(c.Units); err != nil {
		return fmt.Errorf("OWM_UNITS: %w", err)
	}
	if c.FetchTimeout <= 0 {
		return errors.New("FETCH_TIMEOUT must be positive")
	}
	if c.BaseURL == "" {
		return errors.New("OWM_BASE_URL is required")
	}
	if _, err := assets.NewOrigin(c.Origin()); err != nil {
		return fmt.Errorf("ASSET_ORIGIN: %w", err)
	}
	return nil
}

// BaseUnit is the unit temperatures arrive in for the configured unit system.
func (c *Config) BaseUnit() units.Unit {
	u, err := units.FromUnitSystem(c.Units)
	if err != nil {
		return units.Celsius
	}
	return u
}

// Origin returns the asset origin spec, falling back to the asset directory.
func (c *Config) Origin() string {
	if c.AssetOrigin != "" {
		return c.AssetOrigin
	}
	return c.AssetDir
}

// Server holds settings only the serve command needs.
type Server struct {
	Port       int           `name:"port" env:"PORT" default:"8080" help:"HTTP port."`
	DBPath     string        `name:"db" env:"DB_PATH" default:"weatherwidget.db" help:"SQLite database path for the lookup log."`
	SessionTTL time.Duration `name:"session-ttl" env:"SESSION_TTL" default:"30m" help:"Idle time before a widget session is dropped."`
	CardTTL    time.Duration `name:"card-ttl" env:"CARD_TTL" default:"5m" help:"How long rendered share cards are cached."`
}

// Validate rejects unusable server settings.
func (s *Server) Validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", s.Port)
	}
	if s.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if s.CardTTL <= 0 {
		return errors.New("CARD_TTL must be positive")
	}
	return nil
}
