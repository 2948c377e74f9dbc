// Package config provides YAML-based configuration loading for the invaders
// server: network endpoints, session rules and ship tuning.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the complete server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Game   GameConfig   `yaml:"game"`
	Ship   ShipConfig   `yaml:"ship"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig defines network endpoints and client identity settings.
type ServerConfig struct {
	HTTPAddr    string        `yaml:"http_addr"`     // Websocket gateway address
	SSHAddr     string        `yaml:"ssh_addr"`      // Spectator SSH address, empty disables it
	HostKeyPath string        `yaml:"host_key_path"` // Auto-generated under ~/.invaders when empty
	IdleTimeout time.Duration `yaml:"idle_timeout"`  // SSH idle timeout
	TokenSecret string        `yaml:"token_secret"`  // HS256 secret for /auth tokens
	TokenTTL    time.Duration `yaml:"token_ttl"`
}

// GameConfig defines the rules of a session.
type GameConfig struct {
	CanvasWidth  float64 `yaml:"canvas_width"`
	CanvasHeight float64 `yaml:"canvas_height"`
	PlatformY    float64 `yaml:"platform_y"` // A descending player past this line wins

	MinX       float64 `yaml:"min_x"`
	MaxX       float64 `yaml:"max_x"`
	SpawnMinX  float64 `yaml:"spawn_min_x"`
	SpawnMaxX  float64 `yaml:"spawn_max_x"`
	SpawnY     float64 `yaml:"spawn_y"`
	InputStep  float64 `yaml:"input_step"`
	VertStep   float64 `yaml:"vertical_step"`
	ScoreStep  int     `yaml:"score_step"`
	MinPlayers int     `yaml:"min_players"`
	MaxPlayers int     `yaml:"max_players"` // /auth refuses new clients at this count

	TickInterval     time.Duration `yaml:"tick_interval"`
	BulletEveryTicks int           `yaml:"bullet_every_ticks"`
	ScoreInterval    time.Duration `yaml:"score_interval"`
	FinishGrace      time.Duration `yaml:"finish_grace"`
	ResultHold       time.Duration `yaml:"result_hold"` // 0 resets right after game-over

	Seed int64 `yaml:"seed"` // 0 = seeded from the clock
}

// ShipConfig defines the shared ship's kinematics.
type ShipConfig struct {
	MinSpeed float64 `yaml:"min_speed"` // Units per second
	MaxSpeed float64 `yaml:"max_speed"`
	Margin   float64 `yaml:"margin"` // Distance from the canvas edge where the ship bounces
}

// LogConfig defines logging output.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	g := c.Game
	switch {
	case g.CanvasWidth <= 0 || g.CanvasHeight <= 0:
		return fmt.Errorf("%w: canvas must have positive size", ErrInvalid)
	case g.MinX >= g.MaxX:
		return fmt.Errorf("%w: min_x %.0f must be below max_x %.0f", ErrInvalid, g.MinX, g.MaxX)
	case g.SpawnMinX >= g.SpawnMaxX:
		return fmt.Errorf("%w: spawn_min_x must be below spawn_max_x", ErrInvalid)
	case g.PlatformY <= g.SpawnY:
		return fmt.Errorf("%w: platform_y must be greater than spawn_y", ErrInvalid)
	case g.MinPlayers < 1:
		return fmt.Errorf("%w: min_players must be at least 1", ErrInvalid)
	case g.MaxPlayers < g.MinPlayers:
		return fmt.Errorf("%w: max_players %d is below min_players %d", ErrInvalid, g.MaxPlayers, g.MinPlayers)
	case g.TickInterval <= 0 || g.ScoreInterval <= 0:
		return fmt.Errorf("%w: tick_interval and score_interval must be positive", ErrInvalid)
	case g.BulletEveryTicks < 1:
		return fmt.Errorf("%w: bullet_every_ticks must be at least 1", ErrInvalid)
	case g.FinishGrace < 0 || g.ResultHold < 0:
		return fmt.Errorf("%w: finish_grace and result_hold cannot be negative", ErrInvalid)
	}

	s := c.Ship
	if s.MinSpeed < 0 || s.MaxSpeed < s.MinSpeed {
		return fmt.Errorf("%w: ship speed range [%.0f, %.0f] is empty", ErrInvalid, s.MinSpeed, s.MaxSpeed)
	}
	if 2*s.Margin >= g.CanvasWidth {
		return fmt.Errorf("%w: ship margin leaves no room on the canvas", ErrInvalid)
	}
	if c.Server.TokenTTL <= 0 {
		return fmt.Errorf("%w: token_ttl must be positive", ErrInvalid)
	}
	return nil
}
