package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/invaders.yaml
var defaultInvadersYAML []byte

// Default returns the built-in configuration. It mirrors defaults/invaders.yaml
// and is used when the embedded file cannot be parsed.
func Default() Config {
	return Config{
		Server: ServerConfig{
			HTTPAddr:    ":8080",
			SSHAddr:     ":23234",
			IdleTimeout: 30 * time.Minute,
			TokenTTL:    time.Hour,
		},
		Game: GameConfig{
			CanvasWidth:      1400,
			CanvasHeight:     750,
			PlatformY:        718,
			MinX:             20,
			MaxX:             1380,
			SpawnMinX:        30,
			SpawnMaxX:        1400,
			SpawnY:           20,
			InputStep:        20,
			VertStep:         20,
			ScoreStep:        5,
			MinPlayers:       3,
			MaxPlayers:       3,
			TickInterval:     100 * time.Millisecond,
			BulletEveryTicks: 5,
			ScoreInterval:    time.Second,
			FinishGrace:      time.Second,
			ResultHold:       0,
		},
		Ship: ShipConfig{
			MinSpeed: 80,
			MaxSpeed: 240,
			Margin:   20,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
