package session

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/vovakirdan/invaders/internal/config"
)

// ShipSnapshot is the shared ship's position and velocity.
type ShipSnapshot struct {
	X, Y float64
	VX   float64 // units per second, sign is the heading
}

// BulletEvent announces a bullet fired from the ship. Clients simulate its
// flight and report hits with a DeathNotification.
type BulletEvent struct {
	ID string
	Y  float64
}

// NewBulletID returns a fresh bullet identifier.
func NewBulletID() string {
	return "bulletId-" + uuid.NewString()
}

// Simulator advances the ship one tick at a time and decides when it fires.
type Simulator struct {
	ship       ShipSnapshot
	minX, maxX float64
	platformY  float64

	step        time.Duration
	fireEvery   time.Duration
	sinceBullet time.Duration
}

// NewSimulator spawns the ship at a random x inside the spawn range with a
// random speed and heading.
func NewSimulator(game config.GameConfig, ship config.ShipConfig, rng *rand.Rand) *Simulator {
	minX, maxX := ship.Margin, game.CanvasWidth-ship.Margin
	speed := ship.MinSpeed + rng.Float64()*(ship.MaxSpeed-ship.MinSpeed)
	if rng.Intn(2) == 0 {
		speed = -speed
	}

	return &Simulator{
		ship: ShipSnapshot{
			X:  clamp(randomIn(rng, game.SpawnMinX, game.SpawnMaxX), minX, maxX),
			Y:  game.PlatformY,
			VX: speed,
		},
		minX:      minX,
		maxX:      maxX,
		platformY: game.PlatformY,
		step:      game.TickInterval,
		fireEvery: game.TickInterval * time.Duration(game.BulletEveryTicks),
	}
}

// Step moves the ship by one tick, reflecting at the margins, and returns a
// bullet when the fire interval has elapsed.
func (s *Simulator) Step() *BulletEvent {
	x := s.ship.X + s.ship.VX*s.step.Seconds()
	switch {
	case x > s.maxX:
		x = s.maxX - (x - s.maxX)
		s.ship.VX = -s.ship.VX
	case x < s.minX:
		x = s.minX + (s.minX - x)
		s.ship.VX = -s.ship.VX
	}
	// A step wider than the lane still lands inside it.
	s.ship.X = clamp(x, s.minX, s.maxX)

	s.sinceBullet += s.step
	if s.sinceBullet < s.fireEvery {
		return nil
	}
	s.sinceBullet = 0
	return &BulletEvent{ID: NewBulletID(), Y: s.platformY}
}

// Ship returns the current ship state.
func (s *Simulator) Ship() ShipSnapshot {
	return s.ship
}
