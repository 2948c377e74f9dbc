package session

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/vovakirdan/invaders/internal/config"
)

// PlayerID is the opaque, session-scoped identity assigned by the gateway.
type PlayerID string

// AvatarType is the invader sprite family shown for a player.
type AvatarType string

// AvatarColor is the tint applied to a player's invader sprite.
type AvatarColor string

// Sprite families, drawn by clients from their own asset sets.
const (
	AvatarA AvatarType = "A"
	AvatarB AvatarType = "B"
	AvatarC AvatarType = "C"
)

// Sprite tints.
const (
	ColorGreen  AvatarColor = "green"
	ColorCyan   AvatarColor = "cyan"
	ColorYellow AvatarColor = "yellow"
)

var (
	avatarTypes  = [...]AvatarType{AvatarA, AvatarB, AvatarC}
	avatarColors = [...]AvatarColor{ColorGreen, ColorCyan, ColorYellow}
)

// AllocateAvatar picks a sprite type and a color independently and uniformly.
func AllocateAvatar(rng *rand.Rand) (AvatarType, AvatarColor) {
	return avatarTypes[rng.Intn(len(avatarTypes))], avatarColors[rng.Intn(len(avatarColors))]
}

// Player is one invader taking part in the session.
type Player struct {
	ID          PlayerID
	Nickname    string
	X           float64
	Y           float64
	AvatarType  AvatarType
	AvatarColor AvatarColor
	Score       int
	Alive       bool

	seq uint64 // join order, used to break score ties
}

// Direction is a horizontal movement request from a client.
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
)

// ParseDirection validates a raw keyPressed value.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Left, Right:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// randomIn returns a value in [lo, hi) truncated to three decimals.
func randomIn(rng *rand.Rand, lo, hi float64) float64 {
	return math.Floor((lo+rng.Float64()*(hi-lo))*1000) / 1000
}

// spawnX picks a spawn position inside the spawn range, kept within the
// horizontal movement bounds.
func spawnX(rng *rand.Rand, g config.GameConfig) float64 {
	return clamp(randomIn(rng, g.SpawnMinX, g.SpawnMaxX), g.MinX, g.MaxX)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
