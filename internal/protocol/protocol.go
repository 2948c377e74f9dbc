// Package protocol defines the channel names, message names and JSON payloads
// exchanged between the session server and its clients.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/invaders/internal/session"
)

// Channel names.
const (
	GameRoom   = "game-room"
	DeadPlayer = "dead-player"
)

// ClientChannel is the per-client input channel.
func ClientChannel(clientID string) string {
	return "clientChannel-" + clientID
}

// Message names.
const (
	GameStateName = "game-state"
	GameOverName  = "game-over"
	PositionName  = "pos"
	DeathName     = "dead-notif"
)

// Envelope is one websocket frame.
type Envelope struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// NewEnvelope encodes data under name.
func NewEnvelope(name string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("protocol: cannot encode %s: %w", name, err)
	}
	return Envelope{Name: name, Data: raw}, nil
}

// PlayerState is a player as clients see it.
type PlayerState struct {
	ID                 string  `json:"id"`
	X                  float64 `json:"x"`
	Y                  float64 `json:"y"`
	InvaderAvatarType  string  `json:"invaderAvatarType"`
	InvaderAvatarColor string  `json:"invaderAvatarColor"`
	Score              int     `json:"score"`
	Nickname           string  `json:"nickname"`
	IsAlive            bool    `json:"isAlive"`
}

// Bullet announces a newly fired bullet.
type Bullet struct {
	ID string  `json:"id"`
	Y  float64 `json:"y"`
}

// GameStateMsg is the per-tick broadcast.
type GameStateMsg struct {
	Players       map[string]PlayerState `json:"players"`
	PlayerCount   int                    `json:"playerCount"`
	ShipBody      *[2]float64            `json:"shipBody"`
	BulletOrBlank *Bullet                `json:"bulletOrBlank"`
	GameOn        bool                   `json:"gameOn"`
	KillerBullet  string                 `json:"killerBullet"`
}

// GameOverMsg is the final ranking broadcast.
type GameOverMsg struct {
	Winner         string `json:"winner"`
	FirstRunnerUp  string `json:"firstRunnerUp"`
	SecondRunnerUp string `json:"secondRunnerUp"`
	TotalPlayers   int    `json:"totalPlayers"`
}

// PositionInput is a client's movement request.
type PositionInput struct {
	KeyPressed string `json:"keyPressed"`
}

// DeadNotification is a client's report that a bullet hit a player.
type DeadNotification struct {
	DeadPlayerID   string `json:"deadPlayerId"`
	KillerBulletID string `json:"killerBulletId"`
}

// FromGameState converts an engine snapshot to its wire form.
func FromGameState(s session.GameState) GameStateMsg {
	msg := GameStateMsg{
		Players:      make(map[string]PlayerState, len(s.Players)),
		PlayerCount:  s.PlayerCount,
		GameOn:       s.SessionOn,
		KillerBullet: s.KillerBulletID,
	}
	for id, p := range s.Players {
		msg.Players[string(id)] = FromPlayer(p)
	}
	if s.Ship != nil {
		msg.ShipBody = &[2]float64{s.Ship.X, s.Ship.Y}
	}
	if s.Bullet != nil {
		msg.BulletOrBlank = &Bullet{ID: s.Bullet.ID, Y: s.Bullet.Y}
	}
	return msg
}

// FromPlayer converts one player.
func FromPlayer(p session.Player) PlayerState {
	return PlayerState{
		ID:                 string(p.ID),
		X:                  p.X,
		Y:                  p.Y,
		InvaderAvatarType:  string(p.AvatarType),
		InvaderAvatarColor: string(p.AvatarColor),
		Score:              p.Score,
		Nickname:           p.Nickname,
		IsAlive:            p.Alive,
	}
}

// FromOutcome converts a session result.
func FromOutcome(o session.Outcome) GameOverMsg {
	return GameOverMsg{
		Winner:         o.Winner,
		FirstRunnerUp:  o.FirstRunnerUp,
		SecondRunnerUp: o.SecondRunnerUp,
		TotalPlayers:   o.TotalPlayers,
	}
}

// Death converts a wire death report for the engine.
func (d DeadNotification) Death() session.DeathNotification {
	return session.DeathNotification{
		DeadPlayerID:   session.PlayerID(d.DeadPlayerID),
		KillerBulletID: d.KillerBulletID,
	}
}
