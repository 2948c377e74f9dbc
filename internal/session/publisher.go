package session

//go:generate go tool mockgen -destination=./mocks/publisher_mock.go -package=mocks . Publisher

// Publisher delivers the engine's outbound stream to clients.
// It is called with the engine lock held and must not block.
type Publisher interface {
	// PublishGameState sends the per-tick world snapshot.
	PublishGameState(state GameState)

	// PublishGameOver sends the final ranking of a session.
	PublishGameOver(outcome Outcome)
}

// GameState is the snapshot broadcast on every tick.
type GameState struct {
	Tick           uint64
	Players        map[PlayerID]Player
	PlayerCount    int
	Ship           *ShipSnapshot // nil until the session is active
	Bullet         *BulletEvent  // nil on ticks without a new bullet
	SessionOn      bool
	KillerBulletID string
}

// Outcome is the result of a finished session.
type Outcome struct {
	Winner         string
	FirstRunnerUp  string
	SecondRunnerUp string
	TotalPlayers   int
}

// DeathNotification reports that a bullet hit a player.
type DeathNotification struct {
	DeadPlayerID   PlayerID
	KillerBulletID string
}
