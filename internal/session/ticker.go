package session

import (
	"context"
	"time"
)

// Run drives the session clock until ctx is cancelled, then stops every
// scheduled task.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.game.TickInterval)
	defer ticker.Stop()

	e.logger.Info("ticker started", "interval", e.game.TickInterval)
	for {
		select {
		case <-ctx.Done():
			e.Shutdown()
			e.logger.Info("ticker stopped")
			return nil
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Tick advances the ship, fires a bullet when due and publishes the
// resulting game state. An empty waiting session publishes nothing; the
// second result reports whether a state was published.
func (e *Engine) Tick() (GameState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateWaiting && len(e.players) == 0 {
		return GameState{}, false
	}
	e.tick++

	var bullet *BulletEvent
	if e.state == StateActive && e.sim != nil {
		bullet = e.sim.Step()
	}
	state := e.snapshotLocked(bullet)
	e.pub.PublishGameState(state)
	return state, true
}

func (e *Engine) snapshotLocked(bullet *BulletEvent) GameState {
	players := make(map[PlayerID]Player, len(e.players))
	for id, p := range e.players {
		players[id] = *p
	}

	state := GameState{
		Tick:           e.tick,
		Players:        players,
		PlayerCount:    len(players),
		Bullet:         bullet,
		SessionOn:      e.state == StateActive,
		KillerBulletID: e.lastKiller,
	}
	if e.sim != nil {
		ship := e.sim.Ship()
		state.Ship = &ship
	}
	return state
}
