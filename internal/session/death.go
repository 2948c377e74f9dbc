package session

import (
	"context"
	"fmt"
)

// NotifyDeath marks a player dead and records the bullet that hit them.
// Repeated reports for the same player are ignored. When no living players
// remain, the session finishes without a winner after the grace delay.
func (e *Engine) NotifyDeath(id PlayerID, killerBulletID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateFinished {
		return nil
	}
	p, ok := e.players[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	if !p.Alive {
		return nil
	}

	p.Alive = false
	e.lastKiller = killerBulletID
	e.tasks.Cancel(scoreKey(id))
	alive := e.aliveCountLocked()
	e.logger.Info("player died", "id", id, "bullet", killerBulletID, "alive", alive)

	if e.state == StateActive && alive == 0 {
		e.scheduleFinishLocked()
	}
	return nil
}

func (e *Engine) scheduleFinishLocked() {
	if e.state != StateActive || e.tasks.Has(finishKey) {
		return
	}
	epoch := e.epoch
	e.tasks.After(finishKey, e.game.FinishGrace, func(ctx context.Context) {
		e.mu.Lock()
		defer e.mu.Unlock()
		if ctx.Err() != nil || e.epoch != epoch {
			return
		}
		// A late joiner during the grace delay keeps the session going.
		if e.aliveCountLocked() > 0 {
			return
		}
		e.finishLocked(nil)
	})
}
