package session

import "context"

// enrollLocked starts the per-player descent: every score interval the
// player drops one vertical step and earns one score step.
func (e *Engine) enrollLocked(id PlayerID) {
	e.tasks.Every(scoreKey(id), e.game.ScoreInterval, func(ctx context.Context) {
		e.mu.Lock()
		defer e.mu.Unlock()
		if ctx.Err() != nil || e.state != StateActive {
			return
		}
		e.advanceLocked(id)
	})
}

// advanceLocked applies one descent step. Passing the platform wins the session.
func (e *Engine) advanceLocked(id PlayerID) {
	p, ok := e.players[id]
	if !ok || !p.Alive {
		e.tasks.Cancel(scoreKey(id))
		return
	}

	p.Y += e.game.VertStep
	p.Score += e.game.ScoreStep
	if p.Y > e.game.PlatformY {
		e.tasks.Cancel(scoreKey(id))
		e.logger.Info("player reached the platform", "id", id, "score", p.Score)
		e.finishLocked(&id)
	}
}
