package session

import (
	"context"
	"sort"
)

// Nobody is the winner name reported when every player died.
const Nobody = "Nobody"

// ResolveOutcome ranks a finished session. players must be in join order;
// equal scores keep that order. The winner, if any, is excluded from the
// runner-up ranking. A winner id that is not among players counts as none.
func ResolveOutcome(players []Player, winner *PlayerID) Outcome {
	out := Outcome{Winner: Nobody, TotalPlayers: len(players)}

	ranked := make([]Player, 0, len(players))
	for _, p := range players {
		if winner != nil && p.ID == *winner {
			out.Winner = p.Nickname
			continue
		}
		ranked = append(ranked, p)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > 0 {
		out.FirstRunnerUp = ranked[0].Nickname
	}
	if len(ranked) > 1 {
		out.SecondRunnerUp = ranked[1].Nickname
	}
	return out
}

// Finish ends an active session, publishes the ranking and resets. It
// reports whether the call ended the session.
func (e *Engine) Finish(winner *PlayerID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.finishLocked(winner)
}

func (e *Engine) finishLocked(winner *PlayerID) bool {
	if e.state != StateActive {
		return false
	}
	e.state = StateFinished
	e.tasks.Cancel(finishKey)

	outcome := ResolveOutcome(e.orderedLocked(), winner)
	e.logger.Info("session finished",
		"epoch", e.epoch,
		"winner", outcome.Winner,
		"firstRunnerUp", outcome.FirstRunnerUp,
		"secondRunnerUp", outcome.SecondRunnerUp,
		"players", outcome.TotalPlayers,
	)
	e.pub.PublishGameOver(outcome)

	if e.game.ResultHold <= 0 {
		e.resetLocked()
		return true
	}

	epoch := e.epoch
	e.tasks.After(resetKey, e.game.ResultHold, func(ctx context.Context) {
		e.mu.Lock()
		defer e.mu.Unlock()
		if ctx.Err() != nil || e.epoch != epoch {
			return
		}
		e.resetLocked()
	})
	return true
}
