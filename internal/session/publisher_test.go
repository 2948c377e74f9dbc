package session_test

import (
	"testing"
	"time"

	"github.com/vovakirdan/invaders/internal/config"
	"github.com/vovakirdan/invaders/internal/session"
	"github.com/vovakirdan/invaders/internal/session/mocks"
	"go.uber.org/mock/gomock"
)

func newMockedEngine(t *testing.T) (*session.Engine, *mocks.MockPublisher) {
	t.Helper()
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)

	cfg := config.Default()
	cfg.Game.Seed = 7
	cfg.Game.ScoreInterval = time.Hour
	e := session.NewEngine(cfg, pub, nil)
	t.Cleanup(e.Shutdown)
	return e, pub
}

// Finish publishes the ranking exactly once and leaves an empty waiting session.
func TestFinishPublishesGameOver(t *testing.T) {
	e, pub := newMockedEngine(t)
	for _, id := range []string{"a", "b", "c"} {
		if _, err := e.Join(session.PlayerID(id), "nick-"+id); err != nil {
			t.Fatalf("Join failed: %v", err)
		}
	}

	pub.EXPECT().PublishGameOver(session.Outcome{
		Winner:         "nick-c",
		FirstRunnerUp:  "nick-a",
		SecondRunnerUp: "nick-b",
		TotalPlayers:   3,
	}).Times(1)

	winner := session.PlayerID("c")
	if !e.Finish(&winner) {
		t.Fatal("Finish returned false for an active session")
	}
	if e.Finish(nil) {
		t.Error("Finish on a waiting session returned true")
	}
	if e.Count() != 0 || e.State() != session.StateWaiting {
		t.Errorf("after finish: count=%d state=%v", e.Count(), e.State())
	}
}

func TestTickPublishesSnapshot(t *testing.T) {
	e, pub := newMockedEngine(t)
	if _, err := e.Join("a", "ann"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	pub.EXPECT().PublishGameState(gomock.Any()).Do(func(state session.GameState) {
		if state.PlayerCount != 1 || state.SessionOn {
			t.Errorf("published state = %+v", state)
		}
		if _, ok := state.Players["a"]; !ok {
			t.Error("published state is missing the joined player")
		}
	}).Times(1)

	e.Tick()
}
