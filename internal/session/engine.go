// Package session implements the authoritative invaders session: the player
// registry, the shared ship, the descent and score schedule, and the
// waiting/active/finished lifecycle.
package session

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vovakirdan/invaders/internal/config"
)

// State is the session-wide phase.
type State int

const (
	// StateWaiting collects players until the minimum is reached.
	StateWaiting State = iota
	// StateActive runs the ship, bullets and descent.
	StateActive
	// StateFinished holds the published result until the reset.
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateActive:
		return "active"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrDuplicateID is returned by Join for an id that is already registered.
	ErrDuplicateID = errors.New("session: duplicate player id")
	// ErrUnknownPlayer is returned for events about an id that never joined.
	ErrUnknownPlayer = errors.New("session: unknown player")
	// ErrInvalidDirection is returned for input other than left or right.
	ErrInvalidDirection = errors.New("session: invalid direction")
	// ErrSessionFinishing is returned by Join during game-over. The join is
	// queued and applied right after the reset.
	ErrSessionFinishing = errors.New("session: finishing, join deferred until reset")
)

const (
	finishKey = "finish"
	resetKey  = "reset"
)

func scoreKey(id PlayerID) string {
	return "score:" + string(id)
}

type pendingJoin struct {
	id       PlayerID
	nickname string
}

// Engine is the single owner of session state. All mutation happens under one
// lock, whether it comes from the network, the tick loop or a timed task.
type Engine struct {
	game   config.GameConfig
	ship   config.ShipConfig
	pub    Publisher
	logger *log.Logger
	tasks  *TaskRegistry

	mu         sync.Mutex
	rng        *rand.Rand
	state      State
	epoch      uint64
	players    map[PlayerID]*Player
	nextSeq    uint64
	sim        *Simulator
	lastKiller string
	tick       uint64
	pending    []pendingJoin
}

// NewEngine creates a waiting session. A nil logger discards output.
func NewEngine(cfg config.Config, pub Publisher, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	seed := cfg.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Engine{
		game:    cfg.Game,
		ship:    cfg.Ship,
		pub:     pub,
		logger:  logger.WithPrefix("session"),
		tasks:   NewTaskRegistry(),
		rng:     rand.New(rand.NewSource(seed)),
		players: make(map[PlayerID]*Player),
	}
}

// Join registers a player with a random avatar at the top of the canvas.
// Reaching the minimum player count while waiting starts the session; a
// player joining an active session starts descending right away.
func (e *Engine) Join(id PlayerID, nickname string) (Player, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateFinished {
		for _, j := range e.pending {
			if j.id == id {
				return Player{}, fmt.Errorf("%w: %s", ErrDuplicateID, id)
			}
		}
		e.pending = append(e.pending, pendingJoin{id: id, nickname: nickname})
		return Player{}, ErrSessionFinishing
	}
	return e.joinLocked(id, nickname)
}

func (e *Engine) joinLocked(id PlayerID, nickname string) (Player, error) {
	if _, ok := e.players[id]; ok {
		return Player{}, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	avatar, color := AllocateAvatar(e.rng)
	p := &Player{
		ID:          id,
		Nickname:    nickname,
		X:           spawnX(e.rng, e.game),
		Y:           e.game.SpawnY,
		AvatarType:  avatar,
		AvatarColor: color,
		Alive:       true,
		seq:         e.nextSeq,
	}
	e.nextSeq++
	e.players[id] = p
	e.logger.Info("player joined", "id", id, "nickname", nickname, "players", len(e.players))

	switch {
	case e.state == StateWaiting && len(e.players) >= e.game.MinPlayers:
		e.activateLocked()
	case e.state == StateActive:
		e.enrollLocked(id)
	}
	return *p, nil
}

// Leave removes a player. The last player leaving resets the session; the
// last living player leaving an active session ends it after the grace delay.
func (e *Engine) Leave(id PlayerID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateFinished {
		for i, j := range e.pending {
			if j.id == id {
				e.pending = append(e.pending[:i], e.pending[i+1:]...)
				return nil
			}
		}
		delete(e.players, id)
		return nil
	}

	if _, ok := e.players[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	delete(e.players, id)
	e.tasks.Cancel(scoreKey(id))
	e.logger.Info("player left", "id", id, "players", len(e.players))

	if len(e.players) == 0 {
		e.resetLocked()
		return nil
	}
	if e.state == StateActive && e.aliveCountLocked() == 0 {
		e.scheduleFinishLocked()
	}
	return nil
}

// ApplyInput moves a living player one step left or right, clamped to the
// playfield. Input for dead players and input during game-over is ignored.
func (e *Engine) ApplyInput(id PlayerID, dir Direction) error {
	if dir != Left && dir != Right {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}

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

	step := e.game.InputStep
	if dir == Left {
		step = -step
	}
	p.X = clamp(p.X+step, e.game.MinX, e.game.MaxX)
	return nil
}

// Count returns the number of joined players.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.players)
}

// AliveCount returns the number of joined players still alive.
func (e *Engine) AliveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.aliveCountLocked()
}

func (e *Engine) aliveCountLocked() int {
	n := 0
	for _, p := range e.players {
		if p.Alive {
			n++
		}
	}
	return n
}

// State returns the current phase.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Epoch increments on every reset.
func (e *Engine) Epoch() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.epoch
}

// Player returns a copy of one player.
func (e *Engine) Player(id PlayerID) (Player, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// Players returns copies of all players in join order.
func (e *Engine) Players() []Player {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.orderedLocked()
}

func (e *Engine) orderedLocked() []Player {
	out := make([]Player, 0, len(e.players))
	for _, p := range e.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Reset returns the session to waiting with no players and no scheduled
// work. Joins deferred during game-over are replayed afterwards.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Engine) resetLocked() {
	cancelled := e.tasks.CancelAll()
	e.players = make(map[PlayerID]*Player)
	e.sim = nil
	e.lastKiller = ""
	e.state = StateWaiting
	e.epoch++
	e.logger.Info("session reset", "epoch", e.epoch, "cancelledTasks", cancelled)

	pending := e.pending
	e.pending = nil
	for _, j := range pending {
		if _, err := e.joinLocked(j.id, j.nickname); err != nil {
			e.logger.Warn("deferred join failed", "id", j.id, "err", err)
		}
	}
}

// Shutdown cancels every scheduled task without touching session state.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks.CancelAll()
}

func (e *Engine) activateLocked() {
	e.state = StateActive
	e.sim = NewSimulator(e.game, e.ship, e.rng)
	for id, p := range e.players {
		if p.Alive {
			e.enrollLocked(id)
		}
	}
	e.logger.Info("session active", "epoch", e.epoch, "players", len(e.players), "shipX", e.sim.Ship().X)
}
