package hub

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/vovakirdan/invaders/internal/bus"
	"github.com/vovakirdan/invaders/internal/protocol"
	"github.com/vovakirdan/invaders/internal/session"
)

// Publisher broadcasts engine output on the game room. Payloads are encoded
// once here; subscribers forward the envelope as is.
type Publisher struct {
	bus    *bus.Bus
	logger *log.Logger
}

// NewPublisher creates a publisher on b. A nil logger discards output.
func NewPublisher(b *bus.Bus, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Publisher{bus: b, logger: logger.WithPrefix("publisher")}
}

// PublishGameState implements session.Publisher.
func (p *Publisher) PublishGameState(state session.GameState) {
	p.publish(protocol.GameStateName, protocol.FromGameState(state))
}

// PublishGameOver implements session.Publisher.
func (p *Publisher) PublishGameOver(outcome session.Outcome) {
	p.publish(protocol.GameOverName, protocol.FromOutcome(outcome))
}

func (p *Publisher) publish(name string, data any) {
	env, err := protocol.NewEnvelope(name, data)
	if err != nil {
		p.logger.Error("cannot publish", "name", name, "err", err)
		return
	}
	p.bus.Publish(protocol.GameRoom, name, "", env)
}
