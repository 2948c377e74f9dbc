// Package hub binds bus traffic to the session engine: presence on the game
// room joins and removes players, per-client channels carry movement input and
// the dead-player channel carries hit reports.
package hub

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/vovakirdan/invaders/internal/bus"
	"github.com/vovakirdan/invaders/internal/protocol"
	"github.com/vovakirdan/invaders/internal/session"
)

// Engine is the part of the session engine driven by client events.
type Engine interface {
	Join(id session.PlayerID, nickname string) (session.Player, error)
	Leave(id session.PlayerID) error
	ApplyInput(id session.PlayerID, dir session.Direction) error
	NotifyDeath(id session.PlayerID, killerBulletID string) error
}

// Hub dispatches client events to the engine from a single goroutine.
// Control subscriptions are queued, so no presence change, death report or
// input is lost while the engine is busy.
type Hub struct {
	bus    *bus.Bus
	engine Engine
	logger *log.Logger

	presence *bus.Subscription
	deaths   *bus.Subscription

	// Merged input from every per-client subscription
	inputs chan bus.Message

	mu      sync.Mutex
	clients map[string]*bus.Subscription
}

// New creates a hub and subscribes it to the game room presence and the
// dead-player channel, so events published before Run starts are kept.
// A nil logger discards output.
func New(b *bus.Bus, engine Engine, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Hub{
		bus:      b,
		engine:   engine,
		logger:   logger.WithPrefix("hub"),
		presence: b.SubscribeQueued(bus.PresenceChannel(protocol.GameRoom)),
		deaths:   b.SubscribeQueued(protocol.DeadPlayer),
		inputs:   make(chan bus.Message, 256),
		clients:  make(map[string]*bus.Subscription),
	}
}

// Run processes events until ctx is cancelled. The hub's subscriptions are
// closed when it returns.
func (h *Hub) Run(ctx context.Context) error {
	presence, deaths := h.presence, h.deaths
	defer presence.Close()
	defer deaths.Close()
	defer h.closeClients()

	h.logger.Info("hub started")
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hub stopped")
			return nil
		case msg := <-presence.Messages():
			h.handlePresence(ctx, msg)
		case msg := <-deaths.Messages():
			h.handleDeath(msg)
		case msg := <-h.inputs:
			h.handleInput(msg)
		}
	}
}

// Clients returns the number of clients with an open input subscription.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) handlePresence(ctx context.Context, msg bus.Message) {
	id := session.PlayerID(msg.ClientID)

	switch msg.Name {
	case bus.PresenceEnter:
		nickname, _ := msg.Data.(string)
		h.subscribeClient(ctx, msg.ClientID)

		_, err := h.engine.Join(id, nickname)
		switch {
		case err == nil:
		case errors.Is(err, session.ErrSessionFinishing):
			h.logger.Info("join deferred until reset", "player", id)
		default:
			h.logger.Warn("join rejected", "player", id, "err", err)
		}

	case bus.PresenceLeave:
		h.unsubscribeClient(msg.ClientID)
		if err := h.engine.Leave(id); err != nil {
			h.logger.Warn("leave rejected", "player", id, "err", err)
		}
	}
}

func (h *Hub) handleDeath(msg bus.Message) {
	if msg.Name != protocol.DeathName {
		return
	}
	var d protocol.DeadNotification
	switch v := msg.Data.(type) {
	case protocol.DeadNotification:
		d = v
	case *protocol.DeadNotification:
		d = *v
	default:
		h.logger.Warn("unexpected dead-notif payload", "client", msg.ClientID)
		return
	}

	death := d.Death()
	if err := h.engine.NotifyDeath(death.DeadPlayerID, death.KillerBulletID); err != nil {
		h.logger.Warn("death rejected", "player", death.DeadPlayerID, "reporter", msg.ClientID, "err", err)
	}
}

func (h *Hub) handleInput(msg bus.Message) {
	if msg.Name != protocol.PositionName {
		return
	}
	var in protocol.PositionInput
	switch v := msg.Data.(type) {
	case protocol.PositionInput:
		in = v
	case *protocol.PositionInput:
		in = *v
	default:
		h.logger.Warn("unexpected pos payload", "client", msg.ClientID)
		return
	}

	id := session.PlayerID(msg.ClientID)
	dir, err := session.ParseDirection(in.KeyPressed)
	if err != nil {
		h.logger.Warn("input rejected", "player", id, "err", err)
		return
	}
	if err := h.engine.ApplyInput(id, dir); err != nil {
		h.logger.Debug("input ignored", "player", id, "err", err)
	}
}

// subscribeClient opens the client's input channel and forwards it into the
// hub loop, tagged with the channel owner's id.
func (h *Hub) subscribeClient(ctx context.Context, clientID string) {
	h.mu.Lock()
	if _, ok := h.clients[clientID]; ok {
		h.mu.Unlock()
		return
	}
	sub := h.bus.SubscribeQueued(protocol.ClientChannel(clientID))
	h.clients[clientID] = sub
	h.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Done():
				return
			case msg := <-sub.Messages():
				msg.ClientID = clientID
				select {
				case h.inputs <- msg:
				case <-sub.Done():
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

func (h *Hub) unsubscribeClient(clientID string) {
	h.mu.Lock()
	sub, ok := h.clients[clientID]
	delete(h.clients, clientID)
	h.mu.Unlock()
	if ok {
		sub.Close()
	}
}

func (h *Hub) closeClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.clients {
		sub.Close()
		delete(h.clients, id)
	}
}
