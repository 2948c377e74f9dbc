package tui

import (
	"context"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/vovakirdan/invaders/internal/bus"
	"github.com/vovakirdan/invaders/internal/protocol"
)

const feedBufferSize = 16

// Feed is a stream of game-room envelopes for one dashboard.
type Feed interface {
	// Updates is closed when the feed ends.
	Updates() <-chan protocol.Envelope

	// Close stops the feed. Safe to call multiple times.
	Close()
}

// push enqueues env, dropping the oldest update when the dashboard lags.
func push(out chan protocol.Envelope, env protocol.Envelope) {
	select {
	case out <- env:
	default:
		select {
		case <-out:
		default:
		}
		select {
		case out <- env:
		default:
		}
	}
}

// BusFeed reads the game room from an in-process bus.
type BusFeed struct {
	sub *bus.Subscription
	out chan protocol.Envelope
}

// NewBusFeed subscribes to the game room on b.
func NewBusFeed(b *bus.Bus) *BusFeed {
	f := &BusFeed{
		sub: b.Subscribe(protocol.GameRoom),
		out: make(chan protocol.Envelope, feedBufferSize),
	}
	go f.forward()
	return f
}

func (f *BusFeed) forward() {
	defer close(f.out)
	for {
		select {
		case <-f.sub.Done():
			return
		case msg := <-f.sub.Messages():
			if env, ok := msg.Data.(protocol.Envelope); ok {
				push(f.out, env)
			}
		}
	}
}

// Updates implements Feed.
func (f *BusFeed) Updates() <-chan protocol.Envelope {
	return f.out
}

// Close implements Feed.
func (f *BusFeed) Close() {
	f.sub.Close()
}

// SocketFeed reads the game room from a remote server's /spectate endpoint.
type SocketFeed struct {
	conn      *websocket.Conn
	out       chan protocol.Envelope
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// DialFeed connects to a spectate websocket URL.
func DialFeed(ctx context.Context, url string) (*SocketFeed, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("tui: cannot dial %s: %w", url, err)
	}

	readCtx, cancel := context.WithCancel(context.Background())
	f := &SocketFeed{
		conn:   conn,
		out:    make(chan protocol.Envelope, feedBufferSize),
		cancel: cancel,
	}
	go f.read(readCtx)
	return f, nil
}

func (f *SocketFeed) read(ctx context.Context) {
	defer close(f.out)
	for {
		var env protocol.Envelope
		if err := wsjson.Read(ctx, f.conn, &env); err != nil {
			return
		}
		push(f.out, env)
	}
}

// Updates implements Feed.
func (f *SocketFeed) Updates() <-chan protocol.Envelope {
	return f.out
}

// Close implements Feed.
func (f *SocketFeed) Close() {
	f.closeOnce.Do(func() {
		f.cancel()
		f.conn.Close(websocket.StatusNormalClosure, "")
	})
}
