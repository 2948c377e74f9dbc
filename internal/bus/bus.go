// Package bus is the in-process realtime message bus between connected
// clients and the session hub: named channels with fan-out subscriptions and
// per-channel presence.
package bus

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// DefaultBufferSize is used when New receives a non-positive buffer size.
const DefaultBufferSize = 64

// Message is one event published on a channel.
type Message struct {
	Channel  string
	Name     string
	ClientID string // publisher, empty for server-originated messages
	Data     any
}

// Bus routes messages from publishers to every subscriber of a channel.
// Publishing never blocks. A slow Subscribe subscriber loses its oldest
// messages; a SubscribeQueued subscriber queues without limit instead.
type Bus struct {
	bufferSize int
	logger     *log.Logger

	mu       sync.RWMutex
	subs     map[string]map[uint64]*Subscription
	nextID   uint64
	presence map[string]map[string]Member
	closed   bool
}

// New creates an empty bus. A nil logger discards output.
func New(bufferSize int, logger *log.Logger) *Bus {
	if bufferSize < 1 {
		bufferSize = DefaultBufferSize
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Bus{
		bufferSize: bufferSize,
		logger:     logger.WithPrefix("bus"),
		subs:       make(map[string]map[uint64]*Subscription),
		presence:   make(map[string]map[string]Member),
	}
}

// Publish delivers a message to the current subscribers of channel.
func (b *Bus) Publish(channel, name, clientID string, data any) {
	msg := Message{Channel: channel, Name: name, ClientID: clientID, Data: data}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs[channel] {
		s.deliver(msg)
	}
}

// Subscribe opens a subscription to channel that drops its oldest buffered
// message when the reader falls behind. Close it when done.
func (b *Bus) Subscribe(channel string) *Subscription {
	return b.subscribe(channel, false)
}

// SubscribeQueued opens a subscription to channel that never drops: messages
// the reader has not taken yet wait in an unbounded queue, in publish order.
// Use it for control traffic that must arrive at least once.
func (b *Bus) SubscribeQueued(channel string) *Subscription {
	return b.subscribe(channel, true)
}

func (b *Bus) subscribe(channel string, queued bool) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	s := &Subscription{
		id:      b.nextID,
		channel: channel,
		bus:     b,
		msgs:    make(chan Message, b.bufferSize),
		done:    make(chan struct{}),
	}
	if b.closed {
		s.closeLocked()
		return s
	}
	if queued {
		s.wake = make(chan struct{}, 1)
		go s.pump()
	}
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[uint64]*Subscription)
	}
	b.subs[channel][s.id] = s
	return s
}

// Subscribers returns the number of open subscriptions on channel.
func (b *Bus) Subscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[channel])
}

// Close ends every subscription. Later subscriptions are born closed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for channel, subs := range b.subs {
		for _, s := range subs {
			s.closeLocked()
		}
		delete(b.subs, channel)
	}
	b.logger.Debug("bus closed")
}

func (b *Bus) unsubscribe(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.subs[s.channel]; ok {
		delete(subs, s.id)
		if len(subs) == 0 {
			delete(b.subs, s.channel)
		}
	}
	s.closeLocked()
}

// Subscription receives the messages of one channel.
type Subscription struct {
	id      uint64
	channel string
	bus     *Bus

	msgs     chan Message
	done     chan struct{}
	doneOnce sync.Once

	// Set for queued subscriptions only
	wake  chan struct{}
	qmu   sync.Mutex
	queue []Message
}

// Channel returns the subscribed channel name.
func (s *Subscription) Channel() string {
	return s.channel
}

// Messages returns the delivery channel. It is never closed; select on Done.
func (s *Subscription) Messages() <-chan Message {
	return s.msgs
}

// Done closes when the subscription ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close unsubscribes. Safe to call multiple times.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s)
}

func (s *Subscription) closeLocked() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// Pending returns the number of messages waiting in a queued subscription's
// overflow queue.
func (s *Subscription) Pending() int {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	return len(s.queue)
}

// deliver enqueues msg. A queued subscription appends to its overflow queue;
// any other drops the oldest buffered message when full.
func (s *Subscription) deliver(msg Message) {
	select {
	case <-s.done:
		return
	default:
	}

	if s.wake != nil {
		s.qmu.Lock()
		s.queue = append(s.queue, msg)
		s.qmu.Unlock()
		select {
		case s.wake <- struct{}{}:
		default:
		}
		return
	}

	select {
	case s.msgs <- msg:
	default:
		select {
		case <-s.msgs:
		default:
		}
		select {
		case s.msgs <- msg:
		default:
		}
	}
}

// pump moves queued messages into the delivery channel until the
// subscription ends.
func (s *Subscription) pump() {
	for {
		s.qmu.Lock()
		if len(s.queue) == 0 {
			s.qmu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		msg := s.queue[0]
		s.queue[0] = Message{}
		s.queue = s.queue[1:]
		s.qmu.Unlock()

		select {
		case s.msgs <- msg:
		case <-s.done:
			return
		}
	}
}
