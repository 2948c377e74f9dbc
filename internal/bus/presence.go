package bus

import (
	"errors"
	"fmt"
	"sort"
)

// Presence event names.
const (
	PresenceEnter = "enter"
	PresenceLeave = "leave"
)

var (
	// ErrAlreadyPresent is returned by Enter for a client already on the channel.
	ErrAlreadyPresent = errors.New("bus: client already present")
	// ErrNotPresent is returned by Leave for a client not on the channel.
	ErrNotPresent = errors.New("bus: client not present")
)

// Member is a client present on a channel.
type Member struct {
	ClientID string
	Data     any
}

// PresenceChannel is the channel carrying enter/leave events for channel.
func PresenceChannel(channel string) string {
	return "presence:" + channel
}

// Enter marks clientID present on channel and announces it to presence
// subscribers.
func (b *Bus) Enter(channel, clientID string, data any) error {
	b.mu.Lock()
	members := b.presence[channel]
	if members == nil {
		members = make(map[string]Member)
		b.presence[channel] = members
	}
	if _, ok := members[clientID]; ok {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s on %s", ErrAlreadyPresent, clientID, channel)
	}
	members[clientID] = Member{ClientID: clientID, Data: data}
	b.mu.Unlock()

	b.logger.Debug("presence enter", "channel", channel, "client", clientID)
	b.Publish(PresenceChannel(channel), PresenceEnter, clientID, data)
	return nil
}

// Leave removes clientID from channel's presence set and announces it.
func (b *Bus) Leave(channel, clientID string) error {
	b.mu.Lock()
	m, ok := b.presence[channel][clientID]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s on %s", ErrNotPresent, clientID, channel)
	}
	delete(b.presence[channel], clientID)
	b.mu.Unlock()

	b.logger.Debug("presence leave", "channel", channel, "client", clientID)
	b.Publish(PresenceChannel(channel), PresenceLeave, clientID, m.Data)
	return nil
}

// Members lists the clients present on channel, ordered by id.
func (b *Bus) Members(channel string) []Member {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Member, 0, len(b.presence[channel]))
	for _, m := range b.presence[channel] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out
}
