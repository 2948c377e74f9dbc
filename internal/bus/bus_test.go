package bus

import (
	"errors"
	"testing"
	"time"
)

func recv(t *testing.T, s *Subscription) Message {
	t.Helper()
	select {
	case msg := <-s.Messages():
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return Message{}
	}
}

func TestPublishFansOut(t *testing.T) {
	b := New(8, nil)
	s1 := b.Subscribe("game-room")
	s2 := b.Subscribe("game-room")
	other := b.Subscribe("dead-player")

	b.Publish("game-room", "game-state", "", 42)

	for _, s := range []*Subscription{s1, s2} {
		msg := recv(t, s)
		if msg.Name != "game-state" || msg.Data != 42 || msg.Channel != "game-room" {
			t.Errorf("got %+v", msg)
		}
	}
	select {
	case msg := <-other.Messages():
		t.Errorf("other channel received %+v", msg)
	default:
	}
}

func TestSlowSubscriberDropsOldest(t *testing.T) {
	b := New(2, nil)
	s := b.Subscribe("c")

	for i := range 5 {
		b.Publish("c", "n", "", i)
	}

	if got := recv(t, s).Data; got != 3 {
		t.Errorf("first buffered = %v, want 3", got)
	}
	if got := recv(t, s).Data; got != 4 {
		t.Errorf("second buffered = %v, want 4", got)
	}
}

func TestCloseUnsubscribes(t *testing.T) {
	b := New(4, nil)
	s := b.Subscribe("c")
	s.Close()
	s.Close()

	if n := b.Subscribers("c"); n != 0 {
		t.Errorf("Subscribers() = %d after close", n)
	}
	select {
	case <-s.Done():
	default:
		t.Error("Done not closed")
	}
	b.Publish("c", "n", "", 1)
	select {
	case msg := <-s.Messages():
		t.Errorf("closed subscription received %+v", msg)
	default:
	}
}

func TestBusCloseEndsSubscriptions(t *testing.T) {
	b := New(4, nil)
	s := b.Subscribe("c")
	b.Close()

	select {
	case <-s.Done():
	default:
		t.Error("subscription survived bus close")
	}
	late := b.Subscribe("c")
	select {
	case <-late.Done():
	default:
		t.Error("subscription after close is open")
	}
}

func TestPresence(t *testing.T) {
	b := New(4, nil)
	events := b.Subscribe(PresenceChannel("game-room"))

	if err := b.Enter("game-room", "id-1", "ann"); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	if err := b.Enter("game-room", "id-1", "ann"); !errors.Is(err, ErrAlreadyPresent) {
		t.Errorf("second Enter = %v, want ErrAlreadyPresent", err)
	}
	if msg := recv(t, events); msg.Name != PresenceEnter || msg.ClientID != "id-1" || msg.Data != "ann" {
		t.Errorf("enter event = %+v", msg)
	}

	if got := b.Members("game-room"); len(got) != 1 || got[0].ClientID != "id-1" {
		t.Errorf("Members() = %+v", got)
	}

	if err := b.Leave("game-room", "id-1"); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if msg := recv(t, events); msg.Name != PresenceLeave || msg.Data != "ann" {
		t.Errorf("leave event = %+v", msg)
	}
	if err := b.Leave("game-room", "id-1"); !errors.Is(err, ErrNotPresent) {
		t.Errorf("second Leave = %v, want ErrNotPresent", err)
	}
	if got := b.Members("game-room"); len(got) != 0 {
		t.Errorf("Members() after leave = %+v", got)
	}
}

func TestQueuedSubscriberKeepsEverything(t *testing.T) {
	b := New(2, nil)
	s := b.SubscribeQueued("dead-player")

	for i := range 100 {
		b.Publish("dead-player", "dead-notif", "", i)
	}
	for i := range 100 {
		if got := recv(t, s).Data; got != i {
			t.Fatalf("message %d = %v, want %d", i, got, i)
		}
	}
	if n := s.Pending(); n != 0 {
		t.Errorf("Pending() = %d after draining, want 0", n)
	}
}

func TestQueuedSubscriberClose(t *testing.T) {
	b := New(1, nil)
	s := b.SubscribeQueued("c")
	for i := range 5 {
		b.Publish("c", "n", "", i)
	}
	s.Close()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("queued subscription did not close")
	}
	if b.Subscribers("c") != 0 {
		t.Errorf("Subscribers() = %d after close", b.Subscribers("c"))
	}
}
