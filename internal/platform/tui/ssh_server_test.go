package tui

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/invaders/internal/bus"
	"github.com/vovakirdan/invaders/internal/config"
)

func TestSSHServerConfigFrom(t *testing.T) {
	got := SSHServerConfigFrom(config.ServerConfig{
		SSHAddr:     ":2222",
		HostKeyPath: "/tmp/key",
		IdleTimeout: time.Minute,
	})
	if got.Address != ":2222" || got.HostKeyPath != "/tmp/key" || got.IdleTimeout != time.Minute {
		t.Errorf("SSHServerConfigFrom = %+v", got)
	}
}

func TestNewSSHServerCreatesHostKeyDir(t *testing.T) {
	b := bus.New(bus.DefaultBufferSize, nil)
	defer b.Close()

	keyPath := filepath.Join(t.TempDir(), "keys", "host_key")
	srv, err := NewSSHServer(
		SSHServerConfig{Address: "127.0.0.1:0", HostKeyPath: keyPath, IdleTimeout: time.Minute},
		DashboardConfigFrom(config.Default().Game),
		func() Feed { return NewBusFeed(b) },
		nil,
	)
	if err != nil {
		t.Fatalf("NewSSHServer: %v", err)
	}
	if srv.Addr() != "127.0.0.1:0" {
		t.Errorf("Addr = %q", srv.Addr())
	}
	if srv.Spectators() != 0 {
		t.Errorf("Spectators = %d, want 0", srv.Spectators())
	}
}
