package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/vovakirdan/invaders/internal/bus"
	"github.com/vovakirdan/invaders/internal/config"
	"github.com/vovakirdan/invaders/internal/protocol"
	"github.com/vovakirdan/invaders/internal/session"
)

type stubLobby struct{ count int }

func (l stubLobby) Count() int           { return l.count }
func (l stubLobby) State() session.State { return session.StateWaiting }

func newTestServer(t *testing.T) (*httptest.Server, *Server, *bus.Bus) {
	t.Helper()
	cfg := config.Default()
	cfg.Server.TokenSecret = "test-secret"
	b := bus.New(16, nil)
	s := New(cfg, b, stubLobby{count: 1}, nil)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, s, b
}

func auth(t *testing.T, srv *httptest.Server) authResponse {
	t.Helper()
	resp, err := http.Get(srv.URL + "/auth")
	if err != nil {
		t.Fatalf("GET /auth failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /auth status = %d", resp.StatusCode)
	}
	var out authResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode /auth failed: %v", err)
	}
	return out
}

func dialPlay(t *testing.T, srv *httptest.Server, token, nickname string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + url.QueryEscape(token) + "&nickname=" + url.QueryEscape(nickname)
	conn, _, err := websocket.Dial(ctx, u, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func waitMembers(t *testing.T, b *bus.Bus, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(b.Members(protocol.GameRoom)) != n {
		if time.Now().After(deadline) {
			t.Fatalf("members = %d, want %d", len(b.Members(protocol.GameRoom)), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAuthIssuesVerifiableToken(t *testing.T) {
	srv, s, _ := newTestServer(t)

	out := auth(t, srv)
	if !strings.HasPrefix(out.ClientID, "id-") {
		t.Errorf("clientId = %q, want id- prefix", out.ClientID)
	}
	id, err := s.tokens.Verify(out.Token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if id != out.ClientID {
		t.Errorf("token subject = %q, want %q", id, out.ClientID)
	}
}

func TestAuthRoomFull(t *testing.T) {
	srv, _, b := newTestServer(t)
	for _, id := range []string{"id-1", "id-2", "id-3"} {
		if err := b.Enter(protocol.GameRoom, id, id); err != nil {
			t.Fatalf("Enter failed: %v", err)
		}
	}

	resp, err := http.Get(srv.URL + "/auth")
	if err != nil {
		t.Fatalf("GET /auth failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
	var body errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Error != "room full" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestTokenVerification(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	token, err := issuer.Issue("id-abc")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := NewTokenIssuer("other", time.Minute).Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret = %v, want ErrInvalidToken", err)
	}

	issuer.now = func() time.Time { return time.Now().Add(time.Hour) }
	if _, err := issuer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token = %v, want ErrInvalidToken", err)
	}

	foreign, _ := NewTokenIssuer("secret", time.Minute).Issue("admin")
	if _, err := NewTokenIssuer("secret", time.Minute).Verify(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign subject = %v, want ErrInvalidToken", err)
	}
}

func TestPlayRejectsBadToken(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ws?token=bogus&nickname=ann")
	if err != nil {
		t.Fatalf("GET /ws failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestPlayBridgesFrames(t *testing.T) {
	srv, _, b := newTestServer(t)
	creds := auth(t, srv)

	presence := b.Subscribe(bus.PresenceChannel(protocol.GameRoom))
	inputs := b.Subscribe(protocol.ClientChannel(creds.ClientID))
	deaths := b.Subscribe(protocol.DeadPlayer)

	conn := dialPlay(t, srv, creds.Token, "ann")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	select {
	case msg := <-presence.Messages():
		if msg.Name != bus.PresenceEnter || msg.ClientID != creds.ClientID || msg.Data != "ann" {
			t.Fatalf("presence = %+v", msg)
		}
	case <-ctx.Done():
		t.Fatal("no presence enter")
	}

	// Server to client.
	env, _ := protocol.NewEnvelope(protocol.GameOverName, protocol.GameOverMsg{Winner: "ann", TotalPlayers: 1})
	b.Publish(protocol.GameRoom, protocol.GameOverName, "", env)
	var got protocol.Envelope
	if err := wsjson.Read(ctx, conn, &got); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.Name != protocol.GameOverName {
		t.Errorf("frame name = %q", got.Name)
	}

	// Client to server.
	pos, _ := protocol.NewEnvelope(protocol.PositionName, protocol.PositionInput{KeyPressed: "right"})
	if err := wsjson.Write(ctx, conn, pos); err != nil {
		t.Fatalf("Write pos failed: %v", err)
	}
	select {
	case msg := <-inputs.Messages():
		if in, ok := msg.Data.(protocol.PositionInput); !ok || in.KeyPressed != "right" {
			t.Errorf("input = %#v", msg.Data)
		}
	case <-ctx.Done():
		t.Fatal("pos not published")
	}

	dead, _ := protocol.NewEnvelope(protocol.DeathName, protocol.DeadNotification{DeadPlayerID: creds.ClientID, KillerBulletID: "bulletId-1"})
	if err := wsjson.Write(ctx, conn, dead); err != nil {
		t.Fatalf("Write dead-notif failed: %v", err)
	}
	select {
	case msg := <-deaths.Messages():
		if d, ok := msg.Data.(protocol.DeadNotification); !ok || d.KillerBulletID != "bulletId-1" {
			t.Errorf("death = %#v", msg.Data)
		}
	case <-ctx.Done():
		t.Fatal("dead-notif not published")
	}

	conn.Close(websocket.StatusNormalClosure, "")
	select {
	case msg := <-presence.Messages():
		if msg.Name != bus.PresenceLeave {
			t.Errorf("presence = %+v, want leave", msg)
		}
	case <-ctx.Done():
		t.Fatal("no presence leave")
	}
	waitMembers(t, b, 0)
}

func TestPlayRejectsDuplicateConnection(t *testing.T) {
	srv, _, b := newTestServer(t)
	creds := auth(t, srv)

	dialPlay(t, srv, creds.Token, "ann")
	waitMembers(t, b, 1)

	second := dialPlay(t, srv, creds.Token, "ann")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := second.Read(ctx)
	if websocket.CloseStatus(err) != websocket.StatusPolicyViolation {
		t.Errorf("second connection closed with %v, want policy violation", err)
	}
	waitMembers(t, b, 1)
}

func TestLobbyAndHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/lobby")
	if err != nil {
		t.Fatalf("GET /lobby failed: %v", err)
	}
	defer resp.Body.Close()
	var lobby lobbyResponse
	if err := json.NewDecoder(resp.Body).Decode(&lobby); err != nil {
		t.Fatalf("decode /lobby failed: %v", err)
	}
	want := lobbyResponse{State: "waiting", Players: 1, MinPlayers: 3, MaxPlayers: 3}
	if lobby != want {
		t.Errorf("lobby = %+v, want %+v", lobby, want)
	}

	health, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", health.StatusCode)
	}
}

func TestParseNickname(t *testing.T) {
	if nick, ok := parseNickname("  ann "); !ok || nick != "ann" {
		t.Errorf("parseNickname trimmed = %q, %v", nick, ok)
	}
	if _, ok := parseNickname("   "); ok {
		t.Error("blank nickname accepted")
	}
	if _, ok := parseNickname(strings.Repeat("x", MaxNicknameLen+1)); ok {
		t.Error("overlong nickname accepted")
	}
}
