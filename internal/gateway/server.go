// Package gateway is the HTTP and websocket edge of the session server. It
// issues client identities, bridges websocket frames to the bus and exposes
// lobby status for spectators.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vovakirdan/invaders/internal/bus"
	"github.com/vovakirdan/invaders/internal/config"
	"github.com/vovakirdan/invaders/internal/protocol"
	"github.com/vovakirdan/invaders/internal/session"
)

// MaxNicknameLen caps the nickname accepted on /ws.
const MaxNicknameLen = 32

// Lobby reports the session status shown on /lobby.
type Lobby interface {
	Count() int
	State() session.State
}

// Server serves /auth, /ws, /spectate, /lobby and /health.
type Server struct {
	game   config.GameConfig
	bus    *bus.Bus
	lobby  Lobby
	tokens *TokenIssuer
	logger *log.Logger
}

// New creates a gateway. A nil logger discards output.
func New(cfg config.Config, b *bus.Bus, lobby Lobby, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		game:   cfg.Game,
		bus:    b,
		lobby:  lobby,
		tokens: NewTokenIssuer(cfg.Server.TokenSecret, cfg.Server.TokenTTL),
		logger: logger.WithPrefix("gateway"),
	}
}

// Handler returns the gateway routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth", s.handleAuth)
	mux.HandleFunc("GET /ws", s.handlePlay)
	mux.HandleFunc("GET /spectate", s.handleSpectate)
	mux.HandleFunc("GET /lobby", s.handleLobby)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled. Open websocket
// connections are bound to ctx and close with it.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown failed", "err", err)
		}
	}()

	s.logger.Info("listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// roomFull reports whether the game room already holds max_players clients.
func (s *Server) roomFull() bool {
	return len(s.bus.Members(protocol.GameRoom)) >= s.game.MaxPlayers
}

type authResponse struct {
	ClientID string `json:"clientId"`
	Token    string `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	if s.roomFull() {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "room full"})
		return
	}

	id := NewClientID()
	token, err := s.tokens.Issue(id)
	if err != nil {
		s.logger.Error("cannot issue token", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	s.logger.Debug("issued client id", "client", id, "remote", r.RemoteAddr)
	writeJSON(w, http.StatusOK, authResponse{ClientID: id, Token: token})
}

type lobbyResponse struct {
	State      string `json:"state"`
	Players    int    `json:"players"`
	MinPlayers int    `json:"minPlayers"`
	MaxPlayers int    `json:"maxPlayers"`
	Full       bool   `json:"full"`
}

func (s *Server) handleLobby(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, lobbyResponse{
		State:      s.lobby.State().String(),
		Players:    s.lobby.Count(),
		MinPlayers: s.game.MinPlayers,
		MaxPlayers: s.game.MaxPlayers,
		Full:       s.roomFull(),
	})
}

// parseNickname trims and validates the nickname query parameter.
func parseNickname(raw string) (string, bool) {
	nick := strings.TrimSpace(raw)
	if nick == "" || len([]rune(nick)) > MaxNicknameLen {
		return "", false
	}
	return nick, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
