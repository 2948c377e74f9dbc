package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/vovakirdan/invaders/internal/bus"
	"github.com/vovakirdan/invaders/internal/protocol"
	"golang.org/x/sync/errgroup"
)

// handlePlay upgrades an authenticated player. The connection is present on
// the game room for as long as it stays open.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clientID, err := s.tokens.Verify(q.Get("token"))
	if err != nil {
		s.logger.Warn("rejected connection", "remote", r.RemoteAddr, "err", err)
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
		return
	}
	nickname, ok := parseNickname(q.Get("nickname"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid nickname"})
		return
	}
	if s.roomFull() {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "room full"})
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.Error("failed to accept", "client", clientID, "err", err)
		return
	}
	defer conn.CloseNow()

	room := s.bus.Subscribe(protocol.GameRoom)
	defer room.Close()

	if err := s.bus.Enter(protocol.GameRoom, clientID, nickname); err != nil {
		s.logger.Warn("duplicate connection", "client", clientID, "err", err)
		conn.Close(websocket.StatusPolicyViolation, "already connected")
		return
	}
	defer func() {
		if err := s.bus.Leave(protocol.GameRoom, clientID); err != nil {
			s.logger.Warn("presence leave failed", "client", clientID, "err", err)
		}
	}()
	s.logger.Info("player connected", "client", clientID, "nickname", nickname)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return s.writeLoop(ctx, conn, room) })
	g.Go(func() error { return s.readLoop(ctx, conn, clientID) })

	err = g.Wait()
	if isNormalClose(err) {
		s.logger.Info("player disconnected", "client", clientID)
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}
	s.logger.Warn("player connection failed", "client", clientID, "err", err)
	conn.Close(websocket.StatusInternalError, "")
}

// handleSpectate streams the game room to a read-only client.
func (s *Server) handleSpectate(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.Error("failed to accept spectator", "err", err)
		return
	}
	defer conn.CloseNow()

	room := s.bus.Subscribe(protocol.GameRoom)
	defer room.Close()

	s.logger.Debug("spectator connected", "remote", r.RemoteAddr)
	ctx := conn.CloseRead(r.Context())
	if err := s.writeLoop(ctx, conn, room); isNormalClose(err) {
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}
	conn.Close(websocket.StatusInternalError, "")
}

// writeLoop forwards game-room envelopes to the socket.
func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, room *bus.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-room.Done():
			return nil
		case msg := <-room.Messages():
			env, ok := msg.Data.(protocol.Envelope)
			if !ok {
				continue
			}
			if err := wsjson.Write(ctx, conn, env); err != nil {
				return err
			}
		}
	}
}

// readLoop publishes client frames on their bus channels.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, clientID string) error {
	for {
		var env protocol.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			return err
		}

		switch env.Name {
		case protocol.PositionName:
			var in protocol.PositionInput
			if err := json.Unmarshal(env.Data, &in); err != nil {
				s.logger.Debug("malformed pos", "client", clientID, "err", err)
				continue
			}
			s.bus.Publish(protocol.ClientChannel(clientID), protocol.PositionName, clientID, in)

		case protocol.DeathName:
			var d protocol.DeadNotification
			if err := json.Unmarshal(env.Data, &d); err != nil {
				s.logger.Debug("malformed dead-notif", "client", clientID, "err", err)
				continue
			}
			s.bus.Publish(protocol.DeadPlayer, protocol.DeathName, clientID, d)

		default:
			s.logger.Debug("ignored frame", "client", clientID, "name", env.Name)
		}
	}
}

func isNormalClose(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}
