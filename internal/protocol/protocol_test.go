package protocol

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/vovakirdan/invaders/internal/session"
)

func TestGameStateWaitingHasNullShipAndBullet(t *testing.T) {
	msg := FromGameState(session.GameState{
		Players: map[session.PlayerID]session.Player{
			"id-1": {ID: "id-1", Nickname: "ann", X: 40, Y: 20, AvatarType: session.AvatarB, AvatarColor: session.ColorCyan, Alive: true},
		},
		PlayerCount: 1,
	})

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got := string(data)
	for _, want := range []string{
		`"shipBody":null`,
		`"bulletOrBlank":null`,
		`"gameOn":false`,
		`"playerCount":1`,
		`"invaderAvatarType":"B"`,
		`"invaderAvatarColor":"cyan"`,
		`"isAlive":true`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("game-state JSON missing %s:\n%s", want, got)
		}
	}
}

func TestGameStateActiveCarriesShipAndBullet(t *testing.T) {
	msg := FromGameState(session.GameState{
		Ship:           &session.ShipSnapshot{X: 512.5, Y: 718, VX: -90},
		Bullet:         &session.BulletEvent{ID: "bulletId-7", Y: 718},
		SessionOn:      true,
		KillerBulletID: "bulletId-3",
	})

	if msg.ShipBody == nil || *msg.ShipBody != [2]float64{512.5, 718} {
		t.Errorf("ShipBody = %v", msg.ShipBody)
	}
	if msg.BulletOrBlank == nil || msg.BulletOrBlank.ID != "bulletId-7" {
		t.Errorf("BulletOrBlank = %+v", msg.BulletOrBlank)
	}
	if !msg.GameOn || msg.KillerBullet != "bulletId-3" {
		t.Errorf("msg = %+v", msg)
	}
}

func TestDecodeClientMessages(t *testing.T) {
	var env Envelope
	if err := json.Unmarshal([]byte(`{"name":"dead-notif","data":{"deadPlayerId":"id-2","killerBulletId":"bulletId-9"}}`), &env); err != nil {
		t.Fatalf("Unmarshal envelope failed: %v", err)
	}
	if env.Name != DeathName {
		t.Fatalf("Name = %q", env.Name)
	}

	var dead DeadNotification
	if err := json.Unmarshal(env.Data, &dead); err != nil {
		t.Fatalf("Unmarshal data failed: %v", err)
	}
	want := session.DeathNotification{DeadPlayerID: "id-2", KillerBulletID: "bulletId-9"}
	if got := dead.Death(); got != want {
		t.Errorf("Death() = %+v, want %+v", got, want)
	}
}

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(GameOverName, FromOutcome(session.Outcome{Winner: session.Nobody, TotalPlayers: 3}))
	if err != nil {
		t.Fatalf("NewEnvelope failed: %v", err)
	}
	if env.Name != "game-over" || !strings.Contains(string(env.Data), `"winner":"Nobody"`) {
		t.Errorf("envelope = %s %s", env.Name, env.Data)
	}
	if ClientChannel("id-1") != "clientChannel-id-1" {
		t.Errorf("ClientChannel = %q", ClientChannel("id-1"))
	}
}
