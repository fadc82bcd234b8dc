package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mechwars/arena-backend/internal/battle"
	"github.com/mechwars/arena-backend/internal/game"
	"github.com/mechwars/arena-backend/internal/hub"
	"github.com/mechwars/arena-backend/internal/match"
	"github.com/mechwars/arena-backend/internal/registry"
	"github.com/mechwars/arena-backend/pkg/types"
)

// Deps are the core components the shim fronts.
type Deps struct {
	Registry   *registry.Registry
	Matchmaker *match.Matchmaker
	Hub        *hub.Hub
	Log        *zap.Logger
}

const (
	writeTimeout = 3 * time.Second
	readTimeout  = 60 * time.Second
)

// Handler upgrades the connection and runs the session: hello handshake,
// then a reader loop, with battle snapshots pushed by a writer goroutine.
func Handler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		player, ok := hello(r.Context(), conn, d, connID)
		if !ok {
			return
		}

		out := make(chan battle.State, 8)
		d.Hub.Inbox() <- hub.Watch{PlayerID: player.ID, Outbox: out}

		defer func() {
			d.Registry.SetOffline(connID)
			d.Hub.Inbox() <- hub.RouteDisconnect{PlayerID: player.ID}
			d.Matchmaker.Inbox() <- match.Dequeue{PlayerID: player.ID}
		}()

		// Writer goroutine: battle snapshots only. Everything else is
		// written inline from the reader loop.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				send(writeCtx, conn, types.ServerMessage{Type: "BattleSnapshot", State: &snap})
			}
		}()

		readLoop(r.Context(), conn, d, connID, player.ID)
	}
}

// hello waits for the identity frame and registers the session.
func hello(ctx context.Context, conn *websocket.Conn, d Deps, connID string) (registry.Player, bool) {
	readCtx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	_, data, err := conn.Read(readCtx)
	if err != nil {
		return registry.Player{}, false
	}

	var cm types.ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil || cm.Type != "Hello" {
		send(ctx, conn, types.ServerMessage{Type: "Error", Error: "expected Hello"})
		return registry.Player{}, false
	}

	player := d.Registry.CreateOrGet(registry.PlayerData{ID: cm.PlayerID, Name: cm.Name})
	d.Registry.SetOnline(player.ID, connID)
	player.IsConnected = true
	send(ctx, conn, types.ServerMessage{Type: "Welcome", Player: &player})
	d.Log.Info("session established", zap.String("player_id", player.ID), zap.String("conn_id", connID))
	return player, true
}

func readLoop(ctx context.Context, conn *websocket.Conn, d Deps, connID, playerID string) {
	for {
		readCtx, cancel := context.WithTimeout(ctx, readTimeout)
		_, data, err := conn.Read(readCtx)
		cancel()
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			return
		}
		d.Registry.Touch(connID)

		var cm types.ClientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			send(ctx, conn, types.ServerMessage{Type: "Error", Error: "bad json"})
			continue
		}

		handle(ctx, conn, d, playerID, cm)
	}
}

func handle(ctx context.Context, conn *websocket.Conn, d Deps, playerID string, cm types.ClientMessage) {
	switch cm.Type {
	case "UpdateBot":
		if cm.Bot == nil || !d.Registry.UpdateBotConfiguration(playerID, *cm.Bot) {
			send(ctx, conn, types.ServerMessage{Type: "Error", Error: "invalid bot configuration"})
			return
		}
		p, _ := d.Registry.Get(playerID)
		send(ctx, conn, types.ServerMessage{Type: "BotUpdated", Player: &p})

	case "SetReady":
		d.Registry.SetReady(playerID, cm.Ready)
		p, _ := d.Registry.Get(playerID)
		send(ctx, conn, types.ServerMessage{Type: "ReadySet", Player: &p})

	case "JoinQueue":
		mode, ok := game.ParseMode(cm.Mode)
		if !ok {
			send(ctx, conn, types.ServerMessage{Type: "Error", Error: "unknown game mode"})
			return
		}
		p, ok := d.Registry.Get(playerID)
		if !ok {
			send(ctx, conn, types.ServerMessage{Type: "Error", Error: "unknown player"})
			return
		}
		reply := make(chan error, 1)
		d.Matchmaker.Inbox() <- match.Enqueue{Player: p, Request: match.Request{GameMode: mode}, Reply: reply}
		if err := <-reply; err != nil {
			send(ctx, conn, types.ServerMessage{Type: "Error", Error: err.Error()})
			return
		}
		send(ctx, conn, types.ServerMessage{Type: "QueueJoined"})

	case "LeaveQueue":
		d.Matchmaker.Inbox() <- match.Dequeue{PlayerID: playerID}
		send(ctx, conn, types.ServerMessage{Type: "QueueLeft"})

	case "QueueStatus":
		reply := make(chan match.Status, 1)
		d.Matchmaker.Inbox() <- match.GetStatus{PlayerID: playerID, Reply: reply}
		status := <-reply
		send(ctx, conn, types.ServerMessage{Type: "QueueStatus", Queue: &status})

	case "Input":
		if cm.Input == nil {
			return
		}
		d.Hub.Inbox() <- hub.RouteInput{PlayerID: playerID, Input: *cm.Input}

	default:
		send(ctx, conn, types.ServerMessage{Type: "Error", Error: "unknown type"})
	}
}

func send(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(writeCtx, websocket.MessageText, payload)
}
