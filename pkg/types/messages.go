package types

import (
	"github.com/mechwars/arena-backend/internal/battle"
	"github.com/mechwars/arena-backend/internal/bots"
	"github.com/mechwars/arena-backend/internal/game"
	"github.com/mechwars/arena-backend/internal/match"
	"github.com/mechwars/arena-backend/internal/registry"
)

// ClientMessage is every inbound frame the shim accepts. Type selects which
// fields are meaningful.
type ClientMessage struct {
	Type string `json:"type"` // "Hello" | "UpdateBot" | "SetReady" | "JoinQueue" | "LeaveQueue" | "QueueStatus" | "Input"

	// Hello
	PlayerID string `json:"player_id,omitempty"`
	Name     string `json:"name,omitempty"`

	// UpdateBot
	Bot *bots.Configuration `json:"bot,omitempty"`

	// SetReady
	Ready bool `json:"ready,omitempty"`

	// JoinQueue
	Mode string `json:"mode,omitempty"`

	// Input
	Input *game.PlayerInput `json:"input,omitempty"`
}

// ServerMessage is every outbound frame.
type ServerMessage struct {
	Type string `json:"type"` // "Welcome" | "BotUpdated" | "ReadySet" | "QueueJoined" | "QueueLeft" | "QueueStatus" | "BattleSnapshot" | "Error"

	Player *registry.Player `json:"player,omitempty"`
	Queue  *match.Status    `json:"queue,omitempty"`
	State  *battle.State    `json:"state,omitempty"`
	Error  string           `json:"error,omitempty"`
}
