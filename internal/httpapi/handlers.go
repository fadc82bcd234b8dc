package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mechwars/arena-backend/internal/game"
	"github.com/mechwars/arena-backend/internal/hub"
	"github.com/mechwars/arena-backend/internal/match"
	"github.com/mechwars/arena-backend/internal/registry"
)

// Deps are the components the status endpoints read from.
type Deps struct {
	Registry   *registry.Registry
	Matchmaker *match.Matchmaker
	Hub        *hub.Hub
	Log        *zap.Logger
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func Leaderboard(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, _ = strconv.Atoi(raw)
		}
		writeJSON(w, http.StatusOK, struct {
			Players []registry.Player `json:"players"`
		}{Players: d.Registry.Leaderboard(limit)})
	}
}

func ServerStats(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statsReply := make(chan hub.Stats, 1)
		d.Hub.Inbox() <- hub.GetStats{Reply: statsReply}

		lengthsReply := make(chan map[game.Mode]int, 1)
		d.Matchmaker.Inbox() <- match.GetLengths{Reply: lengthsReply}

		writeJSON(w, http.StatusOK, struct {
			Online  int               `json:"online"`
			Battles hub.Stats         `json:"battles"`
			Queues  map[game.Mode]int `json:"queues"`
		}{
			Online:  d.Registry.OnlineCount(),
			Battles: <-statsReply,
			Queues:  <-lengthsReply,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
