package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mechwars/arena-backend/internal/ws"
)

func SetupRoutes(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/leaderboard", Leaderboard(d))
	r.Get("/stats", ServerStats(d))
	r.Get("/ws", ws.Handler(ws.Deps{
		Registry:   d.Registry,
		Matchmaker: d.Matchmaker,
		Hub:        d.Hub,
		Log:        d.Log,
	}))
	return r
}
