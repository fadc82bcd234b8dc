package battle

import (
	"github.com/mechwars/arena-backend/internal/arena"
	"github.com/mechwars/arena-backend/internal/game"
)

// State is an immutable copy of a battle for consumers outside the
// simulation goroutine. Mutating it has no effect on the battle.
type State struct {
	ID            string                  `json:"id"`
	Mode          game.Mode               `json:"mode"`
	Phase         Phase                   `json:"phase"`
	Arena         arena.Arena             `json:"arena"`
	TimeRemaining float64                 `json:"time_remaining"`
	Bots          []BotState              `json:"bots"`
	Projectiles   []Projectile            `json:"projectiles,omitempty"`
	PowerUps      []PowerUp               `json:"power_ups,omitempty"`
	Scores        map[string]int          `json:"scores"`
	Result        *Result                 `json:"result,omitempty"`
	Totals        map[string]PlayerTotals `json:"totals,omitempty"`
	Events        []Event                 `json:"events,omitempty"`
}

// Snapshot deep-copies the current state.
func (b *Battle) Snapshot() State {
	ar := b.Arena
	ar.SpawnPoints = append([]game.Vec3(nil), b.Arena.SpawnPoints...)
	ar.PowerUpSpawns = append([]arena.PowerUpSpawn(nil), b.Arena.PowerUpSpawns...)

	s := State{
		ID:            b.ID,
		Mode:          b.Mode,
		Phase:         b.phase,
		Arena:         ar,
		TimeRemaining: b.timeRemaining,
		Scores:        make(map[string]int, len(b.scores)),
		Totals:        make(map[string]PlayerTotals, len(b.totals)),
	}

	s.Bots = make([]BotState, 0, len(b.bots))
	for _, bot := range b.bots {
		c := *bot
		c.Effects = append([]ActiveEffect(nil), bot.Effects...)
		s.Bots = append(s.Bots, c)
	}

	s.Projectiles = make([]Projectile, 0, len(b.projectiles))
	for _, p := range b.projectiles {
		s.Projectiles = append(s.Projectiles, *p)
	}

	s.PowerUps = make([]PowerUp, 0, len(b.powerUps))
	for _, pu := range b.powerUps {
		s.PowerUps = append(s.PowerUps, *pu)
	}

	for id, score := range b.scores {
		s.Scores[id] = score
	}
	for id, t := range b.totals {
		s.Totals[id] = *t
	}

	if b.result != nil {
		r := *b.result
		r.PerPlayer = make(map[string]PlayerResult, len(b.result.PerPlayer))
		for id, pr := range b.result.PerPlayer {
			r.PerPlayer[id] = pr
		}
		s.Result = &r
	}

	s.Events = append([]Event(nil), b.events...)
	return s
}
