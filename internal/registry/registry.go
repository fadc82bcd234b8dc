package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mechwars/arena-backend/internal/bots"
)

// Rank is the coarse skill label shown on profiles and leaderboards.
type Rank string

const (
	RankBronze   Rank = "bronze"
	RankSilver   Rank = "silver"
	RankGold     Rank = "gold"
	RankPlatinum Rank = "platinum"
	RankDiamond  Rank = "diamond"
)

// Stats is a player's cumulative record across battles.
type Stats struct {
	GamesPlayed int     `json:"games_played"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Kills       int     `json:"kills"`
	Deaths      int     `json:"deaths"`
	DamageDealt float64 `json:"damage_dealt"`
	DamageTaken float64 `json:"damage_taken"`
	WinRate     float64 `json:"win_rate"`
	AverageKDA  float64 `json:"average_kda"`
}

// Player is the registry's unit of identity. Records are never hard-deleted;
// disconnects only clear the connectivity flags.
type Player struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Level       int                 `json:"level"`
	XP          int                 `json:"xp"`
	Rank        Rank                `json:"rank"`
	Stats       Stats               `json:"stats"`
	Bot         *bots.Configuration `json:"bot,omitempty"`
	IsReady     bool                `json:"is_ready"`
	IsConnected bool                `json:"is_connected"`
}

// Outcome is one player's slice of a finished battle.
type Outcome struct {
	Won         bool
	Kills       int
	Deaths      int
	DamageDealt float64
	DamageTaken float64
}

// PlayerData is the optional seed for CreateOrGet. Absent fields default.
type PlayerData struct {
	ID   string
	Name string
}

type session struct {
	playerID     string
	lastActivity time.Time
	online       bool
}

// Registry owns the player map, the session table and the connection index.
// All access goes through the mutex; callers get value copies, never live
// pointers.
type Registry struct {
	mu       sync.Mutex
	players  map[string]*Player
	sessions map[string]*session // keyed by player id
	conns    map[string]string   // connection id -> player id
	log      *zap.Logger
}

func New(log *zap.Logger) *Registry {
	return &Registry{
		players:  make(map[string]*Player),
		sessions: make(map[string]*session),
		conns:    make(map[string]string),
		log:      log,
	}
}

// CreateOrGet resolves a player by id, creating a defaulted record when
// missing. It never fails.
func (r *Registry) CreateOrGet(data PlayerData) Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	if data.ID != "" {
		if p, ok := r.players[data.ID]; ok {
			return copyPlayer(p)
		}
	}

	id := data.ID
	if id == "" {
		id = uuid.NewString()
	}
	name := data.Name
	if name == "" {
		name = "Pilot-" + id[:8]
	}
	p := &Player{
		ID:    id,
		Name:  name,
		Level: 1,
		Rank:  RankBronze,
	}
	r.players[id] = p
	r.log.Info("player created", zap.String("player_id", id), zap.String("name", name))
	return copyPlayer(p)
}

// Get returns a copy of the player record, if known.
func (r *Registry) Get(playerID string) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[playerID]
	if !ok {
		return Player{}, false
	}
	return copyPlayer(p), true
}

// SetOnline records a live session for the connection and flags the player
// connected. Calling it again for the same connection just refreshes activity.
func (r *Registry) SetOnline(playerID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[playerID]
	if !ok {
		r.log.Warn("setOnline for unknown player", zap.String("player_id", playerID))
		return
	}
	r.conns[connID] = playerID
	r.sessions[playerID] = &session{playerID: playerID, lastActivity: time.Now(), online: true}
	p.IsConnected = true
}

// SetOffline tears down the session for a connection id. Unknown ids are a
// no-op; the player record itself is retained.
func (r *Registry) SetOffline(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	playerID, ok := r.conns[connID]
	if !ok {
		return
	}
	delete(r.conns, connID)
	if s, ok := r.sessions[playerID]; ok {
		s.online = false
		s.lastActivity = time.Now()
	}
	if p, ok := r.players[playerID]; ok {
		p.IsConnected = false
		p.IsReady = false
	}
}

// UpdateBotConfiguration swaps the player's loadout. Returns false on an
// unknown player or a config with no chassis.
func (r *Registry) UpdateBotConfiguration(playerID string, cfg bots.Configuration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[playerID]
	if !ok {
		r.log.Warn("bot update for unknown player", zap.String("player_id", playerID))
		return false
	}
	if err := cfg.Validate(); err != nil {
		r.log.Warn("bot update rejected", zap.String("player_id", playerID), zap.Error(err))
		return false
	}
	normalized := cfg.Normalize()
	p.Bot = &normalized
	return true
}

func (r *Registry) SetReady(playerID string, ready bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[playerID]
	if !ok {
		r.log.Warn("setReady for unknown player", zap.String("player_id", playerID))
		return false
	}
	p.IsReady = ready
	return true
}

// RecordBattleOutcome folds one battle's results into the player's cumulative
// stats and applies the leveling rule.
func (r *Registry) RecordBattleOutcome(playerID string, o Outcome) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[playerID]
	if !ok {
		r.log.Warn("outcome for unknown player", zap.String("player_id", playerID))
		return false
	}

	s := &p.Stats
	s.GamesPlayed++
	if o.Won {
		s.Wins++
	} else {
		s.Losses++
	}
	s.Kills += o.Kills
	s.Deaths += o.Deaths
	s.DamageDealt += o.DamageDealt
	s.DamageTaken += o.DamageTaken
	s.WinRate = float64(s.Wins) / float64(s.GamesPlayed)
	s.AverageKDA = float64(s.Kills) / float64(max(s.Deaths, 1))

	if o.Won {
		p.XP += 100
	} else {
		p.XP += 25
	}
	for p.XP >= p.Level*p.Level*100 {
		p.Level++
	}
	p.Rank = rankFor(p.Level)
	return true
}

// Leaderboard returns the top players by wins, then win rate, then level.
func (r *Registry) Leaderboard(limit int) []Player {
	if limit <= 0 {
		limit = 10
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		all = append(all, copyPlayer(p))
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Stats.Wins != b.Stats.Wins {
			return a.Stats.Wins > b.Stats.Wins
		}
		if a.Stats.WinRate != b.Stats.WinRate {
			return a.Stats.WinRate > b.Stats.WinRate
		}
		return a.Level > b.Level
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

// SweepIdle purges offline sessions inactive past the timeout. Player records
// are unaffected. Returns the number of entries removed.
func (r *Registry) SweepIdle(timeout time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-timeout)
	removed := 0
	for playerID, s := range r.sessions {
		if !s.online && s.lastActivity.Before(cutoff) {
			delete(r.sessions, playerID)
			removed++
		}
	}
	if removed > 0 {
		r.log.Info("idle sessions purged", zap.Int("count", removed))
	}
	return removed
}

// OnlineCount reports how many sessions are currently live.
func (r *Registry) OnlineCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sessions {
		if s.online {
			n++
		}
	}
	return n
}

// Touch refreshes the session activity timestamp for a connection.
func (r *Registry) Touch(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if playerID, ok := r.conns[connID]; ok {
		if s, ok := r.sessions[playerID]; ok {
			s.lastActivity = time.Now()
		}
	}
}

func rankFor(level int) Rank {
	switch {
	case level >= 40:
		return RankDiamond
	case level >= 25:
		return RankPlatinum
	case level >= 15:
		return RankGold
	case level >= 5:
		return RankSilver
	default:
		return RankBronze
	}
}

func copyPlayer(p *Player) Player {
	out := *p
	if p.Bot != nil {
		cfg := *p.Bot
		cfg.Weapons = append([]bots.Weapon(nil), p.Bot.Weapons...)
		cfg.Defensives = append([]bots.Defensive(nil), p.Bot.Defensives...)
		cfg.Utilities = append([]bots.Utility(nil), p.Bot.Utilities...)
		out.Bot = &cfg
	}
	return out
}
