package battle

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/mechwars/arena-backend/internal/arena"
	"github.com/mechwars/arena-backend/internal/bots"
	"github.com/mechwars/arena-backend/internal/game"
)

// Phase is the coarse lifecycle stage of a battle. Transitions are strictly
// forward: waiting -> countdown -> active -> finished.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseCountdown Phase = "countdown"
	PhaseActive    Phase = "active"
	PhaseFinished  Phase = "finished"
)

var phaseOrder = map[Phase]int{
	PhaseWaiting:   0,
	PhaseCountdown: 1,
	PhaseActive:    2,
	PhaseFinished:  3,
}

// Outcome is one player's view of a finished battle.
type Outcome string

const (
	OutcomeVictory Outcome = "victory"
	OutcomeDefeat  Outcome = "defeat"
	OutcomeDraw    Outcome = "draw"
)

const (
	frictionFactor    = 0.95
	heatCoolPerSec    = 10.0
	energyRegenPerSec = 20.0
	overheatThreshold = 80.0
	fireHeatCeiling   = 90.0
	defaultHeatGen    = 10.0
	projectileHitDist = 1.5
	powerUpPickupDist = 2.0
	killScore         = 100
	inputImpulse      = 0.1
)

// ActiveEffect is a timed modifier on a bot. Duration counts down every tick;
// the effect is dropped once it reaches zero.
type ActiveEffect struct {
	Type      string  `json:"type"`
	Duration  float64 `json:"duration"`
	Intensity float64 `json:"intensity"`
	Source    string  `json:"source"`
}

// BotStatus is the bundle of independent condition flags.
type BotStatus struct {
	Alive      bool `json:"alive"`
	Shielded   bool `json:"shielded"`
	Cloaked    bool `json:"cloaked"`
	Boosting   bool `json:"boosting"`
	Overheated bool `json:"overheated"`
}

// BotState is one participant's live combat unit. The configuration is
// read-only for the battle's lifetime.
type BotState struct {
	ID       string             `json:"id"`
	PlayerID string             `json:"player_id"`
	Config   bots.Configuration `json:"config"`

	Position game.Vec3 `json:"position"`
	Rotation game.Quat `json:"rotation"`
	Velocity game.Vec3 `json:"velocity"`

	Health float64 `json:"health"`
	Energy float64 `json:"energy"`
	Heat   float64 `json:"heat"`

	Status  BotStatus      `json:"status"`
	Effects []ActiveEffect `json:"effects,omitempty"`
}

// Projectile is a live shot. Removed when TimeToLive reaches zero or on impact.
type Projectile struct {
	ID         string          `json:"id"`
	Weapon     bots.WeaponType `json:"weapon"`
	Position   game.Vec3       `json:"position"`
	Velocity   game.Vec3       `json:"velocity"`
	Damage     float64         `json:"damage"`
	OwnerID    string          `json:"owner_id"`
	TimeToLive float64         `json:"time_to_live"`
}

// PowerUp is a world pickup, removed once collected.
type PowerUp struct {
	ID       string             `json:"id"`
	Effect   game.PowerUpEffect `json:"effect"`
	Position game.Vec3          `json:"position"`
	Value    float64            `json:"value"`
	Duration float64            `json:"duration,omitempty"`
}

// PlayerResult is one player's slot in the final standings.
type PlayerResult struct {
	Outcome Outcome `json:"outcome"`
	Rank    int     `json:"rank"`
	Score   int     `json:"score"`
}

// Result is computed exactly once, on entering the finished phase.
type Result struct {
	WinnerID  string                  `json:"winner_id"`
	Duration  float64                 `json:"duration"`
	PerPlayer map[string]PlayerResult `json:"per_player"`
}

// PlayerTotals accumulates real per-player combat statistics over the battle.
type PlayerTotals struct {
	DamageDealt      float64 `json:"damage_dealt"`
	DamageTaken      float64 `json:"damage_taken"`
	ShotsFired       int     `json:"shots_fired"`
	ShotsHit         int     `json:"shots_hit"`
	Accuracy         float64 `json:"accuracy"`
	DistanceTraveled float64 `json:"distance_traveled"`
	Kills            int     `json:"kills"`
	Deaths           int     `json:"deaths"`
}

// EventType tags entries in the battle event log.
type EventType string

const (
	EventPhaseChange EventType = "phase_change"
	EventKill        EventType = "kill"
	EventPickup      EventType = "pickup"
	EventDisconnect  EventType = "disconnect"
	EventBattleEnd   EventType = "battle_end"
)

// Event is one entry in the battle log. At is elapsed battle seconds.
type Event struct {
	At       float64   `json:"at"`
	Type     EventType `json:"type"`
	PlayerID string    `json:"player_id,omitempty"`
	TargetID string    `json:"target_id,omitempty"`
	Detail   string    `json:"detail,omitempty"`
}

// Participant seeds one bot into a new battle.
type Participant struct {
	PlayerID string
	Name     string
	Bot      bots.Configuration
}

// Battle is the authoritative simulation for one match. It is owned and
// mutated exclusively by the orchestrator's goroutine; everyone else sees
// snapshots.
type Battle struct {
	ID    string
	Mode  game.Mode
	Arena arena.Arena

	phase              Phase
	countdownSeconds   float64
	countdownRemaining float64
	timeRemaining      float64
	elapsed            float64

	bots        []*BotState
	botByPlayer map[string]*BotState
	projectiles []*Projectile
	powerUps    []*PowerUp
	scores      map[string]int
	totals      map[string]*PlayerTotals
	events      []Event
	result      *Result

	nextProjectile int
	log            *zap.Logger
}

// New builds a battle in the waiting phase with one bot per participant at
// the arena's spawn points.
func New(id string, mode game.Mode, ar arena.Arena, participants []Participant, countdownSeconds float64, log *zap.Logger) *Battle {
	b := &Battle{
		ID:               id,
		Mode:             mode,
		Arena:            ar,
		phase:            PhaseWaiting,
		countdownSeconds: countdownSeconds,
		timeRemaining:    mode.Duration(),
		botByPlayer:      make(map[string]*BotState),
		scores:           make(map[string]int),
		totals:           make(map[string]*PlayerTotals),
		log:              log,
	}

	for i, p := range participants {
		cfg := p.Bot.Normalize()
		bot := &BotState{
			ID:       id + "-bot-" + p.PlayerID,
			PlayerID: p.PlayerID,
			Config:   cfg,
			Position: ar.SpawnPoint(i),
			Rotation: game.IdentityQuat(),
			Health:   cfg.Chassis.Stats.Health,
			Energy:   cfg.Chassis.Stats.EnergyCapacity,
			Status:   BotStatus{Alive: true},
		}
		b.bots = append(b.bots, bot)
		b.botByPlayer[p.PlayerID] = bot
		b.scores[p.PlayerID] = 0
		b.totals[p.PlayerID] = &PlayerTotals{}
	}

	for i, spawn := range ar.PowerUpSpawns {
		b.powerUps = append(b.powerUps, &PowerUp{
			ID:       id + "-pu-" + strconv.Itoa(i),
			Effect:   spawn.Effect,
			Position: spawn.Position,
			Value:    spawn.Value,
			Duration: spawn.Duration,
		})
	}

	return b
}

// Phase returns the current lifecycle stage.
func (b *Battle) Phase() Phase { return b.phase }

// PlayerIDs returns the participants in join order.
func (b *Battle) PlayerIDs() []string {
	ids := make([]string, 0, len(b.bots))
	for _, bot := range b.bots {
		ids = append(ids, bot.PlayerID)
	}
	return ids
}

// Result returns the final standings once finished, nil before.
func (b *Battle) Result() *Result { return b.result }

// Totals returns the accumulated per-player statistics.
func (b *Battle) Totals() map[string]*PlayerTotals { return b.totals }

// Start moves the battle into countdown. It only fires from waiting.
func (b *Battle) Start() bool {
	if b.phase != PhaseWaiting {
		b.log.Warn("start on non-waiting battle", zap.String("battle_id", b.ID), zap.String("phase", string(b.phase)))
		return false
	}
	b.setPhase(PhaseCountdown)
	b.countdownRemaining = b.countdownSeconds
	return true
}

// setPhase enforces forward-only movement through the lifecycle.
func (b *Battle) setPhase(next Phase) {
	if phaseOrder[next] <= phaseOrder[b.phase] {
		return
	}
	b.phase = next
	b.events = append(b.events, Event{At: b.elapsed, Type: EventPhaseChange, Detail: string(next)})
}
