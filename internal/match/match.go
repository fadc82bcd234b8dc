package match

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mechwars/arena-backend/internal/arena"
	"github.com/mechwars/arena-backend/internal/battle"
	"github.com/mechwars/arena-backend/internal/game"
	"github.com/mechwars/arena-backend/internal/registry"
)

var (
	ErrNoBotConfig = errors.New("bot configuration required to join matchmaking")
	ErrBadMode     = errors.New("unknown game mode")
)

// maxSkillSpread is the widest max-minus-min skill gap a group may have and
// still form a match.
const maxSkillSpread = 20

type Msg interface{ isMatchMsg() }

// Enqueue puts a player into the queue for the requested mode, removing them
// from any other mode's queue first.
type Enqueue struct {
	Player  registry.Player
	Request Request
	Reply   chan error
}

// Dequeue removes the player from every queue. Absent players are a no-op.
type Dequeue struct{ PlayerID string }

// GetStatus reports a player's queue position.
type GetStatus struct {
	PlayerID string
	Reply    chan Status
}

// GetLengths reports per-mode queue depths for the stats endpoint.
type GetLengths struct {
	Reply chan map[game.Mode]int
}

// Sweep forces a match pass outside the ticker. Tests use it to avoid
// waiting out the sweep interval.
type Sweep struct{}

type Shutdown struct{}

func (Enqueue) isMatchMsg()    {}
func (Dequeue) isMatchMsg()    {}
func (GetStatus) isMatchMsg()  {}
func (GetLengths) isMatchMsg() {}
func (Sweep) isMatchMsg()      {}
func (Shutdown) isMatchMsg()   {}

// Request is the player's original queue-join request.
type Request struct {
	GameMode game.Mode
}

// Status is a point-in-time view of one player's queue membership.
type Status struct {
	InQueue     bool      `json:"in_queue"`
	Mode        game.Mode `json:"mode,omitempty"`
	Position    int       `json:"position,omitempty"`
	QueueLength int       `json:"queue_length,omitempty"`
	Skill       int       `json:"skill,omitempty"`
}

// Starter is the orchestrator hook: hand over a formed group, get a battle.
type Starter interface {
	CreateAndStart(players []battle.Participant, mode game.Mode, ar arena.Arena) (string, bool)
}

type entry struct {
	player     registry.Player
	request    Request
	enqueuedAt time.Time
	skill      int
}

// Matchmaker owns the per-mode waiting lists. All state lives on the loop
// goroutine; callers talk through the inbox.
type Matchmaker struct {
	inbox   chan Msg
	queues  map[game.Mode][]entry
	starter Starter
	ctx     context.Context
	cancel  context.CancelFunc
	sweep   time.Duration
	log     *zap.Logger
}

func New(parent context.Context, starter Starter, sweepEvery time.Duration, log *zap.Logger) *Matchmaker {
	ctx, cancel := context.WithCancel(parent)
	m := &Matchmaker{
		inbox:   make(chan Msg, 64),
		queues:  make(map[game.Mode][]entry),
		starter: starter,
		ctx:     ctx,
		cancel:  cancel,
		sweep:   sweepEvery,
		log:     log,
	}
	go m.loop()
	return m
}

func (m *Matchmaker) Inbox() chan<- Msg { return m.inbox }

func (m *Matchmaker) loop() {
	ticker := time.NewTicker(m.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			m.shutdown()
			return

		case <-ticker.C:
			m.sweepAll()

		case msg := <-m.inbox:
			switch msg := msg.(type) {
			case Enqueue:
				msg.Reply <- m.enqueue(msg.Player, msg.Request)
			case Dequeue:
				m.removeFromAll(msg.PlayerID)
			case GetStatus:
				msg.Reply <- m.status(msg.PlayerID)
			case GetLengths:
				lengths := make(map[game.Mode]int, len(m.queues))
				for mode, q := range m.queues {
					lengths[mode] = len(q)
				}
				msg.Reply <- lengths
			case Sweep:
				m.sweepAll()
			case Shutdown:
				m.shutdown()
				return
			}
		}
	}
}

func (m *Matchmaker) enqueue(p registry.Player, req Request) error {
	if !req.GameMode.Valid() {
		return ErrBadMode
	}
	if p.Bot == nil {
		return ErrNoBotConfig
	}

	m.removeFromAll(p.ID)
	e := entry{
		player:     p,
		request:    req,
		enqueuedAt: time.Now(),
		skill:      SkillScore(p),
	}
	m.queues[req.GameMode] = append(m.queues[req.GameMode], e)
	m.log.Info("player queued",
		zap.String("player_id", p.ID),
		zap.String("mode", string(req.GameMode)),
		zap.Int("skill", e.skill))
	return nil
}

// SkillScore derives the matchmaking scalar from a player's record.
func SkillScore(p registry.Player) int {
	return int(math.Floor(p.Stats.WinRate*50 + p.Stats.AverageKDA*25 + float64(p.Level)*2))
}

func (m *Matchmaker) removeFromAll(playerID string) {
	for mode, q := range m.queues {
		kept := q[:0]
		for _, e := range q {
			if e.player.ID != playerID {
				kept = append(kept, e)
			}
		}
		m.queues[mode] = kept
	}
}

func (m *Matchmaker) status(playerID string) Status {
	for mode, q := range m.queues {
		for i, e := range q {
			if e.player.ID == playerID {
				return Status{
					InQueue:     true,
					Mode:        mode,
					Position:    i + 1,
					QueueLength: len(q),
					Skill:       e.skill,
				}
			}
		}
	}
	return Status{}
}

func (m *Matchmaker) sweepAll() {
	for _, mode := range game.AllModes {
		m.sweepMode(mode)
	}
}

func (m *Matchmaker) sweepMode(mode game.Mode) {
	required := mode.RequiredPlayers()
	for len(m.queues[mode]) >= required {
		sorted := sortEntries(m.queues[mode])
		group := sorted[:required]

		if skillSpread(group) > maxSkillSpread {
			// Group is too lopsided. Entries stay at the front of the queue
			// and get retried next sweep.
			m.queues[mode] = sorted
			return
		}

		participants := make([]battle.Participant, 0, required)
		for _, e := range group {
			participants = append(participants, battle.Participant{
				PlayerID: e.player.ID,
				Name:     e.player.Name,
				Bot:      *e.player.Bot,
			})
		}

		id, ok := m.starter.CreateAndStart(participants, mode, arena.Default())
		if !ok {
			m.log.Error("battle creation failed, requeueing group", zap.String("mode", string(mode)))
			m.queues[mode] = sorted
			return
		}
		m.log.Info("match formed",
			zap.String("battle_id", id),
			zap.String("mode", string(mode)),
			zap.Int("players", required))
		m.queues[mode] = sorted[required:]
	}
}

// sortEntries orders a queue by wait time; equal timestamps break toward the
// skill closest to the longest-waiting entry. The x1000 weight on time keeps
// skill irrelevant except at that margin.
func sortEntries(q []entry) []entry {
	out := append([]entry(nil), q...)
	if len(out) == 0 {
		return out
	}
	anchor := out[0]
	for _, e := range out[1:] {
		if e.enqueuedAt.Before(anchor.enqueuedAt) {
			anchor = e
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ka := a.enqueuedAt.UnixMilli()*1000 + int64(abs(a.skill-anchor.skill))
		kb := b.enqueuedAt.UnixMilli()*1000 + int64(abs(b.skill-anchor.skill))
		return ka < kb
	})
	return out
}

func skillSpread(group []entry) int {
	lo, hi := group[0].skill, group[0].skill
	for _, e := range group[1:] {
		if e.skill < lo {
			lo = e.skill
		}
		if e.skill > hi {
			hi = e.skill
		}
	}
	return hi - lo
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// shutdown empties every queue and stops the loop. Safe to reach repeatedly;
// after the first pass the context is already cancelled.
func (m *Matchmaker) shutdown() {
	for mode := range m.queues {
		delete(m.queues, mode)
	}
	m.cancel()
}
