package hub

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mechwars/arena-backend/internal/arena"
	"github.com/mechwars/arena-backend/internal/battle"
	"github.com/mechwars/arena-backend/internal/game"
	"github.com/mechwars/arena-backend/internal/registry"
)

type HubMsg interface{ isHubMsg() }

// CreateBattle registers a new simulation and maps its players. Reply gets
// the battle id, or "" on a bad request.
type CreateBattle struct {
	Participants []battle.Participant
	Mode         game.Mode
	Arena        arena.Arena
	Start        bool
	Reply        chan string
}

// StartBattle kicks a waiting battle into countdown.
type StartBattle struct {
	ID    string
	Reply chan bool
}

// GetBattleState replies with a snapshot, or nil for an unknown id.
type GetBattleState struct {
	ID    string
	Reply chan *battle.State
}

// GetPlayerBattle replies with the player's live battle id, or "".
type GetPlayerBattle struct {
	PlayerID string
	Reply    chan string
}

// RouteInput forwards an input frame to the player's battle.
type RouteInput struct {
	PlayerID string
	Input    game.PlayerInput
}

// RouteDisconnect forwards a connection loss and clears the reverse mapping.
type RouteDisconnect struct{ PlayerID string }

// Tick advances every live battle by Delta seconds and reclaims finished ones.
type Tick struct{ Delta float64 }

// Watch subscribes a client to snapshots of whatever battle the player is in.
type Watch struct {
	PlayerID string
	Outbox   chan battle.State
}

type Unwatch struct{ PlayerID string }

// GetStats replies with orchestrator-level counters.
type GetStats struct{ Reply chan Stats }

type ShutdownHub struct{}

func (CreateBattle) isHubMsg()    {}
func (StartBattle) isHubMsg()     {}
func (GetBattleState) isHubMsg()  {}
func (GetPlayerBattle) isHubMsg() {}
func (RouteInput) isHubMsg()      {}
func (RouteDisconnect) isHubMsg() {}
func (Tick) isHubMsg()            {}
func (Watch) isHubMsg()           {}
func (Unwatch) isHubMsg()         {}
func (GetStats) isHubMsg()        {}
func (ShutdownHub) isHubMsg()     {}

// Stats is the orchestrator's lifetime counter view.
type Stats struct {
	LiveBattles     int    `json:"live_battles"`
	PlayersInBattle int    `json:"players_in_battle"`
	GamesPlayed     uint64 `json:"games_played"`
}

// Recorder receives per-player outcomes when a battle is reclaimed. The
// session registry implements it.
type Recorder interface {
	RecordBattleOutcome(playerID string, o registry.Outcome) bool
}

// Hub owns every live battle and the player -> battle reverse index, all
// confined to the loop goroutine.
type Hub struct {
	inbox         chan HubMsg
	battles       map[string]*battle.Battle
	playerBattles map[string]string
	watchers      map[string]chan battle.State
	gamesPlayed   uint64
	recorder      Recorder
	countdownSecs float64
	ctx           context.Context
	cancel        context.CancelFunc
	log           *zap.Logger
}

func NewHub(parent context.Context, recorder Recorder, countdownSeconds float64, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:         make(chan HubMsg, 256),
		battles:       make(map[string]*battle.Battle),
		playerBattles: make(map[string]string),
		watchers:      make(map[string]chan battle.State),
		recorder:      recorder,
		countdownSecs: countdownSeconds,
		ctx:           ctx,
		cancel:        cancel,
		log:           log,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// CreateAndStart is the matchmaker's entry point (match.Starter).
func (h *Hub) CreateAndStart(players []battle.Participant, mode game.Mode, ar arena.Arena) (string, bool) {
	reply := make(chan string, 1)
	h.inbox <- CreateBattle{Participants: players, Mode: mode, Arena: ar, Start: true, Reply: reply}
	id := <-reply
	return id, id != ""
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateBattle:
				msg.Reply <- h.createBattle(msg)

			case StartBattle:
				b, ok := h.battles[msg.ID]
				if !ok {
					h.log.Warn("start for unknown battle", zap.String("battle_id", msg.ID))
					msg.Reply <- false
					break
				}
				msg.Reply <- b.Start()

			case GetBattleState:
				b, ok := h.battles[msg.ID]
				if !ok {
					h.log.Warn("state request for unknown battle", zap.String("battle_id", msg.ID))
					msg.Reply <- nil
					break
				}
				s := b.Snapshot()
				msg.Reply <- &s

			case GetPlayerBattle:
				msg.Reply <- h.playerBattles[msg.PlayerID]

			case RouteInput:
				id, ok := h.playerBattles[msg.PlayerID]
				if !ok {
					h.log.Warn("input from player with no battle", zap.String("player_id", msg.PlayerID))
					break
				}
				h.battles[id].HandleInput(msg.PlayerID, msg.Input)

			case RouteDisconnect:
				if id, ok := h.playerBattles[msg.PlayerID]; ok {
					h.battles[id].HandleDisconnect(msg.PlayerID)
				}
				delete(h.playerBattles, msg.PlayerID)
				h.dropWatcher(msg.PlayerID)

			case Tick:
				h.tick(msg.Delta)

			case Watch:
				h.watchers[msg.PlayerID] = msg.Outbox

			case Unwatch:
				h.dropWatcher(msg.PlayerID)

			case GetStats:
				msg.Reply <- Stats{
					LiveBattles:     len(h.battles),
					PlayersInBattle: len(h.playerBattles),
					GamesPlayed:     h.gamesPlayed,
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) createBattle(msg CreateBattle) string {
	if len(msg.Participants) == 0 || !msg.Mode.Valid() {
		h.log.Warn("rejecting battle creation",
			zap.String("mode", string(msg.Mode)),
			zap.Int("players", len(msg.Participants)))
		return ""
	}
	id := uuid.NewString()
	b := battle.New(id, msg.Mode, msg.Arena, msg.Participants, h.countdownSecs, h.log)
	h.battles[id] = b
	for _, p := range msg.Participants {
		// Overwrites any stale mapping; the queue guarantees a player is
		// never legitimately in two battles.
		h.playerBattles[p.PlayerID] = id
	}
	if msg.Start {
		b.Start()
	}
	h.log.Info("battle created",
		zap.String("battle_id", id),
		zap.String("mode", string(msg.Mode)),
		zap.Int("players", len(msg.Participants)))
	return id
}

func (h *Hub) tick(dt float64) {
	for _, b := range h.battles {
		b.Advance(dt)
	}
	h.broadcast()
	h.reclaimFinished()
}

// broadcast pushes a snapshot of each battle to the watchers of its players.
func (h *Hub) broadcast() {
	for _, b := range h.battles {
		var snap *battle.State
		for _, playerID := range b.PlayerIDs() {
			out, ok := h.watchers[playerID]
			if !ok {
				continue
			}
			if snap == nil {
				s := b.Snapshot()
				snap = &s
			}
			select {
			case out <- *snap:
			default:
				// Client is slow/full - drop them.
				h.dropWatcher(playerID)
			}
		}
	}
}

func (h *Hub) reclaimFinished() {
	for id, b := range h.battles {
		if b.Phase() != battle.PhaseFinished {
			continue
		}
		h.recordOutcomes(b)
		for _, playerID := range b.PlayerIDs() {
			if h.playerBattles[playerID] == id {
				delete(h.playerBattles, playerID)
			}
		}
		delete(h.battles, id)
		h.gamesPlayed++
		h.log.Info("battle reclaimed",
			zap.String("battle_id", id),
			zap.Uint64("games_played", h.gamesPlayed))
	}
}

// dropWatcher closes the outbox so the connection's writer goroutine, which
// ranges over it, exits instead of leaking.
func (h *Hub) dropWatcher(playerID string) {
	if out, ok := h.watchers[playerID]; ok {
		close(out)
		delete(h.watchers, playerID)
	}
}

func (h *Hub) recordOutcomes(b *battle.Battle) {
	if h.recorder == nil {
		return
	}
	res := b.Result()
	if res == nil {
		return
	}
	totals := b.Totals()
	for playerID, pr := range res.PerPlayer {
		t := totals[playerID]
		if t == nil {
			t = &battle.PlayerTotals{}
		}
		h.recorder.RecordBattleOutcome(playerID, registry.Outcome{
			Won:         pr.Outcome == battle.OutcomeVictory,
			Kills:       t.Kills,
			Deaths:      t.Deaths,
			DamageDealt: t.DamageDealt,
			DamageTaken: t.DamageTaken,
		})
	}
}

// shutdown force-ends and reclaims every battle, then stops the loop.
func (h *Hub) shutdown() {
	for _, b := range h.battles {
		b.End()
	}
	h.reclaimFinished()
	clear(h.playerBattles)
	for playerID := range h.watchers {
		h.dropWatcher(playerID)
	}
	h.cancel()
}
