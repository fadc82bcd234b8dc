package match

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mechwars/arena-backend/internal/arena"
	"github.com/mechwars/arena-backend/internal/battle"
	"github.com/mechwars/arena-backend/internal/bots"
	"github.com/mechwars/arena-backend/internal/game"
	"github.com/mechwars/arena-backend/internal/registry"
)

// fakeStarter records formed matches on a channel so tests can wait for them.
type fakeStarter struct {
	calls chan []battle.Participant
}

func newFakeStarter() *fakeStarter {
	return &fakeStarter{calls: make(chan []battle.Participant, 4)}
}

func (f *fakeStarter) CreateAndStart(players []battle.Participant, mode game.Mode, ar arena.Arena) (string, bool) {
	f.calls <- players
	return "battle-fake", true
}

func testPlayer(id string, level int, winRate, kda float64) registry.Player {
	cfg := bots.DefaultConfiguration(id+"-bot", "rig")
	return registry.Player{
		ID:    id,
		Name:  id,
		Level: level,
		Bot:   &cfg,
		Stats: registry.Stats{WinRate: winRate, AverageKDA: kda},
	}
}

func newTestMatchmaker(t *testing.T, starter Starter) *Matchmaker {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	// long sweep interval: tests drive sweeps explicitly via the Sweep message
	return New(ctx, starter, time.Hour, zap.NewNop())
}

func enqueue(t *testing.T, m *Matchmaker, p registry.Player, mode game.Mode) error {
	t.Helper()
	reply := make(chan error, 1)
	m.Inbox() <- Enqueue{Player: p, Request: Request{GameMode: mode}, Reply: reply}
	select {
	case err := <-reply:
		return err
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for enqueue reply")
		return nil
	}
}

func status(t *testing.T, m *Matchmaker, playerID string) Status {
	t.Helper()
	reply := make(chan Status, 1)
	m.Inbox() <- GetStatus{PlayerID: playerID, Reply: reply}
	select {
	case s := <-reply:
		return s
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for status reply")
		return Status{}
	}
}

func TestSkillScore(t *testing.T) {
	cases := []struct {
		name string
		p    registry.Player
		want int
	}{
		{name: "fresh player", p: testPlayer("a", 1, 0, 0), want: 2},
		{name: "veteran", p: testPlayer("b", 10, 1.0, 2.0), want: 120},
		{name: "fractional floors down", p: testPlayer("c", 1, 0.5, 0.5), want: 39}, // 25 + 12.5 + 2
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, SkillScore(tc.p))
		})
	}
}

func TestSortEntries_TimeFirstSkillOnTies(t *testing.T) {
	now := time.Now()
	q := []entry{
		{player: registry.Player{ID: "late"}, enqueuedAt: now.Add(time.Second), skill: 10},
		{player: registry.Player{ID: "anchor"}, enqueuedAt: now, skill: 10},
		{player: registry.Player{ID: "early-near"}, enqueuedAt: now, skill: 12},
		{player: registry.Player{ID: "early-far"}, enqueuedAt: now, skill: 50},
	}

	sorted := sortEntries(q)

	require.Equal(t, "anchor", sorted[0].player.ID)
	require.Equal(t, "early-near", sorted[1].player.ID)
	require.Equal(t, "early-far", sorted[2].player.ID)
	require.Equal(t, "late", sorted[3].player.ID)
}

func TestSkillSpread(t *testing.T) {
	group := []entry{{skill: 30}, {skill: 45}, {skill: 38}}
	require.Equal(t, 15, skillSpread(group))
}

func TestMatchmaker_FormsMatchForCompatiblePlayers(t *testing.T) {
	starter := newFakeStarter()
	m := newTestMatchmaker(t, starter)

	require.NoError(t, enqueue(t, m, testPlayer("p1", 1, 0, 0), game.ModeQuickMatch))
	require.NoError(t, enqueue(t, m, testPlayer("p2", 2, 0.1, 0.2), game.ModeQuickMatch))

	m.Inbox() <- Sweep{}

	select {
	case players := <-starter.calls:
		require.Len(t, players, 2)
	case <-time.After(time.Second):
		t.Fatalf("expected a match to form")
	}

	require.False(t, status(t, m, "p1").InQueue)
	require.False(t, status(t, m, "p2").InQueue)
}

func TestMatchmaker_SkillGapBlocksMatch(t *testing.T) {
	starter := newFakeStarter()
	m := newTestMatchmaker(t, starter)

	// skill 2 vs skill 120: spread is way past the 20-point gate
	require.NoError(t, enqueue(t, m, testPlayer("rookie", 1, 0, 0), game.ModeRanked))
	require.NoError(t, enqueue(t, m, testPlayer("ace", 10, 1.0, 2.0), game.ModeRanked))

	m.Inbox() <- Sweep{}

	select {
	case <-starter.calls:
		t.Fatalf("lopsided group must not match")
	case <-time.After(100 * time.Millisecond):
	}

	// both stay queued for the next sweep
	require.True(t, status(t, m, "rookie").InQueue)
	require.True(t, status(t, m, "ace").InQueue)
}

func TestMatchmaker_RequiresFourForFreeForAll(t *testing.T) {
	starter := newFakeStarter()
	m := newTestMatchmaker(t, starter)

	for _, id := range []string{"p1", "p2", "p3"} {
		require.NoError(t, enqueue(t, m, testPlayer(id, 1, 0, 0), game.ModeFreeForAll))
	}
	m.Inbox() <- Sweep{}

	select {
	case <-starter.calls:
		t.Fatalf("free-for-all needs four players")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, enqueue(t, m, testPlayer("p4", 1, 0, 0), game.ModeFreeForAll))
	m.Inbox() <- Sweep{}

	select {
	case players := <-starter.calls:
		require.Len(t, players, 4)
	case <-time.After(time.Second):
		t.Fatalf("expected a four-player match")
	}
}

func TestMatchmaker_EnqueueWithoutBotRejected(t *testing.T) {
	m := newTestMatchmaker(t, newFakeStarter())

	p := testPlayer("nobot", 1, 0, 0)
	p.Bot = nil

	err := enqueue(t, m, p, game.ModeQuickMatch)
	require.ErrorIs(t, err, ErrNoBotConfig)
}

func TestMatchmaker_EnqueueUnknownModeRejected(t *testing.T) {
	m := newTestMatchmaker(t, newFakeStarter())
	err := enqueue(t, m, testPlayer("p1", 1, 0, 0), game.Mode("speedball"))
	require.ErrorIs(t, err, ErrBadMode)
}

func TestMatchmaker_SingleQueueMembership(t *testing.T) {
	m := newTestMatchmaker(t, newFakeStarter())

	p := testPlayer("p1", 1, 0, 0)
	require.NoError(t, enqueue(t, m, p, game.ModeQuickMatch))
	require.NoError(t, enqueue(t, m, p, game.ModeRanked))

	s := status(t, m, "p1")
	require.True(t, s.InQueue)
	require.Equal(t, game.ModeRanked, s.Mode)
	require.Equal(t, 1, s.QueueLength, "player must not linger in the first queue")
}

func TestMatchmaker_DequeueAbsentIsNoop(t *testing.T) {
	m := newTestMatchmaker(t, newFakeStarter())
	m.Inbox() <- Dequeue{PlayerID: "ghost"}

	require.False(t, status(t, m, "ghost").InQueue)
}
