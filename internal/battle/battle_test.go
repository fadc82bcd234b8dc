package battle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mechwars/arena-backend/internal/arena"
	"github.com/mechwars/arena-backend/internal/bots"
	"github.com/mechwars/arena-backend/internal/game"
)

func twoPlayerBattle(t *testing.T, mode game.Mode, countdown float64) *Battle {
	t.Helper()
	parts := []Participant{
		{PlayerID: "p1", Name: "One", Bot: bots.DefaultConfiguration("b1", "Alpha")},
		{PlayerID: "p2", Name: "Two", Bot: bots.DefaultConfiguration("b2", "Bravo")},
	}
	return New("battle-test", mode, arena.Default(), parts, countdown, zap.NewNop())
}

// activate drives a zero-countdown battle into the active phase.
func activate(t *testing.T, b *Battle) {
	t.Helper()
	require.True(t, b.Start())
	b.Advance(0)
	require.Equal(t, PhaseActive, b.Phase())
}

func TestNew_InitialState(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 3)
	s := b.Snapshot()

	require.Equal(t, PhaseWaiting, s.Phase)
	require.Equal(t, 180.0, s.TimeRemaining)
	require.Len(t, s.Bots, 2)

	ar := arena.Default()
	for i, bot := range s.Bots {
		assert.Equal(t, ar.SpawnPoint(i), bot.Position)
		assert.Equal(t, bot.Config.Chassis.Stats.Health, bot.Health)
		assert.Equal(t, bot.Config.Chassis.Stats.EnergyCapacity, bot.Energy)
		assert.True(t, bot.Status.Alive)
		assert.Zero(t, bot.Heat)
	}
	assert.Equal(t, len(ar.PowerUpSpawns), len(s.PowerUps))
}

func TestStart_CountdownDelaysActivation(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 3)
	require.True(t, b.Start())
	require.Equal(t, PhaseCountdown, b.Phase())

	b.Advance(1.5)
	require.Equal(t, PhaseCountdown, b.Phase())

	b.Advance(1.6)
	require.Equal(t, PhaseActive, b.Phase())

	// Start only fires from waiting.
	require.False(t, b.Start())
}

func TestPhase_NeverMovesBackward(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 0)
	activate(t, b)

	b.End()
	require.Equal(t, PhaseFinished, b.Phase())

	require.False(t, b.Start())
	b.Advance(1)
	require.Equal(t, PhaseFinished, b.Phase())
}

func TestEnd_DuringCountdown_CancelsActivation(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 3)
	require.True(t, b.Start())
	b.End()

	// The pending countdown must not flip a torn-down battle back to active.
	b.Advance(5)
	require.Equal(t, PhaseFinished, b.Phase())
}

func TestFirePrimary_SpendsEnergyAndSpawnsProjectile(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 0)
	activate(t, b)

	bot := b.botByPlayer["p1"]
	bot.Energy = 100
	bot.Heat = 0
	weapon := bot.Config.Weapons[0]
	weapon.Stats.EnergyCost = 15
	weapon.Stats.HeatGeneration = 10
	bot.Config.Weapons[0] = weapon

	b.HandleInput("p1", game.PlayerInput{FirePrimary: true})

	require.Equal(t, 85.0, bot.Energy)
	require.Equal(t, 10.0, bot.Heat)
	require.Len(t, b.projectiles, 1)

	p := b.projectiles[0]
	assert.Equal(t, "p1", p.OwnerID)
	assert.Equal(t, weapon.Stats.Damage, p.Damage)
	assert.Equal(t, weapon.Stats.Range/weapon.Stats.ProjectileSpeed, p.TimeToLive)
	assert.Equal(t, weapon.Stats.ProjectileSpeed, p.Velocity.Z)
	assert.Equal(t, 1, b.totals["p1"].ShotsFired)
}

func TestFirePrimary_InsufficientEnergy(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 0)
	activate(t, b)

	bot := b.botByPlayer["p1"]
	bot.Energy = 5
	bot.Heat = 20

	b.HandleInput("p1", game.PlayerInput{FirePrimary: true})

	require.Empty(t, b.projectiles)
	require.Equal(t, 5.0, bot.Energy)
	require.Equal(t, 20.0, bot.Heat)
}

func TestFirePrimary_BlockedWhenTooHot(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 0)
	activate(t, b)

	bot := b.botByPlayer["p1"]
	bot.Heat = 95

	b.HandleInput("p1", game.PlayerInput{FirePrimary: true})
	require.Empty(t, b.projectiles)
}

func TestFirePrimary_PartialWeaponStatsGetDefaults(t *testing.T) {
	// A wire config may carry a weapon with only some stats set; the missing
	// fields must come from the defaults table or ttl becomes range/0.
	parts := []Participant{
		{PlayerID: "p1", Name: "One", Bot: bots.Configuration{
			Chassis: bots.Chassis{Type: bots.ChassisMedium},
			Weapons: []bots.Weapon{{Type: bots.WeaponLaser, Stats: bots.WeaponStats{Damage: 999}}},
		}},
		{PlayerID: "p2", Name: "Two", Bot: bots.DefaultConfiguration("b2", "Bravo")},
	}
	b := New("battle-test", game.ModeQuickMatch, arena.Default(), parts, 0, zap.NewNop())
	activate(t, b)

	b.HandleInput("p1", game.PlayerInput{FirePrimary: true})

	require.Len(t, b.projectiles, 1)
	p := b.projectiles[0]
	def := bots.DefaultWeaponStats(bots.WeaponLaser)
	assert.Equal(t, 999.0, p.Damage)
	assert.Equal(t, def.ProjectileSpeed, p.Velocity.Z)
	assert.InDelta(t, def.Range/def.ProjectileSpeed, p.TimeToLive, 1e-9)
}

func TestHandleInput_IgnoredBeforeActive(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 3)
	b.HandleInput("p1", game.PlayerInput{Forward: true, FirePrimary: true})
	require.Empty(t, b.projectiles)
	require.Equal(t, game.Vec3{}, b.botByPlayer["p1"].Velocity)
}

func TestMovement_ImpulsePerCall(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 0)
	activate(t, b)

	bot := b.botByPlayer["p1"]
	speed := bot.Config.Chassis.Stats.Speed

	b.HandleInput("p1", game.PlayerInput{Forward: true})
	b.HandleInput("p1", game.PlayerInput{Forward: true})
	require.InDelta(t, 2*speed*0.1, bot.Velocity.Z, 1e-9)

	b.Advance(1)
	// friction is a flat multiplier per tick
	require.InDelta(t, 2*speed*0.1*0.95, bot.Velocity.Z, 1e-9)
}

func TestProjectileHit_ArmorReducesDamageAndKillScores(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 0)
	activate(t, b)

	target := b.botByPlayer["p2"]
	target.Health = 10
	armor := target.Config.Chassis.Stats.Armor

	b.projectiles = append(b.projectiles, &Projectile{
		ID:         "proj-1",
		Weapon:     bots.WeaponLaser,
		Position:   target.Position,
		Damage:     20,
		OwnerID:    "p1",
		TimeToLive: 1,
	})

	b.Advance(0.001)

	expected := 20 * (1 - armor*0.01)
	require.False(t, target.Status.Alive)
	require.Equal(t, 0.0, target.Health)
	require.Equal(t, killScore, b.scores["p1"])
	require.Empty(t, b.projectiles, "consumed projectile must be removed this tick")
	assert.InDelta(t, expected, b.totals["p1"].DamageDealt, 1e-9)
	assert.InDelta(t, expected, b.totals["p2"].DamageTaken, 1e-9)
	assert.Equal(t, 1, b.totals["p1"].Kills)
	assert.Equal(t, 1, b.totals["p2"].Deaths)
}

func TestProjectile_NeverHitsOwner(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 0)
	activate(t, b)

	owner := b.botByPlayer["p1"]
	b.projectiles = append(b.projectiles, &Projectile{
		ID:         "proj-1",
		Position:   owner.Position,
		Damage:     50,
		OwnerID:    "p1",
		TimeToLive: 1,
	})

	b.Advance(0.001)
	require.Equal(t, owner.Config.Chassis.Stats.Health, owner.Health)
}

func TestElimination_EndsBattleWithinOneTick(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 0)
	activate(t, b)

	bot := b.botByPlayer["p2"]
	bot.Health = 0
	bot.Status.Alive = false

	b.Advance(0.016)
	require.Equal(t, PhaseFinished, b.Phase())

	res := b.Result()
	require.NotNil(t, res)
	require.Equal(t, "p1", res.WinnerID)
}

func TestTimeout_EndsBattleAfterModeDuration(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 0)
	activate(t, b)

	b.Advance(60)
	b.Advance(60)
	require.Equal(t, PhaseActive, b.Phase())
	b.Advance(60)

	require.Equal(t, PhaseFinished, b.Phase())
	s := b.Snapshot()
	require.LessOrEqual(t, s.TimeRemaining, 0.0)
	// timeout, not elimination: everyone is still standing
	for _, bot := range s.Bots {
		require.True(t, bot.Status.Alive)
	}
	// nobody scored, so the standings are a draw for all
	for _, pr := range s.Result.PerPlayer {
		require.Equal(t, OutcomeDraw, pr.Outcome)
	}
}

func TestResults_PerPlayerOutcomes(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 0)
	activate(t, b)

	b.scores["p1"] = killScore
	b.End()

	res := b.Result()
	require.NotNil(t, res)
	require.Equal(t, "p1", res.WinnerID)
	require.Equal(t, OutcomeVictory, res.PerPlayer["p1"].Outcome)
	require.Equal(t, 1, res.PerPlayer["p1"].Rank)
	require.Equal(t, OutcomeDefeat, res.PerPlayer["p2"].Outcome)
	require.Equal(t, 2, res.PerPlayer["p2"].Rank)
}

func TestResultDuration_IncludesCountdown(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 2)
	require.True(t, b.Start())
	b.Advance(2)
	require.Equal(t, PhaseActive, b.Phase())

	b.HandleDisconnect("p2")
	b.Advance(0.5)

	res := b.Result()
	require.NotNil(t, res)
	require.InDelta(t, 2.5, res.Duration, 1e-9, "duration is wall time since start, countdown included")
}

func TestBounds_HoldAcrossTickSequence(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 0)
	activate(t, b)

	for i := 0; i < 200 && b.Phase() == PhaseActive; i++ {
		b.HandleInput("p1", game.PlayerInput{Forward: true, FirePrimary: true})
		b.HandleInput("p2", game.PlayerInput{Backward: true, FirePrimary: true})
		b.Advance(0.05)

		for _, bot := range b.bots {
			stats := bot.Config.Chassis.Stats
			require.GreaterOrEqual(t, bot.Health, 0.0)
			require.LessOrEqual(t, bot.Health, stats.Health)
			require.GreaterOrEqual(t, bot.Energy, 0.0)
			require.LessOrEqual(t, bot.Energy, stats.EnergyCapacity)
			require.GreaterOrEqual(t, bot.Heat, 0.0)
			require.Equal(t, bot.Heat > 80, bot.Status.Overheated)
		}
	}
}

func TestPowerUp_PickupOncePerTick(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 0)
	activate(t, b)

	bot := b.botByPlayer["p1"]
	bot.Health = 50
	b.powerUps = []*PowerUp{{
		ID:       "pu-1",
		Effect:   game.PowerUpHealth,
		Position: bot.Position,
		Value:    100,
	}}

	b.Advance(0.016)

	require.Empty(t, b.powerUps, "picked-up power-up must not survive the tick")
	require.Equal(t, bot.Config.Chassis.Stats.Health, bot.Health, "heal is capped at chassis capacity")
}

func TestActiveEffects_ExpireByDuration(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 0)
	activate(t, b)

	bot := b.botByPlayer["p1"]
	bot.Effects = append(bot.Effects, ActiveEffect{Type: "weapon_boost", Duration: 1.0, Intensity: 1.5, Source: "pu-x"})

	b.Advance(0.6)
	require.Len(t, bot.Effects, 1)
	require.InDelta(t, 0.4, bot.Effects[0].Duration, 1e-9)

	b.Advance(0.6)
	require.Empty(t, bot.Effects)
}

func TestDisconnect_MarksBotDead(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 0)
	activate(t, b)

	b.HandleDisconnect("p2")
	require.False(t, b.botByPlayer["p2"].Status.Alive)

	b.Advance(0.016)
	require.Equal(t, PhaseFinished, b.Phase())
	require.Equal(t, "p1", b.Result().WinnerID)
}

func TestSnapshot_IsIsolatedCopy(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 0)
	activate(t, b)

	s := b.Snapshot()
	s.Bots[0].Health = -999
	s.Scores["p1"] = 12345
	s.Arena.SpawnPoints[0] = game.Vec3{X: 1e9}
	s.Arena.PowerUpSpawns[0].Value = -1

	fresh := b.Snapshot()
	require.NotEqual(t, -999.0, fresh.Bots[0].Health)
	require.Zero(t, fresh.Scores["p1"])
	require.Equal(t, arena.Default().SpawnPoints[0], fresh.Arena.SpawnPoints[0])
	require.Equal(t, arena.Default().PowerUpSpawns[0].Value, fresh.Arena.PowerUpSpawns[0].Value)
}

func TestEventLog_RecordsKillsAndPhaseChanges(t *testing.T) {
	b := twoPlayerBattle(t, game.ModeQuickMatch, 0)
	activate(t, b)

	target := b.botByPlayer["p2"]
	target.Health = 1
	b.projectiles = append(b.projectiles, &Projectile{
		ID: "proj-1", Position: target.Position, Damage: 50, OwnerID: "p1", TimeToLive: 1,
	})
	b.Advance(0.001)

	s := b.Snapshot()
	var kinds []EventType
	for _, e := range s.Events {
		kinds = append(kinds, e.Type)
	}
	assert.Contains(t, kinds, EventPhaseChange)
	assert.Contains(t, kinds, EventKill)
	assert.Contains(t, kinds, EventBattleEnd)
}
