package battle

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/mechwars/arena-backend/internal/game"
)

// Advance moves the simulation forward by dt seconds of wall-clock time.
// During countdown it only drains the activation delay; the combat tick runs
// while active. Finished battles ignore further calls, which also makes a
// pending countdown harmless after teardown.
func (b *Battle) Advance(dt float64) {
	switch b.phase {
	case PhaseCountdown:
		b.elapsed += dt
		b.countdownRemaining -= dt
		if b.countdownRemaining <= 0 && b.phase == PhaseCountdown {
			b.setPhase(PhaseActive)
		}
	case PhaseActive:
		b.update(dt)
	}
}

func (b *Battle) update(dt float64) {
	b.elapsed += dt
	b.timeRemaining -= dt

	b.updateBots(dt)
	b.updateProjectiles(dt)
	b.updatePowerUps()

	if b.livingBots() <= 1 {
		b.finish()
		return
	}
	if b.timeRemaining <= 0 {
		b.finish()
	}
}

func (b *Battle) updateBots(dt float64) {
	for _, bot := range b.bots {
		if !bot.Status.Alive {
			continue
		}
		step := bot.Velocity.Scale(dt)
		bot.Position = bot.Position.Add(step)
		b.totals[bot.PlayerID].DistanceTraveled += step.Length()

		// Damping is applied once per tick, not per second. Effective drag
		// therefore depends on tick rate; this matches the live behavior.
		bot.Velocity = bot.Velocity.Scale(frictionFactor)

		bot.Heat = math.Max(0, bot.Heat-heatCoolPerSec*dt)
		cap := bot.Config.Chassis.Stats.EnergyCapacity
		bot.Energy = math.Min(cap, bot.Energy+energyRegenPerSec*dt)

		remaining := bot.Effects[:0]
		for _, eff := range bot.Effects {
			eff.Duration -= dt
			if eff.Duration > 0 {
				remaining = append(remaining, eff)
			}
		}
		bot.Effects = remaining

		bot.Status.Overheated = bot.Heat > overheatThreshold
	}
}

func (b *Battle) updateProjectiles(dt float64) {
	for _, p := range b.projectiles {
		p.Position = p.Position.Add(p.Velocity.Scale(dt))
		p.TimeToLive -= dt

		for _, bot := range b.bots {
			if !bot.Status.Alive || bot.PlayerID == p.OwnerID {
				continue
			}
			if p.Position.DistanceTo(bot.Position) > projectileHitDist {
				continue
			}
			b.applyHit(p, bot)
			break
		}
	}

	live := b.projectiles[:0]
	for _, p := range b.projectiles {
		if p.TimeToLive > 0 {
			live = append(live, p)
		}
	}
	b.projectiles = live
}

func (b *Battle) applyHit(p *Projectile, target *BotState) {
	armor := target.Config.Chassis.Stats.Armor
	actual := p.Damage * (1 - armor*0.01)
	target.Health -= actual
	p.TimeToLive = 0 // consumed; swept at the end of this pass

	if t, ok := b.totals[p.OwnerID]; ok {
		t.DamageDealt += actual
		t.ShotsHit++
	}
	b.totals[target.PlayerID].DamageTaken += actual

	if target.Health <= 0 {
		target.Health = 0
		target.Status.Alive = false
		b.totals[target.PlayerID].Deaths++
		b.scores[p.OwnerID] += killScore
		if t, ok := b.totals[p.OwnerID]; ok {
			t.Kills++
		}
		b.events = append(b.events, Event{At: b.elapsed, Type: EventKill, PlayerID: p.OwnerID, TargetID: target.PlayerID, Detail: string(p.Weapon)})
		b.log.Info("bot destroyed",
			zap.String("battle_id", b.ID),
			zap.String("attacker", p.OwnerID),
			zap.String("target", target.PlayerID))
	}
}

func (b *Battle) updatePowerUps() {
	remaining := b.powerUps[:0]
	for _, pu := range b.powerUps {
		collected := false
		for _, bot := range b.bots {
			if !bot.Status.Alive {
				continue
			}
			if bot.Position.DistanceTo(pu.Position) > powerUpPickupDist {
				continue
			}
			b.applyPowerUp(pu, bot)
			collected = true
			break // one pickup per power-up per tick; first bot in list order wins
		}
		if !collected {
			remaining = append(remaining, pu)
		}
	}
	b.powerUps = remaining
}

func (b *Battle) applyPowerUp(pu *PowerUp, bot *BotState) {
	stats := bot.Config.Chassis.Stats
	switch pu.Effect {
	case game.PowerUpHealth:
		bot.Health = math.Min(stats.Health, bot.Health+pu.Value)
	case game.PowerUpEnergy:
		bot.Energy = math.Min(stats.EnergyCapacity, bot.Energy+pu.Value)
	case game.PowerUpWeaponBoost, game.PowerUpShieldBoost:
		bot.Effects = append(bot.Effects, ActiveEffect{
			Type:      string(pu.Effect),
			Duration:  pu.Duration,
			Intensity: pu.Value,
			Source:    pu.ID,
		})
	}
	b.events = append(b.events, Event{At: b.elapsed, Type: EventPickup, PlayerID: bot.PlayerID, Detail: string(pu.Effect)})
}

func (b *Battle) livingBots() int {
	n := 0
	for _, bot := range b.bots {
		if bot.Status.Alive {
			n++
		}
	}
	return n
}

// End forces the battle to its terminal phase. Used by administrative
// shutdown; a no-op once finished.
func (b *Battle) End() {
	b.finish()
}

// finish computes final results exactly once.
func (b *Battle) finish() {
	if b.phase == PhaseFinished {
		return
	}
	b.setPhase(PhaseFinished)

	type standing struct {
		playerID string
		score    int
		alive    bool
	}
	standings := make([]standing, 0, len(b.bots))
	for _, bot := range b.bots {
		standings = append(standings, standing{
			playerID: bot.PlayerID,
			score:    b.scores[bot.PlayerID],
			alive:    bot.Status.Alive,
		})
	}
	// Score decides the standings; survival breaks score ties so an
	// elimination win without kill credit still ranks first.
	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].score != standings[j].score {
			return standings[i].score > standings[j].score
		}
		return standings[i].alive && !standings[j].alive
	})

	res := &Result{
		Duration:  b.elapsed,
		PerPlayer: make(map[string]PlayerResult, len(standings)),
	}
	if len(standings) > 0 {
		res.WinnerID = standings[0].playerID
	}

	topCount := 0
	if len(standings) > 0 {
		top := standings[0]
		for _, s := range standings {
			if s.score == top.score && s.alive == top.alive {
				topCount++
			}
		}
	}

	for i, s := range standings {
		outcome := OutcomeDefeat
		if i < topCount {
			if topCount > 1 {
				outcome = OutcomeDraw
			} else {
				outcome = OutcomeVictory
			}
		}
		res.PerPlayer[s.playerID] = PlayerResult{Outcome: outcome, Rank: i + 1, Score: s.score}
	}
	b.result = res

	for _, t := range b.totals {
		if t.ShotsFired > 0 {
			t.Accuracy = float64(t.ShotsHit) / float64(t.ShotsFired)
		}
	}

	b.events = append(b.events, Event{At: b.elapsed, Type: EventBattleEnd, PlayerID: res.WinnerID})
	b.log.Info("battle finished",
		zap.String("battle_id", b.ID),
		zap.String("winner", res.WinnerID),
		zap.Float64("duration_sec", res.Duration))
}
