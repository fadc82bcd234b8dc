package battle

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/mechwars/arena-backend/internal/game"
)

// HandleInput applies one input frame from a player. Ignored unless the
// battle is active and the player's bot is alive.
func (b *Battle) HandleInput(playerID string, in game.PlayerInput) {
	if b.phase != PhaseActive {
		return
	}
	bot, ok := b.botByPlayer[playerID]
	if !ok {
		b.log.Warn("input from non-participant", zap.String("battle_id", b.ID), zap.String("player_id", playerID))
		return
	}
	if !bot.Status.Alive {
		return
	}

	// Movement impulses are flat per call, not scaled by elapsed time; top
	// speed is set by input rate against the per-tick friction decay.
	speed := bot.Config.Chassis.Stats.Speed
	impulse := speed * inputImpulse
	if in.Forward {
		bot.Velocity.Z += impulse
	}
	if in.Backward {
		bot.Velocity.Z -= impulse
	}
	if in.Left {
		bot.Velocity.X -= impulse
	}
	if in.Right {
		bot.Velocity.X += impulse
	}
	bot.Status.Boosting = in.Boost

	if in.FirePrimary {
		b.firePrimary(bot)
	}
}

func (b *Battle) firePrimary(bot *BotState) {
	weapon, ok := bot.Config.PrimaryWeapon()
	if !ok {
		return
	}
	stats := weapon.Stats
	if bot.Energy < stats.EnergyCost {
		return
	}
	if bot.Heat > fireHeatCeiling {
		return
	}

	bot.Energy -= stats.EnergyCost
	heatGen := stats.HeatGeneration
	if heatGen == 0 {
		heatGen = defaultHeatGen
	}
	bot.Heat += heatGen

	b.nextProjectile++
	b.projectiles = append(b.projectiles, &Projectile{
		ID:         b.ID + "-proj-" + strconv.Itoa(b.nextProjectile),
		Weapon:     weapon.Type,
		Position:   bot.Position,
		Velocity:   game.Vec3{Z: stats.ProjectileSpeed},
		Damage:     stats.Damage,
		OwnerID:    bot.PlayerID,
		TimeToLive: stats.Range / stats.ProjectileSpeed,
	})
	b.totals[bot.PlayerID].ShotsFired++
}

// HandleDisconnect marks the player's bot dead and lets the normal win check
// settle the battle.
func (b *Battle) HandleDisconnect(playerID string) {
	bot, ok := b.botByPlayer[playerID]
	if !ok {
		return
	}
	if !bot.Status.Alive {
		return
	}
	bot.Status.Alive = false
	b.events = append(b.events, Event{At: b.elapsed, Type: EventDisconnect, PlayerID: playerID})
	b.log.Info("participant disconnected", zap.String("battle_id", b.ID), zap.String("player_id", playerID))
}
