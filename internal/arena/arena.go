package arena

import "github.com/mechwars/arena-backend/internal/game"

// Arena describes the static world a battle runs in: bounds, one spawn point
// per participant slot, and the power-up placements seeded at battle start.
type Arena struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Width         float64        `json:"width"`
	Height        float64        `json:"height"`
	Depth         float64        `json:"depth"`
	SpawnPoints   []game.Vec3    `json:"spawn_points"`
	PowerUpSpawns []PowerUpSpawn `json:"power_up_spawns,omitempty"`
}

// PowerUpSpawn places one pickup in the world at battle start.
type PowerUpSpawn struct {
	Effect   game.PowerUpEffect `json:"effect"`
	Position game.Vec3          `json:"position"`
	Value    float64            `json:"value"`
	Duration float64            `json:"duration,omitempty"`
}

// SpawnPoint returns the spawn for participant slot i, wrapping when a mode
// seats more players than the arena defines points for.
func (a Arena) SpawnPoint(i int) game.Vec3 {
	if len(a.SpawnPoints) == 0 {
		return game.Vec3{}
	}
	return a.SpawnPoints[i%len(a.SpawnPoints)]
}

// Default returns the stock arena. Pool selection is a future concern; every
// match today runs here.
func Default() Arena {
	return Arena{
		ID:     "arena-default",
		Name:   "Scrapyard",
		Width:  200,
		Height: 60,
		Depth:  200,
		SpawnPoints: []game.Vec3{
			{X: -80, Y: 0, Z: -80},
			{X: 80, Y: 0, Z: 80},
			{X: -80, Y: 0, Z: 80},
			{X: 80, Y: 0, Z: -80},
			{X: 0, Y: 0, Z: -90},
			{X: 0, Y: 0, Z: 90},
			{X: -90, Y: 0, Z: 0},
			{X: 90, Y: 0, Z: 0},
		},
		PowerUpSpawns: []PowerUpSpawn{
			{Effect: game.PowerUpHealth, Position: game.Vec3{X: 0, Y: 0, Z: 0}, Value: 40},
			{Effect: game.PowerUpEnergy, Position: game.Vec3{X: 40, Y: 0, Z: -40}, Value: 50},
			{Effect: game.PowerUpEnergy, Position: game.Vec3{X: -40, Y: 0, Z: 40}, Value: 50},
		},
	}
}
