package game

// PlayerInput is one client input frame, forwarded verbatim by the shim.
type PlayerInput struct {
	Forward  bool `json:"forward,omitempty"`
	Backward bool `json:"backward,omitempty"`
	Left     bool `json:"left,omitempty"`
	Right    bool `json:"right,omitempty"`
	Boost    bool `json:"boost,omitempty"`

	FirePrimary   bool `json:"fire_primary,omitempty"`
	FireSecondary bool `json:"fire_secondary,omitempty"`

	AimYaw   float64 `json:"aim_yaw,omitempty"`
	AimPitch float64 `json:"aim_pitch,omitempty"`

	// ClientTime is the sender's timestamp in unix millis. The simulation
	// ignores it; it exists for client-side latency display.
	ClientTime int64 `json:"client_time,omitempty"`
}

// PowerUpEffect enumerates what a world pickup grants.
type PowerUpEffect string

const (
	PowerUpHealth      PowerUpEffect = "health"
	PowerUpEnergy      PowerUpEffect = "energy"
	PowerUpWeaponBoost PowerUpEffect = "weapon_boost"
	PowerUpShieldBoost PowerUpEffect = "shield_boost"
)
