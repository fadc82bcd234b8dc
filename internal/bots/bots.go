package bots

import "errors"

var ErrNoChassis = errors.New("bot configuration requires a chassis")

type ChassisType string

const (
	ChassisLight  ChassisType = "light"
	ChassisMedium ChassisType = "medium"
	ChassisHeavy  ChassisType = "heavy"
)

type WeaponType string

const (
	WeaponLaser   WeaponType = "laser"
	WeaponMissile WeaponType = "missile"
	WeaponPlasma  WeaponType = "plasma"
	WeaponRailgun WeaponType = "railgun"
)

type DefensiveType string

const (
	DefensiveShield DefensiveType = "shield"
	DefensiveArmor  DefensiveType = "armor"
	DefensiveCloak  DefensiveType = "cloak"
)

type UtilityType string

const (
	UtilityThrusters UtilityType = "thrusters"
	UtilityNanobots  UtilityType = "nanobots"
	UtilityScanner   UtilityType = "scanner"
)

// ChassisStats is the base stat block a chassis type contributes.
type ChassisStats struct {
	Health         float64 `json:"health"`
	Armor          float64 `json:"armor"`
	Speed          float64 `json:"speed"`
	EnergyCapacity float64 `json:"energy_capacity"`
	Mass           float64 `json:"mass"`
}

type WeaponStats struct {
	Damage          float64 `json:"damage"`
	EnergyCost      float64 `json:"energy_cost"`
	HeatGeneration  float64 `json:"heat_generation"`
	ProjectileSpeed float64 `json:"projectile_speed"`
	Range           float64 `json:"range"`
	FireRate        float64 `json:"fire_rate"`
}

type DefensiveStats struct {
	Strength    float64 `json:"strength"`
	EnergyDrain float64 `json:"energy_drain"`
	Duration    float64 `json:"duration"`
}

type UtilityStats struct {
	Boost      float64 `json:"boost"`
	EnergyCost float64 `json:"energy_cost"`
	Radius     float64 `json:"radius"`
}

type Chassis struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Type  ChassisType  `json:"type"`
	Stats ChassisStats `json:"stats"`
}

type Weapon struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Type  WeaponType  `json:"type"`
	Stats WeaponStats `json:"stats"`
}

type Defensive struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Type  DefensiveType  `json:"type"`
	Stats DefensiveStats `json:"stats"`
}

type Utility struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Type  UtilityType  `json:"type"`
	Stats UtilityStats `json:"stats"`
}

type Customization struct {
	PrimaryColor   string   `json:"primary_color"`
	SecondaryColor string   `json:"secondary_color"`
	Pattern        string   `json:"pattern,omitempty"`
	Decals         []string `json:"decals,omitempty"`
}

// Configuration is a player's bot loadout. The chassis is mandatory and
// singular; every other slot is an open list (capacity is advisory only).
type Configuration struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Chassis       Chassis       `json:"chassis"`
	Weapons       []Weapon      `json:"weapons,omitempty"`
	Defensives    []Defensive   `json:"defensives,omitempty"`
	Utilities     []Utility     `json:"utilities,omitempty"`
	Customization Customization `json:"customization"`
}

func (c Configuration) Validate() error {
	if c.Chassis.Type == "" {
		return ErrNoChassis
	}
	return nil
}

// PrimaryWeapon returns the first weapon slot, if any.
func (c Configuration) PrimaryWeapon() (Weapon, bool) {
	if len(c.Weapons) == 0 {
		return Weapon{}, false
	}
	return c.Weapons[0], true
}
