package bots

// Stat tables for each component type. Anything a client omits falls back to
// these, so the simulation always has concrete numbers to integrate with.

var chassisDefaults = map[ChassisType]ChassisStats{
	ChassisLight:  {Health: 80, Armor: 10, Speed: 14, EnergyCapacity: 90, Mass: 40},
	ChassisMedium: {Health: 100, Armor: 20, Speed: 10, EnergyCapacity: 100, Mass: 60},
	ChassisHeavy:  {Health: 140, Armor: 35, Speed: 6, EnergyCapacity: 120, Mass: 90},
}

var weaponDefaults = map[WeaponType]WeaponStats{
	WeaponLaser:   {Damage: 12, EnergyCost: 15, HeatGeneration: 10, ProjectileSpeed: 40, Range: 60, FireRate: 4},
	WeaponMissile: {Damage: 30, EnergyCost: 25, HeatGeneration: 20, ProjectileSpeed: 18, Range: 90, FireRate: 1},
	WeaponPlasma:  {Damage: 20, EnergyCost: 20, HeatGeneration: 15, ProjectileSpeed: 25, Range: 50, FireRate: 2},
	WeaponRailgun: {Damage: 45, EnergyCost: 35, HeatGeneration: 30, ProjectileSpeed: 80, Range: 120, FireRate: 0.5},
}

func DefaultChassisStats(t ChassisType) ChassisStats {
	if s, ok := chassisDefaults[t]; ok {
		return s
	}
	return chassisDefaults[ChassisMedium]
}

func DefaultWeaponStats(t WeaponType) WeaponStats {
	if s, ok := weaponDefaults[t]; ok {
		return s
	}
	return weaponDefaults[WeaponLaser]
}

// Normalize fills missing stat fields from the default tables. Wire input may
// carry bare component types or partial stat blocks; a zero field means unset
// and takes the table value, so the simulation never divides by a zero
// projectile speed or integrates a zero-capacity chassis.
func (c Configuration) Normalize() Configuration {
	c.Chassis.Stats = fillChassisStats(c.Chassis.Stats, DefaultChassisStats(c.Chassis.Type))
	weapons := make([]Weapon, len(c.Weapons))
	copy(weapons, c.Weapons)
	for i, w := range weapons {
		weapons[i].Stats = fillWeaponStats(w.Stats, DefaultWeaponStats(w.Type))
	}
	c.Weapons = weapons
	return c
}

func fillChassisStats(s, d ChassisStats) ChassisStats {
	if s.Health == 0 {
		s.Health = d.Health
	}
	if s.Armor == 0 {
		s.Armor = d.Armor
	}
	if s.Speed == 0 {
		s.Speed = d.Speed
	}
	if s.EnergyCapacity == 0 {
		s.EnergyCapacity = d.EnergyCapacity
	}
	if s.Mass == 0 {
		s.Mass = d.Mass
	}
	return s
}

func fillWeaponStats(s, d WeaponStats) WeaponStats {
	if s.Damage == 0 {
		s.Damage = d.Damage
	}
	if s.EnergyCost == 0 {
		s.EnergyCost = d.EnergyCost
	}
	if s.HeatGeneration == 0 {
		s.HeatGeneration = d.HeatGeneration
	}
	if s.ProjectileSpeed == 0 {
		s.ProjectileSpeed = d.ProjectileSpeed
	}
	if s.Range == 0 {
		s.Range = d.Range
	}
	if s.FireRate == 0 {
		s.FireRate = d.FireRate
	}
	return s
}

// DefaultConfiguration is the stock loadout: medium chassis, single laser.
func DefaultConfiguration(id, name string) Configuration {
	return Configuration{
		ID:      id,
		Name:    name,
		Chassis: Chassis{ID: id + "-chassis", Name: "Standard Frame", Type: ChassisMedium, Stats: DefaultChassisStats(ChassisMedium)},
		Weapons: []Weapon{
			{ID: id + "-laser", Name: "Pulse Laser", Type: WeaponLaser, Stats: DefaultWeaponStats(WeaponLaser)},
		},
		Customization: Customization{PrimaryColor: "#4a90d9", SecondaryColor: "#2c3e50"},
	}
}
