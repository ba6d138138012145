package battle

import (
	"fmt"
	"strings"
)

// Allegiance is the side a battalion fights for.
type Allegiance int

const (
	Attacker Allegiance = iota // advances on the fortifications
	Defender                   // holds unless it has a battalion target
)

func (a Allegiance) String() string {
	switch a {
	case Attacker:
		return "attacker"
	case Defender:
		return "defender"
	default:
		return "unknown"
	}
}

// Opponent returns the other side.
func (a Allegiance) Opponent() Allegiance {
	if a == Attacker {
		return Defender
	}
	return Attacker
}

// UnitType decides the combat constants of every troop in a battalion.
type UnitType int

const (
	Warrior UnitType = iota
	Archer

	unitTypeCount
)

func (u UnitType) String() string {
	switch u {
	case Warrior:
		return "warrior"
	case Archer:
		return "archer"
	default:
		return "unknown"
	}
}

// ParseUnitType matches a unit type name case-insensitively.
func ParseUnitType(s string) (UnitType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warrior":
		return Warrior, nil
	case "archer":
		return Archer, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownUnitType, s)
}

func (u UnitType) valid() bool { return u >= 0 && u < unitTypeCount }

// UnitStats holds the per-type design parameters.
type UnitStats struct {
	AttackRange  float64 `mapstructure:"attackRange"`  // world units, troop-to-troop
	LookoutRange float64 `mapstructure:"lookoutRange"` // world units, engagement awareness
	Speed        float64 `mapstructure:"speed"`        // world units per second
	Health       float64 `mapstructure:"health"`       // per troop at spawn
	Damage       float64 `mapstructure:"damage"`       // per successful hit
	HitChance    float64 `mapstructure:"hitChance"`    // 0-1 per swing
	Cooldown     float64 `mapstructure:"cooldown"`     // seconds between volleys
	TurnRate     float64 `mapstructure:"turnRate"`     // degrees per second
}

// Rules bundles every tunable the simulation reads.
type Rules struct {
	Units [unitTypeCount]UnitStats

	// EngageRatio is the fraction of troops that must be inside attack range
	// of the target before the battalion stops advancing.
	EngageRatio float64
	// RetargetRatio is the lookout fraction below which the handler searches
	// for a new target.
	RetargetRatio float64
	// AcquireRatio is the lookout fraction a candidate must reach before it
	// is committed as the new target.
	AcquireRatio float64
}

// DefaultRules returns the canonical parameter set.
func DefaultRules() Rules {
	var r Rules
	r.Units[Warrior] = UnitStats{
		AttackRange:  3.0,
		LookoutRange: 18.0,
		Speed:        5.0,
		Health:       30.0,
		Damage:       10.0,
		HitChance:    0.7,
		Cooldown:     0.6,
		TurnRate:     80.0,
	}
	r.Units[Archer] = UnitStats{
		AttackRange:  5.0,
		LookoutRange: 25.0,
		Speed:        4.0,
		Health:       15.0,
		Damage:       10.0,
		HitChance:    0.7,
		Cooldown:     1.0,
		TurnRate:     80.0,
	}
	r.EngageRatio = 0.4
	r.RetargetRatio = 0.4
	r.AcquireRatio = 0.4
	return r
}

// Stats returns the stat block for u. Unknown types get the warrior block.
func (r Rules) Stats(u UnitType) UnitStats {
	if !u.valid() {
		return r.Units[Warrior]
	}
	return r.Units[u]
}

// SetStats replaces the stat block for u.
func (r *Rules) SetStats(u UnitType, s UnitStats) error {
	if !u.valid() {
		return fmt.Errorf("%w: %d", ErrUnknownUnitType, int(u))
	}
	r.Units[u] = s
	return nil
}

// Rand is the random source used for hit rolls. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}
