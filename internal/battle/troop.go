package battle

// AnimState is a rendering hint derived from the battalion's combat state each
// frame. It is never read back by the simulation.
type AnimState int

const (
	AnimIdle      AnimState = iota // holding position
	AnimMoving                     // rigidly translated this frame
	AnimAttacking                  // engaged with a target
)

func (a AnimState) String() string {
	switch a {
	case AnimIdle:
		return "idle"
	case AnimMoving:
		return "moving"
	case AnimAttacking:
		return "attacking"
	default:
		return "unknown"
	}
}

// Troop is one combatant. It is owned and mutated only by its Battalion.
type Troop struct {
	pos    Vec2
	health float64

	anim    AnimState
	flipped bool // mirror horizontally when facing -x

	latched Vec2 // position as seen by other battalions this frame
}

func newTroop(pos Vec2, health float64) *Troop {
	return &Troop{pos: pos, health: health, latched: pos}
}

// Position returns the troop's world position.
func (t *Troop) Position() Vec2 { return t.pos }

// Health returns the remaining health. It may be negative after a killing blow.
func (t *Troop) Health() float64 { return t.health }

func (t *Troop) Alive() bool { return t.health > 0 }

func (t *Troop) Anim() AnimState { return t.anim }

func (t *Troop) Flipped() bool { return t.flipped }

func (t *Troop) takeDamage(amount float64) {
	t.health -= amount
}
