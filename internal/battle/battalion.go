package battle

import (
	"fmt"
	"math"
)

const noWall = -1

// aimKind says what a battalion is steering and swinging at this frame.
type aimKind int

const (
	aimNone aimKind = iota
	aimBattalion
	aimWall
	aimCastle
)

// aim is the resolved objective for one frame, following the targeting
// priority: enemy battalion, nearest standing wall (attackers), castle
// (attackers), otherwise hold.
type aim struct {
	kind   aimKind
	point  Vec2
	enemy  *Battalion
	wall   *Wall
	castle *Castle
}

// Battalion is a group of troops sharing a unit type, a side and a target.
type Battalion struct {
	id    int
	side  Allegiance
	kind  UnitType
	stats UnitStats

	engageRatio float64

	troops       []*Troop
	initialCount int
	center       Vec2
	rotation     float64 // degrees
	cooldown     float64 // seconds until the next volley

	target     Ref
	wallTarget int

	latchedCenter Vec2

	// Per-frame results, kept for render hints and queries.
	engaged bool
	moved   bool
	moveDir Vec2
}

// NewBattalion builds a battalion from absolute troop positions.
func NewBattalion(id int, side Allegiance, kind UnitType, positions []Vec2, rules *Rules) (*Battalion, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("battalion %d: %w: %d", id, ErrUnknownUnitType, int(kind))
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("battalion %d: %w", id, ErrNoTroops)
	}
	stats := rules.Stats(kind)
	b := &Battalion{
		id:           id,
		side:         side,
		kind:         kind,
		stats:        stats,
		engageRatio:  rules.EngageRatio,
		troops:       make([]*Troop, 0, len(positions)),
		initialCount: len(positions),
		wallTarget:   noWall,
	}
	for _, p := range positions {
		b.troops = append(b.troops, newTroop(p, stats.Health))
	}
	b.recomputeCenter()
	b.latch()
	return b, nil
}

// --- Accessors ---

func (b *Battalion) ID() int                { return b.id }
func (b *Battalion) Allegiance() Allegiance { return b.side }
func (b *Battalion) UnitType() UnitType     { return b.kind }
func (b *Battalion) Stats() UnitStats       { return b.stats }
func (b *Battalion) Center() Vec2           { return b.center }
func (b *Battalion) Rotation() float64      { return b.rotation }
func (b *Battalion) Cooldown() float64      { return b.cooldown }
func (b *Battalion) InitialTroopCount() int { return b.initialCount }

// Engaged reports whether the last update held position because enough
// troops were inside attack range of the objective.
func (b *Battalion) Engaged() bool { return b.engaged }

// TroopCount returns the number of troops still in the battalion, including
// any killed since the last RemoveDead.
func (b *Battalion) TroopCount() int { return len(b.troops) }

// LiveTroopCount returns the number of troops with health > 0.
func (b *Battalion) LiveTroopCount() int {
	n := 0
	for _, t := range b.troops {
		if t.Alive() {
			n++
		}
	}
	return n
}

// Troops returns a copy of the troop list. Troops are read-only outside the
// battalion.
func (b *Battalion) Troops() []*Troop {
	out := make([]*Troop, len(b.troops))
	copy(out, b.troops)
	return out
}

// HealthFraction is the surviving share of the spawned troops.
func (b *Battalion) HealthFraction() float64 {
	if b.initialCount == 0 {
		return 0
	}
	return float64(b.LiveTroopCount()) / float64(b.initialCount)
}

// Target returns the weak reference to the current enemy battalion.
func (b *Battalion) Target() Ref { return b.target }

// SetTarget replaces the enemy battalion target.
func (b *Battalion) SetTarget(r Ref) { b.target = r }

// ClearTarget drops the enemy battalion target.
func (b *Battalion) ClearTarget() { b.target = Ref{} }

// LookoutRatio returns the active ratio against the current target's centre
// at lookout range, or 0 when the target no longer resolves.
func (b *Battalion) LookoutRatio() float64 {
	t, ok := b.target.Get()
	if !ok {
		return 0
	}
	return b.ActiveRatio(t.center, b.stats.LookoutRange)
}

// ActiveRatio returns the fraction of live troops strictly closer than rng
// to p. An empty battalion yields 0.
func (b *Battalion) ActiveRatio(p Vec2, rng float64) float64 {
	live, in := 0, 0
	for _, t := range b.troops {
		if !t.Alive() {
			continue
		}
		live++
		if t.pos.Dist(p) < rng {
			in++
		}
	}
	if live == 0 {
		return 0
	}
	return float64(in) / float64(live)
}

// --- Frame update ---

// Update simulates one frame: cooldown, culling, movement, attack, rotation,
// then animation hints. Empty battalions are inert. It returns how many dead
// troops were culled before moving.
func (b *Battalion) Update(dt float64, forts *Fortifications, rng Rand) int {
	if len(b.troops) == 0 {
		return 0
	}
	b.cooldown = math.Max(0, b.cooldown-dt)
	culled := b.RemoveDead()
	if len(b.troops) == 0 {
		b.engaged, b.moved = false, false
		return culled
	}

	a := b.resolveAim(forts)
	b.move(dt, a)
	b.attack(a, rng)
	b.rotate(dt, a)
	b.refreshAnim(a)
	return culled
}

// RemoveDead drops troops with health <= 0 and recomputes the centre. It
// returns how many troops were removed.
func (b *Battalion) RemoveDead() int {
	kept := b.troops[:0]
	for _, t := range b.troops {
		if t.Alive() {
			kept = append(kept, t)
		}
	}
	removed := len(b.troops) - len(kept)
	for i := len(kept); i < len(b.troops); i++ {
		b.troops[i] = nil
	}
	b.troops = kept
	b.recomputeCenter()
	return removed
}

func (b *Battalion) recomputeCenter() {
	switch len(b.troops) {
	case 0:
		// keep the last centre; the handler culls the battalion.
	case 1:
		b.center = b.troops[0].pos
	default:
		pts := make([]Vec2, len(b.troops))
		for i, t := range b.troops {
			pts[i] = t.pos
		}
		b.center = centroid(pts)
	}
}

// latch freezes the geometry other battalions read during this frame.
func (b *Battalion) latch() {
	b.latchedCenter = b.center
	for _, t := range b.troops {
		t.latched = t.pos
	}
}

func (b *Battalion) resolveAim(forts *Fortifications) aim {
	if t, ok := b.target.Get(); ok {
		return aim{kind: aimBattalion, point: t.latchedCenter, enemy: t}
	}
	if b.side != Attacker {
		return aim{}
	}
	w, ok := forts.Wall(b.wallTarget)
	if !ok {
		w, ok = forts.NearestWall(b.center)
	}
	if ok {
		b.wallTarget = w.ID
		return aim{kind: aimWall, point: w.Position, wall: w}
	}
	b.wallTarget = noWall
	if forts.CastleUp() {
		return aim{kind: aimCastle, point: forts.Castle.Position, castle: forts.Castle}
	}
	return aim{}
}

// inRange reports whether the battalion is close enough to commit to the
// objective instead of advancing.
func (b *Battalion) inRange(a aim) bool {
	switch a.kind {
	case aimBattalion:
		return b.ActiveRatio(a.point, b.stats.AttackRange) >= b.engageRatio
	case aimWall:
		return rectDist(b.center, a.wall.BoundingBox()) < b.stats.AttackRange
	case aimCastle:
		return rectDist(b.center, a.castle.BoundingBox()) < b.stats.AttackRange
	}
	return false
}

// move translates the whole formation toward the objective unless it is
// already engaged.
func (b *Battalion) move(dt float64, a aim) {
	b.moved = false
	b.engaged = b.inRange(a)
	if a.kind == aimNone || b.engaged {
		return
	}
	dir := a.point.Sub(b.center)
	dist := dir.Len()
	if dist < 1e-9 {
		return
	}
	step := b.stats.Speed * dt
	if step > dist {
		step = dist
	}
	delta := dir.Normalize().Scale(step)
	b.center = b.center.Add(delta)
	for _, t := range b.troops {
		t.pos = t.pos.Add(delta)
	}
	b.moved = true
	b.moveDir = delta
}

// attack fires one volley when the cooldown has elapsed. A volley is any pass
// in which at least one troop had something in range; the cooldown resets
// after every volley, hit or miss. A pass where nothing was in range is not a
// volley and leaves the cooldown at zero, so the battalion swings on the first
// frame it closes in.
func (b *Battalion) attack(a aim, rng Rand) {
	if b.cooldown > 0 || a.kind == aimNone {
		return
	}
	fired := false
	switch a.kind {
	case aimBattalion:
		for _, t := range b.troops {
			if !t.Alive() {
				continue
			}
			victim := a.enemy.nearestLiveTroop(t.pos)
			if victim == nil || t.pos.Dist(victim.latched) >= b.stats.AttackRange {
				continue
			}
			fired = true
			if rng.Float64() < b.stats.HitChance {
				victim.takeDamage(b.stats.Damage)
			}
		}
	case aimWall, aimCastle:
		if !b.inRange(a) {
			break
		}
		fired = true
		for _, t := range b.troops {
			if !t.Alive() || rng.Float64() >= b.stats.HitChance {
				continue
			}
			if a.wall != nil {
				a.wall.TakeDamage(b.stats.Damage)
			} else {
				a.castle.TakeDamage(b.stats.Damage)
			}
		}
	}
	if fired {
		b.cooldown = b.stats.Cooldown
	}
}

// nearestLiveTroop scans the latched positions; ties keep the first found.
func (b *Battalion) nearestLiveTroop(p Vec2) *Troop {
	var best *Troop
	bestDist := 0.0
	for _, t := range b.troops {
		if !t.Alive() {
			continue
		}
		d := p.Dist(t.latched)
		if best == nil || d < bestDist {
			best, bestDist = t, d
		}
	}
	return best
}

// rotate wheels the formation toward the objective at the capped turn rate,
// along the shortest arc and without overshoot.
func (b *Battalion) rotate(dt float64, a aim) {
	if a.kind == aimNone || a.point.Dist(b.center) < 1e-9 {
		return
	}
	desired := b.center.HeadingDeg(a.point)
	delta := normalizeDeg(desired - b.rotation)
	maxStep := b.stats.TurnRate * dt
	step := math.Max(-maxStep, math.Min(maxStep, delta))
	if step == 0 {
		return
	}
	b.rotation = normalizeDeg(b.rotation + step)
	for _, t := range b.troops {
		t.pos = t.pos.RotateAround(b.center, step)
	}
}

func (b *Battalion) refreshAnim(a aim) {
	state := AnimIdle
	dx := 0.0
	switch {
	case b.engaged:
		state = AnimAttacking
		dx = a.point.X - b.center.X
	case b.moved:
		state = AnimMoving
		dx = b.moveDir.X
	}
	for _, t := range b.troops {
		t.anim = state
		if dx != 0 {
			t.flipped = dx < 0
		}
	}
}

// rectDist is the distance from p to the nearest point of r, 0 inside.
func rectDist(p Vec2, r Rect) float64 {
	if r.Contains(p) {
		return 0
	}
	dx := math.Max(0, math.Max(r.X-p.X, p.X-(r.X+r.W)))
	dy := math.Max(0, math.Max(r.Y-p.Y, p.Y-(r.Y+r.H)))
	return math.Hypot(dx, dy)
}

// Label is the short journal label, e.g. "A1" or "D4".
func (b *Battalion) Label() string {
	if b.side == Attacker {
		return fmt.Sprintf("A%d", b.id)
	}
	return fmt.Sprintf("D%d", b.id)
}
