package battle

// Default fortification parameters.
const (
	DefaultWallHealth   = 500.0
	DefaultCastleHealth = 1000.0
	DefaultCastleSize   = 4.0
)

// Wall is a static defensive segment. Health is per instance.
type Wall struct {
	ID        int
	Position  Vec2    // centre of the footprint
	Size      Vec2    // width, height
	Rotation  float64 // degrees, visual only
	health    float64
	maxHealth float64
}

// NewWall creates a wall with full health. hp <= 0 selects DefaultWallHealth.
func NewWall(id int, pos, size Vec2, rotation, hp float64) *Wall {
	if hp <= 0 {
		hp = DefaultWallHealth
	}
	return &Wall{ID: id, Position: pos, Size: size, Rotation: rotation, health: hp, maxHealth: hp}
}

// TakeDamage subtracts amount without clamping; callers treat <= 0 as destroyed.
func (w *Wall) TakeDamage(amount float64) { w.health -= amount }

func (w *Wall) Health() float64 { return w.health }

func (w *Wall) MaxHealth() float64 { return w.maxHealth }

func (w *Wall) Destroyed() bool { return w.health <= 0 }

// HealthFraction returns health/maxHealth clamped to [0,1].
func (w *Wall) HealthFraction() float64 { return clamp01(w.health / w.maxHealth) }

// BoundingBox returns the axis-aligned footprint centred on Position.
func (w *Wall) BoundingBox() Rect {
	return Rect{X: w.Position.X - w.Size.X/2, Y: w.Position.Y - w.Size.Y/2, W: w.Size.X, H: w.Size.Y}
}

// Castle is the defenders' keep. It is the attackers' last objective.
type Castle struct {
	Position  Vec2
	Size      Vec2
	health    float64
	maxHealth float64
}

// NewCastle creates a castle with a square footprint of DefaultCastleSize.
func NewCastle(pos Vec2, hp float64) *Castle {
	if hp <= 0 {
		hp = DefaultCastleHealth
	}
	return &Castle{
		Position:  pos,
		Size:      Vec2{DefaultCastleSize, DefaultCastleSize},
		health:    hp,
		maxHealth: hp,
	}
}

func (c *Castle) TakeDamage(amount float64) { c.health -= amount }

func (c *Castle) Health() float64 { return c.health }

func (c *Castle) MaxHealth() float64 { return c.maxHealth }

func (c *Castle) Destroyed() bool { return c.health <= 0 }

func (c *Castle) HealthFraction() float64 { return clamp01(c.health / c.maxHealth) }

func (c *Castle) BoundingBox() Rect {
	return Rect{X: c.Position.X - c.Size.X/2, Y: c.Position.Y - c.Size.Y/2, W: c.Size.X, H: c.Size.Y}
}

// Fortifications is the defending side's set of structures. Castle may be nil.
type Fortifications struct {
	Walls  []*Wall
	Castle *Castle
}

// WallsUp reports whether any wall is still standing.
func (f *Fortifications) WallsUp() bool {
	if f == nil {
		return false
	}
	for _, w := range f.Walls {
		if !w.Destroyed() {
			return true
		}
	}
	return false
}

// CastleUp reports whether a castle exists and is still standing.
func (f *Fortifications) CastleUp() bool {
	return f != nil && f.Castle != nil && !f.Castle.Destroyed()
}

// Wall returns the standing wall with the given id.
func (f *Fortifications) Wall(id int) (*Wall, bool) {
	if f == nil {
		return nil, false
	}
	for _, w := range f.Walls {
		if w.ID == id && !w.Destroyed() {
			return w, true
		}
	}
	return nil, false
}

// NearestWall returns the standing wall closest to p.
func (f *Fortifications) NearestWall(p Vec2) (*Wall, bool) {
	if f == nil {
		return nil, false
	}
	var best *Wall
	bestDist := 0.0
	for _, w := range f.Walls {
		if w.Destroyed() {
			continue
		}
		d := p.Dist(w.Position)
		if best == nil || d < bestDist {
			best, bestDist = w, d
		}
	}
	return best, best != nil
}

// removeDestroyed drops destroyed walls and returns them.
func (f *Fortifications) removeDestroyed() []*Wall {
	if f == nil {
		return nil
	}
	var gone []*Wall
	kept := f.Walls[:0]
	for _, w := range f.Walls {
		if w.Destroyed() {
			gone = append(gone, w)
			continue
		}
		kept = append(kept, w)
	}
	f.Walls = kept
	return gone
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
