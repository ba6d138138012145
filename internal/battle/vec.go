package battle

import "math"

// Vec2 is a point or direction on the battlefield plane (world units).
type Vec2 struct {
	X, Y float64
}

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the euclidean distance between v and o.
func (v Vec2) Dist(o Vec2) float64 { return math.Hypot(v.X-o.X, v.Y-o.Y) }

// Normalize returns the unit vector along v, or the zero vector when v is
// (nearly) zero.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l < 1e-9 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// RotateAround rotates v about pivot by deg degrees (counter-clockwise in a
// y-up frame, clockwise on a y-down screen).
func (v Vec2) RotateAround(pivot Vec2, deg float64) Vec2 {
	rad := deg * math.Pi / 180
	s, c := math.Sincos(rad)
	dx, dy := v.X-pivot.X, v.Y-pivot.Y
	return Vec2{
		X: pivot.X + dx*c - dy*s,
		Y: pivot.Y + dx*s + dy*c,
	}
}

// HeadingDeg returns the direction of the vector from v to o in degrees,
// in (-180, 180].
func (v Vec2) HeadingDeg(o Vec2) float64 {
	return math.Atan2(o.Y-v.Y, o.X-v.X) * 180 / math.Pi
}

// normalizeDeg folds an angle into [-180, 180].
func normalizeDeg(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg < -180 {
		deg += 360
	}
	return deg
}

// Rect is an axis-aligned rectangle; X,Y is the top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// centroid returns the arithmetic mean of pts. The caller guarantees len(pts) > 0.
func centroid(pts []Vec2) Vec2 {
	var sum Vec2
	for _, p := range pts {
		sum = sum.Add(p)
	}
	return sum.Scale(1 / float64(len(pts)))
}
