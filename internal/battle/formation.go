package battle

import (
	"fmt"
	"math"
	"strings"
)

// FormationType identifies the troop layout of a freshly spawned battalion.
type FormationType int

const (
	FormationBlock  FormationType = iota // rows of ceil(sqrt(n)) across the heading
	FormationLine                        // side-by-side perpendicular to heading
	FormationColumn                      // single file along the heading
	FormationWedge                       // V-shape, point toward the heading
)

func (f FormationType) String() string {
	switch f {
	case FormationBlock:
		return "block"
	case FormationLine:
		return "line"
	case FormationColumn:
		return "column"
	case FormationWedge:
		return "wedge"
	default:
		return "unknown"
	}
}

// ParseFormation matches a formation name case-insensitively. The empty
// string selects FormationBlock.
func ParseFormation(s string) (FormationType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "block":
		return FormationBlock, nil
	case "line":
		return FormationLine, nil
	case "column":
		return FormationColumn, nil
	case "wedge":
		return FormationWedge, nil
	}
	return 0, fmt.Errorf("unknown formation %q", s)
}

// DefaultSlotSpacing is the world-unit gap between adjacent troops.
const DefaultSlotSpacing = 1.0

// formationOffsets returns the local (forward, right) offset of each slot.
// Slot 0 is the point of the formation; the caller re-centres the result.
func formationOffsets(ft FormationType, count int, spacing float64) [][2]float64 {
	offsets := make([][2]float64, count)
	if count == 0 {
		return offsets
	}

	switch ft {
	case FormationLine:
		for i := 1; i < count; i++ {
			side := float64((i+1)/2) * spacing
			if i%2 == 1 {
				side = -side
			}
			offsets[i] = [2]float64{0, side}
		}

	case FormationColumn:
		for i := 1; i < count; i++ {
			offsets[i] = [2]float64{-float64(i) * spacing, 0}
		}

	case FormationWedge:
		for i := 1; i < count; i++ {
			rank := float64((i + 1) / 2)
			side := rank * spacing
			if i%2 == 1 {
				side = -side
			}
			offsets[i] = [2]float64{-rank * spacing, side}
		}

	default: // FormationBlock
		cols := int(math.Ceil(math.Sqrt(float64(count))))
		for i := 0; i < count; i++ {
			row, col := i/cols, i%cols
			offsets[i] = [2]float64{-float64(row) * spacing, float64(col) * spacing}
		}
	}
	return offsets
}

// SlotWorld converts a local (forward, right) offset into a world position
// given an anchor and a heading in degrees. Right is 90° clockwise from
// forward on a y-down screen.
func SlotWorld(anchor Vec2, headingDeg, fwd, right float64) Vec2 {
	s, c := math.Sincos(headingDeg * math.Pi / 180)
	return Vec2{
		X: anchor.X + c*fwd - s*right,
		Y: anchor.Y + s*fwd + c*right,
	}
}

// LayoutTroops returns count absolute troop positions in the given formation
// whose centroid is center. spacing <= 0 selects DefaultSlotSpacing.
func LayoutTroops(center Vec2, headingDeg float64, ft FormationType, count int, spacing float64) []Vec2 {
	if count <= 0 {
		return nil
	}
	if spacing <= 0 {
		spacing = DefaultSlotSpacing
	}
	offsets := formationOffsets(ft, count, spacing)

	var mf, mr float64
	for _, o := range offsets {
		mf += o[0]
		mr += o[1]
	}
	mf /= float64(count)
	mr /= float64(count)

	out := make([]Vec2, count)
	for i, o := range offsets {
		out[i] = SlotWorld(center, headingDeg, o[0]-mf, o[1]-mr)
	}
	return out
}
