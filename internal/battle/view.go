package battle

// TroopView is the render-facing state of one troop.
type TroopView struct {
	Position Vec2
	Anim     AnimState
	Flipped  bool
	Health   float64 // fraction of spawn health, clamped to [0,1]
}

// BattalionView is the render-facing state of one battalion.
type BattalionView struct {
	ID       int
	Side     Allegiance
	Type     UnitType
	Center   Vec2
	Rotation float64
	Health   float64 // surviving share of spawned troops
	Selected bool
	Troops   []TroopView
}

// StructureView is the render-facing state of a wall or the castle.
type StructureView struct {
	Castle   bool
	ID       int // wall id; 0 for the castle
	Box      Rect
	Rotation float64
	Health   float64
}

// Views snapshots every battalion. The battalion selected refers to is flagged.
func (h *Handler) Views(selected Ref) []BattalionView {
	sel, hasSel := selected.Get()
	out := make([]BattalionView, 0, len(h.attackers)+len(h.defenders))
	for _, b := range h.all() {
		v := BattalionView{
			ID:       b.id,
			Side:     b.side,
			Type:     b.kind,
			Center:   b.center,
			Rotation: b.rotation,
			Health:   b.HealthFraction(),
			Selected: hasSel && sel == b,
			Troops:   make([]TroopView, 0, len(b.troops)),
		}
		for _, t := range b.troops {
			v.Troops = append(v.Troops, TroopView{
				Position: t.pos,
				Anim:     t.anim,
				Flipped:  t.flipped,
				Health:   clamp01(t.health / b.stats.Health),
			})
		}
		out = append(out, v)
	}
	return out
}

// StructureViews snapshots the standing walls followed by the castle.
func (h *Handler) StructureViews() []StructureView {
	var out []StructureView
	for _, w := range h.forts.Walls {
		out = append(out, StructureView{
			ID:       w.ID,
			Box:      w.BoundingBox(),
			Rotation: w.Rotation,
			Health:   w.HealthFraction(),
		})
	}
	if c := h.forts.Castle; c != nil {
		out = append(out, StructureView{Castle: true, Box: c.BoundingBox(), Health: c.HealthFraction()})
	}
	return out
}
