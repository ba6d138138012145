package battle

import (
	"fmt"
	"strings"
)

// BattalionDetails is the stat dump for the info panel and the X-key overview.
type BattalionDetails struct {
	ID             int
	Side           Allegiance
	Type           UnitType
	Troops         int
	InitialTroops  int
	HealthFraction float64
	Center         Vec2
	Rotation       float64
	TargetID       int // 0 when no battalion target resolves
	LookoutRatio   float64
	Engaged        bool
}

// Describe returns the details of one battalion.
func (b *Battalion) Describe() BattalionDetails {
	d := BattalionDetails{
		ID:             b.id,
		Side:           b.side,
		Type:           b.kind,
		Troops:         b.LiveTroopCount(),
		InitialTroops:  b.initialCount,
		HealthFraction: b.HealthFraction(),
		Center:         b.center,
		Rotation:       b.rotation,
		LookoutRatio:   b.LookoutRatio(),
		Engaged:        b.engaged,
	}
	if t, ok := b.target.Get(); ok {
		d.TargetID = t.id
	}
	return d
}

// Details returns attackers then defenders, each in spawn order.
func (h *Handler) Details() []BattalionDetails {
	out := make([]BattalionDetails, 0, len(h.attackers)+len(h.defenders))
	for _, b := range h.all() {
		out = append(out, b.Describe())
	}
	return out
}

// FormatDetails renders an overview grouped by side.
func FormatDetails(details []BattalionDetails) string {
	var sb strings.Builder
	sb.WriteString("Overview\n")
	for _, side := range []Allegiance{Attacker, Defender} {
		fmt.Fprintf(&sb, "--- Group: %s ---\n", titleCase(side.String()))
		for _, d := range details {
			if d.Side != side {
				continue
			}
			target := "-"
			if d.TargetID != 0 {
				target = fmt.Sprintf("%d", d.TargetID)
			}
			fmt.Fprintf(&sb, " Id: %d Type: %s TroopCount: %d/%d Position: %.2f %.2f Target: %s Lookout: %.2f\n",
				d.ID, titleCase(d.Type.String()), d.Troops, d.InitialTroops, d.Center.X, d.Center.Y, target, d.LookoutRatio)
		}
	}
	return sb.String()
}

// PrintDetails logs one line per battalion and returns the formatted overview.
func (h *Handler) PrintDetails() string {
	details := h.Details()
	for _, d := range details {
		h.log.Info().
			Int("id", d.ID).
			Str("side", d.Side.String()).
			Str("type", d.Type.String()).
			Int("troops", d.Troops).
			Float64("x", d.Center.X).
			Float64("y", d.Center.Y).
			Float64("lookout", d.LookoutRatio).
			Msg("battalion")
	}
	return FormatDetails(details)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
