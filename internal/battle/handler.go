package battle

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog"
)

// SpawnInfo describes one battalion to spawn. Troops are absolute positions.
type SpawnInfo struct {
	ID     int
	Type   UnitType
	Troops []Vec2
}

// Handler owns every battalion and the defending fortifications, and runs the
// per-frame order: RemoveDead, UpdateTargets, UpdateAll.
type Handler struct {
	rules     Rules
	attackers []*Battalion
	defenders []*Battalion
	reg       *registry
	forts     *Fortifications
	rng       Rand
	log       zerolog.Logger
	journal   *Journal

	frame      int
	castleDown bool
	spawned    [2]int // troops spawned per side
}

// Option configures a Handler.
type Option func(*Handler)

// WithRand sets the hit-roll source.
func WithRand(r Rand) Option {
	return func(h *Handler) { h.rng = r }
}

// WithSeed seeds a private *rand.Rand for reproducible runs.
func WithSeed(seed int64) Option {
	return func(h *Handler) { h.rng = rand.New(rand.NewSource(seed)) } // #nosec G404 -- gameplay rolls
}

// WithLogger attaches a logger. The default is zerolog.Nop().
func WithLogger(l zerolog.Logger) Option {
	return func(h *Handler) { h.log = l }
}

// WithJournal records structured events into j.
func WithJournal(j *Journal) Option {
	return func(h *Handler) { h.journal = j }
}

// WithFortifications installs the defending structures.
func WithFortifications(f *Fortifications) Option {
	return func(h *Handler) { h.forts = f }
}

// NewHandler creates an empty handler.
func NewHandler(rules Rules, opts ...Option) *Handler {
	h := &Handler{
		rules: rules,
		reg:   newRegistry(),
		forts: &Fortifications{},
		rng:   rand.New(rand.NewSource(1)), // #nosec G404 -- deterministic default
		log:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(h)
	}
	if h.forts == nil {
		h.forts = &Fortifications{}
	}
	return h
}

// --- Lifecycle ---

// Spawn builds every described battalion and appends them to side. Either all
// battalions are spawned or none are.
func (h *Handler) Spawn(side Allegiance, infos []SpawnInfo) error {
	built := make([]*Battalion, 0, len(infos))
	seen := make(map[int]bool, len(infos))
	for _, info := range infos {
		if h.reg.used[info.ID] || seen[info.ID] {
			return fmt.Errorf("spawn %s battalion %d: %w", side, info.ID, ErrDuplicateID)
		}
		b, err := NewBattalion(info.ID, side, info.Type, info.Troops, &h.rules)
		if err != nil {
			return fmt.Errorf("spawn %s: %w", side, err)
		}
		seen[info.ID] = true
		built = append(built, b)
	}
	for _, b := range built {
		h.reg.add(b)
		h.spawned[side] += b.TroopCount()
		if side == Attacker {
			h.attackers = append(h.attackers, b)
		} else {
			h.defenders = append(h.defenders, b)
		}
		h.journal.Add(h.frame, b.Label(), side.String(), CatSpawn, KeyBattalion,
			fmt.Sprintf("%s x%d at (%.1f,%.1f)", b.kind, b.TroopCount(), b.center.X, b.center.Y),
			float64(b.TroopCount()))
		h.log.Debug().Int("id", b.id).Str("side", side.String()).Str("type", b.kind.String()).
			Int("troops", b.TroopCount()).Msg("battalion spawned")
	}
	return nil
}

// RemoveDead culls dead troops, drops empty battalions from both sides and
// destroyed walls from the fortification set. Calling it twice in a row with
// no damage in between is a no-op the second time.
func (h *Handler) RemoveDead() {
	h.attackers = h.removeDeadFrom(h.attackers)
	h.defenders = h.removeDeadFrom(h.defenders)

	for _, w := range h.forts.removeDestroyed() {
		h.journal.Add(h.frame, "--", Defender.String(), CatFort, KeyWallDown,
			fmt.Sprintf("wall %d at (%.1f,%.1f)", w.ID, w.Position.X, w.Position.Y), w.Health())
		h.log.Info().Int("wall", w.ID).Int("frame", h.frame).Msg("wall destroyed")
	}
	if !h.castleDown && h.forts.Castle != nil && h.forts.Castle.Destroyed() {
		h.castleDown = true
		h.journal.Add(h.frame, "--", Defender.String(), CatFort, KeyCastleDown, "castle destroyed", h.forts.Castle.Health())
		h.log.Info().Int("frame", h.frame).Msg("castle destroyed")
	}
}

func (h *Handler) removeDeadFrom(list []*Battalion) []*Battalion {
	kept := list[:0]
	for _, b := range list {
		h.recordDeaths(b, b.RemoveDead())
		if b.TroopCount() > 0 {
			kept = append(kept, b)
			continue
		}
		h.reg.remove(b.id)
		h.journal.Add(h.frame, b.Label(), b.side.String(), CatDeath, KeyBattalion, "destroyed", 0)
		h.log.Info().Int("id", b.id).Str("side", b.side.String()).Int("frame", h.frame).Msg("battalion destroyed")
	}
	for i := len(kept); i < len(list); i++ {
		list[i] = nil
	}
	return kept
}

func (h *Handler) recordDeaths(b *Battalion, n int) {
	if n == 0 {
		return
	}
	h.journal.Add(h.frame, b.Label(), b.side.String(), CatDeath, KeyTroops,
		fmt.Sprintf("-%d → %d left", n, b.TroopCount()), float64(b.TroopCount()))
}

// UpdateTargets re-targets every battalion whose lookout ratio against its
// current target fell below RetargetRatio, or whose target no longer
// resolves. The nearest opposing battalion by centre distance is committed
// only if it reaches AcquireRatio; otherwise the battalion is left without a
// battalion target.
func (h *Handler) UpdateTargets() {
	for _, b := range h.all() {
		if b.TroopCount() == 0 {
			continue
		}
		lookout := b.stats.LookoutRange
		cur, ok := b.target.Get()
		if ok && b.ActiveRatio(cur.center, lookout) >= h.rules.RetargetRatio {
			continue
		}

		cand := h.nearestEnemy(b)
		if cand != nil && b.ActiveRatio(cand.center, lookout) >= h.rules.AcquireRatio {
			if !ok || cand != cur {
				b.SetTarget(h.reg.ref(cand))
				d := b.center.Dist(cand.center)
				h.journal.Add(h.frame, b.Label(), b.side.String(), CatTarget, KeyAcquire,
					fmt.Sprintf("%s at %.1f", cand.Label(), d), d)
				h.log.Debug().Int("id", b.id).Int("target", cand.id).Float64("dist", d).Msg("target acquired")
			}
			continue
		}

		if !b.target.IsZero() {
			h.journal.Add(h.frame, b.Label(), b.side.String(), CatTarget, KeyLost,
				fmt.Sprintf("battalion %d", b.target.ID()), 0)
			h.log.Debug().Int("id", b.id).Int("target", b.target.ID()).Msg("target lost")
			b.ClearTarget()
		}
	}
}

func (h *Handler) nearestEnemy(b *Battalion) *Battalion {
	enemies := h.side(b.side.Opponent())
	var best *Battalion
	bestDist := math.MaxFloat64
	for _, e := range enemies {
		if e.TroopCount() == 0 {
			continue
		}
		if d := b.center.Dist(e.center); d < bestDist {
			best, bestDist = e, d
		}
	}
	return best
}

// UpdateAll advances every battalion by dt. Geometry is latched first so that
// all battalions read the same frame-start positions of each other.
func (h *Handler) UpdateAll(dt float64) {
	all := h.all()
	for _, b := range all {
		b.latch()
	}
	for _, b := range all {
		if b.TroopCount() == 0 {
			continue
		}
		h.recordDeaths(b, b.Update(dt, h.forts, h.rng))
		h.journal.AddVerbose(h.frame, b.Label(), b.side.String(), CatMove, KeyCenter,
			fmt.Sprintf("(%.2f,%.2f)", b.center.X, b.center.Y), b.rotation)
	}
	h.frame++
}

// Step runs one full frame in the required order.
func (h *Handler) Step(dt float64) {
	h.RemoveDead()
	h.UpdateTargets()
	h.UpdateAll(dt)
}

// IsGameFinished reports the winner once one side is wiped out. Defenders win
// when no attacker battalion remains; attackers win when every defender
// battalion, every wall and the castle are gone.
func (h *Handler) IsGameFinished() (Allegiance, bool) {
	if len(h.attackers) == 0 {
		return Defender, true
	}
	if len(h.defenders) == 0 && !h.forts.WallsUp() && !h.forts.CastleUp() {
		return Attacker, true
	}
	return 0, false
}

// SelectBattalion returns the battalion whose centre is nearest to p, or the
// zero Ref when none lies strictly within threshold.
func (h *Handler) SelectBattalion(p Vec2, threshold float64) Ref {
	var best *Battalion
	bestDist := math.MaxFloat64
	for _, b := range h.all() {
		if d := p.Dist(b.center); d < bestDist {
			best, bestDist = b, d
		}
	}
	if best == nil || bestDist >= threshold {
		return Ref{}
	}
	return h.reg.ref(best)
}

// --- Queries ---

func (h *Handler) all() []*Battalion {
	out := make([]*Battalion, 0, len(h.attackers)+len(h.defenders))
	out = append(out, h.attackers...)
	return append(out, h.defenders...)
}

func (h *Handler) side(s Allegiance) []*Battalion {
	if s == Defender {
		return h.defenders
	}
	return h.attackers
}

// Battalions returns a copy of one side's battalions in spawn order.
func (h *Handler) Battalions(side Allegiance) []*Battalion {
	src := h.side(side)
	out := make([]*Battalion, len(src))
	copy(out, src)
	return out
}

// Ref returns a weak handle to the live battalion with the given id.
func (h *Handler) Ref(id int) Ref {
	if _, ok := h.reg.live[id]; !ok {
		return Ref{}
	}
	return Ref{id: id, reg: h.reg}
}

func (h *Handler) Fortifications() *Fortifications { return h.forts }

func (h *Handler) Rules() Rules { return h.rules }

func (h *Handler) Journal() *Journal { return h.journal }

// Frame returns how many UpdateAll passes have run.
func (h *Handler) Frame() int { return h.frame }

// TroopCount sums live troops on one side.
func (h *Handler) TroopCount(side Allegiance) int {
	n := 0
	for _, b := range h.Battalions(side) {
		n += b.LiveTroopCount()
	}
	return n
}

// SpawnedTroops returns how many troops were ever spawned on one side.
func (h *Handler) SpawnedTroops(side Allegiance) int { return h.spawned[side] }
