package battle

import (
	"fmt"

	"github.com/rs/zerolog"
)

// TestSim is a headless driver around a Handler. It mirrors the host's
// fixed-step loop with deterministic seeding and a structured journal, and is
// shared by the tests and the batch report.
type TestSim struct {
	Handler *Handler
	Journal *Journal
	Dt      float64

	seed    int64
	rules   Rules
	logger  zerolog.Logger
	forts   *Fortifications
	pending [2][]SpawnInfo
	err     error

	finished bool
	winner   Allegiance
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra simOptionKind = iota // seed, rules, frame rate, journal, structures
	simOptSpawn                      // battalions, applied after the handler exists
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithSimSeed sets the hit-roll seed.
func WithSimSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.seed = seed }}
}

// WithRules edits the default rule set in place.
func WithRules(edit func(*Rules)) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { edit(&ts.rules) }}
}

// WithFrameRate sets the fixed step to 1/fps seconds.
func WithFrameRate(fps float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		if fps > 0 {
			ts.Dt = 1 / fps
		}
	}}
}

// WithVerbose enables per-frame movement entries in the journal.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.Journal = NewJournal(v) }}
}

// WithSimLogger attaches a logger to the handler.
func WithSimLogger(l zerolog.Logger) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.logger = l }}
}

// WithWall adds a standing wall centred at (x,y).
func WithWall(id int, x, y, w, h, hp float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.forts.Walls = append(ts.forts.Walls, NewWall(id, V(x, y), V(w, h), 0, hp))
	}}
}

// WithCastle places the castle centred at (x,y).
func WithCastle(x, y, hp float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.forts.Castle = NewCastle(V(x, y), hp) }}
}

// WithFortificationSet replaces all structures.
func WithFortificationSet(f *Fortifications) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		if f != nil {
			ts.forts = f
		}
	}}
}

// WithAttacker queues an attacker battalion with absolute troop positions.
func WithAttacker(id int, kind UnitType, troops ...Vec2) SimOption {
	return SimOption{simOptSpawn, func(ts *TestSim) {
		ts.pending[Attacker] = append(ts.pending[Attacker], SpawnInfo{ID: id, Type: kind, Troops: troops})
	}}
}

// WithDefender queues a defender battalion with absolute troop positions.
func WithDefender(id int, kind UnitType, troops ...Vec2) SimOption {
	return SimOption{simOptSpawn, func(ts *TestSim) {
		ts.pending[Defender] = append(ts.pending[Defender], SpawnInfo{ID: id, Type: kind, Troops: troops})
	}}
}

// WithRoster queues pre-built spawn descriptors for both sides.
func WithRoster(attackers, defenders []SpawnInfo) SimOption {
	return SimOption{simOptSpawn, func(ts *TestSim) {
		ts.pending[Attacker] = append(ts.pending[Attacker], attackers...)
		ts.pending[Defender] = append(ts.pending[Defender], defenders...)
	}}
}

// NewTestSim constructs a TestSim from the given options in ordered passes:
//  1. Infrastructure (seed, rules, frame rate, journal, structures)
//  2. Handler
//  3. Battalions, attackers then defenders
func NewTestSim(opts ...SimOption) (*TestSim, error) {
	ts := &TestSim{
		Journal: NewJournal(false),
		Dt:      1.0 / 60,
		seed:    1,
		rules:   DefaultRules(),
		logger:  zerolog.Nop(),
		forts:   &Fortifications{},
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}
	ts.Handler = NewHandler(ts.rules,
		WithSeed(ts.seed),
		WithLogger(ts.logger),
		WithJournal(ts.Journal),
		WithFortifications(ts.forts),
	)
	for _, o := range opts {
		if o.kind == simOptSpawn {
			o.fn(ts)
		}
	}
	for _, side := range []Allegiance{Attacker, Defender} {
		if err := ts.Handler.Spawn(side, ts.pending[side]); err != nil {
			return nil, fmt.Errorf("test sim: %w", err)
		}
	}
	return ts, nil
}

// Step runs one frame unless the battle is already decided.
func (ts *TestSim) Step() {
	if ts.finished {
		return
	}
	ts.Handler.Step(ts.Dt)
	ts.checkFinished()
}

// RunFrames advances up to n frames, stopping early once the battle is decided.
func (ts *TestSim) RunFrames(n int) {
	for i := 0; i < n && !ts.finished; i++ {
		ts.Step()
	}
}

// RunUntil advances the simulation up to maxFrames, stopping early if
// predicate returns true. Returns the frame at which the predicate was
// satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxFrames int) int {
	for i := 0; i < maxFrames; i++ {
		ts.Step()
		if predicate(ts) {
			return ts.Handler.Frame()
		}
		if ts.finished {
			break
		}
	}
	return -1
}

func (ts *TestSim) checkFinished() {
	// Win checks run on a culled roster so battalions emptied this frame count.
	ts.Handler.RemoveDead()
	winner, done := ts.Handler.IsGameFinished()
	if !done {
		return
	}
	ts.finished, ts.winner = true, winner
	frame := ts.Handler.Frame()
	ts.Journal.Add(frame, "--", winner.String(), CatGame, KeyFinished,
		fmt.Sprintf("%s wins at %.2fs", winner, ts.Seconds()), float64(frame))
	ts.logger.Info().Str("winner", winner.String()).Int("frame", frame).Msg("simulation finished")
}

// Finished reports whether a winner has been decided, and who.
func (ts *TestSim) Finished() (Allegiance, bool) { return ts.winner, ts.finished }

// Seconds is the simulated time elapsed.
func (ts *TestSim) Seconds() float64 { return float64(ts.Handler.Frame()) * ts.Dt }

// Outcome summarises the current state.
func (ts *TestSim) Outcome() BattleOutcomeReason { return DetermineBattleOutcome(ts.Handler) }

// Battalion looks up a live battalion by id.
func (ts *TestSim) Battalion(id int) (*Battalion, bool) { return ts.Handler.Ref(id).Get() }
