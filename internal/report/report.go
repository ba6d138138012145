package report

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/erga-labs/gemini-battle-sim/internal/battle"
	"github.com/erga-labs/gemini-battle-sim/internal/config"
	"github.com/erga-labs/gemini-battle-sim/internal/spawn"
)

// ErrUnknownScenario is returned for scenario names outside Scenarios.
var ErrUnknownScenario = errors.New("unknown scenario")

const (
	ScenarioSkirmish = "skirmish" // demo roster, open field
	ScenarioSiege    = "siege"    // demo roster against the configured walls and castle
	ScenarioRoster   = "roster"   // roster file, configured fortifications
)

// Scenarios lists the supported scenario names.
var Scenarios = []string{ScenarioSkirmish, ScenarioSiege, ScenarioRoster}

// Options configures a batch of headless runs.
type Options struct {
	Scenario string
	Roster   *spawn.Roster // required for ScenarioRoster
	Runs     int
	Frames   int // per-run frame cap
	SeedBase int64
	SeedStep int64
	Stop     *Stop // optional early stop predicate
	Config   *config.Config
	Logger   zerolog.Logger
}

// RunStats is the per-run summary.
type RunStats struct {
	RunIndex int
	Seed     int64

	Outcome  battle.BattleOutcome
	Reason   string
	Frames   int
	Seconds  float64
	Stopped  bool // the stop predicate ended the run
	Finished bool // a side won

	AttackerSurvivors int
	AttackerTotal     int
	DefenderSurvivors int
	DefenderTotal     int
	WallsStanding     int
	CastleHealth      float64

	FirstDeathFrame   int // -1 when nobody died
	FirstWallFrame    int // -1 when no wall fell
	TargetAcquired    int
	TargetLost        int
	BattalionsLost    int
	StructuresDamaged bool
}

// Summary aggregates a batch.
type Summary struct {
	Runs                int
	AttackerWins        int
	DefenderWins        int
	Inconclusive        int
	AttackerWinRate     float64
	DefenderWinRate     float64
	MedianFinishSeconds float64 // over decided runs; 0 when none
	AvgAttackerSurvival float64
	AvgDefenderSurvival float64
}

func (o Options) validate() error {
	if o.Runs <= 0 {
		return fmt.Errorf("runs must be > 0, got %d", o.Runs)
	}
	if o.Frames <= 0 {
		return fmt.Errorf("frames must be > 0, got %d", o.Frames)
	}
	if o.Config == nil {
		return errors.New("config is required")
	}
	switch o.Scenario {
	case ScenarioSkirmish, ScenarioSiege:
	case ScenarioRoster:
		if o.Roster == nil {
			return fmt.Errorf("scenario %q needs a roster", o.Scenario)
		}
	default:
		return fmt.Errorf("%w: %q (supported: %v)", ErrUnknownScenario, o.Scenario, Scenarios)
	}
	return nil
}

func (o Options) roster() *spawn.Roster {
	if o.Scenario == ScenarioRoster {
		return o.Roster
	}
	return spawn.Demo(o.Config.World.Width, o.Config.World.Height)
}

func (o Options) fortifications() *battle.Fortifications {
	if o.Scenario == ScenarioSkirmish {
		return nil
	}
	return o.Config.BuildFortifications()
}

// NewSim builds the simulation for one seeded run.
func (o Options) NewSim(seed int64) (*battle.TestSim, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	rules := o.Config.BattleRules()
	r := o.roster()
	opts := []battle.SimOption{
		battle.WithSimSeed(seed),
		battle.WithRules(func(dst *battle.Rules) { *dst = rules }),
		battle.WithFrameRate(o.Config.Sim.FPS),
		battle.WithSimLogger(o.Logger),
		battle.WithRoster(r.Attackers, r.Defenders),
	}
	if f := o.fortifications(); f != nil {
		opts = append(opts, battle.WithFortificationSet(f))
	}
	return battle.NewTestSim(opts...)
}

// Run executes every run of the batch in order.
func Run(o Options) ([]RunStats, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	all := make([]RunStats, 0, o.Runs)
	for i := 0; i < o.Runs; i++ {
		seed := o.SeedBase + int64(i)*o.SeedStep
		rs, err := RunOne(o, i+1, seed)
		if err != nil {
			return all, fmt.Errorf("run %d (seed=%d): %w", i+1, seed, err)
		}
		o.Logger.Info().Int("run", rs.RunIndex).Int64("seed", seed).
			Str("outcome", rs.Outcome.String()).Float64("seconds", rs.Seconds).Msg("run complete")
		all = append(all, rs)
	}
	return all, nil
}

// RunOne executes a single seeded run.
func RunOne(o Options, index int, seed int64) (RunStats, error) {
	ts, err := o.NewSim(seed)
	if err != nil {
		return RunStats{}, err
	}

	var evalErr error
	stopped := false
	if o.Stop != nil {
		stopped = ts.RunUntil(func(s *battle.TestSim) bool {
			hit, err := o.Stop.Eval(envFrom(s))
			if err != nil {
				evalErr = err
				return true
			}
			return hit
		}, o.Frames) >= 0
	} else {
		ts.RunFrames(o.Frames)
	}
	if evalErr != nil {
		return RunStats{}, evalErr
	}
	return collect(ts, index, seed, stopped), nil
}

func collect(ts *battle.TestSim, index int, seed int64, stopped bool) RunStats {
	out := ts.Outcome()
	j := ts.Journal
	_, finished := ts.Finished()
	rs := RunStats{
		RunIndex:          index,
		Seed:              seed,
		Outcome:           out.Outcome,
		Reason:            out.Description,
		Frames:            out.Frame,
		Seconds:           ts.Seconds(),
		Stopped:           stopped,
		Finished:          finished,
		AttackerSurvivors: out.AttackerSurvivors,
		AttackerTotal:     out.AttackerTotal,
		DefenderSurvivors: out.DefenderSurvivors,
		DefenderTotal:     out.DefenderTotal,
		WallsStanding:     out.WallsStanding,
		CastleHealth:      out.CastleHealth,
		FirstDeathFrame:   firstFrame(j, battle.CatDeath, battle.KeyTroops),
		FirstWallFrame:    firstFrame(j, battle.CatFort, battle.KeyWallDown),
		TargetAcquired:    j.CountCategory(battle.CatTarget, battle.KeyAcquire),
		TargetLost:        j.CountCategory(battle.CatTarget, battle.KeyLost),
		BattalionsLost:    j.CountCategory(battle.CatDeath, battle.KeyBattalion),
	}
	for _, w := range ts.Handler.Fortifications().Walls {
		if w.Health() < w.MaxHealth() {
			rs.StructuresDamaged = true
		}
	}
	if c := ts.Handler.Fortifications().Castle; c != nil && c.Health() < c.MaxHealth() {
		rs.StructuresDamaged = true
	}
	if rs.FirstWallFrame >= 0 {
		rs.StructuresDamaged = true
	}
	return rs
}

func firstFrame(j *battle.Journal, category, key string) int {
	if e, ok := j.FirstOf(category, key); ok {
		return e.Frame
	}
	return -1
}

// Summarize aggregates per-run stats.
func Summarize(all []RunStats) Summary {
	s := Summary{Runs: len(all)}
	if len(all) == 0 {
		return s
	}
	var finish []float64
	var attSurv, defSurv float64
	for _, rs := range all {
		switch rs.Outcome {
		case battle.OutcomeAttackerVictory:
			s.AttackerWins++
			finish = append(finish, rs.Seconds)
		case battle.OutcomeDefenderVictory:
			s.DefenderWins++
			finish = append(finish, rs.Seconds)
		default:
			s.Inconclusive++
		}
		attSurv += ratio(rs.AttackerSurvivors, rs.AttackerTotal)
		defSurv += ratio(rs.DefenderSurvivors, rs.DefenderTotal)
	}
	n := float64(len(all))
	s.AttackerWinRate = float64(s.AttackerWins) / n
	s.DefenderWinRate = float64(s.DefenderWins) / n
	s.AvgAttackerSurvival = attSurv / n
	s.AvgDefenderSurvival = defSurv / n
	s.MedianFinishSeconds = median(finish)
	return s
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
