package report

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/erga-labs/gemini-battle-sim/internal/battle"
)

// StopEnv is the state a stop predicate sees each frame, e.g.
//
//	AttackerTroops < 3 || Seconds > 60
//	Casualties("defender") >= 0.5 && !Alive("D3")
type StopEnv struct {
	Frame              int
	Seconds            float64
	AttackerTroops     int
	DefenderTroops     int
	AttackerBattalions int
	DefenderBattalions int
	WallsStanding      int
	CastleHealth       float64

	spawned [2]int
	labels  map[string]bool
}

// Casualties returns the lost share of a side's spawned troops.
func (e StopEnv) Casualties(side string) float64 {
	i, live := 0, e.AttackerTroops
	if strings.EqualFold(side, battle.Defender.String()) {
		i, live = 1, e.DefenderTroops
	}
	if e.spawned[i] == 0 {
		return 0
	}
	return float64(e.spawned[i]-live) / float64(e.spawned[i])
}

// Alive reports whether the battalion with the given label ("A1", "D3") is
// still on the field.
func (e StopEnv) Alive(label string) bool { return e.labels[strings.ToUpper(label)] }

func envFrom(ts *battle.TestSim) StopEnv {
	h := ts.Handler
	out := battle.DetermineBattleOutcome(h)
	env := StopEnv{
		Frame:              h.Frame(),
		Seconds:            ts.Seconds(),
		AttackerTroops:     out.AttackerSurvivors,
		DefenderTroops:     out.DefenderSurvivors,
		AttackerBattalions: out.AttackerBattalions,
		DefenderBattalions: out.DefenderBattalions,
		WallsStanding:      out.WallsStanding,
		CastleHealth:       out.CastleHealth,
		spawned:            [2]int{out.AttackerTotal, out.DefenderTotal},
		labels:             map[string]bool{},
	}
	for _, side := range []battle.Allegiance{battle.Attacker, battle.Defender} {
		for _, b := range h.Battalions(side) {
			env.labels[b.Label()] = b.LiveTroopCount() > 0
		}
	}
	return env
}

// Stop is a compiled stop predicate.
type Stop struct {
	src     string
	program *vm.Program
}

// CompileStop compiles a boolean expression over StopEnv.
func CompileStop(src string) (*Stop, error) {
	prog, err := expr.Compile(src, expr.Env(StopEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile stop condition %q: %w", src, err)
	}
	return &Stop{src: src, program: prog}, nil
}

func (s *Stop) String() string { return s.src }

// Eval runs the predicate against env.
func (s *Stop) Eval(env StopEnv) (bool, error) {
	result, err := vm.Run(s.program, env)
	if err != nil {
		return false, fmt.Errorf("stop condition %q: %w", s.src, err)
	}
	match, ok := result.(bool)
	return ok && match, nil
}
