package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erga-labs/gemini-battle-sim/internal/battle"
)

func TestCompileStop_Rejects(t *testing.T) {
	for _, src := range []string{"Frame +", "Frame", "Nope > 1"} {
		_, err := CompileStop(src)
		assert.Error(t, err, src)
	}
}

func TestStopEval(t *testing.T) {
	env := StopEnv{
		Frame:          30,
		Seconds:        0.5,
		AttackerTroops: 2,
		DefenderTroops: 3,
		spawned:        [2]int{4, 6},
		labels:         map[string]bool{"A1": true, "D3": false},
	}
	tests := []struct {
		src  string
		want bool
	}{
		{"Frame >= 30", true},
		{"AttackerTroops < 2 || Seconds > 1", false},
		{`Casualties("attacker") == 0.5`, true},
		{`Casualties("Defender") == 0.5`, true},
		{`Alive("a1") && !Alive("D3")`, true},
		{`Alive("D9")`, false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			stop, err := CompileStop(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.src, stop.String())
			got, err := stop.Eval(env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCasualtiesWithoutSpawns(t *testing.T) {
	assert.Zero(t, StopEnv{}.Casualties("attacker"))
}

func TestEnvFrom(t *testing.T) {
	ts, err := battle.NewTestSim(
		battle.WithAttacker(1, battle.Warrior, battle.V(10, 10), battle.V(10, 11)),
		battle.WithDefender(2, battle.Archer, battle.V(30, 10)),
		battle.WithWall(1, 20, 8, 1, 6, 100),
	)
	require.NoError(t, err)
	ts.Step()

	env := envFrom(ts)
	assert.Equal(t, 1, env.Frame)
	assert.Equal(t, 2, env.AttackerTroops)
	assert.Equal(t, 1, env.DefenderTroops)
	assert.Equal(t, 1, env.AttackerBattalions)
	assert.Equal(t, 1, env.WallsStanding)
	assert.True(t, env.Alive("A1"))
	assert.True(t, env.Alive("D2"))
	assert.Zero(t, env.Casualties("attacker"))
}
