package results

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erga-labs/gemini-battle-sim/internal/battle"
	"github.com/erga-labs/gemini-battle-sim/internal/report"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRuns() []report.RunStats {
	return []report.RunStats{
		{RunIndex: 1, Seed: 10, Outcome: battle.OutcomeAttackerVictory, Frames: 700, Seconds: 11.6, AttackerTotal: 6, DefenderTotal: 6},
		{RunIndex: 2, Seed: 11, Outcome: battle.OutcomeDefenderVictory, Frames: 900, Seconds: 15, AttackerTotal: 6, DefenderTotal: 6},
		{RunIndex: 3, Seed: 12, Outcome: battle.OutcomeInconclusive, Frames: 1000, Stopped: true, FirstDeathFrame: -1},
	}
}

func TestSaveAndListRuns(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	stop, err := report.CompileStop("Frame > 1000")
	require.NoError(t, err)

	id, err := s.Save(ctx, report.Options{Scenario: "siege", Frames: 1000, Stop: stop}, sampleRuns())
	require.NoError(t, err)
	assert.Len(t, id, 36)

	runs, err := s.Runs(ctx, id)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for i, r := range runs {
		assert.Equal(t, i+1, r.RunIndex)
		assert.Equal(t, id, r.BatchID)
		assert.Equal(t, "siege", r.Scenario)
	}
	assert.Equal(t, "defender_victory", runs[1].Outcome)
	assert.True(t, runs[2].Stopped)
	assert.Equal(t, -1, runs[2].FirstDeathFrame)

	batches, err := s.List(ctx, "siege")
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "Frame > 1000", batches[0].StopWhen)
	assert.Equal(t, 3, batches[0].Runs)
}

func TestWinRatesAcrossBatches(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := s.Save(ctx, report.Options{Scenario: "skirmish"}, sampleRuns())
		require.NoError(t, err)
	}
	_, err := s.Save(ctx, report.Options{Scenario: "siege"}, sampleRuns()[:1])
	require.NoError(t, err)

	wr, err := s.WinRates(ctx, "skirmish")
	require.NoError(t, err)
	assert.Equal(t, WinRate{Scenario: "skirmish", Runs: 6, AttackerWins: 2, DefenderWins: 2, Inconclusive: 2}, wr)
	assert.InDelta(t, 1.0/3, wr.AttackerRate(), 1e-9)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := s.WinRates(ctx, "roster")
	require.NoError(t, err)
	assert.Zero(t, none.Runs)
	assert.Zero(t, none.AttackerRate())
}
