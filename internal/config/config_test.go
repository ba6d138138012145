package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erga-labs/gemini-battle-sim/internal/battle"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 60.0, cfg.Sim.FPS)
	assert.Equal(t, int64(0), cfg.Sim.Seed)
	assert.Equal(t, 5.0, cfg.Sim.SelectThreshold)
	assert.Equal(t, 80.0, cfg.World.Width)
	assert.Equal(t, 45.0, cfg.World.Height)
	assert.Equal(t, 0.4, cfg.Rules.EngageRatio)
	assert.Equal(t, 0.4, cfg.Rules.RetargetRatio)
	assert.Equal(t, 0.4, cfg.Rules.AcquireRatio)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Fortifications.Enabled)
	assert.Len(t, cfg.Fortifications.Walls, 3)
	assert.Equal(t, 500.0, cfg.Fortifications.WallHealth)

	def := battle.DefaultRules()
	assert.Equal(t, def, cfg.BattleRules())
	assert.InDelta(t, 1.0/60, cfg.FrameDelta(), 1e-12)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel())
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	path := writeConfig(t, "battlesim.yaml", `
sim:
  fps: 30
  seed: 99
units:
  archer:
    attackRange: 6.5
    hitChance: 0.5
fortifications:
  wallHealth: 250
  walls:
    - {x: 10, y: 5, width: 2, height: 8}
  castle: {x: 70, y: 20}
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30.0, cfg.Sim.FPS)
	assert.Equal(t, int64(99), cfg.Seed())
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel())

	rules := cfg.BattleRules()
	archer := rules.Stats(battle.Archer)
	assert.Equal(t, 6.5, archer.AttackRange)
	assert.Equal(t, 0.5, archer.HitChance)
	// Keys the file leaves out keep their defaults.
	assert.Equal(t, 25.0, archer.LookoutRange)
	assert.Equal(t, battle.DefaultRules().Stats(battle.Warrior), rules.Stats(battle.Warrior))

	forts := cfg.BuildFortifications()
	require.NotNil(t, forts)
	require.Len(t, forts.Walls, 1)
	w := forts.Walls[0]
	assert.Equal(t, 1, w.ID)
	assert.Equal(t, battle.V(10, 5), w.Position)
	assert.Equal(t, battle.V(2, 8), w.Size)
	assert.Equal(t, 250.0, w.Health())
	require.NotNil(t, forts.Castle)
	assert.Equal(t, battle.V(70, 20), forts.Castle.Position)
	assert.Equal(t, battle.DefaultCastleHealth, forts.Castle.Health())
}

func TestLoad_JSONFile(t *testing.T) {
	path := writeConfig(t, "battlesim.json", `{"world": {"width": 120}, "fortifications": {"enabled": false}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 120.0, cfg.World.Width)
	assert.Equal(t, 45.0, cfg.World.Height)
	assert.Nil(t, cfg.BuildFortifications())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BATTLESIM_SIM_FPS", "120")
	t.Setenv("BATTLESIM_UNITS_WARRIOR_SPEED", "7.5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 120.0, cfg.Sim.FPS)
	assert.Equal(t, 7.5, cfg.BattleRules().Stats(battle.Warrior).Speed)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/battlesim.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"zero fps":       "sim:\n  fps: 0\n",
		"ratio above 1":  "rules:\n  engageRatio: 1.5\n",
		"dead on spawn":  "units:\n  warrior:\n    health: 0\n",
		"bad hit chance": "units:\n  archer:\n    hitChance: -0.1\n",
		"bad log level":  "log:\n  level: loud\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "battlesim.yaml", body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestDefault_MatchesLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, cfg, Default())
}

func TestSeed_ZeroDerivesFromClock(t *testing.T) {
	cfg := Default()
	assert.NotZero(t, cfg.Seed())
}
