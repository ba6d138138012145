package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/erga-labs/gemini-battle-sim/internal/battle"
)

// EnvPrefix is prepended to every environment override, e.g.
// BATTLESIM_SIM_FPS=30.
const EnvPrefix = "BATTLESIM"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

type SimConfig struct {
	FPS             float64 `mapstructure:"fps"`
	Seed            int64   `mapstructure:"seed"` // 0 derives a seed from the clock
	SelectThreshold float64 `mapstructure:"selectThreshold"`
}

type WorldConfig struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

type RulesConfig struct {
	EngageRatio   float64 `mapstructure:"engageRatio"`
	RetargetRatio float64 `mapstructure:"retargetRatio"`
	AcquireRatio  float64 `mapstructure:"acquireRatio"`
}

type UnitsConfig struct {
	Warrior battle.UnitStats `mapstructure:"warrior"`
	Archer  battle.UnitStats `mapstructure:"archer"`
}

type WallConfig struct {
	X        float64 `mapstructure:"x"`
	Y        float64 `mapstructure:"y"`
	Width    float64 `mapstructure:"width"`
	Height   float64 `mapstructure:"height"`
	Rotation float64 `mapstructure:"rotation"`
}

type CastleConfig struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
}

type FortificationsConfig struct {
	Enabled      bool         `mapstructure:"enabled"`
	WallHealth   float64      `mapstructure:"wallHealth"`
	CastleHealth float64      `mapstructure:"castleHealth"`
	CastleSize   float64      `mapstructure:"castleSize"`
	Walls        []WallConfig `mapstructure:"walls"`
	Castle       CastleConfig `mapstructure:"castle"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Config is the full typed configuration of both binaries.
type Config struct {
	Sim            SimConfig            `mapstructure:"sim"`
	World          WorldConfig          `mapstructure:"world"`
	Rules          RulesConfig          `mapstructure:"rules"`
	Units          UnitsConfig          `mapstructure:"units"`
	Fortifications FortificationsConfig `mapstructure:"fortifications"`
	Log            LogConfig            `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sim.fps", 60)
	v.SetDefault("sim.seed", 0)
	v.SetDefault("sim.selectThreshold", 5)

	v.SetDefault("world.width", 80)
	v.SetDefault("world.height", 45)

	def := battle.DefaultRules()
	v.SetDefault("rules.engageRatio", def.EngageRatio)
	v.SetDefault("rules.retargetRatio", def.RetargetRatio)
	v.SetDefault("rules.acquireRatio", def.AcquireRatio)

	for _, u := range []battle.UnitType{battle.Warrior, battle.Archer} {
		s := def.Stats(u)
		prefix := "units." + u.String() + "."
		v.SetDefault(prefix+"attackRange", s.AttackRange)
		v.SetDefault(prefix+"lookoutRange", s.LookoutRange)
		v.SetDefault(prefix+"speed", s.Speed)
		v.SetDefault(prefix+"health", s.Health)
		v.SetDefault(prefix+"damage", s.Damage)
		v.SetDefault(prefix+"hitChance", s.HitChance)
		v.SetDefault(prefix+"cooldown", s.Cooldown)
		v.SetDefault(prefix+"turnRate", s.TurnRate)
	}

	v.SetDefault("fortifications.enabled", true)
	v.SetDefault("fortifications.wallHealth", battle.DefaultWallHealth)
	v.SetDefault("fortifications.castleHealth", battle.DefaultCastleHealth)
	v.SetDefault("fortifications.castleSize", battle.DefaultCastleSize)
	v.SetDefault("fortifications.walls", []map[string]any{
		{"x": 68.0, "y": 15.5, "width": 1.0, "height": 6.0, "rotation": 0.0},
		{"x": 68.0, "y": 22.5, "width": 1.0, "height": 6.0, "rotation": 0.0},
		{"x": 68.0, "y": 29.5, "width": 1.0, "height": 6.0, "rotation": 0.0},
	})
	v.SetDefault("fortifications.castle.x", 75.0)
	v.SetDefault("fortifications.castle.y", 22.5)

	v.SetDefault("log.level", "info")
}

// Load reads the optional config file at path (any format viper detects from
// the extension), applies BATTLESIM_* environment overrides and validates the
// result. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(err) // defaults are static
	}
	return cfg
}

// Validate rejects values the simulation cannot run with.
func (c *Config) Validate() error {
	if c.Sim.FPS <= 0 {
		return fmt.Errorf("%w: sim.fps must be positive, got %v", ErrInvalid, c.Sim.FPS)
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("%w: world must have positive size, got %vx%v", ErrInvalid, c.World.Width, c.World.Height)
	}
	for name, r := range map[string]float64{
		"rules.engageRatio":   c.Rules.EngageRatio,
		"rules.retargetRatio": c.Rules.RetargetRatio,
		"rules.acquireRatio":  c.Rules.AcquireRatio,
	} {
		if r < 0 || r > 1 {
			return fmt.Errorf("%w: %s must be within [0,1], got %v", ErrInvalid, name, r)
		}
	}
	for name, s := range map[string]battle.UnitStats{"warrior": c.Units.Warrior, "archer": c.Units.Archer} {
		if s.Health <= 0 {
			return fmt.Errorf("%w: units.%s.health must be positive", ErrInvalid, name)
		}
		if s.HitChance < 0 || s.HitChance > 1 {
			return fmt.Errorf("%w: units.%s.hitChance must be within [0,1]", ErrInvalid, name)
		}
		if s.Speed < 0 || s.Cooldown < 0 || s.TurnRate < 0 || s.AttackRange < 0 || s.LookoutRange < 0 {
			return fmt.Errorf("%w: units.%s has a negative stat", ErrInvalid, name)
		}
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	return nil
}

// BattleRules converts the configured tunables into the simulation rule set.
func (c *Config) BattleRules() battle.Rules {
	r := battle.DefaultRules()
	r.Units[battle.Warrior] = c.Units.Warrior
	r.Units[battle.Archer] = c.Units.Archer
	r.EngageRatio = c.Rules.EngageRatio
	r.RetargetRatio = c.Rules.RetargetRatio
	r.AcquireRatio = c.Rules.AcquireRatio
	return r
}

// BuildFortifications returns a fresh structure set, or nil when disabled.
// Wall ids are assigned in list order from 1.
func (c *Config) BuildFortifications() *battle.Fortifications {
	f := c.Fortifications
	if !f.Enabled {
		return nil
	}
	out := &battle.Fortifications{}
	for i, w := range f.Walls {
		out.Walls = append(out.Walls, battle.NewWall(i+1,
			battle.V(w.X, w.Y), battle.V(w.Width, w.Height), w.Rotation, f.WallHealth))
	}
	castle := battle.NewCastle(battle.V(f.Castle.X, f.Castle.Y), f.CastleHealth)
	if f.CastleSize > 0 {
		castle.Size = battle.V(f.CastleSize, f.CastleSize)
	}
	out.Castle = castle
	return out
}

// FrameDelta is the fixed simulation step.
func (c *Config) FrameDelta() float64 { return 1 / c.Sim.FPS }

// Seed returns the configured seed, or one derived from the clock when unset.
func (c *Config) Seed() int64 {
	if c.Sim.Seed != 0 {
		return c.Sim.Seed
	}
	return time.Now().UnixNano()
}

// LogLevel parses log.level; Validate has already rejected bad values.
func (c *Config) LogLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
