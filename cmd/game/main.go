package main

import (
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/erga-labs/gemini-battle-sim/internal/config"
	"github.com/erga-labs/gemini-battle-sim/internal/game"
	"github.com/erga-labs/gemini-battle-sim/internal/spawn"
)

var (
	configPath string
	rosterPath string
	seed       int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "game",
		Short: "Battalion battle simulator",
		Long: `Opens the battlefield window and runs the battle once a roster is available.
Without --roster the built-in demo roster is used.`,
		RunE: run,
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (yaml, json or toml)")
	rootCmd.Flags().StringVarP(&rosterPath, "roster", "r", "", "roster file (json or yaml)")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "hit-roll seed (0 = sim.seed from config)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(cfg.LogLevel()).
		With().Timestamp().Logger()

	var source game.RosterSource = game.StaticRoster{Roster: spawn.Demo(cfg.World.Width, cfg.World.Height)}
	if rosterPath != "" {
		source = game.FileRoster{Path: rosterPath}
	}
	opts := []game.Option{game.WithLogger(logger)}
	if seed != 0 {
		opts = append(opts, game.WithSeed(seed))
	}

	ebiten.SetWindowTitle("Battle Sim")
	ebiten.SetWindowSize(game.ScreenWidth, game.ScreenHeight)
	ebiten.SetTPS(int(cfg.Sim.FPS))
	cmd.SilenceUsage = true
	return ebiten.RunGame(game.New(cfg, source, opts...))
}
