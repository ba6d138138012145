package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/erga-labs/gemini-battle-sim/internal/battle"
	"github.com/erga-labs/gemini-battle-sim/internal/config"
	"github.com/erga-labs/gemini-battle-sim/internal/report"
	"github.com/erga-labs/gemini-battle-sim/internal/results"
	"github.com/erga-labs/gemini-battle-sim/internal/spawn"
)

type flags struct {
	runs       int
	frames     int
	seedBase   int64
	seedStep   int64
	scenario   string
	rosterPath string
	configPath string
	dbPath     string
	stopWhen   string
	verbose    bool
}

func main() {
	var f flags
	rootCmd := &cobra.Command{
		Use:   "headless-report",
		Short: "Run seeded headless battles and report outcomes",
		Long: `Runs a named scenario several times with consecutive seeds and prints
per-run statistics plus aggregate win rates. Results can be stored in a
SQLite database to accumulate win rates across invocations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			return run(cmd.Context(), os.Stdout, f)
		},
	}
	fl := rootCmd.Flags()
	fl.IntVar(&f.runs, "runs", 5, "number of headless simulation runs")
	fl.IntVar(&f.frames, "frames", 3600, "frame cap per run")
	fl.Int64Var(&f.seedBase, "seed-base", 42, "base RNG seed for run 1")
	fl.Int64Var(&f.seedStep, "seed-step", 1, "seed increment between runs")
	fl.StringVarP(&f.scenario, "scenario", "s", report.ScenarioSkirmish,
		"scenario name ("+strings.Join(report.Scenarios, ", ")+")")
	fl.StringVarP(&f.rosterPath, "roster", "r", "", "roster file for the roster scenario")
	fl.StringVarP(&f.configPath, "config", "c", "", "config file")
	fl.StringVar(&f.dbPath, "db", "", "SQLite results database (empty = do not store)")
	fl.StringVar(&f.stopWhen, "stop-when", "", `stop predicate, e.g. "AttackerTroops < 3 || Seconds > 60"`)
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "log each run")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, f flags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	logger := zerolog.Nop()
	if f.verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			Level(cfg.LogLevel()).
			With().Timestamp().Logger()
	}

	opts := report.Options{
		Scenario: f.scenario,
		Runs:     f.runs,
		Frames:   f.frames,
		SeedBase: f.seedBase,
		SeedStep: f.seedStep,
		Config:   cfg,
		Logger:   logger,
	}
	if f.rosterPath != "" {
		if opts.Roster, err = spawn.LoadFile(f.rosterPath); err != nil {
			return err
		}
	}
	if f.stopWhen != "" {
		if opts.Stop, err = report.CompileStop(f.stopWhen); err != nil {
			return err
		}
	}

	all, err := report.Run(opts)
	if err != nil {
		return err
	}

	title := color.New(color.FgCyan, color.Bold)
	title.Fprintln(w, "=== Headless Battle Report ===")
	fmt.Fprintf(w, "scenario=%s runs=%d frames=%d seed_base=%d seed_step=%d\n", f.scenario, f.runs, f.frames, f.seedBase, f.seedStep)
	if opts.Stop != nil {
		fmt.Fprintf(w, "stop_when=%q\n", opts.Stop.String())
	}
	fmt.Fprintln(w)

	printRuns(w, all)
	printAggregate(w, report.Summarize(all))

	if f.dbPath == "" {
		return nil
	}
	store, err := results.Open(f.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	id, err := store.Save(ctx, opts, all)
	if err != nil {
		return err
	}
	wr, err := store.WinRates(ctx, f.scenario)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	title.Fprintln(w, "=== Stored Results ===")
	fmt.Fprintf(w, "batch=%s db=%s\n", id, f.dbPath)
	fmt.Fprintf(w, "all_time: runs=%d attacker=%d defender=%d inconclusive=%d attacker_rate=%.0f%%\n",
		wr.Runs, wr.AttackerWins, wr.DefenderWins, wr.Inconclusive, wr.AttackerRate()*100)
	return nil
}

func printRuns(w io.Writer, all []report.RunStats) {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Run", "Seed", "Outcome", "Frames", "Seconds", "Attackers", "Defenders", "Walls", "Castle", "First Death", "Note"}),
	)
	for _, rs := range all {
		note := rs.Reason
		if stale, why := detectStalemate(rs); stale {
			note = why
		}
		if rs.Stopped {
			note = "stopped: " + note
		}
		table.Append([]string{
			fmt.Sprintf("%d", rs.RunIndex),
			fmt.Sprintf("%d", rs.Seed),
			outcomeLabel(rs.Outcome),
			fmt.Sprintf("%d", rs.Frames),
			fmt.Sprintf("%.1f", rs.Seconds),
			fmt.Sprintf("%d/%d", rs.AttackerSurvivors, rs.AttackerTotal),
			fmt.Sprintf("%d/%d", rs.DefenderSurvivors, rs.DefenderTotal),
			fmt.Sprintf("%d", rs.WallsStanding),
			fmt.Sprintf("%.0f", rs.CastleHealth),
			frameString(rs.FirstDeathFrame),
			note,
		})
	}
	table.Render()
}

func printAggregate(w io.Writer, s report.Summary) {
	fmt.Fprintln(w)
	color.New(color.FgCyan, color.Bold).Fprintln(w, "=== Aggregate ===")
	fmt.Fprintf(w, "runs=%d attacker_wins=%d defender_wins=%d inconclusive=%d\n",
		s.Runs, s.AttackerWins, s.DefenderWins, s.Inconclusive)
	fmt.Fprintf(w, "attacker_win_rate=%.0f%% defender_win_rate=%.0f%% median_finish=%s\n",
		s.AttackerWinRate*100, s.DefenderWinRate*100, secondsString(s.MedianFinishSeconds))
	fmt.Fprintf(w, "avg_survival: attacker=%.0f%% defender=%.0f%%\n",
		s.AvgAttackerSurvival*100, s.AvgDefenderSurvival*100)
}

func outcomeLabel(o battle.BattleOutcome) string {
	switch o {
	case battle.OutcomeAttackerVictory:
		return color.RedString(o.String())
	case battle.OutcomeDefenderVictory:
		return color.BlueString(o.String())
	default:
		return color.YellowString(o.String())
	}
}

// detectStalemate flags inconclusive runs where both sides kept most of
// their troops and the defences were barely scratched.
func detectStalemate(rs report.RunStats) (bool, string) {
	if rs.Outcome != battle.OutcomeInconclusive || rs.AttackerTotal == 0 || rs.DefenderTotal == 0 {
		return false, ""
	}
	attSurv := float64(rs.AttackerSurvivors) / float64(rs.AttackerTotal)
	defSurv := float64(rs.DefenderSurvivors) / float64(rs.DefenderTotal)
	if attSurv < 0.6 || defSurv < 0.6 {
		return false, "attrition"
	}
	if rs.FirstWallFrame >= 0 {
		return false, "breach"
	}
	return true, fmt.Sprintf("stalemate: high_mutual_survival att=%.2f def=%.2f", attSurv, defSurv)
}

func frameString(f int) string {
	if f < 0 {
		return "n/a"
	}
	return fmt.Sprintf("%d", f)
}

func secondsString(s float64) string {
	if s <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1fs", s)
}
