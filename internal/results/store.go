// Package results persists headless batch runs to SQLite through GORM.
package results

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/erga-labs/gemini-battle-sim/internal/battle"
	"github.com/erga-labs/gemini-battle-sim/internal/report"
)

// Batch groups the runs of one headless invocation.
type Batch struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	Scenario  string `gorm:"index"`
	Runs      int
	Frames    int
	StopWhen  string
	Records   []RunRecord `gorm:"foreignKey:BatchID"`
}

// RunRecord is one persisted run.
type RunRecord struct {
	ID       string `gorm:"primaryKey;size:36"`
	BatchID  string `gorm:"index;size:36"`
	Scenario string `gorm:"index"`
	RunIndex int
	Seed     int64
	Outcome  string `gorm:"index"`
	Reason   string
	Frames   int
	Seconds  float64
	Stopped  bool

	AttackerSurvivors int
	AttackerTotal     int
	DefenderSurvivors int
	DefenderTotal     int
	WallsStanding     int
	CastleHealth      float64
	FirstDeathFrame   int
}

// WinRate is the aggregated outcome split of a scenario across every stored batch.
type WinRate struct {
	Scenario     string
	Runs         int
	AttackerWins int
	DefenderWins int
	Inconclusive int
}

// AttackerRate is the attacker share of stored runs.
func (w WinRate) AttackerRate() float64 {
	if w.Runs == 0 {
		return 0
	}
	return float64(w.AttackerWins) / float64(w.Runs)
}

// Store wraps the results database.
type Store struct {
	db *gorm.DB
}

// Open connects to the SQLite database at path and migrates the schema.
// "file::memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open results db %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	// every pooled connection to file::memory: would see its own empty database
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&Batch{}, &RunRecord{}); err != nil {
		return nil, fmt.Errorf("migrate results db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save stores a batch and its runs in one transaction and returns the batch id.
func (s *Store) Save(ctx context.Context, opts report.Options, runs []report.RunStats) (string, error) {
	batch := Batch{
		ID:       uuid.NewString(),
		Scenario: opts.Scenario,
		Runs:     len(runs),
		Frames:   opts.Frames,
	}
	if opts.Stop != nil {
		batch.StopWhen = opts.Stop.String()
	}
	for _, rs := range runs {
		batch.Records = append(batch.Records, RunRecord{
			ID:                uuid.NewString(),
			BatchID:           batch.ID,
			Scenario:          opts.Scenario,
			RunIndex:          rs.RunIndex,
			Seed:              rs.Seed,
			Outcome:           rs.Outcome.String(),
			Reason:            rs.Reason,
			Frames:            rs.Frames,
			Seconds:           rs.Seconds,
			Stopped:           rs.Stopped,
			AttackerSurvivors: rs.AttackerSurvivors,
			AttackerTotal:     rs.AttackerTotal,
			DefenderSurvivors: rs.DefenderSurvivors,
			DefenderTotal:     rs.DefenderTotal,
			WallsStanding:     rs.WallsStanding,
			CastleHealth:      rs.CastleHealth,
			FirstDeathFrame:   rs.FirstDeathFrame,
		})
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&batch).Error
	})
	if err != nil {
		return "", fmt.Errorf("save batch: %w", err)
	}
	return batch.ID, nil
}

// Runs lists the stored runs of a batch in run order.
func (s *Store) Runs(ctx context.Context, batchID string) ([]RunRecord, error) {
	var out []RunRecord
	err := s.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("run_index").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

// List lists stored batches for a scenario, newest first. An empty
// scenario lists all of them.
func (s *Store) List(ctx context.Context, scenario string) ([]Batch, error) {
	q := s.db.WithContext(ctx).Order("created_at desc")
	if scenario != "" {
		q = q.Where("scenario = ?", scenario)
	}
	var out []Batch
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return out, nil
}

// WinRates aggregates the outcome split of every stored run of a scenario.
func (s *Store) WinRates(ctx context.Context, scenario string) (WinRate, error) {
	type row struct {
		Outcome string
		N       int
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&RunRecord{}).
		Select("outcome, count(*) as n").
		Where("scenario = ?", scenario).
		Group("outcome").
		Scan(&rows).Error
	if err != nil {
		return WinRate{}, fmt.Errorf("win rates: %w", err)
	}
	wr := WinRate{Scenario: scenario}
	for _, r := range rows {
		wr.Runs += r.N
		switch r.Outcome {
		case battle.OutcomeAttackerVictory.String():
			wr.AttackerWins += r.N
		case battle.OutcomeDefenderVictory.String():
			wr.DefenderWins += r.N
		default:
			wr.Inconclusive += r.N
		}
	}
	return wr, nil
}
