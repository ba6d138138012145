package game

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"

	"github.com/erga-labs/gemini-battle-sim/internal/battle"
	"github.com/erga-labs/gemini-battle-sim/internal/config"
)

// Window size in pixels.
const (
	ScreenWidth  = 1280
	ScreenHeight = 720
)

// State is the host-level game state. The battle core never sees it; pausing
// just means the host stops stepping the handler.
type State int

const (
	StateLoading State = iota
	StateRunSimulation
	StatePauseSimulation
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateRunSimulation:
		return "running"
	case StatePauseSimulation:
		return "paused"
	default:
		return "unknown"
	}
}

// simSpeeds are the selectable multipliers of the fixed simulation step rate.
var simSpeeds = []float64{0.5, 1, 2, 4}

const defaultSpeedIdx = 1

type Game struct {
	cfg    *config.Config
	log    zerolog.Logger
	source RosterSource

	state    State
	handler  *battle.Handler
	journal  *battle.Journal
	dt       float64
	seed     int64
	speedIdx int
	accum    float64 // fractional frames owed at sub-1x speeds

	finished bool
	winner   battle.Allegiance

	selected    battle.Ref
	cam         camera
	copyText    func(string) error
	lastDetails string
}

// Option configures a Game.
type Option func(*Game)

// WithLogger routes host and handler logs to l.
func WithLogger(l zerolog.Logger) Option { return func(g *Game) { g.log = l } }

// WithSeed fixes the hit-roll seed instead of taking it from the config.
func WithSeed(seed int64) Option { return func(g *Game) { g.seed = seed } }

// WithClipboard replaces the system clipboard writer.
func WithClipboard(fn func(string) error) Option { return func(g *Game) { g.copyText = fn } }

// New creates a game that starts in StateLoading and waits for source.
func New(cfg *config.Config, source RosterSource, opts ...Option) *Game {
	g := &Game{
		cfg:      cfg,
		log:      zerolog.Nop(),
		source:   source,
		state:    StateLoading,
		dt:       cfg.FrameDelta(),
		seed:     cfg.Seed(),
		speedIdx: defaultSpeedIdx,
		cam:      newCamera(cfg.World.Width, cfg.World.Height, ScreenWidth, ScreenHeight),
		copyText: clipboard.WriteAll,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Game) State() State { return g.state }

func (g *Game) Handler() *battle.Handler { return g.handler }

func (g *Game) Journal() *battle.Journal { return g.journal }

// Speed is the current simulation speed multiplier.
func (g *Game) Speed() float64 { return simSpeeds[g.speedIdx] }

// Finished reports the winner once the battle is decided.
func (g *Game) Finished() (battle.Allegiance, bool) { return g.winner, g.finished }

// Selected returns the battalion the info panel shows, if it still exists.
func (g *Game) Selected() (*battle.Battalion, bool) { return g.selected.Get() }

func (g *Game) Update() error {
	g.handleInput()
	return g.tick()
}

// tick advances the host by one ebiten update.
func (g *Game) tick() error {
	switch g.state {
	case StateLoading:
		return g.load()
	case StateRunSimulation:
		if g.finished {
			return nil
		}
		g.accum += g.Speed()
		for g.accum >= 1 && !g.finished {
			g.accum--
			g.stepFrame()
		}
	}
	return nil
}

func (g *Game) load() error {
	roster, ready, err := g.source.Poll()
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	if !ready {
		return nil
	}
	g.journal = battle.NewJournal(false)
	g.handler = battle.NewHandler(g.cfg.BattleRules(),
		battle.WithSeed(g.seed),
		battle.WithLogger(g.log),
		battle.WithJournal(g.journal),
		battle.WithFortifications(g.cfg.BuildFortifications()),
	)
	if err := roster.Spawn(g.handler); err != nil {
		return fmt.Errorf("spawn roster: %w", err)
	}
	g.state = StateRunSimulation
	g.log.Info().
		Int("attackers", len(roster.Attackers)).
		Int("defenders", len(roster.Defenders)).
		Int64("seed", g.seed).
		Msg("roster loaded")
	return nil
}

// stepFrame runs one fixed simulation frame and polls the win condition.
func (g *Game) stepFrame() {
	g.handler.Step(g.dt)
	g.handler.RemoveDead()
	if winner, done := g.handler.IsGameFinished(); done {
		g.finished, g.winner = true, winner
		g.log.Info().Str("winner", winner.String()).Int("frame", g.handler.Frame()).Msg("battle finished")
	}
}

// TogglePause switches between running and paused. It has no effect while
// loading.
func (g *Game) TogglePause() {
	switch g.state {
	case StateRunSimulation:
		g.state = StatePauseSimulation
	case StatePauseSimulation:
		g.state = StateRunSimulation
	}
}

func (g *Game) SpeedUp() {
	if g.speedIdx < len(simSpeeds)-1 {
		g.speedIdx++
	}
}

func (g *Game) SlowDown() {
	if g.speedIdx > 0 {
		g.speedIdx--
	}
}

// SelectAt selects the battalion nearest to the world point p within the
// configured threshold, or clears the selection.
func (g *Game) SelectAt(p battle.Vec2) bool {
	if g.handler == nil {
		return false
	}
	g.selected = g.handler.SelectBattalion(p, g.cfg.Sim.SelectThreshold)
	_, ok := g.selected.Get()
	return ok
}

// DumpDetails copies the battalion overview to the clipboard, followed by the
// journal history of the selected battalion when there is one.
func (g *Game) DumpDetails() string {
	if g.handler == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(g.handler.PrintDetails())
	if b, ok := g.Selected(); ok {
		fmt.Fprintf(&sb, "\nHistory %s\n", b.Label())
		for _, e := range g.journal.FilterBattalion(b.Label()) {
			sb.WriteString(e.String())
			sb.WriteByte('\n')
		}
	}
	g.lastDetails = sb.String()
	if err := g.copyText(g.lastDetails); err != nil {
		g.log.Warn().Err(err).Msg("clipboard unavailable")
	}
	return g.lastDetails
}

func (g *Game) Layout(_, _ int) (int, int) {
	return ScreenWidth, ScreenHeight
}
