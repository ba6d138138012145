package game

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/erga-labs/gemini-battle-sim/internal/battle"
	"github.com/erga-labs/gemini-battle-sim/internal/config"
	"github.com/erga-labs/gemini-battle-sim/internal/spawn"
)

func newTestGame(t *testing.T, r *spawn.Roster, edit func(*config.Config)) *Game {
	t.Helper()
	cfg := config.Default()
	if edit != nil {
		edit(cfg)
	}
	return New(cfg, StaticRoster{Roster: r}, WithSeed(1), WithClipboard(func(string) error { return nil }))
}

func loaded(t *testing.T, edit func(*config.Config)) *Game {
	t.Helper()
	g := newTestGame(t, spawn.Demo(80, 45), edit)
	if err := g.tick(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if g.State() != StateRunSimulation {
		t.Fatalf("expected running after load, got %s", g.State())
	}
	return g
}

func TestLoading_WaitsForRoster(t *testing.T) {
	polls := 0
	src := RosterFunc(func() (*spawn.Roster, bool, error) {
		polls++
		if polls < 3 {
			return nil, false, nil
		}
		return spawn.Demo(80, 45), true, nil
	})
	g := New(config.Default(), src, WithSeed(1))
	for i := 0; i < 2; i++ {
		if err := g.tick(); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if g.State() != StateLoading || g.Handler() != nil {
			t.Fatalf("tick %d: should still be loading", i)
		}
	}
	if err := g.tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if g.State() != StateRunSimulation {
		t.Fatalf("expected running, got %s", g.State())
	}
	if got := len(g.Handler().Battalions(battle.Attacker)); got != 2 {
		t.Fatalf("expected 2 attacker battalions, got %d", got)
	}
	if g.Handler().Frame() != 0 {
		t.Fatalf("the loading tick should not step the simulation")
	}
}

func TestLoading_ErrorStopsGame(t *testing.T) {
	boom := errors.New("bridge down")
	g := New(config.Default(), RosterFunc(func() (*spawn.Roster, bool, error) { return nil, false, boom }))
	if err := g.tick(); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
}

func TestLoading_MissingFile(t *testing.T) {
	g := New(config.Default(), FileRoster{Path: t.TempDir() + "/missing.json"})
	if err := g.tick(); err == nil {
		t.Fatalf("expected error for a missing roster file")
	}
}

func TestTogglePause_IgnoredWhileLoading(t *testing.T) {
	g := newTestGame(t, nil, nil)
	g.TogglePause()
	if g.State() != StateLoading {
		t.Fatalf("pause should not leave loading, got %s", g.State())
	}
}

func TestPause_StopsStepping(t *testing.T) {
	g := loaded(t, nil)
	_ = g.tick()
	if g.Handler().Frame() != 1 {
		t.Fatalf("expected frame 1, got %d", g.Handler().Frame())
	}
	g.TogglePause()
	for i := 0; i < 10; i++ {
		_ = g.tick()
	}
	if g.State() != StatePauseSimulation || g.Handler().Frame() != 1 {
		t.Fatalf("paused game advanced to frame %d (%s)", g.Handler().Frame(), g.State())
	}
	g.TogglePause()
	_ = g.tick()
	if g.Handler().Frame() != 2 {
		t.Fatalf("expected frame 2 after resume, got %d", g.Handler().Frame())
	}
}

func TestSpeed_FramesPerTick(t *testing.T) {
	g := loaded(t, nil)

	g.SlowDown()
	if g.Speed() != 0.5 {
		t.Fatalf("expected 0.5x, got %v", g.Speed())
	}
	g.SlowDown()
	if g.Speed() != 0.5 {
		t.Fatalf("speed should floor at 0.5x, got %v", g.Speed())
	}
	_ = g.tick()
	_ = g.tick()
	if g.Handler().Frame() != 1 {
		t.Fatalf("two ticks at 0.5x should run one frame, got %d", g.Handler().Frame())
	}

	for i := 0; i < 5; i++ {
		g.SpeedUp()
	}
	if g.Speed() != 4 {
		t.Fatalf("speed should cap at 4x, got %v", g.Speed())
	}
	_ = g.tick()
	if g.Handler().Frame() != 5 {
		t.Fatalf("one tick at 4x should run four frames, got %d", g.Handler().Frame())
	}
}

func TestFinished_StopsStepping(t *testing.T) {
	r := &spawn.Roster{
		Attackers: []battle.SpawnInfo{{ID: 1, Type: battle.Warrior, Troops: []battle.Vec2{battle.V(10, 10)}}},
	}
	g := newTestGame(t, r, func(c *config.Config) { c.Fortifications.Enabled = false })
	_ = g.tick()
	_ = g.tick()
	winner, ok := g.Finished()
	if !ok || winner != battle.Attacker {
		t.Fatalf("expected attacker victory, got %s %v", winner, ok)
	}
	frame := g.Handler().Frame()
	_ = g.tick()
	if g.Handler().Frame() != frame {
		t.Fatalf("finished game kept stepping")
	}
}

func TestSelectAndDump(t *testing.T) {
	var copied string
	g := newTestGame(t, spawn.Demo(80, 45), nil)
	g.copyText = func(s string) error { copied = s; return nil }
	if g.SelectAt(battle.V(40, 22.5)) {
		t.Fatalf("selection before load should fail")
	}
	_ = g.tick()

	if !g.SelectAt(battle.V(41, 23)) {
		t.Fatalf("expected a battalion near (41,23)")
	}
	b, ok := g.Selected()
	if !ok || b.ID() != 1 {
		t.Fatalf("expected battalion 1 selected, got %v", b)
	}
	if g.SelectAt(battle.V(5, 40)) {
		t.Fatalf("far click should clear the selection")
	}
	if _, ok := g.Selected(); ok {
		t.Fatalf("selection should be cleared")
	}

	out := g.DumpDetails()
	if out == "" || copied != out || !strings.HasPrefix(out, "Overview") {
		t.Fatalf("dump not copied: %q", copied)
	}
}

func TestDump_IncludesSelectedHistory(t *testing.T) {
	g := loaded(t, nil)
	if !g.SelectAt(battle.V(41, 23)) {
		t.Fatalf("expected a battalion near (41,23)")
	}
	b, _ := g.Selected()
	out := g.DumpDetails()
	if !strings.Contains(out, "History "+b.Label()) {
		t.Fatalf("selected battalion history missing:\n%s", out)
	}
	if !strings.Contains(out, battle.CatSpawn) {
		t.Fatalf("spawn entry missing from history:\n%s", out)
	}
}

func TestDump_ClipboardFailureIsNotFatal(t *testing.T) {
	g := loaded(t, nil)
	g.copyText = func(string) error { return errors.New("no display") }
	if g.DumpDetails() == "" {
		t.Fatalf("details should still be returned")
	}
}

func TestCamera_ZoomBounds(t *testing.T) {
	c := newCamera(80, 45, ScreenWidth, ScreenHeight)
	if c.zoom != zoomMin || c.x != 40 || c.y != 22.5 {
		t.Fatalf("unexpected initial camera %+v", c)
	}
	c.zoomBy(100)
	if c.zoom != zoomMax {
		t.Fatalf("zoom should cap at %v, got %v", zoomMax, c.zoom)
	}
	c.zoomBy(0.001)
	if c.zoom != zoomMin {
		t.Fatalf("zoom should floor at %v, got %v", zoomMin, c.zoom)
	}
	c.pan(-1e6, 1e6)
	if c.x != 0 || c.y != 45 {
		t.Fatalf("camera centre should stay on the world, got %.1f,%.1f", c.x, c.y)
	}
}

func TestCamera_RoundTrip(t *testing.T) {
	c := newCamera(80, 45, ScreenWidth, ScreenHeight)
	c.zoomBy(2)
	sx, sy := c.toScreen(battle.V(30, 20))
	p := c.toWorld(int(math.Round(float64(sx))), int(math.Round(float64(sy))))
	if p.Dist(battle.V(30, 20)) > 1/c.zoom {
		t.Fatalf("round trip drifted to %v", p)
	}
	if centre := c.toWorld(ScreenWidth/2, ScreenHeight/2); centre.Dist(battle.V(40, 22.5)) > 1e-9 {
		t.Fatalf("viewport centre should map to the camera centre, got %v", centre)
	}
}

func TestStructureColor_DamageBands(t *testing.T) {
	intact := structureColor(false, 1)
	if structureColor(false, 0.7) != intact {
		t.Fatalf("70%% health should still look intact")
	}
	if structureColor(false, 0.5) == intact || structureColor(false, 0.2) == structureColor(false, 0.5) {
		t.Fatalf("damage bands should differ")
	}
}
