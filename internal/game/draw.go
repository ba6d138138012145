package game

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/erga-labs/gemini-battle-sim/internal/battle"
)

const (
	troopRadius = 0.35 // world units
	lineH       = 15
	panelPad    = 6
)

var (
	groundCol   = color.RGBA{R: 58, G: 84, B: 48, A: 255}
	boundsCol   = color.RGBA{R: 65, G: 90, B: 65, A: 255}
	panelCol    = color.RGBA{R: 6, G: 10, B: 6, A: 210}
	panelEdge   = color.RGBA{R: 60, G: 100, B: 60, A: 180}
	selectedCol = color.RGBA{R: 255, G: 230, B: 90, A: 255}
	textCol     = color.RGBA{R: 220, G: 230, B: 220, A: 255}
)

// sideColors[side][anim]
var sideColors = [2][3]color.RGBA{
	battle.Attacker: {
		battle.AnimIdle:      {R: 170, G: 50, B: 50, A: 255},
		battle.AnimMoving:    {R: 210, G: 70, B: 60, A: 255},
		battle.AnimAttacking: {R: 255, G: 110, B: 80, A: 255},
	},
	battle.Defender: {
		battle.AnimIdle:      {R: 50, G: 80, B: 170, A: 255},
		battle.AnimMoving:    {R: 60, G: 110, B: 210, A: 255},
		battle.AnimAttacking: {R: 90, G: 150, B: 255, A: 255},
	},
}

// structureColor darkens with damage: intact, below 66% and below 33%.
func structureColor(castle bool, health float64) color.RGBA {
	base := color.RGBA{R: 140, G: 135, B: 125, A: 255}
	if castle {
		base = color.RGBA{R: 165, G: 150, B: 120, A: 255}
	}
	switch {
	case health < 0.33:
		return color.RGBA{R: base.R / 2, G: base.G / 3, B: base.B / 3, A: 255}
	case health < 0.66:
		return color.RGBA{R: base.R * 3 / 4, G: base.G * 3 / 4, B: base.B * 3 / 4, A: 255}
	}
	return base
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 12, G: 14, B: 12, A: 255})

	if g.state == StateLoading {
		text.Draw(screen, "Waiting for roster...", basicfont.Face7x13, ScreenWidth/2-70, ScreenHeight/2, textCol)
		return
	}

	g.drawWorld(screen)
	g.drawHUD(screen)
	g.drawInfoPanel(screen)
	if winner, ok := g.Finished(); ok {
		g.drawBanner(screen, fmt.Sprintf("%s victory", titleCase(winner.String())))
	}
}

func (g *Game) drawWorld(screen *ebiten.Image) {
	x0, y0 := g.cam.toScreen(battle.V(0, 0))
	x1, y1 := g.cam.toScreen(battle.V(g.cfg.World.Width, g.cfg.World.Height))
	vector.FillRect(screen, x0, y0, x1-x0, y1-y0, groundCol, false)
	vector.StrokeRect(screen, x0-1, y0-1, x1-x0+2, y1-y0+2, 2, boundsCol, false)

	for _, s := range g.handler.StructureViews() {
		sx, sy := g.cam.toScreen(battle.V(s.Box.X, s.Box.Y))
		w := float32(s.Box.W * g.cam.zoom)
		h := float32(s.Box.H * g.cam.zoom)
		vector.FillRect(screen, sx, sy, w, h, structureColor(s.Castle, s.Health), false)
		vector.StrokeRect(screen, sx, sy, w, h, 1, color.RGBA{R: 30, G: 30, B: 30, A: 255}, false)
	}

	r := float32(troopRadius * g.cam.zoom)
	for _, b := range g.handler.Views(g.selected) {
		for _, t := range b.Troops {
			tx, ty := g.cam.toScreen(t.Position)
			vector.FillCircle(screen, tx, ty, r, sideColors[b.Side][t.Anim], true)
			if b.Type == battle.Archer {
				vector.StrokeCircle(screen, tx, ty, r, 1, color.RGBA{R: 20, G: 20, B: 20, A: 200}, true)
			}
		}
		cx, cy := g.cam.toScreen(b.Center)
		rad := b.Rotation * math.Pi / 180
		hx := cx + float32(math.Cos(rad))*r*3
		hy := cy + float32(math.Sin(rad))*r*3
		vector.StrokeLine(screen, cx, cy, hx, hy, 1.5, color.RGBA{R: 240, G: 240, B: 240, A: 160}, true)
		if b.Selected {
			vector.StrokeCircle(screen, cx, cy, r*5, 2, selectedCol, true)
		}
	}
}

// drawPanel draws a bordered text box with its top-left corner at x, y.
func drawPanel(screen *ebiten.Image, x, y int, lines []string) {
	maxLen := 0
	for _, l := range lines {
		if len(l) > maxLen {
			maxLen = len(l)
		}
	}
	w := float32(maxLen*7 + panelPad*2)
	h := float32(len(lines)*lineH + panelPad*2)
	vector.FillRect(screen, float32(x), float32(y), w, h, panelCol, false)
	vector.StrokeRect(screen, float32(x), float32(y), w, h, 1, panelEdge, false)
	for i, l := range lines {
		text.Draw(screen, l, basicfont.Face7x13, x+panelPad, y+panelPad+(i+1)*lineH-3, textCol)
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	speed := fmt.Sprintf("%gx", g.Speed())
	if g.state == StatePauseSimulation {
		speed = "PAUSED"
	}
	h := g.handler
	lines := []string{
		fmt.Sprintf("SIM: %s  P=pause  ,/. speed", speed),
		fmt.Sprintf("frame %d  t=%.1fs", h.Frame(), float64(h.Frame())*g.dt),
		fmt.Sprintf("attackers %d/%d  defenders %d/%d",
			h.TroopCount(battle.Attacker), h.SpawnedTroops(battle.Attacker),
			h.TroopCount(battle.Defender), h.SpawnedTroops(battle.Defender)),
		fmt.Sprintf("zoom %.1f  WASD=pan  scroll=zoom", g.cam.zoom),
		"click=select  X=dump details",
	}
	drawPanel(screen, 8, ScreenHeight-8-len(lines)*lineH-panelPad*2, lines)
}

func (g *Game) drawInfoPanel(screen *ebiten.Image) {
	b, ok := g.selected.Get()
	if !ok {
		return
	}
	d := b.Describe()
	lines := []string{
		fmt.Sprintf("Id: %d", d.ID),
		fmt.Sprintf("Group: %s", titleCase(d.Side.String())),
		fmt.Sprintf("Type: %s", titleCase(d.Type.String())),
		fmt.Sprintf("Health: %.0f%%", d.HealthFraction*100),
		fmt.Sprintf("Count: %d/%d", d.Troops, d.InitialTroops),
		fmt.Sprintf("Lookout: %.2f", d.LookoutRatio),
	}
	drawPanel(screen, ScreenWidth-200, 8, lines)
}

func (g *Game) drawBanner(screen *ebiten.Image, msg string) {
	w := len(msg)*7 + 40
	x := ScreenWidth/2 - w/2
	vector.FillRect(screen, float32(x), ScreenHeight/2-24, float32(w), 40, panelCol, false)
	vector.StrokeRect(screen, float32(x), ScreenHeight/2-24, float32(w), 40, 2, selectedCol, false)
	text.Draw(screen, msg, basicfont.Face7x13, x+20, ScreenHeight/2, selectedCol)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
