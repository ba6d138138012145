package game

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// handleInput processes camera, speed, selection and dump keys.
func (g *Game) handleInput() {
	// Camera pan: WASD or arrow keys.
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.cam.pan(0, -panPixels)
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.cam.pan(0, panPixels)
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.cam.pan(-panPixels, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.cam.pan(panPixels, 0)
	}

	// Camera zoom: mouse wheel or =/- keys.
	if _, wy := ebiten.Wheel(); wy != 0 {
		g.cam.zoomBy(math.Pow(zoomStep, wy))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) {
		g.cam.zoomBy(zoomKeyStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) {
		g.cam.zoomBy(1 / zoomKeyStep)
	}

	// Sim speed controls: P=pause/resume, ,=slower, .=faster.
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.TogglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyComma) {
		g.SlowDown()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPeriod) {
		g.SpeedUp()
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		g.SelectAt(g.cam.toWorld(mx, my))
	}

	// X: overview to log and clipboard.
	if inpututil.IsKeyJustPressed(ebiten.KeyX) {
		g.DumpDetails()
	}
}
