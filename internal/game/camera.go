package game

import (
	"math"

	"github.com/erga-labs/gemini-battle-sim/internal/battle"
)

// Zoom is measured in screen pixels per world unit.
const (
	zoomMin     = 10.0
	zoomMax     = 40.0
	zoomStep    = 1.12 // per wheel notch
	zoomKeyStep = 1.25
	panPixels   = 6.0 // per tick, at any zoom
)

// camera maps world units to screen pixels around a centre point.
type camera struct {
	x, y   float64 // world-space centre
	zoom   float64
	vw, vh float64 // viewport size in pixels
	ww, wh float64 // world size, for clamping
}

func newCamera(worldW, worldH, viewW, viewH float64) camera {
	return camera{x: worldW / 2, y: worldH / 2, zoom: zoomMin, vw: viewW, vh: viewH, ww: worldW, wh: worldH}
}

func (c *camera) pan(dxPixels, dyPixels float64) {
	c.x += dxPixels / c.zoom
	c.y += dyPixels / c.zoom
	c.clamp()
}

// zoomBy multiplies the zoom factor, bounded to [zoomMin, zoomMax].
func (c *camera) zoomBy(f float64) {
	c.zoom *= f
	c.clamp()
}

func (c *camera) clamp() {
	c.zoom = math.Max(zoomMin, math.Min(zoomMax, c.zoom))
	c.x = math.Max(0, math.Min(c.ww, c.x))
	c.y = math.Max(0, math.Min(c.wh, c.y))
}

// toScreen is the inverse of toWorld:
//
//	screen = (world - cam) * zoom + viewport/2
func (c *camera) toScreen(p battle.Vec2) (float32, float32) {
	return float32((p.X-c.x)*c.zoom + c.vw/2), float32((p.Y-c.y)*c.zoom + c.vh/2)
}

func (c *camera) toWorld(sx, sy int) battle.Vec2 {
	return battle.V((float64(sx)-c.vw/2)/c.zoom+c.x, (float64(sy)-c.vh/2)/c.zoom+c.y)
}
