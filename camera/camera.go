// Package camera provides a 2D camera for viewing the simulated map.
//
// World coordinates are in map units with y pointing up; screen coordinates
// are in pixels with y pointing down.
package camera

// Camera controls the viewport into the simulation world.
// Supports pan and zoom within the world bounds.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom is screen pixels per world unit
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World dimensions (for clamping the camera center)
	WorldW, WorldH float32

	// Zoom constraints
	MinZoom, MaxZoom float32

	defaultZoom float32
}

// New creates a camera centered on the world at the given pixels per unit.
func New(viewportW, viewportH, worldW, worldH, pixelsPerUnit float32) *Camera {
	c := &Camera{
		ViewportW:   viewportW,
		ViewportH:   viewportH,
		WorldW:      worldW,
		WorldH:      worldH,
		defaultZoom: pixelsPerUnit,
	}
	c.updateZoomLimits()
	c.Reset()
	return c
}

// updateZoomLimits allows zooming out until the whole world fits with a
// margin, and in to a handful of voxels.
func (c *Camera) updateZoomLimits() {
	fit := c.FitZoom()
	c.MinZoom = min(fit*0.5, c.defaultZoom)
	c.MaxZoom = max(c.defaultZoom*16, fit)
}

// FitZoom returns the zoom at which the whole world fits the viewport.
func (c *Camera) FitZoom() float32 {
	if c.WorldW <= 0 || c.WorldH <= 0 {
		return c.defaultZoom
	}
	return min(c.ViewportW/c.WorldW, c.ViewportH/c.WorldH)
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.ViewportH/2 - (wy-c.Y)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	wx = c.X + (sx-c.ViewportW/2)/c.Zoom
	wy = c.Y - (sy-c.ViewportH/2)/c.Zoom
	return wx, wy
}

// IsVisible returns true if a world rectangle could be visible on screen
// (conservative check for culling).
func (c *Camera) IsVisible(minX, minY, maxX, maxY float32) bool {
	vMinX, vMinY, vMaxX, vMaxY := c.VisibleWorldBounds()
	return maxX >= vMinX && minX <= vMaxX && maxY >= vMinY && minY <= vMaxY
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.updateZoomLimits()
	c.SetZoom(c.Zoom)
}

// Pan moves the camera by the given delta in screen pixels.
// Positive dy moves the view down the screen, towards smaller world y.
func (c *Camera) Pan(dx, dy float32) {
	c.X = clamp(c.X+dx/c.Zoom, 0, c.WorldW)
	c.Y = clamp(c.Y-dy/c.Zoom, 0, c.WorldH)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt multiplies the zoom by factor while keeping the world point under
// screen position (sx, sy) fixed.
func (c *Camera) ZoomAt(factor, sx, sy float32) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.ZoomBy(factor)
	nx, ny := c.ScreenToWorld(sx, sy)
	c.X = clamp(c.X+wx-nx, 0, c.WorldW)
	c.Y = clamp(c.Y+wy-ny, 0, c.WorldH)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Y = c.WorldH / 2
	c.SetZoom(c.defaultZoom)
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
// Returns (minX, minY, maxX, maxY) in world coordinates.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)

	minX = c.X - halfW
	maxX = c.X + halfW
	minY = c.Y - halfH
	maxY = c.Y + halfH
	return
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
