package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNew(t *testing.T) {
	cam := New(1280, 720, 24, 16, 32)

	// Should be centered on world
	if cam.X != 12 || cam.Y != 8 {
		t.Errorf("expected camera at (12, 8), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 32 {
		t.Errorf("expected zoom 32, got %f", cam.Zoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 720, 24, 16, 32)

	// Camera center should map to screen center
	sx, sy := cam.WorldToScreen(12, 8)
	if !near(sx, 640) || !near(sy, 360) {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
}

func TestWorldYPointsUp(t *testing.T) {
	cam := New(1280, 720, 24, 16, 32)

	_, above := cam.WorldToScreen(12, 9)
	_, below := cam.WorldToScreen(12, 7)
	if above >= 360 || below <= 360 {
		t.Errorf("expected larger world y higher on screen, got above=%f below=%f", above, below)
	}
	if !near(360-above, 32) {
		t.Errorf("expected one unit to span 32 pixels, got %f", 360-above)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 24, 16, 32)
	cam.Pan(37, -12)
	cam.ZoomBy(1.7)

	// Test roundtrip at various positions
	testCases := []struct{ sx, sy float32 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPanClampsToWorld(t *testing.T) {
	cam := New(1280, 720, 24, 16, 32)

	cam.Pan(-10000, 0)
	if cam.X != 0 {
		t.Errorf("expected X clamped to 0, got %f", cam.X)
	}

	// Dragging the view down the screen looks at lower world y
	cam.Reset()
	cam.Pan(0, 64)
	if !near(cam.Y, 6) {
		t.Errorf("expected Y 6 after panning 64px down, got %f", cam.Y)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720, 24, 16, 32)

	cam.SetZoom(0.001)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to min %f, got %f", cam.MinZoom, cam.Zoom)
	}

	cam.SetZoom(1e6)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to max %f, got %f", cam.MaxZoom, cam.Zoom)
	}

	// Whole world must remain reachable
	if cam.MinZoom > cam.FitZoom() {
		t.Errorf("min zoom %f cannot show the whole world (fit %f)", cam.MinZoom, cam.FitZoom())
	}
}

func TestZoomAtKeepsCursorFixed(t *testing.T) {
	cam := New(1280, 720, 24, 16, 32)

	wx, wy := cam.ScreenToWorld(900, 200)
	cam.ZoomAt(2, 900, 200)
	if cam.Zoom != 64 {
		t.Fatalf("expected zoom 64, got %f", cam.Zoom)
	}
	sx, sy := cam.WorldToScreen(wx, wy)
	if !near(sx, 900) || !near(sy, 200) {
		t.Errorf("expected (%f,%f) to stay at (900,200), got (%f,%f)", wx, wy, sx, sy)
	}
}

func TestVisibleWorldBounds(t *testing.T) {
	cam := New(1280, 720, 24, 16, 32)
	cam.SetZoom(64)

	minX, minY, maxX, maxY := cam.VisibleWorldBounds()
	if !near(minX, 2) || !near(maxX, 22) || !near(minY, 2.375) || !near(maxY, 13.625) {
		t.Errorf("unexpected bounds (%f,%f)-(%f,%f)", minX, minY, maxX, maxY)
	}

	if !cam.IsVisible(0, 0, 3, 3) {
		t.Error("expected rectangle overlapping the view to be visible")
	}
	if cam.IsVisible(22.5, 0, 23, 1) {
		t.Error("expected rectangle outside the view to be culled")
	}
}

func TestResizeKeepsZoomInRange(t *testing.T) {
	cam := New(1280, 720, 24, 16, 32)
	cam.SetZoom(cam.MinZoom)

	cam.Resize(2560, 1440)
	if cam.Zoom < cam.MinZoom || cam.Zoom > cam.MaxZoom {
		t.Errorf("zoom %f outside [%f,%f] after resize", cam.Zoom, cam.MinZoom, cam.MaxZoom)
	}
}
