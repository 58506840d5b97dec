package renderer

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedColormapIsSymmetric(t *testing.T) {
	cm := SignedColormap()
	require.Len(t, cm, colormapSize)

	neg := cm.At(0)
	pos := cm.At(1)
	mid := cm.At(0.5)

	// Blue for negative pressure, red for positive
	assert.Greater(t, neg.B, neg.R)
	assert.Greater(t, pos.R, pos.B)
	// Silence is the lightest entry
	assert.Greater(t, int(mid.G), int(neg.G))
	assert.Greater(t, int(mid.G), int(pos.G))
}

func TestMagnitudeColormapBrightens(t *testing.T) {
	cm := MagnitudeColormap()
	lo := cm.At(0)
	hi := cm.At(1)
	assert.Less(t, int(lo.R)+int(lo.G)+int(lo.B), int(hi.R)+int(hi.G)+int(hi.B))
	assert.Equal(t, color.RGBA{A: 255}, lo, "silence is black")
}

func TestColormapClamps(t *testing.T) {
	cm := MagnitudeColormap()
	assert.Equal(t, cm[0], cm.At(-3))
	assert.Equal(t, cm[0], cm.At(math.NaN()))
	assert.Equal(t, cm[len(cm)-1], cm.At(7))
}

func TestColorize(t *testing.T) {
	cm := SignedColormap()
	values := []float64{-2, 0, 2, math.NaN()}
	dst := make([]color.RGBA, len(values))

	Colorize(dst, values, 2, cm, true)

	assert.Equal(t, cm.At(0), dst[0])
	assert.Equal(t, cm.At(0.5), dst[1])
	assert.Equal(t, cm.At(1), dst[2])
	assert.Equal(t, color.RGBA{}, dst[3], "solid voxels are transparent")
}

func TestFieldRendererColorFor(t *testing.T) {
	f := NewFieldRenderer()

	assert.Equal(t, SignedColormap().At(1), f.ColorFor(3, 3, true))
	assert.Equal(t, SignedColormap().At(0.5), f.ColorFor(0, 0, true), "zero scale falls back to 1")
	assert.Equal(t, MagnitudeColormap().At(1), f.ColorFor(-3, 3, false))
	assert.Equal(t, color.RGBA{}, f.ColorFor(math.NaN(), 1, true))
}

func TestScaleTracker(t *testing.T) {
	s := NewScaleTracker(1e-6)

	assert.Equal(t, 0.5, s.Update(0.5), "scale jumps to a louder field")

	got := s.Update(0.1)
	assert.InDelta(t, 0.49, got, 1e-12, "scale decays towards a quieter field")

	assert.Equal(t, got, s.Update(math.Inf(1)), "non-finite maxima are ignored")

	for range 2000 {
		s.Update(0)
	}
	assert.Equal(t, 1e-6, s.Value, "scale never drops below the floor")
}
