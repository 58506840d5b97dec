package telemetry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Field is a full-grid pressure sample. Values are row-major with row 0 at the
// top of the map; NaN marks cells with no pressure (solid).
//
// Field implements plotter.GridXYZ with y pointing up.
type Field struct {
	Rows, Cols int
	Spacing    float64
	Values     []float64
}

// Dims returns the grid size as (columns, rows).
func (f Field) Dims() (c, r int) { return f.Cols, f.Rows }

// Z returns the value at column c and plot row r, counted from the bottom.
func (f Field) Z(c, r int) float64 { return f.Values[(f.Rows-1-r)*f.Cols+c] }

// X returns the world x of column c's centre.
func (f Field) X(c int) float64 { return (float64(c) + 0.5) * f.Spacing }

// Y returns the world y of plot row r's centre.
func (f Field) Y(r int) float64 { return (float64(r) + 0.5) * f.Spacing }

// MaxAbs returns the largest finite |value|.
func (f Field) MaxAbs() float64 {
	var m float64
	for _, v := range f.Values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			m = max(m, math.Abs(v))
		}
	}
	return m
}

// Min and Max give the plotter a colour range symmetric about zero.
func (f Field) Min() float64 { return -f.colorRange() }
func (f Field) Max() float64 { return f.colorRange() }

func (f Field) colorRange() float64 {
	if m := f.MaxAbs(); m > 0 {
		return m
	}
	return 1
}

// WriteHeatmap renders the field as a PNG (or any format plot.Save infers
// from the extension).
func WriteHeatmap(path string, f Field, title string) error {
	if f.Rows <= 0 || f.Cols <= 0 || len(f.Values) != f.Rows*f.Cols {
		return errors.New("heatmap: empty or inconsistent field")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	h := plotter.NewHeatMap(f, palette.Heat(64, 1))
	h.Min, h.Max = f.Min(), f.Max()
	p.Add(h)

	width := 10 * vg.Inch
	height := vg.Length(float64(width) * float64(f.Rows) / float64(f.Cols))
	height = max(height+vg.Inch, 3*vg.Inch)

	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("saving heatmap: %w", err)
	}
	return nil
}
