package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ProbeData describes the voxel under the cursor.
type ProbeData struct {
	Row, Col   int
	X, Y       float64 // World position of the voxel center
	Owned      bool    // False for solid voxels
	Partition  int
	LocalIndex int
	Rect       [4]int // Row, Col, W, H of the owning partition
	Interfaces int    // Interfaces incident to the owning partition
	Pressure   float64
	Scale      float64  // Pressure mapped to a full bar
	Color      rl.Color // Field overlay colour of this voxel

	SourceKind     string // Empty when the partition has no active source
	SourceProgress float64
	SourceHere     bool // Source sits on this voxel
}

// probeSections is the inspector layout.
var probeSections = []SectionDescriptor{
	{
		ID:    "voxel",
		Title: "Voxel",
		Fields: []FieldDescriptor{
			{ID: "cell", Label: "Cell", Widget: WidgetText, TextGetter: func(d any) string {
				p := d.(*ProbeData)
				return fmt.Sprintf("row %d, col %d", p.Row, p.Col)
			}},
			{ID: "world", Label: "World", Widget: WidgetText, TextGetter: func(d any) string {
				p := d.(*ProbeData)
				return fmt.Sprintf("(%.2f, %.2f) m", p.X, p.Y)
			}},
			{ID: "solid", Label: "Kind", Widget: WidgetText, TextGetter: func(d any) string {
				if d.(*ProbeData).Owned {
					return "air"
				}
				return "solid"
			}},
		},
	},
	{
		ID:      "partition",
		Title:   "Partition",
		Visible: func(d any) bool { return d.(*ProbeData).Owned },
		Fields: []FieldDescriptor{
			{ID: "id", Label: "ID", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float32 {
				return float32(d.(*ProbeData).Partition)
			}},
			{ID: "rect", Label: "Rect", Widget: WidgetText, TextGetter: func(d any) string {
				r := d.(*ProbeData).Rect
				return fmt.Sprintf("%dx%d at (%d,%d)", r[2], r[3], r[0], r[1])
			}},
			{ID: "local", Label: "Local", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float32 {
				return float32(d.(*ProbeData).LocalIndex)
			}},
			{ID: "interfaces", Label: "Interfaces", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float32 {
				return float32(d.(*ProbeData).Interfaces)
			}},
		},
	},
	{
		ID:      "field",
		Title:   "Field",
		Visible: func(d any) bool { return d.(*ProbeData).Owned },
		Fields: []FieldDescriptor{
			{ID: "pressure", Label: "Pressure", Widget: WidgetText, TextGetter: func(d any) string {
				return fmt.Sprintf("%+.4g", d.(*ProbeData).Pressure)
			}},
			{ID: "pressure_bar", Label: "Relative", Widget: WidgetCenteredBar, Range: CenteredRange(), Getter: func(d any) float32 {
				p := d.(*ProbeData)
				if p.Scale <= 0 {
					return 0
				}
				return float32(p.Pressure / p.Scale)
			}},
			{ID: "color", Label: "Color", Widget: WidgetColorSwatch, ColorGetter: func(d any) rl.Color {
				return d.(*ProbeData).Color
			}},
		},
	},
	{
		ID:      "source",
		Title:   "Source",
		Visible: func(d any) bool { p := d.(*ProbeData); return p.Owned && p.SourceKind != "" },
		Fields: []FieldDescriptor{
			{ID: "kind", Label: "Kind", Widget: WidgetText, TextGetter: func(d any) string {
				p := d.(*ProbeData)
				if p.SourceHere {
					return p.SourceKind + " (here)"
				}
				return p.SourceKind
			}},
			{ID: "progress", Label: "Progress", Widget: WidgetBar, Range: DefaultRange(), Getter: func(d any) float32 {
				return float32(d.(*ProbeData).SourceProgress)
			}},
		},
	},
}

// Inspector renders the voxel probe panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the inspector panel for the given probe.
func (ins *Inspector) Draw(data *ProbeData) int32 {
	r := ins.renderer
	padding := r.Theme.Padding

	panelHeight := padding * 2
	for _, sd := range probeSections {
		panelHeight += sd.Height(data, r.Theme)
	}
	r.DrawPanel(ins.x, ins.y, ins.width, panelHeight)

	contentWidth := ins.width - padding*2
	y := ins.y + padding
	for _, sd := range probeSections {
		y = r.DrawSection(ins.x+padding, y, sd, data, contentWidth)
	}

	// Swatch border when the cursor is on a source
	if data.SourceHere {
		rl.DrawRectangleLines(ins.x, ins.y, ins.width, panelHeight, rl.Orange)
	}
	return y
}
