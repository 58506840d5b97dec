package telemetry

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/ardsim/sim"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the pressure field of every partition at one step, for
// offline inspection and heatmap rendering.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id,omitempty"`
	MapPath string `json:"map_path,omitempty"`

	Spacing float64 `json:"spacing"`
	Rows    int     `json:"rows"`
	Cols    int     `json:"cols"`

	Step int64   `json:"step"`
	Time float64 `json:"time"`

	Partitions []PartitionState `json:"partitions"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// PartitionState holds one partition's placement and pressure.
type PartitionState struct {
	ID       int          `json:"id"`
	Row      int          `json:"row"`
	Col      int          `json:"col"`
	W        int          `json:"w"`
	H        int          `json:"h"`
	Pressure []float64    `json:"pressure"`
	Source   *SourceState `json:"source,omitempty"`
}

// SourceState is the JSON form of an active point source.
type SourceState struct {
	Index     int     `json:"index"`
	Kind      string  `json:"kind"`
	Remaining float64 `json:"remaining"`
	Total     float64 `json:"total"`
	Amplitude float64 `json:"amplitude"`
}

// CaptureSnapshot copies the engine's current field. It returns nil when no
// map is loaded.
func CaptureSnapshot(e *sim.Engine) *Snapshot {
	g := e.Grid()
	if g == nil {
		return nil
	}

	s := &Snapshot{
		Version:    SnapshotVersion,
		Spacing:    g.Spacing,
		Rows:       g.Rows,
		Cols:       g.Cols,
		Step:       int64(e.StepCount()),
		Time:       e.Time(),
		Partitions: make([]PartitionState, 0, len(e.Partitions())),
	}
	for _, p := range e.Partitions() {
		ps := PartitionState{
			ID:       p.ID,
			Row:      p.Rect.Row,
			Col:      p.Rect.Col,
			W:        p.Rect.W,
			H:        p.Rect.H,
			Pressure: append([]float64(nil), p.Pressure()...),
		}
		if p.Source.Active() {
			ps.Source = &SourceState{
				Index:     p.Source.Index,
				Kind:      p.Source.Kind.String(),
				Remaining: p.Source.Remaining,
				Total:     p.Source.Total,
				Amplitude: p.Source.Amplitude,
			}
		}
		s.Partitions = append(s.Partitions, ps)
	}
	return s
}

// Field rebuilds the full grid from the partition arrays. Cells outside
// every partition are NaN.
func (s *Snapshot) Field() (Field, error) {
	f := Field{
		Rows:    s.Rows,
		Cols:    s.Cols,
		Spacing: s.Spacing,
		Values:  make([]float64, s.Rows*s.Cols),
	}
	for i := range f.Values {
		f.Values[i] = math.NaN()
	}

	for _, p := range s.Partitions {
		if p.W <= 0 || p.H <= 0 || p.Row < 0 || p.Col < 0 || p.Row+p.H > s.Rows || p.Col+p.W > s.Cols {
			return Field{}, fmt.Errorf("partition %d extent %dx%d at (%d,%d) outside %dx%d grid", p.ID, p.W, p.H, p.Row, p.Col, s.Cols, s.Rows)
		}
		if len(p.Pressure) != p.W*p.H {
			return Field{}, fmt.Errorf("partition %d has %d samples, want %d", p.ID, len(p.Pressure), p.W*p.H)
		}
		for i, v := range p.Pressure {
			r := p.Row + i/p.W
			c := p.Col + i%p.W
			f.Values[r*s.Cols+c] = v
		}
	}
	return f, nil
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%d", snapshot.Step)
	if snapshot.Bookmark != nil {
		// Sanitize bookmark type for filename
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Step, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
