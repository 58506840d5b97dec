// Package main dumps the partition layout of a map as CSV and optionally
// renders a saved field snapshot to a heatmap.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/ardsim/config"
	"github.com/pthm-cable/ardsim/telemetry"
	"github.com/pthm-cable/ardsim/tilemap"
	"github.com/pthm-cable/ardsim/voxel"
)

// PartitionRow is one partition in the layout dump.
type PartitionRow struct {
	Index int     `csv:"index"`
	Row   int     `csv:"row"`
	Col   int     `csv:"col"`
	W     int     `csv:"w"`
	H     int     `csv:"h"`
	Cells int     `csv:"cells"`
	X     float64 `csv:"x"`
	Y     float64 `csv:"y"`
}

// InterfaceRow is one directed interface in the layout dump.
type InterfaceRow struct {
	Owner    int    `csv:"owner"`
	Neighbor int    `csv:"neighbor"`
	Dir      string `csv:"dir"`
	Row      int    `csv:"row"`
	Col      int    `csv:"col"`
	Len      int    `csv:"len"`
}

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = use defaults)")
	mapPath := flag.String("map", "maps/demo.json", "Path to a Tiled JSON map")
	outputDir := flag.String("output", "", "Write partitions.csv and interfaces.csv here (empty = stdout)")
	snapshot := flag.String("snapshot", "", "Render this snapshot JSON to a heatmap")
	heatmap := flag.String("heatmap", "snapshot.png", "Heatmap path for -snapshot")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if *snapshot != "" {
		if err := renderSnapshot(*snapshot, *heatmap); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s\n", *heatmap)
		return
	}

	layout, err := buildLayout(*mapPath, config.Cfg().Derived.VoxelSpacing)
	if err != nil {
		log.Fatal(err)
	}
	partitions, interfaces := layoutRows(layout)

	if *outputDir == "" {
		fmt.Printf("# %s: %dx%d voxels, %d partitions, %d interfaces\n",
			*mapPath, layout.Grid.Rows, layout.Grid.Cols, len(partitions), len(interfaces))
		if err := writeCSV(os.Stdout, &partitions); err != nil {
			log.Fatal(err)
		}
		fmt.Println()
		if err := writeCSV(os.Stdout, &interfaces); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}
	if err := writeCSVFile(filepath.Join(*outputDir, "partitions.csv"), &partitions); err != nil {
		log.Fatal(err)
	}
	if err := writeCSVFile(filepath.Join(*outputDir, "interfaces.csv"), &interfaces); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%d partitions, %d interfaces written to %s\n", len(partitions), len(interfaces), *outputDir)
}

func buildLayout(path string, spacing float64) (*voxel.Layout, error) {
	m, err := tilemap.Load(path)
	if err != nil {
		return nil, err
	}
	g, err := voxel.Rasterize(m, spacing)
	if err != nil {
		return nil, err
	}
	layout := voxel.Decompose(g)
	layout.BuildInterfaces()
	return layout, nil
}

func layoutRows(l *voxel.Layout) ([]PartitionRow, []InterfaceRow) {
	partitions := make([]PartitionRow, 0, len(l.Rects))
	for i, r := range l.Rects {
		x, y := l.Grid.CellCenter(r.Row, r.Col)
		partitions = append(partitions, PartitionRow{
			Index: i,
			Row:   r.Row,
			Col:   r.Col,
			W:     r.W,
			H:     r.H,
			Cells: r.Area(),
			X:     x,
			Y:     y,
		})
	}

	all := l.AllInterfaces()
	interfaces := make([]InterfaceRow, 0, len(all))
	for _, itf := range all {
		interfaces = append(interfaces, InterfaceRow{
			Owner:    itf.Owner,
			Neighbor: itf.Neighbor,
			Dir:      itf.Dir.String(),
			Row:      itf.Rect.Row,
			Col:      itf.Rect.Col,
			Len:      itf.Len(),
		})
	}
	return partitions, interfaces
}

func writeCSVFile(path string, records any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeCSV(f, records)
}

func writeCSV(w io.Writer, records any) error {
	return gocsv.Marshal(records, w)
}

func renderSnapshot(path, out string) error {
	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		return err
	}
	field, err := snap.Field()
	if err != nil {
		return err
	}
	title := fmt.Sprintf("%s step %d", filepath.Base(path), snap.Step)
	return telemetry.WriteHeatmap(out, field, title)
}
