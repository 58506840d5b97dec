package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}

	if cfg.Physics.SoundSpeed != 343 {
		t.Errorf("expected sound speed 343, got %v", cfg.Physics.SoundSpeed)
	}
	if cfg.Solver.DCForcing != DCForcingZero {
		t.Errorf("expected dc_forcing %q, got %q", DCForcingZero, cfg.Solver.DCForcing)
	}

	wantH := 343.0 / (2 * cfg.Physics.MaxFrequency)
	if math.Abs(cfg.Derived.VoxelSpacing-wantH) > 1e-12 {
		t.Errorf("expected spacing %v, got %v", wantH, cfg.Derived.VoxelSpacing)
	}
}

func TestDeriveCFL(t *testing.T) {
	d := Derive(PhysicsConfig{SoundSpeed: 340, MaxFrequency: 170})

	// h = 340 / 340 = 1
	if math.Abs(d.VoxelSpacing-1) > 1e-12 {
		t.Fatalf("expected spacing 1, got %v", d.VoxelSpacing)
	}
	wantDT := 1 / (340 * math.Sqrt(3))
	if math.Abs(d.DT-wantDT) > 1e-15 {
		t.Errorf("expected dt %v, got %v", wantDT, d.DT)
	}
	wantScale := 340.0 * 340.0 / 180
	if math.Abs(d.StencilScale-wantScale) > 1e-9 {
		t.Errorf("expected stencil scale %v, got %v", wantScale, d.StencilScale)
	}
}

func TestDeriveStencilScaleGrowsWithSpacing(t *testing.T) {
	// h = 343 / 500 = 0.686
	d := Derive(PhysicsConfig{SoundSpeed: 343, MaxFrequency: 250})

	h := 343.0 / 500
	wantScale := 343.0 * 343.0 * h * h / 180
	if math.Abs(d.StencilScale-wantScale) > 1e-9 {
		t.Errorf("expected stencil scale %v, got %v", wantScale, d.StencilScale)
	}

	coarse := Derive(PhysicsConfig{SoundSpeed: 343, MaxFrequency: 125})
	if math.Abs(coarse.StencilScale/d.StencilScale-4) > 1e-9 {
		t.Errorf("doubling the spacing should quadruple the scale, got ratio %v", coarse.StencilScale/d.StencilScale)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	data := []byte("physics:\n  max_frequency: 250\nsolver:\n  dc_forcing: limit\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading override: %v", err)
	}
	if cfg.Physics.MaxFrequency != 250 {
		t.Errorf("expected max_frequency 250, got %v", cfg.Physics.MaxFrequency)
	}
	// Untouched fields keep their defaults
	if cfg.Physics.SoundSpeed != 343 {
		t.Errorf("expected default sound speed to survive merge, got %v", cfg.Physics.SoundSpeed)
	}
	if cfg.Solver.DCForcing != DCForcingLimit {
		t.Errorf("expected dc_forcing limit, got %q", cfg.Solver.DCForcing)
	}
}

func TestLoadDefaultsEmptySourceKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty_kind.yaml")
	if err := os.WriteFile(path, []byte("source:\n  kind: \"\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.Source.Kind != DefaultSourceKind {
		t.Errorf("expected source kind %q, got %q", DefaultSourceKind, cfg.Source.Kind)
	}
}

func TestLoadRejectsBadPhysics(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero sound speed", "physics:\n  sound_speed: 0\n"},
		{"negative frequency", "physics:\n  max_frequency: -10\n"},
		{"unknown dc policy", "solver:\n  dc_forcing: clamp\n"},
		{"negative source duration", "source:\n  duration: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestWriteYAMLRoundtrip(t *testing.T) {
	cfg := Default()
	cfg.Physics.MaxFrequency = 321

	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("writing snapshot: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("reloading snapshot: %v", err)
	}
	if loaded.Physics.MaxFrequency != 321 {
		t.Errorf("expected max_frequency 321 after reload, got %v", loaded.Physics.MaxFrequency)
	}
}
