package catalog

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := `components:
  - name: Hovedmåler 1
    status: active
    type: meter
  - name: Reserve
    status: maintenance
    type: battery
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	seeds, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}
	if len(seeds) != 2 {
		t.Fatalf("len = %d, want 2", len(seeds))
	}
	if seeds[0].Name != "Hovedmåler 1" || seeds[1].Type != "battery" {
		t.Errorf("seeds = %+v", seeds)
	}
}

func TestLoadSeedFileErrors(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	_ = os.WriteFile(empty, []byte("components: []\n"), 0o600)

	broken := filepath.Join(dir, "broken.yaml")
	_ = os.WriteFile(broken, []byte("components: [\n"), 0o600)

	for _, path := range []string{empty, broken, filepath.Join(dir, "missing.yaml")} {
		if _, err := LoadSeedFile(path); err == nil {
			t.Errorf("LoadSeedFile(%s) succeeded", filepath.Base(path))
		}
	}
}

func TestHistoryGeneratorWindow(t *testing.T) {
	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC)
	gen := NewHistoryGenerator(200, start, end, rand.New(rand.NewPCG(7, 7)))

	points := gen.Generate()
	if len(points) != 200 {
		t.Fatalf("len = %d, want 200", len(points))
	}

	for i, p := range points {
		if p.Timestamp.Before(start) || !p.Timestamp.Before(end) {
			t.Errorf("point %d timestamp %v outside window", i, p.Timestamp)
		}
		if p.Timestamp.Location() != time.UTC {
			t.Errorf("point %d not UTC", i)
		}
		if p.Timestamp.Nanosecond()%int(time.Millisecond) != 0 {
			t.Errorf("point %d has sub-millisecond precision", i)
		}
		if p.Value < 0 || p.Value > 99 {
			t.Errorf("point %d value %d out of range", i, p.Value)
		}
		if i > 0 && p.Timestamp.Before(points[i-1].Timestamp) {
			t.Errorf("point %d out of order", i)
		}
	}
}

func TestHistoryGeneratorEmptyWindow(t *testing.T) {
	at := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	gen := NewHistoryGenerator(3, at, at, nil)

	for _, p := range gen.Generate() {
		if !p.Timestamp.Equal(at) {
			t.Errorf("timestamp = %v, want %v", p.Timestamp, at)
		}
	}
}
