package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `year: 2024
timezone: 0.0
threads: 8
results_dir: out
datasets:
  - name: "04"
    input: dem/dem_dept_04.tif
  - name: "73"
    input: dem/dem_dept_73.tif
    output: custom/solaire_73.tif
`)

	m, err := loadManifest(path)
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	if m.Year != 2024 || m.Threads != 8 || m.ResultsDir != "out" {
		t.Errorf("parsed year/threads/results = %d/%d/%q", m.Year, m.Threads, m.ResultsDir)
	}
	// Explicit 0.0 means UTC, not the 1.0 default.
	if m.timezone() != 0.0 {
		t.Errorf("timezone() = %f, want explicit 0.0", m.timezone())
	}
	if len(m.Datasets) != 2 {
		t.Fatalf("parsed %d datasets, want 2", len(m.Datasets))
	}

	if got, want := m.outputFor(0), filepath.Join("out", "solar_2024_04.tif"); got != want {
		t.Errorf("outputFor(0) = %q, want %q", got, want)
	}
	if got, want := m.outputFor(1), "custom/solaire_73.tif"; got != want {
		t.Errorf("outputFor(1) = %q, want manifest override %q", got, want)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	t.Setenv("SOLARTOPO_DATA_DIR", "")
	path := writeManifest(t, `datasets:
  - name: alpes
    input: dem/alpes.tif
`)

	m, err := loadManifest(path)
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	if m.Year != 2025 {
		t.Errorf("default year = %d, want 2025", m.Year)
	}
	if m.timezone() != 1.0 {
		t.Errorf("default timezone = %f, want 1.0", m.timezone())
	}
	if got, want := m.ResultsDir, filepath.Join("data", "results"); got != want {
		t.Errorf("default results dir = %q, want %q", got, want)
	}
}

func TestLoadManifestValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"no datasets", "year: 2025\n", "no datasets"},
		{"missing input", "datasets:\n  - name: alpes\n", "name and input"},
		{"missing name", "datasets:\n  - input: x.tif\n", "name and input"},
		{"year out of range", "year: 1800\ndatasets:\n  - name: a\n    input: x.tif\n", "out of range"},
	}
	for _, tc := range tests {
		path := writeManifest(t, tc.body)
		_, err := loadManifest(path)
		if err == nil {
			t.Errorf("%s: manifest accepted, want error", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: error %q does not mention %q", tc.name, err, tc.want)
		}
	}
}
