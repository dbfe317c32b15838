// solar-batch - Manifest-driven sweep orchestrator
//
// Runs solar-sweep once per dataset listed in a YAML manifest:
//
//	year: 2025
//	timezone: 1.0
//	threads: 0
//	results_dir: results
//	datasets:
//	  - name: "04"
//	    input: dem/dem_dept_04.tif
//
// Per-dataset output defaults to <results_dir>/solar_<year>_<name>.tif.
// Missing inputs are skipped with a warning; the final summary lists
// successes and failures and the exit status reflects them.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/solar-batch ./cmd/solar-batch

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/solartopo/solartopo/internal/common"
)

var Version = "1.0.0"

// Manifest is the batch run description. Timezone is a pointer so an
// omitted key gets the 1.0 default while an explicit 0.0 means UTC.
type Manifest struct {
	Year       int      `yaml:"year"`
	Timezone   *float64 `yaml:"timezone"`
	Threads    int      `yaml:"threads"`
	ResultsDir string   `yaml:"results_dir"`
	Datasets   []struct {
		Name   string `yaml:"name"`
		Input  string `yaml:"input"`
		Output string `yaml:"output"`
	} `yaml:"datasets"`
}

func loadManifest(path string) (*Manifest, error) {
	rawData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(rawData, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if m.Year == 0 {
		m.Year = 2025
	}
	if m.Year < 1900 || m.Year > 2100 {
		return nil, fmt.Errorf("manifest year %d out of range 1900-2100", m.Year)
	}
	if m.ResultsDir == "" {
		m.ResultsDir = common.DefaultConfig().ResultsDir()
	}
	if len(m.Datasets) == 0 {
		return nil, fmt.Errorf("manifest lists no datasets")
	}
	for i, d := range m.Datasets {
		if d.Name == "" || d.Input == "" {
			return nil, fmt.Errorf("dataset %d needs both name and input", i)
		}
	}
	return &m, nil
}

func (m *Manifest) timezone() float64 {
	if m.Timezone != nil {
		return *m.Timezone
	}
	return 1.0
}

// outputFor resolves a dataset's output path.
func (m *Manifest) outputFor(i int) string {
	if m.Datasets[i].Output != "" {
		return m.Datasets[i].Output
	}
	return filepath.Join(m.ResultsDir, fmt.Sprintf("solar_%d_%s.tif", m.Year, m.Datasets[i].Name))
}

type result struct {
	name     string
	ok       bool
	duration time.Duration
	output   string
}

func main() {
	manifestPath := flag.String("manifest", "", "YAML batch manifest (required)")
	sweepBin := flag.String("sweep-bin", "solar-sweep", "Path to the solar-sweep binary")
	dryRun := flag.Bool("dry-run", false, "Print the commands without running them")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "solar-batch v%s - Manifest-Driven Sweep Orchestrator\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s -manifest batch.yaml [-sweep-bin ./build/solar-sweep]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *manifestPath == "" {
		fmt.Fprintln(os.Stderr, "Error: manifest is required (-manifest)")
		flag.Usage()
		os.Exit(1)
	}

	m, err := loadManifest(*manifestPath)
	if err != nil {
		log.Fatalf("Manifest error: %v", err)
	}

	log.Println("============================================================")
	log.Printf("solar-batch v%s - Full-Year Sweep, %d datasets", Version, len(m.Datasets))
	log.Println("============================================================")
	log.Printf("Year:     %d", m.Year)
	log.Printf("Threads:  %d (0 = all cores)", m.Threads)
	log.Printf("Timezone: UTC%+.2f", m.timezone())
	log.Printf("Results:  %s", m.ResultsDir)
	log.Println("============================================================")

	if !*dryRun {
		if err := os.MkdirAll(m.ResultsDir, 0o755); err != nil {
			log.Fatalf("Cannot create results directory: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutdown requested...")
		cancel()
	}()

	var results []result
	totalStart := time.Now()

	for i, d := range m.Datasets {
		if ctx.Err() != nil {
			log.Printf("Interrupted before dataset %s", d.Name)
			break
		}

		output := m.outputFor(i)

		if _, err := os.Stat(d.Input); err != nil {
			log.Printf("WARNING: input not found for dataset %s: %s - skipping", d.Name, d.Input)
			continue
		}

		args := []string{
			"-input", d.Input,
			"-output", output,
			"-year", strconv.Itoa(m.Year),
			"-threads", strconv.Itoa(m.Threads),
			"-timezone", strconv.FormatFloat(m.timezone(), 'f', -1, 64),
		}

		log.Println()
		log.Printf("Dataset %s (%d/%d)", d.Name, i+1, len(m.Datasets))
		log.Printf("Running: %s %s", *sweepBin, strings.Join(args, " "))

		if *dryRun {
			results = append(results, result{name: d.Name, ok: true, output: output})
			continue
		}

		start := time.Now()
		cmd := exec.CommandContext(ctx, *sweepBin, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		err := cmd.Run()
		duration := time.Since(start)

		if err != nil {
			log.Printf("Dataset %s FAILED after %v: %v", d.Name, duration.Round(time.Second), err)
			results = append(results, result{name: d.Name, ok: false, duration: duration})
			continue
		}

		log.Printf("Dataset %s completed in %v", d.Name, duration.Round(time.Second))
		results = append(results, result{name: d.Name, ok: true, duration: duration, output: output})
	}

	totalDuration := time.Since(totalStart)
	succeeded := 0
	for _, r := range results {
		if r.ok {
			succeeded++
		}
	}

	log.Println()
	log.Println("============================================================")
	log.Println("Batch Summary")
	log.Println("============================================================")
	log.Printf("Datasets:   %d processed of %d listed", len(results), len(m.Datasets))
	log.Printf("Successful: %d", succeeded)
	log.Printf("Failed:     %d", len(results)-succeeded)
	log.Printf("Total time: %v", totalDuration.Round(time.Second))
	if succeeded > 0 {
		log.Println("Outputs:")
		for _, r := range results {
			if r.ok {
				log.Printf("  - %s: %s (%v)", r.name, r.output, r.duration.Round(time.Second))
			}
		}
	}
	log.Println("============================================================")
	if *dryRun {
		log.Println("Dry run - no sweeps executed")
	}

	if succeeded != len(results) || len(results) != len(m.Datasets) {
		os.Exit(1)
	}
}
