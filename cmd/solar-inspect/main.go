// solar-inspect - Inspect a solar parquet partition
//
// Prints the schema and row layout of a dataset=<name>/data.parquet file
// and per-day sunrise/sunset statistics over the valid (non-masked)
// pixels. The report goes to stdout; diagnostics go to stderr.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/solar-inspect ./cmd/solar-inspect

package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/parquet-go/parquet-go"
)

var Version = "1.0.0"

// DayRow matches the rows solar-parquet writes.
type DayRow struct {
	Day     int32   `parquet:"day"`
	Sunrise []int16 `parquet:"sunrise"`
	Sunset  []int16 `parquet:"sunset"`
}

// minuteStats summarizes one event array, ignoring the -1 sentinel.
type minuteStats struct {
	valid    int
	min, max int16
	mean     float64
}

func summarize(minutes []int16) minuteStats {
	s := minuteStats{min: 32767, max: -32768}
	var sum int64
	for _, m := range minutes {
		if m == -1 {
			continue
		}
		s.valid++
		sum += int64(m)
		if m < s.min {
			s.min = m
		}
		if m > s.max {
			s.max = m
		}
	}
	if s.valid > 0 {
		s.mean = float64(sum) / float64(s.valid)
	}
	return s
}

func hhmm(minutes int16) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func printStats(label string, s minuteStats, total int) {
	if s.valid == 0 {
		fmt.Printf("  %s: no valid pixels\n", label)
		return
	}
	fmt.Printf("  %s: %d/%d valid pixels\n", label, s.valid, total)
	fmt.Printf("    min/mean/max: %d/%.1f/%d minutes\n", s.min, s.mean, s.max)
	fmt.Printf("    local time:   %s - %s (mean %s)\n",
		hhmm(s.min), hhmm(s.max), hhmm(int16(s.mean)))
}

func main() {
	file := flag.String("file", "", "Parquet file to inspect (required)")
	day := flag.Int("day", 1, "Day of year to summarize")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "solar-inspect v%s - Solar Parquet Partition Inspector\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s -file dataset=alpes/data.parquet [-day 172]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: parquet file is required (-file)")
		flag.Usage()
		os.Exit(1)
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("Cannot open file: %v", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.Fatalf("Stat error: %v", err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		log.Fatalf("Parquet open error: %v", err)
	}

	schema := pf.Schema()
	fmt.Printf("File:       %s (%.1f MiB)\n", *file, float64(info.Size())/(1024*1024))
	fmt.Printf("Rows:       %d\n", pf.NumRows())
	fmt.Printf("Row groups: %d\n", len(pf.RowGroups()))
	fmt.Printf("Columns:   ")
	for _, field := range schema.Fields() {
		fmt.Printf(" %s", field.Name())
	}
	fmt.Println()
	fmt.Printf("Schema:     %s\n", schema)
	fmt.Println()

	reader := parquet.NewGenericReader[DayRow](pf)
	defer reader.Close()

	rows := make([]DayRow, 1)
	found := false
	for {
		n, err := reader.Read(rows)
		if n > 0 && rows[0].Day == int32(*day) {
			found = true
			break
		}
		if err == io.EOF || n == 0 {
			break
		}
		if err != nil {
			log.Fatalf("Parquet read error: %v", err)
		}
	}
	if !found {
		log.Fatalf("Day %d not found in %d rows", *day, pf.NumRows())
	}

	row := rows[0]
	pixels := len(row.Sunrise)
	fmt.Printf("Day %d:\n", row.Day)
	fmt.Printf("  array lengths: sunrise=%d sunset=%d\n", len(row.Sunrise), len(row.Sunset))
	printStats("sunrise", summarize(row.Sunrise), pixels)
	printStats("sunset", summarize(row.Sunset), pixels)
}
