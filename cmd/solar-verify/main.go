// solar-verify - Post-load sanity checks on solar.sun_times
//
// Runs coverage and plausibility queries against a loaded dataset and
// exits non-zero if any check fails, so pipelines can gate on it:
//
//	day span complete for the year, per-day row count uniform,
//	valid minutes inside [0, 1440], masked ratio reported.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/solar-verify ./cmd/solar-verify

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/solartopo/solartopo/internal/common"
	"github.com/solartopo/solartopo/internal/solar"
)

var Version = "1.0.0"

type checker struct {
	failures int
}

func (c *checker) check(name string, ok bool, detail string) {
	status := "PASS"
	if !ok {
		status = "FAIL"
		c.failures++
	}
	log.Printf("  %s  %-28s %s", status, name, detail)
}

func main() {
	cfg := common.DefaultConfig()

	chHost := flag.String("ch-host", cfg.NativeAddr(), "ClickHouse address")
	chDB := flag.String("ch-db", cfg.ClickHouseDatabase, "ClickHouse database")
	chTable := flag.String("ch-table", "sun_times", "ClickHouse table")
	dataset := flag.String("dataset", "", "Dataset label to verify (required)")
	year := flag.Int("year", 2025, "Year the dataset was swept for")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "solar-verify v%s - Sun Times Dataset Verifier\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s -dataset alpes -year 2025 [-ch-host 127.0.0.1:9000]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *dataset == "" {
		fmt.Fprintln(os.Stderr, "Error: dataset label is required (-dataset)")
		flag.Usage()
		os.Exit(1)
	}

	wantDays := solar.DaysInYear(*year)

	log.Println("=========================================================")
	log.Printf("solar-verify v%s - dataset %q, year %d (%d days)", Version, *dataset, *year, wantDays)
	log.Println("=========================================================")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Printf("Connecting to ClickHouse at %s...", *chHost)
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{*chHost},
		Auth: clickhouse.Auth{
			Database: *chDB,
			Username: cfg.ClickHouseUser,
			Password: cfg.ClickHousePassword,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		log.Fatalf("ClickHouse connection failed: %v", err)
	}
	defer conn.Close()

	if err := conn.Ping(ctx); err != nil {
		log.Fatalf("ClickHouse ping failed: %v", err)
	}

	tableFQN := fmt.Sprintf("%s.%s", *chDB, *chTable)
	log.Printf("Table: %s", tableFQN)
	log.Println()

	c := &checker{}
	runChecks(ctx, conn, c, tableFQN, *dataset, wantDays)

	log.Println()
	if c.failures > 0 {
		log.Printf("%d check(s) FAILED", c.failures)
		os.Exit(1)
	}
	log.Println("All checks passed")
}

func runChecks(ctx context.Context, conn driver.Conn, c *checker, table, dataset string, wantDays int) {
	var totalRows, distinctDays uint64
	var minDay, maxDay int32
	err := conn.QueryRow(ctx, fmt.Sprintf(
		"SELECT count(), countDistinct(day), min(day), max(day) FROM %s WHERE dataset = ?", table),
		dataset).Scan(&totalRows, &distinctDays, &minDay, &maxDay)
	if err != nil {
		log.Fatalf("Coverage query failed: %v", err)
	}

	if totalRows == 0 {
		c.check("rows present", false, "dataset has no rows")
		return
	}

	var maxX, maxY int32
	err = conn.QueryRow(ctx, fmt.Sprintf(
		"SELECT max(x), max(y) FROM %s WHERE dataset = ?", table),
		dataset).Scan(&maxX, &maxY)
	if err != nil {
		log.Fatalf("Extent query failed: %v", err)
	}
	width, height := int(maxX)+1, int(maxY)+1
	gridRows := uint64(width) * uint64(height) * uint64(wantDays)

	c.check("rows present", true, fmt.Sprintf("%d rows, grid extent %dx%d", totalRows, width, height))
	c.check("row count vs grid", totalRows <= gridRows,
		fmt.Sprintf("%d of %d pixel-days (%.1f%%; masked pixels may be skipped)",
			totalRows, gridRows, 100*float64(totalRows)/float64(gridRows)))
	c.check("distinct days", distinctDays == uint64(wantDays),
		fmt.Sprintf("%d of %d", distinctDays, wantDays))
	c.check("day span", minDay == 1 && maxDay == int32(wantDays),
		fmt.Sprintf("day %d..%d", minDay, maxDay))

	var distinctCounts, minCount, maxCount uint64
	err = conn.QueryRow(ctx, fmt.Sprintf(
		"SELECT countDistinct(cnt), min(cnt), max(cnt) FROM (SELECT day, count() AS cnt FROM %s WHERE dataset = ? GROUP BY day)", table),
		dataset).Scan(&distinctCounts, &minCount, &maxCount)
	if err != nil {
		log.Fatalf("Uniformity query failed: %v", err)
	}
	c.check("per-day uniformity", distinctCounts == 1,
		fmt.Sprintf("%d distinct per-day counts (%d..%d rows/day)", distinctCounts, minCount, maxCount))

	var validRows uint64
	var minRise, maxRise, minSet, maxSet int16
	err = conn.QueryRow(ctx, fmt.Sprintf(
		"SELECT count(), min(sunrise_min), max(sunrise_min), min(sunset_min), max(sunset_min) FROM %s WHERE dataset = ? AND sunrise_min != -1 AND sunset_min != -1", table),
		dataset).Scan(&validRows, &minRise, &maxRise, &minSet, &maxSet)
	if err != nil {
		log.Fatalf("Minute range query failed: %v", err)
	}
	if validRows == 0 {
		c.check("minute range", false, "no valid (non-masked) rows")
	} else {
		rangeOK := minRise >= 0 && maxRise <= 1440 && minSet >= 0 && maxSet <= 1440
		c.check("minute range", rangeOK,
			fmt.Sprintf("sunrise %d..%d, sunset %d..%d", minRise, maxRise, minSet, maxSet))
	}

	var maskedRows uint64
	err = conn.QueryRow(ctx, fmt.Sprintf(
		"SELECT countIf(sunrise_min = -1 AND sunset_min = -1) FROM %s WHERE dataset = ?", table),
		dataset).Scan(&maskedRows)
	if err != nil {
		log.Fatalf("Masked ratio query failed: %v", err)
	}
	// Informational: high ratios are legitimate for sea-heavy tiles.
	c.check("masked ratio", true,
		fmt.Sprintf("%d masked rows (%.1f%%)", maskedRows, 100*float64(maskedRows)/float64(totalRows)))
}
