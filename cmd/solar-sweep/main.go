// solar-sweep - Per-pixel sunrise/sunset sweep over an elevation raster
//
// Reads a DEM GeoTIFF and computes, for every pixel and every day of the
// year, local sunrise and sunset times (NOAA ephemeris with an
// elevation-dependent refraction correction).
//
// Two output modes:
//
//	raster (default): tiled multi-band Float32 GeoTIFF, two bands per day
//	  ("Day N Sunrise"/"Day N Sunset"), LZW-compressed, -9999 = no event.
//	-stream: byte-exact little-endian binary protocol on stdout
//	  ("SOLAR" header + one block per day of int16 minutes), for piping
//	  into solar-parquet or solar-load. All diagnostics stay on stderr.
//
// Build: CGO_ENABLED=1 go build -ldflags="-s -w" -o build/solar-sweep ./cmd/solar-sweep
// (the only binary in this module that links GDAL)

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solartopo/solartopo/internal/common"
	"github.com/solartopo/solartopo/internal/dem"
	"github.com/solartopo/solartopo/internal/solar"
	"github.com/solartopo/solartopo/internal/sweep"
)

var Version = "1.0.0"

func main() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	input := flag.String("input", "", "Input DEM GeoTIFF (required)")
	output := flag.String("output", "", "Output solar times GeoTIFF (required unless -stream)")
	stream := flag.Bool("stream", false, "Write binary stream protocol to stdout instead of a GeoTIFF")
	year := flag.Int("year", 2025, "Year to compute (1900-2100)")
	timezone := flag.Float64("timezone", 1.0, "Timezone offset from UTC in hours")
	threads := flag.Int("threads", 0, "Worker threads (0 = all cores)")
	blockSize := flag.Int("block-size", sweep.DefaultBlockSize, "Tile edge for raster mode I/O and output tiling")
	maskZeroRaster := flag.Bool("mask-zero-raster", false, "Mask elevation exactly 0 in raster mode")
	maskZeroStream := flag.Bool("mask-zero-stream", true, "Mask elevation exactly 0 in stream mode")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "solar-sweep v%s - Full-Year Sunrise/Sunset Sweep\n\n", Version)
		fmt.Fprintf(os.Stderr, "Computes per-pixel sunrise and sunset for every day of a year\n")
		fmt.Fprintf(os.Stderr, "from a DEM GeoTIFF.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -input dem.tif -output solar_2025.tif -year 2025 -timezone 1.0\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -input dem.tif -stream -year 2025 | solar-load -dataset alpes\n", os.Args[0])
	}
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: input file is required (-input)")
		flag.Usage()
		os.Exit(1)
	}
	if !*stream && *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file is required (-output) unless in -stream mode")
		flag.Usage()
		os.Exit(1)
	}
	if *year < 1900 || *year > 2100 {
		log.Fatalf("Year must be between 1900 and 2100, got %d", *year)
	}
	if *threads < 0 {
		log.Fatalf("Threads must be >= 0, got %d", *threads)
	}

	if *stream {
		log.Printf("solar-sweep v%s - streaming %s (year %d)", Version, *input, *year)
	} else {
		log.Println("=========================================================")
		log.Printf("solar-sweep v%s - Full-Year Sunrise/Sunset Sweep", Version)
		log.Println("=========================================================")
		log.Printf("Input:    %s", *input)
		log.Printf("Output:   %s", *output)
		log.Printf("Year:     %d (%d days)", *year, solar.DaysInYear(*year))
		log.Printf("Timezone: UTC%+.2f", *timezone)
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

	src, err := dem.Open(*input)
	if err != nil {
		log.Fatalf("Cannot open DEM: %v", err)
	}
	defer src.Close()

	width, height := src.Size()
	days := solar.DaysInYear(*year)
	log.Printf("DEM: %dx%d px, nodata declared: %v", width, height, declaredNoData(src))

	stats := common.NewStats()
	stats.StartReporter()
	defer stats.StopReporter()

	opts := sweep.Options{
		Year:           *year,
		Timezone:       *timezone,
		Workers:        *threads,
		BlockSize:      *blockSize,
		MaskZeroRaster: *maskZeroRaster,
		MaskZeroStream: *maskZeroStream,
		Stats:          stats,
	}
	engine := sweep.New(opts)

	t0 := time.Now()

	if *stream {
		if err := engine.Stream(ctx, src, os.Stdout); err != nil {
			log.Fatalf("Stream sweep failed: %v", err)
		}
		log.Printf("Stream complete: %d days in %v", days, time.Since(t0).Round(time.Millisecond))
		return
	}

	bands := sweep.BandCount(*year)
	descriptions := make([]string, bands)
	for i := range descriptions {
		descriptions[i] = sweep.BandDescription(i + 1)
	}

	sink, err := dem.Create(*output, dem.CreateOptions{
		Width:        width,
		Height:       height,
		Bands:        bands,
		BlockSize:    *blockSize,
		GeoTransform: src.GeoTransform(),
		Projection:   src.Projection(),
		NoData:       solar.NoEvent,
		Descriptions: descriptions,
	})
	if err != nil {
		log.Fatalf("Cannot create output: %v", err)
	}

	if err := engine.Raster(ctx, src, sink); err != nil {
		sink.Close()
		log.Fatalf("Raster sweep failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		log.Fatalf("Finalizing output failed: %v", err)
	}

	elapsed := time.Since(t0)
	pixelDays := float64(width) * float64(height) * float64(days)
	mpps := pixelDays / elapsed.Seconds() / 1e6

	log.Println()
	log.Println("=========================================================")
	log.Println("Sweep Complete")
	log.Println("=========================================================")
	log.Printf("Pixels:  %dx%d (%d bands)", width, height, bands)
	log.Printf("Elapsed: %v", elapsed.Round(time.Millisecond))
	log.Printf("Rate:    %.2f Mpx/s (pixel-days)", mpps)
	log.Printf("Output:  %s", *output)
	log.Println("=========================================================")
}

func declaredNoData(src *dem.Dataset) string {
	if v, ok := src.NoData(); ok {
		return fmt.Sprintf("yes (%g)", v)
	}
	return "no"
}
