// solar-parquet - SOLAR binary stream to partitioned Parquet artifact
//
// Reads the solar-sweep stream protocol and writes one Hive-style
// partition per dataset:
//
//	<out>/dataset=<name>/data.parquet    rows {day, sunrise[], sunset[]}
//	<out>/dataset=<name>/metadata.json   {width, height, transform, crs, days}
//
// One day block becomes one parquet row (and its own row group), so a
// reader can fetch a single day without touching the rest of the year.
// Gzipped captures are decompressed in parallel (pgzip).
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/solar-parquet ./cmd/solar-parquet

package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/klauspost/pgzip"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"github.com/solartopo/solartopo/internal/common"
	"github.com/solartopo/solartopo/internal/wire"
)

var Version = "1.0.0"

const readBufferSize = 4 * 1024 * 1024 // 4MB read buffer

// DayRow is one parquet row: a full day of per-pixel minutes in row-major
// pixel order, -1 marking masked pixels and polar no-event days.
type DayRow struct {
	Day     int32   `parquet:"day"`
	Sunrise []int16 `parquet:"sunrise"`
	Sunset  []int16 `parquet:"sunset"`
}

// Metadata mirrors the stream header for consumers that never touch the
// binary protocol.
type Metadata struct {
	Width     int32      `json:"width"`
	Height    int32      `json:"height"`
	Transform [6]float64 `json:"transform"`
	CRS       string     `json:"crs"`
	Days      int32      `json:"days"`
}

func codecFor(name string) (compress.Codec, error) {
	switch strings.ToLower(name) {
	case "snappy":
		return &parquet.Snappy, nil
	case "gzip":
		return &parquet.Gzip, nil
	case "zstd":
		return &parquet.Zstd, nil
	case "none", "uncompressed":
		return &parquet.Uncompressed, nil
	}
	return nil, fmt.Errorf("unknown compression %q (snappy, gzip, zstd, none)", name)
}

// openInput returns the stream reader: a file or stdin, with gzip peeled
// off in parallel when the magic bytes say so.
func openInput(path string) (io.Reader, func(), error) {
	var raw io.Reader
	closers := []func(){}

	if path == "-" {
		raw = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { f.Close() })
		raw = f
	}

	br := bufio.NewReaderSize(raw, readBufferSize)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := pgzip.NewReaderN(br, 256*1024, runtime.NumCPU())
		if err != nil {
			return nil, nil, fmt.Errorf("gzip input: %w", err)
		}
		closers = append(closers, func() { gz.Close() })
		return gz, func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}, nil
	}

	return br, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}, nil
}

func writeMetadata(path string, meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func main() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	cfg := common.DefaultConfig()

	input := flag.String("input", "-", "Stream input: file path or - for stdin (.gz decompressed)")
	out := flag.String("out", cfg.ParquetDir(), "Partition root directory")
	dataset := flag.String("dataset", "", "Partition name, becomes dataset=<name> (required)")
	compression := flag.String("compression", "snappy", "Parquet compression: snappy, gzip, zstd, none")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "solar-parquet v%s - SOLAR Stream to Parquet Converter\n\n", Version)
		fmt.Fprintf(os.Stderr, "Converts a sweep stream into dataset=<name>/data.parquet with one\n")
		fmt.Fprintf(os.Stderr, "row per day, plus metadata.json carrying the georeferencing.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  solar-sweep -input dem.tif -stream | %s -dataset alpes\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -input capture.bin.gz -dataset alpes -out /srv/parquet\n", os.Args[0])
	}
	flag.Parse()

	if *dataset == "" {
		fmt.Fprintln(os.Stderr, "Error: partition name is required (-dataset)")
		flag.Usage()
		os.Exit(1)
	}
	codec, err := codecFor(*compression)
	if err != nil {
		log.Fatalf("%v", err)
	}

	log.Println("=========================================================")
	log.Printf("solar-parquet v%s - SOLAR Stream to Parquet Converter", Version)
	log.Println("=========================================================")

	in, closeInput, err := openInput(*input)
	if err != nil {
		log.Fatalf("Cannot open input: %v", err)
	}
	defer closeInput()

	r := wire.NewReader(in)
	hdr, err := r.ReadHeader()
	if err != nil {
		log.Fatalf("Bad stream header: %v", err)
	}
	log.Printf("Stream: %dx%d px, %d days", hdr.Width, hdr.Height, hdr.Days)

	partitionDir := filepath.Join(*out, "dataset="+*dataset)
	if err := os.MkdirAll(partitionDir, 0o755); err != nil {
		log.Fatalf("Cannot create partition directory: %v", err)
	}

	meta := Metadata{
		Width:     hdr.Width,
		Height:    hdr.Height,
		Transform: hdr.GeoTransform,
		CRS:       "EPSG:4326",
		Days:      hdr.Days,
	}
	metaPath := filepath.Join(partitionDir, "metadata.json")
	if err := writeMetadata(metaPath, meta); err != nil {
		log.Fatalf("Cannot write metadata: %v", err)
	}
	log.Printf("Metadata: %s", metaPath)

	parquetPath := filepath.Join(partitionDir, "data.parquet")
	f, err := os.Create(parquetPath)
	if err != nil {
		log.Fatalf("Cannot create parquet file: %v", err)
	}

	writer := parquet.NewGenericWriter[DayRow](f, parquet.Compression(codec))

	var blk wire.Block
	blocks := 0
	t0 := time.Now()

	for {
		err := r.ReadBlock(&blk)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Stream truncated at block %d: %v", blocks+1, err)
		}
		blocks++
		if blk.Day != int32(blocks) {
			log.Fatalf("Day blocks out of order: block %d carries day %d", blocks, blk.Day)
		}

		row := DayRow{Day: blk.Day, Sunrise: blk.Sunrise, Sunset: blk.Sunset}
		if _, err := writer.Write([]DayRow{row}); err != nil {
			log.Fatalf("Parquet write failed at day %d: %v", blk.Day, err)
		}
		// Row group per day: keeps memory flat and lets readers fetch a
		// single day.
		if err := writer.Flush(); err != nil {
			log.Fatalf("Parquet flush failed at day %d: %v", blk.Day, err)
		}

		if blocks%30 == 0 {
			log.Printf("  day %d/%d", blocks, hdr.Days)
		}
	}

	if err := writer.Close(); err != nil {
		log.Fatalf("Parquet close failed: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("File close failed: %v", err)
	}

	if blocks != int(hdr.Days) {
		log.Fatalf("Stream truncated: %d of %d day blocks", blocks, hdr.Days)
	}

	info, err := os.Stat(parquetPath)
	if err != nil {
		log.Fatalf("Stat output: %v", err)
	}
	elapsed := time.Since(t0)

	log.Println()
	log.Println("=========================================================")
	log.Println("Parquet Partition Complete")
	log.Println("=========================================================")
	log.Printf("Partition: %s", partitionDir)
	log.Printf("Rows:      %d (one per day)", blocks)
	log.Printf("Size:      %.1f MiB", float64(info.Size())/(1024*1024))
	log.Printf("Elapsed:   %v", elapsed.Round(time.Millisecond))
	log.Println("=========================================================")
}
