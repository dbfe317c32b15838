// solar-load - SOLAR binary stream to ClickHouse native loader
//
// Reads the solar-sweep stream protocol (65-byte header + one block per
// day) and inserts one row per pixel-day into solar.sun_times using
// native columnar blocks. Designed for the end of a pipe:
//
//	solar-sweep -input dem.tif -stream -year 2025 | solar-load -dataset alpes
//
// A captured stream saved with gzip is detected from its magic bytes and
// decompressed on the fly. Longitude/latitude are derived per pixel from
// the header geotransform, so the warehouse rows are self-describing.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/solar-load ./cmd/solar-load

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/ch-go"
	"github.com/ClickHouse/ch-go/proto"
	"github.com/klauspost/compress/gzip"

	"github.com/solartopo/solartopo/internal/common"
	"github.com/solartopo/solartopo/internal/wire"
)

var Version = "1.0.0"

const readBufferSize = 4 * 1024 * 1024 // 4MB read buffer

// SunBatch holds columnar data for native ClickHouse insert.
// Matches schema: solar.sun_times (dataset, day, x, y, lon, lat,
// sunrise_min, sunset_min)
type SunBatch struct {
	Dataset    *proto.ColStr
	Day        *proto.ColInt32
	X          *proto.ColInt32
	Y          *proto.ColInt32
	Lon        *proto.ColFloat64
	Lat        *proto.ColFloat64
	SunriseMin *proto.ColInt16
	SunsetMin  *proto.ColInt16
}

func NewSunBatch() *SunBatch {
	return &SunBatch{
		Dataset:    new(proto.ColStr),
		Day:        new(proto.ColInt32),
		X:          new(proto.ColInt32),
		Y:          new(proto.ColInt32),
		Lon:        new(proto.ColFloat64),
		Lat:        new(proto.ColFloat64),
		SunriseMin: new(proto.ColInt16),
		SunsetMin:  new(proto.ColInt16),
	}
}

func (b *SunBatch) Reset() {
	b.Dataset.Reset()
	b.Day.Reset()
	b.X.Reset()
	b.Y.Reset()
	b.Lon.Reset()
	b.Lat.Reset()
	b.SunriseMin.Reset()
	b.SunsetMin.Reset()
}

func (b *SunBatch) Len() int {
	return b.Day.Rows()
}

func (b *SunBatch) Input() proto.Input {
	return proto.Input{
		{Name: "dataset", Data: b.Dataset},
		{Name: "day", Data: b.Day},
		{Name: "x", Data: b.X},
		{Name: "y", Data: b.Y},
		{Name: "lon", Data: b.Lon},
		{Name: "lat", Data: b.Lat},
		{Name: "sunrise_min", Data: b.SunriseMin},
		{Name: "sunset_min", Data: b.SunsetMin},
	}
}

func (b *SunBatch) AddRow(dataset string, day int32, x, y int32, lon, lat float64, rise, set int16) {
	b.Dataset.Append(dataset)
	b.Day.Append(day)
	b.X.Append(x)
	b.Y.Append(y)
	b.Lon.Append(lon)
	b.Lat.Append(lat)
	b.SunriseMin.Append(rise)
	b.SunsetMin.Append(set)
}

func flushBatch(ctx context.Context, conn *ch.Client, table string, batch *SunBatch) error {
	if batch.Len() == 0 {
		return nil
	}
	query := fmt.Sprintf("INSERT INTO %s (dataset, day, x, y, lon, lat, sunrise_min, sunset_min) VALUES", table)
	return conn.Do(ctx, ch.Query{
		Body:  query,
		Input: batch.Input(),
	})
}

// openInput returns the stream reader: a file or stdin, with gzip peeled
// off transparently when the magic bytes say so.
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
		gz, err := gzip.NewReader(br)
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

func main() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	cfg := common.DefaultConfig()

	input := flag.String("input", "-", "Stream input: file path or - for stdin")
	chHost := flag.String("ch-host", cfg.NativeAddr(), "ClickHouse native protocol address")
	chDB := flag.String("ch-db", cfg.ClickHouseDatabase, "ClickHouse database")
	chTable := flag.String("ch-table", "sun_times", "ClickHouse table")
	dataset := flag.String("dataset", "", "Dataset label for the partition column (required)")
	skipMasked := flag.Bool("skip-masked", true, "Drop masked (-1/-1) pixels instead of inserting them")
	batchSize := flag.Int("batch-size", 1_000_000, "Rows per native insert block")
	dryRun := flag.Bool("dry-run", false, "Parse and count only, no ClickHouse insert")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "solar-load v%s - SOLAR Stream ClickHouse Loader\n\n", Version)
		fmt.Fprintf(os.Stderr, "Streams per-pixel sunrise/sunset day blocks into ClickHouse\n")
		fmt.Fprintf(os.Stderr, "native blocks, one row per pixel-day.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  solar-sweep -input dem.tif -stream | %s -dataset alpes\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -input capture.bin.gz -dataset alpes -ch-host 192.168.1.90:9000\n", os.Args[0])
	}
	flag.Parse()

	if *dataset == "" {
		fmt.Fprintln(os.Stderr, "Error: dataset label is required (-dataset)")
		flag.Usage()
		os.Exit(1)
	}
	if *batchSize < 1 {
		log.Fatalf("Batch size must be >= 1, got %d", *batchSize)
	}

	log.Println("=========================================================")
	log.Printf("solar-load v%s - SOLAR Stream Loader", Version)
	log.Println("=========================================================")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutdown requested...")
		cancel()
	}()

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
	gt := hdr.GeoTransform
	pixels := hdr.Pixels()
	totalRows := uint64(pixels) * uint64(hdr.Days)

	log.Printf("Stream: %dx%d px, %d days (%d pixel-days)", hdr.Width, hdr.Height, hdr.Days, totalRows)
	log.Printf("Dataset: %s", *dataset)

	var conn *ch.Client
	tableFQN := fmt.Sprintf("%s.%s", *chDB, *chTable)
	if !*dryRun {
		log.Printf("Connecting to ClickHouse at %s...", *chHost)
		conn, err = ch.Dial(ctx, ch.Options{
			Address:     *chHost,
			Database:    *chDB,
			Compression: ch.CompressionLZ4,
		})
		if err != nil {
			log.Fatalf("ClickHouse connection failed: %v", err)
		}
		defer conn.Close()
		log.Printf("Table: %s", tableFQN)
	}

	stats := common.NewStats()
	stats.StartReporter()
	defer stats.StopReporter()

	batch := NewSunBatch()
	var blk wire.Block
	var inserted, skipped uint64
	blocks := 0
	t0 := time.Now()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Interrupted after %d blocks, %d rows", blocks, inserted)
			return
		default:
		}

		err := r.ReadBlock(&blk)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Block %d read failed: %v", blocks+1, err)
		}
		blocks++

		t1 := time.Now()
		for i := 0; i < pixels; i++ {
			rise, set := blk.Sunrise[i], blk.Sunset[i]
			if *skipMasked && rise == wire.MaskedMinutes && set == wire.MaskedMinutes {
				skipped++
				continue
			}
			x, y := i%int(hdr.Width), i/int(hdr.Width)
			lon, lat := gt.PixelToGeo(x, y)
			batch.AddRow(*dataset, blk.Day, int32(x), int32(y), lon, lat, rise, set)
		}

		if batch.Len() >= *batchSize {
			if *dryRun {
				inserted += uint64(batch.Len())
				batch.Reset()
			} else if err := flushBatch(ctx, conn, tableFQN, batch); err != nil {
				log.Fatalf("Insert error at day %d: %v", blk.Day, err)
			} else {
				inserted += uint64(batch.Len())
				batch.Reset()
				rps := float64(inserted) / time.Since(t0).Seconds()
				log.Printf("  Day %d/%d: %d rows inserted (%.0f rows/sec)",
					blk.Day, hdr.Days, inserted, rps)
			}
		}

		stats.AddPixels(uint64(pixels))
		stats.AddBytes(uint64(hdr.BlockSize()))
		stats.SetBlockLatency(uint64(time.Since(t1)))
	}

	if batch.Len() > 0 {
		if *dryRun {
			inserted += uint64(batch.Len())
		} else if err := flushBatch(ctx, conn, tableFQN, batch); err != nil {
			log.Fatalf("Final insert error: %v", err)
		} else {
			inserted += uint64(batch.Len())
		}
		batch.Reset()
	}

	if blocks != int(hdr.Days) {
		log.Printf("WARNING: stream truncated: %d of %d day blocks", blocks, hdr.Days)
	}

	elapsed := time.Since(t0)
	rps := float64(inserted) / elapsed.Seconds()

	log.Println()
	log.Println("=========================================================")
	log.Println("Load Complete")
	log.Println("=========================================================")
	log.Printf("Blocks:   %d of %d days", blocks, hdr.Days)
	log.Printf("Rows:     %d inserted, %d masked skipped", inserted, skipped)
	log.Printf("Elapsed:  %v", elapsed.Round(time.Millisecond))
	log.Printf("Rate:     %.0f rows/sec", rps)
	if *dryRun {
		log.Println("Mode:     dry run (no inserts)")
	}
	log.Println("=========================================================")
}
