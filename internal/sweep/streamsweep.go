package sweep

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/solartopo/solartopo/internal/raster"
	"github.com/solartopo/solartopo/internal/solar"
	"github.com/solartopo/solartopo/internal/wire"
)

// Stream runs the stream-mode sweep: the whole elevation grid is read
// once, then one block per day is computed in parallel and written to w
// in ascending day order. The header and every block are flushed as soon
// as they are complete, so a downstream consumer can parse the stream
// while the sweep is still running.
//
// Unlike raster mode there is no partial-failure tolerance: the protocol
// cannot represent a skipped block, so the first output error aborts the
// run. Interruption via ctx aborts at the next day boundary, leaving a
// truncated but block-aligned stream.
func (e *Engine) Stream(ctx context.Context, src raster.Source, w io.Writer) error {
	if err := e.validate(); err != nil {
		return err
	}

	width, height := src.Size()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("sweep: empty raster %dx%d", width, height)
	}

	dates := solar.YearDates(e.opts.Year)
	days := len(dates)
	gt := src.GeoTransform()
	ndValue, ndDeclared := src.NoData()

	grid := &raster.Grid{
		Width:     width,
		Height:    height,
		Data:      make([]float32, width*height),
		NoData:    ndValue,
		HasNoData: ndDeclared,
	}
	if err := src.Read(0, 0, width, height, grid.Data); err != nil {
		return fmt.Errorf("sweep: read elevation grid: %w", err)
	}

	ww := wire.NewWriter(w)
	hdr := wire.Header{
		Width:        int32(width),
		Height:       int32(height),
		Days:         int32(days),
		GeoTransform: gt,
	}
	if err := ww.WriteHeader(hdr); err != nil {
		return err
	}
	e.addBytes(wire.HeaderSize)

	log.Printf("Stream sweep: %dx%d px, %d days, %d workers", width, height, days, e.opts.Workers)

	// Per-day minute arrays, reused across all blocks.
	pixels := width * height
	sunrise := make([]int16, pixels)
	sunset := make([]int16, pixels)

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("sweep: interrupted at day %d/%d: %w", date.DayOfYear, days, err)
		}

		t0 := time.Now()
		e.computeDay(grid, gt, date, sunrise, sunset)

		if err := ww.WriteBlock(date.DayOfYear, sunrise, sunset); err != nil {
			return fmt.Errorf("sweep: day %d: %w", date.DayOfYear, err)
		}

		e.addPixels(pixels)
		e.addBytes(hdr.BlockSize())
		e.setBlockLatency(uint64(time.Since(t0)))

		if date.DayOfYear%10 == 0 {
			log.Printf("  day %d/%d", date.DayOfYear, days)
		}
	}

	log.Printf("Stream sweep complete: %d blocks", days)
	return nil
}

// computeDay fills the minute arrays for one day across the whole grid.
func (e *Engine) computeDay(grid *raster.Grid, gt raster.GeoTransform, date solar.Date,
	sunrise, sunset []int16) {

	width := grid.Width
	parallelFor(len(grid.Data), e.opts.Workers, func(start, end int) {
		for i := start; i < end; i++ {
			v := grid.Data[i]
			if grid.IsNoData(v) || (e.opts.MaskZeroStream && v == 0) {
				sunrise[i] = wire.MaskedMinutes
				sunset[i] = wire.MaskedMinutes
				continue
			}

			lon, lat := gt.PixelToGeo(i%width, i/width)
			elevation := float64(v)

			sunrise[i] = minutesOfDay(e.calc.Sunrise(lat, lon, elevation, date.Year, date.Month, date.Day))
			sunset[i] = minutesOfDay(e.calc.Sunset(lat, lon, elevation, date.Year, date.Month, date.Day))
		}
	})
}
