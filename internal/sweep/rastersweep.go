package sweep

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/solartopo/solartopo/internal/raster"
	"github.com/solartopo/solartopo/internal/solar"
)

// Raster runs the raster-mode sweep: src is read in BlockSize tiles, every
// pixel of a tile is evaluated for every day of the year in parallel, and
// the band-sequential result is written to sink as one multi-band block.
// Tiles advance row by row, left to right, and each tile is fully written
// before the next begins.
//
// A failed tile read or write is logged and that tile is skipped:
// already-written tiles remain valid and the run still succeeds if it
// reaches the end. Interruption via ctx aborts at the next tile boundary.
func (e *Engine) Raster(ctx context.Context, src raster.Source, sink raster.Sink) error {
	if err := e.validate(); err != nil {
		return err
	}

	width, height := src.Size()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("sweep: empty raster %dx%d", width, height)
	}

	dates := solar.YearDates(e.opts.Year)
	days := len(dates)
	bands := 2 * days
	gt := src.GeoTransform()
	ndValue, ndDeclared := src.NoData()

	bandList := make([]int, bands)
	for i := range bandList {
		bandList[i] = i + 1
	}

	// Arena buffers, sized once and reused for every tile. The output
	// arena is blockSize^2 * bands floats: tile size, not raster size,
	// bounds peak memory.
	blockSize := e.opts.BlockSize
	elev := make([]float32, blockSize*blockSize)
	out := make([]float32, blockSize*blockSize*bands)

	tilesX := (width + blockSize - 1) / blockSize
	tilesY := (height + blockSize - 1) / blockSize
	totalTiles := tilesX * tilesY

	log.Printf("Raster sweep: %dx%d px, %d days (%d bands), %d tiles of %dpx, %d workers",
		width, height, days, bands, totalTiles, blockSize, e.opts.Workers)

	tileIdx := 0
	for by := 0; by < height; by += blockSize {
		for bx := 0; bx < width; bx += blockSize {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("sweep: interrupted at tile %d/%d: %w",
					tileIdx, totalTiles, err)
			}
			tileIdx++

			bw := blockSize
			if bx+bw > width {
				bw = width - bx
			}
			bh := blockSize
			if by+bh > height {
				bh = height - by
			}

			t0 := time.Now()

			tileElev := elev[:bw*bh]
			if err := src.Read(bx, by, bw, bh, tileElev); err != nil {
				log.Printf("WARNING: tile %d/%d read failed at (%d,%d): %v - skipping",
					tileIdx, totalTiles, bx, by, err)
				continue
			}

			tileOut := out[:bw*bh*bands]
			e.computeTile(tileElev, tileOut, bx, by, bw, bh, gt, ndValue, ndDeclared, dates)

			if err := sink.WriteBlock(bx, by, bw, bh, bandList, tileOut); err != nil {
				log.Printf("WARNING: tile %d/%d write failed at (%d,%d): %v - skipping",
					tileIdx, totalTiles, bx, by, err)
				continue
			}

			e.addPixels(bw * bh * days)
			e.addBytes(bw * bh * bands * 4)
			e.setBlockLatency(uint64(time.Since(t0)))

			log.Printf("  tile %d/%d (%d,%d) %dx%d in %v",
				tileIdx, totalTiles, bx, by, bw, bh,
				time.Since(t0).Round(time.Millisecond))
		}
	}

	log.Printf("Raster sweep complete: %d tiles", totalTiles)
	return nil
}

// computeTile fills the band-sequential buffer for one tile: every local
// pixel gets either the no-data sentinel in all bands or a full year of
// rise/set pairs. Pixels fan out across workers; each writes only its own
// buffer slots.
func (e *Engine) computeTile(elev, out []float32, bx, by, bw, bh int,
	gt raster.GeoTransform, ndValue float64, ndDeclared bool, dates []solar.Date) {

	pixels := bw * bh
	parallelFor(pixels, e.opts.Workers, func(start, end int) {
		for i := start; i < end; i++ {
			v := elev[i]
			if raster.IsNoData(v, ndValue, ndDeclared) || (e.opts.MaskZeroRaster && v == 0) {
				for b := 0; b < len(dates)*2; b++ {
					out[b*pixels+i] = solar.NoEvent
				}
				continue
			}

			lon, lat := gt.PixelToGeo(bx+i%bw, by+i/bw)
			elevation := float64(v)

			for d, date := range dates {
				rise := e.calc.Sunrise(lat, lon, elevation, date.Year, date.Month, date.Day)
				set := e.calc.Sunset(lat, lon, elevation, date.Year, date.Month, date.Day)
				out[(2*d)*pixels+i] = float32(rise)
				out[(2*d+1)*pixels+i] = float32(set)
			}
		}
	})
}
