// Package sweep implements the full-year solar sweep over an elevation
// raster. One sweep reads a DEM, evaluates sunrise and sunset for every
// pixel and every day of the year, and emits either a tiled multi-band
// raster (two bands per day) or the day-ordered binary stream protocol.
//
// Both modes share the calculator and the parallel per-pixel pass; they
// differ in output encoding, tiling strategy, and masking policy. All
// diagnostics go to stderr via the standard logger: in stream mode stdout
// carries the protocol and is never written by anything else.
package sweep

import (
	"fmt"
	"math"
	"runtime"

	"github.com/solartopo/solartopo/internal/common"
	"github.com/solartopo/solartopo/internal/solar"
	"github.com/solartopo/solartopo/internal/wire"
)

// DefaultBlockSize is the tile edge used by raster mode, matching the
// output GeoTIFF's internal tiling.
const DefaultBlockSize = 512

// Options configures one sweep run.
type Options struct {
	Year     int     // sweep year (two output bands or one stream block per day)
	Timezone float64 // local-time offset in hours east of UTC
	Workers  int     // parallel workers for the pixel pass (0 = all cores)

	// BlockSize is the raster-mode tile edge in pixels (0 = 512).
	// Stream mode ignores it: the day loop is the outer loop there and
	// the whole grid is held in memory.
	BlockSize int

	// MaskZeroRaster and MaskZeroStream control whether elevation
	// exactly 0 is masked in addition to no-data/NaN. The two modes
	// deliberately carry independent policies: stream consumers expect
	// sea-level zeros to be masked, raster consumers do not.
	MaskZeroRaster bool
	MaskZeroStream bool

	// Stats receives pixel/byte telemetry when set.
	Stats *common.Stats
}

// DefaultOptions returns the observed-default configuration for a year:
// 512-pixel tiles, all cores, zero elevation masked in stream mode only.
func DefaultOptions(year int) Options {
	return Options{
		Year:           year,
		BlockSize:      DefaultBlockSize,
		MaskZeroStream: true,
	}
}

// Engine runs full-year sweeps with a fixed worker pool. One engine holds
// only immutable configuration and may run any number of sweeps.
type Engine struct {
	opts Options
	calc *solar.Calculator
}

// New creates an engine, normalizing zero-value options to their
// defaults.
func New(opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.BlockSize <= 0 {
		opts.BlockSize = DefaultBlockSize
	}
	return &Engine{
		opts: opts,
		calc: solar.NewCalculator(opts.Timezone),
	}
}

// validate rejects configurations no mode can run with.
func (e *Engine) validate() error {
	if e.opts.Year <= 0 {
		return fmt.Errorf("sweep: invalid year %d", e.opts.Year)
	}
	return nil
}

// addPixels forwards telemetry when a collector is attached.
func (e *Engine) addPixels(n int) {
	if e.opts.Stats != nil {
		e.opts.Stats.AddPixels(uint64(n))
	}
}

func (e *Engine) addBytes(n int) {
	if e.opts.Stats != nil {
		e.opts.Stats.AddBytes(uint64(n))
	}
}

func (e *Engine) setBlockLatency(ns uint64) {
	if e.opts.Stats != nil {
		e.opts.Stats.SetBlockLatency(ns)
	}
}

// minutesOfDay converts a decimal hour to rounded minutes of day for the
// stream encoding. The no-event sentinel (negative) and NaN both map to
// the masked marker.
func minutesOfDay(hour float64) int16 {
	if hour < 0 || math.IsNaN(hour) {
		return wire.MaskedMinutes
	}
	return int16(math.Round(hour * 60.0))
}

// =============================================================================
// Band Layout
// =============================================================================

// BandCount returns the number of raster-mode output bands for a year:
// two per day, sunrise first.
func BandCount(year int) int {
	return 2 * solar.DaysInYear(year)
}

// BandDescription returns the label of a 1-based output band: odd bands
// are "Day N Sunrise", even bands "Day N Sunset".
func BandDescription(band int) string {
	day := (band + 1) / 2
	if band%2 == 1 {
		return fmt.Sprintf("Day %d Sunrise", day)
	}
	return fmt.Sprintf("Day %d Sunset", day)
}
