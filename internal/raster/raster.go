// Package raster defines the minimal raster data model shared by the sweep
// engine and its I/O backends: the affine geotransform, an in-memory
// elevation grid, and the source/sink contracts the engine runs against.
//
// The package has no cgo dependency. GDAL-backed implementations live in
// internal/dem so that engine tests can run against in-memory fakes
// without linking cgo.
package raster

import "math"

// GeoTransform holds the six affine coefficients mapping pixel column/row
// to geographic coordinates:
//
//	lon = gt[0] + x*gt[1] + y*gt[2]
//	lat = gt[3] + x*gt[4] + y*gt[5]
//
// It is read once from the input raster and copied verbatim (bit-for-bit)
// into every output artifact so spatial alignment is preserved.
type GeoTransform [6]float64

// PixelToGeo returns the geographic coordinates of the pixel origin (x, y).
func (gt GeoTransform) PixelToGeo(x, y int) (lon, lat float64) {
	fx, fy := float64(x), float64(y)
	lon = gt[0] + fx*gt[1] + fy*gt[2]
	lat = gt[3] + fx*gt[4] + fy*gt[5]
	return lon, lat
}

// Grid is a width x height elevation grid in row-major order (north row
// first) plus the no-data sentinel designated by the source raster.
type Grid struct {
	Width     int
	Height    int
	Data      []float32 // Width*Height samples, row-major
	NoData    float64   // designated no-data value (valid when HasNoData)
	HasNoData bool
}

// At returns the sample at pixel (x, y).
func (g *Grid) At(x, y int) float32 {
	return g.Data[y*g.Width+x]
}

// IsNoData reports whether a sample is unusable: NaN always, or equal to
// the designated no-data value when the source declares one.
func (g *Grid) IsNoData(v float32) bool {
	return IsNoData(v, g.NoData, g.HasNoData)
}

// IsNoData reports whether sample v is unusable given a source's declared
// no-data value. NaN samples are always unusable; the declared comparison
// applies only when the source actually declares a sentinel.
func IsNoData(v float32, nodata float64, declared bool) bool {
	f := float64(v)
	if math.IsNaN(f) {
		return true
	}
	return declared && f == nodata
}

// Source is a read-only elevation raster: one float band with dimensions,
// georeferencing, and an optional declared no-data value.
type Source interface {
	// Size returns the raster dimensions in pixels.
	Size() (width, height int)

	// GeoTransform returns the affine pixel-to-geographic mapping.
	GeoTransform() GeoTransform

	// Projection returns the spatial reference as a WKT string
	// (may be empty for rasters without one).
	Projection() string

	// NoData returns the declared no-data value of the elevation band.
	// ok is false when the source does not declare one.
	NoData() (value float64, ok bool)

	// Read fills dst with the w x h window at pixel offset (x, y) from
	// the elevation band, row-major. len(dst) must be at least w*h.
	Read(x, y, w, h int, dst []float32) error
}

// Sink is a writable multi-band float32 raster spatially aligned with the
// source it was created from.
type Sink interface {
	// WriteBlock writes a band-sequential buffer covering the w x h
	// window at pixel offset (x, y): buf holds all w*h pixels of
	// bands[0], then all pixels of bands[1], and so on. Band numbers
	// are 1-based.
	WriteBlock(x, y, w, h int, bands []int, buf []float32) error

	// Close flushes and releases the output. The sink is unusable
	// afterwards.
	Close() error
}
