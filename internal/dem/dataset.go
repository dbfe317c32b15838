// Package dem provides GDAL-backed raster I/O for the sweep binary:
// opening an elevation GeoTIFF as a raster.Source and creating the tiled
// multi-band result GeoTIFF as a raster.Sink. It is the only package in
// the module that links cgo; everything upstream works against the
// interfaces in internal/raster and is testable without GDAL.
package dem

// #include <stdlib.h>
// #include "gdal.h"
// #cgo pkg-config: gdal
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/solartopo/solartopo/internal/raster"
)

var registerOnce sync.Once

// register loads the GDAL driver registry once per process.
func register() {
	registerOnce.Do(func() {
		C.GDALAllRegister()
	})
}

// Dataset is a read-only elevation raster backed by a GDAL dataset.
// Band 1 carries the elevation samples. Georeferencing is read once at
// Open so the getters never touch GDAL again.
type Dataset struct {
	ds        C.GDALDatasetH
	path      string
	width     int
	height    int
	gt        raster.GeoTransform
	proj      string
	nodata    float64
	hasNodata bool
}

var _ raster.Source = (*Dataset)(nil)

// Open opens path read-only. The dataset must carry a geotransform: an
// elevation grid without one cannot be mapped to coordinates.
func Open(path string) (*Dataset, error) {
	register()

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	ds := C.GDALOpen(cPath, C.GA_ReadOnly)
	if ds == nil {
		return nil, fmt.Errorf("dem: could not open %s", path)
	}

	d := &Dataset{
		ds:     ds,
		path:   path,
		width:  int(C.GDALGetRasterXSize(ds)),
		height: int(C.GDALGetRasterYSize(ds)),
		proj:   C.GoString(C.GDALGetProjectionRef(ds)),
	}
	if d.width <= 0 || d.height <= 0 {
		C.GDALClose(ds)
		return nil, fmt.Errorf("dem: %s is empty (%dx%d)", path, d.width, d.height)
	}
	if C.GDALGetRasterCount(ds) < 1 {
		C.GDALClose(ds)
		return nil, fmt.Errorf("dem: %s has no raster bands", path)
	}

	if C.GDALGetGeoTransform(ds, (*C.double)(unsafe.Pointer(&d.gt[0]))) != C.CE_None {
		C.GDALClose(ds)
		return nil, fmt.Errorf("dem: %s has no geotransform", path)
	}

	bandH := C.GDALGetRasterBand(ds, C.int(1))
	var ok C.int
	d.nodata = float64(C.GDALGetRasterNoDataValue(bandH, &ok))
	d.hasNodata = ok != 0

	return d, nil
}

// Size returns the raster dimensions in pixels.
func (d *Dataset) Size() (int, int) { return d.width, d.height }

// GeoTransform returns the affine pixel-to-geographic mapping.
func (d *Dataset) GeoTransform() raster.GeoTransform { return d.gt }

// Projection returns the spatial reference WKT (may be empty).
func (d *Dataset) Projection() string { return d.proj }

// NoData returns the declared no-data value of the elevation band.
func (d *Dataset) NoData() (float64, bool) { return d.nodata, d.hasNodata }

// Read fills dst with the w x h window at pixel offset (x, y) from the
// elevation band, converting to Float32 regardless of the stored type.
func (d *Dataset) Read(x, y, w, h int, dst []float32) error {
	if len(dst) < w*h {
		return fmt.Errorf("dem: read buffer holds %d samples, window needs %d", len(dst), w*h)
	}

	bandH := C.GDALGetRasterBand(d.ds, C.int(1))
	gerr := C.GDALRasterIO(bandH, C.GF_Read,
		C.int(x), C.int(y), C.int(w), C.int(h),
		unsafe.Pointer(&dst[0]), C.int(w), C.int(h), C.GDT_Float32, 0, 0)
	if gerr != C.CE_None {
		return fmt.Errorf("dem: read %dx%d window at (%d,%d) of %s: GDAL error %d",
			w, h, x, y, d.path, int(gerr))
	}
	return nil
}

// Close releases the dataset handle.
func (d *Dataset) Close() error {
	if d.ds != nil {
		C.GDALClose(d.ds)
		d.ds = nil
	}
	return nil
}
