package dem

// #include <stdlib.h>
// #include "gdal.h"
// #cgo pkg-config: gdal
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/solartopo/solartopo/internal/raster"
)

// CreateOptions configures the sweep output GeoTIFF.
type CreateOptions struct {
	Width, Height int
	Bands         int
	BlockSize     int // internal tile edge (0 = 512)
	GeoTransform  raster.GeoTransform
	Projection    string
	NoData        float64
	Descriptions  []string // optional band labels, Descriptions[i] labels band i+1
}

// Output is a tiled multi-band Float32 GeoTIFF written block by block.
type Output struct {
	ds       C.GDALDatasetH
	path     string
	bandList []C.int
}

var _ raster.Sink = (*Output)(nil)

// Create makes the output GeoTIFF: LZW-compressed, tiled, BigTIFF when
// needed, with per-band nodata and descriptions. Georeferencing comes in
// through opts and is applied verbatim.
func Create(path string, opts CreateOptions) (*Output, error) {
	register()

	if opts.Width <= 0 || opts.Height <= 0 || opts.Bands <= 0 {
		return nil, fmt.Errorf("dem: invalid output shape %dx%d, %d bands",
			opts.Width, opts.Height, opts.Bands)
	}
	blockSize := opts.BlockSize
	if blockSize <= 0 {
		blockSize = 512
	}

	driverName := C.CString("GTiff")
	defer C.free(unsafe.Pointer(driverName))
	hDriver := C.GDALGetDriverByName(driverName)
	if hDriver == nil {
		return nil, fmt.Errorf("dem: GTiff driver not available")
	}

	var driverOptions []*C.char
	driverOptions = append(driverOptions, C.CString("COMPRESS=LZW"))
	driverOptions = append(driverOptions, C.CString("PREDICTOR=2"))
	driverOptions = append(driverOptions, C.CString("TILED=YES"))
	driverOptions = append(driverOptions, C.CString(fmt.Sprintf("BLOCKXSIZE=%d", blockSize)))
	driverOptions = append(driverOptions, C.CString(fmt.Sprintf("BLOCKYSIZE=%d", blockSize)))
	driverOptions = append(driverOptions, C.CString("BIGTIFF=IF_NEEDED"))
	for _, opt := range driverOptions {
		defer C.free(unsafe.Pointer(opt))
	}
	// GDAL wants a NULL-terminated option array.
	driverOptions = append(driverOptions, nil)

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	ds := C.GDALCreate(hDriver, cPath,
		C.int(opts.Width), C.int(opts.Height), C.int(opts.Bands),
		C.GDT_Float32, &driverOptions[0])
	if ds == nil {
		return nil, fmt.Errorf("dem: could not create %s", path)
	}

	gt := opts.GeoTransform
	C.GDALSetGeoTransform(ds, (*C.double)(unsafe.Pointer(&gt[0])))
	if opts.Projection != "" {
		projWKT := C.CString(opts.Projection)
		C.GDALSetProjection(ds, projWKT)
		C.free(unsafe.Pointer(projWKT))
	}

	for i := 1; i <= opts.Bands; i++ {
		hBand := C.GDALGetRasterBand(ds, C.int(i))
		C.GDALSetRasterNoDataValue(hBand, C.double(opts.NoData))
		if i-1 < len(opts.Descriptions) {
			desc := C.CString(opts.Descriptions[i-1])
			C.GDALSetDescription(C.GDALMajorObjectH(hBand), desc)
			C.free(unsafe.Pointer(desc))
		}
	}

	return &Output{ds: ds, path: path}, nil
}

// WriteBlock writes a band-sequential buffer covering the w x h window at
// pixel offset (x, y). Band numbers are 1-based; buf holds w*h samples
// per band, bands[0] first.
func (o *Output) WriteBlock(x, y, w, h int, bands []int, buf []float32) error {
	if len(bands) == 0 {
		return nil
	}
	if len(buf) < w*h*len(bands) {
		return fmt.Errorf("dem: write buffer holds %d samples, window needs %d",
			len(buf), w*h*len(bands))
	}

	if cap(o.bandList) < len(bands) {
		o.bandList = make([]C.int, len(bands))
	}
	o.bandList = o.bandList[:len(bands)]
	for i, b := range bands {
		o.bandList[i] = C.int(b)
	}

	// Default spacing arguments give the band-sequential layout.
	gerr := C.GDALDatasetRasterIO(o.ds, C.GF_Write,
		C.int(x), C.int(y), C.int(w), C.int(h),
		unsafe.Pointer(&buf[0]), C.int(w), C.int(h), C.GDT_Float32,
		C.int(len(bands)), (*C.int)(unsafe.Pointer(&o.bandList[0])),
		0, 0, 0)
	if gerr != C.CE_None {
		return fmt.Errorf("dem: write %dx%d window at (%d,%d) of %s: GDAL error %d",
			w, h, x, y, o.path, int(gerr))
	}
	return nil
}

// Close flushes pending tiles and finalizes the file.
func (o *Output) Close() error {
	if o.ds != nil {
		C.GDALClose(o.ds)
		o.ds = nil
	}
	return nil
}
