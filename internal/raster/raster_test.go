package raster

import (
	"math"
	"testing"
)

func TestPixelToGeo(t *testing.T) {
	// North-up raster: origin (100E, 45N), 0.01 degree pixels.
	gt := GeoTransform{100.0, 0.01, 0, 45.0, 0, -0.01}

	tests := []struct {
		x, y     int
		lon, lat float64
	}{
		{0, 0, 100.0, 45.0},
		{10, 0, 100.1, 45.0},
		{0, 20, 100.0, 44.8},
		{250, 100, 102.5, 44.0},
	}
	for _, tc := range tests {
		lon, lat := gt.PixelToGeo(tc.x, tc.y)
		if math.Abs(lon-tc.lon) > 1e-12 || math.Abs(lat-tc.lat) > 1e-12 {
			t.Errorf("PixelToGeo(%d, %d) = (%f, %f), want (%f, %f)",
				tc.x, tc.y, lon, lat, tc.lon, tc.lat)
		}
	}
}

func TestPixelToGeoRotationTerms(t *testing.T) {
	// Rotated transforms must apply all six coefficients.
	gt := GeoTransform{10.0, 0.5, 0.25, 50.0, -0.1, -0.5}
	lon, lat := gt.PixelToGeo(4, 2)
	if math.Abs(lon-12.5) > 1e-12 {
		t.Errorf("lon = %f, want 12.5", lon)
	}
	if math.Abs(lat-48.6) > 1e-12 {
		t.Errorf("lat = %f, want 48.6", lat)
	}
}

func TestGridAt(t *testing.T) {
	g := &Grid{
		Width:  3,
		Height: 2,
		Data:   []float32{1, 2, 3, 4, 5, 6},
	}
	if got := g.At(0, 0); got != 1 {
		t.Errorf("At(0,0) = %f, want 1", got)
	}
	if got := g.At(2, 0); got != 3 {
		t.Errorf("At(2,0) = %f, want 3", got)
	}
	if got := g.At(0, 1); got != 4 {
		t.Errorf("At(0,1) = %f, want 4", got)
	}
	if got := g.At(2, 1); got != 6 {
		t.Errorf("At(2,1) = %f, want 6", got)
	}
}

func TestGridIsNoData(t *testing.T) {
	g := &Grid{NoData: -9999.0, HasNoData: true}

	if !g.IsNoData(-9999.0) {
		t.Error("declared no-data value not recognized")
	}
	if !g.IsNoData(float32(math.NaN())) {
		t.Error("NaN not recognized as no-data")
	}
	if g.IsNoData(0) {
		t.Error("zero elevation must not be no-data (zero masking is a mode policy)")
	}
	if g.IsNoData(421.5) {
		t.Error("valid elevation flagged as no-data")
	}

	// Without a declared sentinel only NaN masks.
	bare := &Grid{}
	if bare.IsNoData(-9999.0) {
		t.Error("undeclared sentinel should not mask")
	}
	if !bare.IsNoData(float32(math.NaN())) {
		t.Error("NaN must mask even without a declared sentinel")
	}
}
