package main

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/parquet-go/parquet-go"
)

func TestCodecFor(t *testing.T) {
	for _, name := range []string{"snappy", "SNAPPY", "gzip", "zstd", "none", "uncompressed"} {
		if _, err := codecFor(name); err != nil {
			t.Errorf("codecFor(%q): %v", name, err)
		}
	}
	if _, err := codecFor("lzo"); err == nil {
		t.Error("codecFor(lzo) accepted, want error")
	}
}

func TestDayRowRoundTrip(t *testing.T) {
	rows := []DayRow{
		{Day: 1, Sunrise: []int16{390, -1, 412}, Sunset: []int16{1085, -1, 1071}},
		{Day: 2, Sunrise: []int16{389, -1, 411}, Sunset: []int16{1086, -1, 1072}},
		{Day: 3, Sunrise: []int16{388, -1, 410}, Sunset: []int16{1088, -1, 1074}},
	}

	var buf bytes.Buffer
	w := parquet.NewGenericWriter[DayRow](&buf, parquet.Compression(&parquet.Snappy))
	for _, row := range rows {
		if _, err := w.Write([]DayRow{row}); err != nil {
			t.Fatalf("Write day %d: %v", row.Day, err)
		}
		if err := w.Flush(); err != nil {
			t.Fatalf("Flush day %d: %v", row.Day, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	pf, err := parquet.OpenFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if pf.NumRows() != int64(len(rows)) {
		t.Errorf("NumRows = %d, want %d", pf.NumRows(), len(rows))
	}
	// One row group per flushed day.
	if got := len(pf.RowGroups()); got != len(rows) {
		t.Errorf("row groups = %d, want %d", got, len(rows))
	}

	r := parquet.NewGenericReader[DayRow](pf)
	defer r.Close()

	var got []DayRow
	one := make([]DayRow, 1)
	for {
		n, err := r.Read(one)
		if n > 0 {
			got = append(got, DayRow{
				Day:     one[0].Day,
				Sunrise: append([]int16(nil), one[0].Sunrise...),
				Sunset:  append([]int16(nil), one[0].Sunset...),
			})
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if n == 0 {
			break
		}
	}

	if diff := cmp.Diff(rows, got); diff != "" {
		t.Errorf("round trip mismatch (-wrote +read):\n%s", diff)
	}
}
