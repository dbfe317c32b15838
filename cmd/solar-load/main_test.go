package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestSunBatchColumnAlignment(t *testing.T) {
	b := NewSunBatch()
	b.AddRow("alpes", 17, 3, 2, 6.25, 45.5, 390, 1085)
	b.AddRow("alpes", 17, 4, 2, 6.26, 45.5, -1, -1)

	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}

	wantCols := []string{"dataset", "day", "x", "y", "lon", "lat", "sunrise_min", "sunset_min"}
	input := b.Input()
	if len(input) != len(wantCols) {
		t.Fatalf("Input() has %d columns, want %d", len(input), len(wantCols))
	}
	for i, col := range input {
		if col.Name != wantCols[i] {
			t.Errorf("column %d = %q, want %q", i, col.Name, wantCols[i])
		}
		if col.Data.Rows() != 2 {
			t.Errorf("column %q holds %d rows, want 2", col.Name, col.Data.Rows())
		}
	}

	b.Reset()
	if b.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", b.Len())
	}
	for _, col := range b.Input() {
		if col.Data.Rows() != 0 {
			t.Errorf("column %q not cleared by Reset", col.Name)
		}
	}
}

func TestOpenInputGzipAutodetect(t *testing.T) {
	dir := t.TempDir()
	payload := []byte("SOLAR test payload, long enough to survive a peek")

	plain := filepath.Join(dir, "capture.bin")
	if err := os.WriteFile(plain, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	gzPath := filepath.Join(dir, "capture.bin.gz")
	if err := os.WriteFile(gzPath, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{plain, gzPath} {
		r, closeInput, err := openInput(path)
		if err != nil {
			t.Fatalf("openInput(%s): %v", path, err)
		}
		got, err := io.ReadAll(r)
		closeInput()
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("%s: decoded %d bytes, want original payload", path, len(got))
		}
	}
}
