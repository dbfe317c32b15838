// Package wire implements the solar sweep binary stream protocol.
//
// A stream is one 65-byte header followed by one block per day of the
// swept year, in ascending day order. All integers and floats are
// little-endian:
//
//	Header: ASCII "SOLAR"        (5 bytes, no terminator)
//	        int32  width
//	        int32  height
//	        int32  daysInYear
//	        float64[6] geotransform
//	Block:  int32  dayOfYear     (1-based)
//	        int16[width*height] sunriseMinutes
//	        int16[width*height] sunsetMinutes
//
// Minutes-of-day arrays use -1 for masked or eventless pixels. The
// producer flushes after the header and after every block, so a consumer
// can parse incrementally while the sweep is still running. There is no
// end marker: a complete stream contains exactly daysInYear blocks.
package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/solartopo/solartopo/internal/raster"
)

// Magic is the 5-byte stream signature.
const Magic = "SOLAR"

// HeaderSize is the encoded header length in bytes: 5 + 3*4 + 6*8.
const HeaderSize = 65

// MaskedMinutes marks masked or eventless pixels in minute arrays.
const MaskedMinutes int16 = -1

// Header describes one full-year stream.
type Header struct {
	Width        int32
	Height       int32
	Days         int32
	GeoTransform raster.GeoTransform
}

// Pixels returns the per-array element count (width * height).
func (h Header) Pixels() int {
	return int(h.Width) * int(h.Height)
}

// BlockSize returns the encoded size of one day block in bytes.
func (h Header) BlockSize() int {
	return 4 + 4*h.Pixels()
}

// Block holds one decoded day block.
type Block struct {
	Day     int32
	Sunrise []int16
	Sunset  []int16
}

// =============================================================================
// Writer
// =============================================================================

// Writer encodes a stream onto an io.Writer, flushing after the header
// and after every block so downstream consumers never wait on a partial
// unit. Not safe for concurrent use; the sweep writes blocks in strict
// day order from a single goroutine.
type Writer struct {
	bw      *bufio.Writer
	pixels  int
	scratch []byte // one encoded minute array, reused across blocks
	wrote   bool
}

// NewWriter wraps w for stream output.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, 256*1024)}
}

// WriteHeader encodes and flushes the stream header. Must be called once,
// before any block.
func (w *Writer) WriteHeader(h Header) error {
	if w.wrote {
		return fmt.Errorf("wire: header already written")
	}
	if h.Width <= 0 || h.Height <= 0 || h.Days <= 0 {
		return fmt.Errorf("wire: invalid header dimensions %dx%d days=%d",
			h.Width, h.Height, h.Days)
	}

	var buf [HeaderSize]byte
	copy(buf[0:5], Magic)
	binary.LittleEndian.PutUint32(buf[5:9], uint32(h.Width))
	binary.LittleEndian.PutUint32(buf[9:13], uint32(h.Height))
	binary.LittleEndian.PutUint32(buf[13:17], uint32(h.Days))
	for i, v := range h.GeoTransform {
		binary.LittleEndian.PutUint64(buf[17+8*i:25+8*i], math.Float64bits(v))
	}

	if _, err := w.bw.Write(buf[:]); err != nil {
		return fmt.Errorf("wire: write header: %w", err)
	}
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("wire: flush header: %w", err)
	}

	w.pixels = h.Pixels()
	w.scratch = make([]byte, 2*w.pixels)
	w.wrote = true
	return nil
}

// WriteBlock encodes and flushes one day block. Both arrays must hold
// exactly width*height entries.
func (w *Writer) WriteBlock(dayOfYear int, sunrise, sunset []int16) error {
	if !w.wrote {
		return fmt.Errorf("wire: block written before header")
	}
	if len(sunrise) != w.pixels || len(sunset) != w.pixels {
		return fmt.Errorf("wire: day %d array length %d/%d, want %d",
			dayOfYear, len(sunrise), len(sunset), w.pixels)
	}

	var day [4]byte
	binary.LittleEndian.PutUint32(day[:], uint32(dayOfYear))
	if _, err := w.bw.Write(day[:]); err != nil {
		return fmt.Errorf("wire: write day %d: %w", dayOfYear, err)
	}
	if err := w.writeMinutes(sunrise); err != nil {
		return fmt.Errorf("wire: write day %d sunrise: %w", dayOfYear, err)
	}
	if err := w.writeMinutes(sunset); err != nil {
		return fmt.Errorf("wire: write day %d sunset: %w", dayOfYear, err)
	}
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("wire: flush day %d: %w", dayOfYear, err)
	}
	return nil
}

func (w *Writer) writeMinutes(minutes []int16) error {
	for i, v := range minutes {
		binary.LittleEndian.PutUint16(w.scratch[2*i:], uint16(v))
	}
	_, err := w.bw.Write(w.scratch)
	return err
}

// =============================================================================
// Reader
// =============================================================================

// Reader decodes a stream from an io.Reader.
type Reader struct {
	br      *bufio.Reader
	pixels  int
	scratch []byte // one encoded minute array, reused across blocks
	read    bool
}

// NewReader wraps r for stream input.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 256*1024)}
}

// ReadHeader decodes and validates the stream header. Must be called
// once, before any block.
func (r *Reader) ReadHeader() (Header, error) {
	if r.read {
		return Header{}, fmt.Errorf("wire: header already read")
	}

	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r.br, buf[:]); err != nil {
		return Header{}, fmt.Errorf("wire: read header: %w", err)
	}
	if string(buf[0:5]) != Magic {
		return Header{}, fmt.Errorf("wire: bad magic %q, want %q", buf[0:5], Magic)
	}

	var h Header
	h.Width = int32(binary.LittleEndian.Uint32(buf[5:9]))
	h.Height = int32(binary.LittleEndian.Uint32(buf[9:13]))
	h.Days = int32(binary.LittleEndian.Uint32(buf[13:17]))
	for i := range h.GeoTransform {
		h.GeoTransform[i] = math.Float64frombits(
			binary.LittleEndian.Uint64(buf[17+8*i : 25+8*i]))
	}

	if h.Width <= 0 || h.Height <= 0 || h.Days <= 0 {
		return Header{}, fmt.Errorf("wire: invalid header dimensions %dx%d days=%d",
			h.Width, h.Height, h.Days)
	}

	r.pixels = h.Pixels()
	r.scratch = make([]byte, 2*r.pixels)
	r.read = true
	return h, nil
}

// ReadBlock decodes the next day block into b, reusing its slices when
// capacity allows. Returns io.EOF at a clean end of stream (block
// boundary) and io.ErrUnexpectedEOF when the stream is truncated inside
// a block.
func (r *Reader) ReadBlock(b *Block) error {
	if !r.read {
		return fmt.Errorf("wire: block read before header")
	}

	var day [4]byte
	if _, err := io.ReadFull(r.br, day[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("wire: read day index: %w", err)
	}
	b.Day = int32(binary.LittleEndian.Uint32(day[:]))

	var err error
	if b.Sunrise, err = r.readMinutes(b.Sunrise); err != nil {
		return fmt.Errorf("wire: read day %d sunrise: %w", b.Day, err)
	}
	if b.Sunset, err = r.readMinutes(b.Sunset); err != nil {
		return fmt.Errorf("wire: read day %d sunset: %w", b.Day, err)
	}
	return nil
}

func (r *Reader) readMinutes(dst []int16) ([]int16, error) {
	if _, err := io.ReadFull(r.br, r.scratch); err != nil {
		if err == io.EOF {
			// A day index with no payload is a truncation, not a
			// clean end.
			err = io.ErrUnexpectedEOF
		}
		return dst, err
	}

	if cap(dst) < r.pixels {
		dst = make([]int16, r.pixels)
	}
	dst = dst[:r.pixels]
	for i := range dst {
		dst[i] = int16(binary.LittleEndian.Uint16(r.scratch[2*i:]))
	}
	return dst, nil
}
