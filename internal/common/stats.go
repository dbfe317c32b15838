package common

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// Stats holds atomic counters for sweep and load telemetry. All reporter
// output goes to stderr: stdout can be carrying the binary result stream
// and must never be interleaved with diagnostics.
type Stats struct {
	TotalPixelsProcessed uint64 // Atomic counter for pixel results produced
	TotalBytesWritten    uint64 // Atomic counter for bytes written downstream
	CurrentBlockLatency  uint64 // Atomic counter for last block latency in nanoseconds

	// Internal state for reporter
	running    atomic.Bool
	stopCh     chan struct{}
	silent     bool
	lastPixels uint64
	lastBytes  uint64
	lastTime   time.Time

	// Moving average window for Mpps calculation
	mppsWindow     []float64
	mppsWindowSize int
	mppsIndex      int
}

// NewStats creates a new Stats instance.
func NewStats() *Stats {
	return &Stats{
		stopCh:         make(chan struct{}),
		mppsWindow:     make([]float64, 10), // 10-sample moving average (5 seconds)
		mppsWindowSize: 10,
		mppsIndex:      0,
	}
}

// AddPixels atomically increments the pixel-results counter.
func (s *Stats) AddPixels(count uint64) {
	atomic.AddUint64(&s.TotalPixelsProcessed, count)
}

// AddBytes atomically increments the bytes-written counter.
func (s *Stats) AddBytes(count uint64) {
	atomic.AddUint64(&s.TotalBytesWritten, count)
}

// SetBlockLatency atomically sets the latest block latency in nanoseconds.
func (s *Stats) SetBlockLatency(ns uint64) {
	atomic.StoreUint64(&s.CurrentBlockLatency, ns)
}

// GetTotalPixels atomically reads the pixel-results counter.
func (s *Stats) GetTotalPixels() uint64 {
	return atomic.LoadUint64(&s.TotalPixelsProcessed)
}

// GetTotalBytes atomically reads the bytes-written counter.
func (s *Stats) GetTotalBytes() uint64 {
	return atomic.LoadUint64(&s.TotalBytesWritten)
}

// GetBlockLatency atomically reads the latest block latency.
func (s *Stats) GetBlockLatency() uint64 {
	return atomic.LoadUint64(&s.CurrentBlockLatency)
}

// SetSilent enables or disables silent mode.
func (s *Stats) SetSilent(silent bool) {
	s.silent = silent
}

// StartReporter starts a background goroutine that prints telemetry to
// stderr every 500ms.
func (s *Stats) StartReporter() {
	if s.running.Load() {
		return // Already running
	}

	s.running.Store(true)
	s.lastTime = time.Now()
	s.lastPixels = 0
	s.lastBytes = 0

	go s.reporterLoop()
}

// StopReporter stops the background reporter goroutine.
func (s *Stats) StopReporter() {
	if !s.running.Load() {
		return
	}

	s.running.Store(false)
	close(s.stopCh)
}

// reporterLoop is the background goroutine that periodically prints stats.
func (s *Stats) reporterLoop() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.printStatus()
		}
	}
}

// printStatus prints the current telemetry snapshot to stderr.
func (s *Stats) printStatus() {
	if s.silent {
		return
	}

	now := time.Now()
	elapsed := now.Sub(s.lastTime).Seconds()

	if elapsed < 0.001 {
		// Avoid division by zero on first tick
		return
	}

	currentPixels := s.GetTotalPixels()
	currentBytes := s.GetTotalBytes()
	blockLatencyNs := s.GetBlockLatency()

	deltaPixels := currentPixels - s.lastPixels
	deltaBytes := currentBytes - s.lastBytes

	mibPerSec := (float64(deltaBytes) / (1024 * 1024)) / elapsed
	mpps := (float64(deltaPixels) / 1_000_000) / elapsed

	// Update moving average for Mpps
	s.mppsWindow[s.mppsIndex] = mpps
	s.mppsIndex = (s.mppsIndex + 1) % s.mppsWindowSize

	var sum float64
	var count int
	for i := 0; i < s.mppsWindowSize; i++ {
		if s.mppsWindow[i] > 0 {
			sum += s.mppsWindow[i]
			count++
		}
	}
	smoothedMpps := 0.0
	if count > 0 {
		smoothedMpps = sum / float64(count)
	}

	blockLatencyMs := float64(blockLatencyNs) / 1_000_000

	fmt.Fprintf(os.Stderr, "[Progress] Compute: %.2f Mpx/s (avg: %.2f) | Block: %.2f ms | Out: %.2f MiB/s | Total: %d px\n",
		mpps,
		smoothedMpps,
		blockLatencyMs,
		mibPerSec,
		currentPixels,
	)

	s.lastPixels = currentPixels
	s.lastBytes = currentBytes
	s.lastTime = now
}

// Reset resets all counters (useful for testing or restarting).
func (s *Stats) Reset() {
	atomic.StoreUint64(&s.TotalPixelsProcessed, 0)
	atomic.StoreUint64(&s.TotalBytesWritten, 0)
	atomic.StoreUint64(&s.CurrentBlockLatency, 0)
	s.lastPixels = 0
	s.lastBytes = 0
	s.lastTime = time.Now()

	for i := range s.mppsWindow {
		s.mppsWindow[i] = 0
	}
	s.mppsIndex = 0
}
