package monitor

import (
	"time"

	"sysbar/internal/models"
)

const (
	// RateCap is the maximum plausible throughput in MiB/s. Readings above it
	// are rejected as provider glitches, not clamped.
	RateCap = 1000.0
	// MinInterval is the shortest elapsed time between rate publications.
	// Ticks arriving faster leave the published pair unchanged.
	MinInterval = 500 * time.Millisecond

	bytesPerMiB = 1 << 20
)

// RateSampler converts a stream of cumulative interface counter samples into
// a bounded bytes-per-second rate per direction. It has exactly one writer
// (the telemetry tick); published values are handed out as a pair so readers
// never observe a half-updated rate.
type RateSampler struct {
	previous      *models.CounterSample
	lastPublished time.Time
	upload        float64
	download      float64
}

// Observe folds one counter sample into the sampler state and returns the
// published (upload, download) pair in MiB/s. It never fails; counter resets,
// wraparounds, and implausible readings all degrade to a zero pair.
func (s *RateSampler) Observe(now time.Time, sample models.CounterSample) (float64, float64) {
	if s.previous == nil {
		prev := sample
		s.previous = &prev
		s.lastPublished = now
		return s.upload, s.download
	}

	elapsed := now.Sub(s.lastPublished)
	if elapsed <= MinInterval {
		// The most recent read always becomes previous, even when the tick is
		// too fast to publish.
		prev := sample
		s.previous = &prev
		return s.upload, s.download
	}

	// Signed arithmetic: a reset or wrapped counter yields a negative delta.
	uploadDelta := int64(sample.BytesOut) - int64(s.previous.BytesOut)
	downloadDelta := int64(sample.BytesIn) - int64(s.previous.BytesIn)

	seconds := elapsed.Seconds()
	uploadRaw := float64(uploadDelta) / seconds / bytesPerMiB
	downloadRaw := float64(downloadDelta) / seconds / bytesPerMiB

	if uploadDelta < 0 || downloadDelta < 0 || uploadRaw > RateCap || downloadRaw > RateCap {
		// Invalid or reset reading. A single malfunctioning direction zeroes
		// both so consumers never see one garbage half of a pair.
		s.upload = 0
		s.download = 0
	} else {
		s.upload = clampFloat(uploadRaw, 0, RateCap)
		s.download = clampFloat(downloadRaw, 0, RateCap)
	}

	s.lastPublished = now
	prev := sample
	s.previous = &prev
	return s.upload, s.download
}

// Rates returns the last published pair without advancing the sampler.
func (s *RateSampler) Rates() (float64, float64) {
	return s.upload, s.download
}

// Initialized reports whether the sampler has absorbed its first sample.
func (s *RateSampler) Initialized() bool {
	return s.previous != nil
}
