package provider

import (
	"math/rand"

	"sysbar/internal/models"
)

// Fallback supplies substitute values when an OS read fails. Counter read
// failures never reach a fallback; they always collapse to a zero sample so
// the rate sampler sees a reading on every tick.
type Fallback interface {
	LoadAverage() float64
	Memory() models.MemoryStats
	Filesystem() models.FilesystemStats
}

// ZeroFallback substitutes zero values. The default: fabricated data is off
// unless explicitly enabled.
type ZeroFallback struct{}

func (ZeroFallback) LoadAverage() float64 { return 0 }

func (ZeroFallback) Memory() models.MemoryStats { return models.MemoryStats{} }

func (ZeroFallback) Filesystem() models.FilesystemStats { return models.FilesystemStats{} }

// SyntheticFallback substitutes plausible-looking values so the display keeps
// moving when a source is unreadable. Snapshots carry a degraded marker for
// every substituted field, so consumers can tell fabricated data from real.
type SyntheticFallback struct {
	rng *rand.Rand
}

// NewSyntheticFallback seeds the generator; a fixed seed gives reproducible
// sequences in tests.
func NewSyntheticFallback(seed uint64) *SyntheticFallback {
	return &SyntheticFallback{rng: rand.New(rand.NewSource(int64(seed)))}
}

func (f *SyntheticFallback) LoadAverage() float64 {
	return 0.5 + f.rng.Float64()*1.5
}

func (f *SyntheticFallback) Memory() models.MemoryStats {
	total := uint64(16) << 30
	used := uint64(float64(total) * (0.3 + f.rng.Float64()*0.4))
	return models.MemoryStats{Used: used, Total: total}
}

func (f *SyntheticFallback) Filesystem() models.FilesystemStats {
	total := uint64(512) << 30
	used := uint64(float64(total) * (0.4 + f.rng.Float64()*0.3))
	return models.FilesystemStats{Used: used, Total: total}
}
