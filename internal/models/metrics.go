package models

import "time"

// CounterSample is a single cumulative read of interface byte counters.
// Counters are monotonic during normal operation but may reset to zero
// (interface restart) or appear to decrease (wraparound, provider glitch).
type CounterSample struct {
	BytesIn  uint64    `json:"bytes_in"`
	BytesOut uint64    `json:"bytes_out"`
	TakenAt  time.Time `json:"taken_at"`
}

// MemoryStats reports virtual-memory occupancy in bytes.
type MemoryStats struct {
	Used  uint64 `json:"used_bytes"`
	Total uint64 `json:"total_bytes"`
}

// FilesystemStats reports capacity for a single mount point in bytes.
type FilesystemStats struct {
	Used  uint64 `json:"used_bytes"`
	Total uint64 `json:"total_bytes"`
}

// Snapshot captures host-level resource usage sampled for status display.
// Rates are MiB/s. Degraded lists metric names whose values were substituted
// by the fallback strategy rather than read from the operating system.
type Snapshot struct {
	CPUPercent    float64   `json:"cpu_percent"`
	Load1         float64   `json:"load1"`
	MemoryPercent float64   `json:"memory_percent"`
	MemoryUsed    uint64    `json:"memory_used_bytes"`
	MemoryTotal   uint64    `json:"memory_total_bytes"`
	UploadMiBps   float64   `json:"upload_mibps"`
	DownloadMiBps float64   `json:"download_mibps"`
	DiskPercent   float64   `json:"disk_percent"`
	DiskUsed      uint64    `json:"disk_used_bytes"`
	DiskTotal     uint64    `json:"disk_total_bytes"`
	Degraded      []string  `json:"degraded,omitempty"`
	SampledAt     time.Time `json:"sampled_at"`
}

// Copy returns a deep copy of the snapshot so callers can mutate safely.
func (s *Snapshot) Copy() *Snapshot {
	if s == nil {
		return nil
	}
	dup := *s
	if s.Degraded != nil {
		dup.Degraded = append([]string(nil), s.Degraded...)
	}
	return &dup
}

// MetricPoint is one entry of a per-metric history window.
type MetricPoint struct {
	At    time.Time `json:"at"`
	Value float64   `json:"value"`
}

// HistoryWindow holds the bounded per-metric time series surfaced to the panel.
type HistoryWindow struct {
	CPU      []MetricPoint `json:"cpu"`
	Memory   []MetricPoint `json:"memory"`
	Upload   []MetricPoint `json:"upload"`
	Download []MetricPoint `json:"download"`
	Disk     []MetricPoint `json:"disk"`
}
