// Package provider reads raw host metrics (interface counters, load average,
// virtual memory, filesystem capacity) from the operating system and defines
// the fallback strategies used when a read fails.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"

	"sysbar/internal/models"
)

// Provider exposes the raw OS queries the monitor needs. Implementations
// return errors; the monitor decides how each failure degrades.
type Provider interface {
	Counters(ctx context.Context) (models.CounterSample, error)
	LoadAverage(ctx context.Context) (float64, error)
	Memory(ctx context.Context) (models.MemoryStats, error)
	Filesystem(ctx context.Context, path string) (models.FilesystemStats, error)
}

// SystemProvider reads metrics via gopsutil. Interface selects which network
// interface's counters are read; empty means the sum across all interfaces.
type SystemProvider struct {
	Interface string
}

// NewSystemProvider returns a provider bound to the named interface
// ("" aggregates all interfaces).
func NewSystemProvider(iface string) *SystemProvider {
	return &SystemProvider{Interface: iface}
}

func (p *SystemProvider) Counters(ctx context.Context) (models.CounterSample, error) {
	now := time.Now()
	if p.Interface == "" {
		stats, err := net.IOCountersWithContext(ctx, false)
		if err != nil {
			return models.CounterSample{TakenAt: now}, err
		}
		if len(stats) == 0 {
			return models.CounterSample{TakenAt: now}, fmt.Errorf("no network counters available")
		}
		return models.CounterSample{
			BytesIn:  stats[0].BytesRecv,
			BytesOut: stats[0].BytesSent,
			TakenAt:  now,
		}, nil
	}

	stats, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return models.CounterSample{TakenAt: now}, err
	}
	for _, ctr := range stats {
		if ctr.Name == p.Interface {
			return models.CounterSample{
				BytesIn:  ctr.BytesRecv,
				BytesOut: ctr.BytesSent,
				TakenAt:  now,
			}, nil
		}
	}
	// A configured interface that is absent counts as a provider failure.
	return models.CounterSample{TakenAt: now}, fmt.Errorf("interface %q not found", p.Interface)
}

func (p *SystemProvider) LoadAverage(ctx context.Context) (float64, error) {
	stats, err := load.AvgWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return stats.Load1, nil
}

func (p *SystemProvider) Memory(ctx context.Context) (models.MemoryStats, error) {
	stats, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return models.MemoryStats{}, err
	}
	return models.MemoryStats{Used: stats.Used, Total: stats.Total}, nil
}

func (p *SystemProvider) Filesystem(ctx context.Context, path string) (models.FilesystemStats, error) {
	stats, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return models.FilesystemStats{}, err
	}
	return models.FilesystemStats{Used: stats.Used, Total: stats.Total}, nil
}
