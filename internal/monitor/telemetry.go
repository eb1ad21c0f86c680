package monitor

import (
	"context"
	"runtime"
	"time"

	"sysbar/internal/models"
)

// StartSampling launches the background loop that refreshes host metrics
// once per tick.
func (m *Monitor) StartSampling() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.sampleStop != nil {
		m.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	m.sampleStop = stop
	m.mu.Unlock()

	m.sampleWG.Add(1)
	go func() {
		defer m.sampleWG.Done()
		ticker := time.NewTicker(time.Duration(m.TickSeconds) * time.Second)
		defer ticker.Stop()
		ctx := context.Background()
		m.Tick(ctx, time.Now())
		for {
			select {
			case <-ticker.C:
				m.Tick(ctx, time.Now())
			case <-stop:
				return
			}
		}
	}()
}

// StopSampling stops the background loop and waits for shutdown.
func (m *Monitor) StopSampling() {
	if m == nil {
		return
	}
	m.mu.Lock()
	stop := m.sampleStop
	m.sampleStop = nil
	m.mu.Unlock()
	if stop != nil {
		close(stop)
	}
	m.sampleWG.Wait()
}

// Tick performs one sampling cycle: query the provider, fold the counter
// sample through the rate sampler, publish a snapshot, and append history.
// It never fails; unreadable sources degrade to fallback values.
func (m *Monitor) Tick(ctx context.Context, now time.Time) models.Snapshot {
	var degraded []string

	m.mu.RLock()
	prov, fb, diskPath := m.provider, m.fallback, m.DiskPath
	m.mu.RUnlock()

	// A counter read failure collapses to a zero sample rather than skipping
	// the tick; the sampler's validity policy absorbs the resulting glitch.
	counters, err := prov.Counters(ctx)
	if err != nil {
		counters = models.CounterSample{TakenAt: now}
		degraded = append(degraded, "network")
	}

	load1, err := prov.LoadAverage(ctx)
	if err != nil {
		load1 = fb.LoadAverage()
		degraded = append(degraded, "cpu")
	}
	cpuPercent := clampFloat(load1/float64(runtime.NumCPU())*100, 0, 100)

	memStats, err := prov.Memory(ctx)
	if err != nil {
		memStats = fb.Memory()
		degraded = append(degraded, "memory")
	}
	var memPercent float64
	if memStats.Total > 0 {
		memPercent = clampFloat(float64(memStats.Used)/float64(memStats.Total)*100, 0, 100)
	}

	diskStats, err := prov.Filesystem(ctx, diskPath)
	if err != nil {
		diskStats = fb.Filesystem()
		degraded = append(degraded, "disk")
	}
	var diskPercent float64
	if diskStats.Total > 0 {
		diskPercent = clampFloat(float64(diskStats.Used)/float64(diskStats.Total)*100, 0, 100)
	}

	m.mu.Lock()
	upload, download := m.sampler.Observe(now, counters)
	snapshot := models.Snapshot{
		CPUPercent:    cpuPercent,
		Load1:         load1,
		MemoryPercent: memPercent,
		MemoryUsed:    memStats.Used,
		MemoryTotal:   memStats.Total,
		UploadMiBps:   upload,
		DownloadMiBps: download,
		DiskPercent:   diskPercent,
		DiskUsed:      diskStats.Used,
		DiskTotal:     diskStats.Total,
		Degraded:      degraded,
		SampledAt:     now,
	}
	m.snapshot = &snapshot
	m.cpuHist.Push(models.MetricPoint{At: now, Value: cpuPercent})
	m.memHist.Push(models.MetricPoint{At: now, Value: memPercent})
	m.upHist.Push(models.MetricPoint{At: now, Value: upload})
	m.downHist.Push(models.MetricPoint{At: now, Value: download})
	m.diskHist.Push(models.MetricPoint{At: now, Value: diskPercent})
	hook := m.OnSample
	m.mu.Unlock()

	if hook != nil {
		hook(*snapshot.Copy())
	}
	return snapshot
}

// Snapshot returns the last published metrics snapshot, nil before the
// first tick.
func (m *Monitor) Snapshot() *models.Snapshot {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.Copy()
}

// History returns the bounded per-metric windows, oldest-first.
func (m *Monitor) History() models.HistoryWindow {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return models.HistoryWindow{
		CPU:      m.cpuHist.Points(),
		Memory:   m.memHist.Points(),
		Upload:   m.upHist.Points(),
		Download: m.downHist.Points(),
		Disk:     m.diskHist.Points(),
	}
}
