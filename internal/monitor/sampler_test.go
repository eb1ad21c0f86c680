package monitor

import (
	"math"
	"testing"
	"time"

	"sysbar/internal/models"
)

const mib = 1 << 20

func sampleAt(t time.Time, in, out uint64) models.CounterSample {
	return models.CounterSample{BytesIn: in, BytesOut: out, TakenAt: t}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFirstObservationPublishesZero(t *testing.T) {
	var s RateSampler
	t0 := time.Now()

	up, down := s.Observe(t0, sampleAt(t0, 1000, 500))
	if up != 0 || down != 0 {
		t.Fatalf("expected zero rates on first observation, got up=%v down=%v", up, down)
	}
	if !s.Initialized() {
		t.Fatal("sampler should be initialized after first observation")
	}
}

func TestSteadyRateComputation(t *testing.T) {
	var s RateSampler
	t0 := time.Now()
	s.Observe(t0, sampleAt(t0, 1000, 500))

	t1 := t0.Add(time.Second)
	up, down := s.Observe(t1, sampleAt(t1, 1000+10*mib, 500+1*mib))
	if !approxEqual(down, 10.0) {
		t.Fatalf("expected download 10.0 MiB/s, got %v", down)
	}
	if !approxEqual(up, 1.0) {
		t.Fatalf("expected upload 1.0 MiB/s, got %v", up)
	}
}

func TestCounterRollbackZeroesBothDirections(t *testing.T) {
	var s RateSampler
	t0 := time.Now()
	s.Observe(t0, sampleAt(t0, 10*mib, 10*mib))

	t1 := t0.Add(time.Second)
	s.Observe(t1, sampleAt(t1, 20*mib, 20*mib))

	// Download counter rolls back; upload still advances. Both must zero.
	t2 := t1.Add(time.Second)
	up, down := s.Observe(t2, sampleAt(t2, 5*mib, 30*mib))
	if up != 0 || down != 0 {
		t.Fatalf("expected both rates zeroed on rollback, got up=%v down=%v", up, down)
	}
}

func TestImplausibleRateResetsNotClamps(t *testing.T) {
	var s RateSampler
	t0 := time.Now()
	s.Observe(t0, sampleAt(t0, 0, 0))

	// 2000 MiB in one second exceeds the cap; policy is reset, not clamp.
	t1 := t0.Add(time.Second)
	up, down := s.Observe(t1, sampleAt(t1, 2000*mib, 1*mib))
	if up != 0 || down != 0 {
		t.Fatalf("expected reset to zero above cap, got up=%v down=%v", up, down)
	}
}

func TestFastTickLeavesPublishedRatesUnchanged(t *testing.T) {
	var s RateSampler
	t0 := time.Now()
	s.Observe(t0, sampleAt(t0, 0, 0))

	t1 := t0.Add(time.Second)
	up1, down1 := s.Observe(t1, sampleAt(t1, 10*mib, 1*mib))

	t2 := t1.Add(300 * time.Millisecond)
	up2, down2 := s.Observe(t2, sampleAt(t2, 12*mib, 2*mib))
	if up2 != up1 || down2 != down1 {
		t.Fatalf("fast tick changed published rates: (%v,%v) -> (%v,%v)", up1, down1, up2, down2)
	}
}

func TestFastTickStillAdvancesPrevious(t *testing.T) {
	var s RateSampler
	t0 := time.Now()
	s.Observe(t0, sampleAt(t0, 0, 0))

	t1 := t0.Add(time.Second)
	s.Observe(t1, sampleAt(t1, 10*mib, 1*mib))

	// Fast tick: not published, but becomes the new previous.
	t2 := t1.Add(300 * time.Millisecond)
	s.Observe(t2, sampleAt(t2, 12*mib, 2*mib))

	// Next publishable tick repeats the fast tick's counters. If previous was
	// advanced the deltas are zero; if not, they would be 2 MiB / 1 MiB.
	t3 := t1.Add(1300 * time.Millisecond)
	up, down := s.Observe(t3, sampleAt(t3, 12*mib, 2*mib))
	if up != 0 || down != 0 {
		t.Fatalf("previous sample not advanced on fast tick: up=%v down=%v", up, down)
	}
}

func TestSameClockTimeIsNoOp(t *testing.T) {
	var s RateSampler
	t0 := time.Now()
	s.Observe(t0, sampleAt(t0, 0, 0))

	t1 := t0.Add(time.Second)
	sample := sampleAt(t1, 10*mib, 1*mib)
	up1, down1 := s.Observe(t1, sample)
	up2, down2 := s.Observe(t1, sample)
	if up2 != up1 || down2 != down1 {
		t.Fatalf("repeated tick at same clock changed rates: (%v,%v) -> (%v,%v)", up1, down1, up2, down2)
	}
}

func TestPublishedRatesAlwaysWithinBounds(t *testing.T) {
	cases := []struct {
		name    string
		in, out uint64
	}{
		{"idle", 0, 0},
		{"steady", 100 * mib, 50 * mib},
		{"at cap", 1000 * mib, 1000 * mib},
		{"above cap", 5000 * mib, 5000 * mib},
		{"huge", math.MaxUint64 / 4, math.MaxUint64 / 4},
	}

	var s RateSampler
	now := time.Now()
	var prevIn, prevOut uint64
	s.Observe(now, sampleAt(now, 0, 0))
	for _, tc := range cases {
		now = now.Add(time.Second)
		up, down := s.Observe(now, sampleAt(now, prevIn+tc.in, prevOut+tc.out))
		if up < 0 || up > RateCap || down < 0 || down > RateCap {
			t.Fatalf("%s: rate out of bounds: up=%v down=%v", tc.name, up, down)
		}
		if math.IsNaN(up) || math.IsInf(up, 0) || math.IsNaN(down) || math.IsInf(down, 0) {
			t.Fatalf("%s: non-finite rate: up=%v down=%v", tc.name, up, down)
		}
		prevIn += tc.in
		prevOut += tc.out
	}
}

func TestClampAtExactCap(t *testing.T) {
	var s RateSampler
	t0 := time.Now()
	s.Observe(t0, sampleAt(t0, 0, 0))

	t1 := t0.Add(time.Second)
	up, down := s.Observe(t1, sampleAt(t1, 1000*mib, 1000*mib))
	if !approxEqual(up, RateCap) || !approxEqual(down, RateCap) {
		t.Fatalf("rate exactly at cap should publish the cap, got up=%v down=%v", up, down)
	}
}

func TestZeroSampleAfterRealTrafficZeroesRates(t *testing.T) {
	// A provider failure collapses to a zero sample; the next tick sees a
	// negative delta and must zero both rates rather than publish garbage.
	var s RateSampler
	t0 := time.Now()
	s.Observe(t0, sampleAt(t0, 50*mib, 50*mib))

	t1 := t0.Add(time.Second)
	up, down := s.Observe(t1, sampleAt(t1, 0, 0))
	if up != 0 || down != 0 {
		t.Fatalf("expected zero rates after zero-sample glitch, got up=%v down=%v", up, down)
	}

	// Counters resume from the real baseline: deltas are positive again.
	t2 := t1.Add(time.Second)
	up, down = s.Observe(t2, sampleAt(t2, 52*mib, 51*mib))
	if !approxEqual(down, 52.0) || !approxEqual(up, 51.0) {
		t.Fatalf("expected recovery rates (51,52), got up=%v down=%v", up, down)
	}
}
