package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestCountersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ThunkForced()
	m.ThunkForced()
	m.BlackholeHit()
	m.AttrsetAllocated()

	if got := counterValue(t, m.ThunksForced); got != 2 {
		t.Fatalf("ThunksForced = %v, want 2", got)
	}
	if got := counterValue(t, m.BlackholesHit); got != 1 {
		t.Fatalf("BlackholesHit = %v, want 1", got)
	}
	if got := counterValue(t, m.AttrsetsAllocated); got != 1 {
		t.Fatalf("AttrsetsAllocated = %v, want 1", got)
	}
}

func TestObserveCallDepthTracksHighWaterMark(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveCallDepth(3)
	m.ObserveCallDepth(1)
	m.ObserveCallDepth(7)
	m.ObserveCallDepth(5)

	dump := m.Dump()
	if !strings.Contains(dump, "7") {
		t.Fatalf("Dump() = %q, want it to mention the high-water mark 7", dump)
	}
}

func TestDumpFormatsAllCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ThunkForced()

	dump := m.Dump()
	for _, want := range []string{"thunks forced", "blackholes hit", "attrsets allocated", "call depth maximum"} {
		if !strings.Contains(dump, want) {
			t.Fatalf("Dump() missing %q: %q", want, dump)
		}
	}
}
