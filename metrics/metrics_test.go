package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aistorerx/rxstream/metrics"
)

func TestNilSetIsNoOp(t *testing.T) {
	var s *metrics.Set
	s.ObserveFragment()
	s.ObserveRecv(10)
	s.SetReadyDepth(1)
	s.SetPoolBytes(1)
}

func TestObserveFragmentIncrementsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := metrics.New(reg)
	s.ObserveFragment()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "rxstream_fragments_total" {
			found = true
			if got := mf.Metric[0].GetCounter().GetValue(); got != 1 {
				t.Fatalf("fragments_total = %v, want 1", got)
			}
		}
	}
	if !found {
		t.Fatalf("rxstream_fragments_total not registered")
	}
}
