// Package metrics exposes the engine's hot-path counters and gauges via
// github.com/prometheus/client_golang, the same library the teacher's
// go.mod carries for its cluster-wide stats package - wired here directly
// against the receive engine instead.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Set groups the engine's Prometheus collectors. A nil *Set is valid and
// every method on it is a no-op, so engine code can pass metrics through
// unconditionally without special-casing "metrics disabled".
type Set struct {
	Fragments  prometheus.Counter
	Bytes      prometheus.Counter
	ReadyDepth prometheus.Gauge
	PoolBytes  prometheus.Gauge
}

// New registers a fresh Set of collectors against reg. Passing nil uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Set {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &Set{
		Fragments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rxstream_fragments_total",
			Help: "Inbound AM fragments processed by the receive engine.",
		}),
		Bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rxstream_unpacked_bytes_total",
			Help: "Bytes unpacked into user receive buffers.",
		}),
		ReadyDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rxstream_ready_endpoints",
			Help: "Endpoints currently on the ready list.",
		}),
		PoolBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rxstream_pool_bytes_in_use",
			Help: "Bytes currently checked out of the descriptor memory pool.",
		}),
	}
	reg.MustRegister(s.Fragments, s.Bytes, s.ReadyDepth, s.PoolBytes)
	return s
}

// ObserveFragment records one inbound AM fragment. Unpacked-byte accounting
// belongs entirely to ObserveRecv, which fires once per actual unpack
// rather than once per arriving fragment (a WAITALL request can unpack one
// fragment's payload across several unpack calls, and matchPosted's FIFO
// match loop may split one fragment's payload across multiple requests) -
// counting fragment size here too would double it.
func (s *Set) ObserveFragment() {
	if s == nil {
		return
	}
	s.Fragments.Inc()
}

func (s *Set) ObserveRecv(n int64) {
	if s == nil {
		return
	}
	s.Bytes.Add(float64(n))
}

func (s *Set) SetReadyDepth(n int) {
	if s == nil {
		return
	}
	s.ReadyDepth.Set(float64(n))
}

func (s *Set) SetPoolBytes(n int64) {
	if s == nil {
		return
	}
	s.PoolBytes.Set(float64(n))
}
