// Copyright (c) Arista Networks, Inc. 2024
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package alloc

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "chashmap"
	metricsSubsystem = "alloc"
)

// Metrics holds the prometheus collectors shared by every
// MetricsAllocator created from it.
type Metrics struct {
	allocateBytes   *prometheus.CounterVec
	allocateObjects *prometheus.CounterVec
	inuseBytes      *prometheus.GaugeVec
	inuseObjects    *prometheus.GaugeVec
	failures        *prometheus.CounterVec
}

// NewMetrics creates the allocation collectors and registers them with
// reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	labels := []string{"class"}
	m := &Metrics{
		allocateBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "allocate_bytes_total",
			Help:      "Bytes allocated, by class.",
		}, labels),
		allocateObjects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "allocate_objects_total",
			Help:      "Objects allocated, by class.",
		}, labels),
		inuseBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "inuse_bytes",
			Help:      "Bytes allocated and not yet released, by class.",
		}, labels),
		inuseObjects: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "inuse_objects",
			Help:      "Objects allocated and not yet released, by class.",
		}, labels),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "failures_total",
			Help:      "Refused allocations, by class.",
		}, labels),
	}
	for _, c := range []prometheus.Collector{
		m.allocateBytes, m.allocateObjects, m.inuseBytes, m.inuseObjects, m.failures,
	} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register allocator metrics")
		}
	}
	return m, nil
}

// Wrap returns an Allocator that reports to m and forwards to upstream.
// A nil upstream is a HeapAllocator.
func (m *Metrics) Wrap(upstream Allocator) *MetricsAllocator {
	if upstream == nil {
		upstream = HeapAllocator{}
	}
	return &MetricsAllocator{upstream: upstream, metrics: m}
}

// MetricsAllocator records allocations in prometheus collectors.
type MetricsAllocator struct {
	upstream Allocator
	metrics  *Metrics
}

var _ Allocator = new(MetricsAllocator)

// Allocate implements Allocator.
func (a *MetricsAllocator) Allocate(class Class, size uint64) (Deallocator, error) {
	label := class.String()
	de, err := a.upstream.Allocate(class, size)
	if err != nil {
		a.metrics.failures.WithLabelValues(label).Inc()
		return nil, err
	}
	a.metrics.allocateBytes.WithLabelValues(label).Add(float64(size))
	a.metrics.allocateObjects.WithLabelValues(label).Inc()
	a.metrics.inuseBytes.WithLabelValues(label).Add(float64(size))
	a.metrics.inuseObjects.WithLabelValues(label).Inc()
	return DeallocatorFunc(func() {
		a.metrics.inuseBytes.WithLabelValues(label).Sub(float64(size))
		a.metrics.inuseObjects.WithLabelValues(label).Dec()
		de.Deallocate()
	}), nil
}
