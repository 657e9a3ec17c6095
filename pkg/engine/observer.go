package engine

import (
	"sync/atomic"
	"time"

	"github.com/getmockd/bankmock/pkg/resource"
)

// Observer receives a callback after every engine operation. Implementations
// must be safe for concurrent use.
type Observer interface {
	// OnCreate is called after a successful create operation.
	OnCreate(kind resource.Kind, id string, duration time.Duration)

	// OnRead is called after a successful get operation.
	OnRead(kind resource.Kind, id string, duration time.Duration)

	// OnList is called after a successful list operation.
	OnList(kind resource.Kind, count int, duration time.Duration)

	// OnUpdate is called after a successful update operation.
	OnUpdate(kind resource.Kind, id string, duration time.Duration)

	// OnDelete is called after a successful delete operation.
	OnDelete(kind resource.Kind, id string, duration time.Duration)

	// OnError is called when an operation fails for any reason, including
	// validation and not-found outcomes.
	OnError(kind resource.Kind, op resource.Operation, err error)
}

// NoopObserver discards every callback.
type NoopObserver struct{}

func (NoopObserver) OnCreate(resource.Kind, string, time.Duration)    {}
func (NoopObserver) OnRead(resource.Kind, string, time.Duration)      {}
func (NoopObserver) OnList(resource.Kind, int, time.Duration)         {}
func (NoopObserver) OnUpdate(resource.Kind, string, time.Duration)    {}
func (NoopObserver) OnDelete(resource.Kind, string, time.Duration)    {}
func (NoopObserver) OnError(resource.Kind, resource.Operation, error) {}

// MetricsObserver counts engine operations with atomic counters.
type MetricsObserver struct {
	createCount    atomic.Int64
	readCount      atomic.Int64
	listCount      atomic.Int64
	updateCount    atomic.Int64
	deleteCount    atomic.Int64
	errorCount     atomic.Int64
	totalLatencyNs atomic.Int64
}

// NewMetricsObserver creates a metrics observer with zeroed counters.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

func (m *MetricsObserver) OnCreate(_ resource.Kind, _ string, d time.Duration) {
	m.createCount.Add(1)
	m.totalLatencyNs.Add(int64(d))
}

func (m *MetricsObserver) OnRead(_ resource.Kind, _ string, d time.Duration) {
	m.readCount.Add(1)
	m.totalLatencyNs.Add(int64(d))
}

func (m *MetricsObserver) OnList(_ resource.Kind, _ int, d time.Duration) {
	m.listCount.Add(1)
	m.totalLatencyNs.Add(int64(d))
}

func (m *MetricsObserver) OnUpdate(_ resource.Kind, _ string, d time.Duration) {
	m.updateCount.Add(1)
	m.totalLatencyNs.Add(int64(d))
}

func (m *MetricsObserver) OnDelete(_ resource.Kind, _ string, d time.Duration) {
	m.deleteCount.Add(1)
	m.totalLatencyNs.Add(int64(d))
}

func (m *MetricsObserver) OnError(resource.Kind, resource.Operation, error) {
	m.errorCount.Add(1)
}

// Snapshot returns a point-in-time copy of the counters.
func (m *MetricsObserver) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Creates:      m.createCount.Load(),
		Reads:        m.readCount.Load(),
		Lists:        m.listCount.Load(),
		Updates:      m.updateCount.Load(),
		Deletes:      m.deleteCount.Load(),
		Errors:       m.errorCount.Load(),
		TotalLatency: time.Duration(m.totalLatencyNs.Load()),
	}
}

// MetricsSnapshot is a point-in-time copy of MetricsObserver counters.
type MetricsSnapshot struct {
	Creates      int64         `json:"creates"`
	Reads        int64         `json:"reads"`
	Lists        int64         `json:"lists"`
	Updates      int64         `json:"updates"`
	Deletes      int64         `json:"deletes"`
	Errors       int64         `json:"errors"`
	TotalLatency time.Duration `json:"total_latency_ns"`
}

// TotalOperations returns the number of successful operations.
func (s MetricsSnapshot) TotalOperations() int64 {
	return s.Creates + s.Reads + s.Lists + s.Updates + s.Deletes
}
