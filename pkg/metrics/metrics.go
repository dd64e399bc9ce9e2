// Package metrics keeps process-wide counters for analysis sessions.
package metrics

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics is safe for concurrent use. All methods accept a nil receiver so
// components can run without a metrics sink.
type Metrics struct {
	SessionsStarted   atomic.Uint64
	SessionsSucceeded atomic.Uint64
	SessionsFailed    atomic.Uint64
	SessionsRunning   atomic.Int64
	Rejected          atomic.Uint64
	Busy              atomic.Uint64
	Refreshes         atomic.Uint64
	RefreshesFailed   atomic.Uint64
	ChunksSent        atomic.Uint64
	startTime         time.Time
}

func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Add(1)
	m.SessionsRunning.Add(1)
}

// SessionFinished records the end of a session started with SessionStarted.
func (m *Metrics) SessionFinished(ok bool) {
	if m == nil {
		return
	}
	m.SessionsRunning.Add(-1)
	if ok {
		m.SessionsSucceeded.Add(1)
	} else {
		m.SessionsFailed.Add(1)
	}
}

func (m *Metrics) RequestRejected() {
	if m != nil {
		m.Rejected.Add(1)
	}
}

func (m *Metrics) RequestBusy() {
	if m != nil {
		m.Busy.Add(1)
	}
}

func (m *Metrics) RefreshFinished(ok bool) {
	if m == nil {
		return
	}
	m.Refreshes.Add(1)
	if !ok {
		m.RefreshesFailed.Add(1)
	}
}

func (m *Metrics) ChunkSent() {
	if m != nil {
		m.ChunksSent.Add(1)
	}
}

// Uptime returns the time since New was called.
func (m *Metrics) Uptime() time.Duration {
	if m == nil {
		return 0
	}
	return time.Since(m.startTime)
}

// Snapshot returns the counters in a JSON-friendly form.
func (m *Metrics) Snapshot() map[string]any {
	if m == nil {
		return map[string]any{}
	}
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]any{
		"sessions_started":   m.SessionsStarted.Load(),
		"sessions_succeeded": m.SessionsSucceeded.Load(),
		"sessions_failed":    m.SessionsFailed.Load(),
		"sessions_running":   m.SessionsRunning.Load(),
		"requests_rejected":  m.Rejected.Load(),
		"requests_busy":      m.Busy.Load(),
		"refreshes":          m.Refreshes.Load(),
		"refreshes_failed":   m.RefreshesFailed.Load(),
		"chunks_sent":        m.ChunksSent.Load(),
		"uptime_seconds":     m.Uptime().Seconds(),
		"memory": map[string]any{
			"alloc_bytes": mem.Alloc,
			"sys_bytes":   mem.Sys,
			"num_gc":      mem.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}
