package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()

	m.SessionStarted()
	m.SessionStarted()
	m.SessionFinished(true)
	m.SessionFinished(false)
	m.RequestRejected()
	m.RequestBusy()
	m.RefreshFinished(true)
	m.RefreshFinished(false)
	m.ChunkSent()

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap["sessions_started"])
	assert.Equal(t, uint64(1), snap["sessions_succeeded"])
	assert.Equal(t, uint64(1), snap["sessions_failed"])
	assert.Equal(t, int64(0), snap["sessions_running"])
	assert.Equal(t, uint64(1), snap["requests_rejected"])
	assert.Equal(t, uint64(1), snap["requests_busy"])
	assert.Equal(t, uint64(2), snap["refreshes"])
	assert.Equal(t, uint64(1), snap["refreshes_failed"])
	assert.Equal(t, uint64(1), snap["chunks_sent"])
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SessionStarted()
		m.SessionFinished(true)
		m.RequestRejected()
		m.RequestBusy()
		m.RefreshFinished(false)
		m.ChunkSent()
	})
	assert.Empty(t, m.Snapshot())
	assert.Zero(t, m.Uptime())
}
