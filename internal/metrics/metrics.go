// Package metrics keeps in-process counters for requests and listener
// engagement, exposed as JSON on the /metrics endpoint.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds application runtime metrics
type Metrics struct {
	startTime time.Time

	requestsTotal   atomic.Uint64
	requestsSuccess atomic.Uint64
	requestsError   atomic.Uint64

	plays   atomic.Uint64
	likes   atomic.Uint64
	unlikes atomic.Uint64
	signups atomic.Uint64
	logins  atomic.Uint64

	mu           sync.Mutex
	latencySum   time.Duration
	latencyCount uint64
}

var global = New()

// New creates an empty metrics set
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// Get returns the process-wide metrics instance
func Get() *Metrics {
	return global
}

// RecordRequest records a finished request
func (m *Metrics) RecordRequest(status int, latency time.Duration) {
	m.requestsTotal.Add(1)
	switch {
	case status >= 400:
		m.requestsError.Add(1)
	case status >= 200:
		m.requestsSuccess.Add(1)
	}

	m.mu.Lock()
	m.latencySum += latency
	m.latencyCount++
	m.mu.Unlock()
}

// RecordPlay counts a play-history append
func (m *Metrics) RecordPlay() { m.plays.Add(1) }

// RecordLike counts a like toggle in either direction
func (m *Metrics) RecordLike(liked bool) {
	if liked {
		m.likes.Add(1)
		return
	}
	m.unlikes.Add(1)
}

// RecordSignup counts a new account
func (m *Metrics) RecordSignup() { m.signups.Add(1) }

// RecordLogin counts a successful login
func (m *Metrics) RecordLogin() { m.logins.Add(1) }

// Snapshot returns current metrics as a map
func (m *Metrics) Snapshot() map[string]any {
	m.mu.Lock()
	avgLatency := float64(0)
	if m.latencyCount > 0 {
		avgLatency = float64(m.latencySum.Microseconds()) / 1000 / float64(m.latencyCount)
	}
	m.mu.Unlock()

	return map[string]any{
		"uptime_seconds":   time.Since(m.startTime).Seconds(),
		"requests_total":   m.requestsTotal.Load(),
		"requests_success": m.requestsSuccess.Load(),
		"requests_error":   m.requestsError.Load(),
		"avg_latency_ms":   avgLatency,
		"plays_total":      m.plays.Load(),
		"likes_total":      m.likes.Load(),
		"unlikes_total":    m.unlikes.Load(),
		"signups_total":    m.signups.Load(),
		"logins_total":     m.logins.Load(),
	}
}
