package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestRecordRequest(t *testing.T) {
	m := New()

	m.RecordRequest(200, 100*time.Millisecond)
	m.RecordRequest(303, 50*time.Millisecond)
	m.RecordRequest(404, 10*time.Millisecond)
	m.RecordRequest(500, 200*time.Millisecond)

	snap := m.Snapshot()

	if snap["requests_total"].(uint64) != 4 {
		t.Errorf("expected 4 total requests, got %v", snap["requests_total"])
	}
	if snap["requests_success"].(uint64) != 2 {
		t.Errorf("expected 2 success requests, got %v", snap["requests_success"])
	}
	if snap["requests_error"].(uint64) != 2 {
		t.Errorf("expected 2 error requests, got %v", snap["requests_error"])
	}
}

func TestEngagementCounters(t *testing.T) {
	m := New()

	m.RecordPlay()
	m.RecordPlay()
	m.RecordLike(true)
	m.RecordLike(false)
	m.RecordLike(true)
	m.RecordSignup()
	m.RecordLogin()

	snap := m.Snapshot()

	tests := []struct {
		key  string
		want uint64
	}{
		{"plays_total", 2},
		{"likes_total", 2},
		{"unlikes_total", 1},
		{"signups_total", 1},
		{"logins_total", 1},
	}
	for _, tt := range tests {
		if got := snap[tt.key].(uint64); got != tt.want {
			t.Errorf("%s = %d, want %d", tt.key, got, tt.want)
		}
	}
}

func TestLatencyAverage(t *testing.T) {
	m := New()

	m.RecordRequest(200, 100*time.Millisecond)
	m.RecordRequest(200, 200*time.Millisecond)
	m.RecordRequest(200, 300*time.Millisecond)

	avgLatency := m.Snapshot()["avg_latency_ms"].(float64)
	if avgLatency < 199 || avgLatency > 201 {
		t.Errorf("expected ~200ms average latency, got %v", avgLatency)
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.RecordRequest(200, 10*time.Millisecond)
		}()
		go func() {
			defer wg.Done()
			m.RecordPlay()
		}()
	}
	wg.Wait()

	snap := m.Snapshot()

	if snap["requests_total"].(uint64) != 100 {
		t.Errorf("expected 100 requests, got %v", snap["requests_total"])
	}
	if snap["plays_total"].(uint64) != 100 {
		t.Errorf("expected 100 plays, got %v", snap["plays_total"])
	}
}
