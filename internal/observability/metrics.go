package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters keyed by path|method|status
// (requests) and path|method|code (errors).
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	totalLatency map[string]time.Duration
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		totalLatency: make(map[string]time.Duration),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.totalLatency[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Snapshot copies out the counters, with latency reported as the running
// mean per key in milliseconds.
func (m *Metrics) Snapshot() (requests, errs map[string]int64, meanLatencyMs map[string]float64) {
	requests = map[string]int64{}
	errs = map[string]int64{}
	meanLatencyMs = map[string]float64{}
	if m == nil {
		return requests, errs, meanLatencyMs
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, count := range m.requestCount {
		requests[key] = count
		if count > 0 {
			meanLatencyMs[key] = float64(m.totalLatency[key].Milliseconds()) / float64(count)
		}
	}
	for key, count := range m.errorCount {
		errs[key] = count
	}
	return requests, errs, meanLatencyMs
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
