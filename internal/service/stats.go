package service

import (
	"sort"
	"sync"
	"time"

	"github.com/wealthsim/wealthsim/internal/cache"
)

// latencyWindow bounds how many recent samples feed the percentiles.
const latencyWindow = 512

// latencyRing keeps the most recent request latencies.
type latencyRing struct {
	mu      sync.Mutex
	samples [latencyWindow]time.Duration
	next    int
	filled  int
}

func (r *latencyRing) record(d time.Duration) {
	r.mu.Lock()
	r.samples[r.next] = d
	r.next = (r.next + 1) % latencyWindow
	if r.filled < latencyWindow {
		r.filled++
	}
	r.mu.Unlock()
}

// percentiles returns p50/p90/p99 over the recorded window.
func (r *latencyRing) percentiles() LatencyPercentiles {
	r.mu.Lock()
	snapshot := make([]time.Duration, r.filled)
	copy(snapshot, r.samples[:r.filled])
	r.mu.Unlock()

	if len(snapshot) == 0 {
		return LatencyPercentiles{}
	}
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i] < snapshot[j] })

	at := func(q float64) time.Duration {
		idx := int(q*float64(len(snapshot))) - 1
		if idx < 0 {
			idx = 0
		}
		return snapshot[idx]
	}
	return LatencyPercentiles{
		P50: at(0.50),
		P90: at(0.90),
		P99: at(0.99),
	}
}

// LatencyPercentiles reports recent request latency.
type LatencyPercentiles struct {
	P50 time.Duration `json:"p50"`
	P90 time.Duration `json:"p90"`
	P99 time.Duration `json:"p99"`
}

// Stats is the service's observable state.
type Stats struct {
	Requests  int64              `json:"requests"`
	Failures  int64              `json:"failures"`
	Cache     cache.Stats        `json:"cache"`
	Latency   LatencyPercentiles `json:"latency"`
	UptimeSec int64              `json:"uptimeSec"`
}

// Health is a cheap liveness summary.
type Health struct {
	OK           bool    `json:"ok"`
	CacheHitRate float64 `json:"cacheHitRate"`
	UptimeSec    int64   `json:"uptimeSec"`
}
