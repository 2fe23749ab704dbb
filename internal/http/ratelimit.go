package http

import (
	"sync"
	"time"
)

// rateLimiter tracks request timestamps per client IP over a sliding
// window. The server runs two instances: a general limiter for all
// POST traffic and a stricter one for receipt scans, which fan out to
// a paid model API.
type rateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	cleanupDone   chan struct{}
	stopOnce      sync.Once
}

const (
	rateLimitCleanupInterval = 5 * time.Minute
	rateLimitStaleCutoff     = 10 * time.Minute
)

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		requests:      make(map[string][]time.Time),
		limit:         limit,
		window:        window,
		cleanupTicker: time.NewTicker(rateLimitCleanupInterval),
		stopCleanup:   make(chan struct{}),
		cleanupDone:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// allow reports whether the client may proceed, recording the request
// when it does. A denial is counted on the security metrics.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	recent := rl.requests[clientIP][:0]
	for _, t := range rl.requests[clientIP] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.limit {
		rl.requests[clientIP] = recent
		if metrics != nil {
			metrics.recordRateLimitHit()
		}
		return false
	}

	rl.requests[clientIP] = append(recent, now)
	return true
}

// activeClients returns how many IPs currently have tracked requests.
func (rl *rateLimiter) activeClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.requests)
}

func (rl *rateLimiter) cleanupLoop() {
	defer close(rl.cleanupDone)
	for {
		select {
		case <-rl.cleanupTicker.C:
			rl.removeStaleClients()
		case <-rl.stopCleanup:
			rl.cleanupTicker.Stop()
			return
		}
	}
}

// removeStaleClients drops IPs that have been quiet long enough that
// keeping their history serves no purpose.
func (rl *rateLimiter) removeStaleClients() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rateLimitStaleCutoff)
	for ip, times := range rl.requests {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(rl.requests, ip)
		}
	}
}

// stop terminates the cleanup goroutine. Safe to call more than once.
func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCleanup)
		<-rl.cleanupDone
	})
}
