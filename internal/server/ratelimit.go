package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter bounds decode traffic per client: a sliding request-per-minute
// cap and a daily data quota.
type RateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	maxDataPerDay     int64

	clients map[string]*clientUsage
}

type clientUsage struct {
	requestsLastMinute int
	dataToday          int64
	lastRequestTime    time.Time
	dayStart           time.Time
}

// RateLimitError reports which limit a rejected request hit.
type RateLimitError struct {
	Type  string // requests_per_minute or data_per_day
	Limit int64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded (%s, limit %d)", e.Type, e.Limit)
}

// NewRateLimiter builds a limiter. A zero limit disables that check.
func NewRateLimiter(requestsPerMinute int, maxDataPerDay int64) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		maxDataPerDay:     maxDataPerDay,
		clients:           make(map[string]*clientUsage),
	}
}

// Allow admits or rejects one request of dataSize bytes from clientID.
func (rl *RateLimiter) Allow(clientID string, dataSize int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	usage, ok := rl.clients[clientID]
	if !ok {
		usage = &clientUsage{dayStart: now}
		rl.clients[clientID] = usage
	}

	if now.YearDay() != usage.dayStart.YearDay() || now.Year() != usage.dayStart.Year() {
		usage.dataToday = 0
		usage.dayStart = now
	}
	if now.Sub(usage.lastRequestTime) >= time.Minute {
		usage.requestsLastMinute = 0
	}

	if rl.requestsPerMinute > 0 && usage.requestsLastMinute >= rl.requestsPerMinute {
		return &RateLimitError{Type: "requests_per_minute", Limit: int64(rl.requestsPerMinute)}
	}
	if rl.maxDataPerDay > 0 && usage.dataToday+dataSize > rl.maxDataPerDay {
		return &RateLimitError{Type: "data_per_day", Limit: rl.maxDataPerDay}
	}

	usage.requestsLastMinute++
	usage.dataToday += dataSize
	usage.lastRequestTime = now
	return nil
}
