package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

type guardEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SpamGuard rate-limits user actions with one token bucket per
// (user, action) pair. It is advisory: a rejected action surfaces as
// ErrRateLimited and nothing is recorded.
type SpamGuard struct {
	mu      sync.Mutex
	entries map[string]*guardEntry
	limit   rate.Limit
	burst   int
	clock   clockwork.Clock
}

// NewSpamGuard allows roughly perMinute actions per key with the given
// burst.
func NewSpamGuard(perMinute int, burst int, clock clockwork.Clock) *SpamGuard {
	return &SpamGuard{
		entries: make(map[string]*guardEntry),
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		clock:   clock,
	}
}

// Allow reports whether the user may perform the action now.
func (g *SpamGuard) Allow(userID int64, action string) bool {
	key := fmt.Sprintf("%d:%s", userID, action)
	now := g.clock.Now()

	g.mu.Lock()
	e, ok := g.entries[key]
	if !ok {
		e = &guardEntry{limiter: rate.NewLimiter(g.limit, g.burst)}
		g.entries[key] = e
	}
	e.lastSeen = now
	g.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Cleanup drops buckets idle longer than maxIdle. The sweeper calls this
// periodically so the map does not grow with every user ever seen.
func (g *SpamGuard) Cleanup(maxIdle time.Duration) {
	now := g.clock.Now()
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, e := range g.entries {
		if now.Sub(e.lastSeen) > maxIdle {
			delete(g.entries, key)
		}
	}
}
