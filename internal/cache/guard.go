package cache

import (
	"context"
	"log"
	"sync"
	"time"
)

const guardKeyFmt = "import:inflight:"

// ExtractionGuard allows at most one outstanding extraction per owner. It
// uses a Redis SETNX key when Redis is up and an in-process set otherwise.
// The TTL bounds how long a crashed holder can block new uploads.
type ExtractionGuard struct {
	ttl  time.Duration
	mu   sync.Mutex
	held map[string]time.Time
}

func NewExtractionGuard(ttl time.Duration) *ExtractionGuard {
	return &ExtractionGuard{ttl: ttl, held: make(map[string]time.Time)}
}

// Acquire reports whether owner now holds the guard.
func (g *ExtractionGuard) Acquire(ctx context.Context, owner string) bool {
	if client != nil {
		ok, err := client.SetNX(ctx, guardKeyFmt+owner, 1, g.ttl).Result()
		if err == nil {
			return ok
		}
		log.Printf("[Redis] Extraction guard unavailable, using local lock: %v", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if until, ok := g.held[owner]; ok && time.Now().Before(until) {
		return false
	}
	g.held[owner] = time.Now().Add(g.ttl)
	return true
}

// Release frees the guard for owner.
func (g *ExtractionGuard) Release(ctx context.Context, owner string) {
	if client != nil {
		if err := client.Del(ctx, guardKeyFmt+owner).Err(); err != nil {
			log.Printf("[Redis] Failed to release extraction guard: %v", err)
		}
	}

	g.mu.Lock()
	delete(g.held, owner)
	g.mu.Unlock()
}
