package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"treasury-backend/internal/models"
)

const (
	pendingKeyFmt = "import:pending:"
	claimKeyFmt   = "import:claimed:"
)

type pendingEntry struct {
	imp     models.PendingImport
	expires time.Time
}

// PendingImports holds extracted reports between upload and confirmation.
type PendingImports struct {
	ttl    time.Duration
	mu     sync.Mutex
	local  map[string]pendingEntry
	claims map[string]time.Time
}

func NewPendingImports(ttl time.Duration) *PendingImports {
	return &PendingImports{
		ttl:    ttl,
		local:  make(map[string]pendingEntry),
		claims: make(map[string]time.Time),
	}
}

func (p *PendingImports) Save(ctx context.Context, imp *models.PendingImport) error {
	if client != nil {
		data, err := json.Marshal(imp)
		if err != nil {
			return err
		}
		err = client.Set(ctx, pendingKeyFmt+imp.ID, data, p.ttl).Err()
		if err == nil {
			return nil
		}
		log.Printf("[Redis] Failed to store pending import, keeping it in memory: %v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.local[imp.ID] = pendingEntry{imp: *imp, expires: time.Now().Add(p.ttl)}
	return nil
}

// Get returns the pending import or false when it is unknown or expired.
func (p *PendingImports) Get(ctx context.Context, id string) (*models.PendingImport, bool) {
	if client != nil {
		data, err := client.Get(ctx, pendingKeyFmt+id).Bytes()
		if err == nil {
			var imp models.PendingImport
			if err := json.Unmarshal(data, &imp); err == nil {
				return &imp, true
			}
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.local[id]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expires) {
		delete(p.local, id)
		return nil, false
	}
	imp := e.imp
	return &imp, true
}

func (p *PendingImports) Delete(ctx context.Context, id string) {
	if client != nil {
		client.Del(ctx, pendingKeyFmt+id)
	}
	p.mu.Lock()
	delete(p.local, id)
	p.mu.Unlock()
}

// Claim marks id as being confirmed or cancelled. Only one caller holds the
// claim at a time; it lapses after the pending TTL if never released.
func (p *PendingImports) Claim(ctx context.Context, id string) bool {
	if client != nil {
		ok, err := client.SetNX(ctx, claimKeyFmt+id, 1, p.ttl).Result()
		if err == nil {
			return ok
		}
		log.Printf("[Redis] Pending import claim unavailable, using local lock: %v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if until, ok := p.claims[id]; ok && time.Now().Before(until) {
		return false
	}
	p.claims[id] = time.Now().Add(p.ttl)
	return true
}

// Release drops the claim on id.
func (p *PendingImports) Release(ctx context.Context, id string) {
	if client != nil {
		if err := client.Del(ctx, claimKeyFmt+id).Err(); err != nil {
			log.Printf("[Redis] Failed to release pending import claim: %v", err)
		}
	}
	p.mu.Lock()
	delete(p.claims, id)
	p.mu.Unlock()
}
