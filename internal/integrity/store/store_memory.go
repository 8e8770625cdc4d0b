package store

import (
	"context"
	"sync"
	"time"

	"lexchain/internal/integrity/models"
)

type cachedProof struct {
	proof    models.IntegrityProof
	storedAt time.Time
}

// InMemoryCache is the default proof cache when Redis is not configured.
type InMemoryCache struct {
	mu       sync.RWMutex
	proofs   map[Key]cachedProof
	ttl      time.Duration
	now      func() time.Time
	recorder LookupRecorder
}

// NewInMemoryCache creates a cache whose entries expire after ttl.
// recorder may be nil.
func NewInMemoryCache(ttl time.Duration, recorder LookupRecorder) *InMemoryCache {
	return &InMemoryCache{
		proofs:   make(map[Key]cachedProof),
		ttl:      ttl,
		now:      time.Now,
		recorder: recorder,
	}
}

// Save stores a copy of proof. A nil proof is a no-op.
func (c *InMemoryCache) Save(_ context.Context, key Key, proof *models.IntegrityProof) error {
	if proof == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.proofs[key] = cachedProof{proof: *proof, storedAt: c.now()}
	return nil
}

// Find returns a copy of the cached proof, or ErrNotFound when absent or expired.
func (c *InMemoryCache) Find(_ context.Context, key Key) (*models.IntegrityProof, error) {
	c.mu.RLock()
	cached, ok := c.proofs[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(cached.storedAt) >= c.ttl {
		record(c.recorder, false)
		return nil, ErrNotFound
	}
	record(c.recorder, true)
	proof := cached.proof
	return &proof, nil
}

// Sweep drops expired entries and returns how many were removed.
func (c *InMemoryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	now := c.now()
	for k, v := range c.proofs {
		if now.Sub(v.storedAt) >= c.ttl {
			delete(c.proofs, k)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done. A non-positive
// interval sweeps nothing and just waits for ctx.
func (c *InMemoryCache) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Sweep()
		}
	}
}
