// Package memory provides in-process stand-ins for external stores. They
// keep state for the lifetime of the process only and are meant for local
// development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/hjun-park/backend/internal/domain/popularity"
)

// PopularityCounter implements popularity.Counter with maps guarded by a mutex.
type PopularityCounter struct {
	mu     sync.RWMutex
	scores map[string]map[string]float64
}

var _ popularity.Counter = (*PopularityCounter)(nil)

// NewPopularityCounter creates an empty counter.
func NewPopularityCounter() *PopularityCounter {
	return &PopularityCounter{scores: make(map[string]map[string]float64)}
}

// Increment adds 1 to member's score.
func (c *PopularityCounter) Increment(ctx context.Context, namespace, member string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ns, ok := c.scores[namespace]
	if !ok {
		ns = make(map[string]float64)
		c.scores[namespace] = ns
	}
	ns[member]++
	return nil
}

// Score returns member's score and whether it exists.
func (c *PopularityCounter) Score(ctx context.Context, namespace, member string) (float64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	score, ok := c.scores[namespace][member]
	return score, ok, nil
}

// TopK returns up to k entries ordered by popularity.Less.
func (c *PopularityCounter) TopK(ctx context.Context, namespace string, k int) ([]popularity.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []popularity.Entry{}, nil
	}

	c.mu.RLock()
	entries := make([]popularity.Entry, 0, len(c.scores[namespace]))
	for member, score := range c.scores[namespace] {
		entries = append(entries, popularity.Entry{Member: member, Score: score})
	}
	c.mu.RUnlock()

	popularity.SortEntries(entries)
	if len(entries) > k {
		entries = entries[:k]
	}
	return entries, nil
}

// Remove drops members from the namespace.
func (c *PopularityCounter) Remove(ctx context.Context, namespace string, members ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range members {
		delete(c.scores[namespace], m)
	}
	return nil
}

// Set overwrites member's score. Intended for seeding.
func (c *PopularityCounter) Set(namespace, member string, score float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ns, ok := c.scores[namespace]
	if !ok {
		ns = make(map[string]float64)
		c.scores[namespace] = ns
	}
	ns[member] = score
}
