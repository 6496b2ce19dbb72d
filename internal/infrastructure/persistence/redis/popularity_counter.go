package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/hjun-park/backend/internal/domain/popularity"
	"github.com/hjun-park/backend/internal/domain/shared"
	"github.com/hjun-park/backend/internal/infrastructure/metrics"
	"github.com/hjun-park/backend/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// POPULARITY COUNTER
// One sorted set per namespace: member = decimal entity id, score = views.
// ══════════════════════════════════════════════════════════════════════════════

// maxTieScan caps how many members tied with the k-th entry one TopK call reads.
const maxTieScan = 512

// PopularityCounter implements popularity.Counter on Redis sorted sets.
type PopularityCounter struct {
	client  *redis.Client
	breaker *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics

	tieScan int
}

var _ popularity.Counter = (*PopularityCounter)(nil)

// NewPopularityCounter creates a counter. breaker and m may be nil.
func NewPopularityCounter(cache *Cache, breaker *circuitbreaker.CircuitBreaker, m *metrics.Metrics) *PopularityCounter {
	return &PopularityCounter{
		client:  cache.Client(),
		breaker: breaker,
		metrics: m,
		tieScan: maxTieScan,
	}
}

// do runs fn through the breaker, records the outcome and maps failures to
// shared.ErrPopularityUnavailable.
func (c *PopularityCounter) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(ctx, fn)
	} else {
		err = fn(ctx)
	}
	c.metrics.ObservePopularityOp(op, err)

	if err != nil {
		return fmt.Errorf("%w: %s: %w", shared.ErrPopularityUnavailable, op, err)
	}
	return nil
}

// Increment adds one view to member.
func (c *PopularityCounter) Increment(ctx context.Context, namespace, member string) error {
	return c.do(ctx, metrics.OpIncrement, func(ctx context.Context) error {
		return c.client.ZIncrBy(ctx, namespace, 1, member).Err()
	})
}

// Score returns member's view count. A never-incremented member reports ok=false.
func (c *PopularityCounter) Score(ctx context.Context, namespace, member string) (float64, bool, error) {
	var (
		score float64
		ok    bool
	)
	err := c.do(ctx, metrics.OpScore, func(ctx context.Context) error {
		s, err := c.client.ZScore(ctx, namespace, member).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		score, ok = s, true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return score, ok, nil
}

// TopK returns the k highest-scored members. Redis orders equal scores by
// member descending, so members tied with the k-th entry are fetched and the
// window re-sorted with popularity.Less. The tie fetch reads at most
// max(k, maxTieScan) members; past that the tie-break only covers the
// members Redis returned first.
func (c *PopularityCounter) TopK(ctx context.Context, namespace string, k int) ([]popularity.Entry, error) {
	if k <= 0 {
		return []popularity.Entry{}, nil
	}

	var entries []popularity.Entry
	err := c.do(ctx, metrics.OpTopK, func(ctx context.Context) error {
		head, err := c.client.ZRevRangeWithScores(ctx, namespace, 0, int64(k-1)).Result()
		if err != nil {
			return err
		}
		if len(head) < k {
			entries = toEntries(head)
			return nil
		}

		boundary := head[len(head)-1].Score
		bound := strconv.FormatFloat(boundary, 'g', -1, 64)
		ties, err := c.client.ZRangeByScoreWithScores(ctx, namespace, &redis.ZRangeBy{
			Min:   bound,
			Max:   bound,
			Count: int64(max(k, c.tieScan)),
		}).Result()
		if err != nil {
			return err
		}

		entries = make([]popularity.Entry, 0, len(head)+len(ties))
		for _, z := range head {
			if z.Score > boundary {
				entries = append(entries, toEntry(z))
			}
		}
		entries = append(entries, toEntries(ties)...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	popularity.SortEntries(entries)
	if len(entries) > k {
		entries = entries[:k]
	}
	return entries, nil
}

// Remove deletes members from the namespace.
func (c *PopularityCounter) Remove(ctx context.Context, namespace string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return c.do(ctx, metrics.OpRemove, func(ctx context.Context) error {
		return c.client.ZRem(ctx, namespace, args...).Err()
	})
}

func toEntry(z redis.Z) popularity.Entry {
	member, _ := z.Member.(string)
	return popularity.Entry{Member: member, Score: z.Score}
}

func toEntries(zs []redis.Z) []popularity.Entry {
	out := make([]popularity.Entry, len(zs))
	for i, z := range zs {
		out[i] = toEntry(z)
	}
	return out
}
