// Package jobs contains the scheduled maintenance jobs run by the worker.
package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hjun-park/backend/internal/domain/popularity"
	"github.com/hjun-park/backend/internal/domain/shared"
	"github.com/hjun-park/backend/internal/infrastructure/metrics"
	"github.com/hjun-park/backend/pkg/logger"
)

// PlaceLookup resolves which place ids are still live.
type PlaceLookup interface {
	ExistingIDs(ctx context.Context, ids []shared.ID) (map[shared.ID]struct{}, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// PRUNE POPULARITY JOB
// ══════════════════════════════════════════════════════════════════════════════

// PrunePopularityJob removes counter members whose place was deleted.
// Ghost members left in the counter surface as NotFound from top places.
type PrunePopularityJob struct {
	counter popularity.Counter
	places  PlaceLookup
	metrics *metrics.Metrics
	logger  *logger.Logger

	config PrunePopularityConfig

	lastStats atomic.Pointer[PruneStats]
}

// PrunePopularityConfig contains configuration for the prune job.
type PrunePopularityConfig struct {
	// Namespace is the counter namespace to prune.
	Namespace string

	// Window is how many top entries one pass inspects.
	Window int

	// Timeout bounds a single pass.
	Timeout time.Duration
}

// DefaultPrunePopularityConfig returns defaults matching the api's view counter.
func DefaultPrunePopularityConfig() PrunePopularityConfig {
	return PrunePopularityConfig{
		Namespace: popularity.ViewsNamespace,
		Window:    1000,
		Timeout:   2 * time.Minute,
	}
}

// PruneStats describes the outcome of one pass.
type PruneStats struct {
	StartedAt time.Time
	Duration  time.Duration
	Scanned   int
	Removed   int
	Malformed int
}

// NewPrunePopularityJob creates the job. Zero config fields take defaults.
func NewPrunePopularityJob(
	counter popularity.Counter,
	places PlaceLookup,
	m *metrics.Metrics,
	log *logger.Logger,
	config PrunePopularityConfig,
) *PrunePopularityJob {
	def := DefaultPrunePopularityConfig()
	if config.Namespace == "" {
		config.Namespace = def.Namespace
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if log == nil {
		log = logger.Nop()
	}

	return &PrunePopularityJob{
		counter: counter,
		places:  places,
		metrics: m,
		logger:  log.With(logger.Component("prune_popularity")),
		config:  config,
	}
}

func (j *PrunePopularityJob) Name() string { return "prune_popularity" }

func (j *PrunePopularityJob) Description() string {
	return fmt.Sprintf("removes deleted places from the top %d of %q", j.config.Window, j.config.Namespace)
}

// Run scans the top window and removes members that no longer resolve to
// a live place. Members that are not place ids at all are removed too.
func (j *PrunePopularityJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	stats := &PruneStats{StartedAt: time.Now()}
	defer func() {
		stats.Duration = time.Since(stats.StartedAt)
		j.lastStats.Store(stats)
	}()

	entries, err := j.counter.TopK(ctx, j.config.Namespace, j.config.Window)
	if err != nil {
		return fmt.Errorf("scan counter: %w", err)
	}
	stats.Scanned = len(entries)
	if len(entries) == 0 {
		return nil
	}

	var stale []string
	ids := make([]shared.ID, 0, len(entries))
	members := make(map[shared.ID]string, len(entries))
	for _, e := range entries {
		id, err := shared.ParseID(e.Member)
		if err != nil {
			stats.Malformed++
			stale = append(stale, e.Member)
			continue
		}
		ids = append(ids, id)
		members[id] = e.Member
	}

	live, err := j.places.ExistingIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve places: %w", err)
	}
	for _, id := range ids {
		if _, ok := live[id]; !ok {
			stale = append(stale, members[id])
		}
	}

	if len(stale) == 0 {
		j.logger.Info("nothing to prune", logger.Int("scanned", stats.Scanned))
		return nil
	}

	if err := j.counter.Remove(ctx, j.config.Namespace, stale...); err != nil {
		return fmt.Errorf("remove stale members: %w", err)
	}
	stats.Removed = len(stale)
	j.metrics.AddPopularityPruned(stats.Removed)

	j.logger.Info("popularity pruned",
		logger.Int("scanned", stats.Scanned),
		logger.Int("removed", stats.Removed),
		logger.Int("malformed", stats.Malformed),
	)
	return nil
}

// LastStats returns the stats of the most recent pass, or nil before the first one.
func (j *PrunePopularityJob) LastStats() *PruneStats {
	return j.lastStats.Load()
}
