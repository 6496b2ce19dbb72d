// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"sync"
	"time"

	"github.com/hjun-park/backend/internal/domain/popularity"
	"github.com/hjun-park/backend/internal/domain/shared"
	"github.com/hjun-park/backend/internal/infrastructure/metrics"
	"github.com/hjun-park/backend/pkg/circuitbreaker"
	"github.com/hjun-park/backend/pkg/logger"
	"github.com/hjun-park/backend/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD VIEW COMMAND
// Counts a place view in the popularity store. Fire and forget: the read that
// triggered it has already been answered and never sees the outcome.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultRecordTimeout bounds one recording including its retries.
	DefaultRecordTimeout = 2 * time.Second
	// DefaultRecordAttempts is the number of increments tried per view.
	DefaultRecordAttempts = 3
)

// ViewRecorderConfig tunes a ViewRecorder.
type ViewRecorderConfig struct {
	Timeout  time.Duration
	Attempts int
}

// ViewRecorder increments place view counts in the background.
type ViewRecorder struct {
	counter popularity.Counter
	retrier *retry.Retrier
	timeout time.Duration
	log     *logger.Logger
	metrics *metrics.Metrics

	wg sync.WaitGroup
}

// NewViewRecorder creates a recorder. Zero config values use the defaults.
func NewViewRecorder(counter popularity.Counter, cfg ViewRecorderConfig, log *logger.Logger, m *metrics.Metrics) *ViewRecorder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRecordTimeout
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultRecordAttempts
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ViewRecorder{
		counter: counter,
		retrier: retry.PopularityRetrier(cfg.Attempts),
		timeout: cfg.Timeout,
		log:     log.With(logger.Component("view_recorder")),
		metrics: m,
	}
}

// RecordView schedules one increment for placeID and returns immediately.
// The increment outlives the request context but keeps its values.
func (r *ViewRecorder) RecordView(ctx context.Context, placeID shared.ID) {
	detached := context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_ = r.Record(detached, placeID)
	}()
}

// Record increments synchronously and reports the final error. Failures are
// logged and counted here so callers may drop the result.
func (r *ViewRecorder) Record(ctx context.Context, placeID shared.ID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	member := shared.FormatID(placeID)
	err := r.retrier.Do(ctx, func(ctx context.Context) error {
		err := r.counter.Increment(ctx, popularity.ViewsNamespace, member)
		if err != nil && shared.IsRetryable(err) && !circuitbreaker.IsRejected(err) {
			return retry.Retryable(err)
		}
		return err
	})
	if err != nil {
		r.metrics.IncPopularityDegraded(metrics.OpIncrement)
		r.log.Warn("view not recorded",
			logger.PlaceID(placeID),
			logger.Err(err),
		)
		return err
	}
	return nil
}

// Wait blocks until every scheduled recording finished. Used on shutdown.
func (r *ViewRecorder) Wait() {
	r.wg.Wait()
}
