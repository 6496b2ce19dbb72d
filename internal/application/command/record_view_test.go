package command

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hjun-park/backend/internal/application/query"
	"github.com/hjun-park/backend/internal/domain/place"
	"github.com/hjun-park/backend/internal/domain/popularity"
	"github.com/hjun-park/backend/internal/domain/shared"
	"github.com/hjun-park/backend/internal/infrastructure/persistence/memory"
	"github.com/hjun-park/backend/pkg/circuitbreaker"
)

// flakyCounter fails the first failures increments, then delegates.
type flakyCounter struct {
	popularity.Counter
	failures int32
	calls    atomic.Int32
	err      error
}

func (c *flakyCounter) Increment(ctx context.Context, namespace, member string) error {
	if c.calls.Add(1) <= c.failures {
		return c.err
	}
	return c.Counter.Increment(ctx, namespace, member)
}

func TestViewRecorder_RecordsInBackground(t *testing.T) {
	counter := memory.NewPopularityCounter()
	rec := NewViewRecorder(counter, ViewRecorderConfig{}, nil, nil)

	rec.RecordView(context.Background(), 7)
	rec.RecordView(context.Background(), 7)
	rec.Wait()

	score, ok, err := counter.Score(context.Background(), popularity.ViewsNamespace, "7")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2.0, score)
}

func TestViewRecorder_SurvivesCanceledRequest(t *testing.T) {
	counter := memory.NewPopularityCounter()
	rec := NewViewRecorder(counter, ViewRecorderConfig{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	rec.RecordView(ctx, 3)
	cancel()
	rec.Wait()

	score, _, err := counter.Score(context.Background(), popularity.ViewsNamespace, "3")
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestViewRecorder_RetriesUnavailableStore(t *testing.T) {
	counter := &flakyCounter{Counter: memory.NewPopularityCounter(), failures: 2, err: shared.ErrPopularityUnavailable}
	rec := NewViewRecorder(counter, ViewRecorderConfig{Attempts: 3, Timeout: time.Second}, nil, nil)

	require.NoError(t, rec.Record(context.Background(), 11))
	assert.Equal(t, int32(3), counter.calls.Load())
}

func TestViewRecorder_GivesUpAfterAttempts(t *testing.T) {
	counter := &flakyCounter{Counter: memory.NewPopularityCounter(), failures: 100, err: shared.ErrPopularityUnavailable}
	rec := NewViewRecorder(counter, ViewRecorderConfig{Attempts: 2, Timeout: time.Second}, nil, nil)

	err := rec.Record(context.Background(), 11)

	assert.ErrorIs(t, err, shared.ErrPopularityUnavailable)
	assert.Equal(t, int32(2), counter.calls.Load())
}

func TestViewRecorder_DoesNotRetryOpenBreaker(t *testing.T) {
	counter := &flakyCounter{Counter: memory.NewPopularityCounter(), failures: 100, err: circuitbreaker.ErrCircuitOpen}
	rec := NewViewRecorder(counter, ViewRecorderConfig{Attempts: 3, Timeout: time.Second}, nil, nil)

	err := rec.Record(context.Background(), 11)

	assert.True(t, circuitbreaker.IsRejected(err))
	assert.Equal(t, int32(1), counter.calls.Load())
}

func TestPlaceDetail_FailingIncrementStillReturnsDetail(t *testing.T) {
	store := memory.NewStore()
	places := memory.NewPlaceRepository(store)
	id := store.AddPlace(place.Place{Name: "Harbor", Address: "Incheon", Latitude: 37.45, Longitude: 126.6})

	counter := &flakyCounter{Counter: memory.NewPopularityCounter(), failures: 100, err: shared.ErrPopularityUnavailable}
	rec := NewViewRecorder(counter, ViewRecorderConfig{Attempts: 1, Timeout: 100 * time.Millisecond}, nil, nil)

	detail, err := query.NewGetPlaceDetailHandler(places, rec).Handle(context.Background(), id)
	rec.Wait()

	require.NoError(t, err)
	assert.Equal(t, "Harbor", detail.Name)
	assert.Equal(t, int32(1), counter.calls.Load())
}
