package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hjun-park/backend/internal/domain/place"
	"github.com/hjun-park/backend/internal/domain/popularity"
	"github.com/hjun-park/backend/internal/domain/shared"
	"github.com/hjun-park/backend/internal/infrastructure/metrics"
	"github.com/hjun-park/backend/internal/infrastructure/persistence/memory"
)

type failingLookup struct{}

func (failingLookup) ExistingIDs(context.Context, []shared.ID) (map[shared.ID]struct{}, error) {
	return nil, errors.New("db down")
}

func members(t *testing.T, c popularity.Counter) []string {
	t.Helper()
	top, err := c.TopK(context.Background(), popularity.ViewsNamespace, 100)
	require.NoError(t, err)
	out := make([]string, 0, len(top))
	for _, e := range top {
		out = append(out, e.Member)
	}
	return out
}

func TestPrunePopularity_RemovesDeletedPlaces(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	places := memory.NewPlaceRepository(store)
	counter := memory.NewPopularityCounter()

	kept := store.AddPlace(place.Place{Name: "kept", Latitude: 37.5, Longitude: 127})
	gone := store.AddPlace(place.Place{Name: "gone", Latitude: 37.5, Longitude: 127})
	require.NoError(t, places.MarkDeleted(ctx, gone))

	counter.Set(popularity.ViewsNamespace, shared.FormatID(kept), 5)
	counter.Set(popularity.ViewsNamespace, shared.FormatID(gone), 9)
	counter.Set(popularity.ViewsNamespace, "999", 7)
	counter.Set(popularity.ViewsNamespace, "not-a-place", 1)

	job := NewPrunePopularityJob(counter, places, metrics.New(), nil, PrunePopularityConfig{})
	require.NoError(t, job.Run(ctx))

	assert.Equal(t, []string{shared.FormatID(kept)}, members(t, counter))

	stats := job.LastStats()
	require.NotNil(t, stats)
	assert.Equal(t, 4, stats.Scanned)
	assert.Equal(t, 3, stats.Removed)
	assert.Equal(t, 1, stats.Malformed)
}

func TestPrunePopularity_OnlyInspectsWindow(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	places := memory.NewPlaceRepository(store)
	counter := memory.NewPopularityCounter()

	live := store.AddPlace(place.Place{Name: "live"})
	counter.Set(popularity.ViewsNamespace, shared.FormatID(live), 10)
	counter.Set(popularity.ViewsNamespace, "500", 1)

	job := NewPrunePopularityJob(counter, places, nil, nil, PrunePopularityConfig{Window: 1})
	require.NoError(t, job.Run(ctx))

	assert.ElementsMatch(t, []string{shared.FormatID(live), "500"}, members(t, counter))
	assert.Equal(t, 0, job.LastStats().Removed)
}

func TestPrunePopularity_EmptyCounter(t *testing.T) {
	job := NewPrunePopularityJob(memory.NewPopularityCounter(), failingLookup{}, nil, nil, PrunePopularityConfig{})

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 0, job.LastStats().Scanned)
}

func TestPrunePopularity_LookupFailureKeepsMembers(t *testing.T) {
	counter := memory.NewPopularityCounter()
	counter.Set(popularity.ViewsNamespace, "1", 3)

	job := NewPrunePopularityJob(counter, failingLookup{}, nil, nil, PrunePopularityConfig{})

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve places")
	assert.Equal(t, []string{"1"}, members(t, counter))
}

func TestPrunePopularity_Describe(t *testing.T) {
	job := NewPrunePopularityJob(memory.NewPopularityCounter(), failingLookup{}, nil, nil, PrunePopularityConfig{Window: 50})

	assert.Equal(t, "prune_popularity", job.Name())
	assert.Contains(t, job.Description(), "top 50")
}
