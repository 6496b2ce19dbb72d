package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hjun-park/backend/internal/domain/popularity"
	"github.com/hjun-park/backend/internal/domain/shared"
	"github.com/hjun-park/backend/internal/infrastructure/metrics"
)

func TestGetTopPlaces_RanksByViews(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	low := f.addPlace("Low", "addr-low", 37.5, 127.0)
	high := f.addPlace("High", "addr-high", 37.5, 127.0)
	f.addPlace("Unviewed", "addr", 37.5, 127.0)
	f.setViews(low, 2)
	f.setViews(high, 9)

	_, err := f.places.AddImage(ctx, high, "https://img/high-1.png")
	require.NoError(t, err)
	_, err = f.places.AddImage(ctx, high, "https://img/high-2.png")
	require.NoError(t, err)

	h := NewGetTopPlacesHandler(f.places, f.counter, nil, nil)
	ranks, err := h.Handle(ctx, GetTopPlacesQuery{})

	require.NoError(t, err)
	require.Len(t, ranks, 2)
	assert.Equal(t, PlaceRankDTO{PlaceID: high, Name: "High", Address: "addr-high", ViewCount: 9, ImageURL: "https://img/high-1.png"}, ranks[0])
	assert.Equal(t, PlaceRankDTO{PlaceID: low, Name: "Low", Address: "addr-low", ViewCount: 2, ImageURL: ""}, ranks[1])
}

func TestGetTopPlaces_DefaultLimit(t *testing.T) {
	f := newFixture()
	for i := 0; i < DefaultTopPlaces+3; i++ {
		id := f.addPlace("p", "a", 37.5, 127.0)
		f.setViews(id, float64(i+1))
	}

	h := NewGetTopPlacesHandler(f.places, f.counter, nil, nil)
	ranks, err := h.Handle(context.Background(), GetTopPlacesQuery{})

	require.NoError(t, err)
	assert.Len(t, ranks, DefaultTopPlaces)
	assert.Equal(t, int64(DefaultTopPlaces+3), ranks[0].ViewCount)
}

func TestGetTopPlaces_OutageReturnsEmptyList(t *testing.T) {
	m := metrics.New()
	h := NewGetTopPlacesHandler(newFixture().places, downCounter{}, nil, m)

	ranks, err := h.Handle(context.Background(), GetTopPlacesQuery{Limit: 3})

	require.NoError(t, err)
	assert.NotNil(t, ranks)
	assert.Empty(t, ranks)
}

func TestGetTopPlaces_GhostEntryFailsRequest(t *testing.T) {
	f := newFixture()
	live := f.addPlace("Live", "a", 37.5, 127.0)
	f.setViews(live, 3)
	f.counter.Set(popularity.ViewsNamespace, "999", 8)

	h := NewGetTopPlacesHandler(f.places, f.counter, nil, nil)
	_, err := h.Handle(context.Background(), GetTopPlacesQuery{})

	assert.ErrorIs(t, err, shared.ErrPlaceNotFound)
}

func TestGetTopPlaces_NonNumericMemberFailsRequest(t *testing.T) {
	f := newFixture()
	f.counter.Set(popularity.ViewsNamespace, "not-an-id", 1)

	h := NewGetTopPlacesHandler(f.places, f.counter, nil, nil)
	_, err := h.Handle(context.Background(), GetTopPlacesQuery{})

	assert.ErrorIs(t, err, shared.ErrPlaceNotFound)
	assert.True(t, shared.IsNotFound(err))
}

func TestGetTopPlacesQuery_Validate(t *testing.T) {
	q := GetTopPlacesQuery{Limit: MaxTopPlaces + 10}
	require.NoError(t, q.Validate())
	assert.Equal(t, MaxTopPlaces, q.Limit)

	q = GetTopPlacesQuery{Limit: -1}
	assert.True(t, shared.IsValidation(q.Validate()))
}
