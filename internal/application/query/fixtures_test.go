package query

import (
	"context"

	"github.com/hjun-park/backend/internal/domain/place"
	"github.com/hjun-park/backend/internal/domain/popularity"
	"github.com/hjun-park/backend/internal/domain/shared"
	"github.com/hjun-park/backend/internal/infrastructure/persistence/memory"
)

// downCounter fails every call the way an unreachable store does.
type downCounter struct{}

func (downCounter) Increment(context.Context, string, string) error {
	return shared.ErrPopularityUnavailable
}

func (downCounter) Score(context.Context, string, string) (float64, bool, error) {
	return 0, false, shared.ErrPopularityUnavailable
}

func (downCounter) TopK(context.Context, string, int) ([]popularity.Entry, error) {
	return nil, shared.ErrPopularityUnavailable
}

func (downCounter) Remove(context.Context, string, ...string) error {
	return shared.ErrPopularityUnavailable
}

type fixture struct {
	store     *memory.Store
	places    *memory.PlaceRepository
	bookmarks *memory.BookmarkRepository
	postings  *memory.PostingRepository
	counter   *memory.PopularityCounter
}

func newFixture() *fixture {
	s := memory.NewStore()
	return &fixture{
		store:     s,
		places:    memory.NewPlaceRepository(s),
		bookmarks: memory.NewBookmarkRepository(s),
		postings:  memory.NewPostingRepository(s),
		counter:   memory.NewPopularityCounter(),
	}
}

func (f *fixture) addPlace(name, address string, lat, lng float64) shared.ID {
	return f.store.AddPlace(place.Place{Name: name, Address: address, Latitude: lat, Longitude: lng})
}

func (f *fixture) setViews(id shared.ID, score float64) {
	f.counter.Set(popularity.ViewsNamespace, shared.FormatID(id), score)
}

func resultIDs(results []PlaceSearchResultDTO) []int64 {
	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}
