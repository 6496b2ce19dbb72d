package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hjun-park/backend/internal/domain/geo"
	"github.com/hjun-park/backend/internal/domain/place"
	"github.com/hjun-park/backend/internal/domain/popularity"
	"github.com/hjun-park/backend/internal/domain/shared"
	"github.com/hjun-park/backend/internal/infrastructure/metrics"
	"github.com/hjun-park/backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEARCH PLACES QUERY
// Finds places by name or address and ranks them by distance from the viewer
// or by view count.
// ══════════════════════════════════════════════════════════════════════════════

// SortMode selects the ranking of search results.
type SortMode string

const (
	// SortDistance orders nearest first.
	SortDistance SortMode = "DISTANCE"
	// SortPopularity orders most viewed first.
	SortPopularity SortMode = "POPULARITY"
)

// IsValid reports whether m is a known sort mode.
func (m SortMode) IsValid() bool {
	return m == SortDistance || m == SortPopularity
}

// ParseSortMode parses the wire value. An empty value means SortDistance;
// anything else unrecognized is shared.ErrInvalidSortMode.
func ParseSortMode(raw string) (SortMode, error) {
	if raw == "" {
		return SortDistance, nil
	}
	m := SortMode(raw)
	if !m.IsValid() {
		return "", shared.WrapError("place", "ParseSortMode", shared.ErrInvalidInput,
			fmt.Sprintf("unrecognized sort mode %q", raw), shared.ErrInvalidSortMode)
	}
	return m, nil
}

// DefaultSearchParallelism bounds concurrent candidate enrichment.
const DefaultSearchParallelism = 8

// SearchPlacesQuery holds the search parameters.
type SearchPlacesQuery struct {
	Query     string
	Latitude  float64
	Longitude float64
	Sort      SortMode
	// ViewerID is the requesting member, 0 for anonymous viewers.
	ViewerID shared.ID
}

// Validate checks the parameters.
func (q SearchPlacesQuery) Validate() error {
	if !q.Sort.IsValid() {
		return shared.ErrInvalidSortMode
	}
	if !(geo.Point{Latitude: q.Latitude, Longitude: q.Longitude}).IsValid() {
		return shared.ErrInvalidCoordinate
	}
	return nil
}

// PlaceSearchResultDTO is one ranked place.
type PlaceSearchResultDTO struct {
	ID           int64      `json:"place_id"`
	Name         string     `json:"name"`
	Address      string     `json:"address"`
	ReviewCount  int64      `json:"review_count"`
	Distance     float64    `json:"distance"`
	ViewCount    int64      `json:"view_count"`
	Tags         []TagDTO   `json:"tags"`
	Images       []ImageDTO `json:"images"`
	IsBookmarked bool       `json:"is_bookmarked"`
}

// SearchPlacesHandler ranks search candidates.
type SearchPlacesHandler struct {
	places      place.Repository
	bookmarks   place.BookmarkRepository
	counter     popularity.Counter
	log         *logger.Logger
	metrics     *metrics.Metrics
	parallelism int
}

// NewSearchPlacesHandler creates a handler. parallelism <= 0 uses
// DefaultSearchParallelism.
func NewSearchPlacesHandler(
	places place.Repository,
	bookmarks place.BookmarkRepository,
	counter popularity.Counter,
	log *logger.Logger,
	m *metrics.Metrics,
	parallelism int,
) *SearchPlacesHandler {
	if parallelism <= 0 {
		parallelism = DefaultSearchParallelism
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SearchPlacesHandler{
		places:      places,
		bookmarks:   bookmarks,
		counter:     counter,
		log:         log.With(logger.Component("search_places")),
		metrics:     m,
		parallelism: parallelism,
	}
}

// Handle runs the search.
func (h *SearchPlacesHandler) Handle(ctx context.Context, q SearchPlacesQuery) ([]PlaceSearchResultDTO, error) {
	start := time.Now()

	if err := q.Validate(); err != nil {
		return nil, err
	}

	candidates, err := h.places.SearchByNameOrAddress(ctx, q.Query)
	if err != nil {
		return nil, shared.WrapError("place", "Search", shared.ErrServiceUnavailable, "failed to search places", err)
	}

	var marks place.Bookmarks
	if q.ViewerID != 0 {
		marks, err = h.bookmarks.Bookmarks(ctx, q.ViewerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load bookmarks: %w", err)
		}
	}

	results := make([]PlaceSearchResultDTO, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.parallelism)

	for i, p := range candidates {
		g.Go(func() error {
			res, err := h.enrich(gctx, p, q)
			if err != nil {
				return err
			}
			res.IsBookmarked = marks.Has(p.ID)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	SortResults(results, q.Sort)

	h.metrics.ObserveSearch(string(q.Sort), time.Since(start).Seconds(), len(results))
	return results, nil
}

// enrich loads a candidate's children and its ranking key.
func (h *SearchPlacesHandler) enrich(ctx context.Context, p *place.Place, q SearchPlacesQuery) (PlaceSearchResultDTO, error) {
	reviews, err := h.places.CountComments(ctx, p.ID)
	if err != nil {
		return PlaceSearchResultDTO{}, fmt.Errorf("count comments of place %d: %w", p.ID, err)
	}
	tags, err := h.places.ListTags(ctx, p.ID)
	if err != nil {
		return PlaceSearchResultDTO{}, fmt.Errorf("list tags of place %d: %w", p.ID, err)
	}
	images, err := h.places.ListImages(ctx, p.ID)
	if err != nil {
		return PlaceSearchResultDTO{}, fmt.Errorf("list images of place %d: %w", p.ID, err)
	}

	res := PlaceSearchResultDTO{
		ID:          p.ID,
		Name:        p.Name,
		Address:     p.Address,
		ReviewCount: reviews,
		Distance:    p.DistanceFrom(q.Latitude, q.Longitude),
		Tags:        placeTagDTOs(tags),
		Images:      placeImageDTOs(images),
	}

	if q.Sort == SortPopularity {
		res.ViewCount = h.viewCount(ctx, p.ID)
	}
	return res, nil
}

// viewCount reads the truncated score. Store failures degrade to 0.
func (h *SearchPlacesHandler) viewCount(ctx context.Context, placeID shared.ID) int64 {
	score, _, err := h.counter.Score(ctx, popularity.ViewsNamespace, shared.FormatID(placeID))
	if err != nil {
		h.metrics.IncPopularityDegraded(metrics.OpScore)
		h.log.Warn("popularity score unavailable, ranking as zero",
			logger.PlaceID(placeID),
			logger.Err(err),
		)
		return 0
	}
	return int64(score)
}

// SortResults orders results in place. DISTANCE is ascending distance;
// POPULARITY is descending truncated view count. Ties keep place id order.
func SortResults(results []PlaceSearchResultDTO, mode SortMode) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		switch mode {
		case SortPopularity:
			if a.ViewCount != b.ViewCount {
				return a.ViewCount > b.ViewCount
			}
		default:
			if a.Distance != b.Distance {
				return a.Distance < b.Distance
			}
		}
		return a.ID < b.ID
	})
}
