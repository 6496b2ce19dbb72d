package query

import (
	"context"
	"fmt"

	"github.com/hjun-park/backend/internal/domain/place"
	"github.com/hjun-park/backend/internal/domain/popularity"
	"github.com/hjun-park/backend/internal/domain/shared"
	"github.com/hjun-park/backend/internal/infrastructure/metrics"
	"github.com/hjun-park/backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TOP PLACES QUERY
// The most viewed places, straight from the popularity counter.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultTopPlaces is the ranking size when none is requested.
	DefaultTopPlaces = 5
	// MaxTopPlaces caps the ranking size.
	MaxTopPlaces = 50
)

// GetTopPlacesQuery holds the ranking size.
type GetTopPlacesQuery struct {
	Limit int
}

// Validate applies defaults and bounds.
func (q *GetTopPlacesQuery) Validate() error {
	if q.Limit < 0 {
		return shared.NewDomainError("place", "TopRanked", shared.ErrValueOutOfRange, "limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = DefaultTopPlaces
	}
	if q.Limit > MaxTopPlaces {
		q.Limit = MaxTopPlaces
	}
	return nil
}

// PlaceRankDTO is one entry of the ranking.
type PlaceRankDTO struct {
	PlaceID   int64  `json:"place_id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	ViewCount int64  `json:"view_count"`
	// ImageURL is the first live image, or empty.
	ImageURL string `json:"place_image_url"`
}

// GetTopPlacesHandler builds the ranking.
type GetTopPlacesHandler struct {
	places  place.Repository
	counter popularity.Counter
	log     *logger.Logger
	metrics *metrics.Metrics

	defaultLimit int
}

// NewGetTopPlacesHandler creates a handler.
func NewGetTopPlacesHandler(places place.Repository, counter popularity.Counter, log *logger.Logger, m *metrics.Metrics) *GetTopPlacesHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &GetTopPlacesHandler{
		places:  places,
		counter: counter,
		log:     log.With(logger.Component("top_places")),
		metrics: m,

		defaultLimit: DefaultTopPlaces,
	}
}

// WithDefaultLimit changes the size used when the query names none.
func (h *GetTopPlacesHandler) WithDefaultLimit(n int) *GetTopPlacesHandler {
	if n > 0 && n <= MaxTopPlaces {
		h.defaultLimit = n
	}
	return h
}

// Handle returns up to Limit places by descending view count. A counter
// outage yields an empty ranking. A counter entry whose place is gone fails
// the whole request with shared.ErrPlaceNotFound.
func (h *GetTopPlacesHandler) Handle(ctx context.Context, q GetTopPlacesQuery) ([]PlaceRankDTO, error) {
	if q.Limit == 0 {
		q.Limit = h.defaultLimit
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	entries, err := h.counter.TopK(ctx, popularity.ViewsNamespace, q.Limit)
	if err != nil {
		h.metrics.IncPopularityDegraded(metrics.OpTopK)
		h.log.Warn("popularity ranking unavailable, returning empty list", logger.Err(err))
		return []PlaceRankDTO{}, nil
	}

	ranks := make([]PlaceRankDTO, 0, len(entries))
	for _, e := range entries {
		id, err := shared.ParseID(e.Member)
		if err != nil {
			return nil, shared.WrapError("place", "TopRanked", shared.ErrNotFound,
				fmt.Sprintf("counter member %q is not a place id", e.Member), shared.ErrPlaceNotFound)
		}

		p, err := h.places.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		images, err := h.places.ListImages(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list images of place %d: %w", id, err)
		}
		firstImage := ""
		if len(images) > 0 {
			firstImage = images[0].URL
		}

		ranks = append(ranks, PlaceRankDTO{
			PlaceID:   p.ID,
			Name:      p.Name,
			Address:   p.Address,
			ViewCount: int64(e.Score),
			ImageURL:  firstImage,
		})
	}
	return ranks, nil
}
