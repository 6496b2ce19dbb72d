package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/hjun-park/backend/internal/domain/geo"
	"github.com/hjun-park/backend/internal/domain/place"
	"github.com/hjun-park/backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NEARBY PLACES QUERY
// ══════════════════════════════════════════════════════════════════════════════

// DefaultNearbyRadiusKm is used when no radius is requested.
const DefaultNearbyRadiusKm = 10.0

// NearbyPlacesQuery holds the viewer position and search radius.
type NearbyPlacesQuery struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// NearbyPlaceDTO is a place within the radius.
type NearbyPlaceDTO struct {
	ID        int64   `json:"place_id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Distance  float64 `json:"distance"`
}

// NearbyPlacesHandler finds places around a point.
type NearbyPlacesHandler struct {
	places    place.Repository
	maxRadius float64
}

// NewNearbyPlacesHandler creates a handler. maxRadiusKm <= 0 disables the cap.
func NewNearbyPlacesHandler(places place.Repository, maxRadiusKm float64) *NearbyPlacesHandler {
	return &NearbyPlacesHandler{places: places, maxRadius: maxRadiusKm}
}

// Handle returns live places within RadiusKm, nearest first. The store
// narrows candidates to a bounding box and exact distances filter the rest.
func (h *NearbyPlacesHandler) Handle(ctx context.Context, q NearbyPlacesQuery) ([]NearbyPlaceDTO, error) {
	center := geo.Point{Latitude: q.Latitude, Longitude: q.Longitude}
	if !center.IsValid() {
		return nil, shared.ErrInvalidCoordinate
	}
	if q.RadiusKm == 0 {
		q.RadiusKm = DefaultNearbyRadiusKm
	}
	if q.RadiusKm < 0 || (h.maxRadius > 0 && q.RadiusKm > h.maxRadius) {
		return nil, shared.NewDomainError("place", "Nearby", shared.ErrValueOutOfRange,
			fmt.Sprintf("radius must be between 0 and %g km", h.maxRadius))
	}

	minLat, maxLat, minLng, maxLng := geo.BoundingBox(center, q.RadiusKm)
	candidates, err := h.places.FindInBox(ctx, minLat, maxLat, minLng, maxLng)
	if err != nil {
		return nil, fmt.Errorf("find places in box: %w", err)
	}

	out := make([]NearbyPlaceDTO, 0, len(candidates))
	for _, p := range candidates {
		d := center.DistanceTo(p.Point())
		if d > q.RadiusKm {
			continue
		}
		out = append(out, NearbyPlaceDTO{
			ID:        p.ID,
			Name:      p.Name,
			Address:   p.Address,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Distance:  d,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
