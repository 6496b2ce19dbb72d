package query

import (
	"context"
	"fmt"

	"github.com/hjun-park/backend/internal/domain/place"
	"github.com/hjun-park/backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PLACE DETAIL QUERY
// Loads a place with its children and counts the view.
// ══════════════════════════════════════════════════════════════════════════════

// ViewRecorder counts a view of a place without blocking or failing the caller.
type ViewRecorder interface {
	RecordView(ctx context.Context, placeID shared.ID)
}

// PlaceDetailDTO is the full place page.
type PlaceDetailDTO struct {
	ID          int64        `json:"place_id"`
	Name        string       `json:"name"`
	Address     string       `json:"address"`
	PhoneNumber string       `json:"phone_number"`
	Latitude    float64      `json:"latitude"`
	Longitude   float64      `json:"longitude"`
	ImageURLs   []string     `json:"place_image_urls"`
	Comments    []CommentDTO `json:"comments"`
	TagNames    []string     `json:"tag_names"`
	ReviewCount int64        `json:"review_count"`
	ImageCount  int64        `json:"image_count"`
}

// GetPlaceDetailHandler serves place pages.
type GetPlaceDetailHandler struct {
	places place.Repository
	views  ViewRecorder
}

// NewGetPlaceDetailHandler creates a handler.
func NewGetPlaceDetailHandler(places place.Repository, views ViewRecorder) *GetPlaceDetailHandler {
	return &GetPlaceDetailHandler{places: places, views: views}
}

// Handle returns the place detail. The view is recorded only after the
// detail was assembled, and its outcome never reaches the caller.
func (h *GetPlaceDetailHandler) Handle(ctx context.Context, placeID shared.ID) (*PlaceDetailDTO, error) {
	p, err := h.places.GetByID(ctx, placeID)
	if err != nil {
		return nil, err
	}

	images, err := h.places.ListImages(ctx, placeID)
	if err != nil {
		return nil, fmt.Errorf("list images of place %d: %w", placeID, err)
	}
	comments, err := h.places.ListComments(ctx, placeID)
	if err != nil {
		return nil, fmt.Errorf("list comments of place %d: %w", placeID, err)
	}
	tags, err := h.places.ListTags(ctx, placeID)
	if err != nil {
		return nil, fmt.Errorf("list tags of place %d: %w", placeID, err)
	}

	imageURLs := make([]string, len(images))
	for i, img := range images {
		imageURLs[i] = img.URL
	}
	tagNames := make([]string, len(tags))
	for i, t := range tags {
		tagNames[i] = t.Name
	}

	detail := &PlaceDetailDTO{
		ID:          p.ID,
		Name:        p.Name,
		Address:     p.Address,
		PhoneNumber: p.PhoneNumber,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		ImageURLs:   imageURLs,
		Comments:    placeCommentDTOs(comments),
		TagNames:    tagNames,
		ReviewCount: int64(len(comments)),
		ImageCount:  int64(len(images)),
	}

	if h.views != nil {
		h.views.RecordView(ctx, placeID)
	}
	return detail, nil
}
