package query

import (
	"context"

	"github.com/hjun-park/backend/internal/domain/place"
	"github.com/hjun-park/backend/internal/domain/shared"
)

// PlaceChildrenHandler lists the tags and comments of a place.
type PlaceChildrenHandler struct {
	places place.Repository
}

// NewPlaceChildrenHandler creates a handler.
func NewPlaceChildrenHandler(places place.Repository) *PlaceChildrenHandler {
	return &PlaceChildrenHandler{places: places}
}

// Tags returns the live tags of a live place.
func (h *PlaceChildrenHandler) Tags(ctx context.Context, placeID shared.ID) ([]TagDTO, error) {
	if _, err := h.places.GetByID(ctx, placeID); err != nil {
		return nil, err
	}
	tags, err := h.places.ListTags(ctx, placeID)
	if err != nil {
		return nil, err
	}
	return placeTagDTOs(tags), nil
}

// Comments returns the live comments of a live place.
func (h *PlaceChildrenHandler) Comments(ctx context.Context, placeID shared.ID) ([]CommentDTO, error) {
	if _, err := h.places.GetByID(ctx, placeID); err != nil {
		return nil, err
	}
	comments, err := h.places.ListComments(ctx, placeID)
	if err != nil {
		return nil, err
	}
	return placeCommentDTOs(comments), nil
}
