package command

import (
	"context"

	"github.com/hjun-park/backend/internal/domain/place"
	"github.com/hjun-park/backend/internal/domain/shared"
)

// AddPlaceCommentCommand writes a review.
type AddPlaceCommentCommand struct {
	PlaceID  shared.ID
	MemberID shared.ID
	Content  string
}

// AddPlaceComment stores a review on a live place and returns its id.
func (h *PlaceHandler) AddPlaceComment(ctx context.Context, cmd AddPlaceCommentCommand) (shared.ID, error) {
	if err := requireMember(cmd.MemberID); err != nil {
		return 0, err
	}
	if err := requireText("place", "AddComment", "content", cmd.Content); err != nil {
		return 0, err
	}
	if _, err := h.places.GetByID(ctx, cmd.PlaceID); err != nil {
		return 0, err
	}
	return h.places.AddComment(ctx, &place.Comment{
		PlaceID:  cmd.PlaceID,
		MemberID: cmd.MemberID,
		Content:  cmd.Content,
	})
}

// EditPlaceCommentCommand changes a review.
type EditPlaceCommentCommand struct {
	PlaceID   shared.ID
	CommentID shared.ID
	MemberID  shared.ID
	Content   string
}

// authoredComment loads a live comment of placeID written by memberID.
func (h *PlaceHandler) authoredComment(ctx context.Context, placeID, commentID, memberID shared.ID) (*place.Comment, error) {
	if err := requireMember(memberID); err != nil {
		return nil, err
	}
	if _, err := h.places.GetByID(ctx, placeID); err != nil {
		return nil, err
	}
	c, err := h.places.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c.PlaceID != placeID {
		return nil, shared.ErrPlaceCommentNotFound
	}
	if !c.IsWrittenBy(memberID) {
		return nil, shared.ErrNotOwner
	}
	return c, nil
}

// EditPlaceComment replaces the content of the member's own review.
func (h *PlaceHandler) EditPlaceComment(ctx context.Context, cmd EditPlaceCommentCommand) error {
	if err := requireText("place", "EditComment", "content", cmd.Content); err != nil {
		return err
	}
	if _, err := h.authoredComment(ctx, cmd.PlaceID, cmd.CommentID, cmd.MemberID); err != nil {
		return err
	}
	return h.places.UpdateComment(ctx, cmd.CommentID, cmd.Content)
}

// DeletePlaceCommentCommand removes a review.
type DeletePlaceCommentCommand struct {
	PlaceID   shared.ID
	CommentID shared.ID
	MemberID  shared.ID
}

// DeletePlaceComment deletes the member's own review logically.
func (h *PlaceHandler) DeletePlaceComment(ctx context.Context, cmd DeletePlaceCommentCommand) error {
	if _, err := h.authoredComment(ctx, cmd.PlaceID, cmd.CommentID, cmd.MemberID); err != nil {
		return err
	}
	return h.places.DeleteComment(ctx, cmd.CommentID)
}
