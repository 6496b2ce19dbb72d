package command

import (
	"context"
	"fmt"

	"github.com/hjun-park/backend/internal/domain/geo"
	"github.com/hjun-park/backend/internal/domain/place"
	"github.com/hjun-park/backend/internal/domain/reconcile"
	"github.com/hjun-park/backend/internal/domain/shared"
	"github.com/hjun-park/backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PLACE COMMANDS
// Deletion, coordinates, tags and media of a place.
// ══════════════════════════════════════════════════════════════════════════════

// PlaceHandler handles place mutations.
type PlaceHandler struct {
	places place.Repository
	tx     shared.Transactor
	log    *logger.Logger
}

// NewPlaceHandler creates a handler. A nil transactor runs without a transaction.
func NewPlaceHandler(places place.Repository, tx shared.Transactor, log *logger.Logger) *PlaceHandler {
	if tx == nil {
		tx = shared.NoopTransactor{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PlaceHandler{
		places: places,
		tx:     tx,
		log:    log.With(logger.Component("place_commands")),
	}
}

// editablePlace loads a live place the member may edit.
func (h *PlaceHandler) editablePlace(ctx context.Context, placeID, memberID shared.ID) (*place.Place, error) {
	if err := requireMember(memberID); err != nil {
		return nil, err
	}
	p, err := h.places.GetByID(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if err := authorizePlaceEdit(p, memberID); err != nil {
		return nil, err
	}
	return p, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete / SavePoint
// ─────────────────────────────────────────────────────────────────────────────

// DeletePlaceCommand deletes a place logically.
type DeletePlaceCommand struct {
	PlaceID  shared.ID
	MemberID shared.ID
}

// DeletePlace flips the place to DELETED. Its children stay as they are and
// disappear from reads together with the place.
func (h *PlaceHandler) DeletePlace(ctx context.Context, cmd DeletePlaceCommand) error {
	if _, err := h.editablePlace(ctx, cmd.PlaceID, cmd.MemberID); err != nil {
		return err
	}
	if err := h.places.MarkDeleted(ctx, cmd.PlaceID); err != nil {
		return err
	}

	h.log.Info("place deleted", logger.PlaceID(cmd.PlaceID), logger.MemberID(cmd.MemberID))
	return nil
}

// SavePointCommand moves a place.
type SavePointCommand struct {
	PlaceID   shared.ID
	MemberID  shared.ID
	Latitude  float64
	Longitude float64
}

// Validate checks the coordinate.
func (c SavePointCommand) Validate() error {
	if !(geo.Point{Latitude: c.Latitude, Longitude: c.Longitude}).IsValid() {
		return shared.ErrInvalidCoordinate
	}
	return nil
}

// SavePoint stores new coordinates for a place.
func (h *PlaceHandler) SavePoint(ctx context.Context, cmd SavePointCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if _, err := h.editablePlace(ctx, cmd.PlaceID, cmd.MemberID); err != nil {
		return err
	}
	return h.places.UpdatePoint(ctx, cmd.PlaceID, cmd.Latitude, cmd.Longitude)
}

// ─────────────────────────────────────────────────────────────────────────────
// Tags
// ─────────────────────────────────────────────────────────────────────────────

// AddPlaceTagsCommand attaches new tags to a place.
type AddPlaceTagsCommand struct {
	PlaceID  shared.ID
	MemberID shared.ID
	Names    []string
}

// AddPlaceTags inserts one tag per non-blank name and returns them.
func (h *PlaceHandler) AddPlaceTags(ctx context.Context, cmd AddPlaceTagsCommand) ([]place.Tag, error) {
	names := nonBlank(cmd.Names)
	if len(names) == 0 {
		return nil, shared.NewDomainError("place", "AddTags", shared.ErrEmptyValue, "at least one tag name is required")
	}

	var added []place.Tag
	err := h.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := h.editablePlace(ctx, cmd.PlaceID, cmd.MemberID); err != nil {
			return err
		}
		for _, name := range names {
			t, err := h.places.AddTag(ctx, cmd.PlaceID, name)
			if err != nil {
				return fmt.Errorf("add tag %q: %w", name, err)
			}
			added = append(added, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// EditPlaceTagCommand renames a tag of a place.
type EditPlaceTagCommand struct {
	PlaceID  shared.ID
	TagID    shared.ID
	MemberID shared.ID
	Name     string
}

// placeTag loads a live tag that belongs to placeID.
func (h *PlaceHandler) placeTag(ctx context.Context, placeID, tagID shared.ID) (*place.Tag, error) {
	t, err := h.places.GetTag(ctx, tagID)
	if err != nil {
		return nil, err
	}
	if t.PlaceID != placeID {
		return nil, shared.ErrPlaceTagNotFound
	}
	return t, nil
}

// EditPlaceTag renames a tag. A tag of another place is not found.
func (h *PlaceHandler) EditPlaceTag(ctx context.Context, cmd EditPlaceTagCommand) error {
	if err := requireText("place", "EditTag", "name", cmd.Name); err != nil {
		return err
	}
	if _, err := h.editablePlace(ctx, cmd.PlaceID, cmd.MemberID); err != nil {
		return err
	}
	if _, err := h.placeTag(ctx, cmd.PlaceID, cmd.TagID); err != nil {
		return err
	}
	return h.places.RenameTag(ctx, cmd.TagID, cmd.Name)
}

// DeletePlaceTagCommand removes a tag from a place.
type DeletePlaceTagCommand struct {
	PlaceID  shared.ID
	TagID    shared.ID
	MemberID shared.ID
}

// DeletePlaceTag deletes a tag logically. A tag of another place is not found.
func (h *PlaceHandler) DeletePlaceTag(ctx context.Context, cmd DeletePlaceTagCommand) error {
	if _, err := h.editablePlace(ctx, cmd.PlaceID, cmd.MemberID); err != nil {
		return err
	}
	if _, err := h.placeTag(ctx, cmd.PlaceID, cmd.TagID); err != nil {
		return err
	}
	return h.places.DeleteTag(ctx, cmd.TagID)
}

// ─────────────────────────────────────────────────────────────────────────────
// Media reconciliation
// ─────────────────────────────────────────────────────────────────────────────

// SyncPlaceMediaCommand replaces the tag and image sets of a place.
type SyncPlaceMediaCommand struct {
	PlaceID   shared.ID
	MemberID  shared.ID
	Tags      []string
	ImageURLs []string
}

// SyncResult counts the applied edits.
type SyncResult struct {
	TagsAdded     int `json:"tags_added"`
	TagsRemoved   int `json:"tags_removed"`
	ImagesAdded   int `json:"images_added"`
	ImagesRemoved int `json:"images_removed"`
}

// SyncPlaceMedia makes the live tags and images of a place equal to the
// requested labels. Only the registering member may do this. The place row
// stays locked until both collections are reconciled.
func (h *PlaceHandler) SyncPlaceMedia(ctx context.Context, cmd SyncPlaceMediaCommand) (SyncResult, error) {
	if err := requireMember(cmd.MemberID); err != nil {
		return SyncResult{}, err
	}

	var res SyncResult
	err := h.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := h.places.GetByIDForUpdate(ctx, cmd.PlaceID)
		if err != nil {
			return err
		}
		if !p.IsOwnedBy(cmd.MemberID) {
			return shared.ErrNotOwner
		}

		currentTags, err := h.places.ListTags(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("list tags: %w", err)
		}
		tagEdits, err := reconcile.Sync(ctx, cmd.Tags, currentTags, place.TagName, reconcile.Funcs[place.Tag]{
			InsertFn: func(ctx context.Context, name string) error {
				_, err := h.places.AddTag(ctx, p.ID, name)
				return err
			},
			RemoveFn: func(ctx context.Context, t place.Tag) error {
				return h.places.DeleteTag(ctx, t.ID)
			},
		})
		if err != nil {
			return fmt.Errorf("sync tags: %w", err)
		}

		currentImages, err := h.places.ListImages(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("list images: %w", err)
		}
		imageEdits, err := reconcile.Sync(ctx, cmd.ImageURLs, currentImages, place.ImageURL, reconcile.Funcs[place.Image]{
			InsertFn: func(ctx context.Context, url string) error {
				_, err := h.places.AddImage(ctx, p.ID, url)
				return err
			},
			RemoveFn: func(ctx context.Context, img place.Image) error {
				return h.places.DeleteImage(ctx, img.ID)
			},
		})
		if err != nil {
			return fmt.Errorf("sync images: %w", err)
		}

		res = SyncResult{
			TagsAdded:     len(tagEdits.ToAdd),
			TagsRemoved:   len(tagEdits.ToRemove),
			ImagesAdded:   len(imageEdits.ToAdd),
			ImagesRemoved: len(imageEdits.ToRemove),
		}
		return nil
	})
	if err != nil {
		return SyncResult{}, err
	}

	h.log.Info("place media synced",
		logger.PlaceID(cmd.PlaceID),
		logger.Int("tags_added", res.TagsAdded),
		logger.Int("tags_removed", res.TagsRemoved),
		logger.Int("images_added", res.ImagesAdded),
		logger.Int("images_removed", res.ImagesRemoved),
	)
	return res, nil
}
