package place

import (
	"context"

	"github.com/hjun-park/backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Every read only returns rows with status USED. Deletes are logical.
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository stores places and their children.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// Places
	// ─────────────────────────────────────────────────────────────────────────

	// GetByID returns a live place or shared.ErrPlaceNotFound.
	GetByID(ctx context.Context, id shared.ID) (*Place, error)

	// GetByIDForUpdate is GetByID that also locks the row until the
	// surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id shared.ID) (*Place, error)

	// SearchByNameOrAddress returns live places whose name or address
	// contains query (case-sensitive).
	SearchByNameOrAddress(ctx context.Context, query string) ([]*Place, error)

	// FindInBox returns live places inside the coordinate window.
	FindInBox(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]*Place, error)

	// ExistingIDs returns the subset of ids that still resolve to live places.
	ExistingIDs(ctx context.Context, ids []shared.ID) (map[shared.ID]struct{}, error)

	// MarkDeleted flips the place to DELETED or returns shared.ErrPlaceNotFound.
	MarkDeleted(ctx context.Context, id shared.ID) error

	// UpdatePoint stores a new coordinate.
	UpdatePoint(ctx context.Context, id shared.ID, lat, lng float64) error

	// ─────────────────────────────────────────────────────────────────────────
	// Tags
	// ─────────────────────────────────────────────────────────────────────────

	ListTags(ctx context.Context, placeID shared.ID) ([]Tag, error)
	// GetTag returns a live tag or shared.ErrPlaceTagNotFound.
	GetTag(ctx context.Context, tagID shared.ID) (*Tag, error)
	AddTag(ctx context.Context, placeID shared.ID, name string) (Tag, error)
	RenameTag(ctx context.Context, tagID shared.ID, name string) error
	DeleteTag(ctx context.Context, tagID shared.ID) error

	// ─────────────────────────────────────────────────────────────────────────
	// Images
	// ─────────────────────────────────────────────────────────────────────────

	ListImages(ctx context.Context, placeID shared.ID) ([]Image, error)
	AddImage(ctx context.Context, placeID shared.ID, url string) (Image, error)
	DeleteImage(ctx context.Context, imageID shared.ID) error

	// ─────────────────────────────────────────────────────────────────────────
	// Comments
	// ─────────────────────────────────────────────────────────────────────────

	ListComments(ctx context.Context, placeID shared.ID) ([]Comment, error)
	CountComments(ctx context.Context, placeID shared.ID) (int64, error)
	// GetComment returns a live comment or shared.ErrPlaceCommentNotFound.
	GetComment(ctx context.Context, commentID shared.ID) (*Comment, error)
	AddComment(ctx context.Context, c *Comment) (shared.ID, error)
	UpdateComment(ctx context.Context, commentID shared.ID, content string) error
	DeleteComment(ctx context.Context, commentID shared.ID) error
}

// BookmarkRepository reads the bookmark sets of members.
type BookmarkRepository interface {
	// Bookmarks returns the live places memberID bookmarked.
	Bookmarks(ctx context.Context, memberID shared.ID) (Bookmarks, error)
}
