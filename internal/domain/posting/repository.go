package posting

import (
	"context"

	"github.com/hjun-park/backend/internal/domain/shared"
)

// ListOptions pages through postings ordered newest first.
type ListOptions struct {
	Offset int
	Limit  int
}

// Repository stores postings and their children. Reads only see USED rows.
type Repository interface {
	Create(ctx context.Context, p *Posting) (shared.ID, error)
	// GetByID returns a live posting or shared.ErrPostingNotFound.
	GetByID(ctx context.Context, id shared.ID) (*Posting, error)
	// GetByIDForUpdate is GetByID holding a row lock until the transaction ends.
	GetByIDForUpdate(ctx context.Context, id shared.ID) (*Posting, error)
	List(ctx context.Context, opts ListOptions) ([]*Posting, error)
	ListByMember(ctx context.Context, memberID shared.ID) ([]*Posting, error)
	UpdateContent(ctx context.Context, id shared.ID, content string) error
	MarkDeleted(ctx context.Context, id shared.ID) error

	ListTags(ctx context.Context, postingID shared.ID) ([]Tag, error)
	// GetTag returns a live tag or shared.ErrPostingTagNotFound.
	GetTag(ctx context.Context, tagID shared.ID) (*Tag, error)
	AddTag(ctx context.Context, postingID shared.ID, name string) (Tag, error)
	RenameTag(ctx context.Context, tagID shared.ID, name string) error
	DeleteTag(ctx context.Context, tagID shared.ID) error

	ListImages(ctx context.Context, postingID shared.ID) ([]Image, error)
	AddImage(ctx context.Context, postingID shared.ID, url string) (Image, error)
	DeleteImage(ctx context.Context, imageID shared.ID) error

	ListComments(ctx context.Context, postingID shared.ID) ([]Comment, error)
	CountComments(ctx context.Context, postingID shared.ID) (int64, error)
	// GetComment returns a live comment or shared.ErrPostingCommentNotFound.
	GetComment(ctx context.Context, commentID shared.ID) (*Comment, error)
	AddComment(ctx context.Context, c *Comment) (shared.ID, error)
	UpdateComment(ctx context.Context, commentID shared.ID, content string) error
	DeleteComment(ctx context.Context, commentID shared.ID) error
}
