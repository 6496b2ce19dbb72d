// Package posting contains the posting aggregate: a member-written article
// with tags, images and comments as soft-deletable children.
package posting

import (
	"strings"

	"github.com/hjun-park/backend/internal/domain/shared"
)

// Posting is a member-authored article.
type Posting struct {
	ID       shared.ID
	MemberID shared.ID
	Nickname string
	// ProfileImageURL is the author's avatar at read time.
	ProfileImageURL string
	Title           string
	Content         string
	Status          shared.Status
	shared.Timestamps
}

// IsOwnedBy reports whether memberID wrote the posting.
func (p *Posting) IsOwnedBy(memberID shared.ID) bool {
	return p.MemberID != 0 && p.MemberID == memberID
}

// Validate checks the fields required on creation.
func (p *Posting) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return shared.NewDomainError("posting", "Validate", shared.ErrEmptyValue, "title is required")
	}
	if strings.TrimSpace(p.Content) == "" {
		return shared.NewDomainError("posting", "Validate", shared.ErrEmptyValue, "content is required")
	}
	return nil
}

// Tag is a free-form label attached to a posting.
type Tag struct {
	ID        shared.ID
	PostingID shared.ID
	Name      string
	Status    shared.Status
}

// TagName returns the reconciliation label of a tag.
func TagName(t Tag) string { return t.Name }

// Image is an image URL attached to a posting.
type Image struct {
	ID        shared.ID
	PostingID shared.ID
	URL       string
	Status    shared.Status
}

// ImageURL returns the reconciliation label of an image.
func ImageURL(i Image) string { return i.URL }

// Comment is a member reply to a posting.
type Comment struct {
	ID        shared.ID
	PostingID shared.ID
	MemberID  shared.ID
	Nickname  string
	Content   string
	Status    shared.Status
	shared.Timestamps
}

// IsWrittenBy reports whether memberID authored the comment.
func (c *Comment) IsWrittenBy(memberID shared.ID) bool {
	return c.MemberID == memberID
}

// Summary is a posting with the aggregates shown in listings.
type Summary struct {
	Posting      *Posting
	ImageURLs    []string
	CommentCount int64
}
