package query

import (
	"context"
	"fmt"

	"github.com/hjun-park/backend/internal/domain/posting"
	"github.com/hjun-park/backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// POSTING QUERIES
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultPageSize is the number of postings per page.
	DefaultPageSize = 10
	// MaxPageSize caps the page size.
	MaxPageSize = 50
	// RecentPostingsCount is the size of the "recent postings" strip.
	RecentPostingsCount = 4
)

// ListPostingsQuery selects a page of postings, newest first.
type ListPostingsQuery struct {
	// Page is zero-based.
	Page int
	Size int
}

// Validate applies defaults and bounds.
func (q *ListPostingsQuery) Validate() error {
	if q.Page < 0 {
		return shared.ErrInvalidPage
	}
	if q.Size < 0 {
		return shared.ErrInvalidPage
	}
	if q.Size == 0 {
		q.Size = DefaultPageSize
	}
	if q.Size > MaxPageSize {
		q.Size = MaxPageSize
	}
	return nil
}

// PostingDTO is a posting in a listing.
type PostingDTO struct {
	ID           int64    `json:"posting_id"`
	MemberID     int64    `json:"member_id"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Nickname     string   `json:"nickname"`
	ImageURLs    []string `json:"image_urls"`
	CommentCount int64    `json:"comment_count"`
	CreatedAt    string   `json:"created_at"`
}

// PostingDetailDTO is the full posting page.
type PostingDetailDTO struct {
	ID              int64    `json:"posting_id"`
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	Nickname        string   `json:"nickname"`
	ProfileImageURL string   `json:"profile_image_url"`
	ImageURLs       []string `json:"post_image_urls"`
	Tags            []TagDTO `json:"tags"`
	CreatedAt       string   `json:"created_at"`
}

// RecentPostingDTO is a posting in the recent strip.
type RecentPostingDTO struct {
	ID          int64  `json:"posting_id"`
	Title       string `json:"title"`
	ReviewCount int64  `json:"review_count"`
	// ImageURL is the first live image, or empty.
	ImageURL string `json:"image_url"`
}

// PostingsHandler serves posting reads.
type PostingsHandler struct {
	postings posting.Repository
}

// NewPostingsHandler creates a handler.
func NewPostingsHandler(postings posting.Repository) *PostingsHandler {
	return &PostingsHandler{postings: postings}
}

func (h *PostingsHandler) summarize(ctx context.Context, list []*posting.Posting) ([]PostingDTO, error) {
	out := make([]PostingDTO, len(list))
	for i, p := range list {
		images, err := h.postings.ListImages(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list images of posting %d: %w", p.ID, err)
		}
		comments, err := h.postings.CountComments(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("count comments of posting %d: %w", p.ID, err)
		}
		out[i] = PostingDTO{
			ID:           p.ID,
			MemberID:     p.MemberID,
			Title:        p.Title,
			Content:      p.Content,
			Nickname:     p.Nickname,
			ImageURLs:    postingImageURLs(images),
			CommentCount: comments,
			CreatedAt:    p.WritingDate(),
		}
	}
	return out, nil
}

// List returns one page of live postings.
func (h *PostingsHandler) List(ctx context.Context, q ListPostingsQuery) ([]PostingDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	list, err := h.postings.List(ctx, posting.ListOptions{Offset: q.Page * q.Size, Limit: q.Size})
	if err != nil {
		return nil, err
	}
	return h.summarize(ctx, list)
}

// ByMember returns a member's live postings.
func (h *PostingsHandler) ByMember(ctx context.Context, memberID shared.ID) ([]PostingDTO, error) {
	list, err := h.postings.ListByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return h.summarize(ctx, list)
}

// Detail returns a live posting with its images and tags.
func (h *PostingsHandler) Detail(ctx context.Context, postingID shared.ID) (*PostingDetailDTO, error) {
	p, err := h.postings.GetByID(ctx, postingID)
	if err != nil {
		return nil, err
	}
	images, err := h.postings.ListImages(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("list images of posting %d: %w", postingID, err)
	}
	tags, err := h.postings.ListTags(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("list tags of posting %d: %w", postingID, err)
	}

	return &PostingDetailDTO{
		ID:              p.ID,
		Title:           p.Title,
		Content:         p.Content,
		Nickname:        p.Nickname,
		ProfileImageURL: p.ProfileImageURL,
		ImageURLs:       postingImageURLs(images),
		Tags:            postingTagDTOs(tags),
		CreatedAt:       p.WritingDate(),
	}, nil
}

// Recent returns the newest postings for the home strip.
func (h *PostingsHandler) Recent(ctx context.Context) ([]RecentPostingDTO, error) {
	list, err := h.postings.List(ctx, posting.ListOptions{Limit: RecentPostingsCount})
	if err != nil {
		return nil, err
	}

	out := make([]RecentPostingDTO, len(list))
	for i, p := range list {
		images, err := h.postings.ListImages(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list images of posting %d: %w", p.ID, err)
		}
		comments, err := h.postings.CountComments(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("count comments of posting %d: %w", p.ID, err)
		}
		first := ""
		if len(images) > 0 {
			first = images[0].URL
		}
		out[i] = RecentPostingDTO{ID: p.ID, Title: p.Title, ReviewCount: comments, ImageURL: first}
	}
	return out, nil
}

// Tags returns the live tag names of a live posting.
func (h *PostingsHandler) Tags(ctx context.Context, postingID shared.ID) ([]TagDTO, error) {
	if _, err := h.postings.GetByID(ctx, postingID); err != nil {
		return nil, err
	}
	tags, err := h.postings.ListTags(ctx, postingID)
	if err != nil {
		return nil, err
	}
	return postingTagDTOs(tags), nil
}

// Comments returns the live comments of a live posting.
func (h *PostingsHandler) Comments(ctx context.Context, postingID shared.ID) ([]CommentDTO, error) {
	if _, err := h.postings.GetByID(ctx, postingID); err != nil {
		return nil, err
	}
	comments, err := h.postings.ListComments(ctx, postingID)
	if err != nil {
		return nil, err
	}
	return postingCommentDTOs(comments), nil
}
