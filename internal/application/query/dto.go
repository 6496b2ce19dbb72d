// Package query contains read operations following the CQRS pattern.
// Queries never modify relational state. Each query is a self-contained use
// case with its own request and response types.
package query

import (
	"github.com/hjun-park/backend/internal/domain/place"
	"github.com/hjun-park/backend/internal/domain/posting"
)

// ══════════════════════════════════════════════════════════════════════════════
// SHARED DTOs
// ══════════════════════════════════════════════════════════════════════════════

// TagDTO is a live tag as shown to clients.
type TagDTO struct {
	ID   int64  `json:"tag_id"`
	Name string `json:"name"`
}

// ImageDTO is a live image as shown to clients.
type ImageDTO struct {
	ID  int64  `json:"image_id"`
	URL string `json:"image_url"`
}

// CommentDTO is a live comment with its author's nickname.
type CommentDTO struct {
	ID          int64  `json:"comment_id"`
	MemberID    int64  `json:"member_id"`
	Nickname    string `json:"nickname"`
	Content     string `json:"content"`
	WritingDate string `json:"writing_date"`
}

func placeTagDTOs(tags []place.Tag) []TagDTO {
	out := make([]TagDTO, len(tags))
	for i, t := range tags {
		out[i] = TagDTO{ID: t.ID, Name: t.Name}
	}
	return out
}

func placeImageDTOs(images []place.Image) []ImageDTO {
	out := make([]ImageDTO, len(images))
	for i, img := range images {
		out[i] = ImageDTO{ID: img.ID, URL: img.URL}
	}
	return out
}

func placeCommentDTOs(comments []place.Comment) []CommentDTO {
	out := make([]CommentDTO, len(comments))
	for i, c := range comments {
		out[i] = CommentDTO{
			ID:          c.ID,
			MemberID:    c.MemberID,
			Nickname:    c.Nickname,
			Content:     c.Content,
			WritingDate: c.WritingDate(),
		}
	}
	return out
}

func postingTagDTOs(tags []posting.Tag) []TagDTO {
	out := make([]TagDTO, len(tags))
	for i, t := range tags {
		out[i] = TagDTO{ID: t.ID, Name: t.Name}
	}
	return out
}

func postingImageURLs(images []posting.Image) []string {
	out := make([]string, len(images))
	for i, img := range images {
		out[i] = img.URL
	}
	return out
}

func postingCommentDTOs(comments []posting.Comment) []CommentDTO {
	out := make([]CommentDTO, len(comments))
	for i, c := range comments {
		out[i] = CommentDTO{
			ID:          c.ID,
			MemberID:    c.MemberID,
			Nickname:    c.Nickname,
			Content:     c.Content,
			WritingDate: c.WritingDate(),
		}
	}
	return out
}
