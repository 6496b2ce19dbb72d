package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/hjun-park/backend/internal/domain/posting"
	"github.com/hjun-park/backend/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Posting tags
// ─────────────────────────────────────────────────────────────────────────────

// AddPostingTagsCommand attaches tags to a posting.
type AddPostingTagsCommand struct {
	PostingID shared.ID
	MemberID  shared.ID
	Names     []string
}

// AddPostingTags inserts one tag per non-blank name.
func (h *PostingHandler) AddPostingTags(ctx context.Context, cmd AddPostingTagsCommand) ([]posting.Tag, error) {
	names := nonBlank(cmd.Names)
	if len(names) == 0 {
		return nil, shared.NewDomainError("posting", "AddTags", shared.ErrEmptyValue, "at least one tag name is required")
	}

	var added []posting.Tag
	err := h.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := h.ownedPosting(ctx, cmd.PostingID, cmd.MemberID, false); err != nil {
			return err
		}
		for _, name := range names {
			t, err := h.postings.AddTag(ctx, cmd.PostingID, name)
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

// EditPostingTagCommand renames a posting tag.
type EditPostingTagCommand struct {
	PostingID shared.ID
	TagID     shared.ID
	MemberID  shared.ID
	Name      string
}

// EditPostingTag renames a tag of the author's posting.
func (h *PostingHandler) EditPostingTag(ctx context.Context, cmd EditPostingTagCommand) error {
	if err := requireText("posting", "EditTag", "name", cmd.Name); err != nil {
		return err
	}
	if _, err := h.ownedPosting(ctx, cmd.PostingID, cmd.MemberID, false); err != nil {
		return err
	}
	t, err := h.postings.GetTag(ctx, cmd.TagID)
	if err != nil {
		return err
	}
	if t.PostingID != cmd.PostingID {
		return shared.ErrPostingTagNotFound
	}
	return h.postings.RenameTag(ctx, cmd.TagID, cmd.Name)
}

// DeletePostingTagCommand removes a posting tag.
type DeletePostingTagCommand struct {
	PostingID shared.ID
	TagID     shared.ID
	MemberID  shared.ID
}

// DeletePostingTag deletes a tag of the author's posting. A tag that is
// already gone, or belongs elsewhere, is left alone without error.
func (h *PostingHandler) DeletePostingTag(ctx context.Context, cmd DeletePostingTagCommand) error {
	if _, err := h.ownedPosting(ctx, cmd.PostingID, cmd.MemberID, false); err != nil {
		return err
	}
	t, err := h.postings.GetTag(ctx, cmd.TagID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if t.PostingID != cmd.PostingID {
		return nil
	}
	return h.postings.DeleteTag(ctx, cmd.TagID)
}

// ─────────────────────────────────────────────────────────────────────────────
// Posting comments
// ─────────────────────────────────────────────────────────────────────────────

// AddPostingCommentCommand replies to a posting.
type AddPostingCommentCommand struct {
	PostingID shared.ID
	MemberID  shared.ID
	Content   string
}

// AddPostingComment stores a reply on a live posting and returns its id.
func (h *PostingHandler) AddPostingComment(ctx context.Context, cmd AddPostingCommentCommand) (shared.ID, error) {
	if err := requireMember(cmd.MemberID); err != nil {
		return 0, err
	}
	if err := requireText("posting", "AddComment", "content", cmd.Content); err != nil {
		return 0, err
	}
	if _, err := h.postings.GetByID(ctx, cmd.PostingID); err != nil {
		return 0, err
	}
	return h.postings.AddComment(ctx, &posting.Comment{
		PostingID: cmd.PostingID,
		MemberID:  cmd.MemberID,
		Content:   cmd.Content,
	})
}

// EditPostingCommentCommand changes a reply.
type EditPostingCommentCommand struct {
	PostingID shared.ID
	CommentID shared.ID
	MemberID  shared.ID
	Content   string
}

func (h *PostingHandler) authoredComment(ctx context.Context, postingID, commentID, memberID shared.ID) (*posting.Comment, error) {
	if err := requireMember(memberID); err != nil {
		return nil, err
	}
	if _, err := h.postings.GetByID(ctx, postingID); err != nil {
		return nil, err
	}
	c, err := h.postings.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c.PostingID != postingID {
		return nil, shared.ErrPostingCommentNotFound
	}
	if !c.IsWrittenBy(memberID) {
		return nil, shared.ErrNotOwner
	}
	return c, nil
}

// EditPostingComment replaces the content of the member's own reply.
func (h *PostingHandler) EditPostingComment(ctx context.Context, cmd EditPostingCommentCommand) error {
	if err := requireText("posting", "EditComment", "content", cmd.Content); err != nil {
		return err
	}
	if _, err := h.authoredComment(ctx, cmd.PostingID, cmd.CommentID, cmd.MemberID); err != nil {
		return err
	}
	return h.postings.UpdateComment(ctx, cmd.CommentID, cmd.Content)
}

// DeletePostingCommentCommand removes a reply.
type DeletePostingCommentCommand struct {
	PostingID shared.ID
	CommentID shared.ID
	MemberID  shared.ID
}

// DeletePostingComment deletes the member's own reply logically.
func (h *PostingHandler) DeletePostingComment(ctx context.Context, cmd DeletePostingCommentCommand) error {
	if _, err := h.authoredComment(ctx, cmd.PostingID, cmd.CommentID, cmd.MemberID); err != nil {
		return err
	}
	return h.postings.DeleteComment(ctx, cmd.CommentID)
}
