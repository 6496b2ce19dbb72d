package command

import (
	"context"
	"fmt"

	"github.com/hjun-park/backend/internal/domain/posting"
	"github.com/hjun-park/backend/internal/domain/reconcile"
	"github.com/hjun-park/backend/internal/domain/shared"
	"github.com/hjun-park/backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// POSTING COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// PostingHandler handles posting mutations.
type PostingHandler struct {
	postings posting.Repository
	tx       shared.Transactor
	log      *logger.Logger
}

// NewPostingHandler creates a handler. A nil transactor runs without a transaction.
func NewPostingHandler(postings posting.Repository, tx shared.Transactor, log *logger.Logger) *PostingHandler {
	if tx == nil {
		tx = shared.NoopTransactor{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PostingHandler{
		postings: postings,
		tx:       tx,
		log:      log.With(logger.Component("posting_commands")),
	}
}

// ownedPosting loads a live posting written by memberID. lock takes the row
// lock used to serialize edits of one posting.
func (h *PostingHandler) ownedPosting(ctx context.Context, postingID, memberID shared.ID, lock bool) (*posting.Posting, error) {
	if err := requireMember(memberID); err != nil {
		return nil, err
	}
	get := h.postings.GetByID
	if lock {
		get = h.postings.GetByIDForUpdate
	}
	p, err := get(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if !p.IsOwnedBy(memberID) {
		return nil, shared.ErrNotOwner
	}
	return p, nil
}

func (h *PostingHandler) syncImages(ctx context.Context, postingID shared.ID, urls []string) (reconcile.Result[posting.Image], error) {
	current, err := h.postings.ListImages(ctx, postingID)
	if err != nil {
		return reconcile.Result[posting.Image]{}, fmt.Errorf("list images: %w", err)
	}
	return reconcile.Sync(ctx, urls, current, posting.ImageURL, reconcile.Funcs[posting.Image]{
		InsertFn: func(ctx context.Context, url string) error {
			_, err := h.postings.AddImage(ctx, postingID, url)
			return err
		},
		RemoveFn: func(ctx context.Context, img posting.Image) error {
			return h.postings.DeleteImage(ctx, img.ID)
		},
	})
}

func (h *PostingHandler) syncTags(ctx context.Context, postingID shared.ID, names []string) (reconcile.Result[posting.Tag], error) {
	current, err := h.postings.ListTags(ctx, postingID)
	if err != nil {
		return reconcile.Result[posting.Tag]{}, fmt.Errorf("list tags: %w", err)
	}
	return reconcile.Sync(ctx, names, current, posting.TagName, reconcile.Funcs[posting.Tag]{
		InsertFn: func(ctx context.Context, name string) error {
			_, err := h.postings.AddTag(ctx, postingID, name)
			return err
		},
		RemoveFn: func(ctx context.Context, t posting.Tag) error {
			return h.postings.DeleteTag(ctx, t.ID)
		},
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Create
// ─────────────────────────────────────────────────────────────────────────────

// CreatePostingCommand writes a new posting. Image URLs point at already
// uploaded files.
type CreatePostingCommand struct {
	MemberID  shared.ID
	Title     string
	Content   string
	ImageURLs []string
}

// CreatePosting stores the posting with its images and returns its id.
func (h *PostingHandler) CreatePosting(ctx context.Context, cmd CreatePostingCommand) (shared.ID, error) {
	if err := requireMember(cmd.MemberID); err != nil {
		return 0, err
	}
	p := &posting.Posting{MemberID: cmd.MemberID, Title: cmd.Title, Content: cmd.Content}
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var id shared.ID
	err := h.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		id, err = h.postings.Create(ctx, p)
		if err != nil {
			return err
		}
		if _, err := h.syncImages(ctx, id, cmd.ImageURLs); err != nil {
			return fmt.Errorf("attach images: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	h.log.Info("posting created", logger.PostingID(id), logger.MemberID(cmd.MemberID))
	return id, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Edit
// ─────────────────────────────────────────────────────────────────────────────

// EditPostingCommand replaces the content, tags and images of a posting.
type EditPostingCommand struct {
	PostingID shared.ID
	MemberID  shared.ID
	Content   string
	Tags      []string
	ImageURLs []string
}

// EditPosting updates the content and reconciles tags and images in one
// transaction holding the posting row lock. Only the author may edit.
func (h *PostingHandler) EditPosting(ctx context.Context, cmd EditPostingCommand) (SyncResult, error) {
	if err := requireText("posting", "Edit", "content", cmd.Content); err != nil {
		return SyncResult{}, err
	}

	var res SyncResult
	err := h.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := h.ownedPosting(ctx, cmd.PostingID, cmd.MemberID, true); err != nil {
			return err
		}
		if err := h.postings.UpdateContent(ctx, cmd.PostingID, cmd.Content); err != nil {
			return err
		}

		tagEdits, err := h.syncTags(ctx, cmd.PostingID, cmd.Tags)
		if err != nil {
			return fmt.Errorf("sync tags: %w", err)
		}
		imageEdits, err := h.syncImages(ctx, cmd.PostingID, cmd.ImageURLs)
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
	return res, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete
// ─────────────────────────────────────────────────────────────────────────────

// DeletePostingCommand removes a posting.
type DeletePostingCommand struct {
	PostingID shared.ID
	MemberID  shared.ID
}

// DeletePosting deletes the author's posting logically.
func (h *PostingHandler) DeletePosting(ctx context.Context, cmd DeletePostingCommand) error {
	if _, err := h.ownedPosting(ctx, cmd.PostingID, cmd.MemberID, false); err != nil {
		return err
	}
	if err := h.postings.MarkDeleted(ctx, cmd.PostingID); err != nil {
		return err
	}

	h.log.Info("posting deleted", logger.PostingID(cmd.PostingID), logger.MemberID(cmd.MemberID))
	return nil
}
