package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/hjun-park/backend/internal/domain/posting"
	"github.com/hjun-park/backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// POSTING REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// PostingRepository implements posting.Repository for PostgreSQL.
type PostingRepository struct {
	conn *Connection
}

// NewPostingRepository creates a new PostingRepository.
func NewPostingRepository(conn *Connection) *PostingRepository {
	return &PostingRepository{conn: conn}
}

var _ posting.Repository = (*PostingRepository)(nil)

func selectPostings() sq.SelectBuilder {
	return live(psql.Select(
		"p.id", "p.member_id", "m.nickname", "m.image_url", "p.title", "p.content",
		"p.status", "p.created_at", "p.updated_at",
	).From("postings p").Join("members m ON m.id = p.member_id"), "p")
}

func listPostingsQuery(opts posting.ListOptions) sq.SelectBuilder {
	b := selectPostings().OrderBy("p.created_at DESC", "p.id DESC")
	if opts.Limit > 0 {
		b = b.Limit(uint64(opts.Limit))
	}
	if opts.Offset > 0 {
		b = b.Offset(uint64(opts.Offset))
	}
	return b
}

func scanPosting(row pgx.CollectableRow) (*posting.Posting, error) {
	p := &posting.Posting{}
	var status string
	err := row.Scan(&p.ID, &p.MemberID, &p.Nickname, &p.ProfileImageURL, &p.Title, &p.Content,
		&status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = shared.Status(status)
	return p, nil
}

func (r *PostingRepository) listPostings(ctx context.Context, b sq.SelectBuilder) ([]*posting.Posting, error) {
	rows, err := r.conn.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to query postings: %w", err)
	}
	postings, err := pgx.CollectRows(rows, scanPosting)
	if err != nil {
		return nil, fmt.Errorf("failed to scan postings: %w", err)
	}
	return postings, nil
}

func (r *PostingRepository) getOne(ctx context.Context, b sq.SelectBuilder) (*posting.Posting, error) {
	rows, err := r.conn.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to get posting: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPosting)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrPostingNotFound
		}
		return nil, fmt.Errorf("failed to scan posting: %w", err)
	}
	return p, nil
}

// Create inserts a USED posting and returns its id.
func (r *PostingRepository) Create(ctx context.Context, p *posting.Posting) (shared.ID, error) {
	b := psql.Insert("postings").
		Columns("member_id", "title", "content", "status").
		Values(p.MemberID, p.Title, p.Content, string(shared.StatusUsed)).
		Suffix("RETURNING id")

	var id shared.ID
	if err := r.conn.queryRow(ctx, b, &id); err != nil {
		if IsForeignKeyViolation(err) {
			return 0, shared.WrapError("posting", "Create", shared.ErrInvalidInput, "unknown member", err)
		}
		return 0, fmt.Errorf("failed to create posting: %w", err)
	}
	return id, nil
}

// GetByID returns a live posting with its author's profile.
func (r *PostingRepository) GetByID(ctx context.Context, id shared.ID) (*posting.Posting, error) {
	return r.getOne(ctx, selectPostings().Where(sq.Eq{"p.id": id}))
}

// GetByIDForUpdate returns a live posting and locks its row.
func (r *PostingRepository) GetByIDForUpdate(ctx context.Context, id shared.ID) (*posting.Posting, error) {
	return r.getOne(ctx, selectPostings().Where(sq.Eq{"p.id": id}).Suffix("FOR UPDATE OF p"))
}

// List pages through live postings, newest first.
func (r *PostingRepository) List(ctx context.Context, opts posting.ListOptions) ([]*posting.Posting, error) {
	return r.listPostings(ctx, listPostingsQuery(opts))
}

// ListByMember returns a member's live postings, newest first.
func (r *PostingRepository) ListByMember(ctx context.Context, memberID shared.ID) ([]*posting.Posting, error) {
	return r.listPostings(ctx, selectPostings().
		Where(sq.Eq{"p.member_id": memberID}).
		OrderBy("p.created_at DESC", "p.id DESC"))
}

// UpdateContent replaces a live posting's content.
func (r *PostingRepository) UpdateContent(ctx context.Context, id shared.ID, content string) error {
	b := liveUpdate(psql.Update("postings").
		Set("content", content).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}))

	n, err := r.conn.exec(ctx, b)
	if err != nil {
		return fmt.Errorf("failed to update posting: %w", err)
	}
	if n == 0 {
		return shared.ErrPostingNotFound
	}
	return nil
}

// MarkDeleted logically deletes a posting.
func (r *PostingRepository) MarkDeleted(ctx context.Context, id shared.ID) error {
	n, err := r.conn.exec(ctx, markDeleted("postings", sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("failed to delete posting: %w", err)
	}
	if n == 0 {
		return shared.ErrPostingNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Tags
// ─────────────────────────────────────────────────────────────────────────────

func toPostingTag(c childRow) posting.Tag {
	return posting.Tag{ID: c.ID, PostingID: c.OwnerID, Name: c.Value, Status: c.Status}
}

func (r *PostingRepository) ListTags(ctx context.Context, postingID shared.ID) ([]posting.Tag, error) {
	rows, err := postingTags.list(ctx, r.conn, postingID)
	if err != nil {
		return nil, err
	}
	tags := make([]posting.Tag, len(rows))
	for i, row := range rows {
		tags[i] = toPostingTag(row)
	}
	return tags, nil
}

func (r *PostingRepository) GetTag(ctx context.Context, tagID shared.ID) (*posting.Tag, error) {
	row, err := postingTags.get(ctx, r.conn, tagID)
	if err != nil {
		return nil, err
	}
	t := toPostingTag(row)
	return &t, nil
}

func (r *PostingRepository) AddTag(ctx context.Context, postingID shared.ID, name string) (posting.Tag, error) {
	row, err := postingTags.insert(ctx, r.conn, postingID, name)
	if err != nil {
		return posting.Tag{}, err
	}
	return toPostingTag(row), nil
}

func (r *PostingRepository) RenameTag(ctx context.Context, tagID shared.ID, name string) error {
	return postingTags.update(ctx, r.conn, tagID, name)
}

func (r *PostingRepository) DeleteTag(ctx context.Context, tagID shared.ID) error {
	return postingTags.remove(ctx, r.conn, tagID)
}

// ─────────────────────────────────────────────────────────────────────────────
// Images
// ─────────────────────────────────────────────────────────────────────────────

func toPostingImage(c childRow) posting.Image {
	return posting.Image{ID: c.ID, PostingID: c.OwnerID, URL: c.Value, Status: c.Status}
}

func (r *PostingRepository) ListImages(ctx context.Context, postingID shared.ID) ([]posting.Image, error) {
	rows, err := postingImages.list(ctx, r.conn, postingID)
	if err != nil {
		return nil, err
	}
	images := make([]posting.Image, len(rows))
	for i, row := range rows {
		images[i] = toPostingImage(row)
	}
	return images, nil
}

func (r *PostingRepository) AddImage(ctx context.Context, postingID shared.ID, url string) (posting.Image, error) {
	row, err := postingImages.insert(ctx, r.conn, postingID, url)
	if err != nil {
		return posting.Image{}, err
	}
	return toPostingImage(row), nil
}

func (r *PostingRepository) DeleteImage(ctx context.Context, imageID shared.ID) error {
	return postingImages.remove(ctx, r.conn, imageID)
}

// ─────────────────────────────────────────────────────────────────────────────
// Comments
// ─────────────────────────────────────────────────────────────────────────────

func toPostingComment(c commentRow) posting.Comment {
	return posting.Comment{
		ID:         c.ID,
		PostingID:  c.OwnerID,
		MemberID:   c.MemberID,
		Nickname:   c.Nickname,
		Content:    c.Content,
		Status:     c.Status,
		Timestamps: c.Timestamp,
	}
}

func (r *PostingRepository) ListComments(ctx context.Context, postingID shared.ID) ([]posting.Comment, error) {
	rows, err := postingComments.list(ctx, r.conn, postingID)
	if err != nil {
		return nil, err
	}
	comments := make([]posting.Comment, len(rows))
	for i, row := range rows {
		comments[i] = toPostingComment(row)
	}
	return comments, nil
}

func (r *PostingRepository) CountComments(ctx context.Context, postingID shared.ID) (int64, error) {
	return postingComments.count(ctx, r.conn, postingID)
}

func (r *PostingRepository) GetComment(ctx context.Context, commentID shared.ID) (*posting.Comment, error) {
	row, err := postingComments.get(ctx, r.conn, commentID)
	if err != nil {
		return nil, err
	}
	c := toPostingComment(row)
	return &c, nil
}

func (r *PostingRepository) AddComment(ctx context.Context, c *posting.Comment) (shared.ID, error) {
	return postingComments.insert(ctx, r.conn, c.PostingID, c.MemberID, c.Content)
}

func (r *PostingRepository) UpdateComment(ctx context.Context, commentID shared.ID, content string) error {
	return postingComments.update(ctx, r.conn, commentID, content)
}

func (r *PostingRepository) DeleteComment(ctx context.Context, commentID shared.ID) error {
	return postingComments.remove(ctx, r.conn, commentID)
}
