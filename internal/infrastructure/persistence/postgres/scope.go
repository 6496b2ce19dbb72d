package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/hjun-park/backend/internal/domain/shared"
)

// psql builds PostgreSQL statements with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ══════════════════════════════════════════════════════════════════════════════
// LIVE SCOPE
// The only place that knows how soft deletion is stored. Repositories compose
// these helpers instead of writing status predicates by hand.
// ══════════════════════════════════════════════════════════════════════════════

func statusColumn(alias string) string {
	if alias == "" {
		return "status"
	}
	return alias + ".status"
}

// live restricts a select to USED rows of the table behind alias.
func live(b sq.SelectBuilder, alias string) sq.SelectBuilder {
	return b.Where(sq.Eq{statusColumn(alias): string(shared.StatusUsed)})
}

// liveUpdate restricts an update to USED rows so writes to deleted rows
// affect nothing and surface as not found.
func liveUpdate(b sq.UpdateBuilder) sq.UpdateBuilder {
	return b.Where(sq.Eq{"status": string(shared.StatusUsed)})
}

// markDeleted flips matching USED rows of table to DELETED.
func markDeleted(table string, pred sq.Sqlizer) sq.UpdateBuilder {
	return liveUpdate(psql.Update(table).
		Set("status", string(shared.StatusDeleted)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(pred))
}

// containsEither matches rows whose columns contain needle, case-sensitively.
func containsEither(needle string, columns ...string) sq.Or {
	or := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		or = append(or, sq.Expr(fmt.Sprintf("strpos(%s, ?) > 0", col), needle))
	}
	return or
}

// ══════════════════════════════════════════════════════════════════════════════
// BUILDER EXECUTION
// ══════════════════════════════════════════════════════════════════════════════

func (c *Connection) query(ctx context.Context, b sq.Sqlizer) (pgx.Rows, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgres: build query: %w", err)
	}
	q, err := c.querier(ctx)
	if err != nil {
		return nil, err
	}
	return q.Query(ctx, sql, args...)
}

func (c *Connection) queryRow(ctx context.Context, b sq.Sqlizer, dest ...any) error {
	sql, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("postgres: build query: %w", err)
	}
	q, err := c.querier(ctx)
	if err != nil {
		return err
	}
	return q.QueryRow(ctx, sql, args...).Scan(dest...)
}

// exec runs a statement and returns the number of affected rows.
func (c *Connection) exec(ctx context.Context, b sq.Sqlizer) (int64, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("postgres: build statement: %w", err)
	}
	q, err := c.querier(ctx)
	if err != nil {
		return 0, err
	}
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CHILD TABLES
// Tags and images of places and postings share one shape: an owner id, a
// single text value and a status.
// ══════════════════════════════════════════════════════════════════════════════

type childRow struct {
	ID      shared.ID
	OwnerID shared.ID
	Value   string
	Status  shared.Status
}

type childTable struct {
	table    string
	ownerCol string
	valueCol string
	notFound error
}

var (
	placeTags     = childTable{table: "place_tags", ownerCol: "place_id", valueCol: "name", notFound: shared.ErrPlaceTagNotFound}
	placeImages   = childTable{table: "place_images", ownerCol: "place_id", valueCol: "image_url", notFound: shared.ErrNotFound}
	postingTags   = childTable{table: "posting_tags", ownerCol: "posting_id", valueCol: "name", notFound: shared.ErrPostingTagNotFound}
	postingImages = childTable{table: "posting_images", ownerCol: "posting_id", valueCol: "image_url", notFound: shared.ErrNotFound}
)

func (t childTable) selectLive() sq.SelectBuilder {
	return live(psql.Select("id", t.ownerCol, t.valueCol, "status").From(t.table), "")
}

func (t childTable) listQuery(ownerID shared.ID) sq.SelectBuilder {
	return t.selectLive().Where(sq.Eq{t.ownerCol: ownerID}).OrderBy("id")
}

func scanChild(row pgx.CollectableRow) (childRow, error) {
	var c childRow
	var status string
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Value, &status); err != nil {
		return childRow{}, err
	}
	c.Status = shared.Status(status)
	return c, nil
}

func (t childTable) list(ctx context.Context, conn *Connection, ownerID shared.ID) ([]childRow, error) {
	rows, err := conn.query(ctx, t.listQuery(ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.table, err)
	}
	out, err := pgx.CollectRows(rows, scanChild)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", t.table, err)
	}
	return out, nil
}

func (t childTable) get(ctx context.Context, conn *Connection, id shared.ID) (childRow, error) {
	var c childRow
	var status string
	err := conn.queryRow(ctx, t.selectLive().Where(sq.Eq{"id": id}), &c.ID, &c.OwnerID, &c.Value, &status)
	if err != nil {
		if IsNoRows(err) {
			return childRow{}, t.notFound
		}
		return childRow{}, fmt.Errorf("failed to get %s row: %w", t.table, err)
	}
	c.Status = shared.Status(status)
	return c, nil
}

func (t childTable) insert(ctx context.Context, conn *Connection, ownerID shared.ID, value string) (childRow, error) {
	b := psql.Insert(t.table).
		Columns(t.ownerCol, t.valueCol, "status").
		Values(ownerID, value, string(shared.StatusUsed)).
		Suffix("RETURNING id")

	c := childRow{OwnerID: ownerID, Value: value, Status: shared.StatusUsed}
	if err := conn.queryRow(ctx, b, &c.ID); err != nil {
		return childRow{}, fmt.Errorf("failed to insert into %s: %w", t.table, err)
	}
	return c, nil
}

func (t childTable) update(ctx context.Context, conn *Connection, id shared.ID, value string) error {
	b := liveUpdate(psql.Update(t.table).
		Set(t.valueCol, value).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}))

	n, err := conn.exec(ctx, b)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", t.table, err)
	}
	if n == 0 {
		return t.notFound
	}
	return nil
}

func (t childTable) remove(ctx context.Context, conn *Connection, id shared.ID) error {
	n, err := conn.exec(ctx, markDeleted(t.table, sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", t.table, err)
	}
	if n == 0 {
		return t.notFound
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMENT TABLES
// ══════════════════════════════════════════════════════════════════════════════

type commentRow struct {
	ID        shared.ID
	OwnerID   shared.ID
	MemberID  shared.ID
	Nickname  string
	Content   string
	Status    shared.Status
	Timestamp shared.Timestamps
}

type commentTable struct {
	table    string
	ownerCol string
	notFound error
}

var (
	placeComments   = commentTable{table: "place_comments", ownerCol: "place_id", notFound: shared.ErrPlaceCommentNotFound}
	postingComments = commentTable{table: "posting_comments", ownerCol: "posting_id", notFound: shared.ErrPostingCommentNotFound}
)

func (t commentTable) selectLive() sq.SelectBuilder {
	return live(psql.Select(
		"c.id", "c."+t.ownerCol, "c.member_id", "m.nickname", "c.content", "c.status", "c.created_at", "c.updated_at",
	).From(t.table+" c").Join("members m ON m.id = c.member_id"), "c")
}

func scanComment(row pgx.CollectableRow) (commentRow, error) {
	var c commentRow
	var status string
	err := row.Scan(&c.ID, &c.OwnerID, &c.MemberID, &c.Nickname, &c.Content, &status,
		&c.Timestamp.CreatedAt, &c.Timestamp.UpdatedAt)
	if err != nil {
		return commentRow{}, err
	}
	c.Status = shared.Status(status)
	return c, nil
}

func (t commentTable) list(ctx context.Context, conn *Connection, ownerID shared.ID) ([]commentRow, error) {
	rows, err := conn.query(ctx, t.selectLive().Where(sq.Eq{"c." + t.ownerCol: ownerID}).OrderBy("c.id"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.table, err)
	}
	out, err := pgx.CollectRows(rows, scanComment)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", t.table, err)
	}
	return out, nil
}

func (t commentTable) count(ctx context.Context, conn *Connection, ownerID shared.ID) (int64, error) {
	b := live(psql.Select("COUNT(*)").From(t.table), "").Where(sq.Eq{t.ownerCol: ownerID})

	var n int64
	if err := conn.queryRow(ctx, b, &n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", t.table, err)
	}
	return n, nil
}

func (t commentTable) get(ctx context.Context, conn *Connection, id shared.ID) (commentRow, error) {
	rows, err := conn.query(ctx, t.selectLive().Where(sq.Eq{"c.id": id}))
	if err != nil {
		return commentRow{}, fmt.Errorf("failed to get %s row: %w", t.table, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanComment)
	if err != nil {
		if IsNoRows(err) {
			return commentRow{}, t.notFound
		}
		return commentRow{}, fmt.Errorf("failed to scan %s row: %w", t.table, err)
	}
	return c, nil
}

func (t commentTable) insert(ctx context.Context, conn *Connection, ownerID, memberID shared.ID, content string) (shared.ID, error) {
	b := psql.Insert(t.table).
		Columns(t.ownerCol, "member_id", "content", "status").
		Values(ownerID, memberID, content, string(shared.StatusUsed)).
		Suffix("RETURNING id")

	var id shared.ID
	if err := conn.queryRow(ctx, b, &id); err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", t.table, err)
	}
	return id, nil
}

func (t commentTable) update(ctx context.Context, conn *Connection, id shared.ID, content string) error {
	b := liveUpdate(psql.Update(t.table).
		Set("content", content).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}))

	n, err := conn.exec(ctx, b)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", t.table, err)
	}
	if n == 0 {
		return t.notFound
	}
	return nil
}

func (t commentTable) remove(ctx context.Context, conn *Connection, id shared.ID) error {
	n, err := conn.exec(ctx, markDeleted(t.table, sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", t.table, err)
	}
	if n == 0 {
		return t.notFound
	}
	return nil
}
