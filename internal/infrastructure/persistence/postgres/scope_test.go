package postgres

import (
	"errors"
	"fmt"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hjun-park/backend/internal/domain/posting"
	"github.com/hjun-park/backend/internal/domain/shared"
)

func TestLive_FiltersByStatus(t *testing.T) {
	sql, args, err := live(psql.Select("id").From("places"), "").ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT id FROM places WHERE status = $1", sql)
	assert.Equal(t, []any{"USED"}, args)
}

func TestLive_UsesAlias(t *testing.T) {
	sql, args, err := bookmarksQuery(3).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE b.status = $1 AND p.status = $2 AND b.member_id = $3")
	assert.Equal(t, []any{"USED", "USED", int64(3)}, args)
}

func TestMarkDeleted_OnlyTouchesLiveRows(t *testing.T) {
	sql, args, err := markDeleted("places", sq.Eq{"id": int64(7)}).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "UPDATE places SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3", sql)
	assert.Equal(t, []any{"DELETED", int64(7), "USED"}, args)
}

func TestSearchPlacesQuery(t *testing.T) {
	sql, args, err := searchPlacesQuery("cafe").ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM places p")
	assert.Contains(t, sql, "p.status = $1")
	assert.Contains(t, sql, "(strpos(p.name, $2) > 0 OR strpos(p.address, $3) > 0)")
	assert.Contains(t, sql, "ORDER BY p.id")
	assert.Equal(t, []any{"USED", "cafe", "cafe"}, args)
}

func TestPlacesInBoxQuery(t *testing.T) {
	sql, args, err := placesInBoxQuery(1, 2, 3, 4).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "p.latitude BETWEEN $2 AND $3")
	assert.Contains(t, sql, "p.longitude BETWEEN $4 AND $5")
	assert.Equal(t, []any{"USED", 1.0, 2.0, 3.0, 4.0}, args)
}

func TestChildTable_ListQuery(t *testing.T) {
	sql, args, err := placeTags.listQuery(5).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, place_id, name, status FROM place_tags WHERE status = $1 AND place_id = $2 ORDER BY id", sql)
	assert.Equal(t, []any{"USED", int64(5)}, args)
}

func TestCommentTable_JoinsAuthor(t *testing.T) {
	sql, _, err := postingComments.selectLive().ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM posting_comments c JOIN members m ON m.id = c.member_id")
	assert.Contains(t, sql, "WHERE c.status = $1")
}

func TestListPostingsQuery_Pages(t *testing.T) {
	sql, _, err := listPostingsQuery(posting.ListOptions{Offset: 20, Limit: 10}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "ORDER BY p.created_at DESC, p.id DESC LIMIT 10 OFFSET 20")
}

func TestRollbackFailed_KeepsBothErrors(t *testing.T) {
	txErr := fmt.Errorf("insert tag: %w", shared.ErrNotOwner)
	rbErr := errors.New("conn busy")

	err := rollbackFailed(txErr, rbErr)

	assert.ErrorIs(t, err, shared.ErrNotOwner)
	assert.ErrorIs(t, err, rbErr)
	assert.Equal(t, "insert tag: "+shared.ErrNotOwner.Error()+" (rollback: conn busy)", err.Error())
}
