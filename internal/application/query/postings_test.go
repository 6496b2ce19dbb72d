package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hjun-park/backend/internal/domain/posting"
	"github.com/hjun-park/backend/internal/domain/shared"
)

func seedPostings(t *testing.T, f *fixture, author shared.ID, n int) []shared.ID {
	t.Helper()
	ids := make([]shared.ID, n)
	for i := range ids {
		id, err := f.postings.Create(context.Background(), &posting.Posting{MemberID: author, Title: "title", Content: "body"})
		require.NoError(t, err)
		ids[i] = id
	}
	return ids
}

func postingIDs(list []PostingDTO) []int64 {
	ids := make([]int64, len(list))
	for i, p := range list {
		ids[i] = p.ID
	}
	return ids
}

func TestPostings_ListPagesNewestFirst(t *testing.T) {
	f := newFixture()
	author := f.store.AddMember("lee", "")
	ids := seedPostings(t, f, author, 5)
	h := NewPostingsHandler(f.postings)

	first, err := h.List(context.Background(), ListPostingsQuery{Page: 0, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[4], ids[3]}, postingIDs(first))

	last, err := h.List(context.Background(), ListPostingsQuery{Page: 2, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[0]}, postingIDs(last))
	assert.Equal(t, "lee", last[0].Nickname)

	_, err = h.List(context.Background(), ListPostingsQuery{Page: -1})
	assert.ErrorIs(t, err, shared.ErrInvalidPage)
}

func TestListPostingsQuery_Validate(t *testing.T) {
	q := ListPostingsQuery{}
	require.NoError(t, q.Validate())
	assert.Equal(t, DefaultPageSize, q.Size)

	q = ListPostingsQuery{Size: 500}
	require.NoError(t, q.Validate())
	assert.Equal(t, MaxPageSize, q.Size)
}

func TestPostings_DetailAndChildren(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	author := f.store.AddMember("park", "https://img/park.png")
	id := seedPostings(t, f, author, 1)[0]

	_, err := f.postings.AddImage(ctx, id, "https://img/p1.png")
	require.NoError(t, err)
	_, err = f.postings.AddTag(ctx, id, "travel")
	require.NoError(t, err)
	_, err = f.postings.AddComment(ctx, &posting.Comment{PostingID: id, MemberID: author, Content: "first"})
	require.NoError(t, err)

	h := NewPostingsHandler(f.postings)

	detail, err := h.Detail(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "park", detail.Nickname)
	assert.Equal(t, "https://img/park.png", detail.ProfileImageURL)
	assert.Equal(t, []string{"https://img/p1.png"}, detail.ImageURLs)
	assert.Equal(t, []string{"travel"}, tagNames(detail.Tags))

	list, err := h.ByMember(ctx, author)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].CommentCount)

	comments, err := h.Comments(ctx, id)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "park", comments[0].Nickname)
}

func TestPostings_RecentUsesFirstImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	author := f.store.AddMember("choi", "")
	ids := seedPostings(t, f, author, RecentPostingsCount+2)

	newest := ids[len(ids)-1]
	_, err := f.postings.AddImage(ctx, newest, "https://img/first.png")
	require.NoError(t, err)
	_, err = f.postings.AddImage(ctx, newest, "https://img/second.png")
	require.NoError(t, err)

	recent, err := NewPostingsHandler(f.postings).Recent(ctx)

	require.NoError(t, err)
	require.Len(t, recent, RecentPostingsCount)
	assert.Equal(t, newest, recent[0].ID)
	assert.Equal(t, "https://img/first.png", recent[0].ImageURL)
	assert.Empty(t, recent[1].ImageURL)
}

func TestPostings_DeletedPostingIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	author := f.store.AddMember("jung", "")
	id := seedPostings(t, f, author, 1)[0]
	require.NoError(t, f.postings.MarkDeleted(ctx, id))

	h := NewPostingsHandler(f.postings)

	_, err := h.Detail(ctx, id)
	assert.ErrorIs(t, err, shared.ErrPostingNotFound)
	_, err = h.Tags(ctx, id)
	assert.ErrorIs(t, err, shared.ErrPostingNotFound)
}

func TestPlaceChildren_RequiresLivePlace(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := f.addPlace("Gallery", "a", 37.5, 127.0)
	tag, err := f.places.AddTag(ctx, id, "art")
	require.NoError(t, err)
	_, err = f.places.AddTag(ctx, id, "old")
	require.NoError(t, err)

	h := NewPlaceChildrenHandler(f.places)

	tags, err := h.Tags(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"art", "old"}, tagNames(tags))
	assert.Equal(t, tag.ID, tags[0].ID)

	require.NoError(t, f.places.MarkDeleted(ctx, id))
	_, err = h.Comments(ctx, id)
	assert.ErrorIs(t, err, shared.ErrPlaceNotFound)
}
