package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hjun-park/backend/internal/domain/place"
	"github.com/hjun-park/backend/internal/domain/shared"
	"github.com/hjun-park/backend/internal/infrastructure/persistence/memory"
)

type placeFixture struct {
	store   *memory.Store
	places  *memory.PlaceRepository
	handler *PlaceHandler
	owner   shared.ID
	other   shared.ID
	placeID shared.ID
}

func newPlaceFixture() *placeFixture {
	s := memory.NewStore()
	f := &placeFixture{store: s, places: memory.NewPlaceRepository(s)}
	f.owner = s.AddMember("owner", "")
	f.other = s.AddMember("other", "")
	f.placeID = s.AddPlace(place.Place{MemberID: f.owner, Name: "Cafe", Address: "Seoul", Latitude: 37.5, Longitude: 127.0})
	f.handler = NewPlaceHandler(f.places, nil, nil)
	return f
}

func (f *placeFixture) tagNames(t *testing.T) []string {
	t.Helper()
	tags, err := f.places.ListTags(context.Background(), f.placeID)
	require.NoError(t, err)
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	return names
}

func (f *placeFixture) imageURLs(t *testing.T) []string {
	t.Helper()
	images, err := f.places.ListImages(context.Background(), f.placeID)
	require.NoError(t, err)
	urls := make([]string, len(images))
	for i, img := range images {
		urls[i] = img.URL
	}
	return urls
}

func TestSyncPlaceMedia_ReconcilesTagsAndImages(t *testing.T) {
	ctx := context.Background()
	f := newPlaceFixture()
	_, err := f.handler.AddPlaceTags(ctx, AddPlaceTagsCommand{PlaceID: f.placeID, MemberID: f.owner, Names: []string{"a", "b"}})
	require.NoError(t, err)

	res, err := f.handler.SyncPlaceMedia(ctx, SyncPlaceMediaCommand{
		PlaceID:   f.placeID,
		MemberID:  f.owner,
		Tags:      []string{"b", "c", "c"},
		ImageURLs: []string{"https://img/1.png"},
	})

	require.NoError(t, err)
	assert.Equal(t, SyncResult{TagsAdded: 1, TagsRemoved: 1, ImagesAdded: 1}, res)
	assert.Equal(t, []string{"b", "c"}, f.tagNames(t))
	assert.Equal(t, []string{"https://img/1.png"}, f.imageURLs(t))

	again, err := f.handler.SyncPlaceMedia(ctx, SyncPlaceMediaCommand{
		PlaceID:   f.placeID,
		MemberID:  f.owner,
		Tags:      []string{"b", "c"},
		ImageURLs: []string{"https://img/1.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, SyncResult{}, again)
}

func TestSyncPlaceMedia_EmptyDesiredRemovesAll(t *testing.T) {
	ctx := context.Background()
	f := newPlaceFixture()
	_, err := f.handler.SyncPlaceMedia(ctx, SyncPlaceMediaCommand{PlaceID: f.placeID, MemberID: f.owner, Tags: []string{"x"}, ImageURLs: []string{"u"}})
	require.NoError(t, err)

	res, err := f.handler.SyncPlaceMedia(ctx, SyncPlaceMediaCommand{PlaceID: f.placeID, MemberID: f.owner})

	require.NoError(t, err)
	assert.Equal(t, SyncResult{TagsRemoved: 1, ImagesRemoved: 1}, res)
	assert.Empty(t, f.tagNames(t))
	assert.Empty(t, f.imageURLs(t))
}

func TestSyncPlaceMedia_MatchesLabelsExactly(t *testing.T) {
	ctx := context.Background()
	f := newPlaceFixture()
	_, err := f.handler.AddPlaceTags(ctx, AddPlaceTagsCommand{PlaceID: f.placeID, MemberID: f.owner, Names: []string{"a"}})
	require.NoError(t, err)

	res, err := f.handler.SyncPlaceMedia(ctx, SyncPlaceMediaCommand{
		PlaceID:  f.placeID,
		MemberID: f.owner,
		Tags:     []string{" a ", ""},
	})

	require.NoError(t, err)
	assert.Equal(t, SyncResult{TagsAdded: 2, TagsRemoved: 1}, res)
	assert.Equal(t, []string{" a ", ""}, f.tagNames(t))

	again, err := f.handler.SyncPlaceMedia(ctx, SyncPlaceMediaCommand{
		PlaceID:  f.placeID,
		MemberID: f.owner,
		Tags:     []string{" a ", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, SyncResult{}, again)
}

func TestSyncPlaceMedia_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	f := newPlaceFixture()

	_, err := f.handler.SyncPlaceMedia(ctx, SyncPlaceMediaCommand{PlaceID: f.placeID, MemberID: f.other, Tags: []string{"x"}})
	assert.True(t, shared.IsForbidden(err))

	_, err = f.handler.SyncPlaceMedia(ctx, SyncPlaceMediaCommand{PlaceID: f.placeID, Tags: []string{"x"}})
	assert.True(t, shared.IsUnauthorized(err))

	_, err = f.handler.SyncPlaceMedia(ctx, SyncPlaceMediaCommand{PlaceID: 9999, MemberID: f.owner})
	assert.ErrorIs(t, err, shared.ErrPlaceNotFound)

	assert.Empty(t, f.tagNames(t))
}

func TestPlaceTags_MustBelongToPlace(t *testing.T) {
	ctx := context.Background()
	f := newPlaceFixture()
	otherPlace := f.store.AddPlace(place.Place{Name: "Elsewhere", Latitude: 1, Longitude: 1})
	foreign, err := f.places.AddTag(ctx, otherPlace, "foreign")
	require.NoError(t, err)

	err = f.handler.EditPlaceTag(ctx, EditPlaceTagCommand{PlaceID: f.placeID, TagID: foreign.ID, MemberID: f.owner, Name: "mine"})
	assert.ErrorIs(t, err, shared.ErrPlaceTagNotFound)

	err = f.handler.DeletePlaceTag(ctx, DeletePlaceTagCommand{PlaceID: f.placeID, TagID: foreign.ID, MemberID: f.owner})
	assert.ErrorIs(t, err, shared.ErrPlaceTagNotFound)

	added, err := f.handler.AddPlaceTags(ctx, AddPlaceTagsCommand{PlaceID: f.placeID, MemberID: f.owner, Names: []string{" cozy ", ""}})
	require.NoError(t, err)
	require.Len(t, added, 1)

	require.NoError(t, f.handler.EditPlaceTag(ctx, EditPlaceTagCommand{PlaceID: f.placeID, TagID: added[0].ID, MemberID: f.owner, Name: "warm"}))
	assert.Equal(t, []string{"warm"}, f.tagNames(t))

	require.NoError(t, f.handler.DeletePlaceTag(ctx, DeletePlaceTagCommand{PlaceID: f.placeID, TagID: added[0].ID, MemberID: f.owner}))
	assert.Empty(t, f.tagNames(t))
}

func TestDeletePlace(t *testing.T) {
	ctx := context.Background()
	f := newPlaceFixture()

	err := f.handler.DeletePlace(ctx, DeletePlaceCommand{PlaceID: f.placeID, MemberID: f.other})
	assert.ErrorIs(t, err, shared.ErrNotOwner)

	require.NoError(t, f.handler.DeletePlace(ctx, DeletePlaceCommand{PlaceID: f.placeID, MemberID: f.owner}))

	_, err = f.places.GetByID(ctx, f.placeID)
	assert.ErrorIs(t, err, shared.ErrPlaceNotFound)

	err = f.handler.DeletePlace(ctx, DeletePlaceCommand{PlaceID: f.placeID, MemberID: f.owner})
	assert.ErrorIs(t, err, shared.ErrPlaceNotFound)
}

func TestSavePoint(t *testing.T) {
	ctx := context.Background()
	f := newPlaceFixture()

	err := f.handler.SavePoint(ctx, SavePointCommand{PlaceID: f.placeID, MemberID: f.owner, Latitude: 91})
	assert.ErrorIs(t, err, shared.ErrInvalidCoordinate)

	require.NoError(t, f.handler.SavePoint(ctx, SavePointCommand{PlaceID: f.placeID, MemberID: f.owner, Latitude: 35.1, Longitude: 129.0}))

	p, err := f.places.GetByID(ctx, f.placeID)
	require.NoError(t, err)
	assert.Equal(t, 35.1, p.Latitude)
	assert.Equal(t, 129.0, p.Longitude)
}

func TestPlaceComments_AuthorOnly(t *testing.T) {
	ctx := context.Background()
	f := newPlaceFixture()

	id, err := f.handler.AddPlaceComment(ctx, AddPlaceCommentCommand{PlaceID: f.placeID, MemberID: f.other, Content: "tasty"})
	require.NoError(t, err)

	err = f.handler.EditPlaceComment(ctx, EditPlaceCommentCommand{PlaceID: f.placeID, CommentID: id, MemberID: f.owner, Content: "hacked"})
	assert.ErrorIs(t, err, shared.ErrNotOwner)

	require.NoError(t, f.handler.EditPlaceComment(ctx, EditPlaceCommentCommand{PlaceID: f.placeID, CommentID: id, MemberID: f.other, Content: "very tasty"}))
	c, err := f.places.GetComment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "very tasty", c.Content)

	otherPlace := f.store.AddPlace(place.Place{Name: "Elsewhere"})
	err = f.handler.DeletePlaceComment(ctx, DeletePlaceCommentCommand{PlaceID: otherPlace, CommentID: id, MemberID: f.other})
	assert.ErrorIs(t, err, shared.ErrPlaceCommentNotFound)

	require.NoError(t, f.handler.DeletePlaceComment(ctx, DeletePlaceCommentCommand{PlaceID: f.placeID, CommentID: id, MemberID: f.other}))
	count, err := f.places.CountComments(ctx, f.placeID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = f.handler.AddPlaceComment(ctx, AddPlaceCommentCommand{PlaceID: f.placeID, MemberID: f.other, Content: "  "})
	assert.True(t, shared.IsValidation(err))
}
