package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/hjun-park/backend/internal/domain/place"
	"github.com/hjun-park/backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PLACE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// PlaceRepository implements place.Repository for PostgreSQL.
type PlaceRepository struct {
	conn *Connection
}

// NewPlaceRepository creates a new PlaceRepository.
func NewPlaceRepository(conn *Connection) *PlaceRepository {
	return &PlaceRepository{conn: conn}
}

var _ place.Repository = (*PlaceRepository)(nil)

func selectPlaces() sq.SelectBuilder {
	return live(psql.Select(
		"p.id", "COALESCE(p.member_id, 0)", "p.name", "p.address", "p.phone_number",
		"p.latitude", "p.longitude", "p.status", "p.created_at", "p.updated_at",
	).From("places p"), "p")
}

func searchPlacesQuery(query string) sq.SelectBuilder {
	return selectPlaces().Where(containsEither(query, "p.name", "p.address")).OrderBy("p.id")
}

func placesInBoxQuery(minLat, maxLat, minLng, maxLng float64) sq.SelectBuilder {
	return selectPlaces().
		Where(sq.Expr("p.latitude BETWEEN ? AND ?", minLat, maxLat)).
		Where(sq.Expr("p.longitude BETWEEN ? AND ?", minLng, maxLng)).
		OrderBy("p.id")
}

func scanPlace(row pgx.CollectableRow) (*place.Place, error) {
	p := &place.Place{}
	var status string
	err := row.Scan(&p.ID, &p.MemberID, &p.Name, &p.Address, &p.PhoneNumber,
		&p.Latitude, &p.Longitude, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = shared.Status(status)
	return p, nil
}

func (r *PlaceRepository) listPlaces(ctx context.Context, b sq.SelectBuilder) ([]*place.Place, error) {
	rows, err := r.conn.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to query places: %w", err)
	}
	places, err := pgx.CollectRows(rows, scanPlace)
	if err != nil {
		return nil, fmt.Errorf("failed to scan places: %w", err)
	}
	return places, nil
}

func (r *PlaceRepository) getOne(ctx context.Context, b sq.SelectBuilder) (*place.Place, error) {
	rows, err := r.conn.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to get place: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPlace)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrPlaceNotFound
		}
		return nil, fmt.Errorf("failed to scan place: %w", err)
	}
	return p, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Places
// ─────────────────────────────────────────────────────────────────────────────

// GetByID returns a live place.
func (r *PlaceRepository) GetByID(ctx context.Context, id shared.ID) (*place.Place, error) {
	return r.getOne(ctx, selectPlaces().Where(sq.Eq{"p.id": id}))
}

// GetByIDForUpdate returns a live place and locks its row.
func (r *PlaceRepository) GetByIDForUpdate(ctx context.Context, id shared.ID) (*place.Place, error) {
	return r.getOne(ctx, selectPlaces().Where(sq.Eq{"p.id": id}).Suffix("FOR UPDATE OF p"))
}

// SearchByNameOrAddress returns live places whose name or address contains query.
func (r *PlaceRepository) SearchByNameOrAddress(ctx context.Context, query string) ([]*place.Place, error) {
	return r.listPlaces(ctx, searchPlacesQuery(query))
}

// FindInBox returns live places inside the coordinate window.
func (r *PlaceRepository) FindInBox(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]*place.Place, error) {
	return r.listPlaces(ctx, placesInBoxQuery(minLat, maxLat, minLng, maxLng))
}

// ExistingIDs returns the ids that still belong to live places.
func (r *PlaceRepository) ExistingIDs(ctx context.Context, ids []shared.ID) (map[shared.ID]struct{}, error) {
	found := make(map[shared.ID]struct{}, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	rows, err := r.conn.query(ctx, live(psql.Select("id").From("places"), "").Where(sq.Eq{"id": ids}))
	if err != nil {
		return nil, fmt.Errorf("failed to query place ids: %w", err)
	}
	existing, err := pgx.CollectRows(rows, pgx.RowTo[shared.ID])
	if err != nil {
		return nil, fmt.Errorf("failed to scan place ids: %w", err)
	}
	for _, id := range existing {
		found[id] = struct{}{}
	}
	return found, nil
}

// MarkDeleted logically deletes a place.
func (r *PlaceRepository) MarkDeleted(ctx context.Context, id shared.ID) error {
	n, err := r.conn.exec(ctx, markDeleted("places", sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("failed to delete place: %w", err)
	}
	if n == 0 {
		return shared.ErrPlaceNotFound
	}
	return nil
}

// UpdatePoint stores a new coordinate for a live place.
func (r *PlaceRepository) UpdatePoint(ctx context.Context, id shared.ID, lat, lng float64) error {
	b := liveUpdate(psql.Update("places").
		Set("latitude", lat).
		Set("longitude", lng).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}))

	n, err := r.conn.exec(ctx, b)
	if err != nil {
		return fmt.Errorf("failed to update place point: %w", err)
	}
	if n == 0 {
		return shared.ErrPlaceNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Tags
// ─────────────────────────────────────────────────────────────────────────────

func toPlaceTag(c childRow) place.Tag {
	return place.Tag{ID: c.ID, PlaceID: c.OwnerID, Name: c.Value, Status: c.Status}
}

// ListTags returns the live tags of a place in insertion order.
func (r *PlaceRepository) ListTags(ctx context.Context, placeID shared.ID) ([]place.Tag, error) {
	rows, err := placeTags.list(ctx, r.conn, placeID)
	if err != nil {
		return nil, err
	}
	tags := make([]place.Tag, len(rows))
	for i, row := range rows {
		tags[i] = toPlaceTag(row)
	}
	return tags, nil
}

// GetTag returns a live tag.
func (r *PlaceRepository) GetTag(ctx context.Context, tagID shared.ID) (*place.Tag, error) {
	row, err := placeTags.get(ctx, r.conn, tagID)
	if err != nil {
		return nil, err
	}
	t := toPlaceTag(row)
	return &t, nil
}

// AddTag inserts a USED tag.
func (r *PlaceRepository) AddTag(ctx context.Context, placeID shared.ID, name string) (place.Tag, error) {
	row, err := placeTags.insert(ctx, r.conn, placeID, name)
	if err != nil {
		return place.Tag{}, err
	}
	return toPlaceTag(row), nil
}

// RenameTag changes a live tag's name.
func (r *PlaceRepository) RenameTag(ctx context.Context, tagID shared.ID, name string) error {
	return placeTags.update(ctx, r.conn, tagID, name)
}

// DeleteTag logically deletes a tag.
func (r *PlaceRepository) DeleteTag(ctx context.Context, tagID shared.ID) error {
	return placeTags.remove(ctx, r.conn, tagID)
}

// ─────────────────────────────────────────────────────────────────────────────
// Images
// ─────────────────────────────────────────────────────────────────────────────

func toPlaceImage(c childRow) place.Image {
	return place.Image{ID: c.ID, PlaceID: c.OwnerID, URL: c.Value, Status: c.Status}
}

// ListImages returns the live images of a place in insertion order.
func (r *PlaceRepository) ListImages(ctx context.Context, placeID shared.ID) ([]place.Image, error) {
	rows, err := placeImages.list(ctx, r.conn, placeID)
	if err != nil {
		return nil, err
	}
	images := make([]place.Image, len(rows))
	for i, row := range rows {
		images[i] = toPlaceImage(row)
	}
	return images, nil
}

// AddImage inserts a USED image.
func (r *PlaceRepository) AddImage(ctx context.Context, placeID shared.ID, url string) (place.Image, error) {
	row, err := placeImages.insert(ctx, r.conn, placeID, url)
	if err != nil {
		return place.Image{}, err
	}
	return toPlaceImage(row), nil
}

// DeleteImage logically deletes an image.
func (r *PlaceRepository) DeleteImage(ctx context.Context, imageID shared.ID) error {
	return placeImages.remove(ctx, r.conn, imageID)
}

// ─────────────────────────────────────────────────────────────────────────────
// Comments
// ─────────────────────────────────────────────────────────────────────────────

func toPlaceComment(c commentRow) place.Comment {
	return place.Comment{
		ID:         c.ID,
		PlaceID:    c.OwnerID,
		MemberID:   c.MemberID,
		Nickname:   c.Nickname,
		Content:    c.Content,
		Status:     c.Status,
		Timestamps: c.Timestamp,
	}
}

// ListComments returns live comments with the author's nickname.
func (r *PlaceRepository) ListComments(ctx context.Context, placeID shared.ID) ([]place.Comment, error) {
	rows, err := placeComments.list(ctx, r.conn, placeID)
	if err != nil {
		return nil, err
	}
	comments := make([]place.Comment, len(rows))
	for i, row := range rows {
		comments[i] = toPlaceComment(row)
	}
	return comments, nil
}

// CountComments returns the number of live comments (the review count).
func (r *PlaceRepository) CountComments(ctx context.Context, placeID shared.ID) (int64, error) {
	return placeComments.count(ctx, r.conn, placeID)
}

// GetComment returns a live comment.
func (r *PlaceRepository) GetComment(ctx context.Context, commentID shared.ID) (*place.Comment, error) {
	row, err := placeComments.get(ctx, r.conn, commentID)
	if err != nil {
		return nil, err
	}
	c := toPlaceComment(row)
	return &c, nil
}

// AddComment inserts a USED comment and returns its id.
func (r *PlaceRepository) AddComment(ctx context.Context, c *place.Comment) (shared.ID, error) {
	return placeComments.insert(ctx, r.conn, c.PlaceID, c.MemberID, c.Content)
}

// UpdateComment replaces a live comment's content.
func (r *PlaceRepository) UpdateComment(ctx context.Context, commentID shared.ID, content string) error {
	return placeComments.update(ctx, r.conn, commentID, content)
}

// DeleteComment logically deletes a comment.
func (r *PlaceRepository) DeleteComment(ctx context.Context, commentID shared.ID) error {
	return placeComments.remove(ctx, r.conn, commentID)
}

// ══════════════════════════════════════════════════════════════════════════════
// BOOKMARK REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// BookmarkRepository implements place.BookmarkRepository for PostgreSQL.
type BookmarkRepository struct {
	conn *Connection
}

// NewBookmarkRepository creates a new BookmarkRepository.
func NewBookmarkRepository(conn *Connection) *BookmarkRepository {
	return &BookmarkRepository{conn: conn}
}

func bookmarksQuery(memberID shared.ID) sq.SelectBuilder {
	b := psql.Select("b.place_id").From("bookmarks b").Join("places p ON p.id = b.place_id")
	return live(live(b, "b"), "p").Where(sq.Eq{"b.member_id": memberID})
}

// Bookmarks returns the live places bookmarked by memberID.
func (r *BookmarkRepository) Bookmarks(ctx context.Context, memberID shared.ID) (place.Bookmarks, error) {
	rows, err := r.conn.query(ctx, bookmarksQuery(memberID))
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[shared.ID])
	if err != nil {
		return nil, fmt.Errorf("failed to scan bookmarks: %w", err)
	}

	set := make(place.Bookmarks, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
