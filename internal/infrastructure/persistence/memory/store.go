package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hjun-park/backend/internal/domain/place"
	"github.com/hjun-park/backend/internal/domain/posting"
	"github.com/hjun-park/backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// Relational data kept in maps. Rows are never removed, only flipped to
// DELETED, and every read skips them, matching the PostgreSQL repositories.
// ══════════════════════════════════════════════════════════════════════════════

type member struct {
	nickname string
	imageURL string
}

type bookmark struct {
	memberID shared.ID
	placeID  shared.ID
}

// Store holds places, postings, members and bookmarks.
type Store struct {
	mu  sync.RWMutex
	seq shared.ID
	now func() time.Time

	members   map[shared.ID]member
	bookmarks []bookmark

	places        map[shared.ID]*place.Place
	placeTags     map[shared.ID]*place.Tag
	placeImages   map[shared.ID]*place.Image
	placeComments map[shared.ID]*place.Comment

	postings        map[shared.ID]*posting.Posting
	postingTags     map[shared.ID]*posting.Tag
	postingImages   map[shared.ID]*posting.Image
	postingComments map[shared.ID]*posting.Comment
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		now:             time.Now,
		members:         make(map[shared.ID]member),
		places:          make(map[shared.ID]*place.Place),
		placeTags:       make(map[shared.ID]*place.Tag),
		placeImages:     make(map[shared.ID]*place.Image),
		placeComments:   make(map[shared.ID]*place.Comment),
		postings:        make(map[shared.ID]*posting.Posting),
		postingTags:     make(map[shared.ID]*posting.Tag),
		postingImages:   make(map[shared.ID]*posting.Image),
		postingComments: make(map[shared.ID]*posting.Comment),
	}
}

// nextID must be called with mu held.
func (s *Store) nextID() shared.ID {
	s.seq++
	return s.seq
}

// AddMember registers a member and returns its id.
func (s *Store) AddMember(nickname, imageURL string) shared.ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID()
	s.members[id] = member{nickname: nickname, imageURL: imageURL}
	return id
}

// AddPlace stores a USED place and returns its id.
func (s *Store) AddPlace(p place.Place) shared.ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextID()
	p.Status = shared.StatusUsed
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.places[p.ID] = &p
	return p.ID
}

// AddBookmark records that memberID bookmarked placeID.
func (s *Store) AddBookmark(memberID, placeID shared.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookmarks = append(s.bookmarks, bookmark{memberID: memberID, placeID: placeID})
}

func sortedByID[T any](items []T, id func(T) shared.ID) []T {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
	return items
}

// ══════════════════════════════════════════════════════════════════════════════
// PLACE REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// PlaceRepository implements place.Repository on a Store.
type PlaceRepository struct {
	s *Store
}

// NewPlaceRepository creates a place repository over s.
func NewPlaceRepository(s *Store) *PlaceRepository {
	return &PlaceRepository{s: s}
}

var _ place.Repository = (*PlaceRepository)(nil)

func (r *PlaceRepository) livePlace(id shared.ID) (*place.Place, bool) {
	p, ok := r.s.places[id]
	if !ok || !p.Status.IsLive() {
		return nil, false
	}
	return p, true
}

func (r *PlaceRepository) GetByID(ctx context.Context, id shared.ID) (*place.Place, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.livePlace(id)
	if !ok {
		return nil, shared.ErrPlaceNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *PlaceRepository) GetByIDForUpdate(ctx context.Context, id shared.ID) (*place.Place, error) {
	return r.GetByID(ctx, id)
}

func (r *PlaceRepository) filter(match func(*place.Place) bool) []*place.Place {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*place.Place, 0)
	for _, p := range r.s.places {
		if p.Status.IsLive() && match(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return sortedByID(out, func(p *place.Place) shared.ID { return p.ID })
}

func (r *PlaceRepository) SearchByNameOrAddress(ctx context.Context, query string) ([]*place.Place, error) {
	return r.filter(func(p *place.Place) bool { return p.Matches(query) }), nil
}

func (r *PlaceRepository) FindInBox(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]*place.Place, error) {
	return r.filter(func(p *place.Place) bool {
		return p.Latitude >= minLat && p.Latitude <= maxLat && p.Longitude >= minLng && p.Longitude <= maxLng
	}), nil
}

func (r *PlaceRepository) ExistingIDs(ctx context.Context, ids []shared.ID) (map[shared.ID]struct{}, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	found := make(map[shared.ID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := r.livePlace(id); ok {
			found[id] = struct{}{}
		}
	}
	return found, nil
}

func (r *PlaceRepository) MarkDeleted(ctx context.Context, id shared.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.livePlace(id)
	if !ok {
		return shared.ErrPlaceNotFound
	}
	p.Status = shared.StatusDeleted
	p.UpdatedAt = r.s.now()
	return nil
}

func (r *PlaceRepository) UpdatePoint(ctx context.Context, id shared.ID, lat, lng float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.livePlace(id)
	if !ok {
		return shared.ErrPlaceNotFound
	}
	p.Latitude, p.Longitude = lat, lng
	p.UpdatedAt = r.s.now()
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Tags
// ─────────────────────────────────────────────────────────────────────────────

func (r *PlaceRepository) ListTags(ctx context.Context, placeID shared.ID) ([]place.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]place.Tag, 0)
	for _, t := range r.s.placeTags {
		if t.PlaceID == placeID && t.Status.IsLive() {
			out = append(out, *t)
		}
	}
	return sortedByID(out, func(t place.Tag) shared.ID { return t.ID }), nil
}

func (r *PlaceRepository) GetTag(ctx context.Context, tagID shared.ID) (*place.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.placeTags[tagID]
	if !ok || !t.Status.IsLive() {
		return nil, shared.ErrPlaceTagNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *PlaceRepository) AddTag(ctx context.Context, placeID shared.ID, name string) (place.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t := place.Tag{ID: r.s.nextID(), PlaceID: placeID, Name: name, Status: shared.StatusUsed}
	r.s.placeTags[t.ID] = &t
	return t, nil
}

func (r *PlaceRepository) RenameTag(ctx context.Context, tagID shared.ID, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.placeTags[tagID]
	if !ok || !t.Status.IsLive() {
		return shared.ErrPlaceTagNotFound
	}
	t.Name = name
	return nil
}

func (r *PlaceRepository) DeleteTag(ctx context.Context, tagID shared.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.placeTags[tagID]
	if !ok || !t.Status.IsLive() {
		return shared.ErrPlaceTagNotFound
	}
	t.Status = shared.StatusDeleted
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Images
// ─────────────────────────────────────────────────────────────────────────────

func (r *PlaceRepository) ListImages(ctx context.Context, placeID shared.ID) ([]place.Image, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]place.Image, 0)
	for _, i := range r.s.placeImages {
		if i.PlaceID == placeID && i.Status.IsLive() {
			out = append(out, *i)
		}
	}
	return sortedByID(out, func(i place.Image) shared.ID { return i.ID }), nil
}

func (r *PlaceRepository) AddImage(ctx context.Context, placeID shared.ID, url string) (place.Image, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := place.Image{ID: r.s.nextID(), PlaceID: placeID, URL: url, Status: shared.StatusUsed}
	r.s.placeImages[i.ID] = &i
	return i, nil
}

func (r *PlaceRepository) DeleteImage(ctx context.Context, imageID shared.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i, ok := r.s.placeImages[imageID]
	if !ok || !i.Status.IsLive() {
		return shared.ErrNotFound
	}
	i.Status = shared.StatusDeleted
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Comments
// ─────────────────────────────────────────────────────────────────────────────

func (r *PlaceRepository) withNickname(c place.Comment) place.Comment {
	c.Nickname = r.s.members[c.MemberID].nickname
	return c
}

func (r *PlaceRepository) ListComments(ctx context.Context, placeID shared.ID) ([]place.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]place.Comment, 0)
	for _, c := range r.s.placeComments {
		if c.PlaceID == placeID && c.Status.IsLive() {
			out = append(out, r.withNickname(*c))
		}
	}
	return sortedByID(out, func(c place.Comment) shared.ID { return c.ID }), nil
}

func (r *PlaceRepository) CountComments(ctx context.Context, placeID shared.ID) (int64, error) {
	comments, err := r.ListComments(ctx, placeID)
	return int64(len(comments)), err
}

func (r *PlaceRepository) GetComment(ctx context.Context, commentID shared.ID) (*place.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.placeComments[commentID]
	if !ok || !c.Status.IsLive() {
		return nil, shared.ErrPlaceCommentNotFound
	}
	cp := r.withNickname(*c)
	return &cp, nil
}

func (r *PlaceRepository) AddComment(ctx context.Context, c *place.Comment) (shared.ID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *c
	cp.ID = r.s.nextID()
	cp.Status = shared.StatusUsed
	cp.CreatedAt = r.s.now()
	cp.UpdatedAt = cp.CreatedAt
	r.s.placeComments[cp.ID] = &cp
	return cp.ID, nil
}

func (r *PlaceRepository) UpdateComment(ctx context.Context, commentID shared.ID, content string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.placeComments[commentID]
	if !ok || !c.Status.IsLive() {
		return shared.ErrPlaceCommentNotFound
	}
	c.Content = content
	c.UpdatedAt = r.s.now()
	return nil
}

func (r *PlaceRepository) DeleteComment(ctx context.Context, commentID shared.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.placeComments[commentID]
	if !ok || !c.Status.IsLive() {
		return shared.ErrPlaceCommentNotFound
	}
	c.Status = shared.StatusDeleted
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// BOOKMARK REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// BookmarkRepository implements place.BookmarkRepository on a Store.
type BookmarkRepository struct {
	s *Store
}

// NewBookmarkRepository creates a bookmark repository over s.
func NewBookmarkRepository(s *Store) *BookmarkRepository {
	return &BookmarkRepository{s: s}
}

func (r *BookmarkRepository) Bookmarks(ctx context.Context, memberID shared.ID) (place.Bookmarks, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	set := make(place.Bookmarks)
	for _, b := range r.s.bookmarks {
		if b.memberID != memberID {
			continue
		}
		if p, ok := r.s.places[b.placeID]; ok && p.Status.IsLive() {
			set[b.placeID] = struct{}{}
		}
	}
	return set, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// POSTING REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// PostingRepository implements posting.Repository on a Store.
type PostingRepository struct {
	s *Store
}

// NewPostingRepository creates a posting repository over s.
func NewPostingRepository(s *Store) *PostingRepository {
	return &PostingRepository{s: s}
}

var _ posting.Repository = (*PostingRepository)(nil)

func (r *PostingRepository) livePosting(id shared.ID) (*posting.Posting, bool) {
	p, ok := r.s.postings[id]
	if !ok || !p.Status.IsLive() {
		return nil, false
	}
	return p, true
}

func (r *PostingRepository) withAuthor(p posting.Posting) *posting.Posting {
	m := r.s.members[p.MemberID]
	p.Nickname = m.nickname
	p.ProfileImageURL = m.imageURL
	return &p
}

func (r *PostingRepository) Create(ctx context.Context, p *posting.Posting) (shared.ID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.members[p.MemberID]; !ok {
		return 0, shared.NewDomainError("posting", "Create", shared.ErrInvalidInput, "unknown member")
	}
	cp := *p
	cp.ID = r.s.nextID()
	cp.Status = shared.StatusUsed
	cp.CreatedAt = r.s.now()
	cp.UpdatedAt = cp.CreatedAt
	r.s.postings[cp.ID] = &cp
	return cp.ID, nil
}

func (r *PostingRepository) GetByID(ctx context.Context, id shared.ID) (*posting.Posting, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.livePosting(id)
	if !ok {
		return nil, shared.ErrPostingNotFound
	}
	return r.withAuthor(*p), nil
}

func (r *PostingRepository) GetByIDForUpdate(ctx context.Context, id shared.ID) (*posting.Posting, error) {
	return r.GetByID(ctx, id)
}

func (r *PostingRepository) newestFirst(match func(*posting.Posting) bool) []*posting.Posting {
	out := make([]*posting.Posting, 0)
	for _, p := range r.s.postings {
		if p.Status.IsLive() && match(p) {
			out = append(out, r.withAuthor(*p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *PostingRepository) List(ctx context.Context, opts posting.ListOptions) ([]*posting.Posting, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := r.newestFirst(func(*posting.Posting) bool { return true })
	if opts.Offset >= len(all) {
		return []*posting.Posting{}, nil
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && len(all) > opts.Limit {
		all = all[:opts.Limit]
	}
	return all, nil
}

func (r *PostingRepository) ListByMember(ctx context.Context, memberID shared.ID) ([]*posting.Posting, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.newestFirst(func(p *posting.Posting) bool { return p.MemberID == memberID }), nil
}

func (r *PostingRepository) UpdateContent(ctx context.Context, id shared.ID, content string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.livePosting(id)
	if !ok {
		return shared.ErrPostingNotFound
	}
	p.Content = content
	p.UpdatedAt = r.s.now()
	return nil
}

func (r *PostingRepository) MarkDeleted(ctx context.Context, id shared.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.livePosting(id)
	if !ok {
		return shared.ErrPostingNotFound
	}
	p.Status = shared.StatusDeleted
	p.UpdatedAt = r.s.now()
	return nil
}

func (r *PostingRepository) ListTags(ctx context.Context, postingID shared.ID) ([]posting.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]posting.Tag, 0)
	for _, t := range r.s.postingTags {
		if t.PostingID == postingID && t.Status.IsLive() {
			out = append(out, *t)
		}
	}
	return sortedByID(out, func(t posting.Tag) shared.ID { return t.ID }), nil
}

func (r *PostingRepository) GetTag(ctx context.Context, tagID shared.ID) (*posting.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.postingTags[tagID]
	if !ok || !t.Status.IsLive() {
		return nil, shared.ErrPostingTagNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *PostingRepository) AddTag(ctx context.Context, postingID shared.ID, name string) (posting.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t := posting.Tag{ID: r.s.nextID(), PostingID: postingID, Name: name, Status: shared.StatusUsed}
	r.s.postingTags[t.ID] = &t
	return t, nil
}

func (r *PostingRepository) RenameTag(ctx context.Context, tagID shared.ID, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.postingTags[tagID]
	if !ok || !t.Status.IsLive() {
		return shared.ErrPostingTagNotFound
	}
	t.Name = name
	return nil
}

func (r *PostingRepository) DeleteTag(ctx context.Context, tagID shared.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.postingTags[tagID]
	if !ok || !t.Status.IsLive() {
		return shared.ErrPostingTagNotFound
	}
	t.Status = shared.StatusDeleted
	return nil
}

func (r *PostingRepository) ListImages(ctx context.Context, postingID shared.ID) ([]posting.Image, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]posting.Image, 0)
	for _, i := range r.s.postingImages {
		if i.PostingID == postingID && i.Status.IsLive() {
			out = append(out, *i)
		}
	}
	return sortedByID(out, func(i posting.Image) shared.ID { return i.ID }), nil
}

func (r *PostingRepository) AddImage(ctx context.Context, postingID shared.ID, url string) (posting.Image, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := posting.Image{ID: r.s.nextID(), PostingID: postingID, URL: url, Status: shared.StatusUsed}
	r.s.postingImages[i.ID] = &i
	return i, nil
}

func (r *PostingRepository) DeleteImage(ctx context.Context, imageID shared.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i, ok := r.s.postingImages[imageID]
	if !ok || !i.Status.IsLive() {
		return shared.ErrNotFound
	}
	i.Status = shared.StatusDeleted
	return nil
}

func (r *PostingRepository) withNickname(c posting.Comment) posting.Comment {
	c.Nickname = r.s.members[c.MemberID].nickname
	return c
}

func (r *PostingRepository) ListComments(ctx context.Context, postingID shared.ID) ([]posting.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]posting.Comment, 0)
	for _, c := range r.s.postingComments {
		if c.PostingID == postingID && c.Status.IsLive() {
			out = append(out, r.withNickname(*c))
		}
	}
	return sortedByID(out, func(c posting.Comment) shared.ID { return c.ID }), nil
}

func (r *PostingRepository) CountComments(ctx context.Context, postingID shared.ID) (int64, error) {
	comments, err := r.ListComments(ctx, postingID)
	return int64(len(comments)), err
}

func (r *PostingRepository) GetComment(ctx context.Context, commentID shared.ID) (*posting.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.postingComments[commentID]
	if !ok || !c.Status.IsLive() {
		return nil, shared.ErrPostingCommentNotFound
	}
	cp := r.withNickname(*c)
	return &cp, nil
}

func (r *PostingRepository) AddComment(ctx context.Context, c *posting.Comment) (shared.ID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *c
	cp.ID = r.s.nextID()
	cp.Status = shared.StatusUsed
	cp.CreatedAt = r.s.now()
	cp.UpdatedAt = cp.CreatedAt
	r.s.postingComments[cp.ID] = &cp
	return cp.ID, nil
}

func (r *PostingRepository) UpdateComment(ctx context.Context, commentID shared.ID, content string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.postingComments[commentID]
	if !ok || !c.Status.IsLive() {
		return shared.ErrPostingCommentNotFound
	}
	c.Content = content
	c.UpdatedAt = r.s.now()
	return nil
}

func (r *PostingRepository) DeleteComment(ctx context.Context, commentID shared.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.postingComments[commentID]
	if !ok || !c.Status.IsLive() {
		return shared.ErrPostingCommentNotFound
	}
	c.Status = shared.StatusDeleted
	return nil
}
