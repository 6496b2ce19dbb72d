package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hjun-park/backend/internal/application/command"
	"github.com/hjun-park/backend/internal/application/query"
	"github.com/hjun-park/backend/internal/domain/place"
	"github.com/hjun-park/backend/internal/domain/popularity"
	"github.com/hjun-park/backend/internal/domain/shared"
	"github.com/hjun-park/backend/internal/infrastructure/metrics"
	"github.com/hjun-park/backend/internal/infrastructure/persistence/memory"
	"github.com/hjun-park/backend/pkg/logger"
)

const testSecret = "test-secret"

type testServer struct {
	store    *memory.Store
	places   *memory.PlaceRepository
	counter  *memory.PopularityCounter
	recorder *command.ViewRecorder
	auth     *Authenticator
	handler  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	places := memory.NewPlaceRepository(store)
	bookmarks := memory.NewBookmarkRepository(store)
	postings := memory.NewPostingRepository(store)
	counter := memory.NewPopularityCounter()
	recorder := command.NewViewRecorder(counter, command.ViewRecorderConfig{Timeout: time.Second}, nil, nil)

	reg := prometheus.NewRegistry()
	m := metrics.New()
	require.NoError(t, m.Register(reg))

	auth := NewAuthenticator(testSecret, "places-api")

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0

	srv := NewServer(cfg, Dependencies{
		SearchPlaces:    query.NewSearchPlacesHandler(places, bookmarks, counter, nil, m, 0),
		TopPlaces:       query.NewGetTopPlacesHandler(places, counter, nil, m),
		NearbyPlaces:    query.NewNearbyPlacesHandler(places, 100),
		PlaceDetail:     query.NewGetPlaceDetailHandler(places, recorder),
		PlaceChildren:   query.NewPlaceChildrenHandler(places),
		Postings:        query.NewPostingsHandler(postings),
		PlaceCommands:   command.NewPlaceHandler(places, nil, nil),
		PostingCommands: command.NewPostingHandler(postings, nil, nil),
		Auth:            auth,
		Metrics:         m,
		Gatherer:        reg,
		Logger:          logger.Nop(),
	})

	return &testServer{
		store:    store,
		places:   places,
		counter:  counter,
		recorder: recorder,
		auth:     auth,
		handler:  srv.Handler(),
	}
}

func (ts *testServer) token(t *testing.T, memberID shared.ID) string {
	t.Helper()
	tok, err := ts.auth.IssueToken(memberID, time.Hour)
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *APIError       `json:"error"`
	RequestID string          `json:"request_id"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

// ══════════════════════════════════════════════════════════════════════════════
// PLACES
// ══════════════════════════════════════════════════════════════════════════════

func TestSearchPlaces_RanksByDistanceAndPopularity(t *testing.T) {
	ts := newTestServer(t)
	far := ts.store.AddPlace(place.Place{Name: "Cafe Busan", Address: "Busan", Latitude: 35.1796, Longitude: 129.0756})
	near := ts.store.AddPlace(place.Place{Name: "Cafe Seoul", Address: "Seoul", Latitude: 37.5665, Longitude: 126.9780})
	ts.counter.Set(popularity.ViewsNamespace, fmt.Sprint(far), 9)
	ts.counter.Set(popularity.ViewsNamespace, fmt.Sprint(near), 2)

	var byDistance []query.PlaceSearchResultDTO
	rec := ts.do(t, http.MethodGet, "/api/v1/places/search?query=Cafe&lat=37.56&lng=126.97", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec, &byDistance)
	assert.True(t, env.Success)
	require.Len(t, byDistance, 2)
	assert.Equal(t, []int64{near, far}, []int64{byDistance[0].ID, byDistance[1].ID})

	var byViews []query.PlaceSearchResultDTO
	rec = ts.do(t, http.MethodGet, "/api/v1/places/search?query=Cafe&lat=37.56&lng=126.97&sort=POPULARITY", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeEnvelope(t, rec, &byViews)
	require.Len(t, byViews, 2)
	assert.Equal(t, []int64{far, near}, []int64{byViews[0].ID, byViews[1].ID})
	assert.Equal(t, int64(9), byViews[0].ViewCount)
}

func TestSearchPlaces_RejectsBadParameters(t *testing.T) {
	ts := newTestServer(t)

	cases := map[string]string{
		"unknown sort": "/api/v1/places/search?query=a&lat=1&lng=1&sort=RATING",
		"missing lat":  "/api/v1/places/search?query=a&lng=1",
		"bad lng":      "/api/v1/places/search?query=a&lat=1&lng=east",
		"out of range": "/api/v1/places/search?query=a&lat=95&lng=1",
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, target, "", nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			env := decodeEnvelope(t, rec, nil)
			require.NotNil(t, env.Error)
			assert.Equal(t, "invalid_request", env.Error.Code)
		})
	}
}

func TestSearchPlaces_BookmarksFollowToken(t *testing.T) {
	ts := newTestServer(t)
	member := ts.store.AddMember("viewer", "")
	id := ts.store.AddPlace(place.Place{Name: "Bakery", Address: "Seoul", Latitude: 37.5, Longitude: 127})
	ts.store.AddBookmark(member, id)

	var anon, mine []query.PlaceSearchResultDTO
	decodeEnvelope(t, ts.do(t, http.MethodGet, "/api/v1/places/search?query=Bakery&lat=37.5&lng=127", "", nil), &anon)
	decodeEnvelope(t, ts.do(t, http.MethodGet, "/api/v1/places/search?query=Bakery&lat=37.5&lng=127", ts.token(t, member), nil), &mine)

	require.Len(t, anon, 1)
	require.Len(t, mine, 1)
	assert.False(t, anon[0].IsBookmarked)
	assert.True(t, mine[0].IsBookmarked)
}

func TestGetPlace_RecordsView(t *testing.T) {
	ts := newTestServer(t)
	id := ts.store.AddPlace(place.Place{Name: "Museum", Address: "Gyeongju", Latitude: 35.8, Longitude: 129.2})

	rec := ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/places/%d", id), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ts.recorder.Wait()

	score, ok, err := ts.counter.Score(context.Background(), popularity.ViewsNamespace, fmt.Sprint(id))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1.0, score)

	rec = ts.do(t, http.MethodGet, "/api/v1/places/424242", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/places/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTopPlaces(t *testing.T) {
	ts := newTestServer(t)
	a := ts.store.AddPlace(place.Place{Name: "A", Address: "x"})
	b := ts.store.AddPlace(place.Place{Name: "B", Address: "y"})
	ts.counter.Set(popularity.ViewsNamespace, fmt.Sprint(a), 3)
	ts.counter.Set(popularity.ViewsNamespace, fmt.Sprint(b), 7)

	var ranks []query.PlaceRankDTO
	rec := ts.do(t, http.MethodGet, "/api/v1/places/ranks", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeEnvelope(t, rec, &ranks)

	require.Len(t, ranks, 2)
	assert.Equal(t, b, ranks[0].PlaceID)
	assert.Equal(t, int64(7), ranks[0].ViewCount)

	rec = ts.do(t, http.MethodGet, "/api/v1/places/ranks?limit=many", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncPlaceMedia_RequiresOwner(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.store.AddMember("owner", "")
	other := ts.store.AddMember("other", "")
	id := ts.store.AddPlace(place.Place{MemberID: owner, Name: "Hanok", Address: "Jeonju"})
	target := fmt.Sprintf("/api/v1/places/%d/media", id)
	body := map[string]any{"tags": []string{"quiet", "view"}, "image_urls": []string{"https://img.example/1.png"}}

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPut, target, "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPut, target, "not-a-jwt", body).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPut, target, ts.token(t, other), body).Code)

	rec := ts.do(t, http.MethodPut, target, ts.token(t, owner), body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res command.SyncResult
	decodeEnvelope(t, rec, &res)
	assert.Equal(t, command.SyncResult{TagsAdded: 2, ImagesAdded: 1}, res)

	var tags []query.TagDTO
	decodeEnvelope(t, ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/places/%d/tags", id), "", nil), &tags)
	require.Len(t, tags, 2)
	assert.Equal(t, "quiet", tags[0].Name)

	bad := map[string]any{"image_urls": []string{"not a url"}}
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPut, target, ts.token(t, owner), bad).Code)
}

func TestPlaceComments_Flow(t *testing.T) {
	ts := newTestServer(t)
	author := ts.store.AddMember("author", "")
	id := ts.store.AddPlace(place.Place{Name: "Market", Address: "Seoul"})
	base := fmt.Sprintf("/api/v1/places/%d/comments", id)

	rec := ts.do(t, http.MethodPost, base, ts.token(t, author), map[string]string{"content": "fresh fish"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]int64
	decodeEnvelope(t, rec, &created)
	commentID := created["comment_id"]
	require.NotZero(t, commentID)

	var comments []query.CommentDTO
	decodeEnvelope(t, ts.do(t, http.MethodGet, base, "", nil), &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, "author", comments[0].Nickname)

	rec = ts.do(t, http.MethodPost, base, ts.token(t, author), map[string]string{"content": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodDelete, fmt.Sprintf("%s/%d", base, commentID), ts.token(t, author), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// POSTINGS
// ══════════════════════════════════════════════════════════════════════════════

func TestPostings_CreateEditList(t *testing.T) {
	ts := newTestServer(t)
	author := ts.store.AddMember("writer", "")
	tok := ts.token(t, author)

	rec := ts.do(t, http.MethodPost, "/api/v1/postings", tok, map[string]any{
		"title":      "Jeju",
		"content":    "Day one",
		"image_urls": []string{"https://img.example/a.png"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]int64
	decodeEnvelope(t, rec, &created)
	id := created["posting_id"]

	rec = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/postings/%d", id), tok, map[string]any{
		"content":    "Day two",
		"tags":       []string{"island"},
		"image_urls": []string{"https://img.example/b.png"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res command.SyncResult
	decodeEnvelope(t, rec, &res)
	assert.Equal(t, command.SyncResult{TagsAdded: 1, ImagesAdded: 1, ImagesRemoved: 1}, res)

	var detail query.PostingDetailDTO
	decodeEnvelope(t, ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/postings/%d", id), "", nil), &detail)
	assert.Equal(t, "Day two", detail.Content)
	assert.Equal(t, []string{"https://img.example/b.png"}, detail.ImageURLs)

	var list []query.PostingDTO
	decodeEnvelope(t, ts.do(t, http.MethodGet, "/api/v1/postings?page=0&size=5", "", nil), &list)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/v1/postings?page=-1", "", nil).Code)
}

func TestPostings_WritesNeedAuthor(t *testing.T) {
	ts := newTestServer(t)
	author := ts.store.AddMember("writer", "")
	other := ts.store.AddMember("reader", "")

	body := map[string]any{"title": "t", "content": "c"}
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/api/v1/postings", "", body).Code)

	var created map[string]int64
	decodeEnvelope(t, ts.do(t, http.MethodPost, "/api/v1/postings", ts.token(t, author), body), &created)
	target := fmt.Sprintf("/api/v1/postings/%d", created["posting_id"])

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodDelete, target, ts.token(t, other), nil).Code)
	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, target, ts.token(t, author), nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, target, "", nil).Code)
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	ts := newTestServer(t)
	author := ts.store.AddMember("writer", "")

	rec := ts.do(t, http.MethodPost, "/api/v1/postings", ts.token(t, author), map[string]any{
		"title": "t", "content": "c", "rating": 5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// OPS & MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

func TestRequestID_EchoedAndGenerated(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "abc-123", decodeEnvelope(t, rec, nil).RequestID)

	rec = ts.do(t, http.MethodGet, "/live", "", nil)
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
}

func TestMetricsEndpoint_ExposesRouteLabels(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/api/v1/places/ranks", "", nil)

	rec := ts.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, metrics.MetricHTTPRequestsTotal))
	assert.True(t, strings.Contains(body, `route="GET /api/v1/places/ranks"`))
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/postings", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.Stop()

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"))
}
