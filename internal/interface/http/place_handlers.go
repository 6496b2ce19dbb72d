package http

import (
	"net/http"
	"strconv"

	"github.com/hjun-park/backend/internal/application/command"
	"github.com/hjun-park/backend/internal/application/query"
	"github.com/hjun-park/backend/internal/domain/place"
)

// ══════════════════════════════════════════════════════════════════════════════
// PLACE QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// handleSearchPlaces handles GET /api/v1/places/search
func (s *Server) handleSearchPlaces(w http.ResponseWriter, r *http.Request) {
	lat, err := getQueryParamFloat(r, "lat")
	if err != nil {
		writeError(w, r, err)
		return
	}
	lng, err := getQueryParamFloat(r, "lng")
	if err != nil {
		writeError(w, r, err)
		return
	}
	mode, err := query.ParseSortMode(getQueryParam(r, "sort", ""))
	if err != nil {
		writeError(w, r, err)
		return
	}

	results, err := s.deps.SearchPlaces.Handle(r.Context(), query.SearchPlacesQuery{
		Query:     getQueryParam(r, "query", ""),
		Latitude:  lat,
		Longitude: lng,
		Sort:      mode,
		ViewerID:  memberFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, results, &ResponseMeta{TotalCount: len(results)})
}

// handleTopPlaces handles GET /api/v1/places/ranks
func (s *Server) handleTopPlaces(w http.ResponseWriter, r *http.Request) {
	limit, err := getQueryParamInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ranks, err := s.deps.TopPlaces.Handle(r.Context(), query.GetTopPlacesQuery{Limit: limit})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, ranks)
}

// handleNearbyPlaces handles GET /api/v1/places/nearby
func (s *Server) handleNearbyPlaces(w http.ResponseWriter, r *http.Request) {
	lat, err := getQueryParamFloat(r, "lat")
	if err != nil {
		writeError(w, r, err)
		return
	}
	lng, err := getQueryParamFloat(r, "lng")
	if err != nil {
		writeError(w, r, err)
		return
	}
	radius := 0.0
	if raw := r.URL.Query().Get("radius"); raw != "" {
		if radius, err = strconv.ParseFloat(raw, 64); err != nil {
			writeError(w, r, invalidParam("radius must be a number"))
			return
		}
	}

	places, err := s.deps.NearbyPlaces.Handle(r.Context(), query.NearbyPlacesQuery{
		Latitude:  lat,
		Longitude: lng,
		RadiusKm:  radius,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, places, &ResponseMeta{TotalCount: len(places)})
}

// handleGetPlace handles GET /api/v1/places/{id}
func (s *Server) handleGetPlace(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := s.deps.PlaceDetail.Handle(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, detail)
}

// ══════════════════════════════════════════════════════════════════════════════
// PLACE COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// handleDeletePlace handles DELETE /api/v1/places/{id}
func (s *Server) handleDeletePlace(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = s.deps.PlaceCommands.DeletePlace(r.Context(), command.DeletePlaceCommand{
		PlaceID:  id,
		MemberID: memberFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleSavePoint handles PATCH /api/v1/places/{id}/point
func (s *Server) handleSavePoint(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req savePointRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	err = s.deps.PlaceCommands.SavePoint(r.Context(), command.SavePointCommand{
		PlaceID:   id,
		MemberID:  memberFrom(r.Context()),
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleSyncPlaceMedia handles PUT /api/v1/places/{id}/media
func (s *Server) handleSyncPlaceMedia(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req syncMediaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.deps.PlaceCommands.SyncPlaceMedia(r.Context(), command.SyncPlaceMediaCommand{
		PlaceID:   id,
		MemberID:  memberFrom(r.Context()),
		Tags:      req.Tags,
		ImageURLs: req.ImageURLs,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, res)
}

// ─────────────────────────────────────────────────────────────────────────────
// Place tags
// ─────────────────────────────────────────────────────────────────────────────

// handleListPlaceTags handles GET /api/v1/places/{id}/tags
func (s *Server) handleListPlaceTags(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	tags, err := s.deps.PlaceChildren.Tags(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, tags)
}

// handleAddPlaceTags handles POST /api/v1/places/{id}/tags
func (s *Server) handleAddPlaceTags(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req addTagsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	added, err := s.deps.PlaceCommands.AddPlaceTags(r.Context(), command.AddPlaceTagsCommand{
		PlaceID:  id,
		MemberID: memberFrom(r.Context()),
		Names:    req.Names,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, placeTags(added))
}

// handleEditPlaceTag handles PATCH /api/v1/places/{id}/tags/{tagId}
func (s *Server) handleEditPlaceTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	tagID, err := pathID(r, "tagId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	err = s.deps.PlaceCommands.EditPlaceTag(r.Context(), command.EditPlaceTagCommand{
		PlaceID:  id,
		TagID:    tagID,
		MemberID: memberFrom(r.Context()),
		Name:     req.Name,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDeletePlaceTag handles DELETE /api/v1/places/{id}/tags/{tagId}
func (s *Server) handleDeletePlaceTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	tagID, err := pathID(r, "tagId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = s.deps.PlaceCommands.DeletePlaceTag(r.Context(), command.DeletePlaceTagCommand{
		PlaceID:  id,
		TagID:    tagID,
		MemberID: memberFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ─────────────────────────────────────────────────────────────────────────────
// Place comments
// ─────────────────────────────────────────────────────────────────────────────

// handleListPlaceComments handles GET /api/v1/places/{id}/comments
func (s *Server) handleListPlaceComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	comments, err := s.deps.PlaceChildren.Comments(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, comments)
}

// handleAddPlaceComment handles POST /api/v1/places/{id}/comments
func (s *Server) handleAddPlaceComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	commentID, err := s.deps.PlaceCommands.AddPlaceComment(r.Context(), command.AddPlaceCommentCommand{
		PlaceID:  id,
		MemberID: memberFrom(r.Context()),
		Content:  req.Content,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]int64{"comment_id": commentID})
}

// handleEditPlaceComment handles PATCH /api/v1/places/{id}/comments/{commentId}
func (s *Server) handleEditPlaceComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	commentID, err := pathID(r, "commentId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	err = s.deps.PlaceCommands.EditPlaceComment(r.Context(), command.EditPlaceCommentCommand{
		PlaceID:   id,
		CommentID: commentID,
		MemberID:  memberFrom(r.Context()),
		Content:   req.Content,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDeletePlaceComment handles DELETE /api/v1/places/{id}/comments/{commentId}
func (s *Server) handleDeletePlaceComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	commentID, err := pathID(r, "commentId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = s.deps.PlaceCommands.DeletePlaceComment(r.Context(), command.DeletePlaceCommentCommand{
		PlaceID:   id,
		CommentID: commentID,
		MemberID:  memberFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func placeTags(tags []place.Tag) []query.TagDTO {
	out := make([]query.TagDTO, len(tags))
	for i, t := range tags {
		out[i] = query.TagDTO{ID: t.ID, Name: t.Name}
	}
	return out
}
