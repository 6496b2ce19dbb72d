package http

import (
	"net/http"

	"github.com/hjun-park/backend/internal/application/command"
	"github.com/hjun-park/backend/internal/application/query"
	"github.com/hjun-park/backend/internal/domain/posting"
)

// ══════════════════════════════════════════════════════════════════════════════
// POSTING QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// handleListPostings handles GET /api/v1/postings
func (s *Server) handleListPostings(w http.ResponseWriter, r *http.Request) {
	page, err := getQueryParamInt(r, "page", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	size, err := getQueryParamInt(r, "size", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := query.ListPostingsQuery{Page: page, Size: size}
	if err := q.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	postings, err := s.deps.Postings.List(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, postings, &ResponseMeta{
		Page:     q.Page,
		PageSize: q.Size,
		HasMore:  len(postings) == q.Size,
	})
}

// handleRecentPostings handles GET /api/v1/postings/recent
func (s *Server) handleRecentPostings(w http.ResponseWriter, r *http.Request) {
	recent, err := s.deps.Postings.Recent(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, recent)
}

// handleMemberPostings handles GET /api/v1/members/{id}/postings
func (s *Server) handleMemberPostings(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	postings, err := s.deps.Postings.ByMember(r.Context(), memberID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, postings, &ResponseMeta{TotalCount: len(postings)})
}

// handleGetPosting handles GET /api/v1/postings/{id}
func (s *Server) handleGetPosting(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := s.deps.Postings.Detail(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, detail)
}

// ══════════════════════════════════════════════════════════════════════════════
// POSTING COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// handleCreatePosting handles POST /api/v1/postings
func (s *Server) handleCreatePosting(w http.ResponseWriter, r *http.Request) {
	var req createPostingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.deps.PostingCommands.CreatePosting(r.Context(), command.CreatePostingCommand{
		MemberID:  memberFrom(r.Context()),
		Title:     req.Title,
		Content:   req.Content,
		ImageURLs: req.ImageURLs,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]int64{"posting_id": id})
}

// handleEditPosting handles PATCH /api/v1/postings/{id}
func (s *Server) handleEditPosting(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req editPostingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.deps.PostingCommands.EditPosting(r.Context(), command.EditPostingCommand{
		PostingID: id,
		MemberID:  memberFrom(r.Context()),
		Content:   req.Content,
		Tags:      req.Tags,
		ImageURLs: req.ImageURLs,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, res)
}

// handleDeletePosting handles DELETE /api/v1/postings/{id}
func (s *Server) handleDeletePosting(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = s.deps.PostingCommands.DeletePosting(r.Context(), command.DeletePostingCommand{
		PostingID: id,
		MemberID:  memberFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ─────────────────────────────────────────────────────────────────────────────
// Posting tags
// ─────────────────────────────────────────────────────────────────────────────

// handleListPostingTags handles GET /api/v1/postings/{id}/tags
func (s *Server) handleListPostingTags(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	tags, err := s.deps.Postings.Tags(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, tags)
}

// handleAddPostingTags handles POST /api/v1/postings/{id}/tags
func (s *Server) handleAddPostingTags(w http.ResponseWriter, r *http.Request) {
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

	added, err := s.deps.PostingCommands.AddPostingTags(r.Context(), command.AddPostingTagsCommand{
		PostingID: id,
		MemberID:  memberFrom(r.Context()),
		Names:     req.Names,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, postingTags(added))
}

// handleEditPostingTag handles PATCH /api/v1/postings/{id}/tags/{tagId}
func (s *Server) handleEditPostingTag(w http.ResponseWriter, r *http.Request) {
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

	err = s.deps.PostingCommands.EditPostingTag(r.Context(), command.EditPostingTagCommand{
		PostingID: id,
		TagID:     tagID,
		MemberID:  memberFrom(r.Context()),
		Name:      req.Name,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDeletePostingTag handles DELETE /api/v1/postings/{id}/tags/{tagId}
func (s *Server) handleDeletePostingTag(w http.ResponseWriter, r *http.Request) {
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

	err = s.deps.PostingCommands.DeletePostingTag(r.Context(), command.DeletePostingTagCommand{
		PostingID: id,
		TagID:     tagID,
		MemberID:  memberFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ─────────────────────────────────────────────────────────────────────────────
// Posting comments
// ─────────────────────────────────────────────────────────────────────────────

// handleListPostingComments handles GET /api/v1/postings/{id}/comments
func (s *Server) handleListPostingComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	comments, err := s.deps.Postings.Comments(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, comments)
}

// handleAddPostingComment handles POST /api/v1/postings/{id}/comments
func (s *Server) handleAddPostingComment(w http.ResponseWriter, r *http.Request) {
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

	commentID, err := s.deps.PostingCommands.AddPostingComment(r.Context(), command.AddPostingCommentCommand{
		PostingID: id,
		MemberID:  memberFrom(r.Context()),
		Content:   req.Content,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]int64{"comment_id": commentID})
}

// handleEditPostingComment handles PATCH /api/v1/postings/{id}/comments/{commentId}
func (s *Server) handleEditPostingComment(w http.ResponseWriter, r *http.Request) {
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

	err = s.deps.PostingCommands.EditPostingComment(r.Context(), command.EditPostingCommentCommand{
		PostingID: id,
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

// handleDeletePostingComment handles DELETE /api/v1/postings/{id}/comments/{commentId}
func (s *Server) handleDeletePostingComment(w http.ResponseWriter, r *http.Request) {
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

	err = s.deps.PostingCommands.DeletePostingComment(r.Context(), command.DeletePostingCommentCommand{
		PostingID: id,
		CommentID: commentID,
		MemberID:  memberFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func postingTags(tags []posting.Tag) []query.TagDTO {
	out := make([]query.TagDTO, len(tags))
	for i, t := range tags {
		out[i] = query.TagDTO{ID: t.ID, Name: t.Name}
	}
	return out
}
