package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/apsinha/coursechat/internal/chat"
	"github.com/apsinha/coursechat/internal/rag"
)

const maxQueryBytes = 64 * 1024

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

type queryResponse struct {
	Answer    string       `json:"answer"`
	Sources   []rag.Source `json:"sources"`
	SessionID string       `json:"session_id"`
}

// handleQuery answers one question. An omitted session_id starts a new
// session; the response always carries the session to continue with.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	var sessionID *uuid.UUID
	if req.SessionID != "" {
		id, err := uuid.Parse(req.SessionID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid session_id")
			return
		}
		sessionID = &id
	}

	res, err := s.service.Query(r.Context(), req.Query, sessionID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chat.ErrGeneration) {
			status = http.StatusBadGateway
		}
		s.logger.Error("query failed", "error", err)
		writeError(w, status, "failed to answer query")
		return
	}

	sources := res.Sources
	if sources == nil {
		sources = []rag.Source{}
	}
	writeJSON(w, http.StatusOK, queryResponse{
		Answer:    res.Answer,
		Sources:   sources,
		SessionID: res.SessionID.String(),
	})
}

// handleCourses reports the indexed corpus statistics.
func (s *Server) handleCourses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Stats())
}

// handleClearSession drops a session's history.
func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	s.service.ClearSession(id)
	w.WriteHeader(http.StatusNoContent)
}
