package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/dialogue"
)

type createSessionRequest struct {
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type aiConfigRequest struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

type transcriptResponse struct {
	SessionID string          `json:"session_id"`
	Source    string          `json:"source"`
	Turns     []dialogue.Turn `json:"turns"`
}

func handleCreateSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		role, err := catalog.ParseRole(req.Role)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		s := deps.Sessions.Create(r.Context(), role, strings.TrimSpace(req.DisplayName))
		writeJSON(w, http.StatusCreated, s.Status())
	}
}

func handleGetSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := deps.Sessions.Get(chi.URLParam(r, "id"))
		if err != nil {
			sessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.Status())
	}
}

func handleDeleteSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Sessions.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
			sessionError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleMessage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req messageRequest
		if !decodeBody(w, r, &req) {
			return
		}
		reply, err := deps.Sessions.Handle(r.Context(), chi.URLParam(r, "id"), req.Text)
		if err != nil {
			sessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reply)
	}
}

// handleTranscript serves the in-memory transcript, or the archived one
// with ?source=archive. Archived transcripts outlive their session.
func handleTranscript(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "limit must be a non-negative integer")
				return
			}
			limit = n
		}

		if r.URL.Query().Get("source") == "archive" {
			if deps.Archive == nil {
				httpError(w, http.StatusNotImplemented, "api_error", "no transcript archive configured")
				return
			}
			turns, err := deps.Archive.Transcript(r.Context(), id, limit)
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "reading archive: %v", err)
				return
			}
			if turns == nil {
				turns = []dialogue.Turn{}
			}
			writeJSON(w, http.StatusOK, transcriptResponse{SessionID: id, Source: "archive", Turns: turns})
			return
		}

		s, err := deps.Sessions.Get(id)
		if err != nil {
			sessionError(w, err)
			return
		}
		turns := s.Transcript()
		if limit > 0 && len(turns) > limit {
			turns = turns[len(turns)-limit:]
		}
		writeJSON(w, http.StatusOK, transcriptResponse{SessionID: id, Source: "memory", Turns: turns})
	}
}

func handleClearTranscript(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := deps.Sessions.Get(chi.URLParam(r, "id"))
		if err != nil {
			sessionError(w, err)
			return
		}
		s.ClearTranscript()
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleConfigureSessionAI(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req aiConfigRequest
		if !decodeBody(w, r, &req) {
			return
		}
		id := chi.URLParam(r, "id")
		if err := deps.Sessions.ConfigureSession(id, req.APIKey, req.Model); err != nil {
			sessionError(w, err)
			return
		}
		s, err := deps.Sessions.Get(id)
		if err != nil {
			sessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.Status())
	}
}

func handleClearSessionAI(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Sessions.ClearSession(chi.URLParam(r, "id")); err != nil {
			sessionError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleGlobalAI(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Sessions.GlobalStatus())
	}
}

func handleConfigureGlobalAI(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req aiConfigRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := deps.Sessions.Configure(req.APIKey, req.Model); err != nil {
			if errors.Is(err, dialogue.ErrMissingCredential) {
				sessionError(w, err)
				return
			}
			httpError(w, http.StatusBadGateway, "api_error", "configuring external service: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, deps.Sessions.GlobalStatus())
	}
}

func handleClearGlobalAI(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps.Sessions.Clear()
		w.WriteHeader(http.StatusNoContent)
	}
}
