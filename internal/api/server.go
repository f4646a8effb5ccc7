// Package api exposes dialogue sessions over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/dialogue"
	"github.com/quinta-thw/librarymanager-ist4070/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// CatalogSnapshotter supplies the current catalog. Implemented by
// catalog.View.
type CatalogSnapshotter interface {
	Snapshot(ctx context.Context) []catalog.Entry
}

// TranscriptArchive reads archived turns. Implemented by storage.Store and
// storage.RedisArchive.
type TranscriptArchive interface {
	Transcript(ctx context.Context, sessionID string, limit int) ([]dialogue.Turn, error)
}

// ImportQueue queues catalog imports and reports on them. Implemented by
// storage.Store.
type ImportQueue interface {
	EnqueueJob(ctx context.Context, job storage.Job) error
	GetJob(ctx context.Context, id string) (storage.Job, error)
}

// Deps holds what the HTTP handler needs. Archive and Imports are optional.
type Deps struct {
	Sessions *dialogue.Manager
	Catalog  CatalogSnapshotter
	Archive  TranscriptArchive
	Imports  ImportQueue
	Token    string
}

// NewHandler returns the HTTP API. Global AI configuration and catalog
// imports require the bearer token when one is set.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/sessions", handleCreateSession(deps))
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", handleGetSession(deps))
			r.Delete("/", handleDeleteSession(deps))
			r.Post("/messages", handleMessage(deps))
			r.Get("/transcript", handleTranscript(deps))
			r.Delete("/transcript", handleClearTranscript(deps))
			r.Put("/ai", handleConfigureSessionAI(deps))
			r.Delete("/ai", handleClearSessionAI(deps))
		})

		r.Get("/catalog", handleCatalog(deps))

		r.Get("/models", handleModels)
		r.Post("/chat/completions", handleChatCompletions(deps))

		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(deps.Token))
			r.Get("/ai", handleGlobalAI(deps))
			r.Put("/ai", handleConfigureGlobalAI(deps))
			r.Delete("/ai", handleClearGlobalAI(deps))
			r.Post("/catalog/imports", handleSubmitImport(deps))
			r.Get("/catalog/imports/{id}", handleGetImport(deps))
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpError(w, http.StatusRequestEntityTooLarge, "invalid_request_error", "request body exceeds %d bytes", maxRequestBodySize)
			return false
		}
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

// sessionError maps dialogue errors to HTTP responses.
func sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dialogue.ErrSessionNotFound):
		httpError(w, http.StatusNotFound, "not_found_error", "session not found")
	case errors.Is(err, dialogue.ErrMissingCredential):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "api_key is required")
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}
