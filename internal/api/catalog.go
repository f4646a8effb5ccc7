package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/ingest"
	"github.com/quinta-thw/librarymanager-ist4070/internal/storage"
)

type catalogResponse struct {
	Total int             `json:"total"`
	Books []catalog.Entry `json:"books"`
}

type importResponse struct {
	JobID     string            `json:"job_id"`
	Status    storage.JobStatus `json:"status"`
	Done      bool              `json:"done"`
	Attempts  int               `json:"attempts,omitempty"`
	LastError string            `json:"last_error,omitempty"`
}

func handleCatalog(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		books := deps.Catalog.Snapshot(r.Context())
		if books == nil {
			books = []catalog.Entry{}
		}
		writeJSON(w, http.StatusOK, catalogResponse{Total: len(books), Books: books})
	}
}

func handleSubmitImport(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Imports == nil {
			httpError(w, http.StatusNotImplemented, "api_error", "catalog imports require the sqlite catalog source")
			return
		}
		var p ingest.Payload
		if !decodeBody(w, r, &p) {
			return
		}
		id, err := ingest.Submit(r.Context(), deps.Imports, p)
		if err != nil {
			var invalid *ingest.ValidationError
			if errors.As(err, &invalid) {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "queueing import: %v", err)
			return
		}
		writeJSON(w, http.StatusAccepted, importResponse{JobID: id, Status: storage.JobPending})
	}
}

func handleGetImport(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Imports == nil {
			httpError(w, http.StatusNotImplemented, "api_error", "catalog imports require the sqlite catalog source")
			return
		}
		job, err := deps.Imports.GetJob(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "import job not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, importResponse{
			JobID:     job.ID,
			Status:    job.Status,
			Done:      job.Status.Terminal(),
			Attempts:  job.Attempts,
			LastError: job.LastError,
		})
	}
}
