package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/interpay/interpay-api/internal/service"
)

// JobHandlers serves settlement job status.
type JobHandlers struct {
	Svc *service.JobService
}

// GetJob returns {jobId, status, result} or 404.
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	view, err := h.Svc.Get(r.Context(), chi.URLParam(r, "jobId"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}
