package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/username/ledgerlink/backend/src/jobstore"
	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/models"
)

// JobHandler serves the import-job lifecycle: creation and status.
type JobHandler struct {
	repository jobstore.Repository
}

func NewJobHandler(repository jobstore.Repository) *JobHandler {
	return &JobHandler{repository: repository}
}

// HandleCreateJob creates a fresh import job ready for bank selection.
func (h *JobHandler) HandleCreateJob(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	job := models.NewImportJob()
	if err := h.repository.Save(job); err != nil {
		ctxLogger.Error("Failed to persist new import job", "error", err)
		sendJSONError(w, "could not create import job", http.StatusInternalServerError)
		return
	}
	ctxLogger.Info("Created import job", "jobID", job.ID)
	sendJSONResponse(w, map[string]string{
		"id":    job.ID,
		"state": string(job.State),
	}, http.StatusCreated)
}

// HandleGetJob returns the full job including the conversion log.
func (h *JobHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := loadJob(w, r, h.repository)
	if !ok {
		return
	}
	sendJSONResponse(w, job, http.StatusOK)
}

// loadJob resolves the {jobID} path parameter, writing the error response
// itself when the job cannot be served.
func loadJob(w http.ResponseWriter, r *http.Request, repository jobstore.Repository) (*models.ImportJob, bool) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		sendJSONError(w, "job id is required", http.StatusBadRequest)
		return nil, false
	}
	job, err := repository.Find(jobID)
	if errors.Is(err, jobstore.ErrNotFound) {
		sendJSONError(w, "import job not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to load import job", "jobID", jobID, "error", err)
		sendJSONError(w, "could not load import job", http.StatusInternalServerError)
		return nil, false
	}
	return job, true
}
