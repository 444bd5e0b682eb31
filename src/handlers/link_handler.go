package handlers

import (
	"errors"
	"net/http"

	"github.com/username/ledgerlink/backend/src/jobstore"
	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/services"
)

// LinkHandler drives the authorization flow over HTTP: issuing the consent
// redirect and receiving the provider callback.
type LinkHandler struct {
	service    *services.LinkService
	repository jobstore.Repository
}

func NewLinkHandler(service *services.LinkService, repository jobstore.Repository) *LinkHandler {
	return &LinkHandler{service: service, repository: repository}
}

// HandleAuthorize builds the consent for the job's selected bank. The caller
// either gets a provider URL to redirect the user to, or is told to select a
// bank first.
func (h *LinkHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	job, ok := loadJob(w, r, h.repository)
	if !ok {
		return
	}

	outcome, err := h.service.Build(r.Context(), job)
	if err != nil {
		ctxLogger.Error("Building consent failed", "jobID", job.ID, "error", err)
		sendJSONError(w, "could not start bank authorization", http.StatusBadGateway)
		return
	}
	sendJSONResponse(w, outcome, http.StatusOK)
}

// HandleCallback receives the provider redirect. The state query parameter is
// the job id.
func (h *LinkHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	query := r.URL.Query()
	code := query.Get("code")
	state := query.Get("state")
	providerError := query.Get("error")

	if state == "" {
		sendJSONError(w, "The callback carried no state parameter.", http.StatusBadRequest)
		return
	}
	job, err := h.repository.Find(state)
	if errors.Is(err, jobstore.ErrNotFound) {
		sendJSONError(w, "no import job matches the callback state", http.StatusNotFound)
		return
	}
	if err != nil {
		ctxLogger.Error("Failed to load job for callback", "state", state, "error", err)
		sendJSONError(w, "could not load import job", http.StatusInternalServerError)
		return
	}

	outcome, err := h.service.Callback(r.Context(), job, code, state, providerError)
	if err != nil {
		var domainErr *services.DomainError
		if errors.As(err, &domainErr) {
			ctxLogger.Warn("Callback rejected", "jobID", job.ID, "code", domainErr.Code)
			sendJSONError(w, domainErr.Message, http.StatusBadRequest)
			return
		}
		ctxLogger.Error("Callback failed", "jobID", job.ID, "error", err)
		sendJSONError(w, "could not complete the bank authorization", http.StatusBadGateway)
		return
	}
	sendJSONResponse(w, outcome, http.StatusOK)
}
