package handlers

import (
	"errors"
	"net/http"

	"github.com/username/ledgerlink/backend/src/jobstore"
	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/services"
)

// ConvertHandler triggers the conversion pipeline and returns the generated
// transaction groups.
type ConvertHandler struct {
	manager    *services.RoutineManager
	repository jobstore.Repository
}

func NewConvertHandler(manager *services.RoutineManager, repository jobstore.Repository) *ConvertHandler {
	return &ConvertHandler{manager: manager, repository: repository}
}

func (h *ConvertHandler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	job, ok := loadJob(w, r, h.repository)
	if !ok {
		return
	}

	groups, err := h.manager.Start(r.Context(), job)
	if err != nil {
		var domainErr *services.DomainError
		if errors.As(err, &domainErr) {
			ctxLogger.Warn("Conversion rejected", "jobID", job.ID, "code", domainErr.Code)
			sendJSONResponse(w, map[string]any{
				"error":  domainErr.Message,
				"status": job.ConversionStatus,
			}, http.StatusUnprocessableEntity)
			return
		}
		ctxLogger.Error("Conversion failed", "jobID", job.ID, "error", err)
		sendJSONResponse(w, map[string]any{
			"error":  "the conversion run failed",
			"status": job.ConversionStatus,
		}, http.StatusBadGateway)
		return
	}

	sendJSONResponse(w, map[string]any{
		"groups": groups,
		"status": job.ConversionStatus,
	}, http.StatusOK)
}
