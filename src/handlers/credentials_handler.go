package handlers

import (
	"net/http"

	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/services"
)

// CredentialsHandler reports whether the configured provider credentials can
// sign a token.
type CredentialsHandler struct {
	validator *services.AuthenticationValidator
}

func NewCredentialsHandler(validator *services.AuthenticationValidator) *CredentialsHandler {
	return &CredentialsHandler{validator: validator}
}

func (h *CredentialsHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	result, err := h.validator.Validate()
	if err != nil {
		logger.FromContext(r.Context()).Error("Credential validation errored", "error", err)
	}
	status := http.StatusOK
	if result != services.ValidationAuthenticated {
		status = http.StatusUnprocessableEntity
	}
	sendJSONResponse(w, map[string]string{"result": result}, status)
}
