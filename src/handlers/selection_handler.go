package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/username/ledgerlink/backend/src/banking"
	"github.com/username/ledgerlink/backend/src/jobstore"
	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/models"
	"github.com/username/ledgerlink/backend/src/validation"
)

// BankLister is the provider surface bank discovery needs. Satisfied by
// *banking.Client.
type BankLister interface {
	GetBanks(ctx context.Context, country string) ([]banking.Bank, error)
}

// SelectionHandler serves bank discovery and the bank/date selection step.
type SelectionHandler struct {
	banks      BankLister
	repository jobstore.Repository
}

func NewSelectionHandler(banks BankLister, repository jobstore.Repository) *SelectionHandler {
	return &SelectionHandler{banks: banks, repository: repository}
}

// HandleListBanks lists the banks available in a country, sorted by name.
func (h *SelectionHandler) HandleListBanks(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	if _, ok := loadJob(w, r, h.repository); !ok {
		return
	}
	country := r.URL.Query().Get("country")
	if err := validation.ValidateCountryCode(country); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	banks, err := h.banks.GetBanks(r.Context(), country)
	if err != nil {
		ctxLogger.Error("Bank discovery failed", "country", country, "error", err)
		sendJSONError(w, "could not list banks", http.StatusBadGateway)
		return
	}
	sendJSONResponse(w, map[string]any{"banks": banks}, http.StatusOK)
}

type selectBankRequest struct {
	Bank                        string `json:"bank"`
	Country                     string `json:"country"`
	DateNotBefore               string `json:"date_not_before"`
	DateNotAfter                string `json:"date_not_after"`
	ConsentValiditySeconds      int64  `json:"consent_validity_seconds"`
	PendingTransactions         bool   `json:"pending_transactions"`
	IgnoreDuplicateTransactions bool   `json:"ignore_duplicate_transactions"`
	Rules                       bool   `json:"rules"`
}

// HandleSelectBank stores the user's bank choice and import preferences on
// the job configuration.
func (h *SelectionHandler) HandleSelectBank(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	job, ok := loadJob(w, r, h.repository)
	if !ok {
		return
	}

	var req selectBankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStringNotEmpty(req.Bank, "bank"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStringMaxLength(req.Bank, validation.MaxBankNameLength, "bank"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateCountryCode(req.Country); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateDateString(req.DateNotBefore, "date_not_before"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateDateString(req.DateNotAfter, "date_not_after"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job.Configuration.Bank = req.Bank
	job.Configuration.Country = req.Country
	job.Configuration.DateNotBefore = req.DateNotBefore
	job.Configuration.DateNotAfter = req.DateNotAfter
	job.Configuration.ConsentValiditySeconds = req.ConsentValiditySeconds
	job.Configuration.PendingTransactions = req.PendingTransactions
	job.Configuration.IgnoreDuplicateTransactions = req.IgnoreDuplicateTransactions
	job.Configuration.Rules = req.Rules
	job.SetState(models.StateAwaitingBankSelection)

	if err := h.repository.Save(job); err != nil {
		ctxLogger.Error("Failed to persist bank selection", "jobID", job.ID, "error", err)
		sendJSONError(w, "could not save bank selection", http.StatusInternalServerError)
		return
	}
	ctxLogger.Info("Bank selected", "jobID", job.ID, "bank", req.Bank, "country", req.Country)
	sendJSONResponse(w, job, http.StatusOK)
}

type bindAccountsRequest struct {
	// Accounts maps provider account UIDs to existing ledger account ids.
	// Zero requests lazy creation during conversion.
	Accounts map[string]int64 `json:"accounts"`
}

// HandleBindAccounts records which ledger account each provider account
// imports into.
func (h *SelectionHandler) HandleBindAccounts(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	job, ok := loadJob(w, r, h.repository)
	if !ok {
		return
	}

	var req bindAccountsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Accounts) == 0 {
		sendJSONError(w, "accounts are required", http.StatusBadRequest)
		return
	}

	for uid, ledgerID := range req.Accounts {
		job.Configuration.BindAccount(uid, ledgerID)
	}
	if err := h.repository.Save(job); err != nil {
		ctxLogger.Error("Failed to persist account bindings", "jobID", job.ID, "error", err)
		sendJSONError(w, "could not save account bindings", http.StatusInternalServerError)
		return
	}
	ctxLogger.Info("Accounts bound", "jobID", job.ID, "count", len(req.Accounts))
	sendJSONResponse(w, job, http.StatusOK)
}
