package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/username/ledgerlink/backend/src/banking"
	"github.com/username/ledgerlink/backend/src/logger"
)

// JobState is the lifecycle state of an import job. States only advance
// forward: no session without a successful code exchange, no contains_content
// without at least one accepted transaction believed available.
type JobState string

const (
	StateNew                   JobState = "new"
	StateAwaitingBankSelection JobState = "awaiting_bank_selection"
	StateAwaitingCallback      JobState = "awaiting_callback"
	StateContainsContent       JobState = "contains_content"
)

var stateOrder = map[JobState]int{
	StateNew:                   0,
	StateAwaitingBankSelection: 1,
	StateAwaitingCallback:      2,
	StateContainsContent:       3,
}

// ImportJob is the single state object threaded through every pipeline stage.
// It is mutated in place and persisted by the repository after each stage that
// changes it, which makes the pipeline resumable rather than transactional.
type ImportJob struct {
	ID               string            `json:"id"`
	State            JobState          `json:"state"`
	Configuration    *Configuration    `json:"configuration"`
	ServiceAccounts  []banking.Account `json:"service_accounts"`
	ConversionStatus *ConversionStatus `json:"conversion_status"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// NewImportJob creates a fresh job ready for bank selection.
func NewImportJob() *ImportJob {
	return &ImportJob{
		ID:               uuid.New().String(),
		State:            StateNew,
		Configuration:    NewConfiguration(),
		ConversionStatus: &ConversionStatus{},
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
}

// SetState advances the job state. Regressions are refused: the state machine
// only moves forward.
func (j *ImportJob) SetState(state JobState) {
	if stateOrder[state] < stateOrder[j.State] {
		logger.L.Warn("Refusing to move job state backwards",
			"jobID", j.ID, "current", j.State, "requested", state)
		return
	}
	j.State = state
}
