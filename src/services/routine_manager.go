package services

import (
	"context"
	"fmt"

	"github.com/username/ledgerlink/backend/src/jobstore"
	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/models"
	"github.com/username/ledgerlink/backend/src/processors"
)

// RoutineManager runs the conversion pipeline for one job: collect accounts,
// download and filter transactions, resolve ledger target accounts, generate.
// The job is persisted after every stage that mutates it, so a failed run
// resumes from its last checkpoint.
type RoutineManager struct {
	collector  *AccountCollector
	processor  *processors.TransactionProcessor
	ledger     processors.LedgerAccounts
	repository jobstore.Repository
}

func NewRoutineManager(collector *AccountCollector, processor *processors.TransactionProcessor,
	ledger processors.LedgerAccounts, repository jobstore.Repository) *RoutineManager {
	return &RoutineManager{
		collector:  collector,
		processor:  processor,
		ledger:     ledger,
		repository: repository,
	}
}

// Start runs the pipeline and returns the generated transaction groups.
// Fatal errors carry an operator code on the job's status log and are
// persisted before returning.
func (m *RoutineManager) Start(ctx context.Context, job *models.ImportJob) ([]models.TransactionGroup, error) {
	logger.L.Info("Starting conversion run", "jobID", job.ID)

	if err := m.collector.Collect(ctx, job); err != nil {
		return nil, m.fail(job, fmt.Sprintf("[eb001] Could not download from Enable Banking: %v", err), err)
	}
	if err := m.repository.Save(job); err != nil {
		return nil, err
	}

	rawByAccount := m.processor.Download(ctx, job)
	if err := m.repository.Save(job); err != nil {
		return nil, err
	}

	targetAccounts, err := m.ledger.CollectTargetAccounts(ctx)
	if err != nil {
		return nil, m.fail(job, fmt.Sprintf("[eb002] Error while collecting target accounts: %v", err), err)
	}

	total := 0
	for _, transactions := range rawByAccount {
		total += len(transactions)
	}
	if total == 0 {
		domainErr := newDomainError(CodeNothingDownloaded,
			"No transactions were downloaded from Enable Banking.")
		return nil, m.fail(job, "[eb003] "+domainErr.Message, domainErr)
	}

	generator := processors.NewTransactionGenerator(targetAccounts)
	groups := generator.Generate(job, rawByAccount)
	if err := m.repository.Save(job); err != nil {
		return nil, err
	}
	logger.L.Info("Conversion run finished", "jobID", job.ID, "transactions", total, "groups", len(groups))
	return groups, nil
}

// fail records a fatal error on the job, persists it and returns the cause.
func (m *RoutineManager) fail(job *models.ImportJob, message string, cause error) error {
	logger.L.Error("Conversion run failed", "jobID", job.ID, "message", message)
	job.ConversionStatus.AddError(0, message)
	if err := m.repository.Save(job); err != nil {
		logger.L.Error("Could not persist failed job", "jobID", job.ID, "error", err)
	}
	return cause
}
