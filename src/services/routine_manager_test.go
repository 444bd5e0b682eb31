package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/ledgerlink/backend/src/banking"
	"github.com/username/ledgerlink/backend/src/ledger"
	"github.com/username/ledgerlink/backend/src/models"
	"github.com/username/ledgerlink/backend/src/processors"
)

type stubDownloader struct {
	responses map[string][]banking.Transaction
	err       error
}

func (s *stubDownloader) GetTransactions(ctx context.Context, accountUID, dateFrom, dateTo string) (*banking.TransactionsResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &banking.TransactionsResponse{AccountUID: accountUID, Transactions: s.responses[accountUID]}, nil
}

type stubLedger struct {
	targets   map[string]int64
	targetErr error
}

func (s *stubLedger) CreateAccount(ctx context.Context, req ledger.CreateAccountRequest) (int64, error) {
	return 1, nil
}

func (s *stubLedger) CollectTargetAccounts(ctx context.Context) (map[string]int64, error) {
	return s.targets, s.targetErr
}

func pipelineJob() *models.ImportJob {
	job := models.NewImportJob()
	job.Configuration.AddSession("sess-1")
	job.ServiceAccounts = []banking.Account{{UID: "acct-1", IBAN: "NL69INGB0123456789"}}
	job.Configuration.BindAccount("acct-1", 7)
	return job
}

func newManager(downloader *stubDownloader, lgr *stubLedger, repo *memoryRepository) *RoutineManager {
	collector := NewAccountCollector(&fakeSessionAccounts{}, nil, true)
	processor := processors.NewTransactionProcessor(downloader, lgr)
	return NewRoutineManager(collector, processor, lgr, repo)
}

func TestStartHappyPathCheckpointsAndGenerates(t *testing.T) {
	date := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	downloader := &stubDownloader{responses: map[string][]banking.Transaction{
		"acct-1": {{
			TransactionID:     "t-1",
			TransactionAmount: "-10.00",
			CurrencyCode:      "EUR",
			BookingDate:       &date,
			Status:            banking.StatusBooked,
		}},
	}}
	repo := newMemoryRepository()
	manager := newManager(downloader, &stubLedger{targets: map[string]int64{}}, repo)

	job := pipelineJob()
	groups, err := manager.Start(context.Background(), job)
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, models.TransactionTypeWithdrawal, groups[0].Transactions[0].Type)
	assert.GreaterOrEqual(t, repo.saves, 3, "the job is persisted after every mutating stage")
	assert.Empty(t, job.ConversionStatus.Errors)
}

func TestStartCollectorFailureIsEb001(t *testing.T) {
	repo := newMemoryRepository()
	collector := NewAccountCollector(&fakeSessionAccounts{err: fmt.Errorf("provider down")}, nil, true)
	processor := processors.NewTransactionProcessor(&stubDownloader{}, &stubLedger{})
	manager := NewRoutineManager(collector, processor, &stubLedger{}, repo)

	job := models.NewImportJob()
	job.Configuration.AddSession("sess-1")

	_, err := manager.Start(context.Background(), job)
	require.Error(t, err)
	require.Len(t, job.ConversionStatus.Errors, 1)
	assert.Contains(t, job.ConversionStatus.Errors[0].Message, "[eb001] Could not download from Enable Banking")
	assert.GreaterOrEqual(t, repo.saves, 1, "the failed job is persisted")
}

func TestStartTargetAccountFailureIsEb002(t *testing.T) {
	date := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	downloader := &stubDownloader{responses: map[string][]banking.Transaction{
		"acct-1": {{TransactionID: "t-1", TransactionAmount: "5.00", BookingDate: &date, Status: banking.StatusBooked}},
	}}
	repo := newMemoryRepository()
	manager := newManager(downloader, &stubLedger{targetErr: fmt.Errorf("ledger down")}, repo)

	job := pipelineJob()
	_, err := manager.Start(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger down")
	require.Len(t, job.ConversionStatus.Errors, 1)
	assert.Contains(t, job.ConversionStatus.Errors[0].Message, "[eb002] Error while collecting target accounts")
}

func TestStartZeroTotalIsEb003AndSkipsGeneration(t *testing.T) {
	// Every download fails, so each account contributes an empty list.
	downloader := &stubDownloader{err: fmt.Errorf("bank offline")}
	repo := newMemoryRepository()
	manager := newManager(downloader, &stubLedger{targets: map[string]int64{}}, repo)

	job := pipelineJob()
	groups, err := manager.Start(context.Background(), job)
	require.Error(t, err)
	assert.Nil(t, groups, "the generator must never run on a zero total")

	var domainErr *DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, CodeNothingDownloaded, domainErr.Code)

	require.Len(t, job.ConversionStatus.Errors, 1)
	assert.Contains(t, job.ConversionStatus.Errors[0].Message, "[eb003]")
	assert.NotEmpty(t, job.ConversionStatus.Warnings, "the per-account failures are kept as warnings")
}
