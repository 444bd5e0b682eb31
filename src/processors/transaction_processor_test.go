package processors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/ledgerlink/backend/src/banking"
	"github.com/username/ledgerlink/backend/src/ledger"
	"github.com/username/ledgerlink/backend/src/models"
)

type fakeDownloader struct {
	responses map[string][]banking.Transaction
	failFor   map[string]error
	calls     []string
}

func (f *fakeDownloader) GetTransactions(ctx context.Context, accountUID, dateFrom, dateTo string) (*banking.TransactionsResponse, error) {
	f.calls = append(f.calls, accountUID)
	if err, ok := f.failFor[accountUID]; ok {
		return nil, err
	}
	return &banking.TransactionsResponse{AccountUID: accountUID, Transactions: f.responses[accountUID]}, nil
}

type fakeLedger struct {
	nextID  int64
	created []ledger.CreateAccountRequest
	targets map[string]int64
	listErr error
}

func (f *fakeLedger) CreateAccount(ctx context.Context, req ledger.CreateAccountRequest) (int64, error) {
	f.created = append(f.created, req)
	f.nextID++
	return f.nextID, nil
}

func (f *fakeLedger) CollectTargetAccounts(ctx context.Context) (map[string]int64, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.targets, nil
}

func bookedTransaction(id, amount string, date time.Time) banking.Transaction {
	d := date
	return banking.Transaction{
		TransactionID:     id,
		TransactionAmount: amount,
		CurrencyCode:      "EUR",
		BookingDate:       &d,
		Status:            banking.StatusBooked,
	}
}

func testJob(accounts map[string]int64) *models.ImportJob {
	job := models.NewImportJob()
	for uid, id := range accounts {
		job.Configuration.BindAccount(uid, id)
	}
	return job
}

func TestDownloadPartialFailureKeepsOtherAccounts(t *testing.T) {
	date := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	downloader := &fakeDownloader{
		responses: map[string][]banking.Transaction{
			"acct-ok": {
				bookedTransaction("t-1", "10.00", date),
				bookedTransaction("t-2", "-20.00", date),
				bookedTransaction("t-3", "30.00", date),
			},
		},
		failFor: map[string]error{"acct-broken": fmt.Errorf("bank offline")},
	}
	job := testJob(map[string]int64{"acct-ok": 1, "acct-broken": 2})

	processor := NewTransactionProcessor(downloader, &fakeLedger{})
	result := processor.Download(context.Background(), job)

	require.Len(t, result, 2)
	assert.Len(t, result["acct-ok"], 3)
	assert.Empty(t, result["acct-broken"])
	require.Len(t, job.ConversionStatus.Warnings, 1)
	assert.Contains(t, job.ConversionStatus.Warnings[0].Message, "acct-broken")
	assert.Empty(t, job.ConversionStatus.Errors, "a per-account failure is never fatal")
}

func TestDownloadCreatesMissingLedgerAccount(t *testing.T) {
	date := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	downloader := &fakeDownloader{
		responses: map[string][]banking.Transaction{
			"acct-new": {bookedTransaction("t-1", "5.00", date)},
		},
	}
	fl := &fakeLedger{nextID: 100}
	job := testJob(map[string]int64{"acct-new": 0})
	job.ServiceAccounts = []banking.Account{{
		UID: "acct-new", IBAN: "NL69INGB0123456789", DisplayName: "Checking", Currency: "EUR",
	}}

	processor := NewTransactionProcessor(downloader, fl)
	processor.Download(context.Background(), job)

	require.Len(t, fl.created, 1)
	assert.Equal(t, "Checking", fl.created[0].Name)
	assert.Equal(t, "NL69INGB0123456789", fl.created[0].IBAN)
	assert.Equal(t, int64(101), job.Configuration.Accounts["acct-new"], "the new id is bound on the configuration")
}

func TestFilterDropsPendingUnlessOptedIn(t *testing.T) {
	date := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	pending := bookedTransaction("t-p", "5.00", date)
	pending.Status = banking.StatusPending
	transactions := []banking.Transaction{pending, bookedTransaction("t-b", "7.00", date)}

	downloader := &fakeDownloader{responses: map[string][]banking.Transaction{"acct-1": transactions}}
	processor := NewTransactionProcessor(downloader, &fakeLedger{})

	job := testJob(map[string]int64{"acct-1": 1})
	result := processor.Download(context.Background(), job)
	require.Len(t, result["acct-1"], 1)
	assert.Equal(t, "t-b", result["acct-1"][0].TransactionID)

	job = testJob(map[string]int64{"acct-1": 1})
	job.Configuration.PendingTransactions = true
	result = processor.Download(context.Background(), job)
	assert.Len(t, result["acct-1"], 2)
}

func TestFilterEnforcesDateWindow(t *testing.T) {
	inside := bookedTransaction("t-in", "5.00", time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC))
	early := bookedTransaction("t-early", "5.00", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	late := bookedTransaction("t-late", "5.00", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))

	downloader := &fakeDownloader{responses: map[string][]banking.Transaction{
		"acct-1": {inside, early, late},
	}}
	processor := NewTransactionProcessor(downloader, &fakeLedger{})

	job := testJob(map[string]int64{"acct-1": 1})
	job.Configuration.DateNotBefore = "2026-02-01"
	job.Configuration.DateNotAfter = "2026-02-28"

	result := processor.Download(context.Background(), job)
	require.Len(t, result["acct-1"], 1)
	assert.Equal(t, "t-in", result["acct-1"][0].TransactionID)
}

func TestFilterDropsZeroAmountsWithWarning(t *testing.T) {
	date := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	downloader := &fakeDownloader{responses: map[string][]banking.Transaction{
		"acct-1": {bookedTransaction("t-zero", "0", date), bookedTransaction("t-ok", "1.00", date)},
	}}
	processor := NewTransactionProcessor(downloader, &fakeLedger{})

	job := testJob(map[string]int64{"acct-1": 1})
	result := processor.Download(context.Background(), job)

	require.Len(t, result["acct-1"], 1)
	assert.Equal(t, "t-ok", result["acct-1"][0].TransactionID)
	require.Len(t, job.ConversionStatus.Warnings, 1)
	assert.Contains(t, job.ConversionStatus.Warnings[0].Message, "t-zero")
}
