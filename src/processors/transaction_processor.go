package processors

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/ledgerlink/backend/src/banking"
	"github.com/username/ledgerlink/backend/src/ledger"
	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/models"
)

// TransactionDownloader is the provider surface the processor needs.
// Satisfied by *banking.Client.
type TransactionDownloader interface {
	GetTransactions(ctx context.Context, accountUID, dateFrom, dateTo string) (*banking.TransactionsResponse, error)
}

// LedgerAccounts is the ledger surface the pipeline needs. Satisfied by
// *ledger.Client.
type LedgerAccounts interface {
	CreateAccount(ctx context.Context, req ledger.CreateAccountRequest) (int64, error)
	CollectTargetAccounts(ctx context.Context) (map[string]int64, error)
}

// TransactionProcessor downloads and filters raw transactions for every
// account bound on a job.
type TransactionProcessor struct {
	downloader TransactionDownloader
	ledger     LedgerAccounts
}

func NewTransactionProcessor(downloader TransactionDownloader, ledger LedgerAccounts) *TransactionProcessor {
	return &TransactionProcessor{downloader: downloader, ledger: ledger}
}

// Download retrieves transactions per bound account, bounded by the job's
// date window. A provider failure for one account is downgraded to a warning
// and an empty list so the remaining accounts still import.
func (p *TransactionProcessor) Download(ctx context.Context, job *models.ImportJob) map[string][]banking.Transaction {
	result := make(map[string][]banking.Transaction, len(job.Configuration.Accounts))

	uids := make([]string, 0, len(job.Configuration.Accounts))
	for uid := range job.Configuration.Accounts {
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	for _, uid := range uids {
		if job.Configuration.Accounts[uid] == 0 {
			if err := p.createLedgerAccount(ctx, job, uid); err != nil {
				logger.L.Error("Could not create ledger account", "jobID", job.ID, "accountUID", uid, "error", err)
				job.ConversionStatus.AddWarning(0,
					fmt.Sprintf("Could not create a local account for %s: %v", uid, err))
				result[uid] = []banking.Transaction{}
				continue
			}
		}

		response, err := p.downloader.GetTransactions(ctx, uid,
			job.Configuration.DateNotBefore, job.Configuration.DateNotAfter)
		if err != nil {
			logger.L.Error("Transaction download failed for account", "jobID", job.ID, "accountUID", uid, "error", err)
			job.ConversionStatus.AddWarning(0,
				fmt.Sprintf("Could not download transactions for account %s: %v", uid, err))
			result[uid] = []banking.Transaction{}
			continue
		}
		result[uid] = p.filter(job, response.Transactions)
		logger.L.Info("Downloaded transactions for account",
			"jobID", job.ID, "accountUID", uid,
			"downloaded", len(response.Transactions), "kept", len(result[uid]))
	}
	return result
}

// createLedgerAccount creates the local account for a provider account that
// has no binding yet and records the new id on the configuration.
func (p *TransactionProcessor) createLedgerAccount(ctx context.Context, job *models.ImportJob, uid string) error {
	account, found := findServiceAccount(job, uid)
	if !found {
		return fmt.Errorf("no service account attached for %s", uid)
	}
	id, err := p.ledger.CreateAccount(ctx, ledger.CreateAccountRequest{
		Name:         account.FullName(),
		Type:         "asset",
		IBAN:         account.IBAN,
		AccountRole:  "defaultAsset",
		CurrencyCode: account.Currency,
	})
	if err != nil {
		return err
	}
	job.Configuration.BindAccount(uid, id)
	return nil
}

func findServiceAccount(job *models.ImportJob, uid string) (banking.Account, bool) {
	for _, account := range job.ServiceAccounts {
		if account.UID == uid {
			return account, true
		}
	}
	return banking.Account{}, false
}

// filter drops pending transactions unless the job opted in, transactions
// outside the date window, and zero-amount transactions.
func (p *TransactionProcessor) filter(job *models.ImportJob, transactions []banking.Transaction) []banking.Transaction {
	notBefore := parseWindowDate(job.Configuration.DateNotBefore)
	notAfter := parseWindowDate(job.Configuration.DateNotAfter)

	kept := make([]banking.Transaction, 0, len(transactions))
	for i, tx := range transactions {
		if tx.Status == banking.StatusPending && !job.Configuration.PendingTransactions {
			logger.L.Debug("Skipping pending transaction", "transactionID", tx.TransactionID)
			continue
		}
		date := tx.Date()
		if notBefore != nil && date.Before(*notBefore) {
			continue
		}
		if notAfter != nil && date.After(*notAfter) {
			continue
		}
		amount, err := decimal.NewFromString(tx.TransactionAmount)
		if err != nil || amount.IsZero() {
			job.ConversionStatus.AddWarning(i,
				fmt.Sprintf("Transaction %s has a zero amount and was skipped.", tx.TransactionID))
			continue
		}
		kept = append(kept, tx)
	}
	return kept
}

// parseWindowDate parses a "2006-01-02" bound, nil when unset.
func parseWindowDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		logger.L.Warn("Ignoring unparseable date bound", "value", value)
		return nil
	}
	return &parsed
}
