package processors

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/ledgerlink/backend/src/banking"
	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/models"
)

// TransactionGenerator classifies filtered raw transactions into ledger-ready
// transaction groups.
type TransactionGenerator struct {
	// targetAccounts maps every IBAN the ledger already recognizes to its
	// account id. Built once per run, before any transaction is classified.
	targetAccounts map[string]int64
}

func NewTransactionGenerator(targetAccounts map[string]int64) *TransactionGenerator {
	if targetAccounts == nil {
		targetAccounts = map[string]int64{}
	}
	return &TransactionGenerator{targetAccounts: targetAccounts}
}

// Generate converts every raw transaction into a single-transaction group.
// Direction comes from the signed amount: positive is money in (deposit),
// negative is money out (withdrawal), and a counterparty IBAN matching a
// known ledger account upgrades either to a transfer.
func (g *TransactionGenerator) Generate(job *models.ImportJob, rawByAccount map[string][]banking.Transaction) []models.TransactionGroup {
	uids := make([]string, 0, len(rawByAccount))
	for uid := range rawByAccount {
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	var groups []models.TransactionGroup
	for _, uid := range uids {
		accountID := job.Configuration.Accounts[uid]
		for _, tx := range rawByAccount[uid] {
			canonical := g.classify(tx, accountID)
			groups = append(groups, models.TransactionGroup{
				ApplyRules:           job.Configuration.Rules,
				ErrorIfDuplicateHash: job.Configuration.IgnoreDuplicateTransactions,
				Transactions:         []models.CanonicalTransaction{canonical},
			})
		}
	}
	logger.L.Info("Generated transaction groups", "jobID", job.ID, "count", len(groups))
	return groups
}

func (g *TransactionGenerator) classify(tx banking.Transaction, accountID int64) models.CanonicalTransaction {
	date := tx.Date()
	canonical := models.CanonicalTransaction{
		Type:              models.TransactionTypeWithdrawal,
		Description:       tx.CleanDescription(),
		Date:              date.Format("2006-01-02"),
		Datetime:          date.Format(time.RFC3339),
		Order:             0,
		CurrencyCode:      tx.CurrencyCode,
		Tags:              tx.Tags,
		Notes:             tx.Notes(),
		ExternalID:        tx.ExternalID(),
		InternalReference: tx.TransactionID,
	}
	if tx.ValueDate != nil {
		canonical.PaymentDate = tx.ValueDate.Format("2006-01-02")
	}

	amount, err := decimal.NewFromString(tx.TransactionAmount)
	if err != nil {
		logger.L.Warn("Transaction amount is unparseable, classifying as withdrawal",
			"transactionID", tx.TransactionID, "amount", tx.TransactionAmount)
		amount = decimal.Zero
	}

	if amount.IsPositive() {
		canonical.Type = models.TransactionTypeDeposit
		canonical.Amount = amount.StringFixed(amountScale)
		canonical.DestinationID = accountID
		canonical.SourceIBAN = tx.SourceIBAN()
		if id, known := g.targetAccounts[tx.SourceIBAN()]; known && tx.SourceIBAN() != "" {
			canonical.SourceID = id
			canonical.Type = models.TransactionTypeTransfer
		} else if name := tx.SourceName(); name != "" {
			canonical.SourceName = name
		} else {
			canonical.SourceName = "(unknown source)"
		}
		return canonical
	}

	canonical.Amount = amount.Abs().StringFixed(amountScale)
	canonical.SourceID = accountID
	canonical.DestinationIBAN = tx.DestinationIBAN()
	if id, known := g.targetAccounts[tx.DestinationIBAN()]; known && tx.DestinationIBAN() != "" {
		canonical.DestinationID = id
		canonical.Type = models.TransactionTypeTransfer
	} else if name := tx.DestinationName(); name != "" {
		canonical.DestinationName = name
	} else {
		canonical.DestinationName = "(unknown destination)"
	}
	return canonical
}
