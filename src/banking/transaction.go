package banking

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/username/ledgerlink/backend/src/logger"
)

// Statuses stamped on every normalized transaction.
const (
	StatusBooked  = "booked"
	StatusPending = "pending"
)

// idNamespace is the UUIDv5 namespace for deterministic fallback transaction
// ids. Set once at startup from configuration.
var idNamespace = uuid.MustParse("c4d3aa8c-b0b4-4d1c-9e18-0f9e2b8caf2b")

// SetIDNamespace replaces the namespace used for fallback transaction ids.
func SetIDNamespace(ns uuid.UUID) {
	idNamespace = ns
}

// Transaction is the normalized raw transaction from the provider. The amount
// sign already reflects debit/credit when it reaches the conversion pipeline.
type Transaction struct {
	TransactionID         string     `json:"transaction_id"`
	AccountUID            string     `json:"account_uid"`
	TransactionAmount     string     `json:"transaction_amount"`
	CurrencyCode          string     `json:"currency_code"`
	BookingDate           *time.Time `json:"booking_date"`
	ValueDate             *time.Time `json:"value_date"`
	CreditorName          string     `json:"creditor_name"`
	CreditorIBAN          string     `json:"creditor_iban"`
	DebtorName            string     `json:"debtor_name"`
	DebtorIBAN            string     `json:"debtor_iban"`
	RemittanceInformation string     `json:"remittance_information"`
	AdditionalInformation string     `json:"additional_information"`
	Status                string     `json:"status"`
	Tags                  []string   `json:"tags"`
}

// transactionWire covers both creditor/debtor shapes (flat name field or
// nested object) and remittance information as a string or a list.
type transactionWire struct {
	TransactionID     string `json:"transaction_id"`
	TransactionAmount struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	} `json:"transaction_amount"`
	CreditDebitIndicator string `json:"credit_debit_indicator"`
	BookingDate          string `json:"booking_date"`
	ValueDate            string `json:"value_date"`
	CreditorName         string `json:"creditor_name"`
	Creditor             struct {
		Name string `json:"name"`
	} `json:"creditor"`
	CreditorAccount struct {
		IBAN string `json:"iban"`
	} `json:"creditor_account"`
	DebtorName string `json:"debtor_name"`
	Debtor     struct {
		Name string `json:"name"`
	} `json:"debtor"`
	DebtorAccount struct {
		IBAN string `json:"iban"`
	} `json:"debtor_account"`
	RemittanceInformation json.RawMessage `json:"remittance_information"`
	AdditionalInformation string          `json:"additional_information"`
}

// TransactionFromAPI parses a single transaction entry. The account UID and
// status are stamped by the caller, who knows which wire shape delivered the
// entry. A missing transaction id gets a deterministic UUIDv5 fallback derived
// from the raw entry.
func TransactionFromAPI(raw json.RawMessage, accountUID, status string) (Transaction, error) {
	var wire transactionWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Transaction{}, err
	}

	tx := Transaction{
		TransactionID:         wire.TransactionID,
		AccountUID:            accountUID,
		CurrencyCode:          wire.TransactionAmount.Currency,
		AdditionalInformation: wire.AdditionalInformation,
		Status:                status,
	}

	tx.TransactionAmount = wire.TransactionAmount.Amount
	if tx.TransactionAmount == "" {
		tx.TransactionAmount = "0"
	}

	// The provider may deliver an unsigned amount plus a debit indicator; the
	// sign must reflect debit/credit before filtering and classification.
	if wire.CreditDebitIndicator == "DBIT" && !strings.HasPrefix(tx.TransactionAmount, "-") {
		tx.TransactionAmount = "-" + tx.TransactionAmount
	}

	if wire.BookingDate != "" {
		if parsed, err := parseProviderDate(wire.BookingDate); err == nil {
			tx.BookingDate = &parsed
		}
	}
	if wire.ValueDate != "" {
		if parsed, err := parseProviderDate(wire.ValueDate); err == nil {
			tx.ValueDate = &parsed
		}
	}

	tx.CreditorName = firstNonEmpty(wire.CreditorName, wire.Creditor.Name)
	tx.CreditorIBAN = wire.CreditorAccount.IBAN
	tx.DebtorName = firstNonEmpty(wire.DebtorName, wire.Debtor.Name)
	tx.DebtorIBAN = wire.DebtorAccount.IBAN

	tx.RemittanceInformation = parseRemittance(wire.RemittanceInformation)

	if tx.Status != "" {
		tx.Tags = append(tx.Tags, tx.Status)
	}

	if tx.TransactionID == "" {
		hash := sha256.Sum256(raw)
		id := uuid.NewSHA1(idNamespace, []byte(hex.EncodeToString(hash[:])))
		tx.TransactionID = fmt.Sprintf("eb-%s", id)
	}

	return tx, nil
}

// parseRemittance accepts remittance information as a single string or a list
// of strings, joined with single spaces.
func parseRemittance(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, " ")
	}
	return ""
}

// parseProviderDate accepts the date formats the provider is known to emit.
func parseProviderDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

// Date returns the booking date, the value date as fallback, or now.
func (t Transaction) Date() time.Time {
	if t.BookingDate != nil {
		return *t.BookingDate
	}
	if t.ValueDate != nil {
		return *t.ValueDate
	}
	logger.L.Warn("Transaction has no date, returning now", "transactionID", t.TransactionID)
	return time.Now()
}

// Description returns the remittance information, the additional information
// as fallback, or a placeholder.
func (t Transaction) Description() string {
	if t.RemittanceInformation != "" {
		return t.RemittanceInformation
	}
	if t.AdditionalInformation != "" {
		return t.AdditionalInformation
	}
	logger.L.Warn("Transaction has no description", "transactionID", t.TransactionID)
	return "(no description)"
}

// CleanDescription returns the description with newlines and tabs collapsed.
func (t Transaction) CleanDescription() string {
	description := t.Description()
	replacer := strings.NewReplacer("\n", " ", "\t", " ", "\r", " ")
	return strings.TrimSpace(replacer.Replace(description))
}

// Notes returns the additional information unless it duplicates the
// remittance information.
func (t Transaction) Notes() string {
	if t.AdditionalInformation != "" && t.AdditionalInformation != t.RemittanceInformation {
		return strings.TrimSpace(t.AdditionalInformation)
	}
	return ""
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// ExternalID combines the account UID and the transaction id into the
// external id used for duplicate detection downstream. Both parts are
// whitespace-collapsed and capped at 125 characters.
func (t Transaction) ExternalID() string {
	accountID := truncate(strings.TrimSpace(whitespaceRe.ReplaceAllString(t.AccountUID, " ")), 125)
	transactionID := truncate(strings.TrimSpace(whitespaceRe.ReplaceAllString(t.TransactionID, " ")), 125)
	return strings.TrimSpace(fmt.Sprintf("%s-%s", accountID, transactionID))
}

// SourceName returns the debtor name, if any.
func (t Transaction) SourceName() string { return t.DebtorName }

// SourceIBAN returns the debtor IBAN, if any.
func (t Transaction) SourceIBAN() string { return t.DebtorIBAN }

// DestinationName returns the creditor name, if any.
func (t Transaction) DestinationName() string { return t.CreditorName }

// DestinationIBAN returns the creditor IBAN, if any.
func (t Transaction) DestinationIBAN() string { return t.CreditorIBAN }

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
