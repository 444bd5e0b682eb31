package models

// TransactionGroup is the ledger-facing submission unit. Every generated
// transaction is wrapped in its own group so duplicate detection applies per
// transaction.
type TransactionGroup struct {
	ApplyRules           bool                   `json:"apply_rules"`
	ErrorIfDuplicateHash bool                   `json:"error_if_duplicate_hash"`
	Transactions         []CanonicalTransaction `json:"transactions"`
}

// CanonicalTransaction is the classified, ledger-ready form of a provider
// transaction. Amounts are canonical fixed-scale decimal strings and are
// always positive; direction lives in Type.
type CanonicalTransaction struct {
	Type              string   `json:"type"`
	Description       string   `json:"description"`
	Date              string   `json:"date"`
	Datetime          string   `json:"datetime,omitempty"`
	Amount            string   `json:"amount"`
	PaymentDate       string   `json:"payment_date,omitempty"`
	Order             int      `json:"order"`
	CurrencyCode      string   `json:"currency_code,omitempty"`
	Tags              []string `json:"tags,omitempty"`
	Notes             string   `json:"notes,omitempty"`
	ExternalID        string   `json:"external_id,omitempty"`
	InternalReference string   `json:"internal_reference,omitempty"`

	SourceID   int64  `json:"source_id,omitempty"`
	SourceName string `json:"source_name,omitempty"`
	SourceIBAN string `json:"source_iban,omitempty"`

	DestinationID   int64  `json:"destination_id,omitempty"`
	DestinationName string `json:"destination_name,omitempty"`
	DestinationIBAN string `json:"destination_iban,omitempty"`
}

const (
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeDeposit    = "deposit"
	TransactionTypeTransfer   = "transfer"
)
