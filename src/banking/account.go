package banking

import (
	"encoding/json"

	"github.com/username/ledgerlink/backend/src/logger"
)

// Account is the normalized service account. Its JSON representation is the
// local (persisted) shape, which stays stable across provider API revisions;
// the two wire shapes (rich and legacy) are confined to AccountFromAPI.
type Account struct {
	UID                 string           `json:"uid"`
	IBAN                string           `json:"iban"`
	BBAN                string           `json:"bban"`
	OtherIdentification string           `json:"other_identification"`
	OtherScheme         string           `json:"other_scheme"`
	Currency            string           `json:"currency"`
	OwnerName           string           `json:"owner_name"`
	DisplayName         string           `json:"display_name"`
	Product             string           `json:"product"`
	AccountType         string           `json:"account_type"` // API: cash_account_type (CACC, CARD, CASH, LOAN, OTHR, SVGS)
	Usage               string           `json:"usage"`
	Details             string           `json:"details"`
	Balances            []map[string]any `json:"balances"`
}

// accountWire covers both wire shapes for an account: the rich initial schema
// (account_id object, all_account_ids, cash_account_type) and the flattened
// legacy shape (iban, account_holder_name, name, account_type). Both must
// normalize to the same Account for any field present in both.
type accountWire struct {
	UID        string `json:"uid"`
	AccountUID string `json:"account_uid"`
	AccountID  struct {
		IBAN  string `json:"iban"`
		Other struct {
			Identification string `json:"identification"`
			SchemeName     string `json:"scheme_name"`
		} `json:"other"`
	} `json:"account_id"`
	IBAN          string `json:"iban"`
	AllAccountIDs []struct {
		SchemeName     string `json:"scheme_name"`
		Identification string `json:"identification"`
	} `json:"all_account_ids"`
	Currency          string           `json:"currency"`
	OwnerName         string           `json:"owner_name"`
	AccountHolderName string           `json:"account_holder_name"`
	DisplayName       string           `json:"display_name"`
	Name              string           `json:"name"`
	Product           string           `json:"product"`
	CashAccountType   string           `json:"cash_account_type"`
	AccountType       string           `json:"account_type"`
	Usage             string           `json:"usage"`
	Details           string           `json:"details"`
	Balances          []map[string]any `json:"balances"`
}

// AccountFromAPI parses a single account entry from the provider, accepting
// the rich shape with the legacy flat fields as fallback.
func AccountFromAPI(raw json.RawMessage) (Account, error) {
	var wire accountWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Account{}, err
	}

	account := Account{
		Currency: wire.Currency,
		Product:  wire.Product,
		Usage:    wire.Usage,
		Details:  wire.Details,
		Balances: wire.Balances,
	}

	account.UID = firstNonEmpty(wire.UID, wire.AccountUID)
	account.IBAN = firstNonEmpty(wire.AccountID.IBAN, wire.IBAN)
	account.OtherIdentification = wire.AccountID.Other.Identification
	account.OtherScheme = wire.AccountID.Other.SchemeName

	// Scan all_account_ids for BBAN and (as fallback) IBAN identifications.
	for _, entry := range wire.AllAccountIDs {
		if entry.SchemeName == "BBAN" && account.BBAN == "" {
			account.BBAN = entry.Identification
		}
		if entry.SchemeName == "IBAN" && account.IBAN == "" {
			account.IBAN = entry.Identification
		}
	}

	account.OwnerName = firstNonEmpty(wire.OwnerName, wire.AccountHolderName)
	account.DisplayName = firstNonEmpty(wire.DisplayName, wire.Name)
	account.AccountType = firstNonEmpty(wire.CashAccountType, wire.AccountType)

	return account, nil
}

// AccountFromLocal parses the persisted local shape.
func AccountFromLocal(raw json.RawMessage) (Account, error) {
	var account Account
	if err := json.Unmarshal(raw, &account); err != nil {
		return Account{}, err
	}
	return account, nil
}

// ToLocal renders the persisted local shape.
func (a Account) ToLocal() (json.RawMessage, error) {
	return json.Marshal(a)
}

// FullName returns the best available display name for the account.
func (a Account) FullName() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	if a.OwnerName != "" {
		return a.OwnerName
	}
	if a.IBAN != "" {
		return a.IBAN
	}
	if a.OtherIdentification != "" {
		return a.OtherIdentification
	}
	if a.BBAN != "" {
		return a.BBAN
	}
	logger.L.Warn("Account has no field with a name, returning \"(no name)\"", "uid", a.UID)
	return "(no name)"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
