package models

import "slices"

// Configuration is owned by the job and accumulates sessions, account
// bindings and date-range preferences across the import flow.
type Configuration struct {
	Bank    string `json:"bank"`
	Country string `json:"country"`

	// Sessions is append-only: an entry is never removed once added.
	Sessions []string `json:"sessions"`

	// AuthID is the last authorization id issued by the provider.
	AuthID string `json:"auth_id"`

	// Date-range bounds for the download, "2006-01-02", empty = unbounded.
	DateNotBefore string `json:"date_not_before"`
	DateNotAfter  string `json:"date_not_after"`

	// ConsentValiditySeconds overrides the requested consent validity.
	// Zero means the 90-day default.
	ConsentValiditySeconds int64 `json:"consent_validity_seconds"`

	PendingTransactions         bool `json:"pending_transactions"`
	IgnoreDuplicateTransactions bool `json:"ignore_duplicate_transactions"`
	Rules                       bool `json:"rules"`

	// Accounts maps the provider account UID to the local ledger account id.
	// Zero means the ledger account has not been created yet.
	Accounts map[string]int64 `json:"accounts"`
}

func NewConfiguration() *Configuration {
	return &Configuration{Accounts: map[string]int64{}}
}

// AddSession appends a session id. Duplicates are ignored so a replayed
// callback cannot grow the list.
func (c *Configuration) AddSession(sessionID string) {
	if sessionID == "" || slices.Contains(c.Sessions, sessionID) {
		return
	}
	c.Sessions = append(c.Sessions, sessionID)
}

// BindAccount records the ledger account id for a provider account UID.
func (c *Configuration) BindAccount(accountUID string, ledgerID int64) {
	if c.Accounts == nil {
		c.Accounts = map[string]int64{}
	}
	c.Accounts[accountUID] = ledgerID
}
