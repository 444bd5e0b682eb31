package banking

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/username/ledgerlink/backend/src/logger"
)

// AuthResponse is the provider's answer to a consent request.
type AuthResponse struct {
	URL    string
	AuthID string
}

func (r *AuthResponse) UnmarshalJSON(data []byte) error {
	var wire struct {
		URL             string `json:"url"`
		AuthID          string `json:"auth_id"`
		AuthorizationID string `json:"authorization_id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.URL = wire.URL
	r.AuthID = firstNonEmpty(wire.AuthID, wire.AuthorizationID)
	return nil
}

// SessionResponse is the provider's answer to a code exchange. Accounts are
// kept raw; they follow the account wire shapes and are parsed on demand.
type SessionResponse struct {
	SessionID  string
	Accounts   []json.RawMessage
	Aspsp      string
	PsuType    string // personal or business
	Authorized bool
	Status     string
	ValidUntil *time.Time
}

func (r *SessionResponse) UnmarshalJSON(data []byte) error {
	var wire struct {
		SessionID string            `json:"session_id"`
		ID        string            `json:"id"`
		Accounts  []json.RawMessage `json:"accounts"`
		Aspsp     json.RawMessage   `json:"aspsp"`
		PsuType   string            `json:"psu_type"`
		Access    struct {
			ValidUntil string `json:"valid_until"`
		} `json:"access"`
		Authorized bool   `json:"authorized"`
		Status     string `json:"status"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	r.SessionID = firstNonEmpty(wire.SessionID, wire.ID)
	r.Accounts = wire.Accounts
	r.PsuType = wire.PsuType
	r.Authorized = wire.Authorized
	r.Status = wire.Status

	// aspsp can be an object with a name or a plain string
	if len(wire.Aspsp) > 0 {
		var aspspObj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(wire.Aspsp, &aspspObj); err == nil && aspspObj.Name != "" {
			r.Aspsp = aspspObj.Name
		} else {
			var aspspName string
			if err := json.Unmarshal(wire.Aspsp, &aspspName); err == nil {
				r.Aspsp = aspspName
			}
		}
	}

	if wire.Access.ValidUntil != "" {
		if parsed, err := time.Parse(time.RFC3339, wire.Access.ValidUntil); err == nil {
			r.ValidUntil = &parsed
		}
	}
	return nil
}

// ServiceAccounts parses the accounts embedded in the session exchange.
func (r *SessionResponse) ServiceAccounts() []Account {
	accounts := make([]Account, 0, len(r.Accounts))
	for _, raw := range r.Accounts {
		account, err := AccountFromAPI(raw)
		if err != nil {
			logger.L.Warn("Could not parse account from session response", "error", err)
			continue
		}
		accounts = append(accounts, account)
	}
	return accounts
}

// AccountsResponse is the answer of the accounts-for-session call. A null or
// non-list accounts value (restricted clients without pre-authorization) is
// treated as empty.
type AccountsResponse struct {
	SessionID string
	Accounts  []Account
}

func parseAccountsResponse(data []byte, sessionID string) (*AccountsResponse, error) {
	var wire struct {
		Accounts json.RawMessage `json:"accounts"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}

	response := &AccountsResponse{SessionID: sessionID}

	var entries []json.RawMessage
	if len(wire.Accounts) > 0 {
		if err := json.Unmarshal(wire.Accounts, &entries); err != nil {
			entries = nil
		}
	}
	for _, raw := range entries {
		account, err := AccountFromAPI(raw)
		if err != nil {
			logger.L.Warn("Could not parse account entry", "sessionID", sessionID, "error", err)
			continue
		}
		response.Accounts = append(response.Accounts, account)
	}
	return response, nil
}

// TransactionsResponse is the normalized set of transactions for one account.
type TransactionsResponse struct {
	AccountUID   string
	Transactions []Transaction
}

// parseTransactionsResponse normalizes the two shapes the provider returns:
//  1. Flat list: {"transactions": [{...}]} with a status field per item,
//     two-letter codes mapped to booked/pending.
//  2. Nested lists: {"transactions": {"booked": [...], "pending": [...]}}.
//
// Both shapes produce the same Transaction set with the account UID and
// status stamped on every entry.
func parseTransactionsResponse(data []byte, accountUID string) (*TransactionsResponse, error) {
	var wire struct {
		Transactions json.RawMessage `json:"transactions"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}

	response := &TransactionsResponse{AccountUID: accountUID}
	if len(wire.Transactions) == 0 {
		return response, nil
	}

	var nested struct {
		Booked  []json.RawMessage `json:"booked"`
		Pending []json.RawMessage `json:"pending"`
	}
	if err := json.Unmarshal(wire.Transactions, &nested); err == nil && (nested.Booked != nil || nested.Pending != nil) {
		logger.L.Debug("Transactions response in nested format",
			"booked", len(nested.Booked), "pending", len(nested.Pending))
		for _, raw := range nested.Booked {
			response.append(raw, accountUID, StatusBooked)
		}
		for _, raw := range nested.Pending {
			response.append(raw, accountUID, StatusPending)
		}
		return response, nil
	}

	var flat []json.RawMessage
	if err := json.Unmarshal(wire.Transactions, &flat); err != nil {
		return nil, err
	}
	logger.L.Debug("Transactions response in flat format", "count", len(flat))
	for _, raw := range flat {
		var entry struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(raw, &entry)
		// Map provider status values: BOOK -> booked, PDNG -> pending.
		status := StatusBooked
		if entry.Status != "" && entry.Status != "BOOK" {
			status = StatusPending
		}
		response.append(raw, accountUID, status)
	}
	return response, nil
}

func (r *TransactionsResponse) append(raw json.RawMessage, accountUID, status string) {
	tx, err := TransactionFromAPI(raw, accountUID, status)
	if err != nil {
		logger.L.Warn("Could not parse transaction entry", "accountUID", accountUID, "error", err)
		return
	}
	r.Transactions = append(r.Transactions, tx)
}

// parseBanksResponse parses the bank discovery listing and sorts it
// case-insensitively by name.
func parseBanksResponse(data []byte) ([]Bank, error) {
	var wire struct {
		Aspsps []Bank `json:"aspsps"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	banks := wire.Aspsps
	for i := range banks {
		if banks[i].MaximumConsentValidity == 0 {
			banks[i].MaximumConsentValidity = defaultConsentValiditySeconds
		}
	}
	sort.SliceStable(banks, func(i, j int) bool {
		return strings.ToLower(banks[i].Name) < strings.ToLower(banks[j].Name)
	})
	return banks, nil
}
