package banking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// AuthParams carries everything the consent request needs. ValidUntil falls
// back to 90 days from now when zero.
type AuthParams struct {
	Aspsp       string
	Country     string
	State       string
	RedirectURL string
	PsuType     string
	ValidUntil  time.Time
}

// PostAuth asks the provider to issue a consent and returns the URL the user
// must be redirected to, plus the authorization id.
func (c *Client) PostAuth(ctx context.Context, params AuthParams) (*AuthResponse, error) {
	validUntil := params.ValidUntil
	if validUntil.IsZero() {
		validUntil = time.Now().Add(90 * 24 * time.Hour)
	}
	psuType := params.PsuType
	if psuType == "" {
		psuType = "personal"
	}

	body := map[string]any{
		"access": map[string]any{
			"valid_until": validUntil.Format(time.RFC3339),
		},
		"aspsp": map[string]any{
			"name":    params.Aspsp,
			"country": params.Country,
		},
		"state":        params.State,
		"redirect_url": params.RedirectURL,
		"psu_type":     psuType,
	}

	var response AuthResponse
	if err := c.AuthenticatedPost(ctx, "auth", body, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// PostSession exchanges an authorization code for a session.
func (c *Client) PostSession(ctx context.Context, code string) (*SessionResponse, error) {
	var response SessionResponse
	if err := c.AuthenticatedPost(ctx, "sessions", map[string]string{"code": code}, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// GetSessionAccounts fetches the session data, which includes the authorized
// accounts.
func (c *Client) GetSessionAccounts(ctx context.Context, sessionID string) (*AccountsResponse, error) {
	var raw json.RawMessage
	if err := c.AuthenticatedGet(ctx, fmt.Sprintf("sessions/%s", sessionID), nil, &raw); err != nil {
		return nil, err
	}
	response, err := parseAccountsResponse(raw, sessionID)
	if err != nil {
		return nil, &HTTPError{Message: fmt.Sprintf("could not decode JSON: %s", err), Err: err}
	}
	return response, nil
}

// GetTransactions downloads the transactions for one account, bounded by the
// optional date window ("2006-01-02" strings, empty means unbounded).
func (c *Client) GetTransactions(ctx context.Context, accountUID, dateFrom, dateTo string) (*TransactionsResponse, error) {
	query := url.Values{}
	if dateFrom != "" {
		query.Set("date_from", dateFrom)
	}
	if dateTo != "" {
		query.Set("date_to", dateTo)
	}

	var raw json.RawMessage
	if err := c.AuthenticatedGet(ctx, fmt.Sprintf("accounts/%s/transactions", accountUID), query, &raw); err != nil {
		return nil, err
	}
	response, err := parseTransactionsResponse(raw, accountUID)
	if err != nil {
		return nil, &HTTPError{Message: fmt.Sprintf("could not decode JSON: %s", err), Err: err}
	}
	return response, nil
}

// GetBanks lists the ASPSPs available in a country, sorted case-insensitively
// by name.
func (c *Client) GetBanks(ctx context.Context, country string) ([]Bank, error) {
	query := url.Values{}
	query.Set("country", country)

	var raw json.RawMessage
	if err := c.AuthenticatedGet(ctx, "aspsps", query, &raw); err != nil {
		return nil, err
	}
	banks, err := parseBanksResponse(raw)
	if err != nil {
		return nil, &HTTPError{Message: fmt.Sprintf("could not decode JSON: %s", err), Err: err}
	}
	return banks, nil
}
