package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/username/ledgerlink/backend/src/logger"
)

// Account is a ledger account as returned by the accounts endpoint.
type Account struct {
	ID       int64
	Name     string
	IBAN     string
	Type     string
	Currency string
}

// CreateAccountRequest is the payload for creating a new asset account.
type CreateAccountRequest struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	IBAN         string `json:"iban,omitempty"`
	AccountRole  string `json:"account_role,omitempty"`
	CurrencyCode string `json:"currency_code,omitempty"`
}

// Client talks to the personal finance ledger REST API. All requests carry
// the personal access token through the oauth2 transport.
type Client struct {
	base       string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
}

func NewClient(base, token string, timeout time.Duration, version string) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return &Client{
		base:       base,
		httpClient: oauth2.NewClient(context.Background(), src),
		timeout:    timeout,
		userAgent:  fmt.Sprintf("ledgerlink-importer/%s", version),
	}
}

type accountsPage struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Name         string `json:"name"`
			IBAN         string `json:"iban"`
			Type         string `json:"type"`
			CurrencyCode string `json:"currency_code"`
		} `json:"attributes"`
	} `json:"data"`
	Meta struct {
		Pagination struct {
			CurrentPage int `json:"current_page"`
			TotalPages  int `json:"total_pages"`
		} `json:"pagination"`
	} `json:"meta"`
}

// ListAccounts fetches every page of accounts of the given type.
func (c *Client) ListAccounts(ctx context.Context, accountType string) ([]Account, error) {
	var accounts []Account
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("type", accountType)
		query.Set("page", strconv.Itoa(page))

		var result accountsPage
		if err := c.get(ctx, "/api/v1/accounts", query, &result); err != nil {
			return nil, fmt.Errorf("listing %s accounts page %d: %w", accountType, page, err)
		}
		for _, entry := range result.Data {
			id, err := strconv.ParseInt(entry.ID, 10, 64)
			if err != nil {
				logger.L.Warn("Skipping ledger account with non-numeric id", "id", entry.ID)
				continue
			}
			accounts = append(accounts, Account{
				ID:       id,
				Name:     entry.Attributes.Name,
				IBAN:     entry.Attributes.IBAN,
				Type:     entry.Attributes.Type,
				Currency: entry.Attributes.CurrencyCode,
			})
		}
		if result.Meta.Pagination.TotalPages == 0 || page >= result.Meta.Pagination.TotalPages {
			return accounts, nil
		}
	}
}

// CreateAccount creates an account and returns its id.
func (c *Client) CreateAccount(ctx context.Context, req CreateAccountRequest) (int64, error) {
	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.post(ctx, "/api/v1/accounts", req, &result); err != nil {
		return 0, fmt.Errorf("creating ledger account %q: %w", req.Name, err)
	}
	id, err := strconv.ParseInt(result.Data.ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ledger returned non-numeric account id %q", result.Data.ID)
	}
	logger.L.Info("Created ledger account", "id", id, "name", req.Name)
	return id, nil
}

// CollectTargetAccounts returns every asset and liability account keyed by
// its IBAN. Accounts without an IBAN cannot be matched and are skipped.
func (c *Client) CollectTargetAccounts(ctx context.Context) (map[string]int64, error) {
	targets := map[string]int64{}
	for _, accountType := range []string{"asset", "liabilities"} {
		accounts, err := c.ListAccounts(ctx, accountType)
		if err != nil {
			return nil, err
		}
		for _, account := range accounts {
			if account.IBAN == "" {
				continue
			}
			targets[account.IBAN] = account.ID
		}
	}
	logger.L.Debug("Collected ledger target accounts", "count", len(targets))
	return targets, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	endpoint := c.base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, dest)
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	ctx, cancel := context.WithTimeout(req.Context(), c.timeout)
	defer cancel()
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.L.Error("Ledger API request failed",
			"method", req.Method, "url", req.URL.String(),
			"status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("ledger API returned status %d", resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
