package banking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/username/ledgerlink/backend/src/logger"
)

// Client performs authenticated calls against the Enable Banking API. Every
// call mints a fresh bearer token; callers never retry automatically, retry
// policy belongs to the caller.
type Client struct {
	base       string
	tokens     *TokenProvider
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
}

func NewClient(base string, tokens *TokenProvider, timeout time.Duration, version string) *Client {
	return &Client{
		base:       base,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		userAgent:  fmt.Sprintf("ledgerlink-importer/%s", version),
	}
}

// AuthenticatedGet performs a GET against the provider and decodes the JSON
// response into dest. All failures map to *HTTPError.
func (c *Client) AuthenticatedGet(ctx context.Context, path string, query url.Values, dest any) error {
	fullURL := fmt.Sprintf("%s/%s", c.base, path)
	if len(query) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, query.Encode())
	}
	logger.FromContext(ctx).Debug("Enable Banking authenticatedGet", "url", fullURL)
	return c.do(ctx, http.MethodGet, fullURL, nil, dest)
}

// AuthenticatedPost performs a POST with a JSON body against the provider and
// decodes the JSON response into dest. All failures map to *HTTPError.
func (c *Client) AuthenticatedPost(ctx context.Context, path string, body any, dest any) error {
	fullURL := fmt.Sprintf("%s/%s", c.base, path)
	logger.FromContext(ctx).Debug("Enable Banking authenticatedPost", "url", fullURL)

	payload, err := json.Marshal(body)
	if err != nil {
		return &HTTPError{Message: fmt.Sprintf("could not encode request body: %s", err), Err: err}
	}
	return c.do(ctx, http.MethodPost, fullURL, payload, dest)
}

func (c *Client) do(ctx context.Context, method, fullURL string, payload []byte, dest any) error {
	token, err := c.tokens.SignToken()
	if err != nil {
		return &HTTPError{Message: err.Error(), Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return &HTTPError{Message: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		logger.FromContext(ctx).Error("Enable Banking API error", "error", err)
		return &HTTPError{Message: err.Error(), Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return &HTTPError{Message: err.Error(), StatusCode: res.StatusCode, Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		// The body is logged for operators but never surfaced to end users.
		logger.FromContext(ctx).Error("Enable Banking API error",
			"status", res.StatusCode, "body", string(body))
		return &HTTPError{
			Message:    fmt.Sprintf("%s %s returned status %d", method, fullURL, res.StatusCode),
			StatusCode: res.StatusCode,
			Body:       string(body),
		}
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &HTTPError{
			Message:    fmt.Sprintf("could not decode JSON: %s", err),
			StatusCode: res.StatusCode,
			Body:       string(body),
			Err:        err,
		}
	}
	return nil
}
