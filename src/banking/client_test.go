package banking

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	_, keyPEM := testKeyPEM(t)
	tokens := NewTokenProvider(NewCredentials(CredentialSource{AppID: "test-app", PrivateKey: keyPEM}))
	return NewClient(server.URL, tokens, 5*time.Second, "test")
}

func TestAuthenticatedGetSendsBearerAndUserAgent(t *testing.T) {
	var gotAuth, gotAgent, gotAccept string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"ok":true}`))
	})

	var dest map[string]bool
	err := client.AuthenticatedGet(context.Background(), "aspsps", url.Values{"country": {"NL"}}, &dest)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotAuth, "Bearer "), "expected a bearer token, got %q", gotAuth)
	assert.Equal(t, "ledgerlink-importer/test", gotAgent)
	assert.Equal(t, "application/json", gotAccept)
	assert.True(t, dest["ok"])
}

func TestNon2xxMapsToHTTPError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"access denied"}`))
	})

	err := client.AuthenticatedGet(context.Background(), "sessions/abc", nil, &struct{}{})
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "access denied")
	assert.Contains(t, httpErr.Error(), "Enable Banking API error")
}

func TestDecodeFailureMapsToHTTPError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`this is not json`))
	})

	var dest map[string]any
	err := client.AuthenticatedGet(context.Background(), "aspsps", nil, &dest)
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Contains(t, httpErr.Message, "could not decode JSON")
}

func TestAuthenticatedPostSendsJSONBody(t *testing.T) {
	var gotContentType string
	var gotBody string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.Write([]byte(`{}`))
	})

	err := client.AuthenticatedPost(context.Background(), "sessions", map[string]string{"code": "xyz"}, &struct{}{})
	require.NoError(t, err)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"code":"xyz"}`, gotBody)
}

func TestSigningFailureSurfacesAsHTTPError(t *testing.T) {
	tokens := NewTokenProvider(NewCredentials(CredentialSource{AppID: "app", PrivateKey: "broken"}))
	client := NewClient("http://127.0.0.1:0", tokens, time.Second, "test")

	err := client.AuthenticatedGet(context.Background(), "aspsps", nil, nil)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
}
