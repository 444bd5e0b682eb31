package banking

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/username/ledgerlink/backend/src/logger"
)

const tokenExpirySeconds = 3600 // 1 hour

// CredentialSource is one place credentials can come from: either static
// configuration or a job-scoped override supplied by the user.
type CredentialSource struct {
	AppID      string
	PrivateKey string // PEM-encoded RSA private key
}

// Credentials resolves the application identity from two layers: a job-scoped
// override takes precedence, static configuration is the fallback.
type Credentials struct {
	override CredentialSource
	static   CredentialSource
}

func NewCredentials(static CredentialSource) *Credentials {
	return &Credentials{static: static}
}

// SetOverride installs job-scoped credentials that win over configuration.
func (c *Credentials) SetOverride(override CredentialSource) {
	c.override = override
}

func (c *Credentials) AppID() string {
	if c.override.AppID != "" {
		return c.override.AppID
	}
	return c.static.AppID
}

func (c *Credentials) PrivateKey() string {
	if c.override.PrivateKey != "" {
		return c.override.PrivateKey
	}
	return c.static.PrivateKey
}

// TokenProvider mints RS256 JWT tokens for Enable Banking API authentication.
// Tokens are cheap to mint and must never be sent near expiry, so a fresh one
// is generated for every outbound call.
type TokenProvider struct {
	creds *Credentials
	now   func() time.Time
}

func NewTokenProvider(creds *Credentials) *TokenProvider {
	return &TokenProvider{creds: creds, now: time.Now}
}

// HasCredentials reports whether both the application ID and the private key
// are available from either resolution layer.
func (p *TokenProvider) HasCredentials() bool {
	return p.creds.AppID() != "" && p.creds.PrivateKey() != ""
}

// SignToken generates a JWT for Enable Banking API authentication. The key ID
// (kid) in the header must be the application ID.
func (p *TokenProvider) SignToken() (string, error) {
	logger.L.Debug("Generating Enable Banking JWT token")

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(p.creds.PrivateKey()))
	if err != nil {
		return "", fmt.Errorf("could not parse Enable Banking private key: %w", err)
	}

	now := p.now()
	claims := jwt.MapClaims{
		"iss": "enablebanking.com",
		"aud": "api.enablebanking.com",
		"iat": now.Unix(),
		"exp": now.Unix() + tokenExpirySeconds,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = p.creds.AppID()

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("could not sign Enable Banking token: %w", err)
	}
	return signed, nil
}
