package services

import (
	"github.com/username/ledgerlink/backend/src/banking"
	"github.com/username/ledgerlink/backend/src/logger"
)

// Credential validation results.
const (
	ValidationNoData        = "nodata"
	ValidationAuthenticated = "authenticated"
	ValidationError         = "error"
)

// AuthenticationValidator checks whether the configured provider credentials
// can produce a signed token at all.
type AuthenticationValidator struct {
	tokens *banking.TokenProvider
}

func NewAuthenticationValidator(tokens *banking.TokenProvider) *AuthenticationValidator {
	return &AuthenticationValidator{tokens: tokens}
}

// Validate reports nodata when no credential source is configured,
// authenticated when signing works, and error otherwise.
func (v *AuthenticationValidator) Validate() (string, error) {
	if !v.tokens.HasCredentials() {
		return ValidationNoData, nil
	}
	if _, err := v.tokens.SignToken(); err != nil {
		logger.L.Error("Credential validation failed to sign a token", "error", err)
		return ValidationError, err
	}
	return ValidationAuthenticated, nil
}
