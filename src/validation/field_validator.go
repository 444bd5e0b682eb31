package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	MaxBankNameLength = 255
	CountryCodeLength = 2
)

var (
	countryCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)
	ibanPattern        = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Za-z0-9]{1,30}$`)
)

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateCountryCode checks for a two-letter uppercase ISO 3166-1 code.
func ValidateCountryCode(s string) error {
	if !countryCodePattern.MatchString(s) {
		return fmt.Errorf("%w: country must be a two-letter uppercase code, got '%s'", ErrValidationFailed, s)
	}
	return nil
}

// ValidateIBAN checks the general IBAN shape. Per-country lengths are the
// provider's concern.
func ValidateIBAN(s string) error {
	if !ibanPattern.MatchString(s) {
		return fmt.Errorf("%w: '%s' is not a plausible IBAN", ErrValidationFailed, s)
	}
	return nil
}

// ValidateDateString checks a "2006-01-02" date bound. Empty is valid and
// means unbounded.
func ValidateDateString(s, fieldName string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("%w: %s must be formatted YYYY-MM-DD, got '%s'", ErrValidationFailed, fieldName, s)
	}
	return nil
}
