package services

// Stable short codes for domain failures, used for operator triage. The
// Message carries the human-readable text shown to the end user.
const (
	CodeMissingCode       = "missing code"
	CodeMissingState      = "missing state"
	CodeAlreadyAuthorized = "already authorized"
	CodeNoAccounts        = "no accounts"
	CodeNothingDownloaded = "no transactions downloaded"
)

// DomainError is a business-rule failure, distinct from transport errors
// raised by the provider client.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func newDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}
