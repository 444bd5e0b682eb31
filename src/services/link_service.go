package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/username/ledgerlink/backend/src/banking"
	"github.com/username/ledgerlink/backend/src/jobstore"
	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/models"
)

// Next steps a link operation can resolve to.
const (
	NextSelectBank   = "select_bank"
	NextRedirect     = "redirect"
	NextContentReady = "content_ready"
)

// LinkOutcome tells the caller where to send the user next. Message carries
// an optional user-facing note, such as the already-authorized recovery.
type LinkOutcome struct {
	Next        string `json:"next"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Message     string `json:"message,omitempty"`
}

// ProviderLink is the provider surface the authorization flow needs.
// Satisfied by *banking.Client.
type ProviderLink interface {
	PostAuth(ctx context.Context, params banking.AuthParams) (*banking.AuthResponse, error)
	PostSession(ctx context.Context, code string) (*banking.SessionResponse, error)
}

// LinkService drives the authorization flow: building the consent redirect
// and handling the provider callback.
type LinkService struct {
	client       ProviderLink
	repository   jobstore.Repository
	callbackBase string
}

func NewLinkService(client ProviderLink, repository jobstore.Repository, callbackBase string) *LinkService {
	return &LinkService{client: client, repository: repository, callbackBase: callbackBase}
}

// Build requests a consent for the job's selected bank and returns the
// provider redirect. No bank selected is not an error: the user is routed
// back to bank selection.
func (s *LinkService) Build(ctx context.Context, job *models.ImportJob) (*LinkOutcome, error) {
	if job.Configuration.Bank == "" {
		logger.L.Info("No bank selected yet, routing to bank selection", "jobID", job.ID)
		job.SetState(models.StateAwaitingBankSelection)
		if err := s.repository.Save(job); err != nil {
			return nil, err
		}
		return &LinkOutcome{Next: NextSelectBank}, nil
	}

	params := banking.AuthParams{
		Aspsp:       job.Configuration.Bank,
		Country:     job.Configuration.Country,
		State:       job.ID,
		RedirectURL: coerceHTTPS(s.callbackBase + "/api/callback"),
	}
	if job.Configuration.ConsentValiditySeconds > 0 {
		params.ValidUntil = time.Now().Add(time.Duration(job.Configuration.ConsentValiditySeconds) * time.Second)
	}

	response, err := s.client.PostAuth(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("requesting consent for job %s: %w", job.ID, err)
	}

	job.Configuration.AuthID = response.AuthID
	job.SetState(models.StateAwaitingCallback)
	if err := s.repository.Save(job); err != nil {
		return nil, err
	}
	logger.L.Info("Consent issued, redirecting user to provider",
		"jobID", job.ID, "authID", response.AuthID)
	return &LinkOutcome{Next: NextRedirect, RedirectURL: response.URL}, nil
}

// Callback handles the provider redirect back to us. The state parameter is
// the job id and must have been resolved to the job by the caller.
func (s *LinkService) Callback(ctx context.Context, job *models.ImportJob, code, state, providerError string) (*LinkOutcome, error) {
	if code == "" {
		message := providerError
		if message == "" {
			message = "Unknown error"
		}
		return nil, newDomainError(CodeMissingCode, message)
	}
	if state == "" {
		return nil, newDomainError(CodeMissingState, "The callback carried no state parameter.")
	}

	// The user may reload the callback page. When a session and accounts are
	// already on the job the code was consumed before; do not exchange again.
	if len(job.Configuration.Sessions) > 0 && len(job.ServiceAccounts) > 0 {
		logger.L.Info("Callback replay, session already established", "jobID", job.ID)
		job.SetState(models.StateContainsContent)
		if err := s.repository.Save(job); err != nil {
			return nil, err
		}
		return &LinkOutcome{Next: NextContentReady}, nil
	}

	response, err := s.client.PostSession(ctx, code)
	if err != nil {
		if isAlreadyAuthorized(err) {
			return s.recoverAlreadyAuthorized(job)
		}
		return nil, fmt.Errorf("exchanging code for job %s: %w", job.ID, err)
	}

	job.Configuration.AddSession(response.SessionID)
	if accounts := response.ServiceAccounts(); len(accounts) > 0 {
		job.ServiceAccounts = accounts
	}
	job.SetState(models.StateContainsContent)
	if err := s.repository.Save(job); err != nil {
		return nil, err
	}
	logger.L.Info("Session established", "jobID", job.ID,
		"sessionID", response.SessionID, "accounts", len(job.ServiceAccounts))
	return &LinkOutcome{Next: NextContentReady}, nil
}

// recoverAlreadyAuthorized handles the provider refusing a code that was
// consumed before. With a stored session the import can continue; without one
// the user must start the bank flow over.
func (s *LinkService) recoverAlreadyAuthorized(job *models.ImportJob) (*LinkOutcome, error) {
	if len(job.Configuration.Sessions) > 0 {
		logger.L.Info("Code already consumed but a session exists, continuing", "jobID", job.ID)
		job.SetState(models.StateContainsContent)
		if err := s.repository.Save(job); err != nil {
			return nil, err
		}
		return &LinkOutcome{Next: NextContentReady}, nil
	}
	logger.L.Warn("Code already consumed and no session stored, restarting selection", "jobID", job.ID)
	return &LinkOutcome{
		Next:    NextSelectBank,
		Message: "The authorization code was already used. Please select your bank again.",
	}, nil
}

// isAlreadyAuthorized detects the provider's already-authorized refusal on a
// session exchange.
func isAlreadyAuthorized(err error) bool {
	var httpErr *banking.HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	haystack := strings.ToLower(httpErr.Message + " " + httpErr.Body)
	return strings.Contains(haystack, "already authorized")
}

// coerceHTTPS rewrites a plaintext callback URL. Providers reject plain HTTP
// redirect targets.
func coerceHTTPS(url string) string {
	if strings.HasPrefix(url, "http://") {
		return "https://" + strings.TrimPrefix(url, "http://")
	}
	return url
}
