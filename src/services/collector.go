package services

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/username/ledgerlink/backend/src/banking"
	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/models"
)

// sessionCacheTTL bounds how long resolved accounts are reused before the
// provider is asked again.
const sessionCacheTTL = 30 * time.Minute

// SessionAccounts is the provider surface the collector needs. Satisfied by
// *banking.Client.
type SessionAccounts interface {
	GetSessionAccounts(ctx context.Context, sessionID string) (*banking.AccountsResponse, error)
}

// AccountCollector resolves the accounts behind every stored session. Results
// are cached in their local shape so cache hits stay schema-stable across
// provider API revisions.
type AccountCollector struct {
	client   SessionAccounts
	cache    *cache.Cache
	useCache bool
}

func NewAccountCollector(client SessionAccounts, sessionCache *cache.Cache, useCache bool) *AccountCollector {
	if sessionCache == nil {
		sessionCache = cache.New(sessionCacheTTL, 10*time.Minute)
	}
	return &AccountCollector{client: client, cache: sessionCache, useCache: useCache}
}

// Collect attaches service accounts to the job. A no-op when the callback
// already delivered them. A provider failure is fatal for the run; zero
// accounts is not, it only warns about restricted clients.
func (c *AccountCollector) Collect(ctx context.Context, job *models.ImportJob) error {
	if len(job.ServiceAccounts) > 0 {
		logger.L.Debug("Accounts already attached, skipping collection", "jobID", job.ID)
		return nil
	}

	var collected []banking.Account
	for _, sessionID := range job.Configuration.Sessions {
		key := "eb_session_" + sessionID
		if cached, found := c.cache.Get(key); found && c.useCache {
			if accounts, ok := cached.([]banking.Account); ok {
				logger.L.Debug("Session accounts served from cache", "sessionID", sessionID)
				collected = append(collected, accounts...)
				continue
			}
		}

		response, err := c.client.GetSessionAccounts(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("collecting accounts for session %s: %w", sessionID, err)
		}
		if c.useCache {
			c.cache.Set(key, response.Accounts, sessionCacheTTL)
		}
		collected = append(collected, response.Accounts...)
	}

	if len(collected) == 0 {
		job.ConversionStatus.AddWarning(0,
			"The provider returned zero accounts. Restricted clients only see accounts that were pre-authorized for the application.")
		return nil
	}

	job.ServiceAccounts = collected
	logger.L.Info("Collected service accounts", "jobID", job.ID, "count", len(collected))
	return nil
}
