package jobstore

import (
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/username/ledgerlink/backend/src/banking"
	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func testRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE import_jobs (
			id TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			configuration TEXT,
			service_accounts TEXT,
			conversion_status TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	require.NoError(t, err)
	return NewSQLiteRepository(db)
}

func TestSaveAndFindRoundTrip(t *testing.T) {
	repo := testRepository(t)

	job := models.NewImportJob()
	job.Configuration.Bank = "Test Bank"
	job.Configuration.Country = "NL"
	job.Configuration.AddSession("sess-1")
	job.Configuration.BindAccount("acct-1", 7)
	job.ServiceAccounts = []banking.Account{{UID: "acct-1", IBAN: "NL69INGB0123456789", Currency: "EUR"}}
	job.ConversionStatus.AddWarning(0, "something minor")
	job.SetState(models.StateContainsContent)

	require.NoError(t, repo.Save(job))

	loaded, err := repo.Find(job.ID)
	require.NoError(t, err)

	assert.Equal(t, job.ID, loaded.ID)
	assert.Equal(t, models.StateContainsContent, loaded.State)
	assert.Equal(t, "Test Bank", loaded.Configuration.Bank)
	assert.Equal(t, []string{"sess-1"}, loaded.Configuration.Sessions)
	assert.Equal(t, int64(7), loaded.Configuration.Accounts["acct-1"])
	require.Len(t, loaded.ServiceAccounts, 1)
	assert.Equal(t, "NL69INGB0123456789", loaded.ServiceAccounts[0].IBAN)
	require.Len(t, loaded.ConversionStatus.Warnings, 1)
	assert.Equal(t, "something minor", loaded.ConversionStatus.Warnings[0].Message)
}

func TestSaveUpdatesExistingJob(t *testing.T) {
	repo := testRepository(t)

	job := models.NewImportJob()
	require.NoError(t, repo.Save(job))

	job.Configuration.Bank = "Updated Bank"
	job.SetState(models.StateAwaitingBankSelection)
	require.NoError(t, repo.Save(job))

	loaded, err := repo.Find(job.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated Bank", loaded.Configuration.Bank)
	assert.Equal(t, models.StateAwaitingBankSelection, loaded.State)
}

func TestFindUnknownJobReturnsErrNotFound(t *testing.T) {
	repo := testRepository(t)
	_, err := repo.Find("no-such-job")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindFillsEmptyStructures(t *testing.T) {
	repo := testRepository(t)
	_, err := repo.db.Exec(`INSERT INTO import_jobs (id, state) VALUES ('bare', 'new')`)
	require.NoError(t, err)

	loaded, err := repo.Find("bare")
	require.NoError(t, err)
	require.NotNil(t, loaded.Configuration)
	require.NotNil(t, loaded.ConversionStatus)
	assert.NotNil(t, loaded.Configuration.Accounts)
}
