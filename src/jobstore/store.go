package jobstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/username/ledgerlink/backend/src/banking"
	"github.com/username/ledgerlink/backend/src/models"
)

// ErrNotFound is returned by Find when no job exists for the given id.
var ErrNotFound = errors.New("import job not found")

// Repository persists import jobs. The pipeline saves after every stage that
// mutates the job, so an interrupted run resumes from its last checkpoint.
type Repository interface {
	Find(id string) (*models.ImportJob, error)
	Save(job *models.ImportJob) error
}

// SQLiteRepository stores jobs in a single table with the variable-shape
// fields serialized as JSON text columns.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Find(id string) (*models.ImportJob, error) {
	row := r.db.QueryRow(`
		SELECT id, state, configuration, service_accounts, conversion_status, created_at, updated_at
		FROM import_jobs WHERE id = ?`, id)

	var (
		job              models.ImportJob
		configuration    sql.NullString
		serviceAccounts  sql.NullString
		conversionStatus sql.NullString
	)
	err := row.Scan(&job.ID, &job.State, &configuration, &serviceAccounts,
		&conversionStatus, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying import job %s: %w", id, err)
	}

	if configuration.Valid && configuration.String != "" {
		job.Configuration = &models.Configuration{}
		if err := json.Unmarshal([]byte(configuration.String), job.Configuration); err != nil {
			return nil, fmt.Errorf("decoding configuration for job %s: %w", id, err)
		}
	}
	if job.Configuration == nil {
		job.Configuration = models.NewConfiguration()
	}
	if serviceAccounts.Valid && serviceAccounts.String != "" {
		if err := json.Unmarshal([]byte(serviceAccounts.String), &job.ServiceAccounts); err != nil {
			return nil, fmt.Errorf("decoding service accounts for job %s: %w", id, err)
		}
	}
	if conversionStatus.Valid && conversionStatus.String != "" {
		job.ConversionStatus = &models.ConversionStatus{}
		if err := json.Unmarshal([]byte(conversionStatus.String), job.ConversionStatus); err != nil {
			return nil, fmt.Errorf("decoding conversion status for job %s: %w", id, err)
		}
	}
	if job.ConversionStatus == nil {
		job.ConversionStatus = &models.ConversionStatus{}
	}
	return &job, nil
}

func (r *SQLiteRepository) Save(job *models.ImportJob) error {
	job.UpdatedAt = time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = job.UpdatedAt
	}

	configuration, err := json.Marshal(job.Configuration)
	if err != nil {
		return fmt.Errorf("encoding configuration for job %s: %w", job.ID, err)
	}
	accounts := job.ServiceAccounts
	if accounts == nil {
		accounts = []banking.Account{}
	}
	serviceAccounts, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("encoding service accounts for job %s: %w", job.ID, err)
	}
	conversionStatus, err := json.Marshal(job.ConversionStatus)
	if err != nil {
		return fmt.Errorf("encoding conversion status for job %s: %w", job.ID, err)
	}

	_, err = r.db.Exec(`
		INSERT INTO import_jobs (id, state, configuration, service_accounts, conversion_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			configuration = excluded.configuration,
			service_accounts = excluded.service_accounts,
			conversion_status = excluded.conversion_status,
			updated_at = excluded.updated_at`,
		job.ID, string(job.State), string(configuration), string(serviceAccounts),
		string(conversionStatus), job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving import job %s: %w", job.ID, err)
	}
	return nil
}
