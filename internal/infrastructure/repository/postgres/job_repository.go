package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

type ScoringJobRepository struct {
	db *sql.DB
}

func NewScoringJobRepository(db *sql.DB) *ScoringJobRepository {
	return &ScoringJobRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ScoringJobRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101701)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS scoring_jobs (
	id TEXT PRIMARY KEY,
	text TEXT NOT NULL,
	language TEXT NOT NULL,
	weighting JSONB,
	status TEXT NOT NULL,
	report JSONB,
	score DOUBLE PRECISION,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scoring_jobs_status ON scoring_jobs(status);
CREATE INDEX IF NOT EXISTS idx_scoring_jobs_created_at ON scoring_jobs(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ScoringJobRepository) Create(ctx context.Context, job *domain.ScoringJob) error {
	weightingJSON, err := marshalNullable(job.Weighting)
	if err != nil {
		return fmt.Errorf("marshal weighting: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO scoring_jobs (
	id, text, language, weighting, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		job.ID, job.Text, job.Language, weightingJSON, string(job.Status), job.Error, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert scoring job: %w", err)
	}
	return nil
}

func (r *ScoringJobRepository) GetByID(ctx context.Context, id string) (*domain.ScoringJob, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, text, language, weighting, status, report, error_message, created_at, updated_at
FROM scoring_jobs
WHERE id = $1
`, id)

	var job domain.ScoringJob
	var weightingRaw, reportRaw []byte
	var status string

	err := row.Scan(
		&job.ID, &job.Text, &job.Language, &weightingRaw, &status, &reportRaw,
		&job.Error, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrJobNotFound, "get scoring job", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan scoring job: %w", err)
	}

	if len(weightingRaw) > 0 {
		var weighting domain.WeightingConfig
		if err := json.Unmarshal(weightingRaw, &weighting); err != nil {
			return nil, fmt.Errorf("unmarshal weighting: %w", err)
		}
		job.Weighting = &weighting
	}
	if len(reportRaw) > 0 {
		var report domain.Report
		if err := json.Unmarshal(reportRaw, &report); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
		job.Report = &report
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}

func (r *ScoringJobRepository) UpdateStatus(ctx context.Context, id string, status domain.JobStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE scoring_jobs
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update scoring job status: %w", err)
	}
	return expectOneRow(result, "update scoring job status", id)
}

// SaveReport stores the finished report and marks the job ready.
func (r *ScoringJobRepository) SaveReport(ctx context.Context, id string, report *domain.Report) error {
	if report == nil {
		return domain.WrapError(domain.ErrInvalidInput, "save scoring report", errors.New("report is nil"))
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	var score sql.NullFloat64
	if report.Score != nil {
		score = sql.NullFloat64{Float64: report.Score.Value, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE scoring_jobs
SET report = $2, score = $3, status = $4, error_message = '', updated_at = $5
WHERE id = $1
`, id, reportJSON, score, string(domain.JobReady), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save scoring report: %w", err)
	}
	return expectOneRow(result, "save scoring report", id)
}

func expectOneRow(result sql.Result, operation, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrJobNotFound, operation, fmt.Errorf("id=%s", id))
	}
	return nil
}

// marshalNullable keeps SQL NULL for an absent weighting override.
func marshalNullable(v *domain.WeightingConfig) (any, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
