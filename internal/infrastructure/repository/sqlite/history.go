package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

const previewRunes = 80

// ReportHistory keeps analyzed reports in a local SQLite file so the CLI can
// list earlier runs.
type ReportHistory struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the history database at path. ":memory:" keeps it in
// memory for the lifetime of the process.
func Open(ctx context.Context, path string) (*ReportHistory, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// One connection keeps an in-memory database shared and serializes writers.
	db.SetMaxOpenConns(1)

	h := &ReportHistory{db: db, now: time.Now}
	if err := h.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return h, nil
}

func (h *ReportHistory) Close() error {
	return h.db.Close()
}

func (h *ReportHistory) ensureSchema(ctx context.Context) error {
	const query = `
CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	score REAL NOT NULL,
	confidence TEXT NOT NULL,
	sentences INTEGER NOT NULL,
	preview TEXT NOT NULL,
	report TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at DESC);
`
	if _, err := h.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

func (h *ReportHistory) Save(ctx context.Context, report *domain.Report) (*domain.ReportSummary, error) {
	if report == nil || report.Document == nil || report.Score == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "save report", errors.New("report has no document score"))
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	summary := &domain.ReportSummary{
		ID:         uuid.NewString(),
		DocumentID: report.Document.ID,
		Score:      report.Score.Value,
		Confidence: report.Score.Confidence.Level,
		Sentences:  len(report.Sentences),
		Preview:    preview(report.Document.Text),
		CreatedAt:  h.now().UTC(),
	}
	_, err = h.db.ExecContext(ctx, `
INSERT INTO reports (id, document_id, score, confidence, sentences, preview, report, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, summary.ID, summary.DocumentID, summary.Score, string(summary.Confidence), summary.Sentences,
		summary.Preview, string(raw), summary.CreatedAt.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	return summary, nil
}

func (h *ReportHistory) List(ctx context.Context, limit int) ([]domain.ReportSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, `
SELECT id, document_id, score, confidence, sentences, preview, created_at
FROM reports
ORDER BY created_at DESC, id
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ReportSummary, 0, limit)
	for rows.Next() {
		var s domain.ReportSummary
		var confidence string
		var created int64
		if err := rows.Scan(&s.ID, &s.DocumentID, &s.Score, &confidence, &s.Sentences, &s.Preview, &created); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		s.Confidence = domain.ConfidenceLevel(confidence)
		s.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

// Get returns the full stored report for a history entry.
func (h *ReportHistory) Get(ctx context.Context, id string) (*domain.Report, error) {
	var raw string
	err := h.db.QueryRowContext(ctx, `SELECT report FROM reports WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get report", fmt.Errorf("no history entry %s", id))
	}
	if err != nil {
		return nil, fmt.Errorf("query report: %w", err)
	}
	var report domain.Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewRunes-1]) + "…"
}
