package domain

import "time"

type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobReady      JobStatus = "ready"
	JobFailed     JobStatus = "failed"
)

// ScoringJob is an asynchronous analysis request handled by the worker.
type ScoringJob struct {
	ID        string           `json:"id"`
	Text      string           `json:"text"`
	Language  string           `json:"language"`
	Weighting *WeightingConfig `json:"weighting,omitempty"`
	Status    JobStatus        `json:"status"`
	Report    *Report          `json:"report,omitempty"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// AnalyzeOptions carries per-request overrides of the active profile.
type AnalyzeOptions struct {
	Weighting *WeightingConfig `json:"weighting,omitempty"`
}

// ReportSummary is the compact row kept in local report history.
type ReportSummary struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"document_id"`
	Score      float64         `json:"score"`
	Confidence ConfidenceLevel `json:"confidence"`
	Sentences  int             `json:"sentences"`
	Preview    string          `json:"preview"`
	CreatedAt  time.Time       `json:"created_at"`
}
