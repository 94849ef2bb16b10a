package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/core/ports"
)

// SubmitJobUseCase stores a scoring job and announces it to the worker queue.
type SubmitJobUseCase struct {
	repo          ports.ScoringJobRepository
	queue         ports.MessageQueue
	maxTextLength int
}

func NewSubmitJobUseCase(repo ports.ScoringJobRepository, queue ports.MessageQueue, maxTextLength int) *SubmitJobUseCase {
	return &SubmitJobUseCase{
		repo:          repo,
		queue:         queue,
		maxTextLength: maxTextLength,
	}
}

func (uc *SubmitJobUseCase) Submit(ctx context.Context, text, language string, opts domain.AnalyzeOptions) (*domain.ScoringJob, error) {
	if err := ValidateText(text, uc.maxTextLength); err != nil {
		return nil, err
	}
	if opts.Weighting != nil {
		if err := opts.Weighting.Validate(); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	job := &domain.ScoringJob{
		ID:        uuid.NewString(),
		Text:      text,
		Language:  strings.ToLower(strings.TrimSpace(language)),
		Status:    domain.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if opts.Weighting != nil {
		weighting := opts.Weighting.Clone()
		job.Weighting = &weighting
	}
	if job.Language == "" {
		job.Language = domain.DefaultLanguage
	}

	if err := uc.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create scoring job: %w", err)
	}
	if err := uc.queue.PublishScoringJob(ctx, job.ID); err != nil {
		return nil, fmt.Errorf("publish scoring job: %w", err)
	}
	return job, nil
}

func (uc *SubmitJobUseCase) GetByID(ctx context.Context, id string) (*domain.ScoringJob, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get scoring job", errors.New("job id is required"))
	}
	return uc.repo.GetByID(ctx, id)
}

// ValidateText enforces the input contract shared by every surface: non-empty
// UTF-8 text of at most maxLength characters (0 disables the limit).
func ValidateText(text string, maxLength int) error {
	if strings.TrimSpace(text) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate text", errors.New("text is required"))
	}
	if !utf8.ValidString(text) {
		return domain.WrapError(domain.ErrInvalidInput, "validate text", errors.New("text is not valid UTF-8"))
	}
	if maxLength > 0 {
		if n := utf8.RuneCountInString(text); n > maxLength {
			return domain.WrapError(domain.ErrInvalidInput, "validate text", fmt.Errorf("text has %d characters, limit is %d", n, maxLength))
		}
	}
	return nil
}
