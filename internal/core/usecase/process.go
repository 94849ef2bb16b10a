package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/core/ports"
)

// ProcessJobUseCase analyzes a queued scoring job and stores its report.
type ProcessJobUseCase struct {
	repo     ports.ScoringJobRepository
	analyzer ports.TextAnalyzer
}

func NewProcessJobUseCase(repo ports.ScoringJobRepository, analyzer ports.TextAnalyzer) *ProcessJobUseCase {
	return &ProcessJobUseCase{
		repo:     repo,
		analyzer: analyzer,
	}
}

func (uc *ProcessJobUseCase) ProcessByID(ctx context.Context, jobID string) error {
	if err := uc.markStatus(ctx, jobID, domain.JobProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	report, err := uc.processPipeline(ctx, jobID)
	if err != nil {
		if failErr := uc.markFailed(ctx, jobID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveReport(ctx, jobID, report); err != nil {
		if failErr := uc.markFailed(ctx, jobID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (uc *ProcessJobUseCase) processPipeline(ctx context.Context, jobID string) (*domain.Report, error) {
	job, err := uc.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("fetch scoring job by id: %w", err)
	}

	doc, err := domain.NewDocument(job.Text, job.Language)
	if err != nil {
		return nil, err
	}

	report, err := uc.analyzer.Analyze(ctx, doc, domain.AnalyzeOptions{Weighting: job.Weighting})
	if err != nil {
		return nil, fmt.Errorf("analyze job text: %w", err)
	}
	return report, nil
}

func (uc *ProcessJobUseCase) markStatus(ctx context.Context, jobID string, status domain.JobStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, jobID, status, errMessage)
}

func (uc *ProcessJobUseCase) markFailed(ctx context.Context, jobID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, jobID, domain.JobFailed, processErr.Error())
}
