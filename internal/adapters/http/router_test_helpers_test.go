package httpadapter

import (
	"context"
	"io"
	"net/http"

	"github.com/kirillkom/humanlike-coach/internal/config"
	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

type analyzerFake struct {
	err     error
	lastDoc *domain.Document
	opts    domain.AnalyzeOptions
}

func (f *analyzerFake) Analyze(_ context.Context, doc *domain.Document, opts domain.AnalyzeOptions) (*domain.Report, error) {
	f.lastDoc = doc
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Report{
		Document: doc,
		Score:    &domain.Score{Value: 72.5, Grain: domain.GrainDocument},
		Profile:  "default",
	}, nil
}

type feedbackFake struct {
	err     error
	request domain.TransformRequest
}

func (f *feedbackFake) Compare(_ context.Context, original, transformed *domain.Document, _ *domain.Score, _ domain.AnalyzeOptions) (*domain.TransformationResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	delta := 5.0
	return &domain.TransformationResult{Source: original, Transformed: transformed, AfterStatus: domain.AfterAvailable, Delta: &delta}, nil
}

func (f *feedbackFake) TransformAndCompare(_ context.Context, original *domain.Document, req domain.TransformRequest, _ domain.AnalyzeOptions) (*domain.TransformationResult, error) {
	f.request = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.TransformationResult{Source: original, Mode: req.Mode, AfterStatus: domain.AfterTransformFailed}, nil
}

type jobsFake struct {
	err error
	job *domain.ScoringJob
}

func (f *jobsFake) Submit(_ context.Context, text, language string, _ domain.AnalyzeOptions) (*domain.ScoringJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ScoringJob{ID: "job-1", Text: text, Language: language, Status: domain.JobQueued}, nil
}

func (f *jobsFake) GetByID(_ context.Context, id string) (*domain.ScoringJob, error) {
	if f.job == nil || f.job.ID != id {
		return nil, domain.WrapError(domain.ErrJobNotFound, "get scoring job", io.EOF)
	}
	return f.job, nil
}

type extractorFake struct {
	filename string
}

func (f *extractorFake) Extract(_ context.Context, filename string, body io.Reader) (string, error) {
	f.filename = filename
	raw, err := io.ReadAll(body)
	return string(raw), err
}

func newTestHandler(cfg config.Config) http.Handler {
	jobs := &jobsFake{}
	return NewRouter(cfg, Services{
		Analyzer:  &analyzerFake{},
		Feedback:  &feedbackFake{},
		Jobs:      jobs,
		JobReader: jobs,
		Extractor: &extractorFake{},
	}, nil).Handler()
}
