package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/core/ports"
)

// periodSegmenter splits after ". " and at the end of text.
type periodSegmenter struct {
	err error
}

func (s periodSegmenter) Segment(text string) ([]domain.SentenceSpan, error) {
	if s.err != nil {
		return nil, s.err
	}
	var spans []domain.SentenceSpan
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '.' {
			continue
		}
		if i+1 < len(text) && text[i+1] != ' ' {
			continue
		}
		spans = append(spans, domain.SentenceSpan{Index: len(spans), Start: start, End: i + 1})
		start = i + 2
	}
	if start < len(text) {
		spans = append(spans, domain.SentenceSpan{Index: len(spans), Start: start, End: len(text)})
	}
	if len(spans) == 0 {
		return nil, domain.WrapError(domain.ErrSegmentation, "segment", errors.New("empty"))
	}
	return spans, nil
}

// fixedExtractor returns the same document value and a per-sentence value
// chosen by sentence.
type fixedExtractor struct {
	signal     domain.SignalName
	document   float64
	documentFn func(text string) float64
	sentence   func(text string) float64
	// wrongLength returns one sentence value too few.
	wrongLength bool
}

func (f fixedExtractor) Signal() domain.SignalName { return f.signal }

func (f fixedExtractor) ExtractDocument(_ context.Context, in ports.ExtractionInput) domain.SignalValue {
	if f.documentFn != nil {
		return domain.Measured(f.documentFn(in.Document.Text))
	}
	return domain.Measured(f.document)
}

func (f fixedExtractor) ExtractSentences(_ context.Context, in ports.ExtractionInput) []domain.SignalValue {
	n := len(in.Spans)
	if f.wrongLength && n > 0 {
		n--
	}
	out := make([]domain.SignalValue, n)
	for i := range out {
		value := 0.5
		if f.sentence != nil {
			value = f.sentence(in.SentenceText(i))
		}
		out[i] = domain.Measured(value)
	}
	return out
}

// documentOnlyExtractor has no sentence grain.
type documentOnlyExtractor struct {
	signal domain.SignalName
	value  float64
}

func (f documentOnlyExtractor) Signal() domain.SignalName { return f.signal }

func (f documentOnlyExtractor) ExtractDocument(context.Context, ports.ExtractionInput) domain.SignalValue {
	return domain.Measured(f.value)
}

// slowExtractor blocks until its context ends.
type slowExtractor struct {
	signal domain.SignalName
}

func (f slowExtractor) Signal() domain.SignalName { return f.signal }

func (f slowExtractor) ExtractDocument(ctx context.Context, _ ports.ExtractionInput) domain.SignalValue {
	select {
	case <-ctx.Done():
		return domain.Unavailable(domain.ReasonTimeout)
	case <-time.After(5 * time.Second):
		return domain.Measured(1)
	}
}

type staticProfiles struct {
	profile domain.ScoringProfile
}

func (s staticProfiles) Current() domain.ScoringProfile { return s.profile }

func defaultProfiles() staticProfiles {
	return staticProfiles{profile: domain.DefaultScoringProfile()}
}

type recordingObserver struct {
	mu              sync.Mutex
	extractions     map[domain.SignalName]domain.SignalValue
	scores          int
	transformations []domain.AfterStatus
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{extractions: make(map[domain.SignalName]domain.SignalValue)}
}

func (o *recordingObserver) ObserveExtraction(signal domain.SignalName, _ time.Duration, document domain.SignalValue) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.extractions[signal] = document
}

func (o *recordingObserver) ObserveScore(*domain.Score) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scores++
}

func (o *recordingObserver) ObserveTransformation(_ domain.TransformMode, result *domain.TransformationResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transformations = append(o.transformations, result.AfterStatus)
}

// lengthScored rates longer sentences as more human so rewrites that merge
// sentences change the score.
func lengthScored(text string) float64 {
	return float64(len(strings.Fields(text))) / 10
}

type transformerFake struct {
	text string
	err  error
	req  domain.TransformRequest
}

func (f *transformerFake) Transform(_ context.Context, _ *domain.Document, req domain.TransformRequest) (string, error) {
	f.req = req
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type jobRepoFake struct {
	mu          sync.Mutex
	jobs        map[string]*domain.ScoringJob
	createErr   error
	saveErr     error
	statusCalls []domain.JobStatus
	lastError   string
}

func newJobRepoFake() *jobRepoFake {
	return &jobRepoFake{jobs: make(map[string]*domain.ScoringJob)}
}

func (f *jobRepoFake) Create(_ context.Context, job *domain.ScoringJob) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copyJob := *job
	f.jobs[job.ID] = &copyJob
	return nil
}

func (f *jobRepoFake) GetByID(_ context.Context, id string) (*domain.ScoringJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrJobNotFound, "get scoring job", errors.New(id))
	}
	copyJob := *job
	return &copyJob, nil
}

func (f *jobRepoFake) UpdateStatus(_ context.Context, id string, status domain.JobStatus, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, status)
	f.lastError = errMessage
	if job, ok := f.jobs[id]; ok {
		job.Status = status
	}
	return nil
}

func (f *jobRepoFake) SaveReport(_ context.Context, id string, report *domain.Report) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, domain.JobReady)
	f.jobs[id].Report = report
	f.jobs[id].Status = domain.JobReady
	return nil
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishScoringJob(_ context.Context, jobID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, jobID)
	return nil
}

func (f *queueFake) SubscribeScoringJobs(context.Context, func(context.Context, string) error) error {
	return nil
}
