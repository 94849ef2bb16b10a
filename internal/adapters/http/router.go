package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/humanlike-coach/internal/config"
	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/core/ports"
	"github.com/kirillkom/humanlike-coach/internal/core/usecase"
	"github.com/kirillkom/humanlike-coach/internal/observability/metrics"
)

// jsonBodyOverhead is added to the text limit to size the JSON body cap.
const jsonBodyOverhead = 64 << 10

// Services are the inbound ports the router serves. Jobs and JobReader may be
// nil when asynchronous processing is not configured.
type Services struct {
	Analyzer  ports.TextAnalyzer
	Feedback  ports.TransformationService
	Jobs      ports.ScoringJobSubmitter
	JobReader ports.ScoringJobReader
	Extractor ports.TextExtractor
}

type Router struct {
	cfg      config.Config
	services Services
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(cfg config.Config, services Services, httpMetrics *metrics.HTTPServerMetrics) *Router {
	return &Router{
		cfg:      cfg,
		services: services,
		metrics:  httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /v1/score", rt.score)
	api.HandleFunc("POST /v1/score/file", rt.scoreFile)
	api.HandleFunc("POST /v1/compare", rt.compare)
	api.HandleFunc("POST /v1/transform", rt.transform)
	api.HandleFunc("POST /v1/jobs", rt.submitJob)
	api.HandleFunc("GET /v1/jobs/{id}", rt.getJob)
	api.HandleFunc("GET /openapi.yaml", rt.openAPI)

	var limited http.Handler = api
	if validator, err := loadOpenAPIRouter(); err != nil {
		slog.Error("openapi_validation_disabled", "error", err)
	} else {
		limited = openAPIValidationMiddleware(limited, validator)
	}
	limited = backpressureMiddleware(limited, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIQueueTimeoutMs)*time.Millisecond)
	limited = rateLimitMiddleware(limited, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		root.Handle("GET /metrics", rt.metrics.Handler())
	}
	root.Handle("/", limited)

	var handler http.Handler = root
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) openAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPISpec)
}

type scoreRequest struct {
	Text      string                  `json:"text"`
	Language  string                  `json:"language"`
	Weighting *domain.WeightingConfig `json:"weighting,omitempty"`
}

func (rt *Router) score(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	doc, err := rt.newDocument(req.Text, req.Language)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	report, err := rt.services.Analyzer.Analyze(r.Context(), doc, domain.AnalyzeOptions{Weighting: req.Weighting})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) scoreFile(w http.ResponseWriter, r *http.Request) {
	if rt.services.Extractor == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "file scoring is not configured"})
		return
	}
	if rt.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes+(1<<20))
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	text, err := rt.services.Extractor.Extract(r.Context(), fileHeader.Filename, file)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	doc, err := rt.newDocument(text, r.FormValue("language"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	report, err := rt.services.Analyzer.Analyze(r.Context(), doc, domain.AnalyzeOptions{})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type compareRequest struct {
	Original    string                  `json:"original"`
	Transformed string                  `json:"transformed"`
	Language    string                  `json:"language"`
	Weighting   *domain.WeightingConfig `json:"weighting,omitempty"`
}

func (rt *Router) compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	original, err := rt.newDocument(req.Original, req.Language)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if err := usecase.ValidateText(req.Transformed, rt.cfg.MaxTextLength); err != nil {
		rt.writeError(w, r, err)
		return
	}
	transformed, err := domain.DeriveDocument(original, req.Transformed, domain.OriginRewrite)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	result, err := rt.services.Feedback.Compare(r.Context(), original, transformed, nil, domain.AnalyzeOptions{Weighting: req.Weighting})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type transformRequest struct {
	Text      string                  `json:"text"`
	Language  string                  `json:"language"`
	Mode      string                  `json:"mode"`
	Intensity string                  `json:"intensity"`
	Focus     []string                `json:"focus,omitempty"`
	Weighting *domain.WeightingConfig `json:"weighting,omitempty"`
}

func (rt *Router) transform(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	mode, err := domain.ParseTransformMode(req.Mode)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	intensity, err := domain.ParseTransformIntensity(req.Intensity)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	doc, err := rt.newDocument(req.Text, req.Language)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	result, err := rt.services.Feedback.TransformAndCompare(r.Context(), doc, domain.TransformRequest{
		Mode:      mode,
		Intensity: intensity,
		Focus:     req.Focus,
	}, domain.AnalyzeOptions{Weighting: req.Weighting})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) submitJob(w http.ResponseWriter, r *http.Request) {
	if rt.services.Jobs == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "asynchronous jobs are not configured"})
		return
	}
	var req scoreRequest
	if !rt.decodeJSON(w, r, &req) {
		return
	}

	job, err := rt.services.Jobs.Submit(r.Context(), req.Text, req.Language, domain.AnalyzeOptions{Weighting: req.Weighting})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (rt *Router) getJob(w http.ResponseWriter, r *http.Request) {
	if rt.services.JobReader == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "asynchronous jobs are not configured"})
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "job id is required"})
		return
	}

	job, err := rt.services.JobReader.GetByID(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (rt *Router) newDocument(text, language string) (*domain.Document, error) {
	if err := usecase.ValidateText(text, rt.cfg.MaxTextLength); err != nil {
		return nil, err
	}
	return domain.NewDocument(text, language)
}

func (rt *Router) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	limit := int64(jsonBodyOverhead)
	if rt.cfg.MaxTextLength > 0 {
		// Two texts of up to four UTF-8 bytes per character.
		limit += int64(rt.cfg.MaxTextLength) * 8
	} else {
		limit = 32 << 20
	}
	body := http.MaxBytesReader(w, r.Body, limit)
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)})
			return false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request body must contain a single JSON object"})
		return false
	}
	return true
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("http_request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
