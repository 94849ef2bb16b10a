package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/llm"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/resilience"
)

const systemPrompt = "You are a writing coach. You edit text so it sounds like a specific person wrote it, never like a template."

// Transformer rewrites or paraphrases text through any OpenAI-compatible
// chat completions endpoint.
type Transformer struct {
	client      *goopenai.Client
	model       string
	temperature float32
	timeout     time.Duration
	executor    *resilience.Executor
}

func NewTransformer(apiKey, baseURL, model string, timeout time.Duration, executor *resilience.Executor) *Transformer {
	cfg := goopenai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Transformer{
		client:      goopenai.NewClientWithConfig(cfg),
		model:       model,
		temperature: 0.8,
		timeout:     timeout,
		executor:    executor,
	}
}

func (t *Transformer) Transform(ctx context.Context, doc *domain.Document, req domain.TransformRequest) (string, error) {
	if doc == nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "openai transform", errors.New("document is nil"))
	}
	if req.Mode != domain.ModeRewrite && req.Mode != domain.ModeParaphrase {
		return "", domain.WrapError(domain.ErrInvalidInput, "openai transform", errors.New("unsupported mode "+string(req.Mode)))
	}

	request := goopenai.ChatCompletionRequest{
		Model: t.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: llm.BuildTransformPrompt(doc.Text, req)},
		},
		Temperature: t.temperature,
	}

	var content string
	call := func(ctx context.Context) error {
		resp, err := t.client.CreateChatCompletion(ctx, request)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return domain.WrapError(domain.ErrMalformedResponse, "openai transform", errors.New("no choices in response"))
		}
		content = resp.Choices[0].Message.Content
		return nil
	}

	var err error
	if t.executor != nil {
		err = t.executor.Execute(ctx, "openai.chat", call, classifyOpenAIError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", resilience.WrapExternal("openai", "chat", err, classifyOpenAIError)
	}

	out := llm.CleanOutput(content)
	if out == "" {
		return "", domain.WrapError(domain.ErrMalformedResponse, "openai transform", errors.New("model returned empty text"))
	}
	return out, nil
}

// classifyOpenAIError treats any failure without an HTTP status as a
// transport problem worth retrying.
func classifyOpenAIError(err error) resilience.ErrorClassification {
	if class, ok := resilience.ClassifyBase(err); ok {
		return class
	}
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		return resilience.StatusClass(apiErr.HTTPStatusCode)
	case errors.As(err, &reqErr):
		return resilience.StatusClass(reqErr.HTTPStatusCode)
	default:
		return resilience.Transient
	}
}
