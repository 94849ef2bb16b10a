package ollama

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/httpjson"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/llm"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/resilience"
)

// Client calls the Ollama generate API with streaming off.
type Client struct {
	http     *httpjson.Client
	genModel string
	executor *resilience.Executor
}

func New(baseURL, genModel string, timeout time.Duration, executor *resilience.Executor) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		http:     httpjson.New("ollama", baseURL, timeout),
		genModel: genModel,
		executor: executor,
	}
}

// Transformer rewrites or paraphrases a document through a local Ollama model.
type Transformer struct {
	client *Client
}

func NewTransformer(client *Client) *Transformer {
	return &Transformer{client: client}
}

func (t *Transformer) Transform(ctx context.Context, doc *domain.Document, req domain.TransformRequest) (string, error) {
	if doc == nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "ollama transform", errors.New("document is nil"))
	}
	if req.Mode != domain.ModeRewrite && req.Mode != domain.ModeParaphrase {
		return "", domain.WrapError(domain.ErrInvalidInput, "ollama transform", errors.New("unsupported mode "+string(req.Mode)))
	}
	out, err := t.client.generateText(ctx, llm.BuildTransformPrompt(doc.Text, req))
	if err != nil {
		return "", err
	}
	out = llm.CleanOutput(out)
	if out == "" {
		return "", domain.WrapError(domain.ErrMalformedResponse, "ollama transform", errors.New("model returned empty text"))
	}
	return out, nil
}

func (c *Client) generateText(ctx context.Context, prompt string) (string, error) {
	request := generateRequest{Model: c.genModel, Prompt: prompt}
	var response struct {
		Response string `json:"response"`
	}
	call := func(ctx context.Context) error {
		return c.http.PostJSON(ctx, "/api/generate", request, &response, "generate")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama.generate", call, httpjson.Classify)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", resilience.WrapExternal("ollama", "generate", err, httpjson.Classify)
	}
	return strings.TrimSpace(response.Response), nil
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}
