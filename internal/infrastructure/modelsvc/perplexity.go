package modelsvc

import (
	"context"
	"fmt"
	"math"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

// PerplexityScorer asks a language-model service for the perplexity of text.
//
//	POST /v1/perplexity {"model": "...", "text": "..."}
//	-> {"perplexity": 23.4} or {"mean_nll": 3.15}
type PerplexityScorer struct {
	client *Client
}

func NewPerplexityScorer(client *Client) *PerplexityScorer {
	return &PerplexityScorer{client: client}
}

func (s *PerplexityScorer) ModelID() string {
	return s.client.ModelID()
}

func (s *PerplexityScorer) Perplexity(ctx context.Context, text string) (float64, error) {
	request := map[string]any{
		"model": s.client.model,
		"text":  text,
	}
	var response struct {
		Perplexity *float64 `json:"perplexity"`
		MeanNLL    *float64 `json:"mean_nll"`
	}
	if err := s.client.call(ctx, "/v1/perplexity", request, &response, "perplexity"); err != nil {
		return 0, err
	}

	var value float64
	switch {
	case response.Perplexity != nil:
		value = *response.Perplexity
	case response.MeanNLL != nil:
		value = math.Exp(*response.MeanNLL)
	default:
		return 0, domain.WrapError(domain.ErrMalformedResponse, "perplexity", fmt.Errorf("response carries neither perplexity nor mean_nll"))
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return 0, domain.WrapError(domain.ErrMalformedResponse, "perplexity", fmt.Errorf("invalid perplexity %v", value))
	}
	return value, nil
}
