package modelsvc

import (
	"context"
	"fmt"
	"math"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

// Classifier asks a detector service how likely text is machine generated.
//
//	POST /v1/classify {"model": "...", "text": "..."}
//	-> {"ai_probability": 0.91} or {"human_probability": 0.09}
type Classifier struct {
	client *Client
}

func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

func (c *Classifier) ModelID() string {
	return c.client.ModelID()
}

func (c *Classifier) AIProbability(ctx context.Context, text string) (float64, error) {
	request := map[string]any{
		"model": c.client.model,
		"text":  text,
	}
	var response struct {
		AIProbability    *float64 `json:"ai_probability"`
		HumanProbability *float64 `json:"human_probability"`
	}
	if err := c.client.call(ctx, "/v1/classify", request, &response, "classify"); err != nil {
		return 0, err
	}

	var p float64
	switch {
	case response.AIProbability != nil:
		p = *response.AIProbability
	case response.HumanProbability != nil:
		p = 1 - *response.HumanProbability
	default:
		return 0, domain.WrapError(domain.ErrMalformedResponse, "classify", fmt.Errorf("response carries no probability"))
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, domain.WrapError(domain.ErrMalformedResponse, "classify", fmt.Errorf("probability %v outside [0,1]", p))
	}
	return p, nil
}
