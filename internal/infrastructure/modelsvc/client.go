package modelsvc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/httpjson"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/resilience"
)

// Client talks to one scoring model service. Calls run through the
// resilience executor under "<service>.<operation>".
type Client struct {
	http     *httpjson.Client
	model    string
	executor *resilience.Executor
}

func New(service, baseURL, model string, timeout time.Duration, executor *resilience.Executor) *Client {
	return &Client{
		http:     httpjson.New(service, baseURL, timeout),
		model:    model,
		executor: executor,
	}
}

func (c *Client) ModelID() string {
	return c.model
}

// call posts payload to path and maps the failure into domain error kinds.
// A 422 means the service could not score this text, not that it is down.
func (c *Client) call(ctx context.Context, path string, payload any, out any, operation string) error {
	do := func(ctx context.Context) error {
		err := c.http.PostJSON(ctx, path, payload, out, operation)
		if httpjson.StatusCode(err) == http.StatusUnprocessableEntity {
			return fmt.Errorf("%w: %w", domain.ErrSignalUnavailable, err)
		}
		return err
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, c.http.Service()+"."+operation, do, httpjson.Classify)
	} else {
		err = do(ctx)
	}
	return resilience.WrapExternal(c.http.Service(), operation, err, httpjson.Classify)
}
