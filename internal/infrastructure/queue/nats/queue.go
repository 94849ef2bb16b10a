package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/kirillkom/humanlike-coach/internal/infrastructure/resilience"
)

// Options tune the connection. Zero values pick the defaults below.
type Options struct {
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
	// FailFast disables retrying the first connection attempt.
	FailFast     bool
	QueueGroup   string
	DrainTimeout time.Duration
	Executor     *resilience.Executor
}

func (o Options) withDefaults() Options {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 2 * time.Second
	}
	if o.ReconnectWait <= 0 {
		o.ReconnectWait = 2 * time.Second
	}
	if o.MaxReconnects <= 0 {
		o.MaxReconnects = 60
	}
	if o.QueueGroup == "" {
		o.QueueGroup = "scoring-workers"
	}
	if o.DrainTimeout <= 0 {
		o.DrainTimeout = 5 * time.Second
	}
	return o
}

// Queue carries scoring job ids from the API to the workers. Workers share a
// queue group so each job is processed once.
type Queue struct {
	conn    *nats.Conn
	subject string
	opts    Options
}

func Connect(url, subject string, options Options) (*Queue, error) {
	opts := options.withDefaults()
	conn, err := nats.Connect(url,
		nats.Name("humanlike-coach"),
		nats.Timeout(opts.ConnectTimeout),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.MaxReconnects(opts.MaxReconnects),
		nats.RetryOnFailedConnect(!opts.FailFast),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{conn: conn, subject: subject, opts: opts}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishScoringJob(ctx context.Context, jobID string) error {
	publish := func(context.Context) error {
		if err := q.conn.Publish(q.subject, []byte(jobID)); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	var err error
	if q.opts.Executor != nil {
		err = q.opts.Executor.Execute(ctx, "nats.publish", publish, classifyNATSError)
	} else {
		err = publish(ctx)
	}
	return wrapTemporaryIfNeeded(err)
}

// SubscribeScoringJobs runs handler for every job id until ctx is done, then
// drains in-flight messages before returning. Messages that are not job ids
// are dropped.
func (q *Queue) SubscribeScoringJobs(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, q.opts.QueueGroup, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		jobID, ok := parseJobID(msg.Data)
		if !ok {
			slog.Warn("scoring_job_message_invalid", "subject", msg.Subject, "size", len(msg.Data))
			return
		}
		if err := handler(ctx, jobID); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("scoring_job_handler_failed", "job_id", jobID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(q.opts.DrainTimeout); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func parseJobID(data []byte) (string, bool) {
	id, err := uuid.ParseBytes(data)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
