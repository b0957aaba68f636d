package bus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/RashedShahabi/order-system-project/internal/event"
	"github.com/RashedShahabi/order-system-project/internal/health"
)

// Handler processes one decoded event. Returning nil commits the offset;
// returning an error leaves the message uncommitted so the broker redelivers
// it. Handlers must therefore be idempotent.
type Handler func(ctx context.Context, ev event.Event) error

// Dedup is the seen/mark fast path for redelivered events, keyed by the
// producer-assigned event id. redisx.Deduper implements it.
type Dedup interface {
	Seen(ctx context.Context, scope, eventID string) (bool, error)
	Mark(ctx context.Context, scope, eventID string) error
}

// Consumer binds one durable queue (consumer group) to one or more routing
// keys and feeds decoded events to Handler, strictly one message at a time.
// Run supervises the read loop: transient failures restart it with backoff;
// once the restart budget is spent the service is marked unready and Run
// returns.
type Consumer struct {
	Log     *slog.Logger
	Brokers []string
	Queue   string
	Topics  []string
	Service string
	Handler Handler
	Dedup   Dedup
	DLQ     *Producer
	Health  *health.Checker

	// Overridable in tests; zero values fall back to defaults.
	MaxRestarts  int
	RestartDelay time.Duration
}

const (
	defaultMaxRestarts  = 10
	defaultRestartDelay = time.Second
	maxRestartDelay     = 30 * time.Second
	handlerAttempts     = 3
	handlerRetryDelay   = 200 * time.Millisecond
)

func (c *Consumer) Run(ctx context.Context) error {
	maxRestarts := c.MaxRestarts
	if maxRestarts <= 0 {
		maxRestarts = defaultMaxRestarts
	}
	delay := c.RestartDelay
	if delay <= 0 {
		delay = defaultRestartDelay
	}

	for attempt := 0; ; attempt++ {
		err := c.consume(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			return nil
		}
		if attempt+1 >= maxRestarts {
			if c.Health != nil {
				c.Health.SetReady(false)
			}
			return fmt.Errorf("consumer %s gave up after %d restarts: %w", c.Queue, maxRestarts, err)
		}
		c.Log.Error("consumer restarting", "queue", c.Queue, "delay", delay, "err", err)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		if delay *= 2; delay > maxRestartDelay {
			delay = maxRestartDelay
		}
	}
}

func (c *Consumer) consume(ctx context.Context) error {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        c.Brokers,
		GroupID:        c.Queue,
		GroupTopics:    c.Topics,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit, only after side effects
	})
	defer r.Close()

	c.Log.Info("consumer listening", "queue", c.Queue, "topics", c.Topics)
	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			return err
		}
		if err := c.process(ctx, r, m); err != nil {
			return err
		}
	}
}

func (c *Consumer) process(ctx context.Context, r *kafka.Reader, m kafka.Message) error {
	ev, err := event.Decode(event.Kind(m.Topic), m.Value)
	if err != nil {
		// Permanent: a redelivery cannot fix a broken payload. Park it on
		// the dead-letter topic, then commit. If dead-lettering itself
		// fails the message stays uncommitted and comes back.
		c.Log.Error("unprocessable message, dead-lettering",
			"queue", c.Queue, "topic", m.Topic, "err", err)
		if c.DLQ != nil {
			if dlErr := c.DLQ.DeadLetter(ctx, m, err); dlErr != nil {
				return dlErr
			}
		}
		return r.CommitMessages(ctx, m)
	}

	eventID := headerValue(m.Headers, HeaderEventID)
	if eventID != "" && c.Dedup != nil {
		if seen, err := c.Dedup.Seen(ctx, c.Service, eventID); err == nil && seen {
			c.Log.Info("duplicate event skipped", "queue", c.Queue, "event_id", eventID)
			return r.CommitMessages(ctx, m)
		}
	}

	var handleErr error
	for attempt := 0; attempt < handlerAttempts; attempt++ {
		if handleErr = c.Handler(ctx, ev); handleErr == nil {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(handlerRetryDelay):
		}
	}
	if handleErr != nil {
		// Transient store/publish failure: do not commit, force redelivery.
		return fmt.Errorf("handle %s: %w", m.Topic, handleErr)
	}

	if eventID != "" && c.Dedup != nil {
		if err := c.Dedup.Mark(ctx, c.Service, eventID); err != nil {
			c.Log.Warn("dedup mark failed", "event_id", eventID, "err", err)
		}
	}
	return r.CommitMessages(ctx, m)
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
