package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler must return nil only when the record is fully handled and its
// offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

// DeadLetterer receives records that exhausted their retries.
type DeadLetterer interface {
	Send(ctx context.Context, m kafka.Message, reason string)
}

type ConsumerConfig struct {
	Brokers    []string
	Group      string
	Topic      string
	MaxRetries int
	Backoff    time.Duration
	DLQ        DeadLetterer
	Log        *slog.Logger
}

// Consumer reads one topic with manual commits and processes records inline
// on the reader goroutine. Per-partition arrival order is preserved because
// there is no worker fan-out; parallelism comes from partitions, not
// workers.
type Consumer struct {
	r          *kafka.Reader
	maxRetries int
	backoff    time.Duration
	dlq        DeadLetterer
	log        *slog.Logger
}

func NewConsumer(cfg ConsumerConfig) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.Group,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Consumer{
		r:          r,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		dlq:        cfg.DLQ,
		log:        cfg.Log,
	}
}

// Run consumes until ctx is canceled. A record whose handler keeps failing
// is dead-lettered and committed so it cannot stall the partition; the
// offset is committed only after the record is handled one way or the
// other.
func (c *Consumer) Run(ctx context.Context, h Handler) error {
	defer c.r.Close()

	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}

		if err := c.handleWithRetry(ctx, m, h); err != nil {
			if ctx.Err() != nil {
				// Shutdown mid-record: leave the offset uncommitted so the
				// broker redelivers it.
				return nil
			}
			c.log.Error("record exhausted retries, dead-lettering",
				"topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "err", err)
			c.deadLetter(ctx, m, err.Error())
		}

		if err := c.r.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error("offset commit failed", "topic", m.Topic, "offset", m.Offset, "err", err)
		}
	}
}

func (c *Consumer) deadLetter(ctx context.Context, m kafka.Message, reason string) {
	if c.dlq == nil {
		c.log.Error("no dead-letter sink configured, dropping record",
			"topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "reason", reason)
		return
	}
	c.dlq.Send(ctx, m, reason)
}

// handleWithRetry runs h up to 1+maxRetries times with growing backoff.
func (c *Consumer) handleWithRetry(ctx context.Context, m kafka.Message, h Handler) error {
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * c.backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = h(ctx, m); err == nil {
			return nil
		}
		c.log.Warn("handler failed",
			"topic", m.Topic, "offset", m.Offset, "attempt", attempt+1, "err", err)
	}
	return err
}
