package kafka

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// Dead-letter routing metadata attached to every rerouted record.
const (
	HeaderOriginalTopic     = "original-topic"
	HeaderOriginalPartition = "original-partition"
	HeaderOriginalOffset    = "original-offset"
	HeaderErrorReason       = "error-reason"
	HeaderFailedAt          = "failed-at"
)

// DeadLetter publishes unprocessable records to a side topic, keeping the
// original key and raw value for traceability. Writes are fire-and-forget;
// the completion callback logs the outcome. A failed dead-letter publish is
// logged critically but never blocks the consumer from committing the
// original offset.
type DeadLetter struct {
	w   *kafka.Writer
	log *slog.Logger
}

func NewDeadLetter(brokers []string, topic string, log *slog.Logger) *DeadLetter {
	if log == nil {
		log = slog.Default()
	}
	d := &DeadLetter{log: log}
	d.w = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			for _, m := range messages {
				if err != nil {
					d.log.Error("dead-letter publish failed, record lost",
						"key", string(m.Key), "err", err)
					continue
				}
				d.log.Info("record dead-lettered", "key", string(m.Key))
			}
		},
	}
	return d
}

func (d *DeadLetter) Send(ctx context.Context, m kafka.Message, reason string) {
	if err := d.w.WriteMessages(ctx, deadLetterMessage(m, reason, time.Now().UTC())); err != nil {
		// Async writer only fails here when it is closed or the queue is
		// unusable; delivery errors surface via Completion.
		d.log.Error("dead-letter enqueue failed, record lost",
			"key", string(m.Key), "topic", m.Topic, "offset", m.Offset, "err", err)
	}
}

func (d *DeadLetter) Close() error { return d.w.Close() }

func deadLetterMessage(m kafka.Message, reason string, failedAt time.Time) kafka.Message {
	return kafka.Message{
		Key:   m.Key,
		Value: m.Value,
		Time:  failedAt,
		Headers: []kafka.Header{
			{Key: HeaderOriginalTopic, Value: []byte(m.Topic)},
			{Key: HeaderOriginalPartition, Value: []byte(strconv.Itoa(m.Partition))},
			{Key: HeaderOriginalOffset, Value: []byte(strconv.FormatInt(m.Offset, 10))},
			{Key: HeaderErrorReason, Value: []byte(reason)},
			{Key: HeaderFailedAt, Value: []byte(failedAt.Format(time.RFC3339))},
		},
	}
}
