// Package shipping is the consumer-side projection of the order stream: it
// applies each validated event exactly once in effect and derives the
// shipping cost.
package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/y0ncha/E-commerce-sub001/internal/kafka"
	"github.com/y0ncha/E-commerce-sub001/internal/orders"
	"github.com/y0ncha/E-commerce-sub001/internal/redisx"
)

// DeadLetterer routes records this service can never process.
type DeadLetterer interface {
	Send(ctx context.Context, m kafkago.Message, reason string)
}

type Service struct {
	Store       *orders.Store[orders.ProcessedOrder]
	Redis       *redis.Client
	DLQ         DeadLetterer
	ServiceName string
	Log         *slog.Logger
}

// HandleOrderEvent processes a single order event. It returns nil in every
// case the record is finally handled (applied, duplicate, invalid
// transition, or dead-lettered) so the caller may commit the offset; a
// non-nil return means a transient failure worth redelivering.
//
// Duplicate detection is by status: an event whose status equals the stored
// status is acknowledged without reprocessing, and stale redeliveries fall
// out of the transition check. No offset bookkeeping, so the rule survives
// restarts.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	o, err := kafkax.DecodeOrder(m.Value)
	if err != nil {
		// A malformed payload can never become valid on redelivery.
		s.Log.Warn("unprocessable record, dead-lettering",
			"topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "err", err)
		s.DLQ.Send(ctx, m, err.Error())
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, o.ID+":"+string(o.Status))

	current, exists := s.Store.Get(o.ID)
	if exists && current.Status == o.Status {
		s.Log.Debug("duplicate event", "order_id", o.ID, "status", o.Status)
		s.markSeen(ctx, dkey)
		return nil
	}

	// Fast-path dedup via Redis, honored only while the store holds the
	// key: the cache TTL outlives the in-memory store, and a redelivery
	// after a restart (offset uncommitted) must rebuild the projection.
	if exists && s.Redis != nil {
		if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
			s.Log.Debug("duplicate event (dedup cache)", "order_id", o.ID, "status", o.Status)
			return nil
		}
	}

	var currentStatus orders.Status
	if exists {
		currentStatus = current.Status
	}
	if !orders.IsValidTransition(currentStatus, o.Status) {
		// Defense in depth: a business-rule violation never crashes the
		// loop and never mutates state.
		s.Log.Warn("invalid transition, skipping",
			"order_id", o.ID, "from", currentStatus, "to", o.Status, "offset", m.Offset)
		return nil
	}

	now := time.Now().UTC()
	s.Store.Replace(o.ID, orders.ProcessedOrder{
		Order:        o,
		ShippingCost: orders.ShippingCost(o.TotalAmount),
		ReceivedAt:   now,
		SourceTopic:  m.Topic,
	})

	s.markSeen(ctx, dkey)
	s.cacheStatus(ctx, o.ID, o.Status, now)

	s.Log.Info("order event applied",
		"order_id", o.ID, "status", o.Status, "shipping_cost", orders.ShippingCost(o.TotalAmount))
	return nil
}

func (s *Service) markSeen(ctx context.Context, dkey string) {
	if s.Redis == nil {
		return
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
}

func (s *Service) cacheStatus(ctx context.Context, orderID string, status orders.Status, at time.Time) {
	if s.Redis == nil {
		return
	}
	b, _ := json.Marshal(map[string]any{"status": status, "updated_at": at})
	_ = s.Redis.Set(ctx, fmt.Sprintf(redisx.KeyOrderStatus, orderID), b, redisx.TTLStatusCache).Err()
}
