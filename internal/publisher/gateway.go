// Package publisher produces canonicalized, validated order events and
// keeps the local store consistent with the event log: whatever it applies
// locally before a publish is rolled back when the publish fails.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/y0ncha/E-commerce-sub001/internal/breaker"
	kafkax "github.com/y0ncha/E-commerce-sub001/internal/kafka"
	"github.com/y0ncha/E-commerce-sub001/internal/orders"
)

// maxFailedRetained bounds the ring of failed update payloads kept for
// manual inspection.
const maxFailedRetained = 16

// Publisher is the bounded synchronous publish path.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafkago.Header) error
}

// FailedPublish is a payload whose publish failed after local state had
// been rolled back.
type FailedPublish struct {
	OrderID  string          `json:"order_id"`
	Status   orders.Status   `json:"status"`
	Payload  json.RawMessage `json:"payload"`
	Reason   string          `json:"reason"`
	FailedAt time.Time       `json:"failed_at"`
}

type Gateway struct {
	store *orders.Store[orders.Order]
	pub   Publisher
	brk   *breaker.Breaker
	wait  time.Duration
	log   *slog.Logger

	failedMu sync.Mutex
	failed   []FailedPublish
}

// NewGateway wires the gateway. wait bounds each publish attempt and must
// stay strictly shorter than the producer's write deadline.
func NewGateway(store *orders.Store[orders.Order], pub Publisher, brk *breaker.Breaker, wait time.Duration, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{store: store, pub: pub, brk: brk, wait: wait, log: log}
}

// CreateOrder canonicalizes rawID, synthesizes a NEW order with itemCount
// random items, reserves it in the store, and publishes it. On publish
// failure the reservation is removed so the store never diverges from the
// event log.
func (g *Gateway) CreateOrder(ctx context.Context, rawID string, itemCount int) (orders.Order, error) {
	id, err := orders.CanonicalID(rawID)
	if err != nil {
		return orders.Order{}, fmt.Errorf("%q: %w", rawID, err)
	}
	if itemCount <= 0 {
		return orders.Order{}, fmt.Errorf("%d: %w", itemCount, ErrInvalidItemCount)
	}

	o := newOrder(id, itemCount)
	if !g.store.CreateIfAbsent(id, o) {
		return orders.Order{}, fmt.Errorf("%s: %w", id, ErrDuplicateOrder)
	}

	if err := g.publish(ctx, o, orders.EventOrderCreated); err != nil {
		g.store.Remove(id) // rollback the reservation
		return orders.Order{}, err
	}

	g.log.Info("order created", "order_id", id, "total", o.TotalAmount, "items", len(o.Items))
	return o, nil
}

// UpdateOrder validates and applies a status transition, publishing the
// updated order. The store is updated optimistically and restored to the
// pre-update snapshot when the publish fails.
func (g *Gateway) UpdateOrder(ctx context.Context, rawID, rawStatus string) (orders.Order, error) {
	id, err := orders.CanonicalID(rawID)
	if err != nil {
		return orders.Order{}, fmt.Errorf("%q: %w", rawID, err)
	}

	current, ok := g.store.Get(id)
	if !ok {
		return orders.Order{}, fmt.Errorf("%s: %w", id, ErrOrderNotFound)
	}

	next, ok := orders.ParseStatus(rawStatus)
	if !ok {
		return orders.Order{}, fmt.Errorf("%q: %w", rawStatus, ErrInvalidStatus)
	}
	if next == current.Status {
		return orders.Order{}, fmt.Errorf("%s is already %s: %w", id, next, ErrStatusConflict)
	}
	if !orders.IsValidTransition(current.Status, next) {
		return orders.Order{}, &InvalidTransitionError{
			OrderID: id,
			From:    current.Status,
			To:      next,
			Allowed: orders.AllowedNext(current.Status),
		}
	}

	updated := current
	updated.Status = next
	g.store.Replace(id, updated)

	if err := g.publish(ctx, updated, orders.EventOrderStatusChanged); err != nil {
		g.store.Replace(id, current) // rollback to the pre-update snapshot
		g.retainFailed(updated, err)
		return orders.Order{}, err
	}

	g.log.Info("order status updated", "order_id", id, "from", current.Status, "to", next)
	return updated, nil
}

// FailedPublishes returns the retained failed update payloads, newest last.
func (g *Gateway) FailedPublishes() []FailedPublish {
	g.failedMu.Lock()
	defer g.failedMu.Unlock()
	out := make([]FailedPublish, len(g.failed))
	copy(out, g.failed)
	return out
}

func (g *Gateway) publish(ctx context.Context, o orders.Order, eventType string) error {
	value := kafkax.MustMarshal(o)

	err := g.brk.Do(func() error {
		pctx, cancel := context.WithTimeout(ctx, g.wait)
		defer cancel()
		return g.pub.Publish(pctx, orders.PartitionKey(o.ID), value,
			kafkago.Header{Key: orders.HeaderEventType, Value: []byte(eventType)},
			kafkago.Header{Key: orders.HeaderEventVersion, Value: []byte("1")},
		)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, breaker.ErrOpen) {
		g.log.Warn("publish rejected, breaker open", "order_id", o.ID)
		return fmt.Errorf("order %s: %w", o.ID, err)
	}

	perr := &PublishError{OrderID: o.ID, Kind: classify(err), Err: err}
	g.log.Error("publish failed", "order_id", o.ID, "kind", string(perr.Kind), "err", err)
	return perr
}

func classify(err error) PublishFailure {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var kerr kafkago.Error
	if errors.As(err, &kerr) {
		return FailureBroker
	}
	return FailureUnexpected
}

func (g *Gateway) retainFailed(o orders.Order, cause error) {
	g.failedMu.Lock()
	defer g.failedMu.Unlock()
	g.failed = append(g.failed, FailedPublish{
		OrderID:  o.ID,
		Status:   o.Status,
		Payload:  kafkax.MustMarshal(o),
		Reason:   cause.Error(),
		FailedAt: time.Now().UTC(),
	})
	if len(g.failed) > maxFailedRetained {
		g.failed = g.failed[len(g.failed)-maxFailedRetained:]
	}
}

func newOrder(id string, itemCount int) orders.Order {
	items := make([]orders.Item, 0, itemCount)
	for i := 0; i < itemCount; i++ {
		items = append(items, orders.Item{
			ItemID:   fmt.Sprintf("ITEM-%03d", i+1),
			Quantity: 1 + rand.Intn(5),
			Price:    float64(rand.Intn(9999)+1) / 100,
		})
	}
	return orders.Order{
		ID:          id,
		CustomerID:  uuid.NewString(),
		OrderDate:   time.Now().UTC(),
		Items:       items,
		TotalAmount: orders.TotalAmount(items),
		Currency:    orders.DefaultCurrency,
		Status:      orders.StatusNew,
	}
}
