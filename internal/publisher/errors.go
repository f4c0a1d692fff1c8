package publisher

import (
	"errors"
	"fmt"

	"github.com/y0ncha/E-commerce-sub001/internal/orders"
)

var (
	ErrDuplicateOrder   = errors.New("order already exists")
	ErrOrderNotFound    = errors.New("order not found")
	ErrStatusConflict   = errors.New("order already in requested status")
	ErrInvalidStatus    = errors.New("unknown order status")
	ErrInvalidItemCount = errors.New("item count must be positive")
)

// InvalidTransitionError carries the set of currently-allowed next statuses
// for caller guidance.
type InvalidTransitionError struct {
	OrderID string
	From    orders.Status
	To      orders.Status
	Allowed []orders.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %s: invalid transition %s -> %s (allowed: %v)",
		e.OrderID, e.From, e.To, e.Allowed)
}

// PublishFailure classifies why a publish attempt failed.
type PublishFailure string

const (
	FailureTimeout    PublishFailure = "timeout"
	FailureBroker     PublishFailure = "broker"
	FailureUnexpected PublishFailure = "unexpected"
)

// PublishError is a transient infrastructure failure on the publish path.
// Local state speculatively applied before the attempt has been rolled back
// by the time the caller sees it.
type PublishError struct {
	OrderID string
	Kind    PublishFailure
	Err     error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("order %s: publish failed (%s): %v", e.OrderID, e.Kind, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
