package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/y0ncha/E-commerce-sub001/internal/orders"
)

func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// DecodeOrder parses an order event payload and checks its structural
// invariants. Any error is permanent for this payload.
func DecodeOrder(b []byte) (orders.Order, error) {
	var o orders.Order
	if err := json.Unmarshal(b, &o); err != nil {
		return orders.Order{}, fmt.Errorf("decode order event: %w", err)
	}
	if err := o.Validate(); err != nil {
		return orders.Order{}, fmt.Errorf("invalid order event: %w", err)
	}
	return o, nil
}
