package orders

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "USD"

// shippingRate is the flat shipping fee, 2% of the order total.
var shippingRate = decimal.RequireFromString("0.02")

type Item struct {
	ItemID   string  `json:"itemId"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order is both the publish-side record and the wire payload of an order
// event; the key of the message carrying it is the canonical order id.
type Order struct {
	ID          string    `json:"orderId"`
	CustomerID  string    `json:"customerId"`
	OrderDate   time.Time `json:"orderDate"`
	Items       []Item    `json:"items"`
	TotalAmount float64   `json:"totalAmount"`
	Currency    string    `json:"currency"`
	Status      Status    `json:"status"`
}

// ProcessedOrder is the consume-side projection of an order.
type ProcessedOrder struct {
	Order
	ShippingCost float64   `json:"shippingCost"`
	ReceivedAt   time.Time `json:"receivedAt"`
	SourceTopic  string    `json:"sourceTopic,omitempty"`
}

// TotalAmount sums price*quantity over items, rounded to 2 decimal places.
func TotalAmount(items []Item) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	f, _ := sum.Round(2).Float64()
	return f
}

// ShippingCost derives the flat 2% shipping fee from an order total,
// rounded to 2 decimal places.
func ShippingCost(totalAmount float64) float64 {
	f, _ := decimal.NewFromFloat(totalAmount).Mul(shippingRate).Round(2).Float64()
	return f
}

// Validate checks the structural invariants of a decoded order. A failure
// here is permanent: the same payload can never become valid on redelivery.
func (o Order) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if o.CustomerID == "" {
		return fmt.Errorf("order %s: missing customer id", o.ID)
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("order %s: no items", o.ID)
	}
	for i, it := range o.Items {
		if it.Quantity <= 0 {
			return fmt.Errorf("order %s: item %d: quantity must be positive", o.ID, i)
		}
		if it.Price <= 0 {
			return fmt.Errorf("order %s: item %d: price must be positive", o.ID, i)
		}
	}
	if o.TotalAmount < 0 {
		return fmt.Errorf("order %s: negative total", o.ID)
	}
	if len(o.Currency) != 3 {
		return fmt.Errorf("order %s: currency %q is not an ISO-4217 code", o.ID, o.Currency)
	}
	if !o.Status.Known() {
		return fmt.Errorf("order %s: unknown status %q", o.ID, o.Status)
	}
	return nil
}
