package redisx

import "time"

const (
	// Dedup of event processing: dedup:{service}:{order_id:status}
	KeyDedup = "dedup:%s:%s"

	// Cache of the latest order status: order_status:{order_id} ->
	// {"status": "...", "updated_at": "..."}
	KeyOrderStatus = "order_status:%s"
)

var (
	TTLDedup       = 48 * time.Hour
	TTLStatusCache = 5 * time.Minute
)
