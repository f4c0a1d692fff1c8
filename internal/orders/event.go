package orders

const (
	TopicOrderEvents    = "order.events"
	TopicOrderEventsDLT = "order.events.dlt"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
)

// Informational headers on the primary channel; consumers decode the value,
// not the headers.
const (
	HeaderEventType    = "x-event-type"
	HeaderEventVersion = "x-event-version"
)
