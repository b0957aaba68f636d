package bus

// Each routing key is a Kafka topic; a durable named queue is a consumer
// group, one per logical reaction (not per instance). A group may be bound to
// several routing keys, like a queue bound to several patterns on a topic
// exchange.
const (
	// Order coordinator: one queue for all three terminal events.
	QueueOrderResults = "order.results"

	// Inventory ledger: reservation and compensation react independently.
	QueueInventoryOrderCreated  = "inventory.order.created"
	QueueInventoryPaymentFailed = "inventory.payment.failed"

	// Payment authorizer.
	QueuePaymentStockReserved = "payment.stock.reserved"
	QueuePaymentStockRejected = "payment.stock.rejected"

	// Messages that cannot be parsed land here instead of being retried.
	TopicDeadLetter = "saga.deadletter"
)

const (
	HeaderEventID     = "x-event-id"
	HeaderEventType   = "x-event-type"
	HeaderProducer    = "x-producer"
	HeaderOriginTopic = "x-origin-topic"
	HeaderError       = "x-error"
)
