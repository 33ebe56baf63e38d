package orders

const (
	TopicOrderCreated   = "order.created"
	TopicOrderFinalized = "order.finalized"
)

// Partition key = order_id so all events for one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
