package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/booknest/booknest-backend/internal/order"
)

const (
	orderPlacedEventName    = "OrderPlaced"
	orderPlacedEventVersion = 1
)

// OrderPlacedItem mirrors an order line item on the wire, without the
// internal book reference consumers have no use for.
type OrderPlacedItem struct {
	Title    string  `json:"title"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderPlacedPayload represents the v1 payload schema.
type OrderPlacedPayload struct {
	OrderID       string            `json:"orderId"`
	UserID        string            `json:"userId"`
	Items         []OrderPlacedItem `json:"items"`
	Total         float64           `json:"total"`
	PaymentMethod string            `json:"paymentMethod"`
	Timestamp     time.Time         `json:"timestamp"`
}

// OrderPlacedEnvelope is the enveloped event structure.
type OrderPlacedEnvelope = EventEnvelope[OrderPlacedPayload]

// BuildOrderPlacedEnvelope builds an enveloped OrderPlaced event.
func BuildOrderPlacedEnvelope(o *order.Order, seq int64) OrderPlacedEnvelope {
	items := make([]OrderPlacedItem, 0, len(o.Lines))
	for _, it := range o.Lines {
		items = append(items, OrderPlacedItem{
			Title:    it.Title,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}

	return OrderPlacedEnvelope{
		EventName:     orderPlacedEventName,
		EventVersion:  orderPlacedEventVersion,
		EventID:       uuid.NewString(),
		CorrelationID: uuid.NewString(),
		Producer:      producerName,
		PartitionKey:  o.UserID,
		Sequence:      &seq,
		OccurredAt:    time.Now().UTC(),
		Payload: OrderPlacedPayload{
			OrderID:       o.ID,
			UserID:        o.UserID,
			Items:         items,
			Total:         o.Total,
			PaymentMethod: o.PaymentMethod,
			Timestamp:     o.CreatedAt,
		},
	}
}
