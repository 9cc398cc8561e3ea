package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// EventType определяет тип события
type EventType string

const (
	// EventTypeOrderPlaced публикуется после успешного оформления заказа.
	EventTypeOrderPlaced EventType = "order.placed"
)

// AggregateTypeOrder — тип агрегата для outbox-сообщений заказа.
const AggregateTypeOrder = "order"

// Topics для Kafka
const (
	TopicOrderEvents     = "checkout.order.events"
	TopicDeadLetterQueue = "checkout.dlq" // Dead Letter Queue для failed messages
)

// OrderPlacedLine — позиция заказа в событии order.placed.
type OrderPlacedLine struct {
	ProductID  string `json:"product_id"`
	Qty        int32  `json:"qty"`
	PriceMinor int64  `json:"price_minor"`
}

// OrderPlacedEvent представляет событие оформленного заказа.
type OrderPlacedEvent struct {
	EventType   EventType         `json:"event_type"`
	OrderID     string            `json:"order_id"`
	CustomerID  string            `json:"customer_id"`
	AmountMinor int64             `json:"amount_minor"`
	Lines       []OrderPlacedLine `json:"lines"`
	PlacedAt    time.Time         `json:"placed_at"`
}

// NewOrderPlacedEvent создаёт событие order.placed из сохранённого агрегата.
func NewOrderPlacedEvent(order domain.Order) *OrderPlacedEvent {
	lines := make([]OrderPlacedLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, OrderPlacedLine{
			ProductID:  line.ProductID,
			Qty:        line.Qty,
			PriceMinor: line.PriceMinor,
		})
	}

	return &OrderPlacedEvent{
		EventType:   EventTypeOrderPlaced,
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		AmountMinor: order.AmountMinor,
		Lines:       lines,
		PlacedAt:    order.CreatedAt,
	}
}
