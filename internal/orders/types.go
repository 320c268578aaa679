package orders

import "time"

// Order statuses written by the handlers. The attribute is free-form; other systems may write
// values such as "Shipped" or "Delivered".
const (
	StatusProcessing = "Processing"
	StatusCancelled  = "Cancelled"
)

const (
	// DeliveryLeadTime is added to the placement date to estimate delivery.
	DeliveryLeadTime = 10 * 24 * time.Hour
	// DateLayout is the ISO date format of delivery_date.
	DateLayout = "2006-01-02"
)

// Order represents the item stored in the orders DynamoDB table.
type Order struct {
	OrderID         string `dynamodbav:"order_id" json:"order_id"` // PK
	Name            string `dynamodbav:"name" json:"name"`
	ProductID       string `dynamodbav:"product_id" json:"product_id"`
	Item            string `dynamodbav:"item" json:"item"`
	Quantity        int    `dynamodbav:"quantity" json:"quantity"`
	ShippingAddress string `dynamodbav:"shipping_address" json:"shipping_address"`
	PaymentMethod   string `dynamodbav:"payment_method" json:"payment_method"`
	Status          string `dynamodbav:"status" json:"status"`
	DeliveryDate    string `dynamodbav:"delivery_date" json:"delivery_date"`
}

// EventType names an order lifecycle change published to the events queue.
type EventType string

const (
	EventPlaced    EventType = "placed"
	EventCancelled EventType = "cancelled"
)

// Event is the JSON body sent to the order events queue.
type Event struct {
	EventID    string    `json:"event_id"`
	Type       EventType `json:"type"`
	OrderID    string    `json:"order_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
