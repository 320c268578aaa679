package returns

const (
	StatusDelivered       = "Delivered"
	StatusReturnInitiated = "Return Initiated"
	StatusRefunded        = "Refunded"
)

// TimestampLayout formats order_history timestamps.
const TimestampLayout = "2006-01-02T15:04:05"

type HistoryEntry struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
}

// Order is a delivered-order record with its append-only history.
type Order struct {
	OrderID      string         `json:"order_id"`
	CustomerName string         `json:"customer_name"`
	Item         string         `json:"item"`
	Status       string         `json:"status"`
	DeliveryDate string         `json:"delivery_date"`
	History      []HistoryEntry `json:"order_history"`
}

func (o Order) clone() Order {
	o.History = append([]HistoryEntry(nil), o.History...)
	return o
}
