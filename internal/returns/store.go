package returns

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrInvalidTransition is wrapped with the order's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// MemoryStore keeps the return/refund demo dataset in process memory. It is reset on every cold
// start and is safe for concurrent use.
type MemoryStore struct {
	mu     sync.Mutex
	orders map[string]*Order
}

// NewMemoryStore copies orders into a new store.
func NewMemoryStore(orders ...Order) *MemoryStore {
	s := &MemoryStore{orders: make(map[string]*Order, len(orders))}
	for _, o := range orders {
		c := o.clone()
		s.orders[o.OrderID] = &c
	}
	return s
}

// NewDemoStore returns a store holding the four demo orders the agent is scripted against.
func NewDemoStore() *MemoryStore {
	return NewMemoryStore(DemoOrders()...)
}

// Get returns a copy of the order.
func (s *MemoryStore) Get(orderID string) (Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return Order{}, false
	}
	return o.clone(), true
}

// Transition moves the order from `from` to `to` and appends one history entry, atomically.
// Any other current status leaves the order untouched.
func (s *MemoryStore) Transition(orderID, from, to string, entry HistoryEntry) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return Order{}, ErrNotFound
	}
	if o.Status != from {
		return o.clone(), fmt.Errorf("%w: %s is %q, want %q", ErrInvalidTransition, orderID, o.Status, from)
	}
	o.Status = to
	o.History = append(o.History, entry)
	return o.clone(), nil
}

// DemoOrders is the fixed dataset.
func DemoOrders() []Order {
	return []Order{
		{
			OrderID:      "ORD12345",
			CustomerName: "John Doe",
			Item:         "wireless headphones",
			Status:       "Out for delivery",
			DeliveryDate: "2024-04-10",
			History: []HistoryEntry{
				{Timestamp: "2024-03-01T12:00:00", Event: "Order Placed"},
				{Timestamp: "2024-03-03T09:30:00", Event: "Order Shipped"},
				{Timestamp: "2024-04-10T15:45:00", Event: "Out for Delivery"},
			},
		},
		{
			OrderID:      "ORD67890",
			CustomerName: "Jane Smith",
			Item:         "smart watch",
			Status:       "Processing",
			DeliveryDate: "2024-03-15",
			History: []HistoryEntry{
				{Timestamp: "2024-03-02T10:30:00", Event: "Order Placed"},
			},
		},
		{
			OrderID:      "ORD11111",
			CustomerName: "Rohit Kumar",
			Item:         "laptop",
			Status:       StatusDelivered,
			DeliveryDate: "2024-05-08",
			History: []HistoryEntry{
				{Timestamp: "2024-04-05T08:00:00", Event: "Order Placed"},
				{Timestamp: "2024-04-07T14:20:00", Event: "Order Shipped"},
				{Timestamp: "2024-05-08T10:15:00", Event: "Delivered"},
			},
		},
		{
			OrderID:      "ORD99999",
			CustomerName: "Maya Singh",
			Item:         "smart tv",
			Status:       StatusReturnInitiated,
			DeliveryDate: "2024-06-07",
			History: []HistoryEntry{
				{Timestamp: "2024-05-30T08:00:00", Event: "Order Placed"},
				{Timestamp: "2024-06-01T14:20:00", Event: "Order Shipped"},
				{Timestamp: "2024-06-07T10:15:00", Event: "Delivered"},
				{Timestamp: "2024-06-10T10:05:00", Event: "Return Initiated"},
			},
		},
	}
}
