package returns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Service implements the return-refund action group.
type Service struct {
	store   *MemoryStore
	logger  *zap.Logger
	nowFunc func() time.Time
}

func NewService(store *MemoryStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, nowFunc: time.Now}
}

// Lookup returns a copy of the order.
func (s *Service) Lookup(orderID string) (Order, bool) {
	return s.store.Get(orderID)
}

// InitiateReturn moves a Delivered order to Return Initiated and returns the agent reply.
func (s *Service) InitiateReturn(ctx context.Context, orderID, reason string) string {
	event := "Return Initiated"
	if reason != "" {
		event += ": " + reason
	}

	o, err := s.store.Transition(orderID, StatusDelivered, StatusReturnInitiated, s.entry(event))
	switch {
	case errors.Is(err, ErrNotFound):
		return noOrderText(orderID)
	case errors.Is(err, ErrInvalidTransition):
		s.logger.Info("return rejected", zap.String("order_id", orderID), zap.String("status", o.Status))
		return fmt.Sprintf("Unable to initiate return for order %s as it has not been delivered yet.", orderID)
	case err != nil:
		s.logger.Error("initiate return failed", zap.String("order_id", orderID), zap.Error(err))
		return fmt.Sprintf("Unable to initiate return for order %s. Please try again later.", orderID)
	}

	s.logger.Info("return initiated", zap.String("order_id", orderID), zap.String("reason", reason))
	return fmt.Sprintf("Return initiated for order %s (%s). Please ship the item back within 30 days.", orderID, o.Item)
}

// ProcessRefund moves a Return Initiated order to Refunded and returns the agent reply.
func (s *Service) ProcessRefund(ctx context.Context, orderID string) string {
	o, err := s.store.Transition(orderID, StatusReturnInitiated, StatusRefunded, s.entry("Order Refunded"))
	switch {
	case errors.Is(err, ErrNotFound):
		return noOrderText(orderID)
	case errors.Is(err, ErrInvalidTransition):
		s.logger.Info("refund rejected", zap.String("order_id", orderID), zap.String("status", o.Status))
		return fmt.Sprintf("Unable to process refund for order %s as the return has not been initiated.", orderID)
	case err != nil:
		s.logger.Error("process refund failed", zap.String("order_id", orderID), zap.Error(err))
		return fmt.Sprintf("Unable to process refund for order %s. Please try again later.", orderID)
	}

	s.logger.Info("refund processed", zap.String("order_id", orderID))
	return fmt.Sprintf("Refund processed for order %s (%s).", orderID, o.Item)
}

func (s *Service) entry(event string) HistoryEntry {
	return HistoryEntry{Timestamp: s.nowFunc().UTC().Format(TimestampLayout), Event: event}
}

func noOrderText(orderID string) string {
	return fmt.Sprintf("No order found with ID %s", orderID)
}
