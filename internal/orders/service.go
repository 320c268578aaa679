package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-agent-orderdesk/internal/validation"
)

// Agent-facing replies.
const (
	TextOrderIDRequired  = "Order ID is required"
	TextRequiredFields   = "Name, shipping address, product name and payment method are required information."
	TextInvalidQuantity  = "Quantity must be a positive whole number."
	TextPlaceOrderFailed = "Error placing order. Please try again later."
)

const (
	defaultQuantity    = "1"
	maxCreateAttempts  = 3
	eventTypeAttribute = "event_type"
)

// ErrInvalidRequest wraps the validation failure of a place-order request.
var ErrInvalidRequest = errors.New("invalid place order request")

// EventPublisher sends order events. *aws.Publisher satisfies it.
type EventPublisher interface {
	PublishJSON(ctx context.Context, payload any, attributes map[string]string) error
}

// Service implements the order action group on top of the orders table.
type Service struct {
	store     *Store
	validate  *validatorv10.Validate
	publisher EventPublisher
	logger    *zap.Logger

	nowFunc      func() time.Time
	newOrderID   func() string
	newProductID func() string
}

// NewService wires a Service. publisher may be nil, in which case no events are sent.
func NewService(store *Store, publisher EventPublisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:        store,
		validate:     validation.New(),
		publisher:    publisher,
		logger:       logger,
		nowFunc:      time.Now,
		newOrderID:   GenerateOrderID,
		newProductID: GenerateProductID,
	}
}

// Get returns the order, or (nil, nil) when there is none.
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.store.Get(ctx, orderID)
}

// TrackText answers retrieve-order-tracking-info with the order as JSON.
func (s *Service) TrackText(ctx context.Context, orderID string) string {
	if orderID == "" {
		return TextOrderIDRequired
	}
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		s.logger.Error("get order failed", zap.String("order_id", orderID), zap.Error(err))
		return fmt.Sprintf("Error retrieving order %s. Please try again later.", orderID)
	}
	if o == nil {
		return notFoundText(orderID)
	}
	body, err := json.Marshal(o)
	if err != nil {
		s.logger.Error("marshal order failed", zap.String("order_id", orderID), zap.Error(err))
		return fmt.Sprintf("Error retrieving order %s. Please try again later.", orderID)
	}
	return string(body)
}

// CancelOrder sets the order status to Cancelled. It returns ErrOrderNotFound for unknown ids.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (*Order, error) {
	existing, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrOrderNotFound
	}

	updated, err := s.store.SetStatus(ctx, orderID, StatusCancelled)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order cancelled", zap.String("order_id", orderID), zap.String("previous_status", existing.Status))
	s.publish(ctx, EventCancelled, orderID)
	return updated, nil
}

// CancelText answers cancel-order.
func (s *Service) CancelText(ctx context.Context, orderID string) string {
	if orderID == "" {
		return TextOrderIDRequired
	}
	if _, err := s.CancelOrder(ctx, orderID); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return notFoundText(orderID)
		}
		s.logger.Error("cancel order failed", zap.String("order_id", orderID), zap.Error(err))
		return fmt.Sprintf("Error cancelling order %s. Please try again later.", orderID)
	}
	return fmt.Sprintf("Order %s cancelled", orderID)
}

// PlaceOrder validates req, generates the ids and writes a Processing order due in ten days.
// Validation failures are wrapped in ErrInvalidRequest.
func (s *Service) PlaceOrder(ctx context.Context, req validation.PlaceOrderRequest) (*Order, error) {
	return s.placeOrder(ctx, req, s.store.Create)
}

// ClaimFunc builds the conditional write that must succeed together with the order.
type ClaimFunc func(orderID string) (types.Put, error)

// PlaceOrderClaimed is PlaceOrder with the order written in the same transaction as claim.
// If the claim is already taken nothing is written and ErrClaimConflict is returned.
func (s *Service) PlaceOrderClaimed(ctx context.Context, req validation.PlaceOrderRequest, claim ClaimFunc) (*Order, error) {
	return s.placeOrder(ctx, req, func(ctx context.Context, o Order) error {
		put, err := claim(o.OrderID)
		if err != nil {
			return fmt.Errorf("build claim: %w", err)
		}
		return s.store.CreateWithClaim(ctx, o, put)
	})
}

func (s *Service) placeOrder(ctx context.Context, req validation.PlaceOrderRequest, create func(context.Context, Order) error) (*Order, error) {
	if req.Quantity == "" {
		req.Quantity = defaultQuantity
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	// same parse as the positiveint validator
	quantity, err := strconv.Atoi(strings.TrimSpace(req.Quantity))
	if err != nil {
		return nil, fmt.Errorf("%w: quantity: %w", ErrInvalidRequest, err)
	}

	placedOn := s.nowFunc().UTC()
	order := Order{
		Name:            req.Name,
		Item:            req.ProductName,
		Quantity:        quantity,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Status:          StatusProcessing,
		DeliveryDate:    DeliveryDate(placedOn),
	}

	for attempt := 1; ; attempt++ {
		order.OrderID = s.newOrderID()
		order.ProductID = s.newProductID()

		err = create(ctx, order)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrOrderExists) || attempt == maxCreateAttempts {
			return nil, fmt.Errorf("create order: %w", err)
		}
		s.logger.Warn("order id collision, regenerating", zap.String("order_id", order.OrderID), zap.Int("attempt", attempt))
	}

	s.logger.Info("order created", zap.String("order_id", order.OrderID), zap.String("item", order.Item))
	s.publish(ctx, EventPlaced, order.OrderID)
	return &order, nil
}

// PlaceText answers place-order.
func (s *Service) PlaceText(ctx context.Context, req validation.PlaceOrderRequest) string {
	s.logger.Info("place order requested",
		zap.String("product_name", req.ProductName),
		zap.String("name", req.Name),
		zap.String("shipping_address", req.ShippingAddress),
		zap.String("payment_method", req.PaymentMethod),
	)

	o, err := s.PlaceOrder(ctx, req)
	switch {
	case err == nil:
		return ConfirmationText(o)
	case errors.Is(err, ErrInvalidRequest):
		if validation.OnlyFieldFailed(err, "Quantity") {
			return TextInvalidQuantity
		}
		return TextRequiredFields
	default:
		s.logger.Error("place order failed", zap.Error(err))
		return TextPlaceOrderFailed
	}
}

// ConfirmationText is the reply for a successfully placed order.
func ConfirmationText(o *Order) string {
	return fmt.Sprintf("Order placed successfully! Order ID: %s, Product ID: %s, Product Name: %s, Quantity: %d, Estimated Delivery Date: %s",
		o.OrderID, o.ProductID, o.Item, o.Quantity, o.DeliveryDate)
}

// DeliveryDate is the estimated delivery date for an order placed at placedAt.
func DeliveryDate(placedAt time.Time) string {
	return placedAt.Add(DeliveryLeadTime).Format(DateLayout)
}

func notFoundText(orderID string) string {
	return fmt.Sprintf("Order %s not found.", orderID)
}

// publish is best effort: the order write already succeeded.
func (s *Service) publish(ctx context.Context, typ EventType, orderID string) {
	if s.publisher == nil {
		return
	}
	ev := Event{
		EventID:    uuid.NewString(),
		Type:       typ,
		OrderID:    orderID,
		OccurredAt: s.nowFunc().UTC(),
	}
	if err := s.publisher.PublishJSON(ctx, ev, map[string]string{eventTypeAttribute: string(typ), "order_id": orderID}); err != nil {
		s.logger.Warn("publish order event failed", zap.String("order_id", orderID), zap.String("type", string(typ)), zap.Error(err))
	}
}
