package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-agent-orderdesk/internal/orders"
)

// MetricCounter is satisfied by *aws.Metrics.
type MetricCounter interface {
	Count(ctx context.Context, name string, value float64, dimensions map[string]string) error
}

// Processor turns order events from SQS into CloudWatch counts.
type Processor struct {
	metrics MetricCounter
	logger  *zap.Logger
}

// NewProcessor creates a worker processor. metrics may be nil to only log events.
func NewProcessor(metrics MetricCounter, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{metrics: metrics, logger: logger}
}

// Handle receives an SQS batch event and processes each message. Any undecodable message fails
// the whole batch so SQS redelivers it and eventually moves it to the DLQ.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	p.logger.Info("received SQS messages", zap.Int("count", len(ev.Records)))
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.logger.Error("worker error", zap.String("message_id", rec.MessageId), zap.Error(err))
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var ev orders.Event
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if ev.OrderID == "" {
		return fmt.Errorf("message %s: missing order_id", rec.MessageId)
	}
	switch ev.Type {
	case orders.EventPlaced, orders.EventCancelled:
	default:
		return fmt.Errorf("message %s: unknown event type %q", rec.MessageId, ev.Type)
	}

	p.logger.Info("order event",
		zap.String("event_id", ev.EventID),
		zap.String("type", string(ev.Type)),
		zap.String("order_id", ev.OrderID),
		zap.Time("occurred_at", ev.OccurredAt),
	)

	if p.metrics == nil {
		return nil
	}
	// a lost data point is preferable to redelivering the batch and double counting the rest
	if err := p.metrics.Count(ctx, MetricName(ev.Type), 1, nil); err != nil {
		p.logger.Warn("put metric failed", zap.String("event_id", ev.EventID), zap.Error(err))
	}
	return nil
}

// MetricName is "Orders" followed by the capitalised event type, e.g. OrdersPlaced.
func MetricName(t orders.EventType) string {
	s := string(t)
	if s == "" {
		return "Orders"
	}
	return "Orders" + strings.ToUpper(s[:1]) + s[1:]
}
