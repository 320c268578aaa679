package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-agent-orderdesk/internal/action"
	"github.com/imrishuroy/go-agent-orderdesk/internal/aws"
	"github.com/imrishuroy/go-agent-orderdesk/internal/config"
	"github.com/imrishuroy/go-agent-orderdesk/internal/handlers"
	"github.com/imrishuroy/go-agent-orderdesk/internal/logging"
	"github.com/imrishuroy/go-agent-orderdesk/internal/orders"
)

// sampleEvent is processed when RUN_LOCAL is set and LOCAL_EVENT is empty.
const sampleEvent = `{
  "messageVersion": "1.0",
  "agent": {"name": "customer-support-agent"},
  "actionGroup": "order-action-group",
  "function": "place-order",
  "parameters": [
    {"name": "product_name", "type": "string", "value": "A100 SmartWatch"},
    {"name": "quantity", "type": "string", "value": "1"},
    {"name": "shipping_address", "type": "string", "value": "123 Main St"},
    {"name": "payment_method", "type": "string", "value": "Credit Card"},
    {"name": "name", "type": "string", "value": "John Doe"}
  ]
}`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.Must(cfg.Environment)
	defer logger.Sync()

	clients, err := aws.NewAWSClients(context.Background(), cfg.AWSRegion)
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	var publisher orders.EventPublisher
	if cfg.EventsQueueURL != "" {
		publisher = aws.NewPublisher(clients.SQS, cfg.EventsQueueURL)
	}
	svc := orders.NewService(orders.NewStore(clients.DynamoDB, cfg.OrdersTable), publisher, logger)

	router := action.NewRouter(logger)
	handlers.RegisterOrderActions(router, svc)

	if cfg.RunLocal {
		if err := runLocal(router, os.Getenv("LOCAL_EVENT")); err != nil {
			logger.Fatal("local handler error", zap.Error(err))
		}
		return
	}

	lambda.Start(router.LambdaHandler())
}

func runLocal(router *action.Router, raw string) error {
	if raw == "" {
		raw = sampleEvent
	}
	var ev action.Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return fmt.Errorf("decode local event: %w", err)
	}
	out, err := json.MarshalIndent(router.Dispatch(context.Background(), ev), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
