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
	"github.com/imrishuroy/go-agent-orderdesk/internal/config"
	"github.com/imrishuroy/go-agent-orderdesk/internal/handlers"
	"github.com/imrishuroy/go-agent-orderdesk/internal/logging"
	"github.com/imrishuroy/go-agent-orderdesk/internal/returns"
)

// sampleEvent is processed when RUN_LOCAL is set and LOCAL_EVENT is empty.
const sampleEvent = `{
  "messageVersion": "1.0",
  "agent": {"name": "customer-support-agent"},
  "actionGroup": "return-refund-action-group",
  "function": "initiate-return",
  "parameters": [
    {"name": "order_id", "type": "string", "value": "ORD11111"},
    {"name": "reason", "type": "string", "value": "Changed my mind"}
  ]
}`

// The demo dataset lives in process memory, so it resets on every cold start.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.Must(cfg.Environment)
	defer logger.Sync()

	router := action.NewRouter(logger)
	handlers.RegisterReturnActions(router, returns.NewService(returns.NewDemoStore(), logger))

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
	fmt.Println(router.Dispatch(context.Background(), ev).Text())
	return nil
}
