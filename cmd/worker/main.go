package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-agent-orderdesk/internal/aws"
	"github.com/imrishuroy/go-agent-orderdesk/internal/config"
	"github.com/imrishuroy/go-agent-orderdesk/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.Must(cfg.Environment)
	defer logger.Sync()

	var metrics MetricCounter
	if cfg.EnableMetrics {
		clients, err := aws.NewAWSClients(context.Background(), cfg.AWSRegion)
		if err != nil {
			log.Fatalf("failed to init aws clients: %v", err)
		}
		metrics = aws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace)
	}
	p := NewProcessor(metrics, logger)

	// If RUN_LOCAL is set, process a single simulated SQS event and exit.
	if cfg.RunLocal {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"event_id":"local-1","type":"placed","order_id":"ORD12345","occurred_at":"2026-10-16T09:00:00Z"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{MessageId: "local-1", Body: testBody},
			},
		}
		if err := p.Handle(context.Background(), event); err != nil {
			logger.Fatal("local handler error", zap.Error(err))
		}
		return
	}

	lambda.Start(p.Handle)
}
