package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-agent-orderdesk/internal/action"
	"github.com/imrishuroy/go-agent-orderdesk/internal/aws"
	"github.com/imrishuroy/go-agent-orderdesk/internal/config"
	"github.com/imrishuroy/go-agent-orderdesk/internal/handlers"
	"github.com/imrishuroy/go-agent-orderdesk/internal/idempotency"
	"github.com/imrishuroy/go-agent-orderdesk/internal/logging"
	"github.com/imrishuroy/go-agent-orderdesk/internal/orders"
	"github.com/imrishuroy/go-agent-orderdesk/internal/returns"
	"github.com/imrishuroy/go-agent-orderdesk/internal/validation"
)

type services struct {
	orders      *orders.Service
	returns     *returns.Service
	idempotency *idempotency.Store
	actions     *action.Router
}

func setupRouter(svc services, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterOrdersRoutes(r, handlers.HandlerConfig{
		Orders:      svc.orders,
		Idempotency: svc.idempotency,
		Logger:      logger,
	})
	handlers.RegisterReturnsRoutes(r, svc.returns, validation.New())
	handlers.RegisterActionRoutes(r, svc.actions)

	return r
}

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

	svc := services{
		orders:  orders.NewService(orders.NewStore(clients.DynamoDB, cfg.OrdersTable), publisher, logger),
		returns: returns.NewService(returns.NewDemoStore(), logger),
		actions: action.NewRouter(logger),
	}
	if cfg.IdempotencyTable != "" {
		svc.idempotency = idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL)
	}
	handlers.RegisterOrderActions(svc.actions, svc.orders)
	handlers.RegisterReturnActions(svc.actions, svc.returns)

	r := setupRouter(svc, logger)

	// if RUN_LOCAL is set, run a local HTTP server for development.
	if cfg.RunLocal {
		logger.Info("running local server", zap.String("addr", cfg.ServerAddress))
		if err := r.Run(cfg.ServerAddress); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
