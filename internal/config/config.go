package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds runtime configuration shared by the Lambdas, the HTTP API and the provisioning CLI.
type Config struct {
	Environment   string
	AWSRegion     string
	ServerAddress string
	RunLocal      bool

	// Tables and queues
	OrdersTable      string
	IdempotencyTable string
	EventsQueueURL   string
	IdempotencyTTL   time.Duration

	// Metrics
	MetricsNamespace string
	EnableMetrics    bool

	// Provisioning
	AgentName           string
	FoundationModel     string
	KnowledgeBaseID     string
	LambdaRuntime       string
	LambdaTimeout       int32
	CodeBucket          string
	IAMPropagationDelay time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		RunLocal:      getEnvBool("RUN_LOCAL", false),

		OrdersTable:      getEnv("ORDERS_TABLE", "orders"),
		IdempotencyTable: getEnv("IDEMPOTENCY_TABLE", ""),
		EventsQueueURL:   getEnv("ORDER_EVENTS_QUEUE_URL", ""),
		IdempotencyTTL:   getEnvDuration("IDEMPOTENCY_TTL", 48*time.Hour),

		MetricsNamespace: getEnv("METRICS_NAMESPACE", "BedrockAgentOrders"),
		EnableMetrics:    getEnvBool("ENABLE_METRICS", true),

		AgentName:           getEnv("AGENT_NAME", "customer-support-agent"),
		FoundationModel:     getEnv("FOUNDATION_MODEL", "anthropic.claude-3-7-sonnet-20250219-v1:0"),
		KnowledgeBaseID:     getEnv("KNOWLEDGE_BASE_ID", ""),
		LambdaRuntime:       getEnv("LAMBDA_RUNTIME", "provided.al2023"),
		LambdaTimeout:       int32(getEnvInt("LAMBDA_TIMEOUT", 60)),
		CodeBucket:          getEnv("CODE_BUCKET", ""),
		IAMPropagationDelay: getEnvDuration("IAM_PROPAGATION_DELAY", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that have no usable default.
func (c *Config) Validate() error {
	if c.OrdersTable == "" {
		return fmt.Errorf("ORDERS_TABLE must not be empty")
	}
	if c.LambdaTimeout <= 0 || c.LambdaTimeout > 900 {
		return fmt.Errorf("LAMBDA_TIMEOUT must be between 1 and 900 seconds, got %d", c.LambdaTimeout)
	}
	if c.IAMPropagationDelay < 0 {
		return fmt.Errorf("IAM_PROPAGATION_DELAY must not be negative")
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT is "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("10s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
