package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-agent-orderdesk/internal/agent"
	"github.com/imrishuroy/go-agent-orderdesk/internal/aws"
	"github.com/imrishuroy/go-agent-orderdesk/internal/config"
	"github.com/imrishuroy/go-agent-orderdesk/internal/logging"
	"github.com/imrishuroy/go-agent-orderdesk/internal/orders"
	"github.com/imrishuroy/go-agent-orderdesk/internal/provision"
)

const usage = `usage: provision <command> [flags]

commands:
  setup      create tables, IAM roles/policies and the action Lambdas
  teardown   detach and delete the IAM roles and policies
  cleanup    delete agent resources, a Lambda and a table
  invoke     send a message to an agent alias and print the answer
`

var errUsage = errors.New("invalid usage")

// newClients is swapped in tests.
var newClients = aws.NewControlPlaneClients

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.Must(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		logger.Fatal("provision failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "setup":
		return runSetup(ctx, cfg, logger, args[1:], stdout)
	case "teardown":
		return runTeardown(ctx, cfg, logger, args[1:])
	case "cleanup":
		return runCleanup(ctx, cfg, logger, args[1:])
	case "invoke":
		return runInvoke(ctx, cfg, logger, args[1:], stdout)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

type setupResult struct {
	LambdaRole      string `json:"lambda_role_arn"`
	AgentRole       string `json:"agent_role_arn"`
	OrderFunction   string `json:"order_function_arn,omitempty"`
	ReturnsFunction string `json:"returns_function_arn,omitempty"`
}

func runSetup(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	agentName := fs.String("agent", cfg.AgentName, "agent name, used as the resource name prefix")
	orderBinary := fs.String("order-binary", "", "compiled order-action handler (linux, named anything)")
	returnsBinary := fs.String("returns-binary", "", "compiled returns-action handler")
	kbID := fs.String("kb", cfg.KnowledgeBaseID, "knowledge base id the agent may query")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	p, err := newProvisioner(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if err := p.CreateTable(ctx, cfg.OrdersTable, orders.PartitionKey); err != nil {
		return err
	}
	if cfg.IdempotencyTable != "" {
		if err := p.CreateTable(ctx, cfg.IdempotencyTable, "idempotency_key"); err != nil {
			return err
		}
	}

	lambdaRole, err := p.CreateLambdaRole(ctx, *agentName, cfg.OrdersTable)
	if err != nil {
		return err
	}
	res := setupResult{LambdaRole: lambdaRole.ARN}

	env := map[string]string{"ORDERS_TABLE": cfg.OrdersTable}
	if cfg.EventsQueueURL != "" {
		env["ORDER_EVENTS_QUEUE_URL"] = cfg.EventsQueueURL
	}
	if *orderBinary != "" {
		fn, err := p.CreateLambda(ctx, *agentName+"-orders", lambdaRole, *orderBinary, env)
		if err != nil {
			return err
		}
		res.OrderFunction = fn.ARN
	}
	if *returnsBinary != "" {
		fn, err := p.CreateLambda(ctx, *agentName+"-returns", lambdaRole, *returnsBinary, nil)
		if err != nil {
			return err
		}
		res.ReturnsFunction = fn.ARN
	}

	agentRole, err := p.CreateAgentRoleAndPolicies(ctx, *agentName, cfg.FoundationModel, *kbID)
	if err != nil {
		return err
	}
	res.AgentRole = agentRole.ARN

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func runTeardown(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("teardown", flag.ContinueOnError)
	agentName := fs.String("agent", cfg.AgentName, "agent name used at setup")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	p, err := newProvisioner(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := p.DeleteAgentRolesAndPolicies(ctx, *agentName); err != nil {
		// best effort: whatever could be deleted is gone
		logger.Warn("teardown finished with errors", zap.Error(err))
	}
	return nil
}

func runCleanup(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("cleanup", flag.ContinueOnError)
	var t provision.CleanupTarget
	fs.StringVar(&t.TableName, "table", cfg.OrdersTable, "table to delete, empty to keep")
	fs.StringVar(&t.FunctionName, "function", "", "Lambda function to delete")
	fs.StringVar(&t.FunctionARN, "function-arn", "", "ARN of the action group's Lambda")
	fs.StringVar(&t.AgentID, "agent-id", "", "agent to delete")
	fs.StringVar(&t.AliasID, "alias-id", "", "agent alias to delete")
	fs.StringVar(&t.ActionGroupID, "action-group-id", "", "action group to disable and delete")
	fs.StringVar(&t.ActionGroupName, "action-group-name", "", "name of that action group")
	fs.StringVar(&t.KnowledgeBaseID, "kb", cfg.KnowledgeBaseID, "knowledge base to disassociate")
	schema := fs.String("schema", "orders", "function schema of the action group: orders or returns")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	switch *schema {
	case "orders":
		t.Functions = provision.OrderFunctions()
	case "returns":
		t.Functions = provision.ReturnFunctions()
	default:
		return fmt.Errorf("%w: unknown schema %q", errUsage, *schema)
	}

	p, err := newProvisioner(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := p.CleanUpResources(ctx, t); err != nil {
		logger.Warn("cleanup finished with errors", zap.Error(err))
	}
	return nil
}

func runInvoke(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("invoke", flag.ContinueOnError)
	var req agent.Request
	fs.StringVar(&req.AgentID, "agent-id", "", "agent id")
	fs.StringVar(&req.AliasID, "alias-id", "", "agent alias id")
	fs.StringVar(&req.SessionID, "session", "", "session id to continue, new session when empty")
	fs.BoolVar(&req.EnableTrace, "trace", false, "ask the agent for trace events")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	req.InputText = strings.Join(fs.Args(), " ")
	if req.AgentID == "" || req.AliasID == "" || req.InputText == "" {
		return fmt.Errorf("%w: invoke needs -agent-id, -alias-id and a message", errUsage)
	}

	clients, err := newClients(ctx, cfg.AWSRegion)
	if err != nil {
		return fmt.Errorf("init aws clients: %w", err)
	}
	completion, err := agent.NewClient(clients.AgentRuntime, logger).Invoke(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s\n(session %s)\n", completion.Text, completion.SessionID)
	return nil
}

func newProvisioner(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*provision.Provisioner, error) {
	clients, err := newClients(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("init aws clients: %w", err)
	}
	return provision.New(clients, provision.OptionsFromConfig(cfg), logger), nil
}
