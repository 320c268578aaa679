// Package provision creates and tears down the AWS resources the order desk agent runs on:
// the orders table, IAM roles and policies, and the action-group Lambdas.
package provision

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-agent-orderdesk/internal/aws"
	"github.com/imrishuroy/go-agent-orderdesk/internal/config"
)

const defaultTableWait = 5 * time.Minute

// Options are the provisioning settings that do not vary per call.
type Options struct {
	Region           string
	LambdaRuntime    string
	LambdaTimeout    int32
	CodeBucket       string
	PropagationDelay time.Duration
	TableWaitTimeout time.Duration
}

// OptionsFromConfig maps the environment configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Region:           cfg.AWSRegion,
		LambdaRuntime:    cfg.LambdaRuntime,
		LambdaTimeout:    cfg.LambdaTimeout,
		CodeBucket:       cfg.CodeBucket,
		PropagationDelay: cfg.IAMPropagationDelay,
		TableWaitTimeout: defaultTableWait,
	}
}

// Role identifies an IAM role.
type Role struct {
	Name string
	ARN  string
}

// Provisioner drives the control-plane APIs sequentially.
type Provisioner struct {
	dynamo aws.DynamoDBAdminAPI
	iam    aws.IAMAPI
	lambda aws.LambdaAPI
	sts    aws.STSAPI
	s3     aws.S3API
	agents aws.BedrockAgentAPI

	opts   Options
	logger *zap.Logger

	// sleep waits out IAM eventual consistency; tests replace it.
	sleep     func(ctx context.Context, d time.Duration) error
	accountID string
}

func New(clients *aws.ControlPlaneClients, opts Options, logger *zap.Logger) *Provisioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TableWaitTimeout <= 0 {
		opts.TableWaitTimeout = defaultTableWait
	}
	return &Provisioner{
		dynamo: clients.DynamoDB,
		iam:    clients.IAM,
		lambda: clients.Lambda,
		sts:    clients.STS,
		s3:     clients.S3,
		agents: clients.BedrockAgent,
		opts:   opts,
		logger: logger,
		sleep:  sleepContext,
	}
}

// AccountID resolves the caller's account once and caches it.
func (p *Provisioner) AccountID(ctx context.Context) (string, error) {
	if p.accountID != "" {
		return p.accountID, nil
	}
	out, err := p.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("get caller identity: %w", err)
	}
	p.accountID = sdkaws.ToString(out.Account)
	return p.accountID, nil
}

func (p *Provisioner) waitForPropagation(ctx context.Context) error {
	if p.opts.PropagationDelay <= 0 {
		return nil
	}
	p.logger.Debug("waiting for IAM propagation", zap.Duration("delay", p.opts.PropagationDelay))
	return p.sleep(ctx, p.opts.PropagationDelay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
