package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// AWSClients bundles the runtime service clients used by the Lambdas and the HTTP API.
type AWSClients struct {
	DynamoDB   DynamoDBAPI
	SQS        SQSAPI
	CloudWatch CloudWatchAPI
}

// NewAWSClients loads AWS config and returns concrete service clients that implement our interfaces.
func NewAWSClients(ctx context.Context, region string) (*AWSClients, error) {
	cfg, err := LoadAWSConfig(ctx, region)
	if err != nil {
		return nil, err
	}

	return &AWSClients{
		DynamoDB:   dynamodb.NewFromConfig(cfg),
		SQS:        sqs.NewFromConfig(cfg),
		CloudWatch: cloudwatch.NewFromConfig(cfg),
	}, nil
}

// ControlPlaneClients bundles the clients the provisioning CLI drives.
type ControlPlaneClients struct {
	DynamoDB     DynamoDBAdminAPI
	IAM          IAMAPI
	Lambda       LambdaAPI
	STS          STSAPI
	S3           S3API
	BedrockAgent BedrockAgentAPI
	AgentRuntime BedrockAgentRuntimeAPI
}

// NewControlPlaneClients builds every provisioning client from one shared config.
func NewControlPlaneClients(ctx context.Context, region string) (*ControlPlaneClients, error) {
	cfg, err := LoadAWSConfig(ctx, region)
	if err != nil {
		return nil, err
	}

	return &ControlPlaneClients{
		DynamoDB:     dynamodb.NewFromConfig(cfg),
		IAM:          iam.NewFromConfig(cfg),
		Lambda:       lambda.NewFromConfig(cfg),
		STS:          sts.NewFromConfig(cfg),
		S3:           s3.NewFromConfig(cfg),
		BedrockAgent: bedrockagent.NewFromConfig(cfg),
		AgentRuntime: bedrockagentruntime.NewFromConfig(cfg),
	}, nil
}
