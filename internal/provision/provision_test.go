package provision

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	agenttypes "github.com/aws/aws-sdk-go-v2/service/bedrockagent/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTable_CreatesOnceAndWaits(t *testing.T) {
	f := newFixture(testOptions())
	ctx := context.Background()

	require.NoError(t, f.p.CreateTable(ctx, "orders", "order_id"))
	require.NoError(t, f.p.CreateTable(ctx, "orders", "order_id"))

	assert.True(t, f.dynamo.tables["orders"])
	assert.Equal(t, []string{"dynamodb.CreateTable orders"}, f.calls.list())
}

func TestCreateLambdaRole_FreshAccount(t *testing.T) {
	f := newFixture(testOptions())

	role, err := f.p.CreateLambdaRole(context.Background(), "support", "orders")
	require.NoError(t, err)

	assert.Equal(t, "support-lambda-role", role.Name)
	assert.Equal(t, "arn:aws:iam::123456789012:role/support-lambda-role", role.ARN)
	assert.Equal(t, []time.Duration{10 * time.Second}, f.slept)
	assert.Equal(t, []string{
		LambdaBasicExecutionPolicyARN,
		"arn:aws:iam::123456789012:policy/support-dynamodb-policy",
	}, f.iam.attached["support-lambda-role"])

	var trust PolicyDocument
	require.NoError(t, json.Unmarshal([]byte(f.iam.roles["support-lambda-role"]), &trust))
	assert.Equal(t, "lambda.amazonaws.com", trust.Statement[0].Principal.Service)

	var access PolicyDocument
	require.NoError(t, json.Unmarshal([]byte(f.iam.policies["support-dynamodb-policy"]), &access))
	assert.Equal(t, []string{"arn:aws:dynamodb:us-west-2:123456789012:table/orders"}, access.Statement[0].Resource)
	assert.Contains(t, access.Statement[0].Action, "dynamodb:UpdateItem")
}

func TestCreateLambdaRole_ReusesExistingRoleAndPolicy(t *testing.T) {
	f := newFixture(testOptions())
	f.iam.roles["support-lambda-role"] = "{}"
	f.iam.policies["support-dynamodb-policy"] = "{}"

	role, err := f.p.CreateLambdaRole(context.Background(), "support", "orders")
	require.NoError(t, err)

	assert.Equal(t, "arn:aws:iam::123456789012:role/support-lambda-role", role.ARN)
	assert.Empty(t, f.slept, "no propagation wait for a role that already existed")
	assert.Equal(t, []string{
		"iam.CreateRole support-lambda-role",
		"iam.GetRole support-lambda-role",
		"iam.AttachRolePolicy support-lambda-role " + LambdaBasicExecutionPolicyARN,
	}, f.calls.list())
}

func TestCreateAgentRoleAndPolicies(t *testing.T) {
	f := newFixture(testOptions())

	role, err := f.p.CreateAgentRoleAndPolicies(context.Background(), "support", "anthropic.claude-3-7-sonnet-20250219-v1:0", "KB123")
	require.NoError(t, err)
	assert.Equal(t, "AmazonBedrockExecutionRoleForAgents_support", role.Name)

	var doc PolicyDocument
	require.NoError(t, json.Unmarshal([]byte(f.iam.policies["support-ba"]), &doc))
	require.Len(t, doc.Statement, 2)
	assert.Equal(t, []string{"arn:aws:bedrock:us-west-2::foundation-model/anthropic.claude-3-7-sonnet-20250219-v1:0"}, doc.Statement[0].Resource)
	assert.Equal(t, []string{"arn:aws:bedrock:us-west-2:123456789012:knowledge-base/KB123"}, doc.Statement[1].Resource)
	assert.Equal(t, []string{PolicyARN(testAccount, "support-ba")}, f.iam.attached[role.Name])
	assert.Len(t, f.slept, 1)
}

func TestAgentPolicy_WithoutKnowledgeBase(t *testing.T) {
	doc := AgentPolicy("us-west-2", testAccount, "m", "")
	require.Len(t, doc.Statement, 1)
	assert.Equal(t, []string{"bedrock:InvokeModel"}, doc.Statement[0].Action)
}

func TestAccountID_IsCached(t *testing.T) {
	f := newFixture(testOptions())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		id, err := f.p.AccountID(ctx)
		require.NoError(t, err)
		assert.Equal(t, testAccount, id)
	}
	assert.Equal(t, 1, f.sts.n)
}

func writeBinary(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "handler")
	require.NoError(t, os.WriteFile(path, []byte("\x7fELF fake handler"), 0o755))
	return path
}

func TestPackageBinary_ExecutableBootstrap(t *testing.T) {
	pkg, err := PackageBinary(writeBinary(t))
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "bootstrap", zr.File[0].Name)
	assert.Equal(t, os.FileMode(0o755), zr.File[0].Mode().Perm())

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "\x7fELF fake handler", string(body))

	_, err = PackageBinary(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestCreateLambda_Inline(t *testing.T) {
	f := newFixture(testOptions())
	role := Role{Name: "r", ARN: "arn:aws:iam::123456789012:role/r"}

	fn, err := f.p.CreateLambda(context.Background(), "support-orders", role, writeBinary(t), map[string]string{"ORDERS_TABLE": "orders"})
	require.NoError(t, err)
	assert.Equal(t, "support-orders", fn.Name)

	require.Len(t, f.lambda.created, 1)
	in := f.lambda.created[0]
	assert.Equal(t, "bootstrap", sdkaws.ToString(in.Handler))
	assert.Equal(t, "provided.al2023", string(in.Runtime))
	assert.Equal(t, int32(60), sdkaws.ToInt32(in.Timeout))
	assert.Equal(t, role.ARN, sdkaws.ToString(in.Role))
	assert.NotEmpty(t, in.Code.ZipFile)
	assert.Equal(t, "orders", in.Environment.Variables["ORDERS_TABLE"])
	assert.Empty(t, f.s3.objects)
}

func TestCreateLambda_ViaCodeBucket(t *testing.T) {
	opts := testOptions()
	opts.CodeBucket = "artifacts"
	f := newFixture(opts)

	_, err := f.p.CreateLambda(context.Background(), "support-returns", Role{ARN: "arn"}, writeBinary(t), nil)
	require.NoError(t, err)

	require.Contains(t, f.s3.objects, "artifacts/support-returns/bootstrap.zip")
	in := f.lambda.created[0]
	assert.Nil(t, in.Code.ZipFile)
	assert.Equal(t, "artifacts", sdkaws.ToString(in.Code.S3Bucket))
	assert.Equal(t, "support-returns/bootstrap.zip", sdkaws.ToString(in.Code.S3Key))
}

func TestDeleteAgentRolesAndPolicies_ContinuesPastFailures(t *testing.T) {
	f := newFixture(testOptions())
	f.iam.failOn["DetachRolePolicy"] = errors.New("NoSuchEntity")

	err := f.p.DeleteAgentRolesAndPolicies(context.Background(), "support")
	require.Error(t, err)

	assert.Equal(t, []string{
		"iam.DetachRolePolicy AmazonBedrockExecutionRoleForAgents_support arn:aws:iam::123456789012:policy/support-ba",
		"iam.DetachRolePolicy support-lambda-role arn:aws:iam::123456789012:policy/support-dynamodb-policy",
		"iam.DetachRolePolicy support-lambda-role " + LambdaBasicExecutionPolicyARN,
		"iam.DeleteRole AmazonBedrockExecutionRoleForAgents_support",
		"iam.DeleteRole support-lambda-role",
		"iam.DeletePolicy arn:aws:iam::123456789012:policy/support-ba",
		"iam.DeletePolicy arn:aws:iam::123456789012:policy/support-dynamodb-policy",
	}, f.calls.list())
}

func TestCleanUpResources_AllBlocks(t *testing.T) {
	f := newFixture(testOptions())
	f.dynamo.tables["orders"] = true

	err := f.p.CleanUpResources(context.Background(), CleanupTarget{
		TableName:       "orders",
		FunctionName:    "support-orders",
		FunctionARN:     "arn:aws:lambda:us-west-2:123456789012:function:support-orders",
		AgentID:         "AGENT1",
		AliasID:         "ALIAS1",
		ActionGroupID:   "AG1",
		ActionGroupName: "order-action-group",
		Functions:       OrderFunctions(),
		KnowledgeBaseID: "KB1",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"bedrockagent.UpdateAgentActionGroup",
		"bedrockagent.DisassociateAgentKnowledgeBase",
		"bedrockagent.DeleteAgentActionGroup",
		"bedrockagent.DeleteAgentAlias",
		"bedrockagent.DeleteAgent",
		"lambda.DeleteFunction support-orders",
		"dynamodb.DeleteTable orders",
	}, f.calls.list())
	assert.False(t, f.dynamo.tables["orders"])

	disabled := f.agents.disabled
	require.NotNil(t, disabled)
	assert.Equal(t, agenttypes.ActionGroupStateDisabled, disabled.ActionGroupState)
	assert.Equal(t, "DRAFT", sdkaws.ToString(disabled.AgentVersion))
	executor, ok := disabled.ActionGroupExecutor.(*agenttypes.ActionGroupExecutorMemberLambda)
	require.True(t, ok)
	assert.Equal(t, "arn:aws:lambda:us-west-2:123456789012:function:support-orders", executor.Value)
}

func TestCleanUpResources_FailedBlockDoesNotStopTheRest(t *testing.T) {
	f := newFixture(testOptions())
	f.agents.failOn = "DeleteAgentActionGroup"
	f.lambda.err = errors.New("ResourceNotFoundException")
	f.dynamo.tables["orders"] = true

	err := f.p.CleanUpResources(context.Background(), CleanupTarget{
		TableName:     "orders",
		FunctionName:  "support-orders",
		AgentID:       "AGENT1",
		AliasID:       "ALIAS1",
		ActionGroupID: "AG1",
	})
	require.Error(t, err)

	assert.Equal(t, []string{
		"bedrockagent.UpdateAgentActionGroup",
		"bedrockagent.DeleteAgentActionGroup",
		"lambda.DeleteFunction support-orders",
		"dynamodb.DeleteTable orders",
	}, f.calls.list())
	assert.False(t, f.dynamo.tables["orders"])
}

func TestFunctionSchemas(t *testing.T) {
	names := func(fns []agenttypes.Function) []string {
		var out []string
		for _, fn := range fns {
			out = append(out, sdkaws.ToString(fn.Name))
		}
		return out
	}
	assert.Equal(t, []string{"retrieve-order-tracking-info", "cancel-order", "place-order"}, names(OrderFunctions()))
	assert.Equal(t, []string{"initiate-return", "process-refund"}, names(ReturnFunctions()))
	assert.False(t, sdkaws.ToBool(OrderFunctions()[2].Parameters["quantity"].Required))
}
