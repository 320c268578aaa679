package provision

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-agent-orderdesk/internal/aws"
)

const testAccount = "123456789012"

// calls records the control-plane operations in order, e.g. "iam.CreateRole lambda-role".
type calls struct {
	mu  sync.Mutex
	log []string
}

func (c *calls) add(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = append(c.log, s)
}

func (c *calls) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.log)
}

type fakeDynamo struct {
	calls  *calls
	tables map[string]bool
}

func (f *fakeDynamo) ListTables(ctx context.Context, in *dynamodb.ListTablesInput, _ ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error) {
	var names []string
	for n := range f.tables {
		names = append(names, n)
	}
	slices.Sort(names)
	return &dynamodb.ListTablesOutput{TableNames: names}, nil
}

func (f *fakeDynamo) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.calls.add("dynamodb.CreateTable " + sdkaws.ToString(in.TableName))
	f.tables[sdkaws.ToString(in.TableName)] = true
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeDynamo) DeleteTable(ctx context.Context, in *dynamodb.DeleteTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error) {
	f.calls.add("dynamodb.DeleteTable " + sdkaws.ToString(in.TableName))
	if !f.tables[sdkaws.ToString(in.TableName)] {
		return nil, &ddbtypes.ResourceNotFoundException{Message: sdkaws.String("no such table")}
	}
	delete(f.tables, sdkaws.ToString(in.TableName))
	return &dynamodb.DeleteTableOutput{}, nil
}

func (f *fakeDynamo) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	name := sdkaws.ToString(in.TableName)
	if !f.tables[name] {
		return nil, &ddbtypes.ResourceNotFoundException{Message: sdkaws.String("no such table")}
	}
	return &dynamodb.DescribeTableOutput{Table: &ddbtypes.TableDescription{
		TableName:   in.TableName,
		TableStatus: ddbtypes.TableStatusActive,
	}}, nil
}

type fakeIAM struct {
	calls    *calls
	roles    map[string]string // name -> trust policy
	policies map[string]string // name -> document
	attached map[string][]string
	failOn   map[string]error
}

func (f *fakeIAM) fail(op string) error { return f.failOn[op] }

func (f *fakeIAM) CreateRole(ctx context.Context, in *iam.CreateRoleInput, _ ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
	name := sdkaws.ToString(in.RoleName)
	f.calls.add("iam.CreateRole " + name)
	if _, ok := f.roles[name]; ok {
		return nil, &iamtypes.EntityAlreadyExistsException{Message: sdkaws.String("exists")}
	}
	f.roles[name] = sdkaws.ToString(in.AssumeRolePolicyDocument)
	return &iam.CreateRoleOutput{Role: &iamtypes.Role{RoleName: in.RoleName, Arn: sdkaws.String("arn:aws:iam::" + testAccount + ":role/" + name)}}, nil
}

func (f *fakeIAM) GetRole(ctx context.Context, in *iam.GetRoleInput, _ ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	name := sdkaws.ToString(in.RoleName)
	f.calls.add("iam.GetRole " + name)
	return &iam.GetRoleOutput{Role: &iamtypes.Role{RoleName: in.RoleName, Arn: sdkaws.String("arn:aws:iam::" + testAccount + ":role/" + name)}}, nil
}

func (f *fakeIAM) DeleteRole(ctx context.Context, in *iam.DeleteRoleInput, _ ...func(*iam.Options)) (*iam.DeleteRoleOutput, error) {
	f.calls.add("iam.DeleteRole " + sdkaws.ToString(in.RoleName))
	if err := f.fail("DeleteRole"); err != nil {
		return nil, err
	}
	delete(f.roles, sdkaws.ToString(in.RoleName))
	return &iam.DeleteRoleOutput{}, nil
}

func (f *fakeIAM) AttachRolePolicy(ctx context.Context, in *iam.AttachRolePolicyInput, _ ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error) {
	role := sdkaws.ToString(in.RoleName)
	f.calls.add("iam.AttachRolePolicy " + role + " " + sdkaws.ToString(in.PolicyArn))
	f.attached[role] = append(f.attached[role], sdkaws.ToString(in.PolicyArn))
	return &iam.AttachRolePolicyOutput{}, nil
}

func (f *fakeIAM) DetachRolePolicy(ctx context.Context, in *iam.DetachRolePolicyInput, _ ...func(*iam.Options)) (*iam.DetachRolePolicyOutput, error) {
	f.calls.add("iam.DetachRolePolicy " + sdkaws.ToString(in.RoleName) + " " + sdkaws.ToString(in.PolicyArn))
	if err := f.fail("DetachRolePolicy"); err != nil {
		return nil, err
	}
	return &iam.DetachRolePolicyOutput{}, nil
}

func (f *fakeIAM) CreatePolicy(ctx context.Context, in *iam.CreatePolicyInput, _ ...func(*iam.Options)) (*iam.CreatePolicyOutput, error) {
	name := sdkaws.ToString(in.PolicyName)
	f.calls.add("iam.CreatePolicy " + name)
	f.policies[name] = sdkaws.ToString(in.PolicyDocument)
	return &iam.CreatePolicyOutput{Policy: &iamtypes.Policy{PolicyName: in.PolicyName, Arn: sdkaws.String(PolicyARN(testAccount, name))}}, nil
}

func (f *fakeIAM) DeletePolicy(ctx context.Context, in *iam.DeletePolicyInput, _ ...func(*iam.Options)) (*iam.DeletePolicyOutput, error) {
	f.calls.add("iam.DeletePolicy " + sdkaws.ToString(in.PolicyArn))
	return &iam.DeletePolicyOutput{}, nil
}

func (f *fakeIAM) ListPolicies(ctx context.Context, in *iam.ListPoliciesInput, _ ...func(*iam.Options)) (*iam.ListPoliciesOutput, error) {
	out := &iam.ListPoliciesOutput{}
	for name := range f.policies {
		out.Policies = append(out.Policies, iamtypes.Policy{PolicyName: sdkaws.String(name)})
	}
	return out, nil
}

type fakeLambda struct {
	calls   *calls
	created []*lambda.CreateFunctionInput
	err     error
}

func (f *fakeLambda) CreateFunction(ctx context.Context, in *lambda.CreateFunctionInput, _ ...func(*lambda.Options)) (*lambda.CreateFunctionOutput, error) {
	f.calls.add("lambda.CreateFunction " + sdkaws.ToString(in.FunctionName))
	f.created = append(f.created, in)
	return &lambda.CreateFunctionOutput{
		FunctionName: in.FunctionName,
		FunctionArn:  sdkaws.String("arn:aws:lambda:us-west-2:" + testAccount + ":function:" + sdkaws.ToString(in.FunctionName)),
	}, nil
}

func (f *fakeLambda) DeleteFunction(ctx context.Context, in *lambda.DeleteFunctionInput, _ ...func(*lambda.Options)) (*lambda.DeleteFunctionOutput, error) {
	f.calls.add("lambda.DeleteFunction " + sdkaws.ToString(in.FunctionName))
	if f.err != nil {
		return nil, f.err
	}
	return &lambda.DeleteFunctionOutput{}, nil
}

type fakeSTS struct{ n int }

func (f *fakeSTS) GetCallerIdentity(ctx context.Context, in *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	f.n++
	return &sts.GetCallerIdentityOutput{Account: sdkaws.String(testAccount)}, nil
}

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[sdkaws.ToString(in.Bucket)+"/"+sdkaws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

type fakeAgents struct {
	calls    *calls
	disabled *bedrockagent.UpdateAgentActionGroupInput
	failOn   string
}

func (f *fakeAgents) step(op string) error {
	f.calls.add("bedrockagent." + op)
	if f.failOn == op {
		return errors.New(op + " failed")
	}
	return nil
}

func (f *fakeAgents) UpdateAgentActionGroup(ctx context.Context, in *bedrockagent.UpdateAgentActionGroupInput, _ ...func(*bedrockagent.Options)) (*bedrockagent.UpdateAgentActionGroupOutput, error) {
	f.disabled = in
	return &bedrockagent.UpdateAgentActionGroupOutput{}, f.step("UpdateAgentActionGroup")
}

func (f *fakeAgents) DisassociateAgentKnowledgeBase(ctx context.Context, in *bedrockagent.DisassociateAgentKnowledgeBaseInput, _ ...func(*bedrockagent.Options)) (*bedrockagent.DisassociateAgentKnowledgeBaseOutput, error) {
	return &bedrockagent.DisassociateAgentKnowledgeBaseOutput{}, f.step("DisassociateAgentKnowledgeBase")
}

func (f *fakeAgents) DeleteAgentActionGroup(ctx context.Context, in *bedrockagent.DeleteAgentActionGroupInput, _ ...func(*bedrockagent.Options)) (*bedrockagent.DeleteAgentActionGroupOutput, error) {
	return &bedrockagent.DeleteAgentActionGroupOutput{}, f.step("DeleteAgentActionGroup")
}

func (f *fakeAgents) DeleteAgentAlias(ctx context.Context, in *bedrockagent.DeleteAgentAliasInput, _ ...func(*bedrockagent.Options)) (*bedrockagent.DeleteAgentAliasOutput, error) {
	return &bedrockagent.DeleteAgentAliasOutput{}, f.step("DeleteAgentAlias")
}

func (f *fakeAgents) DeleteAgent(ctx context.Context, in *bedrockagent.DeleteAgentInput, _ ...func(*bedrockagent.Options)) (*bedrockagent.DeleteAgentOutput, error) {
	return &bedrockagent.DeleteAgentOutput{}, f.step("DeleteAgent")
}

type fixture struct {
	p      *Provisioner
	calls  *calls
	dynamo *fakeDynamo
	iam    *fakeIAM
	lambda *fakeLambda
	sts    *fakeSTS
	s3     *fakeS3
	agents *fakeAgents
	slept  []time.Duration
}

func newFixture(opts Options) *fixture {
	c := &calls{}
	f := &fixture{
		calls:  c,
		dynamo: &fakeDynamo{calls: c, tables: map[string]bool{}},
		iam: &fakeIAM{
			calls:    c,
			roles:    map[string]string{},
			policies: map[string]string{},
			attached: map[string][]string{},
			failOn:   map[string]error{},
		},
		lambda: &fakeLambda{calls: c},
		sts:    &fakeSTS{},
		s3:     &fakeS3{objects: map[string][]byte{}},
		agents: &fakeAgents{calls: c},
	}
	f.p = New(&aws.ControlPlaneClients{
		DynamoDB:     f.dynamo,
		IAM:          f.iam,
		Lambda:       f.lambda,
		STS:          f.sts,
		S3:           f.s3,
		BedrockAgent: f.agents,
	}, opts, zap.NewNop())
	f.p.sleep = func(ctx context.Context, d time.Duration) error {
		f.slept = append(f.slept, d)
		return nil
	}
	return f
}

func testOptions() Options {
	return Options{
		Region:           "us-west-2",
		LambdaRuntime:    "provided.al2023",
		LambdaTimeout:    60,
		PropagationDelay: 10 * time.Second,
		TableWaitTimeout: time.Minute,
	}
}
