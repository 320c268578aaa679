package provision

import (
	"context"
	"errors"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"go.uber.org/zap"
)

// CreateLambdaRole creates (or reuses) the execution role for the action Lambdas and grants it
// basic execution plus item access to table.
func (p *Provisioner) CreateLambdaRole(ctx context.Context, agentName, table string) (Role, error) {
	roleName := LambdaRoleName(agentName)

	role, err := p.createRole(ctx, roleName, TrustPolicy("lambda.amazonaws.com"))
	if err != nil {
		return Role{}, err
	}

	if err := p.attach(ctx, roleName, LambdaBasicExecutionPolicyARN); err != nil {
		return Role{}, err
	}

	policyName := TablePolicyName(agentName)
	exists, err := p.localPolicyExists(ctx, policyName)
	if err != nil {
		return Role{}, err
	}
	if exists {
		p.logger.Info("policy already exists", zap.String("policy", policyName))
		return role, nil
	}

	account, err := p.AccountID(ctx)
	if err != nil {
		return Role{}, err
	}
	policyARN, err := p.createPolicy(ctx, policyName, TableAccessPolicy(p.opts.Region, account, table))
	if err != nil {
		return Role{}, err
	}
	if err := p.attach(ctx, roleName, policyARN); err != nil {
		return Role{}, err
	}
	return role, nil
}

// CreateAgentRoleAndPolicies creates the agent's model access policy and the service role
// Bedrock assumes to run the agent.
func (p *Provisioner) CreateAgentRoleAndPolicies(ctx context.Context, agentName, model, kbID string) (Role, error) {
	account, err := p.AccountID(ctx)
	if err != nil {
		return Role{}, err
	}

	policyARN, err := p.createPolicy(ctx, AgentPolicyName(agentName), AgentPolicy(p.opts.Region, account, model, kbID))
	if err != nil {
		return Role{}, err
	}

	roleName := AgentRoleName(agentName)
	role, err := p.createRole(ctx, roleName, TrustPolicy("bedrock.amazonaws.com"))
	if err != nil {
		return Role{}, err
	}
	if err := p.attach(ctx, roleName, policyARN); err != nil {
		return Role{}, err
	}
	return role, nil
}

// createRole creates the role and waits for it to propagate. A role that already exists is
// returned as is.
func (p *Provisioner) createRole(ctx context.Context, name string, trust PolicyDocument) (Role, error) {
	doc, err := trust.JSON()
	if err != nil {
		return Role{}, err
	}

	out, err := p.iam.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 sdkaws.String(name),
		AssumeRolePolicyDocument: sdkaws.String(doc),
	})
	if err != nil {
		var exists *iamtypes.EntityAlreadyExistsException
		if !errors.As(err, &exists) {
			return Role{}, fmt.Errorf("create role %s: %w", name, err)
		}
		got, err := p.iam.GetRole(ctx, &iam.GetRoleInput{RoleName: sdkaws.String(name)})
		if err != nil {
			return Role{}, fmt.Errorf("get role %s: %w", name, err)
		}
		p.logger.Info("role already exists", zap.String("role", name))
		return Role{Name: name, ARN: sdkaws.ToString(got.Role.Arn)}, nil
	}

	p.logger.Info("role created", zap.String("role", name))
	if err := p.waitForPropagation(ctx); err != nil {
		return Role{}, err
	}
	return Role{Name: name, ARN: sdkaws.ToString(out.Role.Arn)}, nil
}

func (p *Provisioner) createPolicy(ctx context.Context, name string, doc PolicyDocument) (string, error) {
	body, err := doc.JSON()
	if err != nil {
		return "", err
	}
	out, err := p.iam.CreatePolicy(ctx, &iam.CreatePolicyInput{
		PolicyName:     sdkaws.String(name),
		PolicyDocument: sdkaws.String(body),
	})
	if err != nil {
		return "", fmt.Errorf("create policy %s: %w", name, err)
	}
	p.logger.Info("policy created", zap.String("policy", name))
	return sdkaws.ToString(out.Policy.Arn), nil
}

func (p *Provisioner) attach(ctx context.Context, roleName, policyARN string) error {
	_, err := p.iam.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
		RoleName:  sdkaws.String(roleName),
		PolicyArn: sdkaws.String(policyARN),
	})
	if err != nil {
		return fmt.Errorf("attach %s to %s: %w", policyARN, roleName, err)
	}
	return nil
}

func (p *Provisioner) localPolicyExists(ctx context.Context, name string) (bool, error) {
	pages := iam.NewListPoliciesPaginator(p.iam, &iam.ListPoliciesInput{Scope: iamtypes.PolicyScopeTypeLocal})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return false, fmt.Errorf("list policies: %w", err)
		}
		for _, pol := range page.Policies {
			if sdkaws.ToString(pol.PolicyName) == name {
				return true, nil
			}
		}
	}
	return false, nil
}
