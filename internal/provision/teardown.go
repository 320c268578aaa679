package provision

import (
	"context"
	"errors"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	agenttypes "github.com/aws/aws-sdk-go-v2/service/bedrockagent/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"go.uber.org/zap"
)

const draftVersion = "DRAFT"

// DeleteAgentRolesAndPolicies detaches and deletes every role and policy the setup created for
// agentName. It keeps going past failures and returns them joined.
func (p *Provisioner) DeleteAgentRolesAndPolicies(ctx context.Context, agentName string) error {
	account, err := p.AccountID(ctx)
	if err != nil {
		return err
	}
	agentRole := AgentRoleName(agentName)
	lambdaRole := LambdaRoleName(agentName)

	var errs []error
	try := func(what string, fn func() error) {
		if err := fn(); err != nil {
			p.logger.Warn("teardown step failed", zap.String("step", what), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", what, err))
		}
	}
	detach := func(role, policyARN string) func() error {
		return func() error {
			_, err := p.iam.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{
				RoleName:  sdkaws.String(role),
				PolicyArn: sdkaws.String(policyARN),
			})
			return err
		}
	}

	try("detach "+AgentPolicyName(agentName), detach(agentRole, PolicyARN(account, AgentPolicyName(agentName))))
	try("detach "+TablePolicyName(agentName), detach(lambdaRole, PolicyARN(account, TablePolicyName(agentName))))
	try("detach AWSLambdaBasicExecutionRole", detach(lambdaRole, LambdaBasicExecutionPolicyARN))

	for _, role := range []string{agentRole, lambdaRole} {
		try("delete role "+role, func() error {
			_, err := p.iam.DeleteRole(ctx, &iam.DeleteRoleInput{RoleName: sdkaws.String(role)})
			return err
		})
	}
	for _, policy := range []string{AgentPolicyName(agentName), TablePolicyName(agentName)} {
		try("delete policy "+policy, func() error {
			_, err := p.iam.DeletePolicy(ctx, &iam.DeletePolicyInput{PolicyArn: sdkaws.String(PolicyARN(account, policy))})
			return err
		})
	}
	return errors.Join(errs...)
}

// CleanupTarget names what CleanUpResources removes. Empty fields skip their block.
type CleanupTarget struct {
	TableName string

	FunctionName string
	FunctionARN  string

	AgentID         string
	AliasID         string
	ActionGroupID   string
	ActionGroupName string
	Functions       []agenttypes.Function
	KnowledgeBaseID string
}

// CleanUpResources deletes the agent resources, the Lambda and the table, in that order. Each of
// the three blocks stops at its first failure, logs it and lets the next block run.
func (p *Provisioner) CleanUpResources(ctx context.Context, t CleanupTarget) error {
	var errs []error

	if t.AgentID != "" {
		if err := p.deleteAgent(ctx, t); err != nil {
			p.logger.Error("delete agent resources failed", zap.String("agent_id", t.AgentID), zap.Error(err))
			errs = append(errs, err)
		} else {
			p.logger.Info("agent resources deleted", zap.String("agent_id", t.AgentID), zap.String("alias_id", t.AliasID))
		}
	}

	if t.FunctionName != "" {
		if _, err := p.lambda.DeleteFunction(ctx, &lambda.DeleteFunctionInput{FunctionName: sdkaws.String(t.FunctionName)}); err != nil {
			p.logger.Error("delete lambda failed", zap.String("function", t.FunctionName), zap.Error(err))
			errs = append(errs, fmt.Errorf("delete function %s: %w", t.FunctionName, err))
		} else {
			p.logger.Info("lambda deleted", zap.String("function", t.FunctionName))
		}
	}

	if t.TableName != "" {
		if err := p.deleteTable(ctx, t.TableName); err != nil {
			p.logger.Error("delete table failed", zap.String("table", t.TableName), zap.Error(err))
			errs = append(errs, err)
		} else {
			p.logger.Info("table deleted", zap.String("table", t.TableName))
		}
	}
	return errors.Join(errs...)
}

// deleteAgent disables the action group first; an enabled action group cannot be deleted.
func (p *Provisioner) deleteAgent(ctx context.Context, t CleanupTarget) error {
	agentID := sdkaws.String(t.AgentID)

	if t.ActionGroupID != "" {
		_, err := p.agents.UpdateAgentActionGroup(ctx, &bedrockagent.UpdateAgentActionGroupInput{
			AgentId:             agentID,
			AgentVersion:        sdkaws.String(draftVersion),
			ActionGroupId:       sdkaws.String(t.ActionGroupID),
			ActionGroupName:     sdkaws.String(t.ActionGroupName),
			ActionGroupExecutor: &agenttypes.ActionGroupExecutorMemberLambda{Value: t.FunctionARN},
			FunctionSchema:      &agenttypes.FunctionSchemaMemberFunctions{Value: t.Functions},
			ActionGroupState:    agenttypes.ActionGroupStateDisabled,
		})
		if err != nil {
			return fmt.Errorf("disable action group %s: %w", t.ActionGroupID, err)
		}
	}

	if t.KnowledgeBaseID != "" {
		_, err := p.agents.DisassociateAgentKnowledgeBase(ctx, &bedrockagent.DisassociateAgentKnowledgeBaseInput{
			AgentId:         agentID,
			AgentVersion:    sdkaws.String(draftVersion),
			KnowledgeBaseId: sdkaws.String(t.KnowledgeBaseID),
		})
		if err != nil {
			return fmt.Errorf("disassociate knowledge base %s: %w", t.KnowledgeBaseID, err)
		}
	}

	if t.ActionGroupID != "" {
		_, err := p.agents.DeleteAgentActionGroup(ctx, &bedrockagent.DeleteAgentActionGroupInput{
			AgentId:       agentID,
			AgentVersion:  sdkaws.String(draftVersion),
			ActionGroupId: sdkaws.String(t.ActionGroupID),
		})
		if err != nil {
			return fmt.Errorf("delete action group %s: %w", t.ActionGroupID, err)
		}
	}

	if t.AliasID != "" {
		_, err := p.agents.DeleteAgentAlias(ctx, &bedrockagent.DeleteAgentAliasInput{
			AgentId:      agentID,
			AgentAliasId: sdkaws.String(t.AliasID),
		})
		if err != nil {
			return fmt.Errorf("delete alias %s: %w", t.AliasID, err)
		}
	}

	if _, err := p.agents.DeleteAgent(ctx, &bedrockagent.DeleteAgentInput{AgentId: agentID}); err != nil {
		return fmt.Errorf("delete agent %s: %w", t.AgentID, err)
	}
	return nil
}
