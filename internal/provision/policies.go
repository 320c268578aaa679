package provision

import (
	"encoding/json"
	"fmt"
)

const (
	policyVersion = "2012-10-17"

	// LambdaBasicExecutionPolicyARN lets a function write its logs to CloudWatch.
	LambdaBasicExecutionPolicyARN = "arn:aws:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"
)

// PolicyDocument is an IAM policy or trust policy.
type PolicyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

type Statement struct {
	Sid       string     `json:"Sid,omitempty"`
	Effect    string     `json:"Effect"`
	Principal *Principal `json:"Principal,omitempty"`
	Action    []string   `json:"Action"`
	Resource  []string   `json:"Resource,omitempty"`
}

type Principal struct {
	Service string `json:"Service"`
}

// JSON renders the document for the IAM API.
func (d PolicyDocument) JSON() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal policy document: %w", err)
	}
	return string(b), nil
}

// TrustPolicy lets service (e.g. lambda.amazonaws.com) assume the role.
func TrustPolicy(service string) PolicyDocument {
	return PolicyDocument{
		Version: policyVersion,
		Statement: []Statement{{
			Effect:    "Allow",
			Principal: &Principal{Service: service},
			Action:    []string{"sts:AssumeRole"},
		}},
	}
}

// TableAccessPolicy grants the item operations the order handler performs on one table.
func TableAccessPolicy(region, accountID, table string) PolicyDocument {
	return PolicyDocument{
		Version: policyVersion,
		Statement: []Statement{{
			Effect: "Allow",
			Action: []string{
				"dynamodb:GetItem",
				"dynamodb:PutItem",
				"dynamodb:DeleteItem",
				"dynamodb:UpdateItem",
			},
			Resource: []string{fmt.Sprintf("arn:aws:dynamodb:%s:%s:table/%s", region, accountID, table)},
		}},
	}
}

// AgentPolicy lets an agent invoke its foundation model and, when kbID is set, query the
// knowledge base.
func AgentPolicy(region, accountID, model, kbID string) PolicyDocument {
	doc := PolicyDocument{
		Version: policyVersion,
		Statement: []Statement{{
			Sid:      "AmazonBedrockAgentBedrockFoundationModelPolicy",
			Effect:   "Allow",
			Action:   []string{"bedrock:InvokeModel"},
			Resource: []string{fmt.Sprintf("arn:aws:bedrock:%s::foundation-model/%s", region, model)},
		}},
	}
	if kbID != "" {
		doc.Statement = append(doc.Statement, Statement{
			Sid:      "QueryKB",
			Effect:   "Allow",
			Action:   []string{"bedrock:Retrieve", "bedrock:RetrieveAndGenerate"},
			Resource: []string{fmt.Sprintf("arn:aws:bedrock:%s:%s:knowledge-base/%s", region, accountID, kbID)},
		})
	}
	return doc
}

// Resource names derived from the agent name.

func LambdaRoleName(agent string) string { return agent + "-lambda-role" }
func TablePolicyName(agent string) string { return agent + "-dynamodb-policy" }
func AgentPolicyName(agent string) string { return agent + "-ba" }
func AgentRoleName(agent string) string { return "AmazonBedrockExecutionRoleForAgents_" + agent }
func PolicyARN(accountID, name string) string { return fmt.Sprintf("arn:aws:iam::%s:policy/%s", accountID, name) }
