// Package agent talks to a deployed Bedrock agent alias.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-agent-orderdesk/internal/aws"
)

// Request is one user turn sent to an agent alias.
type Request struct {
	AgentID   string
	AliasID   string
	SessionID string // generated when empty; reuse it to continue a conversation
	InputText string

	EnableTrace       bool
	SessionAttributes map[string]string
}

// Completion is the agent's answer, assembled from the streamed chunks.
type Completion struct {
	SessionID string
	Text      string
	Traces    int
}

// Client invokes agents through the agent runtime API.
type Client struct {
	runtime aws.BedrockAgentRuntimeAPI
	logger  *zap.Logger
}

func NewClient(runtime aws.BedrockAgentRuntimeAPI, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{runtime: runtime, logger: logger}
}

// Invoke sends req and blocks until the agent has streamed its full answer.
func (c *Client) Invoke(ctx context.Context, req Request) (Completion, error) {
	if req.AgentID == "" || req.AliasID == "" {
		return Completion{}, errors.New("agent id and alias id are required")
	}
	if strings.TrimSpace(req.InputText) == "" {
		return Completion{}, errors.New("input text is required")
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	in := &bedrockagentruntime.InvokeAgentInput{
		AgentId:      sdkaws.String(req.AgentID),
		AgentAliasId: sdkaws.String(req.AliasID),
		SessionId:    sdkaws.String(req.SessionID),
		InputText:    sdkaws.String(req.InputText),
		EnableTrace:  sdkaws.Bool(req.EnableTrace),
	}
	if len(req.SessionAttributes) > 0 {
		in.SessionState = &types.SessionState{SessionAttributes: req.SessionAttributes}
	}

	c.logger.Info("invoking agent",
		zap.String("agent_id", req.AgentID),
		zap.String("alias_id", req.AliasID),
		zap.String("session_id", req.SessionID),
	)
	out, err := c.runtime.InvokeAgent(ctx, in)
	if err != nil {
		return Completion{}, fmt.Errorf("invoke agent %s/%s: %w", req.AgentID, req.AliasID, err)
	}

	completion, err := collect(ctx, out.GetStream())
	completion.SessionID = req.SessionID
	if err != nil {
		return completion, err
	}
	c.logger.Info("agent answered", zap.String("session_id", req.SessionID), zap.Int("traces", completion.Traces))
	return completion, nil
}

// eventStream is the part of *bedrockagentruntime.InvokeAgentEventStream collect reads.
type eventStream interface {
	Events() <-chan types.ResponseStream
	Close() error
	Err() error
}

// collect drains the stream, concatenating chunk bytes in arrival order.
func collect(ctx context.Context, stream eventStream) (Completion, error) {
	defer stream.Close()

	var (
		text strings.Builder
		out  Completion
	)
	for {
		select {
		case <-ctx.Done():
			out.Text = text.String()
			return out, ctx.Err()
		case ev, ok := <-stream.Events():
			if !ok {
				out.Text = text.String()
				if err := stream.Err(); err != nil {
					return out, fmt.Errorf("agent response stream: %w", err)
				}
				return out, nil
			}
			switch v := ev.(type) {
			case *types.ResponseStreamMemberChunk:
				text.Write(v.Value.Bytes)
			case *types.ResponseStreamMemberTrace:
				out.Traces++
			}
		}
	}
}
