package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStream struct {
	events chan types.ResponseStream
	err    error
	closed bool
}

func newFakeStream(events ...types.ResponseStream) *fakeStream {
	ch := make(chan types.ResponseStream, len(events))
	for _, e := range events {
		ch <- e
	}
	close(ch)
	return &fakeStream{events: ch}
}

func (s *fakeStream) Events() <-chan types.ResponseStream { return s.events }
func (s *fakeStream) Err() error { return s.err }

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

func chunk(s string) types.ResponseStream {
	return &types.ResponseStreamMemberChunk{Value: types.PayloadPart{Bytes: []byte(s)}}
}

func TestCollect_ConcatenatesChunks(t *testing.T) {
	s := newFakeStream(
		chunk("Order ORD12345 "),
		&types.ResponseStreamMemberTrace{},
		chunk("is out for delivery."),
	)

	got, err := collect(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "Order ORD12345 is out for delivery.", got.Text)
	assert.Equal(t, 1, got.Traces)
	assert.True(t, s.closed)
}

func TestCollect_StreamError(t *testing.T) {
	s := newFakeStream(chunk("partial"))
	s.err = errors.New("connection reset")

	got, err := collect(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, "partial", got.Text)
}

func TestCollect_ContextCancelled(t *testing.T) {
	s := &fakeStream{events: make(chan types.ResponseStream)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := collect(ctx, s)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, s.closed)
}

type fakeRuntime struct {
	in  *bedrockagentruntime.InvokeAgentInput
	err error
}

func (f *fakeRuntime) InvokeAgent(ctx context.Context, in *bedrockagentruntime.InvokeAgentInput, _ ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.InvokeAgentOutput, error) {
	f.in = in
	return nil, f.err
}

func TestInvoke_BuildsRequest(t *testing.T) {
	rt := &fakeRuntime{err: errors.New("AccessDeniedException")}
	c := NewClient(rt, zap.NewNop())

	_, err := c.Invoke(context.Background(), Request{
		AgentID:           "AGENT1",
		AliasID:           "ALIAS1",
		InputText:         "Where is my order ORD12345?",
		SessionAttributes: map[string]string{"customer_name": "John Doe"},
	})
	require.Error(t, err)

	require.NotNil(t, rt.in)
	assert.Equal(t, "AGENT1", *rt.in.AgentId)
	assert.Equal(t, "ALIAS1", *rt.in.AgentAliasId)
	assert.Len(t, *rt.in.SessionId, 36, "generated session ids are uuids")
	assert.Equal(t, "John Doe", rt.in.SessionState.SessionAttributes["customer_name"])
}

func TestInvoke_Validates(t *testing.T) {
	rt := &fakeRuntime{}
	c := NewClient(rt, nil)

	_, err := c.Invoke(context.Background(), Request{AgentID: "A", InputText: "hi"})
	require.Error(t, err)
	_, err = c.Invoke(context.Background(), Request{AgentID: "A", AliasID: "B", InputText: "  "})
	require.Error(t, err)
	assert.Nil(t, rt.in)
}
