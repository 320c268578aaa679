package aws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &sqs.SendMessageOutput{}, nil
}

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestPublishJSON_SendsBodyAndAttributes(t *testing.T) {
	q := &fakeSQS{}
	p := NewPublisher(q, "https://sqs.local/queue")

	err := p.PublishJSON(context.Background(), map[string]string{"order_id": "ORD12345"}, map[string]string{
		"event_type": "placed",
		"empty":      "",
	})
	require.NoError(t, err)
	require.Len(t, q.inputs, 1)

	in := q.inputs[0]
	assert.Equal(t, "https://sqs.local/queue", *in.QueueUrl)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(*in.MessageBody), &body))
	assert.Equal(t, "ORD12345", body["order_id"])

	assert.Contains(t, in.MessageAttributes, "event_type")
	assert.NotContains(t, in.MessageAttributes, "empty")
}

func TestPublishJSON_WrapsSendError(t *testing.T) {
	boom := errors.New("boom")
	p := NewPublisher(&fakeSQS{err: boom}, "q")

	err := p.PublishJSON(context.Background(), struct{}{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestMetricsCount(t *testing.T) {
	cw := &fakeCloudWatch{}
	m := NewMetrics(cw, "BedrockAgentOrders")

	require.NoError(t, m.Count(context.Background(), "OrdersPlaced", 1, map[string]string{"ActionGroup": "order-action-group"}))
	require.Len(t, cw.inputs, 1)

	in := cw.inputs[0]
	assert.Equal(t, "BedrockAgentOrders", *in.Namespace)
	require.Len(t, in.MetricData, 1)
	assert.Equal(t, "OrdersPlaced", *in.MetricData[0].MetricName)
	assert.Equal(t, 1.0, *in.MetricData[0].Value)
	require.Len(t, in.MetricData[0].Dimensions, 1)
}
