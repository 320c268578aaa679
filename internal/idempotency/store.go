package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-agent-orderdesk/internal/aws"
)

const keyAttribute = "idempotency_key"

// Store encapsulates idempotency operations against DynamoDB.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewStore returns a Store whose records expire ttlWindow after they are claimed.
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// ClaimPut builds the conditional Put that claims key, for use inside a write transaction
// alongside the order it protects.
func (s *Store) ClaimPut(key, fingerprint, orderID string) (types.Put, error) {
	now := s.nowFunc().UTC()
	item, err := attributevalue.MarshalMap(Record{
		Key:         key,
		Status:      StatusInProgress,
		Fingerprint: fingerprint,
		OrderID:     orderID,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(s.ttlWindow).Unix(),
	})
	if err != nil {
		return types.Put{}, fmt.Errorf("marshal record: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(keyAttribute))).
		Build()
	if err != nil {
		return types.Put{}, fmt.Errorf("build condition: %w", err)
	}

	return types.Put{
		TableName:                &s.tableName,
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	}, nil
}

// Get retrieves a record by key. If not found, returns (nil, nil).
func (s *Store) Get(ctx context.Context, key string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			keyAttribute: &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &rec, nil
}

// Complete marks key DONE and stores the response to replay for duplicates.
func (s *Store) Complete(ctx context.Context, key, orderID, responseBody string, responseStatus int) error {
	update := expression.
		Set(expression.Name("status"), expression.Value(StatusDone)).
		Set(expression.Name("order_id"), expression.Value(orderID)).
		Set(expression.Name("response_body"), expression.Value(responseBody)).
		Set(expression.Name("response_status"), expression.Value(responseStatus))
	if err := s.update(ctx, key, update); err != nil {
		return fmt.Errorf("mark done: %w", err)
	}
	return nil
}

func (s *Store) update(ctx context.Context, key string, update expression.UpdateBuilder) error {
	update = update.Set(expression.Name("updated_at"), expression.Value(s.nowFunc().UTC().Format(time.RFC3339)))
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(keyAttribute))).
		Build()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       map[string]types.AttributeValue{keyAttribute: &types.AttributeValueMemberS{Value: key}},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}
