package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/go-agent-orderdesk/internal/aws"
)

// PartitionKey is the hash key attribute of the orders table.
const PartitionKey = "order_id"

var (
	// ErrOrderExists is returned by Create when the order_id is already taken.
	ErrOrderExists = errors.New("order already exists")
	// ErrOrderNotFound is returned by SetStatus when the order does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrClaimConflict is returned by CreateWithClaim when the claim's condition failed.
	ErrClaimConflict = errors.New("claim already taken")
)

// Store encapsulates operations on the orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
	}
}

func orderKey(orderID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		PartitionKey: &types.AttributeValueMemberS{Value: orderID},
	}
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       orderKey(orderID),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// Create writes a new order. It never overwrites: an existing order_id yields ErrOrderExists.
func (s *Store) Create(ctx context.Context, order Order) error {
	put, err := s.newOrderPut(order)
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:                 put.TableName,
		Item:                      put.Item,
		ConditionExpression:       put.ConditionExpression,
		ExpressionAttributeNames:  put.ExpressionAttributeNames,
		ExpressionAttributeValues: put.ExpressionAttributeValues,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrOrderExists
		}
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// CreateWithClaim writes order together with claim (a conditional Put on another table, usually
// an idempotency record) in a single transaction. Neither item is written unless both conditions hold.
func (s *Store) CreateWithClaim(ctx context.Context, order Order, claim types.Put) error {
	put, err := s.newOrderPut(order)
	if err != nil {
		return err
	}

	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &claim},
			{Put: put},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			// reasons are positional: 0 is the claim, 1 the order
			reasons := tce.CancellationReasons
			if len(reasons) > 0 && conditionFailed(reasons[0]) {
				return ErrClaimConflict
			}
			if len(reasons) > 1 && conditionFailed(reasons[1]) {
				return ErrOrderExists
			}
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

func isConditionalCheckFailed(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException"
}

func conditionFailed(r types.CancellationReason) bool {
	return r.Code != nil && *r.Code == "ConditionalCheckFailed"
}

func (s *Store) newOrderPut(order Order) (*types.Put, error) {
	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(PartitionKey))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build condition: %w", err)
	}

	return &types.Put{
		TableName:                 &s.tableName,
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, nil
}

// SetStatus overwrites the status of an existing order and returns the updated order.
// The write is conditional on the item existing, so a missing order is never created.
func (s *Store) SetStatus(ctx context.Context, orderID, status string) (*Order, error) {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("status"), expression.Value(status))).
		WithCondition(expression.AttributeExists(expression.Name(PartitionKey))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       orderKey(orderID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}

	var o Order
	if err := attributevalue.UnmarshalMap(out.Attributes, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}
