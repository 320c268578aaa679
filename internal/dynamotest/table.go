// Package dynamotest provides an in-memory DynamoDB table for unit tests.
package dynamotest

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Table is a single-table fake keyed by one string partition key. It evaluates the condition
// shapes the expression builder emits for attribute_exists, attribute_not_exists and "a = b",
// and applies "SET a = b, ..." updates. All tables share nothing; TableName is ignored.
type Table struct {
	mu           sync.Mutex
	partitionKey string

	Items map[string]map[string]types.AttributeValue
	Err   error // returned by every call when set

	PutCalls    int
	GetCalls    int
	UpdateCalls int
}

func NewTable(partitionKey string) *Table {
	return &Table{
		partitionKey: partitionKey,
		Items:        map[string]map[string]types.AttributeValue{},
	}
}

func (t *Table) pk(m map[string]types.AttributeValue) (string, error) {
	v, ok := m[t.partitionKey].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("dynamotest: missing partition key " + t.partitionKey)
	}
	return v.Value, nil
}

func (t *Table) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.PutCalls++
	if t.Err != nil {
		return nil, t.Err
	}
	pk, err := t.pk(params.Item)
	if err != nil {
		return nil, err
	}
	current, exists := t.Items[pk]
	if !conditionHolds(params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, current, exists) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	t.Items[pk] = maps.Clone(params.Item)
	return &dyn.PutItemOutput{}, nil
}

func (t *Table) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.GetCalls++
	if t.Err != nil {
		return nil, t.Err
	}
	pk, err := t.pk(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := t.Items[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: maps.Clone(item)}, nil
}

func (t *Table) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.UpdateCalls++
	if t.Err != nil {
		return nil, t.Err
	}
	pk, err := t.pk(params.Key)
	if err != nil {
		return nil, err
	}
	current, exists := t.Items[pk]
	if !conditionHolds(params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, current, exists) {
		return nil, &types.ConditionalCheckFailedException{}
	}

	item := maps.Clone(current)
	if !exists {
		item = maps.Clone(params.Key)
	}
	if params.UpdateExpression != nil {
		set := strings.TrimSpace(*params.UpdateExpression)
		if !strings.HasPrefix(set, "SET ") {
			return nil, errors.New("dynamotest: only SET updates are supported")
		}
		for _, assignment := range strings.Split(strings.TrimPrefix(set, "SET "), ",") {
			lhs, rhs, ok := strings.Cut(assignment, "=")
			if !ok {
				return nil, errors.New("dynamotest: malformed assignment " + assignment)
			}
			item[resolveName(strings.TrimSpace(lhs), params.ExpressionAttributeNames)] = params.ExpressionAttributeValues[strings.TrimSpace(rhs)]
		}
	}
	t.Items[pk] = item
	return &dyn.UpdateItemOutput{Attributes: maps.Clone(item)}, nil
}

func (t *Table) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	return nil, errors.New("dynamotest: transactions are not supported")
}

// Seed stores item directly, bypassing conditions and call counters.
func (t *Table) Seed(item map[string]types.AttributeValue) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pk, err := t.pk(item)
	if err != nil {
		panic(err)
	}
	t.Items[pk] = maps.Clone(item)
}

// Len returns the number of stored items.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Items)
}

func resolveName(token string, names map[string]string) string {
	if n, ok := names[token]; ok {
		return n
	}
	return token
}

func conditionHolds(cond *string, names map[string]string, values map[string]types.AttributeValue, item map[string]types.AttributeValue, exists bool) bool {
	if cond == nil || strings.TrimSpace(*cond) == "" {
		return true
	}
	c := strings.TrimSpace(*cond)
	switch {
	case strings.HasPrefix(c, "attribute_not_exists"):
		return !exists
	case strings.HasPrefix(c, "attribute_exists"):
		return exists
	}

	lhs, rhs, ok := strings.Cut(c, "=")
	if !ok || !exists {
		return false
	}
	want, ok := values[strings.TrimSpace(rhs)].(*types.AttributeValueMemberS)
	if !ok {
		return false
	}
	got, ok := item[resolveName(strings.TrimSpace(lhs), names)].(*types.AttributeValueMemberS)
	return ok && got.Value == want.Value
}
