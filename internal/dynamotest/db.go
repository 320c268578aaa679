package dynamotest

import (
	"context"
	"errors"
	"maps"

	"github.com/aws/aws-sdk-go-v2/aws"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DB routes calls to one Table per table name and supports Put-only transactions across them.
type DB struct {
	tables map[string]*Table

	TransactCalls int
}

// NewDB creates a DB from table name to partition key attribute.
func NewDB(partitionKeys map[string]string) *DB {
	db := &DB{tables: map[string]*Table{}}
	for name, pk := range partitionKeys {
		db.tables[name] = NewTable(pk)
	}
	return db
}

// Table returns the named table, or nil.
func (d *DB) Table(name string) *Table {
	return d.tables[name]
}

func (d *DB) table(name *string) (*Table, error) {
	t, ok := d.tables[aws.ToString(name)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found: " + aws.ToString(name))}
	}
	return t, nil
}

func (d *DB) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	t, err := d.table(params.TableName)
	if err != nil {
		return nil, err
	}
	return t.PutItem(ctx, params, optFns...)
}

func (d *DB) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	t, err := d.table(params.TableName)
	if err != nil {
		return nil, err
	}
	return t.GetItem(ctx, params, optFns...)
}

func (d *DB) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	t, err := d.table(params.TableName)
	if err != nil {
		return nil, err
	}
	return t.UpdateItem(ctx, params, optFns...)
}

// TransactWriteItems checks every condition before applying any Put. Tables are locked one at a
// time, so it is atomic only for tests that do not race transactions against each other.
func (d *DB) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	d.TransactCalls++

	type pending struct {
		table *Table
		pk    string
		item  map[string]types.AttributeValue
	}
	writes := make([]pending, 0, len(params.TransactItems))
	reasons := make([]types.CancellationReason, len(params.TransactItems))
	cancelled := false

	for i, ti := range params.TransactItems {
		if ti.Put == nil {
			return nil, errors.New("dynamotest: only Put is supported in transactions")
		}
		t, err := d.table(ti.Put.TableName)
		if err != nil {
			return nil, err
		}
		if t.Err != nil {
			return nil, t.Err
		}
		pk, err := t.pk(ti.Put.Item)
		if err != nil {
			return nil, err
		}

		t.mu.Lock()
		current, exists := t.Items[pk]
		ok := conditionHolds(ti.Put.ConditionExpression, ti.Put.ExpressionAttributeNames, ti.Put.ExpressionAttributeValues, current, exists)
		t.mu.Unlock()

		reasons[i].Code = aws.String("None")
		if !ok {
			reasons[i].Code = aws.String("ConditionalCheckFailed")
			cancelled = true
		}
		writes = append(writes, pending{table: t, pk: pk, item: ti.Put.Item})
	}

	if cancelled {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}
	for _, w := range writes {
		w.table.mu.Lock()
		w.table.Items[w.pk] = maps.Clone(w.item)
		w.table.mu.Unlock()
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}
