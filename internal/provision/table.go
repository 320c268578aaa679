package provision

import (
	"context"
	"fmt"
	"slices"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// CreateTable creates an on-demand table keyed by a string partition key and waits until it is
// usable. An existing table with that name is left as is.
func (p *Provisioner) CreateTable(ctx context.Context, name, partitionKey string) error {
	exists, err := p.tableExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		p.logger.Info("table already exists", zap.String("table", name))
		return nil
	}

	_, err = p.dynamo.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: sdkaws.String(name),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: sdkaws.String(partitionKey), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: sdkaws.String(partitionKey), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}

	p.logger.Info("creating table", zap.String("table", name))
	waiter := dynamodb.NewTableExistsWaiter(p.dynamo)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: sdkaws.String(name)}, p.opts.TableWaitTimeout); err != nil {
		return fmt.Errorf("wait for table %s: %w", name, err)
	}
	p.logger.Info("table created", zap.String("table", name))
	return nil
}

func (p *Provisioner) tableExists(ctx context.Context, name string) (bool, error) {
	pages := dynamodb.NewListTablesPaginator(p.dynamo, &dynamodb.ListTablesInput{})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return false, fmt.Errorf("list tables: %w", err)
		}
		if slices.Contains(page.TableNames, name) {
			return true, nil
		}
	}
	return false, nil
}

// deleteTable deletes name and waits until it is gone.
func (p *Provisioner) deleteTable(ctx context.Context, name string) error {
	if _, err := p.dynamo.DeleteTable(ctx, &dynamodb.DeleteTableInput{TableName: sdkaws.String(name)}); err != nil {
		return fmt.Errorf("delete table %s: %w", name, err)
	}
	p.logger.Info("table is being deleted", zap.String("table", name))
	waiter := dynamodb.NewTableNotExistsWaiter(p.dynamo)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: sdkaws.String(name)}, p.opts.TableWaitTimeout); err != nil {
		return fmt.Errorf("wait for table %s deletion: %w", name, err)
	}
	return nil
}
