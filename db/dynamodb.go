package db

import (
	"context"
	"fmt"

	"noise-mapping/models"
	"noise-mapping/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoDBStore keeps one item per classification record in a DynamoDB table,
// keyed by the record id.
type DynamoDBStore struct {
	client *dynamodb.Client
	table  string
}

func NewDynamoDBStore(ctx context.Context, tableName string) (*DynamoDBStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(utils.GetEnv("AWS_REGION", "eu-north-1")),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}
	return &DynamoDBStore{
		client: dynamodb.NewFromConfig(cfg),
		table:  tableName,
	}, nil
}

func (s *DynamoDBStore) Close() error { return nil }

func (s *DynamoDBStore) PutRecord(ctx context.Context, record models.ClassificationRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("error marshaling record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("error storing record in DynamoDB: %w", err)
	}
	return nil
}

// ScanAll walks the whole table through the scan paginator, so exports are
// not capped by the 1 MB scan page limit.
func (s *DynamoDBStore) ScanAll(ctx context.Context) ([]models.ClassificationRecord, error) {
	var records []models.ClassificationRecord

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error scanning DynamoDB table: %w", err)
		}

		var batch []models.ClassificationRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("error unmarshaling scan page: %w", err)
		}
		records = append(records, batch...)
	}

	return records, nil
}
