// Package db holds the structured-record storage adapters. One record is
// upserted per classification event; exports do a full scan.
package db

import (
	"context"
	"fmt"
	"strings"

	"noise-mapping/models"
	"noise-mapping/utils"
)

// RecordStore is the structured storage contract.
type RecordStore interface {
	PutRecord(ctx context.Context, record models.ClassificationRecord) error
	ScanAll(ctx context.Context) ([]models.ClassificationRecord, error)
	Close() error
}

// NewRecordStore builds the store selected by the DB_TYPE environment
// variable: "sqlite" (default), "dynamodb" or "mongo". Configuration is read
// once here, at process start.
func NewRecordStore(ctx context.Context) (RecordStore, error) {
	dbType := strings.ToLower(utils.GetEnv("DB_TYPE", "sqlite"))
	switch dbType {
	case "sqlite":
		return NewSQLiteStore(utils.GetEnv("SQLITE_DSN", "db/classifications.db"))
	case "dynamodb":
		return NewDynamoDBStore(ctx, utils.GetEnv("DYNAMODB_TABLE", "NoiseClassification"))
	case "mongo":
		return NewMongoStore(ctx,
			utils.GetEnv("MONGO_URI", "mongodb://localhost:27017"),
			utils.GetEnv("MONGO_DB", "noise_mapping"),
		)
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q (expected sqlite, dynamodb or mongo)", dbType)
	}
}
