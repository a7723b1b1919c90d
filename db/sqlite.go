package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"noise-mapping/models"
	"noise-mapping/utils"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	// Extract the file path before query parameters
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	dbDir := filepath.Dir(dbPath)
	if dbDir != "." && dbDir != "" {
		if err := utils.CreateFolder(dbDir); err != nil {
			return nil, fmt.Errorf("error creating database directory: %s", err)
		}
	}

	// Add busy timeout param to DSN (milliseconds)
	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000"
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %s", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("error creating tables: %s", err)
	}

	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	createClassificationsTable := `
    CREATE TABLE IF NOT EXISTS classifications (
        id TEXT PRIMARY KEY,
        device_id TEXT NOT NULL,
        timestamp INTEGER NOT NULL,
        captured_at TEXT NOT NULL,
        filename TEXT NOT NULL,
        latitude REAL,
        longitude REAL,
        zip_code TEXT,
        noise_level REAL,
        label TEXT NOT NULL,
        confidence REAL NOT NULL DEFAULT 0
    );
    CREATE INDEX IF NOT EXISTS idx_classifications_timestamp ON classifications(timestamp);
    CREATE INDEX IF NOT EXISTS idx_classifications_device ON classifications(device_id);
    `

	if _, err := db.Exec(createClassificationsTable); err != nil {
		return fmt.Errorf("error creating classifications table: %s", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// PutRecord upserts one classification record keyed by id.
func (s *SQLiteStore) PutRecord(ctx context.Context, record models.ClassificationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO classifications (
			id, device_id, timestamp, captured_at, filename,
			latitude, longitude, zip_code, noise_level, label, confidence
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.DeviceID,
		record.Timestamp,
		record.CapturedAt,
		record.Filename,
		record.Latitude,
		record.Longitude,
		record.ZipCode,
		record.NoiseLevel,
		record.Label,
		record.Confidence,
	)
	if err != nil {
		return fmt.Errorf("error storing classification: %s", err)
	}
	return nil
}

// ScanAll retrieves every stored classification record.
func (s *SQLiteStore) ScanAll(ctx context.Context) ([]models.ClassificationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, device_id, timestamp, captured_at, filename,
		       latitude, longitude, zip_code, noise_level, label, confidence
		FROM classifications
	`)
	if err != nil {
		return nil, fmt.Errorf("error querying classifications: %s", err)
	}
	defer rows.Close()

	var records []models.ClassificationRecord
	for rows.Next() {
		var r models.ClassificationRecord
		err := rows.Scan(
			&r.ID,
			&r.DeviceID,
			&r.Timestamp,
			&r.CapturedAt,
			&r.Filename,
			&r.Latitude,
			&r.Longitude,
			&r.ZipCode,
			&r.NoiseLevel,
			&r.Label,
			&r.Confidence,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning classification: %s", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating classifications: %s", err)
	}

	return records, nil
}
