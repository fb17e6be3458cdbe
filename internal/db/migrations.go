package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`CREATE TABLE IF NOT EXISTS quote_submissions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		submission_id VARCHAR(64) NOT NULL,
		event_type VARCHAR(32) NOT NULL,
		name TEXT,
		email TEXT,
		phone TEXT,
		pickup_location TEXT,
		dropoff_location TEXT,
		vehicle_year VARCHAR(8),
		vehicle_make TEXT,
		vehicle_model TEXT,
		vehicle_type VARCHAR(64),
		distance_miles NUMERIC(10,1) NOT NULL DEFAULT 0,
		transit_days INT NOT NULL DEFAULT 0,
		open_price INT NOT NULL DEFAULT 0,
		enclosed_price INT NOT NULL DEFAULT 0,
		shipment_date VARCHAR(32),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_quote_submission_id ON quote_submissions (submission_id);`,
	`CREATE INDEX IF NOT EXISTS idx_quote_submissions_created_at ON quote_submissions (created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_quote_submissions_event_type ON quote_submissions (event_type);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
