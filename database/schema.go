package database

import (
	"context"
	"database/sql"
	"fmt"
)

const SCHEMA_VERSION = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    repetition INTEGER NOT NULL,
    seed INTEGER NOT NULL,
    mutation_rate REAL NOT NULL,
    genome_length INTEGER NOT NULL,
    carrying_capacity INTEGER NOT NULL,
    sample_size INTEGER NOT NULL,
    source_generations INTEGER NOT NULL,
    recipient_generations INTEGER NOT NULL,
    bottleneck INTEGER NOT NULL,
    num_bins INTEGER NOT NULL,
    iterations INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    UNIQUE (run_id, repetition)
);

-- One row per combination size per run
CREATE TABLE IF NOT EXISTS fractions (
    run INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    combo_size INTEGER NOT NULL,
    tier_1 REAL NOT NULL,
    tier_2 REAL NOT NULL,
    combined REAL NOT NULL,
    clumpiness REAL NOT NULL,
    PRIMARY KEY (run, combo_size)
);

-- The raw per-trial seg diff sums
CREATE TABLE IF NOT EXISTS seg_diffs (
    run INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    combo_size INTEGER NOT NULL,
    trial INTEGER NOT NULL,
    value INTEGER NOT NULL,
    PRIMARY KEY (run, combo_size, trial)
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

func initSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	var version int
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	switch {
	case version == 0:
		_, err = db.ExecContext(ctx,
			`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
			SCHEMA_VERSION)
		if err != nil {
			return fmt.Errorf("recording schema version: %w", err)
		}
	case version > SCHEMA_VERSION:
		return fmt.Errorf("database schema version %d is newer than %d", version, SCHEMA_VERSION)
	}
	return nil
}
