package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema version tracking
const currentSchemaVersion = 2

// migrations[v] upgrades a database at version v to v+1.
var migrations = map[int]func(tx *sql.Tx) error{
	1: migrateToV2,
}

// initializeSchema creates the version 1 tables; runMigrations brings them up to date.
func (db *DB) initializeSchema() error {
	return db.WithTx(context.Background(), func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createRunsTable(tx); err != nil {
			return err
		}
		if err := setSchemaVersion(tx, 1); err != nil {
			return err
		}
		db.logger.Info("Database schema initialized", "version", 1)
		return nil
	})
}

// runMigrations runs any pending schema migrations
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}
	if version == currentSchemaVersion {
		db.logger.Debug("Database schema is up to date", "version", version)
		return nil
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	db.logger.Info("Running database migrations",
		"from_version", version,
		"to_version", currentSchemaVersion,
	)
	for v := version; v < currentSchemaVersion; v++ {
		migrate, ok := migrations[v]
		if !ok {
			return fmt.Errorf("no migration from schema version %d", v)
		}
		err := db.WithTx(context.Background(), func(tx *sql.Tx) error {
			if err := migrate(tx); err != nil {
				return err
			}
			return setSchemaVersion(tx, v+1)
		})
		if err != nil {
			return fmt.Errorf("migration to version %d failed: %w", v+1, err)
		}
	}
	return nil
}

// SchemaVersion reports the version recorded in the database.
func (db *DB) SchemaVersion() (int, error) {
	return db.getSchemaVersion()
}

// getSchemaVersion gets the current schema version
func (db *DB) getSchemaVersion() (int, error) {
	ctx := context.Background()

	var tableName string
	err := db.QueryRowContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

// setSchemaVersion sets the schema version
func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// createSchemaVersionTable creates the schema_version tracking table
func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createRunsTable creates the runs table: one row per recorded analysis, the full report
// stored compressed next to its headline counts.
func createRunsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			package TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			files INTEGER NOT NULL,
			cycles INTEGER NOT NULL,
			unused_exports INTEGER NOT NULL,
			violations INTEGER NOT NULL,
			unlisted INTEGER NOT NULL,
			report BLOB NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`)
	return err
}

// migrateToV2 records the tool version and total findings per run.
func migrateToV2(tx *sql.Tx) error {
	stmts := []string{
		`ALTER TABLE runs ADD COLUMN tool_version TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE runs ADD COLUMN findings INTEGER NOT NULL DEFAULT 0`,
		`UPDATE runs SET findings = cycles + unused_exports + violations + unlisted`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
