package checkpoint

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	campaign_id TEXT NOT NULL,
	item_id     TEXT NOT NULL,
	value       BLOB NOT NULL,
	PRIMARY KEY (campaign_id, item_id)
);
`

// SQLiteRepository stores checkpoint records in a SQLite database
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the database and applies the schema
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Get reads the record for the key
func (r *SQLiteRepository) Get(key Key) ([]byte, error) {
	var value []byte
	err := r.db.QueryRow(
		"SELECT value FROM checkpoints WHERE campaign_id = ? AND item_id = ?",
		key.CampaignID, key.ItemID,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query checkpoint: %w", err)
	}
	return value, nil
}

// Set upserts the record
func (r *SQLiteRepository) Set(key Key, value []byte) error {
	_, err := r.db.Exec(
		`INSERT INTO checkpoints (campaign_id, item_id, value) VALUES (?, ?, ?)
		 ON CONFLICT (campaign_id, item_id) DO UPDATE SET value = excluded.value`,
		key.CampaignID, key.ItemID, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// Delete removes the record; deleting an absent key is not an error
func (r *SQLiteRepository) Delete(key Key) error {
	if _, err := r.db.Exec(
		"DELETE FROM checkpoints WHERE campaign_id = ? AND item_id = ?",
		key.CampaignID, key.ItemID,
	); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// List returns every stored key
func (r *SQLiteRepository) List() ([]Key, error) {
	rows, err := r.db.Query("SELECT campaign_id, item_id FROM checkpoints ORDER BY campaign_id, item_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var keys []Key
	for rows.Next() {
		var key Key
		if err := rows.Scan(&key.CampaignID, &key.ItemID); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Close closes the database
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
