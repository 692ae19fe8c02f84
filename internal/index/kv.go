package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
)

// StateBlob stores one opaque document under a key of the kv table.
type StateBlob struct {
	db  *DB
	key string
}

// StateBlob returns a blob bound to key.
func (db *DB) StateBlob(key string) StateBlob {
	return StateBlob{db: db, key: key}
}

// Load returns the stored document. A missing row reports os.ErrNotExist.
func (b StateBlob) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := b.db.conn.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, b.key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: kv %s: %w", b.key, os.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("index: kv load: %w", err)
	}
	return data, nil
}

// Save replaces the stored document.
func (b StateBlob) Save(ctx context.Context, data []byte) error {
	_, err := b.db.conn.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, b.key, data)
	if err != nil {
		return fmt.Errorf("index: kv save: %w", err)
	}
	return nil
}
