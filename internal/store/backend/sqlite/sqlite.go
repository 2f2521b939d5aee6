// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package sqlite implements a store backend on top of an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const name = "sqlite"

const (
	schema = `CREATE TABLE IF NOT EXISTS defaults (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`
	upsert = `INSERT INTO defaults (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`
)

// Backend stores entries as rows of a key/value table.
type Backend struct {
	db *sql.DB
}

// New opens (or creates) the database at path and prepares the schema.
func New(ctx context.Context, path string) (*Backend, error) {
	if path == "" {
		return nil, errors.New("path to the database file is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create directory for database: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases consistent across calls.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", schema} {
		if _, err = db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to prepare database: %w", err)
		}
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Name() string {
	return name
}

// Write upserts all entries in one transaction.
func (b *Backend) Write(ctx context.Context, entries map[string]string) error {
	return b.transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsert)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for key, value := range entries {
			if _, err = stmt.ExecContext(ctx, key, value); err != nil {
				return fmt.Errorf("failed to write key %q: %w", key, err)
			}
		}
		return nil
	})
}

func (b *Backend) Read(ctx context.Context, keys []string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	args := make([]any, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	query := "SELECT key, value FROM defaults WHERE key IN (?" + strings.Repeat(", ?", len(keys)-1) + ")"
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query defaults: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key, value string
		if err = rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result[key] = value
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return result, nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back transaction: %w", rbErr))
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
