/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "github.com/storiny/web-sub007/internal/log"
	"github.com/storiny/web-sub007/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores per-scene recovery data next to the scene file.
	IndexDirName  = ".sketch"
	IndexFileName = "index.sqlite"
)

// Migration upgrades a database from Version-1 to Version.
type Migration struct {
	Version int
	Stmts   []string
}

// Schema describes the tables a database needs. Base creates the current
// layout on a fresh file; Migrations bring older files up to date.
type Schema struct {
	Base       []string
	Migrations []Migration
}

func (s Schema) version() int {
	v := 1
	for _, m := range s.Migrations {
		if m.Version > v {
			v = m.Version
		}
	}
	return v
}

// IndexPath returns the recovery database path for a scene file.
func IndexPath(scenePath string) string {
	return filepath.Join(filepath.Dir(scenePath), IndexDirName, IndexFileName)
}

// OpenSQLite opens (creating if needed) the database at path, enables WAL
// mode, ensures the meta/version tables and the schema, and runs pending
// migrations. Callers close the returned *sql.DB.
func OpenSQLite(path string, schema Schema) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "sqlite_open").With(
		slog.String("path", path),
	)
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create db dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Set reasonable connection pool limits for embedded usage.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}

	if err := ensureMetaAndVersion(ctx, db, schema.version()); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	for _, q := range schema.Base {
		if _, err := db.ExecContext(ctx, q); err != nil {
			_ = db.Close()
			l.Error("ensure schema failed", slog.Any("err", err))
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}
	if err := runMigrations(ctx, db, schema); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Debug("sqlite ready")
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB, schemaVersion int) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	// Seed or update single-row version info
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// a fresh database starts at the current schema
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Update app and timestamp only; keep existing schema for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// SchemaVersion reads the schema number recorded in db.
func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return cur, nil
}

// runMigrations applies each pending migration in its own transaction.
func runMigrations(ctx context.Context, db *sql.DB, schema Schema) error {
	cur, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	for _, m := range schema.Migrations {
		if m.Version <= cur {
			continue
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		for _, q := range m.Stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", m.Version, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, m.Version, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", m.Version, err)
		}
		cur = m.Version
	}
	return nil
}

// OpenOrRepair opens the database like OpenSQLite. When the file cannot be
// opened or fails PRAGMA quick_check, it is copied to a timestamped backup,
// removed and recreated. The bool reports whether a rebuild happened.
func OpenOrRepair(ctx context.Context, path string, schema Schema) (*sql.DB, bool, error) {
	db, err := OpenSQLite(path, schema)
	if err == nil {
		var chk string
		qerr := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk)
		if qerr == nil && strings.Contains(strings.ToLower(chk), "ok") {
			return db, false, nil
		}
		_ = db.Close()
	}
	backupDBFile(path)
	_ = os.Remove(path)
	_ = os.Remove(path + "-wal")
	_ = os.Remove(path + "-shm")
	db, rerr := OpenSQLite(path, schema)
	if rerr != nil {
		return nil, false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rerr, err)
	}
	return db, true, nil
}

// backupDBFile copies the database file into a timestamped backup next to it.
func backupDBFile(path string) {
	bdir := filepath.Join(filepath.Dir(path), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp))
	if data, err := os.ReadFile(path); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}
