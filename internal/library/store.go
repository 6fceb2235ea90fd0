/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/storiny/web-sub007/internal/domain"
	applog "github.com/storiny/web-sub007/internal/log"
	"github.com/storiny/web-sub007/internal/scene"
	"github.com/storiny/web-sub007/internal/storage"
)

// Item statuses.
const (
	StatusUnpublished = "unpublished"
	StatusPublished   = "published"
)

var (
	ErrEmptySelection = errors.New("library: nothing to add")
	ErrNotFound       = errors.New("library: item not found")
)

// Item is a reusable group of layers.
type Item struct {
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Name    string          `json:"name,omitempty"`
	Created int64           `json:"created"` // unix millis
	Layers  []*domain.Layer `json:"elements"`
}

// Schema holds library items. Version 2 added item names.
var Schema = storage.Schema{
	Base: []string{
		`CREATE TABLE IF NOT EXISTS items (
			id       TEXT    PRIMARY KEY,
			status   TEXT    NOT NULL,
			created  INTEGER NOT NULL,
			layers   TEXT    NOT NULL,
			name     TEXT    NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_items_created ON items(created);`,
	},
	Migrations: []storage.Migration{{
		Version: 2,
		Stmts:   []string{`ALTER TABLE items ADD COLUMN name TEXT NOT NULL DEFAULT '';`},
	}},
}

// Store persists library items in sqlite.
type Store struct {
	db  *sql.DB
	now func() time.Time
	log *slog.Logger
}

// Open opens or creates the library database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, rebuilt, err := storage.OpenOrRepair(ctx, path, Schema)
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}
	l := applog.WithComponent("library")
	if rebuilt {
		l.Warn("library database was rebuilt", slog.String("path", path))
	}
	return &Store{db: db, now: time.Now, log: l}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Add stores deep copies of the non-deleted layers as a new unpublished item.
func (s *Store) Add(ctx context.Context, layers []*domain.Layer) (Item, error) {
	var copies []*domain.Layer
	for _, l := range layers {
		if l == nil || l.IsDeleted {
			continue
		}
		copies = append(copies, l.Clone())
	}
	if len(copies) == 0 {
		return Item{}, ErrEmptySelection
	}
	it := Item{ID: scene.NewID(), Status: StatusUnpublished, Created: s.now().UnixMilli(), Layers: copies}
	data, err := json.Marshal(it.Layers)
	if err != nil {
		return Item{}, fmt.Errorf("marshal item: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO items(id, status, created, layers, name) VALUES(?, ?, ?, ?, ?)`,
		it.ID, it.Status, it.Created, string(data), it.Name); err != nil {
		return Item{}, fmt.Errorf("insert item: %w", err)
	}
	s.log.Debug("item added", slog.String("id", it.ID), slog.Int("layers", len(copies)))
	return it, nil
}

// Put inserts it unchanged. It reports false when an item with the same id
// already exists; the stored item is kept.
func (s *Store) Put(ctx context.Context, it Item) (bool, error) {
	if it.ID == "" || len(it.Layers) == 0 {
		return false, ErrEmptySelection
	}
	if it.Status == "" {
		it.Status = StatusUnpublished
	}
	data, err := json.Marshal(it.Layers)
	if err != nil {
		return false, fmt.Errorf("marshal item: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO items(id, status, created, layers, name) VALUES(?, ?, ?, ?, ?)`,
		it.ID, it.Status, it.Created, string(data), it.Name)
	if err != nil {
		return false, fmt.Errorf("insert item: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// List returns all items, newest first.
func (s *Store) List(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, status, created, layers, name FROM items ORDER BY created DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Get returns one item by id.
func (s *Store) Get(ctx context.Context, id string) (Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, status, created, layers, name FROM items WHERE id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

// Remove deletes an item.
func (s *Store) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Rename sets the display name of an item.
func (s *Store) Rename(ctx context.Context, id, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE items SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("rename item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPublished flags the given items as published.
func (s *Store) MarkPublished(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE items SET status = ? WHERE id = ?`, StatusPublished, id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("mark published: %w", err)
		}
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(r scanner) (Item, error) {
	var it Item
	var data string
	if err := r.Scan(&it.ID, &it.Status, &it.Created, &data, &it.Name); err != nil {
		return Item{}, err
	}
	if err := json.Unmarshal([]byte(data), &it.Layers); err != nil {
		return Item{}, fmt.Errorf("decode item %s: %w", it.ID, err)
	}
	return it, nil
}
