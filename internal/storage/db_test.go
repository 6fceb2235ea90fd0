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
	"os"
	"path/filepath"
	"testing"
	"time"
)

var testSchemaV1 = Schema{
	Base: []string{`CREATE TABLE IF NOT EXISTS items (id INTEGER PRIMARY KEY, name TEXT NOT NULL);`},
}

var testSchemaV2 = Schema{
	Base: testSchemaV1.Base,
	Migrations: []Migration{{
		Version: 2,
		Stmts:   []string{`CREATE INDEX IF NOT EXISTS idx_items_name ON items(name);`},
	}},
}

func TestOpenSQLiteFreshStartsAtCurrentSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.sqlite")
	db, err := OpenSQLite(path, testSchemaV2)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()
	v, err := SchemaVersion(context.Background(), db)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 2 {
		t.Fatalf("expected schema 2, got %d", v)
	}
}

func TestMigrationsUpgradeV1ToV2(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.sqlite")
	db, err := OpenSQLite(path, testSchemaV1)
	if err != nil {
		t.Fatalf("OpenSQLite v1: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if v, _ := SchemaVersion(ctx, db); v != 1 {
		t.Fatalf("expected schema 1, got %d", v)
	}
	_ = db.Close()

	mdb, err := OpenSQLite(path, testSchemaV2)
	if err != nil {
		t.Fatalf("OpenSQLite v2: %v", err)
	}
	defer mdb.Close()
	if v, _ := SchemaVersion(ctx, mdb); v != 2 {
		t.Fatalf("expected schema 2 after migration, got %d", v)
	}
	var cnt int
	if err := mdb.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_items_name'`).Scan(&cnt); err != nil {
		t.Fatalf("query indexes: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("expected migration index, got %d", cnt)
	}
}

func TestOpenOrRepairRebuildsCorruptFile(t *testing.T) {
	scene := filepath.Join(t.TempDir(), "s.excalidraw")
	idx := IndexPath(scene)
	if err := os.MkdirAll(filepath.Dir(idx), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(idx, []byte("THIS IS NOT SQLITE"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, rebuilt, err := OpenOrRepair(ctx, idx, RecoverySchema)
	if err != nil {
		t.Fatalf("OpenOrRepair: %v", err)
	}
	defer db.Close()
	if !rebuilt {
		t.Fatalf("expected rebuild to occur")
	}
	entries, _ := os.ReadDir(filepath.Join(filepath.Dir(idx), "backups"))
	if len(entries) == 0 {
		t.Fatalf("expected backup of corrupt file")
	}
	if err := SaveSnapshot(ctx, db, "s", []byte("x"), time.Now()); err != nil {
		t.Fatalf("rebuilt db unusable: %v", err)
	}
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	if _, err := OpenSQLite("  ", testSchemaV1); err == nil {
		t.Fatalf("expected error for blank path")
	}
}
