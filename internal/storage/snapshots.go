/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// RecoverySchema holds undo checkpoints persisted next to a scene file so an
// interrupted session can be restored.
var RecoverySchema = Schema{
	Base: []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id         INTEGER PRIMARY KEY,
			scene_id   TEXT    NOT NULL,
			ts         TEXT    NOT NULL,
			blob       BLOB    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_scene_ts ON snapshots(scene_id, ts);`,
	},
}

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO snapshots(scene_id, ts, blob) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestSnapshotSQL = `SELECT ts, blob FROM snapshots WHERE scene_id = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT ts, blob FROM snapshots WHERE scene_id = ? ORDER BY ts DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldSnapshotsSQL = `DELETE FROM snapshots WHERE scene_id = ? AND id NOT IN (
	SELECT id FROM snapshots WHERE scene_id = ? ORDER BY ts DESC LIMIT ?
)`

// tsLayout keeps fractional seconds fixed-width so ts sorts lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SnapshotRecord is one persisted checkpoint.
type SnapshotRecord struct {
	TS   time.Time
	Blob []byte
}

// OpenRecovery opens the recovery database that belongs to a scene file,
// rebuilding it when it is corrupt.
func OpenRecovery(ctx context.Context, scenePath string) (*sql.DB, error) {
	db, _, err := OpenOrRepair(ctx, IndexPath(scenePath), RecoverySchema)
	return db, err
}

// SaveSnapshot persists a checkpoint blob with a timestamp.
func SaveSnapshot(ctx context.Context, db *sql.DB, sceneID string, blob []byte, ts time.Time) error {
	if db == nil {
		return errors.New("nil database")
	}
	_, err := db.ExecContext(ctx, insertSnapshotSQL, sceneID, ts.UTC().Format(tsLayout), blob)
	return err
}

// GetLatestSnapshot returns the latest checkpoint for a scene or nil if none.
func GetLatestSnapshot(ctx context.Context, db *sql.DB, sceneID string) ([]byte, time.Time, error) {
	if db == nil {
		return nil, time.Time{}, errors.New("nil database")
	}
	var tsStr string
	var blob []byte
	err := db.QueryRowContext(ctx, selectLatestSnapshotSQL, sceneID).Scan(&tsStr, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, tsStr)
	if err != nil {
		return blob, time.Time{}, nil // return blob even if ts parse fails
	}
	return blob, ts, nil
}

// ListSnapshots returns up to limit most recent checkpoints for a scene.
func ListSnapshots(ctx context.Context, db *sql.DB, sceneID string, limit int) ([]SnapshotRecord, error) {
	if db == nil {
		return nil, errors.New("nil database")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, listSnapshotsSQL, sceneID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []SnapshotRecord
	for rows.Next() {
		var tsStr string
		var blob []byte
		if err := rows.Scan(&tsStr, &blob); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, SnapshotRecord{TS: ts, Blob: blob})
	}
	return out, rows.Err()
}

// PruneOldSnapshots keeps at most keepLast checkpoints for the scene and deletes older ones.
func PruneOldSnapshots(ctx context.Context, db *sql.DB, sceneID string, keepLast int) (int64, error) {
	if db == nil {
		return 0, errors.New("nil database")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := db.ExecContext(ctx, pruneOldSnapshotsSQL, sceneID, sceneID, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
