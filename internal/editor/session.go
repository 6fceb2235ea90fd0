/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	applog "github.com/storiny/web-sub007/internal/log"
	"github.com/storiny/web-sub007/internal/storage"
	"github.com/storiny/web-sub007/internal/undo"
)

// Open loads the scene file at path into a new session whose checkpoints are
// also written to the recovery database next to the file. When restore is
// set and that database holds a checkpoint newer than the file, the
// checkpoint wins and the handle is marked Recovered.
func Open(ctx context.Context, path string, opts Options, restore bool) (*Editor, *storage.SceneHandle, error) {
	h, err := storage.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if opts.SceneID == "" {
		if abs, aerr := filepath.Abs(path); aerr == nil {
			opts.SceneID = abs
		} else {
			opts.SceneID = path
		}
	}
	if opts.Recovery == nil {
		db, rerr := storage.OpenRecovery(ctx, path)
		if rerr != nil {
			// sessions work without recovery
			applog.WithComponent("editor").Warn("recovery database unavailable", slog.String("path", path), slog.Any("err", rerr))
		} else {
			opts.Recovery = db
		}
	}
	e, err := New(opts)
	if err != nil {
		if opts.Recovery != nil {
			_ = opts.Recovery.Close()
		}
		return nil, nil, err
	}

	doc := h.Doc
	if restore && opts.Recovery != nil {
		if cp, ok := newerCheckpoint(ctx, e, path); ok {
			doc.Layers = cp.Layers
			app := cp.Apply(doc.AppStateOrDefault())
			if err := e.Load(doc.Layers, app, doc.Files); err != nil {
				_ = e.Close()
				return nil, nil, err
			}
			h.Recovered = true
			e.log.Info("restored unsaved changes", slog.String("path", path))
			return e, h, nil
		}
	}
	if err := e.LoadDocument(doc); err != nil {
		_ = e.Close()
		return nil, nil, err
	}
	return e, h, nil
}

func newerCheckpoint(ctx context.Context, e *Editor, path string) (undo.Checkpoint, bool) {
	blob, ts, err := storage.GetLatestSnapshot(ctx, e.recovery, e.sceneID)
	if err != nil || blob == nil {
		return undo.Checkpoint{}, false
	}
	if fi, serr := os.Stat(path); serr == nil && !ts.After(fi.ModTime()) {
		return undo.Checkpoint{}, false
	}
	cp, err := undo.Decode(blob)
	if err != nil {
		e.log.Warn("recovery checkpoint unreadable", slog.Any("err", err))
		return undo.Checkpoint{}, false
	}
	return cp, true
}
