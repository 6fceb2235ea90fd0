/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor ties one editing session together: the layer store, the
// app state, the action registry with its caches, undo history, the
// viewport machine and optional crash recovery.
package editor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/storiny/web-sub007/internal/actions"
	"github.com/storiny/web-sub007/internal/clipboard"
	"github.com/storiny/web-sub007/internal/config"
	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/export"
	applog "github.com/storiny/web-sub007/internal/log"
	"github.com/storiny/web-sub007/internal/scene"
	"github.com/storiny/web-sub007/internal/storage"
	"github.com/storiny/web-sub007/internal/undo"
	"github.com/storiny/web-sub007/internal/viewport"
)

// recoveryKeep is how many checkpoints the recovery database retains.
const recoveryKeep = 50

// Options configures a session. Zero values fall back to defaults.
type Options struct {
	Config config.AppConfig
	// SceneID keys the undo stacks and recovery checkpoints.
	SceneID string
	// Clipboard is the host clipboard; nil keeps copies in process.
	Clipboard clipboard.SystemClipboard
	Library   actions.LibraryAdder
	Registry  *actions.Registry
	Logger    *slog.Logger
	// Recovery receives every committed checkpoint when set.
	Recovery *sql.DB
	Clock    func() time.Time
}

// Editor is one editing session. All methods are safe for concurrent use;
// actions and async continuations are serialized by a single mutex.
type Editor struct {
	mu       sync.Mutex
	store    *scene.Store
	app      *domain.AppState
	files    domain.Files
	reg      *actions.Registry
	env      *actions.Env
	history  *undo.Manager
	view     *viewport.Machine
	sceneID  string
	recovery *sql.DB
	log      *slog.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// New creates an empty session.
func New(opts Options) (*Editor, error) {
	cfg := opts.Config
	if cfg.ConfigVersion == 0 {
		cfg = config.Defaults()
	}
	reg := opts.Registry
	if reg == nil {
		var err error
		if reg, err = actions.Default(); err != nil {
			return nil, fmt.Errorf("build action registry: %w", err)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.WithComponent("editor")
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	sceneID := opts.SceneID
	if sceneID == "" {
		sceneID = scene.NewID()
	}
	ctx, cancel := context.WithCancel(applog.ContextWithSession(context.Background(), sceneID))

	e := &Editor{
		store:    scene.NewStore(scene.WithClock(now)),
		app:      domain.DefaultAppState(),
		files:    domain.Files{},
		reg:      reg,
		sceneID:  sceneID,
		recovery: opts.Recovery,
		log:      logger.With(slog.String("scene", sceneID)),
		now:      now,
		ctx:      ctx,
		cancel:   cancel,
		history: undo.NewManager(undo.Config{
			MaxBytes:    cfg.Editor.UndoMaxBytes,
			MaxPerScene: cfg.Editor.UndoMaxDepth,
			MinInterval: cfg.Editor.UndoCoalesce(),
		}),
	}
	if cfg.Editor.FontSize > 0 {
		e.app.CurrentItem.FontSize = cfg.Editor.FontSize
	}
	e.view = viewport.New(viewport.FromAppState(e.app))

	env := actions.NewEnv(cfg.Editor)
	env.Ctx = ctx
	env.Logger = applog.WithComponent("actions").With(slog.String("scene", sceneID))
	if opts.Clipboard != nil && cfg.Clipboard.UseSystem {
		env.Clipboard = clipboard.NewManager(opts.Clipboard, nil)
	}
	env.Library = opts.Library
	env.History = history{e}
	env.Async = e.runAsync
	e.env = env

	if err := e.resetHistoryLocked(false); err != nil {
		return nil, err
	}
	return e, nil
}

// Load replaces the session content and starts a fresh history.
func (e *Editor) Load(layers []*domain.Layer, app *domain.AppState, files domain.Files) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.ReplaceAll(layers)
	if app == nil {
		app = domain.DefaultAppState()
	}
	e.app = app.Clone()
	e.files = domain.Files{}
	for id, f := range files {
		e.files[id] = f
	}
	e.env.Files = e.files
	e.view.SetView(viewport.FromAppState(e.app))
	return e.resetHistoryLocked(true)
}

// LoadDocument loads a scene document.
func (e *Editor) LoadDocument(doc storage.Document) error {
	return e.Load(doc.Layers, doc.AppStateOrDefault(), doc.Files)
}

// Document returns the current content as a scene document.
func (e *Editor) Document() storage.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return storage.NewDocument(e.store.Snapshot(), e.app, e.files)
}

// Save writes the current content through h.
func (e *Editor) Save(h *storage.SceneHandle) error {
	if h == nil {
		return errors.New("nil SceneHandle")
	}
	h.Doc = e.Document()
	if err := storage.Save(h); err != nil {
		e.log.Error("save failed", slog.String("path", h.Path), slog.Any("err", err))
		return err
	}
	e.log.Info("scene saved", slog.String("path", h.Path))
	return nil
}

// Layers returns a deep copy of all layers, tombstones included.
func (e *Editor) Layers() []*domain.Layer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Snapshot()
}

// AppState returns a copy of the app state.
func (e *Editor) AppState() *domain.AppState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.app.Clone()
}

// Files returns a copy of the binary file map.
func (e *Editor) Files() domain.Files {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(domain.Files, len(e.files))
	for id, f := range e.files {
		out[id] = f
	}
	return out
}

// Registry returns the action catalogue of the session.
func (e *Editor) Registry() *actions.Registry { return e.reg }

// Dispatch routes a keyboard event and reports whether an action took it.
func (e *Editor) Dispatch(ev domain.KeyEvent) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, _, ok := e.reg.Dispatch(ev, e.store, e.app, e.env)
	if ok {
		e.applyLocked(res)
	}
	return ok
}

// Execute runs the named action with value.
func (e *Editor) Execute(name string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.reg.Execute(name, e.store, e.app, value, e.env)
	if err != nil {
		return err
	}
	e.applyLocked(res)
	return nil
}

// Apply merges an action result into the session.
func (e *Editor) Apply(res actions.Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applyLocked(res)
}

// Update runs c against the current state and applies its result. Async
// work re-enters the session through Update.
func (e *Editor) Update(c actions.Continuation) {
	if c == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applyLocked(c(e.store.Fork(), e.app))
}

// Mutate changes the session through direct store access, e.g. for pointer
// gestures that are not actions. fn must not retain s or app.
func (e *Editor) Mutate(commit bool, fn func(s *scene.Store, app *domain.AppState) *domain.AppState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f := e.store.Fork()
	next := fn(f, e.app.Clone())
	res := actions.Result{Layers: f.Layers(), AppState: next, CommitToHistory: commit}
	e.applyLocked(res)
}

// HandleViewport feeds a pointer, pinch or wheel event to the viewport
// machine and mirrors the resulting view into the app state.
func (e *Editor) HandleViewport(ev viewport.Event) viewport.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := e.view.Handle(ev)
	e.app = v.ApplyTo(e.app)
	return e.view.State()
}

// ExportToCanvas rasterizes the live layers with the export settings of the
// app state.
func (e *Editor) ExportToCanvas() *image.RGBA {
	layers, opt, files := e.exportInput()
	return export.ExportToCanvas(layers, opt, files)
}

// Export encodes the live layers as format.
func (e *Editor) Export(format export.Format) ([]byte, error) {
	layers, opt, files := e.exportInput()
	return export.ExportToBlob(layers, opt, files, format)
}

func (e *Editor) exportInput() ([]*domain.Layer, export.Options, domain.Files) {
	e.mu.Lock()
	defer e.mu.Unlock()
	live := e.store.NonDeleted()
	layers := make([]*domain.Layer, len(live))
	for i, l := range live {
		layers[i] = l.Clone()
	}
	files := make(domain.Files, len(e.files))
	for id, f := range e.files {
		files[id] = f
	}
	return layers, export.FromAppState(e.app), files
}

// Wait blocks until pending async work has been applied.
func (e *Editor) Wait() { e.wg.Wait() }

// Close cancels async work, waits for it and closes the recovery database.
// Actions dispatched after Close run, but their async work is dropped.
func (e *Editor) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.cancel()
	e.mu.Unlock()

	e.wg.Wait()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recovery == nil {
		return nil
	}
	err := e.recovery.Close()
	e.recovery = nil
	return err
}

func (e *Editor) applyLocked(res actions.Result) {
	if res.Layers != nil {
		e.store.ReplaceAll(res.Layers)
	}
	if res.AppState != nil {
		e.app = res.AppState
		e.view.SetView(viewport.FromAppState(e.app))
	}
	if len(res.Files) > 0 {
		for id, f := range res.Files {
			e.files[id] = f
		}
		e.env.Files = e.files
	}
	if res.CommitToHistory {
		e.commitLocked()
	}
}

func (e *Editor) checkpointLocked() (undo.Snapshot, error) {
	cp := undo.CheckpointOf(e.store.Snapshot(), e.app)
	return undo.NewSnapshot(e.sceneID, cp, e.now())
}

func (e *Editor) commitLocked() {
	snap, err := e.checkpointLocked()
	if err != nil {
		e.log.Error("history checkpoint failed", slog.Any("err", err))
		return
	}
	e.history.PushSnapshot(snap)
	e.persistLocked(snap)
}

// resetHistoryLocked makes the current content the undo baseline. The empty
// scene of a new session is not persisted so it never shadows a real
// checkpoint.
func (e *Editor) resetHistoryLocked(persist bool) error {
	snap, err := e.checkpointLocked()
	if err != nil {
		return fmt.Errorf("history baseline: %w", err)
	}
	e.history.Reset(snap)
	if persist {
		e.persistLocked(snap)
	}
	return nil
}

func (e *Editor) persistLocked(snap undo.Snapshot) {
	if e.recovery == nil {
		return
	}
	if err := storage.SaveSnapshot(e.ctx, e.recovery, e.sceneID, snap.Blob, snap.TS); err != nil {
		e.log.Warn("recovery checkpoint failed", slog.Any("err", err))
		return
	}
	if _, err := storage.PruneOldSnapshots(e.ctx, e.recovery, e.sceneID, recoveryKeep); err != nil {
		e.log.Debug("recovery prune failed", slog.Any("err", err))
	}
}

// runAsync runs task on its own goroutine and applies the continuation
// under the session lock. The continuation sees whatever state is current
// by then. Called with the session lock held.
func (e *Editor) runAsync(task func(ctx context.Context) actions.Continuation) {
	if e.closed {
		e.log.Debug("session closed, async task dropped")
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		c := task(e.ctx)
		e.Update(c)
	}()
}

// history adapts the undo manager to the actions. It is only called from
// actions, so the session lock is already held.
type history struct{ e *Editor }

func (h history) CanUndo() bool { return h.e.history.CanUndo(h.e.sceneID) }
func (h history) CanRedo() bool { return h.e.history.CanRedo(h.e.sceneID) }

func (h history) Undo(cur *domain.AppState) ([]*domain.Layer, *domain.AppState, bool) {
	snap, ok := h.e.history.Undo(h.e.sceneID)
	return h.restore(snap, ok, cur)
}

func (h history) Redo(cur *domain.AppState) ([]*domain.Layer, *domain.AppState, bool) {
	snap, ok := h.e.history.Redo(h.e.sceneID)
	return h.restore(snap, ok, cur)
}

func (h history) restore(snap undo.Snapshot, ok bool, cur *domain.AppState) ([]*domain.Layer, *domain.AppState, bool) {
	if !ok {
		return nil, nil, false
	}
	cp, err := undo.Decode(snap.Blob)
	if err != nil {
		h.e.log.Error("history checkpoint unreadable", slog.Any("err", err))
		return nil, nil, false
	}
	if cp.Layers == nil {
		cp.Layers = []*domain.Layer{}
	}
	return cp.Layers, cp.Apply(cur), true
}
