/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package actions holds the catalogue of named editor commands and the
// dispatcher that maps keyboard chords and programmatic calls onto them.
package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/storiny/web-sub007/internal/binding"
	"github.com/storiny/web-sub007/internal/clipboard"
	"github.com/storiny/web-sub007/internal/config"
	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/library"
	"github.com/storiny/web-sub007/internal/linear"
	applog "github.com/storiny/web-sub007/internal/log"
	"github.com/storiny/web-sub007/internal/scene"
)

// Result is what an action hands back to the editor. Nil Layers, AppState
// or Files mean unchanged.
type Result struct {
	Layers          []*domain.Layer
	AppState        *domain.AppState
	Files           domain.Files
	CommitToHistory bool
}

// Changed reports whether the result replaces anything.
func (r Result) Changed() bool {
	return r.Layers != nil || r.AppState != nil || r.Files != nil
}

// Continuation runs on the editor's current state once an async task is
// done. It sees whatever the scene looks like by then.
type Continuation func(s *scene.Store, app *domain.AppState) Result

// AsyncFunc schedules task off the dispatch path. The returned continuation
// is applied by the editor; nothing cancels it.
type AsyncFunc func(task func(ctx context.Context) Continuation)

// History restores undo checkpoints.
type History interface {
	CanUndo() bool
	CanRedo() bool
	Undo(current *domain.AppState) ([]*domain.Layer, *domain.AppState, bool)
	Redo(current *domain.AppState) ([]*domain.Layer, *domain.AppState, bool)
}

// LibraryAdder stores layers as a library item.
type LibraryAdder interface {
	Add(ctx context.Context, layers []*domain.Layer) (library.Item, error)
}

// StyleCache holds the styles picked up by copyStyles for one session.
type StyleCache struct {
	mu    sync.Mutex
	style *domain.StyleSet
}

func NewStyleCache() *StyleCache { return &StyleCache{} }

func (c *StyleCache) Set(st domain.StyleSet) {
	c.mu.Lock()
	c.style = &st
	c.mu.Unlock()
}

// Get returns the copied style and whether one was copied.
func (c *StyleCache) Get() (domain.StyleSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.style == nil {
		return domain.StyleSet{}, false
	}
	return *c.style, true
}

// Env carries the session-scoped collaborators an action may use.
type Env struct {
	Ctx       context.Context
	Logger    *slog.Logger
	Heights   *binding.HeightCache
	Styles    *StyleCache
	Clipboard *clipboard.Manager
	Library   LibraryAdder
	History   History
	Linear    *linear.Editor
	Config    config.EditorConfig
	Files     domain.Files
	Async     AsyncFunc
}

// NewEnv returns an Env with fresh caches and the given editor config.
func NewEnv(cfg config.EditorConfig) *Env {
	return &Env{
		Ctx:       context.Background(),
		Logger:    applog.WithComponent("actions"),
		Heights:   binding.NewHeightCache(),
		Styles:    NewStyleCache(),
		Clipboard: clipboard.NewManager(nil, nil),
		Linear:    linear.NewEditor(linear.Config{BindingThreshold: cfg.BindingThreshold, LoopCloseEpsilon: cfg.LoopCloseEpsilon}),
		Config:    cfg,
	}
}

func (e *Env) ctx() context.Context {
	if e == nil || e.Ctx == nil {
		return context.Background()
	}
	return e.Ctx
}

func (e *Env) logger() *slog.Logger {
	if e == nil || e.Logger == nil {
		return applog.WithComponent("actions")
	}
	return e.Logger
}

func (e *Env) threshold(zoom float64) float64 {
	base := 0.0
	if e != nil {
		base = e.Config.BindingThreshold
	}
	return binding.Threshold(base, zoom)
}

// async runs task through e.Async, or inline when no scheduler is set.
func (e *Env) async(s *scene.Store, app *domain.AppState, task func(ctx context.Context) Continuation) Result {
	if e != nil && e.Async != nil {
		e.Async(task)
		return Result{}
	}
	return task(e.ctx())(s, app)
}

// Action is a named editor command.
type Action struct {
	Name string
	// TrackEvent names the usage category, empty for untracked actions.
	TrackEvent string
	// Chords are the keyboard triggers. Actions without chords are only
	// reachable through Execute.
	Chords []domain.KeyEvent
	// KeyTest narrows a chord match using editor state.
	KeyTest   func(ev domain.KeyEvent, app *domain.AppState, s *scene.Store) bool
	Predicate func(s *scene.Store, app *domain.AppState, env *Env) bool
	Perform   func(s *scene.Store, app *domain.AppState, value any, env *Env) Result
	Checked   func(app *domain.AppState) bool
}

func (a *Action) matches(ev domain.KeyEvent, app *domain.AppState, s *scene.Store) bool {
	key := chordKey(ev)
	hit := false
	for _, c := range a.Chords {
		if chordKey(c) == key {
			hit = true
			break
		}
	}
	if !hit {
		return false
	}
	return a.KeyTest == nil || a.KeyTest(ev, app, s)
}

// Enabled reports whether the predicate (if any) admits the action.
func (a *Action) Enabled(s *scene.Store, app *domain.AppState, env *Env) bool {
	return a.Predicate == nil || a.Predicate(s, app, env)
}

// IsChecked reports the toggle state for toolbar buttons.
func (a *Action) IsChecked(app *domain.AppState) bool {
	return a.Checked != nil && a.Checked(app)
}

// chordKey normalizes a chord: Ctrl and Cmd are one modifier and letters
// compare by physical key.
func chordKey(ev domain.KeyEvent) string {
	var b strings.Builder
	if ev.CtrlOrCmd() {
		b.WriteString("mod+")
	}
	if ev.Alt {
		b.WriteString("alt+")
	}
	if ev.Shift {
		b.WriteString("shift+")
	}
	if l := ev.Letter(); l != "" {
		b.WriteString(l)
	} else {
		b.WriteString(ev.Key)
	}
	return b.String()
}

var (
	ErrDuplicateAction = errors.New("actions: duplicate action name")
	ErrChordConflict   = errors.New("actions: chord bound to more than one action")
	ErrUnknownAction   = errors.New("actions: unknown action")
	ErrDisabled        = errors.New("actions: predicate rejected action")
)

// Builder collects actions before the registry is frozen.
type Builder struct {
	actions []*Action
}

func NewBuilder() *Builder { return &Builder{} }

// Register appends a and returns it unchanged.
func (b *Builder) Register(a *Action) *Action {
	b.actions = append(b.actions, a)
	return a
}

// Build freezes the catalogue. Duplicate names and chords shared by two
// actions are errors.
func (b *Builder) Build() (*Registry, error) {
	r := &Registry{byName: make(map[string]*Action, len(b.actions))}
	owner := map[string]string{}
	var errs []error
	for _, a := range b.actions {
		if a == nil || a.Name == "" || a.Perform == nil {
			errs = append(errs, fmt.Errorf("actions: incomplete action %+v", a))
			continue
		}
		if _, dup := r.byName[a.Name]; dup {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateAction, a.Name))
			continue
		}
		for _, c := range a.Chords {
			k := chordKey(c)
			if prev, ok := owner[k]; ok && prev != a.Name {
				errs = append(errs, fmt.Errorf("%w: %s used by %s and %s", ErrChordConflict, k, prev, a.Name))
				continue
			}
			owner[k] = a.Name
		}
		r.byName[a.Name] = a
		r.ordered = append(r.ordered, a)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

// Registry is the immutable action catalogue. It is safe for concurrent use.
type Registry struct {
	ordered []*Action
	byName  map[string]*Action
}

// Get returns the action registered under name.
func (r *Registry) Get(name string) (*Action, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Actions returns the catalogue in registration order.
func (r *Registry) Actions() []*Action {
	return append([]*Action(nil), r.ordered...)
}

// Match returns the first action whose chord, KeyTest and predicate accept ev.
func (r *Registry) Match(ev domain.KeyEvent, s *scene.Store, app *domain.AppState, env *Env) *Action {
	for _, a := range r.ordered {
		if a.matches(ev, app, s) && a.Enabled(s, app, env) {
			return a
		}
	}
	return nil
}

// Dispatch handles a keyboard event. The bool is false when no action took it.
// The store is never modified; actions work on a fork.
func (r *Registry) Dispatch(ev domain.KeyEvent, s *scene.Store, app *domain.AppState, env *Env) (Result, *Action, bool) {
	a := r.Match(ev, s, app, env)
	if a == nil {
		return Result{}, nil, false
	}
	return r.perform(a, s, app, nil, env), a, true
}

// Execute runs the named action programmatically with value.
func (r *Registry) Execute(name string, s *scene.Store, app *domain.AppState, value any, env *Env) (Result, error) {
	a, ok := r.byName[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	if !a.Enabled(s, app, env) {
		return Result{}, fmt.Errorf("%w: %s", ErrDisabled, name)
	}
	return r.perform(a, s, app, value, env), nil
}

func (r *Registry) perform(a *Action, s *scene.Store, app *domain.AppState, value any, env *Env) Result {
	l := applog.WithAction(env.logger(), a.Name)
	res := a.Perform(s.Fork(), app, value, env)
	l.Debug("performed", slog.Bool("commit", res.CommitToHistory), slog.Bool("changed", res.Changed()))
	return res
}
