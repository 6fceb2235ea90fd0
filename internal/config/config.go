/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type EditorConfig struct {
	// BindingThreshold is the screen-space distance within which a linear
	// endpoint snaps to a bindable shape. Divided by zoom at use sites.
	BindingThreshold float64 `yaml:"binding_threshold"`
	// LoopCloseEpsilon is the screen-space distance under which the last
	// point of a linear layer snaps onto its first point on commit.
	LoopCloseEpsilon float64 `yaml:"loop_close_epsilon"`
	FontSize         float64 `yaml:"font_size"`
	LineHeight       float64 `yaml:"line_height"`
	UndoMaxBytes     int     `yaml:"undo_max_bytes"`
	UndoMaxDepth     int     `yaml:"undo_max_depth"`
	UndoCoalesceMs   int     `yaml:"undo_coalesce_ms"`
}

type ClipboardConfig struct {
	UseSystem bool `yaml:"use_system"`
}

type LibraryConfig struct {
	DBPath     string `yaml:"db_path"`
	PublishURL string `yaml:"publish_url"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int             `yaml:"config_version"`
	Editor        EditorConfig    `yaml:"editor"`
	Clipboard     ClipboardConfig `yaml:"clipboard"`
	Library       LibraryConfig   `yaml:"library"`
	Logging       LoggingConfig   `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor: EditorConfig{
			BindingThreshold: 15,
			LoopCloseEpsilon: 15,
			FontSize:         20,
			LineHeight:       1.25,
			UndoMaxBytes:     16 * 1024 * 1024,
			UndoMaxDepth:     100,
			UndoCoalesceMs:   0,
		},
		Clipboard: ClipboardConfig{UseSystem: true},
		Library:   LibraryConfig{DBPath: "", PublishURL: "", TimeoutMs: 15000},
		Logging:   LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvBindingThreshold = "SKETCH_BINDING_THRESHOLD"
	EnvUseSystemClip    = "SKETCH_CLIPBOARD_SYSTEM"
	EnvLibraryDB        = "SKETCH_LIBRARY_DB"
	EnvLibraryURL       = "SKETCH_LIBRARY_URL"
	EnvLibraryTimeoutMs = "SKETCH_LIBRARY_TIMEOUT_MS"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "SKETCH_LOG_LEVEL"
	EnvLogFormat = "SKETCH_LOG_FORMAT"
	EnvLogSource = "SKETCH_LOG_SOURCE"
	EnvLogFile   = "SKETCH_LOG_FILE"
	// EnvConfigFile points Load/Save at an explicit file instead of the user scope.
	EnvConfigFile = "SKETCH_CONFIG"
)

// Service/keys for OS keyring.
const (
	keyringService = "Sketchcore"
	keyringToken   = "library_publish_token"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Sketchcore")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Sketchcore")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "sketchcore")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// It also loads the library publish token from keyring (returned separately).
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

// ForgetToken removes the library publish token from the keyring.
func ForgetToken() error {
	err := tokenStore.Delete(keyringService, keyringToken)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	e := src.Editor
	if e.BindingThreshold > 0 {
		dst.Editor.BindingThreshold = e.BindingThreshold
	}
	if e.LoopCloseEpsilon > 0 {
		dst.Editor.LoopCloseEpsilon = e.LoopCloseEpsilon
	}
	if e.FontSize > 0 {
		dst.Editor.FontSize = e.FontSize
	}
	if e.LineHeight > 0 {
		dst.Editor.LineHeight = e.LineHeight
	}
	if e.UndoMaxBytes > 0 {
		dst.Editor.UndoMaxBytes = e.UndoMaxBytes
	}
	if e.UndoMaxDepth > 0 {
		dst.Editor.UndoMaxDepth = e.UndoMaxDepth
	}
	if e.UndoCoalesceMs > 0 {
		dst.Editor.UndoCoalesceMs = e.UndoCoalesceMs
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Clipboard.UseSystem = src.Clipboard.UseSystem
	if strings.TrimSpace(src.Library.DBPath) != "" {
		dst.Library.DBPath = strings.TrimSpace(src.Library.DBPath)
	}
	if strings.TrimSpace(src.Library.PublishURL) != "" {
		dst.Library.PublishURL = strings.TrimSpace(src.Library.PublishURL)
	}
	if src.Library.TimeoutMs != 0 {
		dst.Library.TimeoutMs = src.Library.TimeoutMs
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvBindingThreshold)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Editor.BindingThreshold = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvUseSystemClip)); v != "" {
		cfg.Clipboard.UseSystem = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLibraryDB)); v != "" {
		cfg.Library.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLibraryURL)); v != "" {
		cfg.Library.PublishURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLibraryTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Library.TimeoutMs = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env := map[string]string{
		"editor.binding_threshold": EnvBindingThreshold,
		"clipboard.use_system":     EnvUseSystemClip,
		"library.db_path":          EnvLibraryDB,
		"library.publish_url":      EnvLibraryURL,
		"library.timeout_ms":       EnvLibraryTimeoutMs,
		"logging.level":            EnvLogLevel,
		"logging.format":           EnvLogFormat,
		"logging.source":           EnvLogSource,
		"logging.file":             EnvLogFile,
	}[key]
	if env != "" && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// Timeout returns the library HTTP timeout, falling back to the default.
func (l LibraryConfig) Timeout() time.Duration {
	if l.TimeoutMs <= 0 {
		return time.Duration(Defaults().Library.TimeoutMs) * time.Millisecond
	}
	return time.Duration(l.TimeoutMs) * time.Millisecond
}

// UndoCoalesce returns the undo coalescing window.
func (e EditorConfig) UndoCoalesce() time.Duration {
	return time.Duration(e.UndoCoalesceMs) * time.Millisecond
}
