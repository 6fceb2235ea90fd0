/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// sketchcore inspects, validates and exports scene documents and manages the
// local shape library.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/storiny/web-sub007/internal/config"
	"github.com/storiny/web-sub007/internal/crash"
	applog "github.com/storiny/web-sub007/internal/log"
	"github.com/storiny/web-sub007/internal/storage"
	"github.com/storiny/web-sub007/internal/version"
)

// usageError makes main exit with code 2.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error { return usageError{fmt.Sprintf(format, args...)} }

func usage() {
	fmt.Println("Sketchcore")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  sketchcore version|-v|--version             Show version")
	fmt.Println("  sketchcore info <file>                       Print a summary of a scene")
	fmt.Println("  sketchcore validate <file>                   Check a scene against the document schema")
	fmt.Println("  sketchcore export <file> [flags]             Export a scene (see export --help)")
	fmt.Println("  sketchcore library list|add <file>|publish   Manage the local library")
	fmt.Println("  sketchcore library export|import <zip>       Share library items as a pack")
	fmt.Println("  sketchcore library token <value>|--forget    Store or drop the publish token")
}

func main() {
	cfg, token, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", cfgErr))
	}

	// filled in by commands that open a scene, so a panic can autosave it
	scene := new(storage.SceneHandle)
	defer crash.Recover(scene, nil)

	err := run(os.Args[1:], cfg, token, scene)
	if err == nil {
		return
	}
	var ue usageError
	if errors.As(err, &ue) {
		fmt.Println(ue.msg)
		usage()
		os.Exit(2)
	}
	l.Error("command failed", slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}

func run(args []string, cfg config.AppConfig, token string, scene *storage.SceneHandle) error {
	if len(args) == 0 {
		usage()
		return nil
	}
	applog.WithComponent("cli").Debug("start", slog.String("cmd", args[0]), slog.Int("args", len(args)))
	switch args[0] {
	case "version", "--version", "-v":
		fmt.Println("Sketchcore")
		fmt.Println(version.String())
		return nil
	case "info":
		return runInfo(args[1:], scene)
	case "validate":
		return runValidate(args[1:])
	case "export":
		return runExport(args[1:], scene)
	case "library":
		return runLibrary(args[1:], cfg, token)
	case "help", "-h", "--help":
		usage()
		return nil
	}
	return usagef("unknown command %q", args[0])
}

// openScene opens path and records it for crash autosave.
func openScene(path string, scene *storage.SceneHandle) (*storage.SceneHandle, error) {
	h, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	*scene = *h
	if h.Recovered {
		applog.WithComponent("cli").Warn("scene unreadable, loaded latest backup", slog.String("path", path))
	}
	return h, nil
}
