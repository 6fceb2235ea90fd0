/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/storiny/web-sub007/internal/config"
	"github.com/storiny/web-sub007/internal/editor"
	"github.com/storiny/web-sub007/internal/library"
	"github.com/storiny/web-sub007/internal/storage"
)

func libraryPath(cfg config.AppConfig) (string, error) {
	if p := strings.TrimSpace(cfg.Library.DBPath); p != "" {
		return p, nil
	}
	cp, err := config.ConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(cp), "library.db"), nil
}

func runLibrary(args []string, cfg config.AppConfig, token string) error {
	if len(args) == 0 {
		return usagef("library requires a subcommand")
	}
	if args[0] == "token" {
		return runToken(args[1:], cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	path, err := libraryPath(cfg)
	if err != nil {
		return err
	}
	st, err := library.Open(ctx, path)
	if err != nil {
		return err
	}
	defer st.Close()

	switch args[0] {
	case "list":
		items, err := st.List(ctx)
		if err != nil {
			return err
		}
		for _, it := range items {
			name := it.Name
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Printf("%s  %-11s  %3d layers  %s  %s\n", it.ID, it.Status, len(it.Layers),
				time.UnixMilli(it.Created).Format(time.RFC3339), name)
		}
		fmt.Printf("%d item(s) in %s\n", len(items), path)
		return nil
	case "add":
		if len(args) != 2 {
			return usagef("library add requires <file>")
		}
		return addScene(ctx, args[1], cfg, st)
	case "export", "import":
		if len(args) != 2 {
			return usagef("library %s requires <zip>", args[0])
		}
		if args[0] == "export" {
			if err := library.ExportPack(ctx, st, args[1]); err != nil {
				return err
			}
			fmt.Println("Wrote", args[1])
			return nil
		}
		n, err := library.InstallPack(ctx, st, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Installed %d item(s)\n", n)
		return nil
	case "publish":
		res, err := library.PublishStore(ctx, library.NewClientFromConfig(cfg.Library, token), st)
		if err != nil {
			return err
		}
		fmt.Println("Published:", res.URL)
		return nil
	}
	return usagef("unknown library command %q", args[0])
}

// addScene stores every layer of a scene as one library item, going through
// an editor session the same way the addToLibrary shortcut does.
func addScene(ctx context.Context, path string, cfg config.AppConfig, st *library.Store) error {
	h, err := openScene(path, new(storage.SceneHandle))
	if err != nil {
		return err
	}
	e, err := editor.New(editor.Options{Config: cfg, Library: st})
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.LoadDocument(h.Doc); err != nil {
		return err
	}
	if err := e.Execute("selectAll", nil); err != nil {
		return err
	}
	if err := e.Execute("addToLibrary", nil); err != nil {
		return err
	}
	e.Wait()
	if msg := e.AppState().ErrorMessage; msg != "" {
		return errors.New(msg)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	fmt.Println("Added", path, "to the library")
	return nil
}

func runToken(args []string, cfg config.AppConfig) error {
	fs := pflag.NewFlagSet("token", pflag.ContinueOnError)
	forget := fs.Bool("forget", false, "remove the stored publish token")
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return usagef("library token: %v", err)
	}
	switch {
	case *forget && fs.NArg() == 0:
		if err := config.ForgetToken(); err != nil {
			return err
		}
		fmt.Println("Publish token removed")
		return nil
	case !*forget && fs.NArg() == 1 && strings.TrimSpace(fs.Arg(0)) != "":
		if err := config.Save(cfg, strings.TrimSpace(fs.Arg(0))); err != nil {
			return err
		}
		fmt.Println("Publish token stored in the OS keychain")
		return nil
	}
	return usagef("library token requires <value> or --forget")
}
