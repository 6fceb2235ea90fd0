/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/storiny/web-sub007/internal/domain"
	"github.com/storiny/web-sub007/internal/export"
	applog "github.com/storiny/web-sub007/internal/log"
	"github.com/storiny/web-sub007/internal/scene"
	"github.com/storiny/web-sub007/internal/storage"
)

func runInfo(args []string, sh *storage.SceneHandle) error {
	if len(args) != 1 {
		return usagef("info requires <file>")
	}
	h, err := openScene(args[0], sh)
	if err != nil {
		return err
	}
	live := export.Exportable(h.Doc.Layers)
	counts := map[domain.LayerType]int{}
	for _, l := range live {
		counts[l.Type]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)

	fmt.Printf("Scene: %s\n", h.Path)
	if h.Recovered {
		fmt.Println("Recovered: loaded from latest backup")
	}
	fmt.Printf("Layers: %d live, %d total\n", len(live), len(h.Doc.Layers))
	for _, t := range types {
		fmt.Printf("  %-10s %d\n", t, counts[domain.LayerType(t)])
	}
	if len(live) > 0 {
		b := scene.CommonBounds(live)
		fmt.Printf("Bounds: x=%.1f y=%.1f w=%.1f h=%.1f\n", b.X, b.Y, b.W, b.H)
	}
	fmt.Printf("Files: %d\n", len(h.Doc.Files))
	return nil
}

func runValidate(args []string) error {
	if len(args) != 1 {
		return usagef("validate requires <file>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	if err := storage.ValidateDocument(data); err != nil {
		return err
	}
	fmt.Println("OK:", args[0])
	return nil
}

func runExport(args []string, sh *storage.SceneHandle) error {
	fs := pflag.NewFlagSet("export", pflag.ContinueOnError)
	formats := fs.StringSliceP("format", "f", nil, "output formats: png, svg, pdf (repeatable)")
	preset := fs.String("preset", "", "export preset: web or print")
	out := fs.StringP("out", "o", ".", "output directory")
	base := fs.String("name", "", "output base name (default: scene file name)")
	padding := fs.Float64("padding", domain.DefaultExportPadding, "padding around the content in scene units")
	scale := fs.Float64("scale", 1, "pixel scale")
	dark := fs.Bool("dark", false, "export with dark mode")
	noBG := fs.Bool("no-background", false, "transparent background")
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return usagef("export: %v", err)
	}
	if fs.NArg() != 1 {
		return usagef("export requires <file>")
	}
	h, err := openScene(fs.Arg(0), sh)
	if err != nil {
		return err
	}

	var fmts []export.Format
	for _, f := range *formats {
		pf, err := export.ParseFormat(f)
		if err != nil {
			return usagef("export: %v", err)
		}
		fmts = append(fmts, pf)
	}
	if len(fmts) == 0 && *preset == "" {
		fmts = []export.Format{export.FormatPNG}
	}

	opt := export.FromAppState(h.Doc.AppStateOrDefault())
	if fs.Changed("padding") {
		opt.Padding = *padding
	}
	if fs.Changed("scale") {
		opt.Scale = *scale
	}
	if fs.Changed("dark") {
		opt.DarkMode = *dark
	}
	if *noBG {
		opt.Background = false
	}
	name := *base
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(h.Path), filepath.Ext(h.Path))
	}

	written, err := export.BatchExport(h.Doc.Layers, h.Doc.Files, export.BatchOptions{
		Preset:  export.PresetName(*preset),
		Formats: fmts,
		OutDir:  *out,
		Base:    name,
		Options: opt,
	})
	for _, p := range written {
		fmt.Println("Wrote", p)
	}
	if err != nil {
		return err
	}
	applog.WithComponent("cli").Info("export done", slog.Int("files", len(written)), slog.String("scene", h.Path))
	return nil
}
