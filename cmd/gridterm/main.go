/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Taxinomia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command gridterm shows one demo grid in the terminal.
//
// Keys: arrows/Home/End/PgUp/PgDn move, Shift extends the selection, s sorts
// by the selected column, n/p change page, Enter or g toggles a group, space
// selects a row, c copies, v pastes, q quits.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/atotto/clipboard"
	"github.com/gdamore/tcell/v2"

	"github.com/google/gridcore/core/logger"
	"github.com/google/gridcore/core/rendering/terminal"
	"github.com/google/gridcore/demo"
)

// systemClipboard adapts the clipboard package to terminal.Clipboard
type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

func main() {
	gridID := flag.String("grid", "people", "demo grid to show")
	sources := flag.String("sources", "", "data sources YAML adding one grid per source")
	logPath := flag.String("log", "", "log file; logging is off when empty")
	level := flag.String("level", "info", "log level")
	flag.Parse()

	if err := run(*gridID, *sources, *logPath, *level); err != nil {
		log.Fatalf("gridterm: %v", err)
	}
}

func run(gridID, sources, logPath, level string) error {
	lvl, err := logger.ParseLevel(level)
	if err != nil {
		return err
	}
	var w io.Writer = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	lg := logger.New(logger.Options{Writer: w, Level: lvl})

	ctx := context.Background()
	d, err := demo.Setup(ctx, demo.Options{Logger: lg, SourcesURL: sources})
	if err != nil {
		return err
	}
	defer d.Close()

	g, ok := d.Registry.Get(gridID)
	if !ok {
		return fmt.Errorf("unknown grid %q, have %v", gridID, d.Registry.IDs())
	}
	c := terminal.NewController(g, systemClipboard{}, lg)
	if g.Config().External() {
		if err := g.RequestExternal(ctx); err != nil {
			lg.Error("initial external request failed", "error", err)
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()

	for {
		screen.Clear()
		c.Renderer.Draw(screen)
		screen.Show()

		ev := screen.PollEvent()
		if ev == nil {
			return nil
		}
		if _, ok := ev.(*tcell.EventResize); ok {
			screen.Sync()
			continue
		}
		if c.HandleEvent(ctx, ev) {
			return nil
		}
	}
}
