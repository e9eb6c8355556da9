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

// Package rendering turns grid view models into HTML pages. The page layout
// lives in the embedded templates; virtualization and column layout are in
// the viewport subpackage and the terminal front-end in terminal.
package rendering

import (
	"bytes"
	"embed"
	"fmt"
	"io"

	"github.com/google/safehtml/template"

	"github.com/google/gridcore/core/views"
)

const (
	gridPage    = "grid.html"
	landingPage = "landing.html"
)

//go:embed templates/*
var templateFS embed.FS

// GridRenderer executes the grid and landing page templates. Pages are
// rendered into a buffer first, so a failing template never leaves a half
// written page behind.
type GridRenderer struct {
	pages *template.Template
}

func NewGridRenderer() (*GridRenderer, error) {
	pages, err := template.New("pages").ParseFS(template.TrustedFSFromEmbed(templateFS), "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing page templates: %w", err)
	}
	for _, name := range []string{gridPage, landingPage} {
		if pages.Lookup(name) == nil {
			return nil, fmt.Errorf("page template %s is missing", name)
		}
	}
	return &GridRenderer{pages: pages}, nil
}

// Render writes the page of one grid.
func (r *GridRenderer) Render(w io.Writer, vm views.GridViewModel) error {
	return r.execute(w, gridPage, vm)
}

// RenderLanding writes the page listing the registered grids.
func (r *GridRenderer) RenderLanding(w io.Writer, vm views.LandingViewModel) error {
	return r.execute(w, landingPage, vm)
}

func (r *GridRenderer) execute(w io.Writer, page string, data any) error {
	var buf bytes.Buffer
	if err := r.pages.ExecuteTemplate(&buf, page, data); err != nil {
		return fmt.Errorf("rendering %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
