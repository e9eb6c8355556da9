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

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/safehtml"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/gridcore/core/grid"
	"github.com/google/gridcore/core/logger"
	"github.com/google/gridcore/core/query"
	"github.com/google/gridcore/core/rendering"
	"github.com/google/gridcore/core/rows"
	"github.com/google/gridcore/core/views"
)

// DefaultWidth is the pixel width HTML grids are laid out for.
const DefaultWidth = 1200

// Server serves the grids of a registry as HTML pages and JSON rows.
type Server struct {
	// Requests are serialised: a request applies its query to the shared grid
	// before reading the view back.
	mu sync.Mutex

	registry *grid.Registry
	renderer *rendering.GridRenderer
	log      logger.Logger

	Title string
	Width int
}

// NewServer creates a server for the grids of registry
func NewServer(registry *grid.Registry, log logger.Logger) (*Server, error) {
	renderer, err := rendering.NewGridRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	return &Server{
		registry: registry,
		renderer: renderer,
		log:      logger.OrDefault(log),
		Title:    "Grids",
		Width:    DefaultWidth,
	}, nil
}

// HandlerResult represents the result of handling a request
type HandlerResult struct {
	Error      error
	StatusCode int
	Message    string
}

// TimingCollector collects timing measurements for the steps of a request
type TimingCollector struct {
	steps []any
	start time.Time
}

func NewTimingCollector() *TimingCollector {
	return &TimingCollector{start: time.Now()}
}

// Record records the duration of one step
func (tc *TimingCollector) Record(step string, d time.Duration) {
	tc.steps = append(tc.steps, step, d)
}

// Log writes the collected steps and the total as one debug record
func (tc *TimingCollector) Log(log logger.Logger, msg string, args ...any) {
	args = append(args, tc.steps...)
	args = append(args, "total", time.Since(tc.start))
	log.Debug(msg, args...)
}

// lookup finds the grid a query names
func (s *Server) lookup(q *query.Query) (*grid.Service, *HandlerResult) {
	if q.Grid == "" {
		return nil, &HandlerResult{StatusCode: http.StatusBadRequest, Message: "grid parameter is required"}
	}
	g, ok := s.registry.Get(q.Grid)
	if !ok {
		return nil, &HandlerResult{StatusCode: http.StatusNotFound, Message: fmt.Sprintf("grid '%s' not found", q.Grid)}
	}
	return g, nil
}

// prepare applies a query to a grid and, for delegated grids, fetches the data
// the query calls for. Problems that still leave a usable view come back as
// alerts.
func (s *Server) prepare(ctx context.Context, g *grid.Service, q *query.Query, timing *TimingCollector) []string {
	var alerts []string
	unsubscribe := g.Alerts.Subscribe(func(msg string) { alerts = append(alerts, msg) })
	defer unsubscribe()

	start := time.Now()
	if err := views.ApplyQuery(g, q); err != nil {
		alerts = append(alerts, err.Error())
	}
	timing.Record("apply", time.Since(start))

	if !g.Config().External() {
		return alerts
	}
	if _, pending := g.PendingRequest(); !pending {
		return alerts
	}
	start = time.Now()
	err := s.fetch(ctx, g, q)
	// The page count is only known once data arrived, so a page the query
	// names past the previous count is requested in a second round.
	if page := g.PageInfo(); err == nil && g.Config().ExternalPaging && q.Page != page.Page && q.Page < page.NumPages {
		g.GoToPage(q.Page)
		s.fetch(ctx, g, q)
	}
	timing.Record("external", time.Since(start))
	return alerts
}

func (s *Server) fetch(ctx context.Context, g *grid.Service, q *query.Query) error {
	err := g.RequestExternal(ctx)
	if err != nil && !errors.Is(err, grid.ErrStaleExternal) {
		// RequestExternal already published the failure as an alert.
		s.log.Warn("external request failed", "grid", q.Grid, "error", err)
		return err
	}
	return nil
}

// HandleGridRequest renders one grid as HTML
func (s *Server) HandleGridRequest(ctx context.Context, w io.Writer, requestURL *url.URL, setHeader func(key, value string)) *HandlerResult {
	timing := NewTimingCollector()
	q := query.NewQuery(requestURL)
	g, res := s.lookup(q)
	if res != nil {
		return res
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	alerts := s.prepare(ctx, g, q, timing)

	start := time.Now()
	vm := views.BuildGridViewModel(g, q, s.Width, nil)
	vm.Alerts = alerts
	timing.Record("view model", time.Since(start))

	setHeader("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(w, vm); err != nil {
		s.log.Error("template rendering error", "grid", q.Grid, "error", err)
		return &HandlerResult{Error: err}
	}
	timing.Log(s.log, "grid request", "grid", q.Grid, "rows", len(vm.Rows))
	return nil
}

// HandleLandingRequest renders the list of grids
func (s *Server) HandleLandingRequest(w io.Writer, setHeader func(key, value string)) error {
	vm := views.LandingViewModel{Title: s.Title}
	for _, id := range s.registry.IDs() {
		g, _ := s.registry.Get(id)
		title := g.Config().Title
		if title == "" {
			title = id
		}
		vm.Grids = append(vm.Grids, views.GridLink{
			Name:  id,
			Title: title,
			URL:   safehtml.URLSanitized("/grid?grid=" + url.QueryEscape(id)),
		})
	}

	setHeader("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.RenderLanding(w, vm); err != nil {
		s.log.Error("landing page rendering error", "error", err)
		return err
	}
	return nil
}

// HandleRowsRequest answers with the data rows of the current page as JSON:
// {"grid", "page": {...}, "rows": [{field: value}], "alerts": [...]}.
// It takes the same parameters as the HTML page.
func (s *Server) HandleRowsRequest(ctx context.Context, w io.Writer, requestURL *url.URL, setHeader func(key, value string)) *HandlerResult {
	timing := NewTimingCollector()
	q := query.NewQuery(requestURL)
	g, res := s.lookup(q)
	if res != nil {
		return res
	}

	s.mu.Lock()
	alerts := s.prepare(ctx, g, q, timing)
	fields := g.Fields()
	var data []any
	for _, r := range g.View() {
		if r.HasHeader() || !r.Visible {
			continue
		}
		data = append(data, rowRecord(r, fields))
	}
	page := g.PageInfo()
	s.mu.Unlock()

	alertList := make([]any, len(alerts))
	for i, a := range alerts {
		alertList[i] = a
	}
	body, err := structpb.NewStruct(map[string]any{
		"grid": q.Grid,
		"page": map[string]any{
			"page":     page.Page,
			"pageSize": page.PageSize,
			"dataSize": page.DataSize,
			"numPages": page.NumPages,
		},
		"rows":   data,
		"alerts": alertList,
	})
	if err != nil {
		return &HandlerResult{StatusCode: http.StatusInternalServerError, Message: err.Error(), Error: err}
	}
	out, err := protojson.Marshal(body)
	if err != nil {
		return &HandlerResult{StatusCode: http.StatusInternalServerError, Message: err.Error(), Error: err}
	}
	setHeader("Content-Type", "application/json")
	if _, err := w.Write(out); err != nil {
		return &HandlerResult{Error: err}
	}
	timing.Log(s.log, "rows request", "grid", q.Grid, "rows", len(data))
	return nil
}

// rowRecord converts a row into a value structpb accepts
func rowRecord(r *rows.Row, fields []string) map[string]any {
	rec := make(map[string]any, len(fields))
	for j, f := range fields {
		switch v := r.Value(j).(type) {
		case nil, bool, string, float64, float32, int, int32, int64, uint32, uint64:
			rec[f] = v
		default:
			rec[f] = fmt.Sprint(v)
		}
	}
	return rec
}

// HandleEditRequest commits one cell edit: grid, row (view index), field and
// value. The answer reports whether the value was accepted.
func (s *Server) HandleEditRequest(w io.Writer, form url.Values, setHeader func(key, value string)) *HandlerResult {
	g, res := s.lookup(&query.Query{Grid: form.Get("grid")})
	if res != nil {
		return res
	}
	i, err := strconv.Atoi(form.Get("row"))
	if err != nil {
		return &HandlerResult{StatusCode: http.StatusBadRequest, Message: "row must be a number"}
	}
	_, j, ok := g.Column(form.Get("field"))
	if !ok {
		return &HandlerResult{StatusCode: http.StatusBadRequest, Message: fmt.Sprintf("unknown field '%s'", form.Get("field"))}
	}

	s.mu.Lock()
	result := g.CommitEdit(rows.Point{I: i, J: j}, form.Get("value"))
	dirty := len(g.DirtyRows())
	s.mu.Unlock()

	answer := map[string]any{"valid": result.Valid, "dirtyRows": dirty}
	if result.Err != nil {
		answer["error"] = result.Err.Error()
	}
	body, err := structpb.NewStruct(answer)
	if err != nil {
		return &HandlerResult{StatusCode: http.StatusInternalServerError, Message: err.Error(), Error: err}
	}
	out, err := protojson.Marshal(body)
	if err != nil {
		return &HandlerResult{StatusCode: http.StatusInternalServerError, Message: err.Error(), Error: err}
	}
	setHeader("Content-Type", "application/json")
	if _, err := w.Write(out); err != nil {
		return &HandlerResult{Error: err}
	}
	return nil
}

// Handler routes "/", "/grid", "/api/rows" and "/api/edit"
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/grid", func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, s.HandleGridRequest(r.Context(), w, r.URL, w.Header().Set))
	})
	mux.HandleFunc("/api/rows", func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, s.HandleRowsRequest(r.Context(), w, r.URL, w.Header().Set))
	})
	mux.HandleFunc("/api/edit", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeResult(w, s.HandleEditRequest(w, r.PostForm, w.Header().Set))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		// Errors are logged by the handler; the response may be partly written.
		_ = s.HandleLandingRequest(w, w.Header().Set)
	})
	return mux
}

// writeResult turns a failed HandlerResult into an HTTP error. Results that
// only carry an Error happened after the response started and are dropped.
func writeResult(w http.ResponseWriter, res *HandlerResult) {
	if res == nil || res.StatusCode == 0 {
		return
	}
	http.Error(w, res.Message, res.StatusCode)
}
