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

package demo

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/gridcore/core/config"
	"github.com/google/gridcore/core/grid"
	"github.com/google/gridcore/core/logger"
	"github.com/google/gridcore/datasources"
)

//go:embed data/people.yaml
var peopleYAML []byte

// Options tunes the demo. Zero values select defaults.
type Options struct {
	Logger logger.Logger
	// SourcesURL names a data sources YAML; each source becomes a grid.
	SourcesURL string
	NumPeople  int
	// NumExternal is the size of the SQLite table behind the "remote" grid.
	NumExternal int
}

// Demo holds the demo grids and the resources backing them.
type Demo struct {
	Registry *grid.Registry
	Sources  *datasources.Manager

	db  *sql.DB
	log logger.Logger
}

// variant is one grid built from the people definition
type variant struct {
	id   string
	opts []config.Option
}

var variants = []variant{
	{id: "people"},
	{id: "paging", opts: []config.Option{
		config.WithTitle("People (paged)"),
		config.WithPageSize(25, 10, 25, 50, 100),
	}},
	{id: "grouped", opts: []config.Option{
		config.WithTitle("People by gender"),
		config.WithGroupBy(false, "gender"),
	}},
}

// PeopleGrid parses the people definition and applies opts to it.
func PeopleGrid(opts ...config.Option) (*config.Grid, error) {
	g, err := config.Parse(peopleYAML)
	if err != nil {
		return nil, fmt.Errorf("people grid: %w", err)
	}
	for _, opt := range opts {
		opt(g)
	}
	g.ApplyDefaults()
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("people grid: %w", err)
	}
	return g, nil
}

// Setup creates the demo grids: local people grids in several
// configurations, a "remote" grid whose filtering, sorting and paging run in
// SQLite, and one grid per configured data source.
func Setup(ctx context.Context, opts Options) (*Demo, error) {
	log := logger.OrDefault(opts.Logger)
	if opts.NumPeople <= 0 {
		opts.NumPeople = NUM_PEOPLE
	}
	if opts.NumExternal <= 0 {
		opts.NumExternal = NUM_EXTERNAL_PEOPLE
	}

	d := &Demo{
		Registry: grid.NewRegistry(log),
		Sources:  datasources.NewManager(log),
		log:      log,
	}

	people := GeneratePeople(opts.NumPeople)
	for _, v := range variants {
		cfg, err := PeopleGrid(v.opts...)
		if err != nil {
			return nil, err
		}
		g := grid.New(cfg, grid.Options{Logger: log.With("grid", v.id)})
		g.SetInputData(people)
		if err := g.InitContext(ctx); err != nil {
			log.Warn("grid initialised with fallbacks", "grid", v.id, "error", err)
		}
		d.Registry.Register(v.id, g)
	}

	if err := d.setupRemote(ctx, opts.NumExternal); err != nil {
		d.Close()
		return nil, err
	}

	if opts.SourcesURL != "" {
		if err := d.setupSources(ctx, opts.SourcesURL); err != nil {
			d.Close()
			return nil, err
		}
	}

	log.Info("demo grids ready", "grids", d.Registry.IDs())
	return d, nil
}

func (d *Demo) setupRemote(ctx context.Context, n int) error {
	cfg, err := PeopleGrid(
		config.WithTitle("People (SQLite)"),
		config.WithExternal(true, true, true),
		config.WithPageSize(50, 25, 50, 100),
	)
	if err != nil {
		return err
	}

	db, err := datasources.OpenSQLite(ctx, ":memory:")
	if err != nil {
		return err
	}
	d.db = db

	src := datasources.NewSQLSource(db, "people", cfg, d.log)
	if err := src.Create(ctx); err != nil {
		return err
	}
	if err := src.Insert(ctx, GeneratePeople(n)); err != nil {
		return err
	}

	g := grid.New(cfg, grid.Options{Logger: d.log.With("grid", "remote"), OnExternalDataCall: src.Fetch})
	if err := g.InitContext(ctx); err != nil {
		d.log.Warn("grid initialised with fallbacks", "grid", "remote", "error", err)
	}
	d.Registry.Register("remote", g)
	return nil
}

func (d *Demo) setupSources(ctx context.Context, URL string) error {
	if err := d.Sources.LoadConfig(ctx, URL); err != nil {
		return err
	}
	for _, name := range d.Sources.GetSourceNames() {
		cfg, err := d.Sources.GridConfig(ctx, name)
		if err != nil {
			return err
		}
		data, err := d.Sources.LoadData(ctx, name)
		if err != nil {
			return err
		}
		g := grid.New(cfg, grid.Options{Logger: d.log.With("grid", name)})
		g.SetInputData(data)
		if err := g.InitContext(ctx); err != nil {
			d.log.Warn("grid initialised with fallbacks", "grid", name, "error", err)
		}
		d.Registry.Register(name, g)
	}
	return nil
}

// Close releases the SQLite database of the remote grid.
func (d *Demo) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}
