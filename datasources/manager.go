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

package datasources

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/google/gridcore/core/config"
	"github.com/google/gridcore/core/logger"
)

// Source names a data source and the loader options it is read with.
type Source struct {
	Name    string            `yaml:"name"`
	Type    string            `yaml:"type"`
	Title   string            `yaml:"title,omitempty"`
	Options map[string]string `yaml:"options,omitempty"`
	// Columns override the derived definition of the fields they name.
	Columns []config.Column `yaml:"columns,omitempty"`
}

// SourcesConfig is the YAML document LoadConfig reads.
type SourcesConfig struct {
	Sources []Source `yaml:"sources"`
}

// Manager handles loading and caching of data sources.
// Source definitions are registered eagerly; data is loaded lazily on demand.
type Manager struct {
	mu sync.RWMutex

	// Source definitions indexed by name
	sources map[string]*Source
	// Cached rows indexed by source name, populated lazily
	data map[string][]map[string]any
	// Registered loaders indexed by source type
	loaders map[string]Loader

	fs  afs.Service
	log logger.Logger
}

// NewManager creates a manager with the csv, proto and arrow loaders
// registered.
func NewManager(log logger.Logger) *Manager {
	fs := afs.New()
	m := &Manager{
		sources: make(map[string]*Source),
		data:    make(map[string][]map[string]any),
		loaders: make(map[string]Loader),
		fs:      fs,
		log:     logger.OrDefault(log),
	}
	m.RegisterLoader(NewCsvLoader(fs))
	m.RegisterLoader(NewProtoLoader(fs))
	m.RegisterLoader(NewArrowLoader(fs))
	return m
}

// RegisterLoader registers a loader for its source type, replacing any
// loader already registered for that type.
func (m *Manager) RegisterLoader(loader Loader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaders[loader.SourceType()] = loader
}

// LoadConfig reads source definitions from a YAML document at URL.
func (m *Manager) LoadConfig(ctx context.Context, URL string) error {
	data, err := m.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := &SourcesConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	for _, src := range cfg.Sources {
		m.AddSource(src)
	}
	m.log.Info("data sources registered", "url", URL, "count", len(cfg.Sources))
	return nil
}

// AddSource registers a source definition. Cached data of a source with the
// same name is dropped.
func (m *Manager) AddSource(src Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[src.Name] = &src
	delete(m.data, src.Name)
}

// GetSource returns the definition of a source.
func (m *Manager) GetSource(name string) (Source, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src, ok := m.sources[name]
	if !ok {
		return Source{}, false
	}
	return *src, true
}

// GetSourceNames returns all registered source names, sorted.
func (m *Manager) GetSourceNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.sources))
	for name := range m.sources {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsLoaded reports whether the rows of a source are cached.
func (m *Manager) IsLoaded(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[name]
	return ok
}

func (m *Manager) lookup(name string) (*Source, Loader, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src, ok := m.sources[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	loader, ok := m.loaders[src.Type]
	if !ok {
		return nil, nil, fmt.Errorf("%w for source type %q", ErrNoLoader, src.Type)
	}
	return src, loader, nil
}

// LoadData returns the rows of a source, loading them on first use.
func (m *Manager) LoadData(ctx context.Context, name string) ([]map[string]any, error) {
	m.mu.RLock()
	rows, ok := m.data[name]
	m.mu.RUnlock()
	if ok {
		return rows, nil
	}

	src, loader, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	rows, err = loader.Load(ctx, src.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to load source %q: %w", name, err)
	}
	m.log.Info("data source loaded", "name", name, "type", src.Type, "rows", len(rows))

	m.mu.Lock()
	m.data[name] = rows
	m.mu.Unlock()
	return rows, nil
}

// Invalidate drops the cached rows of a source.
func (m *Manager) Invalidate(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, name)
}

// GridConfig derives a grid definition for a source from its discovered
// schema and the column overrides of its definition.
func (m *Manager) GridConfig(ctx context.Context, name string) (*config.Grid, error) {
	src, loader, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	schema, err := loader.DiscoverSchema(ctx, src.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to discover schema of %q: %w", name, err)
	}
	title := src.Title
	if title == "" {
		title = src.Name
	}
	return config.New(config.WithTitle(title), config.WithColumns(GridColumns(schema, src.Columns)...))
}
