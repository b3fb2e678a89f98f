// Copyright 2026 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sources defines the capability contract every backend implements
// (Source), the registry of named instances of it (Registry), and the
// kind-keyed config-factory registration pattern concrete adapters
// (analytical, sqlite, postgres, mysql) register themselves under.
package sources

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wirednil/noctra-sub000/internal/util"
	"github.com/wirednil/noctra-sub000/internal/value"
)

// TypeName is one of the stable identifiers surfaced in SHOW SOURCES.
type TypeName string

const (
	TypeSQLite     TypeName = "sqlite"
	TypeCSV        TypeName = "csv"
	TypeJSON       TypeName = "json"
	TypeParquet    TypeName = "parquet"
	TypeMemory     TypeName = "memory"
	TypeAnalytical TypeName = "analytical"
	TypePostgres   TypeName = "postgres"
	TypeMySQL      TypeName = "mysql"
)

// SourceType identifies a source's concrete kind for diagnostics and
// SHOW SOURCES. Only the fields matching TypeName are meaningful.
type SourceType struct {
	Name      TypeName
	Path      string
	Delimiter rune
	HasHeader bool
	Encoding  string
	Capacity  int
}

// DisplayPath is the Path column in SHOW SOURCES output: the file path for
// file-backed sources, "(in-memory)" for Memory, and "host/database" for
// network backends.
func (t SourceType) DisplayPath() string {
	if t.Name == TypeMemory && t.Path == "" {
		return "(in-memory)"
	}
	return t.Path
}

// ColumnInfo describes one column of a table reported by Source.Schema.
type ColumnInfo struct {
	Name         string
	DataType     string // uppercased SQL type
	Nullable     bool
	DefaultValue *string
}

// TableInfo describes one table a source exposes.
type TableInfo struct {
	Name     string
	Columns  []ColumnInfo
	RowCount *int
}

// Source is the capability contract every backend — file scanner, analytical
// engine, native RDBMS adapter — must satisfy. The executor holds a
// collection of sources of different concrete types behind this one
// interface, occasionally downcasting (via a Go type assertion against a
// narrower capability interface, e.g. FileRegisterer) to reach
// backend-specific operations like file-view registration or attachment.
type Source interface {
	// Query executes one SQL statement and returns its result.
	Query(ctx context.Context, sql string, params value.Parameters) (value.ResultSet, error)
	// Schema enumerates the tables this source currently exposes.
	Schema(ctx context.Context) ([]TableInfo, error)
	// SourceType identifies this source for diagnostics and SHOW SOURCES.
	SourceType() SourceType
	// Name is the stable identifier the source was registered under. For the
	// analytical adapter this is always the literal "analytical" regardless
	// of the user-chosen alias.
	Name() string
	// Close releases any held connections, file handles, or cached statements.
	Close() error
}

// FileRegisterer is the escape-hatch capability only the analytical adapter
// supports: registering a file path as a queryable view under an alias.
type FileRegisterer interface {
	RegisterFile(ctx context.Context, path, alias string) error
}

// SqliteAttacher is the escape-hatch capability only the analytical adapter
// supports: attaching a foreign SQLite database for cross-source joins.
type SqliteAttacher interface {
	AttachSqlite(ctx context.Context, path, alias string) error
	RestoreAttachments(ctx context.Context) error
}

// Config is the kind-tagged configuration a concrete adapter decodes from an
// XQL OPTIONS(...) clause (or, for the analytical backend, a preset) and
// turns into a live Source.
type Config interface {
	SourceConfigKind() string
	Initialize(ctx context.Context, tracer trace.Tracer, name string) (Source, error)
}

// ConfigFactory builds a kind-specific Config from a raw OPTIONS map.
type ConfigFactory func(ctx context.Context, name string, options map[string]string) (Config, error)

var registry = make(map[string]ConfigFactory)

// Register associates kind with factory. Adapters call this from their
// package init(); registering a duplicate kind returns false so the caller
// can panic with its own message.
func Register(kind string, factory ConfigFactory) bool {
	if _, exists := registry[kind]; exists {
		return false
	}
	registry[kind] = factory
	return true
}

// DecodeConfig looks up kind's factory and builds a Config from options.
func DecodeConfig(ctx context.Context, kind, name string, options map[string]string) (Config, error) {
	factory, ok := registry[kind]
	if !ok {
		return nil, util.NewUnknownSourceKind(kind)
	}
	return factory(ctx, name, options)
}

// InitConnectionSpan starts a span recording the connection attempt a source
// adapter's Initialize makes.
func InitConnectionSpan(ctx context.Context, tracer trace.Tracer, kind, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, fmt.Sprintf("sources/%s/initialize", kind),
		trace.WithAttributes(
			attribute.String("source.kind", kind),
			attribute.String("source.name", name),
		))
}
