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

// Package analytical wraps a columnar SQL engine (DuckDB) as one Source
// among many: read_csv_auto/read_json_auto/read_parquet virtual tables, and
// a sqlite extension for cross-database ATTACH.
package analytical

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/wirednil/noctra-sub000/internal/sources"
	"github.com/wirednil/noctra-sub000/internal/sources/attachment"
	"github.com/wirednil/noctra-sub000/internal/util"
	"github.com/wirednil/noctra-sub000/internal/value"
)

// SourceKind is the stable identifier used by the kind-factory registry.
const SourceKind = "analytical"

// Source is the analytical backend adapter. Its name() is always the
// literal "analytical" regardless of the alias it is registered under,
// matching the contract every caller relies on when addressing it for
// file registration or attachment.
type Source struct {
	mu              sync.Mutex
	db              *sql.DB
	config          Config
	registeredFiles map[string]string // alias -> path
	attachments     *attachment.Registry
}

var (
	_ sources.Source         = (*Source)(nil)
	_ sources.FileRegisterer = (*Source)(nil)
	_ sources.SqliteAttacher = (*Source)(nil)
)

// NewInMemory opens an in-memory engine instance with default config.
func NewInMemory() (*Source, error) {
	return NewInMemoryWithConfig(Config{})
}

// NewInMemoryWithConfig opens an in-memory engine instance and applies config.
func NewInMemoryWithConfig(config Config) (*Source, error) {
	return open("", config)
}

// NewWithFile opens a persistent engine instance backed by path.
func NewWithFile(path string) (*Source, error) {
	return NewWithFileWithConfig(path, Config{})
}

// NewWithFileWithConfig opens a persistent engine instance backed by path
// and applies config.
func NewWithFileWithConfig(path string, config Config) (*Source, error) {
	return open(path, config)
}

func open(dsn string, config Config) (*Source, error) {
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, util.NewBackendUnavailable("opening analytical engine", err)
	}
	// The connection handle is mutex-guarded by this adapter, not pooled
	// concurrently, so a single underlying connection is enough.
	db.SetMaxOpenConns(1)

	for _, cmd := range config.ToSQLCommands() {
		if _, err := db.Exec(cmd); err != nil {
			db.Close()
			return nil, util.NewBackendUnavailable("applying analytical engine config", err)
		}
	}

	return &Source{
		db:              db,
		config:          config,
		registeredFiles: make(map[string]string),
		attachments:     attachment.NewRegistry(),
	}, nil
}

func (s *Source) Config() Config { return s.config }

func (s *Source) Attachments() *attachment.Registry { return s.attachments }

func (s *Source) RegisteredFiles() map[string]string {
	out := make(map[string]string, len(s.registeredFiles))
	for k, v := range s.registeredFiles {
		out[k] = v
	}
	return out
}

// RegisterFile detects the file format from path's extension and creates a
// view over it: read_csv_auto for .csv, read_json_auto for .json,
// read_parquet for .parquet. Any other extension is UnsupportedFileType.
func (s *Source) RegisterFile(ctx context.Context, path, alias string) error {
	ext := strings.ToLower(strings.TrimPrefix(extOf(path), "."))

	var fn string
	switch ext {
	case "csv":
		fn = "read_csv_auto"
	case "json":
		fn = "read_json_auto"
	case "parquet":
		fn = "read_parquet"
	default:
		return util.NewUnsupportedFileType(ext)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stmt := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM %s('%s')", alias, fn, path)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return util.NewQueryFailed("registering file view", err)
	}
	s.registeredFiles[alias] = path
	return nil
}

func extOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return path[idx:]
}

// AttachSqlite installs and loads the sqlite extension (installation is
// idempotent and its error is ignored; loading must succeed), issues
// ATTACH '<path>' AS <alias> (TYPE SQLITE), and records the attachment.
func (s *Source) AttachSqlite(ctx context.Context, path, alias string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.db.ExecContext(ctx, "INSTALL sqlite")
	if _, err := s.db.ExecContext(ctx, "LOAD sqlite"); err != nil {
		return util.NewBackendUnavailable("loading sqlite extension", err)
	}

	stmt := fmt.Sprintf("ATTACH '%s' AS %s (TYPE SQLITE)", path, alias)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return util.NewQueryFailed("attaching sqlite database", err)
	}

	s.attachments.Register(attachment.Config{DbType: "sqlite", Path: path, Alias: alias})
	return nil
}

// RestoreAttachments re-issues every registered attachment's ATTACH
// statement, loading the sqlite extension first if any attachment needs it.
func (s *Source) RestoreAttachments(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	needsSqlite := false
	for _, cfg := range s.attachments.List() {
		if cfg.DbType == "sqlite" {
			needsSqlite = true
			break
		}
	}
	if needsSqlite {
		s.db.ExecContext(ctx, "INSTALL sqlite")
		if _, err := s.db.ExecContext(ctx, "LOAD sqlite"); err != nil {
			return util.NewBackendUnavailable("loading sqlite extension", err)
		}
	}

	for _, cmd := range s.attachments.ToSQLCommands() {
		if _, err := s.db.ExecContext(ctx, cmd); err != nil {
			return util.NewQueryFailed("restoring attachment", err)
		}
	}
	return nil
}

// Query executes sql with no parameters (C9 has already substituted session
// variables by the time a query reaches this adapter). Each column's
// declared type is reported as "UNKNOWN"; each row is built by probing
// Integer, then Float, then Boolean, then Text, falling back to Null.
func (s *Source) Query(ctx context.Context, sqlText string, _ value.Parameters) (value.ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return value.ResultSet{}, util.NewQueryFailed("executing query", err)
	}
	defer rows.Close()

	colNames, err := rows.Columns()
	if err != nil {
		return value.ResultSet{}, util.NewQueryFailed("reading column metadata", err)
	}

	columns := make([]value.Column, len(colNames))
	for i, name := range colNames {
		columns[i] = value.Column{Name: name, DeclaredType: "UNKNOWN", Ordinal: i}
	}
	rs := value.New(columns)

	scanBuf := make([]any, len(colNames))
	for i := range scanBuf {
		scanBuf[i] = new(any)
	}

	for rows.Next() {
		if err := rows.Scan(scanBuf...); err != nil {
			return value.ResultSet{}, util.NewQueryFailed("scanning row", err)
		}
		values := make([]value.Value, len(scanBuf))
		for i, cell := range scanBuf {
			values[i] = rowValue(*(cell.(*any)))
		}
		rs.AddRow(value.Row{Values: values})
	}
	if err := rows.Err(); err != nil {
		return value.ResultSet{}, util.NewQueryFailed("iterating rows", err)
	}

	return rs, nil
}

// rowValue probes a driver-returned cell in the order Integer, Float,
// Boolean, Text, falling back to Null if every conversion fails.
func rowValue(cell any) value.Value {
	switch v := cell.(type) {
	case nil:
		return value.Null()
	case int64:
		return value.Integer(v)
	case int:
		return value.Integer(int64(v))
	case float64:
		return value.Float(v)
	case float32:
		return value.Float(float64(v))
	case bool:
		return value.Boolean(v)
	case string:
		return value.Text(v)
	case []byte:
		return value.Text(string(v))
	default:
		return value.Text(fmt.Sprintf("%v", v))
	}
}

// Schema builds a TableInfo for each registered file view from
// information_schema.columns, ordered by ordinal_position. Row counts are
// not populated.
func (s *Source) Schema(ctx context.Context) ([]sources.TableInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]sources.TableInfo, 0, len(s.registeredFiles))
	for alias := range s.registeredFiles {
		cols, err := s.tableSchema(ctx, alias)
		if err != nil {
			return nil, err
		}
		infos = append(infos, sources.TableInfo{Name: alias, Columns: cols})
	}
	return infos, nil
}

func (s *Source) tableSchema(ctx context.Context, table string) ([]sources.ColumnInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_name = ?
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, util.NewQueryFailed("reading table schema", err)
	}
	defer rows.Close()

	var cols []sources.ColumnInfo
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, util.NewQueryFailed("scanning schema row", err)
		}
		cols = append(cols, sources.ColumnInfo{
			Name:     name,
			DataType: strings.ToUpper(dataType),
			Nullable: nullable == "YES",
		})
	}
	return cols, rows.Err()
}

// SourceType reports this adapter as an in-memory source; the analytical
// engine's own file is an implementation detail, not a user-chosen path.
func (s *Source) SourceType() sources.SourceType {
	return sources.SourceType{Name: sources.TypeAnalytical}
}

// Name is always the literal "analytical" regardless of the alias this
// adapter is registered under in the source registry.
func (s *Source) Name() string { return "analytical" }

func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
