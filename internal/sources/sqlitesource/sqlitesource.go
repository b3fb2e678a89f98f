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

// Package sqlitesource backs SourceType::SQLite with a native, pure-Go
// sqlite DataSource — a single-file relational source queried directly via
// database/sql, distinct from the analytical adapter's cross-database ATTACH.
package sqlitesource

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"

	"github.com/wirednil/noctra-sub000/internal/sources"
	"github.com/wirednil/noctra-sub000/internal/util"
	"github.com/wirednil/noctra-sub000/internal/value"
)

const SourceKind = "sqlite"

func init() {
	if !sources.Register(SourceKind, newConfig) {
		panic("sqlitesource: source kind already registered")
	}
}

// Config is the OPTIONS-decoded configuration for one sqlite file source.
type Config struct {
	Name string `yaml:"name" validate:"required"`
	Path string `yaml:"path" validate:"required"`
}

var _ sources.Config = Config{}

func newConfig(ctx context.Context, name string, options map[string]string) (sources.Config, error) {
	actual := Config{Name: name}
	if err := sources.DecodeOptions(ctx, options, &actual); err != nil {
		return nil, err
	}
	return actual, nil
}

func (c Config) SourceConfigKind() string { return SourceKind }

func (c Config) Initialize(ctx context.Context, tracer trace.Tracer, name string) (sources.Source, error) {
	ctx, span := sources.InitConnectionSpan(ctx, tracer, SourceKind, name)
	defer span.End()

	db, err := sql.Open("sqlite", c.Path)
	if err != nil {
		return nil, util.NewBackendUnavailable("opening sqlite database", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, util.NewBackendUnavailable("connecting to sqlite database", err)
	}

	return &Source{name: name, path: c.Path, db: db}, nil
}

// Source is a native sqlite DataSource.
type Source struct {
	name string
	path string
	db   *sql.DB
}

var _ sources.Source = (*Source)(nil)

func (s *Source) Query(ctx context.Context, sqlText string, params value.Parameters) (value.ResultSet, error) {
	args := bindPositional(sqlText, params)

	upper := strings.ToUpper(strings.TrimSpace(sqlText))
	if strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH") || strings.HasPrefix(upper, "PRAGMA") {
		rows, err := s.db.QueryContext(ctx, sqlText, args...)
		if err != nil {
			return value.ResultSet{}, util.NewQueryFailed("executing query", err)
		}
		defer rows.Close()
		return scanRows(rows)
	}

	result, err := s.db.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return value.ResultSet{}, util.NewQueryFailed("executing statement", err)
	}
	affected, _ := result.RowsAffected()
	lastID, _ := result.LastInsertId()
	u := uint64(affected)
	rs := value.Empty()
	rs.RowsAffected = &u
	rs.LastInsertRowID = &lastID
	return rs, nil
}

func bindPositional(sqlText string, params value.Parameters) []any {
	n := strings.Count(sqlText, "?")
	args := make([]any, 0, n)
	for i := 1; i <= n; i++ {
		key := "$" + strconv.Itoa(i)
		if v, ok := params[key]; ok {
			args = append(args, toDriverValue(v))
		} else {
			args = append(args, nil)
		}
	}
	return args
}

// toDriverValue hands numeric and boolean values to the driver in their
// native representation so comparisons against NONE-affinity columns match;
// everything else binds as its display string.
func toDriverValue(v value.Value) any {
	switch v.Kind {
	case value.KindNull:
		return nil
	case value.KindInteger:
		return v.I
	case value.KindFloat:
		return v.F
	case value.KindBoolean:
		return v.B
	default:
		return v.ToDisplayString()
	}
}

func scanRows(rows *sql.Rows) (value.ResultSet, error) {
	colNames, err := rows.Columns()
	if err != nil {
		return value.ResultSet{}, util.NewQueryFailed("reading column metadata", err)
	}
	columns := make([]value.Column, len(colNames))
	for i, name := range colNames {
		columns[i] = value.Column{Name: name, DeclaredType: "UNKNOWN", Ordinal: i}
	}
	rs := value.New(columns)

	buf := make([]any, len(colNames))
	for i := range buf {
		buf[i] = new(any)
	}
	for rows.Next() {
		if err := rows.Scan(buf...); err != nil {
			return value.ResultSet{}, util.NewQueryFailed("scanning row", err)
		}
		vals := make([]value.Value, len(buf))
		for i, cell := range buf {
			vals[i] = cellToValue(*(cell.(*any)))
		}
		rs.AddRow(value.Row{Values: vals})
	}
	return rs, rows.Err()
}

func cellToValue(cell any) value.Value {
	switch v := cell.(type) {
	case nil:
		return value.Null()
	case int64:
		return value.Integer(v)
	case float64:
		return value.Float(v)
	case bool:
		return value.Boolean(v)
	case []byte:
		return value.Text(string(v))
	case string:
		return value.Text(v)
	default:
		return value.Text("")
	}
}

func (s *Source) Schema(ctx context.Context) ([]sources.TableInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, util.NewQueryFailed("listing tables", err)
	}
	defer rows.Close()

	var infos []sources.TableInfo
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, util.NewQueryFailed("scanning table name", err)
		}
		names = append(names, n)
	}

	for _, name := range names {
		cols, err := s.tableColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, sources.TableInfo{Name: name, Columns: cols})
	}
	return infos, nil
}

func (s *Source) tableColumns(ctx context.Context, table string) ([]sources.ColumnInfo, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(table)+")")
	if err != nil {
		return nil, util.NewQueryFailed("reading table_info", err)
	}
	defer rows.Close()

	var cols []sources.ColumnInfo
	for rows.Next() {
		var cid int
		var name, dtype string
		var notnull int
		var dflt any
		var pk int
		if err := rows.Scan(&cid, &name, &dtype, &notnull, &dflt, &pk); err != nil {
			return nil, util.NewQueryFailed("scanning table_info row", err)
		}
		cols = append(cols, sources.ColumnInfo{
			Name:     name,
			DataType: strings.ToUpper(dtype),
			Nullable: notnull == 0,
		})
	}
	return cols, rows.Err()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (s *Source) SourceType() sources.SourceType {
	return sources.SourceType{Name: sources.TypeSQLite, Path: s.path}
}

func (s *Source) Name() string { return s.name }

func (s *Source) Close() error { return s.db.Close() }
