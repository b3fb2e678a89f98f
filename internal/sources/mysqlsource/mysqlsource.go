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

// Package mysqlsource backs a native "mysql" DataSource kind, the other
// half of the future-RDBMS-adapter slot the design notes gesture at.
package mysqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/otel/trace"

	"github.com/wirednil/noctra-sub000/internal/sources"
	"github.com/wirednil/noctra-sub000/internal/util"
	"github.com/wirednil/noctra-sub000/internal/value"
)

const SourceKind = "mysql"

func init() {
	if !sources.Register(SourceKind, newConfig) {
		panic("mysqlsource: source kind already registered")
	}
}

// Config is the OPTIONS-decoded configuration for one mysql connection.
type Config struct {
	Name     string `yaml:"name" validate:"required"`
	Host     string `yaml:"host" validate:"required"`
	Port     string `yaml:"port"`
	Database string `yaml:"database" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
}

var _ sources.Config = Config{}

func newConfig(ctx context.Context, name string, options map[string]string) (sources.Config, error) {
	actual := Config{Name: name, Port: "3306"}
	if err := sources.DecodeOptions(ctx, options, &actual); err != nil {
		return nil, err
	}
	return actual, nil
}

func (c Config) SourceConfigKind() string { return SourceKind }

func (c Config) Initialize(ctx context.Context, tracer trace.Tracer, name string) (sources.Source, error) {
	ctx, span := sources.InitConnectionSpan(ctx, tracer, SourceKind, name)
	defer span.End()

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", c.User, c.Password, c.Host, c.Port, c.Database)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, util.NewBackendUnavailable("opening mysql connection", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, util.NewBackendUnavailable("connecting to mysql", err)
	}

	return &Source{name: name, host: c.Host, database: c.Database, db: db}, nil
}

// Source is a native mysql DataSource.
type Source struct {
	name     string
	host     string
	database string
	db       *sql.DB
}

var _ sources.Source = (*Source)(nil)

func (s *Source) Query(ctx context.Context, sqlText string, params value.Parameters) (value.ResultSet, error) {
	args := positionalArgs(sqlText, params)

	upper := strings.ToUpper(strings.TrimSpace(sqlText))
	if strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH") || strings.HasPrefix(upper, "SHOW") {
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

func positionalArgs(sqlText string, params value.Parameters) []any {
	n := strings.Count(sqlText, "?")
	args := make([]any, n)
	for i := 1; i <= n; i++ {
		if v, ok := params[fmt.Sprintf("$%d", i)]; ok {
			args[i-1] = toDriverValue(v)
		}
	}
	return args
}

// toDriverValue hands numeric and boolean values to the driver in their
// native representation; everything else binds as its display string.
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
	case []byte:
		return value.Text(string(v))
	case string:
		return value.Text(v)
	default:
		return value.Text(fmt.Sprintf("%v", v))
	}
}

func (s *Source) Schema(ctx context.Context) ([]sources.TableInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT table_name, column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = ?
		ORDER BY table_name, ordinal_position`, s.database)
	if err != nil {
		return nil, util.NewQueryFailed("reading schema", err)
	}
	defer rows.Close()

	byTable := map[string][]sources.ColumnInfo{}
	var order []string
	for rows.Next() {
		var table, column, dataType, nullable string
		if err := rows.Scan(&table, &column, &dataType, &nullable); err != nil {
			return nil, util.NewQueryFailed("scanning schema row", err)
		}
		if _, ok := byTable[table]; !ok {
			order = append(order, table)
		}
		byTable[table] = append(byTable[table], sources.ColumnInfo{
			Name: column, DataType: strings.ToUpper(dataType), Nullable: nullable == "YES",
		})
	}

	infos := make([]sources.TableInfo, 0, len(order))
	for _, t := range order {
		infos = append(infos, sources.TableInfo{Name: t, Columns: byTable[t]})
	}
	return infos, rows.Err()
}

func (s *Source) SourceType() sources.SourceType {
	return sources.SourceType{Name: sources.TypeMySQL, Path: s.host + "/" + s.database}
}

func (s *Source) Name() string { return s.name }

func (s *Source) Close() error { return s.db.Close() }
