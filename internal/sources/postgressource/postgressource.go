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

// Package postgressource backs a native "postgres" DataSource kind on top
// of pgx, the future-RDBMS-adapter slot the design notes gesture at.
package postgressource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/wirednil/noctra-sub000/internal/sources"
	"github.com/wirednil/noctra-sub000/internal/util"
	"github.com/wirednil/noctra-sub000/internal/value"
)

const SourceKind = "postgres"

func init() {
	if !sources.Register(SourceKind, newConfig) {
		panic("postgressource: source kind already registered")
	}
}

// Config is the OPTIONS-decoded configuration for one postgres connection.
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
	actual := Config{Name: name, Port: "5432"}
	if err := sources.DecodeOptions(ctx, options, &actual); err != nil {
		return nil, err
	}
	return actual, nil
}

func (c Config) SourceConfigKind() string { return SourceKind }

func (c Config) Initialize(ctx context.Context, tracer trace.Tracer, name string) (sources.Source, error) {
	ctx, span := sources.InitConnectionSpan(ctx, tracer, SourceKind, name)
	defer span.End()

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", c.User, c.Password, c.Host, c.Port, c.Database)
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, util.NewBackendUnavailable("parsing postgres dsn", err)
	}
	poolConfig.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, util.NewBackendUnavailable("connecting to postgres", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, util.NewBackendUnavailable("pinging postgres", err)
	}

	return &Source{name: name, host: c.Host, database: c.Database, pool: pool}, nil
}

// Source is a native postgres DataSource.
type Source struct {
	name     string
	host     string
	database string
	pool     *pgxpool.Pool
}

var _ sources.Source = (*Source)(nil)

func (s *Source) Query(ctx context.Context, sqlText string, params value.Parameters) (value.ResultSet, error) {
	args := positionalArgs(sqlText, params)

	rows, err := s.pool.Query(ctx, sqlText, args...)
	if err != nil {
		return value.ResultSet{}, util.NewQueryFailed("executing query", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]value.Column, len(fields))
	for i, f := range fields {
		columns[i] = value.Column{Name: string(f.Name), DeclaredType: "UNKNOWN", Ordinal: i}
	}
	rs := value.New(columns)

	for rows.Next() {
		raw, err := rows.Values()
		if err != nil {
			return value.ResultSet{}, util.NewQueryFailed("scanning row", err)
		}
		vals := make([]value.Value, len(raw))
		for i, cell := range raw {
			vals[i] = cellToValue(cell)
		}
		rs.AddRow(value.Row{Values: vals})
	}
	return rs, rows.Err()
}

func positionalArgs(sqlText string, params value.Parameters) []any {
	max := 0
	for i := 1; i <= 64; i++ {
		if !strings.Contains(sqlText, fmt.Sprintf("$%d", i)) {
			break
		}
		max = i
	}
	args := make([]any, max)
	for i := 1; i <= max; i++ {
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

func cellToValue(cell any) value.Value {
	switch v := cell.(type) {
	case nil:
		return value.Null()
	case int64:
		return value.Integer(v)
	case int32:
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

func (s *Source) Schema(ctx context.Context) ([]sources.TableInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT table_name, column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = 'public'
		ORDER BY table_name, ordinal_position`)
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
	return sources.SourceType{Name: sources.TypePostgres, Path: s.host + "/" + s.database}
}

func (s *Source) Name() string { return s.name }

func (s *Source) Close() error {
	s.pool.Close()
	return nil
}
