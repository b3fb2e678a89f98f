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

package executor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/wirednil/noctra-sub000/internal/log"
	"github.com/wirednil/noctra-sub000/internal/session"
	"github.com/wirednil/noctra-sub000/internal/sources"
	"github.com/wirednil/noctra-sub000/internal/sources/analytical"
	"github.com/wirednil/noctra-sub000/internal/sources/csvsource"
	"github.com/wirednil/noctra-sub000/internal/template"
	"github.com/wirednil/noctra-sub000/internal/util"
	"github.com/wirednil/noctra-sub000/internal/value"
	"github.com/wirednil/noctra-sub000/internal/xql"
)

// analyticalAlias is the fixed registry key the analytical backend is always
// registered under, regardless of any user-chosen UseSource alias.
const analyticalAlias = "analytical"

// Executor is the single-threaded statement router: one executor drives one
// source registry and, through it, one backend at a time.
type Executor struct {
	registry *sources.Registry
	tracer   trace.Tracer
	logger   log.Logger
	config   Config
}

// New builds an Executor over registry, using tracer for every adapter it
// lazily constructs. A nil logger discards all records.
func New(registry *sources.Registry, tracer trace.Tracer, logger log.Logger, config Config) *Executor {
	if logger == nil {
		logger = log.Discard()
	}
	return &Executor{registry: registry, tracer: tracer, logger: logger, config: config}
}

// Config returns the configuration this executor was built with.
func (e *Executor) Config() Config { return e.config }

// RqlQuery pairs one SQL body with parameters already resolved for it,
// independent of whatever the session currently has bound.
type RqlQuery struct {
	SQL        string
	Parameters value.Parameters
}

// ExecuteRql substitutes session variables into the query's SQL via the
// template substitutor, merges the query's parameters over the session's own
// parameter bag, and hands the result to the active source.
func (e *Executor) ExecuteRql(ctx context.Context, sess *session.Session, query RqlQuery) (value.ResultSet, error) {
	processed := template.Substitute(query.SQL, sess.ListVariables())

	merged := make(value.Parameters, len(sess.ListParameters())+len(query.Parameters))
	for k, v := range sess.ListParameters() {
		merged[k] = v
	}
	for k, v := range query.Parameters {
		merged[k] = v
	}

	active, ok := e.registry.Active()
	if !ok {
		return value.ResultSet{}, util.NewSourceNotFound("(none active)")
	}

	if e.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.QueryTimeout)
		defer cancel()
	}

	e.logger.DebugContext(ctx, "executing sql", "source", active.Name(), "sql", processed)
	result, err := active.Query(ctx, processed, merged)
	if err != nil {
		e.logger.ErrorContext(ctx, "query failed", "source", active.Name(), "error", err)
		return value.ResultSet{}, err
	}
	if e.config.DebugMode {
		e.logger.DebugContext(ctx, "query complete", "source", active.Name(),
			"rows", result.RowCount(), "parameters", len(merged))
	}
	if e.config.RowLimit != nil && len(result.Rows) > *e.config.RowLimit {
		result.Rows = result.Rows[:*e.config.RowLimit]
	}
	return result, nil
}

// ExecuteSql is ExecuteRql using the session's current parameter bag and no
// additional parameters.
func (e *Executor) ExecuteSql(ctx context.Context, sess *session.Session, sqlText string) (value.ResultSet, error) {
	return e.ExecuteRql(ctx, sess, RqlQuery{SQL: sqlText})
}

// ExecuteStatement is the write-variant entry point; the active Source's
// Query implementation decides internally whether sqlText is a read or a
// write, so this is identical to ExecuteSql.
func (e *Executor) ExecuteStatement(ctx context.Context, sess *session.Session, sqlText string) (value.ResultSet, error) {
	return e.ExecuteSql(ctx, sess, sqlText)
}

// Dispatch routes one parsed Statement to its handler, in the order laid
// out for the statement-dispatch table: Sql goes to the active source after
// session-variable substitution, lifecycle/session/diagnostic statements are
// handled directly,
// and transform verbs and forwarded commands are accepted but not executed.
func (e *Executor) Dispatch(ctx context.Context, sess *session.Session, stmt xql.Statement) (value.ResultSet, error) {
	switch stmt.Kind {
	case xql.StmtSql:
		return e.ExecuteSql(ctx, sess, stmt.Text)
	case xql.StmtUse:
		sess.SetDefaultSchema(stmt.Schema)
		return value.Empty(), nil
	case xql.StmtUseSource:
		return e.useSource(ctx, stmt)
	case xql.StmtAttach:
		return e.attach(ctx, stmt)
	case xql.StmtDetach:
		return e.detach(ctx, stmt)
	case xql.StmtShowSources:
		return e.showSources(), nil
	case xql.StmtShowTables:
		return e.showTables(ctx, stmt)
	case xql.StmtShowVars:
		return e.showVars(sess), nil
	case xql.StmtDescribe:
		return e.describe(ctx, stmt)
	case xql.StmtLet:
		sess.SetVariable(stmt.Variable, parseLiteral(stmt.Expression))
		return value.Empty(), nil
	case xql.StmtUnset:
		for _, v := range stmt.Variables {
			sess.RemoveVariable(v)
		}
		return value.Empty(), nil
	case xql.StmtImport:
		return e.importFile(ctx, stmt)
	case xql.StmtExport:
		return e.exportFile(ctx, stmt)
	case xql.StmtMap, xql.StmtFilter:
		return diagnosticResultSet("transformations are staged for a future pipeline"), nil
	case xql.StmtFormLoad, xql.StmtExecForm, xql.StmtOutputTo:
		return value.Empty(), nil
	default:
		return value.ResultSet{}, util.NewUnknownCommand(stmt.Kind.String())
	}
}

func diagnosticResultSet(msg string) value.ResultSet {
	rs := value.New([]value.Column{{Name: "Notice", DeclaredType: "TEXT", Ordinal: 0}})
	rs.AddRow(value.Row{Values: []value.Value{value.Text(msg)}})
	return rs
}

// parseLiteral converts a LET statement's raw expression text into a Value:
// a single- or double-quoted literal becomes Text, else an integer, float,
// or boolean literal is recognized, falling back to raw Text.
func parseLiteral(expr string) value.Value {
	expr = strings.TrimSpace(expr)
	if len(expr) >= 2 {
		if (expr[0] == '\'' && expr[len(expr)-1] == '\'') || (expr[0] == '"' && expr[len(expr)-1] == '"') {
			return value.Text(expr[1 : len(expr)-1])
		}
	}
	if i, err := strconv.ParseInt(expr, 10, 64); err == nil {
		return value.Integer(i)
	}
	if f, err := strconv.ParseFloat(expr, 64); err == nil {
		return value.Float(f)
	}
	switch strings.ToLower(expr) {
	case "true":
		return value.Boolean(true)
	case "false":
		return value.Boolean(false)
	}
	return value.Text(expr)
}

// useSource implements UseSource. An explicit OPTIONS(kind=...) selects a
// registered source kind; otherwise the file extension decides: columnar
// formats go to the cached analytical adapter (with a CSV-scanner fallback),
// sqlite files to the native sqlite kind.
func (e *Executor) useSource(ctx context.Context, stmt xql.Statement) (value.ResultSet, error) {
	ext := strings.ToLower(strings.TrimPrefix(extOf(stmt.Path), "."))
	alias := stmt.Alias
	if alias == "" {
		alias = stmt.Path
	}

	kind := stmt.Options["kind"]
	if kind == "" {
		switch ext {
		case "csv", "json", "parquet":
			return e.useFileSource(ctx, stmt, alias, ext)
		case "db", "sqlite", "sqlite3":
			kind = "sqlite"
		default:
			return value.ResultSet{}, util.NewUnsupportedFileType(ext)
		}
	}
	return e.useConfiguredSource(ctx, stmt, alias, kind)
}

// useFileSource registers a columnar file into the cached analytical
// adapter, falling back to the CSV scanner registered directly in the
// registry when the analytical backend is unavailable.
func (e *Executor) useFileSource(ctx context.Context, stmt xql.Statement, alias, ext string) (value.ResultSet, error) {
	src, err := e.getOrCreateAnalytical(ctx)
	if err == nil {
		registerer, ok := src.(sources.FileRegisterer)
		if !ok {
			return value.ResultSet{}, util.NewInternal("analytical adapter does not implement FileRegisterer", nil)
		}
		if err := registerer.RegisterFile(ctx, stmt.Path, alias); err != nil {
			if ext != "csv" {
				return value.ResultSet{}, err
			}
		} else {
			if err := e.registry.SetActive(analyticalAlias); err != nil {
				return value.ResultSet{}, err
			}
			return value.Empty(), nil
		}
	} else if ext != "csv" {
		return value.ResultSet{}, err
	}

	csvSrc, err := csvsource.New(stmt.Path, alias, csvsource.DefaultOptions())
	if err != nil {
		return value.ResultSet{}, err
	}
	e.registry.Register(alias, csvSrc)
	if err := e.registry.SetActive(alias); err != nil {
		return value.ResultSet{}, err
	}
	return value.Empty(), nil
}

// useConfiguredSource builds a source of the given registered kind from the
// statement's OPTIONS, registers it under alias, and makes it active. The
// statement's path is handed to the kind's config as the "path" option
// unless OPTIONS already named one.
func (e *Executor) useConfiguredSource(ctx context.Context, stmt xql.Statement, alias, kind string) (value.ResultSet, error) {
	options := make(map[string]string, len(stmt.Options)+1)
	for k, v := range stmt.Options {
		options[k] = v
	}
	delete(options, "kind")
	if _, ok := options["path"]; !ok && stmt.Path != "" {
		options["path"] = stmt.Path
	}

	cfg, err := sources.DecodeConfig(ctx, kind, alias, options)
	if err != nil {
		return value.ResultSet{}, err
	}
	src, err := cfg.Initialize(ctx, e.tracer, alias)
	if err != nil {
		return value.ResultSet{}, err
	}
	e.registry.Register(alias, src)
	if err := e.registry.SetActive(alias); err != nil {
		return value.ResultSet{}, err
	}
	e.logger.DebugContext(ctx, "registered source", "alias", alias, "kind", kind)
	return value.Empty(), nil
}

func extOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return path[idx:]
}

// getOrCreateAnalytical returns the cached analytical adapter, constructing
// and registering a fresh in-memory instance the first time it is needed.
func (e *Executor) getOrCreateAnalytical(ctx context.Context) (sources.Source, error) {
	if src, ok := e.registry.Get(analyticalAlias); ok {
		return src, nil
	}
	src, err := analytical.NewInMemoryWithConfig(analytical.Local(0))
	if err != nil {
		return nil, err
	}
	e.registry.Register(analyticalAlias, src)
	return src, nil
}

func (e *Executor) attach(ctx context.Context, stmt xql.Statement) (value.ResultSet, error) {
	src, err := e.getOrCreateAnalytical(ctx)
	if err != nil {
		return value.ResultSet{}, err
	}
	attacher, ok := src.(sources.SqliteAttacher)
	if !ok {
		return value.ResultSet{}, util.NewInternal("analytical adapter does not implement SqliteAttacher", nil)
	}
	if err := attacher.AttachSqlite(ctx, stmt.Path, stmt.Alias); err != nil {
		return value.ResultSet{}, err
	}
	return value.Empty(), nil
}

func (e *Executor) detach(ctx context.Context, stmt xql.Statement) (value.ResultSet, error) {
	src, ok := e.registry.Get(analyticalAlias)
	if !ok {
		return value.ResultSet{}, util.NewSourceNotFound(stmt.Alias)
	}
	if _, err := src.Query(ctx, "DETACH "+stmt.Alias, nil); err != nil {
		return value.ResultSet{}, err
	}
	if attached, ok := src.(*analytical.Source); ok {
		attached.Attachments().Unregister(stmt.Alias)
	}
	return value.Empty(), nil
}

func (e *Executor) showSources() value.ResultSet {
	rs := value.New([]value.Column{
		{Name: "Alias", DeclaredType: "TEXT", Ordinal: 0},
		{Name: "Type", DeclaredType: "TEXT", Ordinal: 1},
		{Name: "Path", DeclaredType: "TEXT", Ordinal: 2},
	})
	for _, entry := range e.registry.ListSources() {
		rs.AddRow(value.Row{Values: []value.Value{
			value.Text(entry.Alias),
			value.Text(string(entry.Type.Name)),
			value.Text(entry.Type.DisplayPath()),
		}})
	}
	return rs
}

func (e *Executor) showTables(ctx context.Context, stmt xql.Statement) (value.ResultSet, error) {
	src, err := e.resolveSource(stmt.Source)
	if err != nil {
		return value.ResultSet{}, err
	}
	tables, err := src.Schema(ctx)
	if err != nil {
		return value.ResultSet{}, err
	}

	rs := value.New([]value.Column{{Name: "table", DeclaredType: "TEXT", Ordinal: 0}})
	for _, t := range tables {
		rs.AddRow(value.Row{Values: []value.Value{value.Text(t.Name)}})
	}
	return rs, nil
}

func (e *Executor) showVars(sess *session.Session) value.ResultSet {
	rs := value.New([]value.Column{
		{Name: "Variable", DeclaredType: "TEXT", Ordinal: 0},
		{Name: "Value", DeclaredType: "TEXT", Ordinal: 1},
	})
	for name, v := range sess.ListVariables() {
		rs.AddRow(value.Row{Values: []value.Value{value.Text(name), value.Text(v.ToDisplayString())}})
	}
	return rs
}

func (e *Executor) describe(ctx context.Context, stmt xql.Statement) (value.ResultSet, error) {
	src, err := e.resolveSource(stmt.Source)
	if err != nil {
		return value.ResultSet{}, err
	}
	tables, err := src.Schema(ctx)
	if err != nil {
		return value.ResultSet{}, err
	}

	rs := value.New([]value.Column{
		{Name: "Field", DeclaredType: "TEXT", Ordinal: 0},
		{Name: "Type", DeclaredType: "TEXT", Ordinal: 1},
	})
	for _, t := range tables {
		if t.Name != stmt.Table {
			continue
		}
		for _, c := range t.Columns {
			rs.AddRow(value.Row{Values: []value.Value{value.Text(c.Name), value.Text(c.DataType)}})
		}
		return rs, nil
	}
	return value.ResultSet{}, util.NewInternal(fmt.Sprintf("table not found: %s", stmt.Table), nil)
}

// resolveSource returns the named source, or the active source when alias
// is empty.
func (e *Executor) resolveSource(alias string) (sources.Source, error) {
	if alias == "" {
		src, ok := e.registry.Active()
		if !ok {
			return nil, util.NewSourceNotFound("(none active)")
		}
		return src, nil
	}
	src, ok := e.registry.Get(alias)
	if !ok {
		return nil, util.NewSourceNotFound(alias)
	}
	return src, nil
}
