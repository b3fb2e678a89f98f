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

// Package xql is the line-oriented parser that turns an XQL script into a
// typed statement tree: opaque SQL passthrough plus data-source lifecycle,
// session-variable, and staged transform-verb statements.
package xql

import (
	"sort"
	"strings"
)

// StatementKind tags which of Statement's fields are meaningful.
type StatementKind int

const (
	StmtSql StatementKind = iota
	StmtUse
	StmtUseSource
	StmtAttach
	StmtDetach
	StmtShowSources
	StmtShowTables
	StmtShowVars
	StmtDescribe
	StmtLet
	StmtUnset
	StmtImport
	StmtExport
	StmtMap
	StmtFilter
	StmtFormLoad
	StmtExecForm
	StmtOutputTo
)

func (k StatementKind) String() string {
	switch k {
	case StmtSql:
		return "Sql"
	case StmtUse:
		return "Use"
	case StmtUseSource:
		return "UseSource"
	case StmtAttach:
		return "Attach"
	case StmtDetach:
		return "Detach"
	case StmtShowSources:
		return "ShowSources"
	case StmtShowTables:
		return "ShowTables"
	case StmtShowVars:
		return "ShowVars"
	case StmtDescribe:
		return "Describe"
	case StmtLet:
		return "Let"
	case StmtUnset:
		return "Unset"
	case StmtImport:
		return "Import"
	case StmtExport:
		return "Export"
	case StmtMap:
		return "Map"
	case StmtFilter:
		return "Filter"
	case StmtFormLoad:
		return "FormLoad"
	case StmtExecForm:
		return "ExecForm"
	case StmtOutputTo:
		return "OutputTo"
	default:
		return "Unknown"
	}
}

// ExportFormat is Export's target serialization.
type ExportFormat int

const (
	FormatCsv ExportFormat = iota
	FormatJson
	FormatXlsx
)

func (f ExportFormat) String() string {
	switch f {
	case FormatCsv:
		return "CSV"
	case FormatJson:
		return "JSON"
	case FormatXlsx:
		return "XLSX"
	default:
		return "CSV"
	}
}

// OutputFormat is OutputTo's rendering format, a superset of ExportFormat
// kept distinct because OutputTo's payload is forwarded verbatim rather
// than interpreted by the core.
type OutputFormat int

const (
	OutputTable OutputFormat = iota
	OutputCsv
	OutputJson
	OutputXml
)

func (f OutputFormat) String() string {
	switch f {
	case OutputTable:
		return "TABLE"
	case OutputCsv:
		return "CSV"
	case OutputJson:
		return "JSON"
	case OutputXml:
		return "XML"
	default:
		return "TABLE"
	}
}

// OutputDestinationKind tags OutputTo's destination.
type OutputDestinationKind int

const (
	DestinationStdout OutputDestinationKind = iota
	DestinationFile
	DestinationPrinter
)

// OutputDestination is OutputTo's target: Stdout, a File(path), or Printer.
type OutputDestination struct {
	Kind OutputDestinationKind
	Path string // meaningful only when Kind == DestinationFile
}

// MapExpr is one projection in a Map statement: an expression with an
// optional alias.
type MapExpr struct {
	Expression string
	Alias      string
}

// Statement is the parser's tagged-union output. Only the fields relevant
// to Kind are populated.
type Statement struct {
	Kind StatementKind

	// Sql
	Text string

	// Use (legacy schema change)
	Schema string

	// UseSource / Attach / Import / FormLoad / ExecForm
	Path string

	// UseSource / Attach / Detach
	Alias string

	// UseSource / Import / Export
	Options map[string]string

	// Attach
	DbType string

	// ShowTables / Describe
	Source string

	// Describe / Import
	Table string

	// Let
	Variable   string
	Expression string

	// Unset
	Variables []string

	// Export
	QueryOrTable string
	File         string
	Format       ExportFormat

	// Map
	MapExpressions []MapExpr

	// Filter
	Condition string

	// ExecForm
	FormParameters map[string]string

	// OutputTo
	Destination  OutputDestination
	OutputFormat OutputFormat

	Line int
}

// IsSQL reports whether this statement is opaque SQL passed through to a
// backend verbatim.
func (s Statement) IsSQL() bool { return s.Kind == StmtSql }

// IsCommand reports whether this statement is a registry/session mutation
// handled directly by the executor rather than sent to a backend.
func (s Statement) IsCommand() bool { return !s.IsSQL() }

// ToSQL renders s back into a semi-faithful canonical script line. Sql
// statements are emitted verbatim; commands are re-formed with canonical
// syntax. This is a diagnostics/round-trip aid, not a query plan.
func (s Statement) ToSQL() string {
	switch s.Kind {
	case StmtSql:
		return s.Text
	case StmtUse:
		return "USE " + s.Schema + ";"
	case StmtUseSource:
		out := "USE '" + s.Path + "'"
		if s.Alias != "" {
			out += " AS " + s.Alias
		}
		out += optionsClause(s.Options) + ";"
		return out
	case StmtAttach:
		out := "ATTACH '" + s.Path + "' AS " + s.Alias
		if s.DbType != "" {
			out += " (TYPE " + s.DbType + ")"
		}
		return out + ";"
	case StmtDetach:
		return "DETACH " + s.Alias + ";"
	case StmtShowSources:
		return "SHOW SOURCES;"
	case StmtShowTables:
		if s.Source != "" {
			return "SHOW TABLES FROM " + s.Source + ";"
		}
		return "SHOW TABLES;"
	case StmtShowVars:
		return "SHOW VARS;"
	case StmtDescribe:
		if s.Source != "" {
			return "DESCRIBE " + s.Source + "." + s.Table + ";"
		}
		return "DESCRIBE " + s.Table + ";"
	case StmtLet:
		return "LET " + s.Variable + " = " + s.Expression + ";"
	case StmtUnset:
		return "UNSET " + strings.Join(s.Variables, ", ") + ";"
	case StmtImport:
		out := "IMPORT '" + s.Path + "' AS " + s.Table
		return out + optionsClause(s.Options) + ";"
	case StmtExport:
		out := "EXPORT " + s.QueryOrTable + " TO '" + s.File + "' FORMAT " + s.Format.String()
		return out + optionsClause(s.Options) + ";"
	case StmtMap:
		items := make([]string, len(s.MapExpressions))
		for i, m := range s.MapExpressions {
			items[i] = m.Expression
			if m.Alias != "" {
				items[i] += " AS " + m.Alias
			}
		}
		return "MAP " + strings.Join(items, ", ") + ";"
	case StmtFilter:
		return "FILTER " + s.Condition + ";"
	case StmtFormLoad:
		return "FORM LOAD '" + s.Path + "';"
	case StmtExecForm:
		out := "EXECFORM '" + s.Path + "'"
		if len(s.FormParameters) > 0 {
			out += " OPTIONS(" + formatOptionsInner(s.FormParameters) + ")"
		}
		return out + ";"
	case StmtOutputTo:
		var dest string
		switch s.Destination.Kind {
		case DestinationStdout:
			dest = "STDOUT"
		case DestinationPrinter:
			dest = "PRINTER"
		default:
			dest = "'" + s.Destination.Path + "'"
		}
		return "OUTPUT TO " + dest + " FORMAT " + s.OutputFormat.String() + ";"
	default:
		return ""
	}
}

func optionsClause(options map[string]string) string {
	if len(options) == 0 {
		return ""
	}
	return " OPTIONS(" + formatOptionsInner(options) + ")"
}

func formatOptionsInner(options map[string]string) string {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + options[k]
	}
	return strings.Join(parts, ", ")
}
