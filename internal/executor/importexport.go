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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wirednil/noctra-sub000/internal/sources"
	"github.com/wirednil/noctra-sub000/internal/sources/csvsource"
	"github.com/wirednil/noctra-sub000/internal/util"
	"github.com/wirednil/noctra-sub000/internal/value"
	"github.com/wirednil/noctra-sub000/internal/xql"
)

func (e *Executor) importFile(ctx context.Context, stmt xql.Statement) (value.ResultSet, error) {
	if err := validateImportExportPath(stmt.Path); err != nil {
		e.logger.WarnContext(ctx, "import rejected by sandbox", "path", stmt.Path, "error", err)
		return value.ResultSet{}, err
	}
	if err := validateTableName(stmt.Table); err != nil {
		e.logger.WarnContext(ctx, "import rejected by sandbox", "table", stmt.Table, "error", err)
		return value.ResultSet{}, err
	}

	info, err := os.Stat(stmt.Path)
	if err != nil {
		return value.ResultSet{}, util.NewIoError("reading import file", err)
	}
	if info.Size() > maxImportFileSize {
		return value.ResultSet{}, util.NewIoError(
			fmt.Sprintf("import file %s exceeds the 100 MiB limit", stmt.Path), nil)
	}

	active, ok := e.registry.Active()
	if !ok {
		return value.ResultSet{}, util.NewSourceNotFound("(none active)")
	}

	ext := strings.ToLower(filepath.Ext(stmt.Path))
	switch ext {
	case ".csv":
		return e.importCSV(ctx, active, stmt)
	case ".json":
		return e.importJSON(ctx, active, stmt)
	default:
		return value.ResultSet{}, util.NewUnsupportedFileType(ext)
	}
}

func (e *Executor) importCSV(ctx context.Context, active sources.Source, stmt xql.Statement) (value.ResultSet, error) {
	delim := ','
	if d, ok := stmt.Options["delimiter"]; ok && len(d) == 1 {
		delim = rune(d[0])
	} else {
		detected, err := csvsource.DetectDelimiter(stmt.Path)
		if err == nil {
			delim = detected
		}
	}

	raw, err := os.ReadFile(stmt.Path)
	if err != nil {
		return value.ResultSet{}, util.NewIoError("reading import file", err)
	}

	var rows [][]string
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, csvsource.SplitLine(line, delim, '"'))
	}
	if len(rows) == 0 {
		return value.ResultSet{}, util.NewIoError("no data in import file: "+stmt.Path, nil)
	}

	header := rows[0]
	dataRows := rows[1:]

	cols := make([]string, len(header))
	for i, name := range header {
		cols[i] = name + " TEXT"
	}
	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", stmt.Table, strings.Join(cols, ", "))
	if _, err := active.Query(ctx, createSQL, nil); err != nil {
		return value.ResultSet{}, err
	}

	var inserted uint64
	for _, row := range dataRows {
		literals := make([]string, len(header))
		for i := range header {
			if i < len(row) && row[i] != "" {
				literals[i] = "'" + escapeSQLString(row[i]) + "'"
			} else {
				literals[i] = "NULL"
			}
		}
		insertSQL := fmt.Sprintf("INSERT INTO %s VALUES (%s)", stmt.Table, strings.Join(literals, ", "))
		if _, err := active.Query(ctx, insertSQL, nil); err != nil {
			return value.ResultSet{}, err
		}
		inserted++
	}

	rs := value.Empty()
	rs.RowsAffected = &inserted
	return rs, nil
}

func (e *Executor) importJSON(ctx context.Context, active sources.Source, stmt xql.Statement) (value.ResultSet, error) {
	raw, err := os.ReadFile(stmt.Path)
	if err != nil {
		return value.ResultSet{}, util.NewIoError("reading import file", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var elements []json.RawMessage
	if err := dec.Decode(&elements); err != nil {
		return value.ResultSet{}, util.NewIoError("parsing import JSON array", err)
	}
	if len(elements) == 0 {
		return value.ResultSet{}, util.NewIoError("no data in import file: "+stmt.Path, nil)
	}

	columns, err := orderedObjectKeys(elements[0])
	if err != nil {
		return value.ResultSet{}, util.NewIoError("import JSON elements must be objects", err)
	}

	firstObj, err := decodeObject(elements[0])
	if err != nil {
		return value.ResultSet{}, util.NewIoError("decoding import JSON", err)
	}
	colTypes := make([]string, len(columns))
	for i, col := range columns {
		colTypes[i] = jsonColumnType(firstObj[col])
	}

	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = col + " " + colTypes[i]
	}
	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", stmt.Table, strings.Join(defs, ", "))
	if _, err := active.Query(ctx, createSQL, nil); err != nil {
		return value.ResultSet{}, err
	}

	var inserted uint64
	for _, elem := range elements {
		obj, err := decodeObject(elem)
		if err != nil {
			return value.ResultSet{}, util.NewIoError("decoding import JSON row", err)
		}
		literals := make([]string, len(columns))
		for i, col := range columns {
			literals[i] = jsonValueToSQLLiteral(obj[col])
		}
		insertSQL := fmt.Sprintf("INSERT INTO %s VALUES (%s)", stmt.Table, strings.Join(literals, ", "))
		if _, err := active.Query(ctx, insertSQL, nil); err != nil {
			return value.ResultSet{}, err
		}
		inserted++
	}

	rs := value.Empty()
	rs.RowsAffected = &inserted
	return rs, nil
}

// orderedObjectKeys returns raw's top-level object keys in the order they
// appear in the source text, since a plain map[string]any would discard it.
func orderedObjectKeys(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object")
	}

	var keys []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		keys = append(keys, keyTok.(string))
		var discard json.RawMessage
		if err := dec.Decode(&discard); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func decodeObject(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// jsonColumnType maps one sampled value to its CREATE TABLE SQL type:
// integral numbers -> INTEGER, other numbers -> REAL, everything else
// (including bool, which is stored as 0/1) -> INTEGER for bool, TEXT
// otherwise.
func jsonColumnType(v any) string {
	switch t := v.(type) {
	case bool:
		return "INTEGER"
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return "INTEGER"
		}
		return "REAL"
	default:
		return "TEXT"
	}
}

func jsonValueToSQLLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if t {
			return "1"
		}
		return "0"
	case json.Number:
		return t.String()
	case string:
		return "'" + escapeSQLString(t) + "'"
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return "NULL"
		}
		return "'" + escapeSQLString(string(raw)) + "'"
	}
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func (e *Executor) exportFile(ctx context.Context, stmt xql.Statement) (value.ResultSet, error) {
	if err := validateImportExportPath(stmt.File); err != nil {
		e.logger.WarnContext(ctx, "export rejected by sandbox", "path", stmt.File, "error", err)
		return value.ResultSet{}, err
	}
	if stmt.Format == xql.FormatXlsx {
		return value.ResultSet{}, util.NewQueryFailed("XLSX export is not implemented", nil)
	}

	query := strings.TrimSpace(stmt.QueryOrTable)
	if strings.HasPrefix(query, "(") && strings.HasSuffix(query, ")") {
		query = strings.TrimSpace(query[1 : len(query)-1])
	}
	if !strings.HasPrefix(strings.ToUpper(query), "SELECT") {
		if err := validateTableName(query); err != nil {
			return value.ResultSet{}, err
		}
		query = "SELECT * FROM " + query
	}

	active, ok := e.registry.Active()
	if !ok {
		return value.ResultSet{}, util.NewSourceNotFound("(none active)")
	}
	result, err := active.Query(ctx, query, nil)
	if err != nil {
		return value.ResultSet{}, err
	}

	var out []byte
	switch stmt.Format {
	case xql.FormatCsv:
		out = []byte(resultSetToCSV(result, stmt.Options))
	case xql.FormatJson:
		out, err = resultSetToJSON(result)
		if err != nil {
			return value.ResultSet{}, util.NewIoError("encoding export JSON", err)
		}
	}

	if err := os.WriteFile(stmt.File, out, 0o644); err != nil {
		return value.ResultSet{}, util.NewIoError("writing export file", err)
	}

	affected := uint64(result.RowCount())
	rs := value.Empty()
	rs.RowsAffected = &affected
	return rs, nil
}

// resultSetToCSV renders rs per the CSV export format: header optional
// (default on), delimiter default ",", quoting only when a value contains
// the delimiter, a quote, or a newline, with embedded quotes doubled.
func resultSetToCSV(rs value.ResultSet, options map[string]string) string {
	delim := ","
	if d, ok := options["delimiter"]; ok && d != "" {
		delim = d
	}
	header := true
	if h, ok := options["header"]; ok {
		header = h != "false"
	}

	var b strings.Builder
	if header {
		names := make([]string, len(rs.Columns))
		for i, c := range rs.Columns {
			names[i] = csvField(c.Name, delim)
		}
		b.WriteString(strings.Join(names, delim))
		b.WriteString("\n")
	}
	for _, row := range rs.Rows {
		fields := make([]string, len(rs.Columns))
		for i := range rs.Columns {
			s := ""
			if i < len(row.Values) && !row.Values[i].IsNull() {
				s = row.Values[i].ToDisplayString()
			}
			fields[i] = csvField(s, delim)
		}
		b.WriteString(strings.Join(fields, delim))
		b.WriteString("\n")
	}
	return b.String()
}

func csvField(s, delim string) string {
	if strings.Contains(s, delim) || strings.ContainsAny(s, "\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// resultSetToJSON renders rs as a JSON array of objects, column names as
// keys in original case.
func resultSetToJSON(rs value.ResultSet) ([]byte, error) {
	records := make([]map[string]value.Value, len(rs.Rows))
	for i, row := range rs.Rows {
		obj := make(map[string]value.Value, len(rs.Columns))
		for j, c := range rs.Columns {
			if j < len(row.Values) {
				obj[c.Name] = row.Values[j]
			} else {
				obj[c.Name] = value.Null()
			}
		}
		records[i] = obj
	}
	return json.Marshal(records)
}
