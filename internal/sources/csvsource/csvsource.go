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

// Package csvsource implements an in-memory CSV Source: delimiter
// auto-detection, a quote-aware line splitter, and per-column type
// inference, used as a fallback when the analytical adapter is unavailable.
package csvsource

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wirednil/noctra-sub000/internal/sources"
	"github.com/wirednil/noctra-sub000/internal/util"
	"github.com/wirednil/noctra-sub000/internal/value"
)

// Options configures how a CSV file is read. A nil Delimiter triggers
// auto-detection.
type Options struct {
	Delimiter *rune
	HasHeader bool
	Encoding  string
	Quote     rune
	SkipRows  int
}

// DefaultOptions is header present, utf-8, double-quote quoting, no skipped
// rows, delimiter auto-detected.
func DefaultOptions() Options {
	q := '"'
	return Options{HasHeader: true, Encoding: "utf-8", Quote: q}
}

var candidateDelimiters = []rune{',', ';', '\t', '|'}

// Source is a CSV file exposed as a single-table DataSource.
type Source struct {
	path    string
	name    string
	options Options
	schema  []sources.ColumnInfo
	data    [][]value.Value
}

var _ sources.Source = (*Source)(nil)

// New reads and fully parses path, auto-detecting the delimiter when
// options.Delimiter is nil and inferring each column's type.
func New(path, name string, options Options) (*Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, util.NewIoError("csv file not found: "+path, err)
	}

	delim := options.Delimiter
	if delim == nil {
		d, err := DetectDelimiter(path)
		if err != nil {
			return nil, err
		}
		delim = &d
	}
	opts := options
	opts.Delimiter = delim
	if opts.Quote == 0 {
		opts.Quote = '"'
	}

	schema, data, err := parseCSV(path, opts)
	if err != nil {
		return nil, err
	}

	return &Source{path: path, name: name, options: opts, schema: schema, data: data}, nil
}

// DetectDelimiter samples the first 5 non-empty lines of path and picks the
// candidate delimiter whose per-line occurrence count is identical on every
// sampled line and positive. Ties break in listed order; with no winner it
// defaults to ','.
func DetectDelimiter(path string) (rune, error) {
	f, err := os.Open(path)
	if err != nil {
		return ',', util.NewIoError("opening csv file", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && len(lines) < 5 {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return ',', util.NewIoError("reading csv file", err)
	}
	if len(lines) == 0 {
		return ',', util.NewIoError("empty csv file: "+path, nil)
	}

	best := ','
	bestCount := 0
	for _, delim := range candidateDelimiters {
		first := strings.Count(lines[0], string(delim))
		if first == 0 {
			continue
		}
		consistent := true
		for _, line := range lines {
			if strings.Count(line, string(delim)) != first {
				consistent = false
				break
			}
		}
		if consistent && first > bestCount {
			bestCount = first
			best = delim
		}
	}
	return best, nil
}

func parseCSV(path string, opts Options) ([]sources.ColumnInfo, [][]value.Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, util.NewIoError("opening csv file", err)
	}
	defer f.Close()

	delim := ','
	if opts.Delimiter != nil {
		delim = *opts.Delimiter
	}

	scanner := bufio.NewScanner(f)
	skipped := 0
	var rawRows [][]string
	for scanner.Scan() {
		line := scanner.Text()
		if skipped < opts.SkipRows {
			skipped++
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		rawRows = append(rawRows, splitLine(line, delim, opts.Quote))
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, util.NewIoError("reading csv file", err)
	}
	if len(rawRows) == 0 {
		return nil, nil, util.NewIoError("no data in csv file: "+path, nil)
	}

	var columnNames []string
	if opts.HasHeader {
		columnNames = rawRows[0]
		rawRows = rawRows[1:]
	} else {
		columnNames = make([]string, len(rawRows[0]))
		for i := range columnNames {
			columnNames[i] = "col" + strconv.Itoa(i+1)
		}
	}

	schema := inferSchema(columnNames, rawRows)

	data := make([][]value.Value, len(rawRows))
	for i, row := range rawRows {
		data[i] = convertRow(row, schema)
	}

	return schema, data, nil
}

// SplitLine is a state machine toggled by the quote character: outside
// quotes the delimiter ends the current field (trimmed); inside quotes the
// delimiter is literal. Embedded quotes are not unescaped beyond the toggle.
// Exported so IMPORT can reuse the same field-splitting rules as a scanned
// source.
func SplitLine(line string, delimiter, quote rune) []string {
	return splitLine(line, delimiter, quote)
}

func splitLine(line string, delimiter, quote rune) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, ch := range line {
		switch {
		case ch == quote:
			inQuotes = !inQuotes
		case ch == delimiter && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}

var booleanLiterals = map[string]bool{
	"true": true, "t": true, "1": true, "yes": true,
	"false": false, "f": false, "0": false, "no": false,
}

func inferSchema(names []string, rows [][]string) []sources.ColumnInfo {
	schema := make([]sources.ColumnInfo, len(names))
	for idx, name := range names {
		schema[idx] = sources.ColumnInfo{Name: name, DataType: inferColumnType(rows, idx), Nullable: true}
	}
	return schema
}

func inferColumnType(rows [][]string, col int) string {
	sampleSize := len(rows)
	if sampleSize > 100 {
		sampleSize = 100
	}

	allInt, allFloat, allBool := true, true, true
	for i := 0; i < sampleSize; i++ {
		if col >= len(rows[i]) {
			continue
		}
		v := rows[i][col]
		if v == "" {
			continue
		}
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			allInt = false
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			allFloat = false
		}
		if _, ok := booleanLiterals[strings.ToLower(v)]; !ok {
			allBool = false
		}
	}

	switch {
	case allBool:
		return "BOOLEAN"
	case allInt:
		return "INTEGER"
	case allFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

func convertRow(row []string, schema []sources.ColumnInfo) []value.Value {
	values := make([]value.Value, len(row))
	for idx, raw := range row {
		if raw == "" {
			values[idx] = value.Null()
			continue
		}
		colType := "TEXT"
		if idx < len(schema) {
			colType = schema[idx].DataType
		}
		switch colType {
		case "INTEGER":
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				values[idx] = value.Integer(n)
			} else {
				values[idx] = value.Text(raw)
			}
		case "REAL":
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				values[idx] = value.Float(f)
			} else {
				values[idx] = value.Text(raw)
			}
		case "BOOLEAN":
			values[idx] = value.Boolean(booleanLiterals[strings.ToLower(raw)])
		default:
			values[idx] = value.Text(raw)
		}
	}
	return values
}

func (s *Source) tableName() string {
	base := filepath.Base(s.path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if name == "" {
		return "csv_table"
	}
	return name
}

// Query supports only "SELECT * FROM <table>" against the scanner's own
// table; every other statement fails, relying on the executor to route
// richer SQL through the analytical backend once the file is registered
// there.
func (s *Source) Query(_ context.Context, sql string, _ value.Parameters) (value.ResultSet, error) {
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(sql)), "SELECT * FROM") {
		return value.ResultSet{}, util.NewQueryFailed("csv source only supports 'SELECT * FROM <table>' queries", nil)
	}

	columns := make([]value.Column, len(s.schema))
	for i, c := range s.schema {
		columns[i] = value.Column{Name: c.Name, DeclaredType: c.DataType, Ordinal: i}
	}

	rs := value.New(columns)
	for _, row := range s.data {
		rs.AddRow(value.Row{Values: row})
	}
	return rs, nil
}

func (s *Source) Schema(_ context.Context) ([]sources.TableInfo, error) {
	rowCount := len(s.data)
	return []sources.TableInfo{{Name: s.tableName(), Columns: s.schema, RowCount: &rowCount}}, nil
}

func (s *Source) SourceType() sources.SourceType {
	delim := ','
	if s.options.Delimiter != nil {
		delim = *s.options.Delimiter
	}
	encoding := s.options.Encoding
	if encoding == "" {
		encoding = "utf-8"
	}
	return sources.SourceType{
		Name:      sources.TypeCSV,
		Path:      s.path,
		Delimiter: delim,
		HasHeader: s.options.HasHeader,
		Encoding:  encoding,
	}
}

func (s *Source) Name() string { return s.name }

func (s *Source) Close() error { return nil }
