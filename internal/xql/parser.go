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

package xql

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ha1tch/tsqlparser"

	"github.com/wirednil/noctra-sub000/internal/util"
)

var (
	attachPattern     = regexp.MustCompile(`(?i)^ATTACH\s+['"]([^'"]+)['"]\s+AS\s+(\w+)(?:\s+\(TYPE\s+(\w+)\))?`)
	detachPattern     = regexp.MustCompile(`(?i)^DETACH\s+(\w+)`)
	showTablesPattern = regexp.MustCompile(`(?i)^SHOW\s+TABLES(?:\s+FROM\s+(\w+))?`)
	describePattern   = regexp.MustCompile(`(?i)^DESCRIBE\s+(?:(\w+)\.)?(\w+)`)
	importPattern     = regexp.MustCompile(`(?i)^IMPORT\s+['"]([^'"]+)['"]\s+AS\s+(\w+)(?:\s+OPTIONS\s*\(([^)]*)\))?`)
	exportPattern     = regexp.MustCompile(`(?i)^EXPORT\s+(.+?)\s+TO\s+['"]([^'"]+)['"]\s+FORMAT\s+(CSV|JSON|XLSX)(?:\s+OPTIONS\s*\(([^)]*)\))?`)
	useSourcePattern  = regexp.MustCompile(`(?i)^USE\s+['"]([^'"]+)['"](?:\s+AS\s+(\w+))?(?:\s+OPTIONS\s*\(([^)]*)\))?`)

	positionalParamPattern = regexp.MustCompile(`\$(\d+)`)
	namedParamPattern      = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)`)
	sessionVarPattern      = regexp.MustCompile(`#([A-Za-z_][A-Za-z0-9_]*)`)

	aliasIdentPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	mapAliasPattern   = regexp.MustCompile(`(?i)^(.*?)\s+AS\s+(\w+)$`)
)

// Parse splits input on newlines and builds a Tree: empty and "--" comment
// lines are skipped, a trailing ";" is accepted and ignored, and every line
// is fed through parameter extraction regardless of statement kind.
func Parse(input string) (*Tree, error) {
	start := time.Now()
	tree := NewTree()

	var lines []string
	if input != "" {
		lines = strings.Split(input, "\n")
	}
	tree.Metadata.LinesProcessed = len(lines)

	seenAliases := map[string]bool{}
	paramNameSeen := map[string]int{}

	for i, raw := range lines {
		lineNum := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		trimmed = strings.TrimSuffix(trimmed, ";")
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == "" {
			continue
		}

		stmt, err := parseLine(trimmed, lineNum)
		if err != nil {
			return nil, err
		}
		stmt.Line = lineNum
		tree.AddStatement(stmt)

		extractParameters(tree, trimmed, lineNum, paramNameSeen)
		validateAliases(tree, stmt, seenAliases)
	}

	tree.Metadata.ParsingTime = time.Since(start)
	return tree, nil
}

func parseLine(line string, lineNum int) (Statement, error) {
	upper := strings.ToUpper(line)

	switch {
	case strings.HasPrefix(upper, "USE "):
		return parseUse(line, lineNum)
	case strings.HasPrefix(upper, "ATTACH "):
		return parseAttach(line, lineNum)
	case strings.HasPrefix(upper, "DETACH "):
		return parseDetach(line, lineNum)
	case upper == "SHOW SOURCES" || strings.HasPrefix(upper, "SHOW SOURCES"):
		return Statement{Kind: StmtShowSources}, nil
	case strings.HasPrefix(upper, "SHOW TABLES"):
		return parseShowTables(line, lineNum)
	case upper == "SHOW VARS" || strings.HasPrefix(upper, "SHOW VARS"):
		return Statement{Kind: StmtShowVars}, nil
	case strings.HasPrefix(upper, "DESCRIBE "):
		return parseDescribe(line, lineNum)
	case strings.HasPrefix(upper, "LET "):
		return parseLet(line, lineNum)
	case strings.HasPrefix(upper, "UNSET "):
		return parseUnset(line, lineNum)
	case strings.HasPrefix(upper, "IMPORT "):
		return parseImport(line, lineNum)
	case strings.HasPrefix(upper, "EXPORT "):
		return parseExport(line, lineNum)
	case strings.HasPrefix(upper, "MAP "):
		return parseMap(line, lineNum)
	case strings.HasPrefix(upper, "FILTER "):
		return Statement{Kind: StmtFilter, Condition: strings.TrimSpace(line[len("FILTER "):])}, nil
	case strings.HasPrefix(upper, "FORM LOAD "):
		path := unquote(strings.TrimSpace(line[len("FORM LOAD "):]))
		return Statement{Kind: StmtFormLoad, Path: path}, nil
	case strings.HasPrefix(upper, "EXECFORM "):
		return parseExecForm(line, lineNum)
	case strings.HasPrefix(upper, "OUTPUT TO "):
		return parseOutputTo(line, lineNum)
	default:
		return parseDefaultSQL(line, lineNum)
	}
}

// parseUse dispatches to UseSource when the first token after USE is a
// quoted literal, else to the legacy schema-change form.
func parseUse(line string, lineNum int) (Statement, error) {
	rest := strings.TrimSpace(line[len("USE "):])
	if len(rest) > 0 && (rest[0] == '\'' || rest[0] == '"') {
		m := useSourcePattern.FindStringSubmatch(line)
		if m == nil {
			return Statement{}, util.NewParseError(lineNum, 1, "malformed USE '<path>' statement")
		}
		stmt := Statement{Kind: StmtUseSource, Path: m[1], Alias: m[2]}
		if m[3] != "" {
			stmt.Options = parseOptions(m[3])
		}
		return stmt, nil
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return Statement{}, util.NewParseError(lineNum, 1, "USE requires a schema name")
	}
	return Statement{Kind: StmtUse, Schema: fields[0]}, nil
}

func parseAttach(line string, lineNum int) (Statement, error) {
	m := attachPattern.FindStringSubmatch(line)
	if m == nil {
		return Statement{}, util.NewParseError(lineNum, 1, "malformed ATTACH statement")
	}
	dbType := m[3]
	if dbType == "" {
		dbType = "sqlite"
	}
	return Statement{Kind: StmtAttach, Path: m[1], Alias: m[2], DbType: dbType}, nil
}

func parseDetach(line string, lineNum int) (Statement, error) {
	m := detachPattern.FindStringSubmatch(line)
	if m == nil {
		return Statement{}, util.NewParseError(lineNum, 1, "malformed DETACH statement")
	}
	return Statement{Kind: StmtDetach, Alias: m[1]}, nil
}

func parseShowTables(line string, lineNum int) (Statement, error) {
	m := showTablesPattern.FindStringSubmatch(line)
	if m == nil {
		return Statement{}, util.NewParseError(lineNum, 1, "malformed SHOW TABLES statement")
	}
	return Statement{Kind: StmtShowTables, Source: m[1]}, nil
}

func parseDescribe(line string, lineNum int) (Statement, error) {
	m := describePattern.FindStringSubmatch(line)
	if m == nil {
		return Statement{}, util.NewParseError(lineNum, 1, "malformed DESCRIBE statement")
	}
	return Statement{Kind: StmtDescribe, Source: m[1], Table: m[2]}, nil
}

// parseLet takes the second whitespace-separated token as the variable name;
// the remainder of the line is the expression, with a leading "=" (the
// canonical form's separator) stripped.
func parseLet(line string, lineNum int) (Statement, error) {
	rest := strings.TrimSpace(line[len("LET "):])
	fields := strings.SplitN(rest, " ", 2)
	if len(fields) < 2 {
		return Statement{}, util.NewParseError(lineNum, 1, "LET requires a variable and an expression")
	}
	variable := fields[0]
	expr := strings.TrimSpace(fields[1])
	expr = strings.TrimPrefix(expr, "=")
	expr = strings.TrimSpace(expr)
	return Statement{Kind: StmtLet, Variable: variable, Expression: expr}, nil
}

func parseUnset(line string, lineNum int) (Statement, error) {
	rest := strings.TrimSpace(line[len("UNSET "):])
	if rest == "" {
		return Statement{}, util.NewParseError(lineNum, 1, "UNSET requires at least one variable")
	}
	parts := strings.Split(rest, ",")
	vars := make([]string, 0, len(parts))
	for _, p := range parts {
		v := strings.TrimSpace(p)
		if v != "" {
			vars = append(vars, v)
		}
	}
	return Statement{Kind: StmtUnset, Variables: vars}, nil
}

func parseImport(line string, lineNum int) (Statement, error) {
	m := importPattern.FindStringSubmatch(line)
	if m == nil {
		return Statement{}, util.NewParseError(lineNum, 1, "malformed IMPORT statement")
	}
	stmt := Statement{Kind: StmtImport, Path: m[1], Table: m[2]}
	if m[3] != "" {
		stmt.Options = parseOptions(m[3])
	}
	return stmt, nil
}

func parseExport(line string, lineNum int) (Statement, error) {
	m := exportPattern.FindStringSubmatch(line)
	if m == nil {
		return Statement{}, util.NewParseError(lineNum, 1, "malformed EXPORT statement")
	}
	var format ExportFormat
	switch strings.ToUpper(m[3]) {
	case "CSV":
		format = FormatCsv
	case "JSON":
		format = FormatJson
	case "XLSX":
		format = FormatXlsx
	}
	stmt := Statement{
		Kind:         StmtExport,
		QueryOrTable: strings.TrimSpace(m[1]),
		File:         m[2],
		Format:       format,
	}
	if m[4] != "" {
		stmt.Options = parseOptions(m[4])
	}
	return stmt, nil
}

// parseMap splits the remainder on top-level commas (not inside parens) into
// "<expr> [AS <alias>]" items.
func parseMap(line string, lineNum int) (Statement, error) {
	rest := strings.TrimSpace(line[len("MAP "):])
	if rest == "" {
		return Statement{}, util.NewParseError(lineNum, 1, "MAP requires at least one expression")
	}
	items := splitTopLevelCommas(rest)
	exprs := make([]MapExpr, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if m := mapAliasPattern.FindStringSubmatch(item); m != nil {
			exprs = append(exprs, MapExpr{Expression: strings.TrimSpace(m[1]), Alias: m[2]})
		} else {
			exprs = append(exprs, MapExpr{Expression: item})
		}
	}
	return Statement{Kind: StmtMap, MapExpressions: exprs}, nil
}

func parseExecForm(line string, lineNum int) (Statement, error) {
	rest := strings.TrimSpace(line[len("EXECFORM "):])
	parts := strings.SplitN(rest, " ", 2)
	path := unquote(parts[0])
	stmt := Statement{Kind: StmtExecForm, Path: path}
	if len(parts) == 2 {
		if opts := strings.TrimSpace(parts[1]); strings.HasPrefix(opts, "OPTIONS") {
			inner := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(opts[len("OPTIONS"):]), "("), ")")
			stmt.FormParameters = parseOptions(inner)
		}
	}
	return stmt, nil
}

func parseOutputTo(line string, lineNum int) (Statement, error) {
	rest := strings.TrimSpace(line[len("OUTPUT TO "):])
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return Statement{}, util.NewParseError(lineNum, 1, "OUTPUT TO requires a destination")
	}

	dest := OutputDestination{Kind: DestinationStdout}
	switch strings.ToUpper(fields[0]) {
	case "STDOUT":
		dest = OutputDestination{Kind: DestinationStdout}
	case "PRINTER":
		dest = OutputDestination{Kind: DestinationPrinter}
	default:
		dest = OutputDestination{Kind: DestinationFile, Path: unquote(fields[0])}
	}

	format := OutputTable
	for i, f := range fields {
		if strings.EqualFold(f, "FORMAT") && i+1 < len(fields) {
			switch strings.ToUpper(fields[i+1]) {
			case "CSV":
				format = OutputCsv
			case "JSON":
				format = OutputJson
			case "XML":
				format = OutputXml
			default:
				format = OutputTable
			}
		}
	}

	return Statement{Kind: StmtOutputTo, Destination: dest, OutputFormat: format}, nil
}

// parseDefaultSQL validates line against a generic SQL grammar; a rejection
// becomes a SqlParserError, otherwise the line passes through verbatim.
// Named parameters (:name) are rewritten to @name for validation only —
// the grammar understands variable references but not colon placeholders.
func parseDefaultSQL(line string, lineNum int) (Statement, error) {
	checked := namedParamPattern.ReplaceAllString(line, "@$1")
	_, parseErrs := tsqlparser.Parse(checked)
	if len(parseErrs) > 0 {
		return Statement{}, util.NewSqlParserError(
			"line "+strconv.Itoa(lineNum)+": "+strings.Join(parseErrs, "; "), nil)
	}
	return Statement{Kind: StmtSql, Text: line}, nil
}

// parseOptions turns "k1=v1, k2=v2" into a string map; keys and values are
// free text delimited by ",".
func parseOptions(s string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		key := strings.TrimSpace(kv[0])
		val := ""
		if len(kv) == 2 {
			val = strings.TrimSpace(kv[1])
		}
		out[key] = unquote(val)
	}
	return out
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// splitTopLevelCommas splits s on commas that are not nested inside
// parentheses, so MAP expressions containing function calls survive intact.
func splitTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, ch := range s {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// extractParameters scans line for positional ($N), named (:name), and
// session-variable (#name) references and appends them to tree. Duplicate
// parameter names are recorded as a warning, not rejected.
func extractParameters(tree *Tree, line string, lineNum int, seen map[string]int) {
	for _, m := range positionalParamPattern.FindAllStringSubmatchIndex(line, -1) {
		name := line[m[0]:m[1]]
		posStr := line[m[2]:m[3]]
		pos, _ := strconv.Atoi(posStr)
		tree.AddParameter(Parameter{Name: name, Kind: ParamPositional, Position: &pos, Line: lineNum, Column: m[0] + 1})
		recordDuplicate(tree, seen, name, lineNum)
	}
	for _, m := range namedParamPattern.FindAllStringSubmatchIndex(line, -1) {
		name := line[m[0]:m[1]]
		tree.AddParameter(Parameter{Name: name, Kind: ParamNamed, Line: lineNum, Column: m[0] + 1})
		recordDuplicate(tree, seen, name, lineNum)
	}
	for _, m := range sessionVarPattern.FindAllStringSubmatchIndex(line, -1) {
		name := line[m[2]:m[3]]
		tree.AddSessionVariable(name)
	}
}

func recordDuplicate(tree *Tree, seen map[string]int, name string, lineNum int) {
	seen[name]++
	if seen[name] == 2 {
		tree.AddWarning("duplicate parameter name: " + name + " (first seen again at line " + strconv.Itoa(lineNum) + ")")
	}
}

// validateAliases checks UseSource and Import alias-bearing statements
// against the identifier pattern and uniqueness across the tree, recording
// warnings (not errors) on violation.
func validateAliases(tree *Tree, stmt Statement, seen map[string]bool) {
	var alias string
	switch stmt.Kind {
	case StmtUseSource:
		alias = stmt.Alias
	case StmtImport:
		alias = stmt.Table
	default:
		return
	}
	if alias == "" {
		return
	}
	if !aliasIdentPattern.MatchString(alias) {
		tree.AddWarning("alias does not match identifier pattern: " + alias)
		return
	}
	if seen[alias] {
		tree.AddWarning("duplicate alias across statements: " + alias)
		return
	}
	seen[alias] = true
}
