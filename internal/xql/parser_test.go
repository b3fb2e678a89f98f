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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestParseStatementKinds(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Statement
	}{
		{
			name: "use schema",
			line: "USE analytics",
			want: Statement{Kind: StmtUse, Schema: "analytics"},
		},
		{
			name: "use source with alias",
			line: `USE 'data/sales.csv' AS sales`,
			want: Statement{Kind: StmtUseSource, Path: "data/sales.csv", Alias: "sales"},
		},
		{
			name: "attach with type",
			line: `ATTACH '/tmp/app.db' AS app (TYPE sqlite)`,
			want: Statement{Kind: StmtAttach, Path: "/tmp/app.db", Alias: "app", DbType: "sqlite"},
		},
		{
			name: "attach defaults to sqlite",
			line: `ATTACH '/tmp/app.db' AS app`,
			want: Statement{Kind: StmtAttach, Path: "/tmp/app.db", Alias: "app", DbType: "sqlite"},
		},
		{
			name: "detach",
			line: "DETACH app",
			want: Statement{Kind: StmtDetach, Alias: "app"},
		},
		{
			name: "show sources",
			line: "SHOW SOURCES",
			want: Statement{Kind: StmtShowSources},
		},
		{
			name: "show tables from",
			line: "SHOW TABLES FROM sales",
			want: Statement{Kind: StmtShowTables, Source: "sales"},
		},
		{
			name: "describe qualified table",
			line: "DESCRIBE sales.orders",
			want: Statement{Kind: StmtDescribe, Source: "sales", Table: "orders"},
		},
		{
			name: "let with equals",
			line: "LET dept = 'IT'",
			want: Statement{Kind: StmtLet, Variable: "dept", Expression: "'IT'"},
		},
		{
			name: "unset multiple",
			line: "UNSET dept, region",
			want: Statement{Kind: StmtUnset, Variables: []string{"dept", "region"}},
		},
		{
			name: "import with options",
			line: `IMPORT 'data/users.csv' AS users OPTIONS(delimiter=;)`,
			want: Statement{Kind: StmtImport, Path: "data/users.csv", Table: "users", Options: map[string]string{"delimiter": ";"}},
		},
		{
			name: "export csv",
			line: `EXPORT SELECT * FROM sales TO 'out.csv' FORMAT CSV`,
			want: Statement{Kind: StmtExport, QueryOrTable: "SELECT * FROM sales", File: "out.csv", Format: FormatCsv},
		},
		{
			name: "map with alias",
			line: "MAP price * qty AS total, name",
			want: Statement{Kind: StmtMap, MapExpressions: []MapExpr{
				{Expression: "price * qty", Alias: "total"},
				{Expression: "name"},
			}},
		},
		{
			name: "filter",
			line: "FILTER total > 100",
			want: Statement{Kind: StmtFilter, Condition: "total > 100"},
		},
		{
			name: "form load",
			line: `FORM LOAD 'forms/signup.json'`,
			want: Statement{Kind: StmtFormLoad, Path: "forms/signup.json"},
		},
		{
			name: "output to stdout with format",
			line: "OUTPUT TO STDOUT FORMAT JSON",
			want: Statement{Kind: StmtOutputTo, Destination: OutputDestination{Kind: DestinationStdout}, OutputFormat: OutputJson},
		},
		{
			name: "output to file",
			line: `OUTPUT TO 'report.csv' FORMAT CSV`,
			want: Statement{Kind: StmtOutputTo, Destination: OutputDestination{Kind: DestinationFile, Path: "report.csv"}, OutputFormat: OutputCsv},
		},
		{
			name: "plain select falls through to sql",
			line: "SELECT * FROM sales WHERE id = 1",
			want: Statement{Kind: StmtSql, Text: "SELECT * FROM sales WHERE id = 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Parse(tt.line)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.line, err)
			}
			if len(tree.Statements) != 1 {
				t.Fatalf("Parse(%q) produced %d statements, want 1", tt.line, len(tree.Statements))
			}
			got := tree.Statements[0]
			got.Line = 0
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestParseEmptyInput(t *testing.T) {
	tree, err := Parse("")
	if err != nil {
		t.Fatalf("Parse(\"\") returned error: %v", err)
	}
	if len(tree.Statements) != 0 || len(tree.Parameters) != 0 {
		t.Errorf("empty input produced %d statements, %d parameters", len(tree.Statements), len(tree.Parameters))
	}
	if tree.Metadata.LinesProcessed != 0 {
		t.Errorf("LinesProcessed = %d, want 0", tree.Metadata.LinesProcessed)
	}
}

func TestParseNamedParameterSQLPassesGrammar(t *testing.T) {
	tree, err := Parse("SELECT * FROM t WHERE a=$1 AND b=:b AND c=$2")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(tree.Statements) != 1 || tree.Statements[0].Kind != StmtSql {
		t.Fatalf("statements = %+v, want one Sql statement", tree.Statements)
	}
	positional := tree.GetPositionalParameters()
	if len(positional) != 2 || *positional[0].Position != 1 || *positional[1].Position != 2 {
		t.Errorf("positional params = %+v, want $1 then $2", positional)
	}
	named := tree.GetNamedParameters()
	if len(named) != 1 || named[0].Name != ":b" {
		t.Errorf("named params = %+v, want single :b", named)
	}
}

func TestParseSkipsBlankAndCommentLines(t *testing.T) {
	input := "\n-- a comment\nSHOW SOURCES\n\n-- trailing\n"
	tree, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(tree.Statements) != 1 {
		t.Fatalf("got %d statements, want 1", len(tree.Statements))
	}
	if tree.Statements[0].Kind != StmtShowSources {
		t.Errorf("got kind %v, want StmtShowSources", tree.Statements[0].Kind)
	}
}

func TestParseRejectsInvalidSQL(t *testing.T) {
	_, err := Parse("SELEKT * FROM nowhere")
	if err == nil {
		t.Fatal("expected an error for malformed SQL, got nil")
	}
}

func TestParameterExtraction(t *testing.T) {
	input := "SELECT * FROM sales WHERE region = :region AND id > $1 AND dept = #dept"
	tree, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	named := tree.GetNamedParameters()
	if len(named) != 1 || named[0].Name != ":region" {
		t.Errorf("named params = %+v, want single :region", named)
	}

	positional := tree.GetPositionalParameters()
	if len(positional) != 1 || positional[0].Name != "$1" {
		t.Errorf("positional params = %+v, want single $1", positional)
	}
	if positional[0].Position == nil || *positional[0].Position != 1 {
		t.Errorf("positional param position = %v, want 1", positional[0].Position)
	}

	if len(tree.SessionVariables) != 1 || tree.SessionVariables[0] != "dept" {
		t.Errorf("session variables = %v, want [dept]", tree.SessionVariables)
	}
}

func TestDuplicateParameterWarning(t *testing.T) {
	input := "SELECT * FROM sales WHERE id = :id OR parent_id = :id"
	tree, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(tree.Metadata.Warnings) == 0 {
		t.Error("expected a duplicate-parameter warning, got none")
	}
}

func TestToSQLRoundTrip(t *testing.T) {
	tests := []string{
		"USE analytics",
		"LET dept = 'IT'",
		`FORM LOAD 'forms/signup.json'`,
		"OUTPUT TO STDOUT FORMAT JSON",
	}

	for _, line := range tests {
		t.Run(line, func(t *testing.T) {
			tree, err := Parse(line)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", line, err)
			}
			rendered := tree.Statements[0].ToSQL()

			again, err := Parse(rendered)
			if err != nil {
				t.Fatalf("re-parsing %q returned error: %v", rendered, err)
			}
			if len(again.Statements) != 1 {
				t.Fatalf("re-parsing %q produced %d statements, want 1", rendered, len(again.Statements))
			}

			first, second := tree.Statements[0], again.Statements[0]
			first.Line, second.Line = 0, 0
			if diff := cmp.Diff(first, second, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round-trip mismatch for %q (-original +reparsed):\n%s", line, diff)
			}
		})
	}
}
