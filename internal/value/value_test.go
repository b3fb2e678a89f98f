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

package value

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestToDisplayString(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), "NULL"},
		{"integer", Integer(42), "42"},
		{"float", Float(3.5), "3.5"},
		{"text", Text("hello"), "hello"},
		{"bool true", Boolean(true), "true"},
		{"bool false", Boolean(false), "false"},
		{"array", NewArray([]Value{Integer(1), Text("a")}), "[1, a]"},
		{"json", Json(`{"a":1}`), `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.ToDisplayString(); got != tt.want {
				t.Errorf("ToDisplayString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsNull(t *testing.T) {
	if !Null().IsNull() {
		t.Error("Null().IsNull() = false, want true")
	}
	if Integer(0).IsNull() {
		t.Error("Integer(0).IsNull() = true, want false")
	}
}

func TestMarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), "null"},
		{"integer", Integer(7), "7"},
		{"float", Float(1.5), "1.5"},
		{"non-finite float", Float(math.Inf(1)), "null"},
		{"text", Text("x"), `"x"`},
		{"bool", Boolean(true), "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.v)
			if err != nil {
				t.Fatalf("Marshal returned error: %v", err)
			}
			if string(b) != tt.want {
				t.Errorf("Marshal() = %s, want %s", b, tt.want)
			}
		})
	}
}

func TestResultSetInvariants(t *testing.T) {
	rs := New([]Column{{Name: "id", Ordinal: 0}, {Name: "name", Ordinal: 1}})
	rs.AddRow(Row{Values: []Value{Integer(1), Text("a")}})
	rs.AddRow(Row{Values: []Value{Integer(2), Text("b")}})

	if rs.RowCount() != 2 {
		t.Errorf("RowCount() = %d, want 2", rs.RowCount())
	}
	if rs.ColumnCount() != 2 {
		t.Errorf("ColumnCount() = %d, want 2", rs.ColumnCount())
	}
	for _, row := range rs.Rows {
		if len(row.Values) != rs.ColumnCount() {
			t.Errorf("row length %d != column count %d", len(row.Values), rs.ColumnCount())
		}
	}
}

func TestToTableEmptyResultSet(t *testing.T) {
	rs := New([]Column{{Name: "id"}, {Name: "name"}})
	table := rs.ToTable()

	if !strings.Contains(table, "(0 rows)") {
		t.Errorf("ToTable() = %q, want footer with (0 rows)", table)
	}
	lines := strings.Split(table, "\n")
	if len(lines) < 2 || !strings.Contains(lines[1], "-+-") {
		t.Errorf("ToTable() missing rule line: %q", table)
	}
}

func TestToTableColumnWidths(t *testing.T) {
	rs := New([]Column{{Name: "id"}})
	rs.AddRow(Row{Values: []Value{Integer(1)}})
	table := rs.ToTable()

	// Column name "id" is shorter than the 8-char minimum width.
	header := strings.Split(table, "\n")[0]
	if len(header) != 8 {
		t.Errorf("header width = %d, want 8 (max(name.len(), 8))", len(header))
	}
}

func TestToTableNullValue(t *testing.T) {
	rs := New([]Column{{Name: "id"}})
	rs.AddRow(Row{Values: []Value{Null()}})
	table := rs.ToTable()
	if !strings.Contains(table, "NULL") {
		t.Errorf("ToTable() = %q, want a NULL cell", table)
	}
}
