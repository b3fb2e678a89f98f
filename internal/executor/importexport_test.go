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
	"encoding/json"
	"strings"
	"testing"

	"github.com/wirednil/noctra-sub000/internal/value"
)

func TestResultSetToCSV(t *testing.T) {
	rs := value.New([]value.Column{
		{Name: "name", DeclaredType: "TEXT", Ordinal: 0},
		{Name: "note", DeclaredType: "TEXT", Ordinal: 1},
	})
	rs.AddRow(value.Row{Values: []value.Value{value.Text("plain"), value.Text("no comma")}})
	rs.AddRow(value.Row{Values: []value.Value{value.Text(`has,comma`), value.Text(`has "quote"`)}})
	rs.AddRow(value.Row{Values: []value.Value{value.Null(), value.Text("")}})

	got := resultSetToCSV(rs, nil)
	want := "name,note\n" +
		"plain,no comma\n" +
		`"has,comma","has ""quote"""` + "\n" +
		",\n"

	if got != want {
		t.Errorf("resultSetToCSV mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestResultSetToCSVNoHeaderCustomDelimiter(t *testing.T) {
	rs := value.New([]value.Column{{Name: "a", DeclaredType: "TEXT", Ordinal: 0}})
	rs.AddRow(value.Row{Values: []value.Value{value.Text("x")}})

	got := resultSetToCSV(rs, map[string]string{"header": "false", "delimiter": ";"})
	if got != "x\n" {
		t.Errorf("resultSetToCSV with options = %q, want %q", got, "x\n")
	}
}

func TestResultSetToJSON(t *testing.T) {
	rs := value.New([]value.Column{
		{Name: "id", DeclaredType: "INTEGER", Ordinal: 0},
		{Name: "active", DeclaredType: "BOOLEAN", Ordinal: 1},
	})
	rs.AddRow(value.Row{Values: []value.Value{value.Integer(1), value.Boolean(true)}})

	raw, err := resultSetToJSON(rs)
	if err != nil {
		t.Fatalf("resultSetToJSON returned error: %v", err)
	}
	got := string(raw)
	if !strings.Contains(got, `"id":1`) || !strings.Contains(got, `"active":true`) {
		t.Errorf("resultSetToJSON = %s, missing expected fields", got)
	}
}

func TestJSONColumnTypeInference(t *testing.T) {
	input := `[{"id":1,"score":1.5,"active":true,"name":"a","meta":{"k":"v"}}]`

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(input), &elements); err != nil {
		t.Fatalf("failed to decode test fixture: %v", err)
	}

	columns, err := orderedObjectKeys(elements[0])
	if err != nil {
		t.Fatalf("orderedObjectKeys returned error: %v", err)
	}
	obj, err := decodeObject(elements[0])
	if err != nil {
		t.Fatalf("decodeObject returned error: %v", err)
	}

	want := map[string]string{
		"id":     "INTEGER",
		"score":  "REAL",
		"active": "INTEGER",
		"name":   "TEXT",
		"meta":   "TEXT",
	}
	for _, col := range columns {
		got := jsonColumnType(obj[col])
		if got != want[col] {
			t.Errorf("column %q type = %s, want %s", col, got, want[col])
		}
	}
}
