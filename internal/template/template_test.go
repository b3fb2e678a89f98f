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

package template

import (
	"testing"

	"github.com/wirednil/noctra-sub000/internal/value"
)

func TestSubstituteReplacesKnownVariable(t *testing.T) {
	vars := value.SessionVariables{"region": value.Text("us-east")}
	got := Substitute("SELECT * FROM t WHERE region = '#region'", vars)
	want := "SELECT * FROM t WHERE region = 'us-east'"
	if got != want {
		t.Errorf("Substitute() = %q, want %q", got, want)
	}
}

func TestSubstituteAbsentVariableBecomesEmpty(t *testing.T) {
	vars := value.SessionVariables{}
	got := Substitute("prefix#missing suffix", vars)
	if got != "prefix suffix" {
		t.Errorf("Substitute() = %q, want %q", got, "prefix suffix")
	}
}

// Substituting twice with the same variables is idempotent: a second pass over
// already-substituted text with no remaining "#name" tokens changes nothing.
func TestSubstituteIsIdempotentOnceResolved(t *testing.T) {
	vars := value.SessionVariables{"x": value.Integer(1)}
	once := Substitute("val=#x", vars)
	twice := Substitute(once, vars)
	if once != twice {
		t.Errorf("Substitute() not idempotent: %q != %q", once, twice)
	}
}

func TestProcessRichIf(t *testing.T) {
	vars := value.SessionVariables{"flag": value.Text("yes")}
	got, err := ProcessRich("{{#if flag}}included{{/if}}", vars)
	if err != nil {
		t.Fatalf("ProcessRich returned error: %v", err)
	}
	if got != "included" {
		t.Errorf("ProcessRich() = %q, want %q", got, "included")
	}

	got, err = ProcessRich("{{#if missing}}included{{/if}}", value.SessionVariables{})
	if err != nil {
		t.Fatalf("ProcessRich returned error: %v", err)
	}
	if got != "" {
		t.Errorf("ProcessRich() with missing var = %q, want empty", got)
	}
}

func TestProcessRichUnless(t *testing.T) {
	got, err := ProcessRich("{{#unless flag}}shown{{/unless}}", value.SessionVariables{})
	if err != nil {
		t.Fatalf("ProcessRich returned error: %v", err)
	}
	if got != "shown" {
		t.Errorf("ProcessRich() = %q, want %q", got, "shown")
	}

	vars := value.SessionVariables{"flag": value.Text("set")}
	got, err = ProcessRich("{{#unless flag}}shown{{/unless}}", vars)
	if err != nil {
		t.Fatalf("ProcessRich returned error: %v", err)
	}
	if got != "" {
		t.Errorf("ProcessRich() with set var = %q, want empty", got)
	}
}

func TestProcessRichEach(t *testing.T) {
	vars := value.SessionVariables{"items": value.Text("a,b,c")}
	got, err := ProcessRich("{{#each items}}[@this]{{/each}}", vars)
	if err != nil {
		t.Fatalf("ProcessRich returned error: %v", err)
	}
	want := "[a] [b] [c]"
	if got != want {
		t.Errorf("ProcessRich() = %q, want %q", got, want)
	}
}

func TestProcessRichUnbalancedDelimitersErrors(t *testing.T) {
	_, err := ProcessRich("{{#if flag}}body{{/if}", value.SessionVariables{})
	if err == nil {
		t.Error("ProcessRich() with unbalanced delimiters returned nil error")
	}
}

func TestProcessRichUnbalancedConstructErrors(t *testing.T) {
	_, err := ProcessRich("{{#if flag}}body{{/unless}}", value.SessionVariables{})
	if err == nil {
		t.Error("ProcessRich() with mismatched if/unless tags returned nil error")
	}
}
