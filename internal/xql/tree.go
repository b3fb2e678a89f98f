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

import "time"

// ParameterKind tags how a parameter reference was spelled in the source.
type ParameterKind int

const (
	ParamPositional ParameterKind = iota
	ParamNamed
	ParamSessionVariable
	ParamTemplate
)

// Parameter is a trivially-extracted parameter reference: its spelled name
// (including prefix), its kind, an optional 1-based position (meaningful
// only for Positional), and its source location.
type Parameter struct {
	Name     string
	Kind     ParameterKind
	Position *int
	Line     int
	Column   int
}

// Metadata carries diagnostics about a parse: how long it took, how many
// lines were processed, which parser version ran, and any non-fatal warnings
// collected along the way.
type Metadata struct {
	ParsingTime    time.Duration
	LinesProcessed int
	ParserVersion  string
	Warnings       []string
}

// ParserVersion is stamped into every parse's metadata.
const ParserVersion = "1.0.0"

// Tree is the parser's complete output: the ordered statements, every
// extracted parameter reference, the unique set of session-variable names
// referenced as #name, and parse diagnostics.
type Tree struct {
	Statements       []Statement
	Parameters       []Parameter
	SessionVariables []string
	Metadata         Metadata

	seenVariables map[string]bool
}

// NewTree returns an empty Tree ready to accumulate statements.
func NewTree() *Tree {
	return &Tree{
		Metadata:      Metadata{ParserVersion: ParserVersion},
		seenVariables: make(map[string]bool),
	}
}

func (t *Tree) AddStatement(s Statement) {
	t.Statements = append(t.Statements, s)
}

func (t *Tree) AddParameter(p Parameter) {
	t.Parameters = append(t.Parameters, p)
}

// AddSessionVariable records name once; repeats are deduplicated.
func (t *Tree) AddSessionVariable(name string) {
	if t.seenVariables[name] {
		return
	}
	t.seenVariables[name] = true
	t.SessionVariables = append(t.SessionVariables, name)
}

func (t *Tree) AddWarning(msg string) {
	t.Metadata.Warnings = append(t.Metadata.Warnings, msg)
}

// GetParametersByKind filters Parameters by kind.
func (t *Tree) GetParametersByKind(kind ParameterKind) []Parameter {
	var out []Parameter
	for _, p := range t.Parameters {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

func (t *Tree) GetNamedParameters() []Parameter      { return t.GetParametersByKind(ParamNamed) }
func (t *Tree) GetPositionalParameters() []Parameter { return t.GetParametersByKind(ParamPositional) }
func (t *Tree) HasParameters() bool                  { return len(t.Parameters) > 0 }

// GetSQLStatements returns every Sql-kind statement's text, in order.
func (t *Tree) GetSQLStatements() []string {
	var out []string
	for _, s := range t.Statements {
		if s.IsSQL() {
			out = append(out, s.Text)
		}
	}
	return out
}

// ToSQL renders every statement back into its canonical-syntax line, one per
// entry, in source order. Used only by diagnostics and round-trip tests.
func (t *Tree) ToSQL() []string {
	out := make([]string, len(t.Statements))
	for i, s := range t.Statements {
		out[i] = s.ToSQL()
	}
	return out
}
