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

package session

import (
	"testing"

	"github.com/wirednil/noctra-sub000/internal/value"
)

func TestNewDefaults(t *testing.T) {
	s := New()
	if s.ID() == "" {
		t.Error("New() produced an empty id")
	}
	if s.DefaultSchema() != "main" {
		t.Errorf("DefaultSchema() = %q, want main", s.DefaultSchema())
	}
	if !s.IsActive() {
		t.Error("new session is not Active")
	}
}

func TestWithSchema(t *testing.T) {
	s := WithSchema("analytics")
	if s.DefaultSchema() != "analytics" {
		t.Errorf("DefaultSchema() = %q, want analytics", s.DefaultSchema())
	}
}

func TestVariableLifecycle(t *testing.T) {
	s := New()
	if _, ok := s.GetVariable("region"); ok {
		t.Fatal("GetVariable found a value before SetVariable was called")
	}

	s.SetVariable("region", value.Text("us-east"))
	got, ok := s.GetVariable("region")
	if !ok || got.ToDisplayString() != "us-east" {
		t.Fatalf("GetVariable() = %+v, %v, want us-east", got, ok)
	}

	s.RemoveVariable("region")
	if _, ok := s.GetVariable("region"); ok {
		t.Error("variable still present after RemoveVariable")
	}
}

func TestPositionalParameterIndexing(t *testing.T) {
	s := New()
	s.SetPositionalParameter(0, value.Integer(1))
	s.SetPositionalParameter(1, value.Integer(2))

	v, ok := s.GetPositionalParameter(0)
	if !ok || v.ToDisplayString() != "1" {
		t.Errorf("GetPositionalParameter(0) = %+v, %v, want 1", v, ok)
	}
	v, ok = s.GetParameter("$1")
	if !ok || v.ToDisplayString() != "1" {
		t.Errorf("GetParameter($1) = %+v, %v, want 1", v, ok)
	}
	v, ok = s.GetParameter("$2")
	if !ok || v.ToDisplayString() != "2" {
		t.Errorf("GetParameter($2) = %+v, %v, want 2", v, ok)
	}
}

func TestNamedParameter(t *testing.T) {
	s := New()
	s.SetNamedParameter("limit", value.Integer(10))

	v, ok := s.GetNamedParameter("limit")
	if !ok || v.ToDisplayString() != "10" {
		t.Errorf("GetNamedParameter(limit) = %+v, %v, want 10", v, ok)
	}
	v, ok = s.GetParameter(":limit")
	if !ok || v.ToDisplayString() != "10" {
		t.Errorf("GetParameter(:limit) = %+v, %v, want 10", v, ok)
	}
}

func TestClearParameters(t *testing.T) {
	s := New()
	s.SetNamedParameter("a", value.Integer(1))
	s.ClearParameters()
	if len(s.ListParameters()) != 0 {
		t.Errorf("ListParameters() len = %d after ClearParameters, want 0", len(s.ListParameters()))
	}
}

func TestCloneForOperationIsolatesMutations(t *testing.T) {
	s := New()
	s.SetVariable("a", value.Integer(1))

	clone := s.CloneForOperation()
	clone.SetVariable("a", value.Integer(2))
	clone.SetVariable("b", value.Integer(3))

	if got, _ := s.GetVariable("a"); got.ToDisplayString() != "1" {
		t.Errorf("original session's variable a = %q, want 1 (mutation leaked from clone)", got.ToDisplayString())
	}
	if _, ok := s.GetVariable("b"); ok {
		t.Error("original session sees variable added only to the clone")
	}
	if clone.ID() != s.ID() {
		t.Errorf("CloneForOperation() changed id: %q != %q", clone.ID(), s.ID())
	}
}

func TestSetErrorStateAndClearOnStateChange(t *testing.T) {
	s := New()
	s.SetErrorState("boom")
	if s.State() != StateError {
		t.Fatalf("State() = %v, want StateError", s.State())
	}
	if s.ErrorMessage() != "boom" {
		t.Errorf("ErrorMessage() = %q, want boom", s.ErrorMessage())
	}

	s.SetState(StateActive)
	if s.ErrorMessage() != "" {
		t.Errorf("ErrorMessage() = %q after leaving StateError, want empty", s.ErrorMessage())
	}
}

func TestReset(t *testing.T) {
	s := New()
	id := s.ID()
	s.SetVariable("a", value.Integer(1))
	s.SetNamedParameter("p", value.Integer(2))
	s.SetDefaultSchema("other")
	s.SetErrorState("boom")

	s.Reset()

	if s.ID() != id {
		t.Errorf("Reset() changed id: %q != %q", s.ID(), id)
	}
	if s.DefaultSchema() != "main" {
		t.Errorf("DefaultSchema() after Reset = %q, want main", s.DefaultSchema())
	}
	if !s.IsActive() {
		t.Error("session not Active after Reset")
	}
	if len(s.ListVariables()) != 0 || len(s.ListParameters()) != 0 {
		t.Error("Reset() left variables or parameters behind")
	}
}

func TestDebugInfoCounts(t *testing.T) {
	s := New()
	s.SetVariable("a", value.Integer(1))
	s.SetNamedParameter("p", value.Integer(2))

	info := s.DebugInfo()
	if info.VariableCount != 1 {
		t.Errorf("VariableCount = %d, want 1", info.VariableCount)
	}
	if info.ParameterCount != 1 {
		t.Errorf("ParameterCount = %d, want 1", info.ParameterCount)
	}
	if info.State != "Active" {
		t.Errorf("State = %q, want Active", info.State)
	}
}

func TestManagerCreateAndEnforceMaxSessions(t *testing.T) {
	m := NewManager(Config{MaxSessions: 1, AutoCleanup: true})

	s, err := m.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	if _, err := m.CreateSession(); err == nil {
		t.Error("CreateSession() over MaxSessions returned nil error")
	}
	if m.ActiveSessionsCount() != 1 {
		t.Errorf("ActiveSessionsCount() = %d, want 1", m.ActiveSessionsCount())
	}

	got, ok := m.GetSession(s.ID())
	if !ok || got.ID() != s.ID() {
		t.Errorf("GetSession(%q) = %+v, %v, want the created session", s.ID(), got, ok)
	}
}

func TestManagerRemoveAndCleanupFinished(t *testing.T) {
	m := NewManager(DefaultConfig())
	s1, _ := m.CreateSession()
	s2, _ := m.CreateSession()
	s2.SetState(StateFinished)

	removed := m.CleanupFinishedSessions()
	if removed != 1 {
		t.Errorf("CleanupFinishedSessions() = %d, want 1", removed)
	}
	if _, ok := m.GetSession(s2.ID()); ok {
		t.Error("finished session still present after cleanup")
	}
	if _, ok := m.GetSession(s1.ID()); !ok {
		t.Error("active session removed by cleanup")
	}

	m.RemoveSession(s1.ID())
	if m.ActiveSessionsCount() != 0 {
		t.Errorf("ActiveSessionsCount() = %d after RemoveSession, want 0", m.ActiveSessionsCount())
	}
}
