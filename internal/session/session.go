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

// Package session holds interactive session state: variables, bound
// parameters, the default schema, and a lifecycle state machine.
package session

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/wirednil/noctra-sub000/internal/value"
)

// State is the session's lifecycle state. The executor is the only writer;
// Suspended and Waiting are reserved for long-running forms outside the core.
type State int

const (
	StateActive State = iota
	StateWaiting
	StateFinished
	StateError
	StateSuspended
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "Active"
	case StateWaiting:
		return "Waiting"
	case StateFinished:
		return "Finished"
	case StateError:
		return "Error"
	case StateSuspended:
		return "Suspended"
	default:
		return "Unknown"
	}
}

// DebugInfo is a point-in-time snapshot returned by Session.DebugInfo.
type DebugInfo struct {
	ID             string
	DefaultSchema  string
	State          string
	ErrorMessage   string
	VariableCount  int
	ParameterCount int
}

// Session carries one interactive conversation's mutable state: session
// variables (#name), bound parameters (:name, $N), the default schema, and
// lifecycle state. Created by the executor, destroyed when the owning
// process/REPL ends.
type Session struct {
	id            string
	defaultSchema string
	state         State
	errorMessage  string
	variables     value.SessionVariables
	parameters    value.Parameters
}

const defaultSchemaName = "main"

// New creates a Session with a fresh id, default schema "main", and Active state.
func New() *Session {
	return &Session{
		id:            uuid.NewString(),
		defaultSchema: defaultSchemaName,
		state:         StateActive,
		variables:     value.SessionVariables{},
		parameters:    value.Parameters{},
	}
}

// WithSchema creates a Session whose default schema is set at construction.
func WithSchema(schema string) *Session {
	s := New()
	s.defaultSchema = schema
	return s
}

func (s *Session) ID() string            { return s.id }
func (s *Session) DefaultSchema() string { return s.defaultSchema }
func (s *Session) SetDefaultSchema(schema string) {
	s.defaultSchema = schema
}

func (s *Session) State() State { return s.state }

// SetState transitions the session's lifecycle state. Moving to any state
// other than StateError clears the error message; moving to StateError keeps
// the prior message (SetErrorState sets a new one).
func (s *Session) SetState(st State) {
	s.state = st
	if st != StateError {
		s.errorMessage = ""
	}
}

// SetErrorState transitions to StateError carrying msg.
func (s *Session) SetErrorState(msg string) {
	s.state = StateError
	s.errorMessage = msg
}

func (s *Session) ErrorMessage() string { return s.errorMessage }

func (s *Session) IsActive() bool { return s.state == StateActive }

// Variables

func (s *Session) SetVariable(name string, v value.Value) {
	s.variables[name] = v
}

func (s *Session) GetVariable(name string) (value.Value, bool) {
	v, ok := s.variables[name]
	return v, ok
}

func (s *Session) RemoveVariable(name string) {
	delete(s.variables, name)
}

// ListVariables returns the live variable map. Callers must not assume any
// iteration order.
func (s *Session) ListVariables() value.SessionVariables {
	return s.variables
}

// Parameters

func (s *Session) SetParameter(key string, v value.Value) {
	s.parameters[key] = v
}

func (s *Session) GetParameter(key string) (value.Value, bool) {
	v, ok := s.parameters[key]
	return v, ok
}

// SetPositionalParameter stores v under the 1-based key derived from a
// 0-based index ($1 for index 0, and so on).
func (s *Session) SetPositionalParameter(index int, v value.Value) {
	s.parameters[fmt.Sprintf("$%d", index+1)] = v
}

func (s *Session) GetPositionalParameter(index int) (value.Value, bool) {
	v, ok := s.parameters[fmt.Sprintf("$%d", index+1)]
	return v, ok
}

func (s *Session) SetNamedParameter(name string, v value.Value) {
	s.parameters[":"+name] = v
}

func (s *Session) GetNamedParameter(name string) (value.Value, bool) {
	v, ok := s.parameters[":"+name]
	return v, ok
}

func (s *Session) ClearParameters() {
	s.parameters = value.Parameters{}
}

func (s *Session) ListParameters() value.Parameters {
	return s.parameters
}

// CloneForOperation returns a shallow copy of s suitable for an isolated
// operation (e.g. a nested script run) that must not mutate the caller's
// variables or parameters.
func (s *Session) CloneForOperation() *Session {
	clone := &Session{
		id:            s.id,
		defaultSchema: s.defaultSchema,
		state:         s.state,
		errorMessage:  s.errorMessage,
		variables:     make(value.SessionVariables, len(s.variables)),
		parameters:    make(value.Parameters, len(s.parameters)),
	}
	for k, v := range s.variables {
		clone.variables[k] = v
	}
	for k, v := range s.parameters {
		clone.parameters[k] = v
	}
	return clone
}

// Reset drops all variables and parameters and restores the default schema,
// keeping the session's id.
func (s *Session) Reset() {
	s.variables = value.SessionVariables{}
	s.parameters = value.Parameters{}
	s.defaultSchema = defaultSchemaName
	s.state = StateActive
	s.errorMessage = ""
}

// DebugInfo returns a snapshot for diagnostics/logging.
func (s *Session) DebugInfo() DebugInfo {
	return DebugInfo{
		ID:             s.id,
		DefaultSchema:  s.defaultSchema,
		State:          s.state.String(),
		ErrorMessage:   s.errorMessage,
		VariableCount:  len(s.variables),
		ParameterCount: len(s.parameters),
	}
}
