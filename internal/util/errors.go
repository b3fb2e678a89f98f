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

// Package util holds the error taxonomy shared by the parser, the source
// registry, and the executor.
package util

import "fmt"

// ErrorCategory groups error kinds by what an embedding should do with them:
// fix the input (Client) or treat it as an operational failure (Server).
type ErrorCategory string

const (
	CategoryClient ErrorCategory = "CLIENT_ERROR"
	CategoryServer ErrorCategory = "SERVER_ERROR"
)

// ToolboxError is the interface every XQL error satisfies.
type ToolboxError interface {
	error
	Category() ErrorCategory
	Unwrap() error
}

type baseError struct {
	Msg      string
	Cause    error
	category ErrorCategory
}

func (e *baseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *baseError) Category() ErrorCategory { return e.category }

func (e *baseError) Unwrap() error { return e.Cause }

// ParseError reports a malformed XQL statement at a specific line/column.
type ParseError struct {
	baseError
	Line   int
	Column int
}

var _ ToolboxError = (*ParseError)(nil)

func NewParseError(line, column int, msg string) *ParseError {
	return &ParseError{baseError: baseError{Msg: msg, category: CategoryClient}, Line: line, Column: column}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// SqlParserError reports a line that failed the generic SQL grammar fallback.
type SqlParserError struct{ baseError }

var _ ToolboxError = (*SqlParserError)(nil)

func NewSqlParserError(msg string, cause error) *SqlParserError {
	return &SqlParserError{baseError{Msg: msg, Cause: cause, category: CategoryClient}}
}

// UnknownCommand reports a statement keyword the parser does not recognize.
type UnknownCommand struct {
	baseError
	Name string
}

var _ ToolboxError = (*UnknownCommand)(nil)

func NewUnknownCommand(name string) *UnknownCommand {
	return &UnknownCommand{baseError: baseError{Msg: fmt.Sprintf("unknown command: %s", name), category: CategoryClient}, Name: name}
}

// UnknownSourceKind reports an OPTIONS(kind=...) value no config factory is
// registered for.
type UnknownSourceKind struct {
	baseError
	Kind string
}

var _ ToolboxError = (*UnknownSourceKind)(nil)

func NewUnknownSourceKind(kind string) *UnknownSourceKind {
	return &UnknownSourceKind{baseError: baseError{Msg: fmt.Sprintf("no source kind registered for %q", kind), category: CategoryClient}, Kind: kind}
}

// TemplateError reports a failure substituting session variables into a template.
type TemplateError struct{ baseError }

var _ ToolboxError = (*TemplateError)(nil)

func NewTemplateError(msg string, cause error) *TemplateError {
	return &TemplateError{baseError{Msg: msg, Cause: cause, category: CategoryClient}}
}

// SourceNotFound reports a reference to an alias absent from the source registry.
type SourceNotFound struct {
	baseError
	Alias string
}

var _ ToolboxError = (*SourceNotFound)(nil)

func NewSourceNotFound(alias string) *SourceNotFound {
	return &SourceNotFound{baseError: baseError{Msg: fmt.Sprintf("source not found: %s", alias), category: CategoryClient}, Alias: alias}
}

// SourceConflict reports an attempt to register an alias that already exists.
type SourceConflict struct {
	baseError
	Alias string
}

var _ ToolboxError = (*SourceConflict)(nil)

func NewSourceConflict(alias string) *SourceConflict {
	return &SourceConflict{baseError: baseError{Msg: fmt.Sprintf("source already registered: %s", alias), category: CategoryClient}, Alias: alias}
}

// UnsupportedFileType reports a file extension the CSV/analytical adapters cannot read.
type UnsupportedFileType struct {
	baseError
	Extension string
}

var _ ToolboxError = (*UnsupportedFileType)(nil)

func NewUnsupportedFileType(ext string) *UnsupportedFileType {
	return &UnsupportedFileType{baseError: baseError{Msg: fmt.Sprintf("unsupported file type: %s", ext), category: CategoryClient}, Extension: ext}
}

// SandboxViolation reports an IMPORT/EXPORT path or table name rejected by the sandbox.
type SandboxViolation struct {
	baseError
	Path string
}

var _ ToolboxError = (*SandboxViolation)(nil)

func NewSandboxViolation(path, reason string) *SandboxViolation {
	return &SandboxViolation{baseError: baseError{Msg: fmt.Sprintf("sandbox violation for %q: %s", path, reason), category: CategoryClient}, Path: path}
}

// QueryFailed reports a backend rejecting a query it was sent.
type QueryFailed struct{ baseError }

var _ ToolboxError = (*QueryFailed)(nil)

func NewQueryFailed(msg string, cause error) *QueryFailed {
	return &QueryFailed{baseError{Msg: msg, Cause: cause, category: CategoryServer}}
}

// BackendUnavailable reports a backend that could not be reached at all.
type BackendUnavailable struct{ baseError }

var _ ToolboxError = (*BackendUnavailable)(nil)

func NewBackendUnavailable(msg string, cause error) *BackendUnavailable {
	return &BackendUnavailable{baseError{Msg: msg, Cause: cause, category: CategoryServer}}
}

// IoError reports a filesystem failure during IMPORT/EXPORT or CSV scanning.
type IoError struct{ baseError }

var _ ToolboxError = (*IoError)(nil)

func NewIoError(msg string, cause error) *IoError {
	return &IoError{baseError{Msg: msg, Cause: cause, category: CategoryServer}}
}

// Internal reports a defect: an invariant the caller believed held did not.
type Internal struct{ baseError }

var _ ToolboxError = (*Internal)(nil)

func NewInternal(msg string, cause error) *Internal {
	return &Internal{baseError{Msg: msg, Cause: cause, category: CategoryServer}}
}
