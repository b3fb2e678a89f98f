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

// Package executor routes parsed XQL statements to the active source,
// session, and registries: the core's statement-dispatch table.
package executor

import "time"

// Config tunes the executor's own behavior, independent of any one backend's
// configuration.
type Config struct {
	// QueryTimeout bounds one execute_rql/execute_sql call via a context
	// deadline; enforcement beyond cancellation is delegated to the backend.
	QueryTimeout time.Duration
	// RowLimit caps rows returned from a single query; nil means unlimited.
	RowLimit *int
	// DebugMode adds a per-query completion log carrying row and parameter
	// counts on top of the always-on statement log.
	DebugMode bool
	// ContinueOnError, when true, lets a file-batch run proceed past a
	// statement execution failure instead of aborting the script.
	ContinueOnError bool
}

// DefaultConfig is a 30s timeout, a 1000-row cap, debug off, abort-on-error.
func DefaultConfig() Config {
	limit := 1000
	return Config{QueryTimeout: 30 * time.Second, RowLimit: &limit}
}
