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

package analytical

import (
	"fmt"
	"runtime"
)

// Config is a snapshot of the engine SET commands applied at construction.
type Config struct {
	MemoryLimit            *string `yaml:"memory_limit,omitempty" validate:"omitempty"`
	Threads                *int    `yaml:"threads,omitempty" validate:"omitempty,gt=0"`
	CatalogErrorMaxSchemas *int    `yaml:"catalog_error_max_schemas,omitempty"`
	EnableProfiling        bool    `yaml:"enable_profiling"`
}

// Local sizes threads to roughly the number of available cores; the
// analytical engine is expected to run alongside the interactive session on
// one machine.
func Local(cores int) Config {
	if cores < 1 {
		cores = runtime.NumCPU()
	}
	return Config{Threads: intPtr(cores)}
}

// Remote over-provisions threads (≈3x cores) to absorb network latency when
// the backend is accessed over a slow link to remote storage.
func Remote(cores int) Config {
	if cores < 1 {
		cores = runtime.NumCPU()
	}
	return Config{Threads: intPtr(cores * 3)}
}

// Minimal keeps memory and parallelism tight, for embedding in a
// resource-constrained process.
func Minimal() Config {
	limit := "256MB"
	return Config{MemoryLimit: &limit, Threads: intPtr(2)}
}

func intPtr(i int) *int { return &i }

// ToSQLCommands renders the engine SET commands this config implies.
func (c Config) ToSQLCommands() []string {
	var cmds []string
	if c.MemoryLimit != nil {
		cmds = append(cmds, fmt.Sprintf("SET memory_limit='%s';", *c.MemoryLimit))
	}
	if c.Threads != nil {
		cmds = append(cmds, fmt.Sprintf("SET threads=%d;", *c.Threads))
	}
	if c.CatalogErrorMaxSchemas != nil {
		cmds = append(cmds, fmt.Sprintf("SET catalog_error_max_schemas=%d;", *c.CatalogErrorMaxSchemas))
	}
	if c.EnableProfiling {
		cmds = append(cmds, "SET enable_profiling='query_tree';")
	}
	return cmds
}
