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

// Package attachment is the declarative record of cross-database
// attachments the analytical backend restores after reconnection.
package attachment

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

// Config is one ATTACH'd database: its type (default "sqlite"), its path,
// the alias it is attached under, and whether it was attached read-only.
// It round-trips through github.com/goccy/go-yaml for the persistence hook
// an embedding may use to survive a process restart.
type Config struct {
	DbType   string `yaml:"db_type"`
	Path     string `yaml:"path"`
	Alias    string `yaml:"alias"`
	ReadOnly bool   `yaml:"read_only"`
}

// ToSQL renders the exact ATTACH statement for this entry:
// ATTACH '<path>' AS <alias> (TYPE <db_type>[ READ_ONLY]);
func (c Config) ToSQL() string {
	suffix := ""
	if c.ReadOnly {
		suffix = " READ_ONLY"
	}
	return fmt.Sprintf("ATTACH '%s' AS %s (TYPE %s%s);", c.Path, c.Alias, c.DbType, suffix)
}

// Registry is an ordered-by-insertion map of alias -> Config. Registering an
// existing alias replaces the prior entry.
type Registry struct {
	order   []string
	configs map[string]Config
}

func NewRegistry() *Registry {
	return &Registry{configs: make(map[string]Config)}
}

func (r *Registry) Register(cfg Config) {
	if _, exists := r.configs[cfg.Alias]; !exists {
		r.order = append(r.order, cfg.Alias)
	}
	r.configs[cfg.Alias] = cfg
}

// Unregister removes alias, returning the removed Config if present.
func (r *Registry) Unregister(alias string) (Config, bool) {
	cfg, ok := r.configs[alias]
	if !ok {
		return Config{}, false
	}
	delete(r.configs, alias)
	for i, a := range r.order {
		if a == alias {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return cfg, true
}

func (r *Registry) Get(alias string) (Config, bool) {
	cfg, ok := r.configs[alias]
	return cfg, ok
}

func (r *Registry) Contains(alias string) bool {
	_, ok := r.configs[alias]
	return ok
}

func (r *Registry) Len() int { return len(r.configs) }

func (r *Registry) IsEmpty() bool { return len(r.configs) == 0 }

// List returns every Config in registration order.
func (r *Registry) List() []Config {
	out := make([]Config, 0, len(r.order))
	for _, alias := range r.order {
		out = append(out, r.configs[alias])
	}
	return out
}

func (r *Registry) Clear() {
	r.order = nil
	r.configs = make(map[string]Config)
}

// Serialize renders every registered attachment, in registration order, as a
// YAML document: the persistable form an embedding may store across restarts
// and feed back through LoadSerialized before calling RestoreAttachments.
func (r *Registry) Serialize() ([]byte, error) {
	return yaml.Marshal(r.List())
}

// LoadSerialized replaces r's contents with the attachments in doc, a
// document previously produced by Serialize.
func (r *Registry) LoadSerialized(doc []byte) error {
	var configs []Config
	if err := yaml.Unmarshal(doc, &configs); err != nil {
		return err
	}
	r.Clear()
	for _, cfg := range configs {
		r.Register(cfg)
	}
	return nil
}

// ToSQLCommands renders every registered attachment's ATTACH statement, in
// an order compatible with sequential execution (no attachment depends on
// another, so registration order is used for determinism).
func (r *Registry) ToSQLCommands() []string {
	cmds := make([]string, 0, len(r.configs))
	for _, alias := range r.order {
		cmds = append(cmds, r.configs[alias].ToSQL())
	}
	return cmds
}
