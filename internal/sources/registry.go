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

package sources

import (
	"github.com/wirednil/noctra-sub000/internal/util"
)

// Registry owns a set of named Sources and marks one "active". If sources is
// non-empty, active always points into it; the first registration becomes
// active; removing the active source promotes an arbitrary remaining one or
// clears active.
type Registry struct {
	sources map[string]Source
	active  string
	order   []string // insertion order, for ListSources
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register inserts source under alias. A registration made while no source
// is active (the first one, or the first after the registry was emptied)
// becomes active. Re-registering an existing alias
// replaces it without disturbing which alias is active.
func (r *Registry) Register(alias string, source Source) {
	if _, exists := r.sources[alias]; !exists {
		r.order = append(r.order, alias)
	}
	r.sources[alias] = source
	if r.active == "" {
		r.active = alias
	}
}

// Remove drops alias, erroring if absent. If alias was active, another
// registered entry (if any) is promoted.
func (r *Registry) Remove(alias string) error {
	if _, ok := r.sources[alias]; !ok {
		return util.NewSourceNotFound(alias)
	}
	delete(r.sources, alias)
	for i, a := range r.order {
		if a == alias {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.active == alias {
		r.active = ""
		for _, a := range r.order {
			r.active = a
			break
		}
	}
	return nil
}

func (r *Registry) Get(alias string) (Source, bool) {
	s, ok := r.sources[alias]
	return s, ok
}

// Active returns the currently active source, if any.
func (r *Registry) Active() (Source, bool) {
	if r.active == "" {
		return nil, false
	}
	s, ok := r.sources[r.active]
	return s, ok
}

// ActiveAlias returns the alias of the currently active source, if any.
func (r *Registry) ActiveAlias() (string, bool) {
	if r.active == "" {
		return "", false
	}
	return r.active, true
}

// SetActive changes which registered alias is active, erroring if alias is
// not registered.
func (r *Registry) SetActive(alias string) error {
	if _, ok := r.sources[alias]; !ok {
		return util.NewSourceNotFound(alias)
	}
	r.active = alias
	return nil
}

// AliasSourceType pairs an alias with its source's type, the shape
// SHOW SOURCES renders.
type AliasSourceType struct {
	Alias string
	Type  SourceType
}

// ListSources returns (alias, source_type) pairs in registration order.
func (r *Registry) ListSources() []AliasSourceType {
	out := make([]AliasSourceType, 0, len(r.order))
	for _, alias := range r.order {
		out = append(out, AliasSourceType{Alias: alias, Type: r.sources[alias].SourceType()})
	}
	return out
}

func (r *Registry) Len() int { return len(r.sources) }
