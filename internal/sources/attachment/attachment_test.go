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

package attachment

import "testing"

func TestConfigToSQL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "read-write sqlite",
			cfg:  Config{DbType: "sqlite", Path: "/data/app.db", Alias: "app"},
			want: "ATTACH '/data/app.db' AS app (TYPE sqlite);",
		},
		{
			name: "read-only",
			cfg:  Config{DbType: "sqlite", Path: "/data/ro.db", Alias: "ro", ReadOnly: true},
			want: "ATTACH '/data/ro.db' AS ro (TYPE sqlite READ_ONLY);",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ToSQL(); got != tt.want {
				t.Errorf("ToSQL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegistryRegisterReplacesExistingAlias(t *testing.T) {
	r := NewRegistry()
	r.Register(Config{Alias: "a", DbType: "sqlite", Path: "/one.db"})
	r.Register(Config{Alias: "a", DbType: "sqlite", Path: "/two.db"})

	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
	cfg, ok := r.Get("a")
	if !ok || cfg.Path != "/two.db" {
		t.Errorf("Get(a) = %+v, %v, want path /two.db", cfg, ok)
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register(Config{Alias: "a", DbType: "sqlite", Path: "/a.db"})

	cfg, ok := r.Unregister("a")
	if !ok || cfg.Path != "/a.db" {
		t.Fatalf("Unregister(a) = %+v, %v, want removed config", cfg, ok)
	}
	if r.Contains("a") {
		t.Error("registry still contains alias after Unregister")
	}
	if _, ok := r.Unregister("a"); ok {
		t.Error("second Unregister(a) returned ok=true, want false")
	}
}

func TestRegistryListInsertionOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(Config{Alias: "c", DbType: "sqlite", Path: "/c.db"})
	r.Register(Config{Alias: "a", DbType: "sqlite", Path: "/a.db"})
	r.Register(Config{Alias: "b", DbType: "sqlite", Path: "/b.db"})

	got := r.List()
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("List() len = %d, want %d", len(got), len(want))
	}
	for i, alias := range want {
		if got[i].Alias != alias {
			t.Errorf("List()[%d].Alias = %q, want %q", i, got[i].Alias, alias)
		}
	}
}

func TestRegistryToSQLCommandsLengthInvariant(t *testing.T) {
	r := NewRegistry()
	r.Register(Config{Alias: "a", DbType: "sqlite", Path: "/a.db"})
	r.Register(Config{Alias: "b", DbType: "sqlite", Path: "/b.db", ReadOnly: true})

	cmds := r.ToSQLCommands()
	if len(cmds) != r.Len() {
		t.Fatalf("len(ToSQLCommands()) = %d, want Len() = %d", len(cmds), r.Len())
	}
	want := []string{
		"ATTACH '/a.db' AS a (TYPE sqlite);",
		"ATTACH '/b.db' AS b (TYPE sqlite READ_ONLY);",
	}
	for i, w := range want {
		if cmds[i] != w {
			t.Errorf("ToSQLCommands()[%d] = %q, want %q", i, cmds[i], w)
		}
	}
}

func TestRegistrySerializeRoundTrip(t *testing.T) {
	r := NewRegistry()
	r.Register(Config{Alias: "a", DbType: "sqlite", Path: "/a.db"})
	r.Register(Config{Alias: "b", DbType: "sqlite", Path: "/b.db", ReadOnly: true})

	doc, err := r.Serialize()
	if err != nil {
		t.Fatalf("Serialize() returned error: %v", err)
	}

	restored := NewRegistry()
	if err := restored.LoadSerialized(doc); err != nil {
		t.Fatalf("LoadSerialized() returned error: %v", err)
	}
	if restored.Len() != 2 {
		t.Fatalf("restored Len() = %d, want 2", restored.Len())
	}
	for i, want := range r.ToSQLCommands() {
		if got := restored.ToSQLCommands()[i]; got != want {
			t.Errorf("restored ToSQLCommands()[%d] = %q, want %q", i, got, want)
		}
	}
}

func TestRegistryClearAndIsEmpty(t *testing.T) {
	r := NewRegistry()
	if !r.IsEmpty() {
		t.Fatal("new registry is not empty")
	}
	r.Register(Config{Alias: "a", DbType: "sqlite", Path: "/a.db"})
	if r.IsEmpty() {
		t.Error("registry reports empty after Register")
	}
	r.Clear()
	if !r.IsEmpty() || r.Len() != 0 {
		t.Errorf("Clear() left Len()=%d, IsEmpty()=%v", r.Len(), r.IsEmpty())
	}
}
