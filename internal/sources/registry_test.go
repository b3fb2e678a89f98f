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
	"context"
	"testing"

	"github.com/wirednil/noctra-sub000/internal/value"
)

type fakeSource struct {
	name string
	typ  SourceType
}

var _ Source = (*fakeSource)(nil)

func (f *fakeSource) Query(context.Context, string, value.Parameters) (value.ResultSet, error) {
	return value.Empty(), nil
}
func (f *fakeSource) Schema(context.Context) ([]TableInfo, error) { return nil, nil }
func (f *fakeSource) SourceType() SourceType                      { return f.typ }
func (f *fakeSource) Name() string                                { return f.name }
func (f *fakeSource) Close() error                                { return nil }

func TestRegistryFirstRegistrationBecomesActive(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Active(); ok {
		t.Fatal("empty registry reports an active source")
	}

	r.Register("a", &fakeSource{name: "a"})
	active, ok := r.Active()
	if !ok || active.Name() != "a" {
		t.Fatalf("Active() = %+v, %v, want source a", active, ok)
	}

	r.Register("b", &fakeSource{name: "b"})
	active, _ = r.Active()
	if active.Name() != "a" {
		t.Errorf("second registration changed active source to %q, want a", active.Name())
	}
}

func TestRegistryInvariantActiveImpliesNonEmpty(t *testing.T) {
	r := NewRegistry()
	r.Register("a", &fakeSource{name: "a"})
	r.Register("b", &fakeSource{name: "b"})

	_, activeOK := r.Active()
	if activeOK != (r.Len() > 0) {
		t.Errorf("active=%v but Len()=%d", activeOK, r.Len())
	}
}

func TestRegistryRemoveActivePromotesAnother(t *testing.T) {
	r := NewRegistry()
	r.Register("a", &fakeSource{name: "a"})
	r.Register("b", &fakeSource{name: "b"})

	if err := r.Remove("a"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	active, ok := r.Active()
	if !ok || active.Name() != "b" {
		t.Fatalf("Active() = %+v, %v, want source b promoted", active, ok)
	}
}

func TestRegistryRemoveLastClearsActive(t *testing.T) {
	r := NewRegistry()
	r.Register("a", &fakeSource{name: "a"})
	if err := r.Remove("a"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if _, ok := r.Active(); ok {
		t.Error("expected no active source after removing the only entry")
	}
}

func TestRegistryRemoveUnknownAliasErrors(t *testing.T) {
	r := NewRegistry()
	if err := r.Remove("missing"); err == nil {
		t.Error("Remove(missing) returned nil error, want SourceNotFound")
	}
}

func TestRegistrySetActiveUnknownAliasErrors(t *testing.T) {
	r := NewRegistry()
	r.Register("a", &fakeSource{name: "a"})
	if err := r.SetActive("missing"); err == nil {
		t.Error("SetActive(missing) returned nil error, want SourceNotFound")
	}
}

func TestRegistryListSourcesInsertionOrder(t *testing.T) {
	r := NewRegistry()
	r.Register("c", &fakeSource{name: "c", typ: SourceType{Name: TypeCSV}})
	r.Register("a", &fakeSource{name: "a", typ: SourceType{Name: TypeSQLite}})
	r.Register("b", &fakeSource{name: "b", typ: SourceType{Name: TypeMemory}})

	got := r.ListSources()
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i, alias := range want {
		if got[i].Alias != alias {
			t.Errorf("ListSources()[%d].Alias = %q, want %q", i, got[i].Alias, alias)
		}
	}
}

func TestRegistryReRegisterSameAliasReplaces(t *testing.T) {
	r := NewRegistry()
	r.Register("a", &fakeSource{name: "a", typ: SourceType{Name: TypeCSV}})
	r.Register("a", &fakeSource{name: "a", typ: SourceType{Name: TypeJSON}})

	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
	got, _ := r.Get("a")
	if got.SourceType().Name != TypeJSON {
		t.Errorf("re-registering alias did not replace source type, got %v", got.SourceType().Name)
	}
}

func TestSourceTypeDisplayPath(t *testing.T) {
	if got := (SourceType{Name: TypeMemory}).DisplayPath(); got != "(in-memory)" {
		t.Errorf("Memory DisplayPath() = %q, want (in-memory)", got)
	}
	if got := (SourceType{Name: TypeCSV, Path: "/a/b.csv"}).DisplayPath(); got != "/a/b.csv" {
		t.Errorf("CSV DisplayPath() = %q, want /a/b.csv", got)
	}
}
