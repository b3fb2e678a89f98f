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
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/wirednil/noctra-sub000/internal/sources"
)

func init() {
	if !sources.Register(SourceKind, newConfig) {
		panic("analytical: source kind already registered")
	}
}

// SourceConfig is the kind-tagged, OPTIONS-decoded configuration the source
// registry uses to build an analytical Source on demand.
type SourceConfig struct {
	Name   string `yaml:"name" validate:"required"`
	Path   string `yaml:"path"`   // empty means in-memory
	Preset string `yaml:"preset"` // "local" | "remote" | "minimal" | ""
	Cores  int    `yaml:"cores"`
}

var _ sources.Config = SourceConfig{}

func newConfig(ctx context.Context, name string, options map[string]string) (sources.Config, error) {
	actual := SourceConfig{Name: name}
	if err := sources.DecodeOptions(ctx, options, &actual); err != nil {
		return nil, err
	}
	return actual, nil
}

func (c SourceConfig) SourceConfigKind() string { return SourceKind }

func (c SourceConfig) Initialize(ctx context.Context, tracer trace.Tracer, name string) (sources.Source, error) {
	_, span := sources.InitConnectionSpan(ctx, tracer, SourceKind, name)
	defer span.End()

	engineConfig := resolvePreset(c.Preset, c.Cores)

	if c.Path == "" {
		return NewInMemoryWithConfig(engineConfig)
	}
	return NewWithFileWithConfig(c.Path, engineConfig)
}

func resolvePreset(preset string, cores int) Config {
	if cores < 1 {
		cores = 4
	}
	switch preset {
	case "remote":
		return Remote(cores)
	case "minimal":
		return Minimal()
	case "local":
		return Local(cores)
	default:
		return Config{}
	}
}
