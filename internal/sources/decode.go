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
	"bytes"
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

var validate = validator.New()

// DecodeOptions decodes an XQL OPTIONS(...) map into out and checks out's
// `validate` struct tags. The map is rendered as a small YAML document so
// every adapter Config decodes through the same yaml-tagged path regardless
// of whether its values arrived from a statement or an embedding's file.
func DecodeOptions(ctx context.Context, options map[string]string, out any) error {
	if len(options) > 0 {
		doc, err := yaml.Marshal(options)
		if err != nil {
			return err
		}
		dec := yaml.NewDecoder(bytes.NewReader(doc))
		if err := dec.DecodeContext(ctx, out); err != nil {
			return err
		}
	}
	return validate.StructCtx(ctx, out)
}
