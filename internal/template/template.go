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

// Package template substitutes session variables into SQL bodies before
// they reach any backend, plus an optional richer conditional/loop mode
// exposed for form templates.
package template

import (
	"regexp"
	"strings"

	"github.com/wirednil/noctra-sub000/internal/util"
	"github.com/wirednil/noctra-sub000/internal/value"
)

var sessionVarPattern = regexp.MustCompile(`#([A-Za-z_][A-Za-z0-9_]*)`)

// Substitute replaces every "#name" occurrence in text with the Value's
// display string when name is present in variables, or with the empty
// string when absent. Substitution is literal: no SQL-aware escaping is
// performed at this layer.
func Substitute(text string, variables value.SessionVariables) string {
	return sessionVarPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := match[1:]
		if v, ok := variables[name]; ok {
			return v.ToDisplayString()
		}
		return ""
	})
}

var (
	ifPattern     = regexp.MustCompile(`(?s)\{\{#if\s+([A-Za-z_][A-Za-z0-9_]*)\s*\}\}(.*?)\{\{/if\}\}`)
	unlessPattern = regexp.MustCompile(`(?s)\{\{#unless\s+([A-Za-z_][A-Za-z0-9_]*)\s*\}\}(.*?)\{\{/unless\}\}`)
	eachPattern   = regexp.MustCompile(`(?s)\{\{#each\s+([A-Za-z_][A-Za-z0-9_]*)\s*\}\}(.*?)\{\{/each\}\}`)
)

// ProcessRich applies the optional richer template mode: {{#if var}}...{{/if}},
// {{#unless var}}...{{/unless}}, and {{#each list}}...@this...{{/each}} (list
// is a comma-separated value), on top of plain "#name" substitution. It is
// not on the default execution path; it is exposed for form templates.
// Mismatched delimiters raise a TemplateError.
func ProcessRich(text string, variables value.SessionVariables) (string, error) {
	if err := validateBalance(text); err != nil {
		return "", err
	}

	result := text

	stringVars := make(map[string]string, len(variables))
	for k, v := range variables {
		stringVars[k] = v.ToDisplayString()
	}

	result = ifPattern.ReplaceAllStringFunc(result, func(match string) string {
		groups := ifPattern.FindStringSubmatch(match)
		name, content := groups[1], groups[2]
		if v, ok := stringVars[name]; ok && v != "" {
			return content
		}
		return ""
	})

	result = unlessPattern.ReplaceAllStringFunc(result, func(match string) string {
		groups := unlessPattern.FindStringSubmatch(match)
		name, content := groups[1], groups[2]
		if v, ok := stringVars[name]; !ok || v == "" {
			return content
		}
		return ""
	})

	result = eachPattern.ReplaceAllStringFunc(result, func(match string) string {
		groups := eachPattern.FindStringSubmatch(match)
		name, content := groups[1], groups[2]
		itemsStr, ok := stringVars[name]
		if !ok {
			return match
		}
		items := strings.Split(itemsStr, ",")
		rendered := make([]string, len(items))
		for i, item := range items {
			rendered[i] = strings.ReplaceAll(content, "@this", strings.TrimSpace(item))
		}
		return strings.Join(rendered, " ")
	})

	// Plain #name substitution runs last so the block tags above, whose
	// spellings also start with '#', are consumed before this pass sees them.
	return Substitute(result, variables), nil
}

// validateBalance checks overall "{{"/"}}" balance and per-construct
// open/close tag balance before any block is expanded.
func validateBalance(text string) error {
	if strings.Count(text, "{{") != strings.Count(text, "}}") {
		return util.NewTemplateError("unbalanced template delimiters", nil)
	}

	pairs := []struct {
		name, open, close string
	}{
		{"if", "{{#if", "{{/if}}"},
		{"unless", "{{#unless", "{{/unless}}"},
		{"each", "{{#each", "{{/each}}"},
	}
	for _, p := range pairs {
		if strings.Count(text, p.open) != strings.Count(text, p.close) {
			return util.NewTemplateError("unbalanced "+p.name+" conditionals", nil)
		}
	}
	return nil
}
