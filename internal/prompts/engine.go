/*
 * This file is part of Loqa (https://github.com/loqalabs/loqa).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

// Package prompts resolves named prompt templates against interview
// configuration and per-call variables.
//
// Four placeholder kinds are recognised:
//
//	<cfg:key,default>  configuration value, default when the key is absent
//	<cfg-join:key>     configuration list joined with ", "
//	<cfg:key>          configuration value, empty when absent
//	<name>             call-supplied variable
//
// Keys may be dotted to reach into nested maps. A template is scanned once
// from left to right and substituted text is never scanned again, so a
// variable whose value contains "<cfg:x>" is emitted verbatim. Anything that
// does not form a known placeholder is copied through unchanged.
package prompts

import (
	"fmt"
	"strings"
)

const (
	cfgPrefix     = "cfg:"
	cfgJoinPrefix = "cfg-join:"
	listSeparator = ", "
)

// TemplateNotFoundError is returned when a key is absent from the template set.
type TemplateNotFoundError struct {
	Key string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("prompt template %q not found", e.Key)
}

// Vars holds call-supplied variables for <name> placeholders.
type Vars map[string]any

// Engine resolves templates from an immutable set against one configuration mapping.
type Engine struct {
	templates Set
	config    map[string]any
}

// NewEngine binds a template set to the configuration mapping used for
// <cfg:...> lookups.
func NewEngine(templates Set, config map[string]any) *Engine {
	if config == nil {
		config = map[string]any{}
	}
	return &Engine{templates: templates, config: config}
}

// Has reports whether key exists in the template set.
func (e *Engine) Has(key string) bool {
	_, ok := e.templates[key]
	return ok
}

// Resolve renders the template stored under key.
func (e *Engine) Resolve(key string, vars Vars) (string, error) {
	tmpl, ok := e.templates[key]
	if !ok {
		return "", &TemplateNotFoundError{Key: key}
	}
	return Render(tmpl, e.config, vars), nil
}

// Render substitutes placeholders in tmpl in a single pass.
func Render(tmpl string, config map[string]any, vars Vars) string {
	var b strings.Builder
	b.Grow(len(tmpl))

	rest := tmpl
	for {
		open := strings.IndexByte(rest, '<')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:open])
		rest = rest[open:]

		closing := strings.IndexByte(rest[1:], '>')
		if closing < 0 {
			b.WriteString(rest)
			break
		}
		body := rest[1 : closing+1]

		if value, ok := expand(body, config, vars); ok {
			b.WriteString(value)
			rest = rest[closing+2:]
			continue
		}

		// Not a placeholder: emit '<' and resume scanning after it so a
		// placeholder nested in literal angle brackets is still found.
		b.WriteByte('<')
		rest = rest[1:]
	}

	return b.String()
}

// expand interprets the text between '<' and '>'.
func expand(body string, config map[string]any, vars Vars) (string, bool) {
	switch {
	case strings.HasPrefix(body, cfgJoinPrefix):
		key := body[len(cfgJoinPrefix):]
		if !validKey(key) {
			return "", false
		}
		value, _ := Lookup(config, key)
		return stringify(value), true

	case strings.HasPrefix(body, cfgPrefix):
		arg := body[len(cfgPrefix):]
		key, def, hasDefault := strings.Cut(arg, ",")
		if !validKey(key) {
			return "", false
		}
		value, found := Lookup(config, key)
		if !found && hasDefault {
			return def, true
		}
		return stringify(value), true

	default:
		if vars == nil || !validKey(body) {
			return "", false
		}
		value, ok := vars[body]
		if !ok {
			return "", false
		}
		return stringify(value), true
	}
}

func validKey(key string) bool {
	return key != "" && !strings.ContainsAny(key, "<> \t\n")
}

// Lookup walks a dotted key through nested maps. A present key holding nil
// counts as absent.
func Lookup(config map[string]any, key string) (any, bool) {
	var current any = config
	for _, part := range strings.Split(key, ".") {
		switch m := current.(type) {
		case map[string]any:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			current = v
		case map[string]string:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			current = v
		default:
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, listSeparator)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, listSeparator)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
