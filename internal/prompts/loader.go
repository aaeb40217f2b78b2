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

package prompts

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

// Set is a flat mapping of dotted template keys to template text.
type Set map[string]string

// Keys returns the template keys in sorted order.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Default returns the embedded template set.
func Default() (Set, error) {
	return Parse(defaultTemplates)
}

// Load returns the embedded template set, with entries from overridePath
// replacing defaults key by key. An empty overridePath loads defaults only.
func Load(overridePath string) (Set, error) {
	set, err := Default()
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded templates: %w", err)
	}
	if overridePath == "" {
		return set, nil
	}

	data, err := os.ReadFile(overridePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates %s: %w", overridePath, err)
	}
	overrides, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates %s: %w", overridePath, err)
	}
	for k, v := range overrides {
		set[k] = v
	}
	return set, nil
}

// Parse decodes a YAML document of nested template sections into a Set.
func Parse(data []byte) (Set, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	set := make(Set)
	if err := flatten("", raw, set); err != nil {
		return nil, err
	}
	return set, nil
}

func flatten(prefix string, node any, out Set) error {
	join := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "." + k
	}

	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			if err := flatten(join(k), v, out); err != nil {
				return err
			}
		}
	case map[any]any:
		for k, v := range n {
			if err := flatten(join(fmt.Sprint(k)), v, out); err != nil {
				return err
			}
		}
	case string:
		out[prefix] = n
	case nil:
		// empty section
	default:
		return fmt.Errorf("template %q: expected text, got %T", prefix, node)
	}
	return nil
}
