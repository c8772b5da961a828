// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/mimirdata/mimir/internal/sources"
)

// SourceConfigs maps a declared source name to its parsed, not-yet-
// connected configuration. Its custom unmarshaler peeks each entry's
// "kind" field and redispatches to that connection class's own decoder
// via the sources registry, the same two-pass trick the teacher's own
// tool/source config maps use for polymorphic YAML.
type SourceConfigs map[string]sources.SourceConfig

func (c *SourceConfigs) UnmarshalYAML(unmarshal func(any) error) error {
	raw := map[string]yaml.MapSlice{}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	out := SourceConfigs{}
	for name, entry := range raw {
		kind, err := mapSliceString(entry, "kind")
		if err != nil {
			return fmt.Errorf("source %q: %w", name, err)
		}
		body, err := yaml.Marshal(entry)
		if err != nil {
			return fmt.Errorf("source %q: re-marshaling: %w", name, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(body), yaml.Strict())
		cfg, err := sources.DecodeConfig(context.Background(), kind, name, dec)
		if err != nil {
			return fmt.Errorf("unable to parse source %q as %q: %w", name, kind, err)
		}
		out[name] = cfg
	}
	*c = out
	return nil
}

func mapSliceString(entry yaml.MapSlice, key string) (string, error) {
	for _, item := range entry {
		if k, ok := item.Key.(string); ok && k == key {
			v, ok := item.Value.(string)
			if !ok {
				return "", fmt.Errorf("field %q is not a string", key)
			}
			return v, nil
		}
	}
	return "", fmt.Errorf("missing required field %q", key)
}
