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

package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// ConfigKind distinguishes the three definition kinds a ConfigLoader
// serves, mirroring the original loader's CONFIG_TYPE enum.
type ConfigKind int

const (
	ConfigSource ConfigKind = iota
	ConfigDimension
	ConfigMetric
)

// ConfigLoader fetches raw, not-yet-validated configuration maps for
// sources, dimensions, and metrics, plus connection secrets. Catalog
// drives definition construction on top of whatever a ConfigLoader
// returns; FileConfigLoader is the only implementation shipped here,
// but the interface leaves room for others (e.g. a database-backed
// loader) without touching Catalog.
type ConfigLoader interface {
	Get(kind ConfigKind, name string) (map[string]any, error)
	GetAll(kind ConfigKind) (map[string]map[string]any, error)
	GetSecret(name string) (map[string]any, error)
}

// FileConfigLoader reads Mimir configuration from the local filesystem:
// a single multi-entry YAML file (or files) per the "sources" folder,
// one YAML file per dimension/metric name, and one JSON file per
// connection secret. Grounded on original_source's loaders.py
// FileConfigLoader.
type FileConfigLoader struct {
	SourceFolder     string
	DimensionsFolder string
	MetricsFolder    string
	SecretFolder     string // empty means secrets are unavailable
}

// NewFileConfigLoader builds a loader rooted at basePath, with secrets
// (if secretBasePath is non-empty) rooted separately, matching the
// CONFIGS_PATH / SECRETS_PATH environment variables.
func NewFileConfigLoader(basePath, secretBasePath string) *FileConfigLoader {
	return &FileConfigLoader{
		SourceFolder:     filepath.Join(basePath, "sources"),
		DimensionsFolder: filepath.Join(basePath, "dimensions"),
		MetricsFolder:    filepath.Join(basePath, "metrics"),
		SecretFolder:     secretBasePath,
	}
}

func (l *FileConfigLoader) folder(kind ConfigKind) string {
	switch kind {
	case ConfigSource:
		return l.SourceFolder
	case ConfigDimension:
		return l.DimensionsFolder
	case ConfigMetric:
		return l.MetricsFolder
	default:
		return ""
	}
}

// configFiles globs <pattern>.{yaml,yml} within kind's folder.
func configFiles(dir, pattern string) ([]string, error) {
	var matches []string
	for _, ext := range []string{"yaml", "yml"} {
		found, err := filepath.Glob(filepath.Join(dir, pattern+"."+ext))
		if err != nil {
			return nil, err
		}
		matches = append(matches, found...)
	}
	return matches, nil
}

func loadYAMLFile(path string) (map[string]any, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := yaml.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return out, nil
}

// sourcesConfigs loads every sources/*.{yaml,yml} file, each holding a
// map of source-name -> source config, and flattens them into a single
// map. Multiple files are allowed (and merged), unlike dimensions and
// metrics which are one-file-per-name.
func (l *FileConfigLoader) sourcesConfigs() (map[string]map[string]any, error) {
	files, err := configFiles(l.SourceFolder, "*")
	if err != nil {
		return nil, err
	}
	out := map[string]map[string]any{}
	for _, f := range files {
		doc, err := loadYAMLFile(f)
		if err != nil {
			return nil, err
		}
		for name, raw := range doc {
			cfg, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("source %q in %s is not a mapping", name, f)
			}
			if _, ok := cfg["name"]; !ok {
				cfg["name"] = name
			}
			out[name] = cfg
		}
	}
	return out, nil
}

// Get fetches one named config. For dimensions, a missing file returns
// (nil, nil) rather than an error — the caller (Catalog.GetDimension)
// synthesizes a stub, matching the original's FileNotFoundError ->
// empty-list-only-for-dimension special case.
func (l *FileConfigLoader) Get(kind ConfigKind, name string) (map[string]any, error) {
	if kind == ConfigSource {
		all, err := l.sourcesConfigs()
		if err != nil {
			return nil, err
		}
		return all[name], nil
	}

	files, err := configFiles(l.folder(kind), name)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		if kind == ConfigDimension {
			return nil, nil
		}
		return nil, fmt.Errorf("no file matching for configuration pattern: %s", name)
	}
	if len(files) > 1 {
		return nil, fmt.Errorf("multiple config matching for %s: %v", name, files)
	}
	return loadYAMLFile(files[0])
}

// GetAll fetches every config of a kind, keyed by name.
func (l *FileConfigLoader) GetAll(kind ConfigKind) (map[string]map[string]any, error) {
	if kind == ConfigSource {
		return l.sourcesConfigs()
	}

	files, err := configFiles(l.folder(kind), "*")
	if err != nil {
		return nil, err
	}
	out := map[string]map[string]any{}
	for _, f := range files {
		doc, err := loadYAMLFile(f)
		if err != nil {
			return nil, err
		}
		name, _ := doc["name"].(string)
		if name == "" {
			continue
		}
		out[name] = doc
	}
	return out, nil
}

// GetSecret reads <secretFolder>/<name>.json. It returns (nil, nil) if
// no secret folder is configured or the file doesn't exist, matching
// the original loader's non-fatal "secret not found" behavior.
func (l *FileConfigLoader) GetSecret(name string) (map[string]any, error) {
	if l.SecretFolder == "" {
		return nil, nil
	}
	path := filepath.Join(l.SecretFolder, name+".json")
	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("JSON secret %q is not a valid object: %w", name, err)
	}
	return out, nil
}
