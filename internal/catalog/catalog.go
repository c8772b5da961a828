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
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/goccy/go-yaml"
	"go.opentelemetry.io/otel/trace"

	"github.com/mimirdata/mimir/internal/sources"
	"github.com/mimirdata/mimir/internal/util"
)

// DefaultTTL matches the original engine's @ttl_cache(60) decorator on
// every resolver method.
const DefaultTTL = 60 * time.Second

// Catalog resolves Source/Dimension/Metric definitions from a
// ConfigLoader, memoizing each resolution for TTL. It is the Go
// rendering of engine.py's MimirEngine.
type Catalog struct {
	Loader             ConfigLoader
	Tracer             trace.Tracer
	ValidateConnections bool

	cache *ttlCache
}

// NewCatalog builds a Catalog. If validateConnections is false, sources
// are resolved without opening real database connections, matching
// MimirEngine(validate_connections=False) for config validation without
// secrets.
func NewCatalog(loader ConfigLoader, tracer trace.Tracer, validateConnections bool) *Catalog {
	return &Catalog{
		Loader:              loader,
		Tracer:              tracer,
		ValidateConnections: validateConnections,
		cache:               newTTLCache(DefaultTTL),
	}
}

// GetSecret exposes the loader's secret fetch directly, uncached, since
// the original likewise leaves get_secret outside the ttl_cache.
func (c *Catalog) GetSecret(name string) (map[string]any, error) {
	return c.Loader.GetSecret(name)
}

func stringField(conf map[string]any, key string) string {
	v, _ := conf[key].(string)
	return v
}

func stringSliceField(conf map[string]any, key string) []string {
	raw, ok := conf[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// initSource builds a Source from a raw config map, optionally
// connecting it via the secret named by connection_name.
func (c *Catalog) initSource(ctx context.Context, conf map[string]any) (*Source, error) {
	connectionName := stringField(conf, "connection_name")
	name := stringField(conf, "name")
	if connectionName == "" {
		return nil, util.NewConfigurationError(
			fmt.Sprintf("The following source config is missing the required parameter 'connection_name': %v", conf), nil)
	}

	var conn sources.Source
	if c.ValidateConnections {
		secret, err := c.Loader.GetSecret(connectionName)
		if err != nil {
			return nil, util.NewConfigurationErrorf(err, "loading secret %q", connectionName)
		}
		if secret == nil {
			return nil, util.NewConfigurationError(
				fmt.Sprintf("Secret '%s' not found for source '%s'", connectionName, name), nil)
		}
		if host := os.Getenv("CONNECTION_HOST"); host != "" {
			secret["host"] = host
		}
		conn, err = c.buildConnection(ctx, connectionName, secret)
		if err != nil {
			return nil, err
		}
	}

	return NewSource(
		name,
		stringField(conf, "sql"),
		stringField(conf, "description"),
		stringField(conf, "time_col"),
		stringField(conf, "time_col_alias"),
		connectionName,
		stringSliceField(conf, "dimensions"),
		conn,
	)
}

// buildConnection decodes a secret map into a registered SourceConfig
// (keyed by its "kind" field) and initializes it.
func (c *Catalog) buildConnection(ctx context.Context, connectionName string, secret map[string]any) (sources.Source, error) {
	kind := stringField(secret, "kind")
	if kind == "" {
		return nil, util.NewConfigurationError(
			fmt.Sprintf("secret %q is missing required field 'kind'", connectionName), nil)
	}
	body, err := yaml.Marshal(secret)
	if err != nil {
		return nil, util.NewConfigurationErrorf(err, "re-marshaling secret %q", connectionName)
	}
	dec := yaml.NewDecoder(bytes.NewReader(body))
	cfg, err := sources.DecodeConfig(ctx, kind, connectionName, dec)
	if err != nil {
		return nil, util.NewConfigurationErrorf(err, "decoding connection %q", connectionName)
	}
	conn, err := cfg.Initialize(ctx, c.Tracer)
	if err != nil {
		return nil, util.NewConnectionError(fmt.Sprintf("initializing connection %q", connectionName), err)
	}
	return conn, nil
}

func (c *Catalog) initDimension(conf map[string]any) *Dimension {
	sourceName := stringField(conf, "source_name")
	if sourceName == "" {
		sourceName = "local"
	}
	return &Dimension{
		Name:        stringField(conf, "name"),
		SQL:         stringField(conf, "sql"),
		Description: stringField(conf, "description"),
		SourceName:  sourceName,
	}
}

func (c *Catalog) initMetric(ctx context.Context, conf map[string]any) (*Metric, error) {
	sourceName := stringField(conf, "source_name")
	if sourceName == "" {
		return nil, util.NewConfigurationError(
			fmt.Sprintf("The following metric config is missing the required parameter 'source_name': %v", conf), nil)
	}
	source, err := c.GetSource(ctx, sourceName)
	if err != nil {
		return nil, err
	}
	return NewMetric(
		stringField(conf, "name"),
		stringField(conf, "sql"),
		stringField(conf, "description"),
		sourceName,
		source,
		stringSliceField(conf, "required_dimensions"),
	)
}

// GetSource builds and returns a single Source by name, TTL-cached.
func (c *Catalog) GetSource(ctx context.Context, name string) (*Source, error) {
	v, err := c.cache.get("GetSource", argsKey(name), func() (any, error) {
		conf, err := c.Loader.Get(ConfigSource, name)
		if err != nil {
			return nil, util.NewConfigurationErrorf(err, "invalid or missing configuration for source '%s'", name)
		}
		if conf == nil {
			return nil, util.NewConfigurationError(fmt.Sprintf("Invalid or missing configuration for source '%s'", name), nil)
		}
		return c.initSource(ctx, conf)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Source), nil
}

// GetDimension builds and returns a single Dimension by name, TTL-
// cached. A missing config synthesizes a stub {name, source_name:
// "local"} — per the original's fallback dict, whose "source" key is
// never actually the Dimension field populated (that's "source_name",
// which defaults to "local" regardless of what the stub's "source" key
// says). This Go rendering preserves that: the stub's SourceName is
// always hard-coded "local".
func (c *Catalog) GetDimension(ctx context.Context, name string) (*Dimension, error) {
	v, err := c.cache.get("GetDimension", argsKey(name), func() (any, error) {
		conf, err := c.Loader.Get(ConfigDimension, name)
		if err != nil {
			return nil, err
		}
		if conf == nil {
			return &Dimension{Name: name, SourceName: "local"}, nil
		}
		return c.initDimension(conf), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dimension), nil
}

// GetMetric builds and returns a single Metric by name, TTL-cached.
func (c *Catalog) GetMetric(ctx context.Context, name string) (*Metric, error) {
	v, err := c.cache.get("GetMetric", argsKey(name), func() (any, error) {
		conf, err := c.Loader.Get(ConfigMetric, name)
		if err != nil {
			return nil, util.NewConfigurationErrorf(err, "invalid or missing configuration for metric '%s'", name)
		}
		if conf == nil {
			return nil, util.NewConfigurationError(fmt.Sprintf("Invalid or missing configuration for metric '%s'", name), nil)
		}
		return c.initMetric(ctx, conf)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Metric), nil
}

// GetSources builds and returns every Source, TTL-cached.
func (c *Catalog) GetSources(ctx context.Context) ([]*Source, error) {
	v, err := c.cache.get("GetSources", "", func() (any, error) {
		all, err := c.Loader.GetAll(ConfigSource)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(all))
		for name := range all {
			names = append(names, name)
		}
		sort.Strings(names)
		out := make([]*Source, 0, len(names))
		for _, name := range names {
			src, err := c.initSource(ctx, all[name])
			if err != nil {
				return nil, err
			}
			out = append(out, src)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*Source), nil
}

// GetDimensions builds and returns every Dimension, TTL-cached.
func (c *Catalog) GetDimensions(ctx context.Context) ([]*Dimension, error) {
	v, err := c.cache.get("GetDimensions", "", func() (any, error) {
		all, err := c.Loader.GetAll(ConfigDimension)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(all))
		for name := range all {
			names = append(names, name)
		}
		sort.Strings(names)
		out := make([]*Dimension, 0, len(names))
		for _, name := range names {
			out = append(out, c.initDimension(all[name]))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*Dimension), nil
}

// GetMetrics builds and returns every Metric, TTL-cached.
func (c *Catalog) GetMetrics(ctx context.Context) ([]*Metric, error) {
	v, err := c.cache.get("GetMetrics", "", func() (any, error) {
		all, err := c.Loader.GetAll(ConfigMetric)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(all))
		for name := range all {
			names = append(names, name)
		}
		sort.Strings(names)
		out := make([]*Metric, 0, len(names))
		for _, name := range names {
			m, err := c.initMetric(ctx, all[name])
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*Metric), nil
}

// SchemaEntry describes one source's queryable surface, as returned by
// GetSchema.
type SchemaEntry struct {
	Dimensions   []string `json:"dimensions"`
	Metrics      []string `json:"metrics"`
	TimeDimension string  `json:"time_dimension"`
}

// GetSchema returns a schema of all sources and their associated
// metrics and dimensions, TTL-cached. Per §9, a source's "dimensions"
// list here is exactly LocalDimensions + SourceDimensions — dimensions
// that are locally defined on some *other* source but also happen to
// be usable here are not discoverable through this listing. This
// mirrors the original's source.local_dimensions + source.
// source_dimensions, intentionally preserved.
func (c *Catalog) GetSchema(ctx context.Context) (map[string]SchemaEntry, error) {
	v, err := c.cache.get("GetSchema", "", func() (any, error) {
		srcs, err := c.GetSources(ctx)
		if err != nil {
			return nil, err
		}
		metrics, err := c.GetMetrics(ctx)
		if err != nil {
			return nil, err
		}
		out := map[string]SchemaEntry{}
		for _, s := range srcs {
			var metricNames []string
			for _, m := range metrics {
				if m.SourceName == s.Name {
					metricNames = append(metricNames, m.Name)
				}
			}
			dims := append([]string{}, s.LocalDimensions...)
			dims = append(dims, s.SourceDimensions...)
			out[s.Name] = SchemaEntry{
				Dimensions:    dims,
				Metrics:       metricNames,
				TimeDimension: s.TimeColAlias,
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]SchemaEntry), nil
}
