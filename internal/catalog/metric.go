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

import "github.com/mimirdata/mimir/internal/util"

// Metric is a numerical or aggregate value queryable against its Source.
type Metric struct {
	Name        string
	SQL         string
	Description string

	SourceName         string
	Source             *Source
	RequiredDimensions []string
}

func (m Metric) Kind() string    { return "metric" }
func (m Metric) GetName() string { return m.Name }

// NewMetric validates a metric's raw configuration, matching Metric's
// after-validation hook in the original definitions.
func NewMetric(name, sql, description, sourceName string, source *Source, requiredDimensions []string) (*Metric, error) {
	if sql == "" {
		return nil, util.NewConfigurationError("sql field is needed in the source config", nil)
	}
	return &Metric{
		Name:               name,
		SQL:                sql,
		Description:        description,
		SourceName:         sourceName,
		Source:             source,
		RequiredDimensions: requiredDimensions,
	}, nil
}
