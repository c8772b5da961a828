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
package util

import "fmt"

// ErrorCategory distinguishes the error kinds in the taxonomy, used by
// callers to pick an HTTP status or CLI exit behavior without type
// switching on concrete error types.
type ErrorCategory string

const (
	CategoryConfiguration  ErrorCategory = "CONFIGURATION_ERROR"
	CategoryQuery          ErrorCategory = "QUERY_ERROR"
	CategoryConnection     ErrorCategory = "CONNECTION_ERROR"
	CategoryNotImplemented ErrorCategory = "NOT_IMPLEMENTED_ERROR"
)

// MimirError is the interface all custom errors in this repository satisfy.
type MimirError interface {
	error
	Category() ErrorCategory
	Unwrap() error
}

// ConfigurationError is raised for missing, unparseable, or semantically
// invalid configuration: missing SQL, unknown connection, invalid column
// references, duplicate config files.
type ConfigurationError struct {
	Msg   string
	Cause error
}

var _ MimirError = &ConfigurationError{}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *ConfigurationError) Category() ErrorCategory { return CategoryConfiguration }

func (e *ConfigurationError) Unwrap() error { return e.Cause }

func NewConfigurationError(msg string, cause error) *ConfigurationError {
	return &ConfigurationError{Msg: msg, Cause: cause}
}

func NewConfigurationErrorf(cause error, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// QueryError is raised when a Source has no active connection or when
// internal SQL construction fails.
type QueryError struct {
	Msg   string
	Cause error
}

var _ MimirError = &QueryError{}

func (e *QueryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *QueryError) Category() ErrorCategory { return CategoryQuery }

func (e *QueryError) Unwrap() error { return e.Cause }

func NewQueryError(msg string, cause error) *QueryError {
	return &QueryError{Msg: msg, Cause: cause}
}

// ConnectionError is raised for backend transport or auth failures at
// execution time.
type ConnectionError struct {
	Msg   string
	Cause error
}

var _ MimirError = &ConnectionError{}

func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *ConnectionError) Category() ErrorCategory { return CategoryConnection }

func (e *ConnectionError) Unwrap() error { return e.Cause }

func NewConnectionError(msg string, cause error) *ConnectionError {
	return &ConnectionError{Msg: msg, Cause: cause}
}

// NotImplementedError is raised when the restricted-SQL translator
// encounters a CTE, subquery, or multi-statement input, or when a
// connection factory is asked for an unknown flavour or class.
type NotImplementedError struct {
	Msg   string
	Cause error
}

var _ MimirError = &NotImplementedError{}

func (e *NotImplementedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *NotImplementedError) Category() ErrorCategory { return CategoryNotImplemented }

func (e *NotImplementedError) Unwrap() error { return e.Cause }

func NewNotImplementedError(msg string) *NotImplementedError {
	return &NotImplementedError{Msg: msg}
}
