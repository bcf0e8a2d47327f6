//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of GoFeature.
//
// GoFeature is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GoFeature is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GoFeature. If not, see https://www.gnu.org/licenses/.

// Package validate provides sample quality validation.
//
// A SampleValidator observes materialized samples one at a time and enforces
// the consistency properties training loaders assume: every sample carries
// the same keys, each key keeps the same Go type across samples, and vector
// features keep a stable length. Violations surface as errors before the
// dataset reaches a trainer that would fail on batch collation.
package validate

import (
	"fmt"
	"reflect"
)

// ValidationError provides structured error information for sample validation failures.
type ValidationError struct {
	Sample int    // Index of the offending sample (0-based observation order)
	Key    string // Sample key that failed validation
	Err    error  // Underlying error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("sample %d key %q: %v", e.Sample, e.Key, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// SampleValidator checks cross-sample consistency. The first observed sample
// fixes the expected key set, per-key types, and vector lengths; later
// samples must match.
type SampleValidator struct {
	requiredKeys  []string
	allowMissing  bool
	checkVectors  bool
	observed      int
	expectedKinds map[string]reflect.Type
	vectorLengths map[string]int
}

// ValidatorOption is a functional option for SampleValidator.
type ValidatorOption func(*SampleValidator)

// WithRequiredKeys sets keys that must be present and non-nil in every sample.
func WithRequiredKeys(keys ...string) ValidatorOption {
	return func(v *SampleValidator) {
		v.requiredKeys = make([]string, len(keys))
		copy(v.requiredKeys, keys)
	}
}

// WithAllowMissing permits samples to omit keys seen in earlier samples.
// Required keys still apply.
func WithAllowMissing(allow bool) ValidatorOption {
	return func(v *SampleValidator) {
		v.allowMissing = allow
	}
}

// WithVectorLengthCheck enables or disables vector length consistency
// checking. Enabled by default.
func WithVectorLengthCheck(check bool) ValidatorOption {
	return func(v *SampleValidator) {
		v.checkVectors = check
	}
}

// NewSampleValidator creates a sample validator with the given options.
func NewSampleValidator(options ...ValidatorOption) *SampleValidator {
	v := &SampleValidator{
		checkVectors:  true,
		expectedKinds: make(map[string]reflect.Type),
		vectorLengths: make(map[string]int),
	}
	for _, option := range options {
		option(v)
	}
	return v
}

// Check validates one sample against what previous samples established.
// Samples must be presented in a single goroutine.
func (v *SampleValidator) Check(sample map[string]interface{}) error {
	idx := v.observed
	v.observed++

	for _, key := range v.requiredKeys {
		value, exists := sample[key]
		if !exists {
			return &ValidationError{Sample: idx, Key: key, Err: fmt.Errorf("required key missing")}
		}
		if value == nil {
			return &ValidationError{Sample: idx, Key: key, Err: fmt.Errorf("required key is nil")}
		}
	}

	if !v.allowMissing && idx > 0 {
		for key := range v.expectedKinds {
			if _, exists := sample[key]; !exists {
				return &ValidationError{Sample: idx, Key: key, Err: fmt.Errorf("key present in earlier samples is missing")}
			}
		}
	}

	for key, value := range sample {
		if value == nil {
			continue
		}

		valueType := reflect.TypeOf(value)
		if expected, seen := v.expectedKinds[key]; seen {
			if valueType != expected {
				return &ValidationError{
					Sample: idx,
					Key:    key,
					Err:    fmt.Errorf("type %s does not match earlier type %s", valueType, expected),
				}
			}
		} else {
			v.expectedKinds[key] = valueType
		}

		if v.checkVectors {
			if length, ok := vectorLength(value); ok {
				if expected, seen := v.vectorLengths[key]; seen {
					if length != expected {
						return &ValidationError{
							Sample: idx,
							Key:    key,
							Err:    fmt.Errorf("vector length %d does not match earlier length %d", length, expected),
						}
					}
				} else {
					v.vectorLengths[key] = length
				}
			}
		}
	}

	return nil
}

// Observed returns the number of samples checked so far.
func (v *SampleValidator) Observed() int {
	return v.observed
}

// Reset clears all learned expectations for reuse on a new dataset.
func (v *SampleValidator) Reset() {
	v.observed = 0
	v.expectedKinds = make(map[string]reflect.Type)
	v.vectorLengths = make(map[string]int)
}

// vectorLength reports the length of vector-valued features.
func vectorLength(value interface{}) (int, bool) {
	switch v := value.(type) {
	case []float32:
		return len(v), true
	case []float64:
		return len(v), true
	case []int32:
		return len(v), true
	case []int64:
		return len(v), true
	default:
		return 0, false
	}
}
