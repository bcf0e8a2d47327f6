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

package fields

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aaronlmathis/gofeature/core"
)

// DType selects the numeric type a ScalarReader coerces values to.
type DType int

const (
	Float32 DType = iota
	Float64
	Int32
	Int64
)

// String returns the dtype name for error messages.
func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	default:
		return fmt.Sprintf("dtype(%d)", int(d))
	}
}

// ScalarOption configures a ScalarReader.
type ScalarOption func(*ScalarReader)

// WithScalarDefault sets the value substituted when the record key is absent
// or nil. The default is coerced like any looked-up value.
func WithScalarDefault(value interface{}) ScalarOption {
	return func(r *ScalarReader) {
		r.defaultValue = value
		r.hasDefault = true
	}
}

// WithScalarOneHot enables one-hot expansion: a non-negative coerced scalar is
// emitted as a []float32 of length classes with 1.0 at the scalar's index.
// Negative scalars bypass the expansion and are emitted raw; a scalar at or
// beyond classes is an error. Zero or negative classes disables the expansion.
func WithScalarOneHot(classes int) ScalarOption {
	return func(r *ScalarReader) { r.oneHotClasses = classes }
}

// ScalarReader resolves a numeric annotation field, with default substitution
// for absent keys and optional one-hot expansion for class labels.
//
// A key that is absent (or nil) with no default configured yields a nil sample
// value rather than an error; the scalar lookup is always a lookup-with-default.
type ScalarReader struct {
	FieldSpec
	dtype         DType
	defaultValue  interface{}
	hasDefault    bool
	oneHotClasses int
}

// NewScalarReader creates a ScalarReader extracting rowKey into dictKey,
// coercing values to dtype.
func NewScalarReader(rowKey, dictKey string, dtype DType, options ...ScalarOption) *ScalarReader {
	reader := &ScalarReader{
		FieldSpec: FieldSpec{RowKey: rowKey, DictKey: dictKey},
		dtype:     dtype,
	}
	for _, opt := range options {
		opt(reader)
	}
	return reader
}

// Apply implements the core.FieldReader interface.
func (r *ScalarReader) Apply(ctx context.Context, record core.Record) (core.Sample, error) {
	value, ok := record[r.RowKey]
	if !ok || value == nil {
		if !r.hasDefault {
			// Undefined scalar: a defined nil output, never a crash.
			return core.Sample{r.DictKey: nil}, nil
		}
		value = r.defaultValue
	}

	scalar, err := coerceScalar(value, r.dtype)
	if err != nil {
		return nil, &core.FieldError{
			Reader: "scalar",
			Field:  r.RowKey,
			Err:    fmt.Errorf("%w: %v", core.ErrTypeConversion, err),
		}
	}

	if r.oneHotClasses > 0 {
		if index, nonNegative := oneHotIndex(scalar); nonNegative {
			if index >= int64(r.oneHotClasses) {
				return nil, &core.FieldError{
					Reader: "scalar",
					Field:  r.RowKey,
					Err: fmt.Errorf("%w: index %d with %d classes",
						core.ErrOneHotRange, index, r.oneHotClasses),
				}
			}
			oneHot := make([]float32, r.oneHotClasses)
			oneHot[index] = 1.0
			return core.Sample{r.DictKey: oneHot}, nil
		}
	}

	return core.Sample{r.DictKey: scalar}, nil
}

// coerceScalar converts a record value to the configured dtype.
func coerceScalar(value interface{}, dtype DType) (interface{}, error) {
	switch dtype {
	case Float32:
		f, err := toFloat64(value)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case Float64:
		return toFloat64(value)
	case Int32:
		i, err := toInt64(value)
		if err != nil {
			return nil, err
		}
		return int32(i), nil
	case Int64:
		return toInt64(value)
	default:
		return nil, fmt.Errorf("unsupported dtype %s", dtype)
	}
}

// oneHotIndex reports the integral index for a coerced scalar and whether the
// scalar is non-negative (negative scalars bypass one-hot encoding).
func oneHotIndex(scalar interface{}) (int64, bool) {
	switch v := scalar.(type) {
	case int32:
		return int64(v), v >= 0
	case int64:
		return v, v >= 0
	case float32:
		return int64(v), v >= 0
	case float64:
		return int64(v), v >= 0
	default:
		return 0, false
	}
}

// toFloat64 attempts to convert a value to float64.
func toFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", value)
	}
}

// toInt64 attempts to convert a value to int64.
func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", value)
	}
}
