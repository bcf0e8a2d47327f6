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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/gofeature/core"
)

// TestScalarReader_OneHot tests one-hot expansion of class labels
func TestScalarReader_OneHot(t *testing.T) {
	reader := NewScalarReader("x", "y", Int64, WithScalarOneHot(5))

	sample, err := reader.Apply(context.Background(), core.Record{"x": 3})
	require.NoError(t, err)

	assert.Equal(t, core.Sample{"y": []float32{0, 0, 0, 1, 0}}, sample)
}

// TestScalarReader_DefaultValue tests default substitution for absent keys
func TestScalarReader_DefaultValue(t *testing.T) {
	reader := NewScalarReader("x", "y", Float64, WithScalarDefault(2.0))

	sample, err := reader.Apply(context.Background(), core.Record{})
	require.NoError(t, err)

	assert.Equal(t, core.Sample{"y": 2.0}, sample)
}

// TestScalarReader_NegativeBypassesOneHot tests that negative scalars skip the
// one-hot expansion and come through raw
func TestScalarReader_NegativeBypassesOneHot(t *testing.T) {
	reader := NewScalarReader("x", "y", Int64, WithScalarOneHot(5))

	sample, err := reader.Apply(context.Background(), core.Record{"x": -1})
	require.NoError(t, err)

	assert.Equal(t, core.Sample{"y": int64(-1)}, sample)
}

// TestScalarReader_OneHotOutOfRange tests the defined out-of-range policy
func TestScalarReader_OneHotOutOfRange(t *testing.T) {
	reader := NewScalarReader("x", "y", Int64, WithScalarOneHot(5))

	sample, err := reader.Apply(context.Background(), core.Record{"x": 5})
	assert.Nil(t, sample)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrOneHotRange))

	var fieldErr *core.FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "scalar", fieldErr.Reader)
	assert.Equal(t, "x", fieldErr.Field)
}

// TestScalarReader_MissingWithoutDefault tests the undefined-scalar policy:
// a defined nil output, not an error
func TestScalarReader_MissingWithoutDefault(t *testing.T) {
	reader := NewScalarReader("x", "y", Float32)

	sample, err := reader.Apply(context.Background(), core.Record{})
	require.NoError(t, err)

	value, exists := sample["y"]
	assert.True(t, exists)
	assert.Nil(t, value)
}

// TestScalarReader_MissingWithoutDefaultBypassesOneHot ensures the one-hot path
// never runs for an undefined scalar
func TestScalarReader_MissingWithoutDefaultBypassesOneHot(t *testing.T) {
	reader := NewScalarReader("x", "y", Int32, WithScalarOneHot(4))

	sample, err := reader.Apply(context.Background(), core.Record{"other": 1})
	require.NoError(t, err)
	assert.Nil(t, sample["y"])
}

// TestScalarReader_TypeConversion tests coercion across input representations
func TestScalarReader_TypeConversion(t *testing.T) {
	ctx := context.Background()

	t.Run("string_to_int64", func(t *testing.T) {
		reader := NewScalarReader("x", "y", Int64)
		sample, err := reader.Apply(ctx, core.Record{"x": " 42 "})
		require.NoError(t, err)
		assert.Equal(t, int64(42), sample["y"])
	})

	t.Run("int_to_float32", func(t *testing.T) {
		reader := NewScalarReader("x", "y", Float32)
		sample, err := reader.Apply(ctx, core.Record{"x": 7})
		require.NoError(t, err)
		assert.Equal(t, float32(7), sample["y"])
	})

	t.Run("float_to_int32", func(t *testing.T) {
		reader := NewScalarReader("x", "y", Int32)
		sample, err := reader.Apply(ctx, core.Record{"x": 3.9})
		require.NoError(t, err)
		assert.Equal(t, int32(3), sample["y"])
	})

	t.Run("non_numeric_text", func(t *testing.T) {
		reader := NewScalarReader("x", "y", Int64)
		sample, err := reader.Apply(ctx, core.Record{"x": "not a number"})
		assert.Nil(t, sample)
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrTypeConversion))
	})

	t.Run("unconvertible_type", func(t *testing.T) {
		reader := NewScalarReader("x", "y", Float64)
		_, err := reader.Apply(ctx, core.Record{"x": []string{"nope"}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrTypeConversion))
	})
}

// TestScalarReader_NilValueUsesDefault tests that an explicit nil value is
// treated like an absent key
func TestScalarReader_NilValueUsesDefault(t *testing.T) {
	reader := NewScalarReader("x", "y", Int64, WithScalarDefault(9))

	sample, err := reader.Apply(context.Background(), core.Record{"x": nil})
	require.NoError(t, err)
	assert.Equal(t, int64(9), sample["y"])
}

// TestScalarReader_Determinism tests that repeated application yields identical
// output and leaves the record untouched
func TestScalarReader_Determinism(t *testing.T) {
	reader := NewScalarReader("x", "y", Int64, WithScalarOneHot(3))
	record := core.Record{"x": 1, "extra": "untouched"}

	first, err := reader.Apply(context.Background(), record)
	require.NoError(t, err)
	second, err := reader.Apply(context.Background(), record)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, core.Record{"x": 1, "extra": "untouched"}, record)
}

// TestScalarReader_Identity tests the reader's identity metadata
func TestScalarReader_Identity(t *testing.T) {
	reader := NewScalarReader("label", "targets", Float32)
	assert.Equal(t, "label", reader.Source())
	assert.Equal(t, "targets", reader.Output())
}

// BenchmarkScalarReader_OneHot benchmarks label expansion
func BenchmarkScalarReader_OneHot(b *testing.B) {
	reader := NewScalarReader("x", "y", Int64, WithScalarOneHot(1000))
	record := core.Record{"x": 512}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := reader.Apply(ctx, record); err != nil {
			b.Fatal(err)
		}
	}
}
