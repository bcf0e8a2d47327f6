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

package mixins

import (
	"context"
	"fmt"
	"strings"

	"github.com/aaronlmathis/gofeature/core"
)

// Package mixins provides reusable, composable sample post-processors.
//
// Mixins run after all field readers and derive additional entries from the
// merged sample. The returned entries merge back into the sample with
// last-write-wins semantics, so a mixin may also overwrite an existing key.
// All constructors return core.Mixin implementations.

// Constant creates a mixin that sets a fixed value under the given key.
// Useful for tagging samples with a split name or dataset version.
func Constant(key string, value interface{}) core.Mixin {
	return core.MixinFunc(func(ctx context.Context, sample core.Sample) (core.Sample, error) {
		return core.Sample{key: value}, nil
	})
}

// Copy creates a mixin that duplicates an existing sample entry under a new key.
// Missing source keys are an error: a copy of nothing indicates a miswired composition.
func Copy(from, to string) core.Mixin {
	return core.MixinFunc(func(ctx context.Context, sample core.Sample) (core.Sample, error) {
		value, exists := sample[from]
		if !exists {
			return nil, fmt.Errorf("copy mixin: sample key %q not found", from)
		}
		return core.Sample{to: value}, nil
	})
}

// Concat creates a mixin that joins the string representations of the given
// sample keys with a separator and stores the result under out.
func Concat(out, separator string, keys ...string) core.Mixin {
	return core.MixinFunc(func(ctx context.Context, sample core.Sample) (core.Sample, error) {
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			value, exists := sample[key]
			if !exists {
				return nil, fmt.Errorf("concat mixin: sample key %q not found", key)
			}
			parts = append(parts, fmt.Sprintf("%v", value))
		}
		return core.Sample{out: strings.Join(parts, separator)}, nil
	})
}

// Sum creates a mixin that stores the float64 sum of the given numeric sample
// keys under out. Non-numeric values are an error.
func Sum(out string, keys ...string) core.Mixin {
	return core.MixinFunc(func(ctx context.Context, sample core.Sample) (core.Sample, error) {
		var total float64
		for _, key := range keys {
			value, exists := sample[key]
			if !exists {
				return nil, fmt.Errorf("sum mixin: sample key %q not found", key)
			}
			f, err := toFloat64(value)
			if err != nil {
				return nil, fmt.Errorf("sum mixin: key %q: %w", key, err)
			}
			total += f
		}
		return core.Sample{out: total}, nil
	})
}

// Scale creates a mixin that multiplies a numeric or vector-valued entry by
// factor, overwriting it in place. Vector entries ([]float32) scale
// element-wise into a new slice.
func Scale(key string, factor float64) core.Mixin {
	return core.MixinFunc(func(ctx context.Context, sample core.Sample) (core.Sample, error) {
		value, exists := sample[key]
		if !exists {
			return nil, fmt.Errorf("scale mixin: sample key %q not found", key)
		}

		if vec, ok := value.([]float32); ok {
			scaled := make([]float32, len(vec))
			for i, v := range vec {
				scaled[i] = v * float32(factor)
			}
			return core.Sample{key: scaled}, nil
		}

		f, err := toFloat64(value)
		if err != nil {
			return nil, fmt.Errorf("scale mixin: key %q: %w", key, err)
		}
		return core.Sample{key: f * factor}, nil
	})
}

// Derive creates a mixin that computes a value from the whole sample and
// stores it under key. The function receives the merged sample and must not
// mutate it.
func Derive(key string, fn func(core.Sample) (interface{}, error)) core.Mixin {
	return core.MixinFunc(func(ctx context.Context, sample core.Sample) (core.Sample, error) {
		value, err := fn(sample)
		if err != nil {
			return nil, fmt.Errorf("derive mixin: key %q: %w", key, err)
		}
		return core.Sample{key: value}, nil
	})
}

// toFloat64 widens numeric sample values to float64.
func toFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", value)
	}
}
