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

package filters

import (
	"context"
	"reflect"
	"regexp"
	"strings"

	"github.com/aaronlmathis/gofeature/core"
)

// Package filters provides reusable, composable annotation record filters.
//
// Filters run before field readers and decide which annotation records get
// materialized into samples. All constructors return core.Filter
// implementations.

// HasField creates a filter that includes records where the key is present,
// even if its value is nil.
func HasField(key string) core.Filter {
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		_, exists := record[key]
		return exists, nil
	})
}

// NotNull creates a filter that excludes records where the key is absent,
// nil, or an empty string.
func NotNull(key string) core.Filter {
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		value, exists := record[key]
		if !exists || value == nil {
			return false, nil
		}
		if str, ok := value.(string); ok && str == "" {
			return false, nil
		}
		return true, nil
	})
}

// Equals creates a filter that includes records where the key equals the expected value.
func Equals(key string, expected interface{}) core.Filter {
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		value, exists := record[key]
		if !exists {
			return false, nil
		}
		return reflect.DeepEqual(value, expected), nil
	})
}

// Split creates a filter that includes records whose "split" annotation
// matches the given split name (e.g., "train", "valid").
func Split(name string) core.Filter {
	return Equals("split", name)
}

// In creates a filter that includes records where the key's value is in the provided set.
func In(key string, values ...interface{}) core.Filter {
	valueSet := make(map[interface{}]bool, len(values))
	for _, v := range values {
		valueSet[v] = true
	}
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		value, exists := record[key]
		if !exists {
			return false, nil
		}
		return valueSet[value], nil
	})
}

// Contains creates a filter that includes records where the string value contains the substring.
func Contains(key, substring string) core.Filter {
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		value, exists := record[key]
		if !exists {
			return false, nil
		}
		if str, ok := value.(string); ok {
			return strings.Contains(str, substring), nil
		}
		return false, nil
	})
}

// MatchesRegex creates a filter that includes records where the string value
// matches the pattern. The pattern must compile; invalid patterns panic at
// construction time.
func MatchesRegex(key, pattern string) core.Filter {
	regex := regexp.MustCompile(pattern)
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		value, exists := record[key]
		if !exists {
			return false, nil
		}
		if str, ok := value.(string); ok {
			return regex.MatchString(str), nil
		}
		return false, nil
	})
}

// GreaterThan creates a filter that includes records where the numeric value exceeds threshold.
func GreaterThan(key string, threshold float64) core.Filter {
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		num, ok := numericValue(record, key)
		if !ok {
			return false, nil
		}
		return num > threshold, nil
	})
}

// LessThan creates a filter that includes records where the numeric value is below threshold.
func LessThan(key string, threshold float64) core.Filter {
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		num, ok := numericValue(record, key)
		if !ok {
			return false, nil
		}
		return num < threshold, nil
	})
}

// Between creates a filter that includes records where the numeric value is
// within [min, max] inclusive.
func Between(key string, min, max float64) core.Filter {
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		num, ok := numericValue(record, key)
		if !ok {
			return false, nil
		}
		return num >= min && num <= max, nil
	})
}

// And creates a filter that requires all provided filters to pass.
func And(filters ...core.Filter) core.Filter {
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		for _, filter := range filters {
			include, err := filter.ShouldInclude(ctx, record)
			if err != nil {
				return false, err
			}
			if !include {
				return false, nil
			}
		}
		return true, nil
	})
}

// Or creates a filter that requires at least one of the provided filters to pass.
func Or(filters ...core.Filter) core.Filter {
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		for _, filter := range filters {
			include, err := filter.ShouldInclude(ctx, record)
			if err != nil {
				return false, err
			}
			if include {
				return true, nil
			}
		}
		return false, nil
	})
}

// Not creates a filter that negates the provided filter.
func Not(filter core.Filter) core.Filter {
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		include, err := filter.ShouldInclude(ctx, record)
		if err != nil {
			return false, err
		}
		return !include, nil
	})
}

// Custom creates a filter from a user-provided predicate.
func Custom(predicate func(core.Record) bool) core.Filter {
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		return predicate(record), nil
	})
}

// numericValue extracts a record value as float64, reporting whether it was
// present and numeric.
func numericValue(record core.Record, key string) (float64, bool) {
	value, exists := record[key]
	if !exists {
		return 0, false
	}
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
