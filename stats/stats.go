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

// Package stats provides dataset-level aggregators over annotation records.
//
// Aggregators observe records one at a time and summarize label balance and
// numeric field distributions, which is how class imbalance and bad annotation
// ranges get caught before training. All types implement core.Aggregator.
package stats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/aaronlmathis/gofeature/core"
)

// LabelDistribution counts occurrences of each distinct label value under a
// record key. Labels are compared by their string representation.
type LabelDistribution struct {
	Key     string
	counts  map[string]int64
	total   int64
	missing int64
}

// NewLabelDistribution creates a label distribution aggregator for the given record key.
func NewLabelDistribution(key string) *LabelDistribution {
	return &LabelDistribution{
		Key:    key,
		counts: make(map[string]int64),
	}
}

// Add implements the core.Aggregator interface.
func (l *LabelDistribution) Add(ctx context.Context, record core.Record) error {
	l.total++
	value, exists := record[l.Key]
	if !exists || value == nil {
		l.missing++
		return nil
	}
	l.counts[fmt.Sprintf("%v", value)]++
	return nil
}

// Result implements the core.Aggregator interface. The returned record holds
// the per-label counts plus "_total" and "_missing" entries.
func (l *LabelDistribution) Result() (core.Record, error) {
	result := make(core.Record, len(l.counts)+2)
	for label, count := range l.counts {
		result[label] = count
	}
	result["_total"] = l.total
	result["_missing"] = l.missing
	return result, nil
}

// Reset implements the core.Aggregator interface.
func (l *LabelDistribution) Reset() {
	l.counts = make(map[string]int64)
	l.total = 0
	l.missing = 0
}

// Classes returns the number of distinct labels observed so far. The result
// can seed a scalar reader's one-hot width after a first pass over the index.
func (l *LabelDistribution) Classes() int {
	return len(l.counts)
}

// Weights returns inverse-frequency class weights normalized so they sum to
// the number of classes. A balanced dataset yields weight 1.0 per class.
func (l *LabelDistribution) Weights() map[string]float64 {
	weights := make(map[string]float64, len(l.counts))
	if len(l.counts) == 0 {
		return weights
	}

	var inverseSum float64
	for _, count := range l.counts {
		inverseSum += 1.0 / float64(count)
	}
	scale := float64(len(l.counts)) / inverseSum
	for label, count := range l.counts {
		weights[label] = scale / float64(count)
	}
	return weights
}

// FieldSummary computes count, sum, mean, min, and max for a numeric record
// key. Non-numeric and missing values count as missing.
type FieldSummary struct {
	Key     string
	count   int64
	missing int64
	sum     float64
	min     float64
	max     float64
}

// NewFieldSummary creates a numeric summary aggregator for the given record key.
func NewFieldSummary(key string) *FieldSummary {
	return &FieldSummary{
		Key: key,
		min: math.Inf(1),
		max: math.Inf(-1),
	}
}

// Add implements the core.Aggregator interface.
func (f *FieldSummary) Add(ctx context.Context, record core.Record) error {
	value, exists := record[f.Key]
	if !exists || value == nil {
		f.missing++
		return nil
	}

	num, err := toFloat64(value)
	if err != nil {
		f.missing++
		return nil
	}

	f.count++
	f.sum += num
	if num < f.min {
		f.min = num
	}
	if num > f.max {
		f.max = num
	}
	return nil
}

// Result implements the core.Aggregator interface.
func (f *FieldSummary) Result() (core.Record, error) {
	result := core.Record{
		"count":   f.count,
		"missing": f.missing,
		"sum":     f.sum,
	}
	if f.count > 0 {
		result["mean"] = f.sum / float64(f.count)
		result["min"] = f.min
		result["max"] = f.max
	}
	return result, nil
}

// Reset implements the core.Aggregator interface.
func (f *FieldSummary) Reset() {
	f.count = 0
	f.missing = 0
	f.sum = 0
	f.min = math.Inf(1)
	f.max = math.Inf(-1)
}

// Profile drains an annotation source through a set of aggregators and
// returns each aggregator's result keyed by name. The source is read to
// completion but not closed.
func Profile(ctx context.Context, source core.AnnotationSource, aggregators map[string]core.Aggregator) (map[string]core.Record, error) {
	for {
		record, err := source.Read(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if len(record) == 0 {
			continue
		}
		for name, agg := range aggregators {
			if err := agg.Add(ctx, record); err != nil {
				return nil, fmt.Errorf("aggregator %s: %w", name, err)
			}
		}
	}

	results := make(map[string]core.Record, len(aggregators))
	for name, agg := range aggregators {
		result, err := agg.Result()
		if err != nil {
			return nil, fmt.Errorf("aggregator %s: %w", name, err)
		}
		results[name] = result
	}
	return results, nil
}

func toFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
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
