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

package stats

import (
	"context"
	"io"
	"testing"

	"github.com/aaronlmathis/gofeature/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelDistribution(t *testing.T) {
	agg := NewLabelDistribution("label")
	ctx := context.Background()

	records := []core.Record{
		{"label": "cat"},
		{"label": "cat"},
		{"label": "dog"},
		{"label": nil},
		{},
	}
	for _, record := range records {
		require.NoError(t, agg.Add(ctx, record))
	}

	result, err := agg.Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), result["cat"])
	assert.Equal(t, int64(1), result["dog"])
	assert.Equal(t, int64(5), result["_total"])
	assert.Equal(t, int64(2), result["_missing"])
	assert.Equal(t, 2, agg.Classes())
}

func TestLabelDistribution_Weights(t *testing.T) {
	agg := NewLabelDistribution("label")
	ctx := context.Background()

	// 3 cats, 1 dog: dog is rarer so it gets the larger weight
	for i := 0; i < 3; i++ {
		require.NoError(t, agg.Add(ctx, core.Record{"label": "cat"}))
	}
	require.NoError(t, agg.Add(ctx, core.Record{"label": "dog"}))

	weights := agg.Weights()
	require.Len(t, weights, 2)
	assert.Greater(t, weights["dog"], weights["cat"])
	assert.InDelta(t, 2.0, weights["cat"]+weights["dog"], 1e-9)
}

func TestLabelDistribution_BalancedWeights(t *testing.T) {
	agg := NewLabelDistribution("label")
	ctx := context.Background()

	for _, label := range []string{"cat", "dog", "cat", "dog"} {
		require.NoError(t, agg.Add(ctx, core.Record{"label": label}))
	}

	weights := agg.Weights()
	assert.InDelta(t, 1.0, weights["cat"], 1e-9)
	assert.InDelta(t, 1.0, weights["dog"], 1e-9)
}

func TestLabelDistribution_Reset(t *testing.T) {
	agg := NewLabelDistribution("label")
	require.NoError(t, agg.Add(context.Background(), core.Record{"label": "cat"}))

	agg.Reset()

	result, err := agg.Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), result["_total"])
	assert.Equal(t, 0, agg.Classes())
}

func TestFieldSummary(t *testing.T) {
	agg := NewFieldSummary("confidence")
	ctx := context.Background()

	values := []interface{}{0.2, 0.4, 0.9, nil, "bad"}
	for _, v := range values {
		require.NoError(t, agg.Add(ctx, core.Record{"confidence": v}))
	}

	result, err := agg.Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), result["count"])
	assert.Equal(t, int64(2), result["missing"])
	assert.InDelta(t, 0.5, result["mean"].(float64), 1e-9)
	assert.Equal(t, 0.2, result["min"])
	assert.Equal(t, 0.9, result["max"])
}

func TestFieldSummary_Empty(t *testing.T) {
	agg := NewFieldSummary("confidence")

	result, err := agg.Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), result["count"])
	assert.NotContains(t, result, "mean")
}

// sliceSource feeds fixed records for Profile tests.
type sliceSource struct {
	records []core.Record
	index   int
}

func (s *sliceSource) Read(ctx context.Context) (core.Record, error) {
	if s.index >= len(s.records) {
		return nil, io.EOF
	}
	record := s.records[s.index]
	s.index++
	return record, nil
}

func (s *sliceSource) Close() error { return nil }

func TestProfile(t *testing.T) {
	source := &sliceSource{records: []core.Record{
		{"label": "cat", "confidence": 0.8},
		{"label": "dog", "confidence": 0.6},
		{"label": "cat", "confidence": 0.4},
	}}

	results, err := Profile(context.Background(), source, map[string]core.Aggregator{
		"labels":     NewLabelDistribution("label"),
		"confidence": NewFieldSummary("confidence"),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), results["labels"]["cat"])
	assert.Equal(t, int64(3), results["confidence"]["count"])
	assert.InDelta(t, 0.6, results["confidence"]["mean"].(float64), 1e-9)
}
