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

package sinks

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/aaronlmathis/gofeature/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock writer for testing
type mockWriteCloser struct {
	*strings.Builder
	closed    bool
	failWrite bool
	failClose bool
}

func (m *mockWriteCloser) Write(p []byte) (int, error) {
	if m.failWrite {
		return 0, io.ErrUnexpectedEOF
	}
	return m.Builder.Write(p)
}

func (m *mockWriteCloser) Close() error {
	m.closed = true
	if m.failClose {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func newMockWriteCloser() *mockWriteCloser {
	return &mockWriteCloser{Builder: &strings.Builder{}}
}

func TestJSONLSink_BasicFunctionality(t *testing.T) {
	mock := newMockWriteCloser()
	sink := NewJSONLSink(mock)

	ctx := context.Background()
	sample := core.Sample{
		"image":   "images/cat.jpg",
		"targets": []float32{0, 1, 0},
	}

	require.NoError(t, sink.Write(ctx, sample))
	require.NoError(t, sink.Close())

	output := mock.String()
	assert.Contains(t, output, `"image":"images/cat.jpg"`)
	assert.Contains(t, output, `"targets":[0,1,0]`)
	assert.Contains(t, output, "\n")
	assert.True(t, mock.closed)
}

func TestJSONLSink_MultipleSamples(t *testing.T) {
	mock := newMockWriteCloser()
	sink := NewJSONLSink(mock)

	ctx := context.Background()
	samples := []core.Sample{
		{"id": 1, "caption": "a cat"},
		{"id": 2, "caption": "a dog"},
		{"id": 3, "caption": "a bird"},
	}

	for _, sample := range samples {
		require.NoError(t, sink.Write(ctx, sample))
	}
	require.NoError(t, sink.Close())

	lines := strings.Split(strings.TrimSpace(mock.String()), "\n")
	assert.Len(t, lines, 3)

	for i, line := range lines {
		var parsed core.Sample
		require.NoError(t, json.Unmarshal([]byte(line), &parsed))
		assert.Equal(t, samples[i]["caption"], parsed["caption"])
	}
}

func TestJSONLSink_VectorRoundTrip(t *testing.T) {
	mock := newMockWriteCloser()
	sink := NewJSONLSink(mock)

	sample := core.Sample{"targets": []float32{0, 0, 1, 0, 0}}
	require.NoError(t, sink.Write(context.Background(), sample))
	require.NoError(t, sink.Flush())

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(mock.String())), &parsed))

	vector, ok := parsed["targets"].([]interface{})
	require.True(t, ok)
	assert.Len(t, vector, 5)
	assert.Equal(t, float64(1), vector[2])
}

func TestJSONLSink_Stats(t *testing.T) {
	mock := newMockWriteCloser()
	sink := NewJSONLSink(mock)

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, sink.Write(ctx, core.Sample{"id": i}))
	}

	stats := sink.Stats()
	assert.Equal(t, int64(4), stats.SamplesWritten)
	assert.Equal(t, int64(len(mock.String())), stats.BytesWritten)
}

func TestJSONLSink_ErrorHandling(t *testing.T) {
	t.Run("write_error", func(t *testing.T) {
		mock := newMockWriteCloser()
		mock.failWrite = true
		sink := NewJSONLSink(mock)

		err := sink.Write(context.Background(), core.Sample{"id": 1})
		require.Error(t, err)

		var sinkErr *JSONLSinkError
		assert.ErrorAs(t, err, &sinkErr)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("marshal_error", func(t *testing.T) {
		mock := newMockWriteCloser()
		sink := NewJSONLSink(mock)

		err := sink.Write(context.Background(), core.Sample{"bad": make(chan int)})
		require.Error(t, err)

		var sinkErr *JSONLSinkError
		require.ErrorAs(t, err, &sinkErr)
		assert.Equal(t, "marshal", sinkErr.Op)
		assert.Empty(t, mock.String())
	})

	t.Run("close_error", func(t *testing.T) {
		mock := newMockWriteCloser()
		mock.failClose = true
		sink := NewJSONLSink(mock)

		assert.Error(t, sink.Close())
	})

	t.Run("cancelled_context", func(t *testing.T) {
		mock := newMockWriteCloser()
		sink := NewJSONLSink(mock)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := sink.Write(ctx, core.Sample{"id": 1})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestJSONLSink_FlushIsNoOpForPlainWriter(t *testing.T) {
	mock := newMockWriteCloser()
	sink := NewJSONLSink(mock)

	require.NoError(t, sink.Write(context.Background(), core.Sample{"id": 1}))
	require.NoError(t, sink.Flush())
	require.NoError(t, sink.Flush())

	lines := strings.Split(strings.TrimSpace(mock.String()), "\n")
	assert.Len(t, lines, 1)
}

func BenchmarkJSONLSink_Write(b *testing.B) {
	mock := newMockWriteCloser()
	sink := NewJSONLSink(mock)

	ctx := context.Background()
	sample := core.Sample{
		"image":   "images/cat.jpg",
		"targets": []float32{0, 0, 1},
		"caption": "a cat sitting on a mat",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := sink.Write(ctx, sample); err != nil {
			b.Fatal(err)
		}
	}
}
