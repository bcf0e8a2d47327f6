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

package sources

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLSource_BasicFunctionality(t *testing.T) {
	data := `{"filepath":"images/cat.jpg","label":0}
{"filepath":"images/dog.jpg","label":1}
`
	mock := newMockReadCloser(data)
	source := NewJSONLSource(mock)

	ctx := context.Background()

	record, err := source.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "images/cat.jpg", record["filepath"])
	assert.Equal(t, float64(0), record["label"])

	record, err = source.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "images/dog.jpg", record["filepath"])

	_, err = source.Read(ctx)
	assert.Equal(t, io.EOF, err)

	require.NoError(t, source.Close())
	assert.True(t, mock.closed)
}

func TestJSONLSource_SkipsBlankLines(t *testing.T) {
	data := "{\"id\":1}\n\n   \n{\"id\":2}\n"
	source := NewJSONLSource(newMockReadCloser(data))

	ctx := context.Background()

	record, err := source.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(1), record["id"])

	record, err = source.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(2), record["id"])

	_, err = source.Read(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestJSONLSource_MalformedLine(t *testing.T) {
	data := "{\"id\":1}\nnot json\n"
	source := NewJSONLSource(newMockReadCloser(data))

	ctx := context.Background()

	_, err := source.Read(ctx)
	require.NoError(t, err)

	_, err = source.Read(ctx)
	require.Error(t, err)

	var jsonlErr *JSONLSourceError
	require.ErrorAs(t, err, &jsonlErr)
	assert.Equal(t, "unmarshal", jsonlErr.Op)
	assert.Equal(t, int64(2), jsonlErr.Line)
}

func TestJSONLSource_NestedValues(t *testing.T) {
	data := `{"filepath":"a.jpg","bbox":{"x":1,"y":2},"tags":["cat","indoor"]}
`
	source := NewJSONLSource(newMockReadCloser(data))

	record, err := source.Read(context.Background())
	require.NoError(t, err)
	assert.IsType(t, map[string]interface{}{}, record["bbox"])
	assert.IsType(t, []interface{}{}, record["tags"])
}

func TestJSONLSource_ContextCancellation(t *testing.T) {
	source := NewJSONLSource(newMockReadCloser("{\"id\":1}\n"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source.Read(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
