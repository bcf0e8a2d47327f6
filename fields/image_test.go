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

// fakeBuffer stands in for a decoded image in tests.
type fakeBuffer struct {
	name      string
	grayscale bool
}

// TestImageReader_Delegation tests that the reader forwards its configuration
// to the decode collaborator and wraps the returned buffer
func TestImageReader_Delegation(t *testing.T) {
	var gotName, gotBase string
	var gotGray bool

	decoder := DecoderFunc(func(ctx context.Context, name, basePath string, grayscale bool) (interface{}, error) {
		gotName, gotBase, gotGray = name, basePath, grayscale
		return &fakeBuffer{name: name, grayscale: grayscale}, nil
	})

	reader, err := NewImageReader("image_path", "features", decoder,
		WithImageBasePath("/data/images"),
		WithImageGrayscale(true),
	)
	require.NoError(t, err)

	sample, err := reader.Apply(context.Background(), core.Record{"image_path": "cat_001.jpg"})
	require.NoError(t, err)

	assert.Equal(t, "cat_001.jpg", gotName)
	assert.Equal(t, "/data/images", gotBase)
	assert.True(t, gotGray)

	buf, ok := sample["features"].(*fakeBuffer)
	require.True(t, ok)
	assert.Equal(t, "cat_001.jpg", buf.name)
	assert.True(t, buf.grayscale)
}

// TestImageReader_DecoderErrorPropagates tests that collaborator failures
// surface unchanged through Unwrap
func TestImageReader_DecoderErrorPropagates(t *testing.T) {
	decodeErr := errors.New("no such file: dog_404.jpg")
	decoder := DecoderFunc(func(ctx context.Context, name, basePath string, grayscale bool) (interface{}, error) {
		return nil, decodeErr
	})

	reader, err := NewImageReader("image_path", "features", decoder)
	require.NoError(t, err)

	sample, err := reader.Apply(context.Background(), core.Record{"image_path": "dog_404.jpg"})
	assert.Nil(t, sample)
	require.Error(t, err)
	assert.True(t, errors.Is(err, decodeErr))

	var fieldErr *core.FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "image", fieldErr.Reader)
}

// TestImageReader_MissingKey tests the hard-lookup behavior
func TestImageReader_MissingKey(t *testing.T) {
	decoder := DecoderFunc(func(ctx context.Context, name, basePath string, grayscale bool) (interface{}, error) {
		t.Fatal("decoder must not be called for a missing key")
		return nil, nil
	})

	reader, err := NewImageReader("image_path", "features", decoder)
	require.NoError(t, err)

	_, err = reader.Apply(context.Background(), core.Record{"other": 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMissingField))
}

// TestImageReader_NonStringIdentifier tests coercion of non-string identifiers
func TestImageReader_NonStringIdentifier(t *testing.T) {
	var gotName string
	decoder := DecoderFunc(func(ctx context.Context, name, basePath string, grayscale bool) (interface{}, error) {
		gotName = name
		return struct{}{}, nil
	})

	reader, err := NewImageReader("image_id", "features", decoder)
	require.NoError(t, err)

	_, err = reader.Apply(context.Background(), core.Record{"image_id": 12345})
	require.NoError(t, err)
	assert.Equal(t, "12345", gotName)
}

// TestImageReader_RequiresDecoder tests constructor validation
func TestImageReader_RequiresDecoder(t *testing.T) {
	reader, err := NewImageReader("image_path", "features", nil)
	assert.Nil(t, reader)
	assert.Error(t, err)
}
