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
	"os"
	"path/filepath"

	"github.com/aaronlmathis/gofeature/core"
)

// Decoder resolves an image identifier into a decoded image buffer.
// Decoding is an external collaborator: GoFeature ships no image codec of its
// own. Implementations must be safe for concurrent use if the readers holding
// them are shared across goroutines.
type Decoder interface {
	// Decode loads the image named by name, resolved against basePath when
	// basePath is non-empty. It returns an opaque decoded buffer, or an error
	// on missing or corrupt input.
	Decode(ctx context.Context, name, basePath string, grayscale bool) (interface{}, error)
}

// DecoderFunc is a function adapter for the Decoder interface.
type DecoderFunc func(ctx context.Context, name, basePath string, grayscale bool) (interface{}, error)

// Decode implements the Decoder interface for DecoderFunc.
func (f DecoderFunc) Decode(ctx context.Context, name, basePath string, grayscale bool) (interface{}, error) {
	return f(ctx, name, basePath, grayscale)
}

// ImageOption configures an ImageReader.
type ImageOption func(*ImageReader)

// WithImageBasePath sets the directory annotation paths are resolved against,
// so the dataset index can hold relative paths.
func WithImageBasePath(path string) ImageOption {
	return func(r *ImageReader) { r.basePath = path }
}

// WithImageGrayscale requests single-channel decoding from the collaborator.
func WithImageGrayscale(grayscale bool) ImageOption {
	return func(r *ImageReader) { r.grayscale = grayscale }
}

// ImageReader resolves an image identifier field into a decoded image buffer.
// The heavy lifting is delegated to the injected Decoder; decode failures are
// fatal for the invocation and propagate to the caller unchanged (wrapped in a
// core.FieldError for identity).
type ImageReader struct {
	FieldSpec
	decoder   Decoder
	basePath  string
	grayscale bool
}

// NewImageReader creates an ImageReader extracting rowKey into dictKey through
// the given decoder. The decoder is required.
func NewImageReader(rowKey, dictKey string, decoder Decoder, options ...ImageOption) (*ImageReader, error) {
	if decoder == nil {
		return nil, fmt.Errorf("image reader field %q: decoder is required", rowKey)
	}

	reader := &ImageReader{
		FieldSpec: FieldSpec{RowKey: rowKey, DictKey: dictKey},
		decoder:   decoder,
	}
	for _, opt := range options {
		opt(reader)
	}
	return reader, nil
}

// FileDecoder returns a Decoder that loads raw image bytes from the local
// filesystem without decoding pixels. The grayscale flag is a decode-time
// concern and is ignored here; pair this with a downstream codec when actual
// pixel data is needed.
func FileDecoder() Decoder {
	return DecoderFunc(func(ctx context.Context, name, basePath string, grayscale bool) (interface{}, error) {
		path := name
		if basePath != "" {
			path = filepath.Join(basePath, name)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load image %s: %w", path, err)
		}
		return data, nil
	})
}

// Apply implements the core.FieldReader interface.
func (r *ImageReader) Apply(ctx context.Context, record core.Record) (core.Sample, error) {
	value, ok := record[r.RowKey]
	if !ok {
		return nil, &core.FieldError{Reader: "image", Field: r.RowKey, Err: core.ErrMissingField}
	}

	name, ok := value.(string)
	if !ok {
		name = fmt.Sprintf("%v", value)
	}

	img, err := r.decoder.Decode(ctx, name, r.basePath, r.grayscale)
	if err != nil {
		return nil, &core.FieldError{Reader: "image", Field: r.RowKey, Err: err}
	}

	return core.Sample{r.DictKey: img}, nil
}
