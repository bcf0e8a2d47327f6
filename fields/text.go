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

	"github.com/aaronlmathis/gofeature/core"
)

// EncodeFunc prepares raw annotation text for the model, e.g. converting
// chars/words/tokens to indices. The default is the identity function.
type EncodeFunc func(text string) (interface{}, error)

// TextOption configures a TextReader.
type TextOption func(*TextReader)

// WithTextEncoder sets the encode function applied to the looked-up text.
func WithTextEncoder(fn EncodeFunc) TextOption {
	return func(r *TextReader) {
		if fn != nil {
			r.encode = fn
		}
	}
}

// TextReader resolves a text annotation field through an injected encode
// function. Unlike ScalarReader there is no default substitution: a missing
// record key is a hard error.
type TextReader struct {
	FieldSpec
	encode EncodeFunc
}

// NewTextReader creates a TextReader extracting rowKey into dictKey. Without
// options the text passes through unchanged.
func NewTextReader(rowKey, dictKey string, options ...TextOption) *TextReader {
	reader := &TextReader{
		FieldSpec: FieldSpec{RowKey: rowKey, DictKey: dictKey},
		encode: func(text string) (interface{}, error) {
			return text, nil
		},
	}
	for _, opt := range options {
		opt(reader)
	}
	return reader
}

// Apply implements the core.FieldReader interface.
func (r *TextReader) Apply(ctx context.Context, record core.Record) (core.Sample, error) {
	value, ok := record[r.RowKey]
	if !ok {
		return nil, &core.FieldError{Reader: "text", Field: r.RowKey, Err: core.ErrMissingField}
	}

	text, ok := value.(string)
	if !ok {
		text = fmt.Sprintf("%v", value)
	}

	encoded, err := r.encode(text)
	if err != nil {
		return nil, &core.FieldError{Reader: "text", Field: r.RowKey, Err: err}
	}

	return core.Sample{r.DictKey: encoded}, nil
}
