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

package core

import (
	"context"
	"errors"
	"fmt"
)

// Package core defines the error handling types for the GoFeature library.
//
// Field readers fail whole: no partial sample is ever produced. The sentinels below
// classify the failure; FieldError carries the reader identity so callers can tell
// which extraction failed inside a composed pipeline.

var (
	// ErrMissingField indicates a required record key was absent and the reader
	// has no default to substitute.
	ErrMissingField = errors.New("missing record field")

	// ErrTypeConversion indicates a record value could not be coerced to the
	// reader's configured numeric type.
	ErrTypeConversion = errors.New("type conversion failed")

	// ErrOneHotRange indicates a scalar was outside [0, classes) during one-hot
	// encoding.
	ErrOneHotRange = errors.New("one-hot index out of range")
)

// FieldError wraps a failure from a single field reader with its identity.
// Collaborator errors (image decode, text encode) pass through via Unwrap, so
// errors.Is and errors.As still reach them.
type FieldError struct {
	Reader string // Reader kind (e.g., "scalar", "image", "text")
	Field  string // Record key being extracted
	Err    error  // Underlying error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s reader field %q: %v", e.Reader, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ErrorHandler defines how errors are handled during streaming processing.
// Custom error handlers can be used to log, collect, or transform errors.
type ErrorHandler interface {
	// HandleError processes an error that occurred while materializing a record.
	// Returning a non-nil error will stop the pipeline; returning nil will continue.
	HandleError(ctx context.Context, record Record, err error) error
}

// ErrorStrategy defines how the streaming pipeline reacts to per-record errors.
// The per-record compose itself always fails whole; the strategy only decides
// whether the surrounding stream skips the record or aborts.
type ErrorStrategy int

const (
	// FailFast stops processing on the first error encountered.
	FailFast ErrorStrategy = iota
	// SkipErrors continues processing, skipping failed records.
	SkipErrors
	// CollectErrors continues processing, collecting all errors for later inspection.
	CollectErrors
)

// ErrorHandlerFunc is a function adapter for the ErrorHandler interface.
// Allows ordinary functions to be used as error handlers.
type ErrorHandlerFunc func(ctx context.Context, record Record, err error) error

// HandleError implements the ErrorHandler interface for ErrorHandlerFunc.
func (f ErrorHandlerFunc) HandleError(ctx context.Context, record Record, err error) error {
	return f(ctx, record, err)
}
