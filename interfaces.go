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

package gofeature

import (
	"github.com/aaronlmathis/gofeature/core"
)

// Package gofeature turns raw annotation records (dataset index rows) into
// named feature samples for model training.
//
// Core Concepts:
//   - FieldReader: extracts one record field into one or more named sample values
//     (see the fields package for the stock image/scalar/text readers).
//   - Compose: chains field readers and mixins into a single record-to-sample function.
//   - AnnotationSource: streams annotation records (CSV, JSONL, Parquet, PostgreSQL, ...).
//   - SampleSink: persists produced samples (JSON lines, Parquet).
//   - Pipeline: fluent builder wiring a source through a composed reader to a sink.
//
// Example usage:
//
//	open := gofeature.Compose([]core.FieldReader{
//	    fields.NewScalarReader("label", "targets", fields.Int64,
//	        fields.WithScalarOneHot(10)),
//	    fields.NewTextReader("caption", "tokens",
//	        fields.WithTextEncoder(encode.Vocabulary(vocab))),
//	})
//	sample, err := open.Apply(ctx, record)
//
// This file re-exports the core types so small callers need only this package.

// Record represents a single annotation record. See core.Record.
type Record = core.Record

// Sample is the merged mapping of named feature values for one Record. See core.Sample.
type Sample = core.Sample

// FieldReader extracts one record field into named sample values. See core.FieldReader.
type FieldReader = core.FieldReader

// Mixin derives additional sample entries from an already-produced Sample. See core.Mixin.
type Mixin = core.Mixin

// MixinFunc is a function adapter for the Mixin interface.
type MixinFunc = core.MixinFunc

// AnnotationSource streams annotation records. See core.AnnotationSource.
type AnnotationSource = core.AnnotationSource

// SampleSink persists produced samples. See core.SampleSink.
type SampleSink = core.SampleSink

// Filter decides whether an annotation record should be processed. See core.Filter.
type Filter = core.Filter

// FilterFunc is a function adapter for the Filter interface.
type FilterFunc = core.FilterFunc

// ErrorStrategy defines how the streaming pipeline reacts to per-record errors.
type ErrorStrategy = core.ErrorStrategy

// Error strategies, re-exported from core.
const (
	FailFast      = core.FailFast
	SkipErrors    = core.SkipErrors
	CollectErrors = core.CollectErrors
)

// ErrorHandler processes per-record errors during streaming. See core.ErrorHandler.
type ErrorHandler = core.ErrorHandler

// ErrorHandlerFunc is a function adapter for the ErrorHandler interface.
type ErrorHandlerFunc = core.ErrorHandlerFunc
