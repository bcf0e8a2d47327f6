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

// Package sinks provides implementations of core.SampleSink for persisting
// materialized feature samples.
package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aaronlmathis/gofeature/core"
)

// JSONLSinkError provides structured error information for JSONL sink operations.
type JSONLSinkError struct {
	Op  string // Operation that failed (e.g., "marshal", "write", "close")
	Err error  // Underlying error
}

func (e *JSONLSinkError) Error() string {
	return fmt.Sprintf("jsonl sink %s: %v", e.Op, e.Err)
}

func (e *JSONLSinkError) Unwrap() error {
	return e.Err
}

// JSONLSinkStats holds statistics about the JSONL sink's progress.
type JSONLSinkStats struct {
	SamplesWritten int64
	BytesWritten   int64
}

// JSONLSink implements core.SampleSink for line-delimited JSON output.
// Feature vectors serialize as JSON arrays, so one-hot and embedding
// outputs round-trip without a schema.
type JSONLSink struct {
	writer io.Writer
	closer io.Closer
	stats  JSONLSinkStats
}

// NewJSONLSink creates a sample sink producing one JSON object per line.
func NewJSONLSink(w io.WriteCloser) *JSONLSink {
	return &JSONLSink{
		writer: w,
		closer: w,
	}
}

// Write implements the core.SampleSink interface.
func (j *JSONLSink) Write(ctx context.Context, sample core.Sample) error {
	select {
	case <-ctx.Done():
		return &JSONLSinkError{Op: "write", Err: ctx.Err()}
	default:
	}

	data, err := json.Marshal(sample)
	if err != nil {
		return &JSONLSinkError{Op: "marshal", Err: err}
	}

	n, err := j.writer.Write(data)
	j.stats.BytesWritten += int64(n)
	if err != nil {
		return &JSONLSinkError{Op: "write", Err: err}
	}

	n, err = j.writer.Write([]byte("\n"))
	j.stats.BytesWritten += int64(n)
	if err != nil {
		return &JSONLSinkError{Op: "write", Err: err}
	}

	j.stats.SamplesWritten++
	return nil
}

// Flush implements the core.SampleSink interface.
func (j *JSONLSink) Flush() error {
	if flusher, ok := j.writer.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close implements the core.SampleSink interface.
func (j *JSONLSink) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}

// Stats returns JSONL sink progress statistics.
func (j *JSONLSink) Stats() JSONLSinkStats {
	return j.stats
}
