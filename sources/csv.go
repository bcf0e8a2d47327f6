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
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aaronlmathis/gofeature/core"
)

// Package sources provides core.AnnotationSource implementations for streaming
// annotation records from dataset indices: CSV and JSONL index files, Parquet
// tables, PostgreSQL and MongoDB annotation stores, and S3-hosted manifests.

// CSVSourceError wraps structured error information for the CSV source.
type CSVSourceError struct {
	Op  string
	Err error
}

func (e *CSVSourceError) Error() string {
	return fmt.Sprintf("csv source %s: %v", e.Op, e.Err)
}

func (e *CSVSourceError) Unwrap() error {
	return e.Err
}

// CSVSourceStats holds statistics about the CSV source's progress.
type CSVSourceStats struct {
	RecordsRead     int64
	ReadDuration    time.Duration
	LastReadTime    time.Time
	NullValueCounts map[string]int64
}

// CSVSourceOptions configures the CSV source.
type CSVSourceOptions struct {
	Comma            rune
	Comment          rune
	FieldsPerRecord  int
	LazyQuotes       bool
	TrimLeadingSpace bool
	HasHeaders       bool
	InferTypes       bool
}

// CSVOption allows functional customization of CSVSource.
type CSVOption func(*CSVSourceOptions)

func WithCSVComma(r rune) CSVOption {
	return func(o *CSVSourceOptions) { o.Comma = r }
}

func WithCSVComment(r rune) CSVOption {
	return func(o *CSVSourceOptions) { o.Comment = r }
}

func WithCSVHasHeaders(hasHeaders bool) CSVOption {
	return func(o *CSVSourceOptions) { o.HasHeaders = hasHeaders }
}

func WithCSVTrimSpace(trim bool) CSVOption {
	return func(o *CSVSourceOptions) { o.TrimLeadingSpace = trim }
}

// WithCSVInferTypes toggles int/float/bool inference on cell values. Disable it
// when label columns must stay strings (e.g., zero-padded identifiers).
func WithCSVInferTypes(infer bool) CSVOption {
	return func(o *CSVSourceOptions) { o.InferTypes = infer }
}

// CSVSource implements core.AnnotationSource for CSV dataset indices, the most
// common annotation format: one row per example, columns for image path, label,
// caption, and so on.
type CSVSource struct {
	reader  *csv.Reader
	headers []string
	closer  io.Closer
	stats   CSVSourceStats
	opts    CSVSourceOptions
}

// NewCSVSource creates a CSVSource with default or overridden options.
func NewCSVSource(r io.ReadCloser, options ...CSVOption) (*CSVSource, error) {
	opts := CSVSourceOptions{
		Comma:            ',',
		HasHeaders:       true,
		TrimLeadingSpace: true,
		InferTypes:       true,
	}

	for _, opt := range options {
		opt(&opts)
	}

	csvReader := csv.NewReader(r)
	csvReader.Comma = opts.Comma
	csvReader.Comment = opts.Comment
	csvReader.FieldsPerRecord = opts.FieldsPerRecord
	csvReader.LazyQuotes = opts.LazyQuotes
	csvReader.TrimLeadingSpace = opts.TrimLeadingSpace

	source := &CSVSource{
		reader: csvReader,
		closer: r,
		opts:   opts,
		stats:  CSVSourceStats{NullValueCounts: make(map[string]int64)},
	}

	if opts.HasHeaders {
		headers, err := csvReader.Read()
		if err != nil {
			return nil, &CSVSourceError{Op: "read_headers", Err: err}
		}
		source.headers = headers
	}

	return source, nil
}

// Read implements the core.AnnotationSource interface.
func (c *CSVSource) Read(ctx context.Context) (core.Record, error) {
	start := time.Now()

	select {
	case <-ctx.Done():
		return nil, &CSVSourceError{Op: "read", Err: ctx.Err()}
	default:
	}

	row, err := c.reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &CSVSourceError{Op: "read_record", Err: err}
	}

	record := make(core.Record, len(row))
	for i, val := range row {
		key := c.columnKey(i)
		if strings.TrimSpace(val) == "" {
			c.stats.NullValueCounts[key]++
			record[key] = nil
			continue
		}
		if c.opts.InferTypes {
			record[key] = inferValue(val)
		} else {
			record[key] = strings.TrimSpace(val)
		}
	}

	c.stats.RecordsRead++
	c.stats.LastReadTime = time.Now()
	c.stats.ReadDuration += time.Since(start)

	return record, nil
}

// Close implements the core.AnnotationSource interface.
func (c *CSVSource) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// Stats returns CSV source progress stats.
func (c *CSVSource) Stats() CSVSourceStats {
	return c.stats
}

// columnKey resolves a column index to a record key.
func (c *CSVSource) columnKey(i int) string {
	if i < len(c.headers) {
		return c.headers[i]
	}
	return "col_" + strconv.Itoa(i)
}

// inferValue attempts to infer int, float, bool, or fallback to string.
func inferValue(value string) interface{} {
	value = strings.TrimSpace(value)

	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}
