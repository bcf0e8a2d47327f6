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
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet"
	"github.com/apache/arrow/go/v12/parquet/compress"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	"github.com/aaronlmathis/gofeature/core"
)

// This file implements a batching Parquet sink for feature samples. Unlike a
// flat row format, samples carry vector-valued features (one-hot expansions,
// token index sequences), which map to Arrow list columns.

// ParquetSinkError wraps Parquet-specific write errors with context about the operation.
type ParquetSinkError struct {
	Op  string // Operation that failed (e.g., "schema", "flush_batch", "close_writer")
	Err error  // Underlying error
}

func (e *ParquetSinkError) Error() string {
	return fmt.Sprintf("parquet sink %s: %v", e.Op, e.Err)
}

func (e *ParquetSinkError) Unwrap() error {
	return e.Err
}

// ParquetSinkStats holds statistics about the Parquet sink's progress.
type ParquetSinkStats struct {
	SamplesWritten  int64
	BatchesWritten  int64
	FlushDuration   time.Duration
	LastFlushTime   time.Time
	NullValueCounts map[string]int64
}

// ParquetSinkOptions configures the Parquet sink.
type ParquetSinkOptions struct {
	BatchSize    int64                // Samples to buffer before writing a batch
	Schema       *arrow.Schema        // Pre-defined schema (optional; inferred from first sample otherwise)
	Compression  compress.Compression // Compression codec
	FieldOrder   []string             // Explicit column ordering
	RowGroupSize int64                // Max rows per row group
}

// ParquetSinkOption is a functional option for ParquetSinkOptions.
type ParquetSinkOption func(*ParquetSinkOptions)

// WithParquetBatchSize sets the number of samples to buffer before writing a batch.
func WithParquetBatchSize(size int64) ParquetSinkOption {
	return func(opts *ParquetSinkOptions) {
		opts.BatchSize = size
	}
}

// WithParquetCompression sets the Parquet compression codec.
func WithParquetCompression(compression compress.Compression) ParquetSinkOption {
	return func(opts *ParquetSinkOptions) {
		opts.Compression = compression
	}
}

// WithParquetSchema sets a pre-defined Arrow schema instead of inferring one.
func WithParquetSchema(schema *arrow.Schema) ParquetSinkOption {
	return func(opts *ParquetSinkOptions) {
		opts.Schema = schema
	}
}

// WithParquetFieldOrder sets the explicit column ordering for the Parquet schema.
func WithParquetFieldOrder(fields ...string) ParquetSinkOption {
	return func(opts *ParquetSinkOptions) {
		// Defensive copy to avoid shared slices
		opts.FieldOrder = make([]string, len(fields))
		copy(opts.FieldOrder, fields)
	}
}

// WithParquetRowGroupSize sets the row group size for the Parquet file.
func WithParquetRowGroupSize(size int64) ParquetSinkOption {
	return func(opts *ParquetSinkOptions) {
		opts.RowGroupSize = size
	}
}

// ParquetSink implements core.SampleSink for Parquet files. It buffers
// samples and writes them in Arrow record batches. The schema is inferred
// from the first sample unless provided; vector-valued features become
// list columns.
type ParquetSink struct {
	file          *os.File
	writer        *pqarrow.FileWriter
	schema        *arrow.Schema
	sampleBuffer  []core.Sample
	fieldOrder    []string
	builders      []array.Builder
	allocator     memory.Allocator
	stats         ParquetSinkStats
	opts          *ParquetSinkOptions
	closed        bool
	errorState    bool
}

// NewParquetSink creates a new Parquet sample sink for a file.
func NewParquetSink(filename string, options ...ParquetSinkOption) (*ParquetSink, error) {
	opts := &ParquetSinkOptions{
		BatchSize:    1000,
		Compression:  compress.Codecs.Snappy,
		RowGroupSize: 10000,
	}
	for _, option := range options {
		option(opts)
	}

	dir := filepath.Dir(filename)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &ParquetSinkError{Op: "create_directory", Err: err}
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return nil, &ParquetSinkError{Op: "open_file", Err: err}
	}

	sink := &ParquetSink{
		file:         file,
		schema:       opts.Schema,
		fieldOrder:   opts.FieldOrder,
		sampleBuffer: make([]core.Sample, 0, opts.BatchSize),
		allocator:    memory.NewGoAllocator(),
		stats:        ParquetSinkStats{NullValueCounts: make(map[string]int64)},
		opts:         opts,
	}

	if sink.schema != nil {
		if err := sink.initializeWriter(); err != nil {
			file.Close()
			return nil, err
		}
	}

	return sink, nil
}

// Write implements the core.SampleSink interface. Samples buffer until a
// full batch accumulates.
func (p *ParquetSink) Write(ctx context.Context, sample core.Sample) error {
	if p.closed {
		return &ParquetSinkError{Op: "write", Err: fmt.Errorf("parquet sink is closed")}
	}
	if p.errorState {
		return &ParquetSinkError{Op: "write", Err: fmt.Errorf("sink is in error state")}
	}

	select {
	case <-ctx.Done():
		return &ParquetSinkError{Op: "write", Err: ctx.Err()}
	default:
	}

	if p.schema == nil {
		if err := p.initializeSchemaFromSample(sample); err != nil {
			p.errorState = true
			return err
		}
	}

	p.sampleBuffer = append(p.sampleBuffer, sample)
	p.stats.SamplesWritten++

	if int64(len(p.sampleBuffer)) >= p.opts.BatchSize {
		if err := p.flushBatch(); err != nil {
			p.errorState = true
			return err
		}
	}
	return nil
}

// Flush implements the core.SampleSink interface.
func (p *ParquetSink) Flush() error {
	if len(p.sampleBuffer) > 0 {
		return p.flushBatch()
	}
	return nil
}

// Close implements the core.SampleSink interface. Flushes remaining samples
// and finalizes the file footer.
func (p *ParquetSink) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	if len(p.sampleBuffer) > 0 && !p.errorState {
		if err := p.flushBatch(); err != nil {
			return &ParquetSinkError{Op: "flush_remaining", Err: err}
		}
	}

	for _, builder := range p.builders {
		if builder != nil {
			builder.Release()
		}
	}
	p.builders = nil

	if p.writer != nil {
		if err := p.writer.Close(); err != nil {
			return &ParquetSinkError{Op: "close_writer", Err: err}
		}
		p.writer = nil
		p.file = nil
		return nil
	}

	if p.file != nil {
		err := p.file.Close()
		p.file = nil
		return err
	}
	return nil
}

// Stats returns Parquet sink progress statistics.
func (p *ParquetSink) Stats() ParquetSinkStats {
	return p.stats
}

// initializeSchemaFromSample infers an Arrow schema from the first sample.
// Columns sort by name unless an explicit field order was given.
func (p *ParquetSink) initializeSchemaFromSample(sample core.Sample) error {
	fieldNames := p.fieldOrder
	if fieldNames == nil {
		fieldNames = make([]string, 0, len(sample))
		for name := range sample {
			fieldNames = append(fieldNames, name)
		}
		sort.Strings(fieldNames)
		p.fieldOrder = fieldNames
	}

	fields := make([]arrow.Field, 0, len(fieldNames))
	for _, name := range fieldNames {
		value, exists := sample[name]

		var dataType arrow.DataType
		if exists && value != nil {
			inferred, err := inferArrowType(value)
			if err != nil {
				return &ParquetSinkError{Op: "schema", Err: fmt.Errorf("field %s: %w", name, err)}
			}
			dataType = inferred
		} else {
			// Missing or null in first sample; fall back to string
			dataType = arrow.BinaryTypes.String
		}

		fields = append(fields, arrow.Field{Name: name, Type: dataType, Nullable: true})
	}

	p.schema = arrow.NewSchema(fields, nil)
	return p.initializeWriter()
}

// initializeWriter creates the pqarrow file writer and the column builders.
func (p *ParquetSink) initializeWriter() error {
	if p.fieldOrder == nil {
		names := make([]string, 0, len(p.schema.Fields()))
		for _, f := range p.schema.Fields() {
			names = append(names, f.Name)
		}
		p.fieldOrder = names
	}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(p.opts.Compression),
		parquet.WithMaxRowGroupLength(p.opts.RowGroupSize),
	)

	writer, err := pqarrow.NewFileWriter(p.schema, p.file, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return &ParquetSinkError{Op: "create_writer", Err: err}
	}
	p.writer = writer

	p.builders = make([]array.Builder, len(p.fieldOrder))
	for i, fieldName := range p.fieldOrder {
		indices := p.schema.FieldIndices(fieldName)
		if len(indices) == 0 {
			return &ParquetSinkError{Op: "initialize_builders", Err: fmt.Errorf("field %s not found in schema", fieldName)}
		}
		p.builders[i] = array.NewBuilder(p.allocator, p.schema.Field(indices[0]).Type)
	}
	return nil
}

// inferArrowType infers the Arrow data type for a sample value. Vector
// features map to list types.
func inferArrowType(value interface{}) (arrow.DataType, error) {
	switch v := value.(type) {
	case bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case int32:
		return arrow.PrimitiveTypes.Int32, nil
	case int64:
		return arrow.PrimitiveTypes.Int64, nil
	case int:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return arrow.PrimitiveTypes.Int32, nil
		}
		return arrow.PrimitiveTypes.Int64, nil
	case float32:
		return arrow.PrimitiveTypes.Float32, nil
	case float64:
		return arrow.PrimitiveTypes.Float64, nil
	case string:
		return arrow.BinaryTypes.String, nil
	case time.Time:
		return arrow.FixedWidthTypes.Timestamp_us, nil
	case []byte:
		return arrow.BinaryTypes.Binary, nil
	case []float32:
		return arrow.ListOf(arrow.PrimitiveTypes.Float32), nil
	case []float64:
		return arrow.ListOf(arrow.PrimitiveTypes.Float64), nil
	case []int32:
		return arrow.ListOf(arrow.PrimitiveTypes.Int32), nil
	case []int64:
		return arrow.ListOf(arrow.PrimitiveTypes.Int64), nil
	case []string:
		return arrow.ListOf(arrow.BinaryTypes.String), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
}

// flushBatch converts the buffered samples to an Arrow record and writes it.
func (p *ParquetSink) flushBatch() error {
	if len(p.sampleBuffer) == 0 {
		return nil
	}

	startTime := time.Now()

	record, err := p.createArrowRecord(p.sampleBuffer)
	if err != nil {
		return &ParquetSinkError{Op: "create_arrow_record", Err: err}
	}
	defer record.Release()

	if err := p.writer.Write(record); err != nil {
		return &ParquetSinkError{Op: "write_batch", Err: err}
	}

	p.stats.BatchesWritten++
	p.stats.FlushDuration += time.Since(startTime)
	p.stats.LastFlushTime = time.Now()
	p.sampleBuffer = p.sampleBuffer[:0]
	return nil
}

// createArrowRecord converts buffered samples to an Arrow record batch.
func (p *ParquetSink) createArrowRecord(samples []core.Sample) (arrow.Record, error) {
	for _, sample := range samples {
		for i, fieldName := range p.fieldOrder {
			value, exists := sample[fieldName]
			if !exists || value == nil {
				p.builders[i].AppendNull()
				p.stats.NullValueCounts[fieldName]++
				continue
			}
			if err := appendValueToBuilder(p.builders[i], value); err != nil {
				return nil, fmt.Errorf("field %s: %w", fieldName, err)
			}
		}
	}

	arrays := make([]arrow.Array, len(p.builders))
	for i, builder := range p.builders {
		arrays[i] = builder.NewArray()
		defer arrays[i].Release()
	}

	return array.NewRecord(p.schema, arrays, int64(len(samples))), nil
}

// appendValueToBuilder appends a sample value to the matching Arrow builder.
func appendValueToBuilder(builder array.Builder, value interface{}) error {
	switch b := builder.(type) {
	case *array.BooleanBuilder:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		b.Append(v)
	case *array.Int32Builder:
		switch v := value.(type) {
		case int32:
			b.Append(v)
		case int:
			if v < math.MinInt32 || v > math.MaxInt32 {
				return fmt.Errorf("int value %d out of range for int32 column", v)
			}
			b.Append(int32(v))
		default:
			return fmt.Errorf("expected int32, got %T", value)
		}
	case *array.Int64Builder:
		switch v := value.(type) {
		case int64:
			b.Append(v)
		case int:
			b.Append(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}
	case *array.Float32Builder:
		switch v := value.(type) {
		case float32:
			b.Append(v)
		case float64:
			b.Append(float32(v))
		default:
			return fmt.Errorf("expected float32, got %T", value)
		}
	case *array.Float64Builder:
		switch v := value.(type) {
		case float64:
			b.Append(v)
		case float32:
			b.Append(float64(v))
		default:
			return fmt.Errorf("expected float64, got %T", value)
		}
	case *array.StringBuilder:
		if v, ok := value.(string); ok {
			b.Append(v)
		} else {
			b.Append(fmt.Sprintf("%v", value))
		}
	case *array.BinaryBuilder:
		v, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("expected []byte, got %T", value)
		}
		b.Append(v)
	case *array.TimestampBuilder:
		v, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("expected time.Time, got %T", value)
		}
		b.Append(arrow.Timestamp(v.UnixMicro()))
	case *array.ListBuilder:
		return appendListValue(b, value)
	default:
		return fmt.Errorf("unsupported builder type %T", builder)
	}
	return nil
}

// appendListValue appends a vector feature to a list column.
func appendListValue(b *array.ListBuilder, value interface{}) error {
	switch vb := b.ValueBuilder().(type) {
	case *array.Float32Builder:
		v, ok := value.([]float32)
		if !ok {
			return fmt.Errorf("expected []float32, got %T", value)
		}
		b.Append(true)
		for _, elem := range v {
			vb.Append(elem)
		}
	case *array.Float64Builder:
		v, ok := value.([]float64)
		if !ok {
			return fmt.Errorf("expected []float64, got %T", value)
		}
		b.Append(true)
		for _, elem := range v {
			vb.Append(elem)
		}
	case *array.Int32Builder:
		v, ok := value.([]int32)
		if !ok {
			return fmt.Errorf("expected []int32, got %T", value)
		}
		b.Append(true)
		for _, elem := range v {
			vb.Append(elem)
		}
	case *array.Int64Builder:
		v, ok := value.([]int64)
		if !ok {
			return fmt.Errorf("expected []int64, got %T", value)
		}
		b.Append(true)
		for _, elem := range v {
			vb.Append(elem)
		}
	case *array.StringBuilder:
		v, ok := value.([]string)
		if !ok {
			return fmt.Errorf("expected []string, got %T", value)
		}
		b.Append(true)
		for _, elem := range v {
			vb.Append(elem)
		}
	default:
		return fmt.Errorf("unsupported list element builder %T", vb)
	}
	return nil
}
