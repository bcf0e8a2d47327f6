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
	"fmt"
	"io"
	"os"
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet/file"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	"github.com/aaronlmathis/gofeature/core"
)

// ParquetSourceError provides structured error information for parquet source operations.
type ParquetSourceError struct {
	Op  string // Operation that failed (e.g., "open_file", "load_batch", "schema")
	Err error  // Underlying error
}

func (e *ParquetSourceError) Error() string {
	return fmt.Sprintf("parquet source %s: %v", e.Op, e.Err)
}

func (e *ParquetSourceError) Unwrap() error {
	return e.Err
}

// ParquetSourceStats holds statistics about the parquet source's progress.
type ParquetSourceStats struct {
	RecordsRead     int64
	BatchesRead     int64
	ReadDuration    time.Duration
	LastReadTime    time.Time
	NullValueCounts map[string]int64
}

// ParquetSourceOptions configures the parquet annotation source.
// BatchSize controls rows decoded per Arrow batch; Columns optionally
// projects a subset of annotation columns.
type ParquetSourceOptions struct {
	BatchSize int64
	Columns   []string
}

// ParquetSourceOption is a functional option for ParquetSourceOptions.
type ParquetSourceOption func(*ParquetSourceOptions)

func WithParquetBatchSize(size int64) ParquetSourceOption {
	return func(opts *ParquetSourceOptions) {
		opts.BatchSize = size
	}
}

func WithParquetColumns(columns ...string) ParquetSourceOption {
	return func(opts *ParquetSourceOptions) {
		// Defensive copy to avoid shared slices
		opts.Columns = make([]string, len(columns))
		copy(opts.Columns, columns)
	}
}

// ParquetSource implements core.AnnotationSource for Parquet annotation indexes.
// Rows stream out one at a time from internally buffered Arrow batches.
type ParquetSource struct {
	fileHandle      *os.File
	reader          *file.Reader
	arrowReader     *pqarrow.FileReader
	recordReader    pqarrow.RecordReader
	currentBatch    arrow.Record
	currentBatchIdx int
	totalRows       int64
	schema          *arrow.Schema
	stats           ParquetSourceStats
	opts            *ParquetSourceOptions
}

// NewParquetSource opens a Parquet annotation index and prepares an Arrow RecordReader.
func NewParquetSource(filename string, options ...ParquetSourceOption) (*ParquetSource, error) {
	opts := &ParquetSourceOptions{BatchSize: 1000}
	for _, option := range options {
		option(opts)
	}
	if opts.BatchSize <= 0 {
		// A zero batch size makes the arrow record reader return EOF immediately.
		opts.BatchSize = 1000
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, &ParquetSourceError{Op: "open_file", Err: err}
	}

	parquetReader, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()
		return nil, &ParquetSourceError{Op: "create_reader", Err: err}
	}

	allocator := memory.NewGoAllocator()
	arrowReader, err := pqarrow.NewFileReader(parquetReader, pqarrow.ArrowReadProperties{BatchSize: opts.BatchSize}, allocator)
	if err != nil {
		f.Close()
		return nil, &ParquetSourceError{Op: "create_arrow_reader", Err: err}
	}

	schema, err := arrowReader.Schema()
	if err != nil {
		f.Close()
		return nil, &ParquetSourceError{Op: "get_schema", Err: err}
	}

	var colIndices []int
	if len(opts.Columns) > 0 {
		for _, name := range opts.Columns {
			idx := -1
			for i, field := range schema.Fields() {
				if field.Name == name {
					idx = i
					break
				}
			}
			if idx < 0 {
				f.Close()
				return nil, &ParquetSourceError{Op: "column_projection", Err: fmt.Errorf("column %q not found in schema", name)}
			}
			colIndices = append(colIndices, idx)
		}
	}

	recordReader, err := arrowReader.GetRecordReader(context.Background(), colIndices, nil)
	if err != nil {
		f.Close()
		return nil, &ParquetSourceError{Op: "create_record_reader", Err: err}
	}

	return &ParquetSource{
		fileHandle:   f,
		reader:       parquetReader,
		arrowReader:  arrowReader,
		recordReader: recordReader,
		totalRows:    parquetReader.NumRows(),
		schema:       schema,
		stats:        ParquetSourceStats{NullValueCounts: make(map[string]int64)},
		opts:         opts,
	}, nil
}

// Read implements the core.AnnotationSource interface.
func (p *ParquetSource) Read(ctx context.Context) (core.Record, error) {
	startTime := time.Now()
	defer func() {
		p.stats.ReadDuration += time.Since(startTime)
		p.stats.LastReadTime = time.Now()
	}()

	select {
	case <-ctx.Done():
		return nil, &ParquetSourceError{Op: "read", Err: ctx.Err()}
	default:
	}

	if p.currentBatch == nil || p.currentBatchIdx >= int(p.currentBatch.NumRows()) {
		if err := p.loadNextBatch(); err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, &ParquetSourceError{Op: "load_batch", Err: err}
		}
	}

	if p.currentBatch.NumRows() == 0 {
		return nil, io.EOF
	}

	result := p.extractRecordFromBatch(p.currentBatch, p.currentBatchIdx)
	p.currentBatchIdx++
	p.stats.RecordsRead++

	return result, nil
}

// Close releases Arrow resources and closes the underlying file.
func (p *ParquetSource) Close() error {
	if p.currentBatch != nil {
		p.currentBatch.Release()
		p.currentBatch = nil
	}
	if p.recordReader != nil {
		p.recordReader.Release()
		p.recordReader = nil
	}
	if p.fileHandle != nil {
		return p.fileHandle.Close()
	}
	return nil
}

// Schema returns the Arrow schema of the annotation index.
func (p *ParquetSource) Schema() *arrow.Schema {
	return p.schema
}

// TotalRows returns the number of rows in the annotation index.
func (p *ParquetSource) TotalRows() int64 {
	return p.totalRows
}

// Stats returns parquet source progress statistics.
func (p *ParquetSource) Stats() ParquetSourceStats {
	return p.stats
}

func (p *ParquetSource) loadNextBatch() error {
	if p.currentBatch != nil {
		p.currentBatch.Release()
		p.currentBatch = nil
	}

	rec, err := p.recordReader.Read()
	if err != nil {
		return err
	}
	if rec == nil || rec.NumRows() == 0 {
		return io.EOF
	}

	rec.Retain()
	p.currentBatch = rec
	p.currentBatchIdx = 0
	p.stats.BatchesRead++
	return nil
}

// extractRecordFromBatch builds an annotation record from a row in an Arrow batch.
func (p *ParquetSource) extractRecordFromBatch(record arrow.Record, pos int) core.Record {
	res := make(core.Record)
	sch := record.Schema()
	for i := 0; i < int(record.NumCols()); i++ {
		field := sch.Field(i)
		col := record.Column(i)
		res[field.Name] = p.extractValueFromColumn(col, pos, field.Name)
	}
	return res
}

func (p *ParquetSource) extractValueFromColumn(col arrow.Array, rowIdx int, fieldName string) interface{} {
	if col.IsNull(rowIdx) {
		p.stats.NullValueCounts[fieldName]++
		return nil
	}

	switch arr := col.(type) {
	case *array.Boolean:
		return arr.Value(rowIdx)
	case *array.Int8:
		return arr.Value(rowIdx)
	case *array.Int16:
		return arr.Value(rowIdx)
	case *array.Int32:
		return arr.Value(rowIdx)
	case *array.Int64:
		return arr.Value(rowIdx)
	case *array.Uint8:
		return arr.Value(rowIdx)
	case *array.Uint16:
		return arr.Value(rowIdx)
	case *array.Uint32:
		return arr.Value(rowIdx)
	case *array.Uint64:
		return arr.Value(rowIdx)
	case *array.Float32:
		return arr.Value(rowIdx)
	case *array.Float64:
		return arr.Value(rowIdx)
	case *array.String:
		return arr.Value(rowIdx)
	case *array.Binary:
		return arr.Value(rowIdx)
	case *array.Timestamp:
		return arr.Value(rowIdx).ToTime(arrow.Microsecond)
	case *array.Date32:
		return arr.Value(rowIdx).ToTime()
	case *array.Date64:
		return arr.Value(rowIdx).ToTime()
	default:
		return fmt.Sprintf("%v", col.GetOneForMarshal(rowIdx))
	}
}
