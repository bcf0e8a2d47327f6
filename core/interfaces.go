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
)

// Package core defines the core interfaces for the GoFeature library.
//
// This file contains the primary interfaces for field readers, mixins, annotation
// sources, sample sinks, filtering, and aggregation.

// FieldReader extracts one field of an annotation Record into one or more named
// feature values. Implementations are configured once at construction time and are
// immutable afterwards; Apply is a pure function of the record and that
// configuration, so a FieldReader is safe for concurrent use as long as any
// injected collaborators (image decoders, encode functions) are.
type FieldReader interface {
	// Apply extracts the configured field from record and returns the resulting
	// sample entries. Apply never mutates record and never returns a partial
	// sample alongside a non-nil error.
	Apply(ctx context.Context, record Record) (Sample, error)
	// Source returns the record key this reader extracts from.
	Source() string
	// Output returns the sample key this reader stores its result under.
	Output() string
}

// Mixin derives additional sample entries from an already-produced Sample.
// Mixins run after all field readers; the returned Sample is merged into the
// accumulated one with last-write-wins semantics.
type Mixin interface {
	// Derive returns the entries to merge into the sample. It must not mutate
	// its input.
	Derive(ctx context.Context, sample Sample) (Sample, error)
}

// AnnotationSource defines the interface for streaming annotation records.
// Implementations stream records from a dataset index (e.g., CSV, Parquet, PostgreSQL).
type AnnotationSource interface {
	// Read returns the next record or io.EOF when no more records are available.
	Read(ctx context.Context) (Record, error)
	// Close releases any resources held by the source.
	Close() error
}

// SampleSink defines the interface for persisting produced samples.
// Implementations write samples to a destination (e.g., JSON lines, Parquet).
type SampleSink interface {
	// Write outputs a single sample to the sink.
	Write(ctx context.Context, sample Sample) error
	// Flush ensures all buffered data is written to the sink.
	Flush() error
	// Close releases any resources held by the sink.
	Close() error
}

// Filter defines the interface for annotation record filtering.
// Filters determine whether a record should be materialized into a sample.
type Filter interface {
	// ShouldInclude returns true if the record should be processed.
	ShouldInclude(ctx context.Context, record Record) (bool, error)
}

// Aggregator defines the interface for dataset statistics.
// Aggregators observe records one at a time and produce a summary Record.
type Aggregator interface {
	// Add processes a record for aggregation.
	Add(ctx context.Context, record Record) error
	// Result returns the aggregated result as a Record.
	Result() (Record, error)
	// Reset clears the aggregator state for reuse.
	Reset()
}
