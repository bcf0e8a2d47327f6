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
	"context"
	"fmt"
	"io"

	"github.com/aaronlmathis/gofeature/core"
)

// PipelineBuilder provides a fluent API for constructing sample-preparation
// pipelines. Use NewPipeline() to create a builder, then chain From, Read,
// Mixin, Where, To, and configuration methods.
type PipelineBuilder struct {
	pipeline *Pipeline
}

// NewPipeline creates a new PipelineBuilder.
func NewPipeline() *PipelineBuilder {
	return &PipelineBuilder{
		pipeline: &Pipeline{
			readers:  make([]core.FieldReader, 0),
			mixins:   make([]core.Mixin, 0),
			filters:  make([]core.Filter, 0),
			strategy: core.FailFast,
		},
	}
}

// From sets the AnnotationSource for the pipeline.
//
// source: an AnnotationSource implementation (e.g., CSVSource, ParquetSource)
// Returns the builder for chaining.
func (pb *PipelineBuilder) From(source core.AnnotationSource) *PipelineBuilder {
	pb.pipeline.source = source
	return pb
}

// Read appends a FieldReader to the composed record-to-sample function.
// Readers run in the order they are added; on output-key collision the later
// reader wins.
func (pb *PipelineBuilder) Read(reader core.FieldReader) *PipelineBuilder {
	pb.pipeline.readers = append(pb.pipeline.readers, reader)
	return pb
}

// Mixin appends a post-processing mixin, run after all field readers.
func (pb *PipelineBuilder) Mixin(mixin core.Mixin) *PipelineBuilder {
	pb.pipeline.mixins = append(pb.pipeline.mixins, mixin)
	return pb
}

// Filter adds an annotation record filter. Filtered records are skipped before
// any field reader runs.
func (pb *PipelineBuilder) Filter(filter core.Filter) *PipelineBuilder {
	pb.pipeline.filters = append(pb.pipeline.filters, filter)
	return pb
}

// Where adds a filtering condition using a function.
//
// fn: function with signature func(ctx, record) (bool, error)
// Returns the builder for chaining.
func (pb *PipelineBuilder) Where(fn func(ctx context.Context, record core.Record) (bool, error)) *PipelineBuilder {
	return pb.Filter(core.FilterFunc(fn))
}

// To sets the SampleSink for the pipeline.
func (pb *PipelineBuilder) To(sink core.SampleSink) *PipelineBuilder {
	pb.pipeline.sink = sink
	return pb
}

// WithErrorStrategy sets the error handling strategy for the pipeline.
//
// strategy: ErrorStrategy (FailFast, SkipErrors, CollectErrors)
// Returns the builder for chaining.
func (pb *PipelineBuilder) WithErrorStrategy(strategy core.ErrorStrategy) *PipelineBuilder {
	pb.pipeline.strategy = strategy
	return pb
}

// WithErrorHandler sets a custom error handler for the pipeline.
func (pb *PipelineBuilder) WithErrorHandler(handler core.ErrorHandler) *PipelineBuilder {
	pb.pipeline.errorHandler = handler
	return pb
}

// Build validates and constructs the Pipeline from the builder.
//
// Returns the constructed pipeline, or an error if required components are missing.
func (pb *PipelineBuilder) Build() (*Pipeline, error) {
	if pb.pipeline.source == nil {
		return nil, fmt.Errorf("pipeline requires an annotation source")
	}
	if pb.pipeline.sink == nil {
		return nil, fmt.Errorf("pipeline requires a sample sink")
	}
	if len(pb.pipeline.readers) == 0 {
		return nil, fmt.Errorf("pipeline requires at least one field reader")
	}
	pb.pipeline.composed = Compose(pb.pipeline.readers, WithMixins(pb.pipeline.mixins...))
	return pb.pipeline, nil
}

// Pipeline streams annotation records from a source, materializes each into a
// sample via the composed field readers, and writes the samples to a sink.
//
// Records are processed strictly one at a time in source order; the pipeline
// performs no batching, shuffling, or reordering.
type Pipeline struct {
	readers      []core.FieldReader
	mixins       []core.Mixin
	filters      []core.Filter
	composed     *Composed
	source       core.AnnotationSource
	sink         core.SampleSink
	strategy     core.ErrorStrategy
	errorHandler core.ErrorHandler
}

// Execute runs the pipeline, processing all records from source to sink.
//
// ctx: context for cancellation and deadlines
// Returns an error if a fatal error occurs or the context is cancelled.
//
// Per-record materialization always fails whole (no partial sample); the
// configured ErrorStrategy and ErrorHandler decide whether a failed record is
// skipped or aborts the run.
func (p *Pipeline) Execute(ctx context.Context) error {
	defer func() {
		if p.source != nil {
			p.source.Close()
		}
		if p.sink != nil {
			p.sink.Flush()
			p.sink.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		record, err := p.source.Read(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			if err := p.handleError(ctx, record, err); err != nil {
				return err
			}
			continue
		}

		// Skip empty records early
		if len(record) == 0 {
			continue
		}

		shouldInclude, err := p.applyFilters(ctx, record)
		if err != nil {
			if err := p.handleError(ctx, record, err); err != nil {
				return err
			}
			continue
		}
		if !shouldInclude {
			continue
		}

		sample, err := p.composed.Apply(ctx, record)
		if err != nil {
			if err := p.handleError(ctx, record, err); err != nil {
				return err
			}
			continue
		}

		if err := p.sink.Write(ctx, sample); err != nil {
			if err := p.handleError(ctx, record, err); err != nil {
				return err
			}
		}
	}

	return nil
}

// applyFilters applies all configured filters to an annotation record.
func (p *Pipeline) applyFilters(ctx context.Context, record core.Record) (bool, error) {
	for _, filter := range p.filters {
		include, err := filter.ShouldInclude(ctx, record)
		if err != nil {
			return false, err
		}
		if !include {
			return false, nil
		}
	}
	return true, nil
}

// handleError handles errors according to the pipeline's error strategy and handler.
func (p *Pipeline) handleError(ctx context.Context, record core.Record, err error) error {
	switch p.strategy {
	case core.FailFast:
		return err
	case core.SkipErrors, core.CollectErrors:
		if p.errorHandler != nil {
			return p.errorHandler.HandleError(ctx, record, err)
		}
		return nil
	default:
		return err
	}
}
