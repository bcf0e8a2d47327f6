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

	"github.com/aaronlmathis/gofeature/core"
)

// ComposeOption configures a Composed reader.
type ComposeOption func(*Composed)

// WithMixins appends post-processing mixins. Mixins run in order after all
// field readers, against the merged sample rather than the original record.
func WithMixins(mixins ...core.Mixin) ComposeOption {
	return func(c *Composed) {
		c.mixins = append(c.mixins, mixins...)
	}
}

// Composed chains an ordered sequence of field readers, and optionally mixins,
// into a single record-to-sample function.
//
// Readers run in order against the same record and their outputs are merged
// into one sample; on key collision the later reader's value overwrites the
// earlier one (last-write-wins), so reader order is significant for callers
// that configure overlapping output keys. Mixins then run in order against the
// merged sample, each merged the same way.
//
// Apply is deterministic given (record, reader order, mixin order) and holds no
// state across invocations, so one Composed value may serve many goroutines
// concurrently as long as the underlying collaborators allow it.
type Composed struct {
	readers []core.FieldReader
	mixins  []core.Mixin
}

// Compose builds a Composed record-to-sample function from the given readers.
func Compose(readers []core.FieldReader, options ...ComposeOption) *Composed {
	composed := &Composed{
		readers: readers,
		mixins:  make([]core.Mixin, 0),
	}
	for _, opt := range options {
		opt(composed)
	}
	return composed
}

// Apply materializes one record into a sample.
//
// The first error from any reader or mixin aborts the whole invocation: no
// partial sample is returned and nothing is caught or retried here. The caller
// decides whether to skip, log, or abort the surrounding batch.
func (c *Composed) Apply(ctx context.Context, record core.Record) (core.Sample, error) {
	sample := make(core.Sample, len(c.readers))

	for _, reader := range c.readers {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		out, err := reader.Apply(ctx, record)
		if err != nil {
			return nil, err
		}
		for key, value := range out {
			sample[key] = value
		}
	}

	for _, mixin := range c.mixins {
		out, err := mixin.Derive(ctx, sample)
		if err != nil {
			return nil, err
		}
		for key, value := range out {
			sample[key] = value
		}
	}

	return sample, nil
}
