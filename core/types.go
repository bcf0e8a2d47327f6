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

import "context"

// Package core defines the core types for the GoFeature library.
//
// GoFeature turns raw annotation records (dataset index rows) into named feature
// samples consumable by model-training code.
//
// This file contains the primary types and function adapters.

// Record represents a single annotation record, e.g. one row of a dataset index.
// Each record is a map from field names to values, supporting heterogeneous data.
// Records are owned by the caller; field readers never mutate them.
type Record map[string]interface{}

// Sample is the merged mapping of named feature values produced for one Record.
// Samples are created fresh on every invocation and carry no state across calls.
type Sample map[string]interface{}

// MixinFunc is a function adapter for the Mixin interface.
// Allows ordinary functions to be used as mixins.
type MixinFunc func(ctx context.Context, sample Sample) (Sample, error)

// Derive implements the Mixin interface for MixinFunc.
func (f MixinFunc) Derive(ctx context.Context, sample Sample) (Sample, error) {
	return f(ctx, sample)
}

// FilterFunc is a function adapter for the Filter interface.
// Allows ordinary functions to be used as Filters.
type FilterFunc func(ctx context.Context, record Record) (bool, error)

// ShouldInclude implements the Filter interface for FilterFunc.
func (f FilterFunc) ShouldInclude(ctx context.Context, record Record) (bool, error) {
	return f(ctx, record)
}
