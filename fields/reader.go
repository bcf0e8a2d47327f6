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

package fields

// Package fields provides the stock core.FieldReader implementations.
//
// Each reader extracts a single key from an annotation record and produces one
// named sample value: ImageReader resolves an image identifier through an
// injected decoder, ScalarReader coerces numeric values (with optional default
// substitution and one-hot expansion), and TextReader pushes text through an
// injected encode function. New reader kinds are added by implementing
// core.FieldReader, not by extending these.

// FieldSpec carries the identity metadata shared by all stock field readers:
// the record key to extract from and the sample key to store under.
type FieldSpec struct {
	RowKey  string // Input key in the annotation record
	DictKey string // Output key in the produced sample
}

// Source returns the record key this reader extracts from.
func (s FieldSpec) Source() string { return s.RowKey }

// Output returns the sample key this reader stores its result under.
func (s FieldSpec) Output() string { return s.DictKey }
