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
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aaronlmathis/gofeature/core"
)

// JSONLSourceError wraps structured error information for the JSONL source.
type JSONLSourceError struct {
	Op   string
	Line int64
	Err  error
}

func (e *JSONLSourceError) Error() string {
	return fmt.Sprintf("jsonl source %s line %d: %v", e.Op, e.Line, e.Err)
}

func (e *JSONLSourceError) Unwrap() error {
	return e.Err
}

// JSONLSource implements core.AnnotationSource for line-delimited JSON
// manifests, one annotation record per line. Blank lines are skipped.
type JSONLSource struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int64
}

// NewJSONLSource creates a source over a line-delimited JSON manifest.
func NewJSONLSource(r io.ReadCloser) *JSONLSource {
	return &JSONLSource{
		scanner: bufio.NewScanner(r),
		closer:  r,
	}
}

// Read implements the core.AnnotationSource interface.
func (j *JSONLSource) Read(ctx context.Context) (core.Record, error) {
	select {
	case <-ctx.Done():
		return nil, &JSONLSourceError{Op: "read", Line: j.line, Err: ctx.Err()}
	default:
	}

	for j.scanner.Scan() {
		j.line++
		line := bytes.TrimSpace(j.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var record core.Record
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, &JSONLSourceError{Op: "unmarshal", Line: j.line, Err: err}
		}
		return record, nil
	}

	if err := j.scanner.Err(); err != nil {
		return nil, &JSONLSourceError{Op: "scan", Line: j.line, Err: err}
	}
	return nil, io.EOF
}

// Close implements the core.AnnotationSource interface.
func (j *JSONLSource) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
