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
	"database/sql"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aaronlmathis/gofeature/core"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// This file implements a PostgreSQL annotation source: labeling platforms and
// curation tools commonly keep the dataset index in a relational table, one row
// per example. The source streams query results with connection pooling and an
// optional server-side cursor for large datasets.

// PostgresSourceError provides structured error information for Postgres source operations.
type PostgresSourceError struct {
	Op  string // Operation that failed (e.g., "connect", "query", "scan", "read")
	Err error  // Underlying error
}

func (e *PostgresSourceError) Error() string {
	return fmt.Sprintf("postgres source %s: %v", e.Op, e.Err)
}

func (e *PostgresSourceError) Unwrap() error {
	return e.Err
}

// PostgresSourceStats holds statistics about the Postgres source's progress.
type PostgresSourceStats struct {
	RecordsRead     int64
	QueryDuration   time.Duration
	ReadDuration    time.Duration
	LastReadTime    time.Time
	NullValueCounts map[string]int64
	ConnectionTime  time.Duration
}

// PostgresSourceOptions configures the Postgres source.
type PostgresSourceOptions struct {
	DSN             string        // Database connection string
	Query           string        // SQL query to execute (overrides Table/Columns)
	Params          []interface{} // Optional query parameters
	Table           string        // Annotation table (used when Query is empty)
	Columns         []string      // Columns to select (empty = all)
	OrderBy         string        // Deterministic ordering column (used with Table)
	FetchSize       int           // Rows fetched per cursor batch
	ConnMaxLifetime time.Duration // Maximum connection lifetime
	MaxOpenConns    int           // Maximum open connections
	MaxIdleConns    int           // Maximum idle connections
	QueryTimeout    time.Duration // Query execution timeout
	UseCursor       bool          // Use a server-side cursor for large results
	CursorName      string        // Cursor name (when UseCursor is true)
}

// PostgresOption represents a configuration function for PostgresSourceOptions.
type PostgresOption func(*PostgresSourceOptions)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) PostgresOption {
	return func(opts *PostgresSourceOptions) { opts.DSN = dsn }
}

// WithPostgresQuery sets an explicit SQL query and optional parameters.
func WithPostgresQuery(query string, params ...interface{}) PostgresOption {
	return func(opts *PostgresSourceOptions) {
		opts.Query = query
		if len(params) > 0 {
			opts.Params = make([]interface{}, len(params))
			copy(opts.Params, params)
		}
	}
}

// WithPostgresTable selects an annotation table instead of an explicit query.
// orderBy keeps record order deterministic across runs.
func WithPostgresTable(table, orderBy string, columns ...string) PostgresOption {
	return func(opts *PostgresSourceOptions) {
		opts.Table = table
		opts.OrderBy = orderBy
		opts.Columns = columns
	}
}

// WithPostgresFetchSize sets the rows fetched per cursor batch.
func WithPostgresFetchSize(size int) PostgresOption {
	return func(opts *PostgresSourceOptions) { opts.FetchSize = size }
}

// WithPostgresConnectionPool configures the connection pool.
func WithPostgresConnectionPool(maxOpen, maxIdle int) PostgresOption {
	return func(opts *PostgresSourceOptions) {
		opts.MaxOpenConns = maxOpen
		opts.MaxIdleConns = maxIdle
	}
}

// WithPostgresQueryTimeout sets the query execution timeout.
func WithPostgresQueryTimeout(timeout time.Duration) PostgresOption {
	return func(opts *PostgresSourceOptions) { opts.QueryTimeout = timeout }
}

// WithPostgresCursor enables server-side cursor usage for large datasets.
func WithPostgresCursor(name string) PostgresOption {
	return func(opts *PostgresSourceOptions) {
		opts.UseCursor = true
		opts.CursorName = name
	}
}

// PostgresSource implements core.AnnotationSource for PostgreSQL-backed
// annotation tables. Thread-safe.
type PostgresSource struct {
	mu          sync.Mutex
	db          *sql.DB
	tx          *sql.Tx
	rows        *sql.Rows
	columnNames []string
	columnTypes []*sql.ColumnType
	scanBuffer  []interface{}
	values      []interface{}
	cursorName  string
	fetchSize   int
	query       string
	params      []interface{}
	stats       PostgresSourceStats
	opts        *PostgresSourceOptions
	finished    bool
}

// NewPostgresSource creates a PostgreSQL annotation source with the given options.
// Returns a ready-to-use source or an error.
func NewPostgresSource(options ...PostgresOption) (*PostgresSource, error) {
	opts := &PostgresSourceOptions{
		FetchSize:       1000,
		QueryTimeout:    30 * time.Second,
		ConnMaxLifetime: 5 * time.Minute,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
	}
	for _, option := range options {
		option(opts)
	}

	if opts.DSN == "" {
		return nil, &PostgresSourceError{Op: "validate", Err: fmt.Errorf("dsn is required")}
	}
	query, err := buildAnnotationQuery(opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, &PostgresSourceError{Op: "connect", Err: err}
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	ctx := context.Background()
	if opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.QueryTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &PostgresSourceError{Op: "ping", Err: err}
	}

	source := &PostgresSource{
		db:         db,
		query:      query,
		params:     opts.Params,
		fetchSize:  opts.FetchSize,
		cursorName: opts.CursorName,
		opts:       opts,
		stats: PostgresSourceStats{
			NullValueCounts: make(map[string]int64),
			ConnectionTime:  time.Since(start),
		},
	}

	if err := source.executeQuery(ctx); err != nil {
		source.Close()
		return nil, err
	}
	return source, nil
}

// buildAnnotationQuery derives the SQL from either Query or Table options.
func buildAnnotationQuery(opts *PostgresSourceOptions) (string, error) {
	if opts.Query != "" {
		return opts.Query, nil
	}
	if opts.Table == "" {
		return "", &PostgresSourceError{Op: "validate", Err: fmt.Errorf("query or table is required")}
	}
	for _, ident := range append([]string{opts.Table, opts.OrderBy}, opts.Columns...) {
		if ident != "" && !isValidIdentifier(ident) {
			return "", &PostgresSourceError{Op: "validate", Err: fmt.Errorf("invalid identifier: %s", ident)}
		}
	}
	cols := "*"
	if len(opts.Columns) > 0 {
		cols = strings.Join(opts.Columns, ", ")
	}
	query := fmt.Sprintf("SELECT %s FROM %s", cols, opts.Table)
	if opts.OrderBy != "" {
		query += " ORDER BY " + opts.OrderBy
	}
	return query, nil
}

// Read implements the core.AnnotationSource interface. Thread-safe.
func (p *PostgresSource) Read(ctx context.Context) (core.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	defer func() {
		p.stats.ReadDuration += time.Since(start)
		p.stats.LastReadTime = time.Now()
	}()

	select {
	case <-ctx.Done():
		return nil, &PostgresSourceError{Op: "read", Err: ctx.Err()}
	default:
	}

	if p.db == nil {
		return nil, &PostgresSourceError{Op: "read", Err: fmt.Errorf("source is closed")}
	}
	if p.finished || p.rows == nil {
		return nil, io.EOF
	}

	// Cursor mode fetches the next batch once when the current one drains; an
	// empty batch means the cursor itself is exhausted.
	refetched := false
	for !p.rows.Next() {
		if err := p.rows.Err(); err != nil {
			return nil, &PostgresSourceError{Op: "read", Err: err}
		}
		if p.tx == nil || refetched {
			p.finished = true
			return nil, io.EOF
		}
		if err := p.fetchNextBatch(ctx); err != nil {
			return nil, err
		}
		refetched = true
	}

	if err := p.rows.Scan(p.scanBuffer...); err != nil {
		return nil, &PostgresSourceError{Op: "scan", Err: err}
	}

	record := p.rowToRecord()
	p.stats.RecordsRead++
	return record, nil
}

// Close releases all resources held by the PostgreSQL source.
func (p *PostgresSource) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error

	if p.rows != nil {
		if err := p.rows.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing rows: %w", err))
		}
		p.rows = nil
	}
	if p.tx != nil {
		if err := p.tx.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("rolling back transaction: %w", err))
		}
		p.tx = nil
	}
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing database: %w", err))
		}
		p.db = nil
	}

	if len(errs) > 0 {
		return &PostgresSourceError{Op: "close", Err: fmt.Errorf("multiple errors: %v", errs)}
	}
	return nil
}

// Stats returns a copy of the source's progress statistics.
func (p *PostgresSource) Stats() PostgresSourceStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	statsCopy := p.stats
	statsCopy.NullValueCounts = make(map[string]int64, len(p.stats.NullValueCounts))
	for k, v := range p.stats.NullValueCounts {
		statsCopy.NullValueCounts[k] = v
	}
	return statsCopy
}

// Schema returns a map of column name to database type name.
func (p *PostgresSource) Schema() map[string]string {
	schema := make(map[string]string)
	for i, name := range p.columnNames {
		if i < len(p.columnTypes) {
			schema[name] = p.columnTypes[i].DatabaseTypeName()
		}
	}
	return schema
}

// executeQuery runs the query (directly or via cursor) and prepares scan buffers.
func (p *PostgresSource) executeQuery(ctx context.Context) error {
	start := time.Now()

	var err error
	if p.opts.UseCursor {
		err = p.declareCursor(ctx)
	} else {
		p.rows, err = p.db.QueryContext(ctx, p.query, p.params...)
	}
	if err != nil {
		return &PostgresSourceError{Op: "query", Err: err}
	}
	p.stats.QueryDuration = time.Since(start)

	if p.columnNames, err = p.rows.Columns(); err != nil {
		return &PostgresSourceError{Op: "columns", Err: err}
	}
	if p.columnTypes, err = p.rows.ColumnTypes(); err != nil {
		return &PostgresSourceError{Op: "column_types", Err: err}
	}

	p.scanBuffer = make([]interface{}, len(p.columnNames))
	p.values = make([]interface{}, len(p.columnNames))
	for i := range p.scanBuffer {
		p.scanBuffer[i] = &p.values[i]
	}
	return nil
}

// declareCursor opens a transaction-scoped server-side cursor and fetches the
// first batch.
func (p *PostgresSource) declareCursor(ctx context.Context) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return &PostgresSourceError{Op: "begin_transaction", Err: err}
	}
	p.tx = tx

	if p.cursorName == "" {
		p.cursorName = "gofeature_cursor"
	}
	if !isValidIdentifier(p.cursorName) {
		tx.Rollback()
		p.tx = nil
		return &PostgresSourceError{Op: "validate_cursor",
			Err: fmt.Errorf("invalid cursor name: %s", p.cursorName)}
	}

	declareSQL := fmt.Sprintf("DECLARE %s CURSOR FOR %s", p.cursorName, p.query)
	if _, err := tx.ExecContext(ctx, declareSQL, p.params...); err != nil {
		tx.Rollback()
		p.tx = nil
		return &PostgresSourceError{Op: "declare_cursor", Err: err}
	}

	p.rows, err = tx.QueryContext(ctx, fmt.Sprintf("FETCH %d FROM %s", p.fetchSize, p.cursorName))
	if err != nil {
		tx.Rollback()
		p.tx = nil
		return &PostgresSourceError{Op: "fetch_cursor", Err: err}
	}
	return nil
}

// fetchNextBatch advances the server-side cursor by one FETCH.
func (p *PostgresSource) fetchNextBatch(ctx context.Context) error {
	if err := p.rows.Close(); err != nil {
		return &PostgresSourceError{Op: "close_batch", Err: err}
	}

	rows, err := p.tx.QueryContext(ctx, fmt.Sprintf("FETCH %d FROM %s", p.fetchSize, p.cursorName))
	if err != nil {
		return &PostgresSourceError{Op: "fetch_cursor", Err: err}
	}
	p.rows = rows
	return nil
}

// isValidIdentifier validates SQL identifiers used in generated statements.
func isValidIdentifier(name string) bool {
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_' || r == '.') {
			return false
		}
	}
	return len(name) > 0 && len(name) <= 63
}

// rowToRecord converts the scanned SQL row values to a core.Record.
func (p *PostgresSource) rowToRecord() core.Record {
	record := make(core.Record, len(p.columnNames))

	for i, columnName := range p.columnNames {
		value := p.values[i]
		if value == nil {
			p.stats.NullValueCounts[columnName]++
			record[columnName] = nil
			continue
		}
		record[columnName] = convertSQLValue(value, p.columnTypes[i])
	}
	return record
}

// convertSQLValue converts SQL driver values to plain Go types.
func convertSQLValue(value interface{}, colType *sql.ColumnType) interface{} {
	if b, ok := value.([]byte); ok {
		switch colType.DatabaseTypeName() {
		case "TEXT", "VARCHAR", "CHAR", "BPCHAR", "NAME":
			return string(b)
		default:
			// Keep binary types like BYTEA as bytes.
			return b
		}
	}

	switch v := value.(type) {
	case time.Time, bool, int64, float64, string:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float32:
		return float64(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
