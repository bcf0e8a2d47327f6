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
	"crypto/tls"
	"fmt"
	"io"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/aaronlmathis/gofeature/core"
)

// This file implements a MongoDB annotation source. Annotation platforms that
// store flexible per-example metadata (bounding boxes, multi-label tags, free
// text) often keep it in a document collection; this source streams those
// documents as annotation records, flattening BSON primitives to plain Go types.

// MongoSourceError provides structured error information for MongoDB source operations.
type MongoSourceError struct {
	Op         string // Operation that failed (e.g., "connect", "query", "decode")
	Collection string // Collection being accessed when the error occurred
	Err        error  // Underlying error
}

func (e *MongoSourceError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("mongo source %s [%s]: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("mongo source %s: %v", e.Op, e.Err)
}

func (e *MongoSourceError) Unwrap() error {
	return e.Err
}

// MongoSourceStats holds statistics about the MongoDB source's progress.
type MongoSourceStats struct {
	RecordsRead     int64
	QueriesExecuted int64
	ReadDuration    time.Duration
	LastReadTime    time.Time
	NullValueCounts map[string]int64
	ErrorCount      int64
}

// MongoSourceOptions configures the MongoDB source.
type MongoSourceOptions struct {
	URI            string        // MongoDB connection URI
	Database       string        // Database name
	Collection     string        // Annotation collection name
	Filter         bson.M        // Query filter
	Projection     bson.M        // Field projection
	Sort           bson.M        // Sort specification (keep deterministic order)
	Pipeline       []bson.M      // Aggregation pipeline (overrides Filter)
	BatchSize      int32         // Batch size for the cursor
	Limit          int64         // Maximum number of documents to read
	Skip           int64         // Number of documents to skip
	Timeout        time.Duration // Connect timeout
	MaxPoolSize    uint64        // Connection pool size
	MinPoolSize    uint64        // Minimum connections in pool
	ReadPreference string        // primary, primaryPreferred, secondary, ...
	AuthDatabase   string        // Authentication database
	Username       string        // Authentication username
	Password       string        // Authentication password
	TLS            bool          // Enable TLS
	TLSInsecure    bool          // Skip TLS verification
}

// MongoOption is a functional option for MongoSourceOptions.
type MongoOption func(*MongoSourceOptions)

func WithMongoURI(uri string) MongoOption {
	return func(opts *MongoSourceOptions) { opts.URI = uri }
}

func WithMongoDB(database string) MongoOption {
	return func(opts *MongoSourceOptions) { opts.Database = database }
}

func WithMongoCollection(collection string) MongoOption {
	return func(opts *MongoSourceOptions) { opts.Collection = collection }
}

func WithMongoFilter(filter bson.M) MongoOption {
	return func(opts *MongoSourceOptions) { opts.Filter = filter }
}

func WithMongoProjection(projection bson.M) MongoOption {
	return func(opts *MongoSourceOptions) { opts.Projection = projection }
}

func WithMongoSort(sort bson.M) MongoOption {
	return func(opts *MongoSourceOptions) { opts.Sort = sort }
}

func WithMongoPipeline(pipeline []bson.M) MongoOption {
	return func(opts *MongoSourceOptions) { opts.Pipeline = pipeline }
}

func WithMongoLimit(limit int64) MongoOption {
	return func(opts *MongoSourceOptions) { opts.Limit = limit }
}

func WithMongoSkip(skip int64) MongoOption {
	return func(opts *MongoSourceOptions) { opts.Skip = skip }
}

func WithMongoBatchSize(batchSize int32) MongoOption {
	return func(opts *MongoSourceOptions) { opts.BatchSize = batchSize }
}

func WithMongoTimeout(timeout time.Duration) MongoOption {
	return func(opts *MongoSourceOptions) { opts.Timeout = timeout }
}

func WithMongoPoolSize(min, max uint64) MongoOption {
	return func(opts *MongoSourceOptions) {
		opts.MinPoolSize = min
		opts.MaxPoolSize = max
	}
}

func WithMongoReadPreference(preference string) MongoOption {
	return func(opts *MongoSourceOptions) { opts.ReadPreference = preference }
}

func WithMongoAuth(username, password, authDB string) MongoOption {
	return func(opts *MongoSourceOptions) {
		opts.Username = username
		opts.Password = password
		opts.AuthDatabase = authDB
	}
}

func WithMongoTLS(enabled, insecure bool) MongoOption {
	return func(opts *MongoSourceOptions) {
		opts.TLS = enabled
		opts.TLSInsecure = insecure
	}
}

// MongoSource implements core.AnnotationSource for MongoDB annotation collections.
type MongoSource struct {
	client     *mongo.Client
	collection *mongo.Collection
	cursor     *mongo.Cursor
	opts       *MongoSourceOptions
	stats      MongoSourceStats
	connected  bool
}

// NewMongoSource creates a MongoDB annotation source with configurable options.
// The connection is established lazily on the first Read.
func NewMongoSource(options ...MongoOption) (*MongoSource, error) {
	opts := &MongoSourceOptions{
		URI:            "mongodb://localhost:27017",
		BatchSize:      1000,
		Timeout:        30 * time.Second,
		MaxPoolSize:    100,
		MinPoolSize:    5,
		ReadPreference: "primary",
	}
	for _, option := range options {
		option(opts)
	}

	if opts.Database == "" {
		return nil, &MongoSourceError{Op: "validate", Err: fmt.Errorf("database name is required")}
	}
	if opts.Collection == "" {
		return nil, &MongoSourceError{Op: "validate", Err: fmt.Errorf("collection name is required")}
	}

	return &MongoSource{
		opts:  opts,
		stats: MongoSourceStats{NullValueCounts: make(map[string]int64)},
	}, nil
}

// Connect establishes the connection to MongoDB. Read calls it automatically.
func (ms *MongoSource) Connect(ctx context.Context) error {
	if ms.connected {
		return nil
	}

	clientOpts, err := ms.buildClientOptions()
	if err != nil {
		return &MongoSourceError{Op: "build_options", Err: err}
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return &MongoSourceError{Op: "connect", Err: err}
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return &MongoSourceError{Op: "ping", Err: err}
	}

	ms.client = client
	ms.collection = client.Database(ms.opts.Database).Collection(ms.opts.Collection)
	ms.connected = true
	return nil
}

// buildClientOptions constructs MongoDB client options from the source configuration.
func (ms *MongoSource) buildClientOptions() (*options.ClientOptions, error) {
	clientOpts := options.Client().ApplyURI(ms.opts.URI)

	if ms.opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(ms.opts.MaxPoolSize)
	}
	if ms.opts.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(ms.opts.MinPoolSize)
	}
	if ms.opts.Timeout > 0 {
		clientOpts.SetConnectTimeout(ms.opts.Timeout)
	}

	if ms.opts.Username != "" && ms.opts.Password != "" {
		auth := options.Credential{
			Username:   ms.opts.Username,
			Password:   ms.opts.Password,
			AuthSource: ms.opts.AuthDatabase,
		}
		if auth.AuthSource == "" {
			auth.AuthSource = ms.opts.Database
		}
		clientOpts.SetAuth(auth)
	}

	if ms.opts.TLS {
		clientOpts.SetTLSConfig(&tls.Config{InsecureSkipVerify: ms.opts.TLSInsecure})
	}

	if ms.opts.ReadPreference != "" {
		var pref *readpref.ReadPref
		switch ms.opts.ReadPreference {
		case "primary":
			pref = readpref.Primary()
		case "primaryPreferred":
			pref = readpref.PrimaryPreferred()
		case "secondary":
			pref = readpref.Secondary()
		case "secondaryPreferred":
			pref = readpref.SecondaryPreferred()
		case "nearest":
			pref = readpref.Nearest()
		default:
			return nil, fmt.Errorf("invalid read preference: %s", ms.opts.ReadPreference)
		}
		clientOpts.SetReadPreference(pref)
	}

	return clientOpts, nil
}

// Read implements the core.AnnotationSource interface.
func (ms *MongoSource) Read(ctx context.Context) (core.Record, error) {
	start := time.Now()
	defer func() {
		ms.stats.ReadDuration += time.Since(start)
		ms.stats.LastReadTime = time.Now()
	}()

	if !ms.connected {
		if err := ms.Connect(ctx); err != nil {
			return nil, err
		}
	}
	if ms.cursor == nil {
		if err := ms.initializeCursor(ctx); err != nil {
			return nil, &MongoSourceError{Op: "init_cursor", Collection: ms.opts.Collection, Err: err}
		}
	}

	select {
	case <-ctx.Done():
		return nil, &MongoSourceError{Op: "read", Collection: ms.opts.Collection, Err: ctx.Err()}
	default:
	}

	if !ms.cursor.Next(ctx) {
		if err := ms.cursor.Err(); err != nil {
			ms.stats.ErrorCount++
			return nil, &MongoSourceError{Op: "cursor_next", Collection: ms.opts.Collection, Err: err}
		}
		return nil, io.EOF
	}

	var doc bson.M
	if err := ms.cursor.Decode(&doc); err != nil {
		ms.stats.ErrorCount++
		return nil, &MongoSourceError{Op: "decode", Collection: ms.opts.Collection, Err: err}
	}

	record := make(core.Record, len(doc))
	for key, value := range doc {
		record[key] = convertBSONValue(value)
		if record[key] == nil {
			ms.stats.NullValueCounts[key]++
		}
	}

	ms.stats.RecordsRead++
	return record, nil
}

// Close implements the core.AnnotationSource interface.
func (ms *MongoSource) Close() error {
	ctx := context.Background()
	var errs []string

	if ms.cursor != nil {
		if err := ms.cursor.Close(ctx); err != nil {
			errs = append(errs, fmt.Sprintf("cursor close: %v", err))
		}
		ms.cursor = nil
	}
	if ms.client != nil {
		if err := ms.client.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Sprintf("client disconnect: %v", err))
		}
		ms.client = nil
	}
	ms.connected = false

	if len(errs) > 0 {
		return &MongoSourceError{Op: "close", Err: fmt.Errorf("multiple errors: %s", strings.Join(errs, "; "))}
	}
	return nil
}

// Stats returns MongoDB source progress statistics.
func (ms *MongoSource) Stats() MongoSourceStats {
	return ms.stats
}

// initializeCursor runs either the find query or the aggregation pipeline.
func (ms *MongoSource) initializeCursor(ctx context.Context) error {
	ms.stats.QueriesExecuted++

	if len(ms.opts.Pipeline) > 0 {
		aggOpts := options.Aggregate()
		if ms.opts.BatchSize > 0 {
			aggOpts.SetBatchSize(ms.opts.BatchSize)
		}
		cursor, err := ms.collection.Aggregate(ctx, ms.opts.Pipeline, aggOpts)
		if err != nil {
			return err
		}
		ms.cursor = cursor
		return nil
	}

	findOpts := options.Find()
	if ms.opts.BatchSize > 0 {
		findOpts.SetBatchSize(ms.opts.BatchSize)
	}
	if ms.opts.Limit > 0 {
		findOpts.SetLimit(ms.opts.Limit)
	}
	if ms.opts.Skip > 0 {
		findOpts.SetSkip(ms.opts.Skip)
	}
	if ms.opts.Projection != nil {
		findOpts.SetProjection(ms.opts.Projection)
	}
	if ms.opts.Sort != nil {
		findOpts.SetSort(ms.opts.Sort)
	}

	filter := ms.opts.Filter
	if filter == nil {
		filter = bson.M{}
	}

	cursor, err := ms.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return err
	}
	ms.cursor = cursor
	return nil
}

// convertBSONValue converts BSON values to plain Go types.
func convertBSONValue(value interface{}) interface{} {
	switch v := value.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case primitive.DateTime:
		return v.Time()
	case primitive.Decimal128:
		if bigInt, _, err := v.BigInt(); err == nil {
			return bigInt.String()
		}
		return v.String()
	case primitive.Binary:
		return v.Data
	case primitive.Timestamp:
		return time.Unix(int64(v.T), 0)
	case primitive.Undefined, primitive.Null:
		return nil
	case bson.M:
		result := make(map[string]interface{}, len(v))
		for k, val := range v {
			result[k] = convertBSONValue(val)
		}
		return result
	case bson.A:
		result := make([]interface{}, len(v))
		for i, val := range v {
			result[i] = convertBSONValue(val)
		}
		return result
	default:
		return v
	}
}
