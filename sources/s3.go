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
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/aaronlmathis/gofeature/core"
)

// S3SourceError provides structured error information for S3 source operations.
type S3SourceError struct {
	Op  string // Operation that failed (e.g., "list_objects", "get_object", "read")
	Err error  // Underlying error
}

func (e *S3SourceError) Error() string {
	return fmt.Sprintf("s3 source %s: %v", e.Op, e.Err)
}

func (e *S3SourceError) Unwrap() error {
	return e.Err
}

// S3SourceStats holds statistics about the S3 source's progress.
type S3SourceStats struct {
	ObjectsListed  int64         // Total annotation files discovered
	ObjectsRead    int64         // Total files successfully opened
	RecordsRead    int64         // Total records read across all files
	ReadDuration   time.Duration // Total time spent reading
	LastReadTime   time.Time     // Time of last read operation
	ObjectErrors   int64         // Number of files that failed to open
	CurrentObject  string        // Currently processing object key
	ProcessedFiles []string      // Keys of successfully processed files
}

// S3SortOrder defines how annotation files are ordered for processing.
// Ordering matters: deterministic sample order requires deterministic
// file order.
type S3SortOrder string

const (
	S3SortByName         S3SortOrder = "name"
	S3SortByLastModified S3SortOrder = "last_modified"
	S3SortBySize         S3SortOrder = "size"
	S3SortNone           S3SortOrder = "none"
)

// S3SourceOptions configures the S3 annotation source.
type S3SourceOptions struct {
	Bucket          string          // S3 bucket name
	Prefix          string          // Key prefix filter
	Suffix          string          // Key suffix filter (e.g., ".csv", ".jsonl")
	MaxKeys         int32           // Maximum number of objects per list page
	Region          string          // AWS region
	Profile         string          // AWS profile to use
	Credentials     aws.Credentials // Explicit credentials
	EndpointURL     string          // Custom S3 endpoint (for S3-compatible services)
	ForcePathStyle  bool            // Use path-style addressing
	Recursive       bool            // Process nested prefixes
	SortOrder       S3SortOrder     // Order to process files
	IncludeMetadata bool            // Annotate records with object provenance fields
}

// S3Option is a functional option for S3SourceOptions.
type S3Option func(*S3SourceOptions)

func WithS3Bucket(bucket string) S3Option {
	return func(opts *S3SourceOptions) { opts.Bucket = bucket }
}

func WithS3Prefix(prefix string) S3Option {
	return func(opts *S3SourceOptions) { opts.Prefix = prefix }
}

func WithS3Suffix(suffix string) S3Option {
	return func(opts *S3SourceOptions) { opts.Suffix = suffix }
}

func WithS3Region(region string) S3Option {
	return func(opts *S3SourceOptions) { opts.Region = region }
}

func WithS3Profile(profile string) S3Option {
	return func(opts *S3SourceOptions) { opts.Profile = profile }
}

func WithS3Credentials(creds aws.Credentials) S3Option {
	return func(opts *S3SourceOptions) { opts.Credentials = creds }
}

func WithS3Endpoint(endpoint string) S3Option {
	return func(opts *S3SourceOptions) { opts.EndpointURL = endpoint }
}

func WithS3PathStyle(pathStyle bool) S3Option {
	return func(opts *S3SourceOptions) { opts.ForcePathStyle = pathStyle }
}

func WithS3MaxKeys(maxKeys int32) S3Option {
	return func(opts *S3SourceOptions) { opts.MaxKeys = maxKeys }
}

func WithS3Recursive(recursive bool) S3Option {
	return func(opts *S3SourceOptions) { opts.Recursive = recursive }
}

func WithS3SortOrder(order S3SortOrder) S3Option {
	return func(opts *S3SourceOptions) { opts.SortOrder = order }
}

func WithS3IncludeMetadata(include bool) S3Option {
	return func(opts *S3SourceOptions) { opts.IncludeMetadata = include }
}

// S3Object describes one annotation file discovered under the prefix.
type S3Object struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
}

// S3Source implements core.AnnotationSource for annotation files stored in
// Amazon S3 (or an S3-compatible store). Files under the configured prefix
// are processed in sorted order, each one dispatched to a CSV or JSONL
// source based on its extension.
type S3Source struct {
	client        *s3.Client
	objects       []S3Object
	currentIndex  int
	currentSource core.AnnotationSource
	stats         S3SourceStats
	opts          S3SourceOptions
	mu            sync.RWMutex
}

// NewS3Source creates a new S3 annotation source with the specified options.
func NewS3Source(options ...S3Option) (*S3Source, error) {
	opts := S3SourceOptions{
		MaxKeys:   1000,
		SortOrder: S3SortByName,
		Recursive: true,
	}
	for _, option := range options {
		option(&opts)
	}

	if opts.Bucket == "" {
		return nil, &S3SourceError{Op: "validate_options", Err: fmt.Errorf("bucket is required")}
	}

	cfg, err := createAWSConfig(opts)
	if err != nil {
		return nil, &S3SourceError{Op: "create_aws_config", Err: err}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	source := &S3Source{
		client: client,
		opts:   opts,
		stats:  S3SourceStats{ProcessedFiles: make([]string, 0)},
	}

	if err := source.listObjects(context.Background()); err != nil {
		return nil, &S3SourceError{Op: "list_objects", Err: err}
	}

	return source, nil
}

// Read implements the core.AnnotationSource interface.
func (s *S3Source) Read(ctx context.Context) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() {
		s.stats.ReadDuration += time.Since(start)
		s.stats.LastReadTime = time.Now()
	}()

	select {
	case <-ctx.Done():
		return nil, &S3SourceError{Op: "read", Err: ctx.Err()}
	default:
	}

	for {
		for s.currentSource == nil {
			if s.currentIndex >= len(s.objects) {
				return nil, io.EOF
			}
			if err := s.openNextObject(ctx); err != nil {
				s.stats.ObjectErrors++
				s.currentIndex++
			}
		}

		record, err := s.currentSource.Read(ctx)
		if err == io.EOF {
			s.closeCurrentSource()
			continue // next file
		}
		if err != nil {
			return nil, &S3SourceError{Op: "read_record", Err: err}
		}

		if s.opts.IncludeMetadata {
			obj := s.objects[s.currentIndex]
			record["_s3_key"] = obj.Key
			record["_s3_size"] = obj.Size
			record["_s3_last_modified"] = obj.LastModified
			record["_s3_etag"] = obj.ETag
		}

		s.stats.RecordsRead++
		return record, nil
	}
}

// Close implements the core.AnnotationSource interface.
func (s *S3Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCurrentSource()
}

// Stats returns S3 source progress statistics.
func (s *S3Source) Stats() S3SourceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Objects returns the list of annotation files that will be or have been processed.
func (s *S3Source) Objects() []S3Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects
}

// createAWSConfig creates the AWS configuration from source options.
func createAWSConfig(opts S3SourceOptions) (aws.Config, error) {
	configOpts := []func(*config.LoadOptions) error{}

	if opts.Region != "" {
		configOpts = append(configOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return aws.Config{}, err
	}

	if opts.Credentials.AccessKeyID != "" {
		cfg.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(
				opts.Credentials.AccessKeyID,
				opts.Credentials.SecretAccessKey,
				opts.Credentials.SessionToken,
			),
		)
	}

	return cfg, nil
}

// listObjects retrieves and filters annotation files from S3.
func (s *S3Source) listObjects(ctx context.Context) error {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.opts.Bucket),
		MaxKeys: &s.opts.MaxKeys,
	}
	if s.opts.Prefix != "" {
		input.Prefix = aws.String(s.opts.Prefix)
	}

	var allObjects []S3Object

	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			if !s.shouldIncludeObject(*obj.Key) {
				continue
			}
			allObjects = append(allObjects, S3Object{
				Key:          *obj.Key,
				Size:         *obj.Size,
				LastModified: *obj.LastModified,
				ETag:         strings.Trim(*obj.ETag, "\""),
			})
		}
	}

	s.sortObjects(allObjects)

	s.objects = allObjects
	s.stats.ObjectsListed = int64(len(allObjects))
	return nil
}

// shouldIncludeObject determines whether an object key names an annotation file to process.
func (s *S3Source) shouldIncludeObject(key string) bool {
	if s.opts.Suffix != "" && !strings.HasSuffix(key, s.opts.Suffix) {
		return false
	}
	if !s.opts.Recursive && strings.Contains(strings.TrimPrefix(key, s.opts.Prefix), "/") {
		return false
	}
	return true
}

// sortObjects orders the file list according to the configured sort order.
func (s *S3Source) sortObjects(objects []S3Object) {
	switch s.opts.SortOrder {
	case S3SortByName:
		sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	case S3SortByLastModified:
		sort.Slice(objects, func(i, j int) bool { return objects[i].LastModified.Before(objects[j].LastModified) })
	case S3SortBySize:
		sort.Slice(objects, func(i, j int) bool { return objects[i].Size < objects[j].Size })
	}
}

// openNextObject fetches the next S3 object and wraps it in a format-specific source.
func (s *S3Source) openNextObject(ctx context.Context) error {
	if s.currentIndex >= len(s.objects) {
		return io.EOF
	}

	obj := s.objects[s.currentIndex]
	s.stats.CurrentObject = obj.Key

	input := &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(obj.Key),
	}
	result, err := s.client.GetObject(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to get object %s: %w", obj.Key, err)
	}

	source, err := s.createSourceForObject(result.Body, obj.Key)
	if err != nil {
		result.Body.Close()
		return fmt.Errorf("failed to create source for %s: %w", obj.Key, err)
	}

	s.currentSource = source
	s.stats.ObjectsRead++
	s.stats.ProcessedFiles = append(s.stats.ProcessedFiles, obj.Key)
	return nil
}

// createSourceForObject picks the annotation format based on file extension.
func (s *S3Source) createSourceForObject(body io.ReadCloser, key string) (core.AnnotationSource, error) {
	ext := strings.ToLower(filepath.Ext(key))

	switch ext {
	case ".csv":
		return NewCSVSource(body, WithCSVHasHeaders(true))
	case ".json", ".jsonl":
		return NewJSONLSource(body), nil
	default:
		// Default to line-delimited JSON
		return NewJSONLSource(body), nil
	}
}

// closeCurrentSource closes the current file source and advances the index.
func (s *S3Source) closeCurrentSource() error {
	if s.currentSource != nil {
		err := s.currentSource.Close()
		s.currentSource = nil
		s.currentIndex++
		return err
	}
	return nil
}
