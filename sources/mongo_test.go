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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The connection is lazy, so construction and BSON conversion are testable
// without a running server.

func TestMongoSource_Validation(t *testing.T) {
	t.Run("missing_database", func(t *testing.T) {
		_, err := NewMongoSource(WithMongoCollection("annotations"))
		require.Error(t, err)

		var srcErr *MongoSourceError
		require.ErrorAs(t, err, &srcErr)
		assert.Equal(t, "validate", srcErr.Op)
	})

	t.Run("missing_collection", func(t *testing.T) {
		_, err := NewMongoSource(WithMongoDB("datasets"))
		require.Error(t, err)

		var srcErr *MongoSourceError
		require.ErrorAs(t, err, &srcErr)
		assert.Equal(t, "validate", srcErr.Op)
	})
}

func TestMongoSource_Options(t *testing.T) {
	source, err := NewMongoSource(
		WithMongoURI("mongodb://db.example.com:27017"),
		WithMongoDB("datasets"),
		WithMongoCollection("annotations"),
		WithMongoFilter(bson.M{"split": "train"}),
		WithMongoProjection(bson.M{"filepath": 1, "label": 1}),
		WithMongoSort(bson.M{"filepath": 1}),
		WithMongoLimit(500),
		WithMongoSkip(10),
		WithMongoBatchSize(100),
		WithMongoTimeout(5*time.Second),
		WithMongoReadPreference("secondaryPreferred"),
	)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db.example.com:27017", source.opts.URI)
	assert.Equal(t, "datasets", source.opts.Database)
	assert.Equal(t, "annotations", source.opts.Collection)
	assert.Equal(t, bson.M{"split": "train"}, source.opts.Filter)
	assert.Equal(t, int64(500), source.opts.Limit)
	assert.Equal(t, int64(10), source.opts.Skip)
	assert.Equal(t, int32(100), source.opts.BatchSize)
	assert.Equal(t, 5*time.Second, source.opts.Timeout)
	assert.Equal(t, "secondaryPreferred", source.opts.ReadPreference)
}

func TestMongoSource_Defaults(t *testing.T) {
	source, err := NewMongoSource(
		WithMongoDB("datasets"),
		WithMongoCollection("annotations"),
	)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://localhost:27017", source.opts.URI)
	assert.Equal(t, int32(1000), source.opts.BatchSize)
	assert.Equal(t, "primary", source.opts.ReadPreference)
}

func TestMongoSource_ConvertBSONValue(t *testing.T) {
	t.Run("object_id", func(t *testing.T) {
		id := primitive.NewObjectID()
		assert.Equal(t, id.Hex(), convertBSONValue(id))
	})

	t.Run("datetime", func(t *testing.T) {
		now := time.Now().Truncate(time.Millisecond)
		dt := primitive.NewDateTimeFromTime(now)
		converted, ok := convertBSONValue(dt).(time.Time)
		require.True(t, ok)
		assert.True(t, now.Equal(converted))
	})

	t.Run("null_and_undefined", func(t *testing.T) {
		assert.Nil(t, convertBSONValue(primitive.Null{}))
		assert.Nil(t, convertBSONValue(primitive.Undefined{}))
	})

	t.Run("binary", func(t *testing.T) {
		bin := primitive.Binary{Data: []byte{0x01, 0x02}}
		assert.Equal(t, []byte{0x01, 0x02}, convertBSONValue(bin))
	})

	t.Run("nested_document", func(t *testing.T) {
		doc := bson.M{"bbox": bson.M{"x": int32(10), "y": int32(20)}}
		converted, ok := convertBSONValue(doc).(map[string]interface{})
		require.True(t, ok)
		bbox, ok := converted["bbox"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, int32(10), bbox["x"])
	})

	t.Run("array", func(t *testing.T) {
		arr := bson.A{"cat", "outdoor", primitive.Null{}}
		converted, ok := convertBSONValue(arr).([]interface{})
		require.True(t, ok)
		assert.Equal(t, []interface{}{"cat", "outdoor", nil}, converted)
	})

	t.Run("passthrough", func(t *testing.T) {
		assert.Equal(t, "label", convertBSONValue("label"))
		assert.Equal(t, int64(7), convertBSONValue(int64(7)))
		assert.Equal(t, 0.5, convertBSONValue(0.5))
	})
}
