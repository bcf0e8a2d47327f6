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

package encode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	out, err := Identity()("Hello World")
	require.NoError(t, err)
	assert.Equal(t, "Hello World", out)
}

func TestLower(t *testing.T) {
	out, err := Lower()("Hello World")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestTokens(t *testing.T) {
	out, err := Tokens()("a  cat\tsitting ")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "cat", "sitting"}, out)
}

func TestChain(t *testing.T) {
	out, err := Chain(Lower(), Tokens())("A Cat")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "cat"}, out)
}

func TestChain_NonStringIntermediate(t *testing.T) {
	_, err := Chain(Tokens(), Lower())("a cat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not string")
}

func TestVocabulary(t *testing.T) {
	vocab := BuildVocabulary([]string{"a", "cat", "dog"}, 0)

	t.Run("known_tokens", func(t *testing.T) {
		out, err := Vocabulary(vocab)("a cat")
		require.NoError(t, err)
		assert.Equal(t, []int32{0, 1}, out)
	})

	t.Run("unknown_token_errors", func(t *testing.T) {
		_, err := Vocabulary(vocab)("a bird")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bird")
	})

	t.Run("unknown_index", func(t *testing.T) {
		out, err := Vocabulary(vocab, WithUnknownIndex(99))("a bird")
		require.NoError(t, err)
		assert.Equal(t, []int32{0, 99}, out)
	})

	t.Run("drop_unknown", func(t *testing.T) {
		out, err := Vocabulary(vocab, WithDropUnknown())("a bird cat")
		require.NoError(t, err)
		assert.Equal(t, []int32{0, 1}, out)
	})

	t.Run("lowercase", func(t *testing.T) {
		out, err := Vocabulary(vocab, WithLowercase())("A CAT")
		require.NoError(t, err)
		assert.Equal(t, []int32{0, 1}, out)
	})

	t.Run("empty_text", func(t *testing.T) {
		out, err := Vocabulary(vocab)("")
		require.NoError(t, err)
		assert.Equal(t, []int32{}, out)
	})
}

func TestBuildVocabulary(t *testing.T) {
	vocab := BuildVocabulary([]string{"pad", "unk", "cat"}, 0)
	assert.Equal(t, int32(0), vocab["pad"])
	assert.Equal(t, int32(2), vocab["cat"])

	offset := BuildVocabulary([]string{"cat"}, 10)
	assert.Equal(t, int32(10), offset["cat"])
}
