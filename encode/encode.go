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

// Package encode provides ready-made text encoders for text field readers.
//
// Encoders plug into fields.NewTextReader via fields.WithTextEncoder. They
// cover the common preprocessing steps between raw annotation text and model
// input: normalization, tokenization, and vocabulary lookup.
package encode

import (
	"fmt"
	"strings"

	"github.com/aaronlmathis/gofeature/fields"
)

// Identity returns the text unchanged.
func Identity() fields.EncodeFunc {
	return func(text string) (interface{}, error) {
		return text, nil
	}
}

// Lower lowercases the text.
func Lower() fields.EncodeFunc {
	return func(text string) (interface{}, error) {
		return strings.ToLower(text), nil
	}
}

// Tokens splits the text on whitespace and returns the token slice.
func Tokens() fields.EncodeFunc {
	return func(text string) (interface{}, error) {
		return strings.Fields(text), nil
	}
}

// Chain applies encoders left to right. Every encoder except the last must
// produce a string for the next one to consume.
func Chain(encoders ...fields.EncodeFunc) fields.EncodeFunc {
	return func(text string) (interface{}, error) {
		var result interface{} = text
		for i, encoder := range encoders {
			str, ok := result.(string)
			if !ok {
				return nil, fmt.Errorf("chain encoder %d: previous encoder produced %T, not string", i, result)
			}
			out, err := encoder(str)
			if err != nil {
				return nil, err
			}
			result = out
		}
		return result, nil
	}
}

// VocabularyOption configures a Vocabulary encoder.
type VocabularyOption func(*vocabularyConfig)

type vocabularyConfig struct {
	unknownIndex int32
	dropUnknown  bool
	lowercase    bool
}

// WithUnknownIndex maps out-of-vocabulary tokens to the given index instead
// of failing. Mutually exclusive with WithDropUnknown; the last option wins.
func WithUnknownIndex(index int32) VocabularyOption {
	return func(cfg *vocabularyConfig) {
		cfg.unknownIndex = index
		cfg.dropUnknown = false
	}
}

// WithDropUnknown silently skips out-of-vocabulary tokens.
func WithDropUnknown() VocabularyOption {
	return func(cfg *vocabularyConfig) {
		cfg.dropUnknown = true
	}
}

// WithLowercase lowercases tokens before vocabulary lookup.
func WithLowercase() VocabularyOption {
	return func(cfg *vocabularyConfig) {
		cfg.lowercase = true
	}
}

// Vocabulary returns an encoder that tokenizes text on whitespace and maps
// each token to its index in vocab, producing an []int32 token index
// sequence. Without an unknown-index or drop-unknown option, an
// out-of-vocabulary token is an error.
func Vocabulary(vocab map[string]int32, options ...VocabularyOption) fields.EncodeFunc {
	cfg := &vocabularyConfig{unknownIndex: -1}
	for _, option := range options {
		option(cfg)
	}
	hasUnknown := cfg.unknownIndex >= 0

	return func(text string) (interface{}, error) {
		tokens := strings.Fields(text)
		indices := make([]int32, 0, len(tokens))
		for _, token := range tokens {
			if cfg.lowercase {
				token = strings.ToLower(token)
			}
			index, found := vocab[token]
			if !found {
				if cfg.dropUnknown {
					continue
				}
				if !hasUnknown {
					return nil, fmt.Errorf("token %q not in vocabulary", token)
				}
				index = cfg.unknownIndex
			}
			indices = append(indices, index)
		}
		return indices, nil
	}
}

// BuildVocabulary assigns contiguous indices to the given tokens in order,
// starting at start. Useful for fixtures and small datasets; production
// vocabularies usually come from a tokenizer artifact.
func BuildVocabulary(tokens []string, start int32) map[string]int32 {
	vocab := make(map[string]int32, len(tokens))
	for i, token := range tokens {
		vocab[token] = start + int32(i)
	}
	return vocab
}
