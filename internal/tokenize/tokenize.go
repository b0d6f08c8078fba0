//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package tokenize splits captions into word tokens and sentences for metric scoring.
package tokenize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer tokenizes text into a list of tokens.
type Tokenizer interface {
	// Tokenize splits input text into tokens.
	Tokenize(text string) []string
}

// TokenizerFunc adapts a function to the Tokenizer interface.
type TokenizerFunc func(text string) []string

// Tokenize calls f(text).
func (f TokenizerFunc) Tokenize(text string) []string {
	return f(text)
}

// unicodeTokenizer keeps Vietnamese syllables intact.
// Text is composed to NFC first so that decomposed diacritics compare equal to
// precomposed ones, then lowercased with Vietnamese casing rules.
type unicodeTokenizer struct{}

// Default returns the tokenizer used by every metric unless overridden.
func Default() Tokenizer {
	return unicodeTokenizer{}
}

// Tokenize lowercases text and splits it on every rune that is not a letter,
// a combining mark or a number.
func (unicodeTokenizer) Tokenize(text string) []string {
	text = norm.NFC.String(text)
	// A Caser carries state and must not be shared across goroutines.
	text = cases.Lower(language.Vietnamese).String(text)
	return strings.FieldsFunc(text, isSeparator)
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsMark(r) && !unicode.IsNumber(r)
}

// Whitespace splits on whitespace only, without normalization.
var Whitespace Tokenizer = TokenizerFunc(strings.Fields)
