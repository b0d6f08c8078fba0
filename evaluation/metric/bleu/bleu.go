//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package bleu computes corpus-level BLEU for captions.
//
// Corpus follows the COCO caption evaluation scorer: n-gram counts are clipped
// by the maximum count over an image's references, the effective reference length
// of a candidate is the closest reference length, and statistics are accumulated
// over the whole corpus before the geometric mean and brevity penalty are applied.
//
// Sentence-free NMT style BLEU, as used during training, is provided by Geometric.
package bleu

import (
	"fmt"
	"math"
	"strings"

	"trpc.group/trpc-go/trpc-caption-go/internal/tokenize"
)

// MaxOrder is the highest n-gram order scored.
const MaxOrder = 4

const (
	tiny  = 1e-15
	small = 1e-9
)

// Option configures BLEU scoring.
type Option func(*options)

type options struct {
	tokenizer tokenize.Tokenizer
}

// WithTokenizer overrides the word tokenizer.
func WithTokenizer(tokenizer tokenize.Tokenizer) Option {
	return func(o *options) {
		if tokenizer != nil {
			o.tokenizer = tokenizer
		}
	}
}

func newOptions(opt ...Option) *options {
	o := &options{tokenizer: tokenize.Default()}
	for _, apply := range opt {
		apply(o)
	}
	return o
}

// Stats are the corpus statistics BLEU is derived from.
type Stats struct {
	TestLen int
	RefLen  int
	Guess   [MaxOrder]int
	Correct [MaxOrder]int
}

// Corpus returns BLEU-1 to BLEU-4, each in [0, 1], for the candidates of every
// image against that image's references. references[i] and candidates[i] belong
// to the same image; every candidate is an independent hypothesis.
func Corpus(references, candidates [][]string, opt ...Option) ([MaxOrder]float64, Stats, error) {
	var scores [MaxOrder]float64
	if len(references) != len(candidates) {
		return scores, Stats{}, fmt.Errorf("got %d reference sets for %d candidate sets", len(references), len(candidates))
	}
	opts := newOptions(opt...)
	var stats Stats
	for i := range references {
		if len(references[i]) == 0 {
			return scores, Stats{}, fmt.Errorf("image %d has no references", i)
		}
		refLens, maxCounts := cookRefs(references[i], opts.tokenizer)
		for _, candidate := range candidates[i] {
			cookTest(&stats, opts.tokenizer.Tokenize(candidate), refLens, maxCounts)
		}
	}
	return stats.Scores(), stats, nil
}

// Scores derives BLEU-1 to BLEU-4 from accumulated statistics.
func (s Stats) Scores() [MaxOrder]float64 {
	var scores [MaxOrder]float64
	bleu := 1.0
	for k := 0; k < MaxOrder; k++ {
		bleu *= (float64(s.Correct[k]) + tiny) / (float64(s.Guess[k]) + small)
		scores[k] = math.Pow(bleu, 1.0/float64(k+1))
	}
	ratio := (float64(s.TestLen) + tiny) / (float64(s.RefLen) + small)
	if ratio < 1 {
		bp := math.Exp(1 - 1/ratio)
		for k := range scores {
			scores[k] *= bp
		}
	}
	return scores
}

// cookRefs returns the reference lengths and, per n-gram, its maximum count
// over the references.
func cookRefs(refs []string, tok tokenize.Tokenizer) ([]int, map[string]int) {
	lens := make([]int, 0, len(refs))
	maxCounts := make(map[string]int)
	for _, ref := range refs {
		words := tok.Tokenize(ref)
		lens = append(lens, len(words))
		for ngram, count := range countNGrams(words, MaxOrder) {
			if count > maxCounts[ngram] {
				maxCounts[ngram] = count
			}
		}
	}
	return lens, maxCounts
}

func cookTest(s *Stats, words []string, refLens []int, maxCounts map[string]int) {
	testLen := len(words)
	s.TestLen += testLen
	s.RefLen += closestRefLen(refLens, testLen)
	for k := 0; k < MaxOrder; k++ {
		s.Guess[k] += max(0, testLen-k)
	}
	for ngram, count := range countNGrams(words, MaxOrder) {
		s.Correct[orderOf(ngram)] += min(maxCounts[ngram], count)
	}
}

// closestRefLen picks the reference length closest to testLen, the shorter on ties.
func closestRefLen(refLens []int, testLen int) int {
	best := refLens[0]
	for _, l := range refLens[1:] {
		d, bd := abs(l-testLen), abs(best-testLen)
		if d < bd || (d == bd && l < best) {
			best = l
		}
	}
	return best
}

// countNGrams counts every n-gram of order 1..n, keyed by NUL-joined tokens.
func countNGrams(words []string, n int) map[string]int {
	counts := make(map[string]int)
	for k := 1; k <= n; k++ {
		for i := 0; i+k <= len(words); i++ {
			counts[strings.Join(words[i:i+k], "\x00")]++
		}
	}
	return counts
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
