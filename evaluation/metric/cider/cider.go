//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package cider computes the CIDEr consensus score for captions.
//
// Candidates and references are turned into TF-IDF weighted n-gram vectors, with
// document frequencies counted over the reference sets of the whole corpus. The
// score of a candidate is the cosine similarity to each reference, averaged over
// n-gram orders and references, times 10.
package cider

import (
	"fmt"
	"math"
	"strings"

	"trpc.group/trpc-go/trpc-caption-go/internal/tokenize"
)

// MaxOrder is the highest n-gram order used.
const MaxOrder = 4

// scale is the constant factor applied to every score.
const scale = 10.0

// Option configures CIDEr scoring.
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

type vector struct {
	weights [MaxOrder]map[string]float64
	norms   [MaxOrder]float64
}

// Corpus returns the corpus CIDEr score and the score of every image.
// references[i] and candidates[i] belong to image i. Each candidate is scored on
// its own; an image scores the mean of its candidates and the corpus the mean of
// its images. Document frequencies are counted once per image.
func Corpus(references, candidates [][]string, opt ...Option) (float64, []float64, error) {
	if len(references) != len(candidates) {
		return 0, nil, fmt.Errorf("got %d reference sets for %d candidate sets", len(references), len(candidates))
	}
	if len(references) == 0 {
		return 0, nil, nil
	}
	opts := &options{tokenizer: tokenize.Default()}
	for _, apply := range opt {
		apply(opts)
	}

	refCounts := make([][]map[string]int, len(references))
	docFreq := make(map[string]int)
	for i, refs := range references {
		if len(refs) == 0 {
			return 0, nil, fmt.Errorf("image %d has no references", i)
		}
		seen := make(map[string]struct{})
		for _, ref := range refs {
			counts := countNGrams(opts.tokenizer.Tokenize(ref))
			refCounts[i] = append(refCounts[i], counts)
			for ngram := range counts {
				seen[ngram] = struct{}{}
			}
		}
		for ngram := range seen {
			docFreq[ngram]++
		}
	}
	refLen := math.Log(float64(len(references)))

	perImage := make([]float64, len(references))
	total := 0.0
	for i, cands := range candidates {
		if len(cands) == 0 {
			return 0, nil, fmt.Errorf("image %d has no candidates", i)
		}
		refVecs := make([]vector, len(refCounts[i]))
		for j, counts := range refCounts[i] {
			refVecs[j] = toVector(counts, docFreq, refLen)
		}
		imageScore := 0.0
		for _, cand := range cands {
			vec := toVector(countNGrams(opts.tokenizer.Tokenize(cand)), docFreq, refLen)
			score := 0.0
			for _, ref := range refVecs {
				score += meanSimilarity(vec, ref)
			}
			imageScore += score / float64(len(refVecs)) * scale
		}
		perImage[i] = imageScore / float64(len(cands))
		total += perImage[i]
	}
	return total / float64(len(references)), perImage, nil
}

// toVector weights term frequencies by inverse document frequency.
func toVector(counts map[string]int, docFreq map[string]int, refLen float64) vector {
	var v vector
	for n := range v.weights {
		v.weights[n] = make(map[string]float64)
	}
	for ngram, tf := range counts {
		n := strings.Count(ngram, "\x00")
		df := math.Log(math.Max(1, float64(docFreq[ngram])))
		w := float64(tf) * (refLen - df)
		v.weights[n][ngram] = w
		v.norms[n] += w * w
	}
	for n := range v.norms {
		v.norms[n] = math.Sqrt(v.norms[n])
	}
	return v
}

// meanSimilarity averages the per-order cosine similarity of hyp and ref.
func meanSimilarity(hyp, ref vector) float64 {
	sum := 0.0
	for n := 0; n < MaxOrder; n++ {
		val := 0.0
		for ngram, w := range hyp.weights[n] {
			val += w * ref.weights[n][ngram]
		}
		if hyp.norms[n] != 0 && ref.norms[n] != 0 {
			val /= hyp.norms[n] * ref.norms[n]
		}
		sum += val
	}
	return sum / MaxOrder
}

func countNGrams(words []string) map[string]int {
	counts := make(map[string]int)
	for k := 1; k <= MaxOrder; k++ {
		for i := 0; i+k <= len(words); i++ {
			counts[strings.Join(words[i:i+k], "\x00")]++
		}
	}
	return counts
}
