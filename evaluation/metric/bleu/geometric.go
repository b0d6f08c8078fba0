//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package bleu

import (
	"fmt"
	"math"
)

// Geometric returns NMT style corpus BLEU in [0, 1]: the geometric mean of the
// clipped 1..4-gram precisions times a brevity penalty against the shortest
// reference. Any zero precision makes the score zero; no smoothing is applied.
func Geometric(references [][]string, predictions []string, opt ...Option) (float64, error) {
	if len(references) != len(predictions) {
		return 0, fmt.Errorf("got %d reference sets for %d predictions", len(references), len(predictions))
	}
	opts := newOptions(opt...)
	var matches, possible [MaxOrder]int
	refLength, predLength := 0, 0
	for i, prediction := range predictions {
		if len(references[i]) == 0 {
			return 0, fmt.Errorf("prediction %d has no references", i)
		}
		lens, maxCounts := cookRefs(references[i], opts.tokenizer)
		refLength += minInts(lens)
		words := opts.tokenizer.Tokenize(prediction)
		predLength += len(words)
		for ngram, count := range countNGrams(words, MaxOrder) {
			order := orderOf(ngram)
			matches[order] += min(count, maxCounts[ngram])
		}
		for k := 0; k < MaxOrder; k++ {
			possible[k] += max(0, len(words)-k)
		}
	}

	logSum := 0.0
	for k := 0; k < MaxOrder; k++ {
		if possible[k] == 0 || matches[k] == 0 {
			return 0, nil
		}
		logSum += math.Log(float64(matches[k]) / float64(possible[k]))
	}
	geoMean := math.Exp(logSum / MaxOrder)

	ratio := float64(predLength) / float64(max(refLength, 1))
	bp := 1.0
	if ratio <= 1 {
		bp = math.Exp(1 - 1/ratio)
	}
	return geoMean * bp, nil
}

func minInts(v []int) int {
	m := v[0]
	for _, x := range v[1:] {
		m = min(m, x)
	}
	return m
}

func orderOf(ngram string) int {
	order := 0
	for i := 0; i < len(ngram); i++ {
		if ngram[i] == 0 {
			order++
		}
	}
	return order
}
