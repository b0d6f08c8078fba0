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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-caption-go/internal/tokenize"
)

func TestCorpusIdenticalShortCaption(t *testing.T) {
	scores, stats, err := Corpus([][]string{{"con chó chạy"}}, [][]string{{"con chó chạy"}})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TestLen)
	assert.Equal(t, 3, stats.RefLen)
	assert.Equal(t, [MaxOrder]int{3, 2, 1, 0}, stats.Guess)
	assert.Equal(t, [MaxOrder]int{3, 2, 1, 0}, stats.Correct)
	assert.InDelta(t, 1.0, scores[0], 1e-6)
	assert.InDelta(t, 1.0, scores[1], 1e-6)
	assert.InDelta(t, 1.0, scores[2], 1e-6)
	// No 4-grams: the order-4 factor collapses to tiny/small.
	assert.InDelta(t, math.Pow(1e-6, 0.25), scores[3], 1e-6)
}

func TestCorpusIdenticalLongCaption(t *testing.T) {
	caption := "một người đàn ông đang đi bộ trên đường"
	scores, _, err := Corpus([][]string{{caption, "một cái cây"}}, [][]string{{caption}})
	require.NoError(t, err)
	for k, s := range scores {
		assert.InDelta(t, 1.0, s, 1e-6, "BLEU-%d", k+1)
	}
}

func TestCorpusBrevityPenalty(t *testing.T) {
	scores, stats, err := Corpus([][]string{{"a b c d"}}, [][]string{{"a b"}})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.RefLen)
	assert.InDelta(t, math.Exp(-1), scores[0], 1e-6)
}

func TestCorpusClipping(t *testing.T) {
	scores, stats, err := Corpus([][]string{{"the cat", "the the dog"}}, [][]string{{"the the the"}})
	require.NoError(t, err)
	// Closest reference length is 3.
	assert.Equal(t, 3, stats.RefLen)
	assert.Equal(t, 2, stats.Correct[0])
	assert.InDelta(t, 2.0/3.0, scores[0], 1e-6)
}

func TestClosestRefLen(t *testing.T) {
	assert.Equal(t, 2, closestRefLen([]int{4, 2}, 3))
	assert.Equal(t, 4, closestRefLen([]int{4, 9}, 5))
	assert.Equal(t, 7, closestRefLen([]int{7}, 0))
}

func TestCorpusMultipleCandidatesAccumulate(t *testing.T) {
	_, stats, err := Corpus([][]string{{"a b c"}}, [][]string{{"a b c", "a b"}})
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TestLen)
	assert.Equal(t, 6, stats.RefLen)
}

func TestCorpusErrors(t *testing.T) {
	_, _, err := Corpus([][]string{{"a"}}, nil)
	assert.Error(t, err)
	_, _, err = Corpus([][]string{{}}, [][]string{{"a"}})
	assert.Error(t, err)
}

func TestCorpusWithTokenizer(t *testing.T) {
	scores, _, err := Corpus([][]string{{"A-B"}}, [][]string{{"a-b"}}, WithTokenizer(tokenize.Whitespace))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, scores[0], 1e-6)
}

func TestGeometric(t *testing.T) {
	score, err := Geometric(
		[][]string{{"một con chó đang chạy trong công viên"}},
		[]string{"một con chó đang chạy trong công viên"},
	)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-12)

	score, err = Geometric([][]string{{"con chó chạy"}}, []string{"con chó chạy"})
	require.NoError(t, err)
	assert.Zero(t, score)

	score, err = Geometric([][]string{{"a b c d e f"}}, []string{"a b c d e"})
	require.NoError(t, err)
	// Precisions are all 1, brevity penalty exp(1 - 6/5).
	assert.InDelta(t, math.Exp(1-6.0/5.0), score, 1e-12)

	_, err = Geometric([][]string{{"a"}}, []string{"a", "b"})
	assert.Error(t, err)
}
