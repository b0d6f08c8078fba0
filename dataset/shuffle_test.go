//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package dataset

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-caption-go/log"
	"trpc.group/trpc-go/trpc-caption-go/log/logtest"
)

// makeRecords builds sizes[i] records for image i, listed image by image.
func makeRecords(sizes ...int) Records {
	var rs Records
	caption := 0
	for img, n := range sizes {
		for j := 0; j < n; j++ {
			rs = append(rs, Record{ImageID: img, CaptionID: caption})
			caption++
		}
	}
	return rs
}

func captionIDs(rs Records) []int {
	ids := make([]int, len(rs))
	for i, r := range rs {
		ids[i] = r.CaptionID
	}
	sort.Ints(ids)
	return ids
}

func TestShuffleEqualGroupsHaveNoRuns(t *testing.T) {
	logtest.Install(t)
	for groups := 2; groups <= 40; groups++ {
		sizes := make([]int, groups)
		for i := range sizes {
			sizes[i] = 5
		}
		in := makeRecords(sizes...)
		for _, seed := range []int64{1, 42, 1234} {
			out, report := NewShuffler(WithSeed(seed)).Shuffle(in)
			assert.Empty(t, FindConsecutiveRuns(out, 5), "groups=%d seed=%d", groups, seed)
			assert.Empty(t, report.ResidualRuns)
			assert.Equal(t, captionIDs(in), captionIDs(out))
		}
	}
}

func TestShuffleRandomSizesReportResiduals(t *testing.T) {
	logtest.Install(t)
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		sizes := make([]int, 1+rng.Intn(12))
		for i := range sizes {
			sizes[i] = 1 + rng.Intn(5)
		}
		in := makeRecords(sizes...)
		out, report := NewShuffler(WithSeed(int64(iter))).Shuffle(in)
		require.Len(t, out, len(in))
		assert.Equal(t, captionIDs(in), captionIDs(out))

		runs := FindConsecutiveRuns(out, 5)
		if !report.Fallback {
			assert.Empty(t, runs, "sizes=%v", sizes)
			assert.Nil(t, report.ResidualRuns)
		} else {
			assert.Equal(t, runs, report.ResidualRuns, "sizes=%v", sizes)
		}
	}
}

func TestShuffleSingleImageFallsBack(t *testing.T) {
	rec := logtest.Install(t)
	in := makeRecords(5)
	out, report := NewShuffler().Shuffle(in)
	assert.True(t, report.Fallback)
	assert.Equal(t, 10, report.Attempts)
	assert.Equal(t, []int{0}, report.ResidualRuns)
	assert.Equal(t, captionIDs(in), captionIDs(out))
	assert.GreaterOrEqual(t, rec.Count(log.LevelWarn, "interleaving"), 1)
}

func TestShuffleIsDeterministic(t *testing.T) {
	in := makeRecords(5, 5, 3, 4, 5, 1)
	a, ra := NewShuffler(WithSeed(9)).Shuffle(in)
	b, rb := NewShuffler(WithSeed(9)).Shuffle(in)
	assert.Equal(t, a, b)
	assert.Equal(t, ra, rb)

	s := NewShuffler()
	c, _ := s.Shuffle(in)
	d, _ := s.Shuffle(in)
	assert.Equal(t, c, d)
}

func TestShuffleDoesNotModifyInput(t *testing.T) {
	in := makeRecords(5, 5, 5)
	before := append(Records(nil), in...)
	_, _ = NewShuffler().Shuffle(in)
	assert.Equal(t, before, in)
}

func TestShuffleSmallInputs(t *testing.T) {
	out, report := NewShuffler().Shuffle(nil)
	assert.Empty(t, out)
	assert.Equal(t, Report{}, report)

	in := makeRecords(4)
	out, report = NewShuffler().Shuffle(in)
	assert.Len(t, out, 4)
	assert.False(t, report.Fallback)
	assert.Zero(t, report.Attempts)
}

func TestShuffleZeroAttempts(t *testing.T) {
	logtest.Install(t)
	in := makeRecords(5, 5)
	out, report := NewShuffler(WithMaxAttempts(0)).Shuffle(in)
	assert.Zero(t, report.Attempts)
	assert.Empty(t, FindConsecutiveRuns(out, 5))
}

func TestShuffleOptions(t *testing.T) {
	s := NewShuffler(WithMaxConsecutive(1), WithMaxAttempts(-3))
	assert.Equal(t, DefaultMaxConsecutive, s.MaxConsecutive())
	assert.Equal(t, DefaultMaxAttempts, s.opts.maxAttempts)
	assert.Equal(t, DefaultSeed, s.opts.seed)

	s = NewShuffler(WithMaxConsecutive(3), WithMaxAttempts(2), WithSeed(5))
	assert.Equal(t, 3, s.MaxConsecutive())
	assert.Equal(t, 2, s.opts.maxAttempts)
	assert.Equal(t, int64(5), s.opts.seed)
}

func TestFindConsecutiveRuns(t *testing.T) {
	ids := func(v ...int) Records {
		rs := make(Records, len(v))
		for i, id := range v {
			rs[i] = Record{ImageID: id}
		}
		return rs
	}
	tests := []struct {
		name string
		in   Records
		max  int
		want []int
	}{
		{"empty", nil, 5, nil},
		{"shorter than window", ids(1, 1, 1), 5, nil},
		{"exact run", ids(1, 1, 1, 1, 1), 5, []int{0}},
		{"long run", ids(2, 1, 1, 1, 1, 1, 1), 5, []int{1, 2}},
		{"broken run", ids(1, 1, 2, 1, 1, 1), 3, []int{3}},
		{"two runs", ids(1, 1, 2, 2), 2, []int{0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindConsecutiveRuns(tt.in, tt.max))
		})
	}
}

func TestInterleaveRoundRobin(t *testing.T) {
	in := makeRecords(3, 3, 3)
	out := interleave(rand.New(rand.NewSource(1)), in)
	require.Len(t, out, 9)
	for pass := 0; pass < 3; pass++ {
		seen := map[int]bool{}
		for _, r := range out[pass*3 : pass*3+3] {
			seen[r.ImageID] = true
		}
		assert.Len(t, seen, 3, "pass %d", pass)
	}
}
