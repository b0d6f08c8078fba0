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

	"trpc.group/trpc-go/trpc-caption-go/log"
)

// Shuffler defaults.
const (
	DefaultSeed           int64 = 42
	DefaultMaxConsecutive       = 5
	DefaultMaxAttempts          = 10
)

// ShuffleOption configures a Shuffler.
type ShuffleOption func(*shuffleOptions)

type shuffleOptions struct {
	seed           int64
	maxConsecutive int
	maxAttempts    int
}

func newShuffleOptions(opts ...ShuffleOption) *shuffleOptions {
	o := &shuffleOptions{
		seed:           DefaultSeed,
		maxConsecutive: DefaultMaxConsecutive,
		maxAttempts:    DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithSeed sets the random seed. Default is 42.
func WithSeed(seed int64) ShuffleOption {
	return func(o *shuffleOptions) {
		o.seed = seed
	}
}

// WithMaxConsecutive sets the run length that must not appear in the output.
// Default is 5; values below 2 are ignored.
func WithMaxConsecutive(n int) ShuffleOption {
	return func(o *shuffleOptions) {
		if n >= 2 {
			o.maxConsecutive = n
		}
	}
}

// WithMaxAttempts sets how many reshuffles are tried before falling back to
// round-robin interleaving. Default is 10; negative values are ignored.
func WithMaxAttempts(n int) ShuffleOption {
	return func(o *shuffleOptions) {
		if n >= 0 {
			o.maxAttempts = n
		}
	}
}

// Report describes how a shuffle reached its result.
type Report struct {
	// Attempts is the number of reshuffles after the initial shuffle.
	Attempts int
	// Fallback is true when round-robin interleaving was used.
	Fallback bool
	// ResidualRuns lists the start index of every window that still holds
	// MaxConsecutive records of one image after the fallback.
	ResidualRuns []int
}

// Shuffler reorders records so that no MaxConsecutive adjacent records share an image.
type Shuffler struct {
	opts *shuffleOptions
}

// NewShuffler creates a Shuffler.
func NewShuffler(opts ...ShuffleOption) *Shuffler {
	return &Shuffler{opts: newShuffleOptions(opts...)}
}

// MaxConsecutive returns the forbidden run length.
func (s *Shuffler) MaxConsecutive() int {
	return s.opts.maxConsecutive
}

// Shuffle returns a permutation of records. The input is left untouched and the
// same seed always yields the same output. Each call owns its random source.
//
// The records are shuffled, then reshuffled while a forbidden run exists, up to
// the configured number of attempts. If a run remains, records are grouped by
// image and interleaved round-robin. Interleaving cannot split an image that
// outnumbers all others; such runs are reported in Report.ResidualRuns.
func (s *Shuffler) Shuffle(records Records) (Records, Report) {
	out := make(Records, len(records))
	copy(out, records)
	rng := rand.New(rand.NewSource(s.opts.seed))
	shuffleRecords(rng, out)

	var report Report
	for hasRun(out, s.opts.maxConsecutive) {
		if report.Attempts >= s.opts.maxAttempts {
			log.Warnf("could not eliminate runs of %d identical images after %d reshuffles, interleaving by image",
				s.opts.maxConsecutive, report.Attempts)
			out = interleave(rng, out)
			report.Fallback = true
			report.ResidualRuns = FindConsecutiveRuns(out, s.opts.maxConsecutive)
			if len(report.ResidualRuns) > 0 {
				log.Warnf("%d windows still hold %d identical images after interleaving",
					len(report.ResidualRuns), s.opts.maxConsecutive)
			}
			break
		}
		shuffleRecords(rng, out)
		report.Attempts++
	}
	return out, report
}

// FindConsecutiveRuns returns the start index of every window of maxConsecutive
// adjacent records that share one image id.
func FindConsecutiveRuns(records Records, maxConsecutive int) []int {
	var starts []int
	if maxConsecutive <= 0 {
		return starts
	}
	run := 0
	for i, r := range records {
		if i > 0 && r.ImageID == records[i-1].ImageID {
			run++
		} else {
			run = 1
		}
		if run >= maxConsecutive {
			starts = append(starts, i-maxConsecutive+1)
		}
	}
	return starts
}

func hasRun(records Records, maxConsecutive int) bool {
	run := 0
	for i, r := range records {
		if i > 0 && r.ImageID == records[i-1].ImageID {
			run++
		} else {
			run = 1
		}
		if run >= maxConsecutive {
			return true
		}
	}
	return false
}

func shuffleRecords(rng *rand.Rand, records Records) {
	rng.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})
}

// interleave groups records by image in first-seen order, shuffles each group
// and the group order, then takes one record from every non-empty group per pass.
func interleave(rng *rand.Rand, records Records) Records {
	index := make(map[int]int)
	var groups []Records
	for _, r := range records {
		g, ok := index[r.ImageID]
		if !ok {
			g = len(groups)
			index[r.ImageID] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], r)
	}
	for _, g := range groups {
		shuffleRecords(rng, g)
	}
	rng.Shuffle(len(groups), func(i, j int) {
		groups[i], groups[j] = groups[j], groups[i]
	})

	out := make(Records, 0, len(records))
	for len(out) < len(records) {
		for i, g := range groups {
			if len(g) == 0 {
				continue
			}
			out = append(out, g[0])
			groups[i] = g[1:]
		}
	}
	return out
}
