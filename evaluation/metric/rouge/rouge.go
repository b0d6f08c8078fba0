//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package rouge implements ROUGE-N, ROUGE-L and ROUGE-Lsum scoring for captions.
package rouge

import (
	"trpc.group/trpc-go/trpc-caption-go/internal/tokenize"
)

// ROUGE types.
const (
	Rouge1    = "rouge1"
	Rouge2    = "rouge2"
	RougeL    = "rougeL"
	RougeLsum = "rougeLsum"
)

// DefaultTypes are computed when WithRougeTypes is not given.
var DefaultTypes = []string{Rouge1, Rouge2, RougeL, RougeLsum}

// Score holds ROUGE precision, recall and F-measure, each in [0, 1].
type Score struct {
	Precision float64
	Recall    float64
	FMeasure  float64
}

// fMeasure computes the harmonic mean of precision and recall.
func fMeasure(precision, recall float64) float64 {
	if precision+recall > 0 {
		return 2 * precision * recall / (precision + recall)
	}
	return 0
}

type options struct {
	rougeTypes     []string
	splitSummaries bool
	tokenizer      tokenize.Tokenizer
}

func newOptions(opt ...Option) *options {
	opts := &options{
		rougeTypes: DefaultTypes,
		tokenizer:  tokenize.Default(),
	}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// Option configures ROUGE scoring.
type Option func(*options)

// WithRougeTypes sets the ROUGE types to compute, e.g. "rouge1", "rouge3", "rougeL".
func WithRougeTypes(rougeTypes ...string) Option {
	return func(o *options) {
		o.rougeTypes = append([]string(nil), rougeTypes...)
	}
}

// WithSplitSummaries splits texts into sentences with the Punkt tokenizer before
// computing rougeLsum. Without it sentences are separated by newlines.
func WithSplitSummaries(splitSummaries bool) Option {
	return func(o *options) {
		o.splitSummaries = splitSummaries
	}
}

// WithTokenizer overrides the word tokenizer.
func WithTokenizer(tokenizer tokenize.Tokenizer) Option {
	return func(o *options) {
		if tokenizer != nil {
			o.tokenizer = tokenizer
		}
	}
}
