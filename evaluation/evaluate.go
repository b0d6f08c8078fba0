//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package evaluation

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"trpc.group/trpc-go/trpc-caption-go/evaluation/metric/bleu"
	"trpc.group/trpc-go/trpc-caption-go/evaluation/metric/cider"
	"trpc.group/trpc-go/trpc-caption-go/evaluation/metric/rouge"
	itelemetry "trpc.group/trpc-go/trpc-caption-go/internal/telemetry"
	"trpc.group/trpc-go/trpc-caption-go/internal/tokenize"
	"trpc.group/trpc-go/trpc-caption-go/log"
)

// Metric families accepted by WithMetrics.
const (
	MetricBLEU  = "BLEU"
	MetricROUGE = "ROUGE"
	MetricCIDEr = "CIDEr"
)

// DefaultMetrics are computed when WithMetrics is not given.
var DefaultMetrics = []string{MetricBLEU, MetricROUGE, MetricCIDEr}

// rougeNames maps a ROUGE type to the prefix of its score names.
var rougeNames = map[string]string{
	rouge.Rouge1:    "ROUGE-1",
	rouge.Rouge2:    "ROUGE-2",
	rouge.RougeL:    "ROUGE-L",
	rouge.RougeLsum: "ROUGE-Lsum",
}

// Mismatch describes how the id sets of groundtruth and predictions overlap.
type Mismatch struct {
	Groundtruth     int `json:"groundtruth"`
	Predictions     int `json:"predictions"`
	Common          int `json:"common"`
	OnlyGroundtruth int `json:"only_groundtruth"`
	OnlyPrediction  int `json:"only_prediction"`
}

// Result is the outcome of one evaluation. Scores are scaled by 100 and rounded
// to 4 decimals. Empty Scores means no image id was shared.
type Result struct {
	Scores   map[string]float64 `json:"scores"`
	Mismatch Mismatch           `json:"mismatch"`
}

// Option configures Evaluate.
type Option func(*options)

type options struct {
	metrics   []string
	tokenizer tokenize.Tokenizer
}

func newOptions(opt ...Option) *options {
	opts := &options{
		metrics:   DefaultMetrics,
		tokenizer: tokenize.Default(),
	}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// WithMetrics selects the metric families to compute.
func WithMetrics(names ...string) Option {
	return func(o *options) {
		if len(names) > 0 {
			o.metrics = names
		}
	}
}

// WithTokenizer overrides the word tokenizer used by every metric.
func WithTokenizer(tokenizer tokenize.Tokenizer) Option {
	return func(o *options) {
		if tokenizer != nil {
			o.tokenizer = tokenizer
		}
	}
}

// Evaluate restricts groundtruth and predictions to their shared image ids and
// scores the predictions against the references of the same image. Every
// candidate of an image is scored as its own hypothesis.
func Evaluate(ctx context.Context, groundtruth, predictions Captions, opt ...Option) (_ *Result, err error) {
	ctx, span := itelemetry.Tracer.Start(ctx, "evaluation.evaluate")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	start := time.Now()

	if err := groundtruth.Validate(); err != nil {
		return nil, fmt.Errorf("groundtruth: %w", err)
	}
	if err := predictions.Validate(); err != nil {
		return nil, fmt.Errorf("predictions: %w", err)
	}
	opts := newOptions(opt...)
	for _, name := range opts.metrics {
		if name != MetricBLEU && name != MetricROUGE && name != MetricCIDEr {
			return nil, fmt.Errorf("unknown metric %q", name)
		}
	}

	common, mismatch := align(groundtruth, predictions)
	span.SetAttributes(
		attribute.Int("caption.common_images", mismatch.Common),
		attribute.Int("caption.only_groundtruth", mismatch.OnlyGroundtruth),
		attribute.Int("caption.only_prediction", mismatch.OnlyPrediction),
	)
	result := &Result{Scores: map[string]float64{}, Mismatch: mismatch}
	if len(common) == 0 {
		log.Warnf("no common image id between groundtruth (%d images) and predictions (%d images)",
			mismatch.Groundtruth, mismatch.Predictions)
		return result, nil
	}
	log.Infof("groundtruth images: %d, prediction images: %d, common images: %d",
		mismatch.Groundtruth, mismatch.Predictions, mismatch.Common)
	if mismatch.OnlyGroundtruth > 0 {
		log.Warnf("%d groundtruth images have no prediction", mismatch.OnlyGroundtruth)
	}
	if mismatch.OnlyPrediction > 0 {
		log.Warnf("%d predicted images are not in groundtruth", mismatch.OnlyPrediction)
	}

	refs := make([][]string, len(common))
	cands := make([][]string, len(common))
	for i, id := range common {
		refs[i] = groundtruth[id]
		cands[i] = predictions[id]
	}
	for _, name := range opts.metrics {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch name {
		case MetricBLEU:
			scores, _, err := bleu.Corpus(refs, cands, bleu.WithTokenizer(opts.tokenizer))
			if err != nil {
				return nil, fmt.Errorf("bleu: %w", err)
			}
			for i, s := range scores {
				result.Scores["BLEU-"+strconv.Itoa(i+1)] = scale(s)
			}
		case MetricROUGE:
			scores, err := rouge.Corpus(ctx, refs, cands,
				rouge.WithTokenizer(opts.tokenizer), rouge.WithSplitSummaries(true))
			if err != nil {
				return nil, fmt.Errorf("rouge: %w", err)
			}
			for rougeType, s := range scores {
				prefix := rougeNames[rougeType]
				result.Scores[prefix+"-P"] = scale(s.Precision)
				result.Scores[prefix+"-R"] = scale(s.Recall)
				result.Scores[prefix+"-F"] = scale(s.FMeasure)
			}
		case MetricCIDEr:
			score, _, err := cider.Corpus(refs, cands, cider.WithTokenizer(opts.tokenizer))
			if err != nil {
				return nil, fmt.Errorf("cider: %w", err)
			}
			result.Scores["CIDEr"] = scale(score)
		}
	}
	itelemetry.RecordEvaluation(ctx, time.Since(start), len(common))
	return result, nil
}

// EvaluateFiles loads both caption files and evaluates them.
func EvaluateFiles(ctx context.Context, groundtruthPath, predictionPath string, opt ...Option) (*Result, error) {
	log.Infof("reading groundtruth from %s", groundtruthPath)
	groundtruth, err := LoadCaptions(groundtruthPath)
	if err != nil {
		return nil, err
	}
	log.Infof("reading predictions from %s", predictionPath)
	predictions, err := LoadCaptions(predictionPath)
	if err != nil {
		return nil, err
	}
	return Evaluate(ctx, groundtruth, predictions, opt...)
}

// align returns the sorted shared ids and the overlap counts.
func align(groundtruth, predictions Captions) ([]string, Mismatch) {
	var common []string
	for _, id := range groundtruth.IDs() {
		if _, ok := predictions[id]; ok {
			common = append(common, id)
		}
	}
	return common, Mismatch{
		Groundtruth:     len(groundtruth),
		Predictions:     len(predictions),
		Common:          len(common),
		OnlyGroundtruth: len(groundtruth) - len(common),
		OnlyPrediction:  len(predictions) - len(common),
	}
}

// scale converts a [0,1] score to percent rounded to 4 decimals.
func scale(v float64) float64 {
	return math.Round(v*100*1e4) / 1e4
}
