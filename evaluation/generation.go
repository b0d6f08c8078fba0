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
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"trpc.group/trpc-go/trpc-caption-go/evaluation/metric/bleu"
	"trpc.group/trpc-go/trpc-caption-go/evaluation/metric/cider"
	"trpc.group/trpc-go/trpc-caption-go/evaluation/metric/rouge"
	"trpc.group/trpc-go/trpc-caption-go/internal/tokenize"
)

// PredictionsFile is the file ComputeGenerationMetrics writes into its output directory.
const PredictionsFile = "predictions.json"

// GenerationOption configures ComputeGenerationMetrics.
type GenerationOption func(*generationOptions)

type generationOptions struct {
	tokenizer       tokenize.Tokenizer
	outputDir       string
	groundtruthPath string
}

// WithGenerationTokenizer overrides the word tokenizer.
func WithGenerationTokenizer(tokenizer tokenize.Tokenizer) GenerationOption {
	return func(o *generationOptions) {
		if tokenizer != nil {
			o.tokenizer = tokenizer
		}
	}
}

// WithOutputDir saves the predictions as PredictionsFile under dir.
func WithOutputDir(dir string) GenerationOption {
	return func(o *generationOptions) {
		o.outputDir = dir
	}
}

// WithGroundtruthFile keys the predictions by the ids of a groundtruth file and
// adds the corpus scores of Evaluate against it.
func WithGroundtruthFile(path string) GenerationOption {
	return func(o *generationOptions) {
		o.groundtruthPath = path
	}
}

// ComputeGenerationMetrics scores generated captions against one label each, the
// way a training loop checks a validation batch. It returns rouge1, rouge2 and
// rougeL F-measures, geometric BLEU and CIDEr, all in percent, plus gen_len, the
// mean number of words per prediction.
func ComputeGenerationMetrics(ctx context.Context, predictions, labels []string, opt ...GenerationOption) (map[string]float64, error) {
	if len(predictions) != len(labels) {
		return nil, fmt.Errorf("got %d predictions for %d labels", len(predictions), len(labels))
	}
	if len(predictions) == 0 {
		return nil, errors.New("no predictions")
	}
	opts := &generationOptions{tokenizer: tokenize.Default()}
	for _, o := range opt {
		o(opts)
	}

	preds := make([]string, len(predictions))
	refs := make([][]string, len(labels))
	cands := make([][]string, len(predictions))
	for i := range predictions {
		p, err := tokenize.JoinSentences(strings.TrimSpace(predictions[i]))
		if err != nil {
			return nil, err
		}
		l, err := tokenize.JoinSentences(strings.TrimSpace(labels[i]))
		if err != nil {
			return nil, err
		}
		preds[i] = p
		refs[i] = []string{l}
		cands[i] = []string{p}
	}

	rougeScores, err := rouge.Corpus(ctx, refs, cands,
		rouge.WithRougeTypes(rouge.Rouge1, rouge.Rouge2, rouge.RougeL),
		rouge.WithTokenizer(opts.tokenizer))
	if err != nil {
		return nil, fmt.Errorf("rouge: %w", err)
	}
	bleuScore, err := bleu.Geometric(refs, preds, bleu.WithTokenizer(opts.tokenizer))
	if err != nil {
		return nil, fmt.Errorf("bleu: %w", err)
	}
	ciderScore, _, err := cider.Corpus(refs, cands, cider.WithTokenizer(opts.tokenizer))
	if err != nil {
		return nil, fmt.Errorf("cider: %w", err)
	}

	words := 0
	for _, p := range preds {
		words += len(opts.tokenizer.Tokenize(p))
	}
	result := map[string]float64{
		"rouge1":  scale(rougeScores[rouge.Rouge1].FMeasure),
		"rouge2":  scale(rougeScores[rouge.Rouge2].FMeasure),
		"rougeL":  scale(rougeScores[rouge.RougeL].FMeasure),
		"bleu":    scale(bleuScore),
		"cider":   scale(ciderScore),
		"gen_len": float64(words) / float64(len(preds)),
	}

	if opts.outputDir != "" {
		path := filepath.Join(opts.outputDir, PredictionsFile)
		if err := SavePredictions(predictions, nil, path, opts.groundtruthPath); err != nil {
			return nil, fmt.Errorf("save predictions: %w", err)
		}
	}
	if opts.groundtruthPath != "" {
		ids, err := LoadGroundtruthIDs(opts.groundtruthPath)
		if err != nil {
			return nil, err
		}
		if len(ids) != len(predictions) {
			return nil, fmt.Errorf("got %d predictions for %d groundtruth images", len(predictions), len(ids))
		}
		groundtruth, err := LoadCaptions(opts.groundtruthPath)
		if err != nil {
			return nil, err
		}
		keyed := make(Captions, len(ids))
		for i, id := range ids {
			keyed[id] = []string{predictions[i]}
		}
		corpus, err := Evaluate(ctx, groundtruth, keyed, WithTokenizer(opts.tokenizer))
		if err != nil {
			return nil, err
		}
		for name, v := range corpus.Scores {
			result[name] = v
		}
	}
	return result, nil
}
