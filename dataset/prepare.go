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
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	itelemetry "trpc.group/trpc-go/trpc-caption-go/internal/telemetry"
	"trpc.group/trpc-go/trpc-caption-go/log"
)

// PrepareConfig names the inputs of Prepare.
type PrepareConfig struct {
	TrainAnnotations string
	TestAnnotations  string
	TrainImagesDir   string
	TestImagesDir    string
	// SaveName is the name the dataset is saved under. Empty means do not save.
	SaveName string
	// Shuffler orders the train split. Nil uses NewShuffler().
	Shuffler *Shuffler
}

// Prepare loads both annotation files, extracts the splits, shuffles the train
// split, assembles the dataset and, when cfg.SaveName is set, saves it through sink.
func Prepare(ctx context.Context, cfg PrepareConfig, sink Sink) (_ *Dataset, err error) {
	ctx, span := itelemetry.Tracer.Start(ctx, "dataset.prepare")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if cfg.SaveName != "" && sink == nil {
		return nil, errors.New("dataset: save name given without a sink")
	}

	trainFile, err := LoadAnnotations(cfg.TrainAnnotations)
	if err != nil {
		return nil, err
	}
	testFile, err := LoadAnnotations(cfg.TestAnnotations)
	if err != nil {
		return nil, err
	}

	train, err := ExtractTrainVal(trainFile, cfg.TrainImagesDir)
	if err != nil {
		return nil, fmt.Errorf("extract train: %w", err)
	}
	itelemetry.AddRecordsExtracted(ctx, SplitTrain, len(train))

	shuffler := cfg.Shuffler
	if shuffler == nil {
		shuffler = NewShuffler()
	}
	train, report := shuffler.Shuffle(train)
	if report.Fallback {
		itelemetry.IncShuffleFallback(ctx)
	}

	test, err := ExtractTest(testFile, cfg.TestImagesDir)
	if err != nil {
		return nil, fmt.Errorf("extract test: %w", err)
	}
	itelemetry.AddRecordsExtracted(ctx, SplitTest, len(test))

	d := Assemble(train, test)
	span.SetAttributes(
		attribute.Int("caption.train_rows", len(train)),
		attribute.Int("caption.test_rows", len(test)),
		attribute.Int("caption.shuffle_attempts", report.Attempts),
		attribute.Bool("caption.shuffle_fallback", report.Fallback),
	)
	log.Infof("prepared dataset: %d train records (%d reshuffles, fallback=%t), %d test records",
		len(train), report.Attempts, report.Fallback, len(test))

	if cfg.SaveName != "" {
		if err := sink.Save(ctx, cfg.SaveName, d); err != nil {
			return nil, fmt.Errorf("save dataset %q: %w", cfg.SaveName, err)
		}
		log.Infof("dataset saved as %s", cfg.SaveName)
	}
	return d, nil
}
