//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-caption-go/captioner"
	"trpc.group/trpc-go/trpc-caption-go/captioner/gemini"
	"trpc.group/trpc-go/trpc-caption-go/captioner/openai"
	"trpc.group/trpc-go/trpc-caption-go/config"
	"trpc.group/trpc-go/trpc-caption-go/dataset"
	dslocal "trpc.group/trpc-go/trpc-caption-go/dataset/local"
	"trpc.group/trpc-go/trpc-caption-go/dataset/s3"
	"trpc.group/trpc-go/trpc-caption-go/dataset/tcos"
	"trpc.group/trpc-go/trpc-caption-go/evaluation"
	"trpc.group/trpc-go/trpc-caption-go/evaluation/evalresult"
	resultlocal "trpc.group/trpc-go/trpc-caption-go/evaluation/evalresult/local"
	"trpc.group/trpc-go/trpc-caption-go/report"
)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runPrepare(cmd *cobra.Command, a *app, name string) error {
	ctx := commandContext(cmd)
	pc := a.cfg.PrepareConfig()
	if name != "" {
		pc.SaveName = name
	}
	var sink dataset.Sink
	if pc.SaveName != "" {
		var err error
		if sink, err = newSink(ctx, a.cfg.Sink); err != nil {
			return err
		}
	}
	d, err := dataset.Prepare(ctx, pc, sink)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "train: %s records from %s images\n",
		humanize.Comma(int64(len(d.Train))), humanize.Comma(int64(len(d.Train.ImageIDs()))))
	fmt.Fprintf(out, "test: %s records\n", humanize.Comma(int64(len(d.Test))))
	if pc.SaveName != "" {
		fmt.Fprintf(out, "saved as %q (%s sink)\n", pc.SaveName, a.cfg.Sink.Type)
	}
	return nil
}

type evaluateOptions struct {
	groundtruth string
	metrics     []string
	save        bool
	name        string
	reports     []string
	font        string
}

func runEvaluate(cmd *cobra.Command, a *app, patterns []string, opts evaluateOptions) error {
	ctx := commandContext(cmd)
	groundtruth := opts.groundtruth
	if groundtruth == "" {
		groundtruth = a.cfg.Evaluation.Groundtruth
	}
	if groundtruth == "" {
		return errors.New("no groundtruth file: pass --groundtruth or set evaluation.groundtruth")
	}
	metrics := opts.metrics
	if len(metrics) == 0 {
		metrics = a.cfg.Evaluation.Metrics
	}
	files, err := expandGlobs(patterns)
	if err != nil {
		return err
	}
	var pdfOpts []report.PDFOption
	if opts.font != "" {
		pdfOpts = append(pdfOpts, report.WithUTF8Font("caption", opts.font))
	}

	out := cmd.OutOrStdout()
	for _, file := range files {
		res, err := evaluation.EvaluateFiles(ctx, groundtruth, file, evaluation.WithMetrics(metrics...))
		if err != nil {
			return fmt.Errorf("evaluate %s: %w", file, err)
		}
		fmt.Fprintf(out, "== %s ==\n", file)
		if len(res.Scores) == 0 {
			fmt.Fprintln(out, "no common image id between groundtruth and predictions")
		}
		for _, row := range report.Rows(res) {
			fmt.Fprintf(out, "%-14s %10.4f\n", row.Metric, row.Score)
		}
		fmt.Fprintf(out, "images: %s common, %s groundtruth only, %s prediction only\n",
			humanize.Comma(int64(res.Mismatch.Common)),
			humanize.Comma(int64(res.Mismatch.OnlyGroundtruth)),
			humanize.Comma(int64(res.Mismatch.OnlyPrediction)))

		if opts.save {
			m := resultlocal.New(evalresult.WithBaseDir(a.cfg.Evaluation.ResultsDir))
			id, err := m.Save(ctx, &evalresult.EvalRun{
				Name:            opts.name,
				GroundtruthPath: groundtruth,
				PredictionPath:  file,
				Result:          res,
			})
			if err != nil {
				return fmt.Errorf("save result: %w", err)
			}
			fmt.Fprintf(out, "saved result %s\n", id)
		}
		for _, p := range opts.reports {
			path := reportPath(p, file, len(files) > 1)
			if err := report.Write(path, "Caption evaluation: "+filepath.Base(file), res, pdfOpts...); err != nil {
				return err
			}
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %s (%s)\n", path, humanize.Bytes(uint64(info.Size())))
		}
	}
	return nil
}

// expandGlobs returns the files matching patterns, each once, in match order.
func expandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no prediction file matches %s", strings.Join(patterns, ", "))
	}
	return files, nil
}

// reportPath suffixes the report name with the prediction file name when
// several predictions share one --report flag.
func reportPath(path, prediction string, multi bool) string {
	if !multi {
		return path
	}
	ext := filepath.Ext(path)
	pred := strings.TrimSuffix(filepath.Base(prediction), filepath.Ext(prediction))
	return strings.TrimSuffix(path, ext) + "-" + pred + ext
}

type inferOptions struct {
	dataset string
	split   string
	output  string
	limit   int
}

func runInfer(cmd *cobra.Command, a *app, opts inferOptions) error {
	ctx := commandContext(cmd)
	name := opts.dataset
	if name == "" {
		name = a.cfg.Dataset.Name
	}
	if name == "" {
		return errors.New("no dataset: pass --dataset or set dataset.name")
	}
	sink, err := newSink(ctx, a.cfg.Sink)
	if err != nil {
		return err
	}
	d, err := sink.Load(ctx, name)
	if err != nil {
		return err
	}
	records, err := d.Split(opts.split)
	if err != nil {
		return err
	}
	records = limitImages(records, opts.limit)

	svc := captioner.New(newBackend(a.cfg.Captioner))
	if err := svc.Load(ctx); err != nil {
		return err
	}
	captions, inferErr := captioner.Infer(ctx, svc, records,
		captioner.WithParallelism(a.cfg.Captioner.Parallelism),
		captioner.WithProgress(cmd.ErrOrStderr()))

	var ids, preds []string
	for _, id := range records.ImageIDs() {
		key := fmt.Sprint(id)
		if c, ok := captions[key]; ok {
			ids = append(ids, key)
			preds = append(preds, c[0])
		}
	}
	if len(ids) > 0 {
		if err := evaluation.SavePredictions(preds, ids, opts.output, ""); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s predictions to %s\n", humanize.Comma(int64(len(ids))), opts.output)
	}
	return inferErr
}

// limitImages keeps the records of the first n distinct images. n <= 0 keeps all.
func limitImages(records dataset.Records, n int) dataset.Records {
	if n <= 0 {
		return records
	}
	keep := make(map[int]struct{}, n)
	for _, id := range records.ImageIDs() {
		if len(keep) == n {
			break
		}
		keep[id] = struct{}{}
	}
	var out dataset.Records
	for _, r := range records {
		if _, ok := keep[r.ImageID]; ok {
			out = append(out, r)
		}
	}
	return out
}

func runResultsList(cmd *cobra.Command, a *app) error {
	ctx := commandContext(cmd)
	m := resultlocal.New(evalresult.WithBaseDir(a.cfg.Evaluation.ResultsDir))
	defer m.Close()
	ids, err := m.List(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(ids) == 0 {
		fmt.Fprintln(out, "no saved results")
		return nil
	}
	for _, id := range ids {
		run, err := m.Get(ctx, id)
		if err != nil {
			return err
		}
		created := "unknown"
		if run.CreationTimestamp != nil && !run.CreationTimestamp.IsZero() {
			created = humanize.Time(run.CreationTimestamp.Time)
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", id, run.Name, run.PredictionPath, created)
	}
	return nil
}

func runResultsShow(cmd *cobra.Command, a *app, id string) error {
	m := resultlocal.New(evalresult.WithBaseDir(a.cfg.Evaluation.ResultsDir))
	defer m.Close()
	run, err := m.Get(commandContext(cmd), id)
	if err != nil {
		return err
	}
	title := run.Name
	if title == "" {
		title = run.ID
	}
	fmt.Fprint(cmd.OutOrStdout(), report.Markdown(title, run.Result))
	return nil
}

func newSink(ctx context.Context, sc config.SinkConfig) (dataset.Sink, error) {
	switch sc.Type {
	case config.SinkTCOS:
		return tcos.New(sc.Bucket, tcos.WithPrefix(sc.Prefix))
	case config.SinkS3:
		opts := []s3.Option{s3.WithPrefix(sc.Prefix), s3.WithPathStyle(sc.PathStyle)}
		if sc.Region != "" {
			opts = append(opts, s3.WithRegion(sc.Region))
		}
		if sc.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(sc.Endpoint))
		}
		return s3.New(ctx, sc.Bucket, opts...)
	default:
		return dslocal.New(dslocal.WithDir(sc.Dir)), nil
	}
}

func newBackend(cc config.CaptionerConfig) captioner.Backend {
	switch cc.Backend {
	case config.BackendGemini:
		var opts []gemini.Option
		if cc.Model != "" {
			opts = append(opts, gemini.WithModel(cc.Model))
		}
		if cc.Prompt != "" {
			opts = append(opts, gemini.WithPrompt(cc.Prompt))
		}
		if cc.APIKey != "" {
			opts = append(opts, gemini.WithAPIKey(cc.APIKey))
		}
		if cc.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cc.BaseURL))
		}
		if cc.MaxTokens > 0 {
			opts = append(opts, gemini.WithMaxTokens(int32(cc.MaxTokens)))
		}
		return gemini.New(opts...)
	default:
		var opts []openai.Option
		if cc.Model != "" {
			opts = append(opts, openai.WithModel(cc.Model))
		}
		if cc.Prompt != "" {
			opts = append(opts, openai.WithPrompt(cc.Prompt))
		}
		if cc.APIKey != "" {
			opts = append(opts, openai.WithAPIKey(cc.APIKey))
		}
		if cc.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cc.BaseURL))
		}
		if cc.MaxTokens > 0 {
			opts = append(opts, openai.WithMaxTokens(int64(cc.MaxTokens)))
		}
		return openai.New(opts...)
	}
}
