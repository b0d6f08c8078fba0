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
	"github.com/spf13/cobra"
)

// buildPrepareCmd creates the "prepare" command.
func buildPrepareCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Build the train/test caption dataset from raw annotations",
		Long: `Extract caption records from the train and test annotation files, shuffle
the train split so that no image fills a whole window of consecutive rows, and
save the dataset through the configured sink (local, tcos or s3).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrepare(cmd, a, name)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Dataset name to save under (overrides dataset.name)")
	return cmd
}

// buildEvaluateCmd creates the "evaluate" command.
func buildEvaluateCmd(a *app) *cobra.Command {
	var opts evaluateOptions
	cmd := &cobra.Command{
		Use:   "evaluate [prediction-glob...]",
		Short: "Score prediction files against the groundtruth captions",
		Long: `Evaluate every prediction file matching the given glob patterns (** is
supported) against the groundtruth file and print BLEU, ROUGE and CIDEr.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, a, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.groundtruth, "groundtruth", "g", "", "Groundtruth caption file (overrides evaluation.groundtruth)")
	cmd.Flags().StringSliceVar(&opts.metrics, "metrics", nil, "Metric families to compute (BLEU, ROUGE, CIDEr)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Store the results in the results directory")
	cmd.Flags().StringVar(&opts.name, "name", "", "Label stored with saved results")
	cmd.Flags().StringSliceVar(&opts.reports, "report", nil, "Write a report file (.md, .html or .pdf)")
	cmd.Flags().StringVar(&opts.font, "pdf-font", "", "TrueType font embedded in PDF reports")
	return cmd
}

// buildInferCmd creates the "infer" command.
func buildInferCmd(a *app) *cobra.Command {
	var opts inferOptions
	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Caption the images of a saved dataset split",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfer(cmd, a, opts)
		},
	}
	cmd.Flags().StringVar(&opts.dataset, "dataset", "", "Saved dataset name (overrides dataset.name)")
	cmd.Flags().StringVar(&opts.split, "split", "test", "Dataset split to caption")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "predictions.json", "Prediction file to write")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Caption at most this many images (0 means all)")
	return cmd
}

// buildResultsCmd creates the "results" command group.
func buildResultsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect saved evaluation results",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved evaluation results",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runResultsList(cmd, a)
			},
		},
		&cobra.Command{
			Use:   "show [id]",
			Short: "Show one saved evaluation result",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runResultsShow(cmd, a, args[0])
			},
		},
	)
	return cmd
}
