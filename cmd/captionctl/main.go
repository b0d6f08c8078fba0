//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Command captionctl prepares caption datasets, runs captioning models and
// evaluates predicted captions.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-caption-go/config"
	itelemetry "trpc.group/trpc-go/trpc-caption-go/internal/telemetry"
	"trpc.group/trpc-go/trpc-caption-go/log"
	"trpc.group/trpc-go/trpc-caption-go/telemetry/metric"
	"trpc.group/trpc-go/trpc-caption-go/telemetry/trace"
)

// Telemetry starters, replaced in tests.
var (
	startMetrics = metric.Start
	startTraces  = trace.Start
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		log.Errorf("captionctl: %v", err)
		os.Exit(1)
	}
}

// app carries the loaded configuration to the subcommands.
type app struct {
	configPath string
	envFiles   []string
	logLevel   string

	cfg      *config.Config
	shutdown []func(context.Context) error
}

// buildRootCmd creates the root command with all subcommands attached.
func buildRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "captionctl",
		Short:         "Vietnamese image caption dataset and evaluation tool",
		Version:       itelemetry.ServiceVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "Dotenv files to load (default .env when present)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		buildPrepareCmd(a),
		buildEvaluateCmd(a),
		buildInferCmd(a),
		buildResultsCmd(a),
	)
	return rootCmd
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.configPath, a.envFiles...)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if cfg.Log.Format == log.FormatJSON {
		log.Default = log.New(os.Stderr, log.FormatJSON)
	}
	level := cfg.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	log.SetLevel(level)

	if !cfg.Telemetry.Enabled {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	stopMetrics, err := startMetrics(ctx,
		metric.WithProtocol(cfg.Telemetry.Protocol),
		metric.WithEndpoint(cfg.Telemetry.MetricsEndpoint),
	)
	if err != nil {
		return err
	}
	a.shutdown = append(a.shutdown, stopMetrics)
	stopTraces, err := startTraces(ctx,
		trace.WithProtocol(cfg.Telemetry.Protocol),
		trace.WithEndpoint(cfg.Telemetry.TracesEndpoint),
	)
	if err != nil {
		// PersistentPostRunE does not run after a failed setup.
		if stopErr := a.teardown(ctx); stopErr != nil {
			log.Warnf("stop telemetry: %v", stopErr)
		}
		return err
	}
	a.shutdown = append(a.shutdown, func(context.Context) error { return stopTraces() })
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var firstErr error
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		if err := a.shutdown[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.shutdown = nil
	return firstErr
}
