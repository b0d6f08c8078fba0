//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package evalresult

// defaultBaseDir is the default directory runs are stored in.
const defaultBaseDir = "eval_results"

// Options holds the configuration of a result manager.
type Options struct {
	// BaseDir is the directory results are stored in.
	BaseDir string
	// Locator builds and lists result file paths.
	Locator Locator
}

// NewOptions applies opt on top of the defaults.
func NewOptions(opt ...Option) *Options {
	opts := &Options{
		BaseDir: defaultBaseDir,
		Locator: &locator{},
	}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// Option configures a result manager.
type Option func(*Options)

// WithBaseDir overrides the default base directory used to store results.
func WithBaseDir(dir string) Option {
	return func(o *Options) {
		o.BaseDir = dir
	}
}

// WithLocator overrides how result files are named.
func WithLocator(l Locator) Option {
	return func(o *Options) {
		if l != nil {
			o.Locator = l
		}
	}
}
