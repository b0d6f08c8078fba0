//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package captioner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/panjf2000/ants/v2"
	"github.com/schollz/progressbar/v3"

	"trpc.group/trpc-go/trpc-caption-go/dataset"
	"trpc.group/trpc-go/trpc-caption-go/evaluation"
	"trpc.group/trpc-go/trpc-caption-go/log"
)

// defaultParallelism is the number of images captioned at once.
const defaultParallelism = 4

// InferOption configures Infer.
type InferOption func(*inferOptions)

type inferOptions struct {
	parallelism int
	progress    io.Writer
}

// WithParallelism sets how many images are captioned at once.
func WithParallelism(n int) InferOption {
	return func(o *inferOptions) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

// WithProgress draws a progress bar on w.
func WithProgress(w io.Writer) InferOption {
	return func(o *inferOptions) {
		o.progress = w
	}
}

type inferParam struct {
	idx      int
	ctx      context.Context
	svc      *Service
	record   dataset.Record
	captions []string
	errs     []error
	bar      *progressbar.ProgressBar
	wg       *sync.WaitGroup
}

func (p *inferParam) reset() {
	p.idx = 0
	p.ctx = nil
	p.svc = nil
	p.record = dataset.Record{}
	p.captions = nil
	p.errs = nil
	p.bar = nil
	p.wg = nil
}

var inferParamPool = &sync.Pool{
	New: func() any { return new(inferParam) },
}

func createInferPool(size int) (*ants.PoolWithFunc, error) {
	pool, err := ants.NewPoolWithFunc(size, func(args any) {
		param, ok := args.(*inferParam)
		if !ok {
			panic("caption inference pool args type error")
		}
		wg := param.wg
		defer func() {
			wg.Done()
			param.reset()
			inferParamPool.Put(param)
		}()
		param.captions[param.idx], param.errs[param.idx] = param.svc.Caption(param.ctx, param.record)
		_ = param.bar.Add(1)
	})
	if err != nil {
		return nil, fmt.Errorf("create caption inference pool: %w", err)
	}
	return pool, nil
}

// Infer captions every distinct image of records, once per image id, and
// returns the predictions keyed by image id. Failed images are left out of the
// returned captions and their errors are returned together.
func Infer(ctx context.Context, svc *Service, records dataset.Records, opt ...InferOption) (evaluation.Captions, error) {
	if svc == nil {
		return nil, errors.New("captioner: service is nil")
	}
	if !svc.Ready() {
		return nil, ErrNotReady
	}
	opts := &inferOptions{parallelism: defaultParallelism}
	for _, o := range opt {
		o(opts)
	}

	images := firstPerImage(records)
	captions := make([]string, len(images))
	errs := make([]error, len(images))
	bar := newProgressBar(len(images), opts.progress)

	pool, err := createInferPool(opts.parallelism)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for idx, rec := range images {
		if err := ctx.Err(); err != nil {
			errs[idx] = fmt.Errorf("image %d not submitted: %w", rec.ImageID, err)
			continue
		}
		wg.Add(1)
		param := inferParamPool.Get().(*inferParam)
		param.idx = idx
		param.ctx = ctx
		param.svc = svc
		param.record = rec
		param.captions = captions
		param.errs = errs
		param.bar = bar
		param.wg = &wg
		if err := pool.Invoke(param); err != nil {
			wg.Done()
			errs[idx] = fmt.Errorf("submit image %d: %w", rec.ImageID, err)
			param.reset()
			inferParamPool.Put(param)
		}
	}
	wg.Wait()
	_ = bar.Finish()

	out := make(evaluation.Captions, len(images))
	var result *multierror.Error
	for i, rec := range images {
		if errs[i] != nil {
			result = multierror.Append(result, errs[i])
			continue
		}
		out[strconv.Itoa(rec.ImageID)] = []string{captions[i]}
	}
	log.Infof("captioned %d of %d images with %s", len(out), len(images), svc.Backend())
	return out, result.ErrorOrNil()
}

// firstPerImage keeps the first record of every image id.
func firstPerImage(records dataset.Records) dataset.Records {
	seen := make(map[int]struct{})
	var out dataset.Records
	for _, r := range records {
		if _, ok := seen[r.ImageID]; ok {
			continue
		}
		seen[r.ImageID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func newProgressBar(n int, w io.Writer) *progressbar.ProgressBar {
	if w == nil {
		return progressbar.DefaultSilent(int64(n), "captioning")
	}
	return progressbar.NewOptions64(int64(n),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("captioning"),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(0),
	)
}
