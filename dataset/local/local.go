//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package local stores datasets as directories on the local file system.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"trpc.group/trpc-go/trpc-caption-go/dataset"
)

const defaultDir = "datasets"

// Sink stores each dataset in <dir>/<name>/.
type Sink struct {
	dir string
}

// Option configures a Sink.
type Option func(*Sink)

// WithDir sets the root directory. Default is "datasets".
func WithDir(dir string) Option {
	return func(s *Sink) {
		if dir != "" {
			s.dir = dir
		}
	}
}

// New creates a local Sink.
func New(opts ...Option) *Sink {
	s := &Sink{dir: defaultDir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the directory the dataset name is stored in.
func (s *Sink) Dir(name string) string {
	return filepath.Join(s.dir, name)
}

// Save writes the dataset files, each through a temporary file renamed into place.
func (s *Sink) Save(ctx context.Context, name string, d *dataset.Dataset) error {
	if err := dataset.ValidateName(name); err != nil {
		return err
	}
	if d == nil {
		return errors.New("local: dataset is nil")
	}
	files, err := dataset.Files(d)
	if err != nil {
		return err
	}
	dir := s.Dir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("local: create %s: %w", dir, err)
	}
	// The layout file is written last so a reader never sees it before its splits.
	names := make([]string, 0, len(files))
	for file := range files {
		if file != dataset.DictFile {
			names = append(names, file)
		}
	}
	sort.Strings(names)
	names = append(names, dataset.DictFile)
	for _, file := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(dir, file), files[file]); err != nil {
			return fmt.Errorf("local: write %s: %w", file, err)
		}
	}
	return nil
}

// Load reads the dataset stored under name.
func (s *Sink) Load(ctx context.Context, name string) (*dataset.Dataset, error) {
	if err := dataset.ValidateName(name); err != nil {
		return nil, err
	}
	dir := s.Dir(name)
	return dataset.FromFiles(func(file string) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(dir, file))
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", dataset.ErrNotFound, filepath.Join(dir, file))
		}
		return data, err
	})
}

func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
