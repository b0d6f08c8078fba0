//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package local provides a local file storage implementation for evaluation results.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"trpc.group/trpc-go/trpc-caption-go/dataset"
	"trpc.group/trpc-go/trpc-caption-go/evaluation/evalresult"
)

// Manager implements evalresult.Manager with one JSON file per run.
type Manager struct {
	baseDir string
	locator evalresult.Locator
	mu      sync.Mutex
}

// New creates a local file result manager.
func New(opt ...evalresult.Option) *Manager {
	opts := evalresult.NewOptions(opt...)
	return &Manager{baseDir: opts.BaseDir, locator: opts.Locator}
}

// Save stores a run to a local file and returns its id.
func (m *Manager) Save(ctx context.Context, run *evalresult.EvalRun) (string, error) {
	if err := evalresult.Stamp(run); err != nil {
		return "", err
	}
	if err := dataset.ValidateName(run.ID); err != nil {
		return "", fmt.Errorf("result id: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	path := m.locator.Build(m.baseDir, run.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return run.ID, nil
}

// Get loads a run by id.
func (m *Manager) Get(ctx context.Context, id string) (*evalresult.EvalRun, error) {
	if err := dataset.ValidateName(id); err != nil {
		return nil, fmt.Errorf("result id: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, err := os.Open(m.locator.Build(m.baseDir, id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", evalresult.ErrNotFound, id)
		}
		return nil, err
	}
	defer f.Close()
	var run evalresult.EvalRun
	if err := json.NewDecoder(f).Decode(&run); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", id, err)
	}
	return &run, nil
}

// List returns the ids of all stored runs.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locator.List(m.baseDir)
}

// Close is a no-op for local files.
func (m *Manager) Close() error {
	return nil
}
