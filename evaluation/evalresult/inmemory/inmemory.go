//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides an in-memory storage implementation for evaluation results.
package inmemory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"trpc.group/trpc-go/trpc-caption-go/evaluation/evalresult"
)

// Manager implements evalresult.Manager in memory. Runs are stored as JSON so
// callers never share state with the manager.
type Manager struct {
	mu   sync.RWMutex
	runs map[string][]byte
}

// New creates an in-memory result manager.
func New() *Manager {
	return &Manager{runs: make(map[string][]byte)}
}

// Save stores a run and returns its id.
func (m *Manager) Save(ctx context.Context, run *evalresult.EvalRun) (string, error) {
	if err := evalresult.Stamp(run); err != nil {
		return "", err
	}
	b, err := json.Marshal(run)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = b
	return run.ID, nil
}

// Get retrieves a run by id.
func (m *Manager) Get(ctx context.Context, id string) (*evalresult.EvalRun, error) {
	m.mu.RLock()
	b, ok := m.runs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", evalresult.ErrNotFound, id)
	}
	var run evalresult.EvalRun
	if err := json.Unmarshal(b, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns the sorted ids of all stored runs.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.runs))
	for id := range m.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close drops every stored run.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = make(map[string][]byte)
	return nil
}
