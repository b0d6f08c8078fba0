//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package inmemory keeps datasets in process memory.
package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"trpc.group/trpc-go/trpc-caption-go/dataset"
)

// Sink is a map-backed dataset sink. Datasets are stored in encoded form so a
// loaded dataset never aliases the one that was saved.
type Sink struct {
	mu    sync.RWMutex
	store map[string]map[string][]byte
}

// New creates an empty in-memory sink.
func New() *Sink {
	return &Sink{store: make(map[string]map[string][]byte)}
}

// Save stores d under name.
func (s *Sink) Save(ctx context.Context, name string, d *dataset.Dataset) error {
	if err := dataset.ValidateName(name); err != nil {
		return err
	}
	if d == nil {
		return errors.New("inmemory: dataset is nil")
	}
	files, err := dataset.Files(d)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store[name] = files
	return nil
}

// Load returns the dataset stored under name.
func (s *Sink) Load(ctx context.Context, name string) (*dataset.Dataset, error) {
	s.mu.RLock()
	files, ok := s.store[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", dataset.ErrNotFound, name)
	}
	return dataset.FromFiles(func(file string) ([]byte, error) {
		data, ok := files[file]
		if !ok {
			return nil, fmt.Errorf("%w: %s/%s", dataset.ErrNotFound, name, file)
		}
		return data, nil
	})
}

// Names returns the stored dataset names.
func (s *Sink) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.store))
	for name := range s.store {
		names = append(names, name)
	}
	return names
}
