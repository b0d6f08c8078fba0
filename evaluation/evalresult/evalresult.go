//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package evalresult stores evaluation results so that runs can be compared later.
package evalresult

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"trpc.group/trpc-go/trpc-caption-go/evaluation"
	"trpc.group/trpc-go/trpc-caption-go/evaluation/epochtime"
)

// ErrNotFound is returned when no result is stored under an id.
var ErrNotFound = errors.New("evaluation result not found")

// EvalRun is one stored evaluation.
type EvalRun struct {
	// ID uniquely identifies the run. Save assigns one when empty.
	ID string `json:"id"`
	// Name is a free-form label, e.g. the model checkpoint.
	Name string `json:"name,omitempty"`
	// GroundtruthPath is the groundtruth file that was evaluated against.
	GroundtruthPath string `json:"groundtruthPath,omitempty"`
	// PredictionPath is the prediction file that was evaluated.
	PredictionPath string `json:"predictionPath,omitempty"`
	// Result holds the scores and the id mismatch counts.
	Result *evaluation.Result `json:"result"`
	// CreationTimestamp is set by Save when nil.
	CreationTimestamp *epochtime.EpochTime `json:"creationTimestamp,omitempty"`
}

// Manager defines the interface for managing evaluation results.
type Manager interface {
	// Save stores a run and returns its id.
	Save(ctx context.Context, run *EvalRun) (string, error)
	// Get retrieves a run by id.
	Get(ctx context.Context, id string) (*EvalRun, error)
	// List returns the ids of all stored runs.
	List(ctx context.Context) ([]string, error)
	// Close releases the resources held by the manager.
	Close() error
}

// Stamp fills in the id and the creation time of run when they are unset.
func Stamp(run *EvalRun) error {
	if run == nil {
		return errors.New("run is nil")
	}
	if run.Result == nil {
		return errors.New("run has no result")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreationTimestamp == nil {
		run.CreationTimestamp = epochtime.Now()
	}
	return nil
}
