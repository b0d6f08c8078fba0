//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-caption-go/dataset"
	"trpc.group/trpc-go/trpc-caption-go/evaluation"
	"trpc.group/trpc-go/trpc-caption-go/evaluation/evalresult"
)

func sampleRun() *evalresult.EvalRun {
	return &evalresult.EvalRun{
		Name:            "bartpho-beam3",
		GroundtruthPath: "gt.json",
		PredictionPath:  "pred.json",
		Result: &evaluation.Result{
			Scores:   map[string]float64{"BLEU-4": 31.5, "CIDEr": 87.25},
			Mismatch: evaluation.Mismatch{Groundtruth: 3, Predictions: 2, Common: 2, OnlyGroundtruth: 1},
		},
	}
}

func TestManagerSaveGetList(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	m := New(evalresult.WithBaseDir(dir))
	defer m.Close()

	id, err := m.Save(ctx, sampleRun())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "bartpho-beam3", got.Name)
	assert.Equal(t, 31.5, got.Result.Scores["BLEU-4"])
	assert.Equal(t, 1, got.Result.Mismatch.OnlyGroundtruth)
	require.NotNil(t, got.CreationTimestamp)
	assert.False(t, got.CreationTimestamp.IsZero())

	second := sampleRun()
	second.ID = "manual"
	_, err = m.Save(ctx, second)
	require.NoError(t, err)

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{id, "manual"}, ids)

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestManagerGetMissing(t *testing.T) {
	m := New(evalresult.WithBaseDir(t.TempDir()))
	_, err := m.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, evalresult.ErrNotFound)
}

func TestManagerGetCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.eval_result.json"), []byte("{"), 0o644))
	m := New(evalresult.WithBaseDir(dir))
	_, err := m.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, evalresult.ErrNotFound)
}

func TestManagerRejectsUnsafeIDs(t *testing.T) {
	m := New(evalresult.WithBaseDir(t.TempDir()))
	run := sampleRun()
	run.ID = "../escape"
	_, err := m.Save(context.Background(), run)
	assert.ErrorIs(t, err, dataset.ErrInvalidName)
	_, err = m.Get(context.Background(), "..")
	assert.ErrorIs(t, err, dataset.ErrInvalidName)
}

func TestManagerListEmpty(t *testing.T) {
	m := New(evalresult.WithBaseDir(filepath.Join(t.TempDir(), "missing")))
	ids, err := m.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
