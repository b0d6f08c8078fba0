//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package dataset_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-caption-go/dataset"
	"trpc.group/trpc-go/trpc-caption-go/dataset/inmemory"
	"trpc.group/trpc-go/trpc-caption-go/log/logtest"
)

const trainJSON = `{
  "images": [
    {"id": 1, "filename": "00001.jpg"},
    {"id": 2, "filename": "00002.jpg"},
    {"id": 3, "filename": "00003.jpg"}
  ],
  "annotations": [
    {"image_id": 1, "segment_caption": "a1"}, {"image_id": 1, "segment_caption": "a2"},
    {"image_id": 1, "segment_caption": "a3"}, {"image_id": 1, "segment_caption": "a4"},
    {"image_id": 1, "segment_caption": "a5"},
    {"image_id": 2, "segment_caption": "b1"}, {"image_id": 2, "segment_caption": "b2"},
    {"image_id": 2, "segment_caption": "b3"}, {"image_id": 2, "segment_caption": "b4"},
    {"image_id": 2, "segment_caption": "b5"},
    {"image_id": 3, "segment_caption": "c1"}, {"image_id": 3, "segment_caption": "c2"},
    {"image_id": 3, "segment_caption": "c3"}, {"image_id": 3, "segment_caption": "c4"},
    {"image_id": 3, "segment_caption": "c5"},
    {"image_id": 4, "segment_caption": "orphan"}
  ]
}`

const testJSON = `{
  "images": [{"filename": "00101.jpg"}, {"filename": "00102.jpg"}],
  "annotations": [{"segment_caption": "t1"}]
}`

func writeFixtures(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	train := filepath.Join(dir, "train.json")
	test := filepath.Join(dir, "test.json")
	require.NoError(t, os.WriteFile(train, []byte(trainJSON), 0o644))
	require.NoError(t, os.WriteFile(test, []byte(testJSON), 0o644))
	return train, test
}

func TestPrepare(t *testing.T) {
	logtest.Install(t)
	train, test := writeFixtures(t)
	sink := inmemory.New()
	d, err := dataset.Prepare(context.Background(), dataset.PrepareConfig{
		TrainAnnotations: train,
		TestAnnotations:  test,
		TrainImagesDir:   "train_images",
		TestImagesDir:    "test_images",
		SaveName:         "viic",
	}, sink)
	require.NoError(t, err)
	require.Len(t, d.Train, 15)
	require.Len(t, d.Test, 1)
	assert.Empty(t, dataset.FindConsecutiveRuns(d.Train, 5))
	assert.Equal(t, 101, d.Test[0].ImageID)
	assert.Equal(t, filepath.Join("test_images", "00101.jpg"), d.Test[0].ImagePath)

	loaded, err := sink.Load(context.Background(), "viic")
	require.NoError(t, err)
	assert.Equal(t, d, loaded)

	again, err := dataset.Prepare(context.Background(), dataset.PrepareConfig{
		TrainAnnotations: train,
		TestAnnotations:  test,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, captionsOf(d.Train), captionsOf(again.Train))
}

func captionsOf(rs dataset.Records) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Caption
	}
	return out
}

func TestPrepareErrors(t *testing.T) {
	logtest.Install(t)
	train, test := writeFixtures(t)
	ctx := context.Background()

	_, err := dataset.Prepare(ctx, dataset.PrepareConfig{
		TrainAnnotations: train, TestAnnotations: test, SaveName: "x",
	}, nil)
	assert.Error(t, err)

	_, err = dataset.Prepare(ctx, dataset.PrepareConfig{
		TrainAnnotations: filepath.Join(t.TempDir(), "missing.json"), TestAnnotations: test,
	}, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = dataset.Prepare(ctx, dataset.PrepareConfig{
		TrainAnnotations: train, TestAnnotations: test, SaveName: "a/b",
	}, inmemory.New())
	assert.ErrorIs(t, err, dataset.ErrInvalidName)
}
