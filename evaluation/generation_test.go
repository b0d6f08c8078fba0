//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package evaluation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	generated = []string{
		"một người đàn ông đang đi bộ trên đường",
		"con chó đang chạy trong công viên",
	}
	labels = []string{
		"một người đàn ông đang đi bộ trên đường",
		"con chó đang chạy trong công viên",
	}
)

func TestComputeGenerationMetricsIdentical(t *testing.T) {
	result, err := ComputeGenerationMetrics(context.Background(), generated, labels)
	require.NoError(t, err)
	assert.InDelta(t, 100, result["rouge1"], 1e-4)
	assert.InDelta(t, 100, result["rouge2"], 1e-4)
	assert.InDelta(t, 100, result["rougeL"], 1e-4)
	assert.InDelta(t, 100, result["bleu"], 1e-4)
	assert.InDelta(t, 1000, result["cider"], 1e-3)
	assert.InDelta(t, 8, result["gen_len"], 1e-9)
	assert.Len(t, result, 6)
}

func TestComputeGenerationMetricsShortPredictions(t *testing.T) {
	result, err := ComputeGenerationMetrics(context.Background(),
		[]string{"Caption 1", "Caption 2", "Caption 3"},
		[]string{"Caption 1", "Caption 2", "Caption 3"})
	require.NoError(t, err)
	// Two-word captions have no 3-grams, so geometric BLEU is zero.
	assert.Zero(t, result["bleu"])
	assert.InDelta(t, 100, result["rouge1"], 1e-4)
	assert.InDelta(t, 2, result["gen_len"], 1e-9)
}

func TestComputeGenerationMetricsWithFiles(t *testing.T) {
	dir := t.TempDir()
	gt := writeJSON(t, dir, "gt.json", `{
  "image1": ["một người đàn ông đang đi bộ trên đường", "người đàn ông mặc áo đỏ"],
  "image2": ["con chó đang chạy trong công viên", "chú chó màu nâu chơi đùa"]
}`)
	outDir := filepath.Join(dir, "output")

	result, err := ComputeGenerationMetrics(context.Background(), generated, labels,
		WithOutputDir(outDir), WithGroundtruthFile(gt))
	require.NoError(t, err)
	assert.Contains(t, result, "BLEU-1")
	assert.Contains(t, result, "CIDEr")
	assert.Contains(t, result, "rouge1")

	saved, err := LoadCaptions(filepath.Join(outDir, PredictionsFile))
	require.NoError(t, err)
	assert.Equal(t, Captions{"image1": {generated[0]}, "image2": {generated[1]}}, saved)
}

func TestComputeGenerationMetricsOutputWithoutGroundtruth(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "output")
	_, err := ComputeGenerationMetrics(context.Background(), generated, labels, WithOutputDir(outDir))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, PredictionsFile))
	assert.NoError(t, err)
}

func TestComputeGenerationMetricsErrors(t *testing.T) {
	_, err := ComputeGenerationMetrics(context.Background(), []string{"a"}, nil)
	assert.Error(t, err)
	_, err = ComputeGenerationMetrics(context.Background(), nil, nil)
	assert.Error(t, err)

	dir := t.TempDir()
	gt := writeJSON(t, dir, "gt.json", `{"image1": ["a"]}`)
	_, err = ComputeGenerationMetrics(context.Background(), generated, labels, WithGroundtruthFile(gt))
	assert.Error(t, err)
}
