//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-caption-go/dataset"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleYAML = `
log:
  level: debug
dataset:
  train_annotations: ${CAPTION_TEST_ROOT}/train.json
  test_annotations: ${CAPTION_TEST_ROOT}/test.json
  train_images_dir: ${CAPTION_TEST_ROOT}/train-images
  test_images_dir: ${CAPTION_TEST_ROOT}/public-test-images
  name: ktvic
  seed: 1234
sink:
  type: tcos
  bucket: https://examplebucket-1250000000.cos.ap-guangzhou.myqcloud.com
  prefix: datasets
evaluation:
  groundtruth: ${CAPTION_TEST_ROOT}/grouped_captions.json
  metrics: [BLEU, CIDEr]
captioner:
  backend: gemini
  model: gemini-2.0-flash
`

func TestLoadYAML(t *testing.T) {
	t.Setenv("CAPTION_TEST_ROOT", "/data/ktvic")
	cfg, err := Load(writeFile(t, "caption.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "/data/ktvic/train.json", cfg.Dataset.TrainAnnotations)
	assert.Equal(t, "/data/ktvic/public-test-images", cfg.Dataset.TestImagesDir)
	assert.Equal(t, int64(1234), cfg.Dataset.Seed)
	assert.Equal(t, dataset.DefaultMaxConsecutive, cfg.Dataset.MaxConsecutive)
	assert.Equal(t, dataset.DefaultMaxAttempts, cfg.Dataset.MaxAttempts)
	assert.Equal(t, SinkTCOS, cfg.Sink.Type)
	assert.Equal(t, "datasets", cfg.Sink.Prefix)
	assert.Equal(t, []string{"BLEU", "CIDEr"}, cfg.Evaluation.Metrics)
	assert.Equal(t, BackendGemini, cfg.Captioner.Backend)
	assert.Equal(t, 4, cfg.Captioner.Parallelism)

	prep := cfg.PrepareConfig()
	assert.Equal(t, "ktvic", prep.SaveName)
	assert.Equal(t, "/data/ktvic/train-images", prep.TrainImagesDir)
	require.NotNil(t, prep.Shuffler)
	assert.Equal(t, dataset.DefaultMaxConsecutive, prep.Shuffler.MaxConsecutive())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CAPTION_TEST_ROOT", "/data/ktvic")
	t.Setenv("CAPTION_DATASET_SEED", "7")
	t.Setenv("CAPTION_EVAL_METRICS", "ROUGE,CIDEr")
	t.Setenv("CAPTION_CAPTIONER_PARALLELISM", "16")
	cfg, err := Load(writeFile(t, "caption.yaml", sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Dataset.Seed)
	assert.Equal(t, []string{"ROUGE", "CIDEr"}, cfg.Evaluation.Metrics)
	assert.Equal(t, 16, cfg.Captioner.Parallelism)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, dataset.DefaultSeed, cfg.Dataset.Seed)
	assert.Equal(t, SinkLocal, cfg.Sink.Type)
	assert.Equal(t, "datasets", cfg.Sink.Dir)
	assert.Equal(t, "eval_results", cfg.Evaluation.ResultsDir)
	assert.Equal(t, BackendOpenAI, cfg.Captioner.Backend)
	assert.Equal(t, "grpc", cfg.Telemetry.Protocol)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoadDotEnv(t *testing.T) {
	for _, key := range []string{"CAPTION_SINK_TYPE", "CAPTION_SINK_BUCKET"} {
		key := key
		t.Cleanup(func() { os.Unsetenv(key) })
	}
	dotenv := writeFile(t, ".env", "CAPTION_SINK_TYPE=s3\nCAPTION_SINK_BUCKET=captions\n")
	cfg, err := Load("", dotenv)
	require.NoError(t, err)
	assert.Equal(t, SinkS3, cfg.Sink.Type)
	assert.Equal(t, "captions", cfg.Sink.Bucket)

	_, err = Load("", filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "dataset:\n  seeds: 1\n"},
		{"bad yaml", "dataset: [\n"},
		{"two documents", "log:\n  level: info\n---\nlog:\n  level: debug\n"},
		{"unknown sink", "sink:\n  type: ftp\n"},
		{"bucket required", "sink:\n  type: s3\n"},
		{"unknown backend", "captioner:\n  backend: llava\n"},
		{"unknown protocol", "telemetry:\n  protocol: udp\n"},
		{"small window", "dataset:\n  max_consecutive: 1\n"},
		{"negative attempts", "dataset:\n  max_attempts: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "caption.yaml", tt.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	t.Setenv("CAPTION_DATASET_SEED", "not-a-number")
	_, err = Load("")
	assert.Error(t, err)
}
