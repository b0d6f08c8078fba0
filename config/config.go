//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package config loads the captionctl configuration from a YAML file, an
// optional .env file and CAPTION_ prefixed environment variables, in increasing
// order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"trpc.group/trpc-go/trpc-caption-go/dataset"
)

// EnvPrefix prefixes every environment override, e.g. CAPTION_DATASET_SEED.
const EnvPrefix = "CAPTION_"

// Sink types.
const (
	SinkLocal = "local"
	SinkTCOS  = "tcos"
	SinkS3    = "s3"
)

// Captioner backends.
const (
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
)

// Config is the full configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" envPrefix:"LOG_"`
	Dataset    DatasetConfig    `yaml:"dataset" envPrefix:"DATASET_"`
	Sink       SinkConfig       `yaml:"sink" envPrefix:"SINK_"`
	Evaluation EvaluationConfig `yaml:"evaluation" envPrefix:"EVAL_"`
	Captioner  CaptionerConfig  `yaml:"captioner" envPrefix:"CAPTIONER_"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// DatasetConfig names the raw inputs and the shuffle parameters.
type DatasetConfig struct {
	TrainAnnotations string `yaml:"train_annotations" env:"TRAIN_ANNOTATIONS"`
	TestAnnotations  string `yaml:"test_annotations" env:"TEST_ANNOTATIONS"`
	TrainImagesDir   string `yaml:"train_images_dir" env:"TRAIN_IMAGES_DIR"`
	TestImagesDir    string `yaml:"test_images_dir" env:"TEST_IMAGES_DIR"`
	// Name is the name the prepared dataset is saved under.
	Name           string `yaml:"name" env:"NAME"`
	Seed           int64  `yaml:"seed" env:"SEED"`
	MaxConsecutive int    `yaml:"max_consecutive" env:"MAX_CONSECUTIVE"`
	MaxAttempts    int    `yaml:"max_attempts" env:"MAX_ATTEMPTS"`
}

// SinkConfig selects where prepared datasets are stored.
type SinkConfig struct {
	Type string `yaml:"type" env:"TYPE"`
	// Dir is the base directory of the local sink.
	Dir string `yaml:"dir" env:"DIR"`
	// Bucket is the bucket URL for tcos and the bucket name for s3.
	Bucket    string `yaml:"bucket" env:"BUCKET"`
	Prefix    string `yaml:"prefix" env:"PREFIX"`
	Region    string `yaml:"region" env:"REGION"`
	Endpoint  string `yaml:"endpoint" env:"ENDPOINT"`
	PathStyle bool   `yaml:"path_style" env:"PATH_STYLE"`
}

// EvaluationConfig configures caption evaluation.
type EvaluationConfig struct {
	Groundtruth string   `yaml:"groundtruth" env:"GROUNDTRUTH"`
	Metrics     []string `yaml:"metrics" env:"METRICS" envSeparator:","`
	ResultsDir  string   `yaml:"results_dir" env:"RESULTS_DIR"`
}

// CaptionerConfig configures the inference backend.
type CaptionerConfig struct {
	Backend     string `yaml:"backend" env:"BACKEND"`
	Model       string `yaml:"model" env:"MODEL"`
	Prompt      string `yaml:"prompt" env:"PROMPT"`
	BaseURL     string `yaml:"base_url" env:"BASE_URL"`
	APIKey      string `yaml:"api_key" env:"API_KEY"`
	MaxTokens   int    `yaml:"max_tokens" env:"MAX_TOKENS"`
	Parallelism int    `yaml:"parallelism" env:"PARALLELISM"`
}

// TelemetryConfig configures the OTLP exporters.
type TelemetryConfig struct {
	Enabled         bool   `yaml:"enabled" env:"ENABLED"`
	Protocol        string `yaml:"protocol" env:"PROTOCOL"`
	MetricsEndpoint string `yaml:"metrics_endpoint" env:"METRICS_ENDPOINT"`
	TracesEndpoint  string `yaml:"traces_endpoint" env:"TRACES_ENDPOINT"`
}

// Load reads the YAML file at path, when path is not empty, then the dotenv
// files (.env when none are given, silently skipped when missing) and finally
// the CAPTION_ environment variables. ${VAR} references in the YAML file are
// expanded from the environment after the dotenv files are loaded.
func Load(path string, dotenvFiles ...string) (*Config, error) {
	if err := loadDotEnv(dotenvFiles); err != nil {
		return nil, err
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decodeYAML([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return nil, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv(files []string) error {
	explicit := len(files) > 0
	if !explicit {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func decodeYAML(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && err != io.EOF {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("failed to parse config: expected single document")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Dataset.Seed == 0 {
		cfg.Dataset.Seed = dataset.DefaultSeed
	}
	if cfg.Dataset.MaxConsecutive == 0 {
		cfg.Dataset.MaxConsecutive = dataset.DefaultMaxConsecutive
	}
	if cfg.Dataset.MaxAttempts == 0 {
		cfg.Dataset.MaxAttempts = dataset.DefaultMaxAttempts
	}
	if cfg.Sink.Type == "" {
		cfg.Sink.Type = SinkLocal
	}
	if cfg.Sink.Dir == "" {
		cfg.Sink.Dir = "datasets"
	}
	if cfg.Evaluation.ResultsDir == "" {
		cfg.Evaluation.ResultsDir = "eval_results"
	}
	if cfg.Captioner.Backend == "" {
		cfg.Captioner.Backend = BackendOpenAI
	}
	if cfg.Captioner.Parallelism == 0 {
		cfg.Captioner.Parallelism = 4
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
}

// Validate checks the enumerated fields.
func (c *Config) Validate() error {
	switch c.Sink.Type {
	case SinkLocal, SinkTCOS, SinkS3:
	default:
		return fmt.Errorf("unknown sink type %q", c.Sink.Type)
	}
	if c.Sink.Type != SinkLocal && c.Sink.Bucket == "" {
		return fmt.Errorf("sink %s requires a bucket", c.Sink.Type)
	}
	switch c.Captioner.Backend {
	case BackendOpenAI, BackendGemini:
	default:
		return fmt.Errorf("unknown captioner backend %q", c.Captioner.Backend)
	}
	switch c.Telemetry.Protocol {
	case "grpc", "http":
	default:
		return fmt.Errorf("unknown telemetry protocol %q", c.Telemetry.Protocol)
	}
	if c.Dataset.MaxConsecutive < 2 {
		return fmt.Errorf("max_consecutive must be at least 2, got %d", c.Dataset.MaxConsecutive)
	}
	if c.Dataset.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must not be negative, got %d", c.Dataset.MaxAttempts)
	}
	return nil
}

// Shuffler builds the shuffler described by the dataset section.
func (c *Config) Shuffler() *dataset.Shuffler {
	return dataset.NewShuffler(
		dataset.WithSeed(c.Dataset.Seed),
		dataset.WithMaxConsecutive(c.Dataset.MaxConsecutive),
		dataset.WithMaxAttempts(c.Dataset.MaxAttempts),
	)
}

// PrepareConfig returns the inputs of dataset.Prepare.
func (c *Config) PrepareConfig() dataset.PrepareConfig {
	return dataset.PrepareConfig{
		TrainAnnotations: c.Dataset.TrainAnnotations,
		TestAnnotations:  c.Dataset.TestAnnotations,
		TrainImagesDir:   c.Dataset.TrainImagesDir,
		TestImagesDir:    c.Dataset.TestImagesDir,
		SaveName:         c.Dataset.Name,
		Shuffler:         c.Shuffler(),
	}
}
