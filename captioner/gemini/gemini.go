//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package gemini captions images with the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"google.golang.org/genai"

	"trpc.group/trpc-go/trpc-caption-go/captioner"
)

const (
	defaultModel     = "gemini-2.0-flash"
	defaultMaxTokens = 64
	apiKeyEnv        = "GOOGLE_API_KEY"
)

// generator is the part of genai.Models the backend uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Backend implements captioner.Backend.
type Backend struct {
	cfg       *genai.ClientConfig
	model     string
	prompt    string
	maxTokens int32
	models    generator
}

// Option configures the backend.
type Option func(*Backend)

// WithAPIKey sets the API key. Defaults to GOOGLE_API_KEY.
func WithAPIKey(key string) Option {
	return func(b *Backend) { b.cfg.APIKey = key }
}

// WithBaseURL points the client at another endpoint.
func WithBaseURL(url string) Option {
	return func(b *Backend) { b.cfg.HTTPOptions.BaseURL = url }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Backend) { b.cfg.HTTPClient = c }
}

// WithModel sets the model name.
func WithModel(name string) Option {
	return func(b *Backend) { b.model = name }
}

// WithPrompt sets the instruction sent with every image.
func WithPrompt(prompt string) Option {
	return func(b *Backend) { b.prompt = prompt }
}

// WithMaxTokens limits the caption length.
func WithMaxTokens(n int32) Option {
	return func(b *Backend) { b.maxTokens = n }
}

// New creates a Gemini backend. The client is created by Load.
func New(opt ...Option) *Backend {
	b := &Backend{
		cfg:       &genai.ClientConfig{Backend: genai.BackendGeminiAPI},
		model:     defaultModel,
		prompt:    captioner.DefaultPrompt,
		maxTokens: defaultMaxTokens,
	}
	for _, apply := range opt {
		apply(b)
	}
	if val, ok := os.LookupEnv(apiKeyEnv); ok && b.cfg.APIKey == "" {
		b.cfg.APIKey = val
	}
	return b
}

// Name implements captioner.Backend.
func (b *Backend) Name() string {
	return "gemini/" + b.model
}

// Load creates the genai client.
func (b *Backend) Load(ctx context.Context) error {
	if b.model == "" {
		return errors.New("model name is empty")
	}
	if b.models != nil {
		return nil
	}
	client, err := genai.NewClient(ctx, b.cfg)
	if err != nil {
		return err
	}
	b.models = client.Models
	return nil
}

// Caption sends the prompt and the inline image and returns the reply text.
func (b *Backend) Caption(ctx context.Context, img captioner.Image) (string, error) {
	if b.models == nil {
		return "", captioner.ErrNotReady
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(b.prompt),
			genai.NewPartFromBytes(img.Data, img.MIMEType),
		}, genai.Role(genai.RoleUser)),
	}
	config := &genai.GenerateContentConfig{}
	if b.maxTokens > 0 {
		config.MaxOutputTokens = b.maxTokens
	}
	resp, err := b.models.GenerateContent(ctx, b.model, contents, config)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("response has no text")
	}
	return text, nil
}
