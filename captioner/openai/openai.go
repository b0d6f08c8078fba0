//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package openai captions images with an OpenAI compatible chat completion API.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"os"

	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"trpc.group/trpc-go/trpc-caption-go/captioner"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 64
	apiKeyEnv        = "OPENAI_API_KEY"
	baseURLEnv       = "OPENAI_BASE_URL"
)

// Backend implements captioner.Backend.
type Backend struct {
	client    openai.Client
	model     string
	prompt    string
	maxTokens int64
	apiKey    string
}

type options struct {
	apiKey      string
	baseURL     string
	model       string
	prompt      string
	maxTokens   int64
	httpClient  *http.Client
	requestOpts []openaiopt.RequestOption
}

// Option configures the backend.
type Option func(*options)

// WithAPIKey sets the API key. Defaults to OPENAI_API_KEY.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL sets the API base URL. Defaults to OPENAI_BASE_URL.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithModel sets the model name.
func WithModel(name string) Option {
	return func(o *options) { o.model = name }
}

// WithPrompt sets the instruction sent with every image.
func WithPrompt(prompt string) Option {
	return func(o *options) { o.prompt = prompt }
}

// WithMaxTokens limits the caption length.
func WithMaxTokens(n int64) Option {
	return func(o *options) { o.maxTokens = n }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithRequestOptions appends raw openai-go request options.
func WithRequestOptions(opts ...openaiopt.RequestOption) Option {
	return func(o *options) { o.requestOpts = append(o.requestOpts, opts...) }
}

// New creates an OpenAI backend.
func New(opt ...Option) *Backend {
	o := options{
		model:     defaultModel,
		prompt:    captioner.DefaultPrompt,
		maxTokens: defaultMaxTokens,
	}
	for _, apply := range opt {
		apply(&o)
	}
	if val, ok := os.LookupEnv(apiKeyEnv); ok && o.apiKey == "" {
		o.apiKey = val
	}
	if val, ok := os.LookupEnv(baseURLEnv); ok && o.baseURL == "" {
		o.baseURL = val
	}

	var clientOpts []openaiopt.RequestOption
	if o.apiKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(o.apiKey))
	}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(o.baseURL))
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, openaiopt.WithHTTPClient(o.httpClient))
	}
	clientOpts = append(clientOpts, o.requestOpts...)

	return &Backend{
		client:    openai.NewClient(clientOpts...),
		model:     o.model,
		prompt:    o.prompt,
		maxTokens: o.maxTokens,
		apiKey:    o.apiKey,
	}
}

// Name implements captioner.Backend.
func (b *Backend) Name() string {
	return "openai/" + b.model
}

// Load checks the configuration. The API has no model to load.
func (b *Backend) Load(ctx context.Context) error {
	if b.model == "" {
		return errors.New("model name is empty")
	}
	if b.apiKey == "" {
		return errors.New("api key is empty")
	}
	return nil
}

// Caption sends the prompt and the image as a data URL and returns the reply.
func (b *Backend) Caption(ctx context.Context, img captioner.Image) (string, error) {
	parts := []openai.ChatCompletionContentPartUnionParam{
		{
			OfText: &openai.ChatCompletionContentPartTextParam{Text: b.prompt},
		},
		{
			OfImageURL: &openai.ChatCompletionContentPartImageParam{
				ImageURL: openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL(img),
				},
			},
		},
	}
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
	}
	if b.maxTokens > 0 {
		req.MaxCompletionTokens = openai.Int(b.maxTokens)
	}
	resp, err := b.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func dataURL(img captioner.Image) string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
