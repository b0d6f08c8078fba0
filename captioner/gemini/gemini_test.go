//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"trpc.group/trpc-go/trpc-caption-go/captioner"
)

type fakeModels struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	reply    string
	err      error
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content,
	config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(f.reply, genai.Role(genai.RoleModel)),
		}},
	}, nil
}

func TestCaption(t *testing.T) {
	fake := &fakeModels{reply: " Hai con mèo nằm ngủ. "}
	b := New(WithAPIKey("k"), WithModel("gemini-test"), WithPrompt("mô tả"))
	b.models = fake
	require.NoError(t, b.Load(context.Background()))
	assert.Equal(t, "gemini/gemini-test", b.Name())

	caption, err := b.Caption(context.Background(), captioner.Image{Data: []byte("img"), MIMEType: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, "Hai con mèo nằm ngủ.", caption)

	assert.Equal(t, "gemini-test", fake.model)
	assert.Equal(t, int32(defaultMaxTokens), fake.config.MaxOutputTokens)
	require.Len(t, fake.contents, 1)
	parts := fake.contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "mô tả", parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, []byte("img"), parts[1].InlineData.Data)
	assert.Equal(t, "image/jpeg", parts[1].InlineData.MIMEType)
}

func TestCaptionErrors(t *testing.T) {
	b := New(WithAPIKey("k"))
	_, err := b.Caption(context.Background(), captioner.Image{})
	assert.ErrorIs(t, err, captioner.ErrNotReady)

	b.models = &fakeModels{err: errors.New("quota")}
	_, err = b.Caption(context.Background(), captioner.Image{})
	assert.EqualError(t, err, "quota")

	b.models = &fakeModels{reply: "  "}
	_, err = b.Caption(context.Background(), captioner.Image{})
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	assert.Error(t, New(WithModel("")).Load(context.Background()))

	b := New(WithAPIKey("k"), WithBaseURL("http://127.0.0.1:1/"))
	require.NoError(t, b.Load(context.Background()))
	assert.NotNil(t, b.models)
}

func TestNewReadsEnv(t *testing.T) {
	t.Setenv(apiKeyEnv, "from-env")
	assert.Equal(t, "from-env", New().cfg.APIKey)
	assert.Equal(t, "explicit", New(WithAPIKey("explicit")).cfg.APIKey)
}
