//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openaiopt "github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-caption-go/captioner"
)

func newServer(t *testing.T, status int, reply string, got *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if got != nil {
			require.NoError(t, json.Unmarshal(body, got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const completion = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1742553000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop",
    "message": {"role": "assistant", "content": "Một con chó đang chạy trên bãi cỏ."}}]
}`

func TestCaption(t *testing.T) {
	var req map[string]any
	srv := newServer(t, http.StatusOK, completion, &req)
	b := New(WithAPIKey("test-key"), WithBaseURL(srv.URL+"/"), WithModel("gpt-4o-mini"), WithPrompt("mô tả"),
		WithRequestOptions(openaiopt.WithMaxRetries(0)))
	require.NoError(t, b.Load(context.Background()))
	assert.Equal(t, "openai/gpt-4o-mini", b.Name())

	caption, err := b.Caption(context.Background(), captioner.Image{Data: []byte("abc"), MIMEType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "Một con chó đang chạy trên bãi cỏ.", caption)

	assert.Equal(t, "gpt-4o-mini", req["model"])
	assert.EqualValues(t, defaultMaxTokens, req["max_completion_tokens"])
	messages := req["messages"].([]any)
	require.Len(t, messages, 1)
	content := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "mô tả", content[0].(map[string]any)["text"])
	image := content[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, "data:image/png;base64,YWJj", image["url"])
}

func TestCaptionAPIError(t *testing.T) {
	srv := newServer(t, http.StatusInternalServerError, `{"error": {"message": "boom"}}`, nil)
	b := New(WithAPIKey("test-key"), WithBaseURL(srv.URL+"/"), WithRequestOptions(openaiopt.WithMaxRetries(0)))
	_, err := b.Caption(context.Background(), captioner.Image{Data: []byte("x"), MIMEType: "image/jpeg"})
	assert.Error(t, err)
}

func TestCaptionNoChoices(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"id": "x", "object": "chat.completion", "choices": []}`, nil)
	b := New(WithAPIKey("test-key"), WithBaseURL(srv.URL+"/"), WithRequestOptions(openaiopt.WithMaxRetries(0)))
	_, err := b.Caption(context.Background(), captioner.Image{Data: []byte("x"), MIMEType: "image/jpeg"})
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Setenv(apiKeyEnv, "")
	assert.Error(t, New(WithAPIKey("")).Load(context.Background()))
	assert.Error(t, New(WithAPIKey("k"), WithModel("")).Load(context.Background()))

	t.Setenv(apiKeyEnv, "from-env")
	assert.NoError(t, New().Load(context.Background()))
}
