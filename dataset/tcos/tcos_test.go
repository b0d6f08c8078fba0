//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package tcos

import (
	"context"
	"hash/crc64"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-caption-go/dataset"
)

// fakeBucket is a minimal COS object endpoint keeping objects in memory.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	order   []string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")
	b.mu.Lock()
	defer b.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		b.objects[key] = data
		b.order = append(b.order, key)
		// The SDK verifies uploads against this checksum by default.
		w.Header().Set("x-cos-hash-crc64ecma", strconv.FormatUint(crc64.Checksum(data, crc64.MakeTable(crc64.ECMA)), 10))
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := b.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(data)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestSink(t *testing.T) (*Sink, *fakeBucket) {
	t.Helper()
	bucket := &fakeBucket{objects: map[string][]byte{}}
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)
	sink, err := New(srv.URL, WithHTTPClient(srv.Client()), WithPrefix("datasets"))
	require.NoError(t, err)
	return sink, bucket
}

func TestSaveLoad(t *testing.T) {
	sink, bucket := newTestSink(t)
	ctx := context.Background()
	d := dataset.Assemble(
		dataset.Records{{ImageID: 1, CaptionID: 0, Caption: "con chó", FileName: "1.jpg"}},
		dataset.Records{{ImageID: 2, CaptionID: 0, Caption: "con mèo", FileName: "2.jpg"}},
	)
	require.NoError(t, sink.Save(ctx, "viic", d))
	assert.Equal(t, []string{
		"datasets/viic/train.jsonl",
		"datasets/viic/test.jsonl",
		"datasets/viic/dataset_dict.json",
	}, bucket.order)

	got, err := sink.Load(ctx, "viic")
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestLoadMissing(t *testing.T) {
	sink, _ := newTestSink(t)
	_, err := sink.Load(context.Background(), "none")
	assert.ErrorIs(t, err, dataset.ErrNotFound)
}

func TestObjectKey(t *testing.T) {
	sink, err := New("https://bucket.cos.ap-guangzhou.myqcloud.com")
	require.NoError(t, err)
	assert.Equal(t, "ds/train.jsonl", sink.ObjectKey("ds", "train.jsonl"))
	assert.ErrorIs(t, sink.Save(context.Background(), "a/b", &dataset.Dataset{}), dataset.ErrInvalidName)
}
