//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package tcos stores datasets in Tencent Cloud Object Storage (COS).
//
// Each file of a dataset is one object named {prefix}/{name}/{file}.
//
// Credentials come from the TCOS_SECRETID and TCOS_SECRETKEY environment
// variables unless WithSecretID and WithSecretKey are given:
//
//	sink := tcos.New("https://bucket.cos.region.myqcloud.com", tcos.WithPrefix("datasets"))
package tcos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/tencentyun/cos-go-sdk-v5"

	"trpc.group/trpc-go/trpc-caption-go/dataset"
)

const defaultTimeout = 60 * time.Second

// Option configures the COS sink.
type Option func(*options)

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	secretID   string
	secretKey  string
	prefix     string
}

// WithHTTPClient sets the HTTP client used for COS requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithTimeout sets the timeout of every request.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithSecretID sets the COS secret id.
func WithSecretID(secretID string) Option {
	return func(o *options) {
		o.secretID = secretID
	}
}

// WithSecretKey sets the COS secret key.
func WithSecretKey(secretKey string) Option {
	return func(o *options) {
		o.secretKey = secretKey
	}
}

// WithPrefix sets the key prefix all datasets are stored under.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// Sink is a COS backed dataset sink.
type Sink struct {
	client *cos.Client
	prefix string
}

// New creates a COS sink for the bucket at bucketURL.
func New(bucketURL string, opts ...Option) (*Sink, error) {
	o := &options{
		timeout:   defaultTimeout,
		secretID:  os.Getenv("TCOS_SECRETID"),
		secretKey: os.Getenv("TCOS_SECRETKEY"),
	}
	for _, opt := range opts {
		opt(o)
	}
	u, err := url.Parse(bucketURL)
	if err != nil {
		return nil, fmt.Errorf("tcos: parse bucket url: %w", err)
	}

	httpClient := o.httpClient
	switch {
	case httpClient == nil:
		httpClient = &http.Client{
			Timeout: o.timeout,
			Transport: &cos.AuthorizationTransport{
				SecretID:  o.secretID,
				SecretKey: o.secretKey,
			},
		}
	case httpClient.Timeout == 0 && o.timeout > 0:
		// Copy so the caller's client is not modified.
		httpClient = &http.Client{Timeout: o.timeout, Transport: httpClient.Transport}
	}
	return &Sink{
		client: cos.NewClient(&cos.BaseURL{BucketURL: u}, httpClient),
		prefix: o.prefix,
	}, nil
}

// ObjectKey returns the key file of dataset name is stored at.
func (s *Sink) ObjectKey(name, file string) string {
	return path.Join(s.prefix, name, file)
}

// Save uploads every dataset file, the layout file last.
func (s *Sink) Save(ctx context.Context, name string, d *dataset.Dataset) error {
	if err := dataset.ValidateName(name); err != nil {
		return err
	}
	if d == nil {
		return errors.New("tcos: dataset is nil")
	}
	files, err := dataset.Files(d)
	if err != nil {
		return err
	}
	for _, split := range d.SplitNames() {
		if err := s.put(ctx, name, dataset.SplitFile(split), files[dataset.SplitFile(split)], "application/jsonl"); err != nil {
			return err
		}
	}
	return s.put(ctx, name, dataset.DictFile, files[dataset.DictFile], "application/json")
}

func (s *Sink) put(ctx context.Context, name, file string, data []byte, contentType string) error {
	opt := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
			ContentType: contentType,
		},
	}
	if _, err := s.client.Object.Put(ctx, s.ObjectKey(name, file), bytes.NewReader(data), opt); err != nil {
		return fmt.Errorf("tcos: upload %s: %w", s.ObjectKey(name, file), err)
	}
	return nil
}

// Load downloads the dataset stored under name.
func (s *Sink) Load(ctx context.Context, name string) (*dataset.Dataset, error) {
	if err := dataset.ValidateName(name); err != nil {
		return nil, err
	}
	return dataset.FromFiles(func(file string) ([]byte, error) {
		key := s.ObjectKey(name, file)
		resp, err := s.client.Object.Get(ctx, key, nil)
		if err != nil {
			if cos.IsNotFoundError(err) {
				return nil, fmt.Errorf("%w: %s", dataset.ErrNotFound, key)
			}
			return nil, fmt.Errorf("tcos: download %s: %w", key, err)
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("tcos: read %s: %w", key, err)
		}
		return data, nil
	})
}
