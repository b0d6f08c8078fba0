//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package s3 stores datasets in Amazon S3 or any S3-compatible object store
// (MinIO, R2, COS S3 endpoint). Each file is one object named {prefix}/{name}/{file}.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"trpc.group/trpc-go/trpc-caption-go/dataset"
)

var (
	// ErrBucketNotFound is returned when the bucket does not exist.
	ErrBucketNotFound = errors.New("s3: bucket not found")

	// ErrAccessDenied is returned when the credentials lack permission.
	ErrAccessDenied = errors.New("s3: access denied")
)

// api is the subset of the S3 client the sink needs.
type api interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Option configures the S3 sink.
type Option func(*options)

type options struct {
	region          string
	endpoint        string
	accessKeyID     string
	secretAccessKey string
	sessionToken    string
	usePathStyle    bool
	maxRetries      int
	prefix          string
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithEndpoint sets a custom endpoint for S3-compatible services,
// e.g. "http://localhost:9000" for MinIO.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// WithCredentials sets static credentials. Without them the default AWS
// credential chain is used.
func WithCredentials(accessKeyID, secretAccessKey string) Option {
	return func(o *options) {
		o.accessKeyID = accessKeyID
		o.secretAccessKey = secretAccessKey
	}
}

// WithSessionToken sets the session token for temporary credentials.
func WithSessionToken(token string) Option {
	return func(o *options) {
		o.sessionToken = token
	}
}

// WithPathStyle enables path-style addressing, required by MinIO.
func WithPathStyle(enabled bool) Option {
	return func(o *options) {
		o.usePathStyle = enabled
	}
}

// WithRetries sets the maximum number of attempts per request.
func WithRetries(n int) Option {
	return func(o *options) {
		o.maxRetries = n
	}
}

// WithPrefix sets the key prefix all datasets are stored under.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// Sink is an S3 backed dataset sink.
type Sink struct {
	client api
	bucket string
	prefix string
}

// New creates an S3 sink for bucket.
func New(ctx context.Context, bucket string, opts ...Option) (*Sink, error) {
	if bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	var awsOpts []func(*config.LoadOptions) error
	if o.region != "" {
		awsOpts = append(awsOpts, config.WithRegion(o.region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if o.endpoint != "" {
		s3Opts = append(s3Opts, func(so *s3.Options) {
			so.BaseEndpoint = aws.String(o.endpoint)
		})
	}
	if o.usePathStyle {
		s3Opts = append(s3Opts, func(so *s3.Options) {
			so.UsePathStyle = true
		})
	}
	if o.accessKeyID != "" && o.secretAccessKey != "" {
		s3Opts = append(s3Opts, func(so *s3.Options) {
			so.Credentials = credentials.NewStaticCredentialsProvider(
				o.accessKeyID, o.secretAccessKey, o.sessionToken)
		})
	}
	if o.maxRetries > 0 {
		s3Opts = append(s3Opts, func(so *s3.Options) {
			so.RetryMaxAttempts = o.maxRetries
		})
	}
	return &Sink{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: bucket,
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
		return errors.New("s3: dataset is nil")
	}
	files, err := dataset.Files(d)
	if err != nil {
		return err
	}
	for _, split := range d.SplitNames() {
		file := dataset.SplitFile(split)
		if err := s.put(ctx, s.ObjectKey(name, file), files[file], "application/jsonl"); err != nil {
			return err
		}
	}
	return s.put(ctx, s.ObjectKey(name, dataset.DictFile), files[dataset.DictFile], "application/json")
}

func (s *Sink) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3: upload %s: %w", key, wrapError(err))
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
		resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("s3: download %s: %w", key, wrapError(err))
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("s3: read %s: %w", key, err)
		}
		return data, nil
	})
}

// wrapError maps AWS SDK errors to sentinel errors, keeping the original for diagnostics.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return errors.Join(dataset.ErrNotFound, err)
	}
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return errors.Join(ErrBucketNotFound, err)
	}
	var apiErr interface{ ErrorCode() string }
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "AccessDeniedException":
			return errors.Join(ErrAccessDenied, err)
		case "NoSuchKey", "NotFound":
			return errors.Join(dataset.ErrNotFound, err)
		case "NoSuchBucket":
			return errors.Join(ErrBucketNotFound, err)
		}
	}
	return err
}
