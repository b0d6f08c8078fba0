//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package captioner wraps an image captioning model behind an explicit
// Load/Ready lifecycle and runs batch inference over dataset records.
package captioner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"trpc.group/trpc-go/trpc-caption-go/dataset"
	itelemetry "trpc.group/trpc-go/trpc-caption-go/internal/telemetry"
	"trpc.group/trpc-go/trpc-caption-go/log"
)

// DefaultPrompt asks for a one-sentence Vietnamese caption.
const DefaultPrompt = "Hãy mô tả bức ảnh này bằng một câu tiếng Việt ngắn gọn."

// ErrNotReady is returned when a caption is requested before Load succeeded.
var ErrNotReady = errors.New("captioner: model not loaded")

// Image is the input of one captioning request.
type Image struct {
	Data     []byte
	MIMEType string
}

// Backend produces a caption for an image.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// Load prepares the backend. It is called once by Service.Load.
	Load(ctx context.Context) error
	// Caption returns the caption for img.
	Caption(ctx context.Context, img Image) (string, error)
}

// Service owns a Backend and tracks whether it is ready to serve.
type Service struct {
	backend Backend

	mu      sync.RWMutex
	ready   bool
	loadErr error
	once    sync.Once
}

// New creates a Service. Call Load before captioning.
func New(backend Backend) *Service {
	return &Service{backend: backend}
}

// Load loads the backend once. Later calls return the result of the first one.
func (s *Service) Load(ctx context.Context) error {
	if s.backend == nil {
		return errors.New("captioner: backend is nil")
	}
	s.once.Do(func() {
		err := s.backend.Load(ctx)
		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.loadErr = fmt.Errorf("load %s: %w", s.backend.Name(), err)
			return
		}
		s.ready = true
		log.Infof("captioner %s loaded", s.backend.Name())
	})
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Ready reports whether Load succeeded.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Backend returns the name of the wrapped backend.
func (s *Service) Backend() string {
	if s.backend == nil {
		return ""
	}
	return s.backend.Name()
}

// Caption reads the image of rec and returns the backend's caption for it.
func (s *Service) Caption(ctx context.Context, rec dataset.Record) (caption string, err error) {
	ctx, span := itelemetry.Tracer.Start(ctx, "captioner.caption")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.Int("caption.image_id", rec.ImageID))

	if !s.Ready() {
		return "", ErrNotReady
	}
	img, err := ReadImage(rec)
	if err != nil {
		return "", err
	}
	caption, err = s.backend.Caption(ctx, img)
	itelemetry.IncInferenceRequest(ctx, s.backend.Name(), err)
	if err != nil {
		return "", fmt.Errorf("caption image %d: %w", rec.ImageID, err)
	}
	return strings.TrimSpace(caption), nil
}

// ReadImage checks that the image of rec exists and reads it.
func ReadImage(rec dataset.Record) (Image, error) {
	if err := rec.CheckImage(); err != nil {
		return Image{}, err
	}
	data, err := os.ReadFile(rec.ImagePath)
	if err != nil {
		return Image{}, fmt.Errorf("read image %s: %w", rec.ImagePath, err)
	}
	return Image{Data: data, MIMEType: mimeType(rec.ImagePath, data)}, nil
}

func mimeType(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	}
	return http.DetectContentType(data)
}
