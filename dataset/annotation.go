//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AnnotationFile is the raw content of a train/val or test annotation file.
type AnnotationFile struct {
	Images      []Image      `json:"images"`
	Annotations []Annotation `json:"annotations"`
}

// Image is one entry of the "images" list.
type Image struct {
	ID       *int   `json:"id,omitempty"`
	Filename string `json:"filename"`
}

// Annotation is one entry of the "annotations" list.
type Annotation struct {
	ImageID        *int    `json:"image_id,omitempty"`
	SegmentCaption *string `json:"segment_caption,omitempty"`
}

// caption returns the segment caption, or "" when it is absent.
func (a Annotation) caption() string {
	if a.SegmentCaption == nil {
		return ""
	}
	return *a.SegmentCaption
}

// LoadAnnotations reads and parses an annotation file.
func LoadAnnotations(path string) (*AnnotationFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read annotations %s: %w", path, err)
	}
	file, err := ParseAnnotations(data)
	if err != nil {
		return nil, fmt.Errorf("parse annotations %s: %w", path, err)
	}
	return file, nil
}

// ParseAnnotations decodes annotation JSON. Both the "images" and the
// "annotations" keys must be present.
func ParseAnnotations(data []byte) (*AnnotationFile, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataShape, err)
	}
	file := &AnnotationFile{}
	for _, field := range []struct {
		key string
		dst any
	}{
		{"images", &file.Images},
		{"annotations", &file.Annotations},
	} {
		msg, ok := raw[field.key]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrDataShape, field.key)
		}
		if err := json.Unmarshal(msg, field.dst); err != nil {
			return nil, fmt.Errorf("%w: decode %q: %v", ErrDataShape, field.key, err)
		}
	}
	return file, nil
}

// imageIDFromFilename parses the integer image id from a filename such as "00012.jpg".
func imageIDFromFilename(filename string) (int, error) {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	id, err := strconv.Atoi(stem)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	return id, nil
}

// imageID returns the explicit id of img, falling back to its filename.
func imageID(img Image) (int, error) {
	if img.ID != nil {
		return *img.ID, nil
	}
	return imageIDFromFilename(img.Filename)
}
