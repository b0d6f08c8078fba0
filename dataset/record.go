//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package dataset builds the caption training dataset: it extracts caption
// records from annotation files, shuffles the training split so that captions
// of one image are spread out, and persists the result through a Sink.
package dataset

import (
	"errors"
	"fmt"
	"os"
)

// Split names.
const (
	SplitTrain = "train"
	SplitTest  = "test"
)

var (
	// ErrDataShape is returned when an annotation file does not have the expected structure.
	ErrDataShape = errors.New("dataset: unexpected annotation data shape")

	// ErrInvalidFilename is returned when an image id cannot be parsed from a filename.
	ErrInvalidFilename = errors.New("dataset: image filename is not numeric")

	// ErrUnknownSplit is returned when a split name is neither train nor test.
	ErrUnknownSplit = errors.New("dataset: unknown split")

	// ErrNotFound is returned by sinks when no dataset is stored under a name.
	ErrNotFound = errors.New("dataset: not found")

	// ErrInvalidName is returned when a dataset name is empty or contains a path separator.
	ErrInvalidName = errors.New("dataset: invalid dataset name")
)

// Record is one caption of one image.
type Record struct {
	ImageID   int    `json:"image_id"`
	CaptionID int    `json:"caption_id"`
	Caption   string `json:"caption"`
	FileName  string `json:"file_name"`
	ImagePath string `json:"image_path"`
}

// CheckImage reports whether the record's image file exists and is a regular file.
// Extraction never touches the file system; consumers call this before reading pixels.
func (r Record) CheckImage() error {
	info, err := os.Stat(r.ImagePath)
	if err != nil {
		return fmt.Errorf("image %d: %w", r.ImageID, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("image %d: %s is not a regular file", r.ImageID, r.ImagePath)
	}
	return nil
}

// Records is an ordered sequence of caption records.
type Records []Record

// ImageIDs returns the distinct image ids in first-seen order.
func (rs Records) ImageIDs() []int {
	seen := make(map[int]struct{}, len(rs))
	ids := make([]int, 0)
	for _, r := range rs {
		if _, ok := seen[r.ImageID]; ok {
			continue
		}
		seen[r.ImageID] = struct{}{}
		ids = append(ids, r.ImageID)
	}
	return ids
}

// GroupByImage returns the records of each image, keyed by image id, keeping input order.
func (rs Records) GroupByImage() map[int]Records {
	groups := make(map[int]Records)
	for _, r := range rs {
		groups[r.ImageID] = append(groups[r.ImageID], r)
	}
	return groups
}
