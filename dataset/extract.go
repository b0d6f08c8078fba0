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
	"fmt"
	"path/filepath"

	"trpc.group/trpc-go/trpc-caption-go/log"
)

// CaptionsPerImage is the annotation group size assumed when annotations carry no image_id.
const CaptionsPerImage = 5

// ExtractTrainVal builds records from a train/val annotation file.
//
// An image is identified by its explicit id or, failing that, by the number in its
// filename. An annotation belongs to its explicit image_id or, failing that, to the
// image at position index/CaptionsPerImage. Annotations pointing at unknown images
// are dropped. The caption id is the annotation's position in the file.
func ExtractTrainVal(file *AnnotationFile, imagesDir string) (Records, error) {
	if file == nil {
		return nil, fmt.Errorf("%w: nil annotation file", ErrDataShape)
	}
	filenames := make(map[int]string, len(file.Images))
	for i, img := range file.Images {
		id, err := imageID(img)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		filenames[id] = img.Filename
	}

	records := make(Records, 0, len(file.Annotations))
	warned := false
	for i, ann := range file.Annotations {
		var id int
		if ann.ImageID != nil {
			id = *ann.ImageID
		} else {
			if !warned {
				// Positional ownership is only correct when every image has exactly
				// CaptionsPerImage annotations listed in image order.
				log.Warnf("annotation %d has no image_id, assigning owners positionally in groups of %d",
					i, CaptionsPerImage)
				warned = true
			}
			pos := i / CaptionsPerImage
			if pos >= len(file.Images) {
				return nil, fmt.Errorf("%w: annotation %d maps to image index %d, only %d images",
					ErrDataShape, i, pos, len(file.Images))
			}
			var err error
			if id, err = imageID(file.Images[pos]); err != nil {
				return nil, fmt.Errorf("annotation %d: %w", i, err)
			}
		}
		filename, ok := filenames[id]
		if !ok {
			log.Debugf("annotation %d references unknown image %d, dropped", i, id)
			continue
		}
		records = append(records, Record{
			ImageID:   id,
			CaptionID: i,
			Caption:   ann.caption(),
			FileName:  filename,
			ImagePath: filepath.Join(imagesDir, filename),
		})
	}
	return records, nil
}

// ExtractTest builds records from a test annotation file, pairing annotation i
// with image i. The image id always comes from the filename. Images without a
// matching annotation are skipped.
func ExtractTest(file *AnnotationFile, imagesDir string) (Records, error) {
	if file == nil {
		return nil, fmt.Errorf("%w: nil annotation file", ErrDataShape)
	}
	n := min(len(file.Images), len(file.Annotations))
	records := make(Records, 0, n)
	for i := 0; i < n; i++ {
		img := file.Images[i]
		id, err := imageIDFromFilename(img.Filename)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		records = append(records, Record{
			ImageID:   id,
			CaptionID: i,
			Caption:   file.Annotations[i].caption(),
			FileName:  img.Filename,
			ImagePath: filepath.Join(imagesDir, img.Filename),
		})
	}
	if len(file.Images) > n {
		log.Debugf("%d test images have no annotation, skipped", len(file.Images)-n)
	}
	return records, nil
}
