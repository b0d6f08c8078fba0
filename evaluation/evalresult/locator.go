//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package evalresult

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// defaultResultFileSuffix is the default suffix for result files.
const defaultResultFileSuffix = ".eval_result.json"

// Locator provides Build and List methods for locating result files.
type Locator interface {
	// Build builds the path of the result file for id.
	Build(baseDir, id string) string
	// List lists all result ids under baseDir.
	List(baseDir string) ([]string, error)
}

// locator is the default Locator implementation.
type locator struct{}

// Build builds the path of a result file.
func (l *locator) Build(baseDir, id string) string {
	return filepath.Join(baseDir, id+defaultResultFileSuffix)
}

// List lists all result ids in baseDir, sorted.
func (l *locator) List(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	results := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), defaultResultFileSuffix) {
			results = append(results, strings.TrimSuffix(entry.Name(), defaultResultFileSuffix))
		}
	}
	sort.Strings(results)
	return results, nil
}
