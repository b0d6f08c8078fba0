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
	"context"
	"fmt"
	"strings"
)

// Sink persists assembled datasets under a name.
type Sink interface {
	// Save stores d under name, replacing any dataset already stored there.
	Save(ctx context.Context, name string, d *Dataset) error
	// Load returns the dataset stored under name, or an error wrapping ErrNotFound.
	Load(ctx context.Context, name string) (*Dataset, error)
}

// ValidateName checks that name can be used as a single path or key segment.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
