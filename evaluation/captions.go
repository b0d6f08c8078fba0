//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package evaluation aligns groundtruth and predicted captions by image id and
// scores the aligned corpus with BLEU, ROUGE and CIDEr.
package evaluation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// ErrInvalidFormat is returned for caption files or maps that are not an object of
// image id to a caption string or a list of caption strings.
var ErrInvalidFormat = errors.New("invalid caption format")

// Captions maps an image id to its captions. Groundtruth holds the references
// and predictions hold one or more candidates per image.
type Captions map[string][]string

// UnmarshalJSON accepts a JSON object whose values are either a string or a list
// of strings. A bare string becomes a one-element list.
func (c *Captions) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: top level is not an object", ErrInvalidFormat)
	}
	out := make(Captions, len(raw))
	for id, value := range raw {
		value = bytes.TrimSpace(value)
		if len(value) == 0 {
			return fmt.Errorf("%w: image %q has no value", ErrInvalidFormat, id)
		}
		switch value[0] {
		case '"':
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return fmt.Errorf("%w: image %q: %v", ErrInvalidFormat, id, err)
			}
			out[id] = []string{s}
		case '[':
			var list []string
			if err := json.Unmarshal(value, &list); err != nil {
				return fmt.Errorf("%w: image %q: %v", ErrInvalidFormat, id, err)
			}
			out[id] = list
		default:
			return fmt.Errorf("%w: image %q is neither a string nor a list", ErrInvalidFormat, id)
		}
	}
	*c = out
	return nil
}

// Validate reports every empty id and every id without captions.
func (c Captions) Validate() error {
	var result *multierror.Error
	for _, id := range c.IDs() {
		if id == "" {
			result = multierror.Append(result, fmt.Errorf("%w: empty image id", ErrInvalidFormat))
			continue
		}
		if len(c[id]) == 0 {
			result = multierror.Append(result, fmt.Errorf("%w: image %q has no captions", ErrInvalidFormat, id))
		}
	}
	return result.ErrorOrNil()
}

// IDs returns the image ids in sorted order.
func (c Captions) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadCaptions reads a caption file.
func LoadCaptions(path string) (Captions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read captions %s: %w", path, err)
	}
	var c Captions
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse captions %s: %w", path, err)
	}
	return c, nil
}

// LoadGroundtruthIDs returns the image ids of a groundtruth file in file order.
func LoadGroundtruthIDs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read groundtruth %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: top level is not an object", ErrInvalidFormat)
	}
	var ids []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		ids = append(ids, tok.(string))
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	}
	return ids, nil
}

// SavePredictions writes predictions as a JSON object of image id to caption,
// keeping the order of ids. When ids is nil they are read from groundtruthPath,
// and when that is empty too the prediction index is used as id.
func SavePredictions(predictions, ids []string, path, groundtruthPath string) error {
	if ids == nil {
		if groundtruthPath != "" {
			var err error
			if ids, err = LoadGroundtruthIDs(groundtruthPath); err != nil {
				return err
			}
		} else {
			ids = make([]string, len(predictions))
			for i := range predictions {
				ids[i] = strconv.Itoa(i)
			}
		}
	}
	if len(ids) != len(predictions) {
		return fmt.Errorf("got %d predictions for %d image ids", len(predictions), len(ids))
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, id := range ids {
		key, err := marshalNoEscape(id)
		if err != nil {
			return err
		}
		value, err := marshalNoEscape(predictions[i])
		if err != nil {
			return err
		}
		fmt.Fprintf(&buf, "  %s: %s", key, value)
		if i < len(ids)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return writeFileAtomic(path, buf.Bytes())
}

func marshalNoEscape(v string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func writeFileAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
