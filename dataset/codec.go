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
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DictFile is the name of the layout file written next to the split files.
const DictFile = "dataset_dict.json"

// Layout describes a stored dataset.
type Layout struct {
	Splits      []string       `json:"splits"`
	NumRows     map[string]int `json:"num_rows"`
	Fingerprint string         `json:"fingerprint"`
	CreatedAt   time.Time      `json:"created_at"`
}

// SplitFile returns the file name that stores split.
func SplitFile(split string) string {
	return split + ".jsonl"
}

// Files encodes d into the files that make up a stored dataset: the layout file
// plus one JSON-lines file per split.
func Files(d *Dataset) (map[string][]byte, error) {
	layout := Layout{
		Splits:      d.SplitNames(),
		NumRows:     d.NumRows(),
		Fingerprint: uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
	}
	files := make(map[string][]byte, len(layout.Splits)+1)
	for _, split := range layout.Splits {
		records, err := d.Split(split)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return nil, fmt.Errorf("encode %s record %d: %w", split, r.CaptionID, err)
			}
		}
		files[SplitFile(split)] = buf.Bytes()
	}
	dict, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	files[DictFile] = dict
	return files, nil
}

// FromFiles decodes a dataset stored by Files. read returns the content of one file.
func FromFiles(read func(name string) ([]byte, error)) (*Dataset, error) {
	data, err := read(DictFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", DictFile, err)
	}
	var layout Layout
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("decode %s: %w", DictFile, err)
	}
	d := &Dataset{}
	for _, split := range layout.Splits {
		content, err := read(SplitFile(split))
		if err != nil {
			return nil, fmt.Errorf("read split %s: %w", split, err)
		}
		records, err := decodeRecords(content)
		if err != nil {
			return nil, fmt.Errorf("decode split %s: %w", split, err)
		}
		if want, ok := layout.NumRows[split]; ok && want != len(records) {
			return nil, fmt.Errorf("split %s has %d rows, layout says %d", split, len(records), want)
		}
		switch split {
		case SplitTrain:
			d.Train = records
		case SplitTest:
			d.Test = records
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownSplit, split)
		}
	}
	return d, nil
}

func decodeRecords(content []byte) (Records, error) {
	records := Records{}
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
