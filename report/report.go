//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package report renders evaluation results as Markdown, HTML or PDF.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"trpc.group/trpc-go/trpc-caption-go/evaluation"
)

// metricOrder lists the well-known metrics in display order. Other metrics
// follow in alphabetical order.
var metricOrder = func() map[string]int {
	names := []string{"BLEU-1", "BLEU-2", "BLEU-3", "BLEU-4"}
	for _, r := range []string{"ROUGE-1", "ROUGE-2", "ROUGE-L", "ROUGE-Lsum"} {
		names = append(names, r+"-P", r+"-R", r+"-F")
	}
	names = append(names, "CIDEr")
	order := make(map[string]int, len(names))
	for i, n := range names {
		order[n] = i
	}
	return order
}()

// Row is one metric line of a report.
type Row struct {
	Metric string
	Score  float64
}

// Rows returns the scores of r in display order.
func Rows(r *evaluation.Result) []Row {
	rows := make([]Row, 0, len(r.Scores))
	for name, score := range r.Scores {
		rows = append(rows, Row{Metric: name, Score: score})
	}
	sort.Slice(rows, func(i, j int) bool {
		oi, iKnown := metricOrder[rows[i].Metric]
		oj, jKnown := metricOrder[rows[j].Metric]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown != jKnown:
			return iKnown
		}
		return rows[i].Metric < rows[j].Metric
	})
	return rows
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func summary(m evaluation.Mismatch) string {
	return fmt.Sprintf("Images evaluated: %d of %d groundtruth and %d predicted (%d groundtruth only, %d prediction only).",
		m.Common, m.Groundtruth, m.Predictions, m.OnlyGroundtruth, m.OnlyPrediction)
}

// Markdown renders r as a Markdown document with a score table.
func Markdown(title string, r *evaluation.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if len(r.Scores) == 0 {
		b.WriteString("No common image id between groundtruth and predictions.\n\n")
	} else {
		b.WriteString("| Metric | Score |\n| --- | ---: |\n")
		for _, row := range Rows(r) {
			fmt.Fprintf(&b, "| %s | %s |\n", row.Metric, formatScore(row.Score))
		}
		b.WriteString("\n")
	}
	b.WriteString(summary(r.Mismatch))
	b.WriteString("\n")
	return b.String()
}

// HTML renders the Markdown report to an HTML fragment.
func HTML(title string, r *evaluation.Result) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(title, r)), &buf); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

// Write renders r into path, choosing the format from the file extension:
// .md, .html or .pdf.
func Write(path, title string, r *evaluation.Result, opt ...PDFOption) error {
	var data []byte
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".md", ".markdown":
		data = []byte(Markdown(title, r))
	case ".html", ".htm":
		var err error
		if data, err = HTML(title, r); err != nil {
			return err
		}
	case ".pdf":
		var buf bytes.Buffer
		if err := PDF(&buf, title, r, opt...); err != nil {
			return err
		}
		data = buf.Bytes()
	default:
		return fmt.Errorf("unsupported report format %q", ext)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
