//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-caption-go/evaluation"
)

var sample = &evaluation.Result{
	Scores: map[string]float64{
		"CIDEr":     87.25,
		"BLEU-4":    31.5,
		"BLEU-1":    70.125,
		"ROUGE-L-F": 52,
		"METEOR":    20,
	},
	Mismatch: evaluation.Mismatch{Groundtruth: 3, Predictions: 2, Common: 2, OnlyGroundtruth: 1},
}

func TestRows(t *testing.T) {
	var names []string
	for _, r := range Rows(sample) {
		names = append(names, r.Metric)
	}
	assert.Equal(t, []string{"BLEU-1", "BLEU-4", "ROUGE-L-F", "CIDEr", "METEOR"}, names)
}

func TestMarkdown(t *testing.T) {
	md := Markdown("Kết quả", sample)
	assert.True(t, strings.HasPrefix(md, "# Kết quả\n"))
	assert.Contains(t, md, "| BLEU-4 | 31.5000 |")
	assert.Contains(t, md, "| CIDEr | 87.2500 |")
	assert.Contains(t, md, "2 of 3 groundtruth")
	assert.Less(t, strings.Index(md, "BLEU-1"), strings.Index(md, "BLEU-4"))

	empty := Markdown("none", &evaluation.Result{Scores: map[string]float64{}})
	assert.Contains(t, empty, "No common image id")
	assert.NotContains(t, empty, "| Metric |")
}

func TestHTML(t *testing.T) {
	html, err := HTML("Report", sample)
	require.NoError(t, err)
	s := string(html)
	assert.Contains(t, s, "<h1>Report</h1>")
	assert.Contains(t, s, "<table>")
	assert.Contains(t, s, "<td>BLEU-1</td>")
}

func TestPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PDF(&buf, "Caption report", sample))
	data := buf.Bytes()
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Equal(t, 1, r.NumPage())
	text, err := r.Page(1).GetPlainText(nil)
	require.NoError(t, err)
	assert.Contains(t, text, "Caption report")
	assert.Contains(t, text, "BLEU-4")
	assert.Contains(t, text, "87.2500")
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"r.md", "r.html", "nested/r.pdf"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Write(path, "Report", sample), name)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.Error(t, Write(filepath.Join(dir, "r.docx"), "Report", sample))
}
