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
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"trpc.group/trpc-go/trpc-caption-go/evaluation"
)

type pdfOptions struct {
	fontFamily string
	fontFile   string
}

// PDFOption configures PDF rendering.
type PDFOption func(*pdfOptions)

// WithUTF8Font embeds a TrueType font so that Vietnamese titles render. The
// built-in Helvetica only covers cp1252.
func WithUTF8Font(family, file string) PDFOption {
	return func(o *pdfOptions) {
		o.fontFamily = family
		o.fontFile = file
	}
}

// PDF renders r as a single page A4 document.
func PDF(w io.Writer, title string, r *evaluation.Result, opt ...PDFOption) error {
	opts := &pdfOptions{fontFamily: "Helvetica"}
	for _, o := range opt {
		o(opts)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := func(s string) string { return s }
	if opts.fontFile != "" {
		pdf.AddUTF8Font(opts.fontFamily, "", opts.fontFile)
		pdf.AddUTF8Font(opts.fontFamily, "B", opts.fontFile)
	} else {
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.AddPage()

	pdf.SetFont(opts.fontFamily, "B", 16)
	pdf.CellFormat(0, 12, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(r.Scores) == 0 {
		pdf.SetFont(opts.fontFamily, "", 11)
		pdf.CellFormat(0, 8, "No common image id between groundtruth and predictions.", "", 1, "L", false, 0, "")
	} else {
		pdf.SetFont(opts.fontFamily, "B", 11)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(60, 8, "Metric", "1", 0, "L", true, 0, "")
		pdf.CellFormat(40, 8, "Score", "1", 1, "R", true, 0, "")
		pdf.SetFont(opts.fontFamily, "", 11)
		for _, row := range Rows(r) {
			pdf.CellFormat(60, 7, row.Metric, "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 7, formatScore(row.Score), "1", 1, "R", false, 0, "")
		}
	}
	pdf.Ln(4)
	pdf.SetFont(opts.fontFamily, "", 10)
	pdf.MultiCell(0, 6, summary(r.Mismatch), "", "L", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
