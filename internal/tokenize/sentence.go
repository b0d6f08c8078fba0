//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package tokenize

import (
	"fmt"
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	sentencesdata "github.com/neurosnap/sentences/data"
)

var (
	sentenceTokenizerOnce sync.Once
	sentenceTokenizer     *sentences.DefaultSentenceTokenizer
	sentenceTokenizerErr  error
)

// Sentences splits text into trimmed, non-empty sentences using the Punkt model.
// Vietnamese captions use Latin sentence punctuation, so the English Punkt
// parameters split them correctly; abbreviations unknown to the model only cause
// under-splitting.
func Sentences(text string) ([]string, error) {
	sentenceTokenizerOnce.Do(func() {
		b, err := sentencesdata.Asset("data/english.json")
		if err != nil {
			sentenceTokenizerErr = fmt.Errorf("load punkt data: %w", err)
			return
		}
		training, err := sentences.LoadTraining(b)
		if err != nil {
			sentenceTokenizerErr = fmt.Errorf("parse punkt data: %w", err)
			return
		}
		sentenceTokenizer = sentences.NewSentenceTokenizer(training)
	})
	if sentenceTokenizerErr != nil {
		return nil, sentenceTokenizerErr
	}
	raw := sentenceTokenizer.Tokenize(text)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		trimmed := strings.TrimSpace(s.Text)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out, nil
}

// JoinSentences returns text with one sentence per line, the layout expected by
// summary-level ROUGE-L.
func JoinSentences(text string) (string, error) {
	sents, err := Sentences(strings.TrimSpace(text))
	if err != nil {
		return "", err
	}
	return strings.Join(sents, "\n"), nil
}
