//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package rouge

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"trpc.group/trpc-go/trpc-caption-go/internal/tokenize"
)

// Compute returns ROUGE scores for a single target and prediction pair.
func Compute(ctx context.Context, target, prediction string, opt ...Option) (map[string]Score, error) {
	return compute(ctx, target, prediction, newOptions(opt...))
}

func compute(ctx context.Context, target, prediction string, opts *options) (map[string]Score, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, rougeType := range opts.rougeTypes {
		if err := validateRougeType(rougeType); err != nil {
			return nil, err
		}
	}

	result := make(map[string]Score, len(opts.rougeTypes))
	onlyRougeLsum := len(opts.rougeTypes) == 1 && opts.rougeTypes[0] == RougeLsum
	var targetTokens, predTokens []string
	if !onlyRougeLsum {
		targetTokens = opts.tokenizer.Tokenize(target)
		predTokens = opts.tokenizer.Tokenize(prediction)
	}

	for _, rougeType := range opts.rougeTypes {
		switch rougeType {
		case RougeL:
			result[rougeType] = scoreLCS(targetTokens, predTokens)
		case RougeLsum:
			score, err := scoreSummaryLCS(target, prediction, opts.tokenizer, opts.splitSummaries)
			if err != nil {
				return nil, err
			}
			result[rougeType] = score
		default:
			n, err := parseRougeN(rougeType)
			if err != nil {
				return nil, err
			}
			result[rougeType] = scoreNGrams(targetTokens, predTokens, n)
		}
	}
	return result, nil
}

// ComputeMulti scores prediction against every target and keeps, per ROUGE type,
// the score of the target with the highest F-measure.
func ComputeMulti(ctx context.Context, targets []string, prediction string, opt ...Option) (map[string]Score, error) {
	return computeMulti(ctx, targets, prediction, newOptions(opt...))
}

func computeMulti(ctx context.Context, targets []string, prediction string, opts *options) (map[string]Score, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("targets are empty")
	}
	best := make(map[string]Score, len(opts.rougeTypes))
	for i, target := range targets {
		scores, err := compute(ctx, target, prediction, opts)
		if err != nil {
			return nil, err
		}
		for k, v := range scores {
			if i == 0 || v.FMeasure > best[k].FMeasure {
				best[k] = v
			}
		}
	}
	return best, nil
}

// Corpus scores every candidate of every image against that image's references
// with ComputeMulti and returns the mean precision, recall and F-measure per
// ROUGE type over all candidates.
func Corpus(ctx context.Context, references, candidates [][]string, opt ...Option) (map[string]Score, error) {
	if len(references) != len(candidates) {
		return nil, fmt.Errorf("got %d reference sets for %d candidate sets", len(references), len(candidates))
	}
	opts := newOptions(opt...)
	sum := make(map[string]Score, len(opts.rougeTypes))
	for _, rougeType := range opts.rougeTypes {
		sum[rougeType] = Score{}
	}
	count := 0
	for i, cands := range candidates {
		for _, candidate := range cands {
			scores, err := computeMulti(ctx, references[i], candidate, opts)
			if err != nil {
				return nil, fmt.Errorf("image %d: %w", i, err)
			}
			for k, v := range scores {
				s := sum[k]
				s.Precision += v.Precision
				s.Recall += v.Recall
				s.FMeasure += v.FMeasure
				sum[k] = s
			}
			count++
		}
	}
	if count == 0 {
		return sum, nil
	}
	n := float64(count)
	for k, s := range sum {
		sum[k] = Score{Precision: s.Precision / n, Recall: s.Recall / n, FMeasure: s.FMeasure / n}
	}
	return sum, nil
}

// validateRougeType validates a ROUGE type identifier such as rouge1, rougeL, or rougeLsum.
func validateRougeType(rougeType string) error {
	if rougeType == RougeL || rougeType == RougeLsum {
		return nil
	}
	_, err := parseRougeN(rougeType)
	return err
}

// parseRougeN parses a ROUGE-N type string and returns the N value.
func parseRougeN(rougeType string) (int, error) {
	nStr, ok := strings.CutPrefix(rougeType, "rouge")
	if !ok || nStr == "" {
		return 0, fmt.Errorf("invalid rouge type: %s", rougeType)
	}
	n, err := strconv.Atoi(nStr)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid rouge type: %s", rougeType)
	}
	return n, nil
}

// scoreNGrams computes ROUGE-N precision, recall, and F-measure for tokenized inputs.
func scoreNGrams(targetTokens, predTokens []string, n int) Score {
	if len(targetTokens) == 0 || len(predTokens) == 0 {
		return Score{}
	}
	targetNGrams := createNGrams(targetTokens, n)
	predNGrams := createNGrams(predTokens, n)

	var intersection, targetCount, predCount int
	for key, cnt := range targetNGrams {
		targetCount += cnt
		if predCnt, ok := predNGrams[key]; ok {
			intersection += min(cnt, predCnt)
		}
	}
	for _, cnt := range predNGrams {
		predCount += cnt
	}

	precision := float64(intersection) / float64(max(predCount, 1))
	recall := float64(intersection) / float64(max(targetCount, 1))
	return Score{Precision: precision, Recall: recall, FMeasure: fMeasure(precision, recall)}
}

// createNGrams builds a multiset of n-grams keyed by a delimiter-joined token sequence.
func createNGrams(tokens []string, n int) map[string]int {
	if n <= 0 || len(tokens) < n {
		return map[string]int{}
	}
	ngrams := make(map[string]int, len(tokens)-n+1)
	for i := 0; i <= len(tokens)-n; i++ {
		ngrams[strings.Join(tokens[i:i+n], "\x00")]++
	}
	return ngrams
}

// scoreLCS computes ROUGE-L precision, recall, and F-measure using the LCS length.
func scoreLCS(targetTokens, predTokens []string) Score {
	if len(targetTokens) == 0 || len(predTokens) == 0 {
		return Score{}
	}
	lcsLen := lcsLength(targetTokens, predTokens)
	precision := float64(lcsLen) / float64(len(predTokens))
	recall := float64(lcsLen) / float64(len(targetTokens))
	return Score{Precision: precision, Recall: recall, FMeasure: fMeasure(precision, recall)}
}

// lcsLength computes the length of the longest common subsequence with two rolling rows.
func lcsLength(ref, can []string) int {
	if len(ref) == 0 || len(can) == 0 {
		return 0
	}
	prev := make([]int, len(can)+1)
	curr := make([]int, len(can)+1)
	for i := 1; i <= len(ref); i++ {
		curr[0] = 0
		for j := 1; j <= len(can); j++ {
			if ref[i-1] == can[j-1] {
				curr[j] = prev[j-1] + 1
				continue
			}
			curr[j] = max(prev[j], curr[j-1])
		}
		prev, curr = curr, prev
	}
	return prev[len(can)]
}

// scoreSummaryLCS computes rougeLsum using summary-level LCS aggregation.
func scoreSummaryLCS(target, prediction string, tok tokenize.Tokenizer, splitSummaries bool) (Score, error) {
	targetSents, err := getSentences(target, splitSummaries)
	if err != nil {
		return Score{}, err
	}
	predSents, err := getSentences(prediction, splitSummaries)
	if err != nil {
		return Score{}, err
	}
	targetTokens := make([][]string, 0, len(targetSents))
	for _, s := range targetSents {
		targetTokens = append(targetTokens, tok.Tokenize(s))
	}
	predTokens := make([][]string, 0, len(predSents))
	for _, s := range predSents {
		predTokens = append(predTokens, tok.Tokenize(s))
	}
	return summaryLevelLCS(targetTokens, predTokens), nil
}

// getSentences returns the non-empty sentences of text.
func getSentences(text string, splitSummaries bool) ([]string, error) {
	if splitSummaries {
		return tokenize.Sentences(text)
	}
	var out []string
	for _, sent := range strings.Split(text, "\n") {
		if sent != "" {
			out = append(out, sent)
		}
	}
	return out, nil
}

// summaryLevelLCS computes rougeLsum without counting a matched token twice.
func summaryLevelLCS(refSent, canSent [][]string) Score {
	m, n := 0, 0
	for _, s := range refSent {
		m += len(s)
	}
	for _, s := range canSent {
		n += len(s)
	}
	if m == 0 || n == 0 {
		return Score{}
	}

	tokenCntsR := make(map[string]int)
	tokenCntsC := make(map[string]int)
	for _, s := range refSent {
		for _, tok := range s {
			tokenCntsR[tok]++
		}
	}
	for _, s := range canSent {
		for _, tok := range s {
			tokenCntsC[tok]++
		}
	}

	hits := 0
	for _, r := range refSent {
		for _, tok := range unionLCS(r, canSent) {
			if tokenCntsC[tok] <= 0 || tokenCntsR[tok] <= 0 {
				continue
			}
			hits++
			tokenCntsC[tok]--
			tokenCntsR[tok]--
		}
	}

	recall := float64(hits) / float64(m)
	precision := float64(hits) / float64(n)
	return Score{Precision: precision, Recall: recall, FMeasure: fMeasure(precision, recall)}
}

// unionLCS returns the reference tokens covered by the LCS with any candidate sentence.
func unionLCS(ref []string, cans [][]string) []string {
	seen := make(map[int]struct{})
	for _, can := range cans {
		for _, idx := range lcsInd(ref, can) {
			seen[idx] = struct{}{}
		}
	}
	union := make([]int, 0, len(seen))
	for idx := range seen {
		union = append(union, idx)
	}
	sort.Ints(union)
	out := make([]string, 0, len(union))
	for _, idx := range union {
		out = append(out, ref[idx])
	}
	return out
}

// lcsInd returns the reference indices of one LCS between ref and can.
func lcsInd(ref, can []string) []int {
	rows, cols := len(ref), len(can)
	table := make([][]int, rows+1)
	for i := range table {
		table[i] = make([]int, cols+1)
	}
	for i := 1; i <= rows; i++ {
		for j := 1; j <= cols; j++ {
			if ref[i-1] == can[j-1] {
				table[i][j] = table[i-1][j-1] + 1
				continue
			}
			table[i][j] = max(table[i-1][j], table[i][j-1])
		}
	}

	i, j := rows, cols
	indices := make([]int, 0, table[i][j])
	for i > 0 && j > 0 {
		switch {
		case ref[i-1] == can[j-1]:
			indices = append(indices, i-1)
			i--
			j--
		case table[i][j-1] > table[i-1][j]:
			j--
		default:
			i--
		}
	}
	for l, r := 0, len(indices)-1; l < r; l, r = l+1, r-1 {
		indices[l], indices[r] = indices[r], indices[l]
	}
	return indices
}
