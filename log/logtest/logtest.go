//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package logtest provides a recording logger for tests that assert on diagnostics.
package logtest

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"trpc.group/trpc-go/trpc-caption-go/log"
)

// Entry is one recorded log line.
type Entry struct {
	Level   string
	Message string
}

// Recorder implements log.Logger and keeps every entry in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Install replaces log.Default with a new Recorder until the test ends.
func Install(t testing.TB) *Recorder {
	t.Helper()
	r := &Recorder{}
	old := log.Default
	log.Default = r
	t.Cleanup(func() { log.Default = old })
	return r
}

// Entries returns a copy of the recorded entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Count returns how many entries at level contain substr.
func (r *Recorder) Count(level, substr string) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			n++
		}
	}
	return n
}

func (r *Recorder) add(level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg})
}

func (r *Recorder) Debug(args ...any)                 { r.add(log.LevelDebug, fmt.Sprint(args...)) }
func (r *Recorder) Debugf(format string, args ...any) { r.add(log.LevelDebug, fmt.Sprintf(format, args...)) }
func (r *Recorder) Info(args ...any)                  { r.add(log.LevelInfo, fmt.Sprint(args...)) }
func (r *Recorder) Infof(format string, args ...any)  { r.add(log.LevelInfo, fmt.Sprintf(format, args...)) }
func (r *Recorder) Warn(args ...any)                  { r.add(log.LevelWarn, fmt.Sprint(args...)) }
func (r *Recorder) Warnf(format string, args ...any)  { r.add(log.LevelWarn, fmt.Sprintf(format, args...)) }
func (r *Recorder) Error(args ...any)                 { r.add(log.LevelError, fmt.Sprint(args...)) }
func (r *Recorder) Errorf(format string, args ...any) { r.add(log.LevelError, fmt.Sprintf(format, args...)) }
func (r *Recorder) Fatal(args ...any)                 { r.add(log.LevelFatal, fmt.Sprint(args...)) }
func (r *Recorder) Fatalf(format string, args ...any) { r.add(log.LevelFatal, fmt.Sprintf(format, args...)) }
