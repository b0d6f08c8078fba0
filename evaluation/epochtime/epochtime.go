//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package epochtime provides an EpochTime type stored as unix seconds in JSON.
package epochtime

import (
	"encoding/json"
	"time"
)

const (
	// zeroEpochLiteral is the literal for zero epoch.
	zeroEpochLiteral = "0"
	// nanosecondsPerSecond is the number of nanoseconds per second.
	nanosecondsPerSecond = float64(time.Second)
)

// EpochTime wraps time.Time to (un)marshal as fractional unix seconds.
type EpochTime struct{ time.Time }

// Now returns the current time truncated to microseconds, the precision that
// survives a round trip through a float64 of unix seconds.
func Now() *EpochTime {
	return &EpochTime{Time: time.Now().UTC().Truncate(time.Microsecond)}
}

// MarshalJSON encodes the time as unix seconds. The zero time encodes as 0.
func (t EpochTime) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte(zeroEpochLiteral), nil
	}
	unixSeconds := float64(t.Time.UnixNano()) / nanosecondsPerSecond
	return json.Marshal(unixSeconds)
}

// UnmarshalJSON decodes unix seconds. 0 decodes to the zero time.
func (t *EpochTime) UnmarshalJSON(b []byte) error {
	var unixSeconds float64
	if err := json.Unmarshal(b, &unixSeconds); err != nil {
		return err
	}
	if unixSeconds == 0 {
		t.Time = time.Time{}
		return nil
	}
	t.Time = time.Unix(0, int64(unixSeconds*nanosecondsPerSecond)).UTC()
	return nil
}
