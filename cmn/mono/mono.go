// Package mono provides a monotonic nanosecond clock.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package mono

import "time"

var base = time.Now()

// NanoTime returns a monotonic nanosecond reading. It is not wall-clock
// time and must only be used to measure elapsed durations.
func NanoTime() int64 { return int64(time.Since(base)) }

// Since returns the elapsed nanoseconds since a prior NanoTime() reading.
func Since(start int64) int64 { return NanoTime() - start }
