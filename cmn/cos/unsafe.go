// Package cos provides common low-level types and utilities shared across
// the multio core.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package cos

import "unsafe"

// UnsafeB reinterprets a string as a byte slice without copying. The
// returned slice must never be mutated.
func UnsafeB(s string) []byte {
	if s == "" {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// UnsafeS reinterprets a byte slice as a string without copying. The
// caller must not mutate b afterwards.
func UnsafeS(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}
