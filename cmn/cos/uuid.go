// Package cos provides common low-level types and utilities shared across
// the multio core.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package cos

import (
	"sync/atomic"

	"github.com/teris-io/shortid"
)

// Alphabet for generating UUIDs similar to shortid.DefaultABC: short,
// human-loggable correlation ids for C-ABI handles and fan-out sinks.
const uuidABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

// LenShortID is the length of an id produced by shortid with no tie
// breaker prepended/appended, per https://github.com/teris-io/shortid#id-length.
const LenShortID = 9

var (
	sid  *shortid.Shortid
	rtie atomic.Uint32
)

// InitShortID seeds the package-level id generator. Call once at startup.
func InitShortID(seed uint64) {
	sid = shortid.MustNew(4 /*worker*/, uuidABC, seed)
}

// GenUUID returns a short, URL-safe, human-loggable id, tie-broken to
// always start with a letter and never end in a separator.
func GenUUID() (uuid string) {
	var h, t string
	uuid = sid.MustGenerate()
	if !isAlpha(uuid[0]) {
		tie := int(rtie.Add(1))
		h = string(rune('A' + tie%26))
	}
	c := uuid[len(uuid)-1]
	if c == '-' || c == '_' {
		tie := int(rtie.Add(1))
		t = string(rune('a' + tie%26))
	}
	return h + uuid + t
}

// IsValidUUID reports whether uuid looks like one GenUUID could have
// produced: long enough, and built only from letters/digits/-/_.
func IsValidUUID(uuid string) bool {
	return len(uuid) >= LenShortID && isAlphaNice(uuid)
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNice(s string) bool {
	l := len(s)
	for i := 0; i < l; i++ {
		c := s[i]
		if isAlpha(c) || (c >= '0' && c <= '9') {
			continue
		}
		if c != '-' && c != '_' {
			return false
		}
	}
	return true
}
