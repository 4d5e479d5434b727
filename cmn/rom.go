// Package cmn provides common configuration, error kinds, and retry helpers
// shared by every other multio package.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package cmn

import "time"

// read-mostly, most-often-read settings: assigned once at startup and
// consulted on every dispatched message, so they live outside Config to
// avoid a lock/copy on the hot path.

type readMostly struct {
	timeout struct {
		receive    time.Duration
		sinkRetry  time.Duration
		stepWindow time.Duration
	}
	failurePolicy FailurePolicy
	verbosity     int
}

var Rom readMostly

func init() {
	Rom.timeout.receive = 30 * time.Second
	Rom.timeout.sinkRetry = 50 * time.Millisecond
	Rom.failurePolicy = FailureDrop
}

func (rom *readMostly) Set(cfg *Config) {
	rom.timeout.receive = cfg.Transport.ReceiveTimeout.D()
	rom.timeout.sinkRetry = cfg.Sink.RetrySleep.D()
	rom.failurePolicy = cfg.FailurePolicy
	rom.verbosity = cfg.Log.Verbosity
}

func (rom *readMostly) ReceiveTimeout() time.Duration { return rom.timeout.receive }
func (rom *readMostly) SinkRetrySleep() time.Duration { return rom.timeout.sinkRetry }
func (rom *readMostly) FailurePolicy() FailurePolicy  { return rom.failurePolicy }

// FastV reports whether verbosity-gated logging at the given level should
// fire, avoiding a full nlog call on the hot dispatch path.
func (rom *readMostly) FastV(verbosity int) bool { return rom.verbosity >= verbosity }
