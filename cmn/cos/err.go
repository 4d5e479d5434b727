// Package cos provides common low-level types and utilities shared across
// the multio core: error accumulation, connection-error classification,
// and the process-abort helpers used by the CLI front-ends.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package cos

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"
	ratomic "sync/atomic"
	"syscall"

	"github.com/tweska/multio/cmn/nlog"
)

// Plural returns "s" when n != 1, the empty string otherwise.
func Plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

type (
	// ErrNotFound reports a named thing's absence (e.g. an unregistered
	// sink/action/transport name looked up after construction).
	ErrNotFound struct {
		what string
	}

	// ErrSignal wraps a terminating OS signal for exit-code reporting
	// (128 + signal number).
	ErrSignal struct {
		signal syscall.Signal
	}

	// Errs accumulates up to maxErrs distinct errors, deduplicated by
	// message, for callers that fan a write out to several sinks and must
	// report every distinct failure rather than just the first.
	Errs struct {
		errs []error
		cnt  int64
		mu   sync.Mutex
	}
)

// ErrNotFound

func NewErrNotFound(format string, a ...any) *ErrNotFound {
	return &ErrNotFound{fmt.Sprintf(format, a...)}
}

func (e *ErrNotFound) Error() string { return e.what + " does not exist" }

func IsErrNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}

// Errs

const maxErrs = 4

func (e *Errs) Add(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, added := range e.errs {
		if added.Error() == err.Error() {
			return
		}
	}
	if len(e.errs) < maxErrs {
		e.errs = append(e.errs, err)
		ratomic.StoreInt64(&e.cnt, int64(len(e.errs)))
	}
}

func (e *Errs) Cnt() int { return int(ratomic.LoadInt64(&e.cnt)) }

// Error renders the first accumulated error plus a count of the rest, the
// way a fan-out write failure should read in a log line.
func (e *Errs) Error() (s string) {
	cnt := e.Cnt()
	if cnt == 0 {
		return ""
	}
	e.mu.Lock()
	err := e.errs[0]
	e.mu.Unlock()
	if cnt > 1 {
		return fmt.Sprintf("%v (and %d more error%s)", err, cnt-1, Plural(cnt-1))
	}
	return err.Error()
}

//
// connection-error classification (transport/tcp's redial-vs-fatal split)
//

func IsErrConnectionRefused(err error) bool { return errors.Is(err, syscall.ECONNREFUSED) }
func IsErrConnectionReset(err error) bool   { return errors.Is(err, syscall.ECONNRESET) }
func IsErrBrokenPipe(err error) bool        { return errors.Is(err, syscall.EPIPE) }

// IsRetriableConnErr reports whether err is a transient connection error a
// caller should redial and retry, rather than treat as a fatal
// TransportFailure.
func IsRetriableConnErr(err error) bool {
	return IsErrConnectionRefused(err) || IsErrConnectionReset(err) || IsErrBrokenPipe(err)
}

// IsErrOOS reports out-of-space, which a file-backed sink surfaces as a
// distinct, non-retriable SinkFailure cause.
func IsErrOOS(err error) bool { return errors.Is(err, syscall.ENOSPC) }

//
// Abnormal termination, used by cmd/hammer and cmd/readjournal
//

const fatalPrefix = "FATAL ERROR: "

// https://tldp.org/LDP/abs/html/exitcodes.html
func NewSignalError(s syscall.Signal) *ErrSignal { return &ErrSignal{signal: s} }
func (e *ErrSignal) ExitCode() int               { return 128 + int(e.signal) }
func (e *ErrSignal) Error() string               { return fmt.Sprintf("signal %d", e.signal) }

func Exitf(f string, a ...any) {
	msg := fmt.Sprintf(fatalPrefix+f, a...)
	_exit(msg)
}

// ExitLogf logs the fatal message via nlog (when flags are parsed, i.e.
// logging is initialized) before terminating the process.
func ExitLogf(f string, a ...any) {
	msg := fmt.Sprintf(fatalPrefix+f, a...)
	if flag.Parsed() {
		nlog.Errorln(msg)
		nlog.Flush()
	}
	_exit(msg)
}

func _exit(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
