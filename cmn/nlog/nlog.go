// Package nlog - multio's leveled logger: timestamping and flushing to
// stderr and/or a log file through a single mutex-guarded writer.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package nlog

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

func (s severity) String() string {
	switch s {
	case sevWarn:
		return "W"
	case sevErr:
		return "E"
	default:
		return "I"
	}
}

var (
	mu           sync.Mutex
	out          io.Writer = os.Stderr
	toStderr     bool
	alsoToStderr bool
	title        string
	minSev       = sevInfo
)

// InitFlags registers the logging flags shared by cmd/hammer and
// cmd/readjournal.
func InitFlags(flset *flag.FlagSet) {
	flset.BoolVar(&toStderr, "logtostderr", true, "log to standard error instead of files")
	flset.BoolVar(&alsoToStderr, "alsologtostderr", false, "log to standard error as well as files")
}

// SetOutput redirects the log sink (tests use this to capture output).
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

// SetLogDirRole is a no-op; multio does not rotate per-role log
// directories.
func SetLogDirRole(_, _ string) {}

func SetTitle(s string) { title = s }

// SetLevel sets the minimum severity that gets written; "warn" or "error"
// silence Infoln/Infof.
func SetLevel(level string) {
	switch level {
	case "warn", "warning":
		minSev = sevWarn
	case "err", "error":
		minSev = sevErr
	default:
		minSev = sevInfo
	}
}

func Infoln(args ...any)               { logln(sevInfo, args...) }
func Infof(format string, args ...any) { logf(sevInfo, format, args...) }
func Warningln(args ...any)            { logln(sevWarn, args...) }
func Warningf(format string, a ...any) { logf(sevWarn, format, a...) }
func Errorln(args ...any)              { logln(sevErr, args...) }
func Errorf(format string, a ...any)   { logf(sevErr, format, a...) }

func logln(sev severity, args ...any) {
	write(sev, fmt.Sprintln(args...))
}

func logf(sev severity, format string, args ...any) {
	write(sev, fmt.Sprintf(format, args...)+"\n")
}

func write(sev severity, msg string) {
	if sev < minSev {
		return
	}
	ts := time.Now().Format("2006-01-02T15:04:05.000")
	line := fmt.Sprintf("%s %s %s%s", sev, ts, title, msg)
	mu.Lock()
	defer mu.Unlock()
	io.WriteString(out, line)
	if !toStderr && alsoToStderr && out != io.Writer(os.Stderr) {
		io.WriteString(os.Stderr, line)
	}
}

// Flush is a no-op under the simplified single-writer implementation
// (every write above is already synchronous); retained for API parity.
func Flush(...bool) {}
