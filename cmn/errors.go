package cmn

import (
	"fmt"

	"github.com/pkg/errors"
)

// One exported struct per error kind, each wrapping an inner cause via
// github.com/pkg/errors so that the C-ABI failure handler can walk the
// chain innermost-first.

type (
	// ConfigError: malformed pipeline, unknown action/sink/transport name.
	// Fatal at startup.
	ConfigError struct {
		what  string
		cause error
	}

	// TransportFailure: fatal for the affected endpoint; the listener
	// exits.
	TransportFailure struct {
		peer  string
		cause error
	}

	// FieldError: empty payload, precision mismatch, size mismatch
	// between correlated fields. Per-message, policy-driven.
	FieldError struct {
		what  string
		cause error
	}

	// MetadataMissing: a required metadata key was absent or had the
	// wrong type. Per-message, policy-driven.
	MetadataMissing struct {
		key string
	}

	// SinkFailure: the terminal write failed. Retry-then-escalate for
	// FDB-backed sinks; otherwise propagates directly.
	SinkFailure struct {
		sink  string
		cause error
	}

	// CorruptJournal: fatal on read; on write, treated as a disk failure.
	CorruptJournal struct {
		what  string
		cause error
	}
)

func NewConfigError(format string, a ...any) *ConfigError {
	return &ConfigError{what: fmt.Sprintf(format, a...)}
}
func (e *ConfigError) Error() string { return "config: " + e.what }
func (e *ConfigError) Unwrap() error { return e.cause }

func NewTransportFailure(peer string, cause error) *TransportFailure {
	return &TransportFailure{peer: peer, cause: cause}
}
func (e *TransportFailure) Error() string {
	return errors.Wrapf(e.cause, "transport failure (peer=%s)", e.peer).Error()
}
func (e *TransportFailure) Unwrap() error { return e.cause }

func NewFieldError(format string, a ...any) *FieldError {
	return &FieldError{what: fmt.Sprintf(format, a...)}
}
func (e *FieldError) Error() string { return "field error: " + e.what }
func (e *FieldError) Unwrap() error { return e.cause }

func NewMetadataMissing(key string) *MetadataMissing { return &MetadataMissing{key: key} }
func (e *MetadataMissing) Error() string             { return "metadata missing: " + e.key }
func (e *MetadataMissing) Key() string               { return e.key }

func NewSinkFailure(sink string, cause error) *SinkFailure {
	return &SinkFailure{sink: sink, cause: cause}
}
func (e *SinkFailure) Error() string {
	return errors.Wrapf(e.cause, "sink failure (sink=%s)", e.sink).Error()
}
func (e *SinkFailure) Unwrap() error { return e.cause }

func NewCorruptJournal(format string, a ...any) *CorruptJournal {
	return &CorruptJournal{what: fmt.Sprintf(format, a...)}
}
func NewCorruptJournalCause(cause error, format string, a ...any) *CorruptJournal {
	return &CorruptJournal{what: fmt.Sprintf(format, a...), cause: cause}
}
func (e *CorruptJournal) Error() string {
	if e.cause != nil {
		return errors.Wrap(e.cause, "corrupt journal: "+e.what).Error()
	}
	return "corrupt journal: " + e.what
}
func (e *CorruptJournal) Unwrap() error { return e.cause }

// predicates

func IsFieldError(err error) bool         { _, ok := err.(*FieldError); return ok }
func IsMetadataMissing(err error) bool    { _, ok := err.(*MetadataMissing); return ok }
func IsSinkFailure(err error) bool        { _, ok := err.(*SinkFailure); return ok }
func IsCorruptJournal(err error) bool     { _, ok := err.(*CorruptJournal); return ok }
func IsTransportFailure(err error) bool   { _, ok := err.(*TransportFailure); return ok }
func IsPerMessagePolicy(err error) bool { // FieldError/MetadataMissing/SinkFailure are policy-driven, not fatal
	return IsFieldError(err) || IsMetadataMissing(err) || IsSinkFailure(err)
}

// CauseChain walks a wrapped error innermost-first: the C-ABI failure
// handler reports the innermost nested error for causal reporting.
func CauseChain(err error) []error {
	var chain []error
	for err != nil {
		chain = append(chain, err)
		cause := errors.Unwrap(err)
		if cause == nil {
			break
		}
		err = cause
	}
	// reverse: innermost first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
