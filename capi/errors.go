// Package capi implements the C ABI surface: the
// configuration_*/handle_*/metadata_*/data_*/failure_handler names,
// exported via cgo and delegating to the Go-native client/server API.
// Nested cause chains render via github.com/pkg/errors' Unwrap chain
// walked innermost-first (cmn.CauseChain) into the failure-info string
// passed to the registered failure handler.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package capi

import (
	"strings"
	"sync"

	"github.com/tweska/multio/cmn"
)

// ErrorCode mirrors the C ABI error enum.
type ErrorCode int32

const (
	Success ErrorCode = iota
	EckitException
	GeneralException
	UnknownException
)

// FailureHandler is the Go side of the `(user_ctx, error_code, info*)`
// callback; export.go's //export glue adapts this to the C function
// pointer signature.
type FailureHandler func(userCtx uintptr, code ErrorCode, info string)

var (
	handlerMu      sync.Mutex
	failureHandler FailureHandler
)

// RegisterFailureHandler installs the process-wide failure handler,
// invoked once per failed API call before the error code is returned.
func RegisterFailureHandler(h FailureHandler) {
	handlerMu.Lock()
	defer handlerMu.Unlock()
	failureHandler = h
}

// report classifies err, renders its innermost-first cause chain, and
// invokes the registered failure handler before returning the code the
// exported function should propagate to the caller.
func report(userCtx uintptr, err error) ErrorCode {
	if err == nil {
		return Success
	}
	code := classify(err)
	info := renderChain(err)
	handlerMu.Lock()
	h := failureHandler
	handlerMu.Unlock()
	if h != nil {
		h(userCtx, code, info)
	}
	return code
}

func classify(err error) ErrorCode {
	switch {
	case cmn.IsFieldError(err), cmn.IsMetadataMissing(err):
		return EckitException
	case cmn.IsTransportFailure(err), cmn.IsSinkFailure(err), cmn.IsCorruptJournal(err):
		return GeneralException
	default:
		return UnknownException
	}
}

// renderChain joins the innermost-first cause chain into one string for
// the failure handler's info argument.
func renderChain(err error) string {
	chain := cmn.CauseChain(err)
	parts := make([]string, len(chain))
	for i, e := range chain {
		parts[i] = e.Error()
	}
	return strings.Join(parts, ": caused by: ")
}
