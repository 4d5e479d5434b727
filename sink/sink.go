// Package sink implements the terminal DataSink variants: file, FDB
// (an embedded KV store), journaled (wraps another sink with a journal
// append), and an azure build-tag variant. Timed (iowrap.go) wraps a sink
// with IOStats timing; the name-keyed factory lives in registry.go.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package sink

import (
	"context"

	"github.com/tweska/multio/core"
)

// DataSink is the terminal write target. Structurally
// identical to action.DataSink - kept as a separate declaration so sink
// has no dependency on package action.
type DataSink interface {
	Write(ctx context.Context, msg *core.Message) error
	Flush(ctx context.Context) error
}
