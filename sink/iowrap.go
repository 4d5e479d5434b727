package sink

import (
	"context"
	"time"

	"github.com/tweska/multio/core"
	"github.com/tweska/multio/stats"
)

// Timed wraps an underlying DataSink, recording each Write's size and
// duration into an IOStats.
type Timed struct {
	name  string
	inner DataSink
	io    *stats.IOStats
}

func NewTimed(name string, inner DataSink, io *stats.IOStats) *Timed {
	return &Timed{name: name, inner: inner, io: io}
}

func (t *Timed) Write(ctx context.Context, msg *core.Message) error {
	start := time.Now()
	err := t.inner.Write(ctx, msg)
	t.io.RecordWrite(msg.Payload().Size(), time.Since(start))
	return err
}

func (t *Timed) Flush(ctx context.Context) error {
	return t.inner.Flush(ctx)
}
