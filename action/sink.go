package action

import (
	"context"

	"github.com/tweska/multio/core"
)

// DataSink is the terminal write target a Sink stage delegates to.
// Defined here (rather than imported from package sink) to keep action
// free of a dependency on sink's registry/construction machinery; the
// sink package's concrete types satisfy this interface structurally.
type DataSink interface {
	Write(ctx context.Context, msg *core.Message) error
	Flush(ctx context.Context) error
}

// Sink is the pipeline's terminal stage: it writes via DataSink.Write and
// never forwards, except that Flush triggers DataSink.Flush and is not
// itself written.
type Sink struct {
	target DataSink
}

func NewSink(target DataSink) *Sink {
	return &Sink{target: target}
}

func (s *Sink) Execute(ctx context.Context, msg *core.Message, _ Next) error {
	if msg.Tag() == core.Flush {
		return s.target.Flush(ctx)
	}
	return s.target.Write(ctx, msg)
}
