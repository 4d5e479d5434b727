package sink

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tweska/multio/cmn"
	"github.com/tweska/multio/cmn/cos"
	"github.com/tweska/multio/core"
)

// Fanout replicates every Write/Flush to a fixed set of named replica
// sinks concurrently, retrying each replica independently with
// cmn.NetworkCallWithRetry before its failure counts.
type Fanout struct {
	id       string // correlation id for log lines
	replicas map[string]DataSink
	retry    cmn.RetryArgs
}

// NewFanout builds a Fanout over replicas (name -> sink), retrying each
// failed replica write per retry before it counts toward the accumulated
// error set.
func NewFanout(replicas map[string]DataSink, retry cmn.RetryArgs) *Fanout {
	return &Fanout{id: cos.GenUUID(), replicas: replicas, retry: retry}
}

func (f *Fanout) ID() string { return f.id }

// Write fans out to every replica concurrently; a replica's write is
// retried per f.retry before being counted as failed. All distinct
// failures are accumulated (deduplicated by message) and returned
// together so no replica's failure is silently swallowed by another's.
func (f *Fanout) Write(ctx context.Context, msg *core.Message) error {
	var errs cos.Errs
	g, gctx := errgroup.WithContext(ctx)
	for name, target := range f.replicas {
		name, target := name, target
		g.Go(func() error {
			args := f.retry
			args.Action = "fanout[" + f.id + "]." + name + ".write"
			args.Call = func() (int, error) {
				err := target.Write(gctx, msg)
				if err != nil {
					// out-of-space never benefits from patience; anything
					// else counts against the soft budget and backs off
					if cos.IsErrOOS(err) {
						return -1, err
					}
					return 0, err
				}
				return 0, nil
			}
			if err := cmn.NetworkCallWithRetry(&args); err != nil {
				errs.Add(cmn.NewSinkFailure(name, err))
			}
			return nil
		})
	}
	_ = g.Wait() // replica goroutines never return a non-nil error themselves
	if errs.Cnt() > 0 {
		return cmn.NewSinkFailure("fanout["+f.id+"]", &errs)
	}
	return nil
}

// Flush flushes every replica, accumulating failures the same way Write
// does.
func (f *Fanout) Flush(ctx context.Context) error {
	var errs cos.Errs
	g, gctx := errgroup.WithContext(ctx)
	for name, target := range f.replicas {
		name, target := name, target
		g.Go(func() error {
			if err := target.Flush(gctx); err != nil {
				errs.Add(cmn.NewSinkFailure(name, err))
			}
			return nil
		})
	}
	_ = g.Wait()
	if errs.Cnt() > 0 {
		return cmn.NewSinkFailure("fanout["+f.id+"]", &errs)
	}
	return nil
}

// DefaultFanoutRetry is a sane default; callers normally build
// this from cmn.Config.Sink instead.
func DefaultFanoutRetry() cmn.RetryArgs {
	return cmn.RetryArgs{
		SoftErr: 3,
		HardErr: 1,
		Sleep:   20 * time.Millisecond,
		BackOff: true,
	}
}
