package cmn

import (
	"time"

	"github.com/tweska/multio/cmn/nlog"
)

// RetryVerbosity controls how much NetworkCallWithRetry logs.
type RetryVerbosity int

const (
	RetryLogQuiet RetryVerbosity = iota
	RetryLogVerbose
)

// RetryArgs and NetworkCallWithRetry implement bounded-attempt
// exponential backoff, used by sinks that retry before escalating a
// SinkFailure.
type RetryArgs struct {
	Call      func() (int, error)
	Action    string
	SoftErr   int // give up at this many soft (retriable) errors (at least 1)
	HardErr   int // give up at this many hard errors (at least 1)
	Sleep     time.Duration
	BackOff   bool // double Sleep after each retry, soft or hard
	Verbosity RetryVerbosity
}

// NetworkCallWithRetry calls args.Call until it succeeds or until
// args.SoftErr soft or args.HardErr hard failures have accumulated,
// whichever triggers first, sleeping args.Sleep between
// attempts and doubling it each time when args.BackOff is set. It returns
// the last error once the budget is exhausted.
func NetworkCallWithRetry(args *RetryArgs) error {
	var (
		sleep        = args.Sleep
		soft, hard   int
		lastErr      error
		lastHTTPCode int
	)
	for {
		code, err := args.Call()
		if err == nil {
			return nil
		}
		lastErr, lastHTTPCode = err, code
		if isHardErr(code) {
			hard++
			if hard >= maxInt(args.HardErr, 1) {
				break
			}
		} else {
			soft++
			if soft >= maxInt(args.SoftErr, 1) {
				break
			}
		}
		if args.Verbosity == RetryLogVerbose {
			nlog.Warningf("%s: retrying after error %v (soft=%d hard=%d)", args.Action, err, soft, hard)
		}
		time.Sleep(sleep)
		if args.BackOff {
			sleep *= 2
		}
	}
	_ = lastHTTPCode
	return lastErr
}

// isHardErr treats non-zero codes below 0 (i.e. no HTTP/status
// information, a pure transport-level error) as hard errors that don't
// benefit from patience the way a 503 does.
func isHardErr(code int) bool { return code < 0 }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
