// Host disk throughput sampling, macOS variant: delegates to
// github.com/lufia/iostat.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package stats

import (
	"fmt"
	"io"

	"github.com/lufia/iostat"
)

// SampleDisks reports host disk throughput alongside a Registry's
// per-sink counters, for sinks backed by local files.
func SampleDisks(stream io.Writer) error {
	drives, err := iostat.ReadDriveStats()
	if err != nil {
		return err
	}
	for _, d := range drives {
		fmt.Fprintf(stream, "disk %s: read.size=%d write.size=%d\n", d.Name, d.BytesRead, d.BytesWritten)
	}
	return nil
}
