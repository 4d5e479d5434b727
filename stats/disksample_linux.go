// Host disk throughput sampling, Linux variant: parses /proc/diskstats.
// Sectors are the standard UNIX 512-byte sectors, not a device block
// size.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package stats

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const sectorSize = int64(512)

// SampleDisks reports host disk throughput alongside a Registry's
// per-sink counters, for sinks backed by local files.
func SampleDisks(stream io.Writer) error {
	f, err := os.Open("/proc/diskstats")
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		// major minor name reads _ readSectors _ writes _ writeSectors ...
		fields := strings.Fields(scanner.Text())
		if len(fields) < 10 {
			continue
		}
		name := fields[2]
		readSectors, err := strconv.ParseInt(fields[5], 10, 64)
		if err != nil {
			continue
		}
		writeSectors, err := strconv.ParseInt(fields[9], 10, 64)
		if err != nil {
			continue
		}
		fmt.Fprintf(stream, "disk %s: read.size=%d write.size=%d\n",
			name, readSectors*sectorSize, writeSectors*sectorSize)
	}
	return scanner.Err()
}
