// Command readjournal prints every record of a journal file: header
// fields and per-entry tag/id/payload-length.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tweska/multio/cmn/cos"
	"github.com/tweska/multio/journal"
)

func main() {
	if len(os.Args) != 2 {
		cos.Exitf("usage: readjournal <path>")
	}
	if err := run(os.Args[1]); err != nil {
		cos.Exitf("readjournal: %v", err)
	}
}

func run(path string) error {
	r, err := journal.OpenReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	idx := 0
	for {
		rec, err := r.ReadRecord()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("record %d: %w", idx, err)
		}
		printRecord(idx, rec)
		idx++
	}
	fmt.Printf("%d record%s\n", idx, cos.Plural(idx))
	return nil
}

func printRecord(idx int, rec *journal.Record) {
	h := rec.Header
	fmt.Printf("record %d: tag=%d tagVersion=%d numEntries=%d ts=%d.%06d\n",
		idx, h.Tag, h.TagVersion, h.NumEntries, h.Timestamp.Secs, h.Timestamp.Usecs)
	for i, e := range rec.Entries {
		fmt.Printf("  entry %d: tag=%d id=%d payloadLength=%d ts=%d.%06d\n",
			i, e.Tag, e.ID, e.PayloadLength, e.Timestamp.Secs, e.Timestamp.Usecs)
	}
}
