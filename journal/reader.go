package journal

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/tweska/multio/cmn"
)

// Record is one fully-read journal record.
type Record struct {
	Header  Header
	Entries []Entry
}

// Reader replays records from a journal file. ReadAll treats io.EOF at
// a record boundary as a clean end of journal; io.EOF (or any short
// read) in the middle of a record is CorruptJournal.
type Reader struct {
	r *bufio.Reader
	f *os.File
}

func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cmn.NewCorruptJournalCause(err, "open journal file %s", path)
	}
	return &Reader{r: bufio.NewReader(f), f: f}, nil
}

func (jr *Reader) Close() error { return jr.f.Close() }

// ReadRecord reads header, numEntries entries (payload bytes belong to
// the first, Data, entry), and verifies the terminator equals "END!".
// Returns io.EOF only when the stream ends cleanly right before a new
// record's header.
func (jr *Reader) ReadRecord() (*Record, error) {
	header, err := readHeader(jr.r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, cmn.NewCorruptJournalCause(err, "truncated journal header")
	}

	entries := make([]Entry, 0, header.NumEntries)
	for i := uint16(0); i < header.NumEntries; i++ {
		e, err := readEntry(jr.r)
		if err != nil {
			return nil, cmn.NewCorruptJournalCause(err, "truncated journal entry %d/%d", i, header.NumEntries)
		}
		if header.Tag == JournalEntry {
			if i == 0 && e.Tag != Data {
				return nil, cmn.NewCorruptJournal("first entry of a JournalEntry record must be Data, got tag=%d", e.Tag)
			}
			if i > 0 && e.Tag == Data {
				return nil, cmn.NewCorruptJournal("duplicate Data entry at index %d", i)
			}
			if i > 0 && e.PayloadLength != 0 {
				return nil, cmn.NewCorruptJournal("entry %d references the Data entry but carries payload_length=%d", i, e.PayloadLength)
			}
		}
		entries = append(entries, e)
	}

	var term [4]byte
	if _, err := io.ReadFull(jr.r, term[:]); err != nil {
		return nil, cmn.NewCorruptJournalCause(err, "truncated journal terminator")
	}
	if term != Terminator {
		return nil, cmn.NewCorruptJournal("bad terminator %q", term[:])
	}

	return &Record{Header: header, Entries: entries}, nil
}

// ReadAll replays every record until a clean end-of-journal.
func (jr *Reader) ReadAll() ([]*Record, error) {
	var out []*Record
	for {
		rec, err := jr.ReadRecord()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
