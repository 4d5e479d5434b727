package journal

import (
	"bytes"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/tweska/multio/cmn"
	"github.com/tweska/multio/core"
)

// Writer owns the exclusive append-only file handle for one journal.
// One record is in progress at a time; AppendWrite/AppendEnd add entries
// to it, CloseRecord flushes it atomically.
type Writer struct {
	mu  sync.Mutex
	f   *os.File
	cur *recordBuilder
}

type recordBuilder struct {
	tag       RecordTag
	hasData   bool
	timestamp Timestamp
	entries   []Entry
}

func Open(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, cmn.NewCorruptJournalCause(err, "open journal file %s", path)
	}
	return &Writer{f: f}, nil
}

func now() Timestamp {
	t := time.Now()
	return Timestamp{Secs: t.Unix(), Usecs: int64(t.Nanosecond() / 1000)}
}

func (w *Writer) ensureRecord() {
	if w.cur == nil {
		w.cur = &recordBuilder{tag: JournalEntry, timestamp: now()}
	}
}

// AppendWrite pushes a Data entry the first time a record is opened,
// then always pushes a Write entry for sinkID.
func (w *Writer) AppendWrite(msg *core.Message, sinkID uint32) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ensureRecord()

	if !w.cur.hasData {
		payload := msg.Payload().Data()
		w.cur.entries = append(w.cur.entries, Entry{
			Tag:           Data,
			PayloadLength: uint64(len(payload)),
			Timestamp:     now(),
			Payload:       append([]byte(nil), payload...),
		})
		w.cur.hasData = true
	}
	w.cur.entries = append(w.cur.entries, Entry{
		Tag:       Write,
		ID:        sinkID,
		Timestamp: now(),
	})
	return nil
}

// AppendEnd records a terminal End entry for sinkID within the current
// record, without opening a new one.
func (w *Writer) AppendEnd(sinkID uint32) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cur == nil || !w.cur.hasData {
		return cmn.NewCorruptJournal("AppendEnd called with no open Data entry")
	}
	w.cur.entries = append(w.cur.entries, Entry{Tag: End, ID: sinkID, Timestamp: now()})
	return nil
}

// CloseRecord writes [header][entries with payloads][terminator]
// atomically to the file and fsyncs.
func (w *Writer) CloseRecord() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cur == nil {
		return nil
	}
	rec := w.cur
	w.cur = nil

	var buf bytes.Buffer
	header := Header{Tag: rec.tag, TagVersion: 1, NumEntries: uint16(len(rec.entries)), Timestamp: rec.timestamp}
	if err := writeHeader(&buf, header); err != nil {
		return cmn.NewCorruptJournalCause(err, "encode journal header")
	}
	for _, e := range rec.entries {
		if err := writeEntry(&buf, e); err != nil {
			return cmn.NewCorruptJournalCause(err, "encode journal entry")
		}
	}
	buf.Write(Terminator[:])

	if _, err := w.f.Write(buf.Bytes()); err != nil {
		return cmn.NewCorruptJournalCause(err, "write journal record")
	}
	if err := unix.Fsync(int(w.f.Fd())); err != nil {
		return cmn.NewCorruptJournalCause(err, "fsync journal file")
	}
	return nil
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
