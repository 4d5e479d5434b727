package journal

import (
	"io"
)

func writeHeader(w io.Writer, h Header) error {
	var b [HeaderSize]byte
	b[0] = byte(h.Tag)
	b[1] = h.TagVersion
	byteOrder.PutUint16(b[2:4], h.NumEntries)
	// b[4:8] pad
	byteOrder.PutUint64(b[8:16], uint64(h.Timestamp.Secs))
	byteOrder.PutUint64(b[16:24], uint64(h.Timestamp.Usecs))
	copy(b[24:HeaderSize], h.Reserved[:])
	_, err := w.Write(b[:])
	return err
}

func readHeader(r io.Reader) (Header, error) {
	var b [HeaderSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return Header{}, err
	}
	var h Header
	h.Tag = RecordTag(b[0])
	h.TagVersion = b[1]
	h.NumEntries = byteOrder.Uint16(b[2:4])
	h.Timestamp.Secs = int64(byteOrder.Uint64(b[8:16]))
	h.Timestamp.Usecs = int64(byteOrder.Uint64(b[16:24]))
	copy(h.Reserved[:], b[24:HeaderSize])
	return h, nil
}

func writeEntry(w io.Writer, e Entry) error {
	var b [entryFixedSize]byte
	b[0] = byte(e.Tag)
	// b[1:4] pad
	byteOrder.PutUint32(b[4:8], e.ID)
	byteOrder.PutUint64(b[8:16], e.PayloadLength)
	byteOrder.PutUint64(b[16:24], uint64(e.Timestamp.Secs))
	byteOrder.PutUint64(b[24:32], uint64(e.Timestamp.Usecs))
	// b[32:48] pad
	if _, err := w.Write(b[:]); err != nil {
		return err
	}
	if e.PayloadLength > 0 {
		if _, err := w.Write(e.Payload); err != nil {
			return err
		}
	}
	return nil
}

func readEntry(r io.Reader) (Entry, error) {
	var b [entryFixedSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return Entry{}, err
	}
	var e Entry
	e.Tag = EntryTag(b[0])
	e.ID = byteOrder.Uint32(b[4:8])
	e.PayloadLength = byteOrder.Uint64(b[8:16])
	e.Timestamp.Secs = int64(byteOrder.Uint64(b[16:24]))
	e.Timestamp.Usecs = int64(byteOrder.Uint64(b[24:32]))
	if e.PayloadLength > 0 {
		e.Payload = make([]byte, e.PayloadLength)
		if _, err := io.ReadFull(r, e.Payload); err != nil {
			return Entry{}, err
		}
	}
	return e, nil
}
