// Package journal implements the append-only binary record log:
// bit-exact on-disk layout, atomic record writes, and a reader that
// replays records, failing CorruptJournal on any mismatch. Implemented
// directly with encoding/binary over an *os.File - correctness depends
// on precise control of the byte layout that a general serialization
// library would obscure.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package journal

import "encoding/binary"

var byteOrder = binary.LittleEndian

// RecordTag distinguishes a journal record's own classification, stored
// in the Header.
type RecordTag uint8

const (
	Uninitialised RecordTag = iota
	EndOfJournal
	JournalEntry
	Configuration
)

// EntryTag distinguishes one entry within a record.
type EntryTag uint8

const (
	Data EntryTag = iota
	Write
	End
)

// Terminator is the fixed 4-byte marker closing every record.
var Terminator = [4]byte{'E', 'N', 'D', '!'}

// Timestamp mirrors the on-disk {secs, usecs} pair.
type Timestamp struct {
	Secs  int64
	Usecs int64
}

// Header is the fixed 48-byte prefix of every record: u8 tag,
// u8 tagVersion(=1), u16 numEntries, pad(4), i64 tv_sec, i64 tv_usec,
// u8[24] reserved.
type Header struct {
	Tag        RecordTag
	TagVersion uint8
	NumEntries uint16
	Timestamp  Timestamp
	Reserved   [24]byte
}

const HeaderSize = 1 + 1 + 2 + 4 + 8 + 8 + 24 // = 48

// Entry is one journal entry, also a fixed 48-byte block: u8 tag,
// pad(3), u32 id, u64 payload_length, i64 tv_sec, i64 tv_usec, pad(16).
// Only the first (Data) entry of a record carries payload_length > 0 and
// trailing payload bytes.
type Entry struct {
	Tag           EntryTag
	ID            uint32
	PayloadLength uint64
	Timestamp     Timestamp
	Payload       []byte // only populated for the Data entry
}

const entryFixedSize = 1 + 3 + 4 + 8 + 8 + 8 + 16 // = 48
