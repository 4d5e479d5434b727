package core

import (
	"sync"

	"github.com/tweska/multio/cmn"
	"github.com/tweska/multio/cmn/debug"
)

// Tag enumerates message kinds. Values are fixed by declaration order and
// must not be reordered across wire-format versions.
type Tag uint8

const (
	Open Tag = iota
	Close
	Mapping
	Domain
	Mask
	Field
	Flush
	Notification
	StepComplete
	GribTemplate
)

func (t Tag) String() string {
	switch t {
	case Open:
		return "Open"
	case Close:
		return "Close"
	case Mapping:
		return "Mapping"
	case Domain:
		return "Domain"
	case Mask:
		return "Mask"
	case Field:
		return "Field"
	case Flush:
		return "Flush"
	case Notification:
		return "Notification"
	case StepComplete:
		return "StepComplete"
	case GribTemplate:
		return "GribTemplate"
	default:
		return "Unknown"
	}
}

// Buffer is a Message's payload. It starts life either owned (exclusive)
// or as a shared view over memory another owner may still read; Acquire
// makes it exclusive, copying only if necessary.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	shared bool
}

func NewOwnedBuffer(data []byte) *Buffer { return &Buffer{data: data} }

func NewSharedBuffer(data []byte) *Buffer { return &Buffer{data: data, shared: true} }

func (b *Buffer) Size() int { return len(b.data) }

// Data returns the current bytes for read-only use; safe whether or not
// the buffer has been acquired.
func (b *Buffer) Data() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

// Acquire forces unique ownership, idempotently: a shared view is copied
// exactly once, an already-owned buffer is untouched.
func (b *Buffer) Acquire() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.shared {
		return
	}
	cp := make([]byte, len(b.data))
	copy(cp, b.data)
	b.data = cp
	b.shared = false
}

// ModifyData returns a mutable view whose lifetime is bound to the
// message; callers must Acquire() first.
func (b *Buffer) ModifyData() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	debug.Assert(!b.shared, "payload not acquired before mutation")
	return b.data
}

func (b *Buffer) IsShared() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shared
}

// Message is the unit of work flowing through the transport and the
// action pipeline.
type Message struct {
	tag         Tag
	source      Peer
	destination Peer
	metadata    *Metadata
	payload     *Buffer
}

func NewMessage(tag Tag, source, destination Peer, metadata *Metadata, payload *Buffer) *Message {
	if metadata == nil {
		metadata = NewMetadata()
	}
	if payload == nil {
		payload = NewOwnedBuffer(nil)
	}
	return &Message{tag: tag, source: source, destination: destination, metadata: metadata, payload: payload}
}

func (m *Message) Tag() Tag                  { return m.tag }
func (m *Message) Source() Peer              { return m.source }
func (m *Message) Destination() Peer         { return m.destination }
func (m *Message) Metadata() *Metadata       { return m.metadata }
func (m *Message) ModifyMetadata() *Metadata { return m.metadata }
func (m *Message) Payload() *Buffer          { return m.payload }
func (m *Message) Acquire()                  { m.payload.Acquire() }
func (m *Message) SetDestination(p Peer)     { m.destination = p }
func (m *Message) SetPayload(b *Buffer)      { m.payload = b }

// WithMetadata returns a shallow copy of m with metadata replaced -
// used by stages that must not mutate the incoming message's metadata in
// place before forwarding.
func (m *Message) WithMetadata(md *Metadata) *Message {
	return &Message{tag: m.tag, source: m.source, destination: m.destination, metadata: md, payload: m.payload}
}

// WithPayload returns a shallow copy of m with a new payload buffer.
func (m *Message) WithPayload(b *Buffer) *Message {
	return &Message{tag: m.tag, source: m.source, destination: m.destination, metadata: m.metadata, payload: b}
}

// ValidateField enforces the Field invariant: precision is single/double
// and the payload size is a multiple of sizeof(precision).
func (m *Message) ValidateField() error {
	if m.tag != Field {
		return nil
	}
	ps, err := m.metadata.String("precision")
	if err != nil {
		return cmn.NewMetadataMissing("precision")
	}
	prec, err := ParsePrecision(ps)
	if err != nil {
		return cmn.NewFieldError("invalid precision %q", ps)
	}
	if m.payload.Size()%prec.Sizeof() != 0 {
		return cmn.NewFieldError("payload size %d not a multiple of sizeof(%s)=%d",
			m.payload.Size(), prec, prec.Sizeof())
	}
	return nil
}

// Precision returns the Field's precision tag (caller must already know
// this is a Field message, e.g. after ValidateField).
func (m *Message) Precision() (Precision, error) {
	ps, err := m.metadata.String("precision")
	if err != nil {
		return PrecisionUnknown, err
	}
	return ParsePrecision(ps)
}

// Floats32/Floats64 reinterpret the payload as the matching slice type.
// The caller is responsible for having checked Precision() first.
func (m *Message) Floats32() []float32 {
	return bytesToFloat32(m.payload.Data())
}

func (m *Message) Floats64() []float64 {
	return bytesToFloat64(m.payload.Data())
}
