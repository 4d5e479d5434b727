package transport

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pierrec/lz4/v3"
	"github.com/tweska/multio/cmn"
	"github.com/tweska/multio/cmn/cos"
	"github.com/tweska/multio/core"
)

// Wire framing: [u32 total_size][header][metadata][payload], all
// integers little-endian. total_size covers everything after the leading
// u32 itself.
const wireVersion = 1

const (
	flagCompressed = 1 << 0
)

// EncodeFrame serializes msg per the wire framing. When compress is true
// the payload section is lz4-compressed and flagCompressed is set.
func EncodeFrame(w io.Writer, msg *core.Message, compress bool) error {
	mdBytes, err := msg.Metadata().MarshalBinary()
	if err != nil {
		return cmn.NewFieldError("marshal metadata: %v", err)
	}
	payload := msg.Payload().Data()
	origSize := len(payload)
	flags := byte(0)
	if compress && len(payload) > 0 {
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(payload); err != nil {
			return cmn.NewFieldError("lz4 compress: %v", err)
		}
		if err := zw.Close(); err != nil {
			return cmn.NewFieldError("lz4 compress: %v", err)
		}
		payload = buf.Bytes()
		flags |= flagCompressed
	}

	src, dst := msg.Source(), msg.Destination()
	body := new(growBuf)
	body.putU8(wireVersion)
	body.putU8(flags)
	body.putU8(uint8(msg.Tag()))
	body.putU8(0) // reserved

	body.putU32(uint32(len(src.Domain)))
	body.putBytes([]byte(src.Domain))
	body.putI32(int32(src.ID))

	body.putU32(uint32(len(dst.Domain)))
	body.putBytes([]byte(dst.Domain))
	body.putI32(int32(dst.ID))

	body.putU32(uint32(len(mdBytes)))
	body.putU64(uint64(len(payload)))
	body.putU64(uint64(origSize))

	body.putBytes(mdBytes)
	body.putBytes(payload)

	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(len(body.b)))
	if _, err := w.Write(sizeBuf[:]); err != nil {
		return cmn.NewTransportFailure("", err)
	}
	if _, err := w.Write(body.b); err != nil {
		return cmn.NewTransportFailure("", err)
	}
	return nil
}

// DecodeFrame reads and validates one frame, reconstructing a Message
// whose payload is an owned Buffer.
func DecodeFrame(r io.Reader) (*core.Message, error) {
	br := asByteReader(r)

	var sizeBuf [4]byte
	if _, err := io.ReadFull(br, sizeBuf[:]); err != nil {
		return nil, cmn.NewTransportFailure("", err)
	}
	total := binary.LittleEndian.Uint32(sizeBuf[:])
	body := make([]byte, total)
	if _, err := io.ReadFull(br, body); err != nil {
		return nil, cmn.NewTransportFailure("", err)
	}

	g := &getBuf{b: body}
	version := g.u8()
	if version != wireVersion {
		return nil, cmn.NewFieldError("unsupported wire version %d", version)
	}
	flags := g.u8()
	tag := core.Tag(g.u8())
	g.u8() // reserved

	// body is a freshly allocated, never-mutated-again buffer, so an
	// unsafe string view over its domain-name slices is sound and avoids
	// an extra copy per message.
	srcDomain := cos.UnsafeS(g.bytes(int(g.u32())))
	srcID := int(g.i32())
	dstDomain := cos.UnsafeS(g.bytes(int(g.u32())))
	dstID := int(g.i32())

	mdLen := g.u32()
	payloadLen := g.u64()
	origSize := g.u64()

	mdBytes := g.bytes(int(mdLen))
	payload := g.bytes(int(payloadLen))
	if g.err != nil {
		return nil, cmn.NewTransportFailure("", g.err)
	}

	if flags&flagCompressed != 0 {
		zr := lz4.NewReader(bytes.NewReader(payload))
		out := make([]byte, origSize)
		if _, err := io.ReadFull(zr, out); err != nil {
			return nil, cmn.NewFieldError("lz4 decompress: %v", err)
		}
		payload = out
	}

	md := core.NewMetadata()
	if len(mdBytes) > 0 {
		if err := md.UnmarshalBinary(mdBytes); err != nil {
			return nil, cmn.NewFieldError("unmarshal metadata: %v", err)
		}
	}

	msg := core.NewMessage(tag, core.NewPeer(srcDomain, srcID), core.NewPeer(dstDomain, dstID), md,
		core.NewOwnedBuffer(append([]byte(nil), payload...)))
	return msg, nil
}

func asByteReader(r io.Reader) io.Reader {
	if _, ok := r.(io.ByteReader); ok {
		return r
	}
	return bufio.NewReader(r)
}

// growBuf/getBuf are tiny little-endian cursor helpers kept local to this
// file to avoid pulling in a general-purpose binary codec for a format
// whose exact byte layout is load-bearing.

type growBuf struct{ b []byte }

func (g *growBuf) putU8(v uint8)   { g.b = append(g.b, v) }
func (g *growBuf) putBytes(v []byte) { g.b = append(g.b, v...) }
func (g *growBuf) putU32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	g.b = append(g.b, tmp[:]...)
}
func (g *growBuf) putI32(v int32) { g.putU32(uint32(v)) }
func (g *growBuf) putU64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	g.b = append(g.b, tmp[:]...)
}

type getBuf struct {
	b   []byte
	off int
	err error
}

func (g *getBuf) need(n int) []byte {
	if g.err != nil || g.off+n > len(g.b) {
		g.err = io.ErrUnexpectedEOF
		return make([]byte, n)
	}
	v := g.b[g.off : g.off+n]
	g.off += n
	return v
}

func (g *getBuf) u8() uint8        { return g.need(1)[0] }
func (g *getBuf) u32() uint32      { return binary.LittleEndian.Uint32(g.need(4)) }
func (g *getBuf) i32() int32       { return int32(g.u32()) }
func (g *getBuf) u64() uint64      { return binary.LittleEndian.Uint64(g.need(8)) }
func (g *getBuf) bytes(n int) []byte { return g.need(n) }
