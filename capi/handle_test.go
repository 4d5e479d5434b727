package capi

import "testing"

// The bounds check must be the strict (pos+size)*sizeof(T) <= bufferSize,
// not pos*sizeof(T) < size (which ignores size elements past pos).
func TestSetChunkRejectsWriteThatRunsPastBufferEnd(t *testing.T) {
	b := newScratchBuffer(8) // room for 2 float64-sized elements
	chunk := make([]byte, 16)

	// pos=1, size=2, elemSize=8: (1+2)*8=24 > 8 must be rejected even
	// though the looser pos*elemSize=8 < size(=16 bytes) check would pass.
	if err := b.setChunk(1, 2, 8, chunk); err == nil {
		t.Fatal("expected an error for a chunk write that overruns the buffer")
	}
}

func TestSetChunkAcceptsWriteExactlyFillingBuffer(t *testing.T) {
	b := newScratchBuffer(16)
	chunk := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	if err := b.setChunk(1, 1, 8, chunk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.data[8] != 1 || b.data[15] != 8 {
		t.Fatalf("chunk not written at expected offset: %v", b.data)
	}
}

func TestSetChunkRejectsNegativeArgs(t *testing.T) {
	b := newScratchBuffer(8)
	if err := b.setChunk(-1, 1, 8, make([]byte, 8)); err == nil {
		t.Fatal("expected an error for a negative pos")
	}
}

func TestResizeGrowsAndShrinksPreservingPrefix(t *testing.T) {
	b := newScratchBuffer(4)
	b.data[0] = 9
	b.resize(8)
	if len(b.data) != 8 || b.data[0] != 9 {
		t.Fatalf("resize did not grow while preserving prefix: %v", b.data)
	}
	b.resize(2)
	if len(b.data) != 2 || b.data[0] != 9 {
		t.Fatalf("resize did not shrink while preserving prefix: %v", b.data)
	}
}

func TestZeroClearsBuffer(t *testing.T) {
	b := newScratchBuffer(4)
	for i := range b.data {
		b.data[i] = 0xFF
	}
	b.zero()
	for i, v := range b.data {
		if v != 0 {
			t.Fatalf("byte %d not cleared: %v", i, b.data)
		}
	}
}
