package capi

import (
	"sync"
	"sync/atomic"

	"github.com/tweska/multio/client"
	"github.com/tweska/multio/cmn"
	"github.com/tweska/multio/cmn/cos"
	"github.com/tweska/multio/core"
)

// handles maps integer handles (the only thing safely passed across the
// cgo boundary long-term) to the Go objects a procedural C host manipulates:
// client.Client instances, in-progress core.Metadata builders, and scratch
// data buffers. One registry per object kind, matching the distinct
// configuration_*/handle_*/metadata_*/data_* namespaces.
type registry[T any] struct {
	mu   sync.RWMutex
	objs map[int64]T
	next int64
}

func newRegistry[T any]() *registry[T] { return &registry[T]{objs: make(map[int64]T)} }

func (r *registry[T]) add(v T) int64 {
	id := atomic.AddInt64(&r.next, 1)
	r.mu.Lock()
	r.objs[id] = v
	r.mu.Unlock()
	return id
}

func (r *registry[T]) get(id int64) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.objs[id]
	return v, ok
}

func (r *registry[T]) remove(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.objs, id)
}

var (
	clients   = newRegistry[*clientHandle]()
	metadatas = newRegistry[*core.Metadata]()
	buffers   = newRegistry[*scratchBuffer]()
	configs   = newRegistry[*cmn.Config]()
)

func init() {
	cos.InitShortID(uint64(clientHandleSeed))
}

// clientHandleSeed seeds cos.GenUUID's shortid generator. Fixed rather
// than time-derived since the C-ABI surface must not depend on
// wall-clock/random sources (disallowed host-side in deterministic test
// harnesses); uniqueness across handles comes from shortid's own
// internal counter, not from this seed.
const clientHandleSeed = 0x6d756c74696f00

// clientHandle pairs the registry's int64 handle with a short,
// human-loggable correlation id (cos.GenUUID) so host-side log lines and
// diagnostics can name a specific client instance without printing the
// raw integer.
type clientHandle struct {
	uuid string
	c    *client.Client
}

func newClientHandle(c *client.Client) *clientHandle {
	return &clientHandle{uuid: cos.GenUUID(), c: c}
}

// scratchBuffer is the data_* family's allocate/resize/zero/set-chunk
// target.
type scratchBuffer struct {
	mu   sync.Mutex
	data []byte
}

func newScratchBuffer(size int) *scratchBuffer {
	return &scratchBuffer{data: make([]byte, size)}
}

func (b *scratchBuffer) resize(size int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if size <= len(b.data) {
		b.data = b.data[:size]
		return
	}
	grown := make([]byte, size)
	copy(grown, b.data)
	b.data = grown
}

func (b *scratchBuffer) zero() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.data {
		b.data[i] = 0
	}
}

// setChunk writes chunk at byte offset pos*elemSize, enforcing
// (pos+size)*sizeof(T) <= bufferSize so a chunk can never run past the
// buffer end.
func (b *scratchBuffer) setChunk(pos, size, elemSize int, chunk []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pos < 0 || size < 0 || elemSize <= 0 {
		return cmn.NewFieldError("data_set_chunk: negative pos/size or non-positive elemSize")
	}
	end := (pos + size) * elemSize
	if end > len(b.data) {
		return cmn.NewFieldError("data_set_chunk: (pos+size)*sizeof(T)=%d exceeds buffer size %d", end, len(b.data))
	}
	start := pos * elemSize
	if len(chunk) < size*elemSize {
		return cmn.NewFieldError("data_set_chunk: chunk shorter than size*sizeof(T)")
	}
	copy(b.data[start:end], chunk[:size*elemSize])
	return nil
}
