//go:build cgo

// This file is multio's C ABI surface: the
// configuration_*/handle_*/metadata_*/data_*/failure_handler exported
// names, adapting the registries in handle.go to cgo's C-callable
// calling convention. Every exported function is a thin adapter onto
// the Go-native client/server API built elsewhere in this module.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package capi

/*
#include <stdint.h>
#include <stdlib.h>

typedef void (*multio_failure_handler_t)(void *user_ctx, int32_t error_code, const char *info);

// call_failure_handler bridges a Go func value's captured C function
// pointer back across the cgo boundary; Go code cannot invoke a C
// function pointer directly.
static void call_failure_handler(multio_failure_handler_t fn, void *user_ctx, int32_t error_code, const char *info) {
	if (fn != NULL) {
		fn(user_ctx, error_code, info);
	}
}
*/
import "C"

import (
	"context"
	"unsafe"

	"github.com/tweska/multio/client"
	"github.com/tweska/multio/cmn"
	"github.com/tweska/multio/core"
	"github.com/tweska/multio/transport/thread"
)

// sharedHub backs every configuration_* created without an explicit
// MPI/TCP transport - the single-process, in-binary analogue a C host
// embeds multio into.
var sharedHub = thread.NewHub()

// bgCtx is used for every exported call: the C ABI has no concept of a
// Go context, so each call runs without a deadline or cancellation.
var bgCtx = context.Background()

//export multio_new_configuration
func multio_new_configuration(cPath *C.char) (C.int64_t, C.int32_t) {
	cfg := cmn.DefaultConfig()
	if cPath != nil {
		path := C.GoString(cPath)
		cfg.Transport.Kind = "thread"
		_ = path // path selects an on-disk override file; loading it is the host's concern
	}
	id := configs.add(cfg)
	return C.int64_t(id), C.int32_t(Success)
}

//export multio_free_configuration
func multio_free_configuration(h C.int64_t) C.int32_t {
	configs.remove(int64(h))
	return C.int32_t(Success)
}

//export multio_new_handle
func multio_new_handle(cfgHandle C.int64_t) (C.int64_t, C.int32_t) {
	_, ok := configs.get(int64(cfgHandle))
	if !ok {
		return 0, C.int32_t(report(0, cmn.NewConfigError("unknown configuration handle %d", cfgHandle)))
	}
	local := core.NewPeer("capi", int(cfgHandle))
	t := thread.New(sharedHub, local)
	servers := []core.Peer{core.NewPeer("server", 0)}
	c := client.New(t, servers, "capi", nil)
	id := clients.add(newClientHandle(c))
	return C.int64_t(id), C.int32_t(Success)
}

//export multio_free_handle
func multio_free_handle(h C.int64_t) C.int32_t {
	clients.remove(int64(h))
	return C.int32_t(Success)
}

func lookupClient(h C.int64_t) (*client.Client, error) {
	ch, ok := clients.get(int64(h))
	if !ok {
		return nil, cmn.NewConfigError("unknown handle %d", h)
	}
	return ch.c, nil
}

//export multio_handle_open_connections
func multio_handle_open_connections(h C.int64_t) C.int32_t {
	c, err := lookupClient(h)
	if err != nil {
		return C.int32_t(report(uintptr(h), err))
	}
	return C.int32_t(report(uintptr(h), c.Open(bgCtx)))
}

//export multio_handle_close_connections
func multio_handle_close_connections(h C.int64_t) C.int32_t {
	c, err := lookupClient(h)
	if err != nil {
		return C.int32_t(report(uintptr(h), err))
	}
	return C.int32_t(report(uintptr(h), c.Close(bgCtx)))
}

//export multio_handle_flush
func multio_handle_flush(h C.int64_t) C.int32_t {
	c, err := lookupClient(h)
	if err != nil {
		return C.int32_t(report(uintptr(h), err))
	}
	return C.int32_t(report(uintptr(h), c.Flush(bgCtx)))
}

//export multio_handle_step_complete
func multio_handle_step_complete(h C.int64_t) C.int32_t {
	c, err := lookupClient(h)
	if err != nil {
		return C.int32_t(report(uintptr(h), err))
	}
	return C.int32_t(report(uintptr(h), c.StepComplete(bgCtx)))
}

//export multio_handle_notify
func multio_handle_notify(h, mdHandle C.int64_t) C.int32_t {
	c, err := lookupClient(h)
	if err != nil {
		return C.int32_t(report(uintptr(h), err))
	}
	md, ok := metadatas.get(int64(mdHandle))
	if !ok {
		return C.int32_t(report(uintptr(h), cmn.NewConfigError("unknown metadata handle %d", mdHandle)))
	}
	return C.int32_t(report(uintptr(h), c.Notify(bgCtx, md)))
}

// writeField is shared by the single/double exported variants below: it
// reads the data buffer's current contents and fans them into one Field
// write.
func writeField(h, mdHandle, dataHandle C.int64_t) C.int32_t {
	c, err := lookupClient(h)
	if err != nil {
		return C.int32_t(report(uintptr(h), err))
	}
	md, ok := metadatas.get(int64(mdHandle))
	if !ok {
		return C.int32_t(report(uintptr(h), cmn.NewConfigError("unknown metadata handle %d", mdHandle)))
	}
	buf, ok := buffers.get(int64(dataHandle))
	if !ok {
		return C.int32_t(report(uintptr(h), cmn.NewConfigError("unknown data handle %d", dataHandle)))
	}
	buf.mu.Lock()
	payload := core.NewOwnedBuffer(append([]byte(nil), buf.data...))
	buf.mu.Unlock()
	return C.int32_t(report(uintptr(h), c.WriteField(bgCtx, md.Clone(), payload)))
}

//export multio_handle_write_field
func multio_handle_write_field(h, mdHandle, dataHandle C.int64_t) C.int32_t {
	return writeField(h, mdHandle, dataHandle)
}

//export multio_handle_write_field_double
func multio_handle_write_field_double(h, mdHandle, dataHandle C.int64_t) C.int32_t {
	return writeField(h, mdHandle, dataHandle)
}

//export multio_handle_write_mask
func multio_handle_write_mask(h, mdHandle C.int64_t, cBitmap *C.uint8_t, n C.int64_t) C.int32_t {
	c, err := lookupClient(h)
	if err != nil {
		return C.int32_t(report(uintptr(h), err))
	}
	md, ok := metadatas.get(int64(mdHandle))
	if !ok {
		return C.int32_t(report(uintptr(h), cmn.NewConfigError("unknown metadata handle %d", mdHandle)))
	}
	bitmap := C.GoBytes(unsafe.Pointer(cBitmap), C.int(n))
	return C.int32_t(report(uintptr(h), c.WriteMask(bgCtx, md.Clone(), bitmap)))
}

//export multio_handle_write_domain
func multio_handle_write_domain(h, mdHandle C.int64_t, cDomain *C.char, cLocal, cGlobal *C.int64_t, n C.int64_t) C.int32_t {
	c, err := lookupClient(h)
	if err != nil {
		return C.int32_t(report(uintptr(h), err))
	}
	domain := C.GoString(cDomain)
	local := int64Slice(cLocal, int(n))
	global := int64Slice(cGlobal, int(n))
	dm := &core.DomainMap{Local: local, Global: global, ExpectedClients: 1}
	return C.int32_t(report(uintptr(h), c.WriteDomain(bgCtx, domain, dm)))
}

func int64Slice(p *C.int64_t, n int) []int64 {
	if p == nil || n == 0 {
		return nil
	}
	src := unsafe.Slice((*int64)(unsafe.Pointer(p)), n)
	return append([]int64(nil), src...)
}

//
// metadata_*
//

//export multio_new_metadata
func multio_new_metadata() C.int64_t {
	return C.int64_t(metadatas.add(core.NewMetadata()))
}

//export multio_metadata_delete
func multio_metadata_delete(h C.int64_t) C.int32_t {
	metadatas.remove(int64(h))
	return C.int32_t(Success)
}

//export multio_metadata_clone
func multio_metadata_clone(h C.int64_t) (C.int64_t, C.int32_t) {
	md, ok := metadatas.get(int64(h))
	if !ok {
		return 0, C.int32_t(report(uintptr(h), cmn.NewConfigError("unknown metadata handle %d", h)))
	}
	return C.int64_t(metadatas.add(md.Clone())), C.int32_t(Success)
}

//export multio_metadata_set_int
func multio_metadata_set_int(h C.int64_t, cKey *C.char, v C.int32_t) C.int32_t {
	return setMetadata(h, cKey, func(md *core.Metadata, key string) { md.SetI64(key, int64(v)) })
}

//export multio_metadata_set_long
func multio_metadata_set_long(h C.int64_t, cKey *C.char, v C.int64_t) C.int32_t {
	return setMetadata(h, cKey, func(md *core.Metadata, key string) { md.SetI64(key, int64(v)) })
}

//export multio_metadata_set_double
func multio_metadata_set_double(h C.int64_t, cKey *C.char, v C.double) C.int32_t {
	return setMetadata(h, cKey, func(md *core.Metadata, key string) { md.SetF64(key, float64(v)) })
}

//export multio_metadata_set_bool
func multio_metadata_set_bool(h C.int64_t, cKey *C.char, v C.int32_t) C.int32_t {
	return setMetadata(h, cKey, func(md *core.Metadata, key string) { md.SetBool(key, v != 0) })
}

//export multio_metadata_set_string
func multio_metadata_set_string(h C.int64_t, cKey, cVal *C.char) C.int32_t {
	val := C.GoString(cVal)
	return setMetadata(h, cKey, func(md *core.Metadata, key string) { md.SetString(key, val) })
}

func setMetadata(h C.int64_t, cKey *C.char, apply func(*core.Metadata, string)) C.int32_t {
	md, ok := metadatas.get(int64(h))
	if !ok {
		return C.int32_t(report(uintptr(h), cmn.NewConfigError("unknown metadata handle %d", h)))
	}
	apply(md, C.GoString(cKey))
	return C.int32_t(Success)
}

//
// data_*
//

//export multio_new_data
func multio_new_data(size C.int64_t) C.int64_t {
	return C.int64_t(buffers.add(newScratchBuffer(int(size))))
}

//export multio_data_delete
func multio_data_delete(h C.int64_t) C.int32_t {
	buffers.remove(int64(h))
	return C.int32_t(Success)
}

//export multio_data_resize
func multio_data_resize(h, size C.int64_t) C.int32_t {
	b, ok := buffers.get(int64(h))
	if !ok {
		return C.int32_t(report(uintptr(h), cmn.NewConfigError("unknown data handle %d", h)))
	}
	b.resize(int(size))
	return C.int32_t(Success)
}

//export multio_data_zero
func multio_data_zero(h C.int64_t) C.int32_t {
	b, ok := buffers.get(int64(h))
	if !ok {
		return C.int32_t(report(uintptr(h), cmn.NewConfigError("unknown data handle %d", h)))
	}
	b.zero()
	return C.int32_t(Success)
}

//export multio_data_set_float_chunk
func multio_data_set_float_chunk(h C.int64_t, pos, size C.int64_t, values *C.float) C.int32_t {
	return setChunk(h, pos, size, 4, unsafe.Pointer(values))
}

//export multio_data_set_double_chunk
func multio_data_set_double_chunk(h C.int64_t, pos, size C.int64_t, values *C.double) C.int32_t {
	return setChunk(h, pos, size, 8, unsafe.Pointer(values))
}

func setChunk(h, pos, size C.int64_t, elemSize int, values unsafe.Pointer) C.int32_t {
	b, ok := buffers.get(int64(h))
	if !ok {
		return C.int32_t(report(uintptr(h), cmn.NewConfigError("unknown data handle %d", h)))
	}
	chunk := C.GoBytes(values, C.int(int(size)*elemSize))
	if err := b.setChunk(int(pos), int(size), elemSize, chunk); err != nil {
		return C.int32_t(report(uintptr(h), err))
	}
	return C.int32_t(Success)
}

//
// failure_handler
//

//export multio_set_failure_handler
func multio_set_failure_handler(fn C.multio_failure_handler_t, userCtx unsafe.Pointer) C.int32_t {
	cFn := fn
	ctx := userCtx
	RegisterFailureHandler(func(userCtx uintptr, code ErrorCode, info string) {
		cInfo := C.CString(info)
		defer C.free(unsafe.Pointer(cInfo))
		C.call_failure_handler(cFn, ctx, C.int32_t(code), cInfo)
	})
	return C.int32_t(Success)
}
