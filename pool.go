// pool.go: Buffer pooling optimized for cryptographic operations
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package proteus

import (
	"sync"
)

var (
	// Buffer pools optimized for different sizes to reduce GC pressure
	smallBufferPool = sync.Pool{
		New: func() interface{} {
			buf := make([]byte, 64) // Buffer sized for carry blocks (16 bytes) and digests (up to 64 bytes)
			return &buf
		},
	}

	mediumBufferPool = sync.Pool{
		New: func() interface{} {
			buf := make([]byte, 512) // Buffer optimized for medium-sized payloads
			return &buf
		},
	}

	largeBufferPool = sync.Pool{
		New: func() interface{} {
			buf := make([]byte, 4*1024) // Buffer optimized for large payloads, reduced for better cache locality
			return &buf
		},
	}
)

// init function for automatic warm-up of pools to eliminate cold start latency
func init() {
	// Pre-warm pools to reduce first-access latency in production
	// Use conservative count to avoid impacting startup time
	WarmupPools(4)
}

// getBuffer retrieves a buffer from the appropriate pool based on size
func getBuffer(size int) *[]byte {
	switch {
	case size <= 64:
		buf := smallBufferPool.Get().(*[]byte)
		*buf = (*buf)[:size] // Slice to requested size to avoid clear overhead
		return buf
	case size <= 512:
		buf := mediumBufferPool.Get().(*[]byte)
		*buf = (*buf)[:size] // Slice to requested size to avoid clear overhead
		return buf
	case size <= 4*1024:
		buf := largeBufferPool.Get().(*[]byte)
		*buf = (*buf)[:size] // Slice to requested size to avoid clear overhead
		return buf
	default:
		// For very large sizes, allocate directly
		buf := make([]byte, size)
		return &buf
	}
}

// clearBuffer optimizes zeroing for cache locality
func clearBuffer(buf []byte) {
	// For small buffers use range loop which is more cache friendly
	if len(buf) <= 64 {
		for i := range buf {
			buf[i] = 0
		}
		return
	}

	// For large buffers use unrolled loop for better throughput on cache line (64 bytes)
	i := 0
	for i < len(buf)-7 {
		// Unroll 8 operations for cache line optimization
		buf[i] = 0
		buf[i+1] = 0
		buf[i+2] = 0
		buf[i+3] = 0
		buf[i+4] = 0
		buf[i+5] = 0
		buf[i+6] = 0
		buf[i+7] = 0
		i += 8
	}
	// Handle remainder
	for i < len(buf) {
		buf[i] = 0
		i++
	}
}

// putBuffer returns a buffer to the appropriate pool - cleared first so
// plaintext and key material never linger in pooled memory
func putBuffer(buf *[]byte) {
	if buf == nil {
		return
	}

	// Micro optimization: skip clear for buffer with capacity but zero length (unused)
	if len(*buf) > 0 {
		clearBuffer(*buf)
	}

	size := cap(*buf)
	switch size {
	case 64:
		smallBufferPool.Put(buf)
	case 512:
		mediumBufferPool.Put(buf)
	case 4 * 1024:
		largeBufferPool.Put(buf)
		// Non-standard sizes are not returned to the pool
	}
}

// WarmupPools pre allocates buffers in the pools to reduce cold latency
func WarmupPools(count int) {
	smallBufs := make([]*[]byte, count)
	mediumBufs := make([]*[]byte, count)
	largeBufs := make([]*[]byte, count)

	// Allocates using the wrapper functions that handle type assertions
	for i := 0; i < count; i++ {
		smallBufs[i] = getBuffer(64)
		mediumBufs[i] = getBuffer(512)
		largeBufs[i] = getBuffer(4 * 1024)
	}

	// Returns the buffers to the pools using the helper functions
	for i := 0; i < count; i++ {
		putBuffer(smallBufs[i])
		putBuffer(mediumBufs[i])
		putBuffer(largeBufs[i])
	}
}
