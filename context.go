// context.go: Per-queue context cache, clone protocol and capability table.
//
// Mutable crypto state (hash contexts, keyed MACs) must never be shared
// across worker queues mid-operation. Sessions used by a single queue run
// on their primary context; sessions shared across queues lazily populate
// one private slot per queue, cloned from the primary when the primitive
// supports state snapshots and rebuilt from key material when it does not.
// The capability table is probed once per engine lifetime.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package proteus

import (
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding"
	"hash"
	"sync"
)

// queueContext is one worker queue's private slot of mutable crypto state
// for a shared session. Slots are populated lazily on first use by that
// queue and never touched by any other queue.
type queueContext struct {
	block cipher.Block
	hash  hash.Hash
	aead  cipher.AEAD
}

// capabilities records which primitive states support snapshot cloning.
// Primitives that cannot be snapshotted fall back to a rebuild from key
// material, which costs a key schedule but is always correct.
type capabilities struct {
	digestClone bool // plain digest states snapshot via BinaryMarshaler
	macClone    bool // keyed MAC states snapshot via BinaryMarshaler
}

var (
	runtimeMu   sync.Mutex
	runtimeRefs int
	runtimeCaps capabilities
)

// startupRuntime probes the capability table on the first engine and
// reference-counts subsequent ones. Safe to call from concurrent New.
func startupRuntime() capabilities {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if runtimeRefs == 0 {
		runtimeCaps = detectCapabilities()
	}
	runtimeRefs++
	return runtimeCaps
}

// shutdownRuntime drops one engine reference. Extra calls are ignored so
// double Close is harmless.
func shutdownRuntime() {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if runtimeRefs > 0 {
		runtimeRefs--
	}
}

// detectCapabilities probes representative primitive states for snapshot
// support instead of trusting library version numbers.
func detectCapabilities() capabilities {
	var caps capabilities
	if _, ok := sha256.New().(encoding.BinaryMarshaler); ok {
		caps.digestClone = true
	}
	probeKey := make([]byte, sha256.BlockSize)
	if _, ok := hmac.New(sha256.New, probeKey).(encoding.BinaryMarshaler); ok {
		caps.macClone = true
	}
	return caps
}

// snapshotHash clones a hash context by round-tripping its serialized
// state into a fresh context of the same construction.
func snapshotHash(src hash.Hash, fresh hash.Hash) (hash.Hash, bool) {
	m, ok := src.(encoding.BinaryMarshaler)
	if !ok {
		return nil, false
	}
	u, ok := fresh.(encoding.BinaryUnmarshaler)
	if !ok {
		return nil, false
	}
	state, err := m.MarshalBinary()
	if err != nil {
		return nil, false
	}
	if err := u.UnmarshalBinary(state); err != nil {
		return nil, false
	}
	return fresh, true
}

// cipherBlockFor returns the cipher block for the given queue. Block
// cipher key schedules are immutable after setup, so slots share the
// primary by reference; the slot exists so every context kind resolves
// through the same cache.
func (s *Session) cipherBlockFor(queue int) cipher.Block {
	if s.qpCtx == nil {
		return s.cipher.block
	}
	slot := &s.qpCtx[queue]
	if slot.block == nil {
		slot.block = s.cipher.block
	}
	return slot.block
}

// authContextFor returns the hash context for the given queue, cloning or
// rebuilding into the queue's slot on first use. The caller owns resetting
// the context before each operation.
func (s *Session) authContextFor(queue int) (hash.Hash, error) {
	if s.qpCtx == nil {
		return s.auth.primary, nil
	}
	slot := &s.qpCtx[queue]
	if slot.hash != nil {
		return slot.hash, nil
	}
	h, err := s.cloneAuthContext()
	if err != nil {
		return nil, err
	}
	slot.hash = h
	return h, nil
}

// cloneAuthContext produces a private copy of the primary auth context:
// a state snapshot when the capability table allows it, otherwise a
// rebuild from key material.
func (s *Session) cloneAuthContext() (hash.Hash, error) {
	canClone := s.caps.digestClone
	if s.auth.mode == authModeHMAC || s.auth.mode == authModeCMAC {
		canClone = s.caps.macClone
	}
	fresh, err := s.auth.newHash()
	if err != nil {
		return nil, err
	}
	if canClone && s.auth.primary != nil {
		if h, ok := snapshotHash(s.auth.primary, fresh); ok {
			return h, nil
		}
	}
	return fresh, nil
}

// aeadFor returns the AEAD for the given queue. Every supported AEAD is
// immutable after construction, so slots share the primary by reference.
func (s *Session) aeadFor(queue int) (cipher.AEAD, error) {
	if s.qpCtx == nil {
		return s.aead.primary, nil
	}
	slot := &s.qpCtx[queue]
	if slot.aead == nil {
		slot.aead = s.aead.primary
	}
	return slot.aead, nil
}
