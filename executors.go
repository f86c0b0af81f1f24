// executors.go: Chain-order executors.
//
// One executor per chain order, selected by the classification computed at
// session setup. Executors report outcomes only through the operation
// status; an executor sets a failure status and returns, and the
// dispatcher marks untouched operations successful at the end.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package proteus

import (
	"crypto/cipher"
	"crypto/subtle"
)

// process executes one operation against a resolved session.
func (q *Queue) process(op *Operation, s *Session) {
	if op.Src == nil {
		op.Status = StatusInvalidArgs
		return
	}

	switch s.chain {
	case ChainCipherOnly:
		q.processCipher(op, s)

	case ChainAuthOnly:
		q.processAuth(op, s, op.Src, effectiveDst(op))

	case ChainCipherAuth:
		q.processCipher(op, s)
		if op.Status == StatusNotProcessed {
			dst := effectiveDst(op)
			if dst != op.Src && !copyPlaintextGap(op, dst) {
				op.Status = StatusInvalidArgs
				return
			}
			// The digest covers the destination, ciphered bytes included.
			q.processAuth(op, s, dst, dst)
		}

	case ChainAuthCipher:
		q.processAuth(op, s, op.Src, effectiveDst(op))
		if op.Status == StatusNotProcessed {
			q.processCipher(op, s)
		}

	case ChainCombined:
		q.processCombined(op, s)

	case ChainCipherBPI:
		q.processDocsisBPI(op, s)

	default:
		op.Status = StatusError
	}

	if op.Status == StatusNotProcessed {
		op.Status = StatusSuccess
	}
}

// effectiveDst resolves the output buffer: Dst when set, otherwise the
// operation is in-place on Src.
func effectiveDst(op *Operation) *Buffer {
	if op.Dst != nil {
		return op.Dst
	}
	return op.Src
}

// copyPlaintextGap copies the non-ciphered prefix of the auth range from
// source to destination for out-of-place chained operations, so the
// digest pass over the destination sees those bytes.
func copyPlaintextGap(op *Operation, dst *Buffer) bool {
	gap := op.Cipher.Offset - op.Auth.Offset
	if gap <= 0 {
		return true
	}
	bufPtr := getBuffer(gap)
	defer putBuffer(bufPtr)
	buf := *bufPtr
	if !op.Src.readAt(op.Auth.Offset, buf) {
		return false
	}
	return dst.writeAt(op.Auth.Offset, buf)
}

// processCipher runs the session's cipher over the operation's cipher
// range, in place or into the destination buffer at the same offsets.
func (q *Queue) processCipher(op *Operation, s *Session) {
	src := op.Src
	dst := effectiveDst(op)
	inplace := dst == src

	if op.Cipher.Offset < 0 || op.Cipher.Length < 0 ||
		op.Cipher.Offset+op.Cipher.Length > src.Len() {
		op.Status = StatusInvalidArgs
		return
	}
	if len(op.IV) < s.cipher.ivLen {
		op.Status = StatusInvalidArgs
		return
	}
	if !inplace && !dst.Contiguous() {
		op.Status = StatusError
		return
	}
	if s.cipher.mode == cipherModeDES3CTR && (!src.Contiguous() || !dst.Contiguous()) {
		op.Status = StatusError
		return
	}

	block := s.cipherBlockFor(q.id)
	iv := op.IV[:s.cipher.ivLen]

	var out []byte
	if !inplace {
		region, ok := dst.region(op.Cipher.Offset, op.Cipher.Length)
		if !ok {
			op.Status = StatusInvalidArgs
			return
		}
		out = region
	}

	var err error
	switch s.cipher.mode {
	case cipherModeBlock:
		if op.Cipher.Length%s.cipher.blockSize != 0 {
			op.Status = StatusError
			return
		}
		var mode cipher.BlockMode
		if s.cipher.direction == Encrypt {
			mode = cipher.NewCBCEncrypter(block, iv)
		} else {
			mode = cipher.NewCBCDecrypter(block, iv)
		}
		err = cipherUpdateBlocks(mode, src, op.Cipher.Offset, op.Cipher.Length, out, inplace)

	case cipherModeCTR, cipherModeDES3CTR:
		stream := cipher.NewCTR(block, iv)
		err = cipherUpdateStream(stream, src, op.Cipher.Offset, op.Cipher.Length, out, inplace)

	default:
		op.Status = StatusError
		return
	}
	if err != nil {
		op.Status = StatusError
	}
}

// processAuth computes the session's digest over the auth range of data.
// Generate writes the (possibly truncated) digest to the operation's
// digest location in digestDst; Verify compares it in constant time
// against the transmitted digest and reports a mismatch as an
// authentication failure, not a processing error.
func (q *Queue) processAuth(op *Operation, s *Session, data, digestDst *Buffer) {
	if op.Auth.Offset < 0 || op.Auth.Length < 0 ||
		op.Auth.Offset+op.Auth.Length > data.Len() {
		op.Status = StatusInvalidArgs
		return
	}

	ctx, err := s.authContextFor(q.id)
	if err != nil {
		op.Status = StatusError
		return
	}
	ctx.Reset()
	if err := digestUpdate(ctx, data, op.Auth.Offset, op.Auth.Length); err != nil {
		op.Status = StatusInvalidArgs
		return
	}
	sum := ctx.Sum(q.scratch[:0])
	dl := s.auth.digestLen

	if s.auth.operation == Verify {
		expected := make([]byte, dl)
		if !readDigest(op, op.Src, op.Auth.Offset+op.Auth.Length, expected) {
			op.Status = StatusInvalidArgs
			return
		}
		if subtle.ConstantTimeCompare(sum[:dl], expected) != 1 {
			op.Status = StatusAuthFailed
		}
		return
	}

	if !writeDigest(op, digestDst, op.Auth.Offset+op.Auth.Length, sum[:dl]) {
		op.Status = StatusInvalidArgs
	}
}

// readDigest reads len(d) transmitted digest bytes from the operation's
// digest location: the explicit Digest slice, or buf at off when no
// explicit location is given.
func readDigest(op *Operation, buf *Buffer, off int, d []byte) bool {
	if op.Digest != nil {
		if len(op.Digest) < len(d) {
			return false
		}
		copy(d, op.Digest)
		return true
	}
	return buf.readAt(off, d)
}

// writeDigest writes d to the operation's digest location: the explicit
// Digest slice, or buf at off when no explicit location is given.
func writeDigest(op *Operation, buf *Buffer, off int, d []byte) bool {
	if op.Digest != nil {
		if len(op.Digest) < len(d) {
			return false
		}
		copy(op.Digest, d)
		return true
	}
	return buf.writeAt(off, d)
}

// processCombined executes AEAD operations and AES-GMAC, which is GCM
// with the auth range fed as additional data and no cipher payload.
func (q *Queue) processCombined(op *Operation, s *Session) {
	dst := effectiveDst(op)
	if dst != op.Src && !dst.Contiguous() {
		op.Status = StatusError
		return
	}

	aead, err := s.aeadFor(q.id)
	if err != nil {
		op.Status = StatusError
		return
	}

	nonceLen := aead.NonceSize()
	if len(op.IV) < s.aead.ivSkip+nonceLen {
		op.Status = StatusInvalidArgs
		return
	}
	nonce := op.IV[s.aead.ivSkip : s.aead.ivSkip+nonceLen]

	if s.auth.mode == authModeGMAC {
		q.processGMAC(op, s, aead, nonce, dst)
		return
	}

	payload := op.Cipher
	if payload.Offset < 0 || payload.Length < 0 ||
		payload.Offset+payload.Length > op.Src.Len() {
		op.Status = StatusInvalidArgs
		return
	}

	var aad []byte
	if s.aead.aadLen > 0 {
		if len(op.AAD) < s.aead.aadSkip+s.aead.aadLen {
			op.Status = StatusInvalidArgs
			return
		}
		aad = op.AAD[s.aead.aadSkip : s.aead.aadSkip+s.aead.aadLen]
	}

	tagLen := s.aead.tagLen
	inPtr := getBuffer(payload.Length + tagLen)
	defer putBuffer(inPtr)
	outPtr := getBuffer(payload.Length + tagLen)
	defer putBuffer(outPtr)

	if s.direction == Encrypt {
		in := (*inPtr)[:payload.Length]
		if !op.Src.readAt(payload.Offset, in) {
			op.Status = StatusInvalidArgs
			return
		}
		sealed := aead.Seal((*outPtr)[:0], nonce, in, aad)
		if !dst.writeAt(payload.Offset, sealed[:payload.Length]) ||
			!writeDigest(op, dst, payload.Offset+payload.Length, sealed[payload.Length:]) {
			op.Status = StatusInvalidArgs
		}
		return
	}

	in := (*inPtr)[:payload.Length+tagLen]
	if !op.Src.readAt(payload.Offset, in[:payload.Length]) ||
		!readDigest(op, op.Src, payload.Offset+payload.Length, in[payload.Length:]) {
		op.Status = StatusInvalidArgs
		return
	}
	plain, err := aead.Open((*outPtr)[:0], nonce, in, aad)
	if err != nil {
		// Tag mismatch and decryption faults are indistinguishable by
		// construction; both report as authentication failure.
		op.Status = StatusAuthFailed
		return
	}
	if !dst.writeAt(payload.Offset, plain) {
		op.Status = StatusInvalidArgs
	}
}

// processGMAC authenticates the auth range without ciphering any payload.
// The session tag length may be truncated below the full 16 bytes, so
// Verify recomputes the tag and compares the truncated prefix in constant
// time instead of delegating to Open.
func (q *Queue) processGMAC(op *Operation, s *Session, aead cipher.AEAD, nonce []byte, dst *Buffer) {
	if op.Auth.Offset < 0 || op.Auth.Length < 0 ||
		op.Auth.Offset+op.Auth.Length > op.Src.Len() {
		op.Status = StatusInvalidArgs
		return
	}

	aadPtr := getBuffer(op.Auth.Length)
	defer putBuffer(aadPtr)
	aad := (*aadPtr)[:op.Auth.Length]
	if !op.Src.readAt(op.Auth.Offset, aad) {
		op.Status = StatusInvalidArgs
		return
	}

	tag := aead.Seal(q.scratch[:0], nonce, nil, aad)
	dl := s.auth.digestLen

	if s.auth.operation == Verify {
		expected := make([]byte, dl)
		if !readDigest(op, op.Src, op.Auth.Offset+op.Auth.Length, expected) {
			op.Status = StatusInvalidArgs
			return
		}
		if subtle.ConstantTimeCompare(tag[:dl], expected) != 1 {
			op.Status = StatusAuthFailed
		}
		return
	}

	if !writeDigest(op, dst, op.Auth.Offset+op.Auth.Length, tag[:dl]) {
		op.Status = StatusInvalidArgs
	}
}
