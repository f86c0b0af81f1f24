// docsis.go: DOCSIS BPI chained cipher mode.
//
// BPI combines CBC over the block-aligned prefix with ECB-derived
// whitening of the trailing partial block. The whitening keystream is the
// block encryption of the previous ciphertext block: the last CBC output
// block on encrypt, the last transmitted full ciphertext block on
// decrypt, and the IV itself when the payload is shorter than one block.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package proteus

import "crypto/cipher"

// bpiWhiten XORs src into dst through the block encryption of prev.
// len(src) may be shorter than the block size; prev must be exactly one
// block.
func bpiWhiten(block cipher.Block, prev, src, dst []byte) {
	ksPtr := getBuffer(block.BlockSize())
	defer putBuffer(ksPtr)
	ks := *ksPtr
	block.Encrypt(ks, prev)
	for i := range src {
		dst[i] = src[i] ^ ks[i]
	}
}

// processDocsisBPI executes the chained special mode. Both buffers must be
// contiguous across the cipher range; the mode interleaves CBC state with
// raw block access in a way the segment walker cannot express.
func (q *Queue) processDocsisBPI(op *Operation, s *Session) {
	if op.Cipher.Offset < 0 || op.Cipher.Length < 0 ||
		op.Cipher.Offset+op.Cipher.Length > op.Src.Len() {
		op.Status = StatusInvalidArgs
		return
	}
	if len(op.IV) < s.cipher.ivLen {
		op.Status = StatusInvalidArgs
		return
	}

	dst := effectiveDst(op)
	srcR, srcOK := op.Src.region(op.Cipher.Offset, op.Cipher.Length)
	dstR, dstOK := dst.region(op.Cipher.Offset, op.Cipher.Length)
	if !srcOK || !dstOK {
		op.Status = StatusError
		return
	}
	if op.Cipher.Length == 0 {
		return
	}

	block := s.cipherBlockFor(q.id)
	bs := s.cipher.blockSize
	iv := op.IV[:bs]
	length := op.Cipher.Length

	if length < bs {
		bpiWhiten(block, iv, srcR, dstR)
		return
	}

	aligned := length &^ (bs - 1)
	trailing := length - aligned

	if s.cipher.direction == Encrypt {
		mode := cipher.NewCBCEncrypter(block, iv)
		mode.CryptBlocks(dstR[:aligned], srcR[:aligned])
		if trailing > 0 {
			// Whitening keys off the ciphertext block just produced.
			bpiWhiten(block, dstR[aligned-bs:aligned], srcR[aligned:], dstR[aligned:])
		}
		return
	}

	// Decrypt whitens the trailing bytes before CBC runs, while the last
	// transmitted full ciphertext block is still intact in the source.
	if trailing > 0 {
		bpiWhiten(block, srcR[aligned-bs:aligned], srcR[aligned:], dstR[aligned:])
	}
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(dstR[:aligned], srcR[:aligned])
}
