// stream.go: Segmented stream engine.
//
// Streams cipher and digest updates across segment boundaries with
// exact-once byte accounting. The in-place block path handles cipher
// blocks that physically straddle segments: the straddling bytes are
// gathered into a carry block, transformed once, and scattered back to the
// recorded source positions, so ciphertext is identical regardless of
// segmentation.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package proteus

import (
	"crypto/cipher"
	"errors"
	"hash"
)

var (
	errRangeOutOfBounds = errors.New("range exceeds buffer length")
	errNotBlockAligned  = errors.New("range is not block aligned")
)

// cipherUpdateBlocks runs a block mode over src[offset:offset+length].
// When inplace is true the transform writes back into the source segments;
// otherwise the range is gathered into out, which must be contiguous and
// at least length bytes, and transformed there. length must be a multiple
// of the mode's block size.
func cipherUpdateBlocks(mode cipher.BlockMode, src *Buffer, offset, length int, out []byte, inplace bool) error {
	if length == 0 {
		return nil
	}
	bs := mode.BlockSize()
	if length%bs != 0 {
		return errNotBlockAligned
	}
	if offset < 0 || offset+length > src.Len() {
		return errRangeOutOfBounds
	}

	if !inplace {
		dst := out[:length]
		if !src.readAt(offset, dst) {
			return errRangeOutOfBounds
		}
		mode.CryptBlocks(dst, dst)
		return nil
	}

	seg, at, ok := src.seek(offset)
	if !ok {
		return errRangeOutOfBounds
	}

	carryPtr := getBuffer(bs)
	defer putBuffer(carryPtr)
	carry := *carryPtr
	carryN := 0
	// Destination slices for the bytes currently parked in the carry
	// block; a block can straddle more than two segments when segments
	// are smaller than the block size.
	var carryDsts [][]byte

	remaining := length
	for remaining > 0 {
		if seg == nil {
			return errRangeOutOfBounds
		}
		avail := len(seg.data) - at
		if avail > remaining {
			avail = remaining
		}
		chunk := seg.data[at : at+avail]

		if carryN > 0 {
			n := copy(carry[carryN:], chunk)
			carryDsts = append(carryDsts, chunk[:n])
			carryN += n
			chunk = chunk[n:]
			remaining -= n
			if carryN == bs {
				mode.CryptBlocks(carry, carry)
				scattered := carry
				for _, d := range carryDsts {
					copy(d, scattered[:len(d)])
					scattered = scattered[len(d):]
				}
				carryDsts = carryDsts[:0]
				carryN = 0
			}
		}

		if carryN == 0 && len(chunk) > 0 {
			whole := len(chunk) / bs * bs
			if whole > 0 {
				mode.CryptBlocks(chunk[:whole], chunk[:whole])
				remaining -= whole
				chunk = chunk[whole:]
			}
			if len(chunk) > 0 {
				// Trailing partial block of this segment: park it and
				// remember where its transformed bytes belong.
				copy(carry, chunk)
				carryDsts = append(carryDsts, chunk)
				carryN = len(chunk)
				remaining -= len(chunk)
			}
		}

		seg = seg.next
		at = 0
	}
	if carryN != 0 {
		return errNotBlockAligned
	}
	return nil
}

// cipherUpdateStream runs a keystream cipher over src[offset:offset+length].
// Stream ciphers have no block alignment requirement so segment boundaries
// need no carry handling.
func cipherUpdateStream(stream cipher.Stream, src *Buffer, offset, length int, out []byte, inplace bool) error {
	if length == 0 {
		return nil
	}
	if offset < 0 || offset+length > src.Len() {
		return errRangeOutOfBounds
	}

	if !inplace {
		dst := out[:length]
		if !src.readAt(offset, dst) {
			return errRangeOutOfBounds
		}
		stream.XORKeyStream(dst, dst)
		return nil
	}

	seg, at, ok := src.seek(offset)
	if !ok {
		return errRangeOutOfBounds
	}
	remaining := length
	for remaining > 0 {
		if seg == nil {
			return errRangeOutOfBounds
		}
		avail := len(seg.data) - at
		if avail > remaining {
			avail = remaining
		}
		chunk := seg.data[at : at+avail]
		stream.XORKeyStream(chunk, chunk)
		remaining -= avail
		seg = seg.next
		at = 0
	}
	return nil
}

// digestUpdate feeds src[offset:offset+length] into a hash context,
// segment by segment.
func digestUpdate(h hash.Hash, src *Buffer, offset, length int) error {
	if length == 0 {
		return nil
	}
	if offset < 0 || offset+length > src.Len() {
		return errRangeOutOfBounds
	}
	seg, at, ok := src.seek(offset)
	if !ok {
		return errRangeOutOfBounds
	}
	remaining := length
	for remaining > 0 {
		if seg == nil {
			return errRangeOutOfBounds
		}
		avail := len(seg.data) - at
		if avail > remaining {
			avail = remaining
		}
		h.Write(seg.data[at : at+avail])
		remaining -= avail
		seg = seg.next
		at = 0
	}
	return nil
}
