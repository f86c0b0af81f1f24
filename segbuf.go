// segbuf.go: Segmented buffer type and offset resolution.
//
// A Buffer presents one logical byte range over a chain of physically
// separate segments, without copying. The stream engine walks segments
// directly; these helpers only resolve offsets and move bytes for the
// cases that genuinely need a contiguous view.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package proteus

// Segment is one physically contiguous piece of a Buffer.
type Segment struct {
	data []byte
	next *Segment
}

// Buffer is an ordered chain of segments presenting a single logical
// contiguous byte range. Offsets are logical: offset 0 is the first byte
// of the first segment and offsets increase across segment boundaries.
//
// A Buffer does not own its segment data; callers keep ownership of the
// byte slices passed to NewBuffer and transforms write through to them.
type Buffer struct {
	head   *Segment
	length int
	nsegs  int
}

// NewBuffer builds a Buffer over the given byte slices without copying.
// Zero-length slices are skipped. A Buffer over no bytes is valid and has
// length zero.
func NewBuffer(segments ...[]byte) *Buffer {
	b := &Buffer{}
	var tail *Segment
	for _, s := range segments {
		if len(s) == 0 {
			continue
		}
		seg := &Segment{data: s}
		if tail == nil {
			b.head = seg
		} else {
			tail.next = seg
		}
		tail = seg
		b.length += len(s)
		b.nsegs++
	}
	return b
}

// Len returns the total logical length of the buffer in bytes.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return b.length
}

// Segments returns the number of physical segments.
func (b *Buffer) Segments() int {
	if b == nil {
		return 0
	}
	return b.nsegs
}

// Contiguous reports whether the buffer is backed by at most one segment.
func (b *Buffer) Contiguous() bool {
	return b.Segments() <= 1
}

// seek resolves a logical offset to the segment containing it and the
// intra-segment index. Returns false when the offset is out of range. An
// offset equal to Len resolves only for an empty remainder and fails.
func (b *Buffer) seek(offset int) (*Segment, int, bool) {
	if b == nil || offset < 0 || offset >= b.length {
		return nil, 0, false
	}
	seg := b.head
	for seg != nil {
		if offset < len(seg.data) {
			return seg, offset, true
		}
		offset -= len(seg.data)
		seg = seg.next
	}
	return nil, 0, false
}

// region returns the in-place byte slice covering [offset, offset+length)
// when that range lies within a single segment. Returns false when the
// range is out of bounds or straddles a segment boundary.
func (b *Buffer) region(offset, length int) ([]byte, bool) {
	if length < 0 || offset < 0 || offset+length > b.Len() {
		return nil, false
	}
	if length == 0 {
		return nil, true
	}
	seg, at, ok := b.seek(offset)
	if !ok || at+length > len(seg.data) {
		return nil, false
	}
	return seg.data[at : at+length], true
}

// readAt copies len(p) bytes starting at the logical offset into p,
// crossing segment boundaries as needed. Returns false when the range is
// out of bounds.
func (b *Buffer) readAt(offset int, p []byte) bool {
	if len(p) == 0 {
		return offset >= 0 && offset <= b.Len()
	}
	seg, at, ok := b.seek(offset)
	if !ok || offset+len(p) > b.Len() {
		return false
	}
	for len(p) > 0 {
		n := copy(p, seg.data[at:])
		p = p[n:]
		seg = seg.next
		at = 0
	}
	return true
}

// writeAt copies p into the buffer starting at the logical offset,
// crossing segment boundaries as needed. Returns false when the range is
// out of bounds.
func (b *Buffer) writeAt(offset int, p []byte) bool {
	if len(p) == 0 {
		return offset >= 0 && offset <= b.Len()
	}
	seg, at, ok := b.seek(offset)
	if !ok || offset+len(p) > b.Len() {
		return false
	}
	for len(p) > 0 {
		n := copy(seg.data[at:], p)
		p = p[n:]
		seg = seg.next
		at = 0
	}
	return true
}

// Bytes returns a copy of the full logical contents. Intended for tests
// and diagnostics; the hot paths never materialize the buffer.
func (b *Buffer) Bytes() []byte {
	if b.Len() == 0 {
		return nil
	}
	out := make([]byte, b.Len())
	n := 0
	for seg := b.head; seg != nil; seg = seg.next {
		n += copy(out[n:], seg.data)
	}
	return out
}
