// segbuf_test.go: Test cases for segmented buffers.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package proteus_test

import (
	"bytes"
	"testing"

	"github.com/agilira/proteus"
)

func TestBufferBasics(t *testing.T) {
	b := proteus.NewBuffer([]byte{1, 2, 3}, []byte{4, 5})
	if b.Len() != 5 {
		t.Errorf("Len: got %d, want 5", b.Len())
	}
	if b.Segments() != 2 {
		t.Errorf("Segments: got %d, want 2", b.Segments())
	}
	if b.Contiguous() {
		t.Error("two-segment buffer reported contiguous")
	}
	if !bytes.Equal(b.Bytes(), []byte{1, 2, 3, 4, 5}) {
		t.Errorf("Bytes: got %v", b.Bytes())
	}
}

func TestBufferSkipsEmptySegments(t *testing.T) {
	b := proteus.NewBuffer(nil, []byte{9}, []byte{}, []byte{8, 7})
	if b.Segments() != 2 {
		t.Errorf("Segments: got %d, want 2", b.Segments())
	}
	if !bytes.Equal(b.Bytes(), []byte{9, 8, 7}) {
		t.Errorf("Bytes: got %v", b.Bytes())
	}
}

func TestBufferEmpty(t *testing.T) {
	b := proteus.NewBuffer()
	if b.Len() != 0 {
		t.Errorf("Len: got %d, want 0", b.Len())
	}
	if !b.Contiguous() {
		t.Error("empty buffer should report contiguous")
	}
	if b.Bytes() != nil {
		t.Errorf("Bytes: got %v, want nil", b.Bytes())
	}
}

func TestBufferSharesCallerMemory(t *testing.T) {
	backing := []byte{1, 2, 3, 4}
	b := proteus.NewBuffer(backing)
	backing[0] = 42
	if b.Bytes()[0] != 42 {
		t.Error("buffer should alias caller memory, not copy it")
	}
}
