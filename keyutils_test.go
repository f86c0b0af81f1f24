// keyutils_test.go: Test cases for key and IV utilities.
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

func TestGenerateKey(t *testing.T) {
	for _, size := range []int{8, 16, 24, 32} {
		key, err := proteus.GenerateKey(size)
		if err != nil {
			t.Fatalf("GenerateKey(%d): %v", size, err)
		}
		if len(key) != size {
			t.Errorf("GenerateKey(%d): got %d bytes", size, len(key))
		}
	}

	if _, err := proteus.GenerateKey(0); err == nil {
		t.Error("GenerateKey(0) should fail")
	}

	a, _ := proteus.GenerateKey(32)
	b, _ := proteus.GenerateKey(32)
	if bytes.Equal(a, b) {
		t.Error("two generated keys should not be equal")
	}
}

func TestGenerateIV(t *testing.T) {
	iv, err := proteus.GenerateIV(16)
	if err != nil {
		t.Fatalf("GenerateIV: %v", err)
	}
	if len(iv) != 16 {
		t.Errorf("GenerateIV(16): got %d bytes", len(iv))
	}
	if _, err := proteus.GenerateIV(-1); err == nil {
		t.Error("GenerateIV(-1) should fail")
	}
}

func TestZeroize(t *testing.T) {
	key, err := proteus.GenerateKey(32)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	proteus.Zeroize(key)
	for i, b := range key {
		if b != 0 {
			t.Errorf("byte %d not zeroized", i)
		}
	}
}
