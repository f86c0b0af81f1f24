// pool_test.go: Test cases for buffer pool warm-up.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package proteus_test

import (
	"testing"

	"github.com/agilira/proteus"
)

func TestWarmupPools(t *testing.T) {
	// Warm-up must be idempotent and safe at any count.
	proteus.WarmupPools(0)
	proteus.WarmupPools(2)
	proteus.WarmupPools(8)
}
