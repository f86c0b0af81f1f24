// errors.go: Sentinel errors and error codes for session configuration.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package proteus

import "errors"

// Public standard errors for drop-in compatibility.
// These errors can be used with errors.Is() for error checking.
// All of them are configuration errors: they are reported synchronously
// at session-setup time, never at operation time.
var (
	// ErrNotSupported is returned when a transform chain cannot be
	// classified into a supported chain order.
	ErrNotSupported = errors.New("proteus: unsupported transform chain")

	// ErrInvalidKeySize is returned when a key length is not supported
	// for the selected algorithm.
	ErrInvalidKeySize = errors.New("proteus: invalid key size")

	// ErrInvalidIVSize is returned when the configured IV length does not
	// match what the selected algorithm requires.
	ErrInvalidIVSize = errors.New("proteus: invalid IV size")

	// ErrInvalidTagSize is returned when an AEAD tag length is outside the
	// algorithm's legal set.
	ErrInvalidTagSize = errors.New("proteus: invalid tag size")

	// ErrInvalidDigestSize is returned when an auth digest length is
	// outside the algorithm's legal range.
	ErrInvalidDigestSize = errors.New("proteus: invalid digest size")

	// ErrCipherInit is returned when cipher primitive initialization fails.
	ErrCipherInit = errors.New("proteus: cipher initialization error")

	// ErrAuthInit is returned when auth primitive initialization fails.
	ErrAuthInit = errors.New("proteus: auth initialization error")

	// ErrAEADInit is returned when AEAD primitive initialization fails.
	ErrAEADInit = errors.New("proteus: AEAD initialization error")

	// ErrInvalidQueueCount is returned when an engine is created with a
	// non-positive worker-queue count.
	ErrInvalidQueueCount = errors.New("proteus: invalid queue count")
)

// Error codes for rich error handling
const (
	ErrCodeNotSupported  = "PROTEUS_NOT_SUPPORTED"
	ErrCodeInvalidKey    = "PROTEUS_INVALID_KEY"
	ErrCodeInvalidIV     = "PROTEUS_INVALID_IV"
	ErrCodeInvalidTag    = "PROTEUS_INVALID_TAG"
	ErrCodeInvalidDigest = "PROTEUS_INVALID_DIGEST"
	ErrCodeCipherInit    = "PROTEUS_CIPHER_INIT"
	ErrCodeAuthInit      = "PROTEUS_AUTH_INIT"
	ErrCodeAEADInit      = "PROTEUS_AEAD_INIT"
	ErrCodeInvalidQueues = "PROTEUS_INVALID_QUEUES"
)
