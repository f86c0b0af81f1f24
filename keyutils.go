// keyutils.go: Key and IV utilities for generation and zeroization.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package proteus

import (
	"crypto/rand"
	"io"

	goerrors "github.com/agilira/go-errors"
)

// GenerateKey generates a cryptographically secure random key of the given size.
//
// The key is generated using the cryptographically secure random number
// generator provided by the operating system. Size is in bytes: use 16, 24
// or 32 for the AES family, 8 for DES, 8/16/24 for 3DES.
//
// Parameters:
//   - size: The desired key size in bytes (must be positive)
//
// Returns:
//   - A byte slice containing the random key
//   - An error if key generation fails
//
// Example:
//
//	key, err := proteus.GenerateKey(32) // AES-256
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println("Generated key length:", len(key)) // Output: 32
func GenerateKey(size int) ([]byte, error) {
	if size <= 0 {
		return nil, goerrors.New("INVALID_KEY_SIZE", "key size must be positive")
	}
	key := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, goerrors.Wrap(err, "KEY_GEN_ERROR", "failed to generate key")
	}
	return key, nil
}

// GenerateIV generates a cryptographically secure random IV of the given size.
//
// An IV (initialization vector) must be unique per operation under the
// same key. Use the cipher block size for CBC modes, 12 bytes for AES-GCM
// and ChaCha20-Poly1305, 7 to 13 bytes for AES-CCM nonces.
//
// Parameters:
//   - size: The desired IV size in bytes (must be positive)
//
// Returns:
//   - A byte slice containing the random IV
//   - An error if IV generation fails
//
// Example:
//
//	iv, err := proteus.GenerateIV(16) // AES-CBC block size
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println("Generated IV length:", len(iv)) // Output: 16
func GenerateIV(size int) ([]byte, error) {
	if size <= 0 {
		return nil, goerrors.New("INVALID_IV_SIZE", "IV size must be positive")
	}
	iv := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, goerrors.Wrap(err, "IV_GEN_ERROR", "failed to generate IV")
	}
	return iv, nil
}

// Zeroize securely wipes a byte slice from memory.
//
// This function overwrites all bytes in the slice with zeros to prevent
// sensitive data from remaining in memory after use. This is important
// for security when dealing with cryptographic keys and other sensitive data.
//
// Note: This function modifies the original slice in place.
//
// Parameters:
//   - b: The byte slice to zeroize
//
// Example:
//
//	key, _ := proteus.GenerateKey(32)
//	// Bind the key into a session
//	sess, _ := eng.NewSession(xform)
//	// Securely wipe the caller's copy
//	proteus.Zeroize(key)
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
