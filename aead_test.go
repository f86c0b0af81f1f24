// aead_test.go: Test cases for combined AEAD transforms and AES-GMAC.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package proteus_test

import (
	"crypto/aes"
	"crypto/cipher"
	"testing"

	"github.com/agilira/proteus"
	"github.com/pion/dtls/v2/pkg/crypto/ccm"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/chacha20poly1305"
)

func aeadXform(algo proteus.AEADAlgorithm, dir proteus.Direction, key []byte, ivLen, aadLen, tagLen int) *proteus.Transform {
	return &proteus.Transform{
		Type: proteus.TransformAEAD,
		AEAD: proteus.AEADTransform{
			Algorithm: algo,
			Direction: dir,
			Key:       key,
			IVLength:  ivLen,
			AADLength: aadLen,
			TagLength: tagLen,
		},
	}
}

func TestGCMRoundTripMatchesStdlib(t *testing.T) {
	eng := newTestEngine(t, 1)
	q := eng.Queue(0)
	key := patternBytes(16)
	nonce := patternBytes(12)
	aad := patternBytes(20)
	plain := patternBytes(33)

	enc, err := eng.NewSession(aeadXform(proteus.AEADAESGCM, proteus.Encrypt, key, 12, 20, 16))
	require.NoError(t, err)
	defer enc.Close()
	dec, err := eng.NewSession(aeadXform(proteus.AEADAESGCM, proteus.Decrypt, key, 12, 20, 16))
	require.NoError(t, err)
	defer dec.Close()

	backing := make([]byte, len(plain)+16)
	copy(backing, plain)
	buf := proteus.NewBuffer(backing)

	op := &proteus.Operation{
		Session: enc,
		Src:     buf,
		Cipher:  proteus.Range{Offset: 0, Length: len(plain)},
		IV:      nonce,
		AAD:     aad,
	}
	runOne(t, q, op)
	require.Equal(t, proteus.StatusSuccess, op.Status)

	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	gcm, err := cipher.NewGCM(block)
	require.NoError(t, err)
	want := gcm.Seal(nil, nonce, plain, aad)
	require.Equal(t, want, backing)

	dop := &proteus.Operation{
		Session: dec,
		Src:     buf,
		Cipher:  proteus.Range{Offset: 0, Length: len(plain)},
		IV:      nonce,
		AAD:     aad,
	}
	runOne(t, q, dop)
	require.Equal(t, proteus.StatusSuccess, dop.Status)
	require.Equal(t, plain, backing[:len(plain)])
}

func TestGCMSegmentedPayload(t *testing.T) {
	eng := newTestEngine(t, 1)
	key := patternBytes(16)
	nonce := patternBytes(12)
	plain := patternBytes(40)

	enc, err := eng.NewSession(aeadXform(proteus.AEADAESGCM, proteus.Encrypt, key, 12, 0, 16))
	require.NoError(t, err)
	defer enc.Close()

	// Payload split mid-block, tag space in the trailing segment.
	backing := append(append([]byte(nil), plain...), make([]byte, 16)...)
	buf := splitBytes(backing, 11, 19, 26)

	op := &proteus.Operation{
		Session: enc,
		Src:     buf,
		Cipher:  proteus.Range{Offset: 0, Length: len(plain)},
		IV:      nonce,
	}
	runOne(t, eng.Queue(0), op)
	require.Equal(t, proteus.StatusSuccess, op.Status)

	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	gcm, err := cipher.NewGCM(block)
	require.NoError(t, err)
	require.Equal(t, gcm.Seal(nil, nonce, plain, nil), buf.Bytes())
}

// Flipping any single bit of ciphertext or tag must yield an
// authentication failure, never success with wrong plaintext.
func TestGCMBitFlipDetected(t *testing.T) {
	eng := newTestEngine(t, 1)
	q := eng.Queue(0)
	key := patternBytes(16)
	nonce := patternBytes(12)
	plain := patternBytes(24)

	enc, err := eng.NewSession(aeadXform(proteus.AEADAESGCM, proteus.Encrypt, key, 12, 0, 16))
	require.NoError(t, err)
	defer enc.Close()
	dec, err := eng.NewSession(aeadXform(proteus.AEADAESGCM, proteus.Decrypt, key, 12, 0, 16))
	require.NoError(t, err)
	defer dec.Close()

	sealed := make([]byte, len(plain)+16)
	copy(sealed, plain)
	buf := proteus.NewBuffer(sealed)
	op := &proteus.Operation{
		Session: enc,
		Src:     buf,
		Cipher:  proteus.Range{Length: len(plain)},
		IV:      nonce,
	}
	runOne(t, q, op)
	require.Equal(t, proteus.StatusSuccess, op.Status)

	for pos := 0; pos < len(sealed); pos++ {
		for bit := uint(0); bit < 8; bit++ {
			tampered := append([]byte(nil), sealed...)
			tampered[pos] ^= 1 << bit
			dop := &proteus.Operation{
				Session: dec,
				Src:     proteus.NewBuffer(tampered),
				Cipher:  proteus.Range{Length: len(plain)},
				IV:      nonce,
			}
			runOne(t, q, dop)
			if dop.Status != proteus.StatusAuthFailed {
				t.Fatalf("bit flip at byte %d bit %d: got status %v, want auth-failed", pos, bit, dop.Status)
			}
		}
	}
}

func TestCCMRoundTrip(t *testing.T) {
	eng := newTestEngine(t, 1)
	q := eng.Queue(0)
	key := patternBytes(16)
	plain := patternBytes(29)
	aadBytes := patternBytes(12)
	const nonceLen = 11
	const tagLen = 8

	enc, err := eng.NewSession(aeadXform(proteus.AEADAESCCM, proteus.Encrypt, key, nonceLen, len(aadBytes), tagLen))
	require.NoError(t, err)
	defer enc.Close()
	dec, err := eng.NewSession(aeadXform(proteus.AEADAESCCM, proteus.Decrypt, key, nonceLen, len(aadBytes), tagLen))
	require.NoError(t, err)
	defer dec.Close()

	// The descriptor layout: nonce one byte into the IV field, true AAD
	// eighteen bytes into the AAD field.
	ivField := make([]byte, 1+nonceLen)
	copy(ivField[1:], patternBytes(nonceLen))
	aadField := make([]byte, 18+len(aadBytes))
	copy(aadField[18:], aadBytes)

	backing := make([]byte, len(plain)+tagLen)
	copy(backing, plain)
	buf := proteus.NewBuffer(backing)

	op := &proteus.Operation{
		Session: enc,
		Src:     buf,
		Cipher:  proteus.Range{Length: len(plain)},
		IV:      ivField,
		AAD:     aadField,
	}
	runOne(t, q, op)
	require.Equal(t, proteus.StatusSuccess, op.Status)

	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	ref, err := ccm.NewCCM(block, tagLen, nonceLen)
	require.NoError(t, err)
	require.Equal(t, ref.Seal(nil, ivField[1:], plain, aadBytes), backing)

	dop := &proteus.Operation{
		Session: dec,
		Src:     buf,
		Cipher:  proteus.Range{Length: len(plain)},
		IV:      ivField,
		AAD:     aadField,
	}
	runOne(t, q, dop)
	require.Equal(t, proteus.StatusSuccess, dop.Status)
	require.Equal(t, plain, backing[:len(plain)])
}

func TestChaCha20Poly1305RoundTrip(t *testing.T) {
	eng := newTestEngine(t, 1)
	q := eng.Queue(0)
	key := patternBytes(32)
	nonce := patternBytes(12)
	aad := patternBytes(8)
	plain := patternBytes(50)

	enc, err := eng.NewSession(aeadXform(proteus.AEADChaCha20Poly1305, proteus.Encrypt, key, 12, len(aad), 16))
	require.NoError(t, err)
	defer enc.Close()
	dec, err := eng.NewSession(aeadXform(proteus.AEADChaCha20Poly1305, proteus.Decrypt, key, 12, len(aad), 16))
	require.NoError(t, err)
	defer dec.Close()

	backing := make([]byte, len(plain)+16)
	copy(backing, plain)
	buf := proteus.NewBuffer(backing)

	op := &proteus.Operation{
		Session: enc,
		Src:     buf,
		Cipher:  proteus.Range{Length: len(plain)},
		IV:      nonce,
		AAD:     aad,
	}
	runOne(t, q, op)
	require.Equal(t, proteus.StatusSuccess, op.Status)

	ref, err := chacha20poly1305.New(key)
	require.NoError(t, err)
	require.Equal(t, ref.Seal(nil, nonce, plain, aad), backing)

	dop := &proteus.Operation{
		Session: dec,
		Src:     buf,
		Cipher:  proteus.Range{Length: len(plain)},
		IV:      nonce,
		AAD:     aad,
	}
	runOne(t, q, dop)
	require.Equal(t, proteus.StatusSuccess, dop.Status)
	require.Equal(t, plain, backing[:len(plain)])
}

func gmacXform(op proteus.AuthOperation, key []byte, digestLen int) *proteus.Transform {
	return &proteus.Transform{
		Type: proteus.TransformAuth,
		Auth: proteus.AuthTransform{
			Algorithm:    proteus.AuthAESGMAC,
			Operation:    op,
			Key:          key,
			DigestLength: digestLen,
			IVLength:     12,
		},
	}
}

func TestGMACGenerateAndVerify(t *testing.T) {
	eng := newTestEngine(t, 1)
	q := eng.Queue(0)
	key := patternBytes(16)
	nonce := patternBytes(12)
	data := patternBytes(48)

	gen, err := eng.NewSession(gmacXform(proteus.Generate, key, 16))
	require.NoError(t, err)
	defer gen.Close()

	digest := make([]byte, 16)
	op := &proteus.Operation{
		Session: gen,
		Src:     splitBytes(data, 20, 28),
		Auth:    proteus.Range{Length: len(data)},
		IV:      nonce,
		Digest:  digest,
	}
	runOne(t, q, op)
	require.Equal(t, proteus.StatusSuccess, op.Status)

	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	gcm, err := cipher.NewGCM(block)
	require.NoError(t, err)
	require.Equal(t, gcm.Seal(nil, nonce, nil, data), digest)

	ver, err := eng.NewSession(gmacXform(proteus.Verify, key, 16))
	require.NoError(t, err)
	defer ver.Close()

	vop := &proteus.Operation{
		Session: ver,
		Src:     proteus.NewBuffer(append([]byte(nil), data...)),
		Auth:    proteus.Range{Length: len(data)},
		IV:      nonce,
		Digest:  digest,
	}
	runOne(t, q, vop)
	require.Equal(t, proteus.StatusSuccess, vop.Status)

	tampered := append([]byte(nil), data...)
	tampered[5] ^= 0x80
	top := &proteus.Operation{
		Session: ver,
		Src:     proteus.NewBuffer(tampered),
		Auth:    proteus.Range{Length: len(data)},
		IV:      nonce,
		Digest:  digest,
	}
	runOne(t, q, top)
	require.Equal(t, proteus.StatusAuthFailed, top.Status)
}

func TestGMACTruncatedTag(t *testing.T) {
	eng := newTestEngine(t, 1)
	q := eng.Queue(0)
	key := patternBytes(16)
	nonce := patternBytes(12)
	data := patternBytes(30)

	gen, err := eng.NewSession(gmacXform(proteus.Generate, key, 8))
	require.NoError(t, err)
	defer gen.Close()

	digest := make([]byte, 8)
	op := &proteus.Operation{
		Session: gen,
		Src:     proteus.NewBuffer(append([]byte(nil), data...)),
		Auth:    proteus.Range{Length: len(data)},
		IV:      nonce,
		Digest:  digest,
	}
	runOne(t, q, op)
	require.Equal(t, proteus.StatusSuccess, op.Status)

	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	gcm, err := cipher.NewGCM(block)
	require.NoError(t, err)
	require.Equal(t, gcm.Seal(nil, nonce, nil, data)[:8], digest)

	ver, err := eng.NewSession(gmacXform(proteus.Verify, key, 8))
	require.NoError(t, err)
	defer ver.Close()

	vop := &proteus.Operation{
		Session: ver,
		Src:     proteus.NewBuffer(append([]byte(nil), data...)),
		Auth:    proteus.Range{Length: len(data)},
		IV:      nonce,
		Digest:  digest,
	}
	runOne(t, q, vop)
	require.Equal(t, proteus.StatusSuccess, vop.Status)
}
