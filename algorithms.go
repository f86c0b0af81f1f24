// algorithms.go: Algorithm identifiers and primitive selection.
//
// This is the adapter between the engine and the primitive libraries: every
// cipher, digest, MAC and AEAD construction is selected here by algorithm
// identifier and key length. Unsupported key lengths are configuration
// errors rejected at session setup, never at operation time.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package proteus

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"  // #nosec G502 -- DES/3DES retained for legacy transforms, selected explicitly by callers
	"crypto/hmac"
	"crypto/md5"  // #nosec G501 -- MD5 retained for legacy transforms, selected explicitly by callers
	"crypto/sha1" // #nosec G505 -- SHA-1 retained for legacy transforms, selected explicitly by callers
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"github.com/aead/cmac"
	goerrors "github.com/agilira/go-errors"
	"github.com/pion/dtls/v2/pkg/crypto/ccm"
	"golang.org/x/crypto/chacha20poly1305"
)

// CipherAlgorithm identifies a symmetric cipher transform.
type CipherAlgorithm uint8

// Supported cipher algorithms.
const (
	CipherNull CipherAlgorithm = iota
	CipherAESCBC
	CipherAESCTR
	Cipher3DESCBC
	Cipher3DESCTR
	CipherDESCBC
	CipherDESDOCSISBPI
	CipherAESDOCSISBPI
)

// String returns the conventional name of the cipher algorithm.
func (a CipherAlgorithm) String() string {
	switch a {
	case CipherAESCBC:
		return "aes-cbc"
	case CipherAESCTR:
		return "aes-ctr"
	case Cipher3DESCBC:
		return "3des-cbc"
	case Cipher3DESCTR:
		return "3des-ctr"
	case CipherDESCBC:
		return "des-cbc"
	case CipherDESDOCSISBPI:
		return "des-docsisbpi"
	case CipherAESDOCSISBPI:
		return "aes-docsisbpi"
	default:
		return "null"
	}
}

// AuthAlgorithm identifies a digest or keyed-MAC transform.
type AuthAlgorithm uint8

// Supported auth algorithms. The plain variants are unkeyed digests; the
// HMAC variants are keyed; AES-CMAC is a block-cipher-based keyed MAC and
// AES-GMAC is a GCM operation with no cipher payload.
const (
	AuthNull AuthAlgorithm = iota
	AuthMD5
	AuthSHA1
	AuthSHA224
	AuthSHA256
	AuthSHA384
	AuthSHA512
	AuthMD5HMAC
	AuthSHA1HMAC
	AuthSHA224HMAC
	AuthSHA256HMAC
	AuthSHA384HMAC
	AuthSHA512HMAC
	AuthAESCMAC
	AuthAESGMAC
)

// String returns the conventional name of the auth algorithm.
func (a AuthAlgorithm) String() string {
	switch a {
	case AuthMD5:
		return "md5"
	case AuthSHA1:
		return "sha1"
	case AuthSHA224:
		return "sha224"
	case AuthSHA256:
		return "sha256"
	case AuthSHA384:
		return "sha384"
	case AuthSHA512:
		return "sha512"
	case AuthMD5HMAC:
		return "md5-hmac"
	case AuthSHA1HMAC:
		return "sha1-hmac"
	case AuthSHA224HMAC:
		return "sha224-hmac"
	case AuthSHA256HMAC:
		return "sha256-hmac"
	case AuthSHA384HMAC:
		return "sha384-hmac"
	case AuthSHA512HMAC:
		return "sha512-hmac"
	case AuthAESCMAC:
		return "aes-cmac"
	case AuthAESGMAC:
		return "aes-gmac"
	default:
		return "null"
	}
}

// AEADAlgorithm identifies a combined authenticated-encryption transform.
type AEADAlgorithm uint8

// Supported AEAD algorithms.
const (
	AEADNull AEADAlgorithm = iota
	AEADAESGCM
	AEADAESCCM
	AEADChaCha20Poly1305
)

// String returns the conventional name of the AEAD algorithm.
func (a AEADAlgorithm) String() string {
	switch a {
	case AEADAESGCM:
		return "aes-gcm"
	case AEADAESCCM:
		return "aes-ccm"
	case AEADChaCha20Poly1305:
		return "chacha20-poly1305"
	default:
		return "null"
	}
}

// maxDigestLen is the largest digest any supported auth algorithm produces
// (SHA-512). Worker queues size their scratch digest buffer to it.
const maxDigestLen = 64

// desBlockSize is the DES/3DES cipher block size in bytes.
const desBlockSize = 8

// ccmAADOffset is the fixed byte offset of the true AAD bytes within the
// caller-provided AAD field for AES-CCM operations, per the descriptor API.
const ccmAADOffset = 18

// ccmIVOffset is the fixed byte offset of the nonce within the
// caller-provided IV field for AES-CCM operations; the first byte of the
// field is reserved for the CCM flags octet.
const ccmIVOffset = 1

// expandEDEKey expands an 8, 16 or 24 byte 3DES key into the standard
// 24-byte [K1-K2-K3] form: a 16-byte key sets K3 = K1, an 8-byte key sets
// K1 = K2 = K3 for single-DES compatibility.
func expandEDEKey(key []byte) ([]byte, error) {
	ede := make([]byte, 24)
	switch len(key) {
	case 24:
		copy(ede, key)
	case 16:
		copy(ede, key)
		copy(ede[16:], key[:8])
	case 8:
		copy(ede, key)
		copy(ede[8:], key)
		copy(ede[16:], key)
	default:
		richErr := goerrors.New(ErrCodeInvalidKey, fmt.Sprintf("unsupported 3DES key size %d", len(key)))
		return nil, fmt.Errorf("%w: %w", ErrInvalidKeySize, richErr)
	}
	return ede, nil
}

// newCipherBlock selects the block cipher primitive for the given algorithm
// and key, validating the key length as part of selection.
func newCipherBlock(algo CipherAlgorithm, key []byte) (cipher.Block, error) {
	switch algo {
	case CipherAESCBC, CipherAESCTR, CipherAESDOCSISBPI:
		switch len(key) {
		case 16, 24, 32:
		default:
			richErr := goerrors.New(ErrCodeInvalidKey, fmt.Sprintf("unsupported AES key size %d", len(key)))
			return nil, fmt.Errorf("%w: %w", ErrInvalidKeySize, richErr)
		}
		block, err := aes.NewCipher(key)
		if err != nil {
			richErr := goerrors.Wrap(err, ErrCodeCipherInit, "failed to initialize AES cipher")
			return nil, fmt.Errorf("%w: %w", ErrCipherInit, richErr)
		}
		return block, nil

	case CipherDESCBC, CipherDESDOCSISBPI:
		if len(key) != 8 {
			richErr := goerrors.New(ErrCodeInvalidKey, fmt.Sprintf("unsupported DES key size %d", len(key)))
			return nil, fmt.Errorf("%w: %w", ErrInvalidKeySize, richErr)
		}
		block, err := des.NewCipher(key)
		if err != nil {
			richErr := goerrors.Wrap(err, ErrCodeCipherInit, "failed to initialize DES cipher")
			return nil, fmt.Errorf("%w: %w", ErrCipherInit, richErr)
		}
		return block, nil

	case Cipher3DESCBC, Cipher3DESCTR:
		ede, err := expandEDEKey(key)
		if err != nil {
			return nil, err
		}
		block, err := des.NewTripleDESCipher(ede)
		if err != nil {
			richErr := goerrors.Wrap(err, ErrCodeCipherInit, "failed to initialize 3DES cipher")
			return nil, fmt.Errorf("%w: %w", ErrCipherInit, richErr)
		}
		return block, nil

	default:
		richErr := goerrors.New(ErrCodeNotSupported, fmt.Sprintf("unsupported cipher algorithm %d", algo))
		return nil, fmt.Errorf("%w: %w", ErrNotSupported, richErr)
	}
}

// cipherBlockSize returns the block size for a cipher algorithm.
func cipherBlockSize(algo CipherAlgorithm) int {
	switch algo {
	case CipherAESCBC, CipherAESCTR, CipherAESDOCSISBPI:
		return aes.BlockSize
	default:
		return desBlockSize
	}
}

// newDigestFunc selects the digest constructor for a plain or HMAC auth
// algorithm.
func newDigestFunc(algo AuthAlgorithm) (func() hash.Hash, int, error) {
	switch algo {
	case AuthMD5, AuthMD5HMAC:
		return md5.New, md5.Size, nil
	case AuthSHA1, AuthSHA1HMAC:
		return sha1.New, sha1.Size, nil
	case AuthSHA224, AuthSHA224HMAC:
		return sha256.New224, sha256.Size224, nil
	case AuthSHA256, AuthSHA256HMAC:
		return sha256.New, sha256.Size, nil
	case AuthSHA384, AuthSHA384HMAC:
		return sha512.New384, sha512.Size384, nil
	case AuthSHA512, AuthSHA512HMAC:
		return sha512.New, sha512.Size, nil
	default:
		richErr := goerrors.New(ErrCodeNotSupported, fmt.Sprintf("unsupported auth algorithm %d", algo))
		return nil, 0, fmt.Errorf("%w: %w", ErrNotSupported, richErr)
	}
}

// newHMACFunc builds a keyed HMAC context constructor. The key is copied so
// later caller mutation cannot reach cached contexts.
func newHMACFunc(algo AuthAlgorithm, key []byte) (func() (hash.Hash, error), int, error) {
	ctor, size, err := newDigestFunc(algo)
	if err != nil {
		return nil, 0, err
	}
	k := make([]byte, len(key))
	copy(k, key)
	return func() (hash.Hash, error) {
		return hmac.New(ctor, k), nil
	}, size, nil
}

// newCMACFunc builds an AES-CMAC context constructor. The MAC key length
// selects the AES primitive, mirroring block-cipher-based keyed MAC
// selection: 16, 24 or 32 bytes pick AES-128/192/256.
func newCMACFunc(key []byte) (func() (hash.Hash, error), int, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		richErr := goerrors.New(ErrCodeInvalidKey, fmt.Sprintf("unsupported AES-CMAC key size %d", len(key)))
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidKeySize, richErr)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		richErr := goerrors.Wrap(err, ErrCodeAuthInit, "failed to initialize AES-CMAC cipher")
		return nil, 0, fmt.Errorf("%w: %w", ErrAuthInit, richErr)
	}
	// The AES key schedule is immutable after creation; every CMAC context
	// derives its subkeys from the shared schedule.
	return func() (hash.Hash, error) {
		h, err := cmac.New(block)
		if err != nil {
			richErr := goerrors.Wrap(err, ErrCodeAuthInit, "failed to initialize CMAC context")
			return nil, fmt.Errorf("%w: %w", ErrAuthInit, richErr)
		}
		return h, nil
	}, aes.BlockSize, nil
}

// newAEAD constructs the AEAD primitive for the given algorithm, key, nonce
// length and tag length. Tag lengths are validated against the algorithm's
// legal set: GCM and ChaCha20-Poly1305 require exactly 16 bytes, CCM allows
// any even length in [4,16].
func newAEAD(algo AEADAlgorithm, key []byte, ivLen, tagLen int) (cipher.AEAD, error) {
	switch algo {
	case AEADAESGCM:
		if tagLen != 16 {
			richErr := goerrors.New(ErrCodeInvalidTag, fmt.Sprintf("AES-GCM tag length must be 16, got %d", tagLen))
			return nil, fmt.Errorf("%w: %w", ErrInvalidTagSize, richErr)
		}
		if ivLen <= 0 {
			richErr := goerrors.New(ErrCodeInvalidIV, fmt.Sprintf("AES-GCM IV length must be positive, got %d", ivLen))
			return nil, fmt.Errorf("%w: %w", ErrInvalidIVSize, richErr)
		}
		block, err := newCipherBlock(CipherAESCTR, key)
		if err != nil {
			return nil, err
		}
		aead, err := cipher.NewGCMWithNonceSize(block, ivLen)
		if err != nil {
			richErr := goerrors.Wrap(err, ErrCodeAEADInit, "failed to initialize GCM")
			return nil, fmt.Errorf("%w: %w", ErrAEADInit, richErr)
		}
		return aead, nil

	case AEADAESCCM:
		// Digest size can be 4, 6, 8, 10, 12, 14 or 16 bytes.
		if tagLen < 4 || tagLen > 16 || tagLen&1 == 1 {
			richErr := goerrors.New(ErrCodeInvalidTag, fmt.Sprintf("AES-CCM tag length must be even in [4,16], got %d", tagLen))
			return nil, fmt.Errorf("%w: %w", ErrInvalidTagSize, richErr)
		}
		if ivLen < 7 || ivLen > 13 {
			richErr := goerrors.New(ErrCodeInvalidIV, fmt.Sprintf("AES-CCM nonce length must be in [7,13], got %d", ivLen))
			return nil, fmt.Errorf("%w: %w", ErrInvalidIVSize, richErr)
		}
		block, err := newCipherBlock(CipherAESCTR, key)
		if err != nil {
			return nil, err
		}
		aead, err := ccm.NewCCM(block, tagLen, ivLen)
		if err != nil {
			richErr := goerrors.Wrap(err, ErrCodeAEADInit, "failed to initialize CCM")
			return nil, fmt.Errorf("%w: %w", ErrAEADInit, richErr)
		}
		return aead, nil

	case AEADChaCha20Poly1305:
		if tagLen != chacha20poly1305.Overhead {
			richErr := goerrors.New(ErrCodeInvalidTag, fmt.Sprintf("ChaCha20-Poly1305 tag length must be 16, got %d", tagLen))
			return nil, fmt.Errorf("%w: %w", ErrInvalidTagSize, richErr)
		}
		if ivLen != chacha20poly1305.NonceSize {
			richErr := goerrors.New(ErrCodeInvalidIV, fmt.Sprintf("ChaCha20-Poly1305 nonce length must be 12, got %d", ivLen))
			return nil, fmt.Errorf("%w: %w", ErrInvalidIVSize, richErr)
		}
		if len(key) != chacha20poly1305.KeySize {
			richErr := goerrors.New(ErrCodeInvalidKey, fmt.Sprintf("ChaCha20-Poly1305 key size must be 32, got %d", len(key)))
			return nil, fmt.Errorf("%w: %w", ErrInvalidKeySize, richErr)
		}
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			richErr := goerrors.Wrap(err, ErrCodeAEADInit, "failed to initialize ChaCha20-Poly1305")
			return nil, fmt.Errorf("%w: %w", ErrAEADInit, richErr)
		}
		return aead, nil

	default:
		richErr := goerrors.New(ErrCodeNotSupported, fmt.Sprintf("unsupported AEAD algorithm %d", algo))
		return nil, fmt.Errorf("%w: %w", ErrNotSupported, richErr)
	}
}
