// session.go: Transform chains, chain-order classification and session setup.
//
// A Session binds one transform chain to keyed primitive state, once, so
// operations replay the chain without per-call key schedule setup. All
// configuration validation happens here, synchronously; a session that
// exists can always be executed.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package proteus

import (
	"crypto/cipher"
	"fmt"
	"hash"

	goerrors "github.com/agilira/go-errors"
)

// TransformType identifies the kind of one transform chain element.
type TransformType uint8

// Transform element kinds.
const (
	TransformCipher TransformType = iota + 1
	TransformAuth
	TransformAEAD
)

// Direction selects encryption or decryption for cipher and AEAD transforms.
type Direction uint8

// Cipher directions.
const (
	Encrypt Direction = iota
	Decrypt
)

// AuthOperation selects digest generation or verification.
type AuthOperation uint8

// Auth operations.
const (
	Generate AuthOperation = iota
	Verify
)

// CipherTransform configures a symmetric cipher element.
type CipherTransform struct {
	Algorithm CipherAlgorithm
	Direction Direction
	Key       []byte
	IVLength  int
}

// AuthTransform configures a digest or keyed-MAC element. Key is ignored
// for the plain digest algorithms. DigestLength zero selects the
// algorithm's full digest size. IVLength applies to AES-GMAC only.
type AuthTransform struct {
	Algorithm    AuthAlgorithm
	Operation    AuthOperation
	Key          []byte
	DigestLength int
	IVLength     int
}

// AEADTransform configures a combined authenticated-encryption element.
type AEADTransform struct {
	Algorithm AEADAlgorithm
	Direction Direction
	Key       []byte
	IVLength  int
	AADLength int
	TagLength int
}

// Transform is one element of a transform chain. Chains are built by
// linking Next; the engine supports chains of at most two elements
// (cipher+auth in either order) plus the single-element forms.
type Transform struct {
	Next   *Transform
	Type   TransformType
	Cipher CipherTransform
	Auth   AuthTransform
	AEAD   AEADTransform
}

// ChainOrder is the classified shape of a transform chain. It is computed
// once at session setup and selects the executor for every operation.
type ChainOrder uint8

// Chain orders.
const (
	ChainNotSupported ChainOrder = iota
	ChainCipherOnly
	ChainAuthOnly
	ChainCipherAuth
	ChainAuthCipher
	ChainCombined
	ChainCipherBPI
)

// String returns a short name for the chain order.
func (c ChainOrder) String() string {
	switch c {
	case ChainCipherOnly:
		return "cipher-only"
	case ChainAuthOnly:
		return "auth-only"
	case ChainCipherAuth:
		return "cipher-then-auth"
	case ChainAuthCipher:
		return "auth-then-cipher"
	case ChainCombined:
		return "combined"
	case ChainCipherBPI:
		return "cipher-bpi"
	default:
		return "not-supported"
	}
}

// chainOrderOf classifies a transform chain. First match wins; chains of
// more than two elements or with repeated kinds fall through to
// not-supported.
func chainOrderOf(xform *Transform) ChainOrder {
	if xform == nil {
		return ChainNotSupported
	}
	switch xform.Type {
	case TransformAuth:
		if xform.Next == nil {
			return ChainAuthOnly
		}
		if xform.Next.Type == TransformCipher && xform.Next.Next == nil {
			return ChainAuthCipher
		}
	case TransformCipher:
		if xform.Next == nil {
			return ChainCipherOnly
		}
		if xform.Next.Type == TransformAuth && xform.Next.Next == nil {
			return ChainCipherAuth
		}
	case TransformAEAD:
		if xform.Next == nil {
			return ChainCombined
		}
	}
	return ChainNotSupported
}

// cipherMode selects the streaming strategy for a configured cipher.
type cipherMode uint8

const (
	cipherModeBlock cipherMode = iota // CBC, via cipher.BlockMode
	cipherModeCTR                     // AES-CTR, via cipher.Stream
	cipherModeDES3CTR                 // 3DES-CTR, contiguous only
	cipherModeBPI                     // DOCSIS BPI chained mode
)

// authMode selects the auth context strategy.
type authMode uint8

const (
	authModeDigest authMode = iota
	authModeHMAC
	authModeCMAC
	authModeGMAC
)

// sessionCipher is the keyed cipher half of a session.
type sessionCipher struct {
	algo      CipherAlgorithm
	mode      cipherMode
	direction Direction
	block     cipher.Block
	blockSize int
	ivLen     int
}

// sessionAuth is the keyed auth half of a session. newHash rebuilds a
// fresh context from key material; primary is the context built at setup,
// used directly by single-queue sessions and as the clone source when the
// hash state supports snapshotting.
type sessionAuth struct {
	algo      AuthAlgorithm
	mode      authMode
	operation AuthOperation
	digestLen int
	newHash   func() (hash.Hash, error)
	primary   hash.Hash
}

// sessionAEAD is the combined-mode half of a session. The AEAD is
// immutable after construction, so per-queue slots share it by reference.
type sessionAEAD struct {
	algo    AEADAlgorithm
	primary cipher.AEAD
	tagLen  int
	ivLen   int
	ivSkip  int // bytes to skip into the IV field before the nonce
	aadSkip int // bytes to skip into the AAD field before the AAD
	aadLen  int
}

// Session is one configured transform chain bound to keyed primitive
// state. A Session is safe for concurrent use from multiple worker queues
// of the engine that created it; each queue works against its own context
// slot.
type Session struct {
	chain     ChainOrder
	direction Direction

	cipher sessionCipher
	auth   sessionAuth
	aead   sessionAEAD

	// qpCtx holds one lazily-populated context slot per worker queue.
	// nil for single-queue engines, which use the primary contexts
	// directly.
	qpCtx []queueContext

	caps capabilities
}

// ChainOrder returns the classified chain order of the session.
func (s *Session) ChainOrder() ChainOrder {
	return s.chain
}

// setup validates the transform chain and binds primitive state. Mirrors
// the engine's guarantee that configuration errors never surface at
// operation time.
func (s *Session) setup(xform *Transform, nQueues int, caps capabilities) error {
	s.chain = chainOrderOf(xform)
	s.caps = caps
	if s.chain == ChainNotSupported {
		richErr := goerrors.New(ErrCodeNotSupported, "transform chain cannot be classified")
		return fmt.Errorf("%w: %w", ErrNotSupported, richErr)
	}

	for x := xform; x != nil; x = x.Next {
		var err error
		switch x.Type {
		case TransformCipher:
			err = s.setupCipher(&x.Cipher)
		case TransformAuth:
			err = s.setupAuth(&x.Auth)
		case TransformAEAD:
			err = s.setupAEAD(&x.AEAD)
		}
		if err != nil {
			s.reset()
			return err
		}
	}

	switch s.chain {
	case ChainCipherOnly, ChainCipherAuth, ChainAuthCipher, ChainCipherBPI:
		s.direction = s.cipher.direction
	case ChainCombined:
		if s.auth.mode == authModeGMAC {
			s.direction = directionOfAuthOp(s.auth.operation)
		}
	}

	if nQueues > 1 {
		s.qpCtx = make([]queueContext, nQueues)
	}
	return nil
}

// directionOfAuthOp maps a GMAC auth operation onto the AEAD direction
// used to execute it.
func directionOfAuthOp(op AuthOperation) Direction {
	if op == Verify {
		return Decrypt
	}
	return Encrypt
}

func (s *Session) setupCipher(t *CipherTransform) error {
	s.cipher.algo = t.Algorithm
	s.cipher.direction = t.Direction
	s.cipher.ivLen = t.IVLength
	s.cipher.blockSize = cipherBlockSize(t.Algorithm)

	switch t.Algorithm {
	case CipherAESCBC, Cipher3DESCBC, CipherDESCBC:
		s.cipher.mode = cipherModeBlock
		if t.IVLength != s.cipher.blockSize {
			richErr := goerrors.New(ErrCodeInvalidIV,
				fmt.Sprintf("%s IV length must be %d, got %d", t.Algorithm, s.cipher.blockSize, t.IVLength))
			return fmt.Errorf("%w: %w", ErrInvalidIVSize, richErr)
		}
	case CipherAESCTR:
		s.cipher.mode = cipherModeCTR
		if t.IVLength != s.cipher.blockSize {
			richErr := goerrors.New(ErrCodeInvalidIV,
				fmt.Sprintf("aes-ctr IV length must be %d, got %d", s.cipher.blockSize, t.IVLength))
			return fmt.Errorf("%w: %w", ErrInvalidIVSize, richErr)
		}
	case Cipher3DESCTR:
		s.cipher.mode = cipherModeDES3CTR
		if t.IVLength != desBlockSize {
			richErr := goerrors.New(ErrCodeInvalidIV,
				fmt.Sprintf("3des-ctr IV length must be %d, got %d", desBlockSize, t.IVLength))
			return fmt.Errorf("%w: %w", ErrInvalidIVSize, richErr)
		}
	case CipherDESDOCSISBPI, CipherAESDOCSISBPI:
		s.cipher.mode = cipherModeBPI
		s.chain = ChainCipherBPI
		if t.IVLength != s.cipher.blockSize {
			richErr := goerrors.New(ErrCodeInvalidIV,
				fmt.Sprintf("%s IV length must be %d, got %d", t.Algorithm, s.cipher.blockSize, t.IVLength))
			return fmt.Errorf("%w: %w", ErrInvalidIVSize, richErr)
		}
	default:
		richErr := goerrors.New(ErrCodeNotSupported, fmt.Sprintf("unsupported cipher algorithm %d", t.Algorithm))
		return fmt.Errorf("%w: %w", ErrNotSupported, richErr)
	}

	block, err := newCipherBlock(t.Algorithm, t.Key)
	if err != nil {
		return err
	}
	s.cipher.block = block
	return nil
}

func (s *Session) setupAuth(t *AuthTransform) error {
	s.auth.algo = t.Algorithm
	s.auth.operation = t.Operation

	switch t.Algorithm {
	case AuthMD5, AuthSHA1, AuthSHA224, AuthSHA256, AuthSHA384, AuthSHA512:
		s.auth.mode = authModeDigest
		ctor, size, err := newDigestFunc(t.Algorithm)
		if err != nil {
			return err
		}
		s.auth.newHash = func() (hash.Hash, error) { return ctor(), nil }
		if err := s.finishAuthSetup(t, size); err != nil {
			return err
		}

	case AuthMD5HMAC, AuthSHA1HMAC, AuthSHA224HMAC, AuthSHA256HMAC, AuthSHA384HMAC, AuthSHA512HMAC:
		s.auth.mode = authModeHMAC
		ctor, size, err := newHMACFunc(t.Algorithm, t.Key)
		if err != nil {
			return err
		}
		s.auth.newHash = ctor
		if err := s.finishAuthSetup(t, size); err != nil {
			return err
		}

	case AuthAESCMAC:
		s.auth.mode = authModeCMAC
		ctor, size, err := newCMACFunc(t.Key)
		if err != nil {
			return err
		}
		s.auth.newHash = ctor
		if err := s.finishAuthSetup(t, size); err != nil {
			return err
		}

	case AuthAESGMAC:
		// GMAC is GCM with the auth range fed as AAD; it executes through
		// the combined executor and cannot be chained with a cipher.
		if s.chain != ChainAuthOnly {
			richErr := goerrors.New(ErrCodeNotSupported, "aes-gmac cannot be chained with a cipher transform")
			return fmt.Errorf("%w: %w", ErrNotSupported, richErr)
		}
		s.auth.mode = authModeGMAC
		if t.DigestLength < 4 || t.DigestLength > 16 {
			richErr := goerrors.New(ErrCodeInvalidDigest,
				fmt.Sprintf("aes-gmac digest length must be in [4,16], got %d", t.DigestLength))
			return fmt.Errorf("%w: %w", ErrInvalidDigestSize, richErr)
		}
		s.auth.digestLen = t.DigestLength
		aead, err := newAEAD(AEADAESGCM, t.Key, t.IVLength, 16)
		if err != nil {
			return err
		}
		s.chain = ChainCombined
		s.aead = sessionAEAD{
			primary: aead,
			tagLen:  t.DigestLength,
			ivLen:   t.IVLength,
		}

	default:
		richErr := goerrors.New(ErrCodeNotSupported, fmt.Sprintf("unsupported auth algorithm %d", t.Algorithm))
		return fmt.Errorf("%w: %w", ErrNotSupported, richErr)
	}
	return nil
}

// finishAuthSetup validates the digest length against the algorithm's full
// size and builds the primary context. Truncated digests are allowed down
// to one byte; zero selects the full size.
func (s *Session) finishAuthSetup(t *AuthTransform, fullSize int) error {
	dl := t.DigestLength
	if dl == 0 {
		dl = fullSize
	}
	if dl < 1 || dl > fullSize {
		richErr := goerrors.New(ErrCodeInvalidDigest,
			fmt.Sprintf("%s digest length must be in [1,%d], got %d", t.Algorithm, fullSize, dl))
		return fmt.Errorf("%w: %w", ErrInvalidDigestSize, richErr)
	}
	s.auth.digestLen = dl
	h, err := s.auth.newHash()
	if err != nil {
		return err
	}
	s.auth.primary = h
	return nil
}

func (s *Session) setupAEAD(t *AEADTransform) error {
	aead, err := newAEAD(t.Algorithm, t.Key, t.IVLength, t.TagLength)
	if err != nil {
		return err
	}
	s.direction = t.Direction
	s.aead = sessionAEAD{
		algo:    t.Algorithm,
		primary: aead,
		tagLen:  t.TagLength,
		ivLen:   t.IVLength,
		aadLen:  t.AADLength,
	}
	if t.Algorithm == AEADAESCCM {
		// The descriptor layout reserves the leading flags octet of the IV
		// field and places the true AAD 18 bytes into the AAD field.
		s.aead.ivSkip = ccmIVOffset
		s.aead.aadSkip = ccmAADOffset
	}
	return nil
}

// reset clears all keyed state so the session memory can be pooled or
// released without leaking key schedules.
func (s *Session) reset() {
	*s = Session{}
}

// Close releases the session's keyed state. The session must not be used
// by in-flight operations after Close.
func (s *Session) Close() {
	s.reset()
}
