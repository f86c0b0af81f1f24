// Package proteus is a high-performance symmetric crypto transform engine
// for segmented buffers.
//
// The engine executes precomputed transform chains (cipher, message
// authentication, authenticated encryption, or a chained DOCSIS-BPI mode)
// against payloads that are physically split across linked memory segments,
// on behalf of many independent worker queues. A Session captures one
// transform chain, bound once to keyed primitive state, so that the same
// transform can be replayed at high call rates without re-deriving key
// schedules per operation and without serializing unrelated workers.
//
// # Quick Start
//
// Create an engine, a session, and run an operation through a worker queue:
//
//	eng, err := proteus.New(4) // four worker queues
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer eng.Close()
//
//	sess, err := eng.NewSession(&proteus.Transform{
//		Type: proteus.TransformCipher,
//		Cipher: proteus.CipherTransform{
//			Algorithm: proteus.CipherAESCBC,
//			Direction: proteus.Encrypt,
//			Key:       key, // 16, 24 or 32 bytes
//			IVLength:  16,
//		},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer sess.Close()
//
//	op := &proteus.Operation{
//		Session: sess,
//		Src:     proteus.NewBuffer(payload), // in-place transform
//		Cipher:  proteus.Range{Offset: 0, Length: len(payload)},
//		IV:      iv,
//	}
//	q := eng.Queue(0)
//	q.EnqueueBurst([]*proteus.Operation{op})
//
//	out := make([]*proteus.Operation, 1)
//	q.DequeueBurst(out)
//	if out[0].Status != proteus.StatusSuccess {
//		log.Fatal("operation failed:", out[0].Status)
//	}
//
// # Transform Chains
//
// A session is classified once at creation into a chain order: cipher only,
// auth only, cipher-then-auth, auth-then-cipher, combined AEAD, or the
// chained DOCSIS-BPI cipher mode. Classification and all algorithm/key
// validation happen synchronously in NewSession; operations never fail for
// configuration reasons.
//
// Supported primitives are selected from the Go crypto ecosystem by
// algorithm and key length: AES/DES/3DES in CBC and CTR modes, the DOCSIS
// BPI chained mode, MD5/SHA-1/SHA-2 digests and their HMAC variants,
// AES-CMAC, AES-GMAC, and the AES-GCM, AES-CCM and ChaCha20-Poly1305 AEAD
// families.
//
// # Segmented Buffers
//
// A Buffer is an ordered chain of byte segments presenting one logical
// contiguous range. The engine streams cipher and digest updates across
// segment boundaries, including in-place transforms where a cipher block
// straddles two segments. Ciphertext is identical regardless of how the
// payload is segmented.
//
// # Worker Queues and Context Cloning
//
// Each worker queue is a single-threaded submission/completion channel.
// Completions are delivered in submission order per queue. When a session
// is shared by more than one queue, each queue lazily clones the session's
// post-key-setup primitive state into a private slot, so queues never
// contend on mutable crypto state and never pay key-schedule setup per
// operation.
//
// # Error Handling
//
// Session setup returns standard Go errors enriched with error codes from
// github.com/agilira/go-errors. Operation outcomes are reported through the
// Status field on each Operation: authentication failures are distinct from
// processing errors so callers can tell tampered data from engine faults.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package proteus
