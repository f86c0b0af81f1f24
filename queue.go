// queue.go: Engine, worker queues and the burst dispatcher.
//
// A Queue is a single-threaded submission/completion channel: EnqueueBurst
// processes each operation synchronously and pushes it onto the queue's
// completion list, DequeueBurst drains completions in submission order.
// Different queues are driven by different goroutines without shared
// mutable state; a single queue must not be driven concurrently.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package proteus

import (
	"fmt"
	"sync"
	"time"

	goerrors "github.com/agilira/go-errors"
	"github.com/agilira/go-timecache"
)

// Status is the outcome of one operation. Operations never report
// configuration problems; those are rejected synchronously at session
// setup.
type Status uint8

// Operation statuses.
const (
	// StatusNotProcessed marks an operation not yet executed.
	StatusNotProcessed Status = iota
	// StatusSuccess marks a fully completed operation.
	StatusSuccess
	// StatusAuthFailed marks a digest or tag verification mismatch.
	StatusAuthFailed
	// StatusInvalidSession marks an operation with no usable session.
	StatusInvalidSession
	// StatusInvalidArgs marks malformed per-operation arguments.
	StatusInvalidArgs
	// StatusError marks a processing failure.
	StatusError
)

// String returns a short name for the status.
func (s Status) String() string {
	switch s {
	case StatusNotProcessed:
		return "not-processed"
	case StatusSuccess:
		return "success"
	case StatusAuthFailed:
		return "auth-failed"
	case StatusInvalidSession:
		return "invalid-session"
	case StatusInvalidArgs:
		return "invalid-args"
	default:
		return "error"
	}
}

// Range addresses a logical byte range within a buffer.
type Range struct {
	Offset int
	Length int
}

// Operation is one unit of work against a session's transform chain.
// Exactly one of Session or Transform must be set: Transform selects the
// sessionless path, where a pooled session is set up for this operation
// only and torn down after completion.
//
// Dst nil selects an in-place transform on Src. Cipher addresses the
// cipher (or AEAD payload) range, Auth the auth (or AEAD AAD) range.
// Digest overrides the digest/tag location; when nil the digest follows
// the payload in the destination buffer.
type Operation struct {
	Session   *Session
	Transform *Transform

	Src *Buffer
	Dst *Buffer

	Cipher Range
	Auth   Range

	IV     []byte
	AAD    []byte
	Digest []byte

	Status Status

	internal *Session
}

// QueueStats are per-queue operation counters. Counters are maintained by
// the queue's driving goroutine; read them from that goroutine or after
// quiescing the queue.
type QueueStats struct {
	Enqueued     uint64
	Dequeued     uint64
	Errors       uint64
	LastActivity time.Time
}

// Queue is one worker queue of an Engine.
type Queue struct {
	id        int
	engine    *Engine
	completed []*Operation
	scratch   [maxDigestLen]byte
	stats     QueueStats
}

// Engine executes transform chains for a fixed set of worker queues.
type Engine struct {
	queues   []*Queue
	caps     capabilities
	sessPool sync.Pool

	mu     sync.Mutex
	closed bool
}

// New creates an engine with the given number of worker queues. The queue
// count is fixed for the engine's lifetime; sessions created by this
// engine carry one context slot per queue.
func New(numQueues int) (*Engine, error) {
	if numQueues <= 0 {
		richErr := goerrors.New(ErrCodeInvalidQueues, fmt.Sprintf("queue count must be positive, got %d", numQueues))
		return nil, fmt.Errorf("%w: %w", ErrInvalidQueueCount, richErr)
	}
	e := &Engine{
		caps: startupRuntime(),
	}
	e.sessPool.New = func() interface{} { return &Session{} }
	e.queues = make([]*Queue, numQueues)
	for i := range e.queues {
		e.queues[i] = &Queue{id: i, engine: e}
	}
	return e, nil
}

// NumQueues returns the engine's worker-queue count.
func (e *Engine) NumQueues() int {
	return len(e.queues)
}

// Queue returns worker queue i. Panics on an out-of-range index, matching
// slice semantics.
func (e *Engine) Queue(i int) *Queue {
	return e.queues[i]
}

// NewSession validates a transform chain and binds it to keyed primitive
// state. All configuration errors surface here; a returned session never
// fails an operation for configuration reasons.
func (e *Engine) NewSession(xform *Transform) (*Session, error) {
	s := &Session{}
	if err := s.setup(xform, len(e.queues), e.caps); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the engine. Double Close is harmless. Sessions created by
// the engine remain owned by the caller.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	shutdownRuntime()
}

// Stats returns a copy of the queue's counters.
func (q *Queue) Stats() QueueStats {
	return q.stats
}

// EnqueueBurst submits a batch of operations. Every operation is processed
// synchronously and delivered to the completion list with its final
// status; failed operations are completed like successful ones, never
// dropped and never blocking the rest of the batch. Returns the number of
// operations accepted, which is always the full batch.
func (q *Queue) EnqueueBurst(ops []*Operation) int {
	for _, op := range ops {
		s := q.resolveSession(op)
		if s == nil {
			op.Status = StatusInvalidSession
		} else {
			op.Status = StatusNotProcessed
			q.process(op, s)
		}
		if op.internal != nil {
			// Sessionless teardown: the pooled session must be
			// unreachable from the completed operation.
			op.internal.reset()
			q.engine.sessPool.Put(op.internal)
			op.internal = nil
		}
		if op.Status != StatusSuccess {
			q.stats.Errors++
		}
		q.completed = append(q.completed, op)
		q.stats.Enqueued++
	}
	q.stats.LastActivity = timecache.CachedTime()
	return len(ops)
}

// DequeueBurst drains up to len(ops) completed operations, in submission
// order, and returns how many were delivered.
func (q *Queue) DequeueBurst(ops []*Operation) int {
	n := len(q.completed)
	if n > len(ops) {
		n = len(ops)
	}
	if n == 0 {
		return 0
	}
	copy(ops, q.completed[:n])
	rest := copy(q.completed, q.completed[n:])
	for i := rest; i < len(q.completed); i++ {
		q.completed[i] = nil
	}
	q.completed = q.completed[:rest]
	q.stats.Dequeued += uint64(n)
	q.stats.LastActivity = timecache.CachedTime()
	return n
}

// resolveSession picks the operation's session: the attached one, or a
// pooled session set up from the inline transform for sessionless
// operations. Returns nil when neither yields a usable session.
func (q *Queue) resolveSession(op *Operation) *Session {
	if op.Session != nil {
		if op.Session.chain == ChainNotSupported {
			return nil
		}
		return op.Session
	}
	if op.Transform == nil {
		return nil
	}
	s := q.engine.sessPool.Get().(*Session)
	if err := s.setup(op.Transform, len(q.engine.queues), q.engine.caps); err != nil {
		s.reset()
		q.engine.sessPool.Put(s)
		return nil
	}
	op.internal = s
	return s
}
