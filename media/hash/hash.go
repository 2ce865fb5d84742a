// Package hash implements the hash engine: a fixed-output digest over
// canonicalised NAL-unit bytes, and a running GOP hash over the ordered
// concatenation of per-NALU hashes.
package hash

import (
	"crypto/sha256"
	"hash"
)

// DigestSize is the fixed output size of every digest in the pipeline.
const DigestSize = sha256.Size

// Digest is a fixed-size hash value.
type Digest [DigestSize]byte

// Engine accumulates bytes and finalizes to a Digest. It is single-use:
// call Init (or New) before the first Update, Finalize exactly once.
type Engine struct {
	h hash.Hash
}

// New returns a freshly initialized Engine.
func New() *Engine {
	e := &Engine{}
	e.Init()
	return e
}

func (e *Engine) Init() {
	e.h = sha256.New()
}

// Update feeds bytes into the running digest.
func (e *Engine) Update(b []byte) {
	e.h.Write(b)
}

// Finalize returns the digest of everything written so far.
func (e *Engine) Finalize() Digest {
	var d Digest
	sum := e.h.Sum(nil)
	copy(d[:], sum)
	return d
}

// Slice returns the digest bytes. Digest is an array value, so this exists
// mainly to let callers avoid the "cannot slice a non-addressable value"
// trap when slicing straight off a function's return value.
func (d Digest) Slice() []byte {
	return d[:]
}

// Of is a convenience one-shot digest of a single byte slice.
func Of(b []byte) Digest {
	return Digest(sha256.Sum256(b))
}

// GOPHash computes the GOP hash over the ordered per-NALU hashes of every
// hashable, non-SEI unit in a GOP — the concatenation of per-NALU hashes
// is itself hashed, not the original NAL bytes.
func GOPHash(perNaluHashes []Digest) Digest {
	e := New()
	for _, d := range perNaluHashes {
		e.Update(d[:])
	}
	return e.Finalize()
}
