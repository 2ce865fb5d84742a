// Package gop implements the GOP state machine: per-GOP scratch state, the
// hash-list authenticity-level fallback, and the pending-GOP ring that lets
// validation catch up once a late public key arrives.
package gop

import (
	"github.com/bugVanisher/svvalidate/media/hash"
	"github.com/bugVanisher/svvalidate/media/tlv"
)

// MaxHashList caps the per-frame hash list kept for FRAME-level
// authenticity; beyond this the engine falls back to GOP level for that
// GOP.
const MaxHashList = 256

// MaxPendingGops bounds the pending-GOP ring.
const MaxPendingGops = 120

// Level selects the granularity of authenticity verdicts.
type Level int

const (
	LevelGOP Level = iota
	LevelFrame
)

// SEIInfo is what a decoded Signed-Video SEI declared about the GOP it
// signs — the subset of TLV records the state machine needs to carry
// until the chain can be verified.
type SEIInfo struct {
	Decoded     bool
	General     tlv.GeneralInfo
	HashList    tlv.HashList
	HashListSet bool
	Signature   []byte
	Crypto      tlv.CryptoInfo
	PublicKey   []byte // set only when this SEI carried a recurrent PUBLIC_KEY record
	Product     tlv.ProductInfo
	ProductSet  bool
	VendorAxis  tlv.VendorAxisPayload
	VendorSet   bool
}

// State is the per-GOP scratch state.
type State struct {
	GOPIdx int

	// PerNaluHashes accumulates hashable, non-SEI item digests in arrival
	// order. When it would exceed MaxHashList the list is discarded (but
	// the running GOP hash keeps accumulating in running) and
	// HashListOverflowed latches — the FRAME-level fallback to GOP level.
	PerNaluHashes      []hash.Digest
	HashListOverflowed bool

	// running is the GOP hash over every digest added so far.
	running *hash.Engine

	NumNalusInGOP int

	HasSEIInGOP         bool
	ValidateAfterNextNalu bool
	NoGopEndBeforeSEI   bool
	GopTransitionIsLost bool

	SEI SEIInfo
}

func NewState(idx int) *State {
	return &State{GOPIdx: idx}
}

// AddHash appends a per-NALU digest to the running GOP accumulation.
func (s *State) AddHash(d hash.Digest) {
	s.NumNalusInGOP++
	if s.running == nil {
		s.running = hash.New()
	}
	s.running.Update(d[:])
	if s.HashListOverflowed {
		return
	}
	if len(s.PerNaluHashes) >= MaxHashList {
		s.HashListOverflowed = true
		s.PerNaluHashes = nil
		return
	}
	s.PerNaluHashes = append(s.PerNaluHashes, d)
}

// FinalHash computes the GOP hash over everything accumulated so far.
func (s *State) FinalHash() hash.Digest {
	if s.running == nil {
		return hash.GOPHash(nil)
	}
	return s.running.Finalize()
}

// EffectiveLevel returns the authenticity level to use for this GOP: GOP
// level if the frame hash list overflowed or was never populated for this
// GOP, FRAME level only when the signer actually supplied one.
func (s *State) EffectiveLevel(requested Level) Level {
	if requested == LevelFrame && !s.HashListOverflowed && s.SEI.HashListSet {
		return LevelFrame
	}
	return LevelGOP
}

// Info is what the validator believes about the current GOP purely from
// picture observations.
type Info struct {
	NumPrimarySlices int
	FirstNaluSeq     int // stable seq (validation.List) of this GOP's first NALU
	SEISeen          bool
}
