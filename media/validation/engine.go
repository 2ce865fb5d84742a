package validation

import (
	"bytes"
	"fmt"

	"github.com/bugVanisher/svvalidate/media/gop"
	"github.com/bugVanisher/svvalidate/media/hash"
	"github.com/bugVanisher/svvalidate/media/nalu"
	"github.com/bugVanisher/svvalidate/media/report"
	"github.com/bugVanisher/svvalidate/media/tlv"
	"github.com/bugVanisher/svvalidate/media/verifier"
)

// Config carries the session-level knobs: authenticity granularity and the
// recurrence schedule of heavy SEI records.
type Config struct {
	Level              gop.Level
	RecurrenceInterval int
	RecurrenceOffset   int
	ThisVersion        string
}

// closedGOP is a GOP whose item range is fixed (no more NALUs will ever be
// attributed to it) but whose verdict may still be pending a SEI or a
// public key. fromSeq/toSeq are List seqs, stable across drains and
// compaction.
type closedGOP struct {
	state          *gop.State
	info           gop.Info
	fromSeq, toSeq int
}

type missingMarker struct {
	afterSeq int // emit the marker right after draining the item with this seq; -1 means "before everything seen so far"
	position int // the signer-declared position this hole corresponds to
}

// Engine drives the whole validation pipeline: it consumes parsed NAL
// units, tracks GOP boundaries, matches SEIs to the GOPs they sign and
// settles item verdicts.
type Engine struct {
	cfg      Config
	codec    nalu.Codec
	verifier verifier.Verifier

	list *List

	gopCounter  int
	currentGOP  *gop.State
	currentInfo gop.Info
	haveOpenGOP bool

	awaitingSEI *closedGOP

	ring *gop.Ring

	activeKey         []byte
	pendingKeyChanged bool
	everSeenSEI       bool

	// counterOffset maps the signer's GOP counter onto this engine's own
	// gopCounter space, learned from the first SEI that attaches. Needed to
	// tell a late SEI (signs the awaiting closed GOP) from the next GOP's
	// own SEI after one was dropped in transit.
	counterOffset     int
	haveCounterOffset bool

	expectedAcc     int
	authenticityAcc []report.Authenticity

	missingMarkers []missingMarker

	lastProduct    tlv.ProductInfo
	haveProduct    bool
	lastVendorBlob []byte
	signerVersion  string

	accumulated report.AccumulatedValidation
}

// NewEngine constructs an Engine for the given codec and configuration.
func NewEngine(codec nalu.Codec, cfg Config, v verifier.Verifier) *Engine {
	return &Engine{
		cfg:      cfg,
		codec:    codec,
		verifier: v,
		list:     NewList(),
		ring:     gop.NewRing(),
	}
}

func (e *Engine) SetLevel(l gop.Level) { e.cfg.Level = l }

func (e *Engine) SetRecurrence(interval, offset int) {
	e.cfg.RecurrenceInterval = interval
	e.cfg.RecurrenceOffset = offset
}

// Reset empties the pending list and clears all per-GOP state, preserving
// the session-lifetime accumulated counters.
func (e *Engine) Reset() {
	e.list.Reset()
	e.gopCounter = 0
	e.currentGOP = nil
	e.haveOpenGOP = false
	e.awaitingSEI = nil
	e.ring.Reset()
	e.missingMarkers = nil
	e.expectedAcc = 0
	e.authenticityAcc = nil
	e.counterOffset = 0
	e.haveCounterOffset = false
	// activeKey, everSeenSEI, lastProduct/haveProduct and accumulated
	// counters survive a reset: they describe the stream's signer, not the
	// in-flight validation pipeline.
}

// AddNalu processes one parsed NAL unit and returns a settled report if the
// call caused anything to drain out of the pending list, or nil otherwise.
func (e *Engine) AddNalu(info *nalu.Info) *report.Report {
	item := e.list.Append(info)

	switch {
	case info.IsFirstNaluInGOP:
		e.onFirstNaluInGOP(item)
	case info.IsSignedVideoSEI:
		e.onSignedVideoSEI(item)
	default:
		e.onOrdinaryNalu(item)
	}

	drained := e.list.DrainSettled()
	if len(drained) == 0 {
		return nil
	}
	return e.buildReport(drained)
}

func (e *Engine) onOrdinaryNalu(item *Item) {
	info := item.Nalu
	if !e.haveOpenGOP {
		// Precedes the stream's first GOP (leading parameter sets, AUDs);
		// no GOP hash will ever reference it.
		item.Status = StatusIgnored
		return
	}
	if info.IsHashable {
		item.Hash = hash.Of(info.Hashable)
		e.currentGOP.AddHash(item.Hash)
		item.UsedInGOPHash = true
		item.GOPIndex = e.currentGOP.GOPIdx
		if info.IsPrimarySlice {
			e.currentInfo.NumPrimarySlices++
		}
		return
	}
	if info.Validity == nalu.ValidityError {
		item.Status = StatusError
		return
	}
	item.Status = StatusUnknown
}

func (e *Engine) onFirstNaluInGOP(item *Item) {
	info := item.Nalu
	item.Hash = hash.Of(info.Hashable)

	if e.haveOpenGOP {
		// Chained hash: this item's digest also closes out the previous
		// GOP. One item with two digest fields, never two items, so the
		// boundary unit is not double-counted in received counts. Its own
		// GOP's verdict comes later; the previous GOP owes it one chained
		// verification first.
		e.currentGOP.AddHash(item.Hash)
		item.HasSecondHash = true
		item.SecondHash = item.Hash
		item.NeedsSecondVerification = true

		closed := &closedGOP{
			state:   e.currentGOP,
			info:    e.currentInfo,
			fromSeq: e.currentInfo.FirstNaluSeq,
			toSeq:   e.list.SeqOfTail(),
		}
		e.closeGOP(closed)
	}

	e.gopCounter++
	item.GOPIndex = e.gopCounter

	e.currentGOP = gop.NewState(e.gopCounter)
	e.currentGOP.AddHash(item.Hash)
	item.UsedInGOPHash = true
	e.currentInfo = gop.Info{NumPrimarySlices: 1, FirstNaluSeq: e.list.SeqOfTail()}
	e.haveOpenGOP = true
}

// closeGOP decides whether a just-closed GOP can be verified immediately
// (its SEI already arrived) or must wait for a late SEI.
func (e *Engine) closeGOP(closed *closedGOP) {
	if closed.state.SEI.Decoded {
		e.verifyAndMark(closed)
		return
	}

	closed.state.NoGopEndBeforeSEI = true
	if e.awaitingSEI != nil {
		// A second consecutive GOP closed with no SEI in between: the
		// first one is lost for good.
		lost := e.awaitingSEI
		lost.state.GopTransitionIsLost = true
		e.finalizeUnsigned(lost)
	}
	e.awaitingSEI = closed
}

func (e *Engine) onSignedVideoSEI(item *Item) {
	info := item.Nalu
	item.HasBeenDecoded = true
	item.Status = StatusIgnored

	records, err := tlv.Decode(info.TLV)
	if err != nil {
		item.Status = StatusError
		return
	}

	sei, err := e.decodeSEIRecords(records)
	if err != nil {
		// A GENERAL record newer than this validator understands: the SEI
		// cannot be interpreted, the stream keeps validating without it.
		item.Status = StatusError
		return
	}

	target, targetIsAwaiting := e.matchSEITarget(int(sei.General.GOPCounter))
	if target == nil {
		// Nothing has opened a GOP yet, a duplicate SEI for an
		// already-signed GOP, or a stray counter: skip it.
		return
	}

	e.everSeenSEI = true
	target.SEI = sei
	target.HasSEIInGOP = true
	target.ValidateAfterNextNalu = true
	if target == e.currentGOP {
		e.currentInfo.SEISeen = true
	}

	if targetIsAwaiting {
		// The GOP this SEI signs already closed (its chain hash is
		// final): a late SEI can be verified right away.
		closed := e.awaitingSEI
		e.awaitingSEI = nil
		e.verifyAndMark(closed)
	}
	// Otherwise target is the still-open current GOP: verification waits
	// for the next first-nalu event to supply the chained hash.
}

// decodeSEIRecords extracts the TLV records the engine interprets into a
// SEIInfo, and caches the recurrent product/vendor records session-wide so
// later reports can still fill them.
func (e *Engine) decodeSEIRecords(records []tlv.Record) (gop.SEIInfo, error) {
	sei := gop.SEIInfo{Decoded: true}

	if rec, ok := tlv.Find(records, tlv.TagGeneral); ok {
		gi, err := tlv.DecodeGeneralInfo(rec.Value)
		if err != nil {
			return sei, err
		}
		sei.General = gi
		e.signerVersion = fmt.Sprintf("v%d", gi.Version)
	}
	if rec, ok := tlv.Find(records, tlv.TagSignature); ok {
		sei.Signature = rec.Value
	}
	if rec, ok := tlv.Find(records, tlv.TagCryptoInfo); ok {
		if ci, err := tlv.DecodeCryptoInfo(rec.Value); err == nil {
			sei.Crypto = ci
		}
	}
	if rec, ok := tlv.Find(records, tlv.TagHashList); ok {
		if hl, err := tlv.DecodeHashList(rec.Value, hash.DigestSize); err == nil {
			sei.HashList = hl
			sei.HashListSet = true
		}
	}
	if rec, ok := tlv.Find(records, tlv.TagPublicKey); ok {
		sei.PublicKey = rec.Value
	}
	if rec, ok := tlv.Find(records, tlv.TagProductInfo); ok {
		if pi, err := tlv.DecodeProductInfo(rec.Value); err == nil {
			sei.Product = pi
			sei.ProductSet = true
			e.lastProduct = pi
			e.haveProduct = true
		}
	}
	if rec, ok := tlv.Find(records, tlv.TagVendorAxis); ok {
		if va, err := tlv.DecodeVendorAxisPayload(rec.Value); err == nil {
			sei.VendorAxis = va
			sei.VendorSet = true
			e.lastVendorBlob = append([]byte(nil), va.Attestation...)
		}
	}
	return sei, nil
}

// matchSEITarget picks the GOP a freshly decoded SEI signs: the awaiting
// closed GOP (late SEI), the still-open current GOP (in-GOP SEI), or
// neither. The signer's GOP counter, once anchored to this engine's own
// counter by the first attach, disambiguates a late SEI from the SEI of
// the *next* GOP after one was lost in transit — and a counter that jumps
// past the awaiting GOP proves that GOP's SEI will never come, so it is
// finalized as unsigned on the spot.
func (e *Engine) matchSEITarget(signerCounter int) (target *gop.State, targetIsAwaiting bool) {
	var awaiting *gop.State
	if e.awaitingSEI != nil {
		awaiting = e.awaitingSEI.state
	}

	anchor := func(s *gop.State) {
		e.counterOffset = signerCounter - s.GOPIdx
		e.haveCounterOffset = true
	}

	if !e.haveCounterOffset {
		// First SEI of the stream: a closed-but-unsigned GOP means the
		// signer emits its SEIs late; otherwise it signs the open GOP.
		switch {
		case awaiting != nil && !awaiting.HasSEIInGOP:
			anchor(awaiting)
			return awaiting, true
		case e.haveOpenGOP && !e.currentGOP.HasSEIInGOP:
			anchor(e.currentGOP)
			return e.currentGOP, false
		}
		return nil, false
	}

	want := signerCounter - e.counterOffset
	if awaiting != nil && want > awaiting.GOPIdx {
		// This SEI signs a GOP beyond the awaiting one, so the awaiting
		// GOP's own SEI is lost for good.
		lost := e.awaitingSEI
		e.awaitingSEI = nil
		lost.state.GopTransitionIsLost = true
		e.finalizeUnsigned(lost)
		awaiting = nil
	}

	switch {
	case awaiting != nil && awaiting.GOPIdx == want && !awaiting.HasSEIInGOP:
		return awaiting, true
	case e.haveOpenGOP && e.currentGOP.GOPIdx == want && !e.currentGOP.HasSEIInGOP:
		return e.currentGOP, false
	}

	// Counter matches neither candidate: a signer-side reset restarted the
	// counter sequence. Re-anchor on the oldest unsigned GOP and let hash
	// comparison decide the straddling GOP's verdict.
	switch {
	case awaiting != nil && !awaiting.HasSEIInGOP:
		anchor(awaiting)
		return awaiting, true
	case e.haveOpenGOP && !e.currentGOP.HasSEIInGOP:
		anchor(e.currentGOP)
		return e.currentGOP, false
	}
	return nil, false
}

// verifyAndMark runs the Verifier, reconciles counts, and marks every item
// the closed GOP owns.
func (e *Engine) verifyAndMark(closed *closedGOP) {
	if e.activeKey == nil {
		if closed.state.SEI.PublicKey == nil {
			e.deferForPublicKey(closed)
			return
		}
		// First key this session has ever seen: establish it, drain the
		// GOPs buffered behind it in arrival order, then this one. No
		// public-key-has-changed flag (there was no prior key to change
		// from).
		e.activeKey = closed.state.SEI.PublicKey
		e.flushRing()
		e.verifyWithKey(closed, e.activeKey)
		return
	}

	if closed.state.SEI.PublicKey != nil && !bytes.Equal(closed.state.SEI.PublicKey, e.activeKey) {
		// The signer rotated: the new key applies from the GOP whose SEI
		// carried it onward. GOPs still deferred behind a missing key were
		// signed earlier and never see it.
		e.activeKey = closed.state.SEI.PublicKey
		e.pendingKeyChanged = true
	}

	e.verifyWithKey(closed, e.activeKey)
	e.flushRing()
}

func (e *Engine) verifyWithKey(closed *closedGOP, key []byte) {
	expected := int(closed.state.SEI.General.NumNalusInGOP)
	received := closed.state.NumNalusInGOP
	e.expectedAcc += expected

	authentic := false
	if closed.state.SEI.Signature != nil {
		ok, err := e.verifier.Verify(key, closed.state.SEI.General.GOPHash, closed.state.SEI.Signature)
		if err == nil {
			authentic = ok
		}
	}

	boundary := e.list.ItemBySeq(closed.toSeq)

	if !authentic {
		e.authenticityAcc = append(e.authenticityAcc, report.AuthenticityNotOK)
		e.markRange(closed, e.markFailed)
		e.latchBoundary(boundary, false)
		return
	}

	level := closed.state.EffectiveLevel(e.cfg.Level)
	if level == gop.LevelFrame {
		authenticity, boundaryOk := e.markRangeFrameLevel(closed)
		e.authenticityAcc = append(e.authenticityAcc, authenticity)
		e.latchBoundary(boundary, boundaryOk)
		return
	}

	hashMatches := bytes.Equal(closed.state.FinalHash().Slice(), closed.state.SEI.General.GOPHash) && received == expected
	if hashMatches {
		e.authenticityAcc = append(e.authenticityAcc, report.AuthenticityOK)
		e.markRange(closed, e.markAuthentic)
		e.latchBoundary(boundary, true)
		return
	}
	e.authenticityAcc = append(e.authenticityAcc, report.AuthenticityNotOK)
	e.markRange(closed, e.markFailed)
	e.latchBoundary(boundary, false)
}

// latchBoundary applies this GOP's chained-hash outcome to the item that
// opens the *next* GOP: a failure latches NotOk immediately and never
// regresses, a pass leaves it Pending for its own GOP's verification to
// decide. The chained check is owed exactly once per boundary item;
// NeedsSecondVerification guards against a stray re-verification of the
// same closed GOP latching it twice.
func (e *Engine) latchBoundary(boundary *Item, chainOk bool) {
	if boundary == nil || !boundary.NeedsSecondVerification {
		return
	}
	boundary.NeedsSecondVerification = false
	if chainOk {
		return
	}
	boundary.FirstVerificationNotAuthentic = true
	boundary.Status = StatusNotOk
}

// markRange applies fn to every still-pending hashable item the closed GOP
// owns. Items that already settled (ignored SEIs, error/unknown units, a
// boundary item latched NotOk by the previous GOP's chain failure) keep
// their verdict.
func (e *Engine) markRange(closed *closedGOP, fn func(*Item)) {
	for seq := closed.fromSeq; seq < closed.toSeq; seq++ {
		it := e.list.ItemBySeq(seq)
		if it == nil || it.Status != StatusPending {
			continue
		}
		if !it.Nalu.IsHashable {
			it.Status = StatusIgnored
			continue
		}
		fn(it)
	}
}

func (e *Engine) markAuthentic(it *Item) {
	if it.FirstVerificationNotAuthentic {
		it.Status = StatusNotOk
		return
	}
	it.Status = StatusOk
}

func (e *Engine) markFailed(it *Item) {
	it.FirstVerificationNotAuthentic = true
	it.Status = StatusNotOk
}

func (e *Engine) finalizeUnsigned(closed *closedGOP) {
	if e.everSeenSEI {
		e.markRange(closed, e.markFailed)
		e.authenticityAcc = append(e.authenticityAcc, report.AuthenticityNotOK)
		return
	}
	e.markRange(closed, func(it *Item) { it.Status = StatusUnknown })
	e.authenticityAcc = append(e.authenticityAcc, report.AuthenticityNotSigned)
}

func (e *Engine) deferForPublicKey(closed *closedGOP) {
	snap := &gop.Snapshot{
		GOPIdx:       closed.state.GOPIdx,
		State:        closed.state,
		Info:         closed.info,
		ItemsFromSeq: closed.fromSeq,
		ItemsToSeq:   closed.toSeq,
	}
	if evicted := e.ring.Push(snap); evicted != nil {
		e.expireEvicted(evicted)
	}
}

func (e *Engine) expireEvicted(snap *gop.Snapshot) {
	for seq := snap.ItemsFromSeq; seq < snap.ItemsToSeq; seq++ {
		it := e.list.ItemBySeq(seq)
		if it != nil && it.Status == StatusPending {
			it.Status = StatusUnknown
		}
	}
}

func (e *Engine) flushRing() {
	for _, snap := range e.ring.FlushAll() {
		e.verifyAndMark(&closedGOP{
			state:   snap.State,
			info:    snap.Info,
			fromSeq: snap.ItemsFromSeq,
			toSeq:   snap.ItemsToSeq,
		})
	}
}

func (e *Engine) addMissingMarker(afterSeq, position int) {
	e.missingMarkers = append(e.missingMarkers, missingMarker{afterSeq: afterSeq, position: position})
}
