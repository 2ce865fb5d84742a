package validation

import (
	"bytes"

	"github.com/bugVanisher/svvalidate/media/hash"
	"github.com/bugVanisher/svvalidate/media/report"
)

// markRangeFrameLevel marks a closed GOP's owned items using the per-NALU
// hash list instead of the aggregate GOP hash, so a dropped or tampered
// picture NALU only downgrades the items around it instead of the whole
// GOP.
//
// It returns the GOP's authenticity (OK, OK_WITH_MISSING_INFO or NOT_OK)
// and whether the chain-boundary item (this GOP's last hashable entry, the
// first NALU of the *next* GOP) checked out.
func (e *Engine) markRangeFrameLevel(closed *closedGOP) (report.Authenticity, bool) {
	ours := closed.state.PerNaluHashes
	theirs := closed.state.SEI.HashList.Hashes

	hashableSeqs := make([]int, 0, len(ours))
	for seq := closed.fromSeq; seq < closed.toSeq; seq++ {
		it := e.list.ItemBySeq(seq)
		if it != nil && it.Nalu.IsHashable {
			hashableSeqs = append(hashableSeqs, seq)
		}
	}
	if boundary := e.list.ItemBySeq(closed.toSeq); boundary != nil {
		hashableSeqs = append(hashableSeqs, closed.toSeq)
	}

	verdicts, missingBefore, trailingMissing := alignDigestLists(ours, theirs)

	hadMismatch := false
	hadMissing := len(trailingMissing) > 0

	n := len(hashableSeqs)
	for i := 0; i < n; i++ {
		seq := hashableSeqs[i]
		if positions := missingBefore[i]; len(positions) > 0 {
			hadMissing = true
			anchor := -1
			if i > 0 {
				anchor = hashableSeqs[i-1]
			}
			for _, pos := range positions {
				e.addMissingMarker(anchor, pos)
			}
		}

		// The last entry is the chain boundary item, owned by the next
		// GOP: record its verdict but let latchBoundary apply it.
		if i == n-1 {
			continue
		}

		it := e.list.ItemBySeq(seq)
		if it == nil {
			continue
		}
		if i < len(verdicts) && verdicts[i] {
			e.markAuthentic(it)
		} else {
			hadMismatch = true
			e.markFailed(it)
		}
	}
	if len(trailingMissing) > 0 {
		hadMissing = true
		anchor := -1
		if n > 0 {
			anchor = hashableSeqs[n-1]
		}
		for _, pos := range trailingMissing {
			e.addMissingMarker(anchor, pos)
		}
	}

	boundaryOk := n == 0 || (n-1 < len(verdicts) && verdicts[n-1])

	switch {
	case hadMismatch:
		return report.AuthenticityNotOK, boundaryOk
	case hadMissing:
		return report.AuthenticityOKWithMissingInfo, boundaryOk
	default:
		return report.AuthenticityOK, boundaryOk
	}
}

// alignDigestLists aligns an observed digest sequence against a declared
// one with a single-step lookahead, tolerating one or more dropped items
// on the observed side without losing synchronization.
//
// verdict[i] reports whether ours[i] matched its aligned declared digest.
// missingBefore[i] lists the positions of declared entries skipped immediately before
// ours[i] (a hole in the sequence). trailingMissing holds any declared
// entries left over once every observed digest has been consumed.
func alignDigestLists(ours []hash.Digest, theirs [][]byte) (verdict []bool, missingBefore [][]int, trailingMissing []int) {
	verdict = make([]bool, len(ours))
	missingBefore = make([][]int, len(ours))

	eq := func(d hash.Digest, b []byte) bool { return bytes.Equal(d.Slice(), b) }

	i, j := 0, 0
	for i < len(ours) {
		if j >= len(theirs) {
			verdict[i] = false
			i++
			continue
		}
		if eq(ours[i], theirs[j]) {
			verdict[i] = true
			i++
			j++
			continue
		}
		if j+1 < len(theirs) && eq(ours[i], theirs[j+1]) {
			missingBefore[i] = append(missingBefore[i], j)
			j++
			continue // retry ours[i] against the new theirs[j]
		}
		verdict[i] = false
		i++
		j++
	}
	for ; j < len(theirs); j++ {
		trailingMissing = append(trailingMissing, j)
	}
	return verdict, missingBefore, trailingMissing
}
