package validation

import (
	"strings"

	"github.com/bugVanisher/svvalidate/media/report"
)

// buildReport turns one batch of newly-settled items into the report
// handed back to the caller.
func (e *Engine) buildReport(drained []*Item) *report.Report {
	var lv report.LatestValidation
	var sb strings.Builder

	flushMarkersAfter := func(seq int) {
		if len(e.missingMarkers) == 0 {
			return
		}
		kept := e.missingMarkers[:0]
		for _, m := range e.missingMarkers {
			if m.afterSeq == seq {
				sb.WriteByte(StatusMissing.Char())
				lv.ListOfMissingNalus = append(lv.ListOfMissingNalus, m.position)
			} else {
				kept = append(kept, m)
			}
		}
		e.missingMarkers = kept
	}

	flushMarkersAfter(-1)

	for _, it := range drained {
		switch it.Status {
		case StatusOk:
			if it.Nalu.IsHashable {
				lv.NumberOfReceivedPictureNalus++
			}
		case StatusNotOk:
			if it.Nalu.IsHashable {
				lv.NumberOfReceivedPictureNalus++
			}
			lv.ListOfInvalidNalus = append(lv.ListOfInvalidNalus, it.seq)
		}
		sb.WriteByte(it.Status.Char())
		flushMarkersAfter(it.seq)
	}

	lv.ValidationStr = sb.String()
	lv.NumberOfExpectedPictureNalus = e.expectedAcc
	e.expectedAcc = 0

	lv.Authenticity = e.worstAuthenticity()
	settled := e.authenticityAcc
	e.authenticityAcc = nil

	lv.PublicKeyHasChanged = e.pendingKeyChanged
	e.pendingKeyChanged = false

	lv.NumberOfPendingPictureNalus = e.countPendingHashable()

	acc := e.accumulated
	acc.Add(lv)
	if len(settled) > 0 {
		// Count every GOP that settled in this call under its own verdict,
		// not the whole report once under the worst one.
		acc.NumberOfValidGops = e.accumulated.NumberOfValidGops
		acc.NumberOfInvalidGops = e.accumulated.NumberOfInvalidGops
		acc.NumberOfUnsignedGops = e.accumulated.NumberOfUnsignedGops
		for _, a := range settled {
			acc.Add(report.LatestValidation{Authenticity: a})
		}
	}
	e.accumulated = acc

	rep := &report.Report{
		Latest:               lv,
		Accumulated:          e.accumulated,
		VersionOnSigningSide: e.signerVersion,
		ThisVersion:          e.cfg.ThisVersion,
		VendorBlob:           e.lastVendorBlob,
	}
	if e.haveProduct {
		rep.Product = e.lastProduct
	}
	return rep
}

// worstAuthenticity picks the single Authenticity value this report
// surfaces when more than one GOP settled in the same AddNalu call (e.g. a
// pending-GOP ring flush releases several at once): the worst of the
// individually-determined verdicts wins.
func (e *Engine) worstAuthenticity() report.Authenticity {
	if len(e.authenticityAcc) == 0 {
		if !e.everSeenSEI && e.activeKey == nil {
			return report.AuthenticityNotSigned
		}
		return report.AuthenticitySignaturePresent
	}
	rank := func(a report.Authenticity) int {
		switch a {
		case report.AuthenticityNotOK:
			return 4
		case report.AuthenticityNotSigned:
			return 3
		case report.AuthenticityOKWithMissingInfo:
			return 2
		case report.AuthenticitySignaturePresent:
			return 1
		default:
			return 0
		}
	}
	worst := e.authenticityAcc[0]
	for _, a := range e.authenticityAcc[1:] {
		if rank(a) > rank(worst) {
			worst = a
		}
	}
	return worst
}

func (e *Engine) countPendingHashable() int {
	n := 0
	for i := 0; i < e.list.Len(); i++ {
		it := e.list.At(i)
		if it.Status == StatusPending && it.Nalu.IsHashable {
			n++
		}
	}
	return n
}
