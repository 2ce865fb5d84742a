// Package report defines the authenticity report: the boundary value
// handed back to the caller after each settled GOP.
package report

import "github.com/bugVanisher/svvalidate/media/tlv"

// Authenticity is the per-GOP verdict.
type Authenticity int

const (
	AuthenticityOK Authenticity = iota
	AuthenticityOKWithMissingInfo
	AuthenticityNotOK
	AuthenticityNotSigned
	AuthenticitySignaturePresent
)

func (a Authenticity) String() string {
	switch a {
	case AuthenticityOK:
		return "OK"
	case AuthenticityOKWithMissingInfo:
		return "OK_WITH_MISSING_INFO"
	case AuthenticityNotOK:
		return "NOT_OK"
	case AuthenticityNotSigned:
		return "NOT_SIGNED"
	case AuthenticitySignaturePresent:
		return "SIGNATURE_PRESENT"
	default:
		return "UNKNOWN"
	}
}

// LatestValidation is the verdict surface for whatever settled in the call
// that produced this report.
type LatestValidation struct {
	Authenticity              Authenticity
	PublicKeyHasChanged       bool
	NumberOfExpectedPictureNalus int
	NumberOfReceivedPictureNalus int
	NumberOfPendingPictureNalus  int
	ListOfMissingNalus           []int
	ListOfInvalidNalus           []int
	ValidationStr                string
}

// AccumulatedValidation holds monotone session-lifetime counters over
// settled items and GOPs. Each Add folds in one LatestValidation and counts
// it as one GOP under its Authenticity.
type AccumulatedValidation struct {
	NumberOfReceivedPictureNalus int
	NumberOfExpectedPictureNalus int
	NumberOfValidGops            int
	NumberOfInvalidGops          int
	NumberOfUnsignedGops         int
	NumberOfMissingNalus         int
}

// Add folds one GOP's latest_validation into the accumulator.
func (a *AccumulatedValidation) Add(lv LatestValidation) {
	a.NumberOfReceivedPictureNalus += lv.NumberOfReceivedPictureNalus
	a.NumberOfExpectedPictureNalus += lv.NumberOfExpectedPictureNalus
	a.NumberOfMissingNalus += len(lv.ListOfMissingNalus)
	switch lv.Authenticity {
	case AuthenticityOK, AuthenticityOKWithMissingInfo:
		a.NumberOfValidGops++
	case AuthenticityNotOK:
		a.NumberOfInvalidGops++
	case AuthenticityNotSigned:
		a.NumberOfUnsignedGops++
	}
}

// ProductInfo mirrors the recurrent PRODUCT_INFO TLV record.
type ProductInfo = tlv.ProductInfo

// Report is the full authenticity report. Ownership transfers to the
// caller on return; the garbage collector reclaims it, there is no
// explicit free.
type Report struct {
	Latest      LatestValidation
	Accumulated AccumulatedValidation
	Product     ProductInfo

	VersionOnSigningSide string
	ThisVersion          string

	// VendorBlob is the most recently decoded vendor-Axis attestation
	// payload, echoed opaquely: its semantics belong to the vendor, not
	// the validator.
	VendorBlob []byte
}
