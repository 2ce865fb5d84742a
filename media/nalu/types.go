// Package nalu implements the NALU parser: a byte-exact scanner over
// H.264/H.265 NAL units that classifies each unit, recognises the
// Signed-Video SEI by its UUID, and strips emulation-prevention bytes from
// SEI payloads so the TLV codec can decode them.
package nalu

import "fmt"

// Codec selects the NAL header layout: one byte for H264, two for H265.
type Codec int

const (
	H264 Codec = iota
	H265
)

func (c Codec) String() string {
	if c == H265 {
		return "H265"
	}
	return "H264"
}

// Type is the classification the validator cares about; it collapses the
// dozens of codec-specific NAL unit types into six buckets.
type Type int

const (
	TypeUndefined Type = iota
	TypeI
	TypeP
	TypePS // SPS/PPS/VPS
	TypeSEI
	TypeOther
)

func (t Type) String() string {
	switch t {
	case TypeI:
		return "I"
	case TypeP:
		return "P"
	case TypePS:
		return "PS"
	case TypeSEI:
		return "SEI"
	case TypeOther:
		return "OTHER"
	default:
		return "UNDEFINED"
	}
}

// Validity grades a parse: a NAL unit that fails to parse at all is Error;
// one that parses but is recognisably malformed is Invalid; anything else
// is Valid. Both non-Valid cases leave the enclosing add-and-authenticate
// call returning success.
type Validity int

const (
	ValidityValid Validity = iota
	ValidityInvalid
	ValidityError
)

// UUIDSize is the length of the user-data-unregistered SEI UUID prefix.
const UUIDSize = 16

// SignedVideoUUID is the 16-byte UUID that marks a user-data-unregistered SEI
// as a Signed-Video SEI. It has no cryptographic meaning, it is a
// wire-format tag.
var SignedVideoUUID = [UUIDSize]byte{
	0x53, 0x69, 0x67, 0x6e, 0x65, 0x64, 0x56, 0x69,
	0x64, 0x65, 0x6f, 0x2e, 0x53, 0x45, 0x49, 0x00,
}

// Info is the parsed view of one NAL unit.
type Info struct {
	// Bytes is a copy of the full NAL unit, start code/length prefix
	// excluded, stop bit included.
	Bytes []byte

	// Hashable is the sub-slice fed to the Hash Engine: header + RBSP with
	// emulation-prevention bytes removed, trailing stop bit excluded. Nil
	// when IsHashable is false.
	Hashable []byte

	Codec Codec
	Type  Type

	// UUID is only meaningful when Type == TypeSEI; it is the 16 raw UUID
	// bytes read from the SEI payload.
	UUID [UUIDSize]byte

	Validity Validity

	IsHashable        bool
	IsPrimarySlice    bool
	IsFirstNaluInGOP  bool
	IsSignedVideoSEI  bool

	// TLV is the de-emulated SEI payload after the UUID and the reserved
	// byte, ready for the TLV codec. Only set when IsSignedVideoSEI.
	TLV      []byte
	Reserved byte
}

func (n *Info) String() string {
	return fmt.Sprintf("nalu{type=%s codec=%s validity=%d hashable=%v first=%v sei=%v len=%d}",
		n.Type, n.Codec, n.Validity, n.IsHashable, n.IsFirstNaluInGOP, n.IsSignedVideoSEI, len(n.Bytes))
}
