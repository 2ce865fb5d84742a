package nalu

import (
	"bytes"
	"encoding/binary"

	"github.com/bugVanisher/svvalidate/internal/bitreader"
)

// H.264 NAL unit type values (ITU-T H.264 Table 7-1).
const (
	h264NonIDRSlice = 1
	h264IDRSlice    = 5
	h264SEI         = 6
	h264SPS         = 7
	h264PPS         = 8
	h264AUD         = 9
)

// H.265/HEVC NAL unit type values (ITU-T H.265 Table 7-1).
const (
	h265TrailN    = 0
	h265RaslR     = 9
	h265BlaWLP    = 16
	h265CraNut    = 21
	h265VPS       = 32
	h265SPS       = 33
	h265PPS       = 34
	h265PrefixSEI = 39
	h265SuffixSEI = 40
)

// Parse classifies one NAL unit. b may carry a leading Annex-B start code
// (0x000001 / 0x00000001) or a 4-byte big-endian length prefix; either is
// detected and recorded. b is never retained or mutated: everything kept on
// the returned Info is copied.
//
// A NAL unit that cannot be parsed at all yields ValidityError, not an
// error — the caller still gets a success return code, only the item's
// per-NALU status reflects the failure.
func Parse(b []byte, codec Codec) *Info {
	start := stripPrefix(b)
	body := b[start:]

	info := &Info{Codec: codec}

	headerLen := 1
	if codec == H265 {
		headerLen = 2
	}
	if len(body) < headerLen+1 {
		info.Validity = ValidityError
		info.Type = TypeUndefined
		return info
	}

	info.Bytes = append([]byte(nil), body...)

	switch codec {
	case H264:
		classifyH264(info, body)
	default:
		classifyH265(info, body)
	}

	finishHashable(info, body, headerLen)

	return info
}

// stripPrefix returns the offset in b where the NAL unit body (header byte
// onward) begins, consuming an Annex-B start code or a 4-byte length
// prefix.
func stripPrefix(b []byte) int {
	if len(b) >= 4 {
		if bytes.Equal(b[:3], []byte{0, 0, 1}) {
			return 3
		}
		if bytes.Equal(b[:4], []byte{0, 0, 0, 1}) {
			return 4
		}
		if n := binary.BigEndian.Uint32(b[:4]); int(n) == len(b)-4 {
			return 4
		}
	}
	if len(b) >= 3 && bytes.Equal(b[:3], []byte{0, 0, 1}) {
		return 3
	}
	return 0
}

func classifyH264(info *Info, body []byte) {
	forbiddenZero := body[0]&0x80 != 0
	nalType := body[0] & 0x1f

	if forbiddenZero {
		info.Validity = ValidityInvalid
	}

	switch {
	case nalType == h264IDRSlice:
		info.Type = TypeI
		info.IsPrimarySlice = true
		info.IsFirstNaluInGOP = isFirstSliceH264(body[1:])
	case nalType == h264NonIDRSlice:
		info.IsPrimarySlice = true
		if isIntraSliceH264(body[1:]) {
			info.Type = TypeI
		} else {
			info.Type = TypeP
		}
	case nalType == h264SPS || nalType == h264PPS:
		info.Type = TypePS
	case nalType == h264SEI:
		info.Type = TypeSEI
		parseSEI(info, body, 1)
	case nalType == h264AUD || (nalType >= 2 && nalType <= 4) || nalType == 13 || nalType == 14 || nalType == 15:
		info.Type = TypeOther
	case nalType == 0 || nalType >= 16:
		info.Type = TypeUndefined
	default:
		info.Type = TypeOther
	}
}

func classifyH265(info *Info, body []byte) {
	forbiddenZero := body[0]&0x80 != 0
	nalType := (body[0] & 0x7e) >> 1

	if forbiddenZero {
		info.Validity = ValidityInvalid
	}

	switch {
	case nalType <= h265RaslR:
		info.Type = TypeP
		info.IsPrimarySlice = true
	case nalType >= h265BlaWLP && nalType <= 23:
		info.Type = TypeI
		info.IsPrimarySlice = true
		info.IsFirstNaluInGOP = isFirstSliceH265(body[2:])
	case nalType == h265VPS || nalType == h265SPS || nalType == h265PPS:
		info.Type = TypePS
	case nalType == h265PrefixSEI || nalType == h265SuffixSEI:
		info.Type = TypeSEI
		parseSEI(info, body, 2)
	case nalType >= 41 && nalType <= 47:
		info.Type = TypeUndefined
	default:
		info.Type = TypeOther
	}
}

// isFirstSliceH264 reads first_mb_in_slice (ue(v)) and reports whether it
// is zero, i.e. this is the first slice of its picture.
func isFirstSliceH264(rbsp []byte) bool {
	de := RemoveEmulationPrevention(rbsp)
	r := &bitreader.GolombBitReader{R: bytes.NewReader(de)}
	firstMB, err := r.ReadExponentialGolombCode()
	if err != nil {
		return false
	}
	return firstMB == 0
}

// isIntraSliceH264 reads first_mb_in_slice then slice_type and reports
// whether the slice is an I slice (slice_type % 5 == 2).
func isIntraSliceH264(rbsp []byte) bool {
	de := RemoveEmulationPrevention(rbsp)
	r := &bitreader.GolombBitReader{R: bytes.NewReader(de)}
	if _, err := r.ReadExponentialGolombCode(); err != nil { // first_mb_in_slice
		return false
	}
	sliceType, err := r.ReadExponentialGolombCode()
	if err != nil {
		return false
	}
	return sliceType%5 == 2
}

// isFirstSliceH265 reads first_slice_segment_in_pic_flag, the single bit
// immediately following the 2-byte NAL header.
func isFirstSliceH265(rbsp []byte) bool {
	if len(rbsp) == 0 {
		return false
	}
	return rbsp[0]&0x80 != 0
}

// parseSEI reads the UUID (user-data-unregistered SEI only) and de-emulates
// the remainder into info.TLV. headerLen is 1 for H264, 2 for H265.
//
// The SEI payload after the NAL header starts with payloadType and
// payloadSize fields (each a run of 0xFF bytes followed by a terminal
// byte, per Annex D); for user-data-unregistered (payloadType 5) the
// payload itself begins with the 16-byte UUID. We only care about that
// one payload type — anything else is a plain hashable SEI.
func parseSEI(info *Info, body []byte, headerLen int) {
	rbsp := RemoveEmulationPrevention(body[headerLen:])
	// strip trailing stop bit + rbsp_trailing_bits padding byte if present.
	if n := len(rbsp); n > 0 && rbsp[n-1] == 0x80 {
		rbsp = rbsp[:n-1]
	}

	off := 0
	payloadType := 0
	for off < len(rbsp) && rbsp[off] == 0xff {
		payloadType += 0xff
		off++
	}
	if off >= len(rbsp) {
		info.IsHashable = true
		return
	}
	payloadType += int(rbsp[off])
	off++

	payloadSize := 0
	for off < len(rbsp) && rbsp[off] == 0xff {
		payloadSize += 0xff
		off++
	}
	if off >= len(rbsp) {
		info.IsHashable = true
		return
	}
	payloadSize += int(rbsp[off])
	off++

	const userDataUnregistered = 5
	if payloadType != userDataUnregistered || off+UUIDSize > len(rbsp) {
		// Not a user-data-unregistered SEI (or malformed): hashable but not
		// a candidate Signed-Video SEI. The asymmetry is deliberate:
		// unknown-UUID SEI is hashable, Signed-Video SEI is not.
		info.IsHashable = true
		return
	}

	copy(info.UUID[:], rbsp[off:off+UUIDSize])
	off += UUIDSize

	if info.UUID == SignedVideoUUID {
		info.IsSignedVideoSEI = true
		info.IsHashable = false
		payloadEnd := off + payloadSize - UUIDSize
		if payloadEnd > len(rbsp) || payloadEnd < off {
			payloadEnd = len(rbsp)
		}
		if off < len(rbsp) {
			info.Reserved = rbsp[off]
			off++
		}
		if off <= payloadEnd {
			info.TLV = append([]byte(nil), rbsp[off:payloadEnd]...)
		}
	} else {
		info.IsHashable = true
	}
}

// finishHashable determines IsHashable (for SEI, parseSEI already decided:
// unknown-UUID SEI hashes, Signed-Video SEI does not) and fills Hashable
// with the emulation-free header+RBSP, stop bit excluded.
func finishHashable(info *Info, body []byte, headerLen int) {
	switch info.Type {
	case TypeSEI:
		if info.Validity != ValidityValid {
			info.IsHashable = false
		}
	case TypeI, TypeP, TypePS, TypeOther:
		info.IsHashable = info.Validity == ValidityValid
	default:
		info.IsHashable = false
	}

	if !info.IsHashable {
		return
	}

	header := body[:headerLen]
	rbsp := RemoveEmulationPrevention(body[headerLen:])
	if n := len(rbsp); n > 0 && rbsp[n-1] == 0x80 {
		rbsp = rbsp[:n-1]
	}
	hashable := make([]byte, 0, len(header)+len(rbsp))
	hashable = append(hashable, header...)
	hashable = append(hashable, rbsp...)
	info.Hashable = hashable
}
