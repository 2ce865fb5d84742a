package nalu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildSEIWire assembles a user-data-unregistered SEI NAL unit around the
// given UUID and payload, with emulation-prevention applied, the way a
// signer would put it on the wire.
func buildSEIWire(codec Codec, uuid [UUIDSize]byte, payload []byte) []byte {
	size := UUIDSize + len(payload)
	w := NewEmulationWriter(size + 8)
	w.WriteByte(0x05) // payloadType user_data_unregistered
	for size >= 255 {
		w.WriteByte(0xff)
		size -= 255
	}
	w.WriteByte(byte(size))
	w.Write(uuid[:])
	w.Write(payload)
	w.WriteByte(0x80) // rbsp_stop_one_bit

	header := []byte{0x06}
	if codec == H265 {
		header = []byte{0x4e, 0x01}
	}
	out := []byte{0x00, 0x00, 0x00, 0x01}
	out = append(out, header...)
	return append(out, w.Bytes()...)
}

func TestParseH264IDRSlice(t *testing.T) {
	wire := []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0x88, 0x84, 0x21, 0x45}
	info := Parse(wire, H264)
	require.Equal(t, TypeI, info.Type)
	require.Equal(t, ValidityValid, info.Validity)
	require.True(t, info.IsPrimarySlice)
	require.True(t, info.IsFirstNaluInGOP)
	require.True(t, info.IsHashable)
	require.Equal(t, wire[4:], info.Bytes)
	require.Equal(t, wire[4:], info.Hashable)
}

func TestParseH264NonIDRSlice(t *testing.T) {
	// first_mb_in_slice=0, slice_type=5 (P)
	info := Parse([]byte{0x00, 0x00, 0x01, 0x41, 0x9a, 0x26, 0x45}, H264)
	require.Equal(t, TypeP, info.Type)
	require.True(t, info.IsPrimarySlice)
	require.False(t, info.IsFirstNaluInGOP)
	require.True(t, info.IsHashable)
}

func TestParseH264IntraCodedNonIDR(t *testing.T) {
	// first_mb_in_slice=0, slice_type=7 (I): bits "1 0001000..." = 0x88, 0x00
	info := Parse([]byte{0x00, 0x00, 0x01, 0x41, 0x88, 0x00, 0x45}, H264)
	require.Equal(t, TypeI, info.Type)
	require.False(t, info.IsFirstNaluInGOP)
}

func TestParseH264ParameterSets(t *testing.T) {
	sps := Parse([]byte{0x00, 0x00, 0x00, 0x01, 0x67, 0x42, 0x00, 0x1e}, H264)
	require.Equal(t, TypePS, sps.Type)
	require.True(t, sps.IsHashable)

	pps := Parse([]byte{0x00, 0x00, 0x00, 0x01, 0x68, 0xce, 0x38, 0x80}, H264)
	require.Equal(t, TypePS, pps.Type)
}

func TestParseLengthPrefixed(t *testing.T) {
	wire := []byte{0x00, 0x00, 0x00, 0x05, 0x65, 0x88, 0x84, 0x21, 0x45}
	info := Parse(wire, H264)
	require.Equal(t, TypeI, info.Type)
	require.Equal(t, wire[4:], info.Bytes)
}

func TestParseStopBitStripped(t *testing.T) {
	info := Parse([]byte{0x00, 0x00, 0x01, 0x41, 0x9a, 0x26, 0x80}, H264)
	require.Equal(t, []byte{0x41, 0x9a, 0x26}, info.Hashable)
	require.Equal(t, []byte{0x41, 0x9a, 0x26, 0x80}, info.Bytes)
}

func TestParseSignedVideoSEI(t *testing.T) {
	payload := append([]byte{0x00}, 0xde, 0xad, 0xbe, 0xef) // reserved + tlv
	wire := buildSEIWire(H264, SignedVideoUUID, payload)
	info := Parse(wire, H264)
	require.Equal(t, TypeSEI, info.Type)
	require.True(t, info.IsSignedVideoSEI)
	require.False(t, info.IsHashable)
	require.Equal(t, SignedVideoUUID, info.UUID)
	require.Equal(t, byte(0x00), info.Reserved)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, info.TLV)
}

func TestParseSEIWithEmulationBytes(t *testing.T) {
	payload := append([]byte{0x00}, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x02)
	wire := buildSEIWire(H264, SignedVideoUUID, payload)
	info := Parse(wire, H264)
	require.True(t, info.IsSignedVideoSEI)
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x02}, info.TLV)
}

func TestParseForeignUUIDSEIIsHashable(t *testing.T) {
	uuid := [UUIDSize]byte{0xde, 0xad}
	wire := buildSEIWire(H264, uuid, []byte{0x01, 0x02})
	info := Parse(wire, H264)
	require.Equal(t, TypeSEI, info.Type)
	require.False(t, info.IsSignedVideoSEI)
	require.True(t, info.IsHashable)
	require.Nil(t, info.TLV)
	require.NotNil(t, info.Hashable)
}

func TestParseH265(t *testing.T) {
	// IDR_W_RADL (type 19), first_slice_segment_in_pic_flag set
	idr := Parse([]byte{0x00, 0x00, 0x00, 0x01, 0x26, 0x01, 0xaf, 0x12}, H265)
	require.Equal(t, TypeI, idr.Type)
	require.True(t, idr.IsFirstNaluInGOP)
	require.True(t, idr.IsHashable)

	vps := Parse([]byte{0x00, 0x00, 0x00, 0x01, 0x40, 0x01, 0x0c}, H265)
	require.Equal(t, TypePS, vps.Type)

	trail := Parse([]byte{0x00, 0x00, 0x00, 0x01, 0x02, 0x01, 0x7f, 0x12}, H265)
	require.Equal(t, TypeP, trail.Type)
	require.False(t, trail.IsFirstNaluInGOP)
}

func TestParseH265SignedVideoSEI(t *testing.T) {
	wire := buildSEIWire(H265, SignedVideoUUID, []byte{0x00, 0x11, 0x22})
	info := Parse(wire, H265)
	require.True(t, info.IsSignedVideoSEI)
	require.Equal(t, []byte{0x11, 0x22}, info.TLV)
}

func TestParseTooShort(t *testing.T) {
	info := Parse([]byte{0x00, 0x00, 0x00, 0x01}, H264)
	require.Equal(t, ValidityError, info.Validity)
	require.Equal(t, TypeUndefined, info.Type)
	require.False(t, info.IsHashable)
}

func TestParseForbiddenZeroBit(t *testing.T) {
	info := Parse([]byte{0x00, 0x00, 0x01, 0xe5, 0x88, 0x84}, H264)
	require.Equal(t, ValidityInvalid, info.Validity)
	require.False(t, info.IsHashable)
}

func TestParseDoesNotRetainCallerMemory(t *testing.T) {
	wire := []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0x88, 0x84, 0x21, 0x45}
	info := Parse(wire, H264)
	wire[5] = 0xff
	require.Equal(t, byte(0x88), info.Bytes[1])
	require.Equal(t, byte(0x88), info.Hashable[1])
}
