package tlv

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bugVanisher/svvalidate/common/errs"
)

func TestGeneralInfoRoundTrip(t *testing.T) {
	g := GeneralInfo{Version: GeneralVersion, GOPCounter: 42, NumNalusInGOP: 7, GOPHash: []byte{0xaa, 0xbb, 0xcc}}
	decoded, err := DecodeGeneralInfo(g.Encode())
	require.NoError(t, err)
	require.Equal(t, g, decoded)
}

func TestGeneralInfoTooShort(t *testing.T) {
	_, err := DecodeGeneralInfo([]byte{0x00, 0x01})
	require.Error(t, err)
}

func TestGeneralInfoNewerVersionRejected(t *testing.T) {
	g := GeneralInfo{Version: GeneralVersion + 1, GOPCounter: 1, NumNalusInGOP: 1}
	_, err := DecodeGeneralInfo(g.Encode())
	require.Error(t, err)
	require.Equal(t, errs.CodeIncompatibleVersion, errs.Code(err))
}

func TestHashListRoundTrip(t *testing.T) {
	hl := HashList{Hashes: [][]byte{
		{0x01, 0x02, 0x03, 0x04},
		{0x05, 0x06, 0x07, 0x08},
	}}
	decoded, err := DecodeHashList(hl.Encode(4), 4)
	require.NoError(t, err)
	require.Equal(t, hl, decoded)
}

func TestHashListBadSize(t *testing.T) {
	_, err := DecodeHashList([]byte{0x01, 0x02, 0x03}, 4)
	require.Error(t, err)
	_, err = DecodeHashList([]byte{0x01}, 0)
	require.Error(t, err)
}

func TestProductInfoRoundTrip(t *testing.T) {
	p := ProductInfo{
		HardwareID:      "hw-00:11:22",
		FirmwareVersion: "10.4.2",
		SerialNumber:    "ACCC8E012345",
		Manufacturer:    "Axis Communications AB",
		Address:         "Lund, Sweden",
	}
	decoded, err := DecodeProductInfo(p.Encode())
	require.NoError(t, err)
	require.Equal(t, p, decoded)
}

func TestProductInfoTruncated(t *testing.T) {
	p := ProductInfo{HardwareID: "hw"}
	wire := p.Encode()
	_, err := DecodeProductInfo(wire[:3])
	require.Error(t, err)
}

func TestCryptoInfoRoundTrip(t *testing.T) {
	c := CryptoInfo{AlgorithmID: 3, CurveID: 19}
	decoded, err := DecodeCryptoInfo(c.Encode())
	require.NoError(t, err)
	require.Equal(t, c, decoded)
}

func TestVendorAxisRoundTrip(t *testing.T) {
	v := VendorAxisPayload{
		Version:     1,
		CertChain:   "-----BEGIN CERTIFICATE-----",
		Attestation: []byte{0xde, 0xad, 0xbe, 0xef},
	}
	wire, err := v.Encode()
	require.NoError(t, err)
	decoded, err := DecodeVendorAxisPayload(wire)
	require.NoError(t, err)
	require.Equal(t, v, decoded)
}

func TestVendorAxisTruncated(t *testing.T) {
	v := VendorAxisPayload{Version: 1, CertChain: "c", Attestation: []byte{0x01}}
	wire, err := v.Encode()
	require.NoError(t, err)
	for cut := 1; cut < len(wire); cut++ {
		_, derr := DecodeVendorAxisPayload(wire[:cut])
		require.Error(t, derr, "cut=%d", cut)
	}
}
