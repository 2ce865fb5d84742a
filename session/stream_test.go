package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bugVanisher/svvalidate/media/hash"
	"github.com/bugVanisher/svvalidate/media/nalu"
	"github.com/bugVanisher/svvalidate/media/report"
	"github.com/bugVanisher/svvalidate/media/tlv"
)

// Test-side signer: builds the Annex-B wire a signing camera would emit,
// one NAL unit per slice. The signer hashes exactly what the parser will
// hash, so digests are derived by parsing the produced wire back.

func iFrame(seed byte) []byte {
	return []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0x88, seed, 0x3c, 0x45}
}

func pFrame(seed byte) []byte {
	return []byte{0x00, 0x00, 0x00, 0x01, 0x41, 0x9a, seed, 0x3c, 0x45}
}

// tampered flips one payload bit, the smallest post-signing modification.
func tampered(wire []byte) []byte {
	out := append([]byte(nil), wire...)
	out[len(out)-1] ^= 0x01
	return out
}

func digestOf(t *testing.T, wire []byte) hash.Digest {
	info := nalu.Parse(wire, nalu.H264)
	require.True(t, info.IsHashable)
	return hash.Of(info.Hashable)
}

func digests(t *testing.T, wires ...[]byte) []hash.Digest {
	out := make([]hash.Digest, 0, len(wires))
	for _, w := range wires {
		out = append(out, digestOf(t, w))
	}
	return out
}

type seiOpts struct {
	hashList bool
	key      []byte
	product  *tlv.ProductInfo
	vendor   *tlv.VendorAxisPayload
}

// seiNalu signs one GOP: the digests cover every hashable unit of the GOP
// in arrival order, the chained first NALU of the next GOP included.
func seiNalu(t *testing.T, counter uint32, ds []hash.Digest, o seiOpts) []byte {
	gh := hash.GOPHash(ds)
	records := []tlv.Record{
		{Tag: tlv.TagGeneral, Value: tlv.GeneralInfo{
			Version:       tlv.GeneralVersion,
			GOPCounter:    counter,
			NumNalusInGOP: uint32(len(ds)),
			GOPHash:       gh.Slice(),
		}.Encode()},
		{Tag: tlv.TagCryptoInfo, Value: tlv.CryptoInfo{AlgorithmID: 1, CurveID: 3}.Encode()},
	}
	if o.hashList {
		var hl tlv.HashList
		for _, d := range ds {
			hl.Hashes = append(hl.Hashes, d.Slice())
		}
		records = append(records, tlv.Record{Tag: tlv.TagHashList, Value: hl.Encode(hash.DigestSize)})
	}
	if o.key != nil {
		records = append(records, tlv.Record{Tag: tlv.TagPublicKey, Value: o.key})
	}
	if o.product != nil {
		records = append(records, tlv.Record{Tag: tlv.TagProductInfo, Value: o.product.Encode()})
	}
	if o.vendor != nil {
		v, err := o.vendor.Encode()
		require.NoError(t, err)
		records = append(records, tlv.Record{Tag: tlv.TagVendorAxis, Value: v})
	}
	records = append(records, tlv.Record{Tag: tlv.TagSignature, Value: []byte("test-signature")})

	payloadLen := 0
	for _, r := range records {
		payloadLen += 3 + len(r.Value)
	}
	size := nalu.UUIDSize + 1 + payloadLen

	// The whole RBSP streams through one emulation writer, so insertions
	// spanning the UUID/reserved/TLV boundaries come out right.
	w := nalu.NewEmulationWriter(size + 8)
	w.WriteByte(0x05) // payloadType user_data_unregistered
	for size >= 255 {
		w.WriteByte(0xff)
		size -= 255
	}
	w.WriteByte(byte(size))
	w.Write(nalu.SignedVideoUUID[:])
	w.WriteByte(0x00) // reserved
	require.NoError(t, tlv.EncodeTo(w, records))
	w.WriteByte(0x80) // rbsp_stop_one_bit
	return append([]byte{0x00, 0x00, 0x00, 0x01, 0x06}, w.Bytes()...)
}

// runStream drives every NAL unit through the session and collects the
// non-nil reports.
func runStream(t *testing.T, s *Session, nalus ...[]byte) []*report.Report {
	var reports []*report.Report
	for _, n := range nalus {
		rep, err := s.AddNaluAndAuthenticate(n)
		require.NoError(t, err)
		if rep != nil {
			reports = append(reports, rep)
		}
	}
	return reports
}
