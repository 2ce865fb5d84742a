package tlv

import (
	"bytes"
	"encoding/binary"

	"github.com/bugVanisher/svvalidate/common/errs"
)

// GeneralVersion is the newest GENERAL record layout this codec knows. A
// record with a higher version decodes into an IncompatibleVersion error.
const GeneralVersion = 1

// GeneralInfo is the always-present GENERAL record: the signing-side
// format version, which GOP this SEI signs, how many NAL units the signer
// counted in it, and the GOP's own hash.
type GeneralInfo struct {
	Version       byte
	GOPCounter    uint32
	NumNalusInGOP uint32
	GOPHash       []byte
}

func (g GeneralInfo) Encode() []byte {
	buf := make([]byte, 9+len(g.GOPHash))
	buf[0] = g.Version
	binary.BigEndian.PutUint32(buf[1:5], g.GOPCounter)
	binary.BigEndian.PutUint32(buf[5:9], g.NumNalusInGOP)
	copy(buf[9:], g.GOPHash)
	return buf
}

func DecodeGeneralInfo(b []byte) (GeneralInfo, error) {
	if len(b) < 9 {
		return GeneralInfo{}, errs.New(errs.CodeDecodingError, "tlv: general record too short")
	}
	g := GeneralInfo{
		Version:       b[0],
		GOPCounter:    binary.BigEndian.Uint32(b[1:5]),
		NumNalusInGOP: binary.BigEndian.Uint32(b[5:9]),
		GOPHash:       append([]byte(nil), b[9:]...),
	}
	if g.Version > GeneralVersion {
		return GeneralInfo{}, errs.New(errs.CodeIncompatibleVersion, "tlv: general record version newer than supported")
	}
	return g, nil
}

// HashList is the per-frame hash list used at FRAME authenticity level.
type HashList struct {
	Hashes [][]byte
}

func (h HashList) Encode(digestSize int) []byte {
	buf := make([]byte, 0, len(h.Hashes)*digestSize)
	for _, d := range h.Hashes {
		padded := make([]byte, digestSize)
		copy(padded, d)
		buf = append(buf, padded...)
	}
	return buf
}

func DecodeHashList(b []byte, digestSize int) (HashList, error) {
	if digestSize == 0 || len(b)%digestSize != 0 {
		return HashList{}, errs.New(errs.CodeDecodingError, "tlv: hash list not a multiple of digest size")
	}
	var hl HashList
	for off := 0; off < len(b); off += digestSize {
		hl.Hashes = append(hl.Hashes, append([]byte(nil), b[off:off+digestSize]...))
	}
	return hl, nil
}

// ProductInfo is the recurrent PRODUCT_INFO record.
type ProductInfo struct {
	HardwareID      string
	FirmwareVersion string
	SerialNumber    string
	Manufacturer    string
	Address         string
}

func (p ProductInfo) Encode() []byte {
	fields := []string{p.HardwareID, p.FirmwareVersion, p.SerialNumber, p.Manufacturer, p.Address}
	var buf bytes.Buffer
	for _, f := range fields {
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(f)))
		buf.Write(lenBuf[:])
		buf.WriteString(f)
	}
	return buf.Bytes()
}

func DecodeProductInfo(b []byte) (ProductInfo, error) {
	var fields [5]string
	off := 0
	for i := 0; i < 5; i++ {
		if off+2 > len(b) {
			return ProductInfo{}, errs.New(errs.CodeDecodingError, "tlv: product info truncated")
		}
		n := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2
		if off+n > len(b) {
			return ProductInfo{}, errs.New(errs.CodeDecodingError, "tlv: product info field overruns payload")
		}
		fields[i] = string(b[off : off+n])
		off += n
	}
	return ProductInfo{
		HardwareID:      fields[0],
		FirmwareVersion: fields[1],
		SerialNumber:    fields[2],
		Manufacturer:    fields[3],
		Address:         fields[4],
	}, nil
}

// CryptoInfo carries the signature algorithm identifiers the core itself
// never interprets; it is handed to the Verifier as-is.
type CryptoInfo struct {
	AlgorithmID uint16
	CurveID     uint16
}

func (c CryptoInfo) Encode() []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint16(buf[0:2], c.AlgorithmID)
	binary.BigEndian.PutUint16(buf[2:4], c.CurveID)
	return buf
}

func DecodeCryptoInfo(b []byte) (CryptoInfo, error) {
	if len(b) < 4 {
		return CryptoInfo{}, errs.New(errs.CodeDecodingError, "tlv: crypto info too short")
	}
	return CryptoInfo{
		AlgorithmID: binary.BigEndian.Uint16(b[0:2]),
		CurveID:     binary.BigEndian.Uint16(b[2:4]),
	}, nil
}

// VendorAxisPayload is version 1 of the vendor Axis Communications TLV
// value: version, a NUL-terminated ASCII certificate chain, and an opaque
// attestation blob whose semantics this validator treats as a
// pass-through.
type VendorAxisPayload struct {
	Version     byte
	CertChain   string // NUL-terminated on the wire, not in this field
	Attestation []byte
}

func (v VendorAxisPayload) Encode() ([]byte, error) {
	certBytes := append([]byte(v.CertChain), 0x00)
	if len(certBytes) > 255 {
		return nil, errs.New(errs.CodeDecodingError, "tlv: vendor axis cert chain too long")
	}
	if len(v.Attestation) > 255 {
		return nil, errs.New(errs.CodeDecodingError, "tlv: vendor axis attestation too long")
	}
	buf := make([]byte, 0, 3+len(certBytes)+len(v.Attestation))
	buf = append(buf, v.Version, byte(len(certBytes)))
	buf = append(buf, certBytes...)
	buf = append(buf, byte(len(v.Attestation)))
	buf = append(buf, v.Attestation...)
	return buf, nil
}

func DecodeVendorAxisPayload(b []byte) (VendorAxisPayload, error) {
	if len(b) < 2 {
		return VendorAxisPayload{}, errs.New(errs.CodeDecodingError, "tlv: vendor axis payload too short")
	}
	version := b[0]
	certLen := int(b[1])
	off := 2
	if off+certLen > len(b) {
		return VendorAxisPayload{}, errs.New(errs.CodeDecodingError, "tlv: vendor axis cert chain overruns payload")
	}
	cert := b[off : off+certLen]
	cert = bytes.TrimRight(cert, "\x00")
	off += certLen
	if off >= len(b) {
		return VendorAxisPayload{}, errs.New(errs.CodeDecodingError, "tlv: vendor axis payload missing attestation length")
	}
	attLen := int(b[off])
	off++
	if off+attLen > len(b) {
		return VendorAxisPayload{}, errs.New(errs.CodeDecodingError, "tlv: vendor axis attestation overruns payload")
	}
	return VendorAxisPayload{
		Version:     version,
		CertChain:   string(cert),
		Attestation: append([]byte(nil), b[off:off+attLen]...),
	}, nil
}
