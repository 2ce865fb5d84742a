// Package tlv implements the SEI payload codec: a sequence of
// tag(1) || length(2, BE) || value(length) records, with
// emulation-prevention applied on the wire.
package tlv

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/bugVanisher/svvalidate/common/errs"
)

// Tag identifies a TLV record. GENERAL/SIGNATURE/CRYPTO_INFO/HASH_LIST are
// always present per SEI; PRODUCT_INFO/PUBLIC_KEY/ARBITRARY_DATA/
// VENDOR_AXIS are recurrent.
type Tag byte

const (
	TagGeneral       Tag = 0x01
	TagSignature     Tag = 0x02
	TagCryptoInfo    Tag = 0x03
	TagHashList      Tag = 0x04
	TagProductInfo   Tag = 0x05
	TagPublicKey     Tag = 0x06
	TagArbitraryData Tag = 0x07
	TagVendorAxis    Tag = 0x08
)

// Record is one decoded tag/value pair. Unknown tags are kept verbatim so a
// round trip of encode(decode(x)) reproduces x even across tags this
// version of the codec does not interpret.
type Record struct {
	Tag   Tag
	Value []byte
}

const recordHeaderSize = 1 + 2 // tag + length

// Decode parses a flat sequence of TLV records out of a de-emulated SEI
// payload. Unknown tags are kept for the caller to skip, never errored.
func Decode(data []byte) ([]Record, error) {
	var records []Record
	off := 0
	for off < len(data) {
		if off+recordHeaderSize > len(data) {
			return nil, errs.New(errs.CodeDecodingError, "tlv: truncated record header")
		}
		tag := Tag(data[off])
		length := int(binary.BigEndian.Uint16(data[off+1 : off+3]))
		off += recordHeaderSize
		if off+length > len(data) {
			return nil, errs.New(errs.CodeDecodingError, "tlv: record length overruns payload")
		}
		value := append([]byte(nil), data[off:off+length]...)
		records = append(records, Record{Tag: tag, Value: value})
		off += length
	}
	return records, nil
}

// Encode serialises records into a flat, emulation-free byte sequence, in
// the order given — the form Decode consumes. Wire producers stream
// through EncodeTo with a nalu.EmulationWriter instead.
func Encode(records []Record) []byte {
	size := 0
	for _, r := range records {
		size += recordHeaderSize + len(r.Value)
	}
	var buf bytes.Buffer
	buf.Grow(size)
	EncodeTo(&buf, records)
	return buf.Bytes()
}

// EncodeTo serialises records through w one byte at a time, so that
// pairing it with an emulation-inserting writer (nalu.EmulationWriter)
// yields the wire form directly. Length fields count the pre-emulation
// value bytes, which is why insertion on the fly cannot invalidate them.
func EncodeTo(w io.ByteWriter, records []Record) error {
	for _, r := range records {
		if err := w.WriteByte(byte(r.Tag)); err != nil {
			return err
		}
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(r.Value)))
		for _, b := range lenBuf {
			if err := w.WriteByte(b); err != nil {
				return err
			}
		}
		for _, b := range r.Value {
			if err := w.WriteByte(b); err != nil {
				return err
			}
		}
	}
	return nil
}

// Find returns the first record with the given tag, or false if absent.
func Find(records []Record, tag Tag) (Record, bool) {
	for _, r := range records {
		if r.Tag == tag {
			return r, true
		}
	}
	return Record{}, false
}

// Recurs reports whether a recurrent tag should be included on the SEI for
// GOP counter gopCounter, given recurrence interval r and phase offset:
// (gopCounter + offset) mod r == 0.
func Recurs(gopCounter, r, offset int) bool {
	if r <= 0 {
		return true
	}
	return (gopCounter+offset)%r == 0
}
