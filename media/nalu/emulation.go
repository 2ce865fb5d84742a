package nalu

// RemoveEmulationPrevention strips H.26x emulation-prevention bytes
// (0x000003 -> 0x0000) from b, returning a new slice. Caller memory is never
// mutated.
func RemoveEmulationPrevention(b []byte) []byte {
	j := 0
	r := make([]byte, len(b))
	for i := 0; i < len(b); {
		if i+2 < len(b) && b[i] == 0 && b[i+1] == 0 && b[i+2] == 3 {
			r[j] = 0
			r[j+1] = 0
			j += 2
			i += 3
		} else {
			r[j] = b[i]
			j++
			i++
		}
	}
	return r[:j]
}

// EmulationWriter accumulates encoded bytes while inserting
// emulation-prevention bytes on the fly, tracking only the last two
// emitted bytes. It is the one encoder for the wire: the batch
// AddEmulationPrevention helper and tlv.EncodeTo both write through it.
//
// Length fields in whatever is being encoded must be computed from the
// pre-emulation bytes — inserting emulation bytes after the fact would
// otherwise invalidate lengths already written.
type EmulationWriter struct {
	out   []byte
	zeros int
	added int
}

func NewEmulationWriter(sizeHint int) *EmulationWriter {
	return &EmulationWriter{out: make([]byte, 0, sizeHint)}
}

// WriteByte emits one byte, inserting 0x03 first when the byte would
// complete a start-code-like pattern. The error is always nil; the
// signature satisfies io.ByteWriter.
func (w *EmulationWriter) WriteByte(b byte) error {
	if w.zeros >= 2 && b <= 3 {
		w.out = append(w.out, 0x03)
		w.added++
		w.zeros = 0
	}
	w.out = append(w.out, b)
	if b == 0 {
		w.zeros++
	} else {
		w.zeros = 0
	}
	return nil
}

// Write emits p byte by byte. The error is always nil; the signature
// satisfies io.Writer.
func (w *EmulationWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		w.WriteByte(b)
	}
	return len(p), nil
}

// Bytes returns everything written so far, emulation bytes included.
func (w *EmulationWriter) Bytes() []byte {
	return w.out
}

// Added reports how many emulation-prevention bytes have been inserted.
func (w *EmulationWriter) Added() int {
	return w.added
}

// AddEmulationPrevention is the batch form of EmulationWriter: it returns
// data with 0x03 inserted after every 0x0000 run that would otherwise be
// followed by a byte <= 0x03, and the number of bytes inserted.
func AddEmulationPrevention(data []byte) ([]byte, int) {
	w := NewEmulationWriter(len(data) + len(data)/3 + 1)
	w.Write(data)
	return w.Bytes(), w.Added()
}
