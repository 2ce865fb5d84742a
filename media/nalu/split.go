package nalu

// SplitAnnexB scans b for Annex-B start codes (0x000001 / 0x00000001) and
// returns each NAL unit with its start code prefix still attached, ready to
// hand straight to Parse (or session.AddNaluAndAuthenticate). It assumes b
// is Annex-B throughout and does not attempt AVCC/length-prefixed
// detection.
func SplitAnnexB(b []byte) [][]byte {
	starts := findStartCodes(b)
	if len(starts) == 0 {
		return nil
	}

	var nalus [][]byte
	for i, s := range starts {
		end := len(b)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		if s >= end {
			continue
		}
		nalus = append(nalus, b[s:end])
	}
	return nalus
}

// findStartCodes returns the byte offset of every start code in b.
func findStartCodes(b []byte) []int {
	var offsets []int
	for i := 0; i+2 < len(b); i++ {
		if b[i] != 0 || b[i+1] != 0 {
			continue
		}
		if b[i+2] == 1 {
			offsets = append(offsets, i)
			i += 2
			continue
		}
		if i+3 < len(b) && b[i+2] == 0 && b[i+3] == 1 {
			offsets = append(offsets, i)
			i += 3
		}
	}
	return offsets
}
