package bitreader

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadExponentialGolombCode(t *testing.T) {
	// bit string "1 010 011 00100" = ue codes 0, 1, 2, 3
	r := &GolombBitReader{R: bytes.NewReader([]byte{0xA6, 0x40})}
	for want := uint(0); want < 4; want++ {
		got, err := r.ReadExponentialGolombCode()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestReadBits(t *testing.T) {
	r := &GolombBitReader{R: bytes.NewReader([]byte{0xCA, 0x35})}
	v, err := r.ReadBits(4)
	require.NoError(t, err)
	require.Equal(t, uint(0xC), v)
	v, err = r.ReadBits(8)
	require.NoError(t, err)
	require.Equal(t, uint(0xA3), v)
	v, err = r.ReadBits(4)
	require.NoError(t, err)
	require.Equal(t, uint(0x5), v)
}

func TestReadSE(t *testing.T) {
	// bit string "010 011" = se codes +1, -1
	r := &GolombBitReader{R: bytes.NewReader([]byte{0x4C})}
	v, err := r.ReadSE()
	require.NoError(t, err)
	require.Equal(t, 1, v)
	v, err = r.ReadSE()
	require.NoError(t, err)
	require.Equal(t, -1, v)
}

func TestReadPastEnd(t *testing.T) {
	r := &GolombBitReader{R: bytes.NewReader(nil)}
	_, err := r.ReadBit()
	require.Error(t, err)
}
