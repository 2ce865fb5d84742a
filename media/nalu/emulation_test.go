package nalu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRemoveEmulationPrevention(t *testing.T) {
	require.Equal(t, []byte{0x00, 0x00, 0x01}, RemoveEmulationPrevention([]byte{0x00, 0x00, 0x03, 0x01}))
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x00}, RemoveEmulationPrevention([]byte{0x00, 0x00, 0x03, 0x00, 0x00, 0x03}))
	// Data with no 0x000003 pattern passes through unchanged.
	require.Equal(t, []byte{0x12, 0x34}, RemoveEmulationPrevention([]byte{0x12, 0x34}))
}

func TestAddEmulationPrevention(t *testing.T) {
	out, n := AddEmulationPrevention([]byte{0x00, 0x00, 0x00, 0x00, 0x01})
	require.Equal(t, []byte{0x00, 0x00, 0x03, 0x00, 0x00, 0x03, 0x01}, out)
	require.Equal(t, 2, n)

	out, n = AddEmulationPrevention([]byte{0x00, 0x00, 0x80})
	require.Equal(t, []byte{0x00, 0x00, 0x80}, out)
	require.Equal(t, 0, n)
}

func TestEmulationRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0x00},
		{0x00, 0x00},
		{0x00, 0x00, 0x00},
		{0x00, 0x00, 0x01, 0x00, 0x00, 0x02, 0x00, 0x00, 0x03},
		{0xff, 0x00, 0x00, 0x00, 0xff, 0x00, 0x00},
	}
	for _, c := range cases {
		padded, _ := AddEmulationPrevention(c)
		require.Equal(t, append([]byte{}, c...), RemoveEmulationPrevention(padded))
	}
}

func TestEmulationWriterStreamsInsertions(t *testing.T) {
	w := NewEmulationWriter(8)
	for _, b := range []byte{0x00, 0x00, 0x01, 0xab, 0x00, 0x00, 0x03} {
		require.NoError(t, w.WriteByte(b))
	}
	require.Equal(t, []byte{0x00, 0x00, 0x03, 0x01, 0xab, 0x00, 0x00, 0x03, 0x03}, w.Bytes())
	require.Equal(t, 2, w.Added())
}

func TestEmulationWriterAcrossWriteBoundaries(t *testing.T) {
	// The zero-run state carries across Write calls, the case a segmented
	// SEI encode (payload header, UUID, TLV records) depends on.
	w := NewEmulationWriter(8)
	w.Write([]byte{0xab, 0x00})
	w.Write([]byte{0x00})
	w.Write([]byte{0x01, 0x02})
	require.Equal(t, []byte{0xab, 0x00, 0x00, 0x03, 0x01, 0x02}, w.Bytes())
	require.Equal(t, 1, w.Added())
}
