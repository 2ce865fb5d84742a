package statistics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bugVanisher/svvalidate/media/report"
)

func TestAccumulatedCounters(t *testing.T) {
	c := NewAccumulatedCounters()
	c.Add(report.LatestValidation{Authenticity: report.AuthenticityOK})
	c.Add(report.LatestValidation{Authenticity: report.AuthenticityNotOK})
	c.Add(report.LatestValidation{Authenticity: report.AuthenticityNotSigned, ListOfMissingNalus: []int{1, 2}})

	require.Equal(t, 1, c.GetValidGops())
	require.Equal(t, 1, c.GetInvalidGops())
	require.Equal(t, 1, c.GetUnsignedGops())
	require.Equal(t, 2, c.GetMissingNalus())
	require.Equal(t, "valid=1 invalid=1 unsigned=1 missing=2", c.String())
}

func TestPeriodicSummaryTick(t *testing.T) {
	p := NewPeriodicSummary(3)
	require.False(t, p.Tick())
	require.False(t, p.Tick())
	require.True(t, p.Tick())
	require.False(t, p.Tick())

	// non-positive window falls back to the default
	p = NewPeriodicSummary(0)
	for i := 0; i < 49; i++ {
		require.False(t, p.Tick())
	}
	require.True(t, p.Tick())
}
