// Package statistics holds the session-lifetime accumulated-counter and
// periodic-summary objects: small Add-then-Get stat structs and a
// tick-based summary trigger.
package statistics

import (
	"fmt"

	"github.com/bugVanisher/svvalidate/media/report"
)

// AccumulatedCounters is a small Add-then-Get stat object: an unexported
// accumulator, an Add per event, named Get* readers.
type AccumulatedCounters struct {
	acc report.AccumulatedValidation
}

// NewAccumulatedCounters returns an empty counter set.
func NewAccumulatedCounters() *AccumulatedCounters {
	return &AccumulatedCounters{}
}

// Add folds one settled GOP's LatestValidation into the running counters.
func (c *AccumulatedCounters) Add(lv report.LatestValidation) {
	c.acc.Add(lv)
}

func (c *AccumulatedCounters) GetValidGops() int    { return c.acc.NumberOfValidGops }
func (c *AccumulatedCounters) GetInvalidGops() int  { return c.acc.NumberOfInvalidGops }
func (c *AccumulatedCounters) GetUnsignedGops() int { return c.acc.NumberOfUnsignedGops }
func (c *AccumulatedCounters) GetMissingNalus() int { return c.acc.NumberOfMissingNalus }

func (c *AccumulatedCounters) String() string {
	return fmt.Sprintf("valid=%d invalid=%d unsigned=%d missing=%d",
		c.acc.NumberOfValidGops, c.acc.NumberOfInvalidGops, c.acc.NumberOfUnsignedGops, c.acc.NumberOfMissingNalus)
}

// PeriodicSummary triggers every N settled GOPs. GOP settlement is this
// domain's natural tick, so a plain counter replaces a wall-clock timer.
type PeriodicSummary struct {
	every int
	count int
}

// NewPeriodicSummary builds a summary trigger firing every `every` settled
// GOPs. every <= 0 falls back to a 50-GOP window.
func NewPeriodicSummary(every int) *PeriodicSummary {
	if every <= 0 {
		every = 50
	}
	return &PeriodicSummary{every: every}
}

// Tick reports whether this settlement lands on a summary boundary.
func (p *PeriodicSummary) Tick() bool {
	p.count++
	if p.count >= p.every {
		p.count = 0
		return true
	}
	return false
}
