// Package engine provides the deterministic yearly simulation clock that drives
// the civilization economy during generation.
package engine

import (
	"fmt"
	"log/slog"
)

// Schedule defines when each callback layer runs relative to the year counter.
const (
	YearsPerDecade  = 10
	YearsPerCentury = 100
)

// Clock drives the simulation forward one year at a time. It never sleeps:
// generation runs as fast as the callbacks allow.
type Clock struct {
	Year uint64 // Years simulated so far (monotonic)

	// Callbacks for each layer — populated during setup.
	OnYear    func(year uint64) // Every year
	OnDecade  func(year uint64) // Every 10 years
	OnCentury func(year uint64) // Every 100 years
}

// NewClock creates a clock at year zero.
func NewClock() *Clock {
	return &Clock{}
}

// Run advances the clock by years steps.
func (c *Clock) Run(years uint64) {
	slog.Debug("simulation clock started", "year", c.Year, "years", years)
	for i := uint64(0); i < years; i++ {
		c.step()
	}
	slog.Debug("simulation clock stopped", "year", c.Year)
}

// step advances the simulation by one year.
func (c *Clock) step() {
	c.Year++

	if c.OnYear != nil {
		c.OnYear(c.Year)
	}
	if c.Year%YearsPerDecade == 0 && c.OnDecade != nil {
		c.OnDecade(c.Year)
	}
	if c.Year%YearsPerCentury == 0 && c.OnCentury != nil {
		c.OnCentury(c.Year)
	}
}

// SimTime returns a human-readable time string for a year number.
func SimTime(year uint64) string {
	century := year/YearsPerCentury + 1
	return fmt.Sprintf("Year %d (%s century)", year, ordinal(century))
}

func ordinal(n uint64) string {
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
