// Package credit implements work-rule credit calculators. The structural
// default sum lives on the schedule types; this package adds a
// rule-table calculator for contract guarantees.
package credit

import (
	"fmt"

	"orgutrip/internal/duration"
	"orgutrip/internal/schedule"
)

// Rules is the configurable work-rule table. Durations are "HHMM" or
// "H:MM" strings so the table reads like the contract it comes from.
type Rules struct {
	// DeadheadFactor is the fraction of deadhead time credited,
	// 1.0 credits it in full.
	DeadheadFactor float64 `yaml:"deadhead_factor"`

	// MinimumDutyDay is the block-credit floor per duty day. Days that
	// fly less still credit this much.
	MinimumDutyDay string `yaml:"minimum_duty_day"`

	// TAFBGuaranteeFactor credits trips at least this fraction of
	// their time away from base, the "one in four" style guarantee.
	// Zero disables it.
	TAFBGuaranteeFactor float64 `yaml:"tafb_guarantee_factor"`
}

// DefaultRules credits deadheads in full with no guarantees.
func DefaultRules() Rules {
	return Rules{DeadheadFactor: 1.0}
}

// Calculator applies a Rules table. It satisfies schedule.Calculator.
type Calculator struct {
	rules      Rules
	minDutyDay duration.Duration
}

// NewCalculator validates and compiles the rule table.
func NewCalculator(rules Rules) (*Calculator, error) {
	c := &Calculator{rules: rules}
	if rules.DeadheadFactor < 0 || rules.DeadheadFactor > 1 {
		return nil, fmt.Errorf("deadhead factor %v out of range", rules.DeadheadFactor)
	}
	if rules.TAFBGuaranteeFactor < 0 || rules.TAFBGuaranteeFactor > 1 {
		return nil, fmt.Errorf("tafb guarantee factor %v out of range", rules.TAFBGuaranteeFactor)
	}
	if rules.MinimumDutyDay != "" {
		d, err := duration.Parse(rules.MinimumDutyDay)
		if err != nil {
			return nil, fmt.Errorf("minimum duty day: %w", err)
		}
		c.minDutyDay = d
	}
	return c, nil
}

// EventCredits books a single event: block for working legs, factored
// deadhead time for positioning legs, duty for ground events.
func (c *Calculator) EventCredits(e schedule.Event) schedule.Credits {
	f, ok := e.(*schedule.Flight)
	if !ok {
		return schedule.Credits{Duty: e.Duration()}
	}
	if f.Deadhead {
		credited := duration.New(int(float64(f.Duration().Minutes()) * c.rules.DeadheadFactor))
		return schedule.Credits{Deadhead: credited}
	}
	return schedule.Credits{Block: f.Duration()}
}

// DutyDayCredits sums event credits and applies the per-day floor.
func (c *Calculator) DutyDayCredits(d *schedule.DutyDay) schedule.Credits {
	var total schedule.Credits
	for _, e := range d.Events {
		ec := c.EventCredits(e)
		total.Block = total.Block.Add(ec.Block)
		total.Deadhead = total.Deadhead.Add(ec.Deadhead)
	}
	total.Duty = d.Duration()

	credited := total.Block.Add(total.Deadhead)
	if credited.Less(c.minDutyDay) {
		total.Block = total.Block.Add(c.minDutyDay.Sub(credited))
	}
	return total
}

// TripCredits sums duty days and applies the TAFB guarantee.
func (c *Calculator) TripCredits(t *schedule.Trip) schedule.Credits {
	var total schedule.Credits
	for _, dd := range t.DutyDays {
		dc := c.DutyDayCredits(dd)
		total.Block = total.Block.Add(dc.Block)
		total.Deadhead = total.Deadhead.Add(dc.Deadhead)
		total.Duty = total.Duty.Add(dc.Duty)
	}
	total.TAFB = t.Duration()

	if c.rules.TAFBGuaranteeFactor > 0 {
		guarantee := duration.New(int(float64(total.TAFB.Minutes()) * c.rules.TAFBGuaranteeFactor))
		credited := total.Block.Add(total.Deadhead)
		if credited.Less(guarantee) {
			total.Block = total.Block.Add(guarantee.Sub(credited))
		}
	}
	return total
}

// LineCredits sums all duties on the line.
func (c *Calculator) LineCredits(l *schedule.Line) schedule.Credits {
	var total schedule.Credits
	for _, d := range l.Duties {
		total = total.Add(d.ComputeCredits(c))
	}
	return total
}
