package credit

import (
	"testing"
	"time"

	"orgutrip/internal/schedule"
)

func leg(begin time.Time, minutes int, deadhead bool) *schedule.Flight {
	return &schedule.Flight{
		Name:      "0924",
		Carrier:   "AM",
		Deadhead:  deadhead,
		Scheduled: schedule.NewItinerary(begin, begin.Add(time.Duration(minutes)*time.Minute)),
	}
}

func TestNewCalculatorValidation(t *testing.T) {
	if _, err := NewCalculator(Rules{DeadheadFactor: 1.5}); err == nil {
		t.Error("deadhead factor above 1 accepted")
	}
	if _, err := NewCalculator(Rules{MinimumDutyDay: "xx"}); err == nil {
		t.Error("bad minimum duty day accepted")
	}
	if _, err := NewCalculator(DefaultRules()); err != nil {
		t.Errorf("default rules rejected: %v", err)
	}
}

func TestDeadheadFactor(t *testing.T) {
	calc, err := NewCalculator(Rules{DeadheadFactor: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	begin := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	c := calc.EventCredits(leg(begin, 100, true))
	if got := c.Deadhead.Minutes(); got != 50 {
		t.Errorf("deadhead credit = %d, want 50", got)
	}
	if !c.Block.IsZero() {
		t.Errorf("deadhead leg credited block %d", c.Block.Minutes())
	}

	c = calc.EventCredits(leg(begin, 100, false))
	if got := c.Block.Minutes(); got != 100 {
		t.Errorf("block credit = %d, want 100", got)
	}
}

func TestMinimumDutyDayFloor(t *testing.T) {
	calc, err := NewCalculator(Rules{DeadheadFactor: 1.0, MinimumDutyDay: "0300"})
	if err != nil {
		t.Fatal(err)
	}

	begin := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	dd := &schedule.DutyDay{}
	dd.Append(leg(begin, 100, false)) // 1:40 flown, floor is 3:00

	c := calc.DutyDayCredits(dd)
	if got := c.Block.Add(c.Deadhead).Minutes(); got != 180 {
		t.Errorf("credited = %d minutes, want floor 180", got)
	}
	if got := c.Duty.Minutes(); got != dd.Duration().Minutes() {
		t.Errorf("duty = %d, want day duration %d", got, dd.Duration().Minutes())
	}
}

func TestTAFBGuarantee(t *testing.T) {
	calc, err := NewCalculator(Rules{DeadheadFactor: 1.0, TAFBGuaranteeFactor: 0.25})
	if err != nil {
		t.Fatal(err)
	}

	// Two duty days, 100 flown minutes each, separated by a long rest:
	// TAFB far exceeds four times the flown time.
	d1Begin := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	d2Begin := d1Begin.Add(24 * time.Hour)

	dd1 := &schedule.DutyDay{}
	dd1.Append(leg(d1Begin, 100, false))
	dd2 := &schedule.DutyDay{}
	dd2.Append(leg(d2Begin, 100, false))

	trip := &schedule.Trip{Number: "7002"}
	trip.Append(dd1)
	trip.Append(dd2)

	c := calc.TripCredits(trip)
	wantGuarantee := trip.Duration().Minutes() / 4
	if got := c.Block.Add(c.Deadhead).Minutes(); got != wantGuarantee {
		t.Errorf("credited = %d minutes, want guarantee %d", got, wantGuarantee)
	}
	if got := c.TAFB.Minutes(); got != trip.Duration().Minutes() {
		t.Errorf("tafb = %d, want %d", got, trip.Duration().Minutes())
	}
}

func TestLineCreditsSumTrips(t *testing.T) {
	calc, err := NewCalculator(DefaultRules())
	if err != nil {
		t.Fatal(err)
	}

	begin := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	dd := &schedule.DutyDay{}
	dd.Append(leg(begin, 100, false))
	dd.Append(leg(begin.Add(3*time.Hour), 90, true))
	trip := &schedule.Trip{Number: "7002"}
	trip.Append(dd)

	line := &schedule.Line{Year: 2023, Month: time.June}
	line.Append(trip)

	c := line.ComputeCredits(calc)
	if got := c.Block.Minutes(); got != 100 {
		t.Errorf("block = %d, want 100", got)
	}
	if got := c.Deadhead.Minutes(); got != 90 {
		t.Errorf("deadhead = %d, want 90", got)
	}
}
