package build

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"orgutrip/internal/duration"
	"orgutrip/internal/schedule"
)

// Decision is the outcome of an interactive remediation prompt.
type Decision int

const (
	// Keep accepts the stored or built value as it stands.
	Keep Decision = iota
	// Replace stores the newly built value over the stored one.
	Replace
	// Discard rejects the value; the current trip is abandoned.
	Discard
)

// ErrUnresolved is returned by non-interactive resolvers for questions
// that need a human. The builder escalates it to an unbuilt trip.
var ErrUnresolved = errors.New("unresolved, postponed for manual handling")

// Resolver answers the questions the builder cannot decide from the
// document alone. Implementations: Terminal (blocking prompts) and
// Postpone (declines everything, trips pile up in the unbuilt list).
type Resolver interface {
	// BlockTime supplies a block time for a leg whose duration is
	// undetermined.
	BlockTime(leg FlightData, at string) (duration.Duration, error)

	// FlightMatch disambiguates between a built flight and several
	// stored same-day candidates. On Keep the returned flight is the
	// stored one to reuse.
	FlightMatch(built *schedule.Flight, stored []*schedule.Flight) (Decision, *schedule.Flight, error)

	// DutyDayMismatch decides what to do with a duty day that failed
	// the declared-total check. Keep accepts the built day as is;
	// Replace walks its flights through FlightCorrection first.
	DutyDayMismatch(declared string, built *schedule.DutyDay) (Decision, error)

	// FlightCorrection reviews one flight of an inconsistent duty day.
	// A nil itinerary keeps the flight as built; a non-nil one becomes
	// its actual itinerary and is persisted.
	FlightCorrection(f *schedule.Flight) (*schedule.Itinerary, error)
}

// PostponeResolver declines every question so inconsistent trips are
// collected instead of blocking the batch on prompts.
type PostponeResolver struct{}

func (PostponeResolver) BlockTime(FlightData, string) (duration.Duration, error) {
	return duration.Duration{}, ErrUnresolved
}

func (PostponeResolver) FlightMatch(*schedule.Flight, []*schedule.Flight) (Decision, *schedule.Flight, error) {
	return Discard, nil, ErrUnresolved
}

func (PostponeResolver) DutyDayMismatch(string, *schedule.DutyDay) (Decision, error) {
	return Discard, nil
}

func (PostponeResolver) FlightCorrection(*schedule.Flight) (*schedule.Itinerary, error) {
	return nil, ErrUnresolved
}

// TerminalResolver asks on the terminal and blocks until answered.
type TerminalResolver struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewTerminalResolver reads answers from in and writes prompts to out.
func NewTerminalResolver(in io.Reader, out io.Writer) *TerminalResolver {
	return &TerminalResolver{scanner: bufio.NewScanner(in), out: out}
}

func (r *TerminalResolver) readLine() (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(r.scanner.Text()), nil
}

func (r *TerminalResolver) BlockTime(leg FlightData, at string) (duration.Duration, error) {
	fmt.Fprintf(r.out, "FLT %s %s %s %s %s %s\n", at, leg.Name,
		leg.Origin, leg.Begin, leg.Destination, leg.End)
	fmt.Fprintln(r.out, "unable to determine block time.")
	fmt.Fprint(r.out, "Insert time as HHMM format: ")
	line, err := r.readLine()
	if err != nil {
		return duration.Duration{}, err
	}
	d, err := duration.Parse(line)
	if err != nil {
		return duration.Duration{}, fmt.Errorf("manual block time: %w", err)
	}
	if d.IsZero() {
		return duration.Duration{}, fmt.Errorf("manual block time %q: zero duration", line)
	}
	return d, nil
}

func (r *TerminalResolver) FlightMatch(built *schedule.Flight, stored []*schedule.Flight) (Decision, *schedule.Flight, error) {
	fmt.Fprintf(r.out, "several stored flights match %s:\n", built)
	for i, f := range stored {
		fmt.Fprintf(r.out, "  %d) %s\n", i+1, f)
	}
	fmt.Fprint(r.out, "pick a number, n for the new flight, d to discard the trip: ")
	line, err := r.readLine()
	if err != nil {
		return Discard, nil, err
	}
	switch strings.ToLower(line) {
	case "n":
		return Replace, nil, nil
	case "d", "":
		return Discard, nil, nil
	}
	var pick int
	if _, err := fmt.Sscanf(line, "%d", &pick); err != nil || pick < 1 || pick > len(stored) {
		return Discard, nil, fmt.Errorf("invalid choice %q", line)
	}
	return Keep, stored[pick-1], nil
}

func (r *TerminalResolver) DutyDayMismatch(declared string, built *schedule.DutyDay) (Decision, error) {
	fmt.Fprintf(r.out, "duty day computes to %s but the roster declares %s:\n%s\n",
		built.Duration().Colon(), declared, built)
	fmt.Fprint(r.out, "y to accept the built day, c to correct each flight, anything else discards: ")
	line, err := r.readLine()
	if err != nil {
		return Discard, err
	}
	switch strings.ToLower(line) {
	case "y":
		return Keep, nil
	case "c":
		return Replace, nil
	}
	return Discard, nil
}

func (r *TerminalResolver) FlightCorrection(f *schedule.Flight) (*schedule.Itinerary, error) {
	fmt.Fprintf(r.out, "%s\n", f)
	fmt.Fprint(r.out, "correct this flight? [y/N]: ")
	line, err := r.readLine()
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(line, "y") {
		return nil, nil
	}
	fmt.Fprint(r.out, "Insert time as HHMM format: ")
	line, err = r.readLine()
	if err != nil {
		return nil, err
	}
	d, err := duration.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("corrected block time: %w", err)
	}
	if d.IsZero() {
		return nil, fmt.Errorf("corrected block time %q: zero duration", line)
	}
	it := schedule.ItineraryFromDuration(f.Begin(), d)
	return &it, nil
}
