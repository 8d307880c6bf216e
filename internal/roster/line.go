package roster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"orgutrip/internal/schedule"
	"orgutrip/internal/storage"
)

// AssembleLine turns a parsed roster into the month's duty line,
// resolving each trip row against storage by (number, dated). Trip rows
// whose trips were never imported are reported and skipped, not fatal;
// the line is still useful for the duties that resolved.
func AssembleLine(ctx context.Context, store storage.Store, r *Roster, log zerolog.Logger) (*schedule.Line, error) {
	line := &schedule.Line{
		Year:       r.Year,
		Month:      r.Month,
		CrewMember: r.CrewMember,
		CarryIn:    r.CarryIn,
	}

	for _, day := range r.Days {
		if !day.IsTrip() {
			line.Append(groundDuty(r, day))
			continue
		}

		dated := time.Date(r.Year, r.Month, day.Day, 0, 0, 0, 0, time.UTC)
		trip, err := store.TripByKey(ctx, day.Trip, dated)
		if errors.Is(err, storage.ErrNotFound) {
			log.Warn().Str("trip", day.Trip).Str("dated", dated.Format("2006-01-02")).
				Msg("trip on roster but not imported, skipping")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("line %d/%02d: trip %s: %w", r.Year, int(r.Month), day.Trip, err)
		}
		line.Append(trip)
	}
	return line, nil
}

// groundDuty renders a reserve/standby row as an all-day event span.
// The roster prints no clock times for these rows.
func groundDuty(r *Roster, day Day) *schedule.GroundDuty {
	begin := time.Date(r.Year, r.Month, day.Day, 0, 0, 0, 0, time.UTC)
	end := begin.Add(24 * time.Hour)
	if endDay, err := parseDayNumber(day.EndDay); err == nil && endDay >= day.Day {
		end = time.Date(r.Year, r.Month, endDay, 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	}
	return &schedule.GroundDuty{
		Name:      day.Name,
		Scheduled: schedule.NewItinerary(begin, end),
	}
}

func parseDayNumber(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
