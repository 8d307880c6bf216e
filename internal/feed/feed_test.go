package feed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"orgutrip/internal/build"
	"orgutrip/internal/registry"
	"orgutrip/internal/storage"
)

const tripsPayload = `Total number of trips: 2
TRIP 7002 CHECK-IN 01JUN2023 10:00 POSITION SOB BASE MEX TAFB 5:45
0924 MEX 1100 MTY 1240 7S8 BLK 0140 TURN 0100
0925 MTY 1340 MEX 1515 7S8 BLK 0135 TURN 0000
CRD 0000 DY 0545 LAYOVER 0000
TRIP 7003 CHECK-IN 02JUN2023 10:00 POSITION SOB BASE MEX TAFB 5:45
0924 MEX 1100 MTY 1240 7S8 BLK 0140 TURN 0100
0925 MTY 1340 MEX 1515 7S8 BLK 0135 TURN 0000
CRD 0000 DY 0800 LAYOVER 0000
`

func newTestConsumer(t *testing.T) *Consumer {
	t.Helper()
	s, err := storage.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	b := build.NewBuilder(s, registry.New(s), build.PostponeResolver{}, zerolog.Nop())
	return NewConsumer("nats://localhost:4222", "orgutrip.roster", "orgutrip", b, zerolog.Nop())
}

func TestProcessImportsAndReportsUnbuilt(t *testing.T) {
	c := newTestConsumer(t)

	// Trip 7003 declares dy 0800 but computes 0545, so it stays unbuilt.
	got := c.process(context.Background(), tripsPayload)
	if got.Error != "" {
		t.Fatalf("unexpected error: %s", got.Error)
	}
	if got.Built != 1 {
		t.Errorf("built = %d, want 1", got.Built)
	}
	if len(got.Unbuilt) != 1 || got.Unbuilt[0] != "7003" {
		t.Errorf("unbuilt = %v, want [7003]", got.Unbuilt)
	}

	// Redelivery of the same payload skips the stored trip.
	again := c.process(context.Background(), tripsPayload)
	if again.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", again.Skipped)
	}
	if again.Built != 0 {
		t.Errorf("built = %d, want 0", again.Built)
	}
}

func TestProcessRejectsGarbage(t *testing.T) {
	c := newTestConsumer(t)
	got := c.process(context.Background(), "not a trips file")
	if got.Error == "" {
		t.Error("expected an error summary")
	}
	if got.Built != 0 || len(got.Unbuilt) != 0 {
		t.Errorf("summary = %+v", got)
	}
}
