package build

import (
	"testing"
	"time"
)

func TestCursorMove(t *testing.T) {
	start := time.Date(2018, 6, 3, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		offset  string
		want    time.Time
		minutes int
	}{
		{"0140", time.Date(2018, 6, 3, 15, 40, 0, 0, time.UTC), 100},
		{"01:40", time.Date(2018, 6, 3, 15, 40, 0, 0, time.UTC), 100},
		{"0000", start, 0},
		{"123:45", time.Date(2018, 6, 8, 17, 45, 0, 0, time.UTC), 123*60 + 45},
		{"-0130", time.Date(2018, 6, 3, 12, 30, 0, 0, time.UTC), 90},
		{"+0015", time.Date(2018, 6, 3, 14, 15, 0, 0, time.UTC), 15},
	}

	for _, tt := range tests {
		t.Run(tt.offset, func(t *testing.T) {
			c := NewCursor(start)
			d, err := c.Move(tt.offset)
			if err != nil {
				t.Fatalf("Move(%q): %v", tt.offset, err)
			}
			if d.Minutes() != tt.minutes {
				t.Errorf("magnitude = %d minutes, want %d", d.Minutes(), tt.minutes)
			}
			if !c.Now().Equal(tt.want) {
				t.Errorf("cursor = %v, want %v", c.Now(), tt.want)
			}
		})
	}
}

func TestCursorMoveInvalid(t *testing.T) {
	c := NewCursor(time.Now())
	for _, offset := range []string{"", "xx40", "1:4"} {
		if _, err := c.Move(offset); err == nil {
			t.Errorf("Move(%q): expected error", offset)
		}
	}
}

func TestCursorBackUndoesMove(t *testing.T) {
	start := time.Date(2018, 6, 3, 14, 0, 0, 0, time.UTC)
	c := NewCursor(start)
	if _, err := c.Move("0130"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Back("0130"); err != nil {
		t.Fatal(err)
	}
	if !c.Now().Equal(start) {
		t.Errorf("cursor = %v, want %v", c.Now(), start)
	}
}

func TestCursorInDoesNotMoveClock(t *testing.T) {
	start := time.Date(2018, 6, 3, 14, 0, 0, 0, time.UTC)
	c := NewCursor(start)
	loc, err := time.LoadLocation("America/Mexico_City")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	local := c.In(loc)
	if !local.Equal(start) {
		t.Errorf("In changed the instant: %v vs %v", local, start)
	}
	if !c.Now().Equal(start) {
		t.Errorf("cursor moved to %v", c.Now())
	}
}
