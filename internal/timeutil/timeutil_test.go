package timeutil

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"09:00", 540, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"14:30", 870, false},
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"garbage", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: got %d want %d", tc.in, got, tc.want)
		}
	}
}

func TestTimeOfDayString(t *testing.T) {
	if s := MustTimeOfDay("08:05").String(); s != "08:05" {
		t.Fatalf("got %s", s)
	}
}

func TestSpanOverlaps(t *testing.T) {
	nine := MustTimeOfDay("09:00")
	cases := []struct {
		name string
		a, b Span
		want bool
	}{
		{"back to back do not conflict", NewSpan(nine, 30), NewSpan(MustTimeOfDay("09:30"), 30), false},
		{"partial overlap conflicts", NewSpan(nine, 45), NewSpan(MustTimeOfDay("09:30"), 30), true},
		{"identical conflicts", NewSpan(nine, 30), NewSpan(nine, 30), true},
		{"contained conflicts", NewSpan(nine, 60), NewSpan(MustTimeOfDay("09:15"), 15), true},
		{"disjoint", NewSpan(nine, 30), NewSpan(MustTimeOfDay("11:00"), 30), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("%s vs %s: got %v", tc.a, tc.b, got)
			}
			// Overlap is symmetric.
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Fatalf("%s vs %s (reversed): got %v", tc.b, tc.a, got)
			}
		})
	}
}

func TestSpanContains(t *testing.T) {
	day := Span{Start: MustTimeOfDay("08:00"), End: MustTimeOfDay("18:00")}
	if !day.Contains(NewSpan(MustTimeOfDay("08:00"), 60)) {
		t.Fatal("opening slot should fit")
	}
	if day.Contains(NewSpan(MustTimeOfDay("17:45"), 30)) {
		t.Fatal("slot past closing should not fit")
	}
}

func TestDateHelpers(t *testing.T) {
	d := Date(time.Date(2024, time.March, 5, 17, 45, 12, 0, time.FixedZone("X", 3600)))
	if d.Hour() != 0 || d.Location() != time.UTC {
		t.Fatalf("Date did not normalize: %s", d)
	}

	a := DateYMD(2024, time.January, 1)
	b := DateYMD(2024, time.January, 15)
	if got := DaysBetween(a, b); got != 14 {
		t.Fatalf("DaysBetween: got %d", got)
	}

	if got := DaysInMonth(2024, time.February); got != 29 {
		t.Fatalf("leap February: got %d", got)
	}
	if got := DaysInMonth(2023, time.February); got != 28 {
		t.Fatalf("February: got %d", got)
	}
	if got := DaysInMonth(2024, time.April); got != 30 {
		t.Fatalf("April: got %d", got)
	}
}

func TestAtAnchorsDate(t *testing.T) {
	date := DateYMD(2024, time.June, 10)
	at := MustTimeOfDay("14:00").At(date)
	if at.Hour() != 14 || at.Day() != 10 || at.Location() != time.UTC {
		t.Fatalf("unexpected anchor: %s", at)
	}
}
