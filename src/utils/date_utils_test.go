package utils

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got := ParseDate("2025-03-15")
	want := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseDate(2025-03-15) = %v, want %v", got, want)
	}

	for _, bad := range []string{"", "15-03-2025", "March 15, 2025", "2025/03/15"} {
		if got := ParseDate(bad); !got.IsZero() {
			t.Errorf("ParseDate(%q) = %v, want zero time", bad, got)
		}
	}
}

func TestParseAnchor(t *testing.T) {
	tests := []struct {
		name      string
		anchor    string
		wantMonth time.Month
		wantDay   int
		wantOK    bool
	}{
		{"month day form", "03-15", time.March, 15, true},
		{"calendar year", "01-01", time.January, 1, true},
		{"full ISO date, year ignored", "2020-06-30", time.June, 30, true},
		{"empty", "", 0, 0, false},
		{"invalid month", "13-01", 0, 0, false},
		{"free text", "mid-march", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			month, day, ok := ParseAnchor(tt.anchor)
			if ok != tt.wantOK {
				t.Fatalf("ParseAnchor(%q) ok = %v, want %v", tt.anchor, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if month != tt.wantMonth || day != tt.wantDay {
				t.Errorf("ParseAnchor(%q) = (%v, %d), want (%v, %d)", tt.anchor, month, day, tt.wantMonth, tt.wantDay)
			}
		})
	}
}
