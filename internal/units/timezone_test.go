package units

import (
	"testing"
	"time"
)

func TestIsTimezoneValid(t *testing.T) {
	tests := []struct {
		tz   string
		want bool
	}{
		{"UTC", true},
		{"Europe/Berlin", true},
		{"America/New_York", true},
		{"", false},
		{"Mars/Olympus_Mons", false},
	}
	for _, tt := range tests {
		if got := IsTimezoneValid(tt.tz); got != tt.want {
			t.Errorf("IsTimezoneValid(%q) = %v, want %v", tt.tz, got, tt.want)
		}
	}
}

func TestLoadLogLocation(t *testing.T) {
	loc, err := LoadLogLocation("")
	if err != nil || loc != time.UTC {
		t.Fatalf("LoadLogLocation(\"\") = %v, %v; want UTC", loc, err)
	}

	loc, err = LoadLogLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("LoadLogLocation(Europe/Berlin) failed: %v", err)
	}
	if loc.String() != "Europe/Berlin" {
		t.Errorf("got location %s", loc)
	}

	if _, err := LoadLogLocation("Nowhere/Invalid"); err == nil {
		t.Error("expected error for invalid timezone")
	}
}
