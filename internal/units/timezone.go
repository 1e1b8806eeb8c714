package units

import (
	"fmt"
	"time"
)

// DefaultLogTimezone is the zone probe timestamps are read in when none is
// configured.
const DefaultLogTimezone = "UTC"

// IsTimezoneValid checks if the given timezone is valid by attempting to load it from the tz database
func IsTimezoneValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// LoadLogLocation resolves the zone probe timestamps were recorded in.
// An empty name means UTC; "Local" is the host zone.
func LoadLogLocation(tz string) (*time.Location, error) {
	if tz == "" || tz == DefaultLogTimezone {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", tz, err)
	}
	return loc, nil
}
