package engine

import (
	"fmt"
	"regexp"
)

var hourPattern = regexp.MustCompile(`\d\d:\d\d`)

// HourFrom extracts the hour of an ISO-8601 timestamp as the literal
// zero-padded substring, e.g. "2018-07-19T23:28:59.513Z" => "23".
// The value is matched against accept.hour entries verbatim, so it is
// never normalized to an integer.
func HourFrom(timestamp string) (string, error) {
	m := hourPattern.FindString(timestamp)
	if m == "" {
		return "", fmt.Errorf("%w: no hour component in timestamp %q", ErrInvalidInput, timestamp)
	}
	return m[:2], nil
}

// eligible reports whether the target's geo and hour criteria admit the
// event. Quota is checked separately because it costs a store round-trip.
func eligible(ev VisitorEvent, hour string, t Target) bool {
	if !t.Accept.GeoState.Contains(ev.GeoState) {
		return false
	}
	return t.Accept.Hour.Contains(hour)
}
