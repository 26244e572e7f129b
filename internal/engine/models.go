package engine

import (
	"bytes"
	"errors"
	"strconv"
)

var (
	// ErrInvalidInput marks request payloads the caller got wrong:
	// missing fields, malformed bodies, unparsable timestamps.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks lookups for target ids that do not exist.
	ErrNotFound = errors.New("not found")
)

// Target is an advertiser's acceptance rule and payout.
type Target struct {
	ID               string `json:"id"`
	URL              string `json:"url"`
	Value            Number `json:"value"`
	MaxAcceptsPerDay Number `json:"maxAcceptsPerDay"`
	Accept           Accept `json:"accept"`
}

// Accept holds the per-dimension membership criteria.
type Accept struct {
	GeoState MemberSet `json:"geoState"`
	Hour     MemberSet `json:"hour"`
}

// MemberSet is a `{"$in": [...]}` acceptance list, kept in the shape
// clients send it.
type MemberSet struct {
	In []string `json:"$in"`
}

func (s MemberSet) Contains(v string) bool {
	for _, m := range s.In {
		if m == v {
			return true
		}
	}
	return false
}

// Number decodes from either a JSON number or a numeric string;
// clients send both forms for value and maxAcceptsPerDay.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// VisitorEvent is an inbound routing request. Only the hour component
// of the timestamp is consumed.
type VisitorEvent struct {
	GeoState  string `json:"geoState"`
	Publisher string `json:"publisher"`
	Timestamp string `json:"timestamp"`
}

// Decision is the routing outcome: acceptance with a destination URL,
// or rejection.
type Decision struct {
	Accepted bool
	TargetID string
	URL      string
}
