package store

import (
	"fmt"
	"regexp"
	"strings"
)

var placeCode = regexp.MustCompile(`^([a-z]{2})(?:-([a-z0-9]+))?$`)

// ParsePlace splits a place code such as "za" or "za-cpt" into country
// and locality.
func ParsePlace(code string) (country string, locality string, err error) {
	m := placeCode.FindStringSubmatch(strings.ToLower(strings.TrimSpace(code)))
	if m == nil {
		return "", "", fmt.Errorf("invalid place code %q", code)
	}
	return m[1], m[2], nil
}

// String describes the scope for logs and reports.
func (s Scope) String() string {
	switch {
	case s.Work != "":
		return "work " + s.Work
	case s.Place != "":
		return "place " + s.Place
	case s.Country != "":
		return "country " + s.Country + " with localities"
	default:
		return "all works"
	}
}

// where returns the SQL condition and arguments selecting the scope's
// works.
func (s Scope) where() (string, []any, error) {
	switch {
	case s.Work != "":
		return "frbr_uri = ?", []any{s.Work}, nil
	case s.Place != "":
		country, locality, err := ParsePlace(s.Place)
		if err != nil {
			return "", nil, err
		}
		return "country = ? AND locality = ?", []any{country, locality}, nil
	case s.Country != "":
		country, locality, err := ParsePlace(s.Country)
		if err != nil {
			return "", nil, err
		}
		if locality != "" {
			return "", nil, fmt.Errorf("expected a country code, got %q", s.Country)
		}
		return "country = ?", []any{country}, nil
	default:
		return "1 = 1", nil, nil
	}
}
