// Package stats converts the raw engagement counters found in archived
// tweet exports into plain integers. The scraped values are inconsistent:
// sometimes numbers, sometimes strings with thousands separators, sometimes
// human-abbreviated ("1.5K", "2M").
package stats

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformed is returned in strict mode for values that cannot be
// interpreted as a count.
var ErrMalformed = errors.New("stats: malformed value")

// Parser converts raw stat values into integer counts.
//
// In the default lenient mode malformed values map to 0 instead of failing.
// This is deliberate: the upstream data is scraped and occasionally
// inconsistent, and a single bad counter must not abort a full rebuild.
// Strict mode surfaces the error instead, for validation runs and tests.
type Parser struct {
	Strict bool
}

// Parse converts a raw value (number or string) into an integer count.
// Thousands separators are stripped; a trailing K or M multiplies the
// numeric prefix by 1e3 or 1e6 with truncation; the empty string is 0.
// In lenient mode the returned error is always nil.
func (p Parser) Parse(raw any) (int, error) {
	n, err := parse(raw)
	if err != nil {
		if p.Strict {
			return 0, err
		}
		return 0, nil
	}
	return n, nil
}

// Parse is the lenient package-level form: malformed input yields 0.
func Parse(raw any) int {
	n, _ := Parser{}.Parse(raw)
	return n
}

func parse(raw any) (int, error) {
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		// encoding/json decodes untyped numbers as float64.
		return int(v), nil
	case string:
		return parseString(v)
	default:
		return 0, fmt.Errorf("%w: %v (%T)", ErrMalformed, raw, raw)
	}
}

func parseString(s string) (int, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, nil
	}

	mult := 1.0
	switch {
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "k"):
		mult = 1e3
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "m"):
		mult = 1e6
		s = s[:len(s)-1]
	}

	if mult != 1.0 {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
		}
		return int(math.Trunc(f * mult)), nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return n, nil
}
