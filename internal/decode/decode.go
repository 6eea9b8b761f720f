// Package decode holds the small string codecs used when picking apart
// access log lines.
package decode

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a token that could not be decoded
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %q", e.Reason, e.Input)
}

var months = map[string]int{
	"Jan": 1,
	"Feb": 2,
	"Mar": 3,
	"Apr": 4,
	"May": 5,
	"Jun": 6,
	"Jul": 7,
	"Aug": 8,
	"Sep": 9,
	"Oct": 10,
	"Nov": 11,
	"Dec": 12,
}

// DecodeDecimal parses the whole string as a base 10 integer.
// A leading sign is accepted, anything else that is not a digit is an error.
func DecodeDecimal(s string) (int64, error) {
	if s == "" {
		return 0, &ParseError{Input: s, Reason: "not an integer"}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &ParseError{Input: s, Reason: "not an integer"}
	}
	return v, nil
}

// EncodeDecimal returns the canonical base 10 form of n
func EncodeDecimal(n int64) string {
	return strconv.FormatInt(n, 10)
}

// PadLeadingZeros left-pads s with '0' until it is at least width long.
// Strings that start with something other than a digit are returned as is.
func PadLeadingZeros(s string, width int) string {
	if s != "" && (s[0] < '0' || s[0] > '9') {
		return s
	}
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// DecodeMonth maps a three letter English month abbreviation to 1..12.
// Matching is case sensitive.
func DecodeMonth(abbrev string) (int, error) {
	if m, ok := months[abbrev]; ok {
		return m, nil
	}
	return 0, &ParseError{Input: abbrev, Reason: "invalid month"}
}

// Split cuts s at every byte that appears in delims. With keepEmpty the
// empty parts between adjacent delimiters are kept, so "a..b" split on "."
// gives ["a" "" "b"]; without it they are dropped.
func Split(s, delims string, keepEmpty bool) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(delims, s[i]) < 0 {
			continue
		}
		if keepEmpty || i > start {
			parts = append(parts, s[start:i])
		}
		start = i + 1
	}
	if keepEmpty || start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}
