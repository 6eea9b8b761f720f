package parser

import (
	"errors"
	"fmt"

	"vhostlog/internal/decode"
)

var (
	ErrNoTimestamp         = errors.New("date & time not found")
	ErrIncompleteTimestamp = errors.New("date & time not complete")
	ErrMalformedTimestamp  = errors.New("invalid date & time format")
)

// Timestamp is the date & time signature of an access log entry.
// Offset keeps the raw numeric form, so "-0500" is stored as -500.
type Timestamp struct {
	Day    int64
	Month  int
	Year   int64
	Hour   int64
	Minute int64
	Second int64
	Offset int64
}

// Signature: [DD/Mon/YYYY:HH:MM:SS +off]
const signatureLen = 28

// fixed bytes of the signature, by offset from the opening bracket
var skeleton = map[int]byte{
	0:  '[',
	12: ':',
	15: ':',
	18: ':',
	21: ' ',
	27: ']',
}

// the two date separators may be '/' or '-'
var dateSeparators = [...]int{3, 7}

const tokenDelims = "[]/: "

// findSignature returns the offset of the leftmost signature in text or -1.
func findSignature(text string) int {
	for i := 0; i+signatureLen <= len(text); i++ {
		if text[i] == '[' && matchSignature(text[i:i+signatureLen]) {
			return i
		}
	}
	return -1
}

func matchSignature(w string) bool {
	for off := 0; off < signatureLen; off++ {
		c := w[off]
		if want, ok := skeleton[off]; ok {
			if c != want {
				return false
			}
			continue
		}
		if off == dateSeparators[0] || off == dateSeparators[1] {
			if c != '/' && c != '-' {
				return false
			}
			continue
		}
		if c == '\n' {
			return false
		}
	}
	return true
}

// ExtractTimestamp finds the first bracketed date & time signature in text
// and decodes its seven fields. Calendar validity is not checked.
func ExtractTimestamp(text string) (Timestamp, error) {
	var ts Timestamp

	start := findSignature(text)
	if start < 0 {
		return ts, ErrNoTimestamp
	}

	window := []byte(text[start : start+signatureLen])
	for _, off := range dateSeparators {
		window[off] = '/'
	}

	var err error
	pos := 0
	for _, tok := range decode.Split(string(window), tokenDelims, false) {
		switch pos {
		case 0:
			ts.Day, err = decode.DecodeDecimal(tok)
		case 1:
			ts.Month, err = decode.DecodeMonth(tok)
		case 2:
			ts.Year, err = decode.DecodeDecimal(tok)
		case 3:
			ts.Hour, err = decode.DecodeDecimal(tok)
		case 4:
			ts.Minute, err = decode.DecodeDecimal(tok)
		case 5:
			ts.Second, err = decode.DecodeDecimal(tok)
		case 6:
			ts.Offset, err = decode.DecodeDecimal(tok)
		default:
			return Timestamp{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, text[start:start+signatureLen])
		}
		if err != nil {
			return Timestamp{}, err
		}
		pos++
	}

	if pos < 7 {
		return Timestamp{}, fmt.Errorf("%w: %q", ErrIncompleteTimestamp, text[start:start+signatureLen])
	}
	return ts, nil
}
