package util

import (
	"fmt"
	"time"
)

// StampLayout is the timestamp format accepted and produced at every
// boundary: minute precision, no timezone. Values are interpreted in the
// server's local time.
const StampLayout = "2006-01-02 15:04"

// ParseError reports a malformed boundary timestamp. It is a user input
// error, not a system fault.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid timestamp %q (want %q)", e.Input, StampLayout)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseStamp parses a boundary timestamp in StampLayout.
func ParseStamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(StampLayout, s, time.Local)
	if err != nil {
		return time.Time{}, &ParseError{Input: s, Err: err}
	}
	return t, nil
}

// FormatStamp renders t in StampLayout.
func FormatStamp(t time.Time) string {
	return t.In(time.Local).Format(StampLayout)
}
