// internal/domain/models/date.go
package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of Date.
const DateLayout = "2006-01-02"

// Date is a calendar day in YYYY-MM-DD form. The fixed-width layout keeps
// lexical and chronological order identical, so stores can compare and index
// it as a plain string.
type Date string

// ParseDate validates s and returns it as a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return Date(t.Format(DateLayout)), nil
}

func (d Date) String() string { return string(d) }

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d < o }

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool { return d > o }

// Value stores Date as its string form.
func (d Date) Value() (driver.Value, error) { return string(d), nil }
