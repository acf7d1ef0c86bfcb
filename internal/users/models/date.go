package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	dErrors "uservault/pkg/domain-errors"
)

// DateLayout is the wire format for birthdays.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time component. It marshals to and from
// JSON as "yyyy-MM-dd" and stores as a DATE column. The zero Date is the
// zero time.Time and reports IsZero.
type Date struct {
	t time.Time
}

// NewDate builds a Date from year, month and day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar date in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses "yyyy-MM-dd". Anything else is a validation error.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, dErrors.Newf(dErrors.CodeValidation, "invalid date %q, expected format yyyy-MM-dd", s)
	}
	return Date{t: t.UTC()}, nil
}

func (d Date) IsZero() bool { return d.t.IsZero() }

// Time returns the date as UTC midnight.
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string { return d.t.Format(DateLayout) }

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool { return d.t.After(other.t) }

func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// YearsUntil returns the number of whole years between d and ref, the way an
// age is counted: the year difference, minus one if the anniversary in ref's
// year has not yet occurred.
func (d Date) YearsUntil(ref Date) int {
	years := ref.t.Year() - d.t.Year()
	anniversary := d.t.AddDate(years, 0, 0)
	if anniversary.After(ref.t) {
		years--
	}
	return years
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.t.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return dErrors.New(dErrors.CodeValidation, "invalid date, expected a yyyy-MM-dd string")
	}
	parsed, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer so Date binds to DATE columns.
func (d Date) Value() (driver.Value, error) {
	return d.t, nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v.UTC())
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}
