package domain

import (
	"strconv"
	"time"
)

// MissingText is how a MISSING value is rendered in output files
const MissingText = "N/A"

// DateLayout is the rendering layout for date values
const DateLayout = "2006-01-02"

// ValueKind discriminates the Value variants
type ValueKind int

const (
	KindMissing ValueKind = iota
	KindNumber
	KindText
	KindDate
)

// Value is a typed field result or the MISSING sentinel. The zero Value is MISSING.
type Value struct {
	kind ValueKind
	num  float64
	text string
	date time.Time
}

// Missing returns the MISSING sentinel
func Missing() Value { return Value{} }

// Number wraps a numeric result
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Text wraps a string result
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Date wraps a date result
func Date(t time.Time) Value { return Value{kind: KindDate, date: t} }

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Float returns the numeric payload and whether the value is a number
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Time returns the date payload and whether the value is a date
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.date, true
}

// String renders the value for output. MISSING renders as MissingText.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	case KindDate:
		return v.date.Format(DateLayout)
	default:
		return MissingText
	}
}
