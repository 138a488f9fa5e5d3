package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "finscrape/internal/errors"
)

// Unit is a magnitude suffix used both in source text and as a target base unit
type Unit string

const (
	UnitNone     Unit = ""
	UnitThousand Unit = "K"
	UnitMillion  Unit = "M"
	UnitBillion  Unit = "B"
	UnitTrillion Unit = "T"
)

var unitFactors = map[Unit]float64{
	UnitNone:     1,
	UnitThousand: 1e3,
	UnitMillion:  1e6,
	UnitBillion:  1e9,
	UnitTrillion: 1e12,
}

// Factor returns the multiplier the unit stands for. Unknown units count as 1.
func (u Unit) Factor() float64 {
	if f, ok := unitFactors[u]; ok {
		return f
	}
	return 1
}

// ParseUnit validates a configured unit name
func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := unitFactors[u]; !ok {
		return UnitNone, apperrors.NewConfigError(fmt.Sprintf("unknown unit %q", s), nil)
	}
	return u, nil
}

// Parse converts human-readable numeric text such as "1,500K" or "-" into a
// float expressed in the target unit. Parse("1,500K", UnitMillion) == 1.5.
func Parse(raw string, target Unit) (float64, error) {
	text := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if text == "-" {
		return 0, nil
	}

	factor := 1.0
	if n := len(text); n > 0 {
		suffix := Unit(strings.ToUpper(text[n-1:]))
		if suffix != UnitNone {
			if f, ok := unitFactors[suffix]; ok {
				factor = f
				text = strings.TrimSpace(text[:n-1])
			}
		}
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, apperrors.NewParsingError(fmt.Sprintf("malformed number %q", raw), err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, apperrors.NewParsingError(fmt.Sprintf("non-finite number %q", raw), nil)
	}
	return value * factor / target.Factor(), nil
}

// ScaleFromLabel reads the magnitude a statement heading declares, e.g.
// "In Millions of USD (except for per share items)" yields 1e6.
func ScaleFromLabel(label string) float64 {
	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "trillion"):
		return 1e12
	case strings.Contains(lower, "billion"):
		return 1e9
	case strings.Contains(lower, "million"):
		return 1e6
	case strings.Contains(lower, "thousand"):
		return 1e3
	default:
		return 1
	}
}
