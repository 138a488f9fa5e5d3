package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "finscrape/internal/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		target Unit
		want   float64
	}{
		{"plain integer", "1,234", UnitNone, 1234},
		{"dash is zero", "-", UnitNone, 0},
		{"dash in target unit", " - ", UnitMillion, 0},
		{"thousands into millions", "1,500K", UnitMillion, 1.5},
		{"millions into thousands", "2.5M", UnitThousand, 2500},
		{"billions default unit", "3B", UnitNone, 3e9},
		{"trillions into billions", "1.2T", UnitBillion, 1200},
		{"lowercase suffix", "7k", UnitNone, 7000},
		{"negative with separators", "-12,000.50", UnitNone, -12000.5},
		{"decimal", "0.75", UnitNone, 0.75},
		{"surrounding space", "  42 ", UnitNone, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw, tt.target)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParse_RoundTripsThroughUnitFactor(t *testing.T) {
	raws := map[string]float64{
		"1,500K": 1.5e6,
		"12M":    12e6,
		"0.4B":   0.4e9,
		"2T":     2e12,
		"987":    987,
	}
	units := []Unit{UnitNone, UnitThousand, UnitMillion, UnitBillion, UnitTrillion}

	for raw, want := range raws {
		for _, u := range units {
			got, err := Parse(raw, u)
			require.NoError(t, err)
			assert.InDelta(t, want, got*u.Factor(), want*1e-12, "raw=%s unit=%s", raw, u)
		}
	}
}

func TestParse_Idempotent(t *testing.T) {
	first, err := Parse("1,234.5", UnitNone)
	require.NoError(t, err)

	second, err := Parse("1234.5", UnitNone)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParse_Malformed(t *testing.T) {
	for _, raw := range []string{"", "abc", "K", "12..3", "1,2x", "NaN", "Inf", "--"} {
		t.Run(raw, func(t *testing.T) {
			_, err := Parse(raw, UnitNone)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
		})
	}
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit("k")
	require.NoError(t, err)
	assert.Equal(t, UnitThousand, u)

	u, err = ParseUnit("")
	require.NoError(t, err)
	assert.Equal(t, UnitNone, u)

	_, err = ParseUnit("X")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestScaleFromLabel(t *testing.T) {
	assert.Equal(t, 1e6, ScaleFromLabel("In Millions of USD (except for per share items)"))
	assert.Equal(t, 1e3, ScaleFromLabel("In Thousands of CAD"))
	assert.Equal(t, 1e9, ScaleFromLabel("in billions"))
	assert.Equal(t, 1.0, ScaleFromLabel("USD"))
}
