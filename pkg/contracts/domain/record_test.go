package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader_FollowsSchemaOrder(t *testing.T) {
	header := Header()

	require.Len(t, header, len(Schema))
	assert.Equal(t, "Stock Symbol", header[0])
	assert.Equal(t, "Resolution", header[len(header)-1])
	for i, col := range Schema {
		assert.Equal(t, string(col.Field), header[i])
	}
}

func TestSchema_FieldsAreUnique(t *testing.T) {
	seen := make(map[Field]bool)
	for _, col := range Schema {
		assert.False(t, seen[col.Field], "duplicate field %s", col.Field)
		seen[col.Field] = true
	}
}

func TestFieldsInSection(t *testing.T) {
	summary := FieldsInSection(SectionSummary)
	assert.Equal(t, []Field{
		FieldStockSymbol, FieldExchange, FieldStockName,
		FieldMarketCap, FieldEmployees, FieldCurrentPERatio,
	}, summary)

	assert.Len(t, FieldsInSection(SectionDerived), 5)
	assert.Empty(t, FieldsInSection(SectionID("unknown")))
}

func TestNewRecord_FillsEverySlot(t *testing.T) {
	item := WorkItem{Index: 3, Identifier: "AAPL", Registry: "NASDAQ"}
	rec := NewRecord(item, ResolutionMatched, map[Field]Value{
		FieldStockSymbol: Text("AAPL"),
		FieldMarketCap:   Number(2.5e9),
		Field("Bogus"):   Text("ignored"),
	}, nil)

	row := rec.Row()
	require.Len(t, row, len(Schema))
	assert.Equal(t, "AAPL", row[0])
	assert.Equal(t, "2500000000", row[3])
	assert.Equal(t, MissingText, row[1])
	assert.Equal(t, "MATCHED", row[len(row)-1])

	// everything except symbol, market cap and resolution is missing
	assert.Equal(t, len(Schema)-3, rec.MissingCount())
	assert.True(t, rec.Get(Field("Bogus")).IsMissing())
}

func TestNewRecord_AllMissing(t *testing.T) {
	rec := NewRecord(WorkItem{Index: 1}, ResolutionUnresolved, nil, nil)

	for i, v := range rec.Values()[:len(Schema)-1] {
		assert.True(t, v.IsMissing(), "slot %d", i)
	}
	assert.Equal(t, "UNRESOLVED", rec.Get(FieldResolution).String())
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "N/A", Missing().String())
	assert.Equal(t, "1.5", Number(1.5).String())
	assert.Equal(t, "-250", Number(-250).String())
	assert.Equal(t, "Apple Inc.", Text("Apple Inc.").String())
	assert.Equal(t, "2016-09-24", Date(time.Date(2016, 9, 24, 0, 0, 0, 0, time.UTC)).String())
}

func TestValue_Accessors(t *testing.T) {
	var zero Value
	assert.True(t, zero.IsMissing())

	_, ok := Text("12").Float()
	assert.False(t, ok)

	f, ok := Number(12).Float()
	assert.True(t, ok)
	assert.Equal(t, 12.0, f)

	_, ok = Number(1).Time()
	assert.False(t, ok)
}

func TestSymbolMatches(t *testing.T) {
	assert.True(t, SymbolMatches("aapl", " AAPL "))
	assert.False(t, SymbolMatches("AAPL", "APC"))
}
