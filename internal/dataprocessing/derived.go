package dataprocessing

import (
	"finscrape/pkg/contracts/domain"
)

// Sign is the coefficient of one term in a derivation
type Sign float64

const (
	Plus  Sign = 1
	Minus Sign = -1
)

// Term is one signed source field of a derivation
type Term struct {
	Field domain.Field
	Sign  Sign
}

// Derivation declares a derived field as a linear combination of extracted fields.
// Sections lists the extraction sections the terms come from; if any of them was
// unavailable the derived value is MISSING.
type Derivation struct {
	Field    domain.Field
	Terms    []Term
	Sections []domain.SectionID
}

// SectionSet is a set of sections, used to mark unavailable ones
type SectionSet map[domain.SectionID]bool

// ValueLookup resolves a field to its extracted value
type ValueLookup func(domain.Field) domain.Value

// DefaultDerivations is the static formula table for the derived schema fields
var DefaultDerivations = []Derivation{
	{
		Field: domain.FieldOther,
		Terms: []Term{
			{domain.FieldGrossProfit, Plus},
			{domain.FieldSellingGeneralAdmin, Minus},
			{domain.FieldResearchDevelopment, Minus},
			{domain.FieldNetIncomeCurrent, Minus},
		},
		Sections: []domain.SectionID{domain.SectionIncomeStatement},
	},
	{
		Field: domain.FieldOtherAssets,
		Terms: []Term{
			{domain.FieldTotalCurrentAssets, Plus},
			{domain.FieldCashShortTerm, Minus},
		},
		Sections: []domain.SectionID{domain.SectionBalanceSheet},
	},
	{
		Field: domain.FieldFixedAssets,
		Terms: []Term{
			{domain.FieldTotalAssets, Plus},
			{domain.FieldTotalCurrentAssets, Minus},
		},
		Sections: []domain.SectionID{domain.SectionBalanceSheet},
	},
	{
		Field: domain.FieldShareEquity,
		Terms: []Term{
			{domain.FieldRetainedEarnings, Plus},
			{domain.FieldTotalDebt, Minus},
		},
		Sections: []domain.SectionID{domain.SectionBalanceSheet},
	},
	{
		Field: domain.FieldLongTermLiabilities,
		Terms: []Term{
			{domain.FieldTotalLiabilities, Plus},
			{domain.FieldTotalCurrentLiab, Minus},
		},
		Sections: []domain.SectionID{domain.SectionBalanceSheet},
	},
}

// Derive evaluates one derivation. Any unavailable source section or any
// MISSING or non-numeric term makes the result MISSING; zero is never substituted.
func Derive(lookup ValueLookup, d Derivation, unavailable SectionSet) domain.Value {
	for _, s := range d.Sections {
		if unavailable[s] {
			return domain.Missing()
		}
	}
	if len(d.Terms) == 0 {
		return domain.Missing()
	}

	var sum float64
	for _, term := range d.Terms {
		f, ok := lookup(term.Field).Float()
		if !ok {
			return domain.Missing()
		}
		sum += float64(term.Sign) * f
	}
	return domain.Number(sum)
}

// DeriveAll evaluates every derivation and writes the results into values
func DeriveAll(values map[domain.Field]domain.Value, derivations []Derivation, unavailable SectionSet) {
	lookup := func(f domain.Field) domain.Value { return values[f] }
	for _, d := range derivations {
		values[d.Field] = Derive(lookup, d, unavailable)
	}
}
