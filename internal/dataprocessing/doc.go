// Package dataprocessing turns scraped cell text into numbers and computes
// the derived schema fields.
//
// Parse understands thousands separators, a trailing magnitude suffix
// (K, M, B, T) and the lone dash the source prints for zero, and expresses
// the result in a target unit:
//
//	v, err := dataprocessing.Parse("1,500K", dataprocessing.UnitMillion) // 1.5
//
// Derived fields are declared as a static table of signed terms
// (DefaultDerivations). A derived value is MISSING whenever one of its terms
// is MISSING or its source section could not be read; zero is never
// substituted.
package dataprocessing
