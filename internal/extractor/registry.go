package extractor

import (
	"net/url"
	"strings"
)

// Locator builds document locators for an identifier qualified by a registry
type Locator struct {
	BaseURL          string
	FinancialsSuffix string
}

// DefaultLocator points at the finance page the default layout targets
var DefaultLocator = Locator{
	BaseURL:          "https://www.google.com/finance?q=",
	FinancialsSuffix: "&fstype=ii",
}

// Summary returns the summary locator. An empty registry leaves the
// identifier unqualified.
func (l Locator) Summary(registry, identifier string) string {
	q := identifier
	if registry != "" {
		q = registry + ":" + identifier
	}
	return l.BaseURL + url.QueryEscape(q)
}

// Financials returns the statements locator
func (l Locator) Financials(registry, identifier string) string {
	return l.Summary(registry, identifier) + l.FinancialsSuffix
}

// Candidates orders the registries to try for one identifier: the hint,
// then the fallbacks, de-duplicated, always ending with the unqualified
// form.
func Candidates(hint string, fallbacks []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(r string) {
		r = strings.ToUpper(strings.TrimSpace(r))
		if r == "" || seen[r] {
			return
		}
		seen[r] = true
		out = append(out, r)
	}
	add(hint)
	for _, f := range fallbacks {
		add(f)
	}
	return append(out, "")
}

// ParseResolved splits the "(NASDAQ:AAPL)" text the source shows for a
// resolved identifier. Text without a registry yields an empty registry.
func ParseResolved(text string) (registry, symbol string, ok bool) {
	s := strings.TrimSpace(text)
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, "("), ")"))
	if s == "" {
		return "", "", false
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		registry, symbol = strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	} else {
		symbol = s
	}
	if symbol == "" {
		return "", "", false
	}
	return registry, symbol, true
}
