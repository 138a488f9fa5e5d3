package extractor

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	apperrors "finscrape/internal/errors"
	"finscrape/pkg/contracts/domain"
)

// PeriodState classifies how many reporting periods a statement shows
type PeriodState int

const (
	PeriodNone PeriodState = iota
	PeriodOne
	PeriodTwo
	PeriodThreePlus
)

var periodStateNames = [...]string{"none", "one", "two", "three_plus"}

func (p PeriodState) String() string {
	if p < PeriodNone || p > PeriodThreePlus {
		return fmt.Sprintf("PeriodState(%d)", int(p))
	}
	return periodStateNames[p]
}

// PeriodStateOf maps a period column count to its state
func PeriodStateOf(count int) PeriodState {
	switch {
	case count <= 0:
		return PeriodNone
	case count == 1:
		return PeriodOne
	case count == 2:
		return PeriodTwo
	default:
		return PeriodThreePlus
	}
}

// Period selects which reporting column a statement field reads
type Period string

const (
	PeriodCurrent Period = "current"
	PeriodPrior   Period = "prior"
)

// CellKind tells the extractor how to interpret a cell's text
type CellKind string

const (
	KindNumber  CellKind = "number"
	KindInteger CellKind = "integer"
	KindText    CellKind = "text"
	KindDate    CellKind = "date"
)

// FieldSpec declares where one field lives. Statement paths are relative to
// the section root and omit the column position, which depends on the
// period state.
type FieldSpec struct {
	Field  domain.Field `yaml:"field"`
	Path   string       `yaml:"path"`
	Period Period       `yaml:"period,omitempty"`
	Kind   CellKind     `yaml:"kind"`
}

// Click is one tab toggle; alternates are tried in order until one succeeds
type Click struct {
	Selectors []string `yaml:"selectors"`
}

// SectionLayout describes one statement section
type SectionLayout struct {
	ID           domain.SectionID `yaml:"id"`
	Clicks       []Click          `yaml:"clicks"`
	Root         string           `yaml:"root"`
	PeriodHeader string           `yaml:"period_header"`
	Scale        string           `yaml:"scale"`
	Fields       []FieldSpec      `yaml:"fields"`
}

// SummaryLayout describes the summary page
type SummaryLayout struct {
	// Identifier selects the "(EXCHANGE:SYMBOL)" text the source resolved
	Identifier string      `yaml:"identifier"`
	Fields     []FieldSpec `yaml:"fields"`
}

// LayoutSpec is the declarative form of a Layout, as written in YAML
type LayoutSpec struct {
	Version  string          `yaml:"version"`
	Summary  SummaryLayout   `yaml:"summary"`
	Sections []SectionLayout `yaml:"sections"`
}

// Selector is one resolved field read
type Selector struct {
	Field domain.Field
	XPath string
	Kind  CellKind
}

// SectionPlan is the resolved navigation for a statement section
type SectionPlan struct {
	ID           domain.SectionID
	Clicks       [][]string
	PeriodHeader string
	Scale        string
}

type tableKey struct {
	section domain.SectionID
	state   PeriodState
}

// Layout is the versioned selector table. It is built once and never
// modified, so one instance can be shared by every extraction.
type Layout struct {
	version    string
	identifier string
	summary    []Selector
	sections   []SectionPlan
	table      map[tableKey][]Selector
}

// NewLayout validates spec and resolves every selector for every period state
func NewLayout(spec LayoutSpec) (*Layout, error) {
	if strings.TrimSpace(spec.Version) == "" {
		return nil, layoutError("version is required")
	}
	if strings.TrimSpace(spec.Summary.Identifier) == "" {
		return nil, layoutError("summary identifier selector is required")
	}

	l := &Layout{
		version:    spec.Version,
		identifier: spec.Summary.Identifier,
		table:      make(map[tableKey][]Selector),
	}

	for _, f := range spec.Summary.Fields {
		if err := checkField(f, domain.SectionSummary); err != nil {
			return nil, err
		}
		if f.Field == domain.FieldStockSymbol || f.Field == domain.FieldExchange {
			return nil, layoutError(fmt.Sprintf("%s comes from the identifier selector", f.Field))
		}
		l.summary = append(l.summary, Selector{Field: f.Field, XPath: f.Path, Kind: f.Kind})
	}

	seen := make(map[domain.SectionID]bool)
	for _, s := range spec.Sections {
		if s.ID != domain.SectionIncomeStatement && s.ID != domain.SectionBalanceSheet {
			return nil, layoutError(fmt.Sprintf("unknown section %q", s.ID))
		}
		if seen[s.ID] {
			return nil, layoutError(fmt.Sprintf("section %q declared twice", s.ID))
		}
		seen[s.ID] = true
		if s.Root == "" || s.PeriodHeader == "" || s.Scale == "" {
			return nil, layoutError(fmt.Sprintf("section %q needs root, period_header and scale", s.ID))
		}

		plan := SectionPlan{
			ID:           s.ID,
			PeriodHeader: join(s.Root, s.PeriodHeader),
			Scale:        join(s.Root, s.Scale),
		}
		for _, c := range s.Clicks {
			if len(c.Selectors) == 0 {
				return nil, layoutError(fmt.Sprintf("section %q has a click without selectors", s.ID))
			}
			plan.Clicks = append(plan.Clicks, append([]string(nil), c.Selectors...))
		}
		l.sections = append(l.sections, plan)

		for _, f := range s.Fields {
			if err := checkField(f, s.ID); err != nil {
				return nil, err
			}
			if f.Period != PeriodCurrent && f.Period != PeriodPrior {
				return nil, layoutError(fmt.Sprintf("field %q has invalid period %q", f.Field, f.Period))
			}
		}
		for _, state := range []PeriodState{PeriodOne, PeriodTwo, PeriodThreePlus} {
			key := tableKey{section: s.ID, state: state}
			for _, f := range s.Fields {
				l.table[key] = append(l.table[key], Selector{
					Field: f.Field,
					XPath: join(s.Root, f.Path) + columnSuffix(f.Period, state),
					Kind:  f.Kind,
				})
			}
		}
	}
	return l, nil
}

// MustNewLayout is NewLayout for layouts known to be valid
func MustNewLayout(spec LayoutSpec) *Layout {
	l, err := NewLayout(spec)
	if err != nil {
		panic(err)
	}
	return l
}

// LoadLayout reads a LayoutSpec from a YAML file
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError("read layout file", err).WithContext("path", path)
	}
	var spec LayoutSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, apperrors.NewConfigError("parse layout file", err).WithContext("path", path)
	}
	return NewLayout(spec)
}

// Version identifies the selector table revision
func (l *Layout) Version() string { return l.version }

// Identifier returns the selector of the resolved "(EXCHANGE:SYMBOL)" text
func (l *Layout) Identifier() string { return l.identifier }

// Summary returns the summary field selectors
func (l *Layout) Summary() []Selector {
	return append([]Selector(nil), l.summary...)
}

// Sections returns the statement sections in extraction order
func (l *Layout) Sections() []SectionPlan {
	out := make([]SectionPlan, len(l.sections))
	for i, p := range l.sections {
		out[i] = p
		out[i].Clicks = make([][]string, len(p.Clicks))
		for j, c := range p.Clicks {
			out[i].Clicks[j] = append([]string(nil), c...)
		}
	}
	return out
}

// Selectors returns the field reads of a statement section for a period
// state. PeriodNone has no reads.
func (l *Layout) Selectors(section domain.SectionID, state PeriodState) []Selector {
	return append([]Selector(nil), l.table[tableKey{section: section, state: state}]...)
}

// columnSuffix positions a statement cell. With one period both columns are
// the first; with two the prior column is addressed from the end.
func columnSuffix(period Period, state PeriodState) string {
	if period == PeriodCurrent {
		return "[1]"
	}
	switch state {
	case PeriodTwo:
		return "[last()]"
	case PeriodThreePlus:
		return "[2]"
	default:
		return "[1]"
	}
}

func join(root, path string) string {
	if strings.HasPrefix(path, "/") || root == "" {
		return path
	}
	return strings.TrimSuffix(root, "/") + "/" + path
}

func checkField(f FieldSpec, section domain.SectionID) error {
	if f.Path == "" {
		return layoutError(fmt.Sprintf("field %q has no path", f.Field))
	}
	switch f.Kind {
	case KindNumber, KindInteger, KindText, KindDate:
	default:
		return layoutError(fmt.Sprintf("field %q has invalid kind %q", f.Field, f.Kind))
	}
	for _, col := range domain.Schema {
		if col.Field == f.Field {
			if col.Section != section {
				return layoutError(fmt.Sprintf("field %q belongs to %s, not %s", f.Field, col.Section, section))
			}
			return nil
		}
	}
	return layoutError(fmt.Sprintf("field %q is not in the schema", f.Field))
}

func layoutError(msg string) error {
	return apperrors.NewConfigError("invalid layout: "+msg, nil)
}
