package domain

import (
	"strings"
)

// WorkItem is one identifier read from a work list
type WorkItem struct {
	// Index is the 1-based position among the data rows of the work list
	Index      int
	Identifier string
	// Registry is the optional exchange hint from the second column
	Registry string
}

// Resolution describes how the requested identifier matched what the source resolved
type Resolution string

const (
	ResolutionMatched    Resolution = "MATCHED"
	ResolutionMismatch   Resolution = "MISMATCH"
	ResolutionUnresolved Resolution = "UNRESOLVED"
)

// Record is one fully resolved output row. It is only built through NewRecord,
// so every schema slot holds either a value or MISSING.
type Record struct {
	Item       WorkItem
	Resolution Resolution
	values     map[Field]Value
	// Failures collects the per-field and per-section errors that produced MISSING slots
	Failures []error
}

// NewRecord assembles a record over the full schema. Fields absent from values
// become MISSING; fields outside the schema are ignored.
func NewRecord(item WorkItem, resolution Resolution, values map[Field]Value, failures []error) *Record {
	r := &Record{
		Item:       item,
		Resolution: resolution,
		values:     make(map[Field]Value, len(Schema)),
		Failures:   failures,
	}
	for _, col := range Schema {
		v, ok := values[col.Field]
		if !ok {
			v = Missing()
		}
		r.values[col.Field] = v
	}
	r.values[FieldResolution] = Text(string(resolution))
	return r
}

// Get returns the value for a field; unknown fields are MISSING
func (r *Record) Get(field Field) Value {
	return r.values[field]
}

// Values returns the record's values in schema order
func (r *Record) Values() []Value {
	out := make([]Value, len(Schema))
	for i, col := range Schema {
		out[i] = r.values[col.Field]
	}
	return out
}

// Row renders the record in schema order
func (r *Record) Row() []string {
	vals := r.Values()
	row := make([]string, len(vals))
	for i, v := range vals {
		row[i] = v.String()
	}
	return row
}

// MissingCount returns the number of MISSING slots
func (r *Record) MissingCount() int {
	n := 0
	for _, v := range r.values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// SymbolMatches compares identifiers the way exchanges print them
func SymbolMatches(requested, resolved string) bool {
	return strings.EqualFold(strings.TrimSpace(requested), strings.TrimSpace(resolved))
}
