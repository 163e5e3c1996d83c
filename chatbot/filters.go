package chatbot

import (
    "fmt"
    "strings"
)

// filterSet builds a WHERE clause as an ordered list of predicates with
// $n bound parameters. Every aggregation routine goes through it so null
// handling and parameter binding stay consistent.
type filterSet struct {
    clauses []string
    args    []interface{}
}

func newFilterSet() *filterSet {
    return &filterSet{}
}

// Bind appends a value and returns its $n placeholder.
func (f *filterSet) Bind(v interface{}) string {
    f.args = append(f.args, v)
    return fmt.Sprintf("$%d", len(f.args))
}

// Static adds a predicate with no bound parameter.
func (f *filterSet) Static(clause string) *filterSet {
    f.clauses = append(f.clauses, clause)
    return f
}

// Equal adds col = $n.
func (f *filterSet) Equal(col string, v interface{}) *filterSet {
    f.clauses = append(f.clauses, fmt.Sprintf("%s = %s", col, f.Bind(v)))
    return f
}

// EqualFold adds a case-insensitive equality, for closed-enumeration fields
// (category, gender, zone).
func (f *filterSet) EqualFold(col string, v string) *filterSet {
    f.clauses = append(f.clauses, fmt.Sprintf("UPPER(%s) = UPPER(%s)", col, f.Bind(v)))
    return f
}

// Contains adds a case-insensitive substring match, for free-text fields
// (modality, weapon, site class).
func (f *filterSet) Contains(col string, v string) *filterSet {
    f.clauses = append(f.clauses, fmt.Sprintf("%s ILIKE %s", col, f.Bind("%"+v+"%")))
    return f
}

// Year adds EXTRACT(YEAR FROM col) = $n.
func (f *filterSet) Year(col string, year int) *filterSet {
    f.clauses = append(f.clauses, fmt.Sprintf("EXTRACT(YEAR FROM %s) = %s", col, f.Bind(year)))
    return f
}

// DateGTE / DateLTE bound a date column inclusively.
func (f *filterSet) DateGTE(col, date string) *filterSet {
    f.clauses = append(f.clauses, fmt.Sprintf("%s >= %s", col, f.Bind(date)))
    return f
}

func (f *filterSet) DateLTE(col, date string) *filterSet {
    f.clauses = append(f.clauses, fmt.Sprintf("%s <= %s", col, f.Bind(date)))
    return f
}

// NotNull adds col IS NOT NULL.
func (f *filterSet) NotNull(col string) *filterSet {
    f.clauses = append(f.clauses, col+" IS NOT NULL")
    return f
}

// Where renders the combined predicate list, "1=1" when empty so callers
// can always interpolate it after WHERE.
func (f *filterSet) Where() string {
    if len(f.clauses) == 0 {
        return "1=1"
    }
    return strings.Join(f.clauses, " AND ")
}

// Args returns the bound parameters in placeholder order.
func (f *filterSet) Args() []interface{} {
    return f.args
}
