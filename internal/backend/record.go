package backend

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Record is one table row as a JSON object.
type Record map[string]any

// ToRecord converts a struct with json tags into a Record.
func ToRecord(v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("record is not an object: %w", err)
	}
	return rec, nil
}

// Decode unmarshals the record into v.
func (r Record) Decode(v any) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// String returns the column value formatted the way filters compare it.
func (r Record) String(column string) string {
	v, ok := r[column]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	cp := make(Record, len(r))
	for k, v := range r {
		cp[k] = v
	}
	return cp
}

// Condition is a single column equality test.
type Condition struct {
	Column string
	Value  string
}

// Filter selects rows by column equality and optionally orders them.
// The zero Filter matches every row.
type Filter struct {
	Conditions []Condition
	OrderBy    string
	Descending bool
}

// Eq returns a filter matching rows whose column equals value.
func Eq(column, value string) Filter {
	return Filter{}.And(column, value)
}

// And adds an equality condition.
func (f Filter) And(column, value string) Filter {
	conds := make([]Condition, len(f.Conditions), len(f.Conditions)+1)
	copy(conds, f.Conditions)
	f.Conditions = append(conds, Condition{Column: column, Value: value})
	return f
}

// Order sets the sort column.
func (f Filter) Order(column string, descending bool) Filter {
	f.OrderBy = column
	f.Descending = descending
	return f
}

// Matches reports whether rec satisfies every condition.
func (f Filter) Matches(rec Record) bool {
	for _, c := range f.Conditions {
		if rec.String(c.Column) != c.Value {
			return false
		}
	}
	return true
}

// Sort orders rows in place by OrderBy. Values compare as strings, which
// orders ISO dates and timestamps correctly.
func (f Filter) Sort(rows []Record) {
	if f.OrderBy == "" {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].String(f.OrderBy), rows[j].String(f.OrderBy)
		if f.Descending {
			return a > b
		}
		return a < b
	})
}

// String renders the conditions in PostgREST/realtime syntax,
// e.g. "user_id=eq.42".
func (f Filter) String() string {
	parts := make([]string, len(f.Conditions))
	for i, c := range f.Conditions {
		parts[i] = c.Column + "=eq." + c.Value
	}
	return strings.Join(parts, ",")
}
