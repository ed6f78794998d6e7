package relay

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Record is the named-field value threaded through a pipeline.
// Stages treat records as immutable: a stage never mutates its input in
// place, it returns a copy extended with the fields it computed. Existing
// fields are preserved across stages unless a stage explicitly redefines
// them, so any stage downstream can still read the original inputs.
type Record map[string]any

// Clone returns a shallow copy of the record.
// Field values are shared; they are treated as immutable by convention.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	maps.Copy(out, r)
	return out
}

// With returns a copy of the record with field set to value.
// The receiver is left untouched.
func (r Record) With(field string, value any) Record {
	out := r.Clone()
	out[field] = value
	return out
}

// Get returns the value of field and whether it is present.
func (r Record) Get(field string) (any, bool) {
	v, ok := r[field]
	return v, ok
}

// String returns the field rendered as text.
// Non-string scalars are formatted; an absent field is a MissingFieldError.
func (r Record) String(field string) (string, error) {
	v, ok := r[field]
	if !ok {
		return "", &MissingFieldError{Field: field}
	}
	return formatValue(v), nil
}

// Fields returns the field names in sorted order.
// Sorting keeps field enumeration deterministic across invocations.
func (r Record) Fields() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// formatValue renders a field value as literal text for template
// substitution. Strings pass through verbatim.
func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
