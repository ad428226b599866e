package form

import (
	"maps"
	"sort"
)

// Field is one named unit of input: its current value and its current
// validation error ("" when valid).
type Field struct {
	Value Value  `json:"value"`
	Error string `json:"error,omitempty"`
}

// Fields maps field names to their value and error. Value and error live in
// one record so the two can never drift apart. Keys appear lazily as fields
// are written.
type Fields struct {
	m map[string]Field
}

// NewFields returns an empty field set.
func NewFields() *Fields {
	return &Fields{m: make(map[string]Field)}
}

// Set writes value and error for name in one step.
func (f *Fields) Set(name string, value Value, err string) {
	f.m[name] = Field{Value: value, Error: err}
}

// SetValue writes the value for name and keeps its existing error.
func (f *Fields) SetValue(name string, value Value) {
	field := f.m[name]
	field.Value = value
	f.m[name] = field
}

// Get returns the field stored under name.
func (f *Fields) Get(name string) (Field, bool) {
	field, ok := f.m[name]
	return field, ok
}

// Value returns the value stored under name, or the zero Value.
func (f *Fields) Value(name string) Value {
	return f.m[name].Value
}

// Error returns the error stored under name, or "".
func (f *Fields) Error(name string) string {
	return f.m[name].Error
}

// HasErrors reports whether any of names carries a non-empty error.
func (f *Fields) HasErrors(names ...string) bool {
	for _, name := range names {
		if f.m[name].Error != "" {
			return true
		}
	}
	return false
}

// Names returns the stored field names in sorted order.
func (f *Fields) Names() []string {
	names := make([]string, 0, len(f.m))
	for name := range f.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stored fields.
func (f *Fields) Len() int {
	return len(f.m)
}

// Snapshot returns a copy of the stored fields.
func (f *Fields) Snapshot() map[string]Field {
	return maps.Clone(f.m)
}

// Values returns name -> plain value (string or []string).
func (f *Fields) Values() map[string]any {
	out := make(map[string]any, len(f.m))
	for name, field := range f.m {
		out[name] = field.Value.Interface()
	}
	return out
}
