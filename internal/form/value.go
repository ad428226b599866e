package form

import (
	"encoding/json"
	"slices"
	"strings"
)

// Value is a field value: either a single text value or an ordered list of
// selections for multi-select fields.
type Value struct {
	text  string
	items []string
	multi bool
}

// Text returns a single-valued Value.
func Text(s string) Value {
	return Value{text: s}
}

// List returns a multi-valued Value. The items are copied.
func List(items ...string) Value {
	return Value{items: slices.Clone(items), multi: true}
}

// IsList reports whether v holds a list.
func (v Value) IsList() bool {
	return v.multi
}

// String returns the text value, or the list joined with ", ".
func (v Value) String() string {
	if v.multi {
		return strings.Join(v.items, ", ")
	}
	return v.text
}

// Items returns a copy of the list. A text value yields a one-element list
// unless it is empty.
func (v Value) Items() []string {
	if v.multi {
		return slices.Clone(v.items)
	}
	if v.text == "" {
		return nil
	}
	return []string{v.text}
}

// IsZero reports whether v holds no text and no items.
func (v Value) IsZero() bool {
	return v.text == "" && len(v.items) == 0
}

// Interface returns the plain Go representation: string or []string.
func (v Value) Interface() any {
	if v.multi {
		return v.Items()
	}
	return v.text
}

// Equal reports whether v and o hold the same value.
func (v Value) Equal(o Value) bool {
	return v.multi == o.multi && v.text == o.text && slices.Equal(v.items, o.items)
}

// MarshalJSON encodes a text value as a string and a list as an array.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON accepts either a string or an array of strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err == nil {
		*v = List(items...)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = Text(s)
	return nil
}
