package form

import (
	"slices"
	"strings"
)

// Choice is a single- or multi-select control over a fixed option list with
// case-insensitive substring search.
type Choice struct {
	options  []string
	filtered []string
	multi    bool
	open     bool
	term     string

	value    string
	selected []string
}

// NewChoice creates a closed choice input. options is copied.
func NewChoice(options []string, multi bool) *Choice {
	opts := slices.Clone(options)
	return &Choice{
		options:  opts,
		filtered: slices.Clone(opts),
		multi:    multi,
	}
}

// Multi reports whether the control allows several selections.
func (c *Choice) Multi() bool { return c.multi }

// IsOpen reports whether the option list is showing.
func (c *Choice) IsOpen() bool { return c.open }

// Options returns the full option list.
func (c *Choice) Options() []string { return slices.Clone(c.options) }

// Filtered returns the options matching the current search term.
func (c *Choice) Filtered() []string { return slices.Clone(c.filtered) }

// SearchTerm returns the current search text.
func (c *Choice) SearchTerm() string { return c.term }

// Empty reports whether no option matches the current search.
func (c *Choice) Empty() bool { return len(c.filtered) == 0 }

// Open shows the list with the search cleared and all options visible.
func (c *Choice) Open() {
	c.open = true
	c.term = ""
	c.filtered = slices.Clone(c.options)
}

// Close hides the list.
func (c *Choice) Close() {
	c.open = false
}

// Toggle opens a closed control and closes an open one.
func (c *Choice) Toggle() {
	if c.open {
		c.Close()
		return
	}
	c.Open()
}

// Search filters the full option list by term. The filter always starts from
// the full list so widening a narrowed search works.
func (c *Choice) Search(term string) {
	c.term = term
	needle := strings.ToLower(term)
	c.filtered = make([]string, 0, len(c.options))
	for _, opt := range c.options {
		if strings.Contains(strings.ToLower(opt), needle) {
			c.filtered = append(c.filtered, opt)
		}
	}
}

// Select picks option. In single mode it sets the value and closes; in multi
// mode it toggles membership, appending new selections at the end. Options
// not in the list are ignored.
func (c *Choice) Select(option string) {
	if !slices.Contains(c.options, option) {
		return
	}
	if c.multi {
		if i := slices.Index(c.selected, option); i >= 0 {
			c.selected = slices.Delete(c.selected, i, i+1)
		} else {
			c.selected = append(c.selected, option)
		}
	} else {
		c.value = option
		c.open = false
	}
	c.term = ""
}

// Remove drops option from a multi selection without opening or closing.
func (c *Choice) Remove(option string) {
	if !c.multi {
		return
	}
	if i := slices.Index(c.selected, option); i >= 0 {
		c.selected = slices.Delete(c.selected, i, i+1)
	}
}

// IsSelected reports whether option is the current value or part of the selection.
func (c *Choice) IsSelected(option string) bool {
	if c.multi {
		return slices.Contains(c.selected, option)
	}
	return c.value == option
}

// Value returns the single-mode selection.
func (c *Choice) Value() string { return c.value }

// Selected returns the multi-mode selection in insertion order.
func (c *Choice) Selected() []string { return slices.Clone(c.selected) }

// FormValue returns the selection as a field value.
func (c *Choice) FormValue() Value {
	if c.multi {
		return List(c.selected...)
	}
	return Text(c.value)
}
