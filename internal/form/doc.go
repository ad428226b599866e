// Package form provides the building blocks of the interactive forms: the
// per-field input binding, the searchable choice input, and the field set that
// keeps each field's value and error together.
package form
