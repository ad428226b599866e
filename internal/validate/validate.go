// Package validate holds the field validators used by the onboarding wizard
// and the login form. A validator maps a candidate value to an error message;
// the empty string is the only "valid" result.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"unicode/utf8"
)

// Validator checks a single field value. It returns "" when the value is valid
// and a human-readable message otherwise. Validators must be pure.
type Validator func(value string) string

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FirstName requires a value of at least 3 characters.
func FirstName(value string) string {
	return nameRule("First Name", value)
}

// LastName requires a value of at least 3 characters.
func LastName(value string) string {
	return nameRule("Last Name", value)
}

func nameRule(label, value string) string {
	if value == "" {
		return label + " is required"
	}
	if utf8.RuneCountInString(value) < 3 {
		return label + " should be at least 3 characters"
	}
	return ""
}

// Email requires a local@domain.tld shaped value.
func Email(value string) string {
	if value == "" {
		return "Email is required"
	}
	if !emailPattern.MatchString(value) {
		return "Invalid email format"
	}
	return ""
}

// Password requires at least 8 characters.
func Password(value string) string {
	if value == "" {
		return "Password is required"
	}
	if utf8.RuneCountInString(value) < 8 {
		return "Password must be at least 8 characters long"
	}
	return ""
}

// Required rejects the empty value.
func Required(value string) string {
	if value == "" {
		return "This field is required"
	}
	return ""
}

// MinLength builds a validator that requires a value of at least n characters.
func MinLength(label string, n int) Validator {
	return func(value string) string {
		if value == "" {
			return label + " is required"
		}
		if utf8.RuneCountInString(value) < n {
			return fmt.Sprintf("%s should be at least %d characters", label, n)
		}
		return ""
	}
}

// Pattern builds a validator that requires value to match re. msg is returned
// on mismatch; when empty a generic "Invalid <label>" is used.
func Pattern(label string, re *regexp.Regexp, msg string) Validator {
	if msg == "" {
		msg = "Invalid " + label
	}
	return func(value string) string {
		if value == "" {
			return label + " is required"
		}
		if !re.MatchString(value) {
			return msg
		}
		return ""
	}
}

var named = map[string]Validator{
	"firstName": FirstName,
	"lastName":  LastName,
	"email":     Email,
	"password":  Password,
	"required":  Required,
}

// Lookup returns the built-in validator registered under name.
func Lookup(name string) (Validator, bool) {
	v, ok := named[name]
	return v, ok
}

// Names lists the registered validator names in sorted order.
func Names() []string {
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
