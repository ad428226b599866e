package contact

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const minLength = 6

// RejectRule decides whether a submission is refused before any write.
type RejectRule func(name, email, message string) bool

// LiteralRejectRule refuses only when all three values are shorter than six
// characters and the email is well formed. Most bad input passes it.
func LiteralRejectRule(name, email, message string) bool {
	return short(name) && short(email) && short(message) && emailPattern.MatchString(email)
}

// CorrectedRejectRule refuses when any value is shorter than six characters
// or the email is malformed.
func CorrectedRejectRule(name, email, message string) bool {
	return short(name) || short(email) || short(message) || !emailPattern.MatchString(email)
}

func short(s string) bool {
	return utf8.RuneCountInString(s) < minLength
}

// Rule names accepted by RuleByName.
const (
	RuleCorrected = "corrected"
	RuleLiteral   = "literal"
)

// RuleByName resolves a configured rule name. The empty name selects the
// corrected rule.
func RuleByName(name string) (RejectRule, error) {
	switch name {
	case "", RuleCorrected:
		return CorrectedRejectRule, nil
	case RuleLiteral:
		return LiteralRejectRule, nil
	default:
		return nil, fmt.Errorf("contact: unknown reject rule %q (want %q or %q)", name, RuleCorrected, RuleLiteral)
	}
}
