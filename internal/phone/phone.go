// Package phone normalizes and validates recipient phone numbers.
//
// Two checks exist. Validate is strict and applies a per-country rule table;
// it guards contact ingestion. CheckLoose is a format-only test used when
// numbers that are already stored get re-checked at send time.
package phone

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrUnsupportedCountry = errors.New("unsupported country code")
	ErrInvalidPhoneFormat = errors.New("invalid phone format")
)

type Kind string

const (
	KindMissingPlus        Kind = "missing_plus"
	KindUnsupportedCountry Kind = "unsupported_country"
	KindTooShort           Kind = "too_short"
	KindTooLong            Kind = "too_long"
	KindInvalidPattern     Kind = "invalid_pattern"
	KindInvalidFormat      Kind = "invalid_format"
)

// ValidationError reports why a number was rejected and, when the country is
// known, the expected format.
type ValidationError struct {
	Kind    Kind
	Country string
	Example string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrUnsupportedCountry:
		return e.Kind == KindUnsupportedCountry
	case ErrInvalidPhoneFormat:
		return e.Kind != KindUnsupportedCountry
	}
	return false
}

// Rule is the accepted shape of numbers for one calling code. Lengths count
// every character of the normalized number, including '+' and the code.
type Rule struct {
	Code    string
	Country string
	MinLen  int
	MaxLen  int
	Leading string // allowed first digits after the code
	Example string
}

var rules = []Rule{
	{Code: "233", Country: "Ghana", MinLen: 13, MaxLen: 13, Leading: "23456789", Example: "+233241234567"},
	{Code: "234", Country: "Nigeria", MinLen: 14, MaxLen: 14, Leading: "789", Example: "+2348031234567"},
	{Code: "1", Country: "US/Canada", MinLen: 12, MaxLen: 12, Leading: "23456789", Example: "+12025550123"},
	{Code: "44", Country: "UK", MinLen: 13, MaxLen: 13, Leading: "123456789", Example: "+447911123456"},
	{Code: "91", Country: "India", MinLen: 14, MaxLen: 14, Leading: "789", Example: "+9198765432101"},
	{Code: "61", Country: "Australia", MinLen: 13, MaxLen: 13, Leading: "4", Example: "+614123456789"},
	{Code: "27", Country: "South Africa", MinLen: 13, MaxLen: 13, Leading: "678", Example: "+278212345678"},
}

// byCodeLen holds rules with longer codes first so that prefix matching
// resolves to the longest code.
var byCodeLen = func() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Code) > len(out[j].Code)
	})
	return out
}()

// supportedCodes lists every rule as "+code (Country, e.g. example)".
var supportedCodes = func() string {
	parts := make([]string, len(rules))
	for i, r := range rules {
		parts[i] = fmt.Sprintf("+%s (%s, e.g. %s)", r.Code, r.Country, r.Example)
	}
	return strings.Join(parts, ", ")
}()

var loosePattern = regexp.MustCompile(`^\+?[1-9]\d{9,14}$`)

// Rules returns the supported countries in table order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Normalize drops every character that is not a digit, keeping a '+' only
// when it is the first significant character.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Lookup finds the rule whose code is the longest prefix of digits.
func Lookup(digits string) (Rule, bool) {
	for _, r := range byCodeLen {
		if strings.HasPrefix(digits, r.Code) {
			return r, true
		}
	}
	return Rule{}, false
}

// Validate normalizes raw and checks it against the country table. Length is
// checked before the leading digit.
func Validate(raw string) (string, error) {
	n := Normalize(raw)
	if !strings.HasPrefix(n, "+") {
		example := rules[0].Example
		if r, ok := Lookup(n); ok {
			example = r.Example
		}
		return "", &ValidationError{
			Kind:    KindMissingPlus,
			Example: example,
			Message: fmt.Sprintf("phone number %q must start with '+' and a country code, expected format %s", raw, example),
		}
	}
	digits := n[1:]
	rule, ok := Lookup(digits)
	if !ok {
		return "", &ValidationError{
			Kind:    KindUnsupportedCountry,
			Message: fmt.Sprintf("phone number %q has an unsupported country code, supported: %s", raw, supportedCodes),
		}
	}

	verr := func(kind Kind, what string) error {
		return &ValidationError{
			Kind:    kind,
			Country: rule.Country,
			Example: rule.Example,
			Message: fmt.Sprintf("%s number %s %s, expected format %s", rule.Country, n, what, rule.Example),
		}
	}
	if len(n) < rule.MinLen {
		return "", verr(KindTooShort, "is too short")
	}
	if len(n) > rule.MaxLen {
		return "", verr(KindTooLong, "is too long")
	}
	if !strings.ContainsRune(rule.Leading, rune(digits[len(rule.Code)])) {
		return "", verr(KindInvalidPattern, "has an invalid leading digit")
	}
	return n, nil
}

// CheckLoose applies the send-time format check: any '+'-optional number of
// 10 to 15 digits not starting with 0.
func CheckLoose(raw string) (string, error) {
	n := Normalize(raw)
	if !loosePattern.MatchString(n) {
		return "", &ValidationError{
			Kind:    KindInvalidFormat,
			Message: fmt.Sprintf("invalid phone number format: %s", raw),
		}
	}
	return n, nil
}

// Mask replaces every digit except the last four with '*'.
func Mask(p string) string {
	total := 0
	for i := 0; i < len(p); i++ {
		if p[i] >= '0' && p[i] <= '9' {
			total++
		}
	}
	keep := total - 4
	out := []byte(p)
	seen := 0
	for i := range out {
		if out[i] >= '0' && out[i] <= '9' {
			if seen < keep {
				out[i] = '*'
			}
			seen++
		}
	}
	return string(out)
}
