package domain

import (
	"strings"
	"unicode/utf8"
)

// MaxPersonNameLength is the maximum number of characters in a PersonName.
const MaxPersonNameLength = 100

// PersonName is the validated name of the person being greeted.
// The zero value is not a valid name; use NewPersonName.
type PersonName struct {
	value string
}

// NewPersonName validates raw and returns the trimmed name.
func NewPersonName(raw string) (PersonName, error) {
	value, err := validateText("name", raw, MaxPersonNameLength)
	if err != nil {
		return PersonName{}, err
	}
	return PersonName{value: value}, nil
}

// Value returns the underlying string.
func (n PersonName) Value() string { return n.value }

func (n PersonName) String() string { return n.value }

// NameKey is the form names are compared in by lookups. Every repository matches on it, so
// case-insensitive search gives the same answer whichever backend stores the greetings.
func NameKey(name string) string {
	return strings.ToLower(name)
}

// IsZero reports whether n was never constructed.
func (n PersonName) IsZero() bool { return n.value == "" }

// validateText rejects blank input and input longer than max characters, then trims it.
// The length bound applies to the raw input.
func validateText(field, raw string, max int) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &ValidationError{Field: field, Reason: ReasonEmpty, Max: max}
	}
	if utf8.RuneCountInString(raw) > max {
		return "", &ValidationError{Field: field, Reason: ReasonTooLong, Max: max}
	}
	return trimmed, nil
}
