// Package validate holds the field checks shared by the public forms.
package validate

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/practiceops/practiceops/libs/apperr"
)

// Name trims and checks a person's name.
func Name(field, v string) (string, error) {
	v = strings.Join(strings.Fields(v), " ")
	n := utf8.RuneCountInString(v)
	if n < 2 {
		return "", apperr.Validation(field, field+" is required")
	}
	if n > 120 {
		return "", apperr.Validation(field, field+" is too long")
	}
	return v, nil
}

// Phone accepts digits with an optional leading + and common separators,
// returning the compact form.
func Phone(field, v string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(v) {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", apperr.Validation(field, field+" must contain only digits")
		}
	}
	out := b.String()
	digits := len(strings.TrimPrefix(out, "+"))
	if digits == 0 {
		return "", apperr.Validation(field, field+" is required")
	}
	if digits < 10 || digits > 15 {
		return "", apperr.Validation(field, field+" must have 10 to 15 digits")
	}
	return out, nil
}

// Email returns the bare lower-cased address.
func Email(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", apperr.Validation(field, field+" is required")
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v || len(v) > 254 {
		return "", apperr.Validation(field, field+" is not a valid email address")
	}
	return strings.ToLower(addr.Address), nil
}

// OptionalEmail is Email that lets blank through as nil.
func OptionalEmail(field string, v *string) (*string, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	out, err := Email(field, *v)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Text trims free text and enforces a rune limit. required rejects blank.
func Text(field, v string, max int, required bool) (string, error) {
	v = strings.TrimSpace(v)
	if required && v == "" {
		return "", apperr.Validation(field, field+" is required")
	}
	if utf8.RuneCountInString(v) > max {
		return "", apperr.Validation(field, field+" is too long")
	}
	return v, nil
}

// ID checks a row id before it reaches the database.
func ID(v string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(v))
	if err != nil {
		return "", apperr.Validation("id", "id must be a uuid")
	}
	return id.String(), nil
}
