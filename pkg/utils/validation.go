package utils

import (
	"sort"
	"strings"
)

// FieldErrors collects the first validation error for each field of a form.
// It is rendered inline next to the offending fields, so it marshals as a
// plain field -> message object.
type FieldErrors map[string]string

// Add records msg for field unless the field already has an error.
func (fe FieldErrors) Add(field, msg string) {
	if _, exists := fe[field]; !exists {
		fe[field] = msg
	}
}

// Has reports whether field failed validation.
func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

// Err returns nil when no field failed, otherwise the FieldErrors itself.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Rule is one declarative validation check. Check returns an empty string
// when the value is acceptable, otherwise the message shown to the user.
type Rule[T any] struct {
	Field string
	Check func(T) string
}

// Validate runs rules in order against v and collects failures. Later rules
// for a field that already failed do not overwrite the first message.
func Validate[T any](v T, rules []Rule[T]) FieldErrors {
	errs := FieldErrors{}
	for _, r := range rules {
		if errs.Has(r.Field) {
			continue
		}
		if msg := r.Check(v); msg != "" {
			errs.Add(r.Field, msg)
		}
	}
	return errs
}

// Required returns msg when s is blank.
func Required(s, msg string) string {
	if strings.TrimSpace(s) == "" {
		return msg
	}
	return ""
}

// Present returns msg when s is empty. Unlike Required it keeps whitespace,
// so secrets made only of spaces still count as filled in.
func Present(s, msg string) string {
	if s == "" {
		return msg
	}
	return ""
}
