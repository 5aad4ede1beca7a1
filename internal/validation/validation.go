// Package validation holds explicit field validators. Each validator checks a
// single value and returns an error message or "". Forms compose them by hand.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// FieldError is a single failed check on a named field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is the list of field errors of one form.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends an error for field when msg is non-empty.
func (e *Errors) Add(field, msg string) {
	if msg != "" {
		*e = append(*e, FieldError{Field: field, Message: msg})
	}
}

// Check runs validators in order and records the first failure only.
func (e *Errors) Check(field string, checks ...string) {
	for _, msg := range checks {
		if msg != "" {
			e.Add(field, msg)
			return
		}
	}
}

// Err returns nil when there are no errors.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Has reports whether field already failed.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// ByField groups messages per field for responses.
func (e Errors) ByField() map[string][]string {
	out := make(map[string][]string, len(e))
	for _, fe := range e {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}

var validate = validator.New()

func Required(v string) string {
	if strings.TrimSpace(v) == "" {
		return "This field is required."
	}
	return ""
}

func MaxLen(v string, max int) string {
	if utf8.RuneCountInString(v) > max {
		return fmt.Sprintf("Field cannot be longer than %d characters.", max)
	}
	return ""
}

func Length(v string, min, max int) string {
	n := utf8.RuneCountInString(v)
	if n < min || n > max {
		return fmt.Sprintf("Field must be between %d and %d characters long.", min, max)
	}
	return ""
}

func Email(v string) string {
	if err := validate.Var(v, "required,email"); err != nil {
		return "Invalid email address."
	}
	return ""
}

func EqualTo(v, other, otherField string) string {
	if v != other {
		return fmt.Sprintf("Field must be equal to %s.", otherField)
	}
	return ""
}

// FileAllowed checks the extension of an uploaded filename against an
// allow-list such as []string{"jpg", "png"}. Empty filenames pass: the
// file is optional.
func FileAllowed(filename string, allowed []string) string {
	if filename == "" {
		return ""
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, a := range allowed {
		if ext == a {
			return ""
		}
	}
	return "File does not have an approved extension: " + strings.Join(allowed, ", ")
}
