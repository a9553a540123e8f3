// Package validation builds field-level error lists for request input.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/BodiAli/blog-api/internal/models"
)

// Locations reported on each FieldError.
const (
	LocationBody   = "body"
	LocationQuery  = "query"
	LocationParams = "params"
)

const (
	emptyErr     = "can not be empty."
	maxLengthErr = "can not exceed %d characters."
	minLengthErr = "must be at least %d characters."
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Checker accumulates field errors. Each field reports at most one error,
// the first rule it fails.
type Checker struct {
	location string
	errs     []models.FieldError
}

// NewChecker starts a checker for input found at location.
func NewChecker(location string) *Checker {
	return &Checker{location: location}
}

// Field starts a rule chain for one input value. The value is trimmed first.
func (c *Checker) Field(path, label, value string) *Field {
	return &Field{c: c, path: path, label: label, value: strings.TrimSpace(value), raw: value}
}

// Add records an error for path without a rule chain.
func (c *Checker) Add(path string, value any, msg string) {
	c.errs = append(c.errs, models.FieldError{
		Type:     "field",
		Value:    value,
		Msg:      msg,
		Path:     path,
		Location: c.location,
	})
}

// Errors returns the collected errors, nil when the input is valid.
func (c *Checker) Errors() []models.FieldError {
	return c.errs
}

// Err returns a validation AppError, or nil when nothing failed.
func (c *Checker) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return models.NewFieldValidationError(c.errs)
}

// Field is one value under validation.
type Field struct {
	c      *Checker
	path   string
	label  string
	value  string
	raw    string
	failed bool
}

// Value returns the trimmed value.
func (f *Field) Value() string {
	return f.value
}

func (f *Field) fail(msg string) *Field {
	if !f.failed {
		f.failed = true
		f.c.Add(f.path, f.raw, msg)
	}
	return f
}

// NotEmpty rejects blank values.
func (f *Field) NotEmpty() *Field {
	if f.value == "" {
		return f.fail(fmt.Sprintf("%s %s", f.label, emptyErr))
	}
	return f
}

// MaxLen rejects values longer than n characters.
func (f *Field) MaxLen(n int) *Field {
	if utf8.RuneCountInString(f.value) > n {
		return f.fail(fmt.Sprintf("%s "+maxLengthErr, f.label, n))
	}
	return f
}

// MinLen rejects values shorter than n characters.
func (f *Field) MinLen(n int) *Field {
	if utf8.RuneCountInString(f.value) < n {
		return f.fail(fmt.Sprintf("%s "+minLengthErr, f.label, n))
	}
	return f
}

// Email rejects values that are not an email address.
func (f *Field) Email() *Field {
	if !emailRegex.MatchString(f.value) {
		return f.fail(fmt.Sprintf("%s must be a valid email.", f.label))
	}
	return f
}

// Check fails the field with msg when ok is false.
func (f *Field) Check(ok bool, msg string) *Field {
	if !ok {
		return f.fail(msg)
	}
	return f
}

// Valid reports whether every rule so far passed.
func (f *Field) Valid() bool {
	return !f.failed
}
