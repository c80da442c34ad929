// Copyright (c) 2026 Wearmint. All rights reserved.

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError], plus the catalog's
// workflow validation rules (short_word format, price bounds, publish
// prerequisites).
//
// # Architecture
//
// This package is used exclusively in the workflow layer — never in handlers
// or storage. It ensures that business logic only operates on semantically
// valid data.
package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/wearmint/catalog/internal/platform/apperr"
)

var (
	// uuidRegex matches a UUIDv4 or UUIDv7 string.
	uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	// shortWordRegex matches a single alphanumerical word with no spaces or
	// special characters. Short words feed straight into wearable SKUs, so
	// they are validated, never transformed.
	shortWordRegex = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

	// ErrInvalidJSON is returned when the request body cannot be decoded.
	ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")
)

// MaxShortWordLen is the maximum length of a serie or collection short_word.
const MaxShortWordLen = 30

// Validator collects field-level validation errors via a fluent, chainable API.
//
// # Concurrency
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request/operation.
type Validator struct {
	errs []apperr.FieldError
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MaxLen fails if the Unicode character count exceeds max.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

// MinLen fails if the Unicode character count is below min.
func (v *Validator) MinLen(field, value string, min int) *Validator {
	if utf8.RuneCountInString(value) < min {
		v.add(field, fmt.Sprintf("Minimum %d characters", min))
	}
	return v
}

// Range fails if the value is outside the [min, max] range (inclusive).
func (v *Validator) Range(field string, value, min, max int) *Validator {
	if value < min || value > max {
		v.add(field, fmt.Sprintf("Must be between %d and %d", min, max))
	}
	return v
}

// UUID fails if the value is not a valid UUID string (case-insensitive).
func (v *Validator) UUID(field, value string) *Validator {
	lower := strings.ToLower(value)
	if !uuidRegex.MatchString(lower) {
		v.add(field, "Must be a valid UUID")
	}
	return v
}

// URL fails if the value is not an absolute http(s) URL.
func (v *Validator) URL(field, value string) *Validator {
	parsed, err := url.Parse(value)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		v.add(field, "Must be a valid absolute URL")
	}
	return v
}

// OneOf fails if the value is not in the allowed set of strings.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.add(field, fmt.Sprintf("Must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Custom adds a failure with a custom message if the condition is true.
//
// # Example
//
//	v.Custom("quantity", quantity < 1, "Must be at least 1")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.add(field, message)
	}
	return v
}

// Err returns a [apperr.AppError] (VALIDATION_ERROR) if any rules failed,
// or nil if all rules passed.
//
// This is the only output method — call it at the end of the chain.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// HasErrors reports whether any validation rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// add appends a [apperr.FieldError] to the internal slice.
func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}

// RequiredError is a shortcut to create a single-field validation error.
func RequiredError(field, message string) *apperr.AppError {
	return apperr.ValidationError("Validation failed", apperr.FieldError{
		Field:   field,
		Message: message,
	})
}

// # Workflow Rules

// ShortWord checks that the value is a single alphanumerical word of at most
// [MaxShortWordLen] characters. Empty values pass; presence is enforced
// separately at publish time.
func ShortWord(value string) error {
	if value == "" {
		return nil
	}
	if !shortWordRegex.MatchString(value) {
		return apperr.BadRequest("The short_word must contain only alphanumerical characters")
	}
	if utf8.RuneCountInString(value) > MaxShortWordLen {
		return apperr.BadRequest(fmt.Sprintf("The short_word must be less than or equal to %d characters", MaxShortWordLen))
	}
	return nil
}

// Price checks that a price, when set, is not negative.
func Price(price *float64) error {
	if price != nil && *price < 0 {
		return apperr.BadRequest("The price must be greater than or equal to 0")
	}
	return nil
}

// PublishRequired builds the error for publish attempts with empty required
// fields. missing holds the JSON names of the empty fields, in schema order.
func PublishRequired(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return apperr.BadRequest(fmt.Sprintf(
		"Some fields required to publish don't have a value: [%s]",
		strings.Join(missing, ", "),
	))
}
