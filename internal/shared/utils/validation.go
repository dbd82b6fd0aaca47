package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"
)

// Payload limits, in bytes
const (
	MaxLayoutSize     = 1 << 20
	MaxPropertiesSize = 64 << 10
)

// Layout and query limits
const (
	MaxIDLength         = 128
	MaxNameLength       = 256
	MaxWidgetsPerLayout = 200
	MaxPropertyDepth    = 8
	MinCityQueryLength  = 2
	MaxCityQueryLength  = 128
)

// ErrInvalidField is wrapped by every FieldError
var ErrInvalidField = errors.New("invalid field")

// FieldError names the offending field and what is wrong with it
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + " " + e.Reason
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidField
}

func fieldErr(field, format string, args ...any) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ValidateString checks rune length bounds and rejects NUL bytes. An empty
// optional value always passes.
func ValidateString(value, field string, minLen, maxLen int, required bool) error {
	if value == "" {
		if required {
			return fieldErr(field, "is required")
		}
		return nil
	}

	switch n := utf8.RuneCountInString(value); {
	case n < minLen:
		return fieldErr(field, "must be at least %d characters", minLen)
	case n > maxLen:
		return fieldErr(field, "must not exceed %d characters", maxLen)
	}
	if strings.IndexByte(value, 0) >= 0 {
		return fieldErr(field, "contains a NUL byte")
	}
	return nil
}

// ValidateID accepts [A-Za-z0-9_-] identifiers up to MaxIDLength. IDs end up
// in storage keys and URL paths, so nothing else is allowed.
func ValidateID(id, field string, required bool) error {
	if err := ValidateString(id, field, 1, MaxIDLength, required); err != nil {
		return err
	}
	for _, r := range id {
		if !isIDRune(r) {
			return fieldErr(field, "contains %q (only letters, digits, '-' and '_' are allowed)", r)
		}
	}
	return nil
}

func isIDRune(r rune) bool {
	return r == '-' || r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

// ValidateName checks a required display name
func ValidateName(name, field string) error {
	return ValidateString(name, field, 1, MaxNameLength, true)
}

// ValidateSize rejects payloads larger than maxSize bytes
func ValidateSize(data []byte, maxSize int) error {
	if len(data) > maxSize {
		return fmt.Errorf("payload of %d bytes exceeds the %d byte limit", len(data), maxSize)
	}
	return nil
}

// ValidateDepth rejects values whose maps and slices nest deeper than
// maxDepth. Named map and slice types are walked too.
func ValidateDepth(data any, maxDepth int) error {
	return depth(reflect.ValueOf(data), 0, maxDepth)
}

func depth(v reflect.Value, level, maxDepth int) error {
	if level > maxDepth {
		return fmt.Errorf("nesting depth %d exceeds maximum %d", level, maxDepth)
	}

	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := depth(iter.Value(), level+1, maxDepth); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := depth(v.Index(i), level+1, maxDepth); err != nil {
				return err
			}
		}
	}
	return nil
}
