package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxTypeIDLength bounds type identifiers accepted from registrations, CLI
// arguments and wiring files.
const maxTypeIDLength = 256

// ValidateTypeID validates a type identifier for use as a registry key.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or whitespace
//   - No "::" (reserved for "Type::method" callable strings)
//   - Maximum length of 256 characters
func ValidateTypeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidTypeID, "type id cannot be empty")
	}

	if len(id) > maxTypeIDLength {
		return New(ErrCodeInvalidTypeID, "type id too long (max %d characters)", maxTypeIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidTypeID, "type id contains invalid characters: %q", id)
		}
	}

	if strings.Contains(id, "::") {
		return New(ErrCodeInvalidTypeID, "type id cannot contain \"::\": %q", id)
	}

	return nil
}

// selectorRegex matches exported Go identifiers.
var selectorRegex = regexp.MustCompile(`^[A-Z][A-Za-z0-9_]*$`)

// ValidateSelector validates a method selector. Only exported Go method
// names can be reached through reflection.
func ValidateSelector(name string) error {
	if name == "" {
		return New(ErrCodeInvalidSelector, "method name cannot be empty")
	}
	if !selectorRegex.MatchString(name) {
		return New(ErrCodeInvalidSelector, "invalid method name %q (must be an exported identifier)", name)
	}
	return nil
}

// ValidateOverrideKey validates the key of an argument override. Keys are
// parameter names, optionally prefixed with a single ":".
func ValidateOverrideKey(key string) error {
	name := strings.TrimPrefix(key, ":")
	if name == "" {
		return New(ErrCodeInvalidInput, "override key cannot be empty")
	}
	if strings.HasPrefix(name, ":") {
		return New(ErrCodeInvalidInput, "override key %q has more than one \":\" prefix", key)
	}
	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "override key contains invalid characters: %q", key)
		}
	}
	return nil
}
