package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	var messages []string
	for _, err := range ve {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks the address syntactically. It runs before any ledger
// write or email dispatch so a bad address never leaves a half-created record.
func ValidateEmail(email, fieldName string) *ValidationError {
	if strings.TrimSpace(email) == "" {
		return &ValidationError{Field: fieldName, Message: "is required"}
	}
	if !emailRegex.MatchString(email) {
		return &ValidationError{Field: fieldName, Message: "is not a valid email address"}
	}
	return nil
}

func ValidateString(value, fieldName string, minLen, maxLen int, required bool) *ValidationError {
	if required && strings.TrimSpace(value) == "" {
		return &ValidationError{Field: fieldName, Message: "is required"}
	}

	if value != "" {
		if utf8.RuneCountInString(value) < minLen {
			return &ValidationError{Field: fieldName, Message: fmt.Sprintf("must be at least %d characters", minLen)}
		}
		if utf8.RuneCountInString(value) > maxLen {
			return &ValidationError{Field: fieldName, Message: fmt.Sprintf("must be at most %d characters", maxLen)}
		}
	}

	return nil
}

// SanitizePathSegment neutralizes separators and parent references in names
// that end up inside object keys.
func SanitizePathSegment(name string) string {
	name = strings.ReplaceAll(name, "..", "_")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	return name
}
