package validation

import (
	"fmt"

	dErrors "mcpgate/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize is the maximum allowed request body size (64 KB).
	MaxBodySize = 64 * 1024
)

// Payload limits for session creation inputs.
const (
	// MaxClientInfoSize bounds the serialized client info object.
	MaxClientInfoSize = 16 * 1024

	// MaxCapabilitiesSize bounds the serialized capability declaration.
	MaxCapabilitiesSize = 64 * 1024

	// MaxUserAgentLength is the maximum stored user agent length.
	MaxUserAgentLength = 512

	// MaxNotesLength is the maximum length of a deactivation reason.
	MaxNotesLength = 256

	// MaxCredentialIDLength is the maximum length of a credential identifier.
	MaxCredentialIDLength = 128
)

// CheckSize validates that a payload does not exceed max bytes, reporting
// failures under the given code.
func CheckSize(code dErrors.Code, fieldName string, size, max int) error {
	if size > max {
		return dErrors.New(code, fmt.Sprintf("%s exceeds max size of %d bytes", fieldName, max))
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// Truncate cuts value to at most max bytes. Used for informational fields
// where rejecting the request would be worse than storing a prefix.
func Truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}
