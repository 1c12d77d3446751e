package keymaster

import (
	"errors"
	"fmt"
)

// Kind is the category of a keymaster error.
type Kind int

const (
	// KindUsage indicates a malformed invocation
	KindUsage Kind = iota
	// KindAuthentication indicates the authentication challenge did not succeed
	KindAuthentication
	// KindVault indicates the vault backend reported a failure
	KindVault
)

func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindAuthentication:
		return "authentication"
	case KindVault:
		return "vault"
	default:
		return "unknown"
	}
}

// Error is returned by every keymaster operation that fails.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// UsageError creates a usage error
func UsageError(message string, cause error) *Error {
	return &Error{Kind: KindUsage, Message: message, Cause: cause}
}

// AuthenticationError creates an authentication error
func AuthenticationError(message string, cause error) *Error {
	return &Error{Kind: KindAuthentication, Message: message, Cause: cause}
}

// VaultError creates a vault error
func VaultError(message string, cause error) *Error {
	return &Error{Kind: KindVault, Message: message, Cause: cause}
}

// IsKind reports whether err is a keymaster Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var kmErr *Error
	if errors.As(err, &kmErr) {
		return kmErr.Kind == kind
	}
	return false
}
